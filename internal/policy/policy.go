// Package policy builds the bucket policy required for Q Developer ingestion
// and loads the static IAM policy documents consumed as opaque input.
package policy

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/qdev-ingest/q3p/internal/naming"
)

// Service principals granted access by the bucket policy.
const (
	QDeveloperPrincipal = "q.amazonaws.com"
	CloudTrailPrincipal = "cloudtrail.amazonaws.com"
)

// Document is a minimal IAM policy document model: enough to render the
// bucket policy, nothing more.
type Document struct {
	Version   string      `json:"Version"`
	Statement []Statement `json:"Statement"`
}

// Statement is one policy statement.
type Statement struct {
	Sid       string         `json:"Sid,omitempty"`
	Effect    string         `json:"Effect"`
	Principal Principal      `json:"Principal"`
	Action    []string       `json:"Action"`
	Resource  []string       `json:"Resource"`
	Condition map[string]any `json:"Condition,omitempty"`
}

// Principal identifies the AWS service a statement applies to.
type Principal struct {
	Service string `json:"Service"`
}

// ForBucket returns the bucket policy granting the Q Developer service
// read/write access under the q-developer/ prefix and CloudTrail delivery
// access under cloudtrail-logs/.
func ForBucket(bucketName string) Document {
	bucketARN := "arn:aws:s3:::" + bucketName
	return Document{
		Version: "2012-10-17",
		Statement: []Statement{
			{
				Sid:       "AllowAmazonQAccess",
				Effect:    "Allow",
				Principal: Principal{Service: QDeveloperPrincipal},
				Action:    []string{"s3:GetObject", "s3:ListBucket", "s3:PutObject"},
				Resource: []string{
					bucketARN,
					bucketARN + "/" + naming.QDeveloperPrefix + "*",
				},
			},
			{
				Sid:       "AWSCloudTrailAclCheck",
				Effect:    "Allow",
				Principal: Principal{Service: CloudTrailPrincipal},
				Action:    []string{"s3:GetBucketAcl"},
				Resource:  []string{bucketARN},
			},
			{
				Sid:       "AWSCloudTrailWrite",
				Effect:    "Allow",
				Principal: Principal{Service: CloudTrailPrincipal},
				Action:    []string{"s3:PutObject"},
				Resource:  []string{bucketARN + "/" + naming.TrailLogPrefix + "*"},
				Condition: map[string]any{
					"StringEquals": map[string]any{
						"s3:x-amz-acl": "bucket-owner-full-control",
					},
				},
			},
		},
	}
}

// JSON renders d as the string form PutBucketPolicy expects.
func (d Document) JSON() (string, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("marshal bucket policy: %w", err)
	}
	return string(data), nil
}

// LoadDocument reads an externally maintained policy document (e.g. the
// Lambda trust or permission policies under policies/) and verifies it is
// well-formed JSON. The content is otherwise opaque to this tool.
func LoadDocument(path string) (json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy document %s: %w", path, err)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("policy document %s is not valid JSON", path)
	}
	return json.RawMessage(data), nil
}
