package provision

import (
	"context"

	cloudtrailsvc "github.com/aws/aws-sdk-go-v2/service/cloudtrail"
	s3svc "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/qdev-ingest/q3p/internal/awsclient"
	"github.com/qdev-ingest/q3p/internal/export"
)

// S3API is the narrow S3 surface the bucket provisioner needs.
type S3API interface {
	HeadBucket(ctx context.Context, params *s3svc.HeadBucketInput, optFns ...func(*s3svc.Options)) (*s3svc.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, params *s3svc.CreateBucketInput, optFns ...func(*s3svc.Options)) (*s3svc.CreateBucketOutput, error)
	PutBucketPolicy(ctx context.Context, params *s3svc.PutBucketPolicyInput, optFns ...func(*s3svc.Options)) (*s3svc.PutBucketPolicyOutput, error)
}

// CloudTrailAPI is the narrow CloudTrail surface the trail provisioner needs.
type CloudTrailAPI interface {
	DescribeTrails(ctx context.Context, params *cloudtrailsvc.DescribeTrailsInput, optFns ...func(*cloudtrailsvc.Options)) (*cloudtrailsvc.DescribeTrailsOutput, error)
	CreateTrail(ctx context.Context, params *cloudtrailsvc.CreateTrailInput, optFns ...func(*cloudtrailsvc.Options)) (*cloudtrailsvc.CreateTrailOutput, error)
	PutEventSelectors(ctx context.Context, params *cloudtrailsvc.PutEventSelectorsInput, optFns ...func(*cloudtrailsvc.Options)) (*cloudtrailsvc.PutEventSelectorsOutput, error)
	StartLogging(ctx context.Context, params *cloudtrailsvc.StartLoggingInput, optFns ...func(*cloudtrailsvc.Options)) (*cloudtrailsvc.StartLoggingOutput, error)
}

// Backend is the provisioning backend the setup orchestrator drives. Tests
// inject fakes; production code builds one from a loaded client set.
type Backend struct {
	S3         S3API
	CloudTrail CloudTrailAPI
	Export     export.Clients
}

// NewBackend wires a Backend from production SDK clients.
func NewBackend(cs *awsclient.ClientSet) Backend {
	return Backend{
		S3:         cs.S3,
		CloudTrail: cs.CloudTrail,
		Export: export.Clients{
			SSOAdmin:      cs.SSOAdmin,
			IdentityStore: cs.IdentityStore,
			S3:            cs.S3,
		},
	}
}
