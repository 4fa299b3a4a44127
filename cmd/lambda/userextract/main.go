// Scheduled Lambda entry point for the identity export. EventBridge invokes
// it with the target bucket; the handler snapshots the IAM Identity Center
// directory to CSV and mirrors it into the bucket.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	awslambda "github.com/aws/aws-lambda-go/lambda"

	"github.com/qdev-ingest/q3p/internal/awsclient"
	"github.com/qdev-ingest/q3p/internal/export"
	"github.com/qdev-ingest/q3p/internal/log"
	"github.com/qdev-ingest/q3p/internal/models"
)

// Request is the scheduled invocation payload.
type Request struct {
	BucketName string `json:"bucket_name"`
	Region     string `json:"region,omitempty"`
	OutputFile string `json:"output_file,omitempty"`
}

func main() {
	log.Init()
	awslambda.Start(handler)
}

func handler(ctx context.Context, req Request) (*models.ExportResult, error) {
	return handle(ctx, req, nil)
}

// handle validates the payload and runs the export. Directory and upload
// errors are returned to Lambda so the invocation is marked failed and the
// schedule's retry policy applies.
func handle(ctx context.Context, req Request, factory awsclient.ClientFactory) (*models.ExportResult, error) {
	if req.BucketName == "" {
		return nil, fmt.Errorf("bucket_name is required")
	}

	sess, err := awsclient.Load(ctx, "", req.Region, factory)
	if err != nil {
		return nil, err
	}

	return export.Run(ctx, export.Clients{
		SSOAdmin:      sess.Clients.SSOAdmin,
		IdentityStore: sess.Clients.IdentityStore,
		S3:            sess.Clients.S3,
	}, export.Options{
		OutputPath: artifactPath(req.OutputFile),
		Bucket:     req.BucketName,
	})
}

// artifactPath places the CSV under the writable Lambda /tmp unless the
// payload already names an absolute path.
func artifactPath(outputFile string) string {
	if outputFile == "" {
		outputFile = "identity-center-users.csv"
	}
	if filepath.IsAbs(outputFile) {
		return outputFile
	}
	return filepath.Join(os.TempDir(), outputFile)
}
