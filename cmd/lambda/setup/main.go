// Scheduled Lambda entry point for the provisioning flow. EventBridge
// invokes it with a small JSON payload naming the target bucket; the handler
// runs the same setup the CLI runs and returns the structured report.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	awslambda "github.com/aws/aws-lambda-go/lambda"

	"github.com/qdev-ingest/q3p/internal/awsclient"
	"github.com/qdev-ingest/q3p/internal/log"
	"github.com/qdev-ingest/q3p/internal/models"
	"github.com/qdev-ingest/q3p/internal/provision"
)

// Request is the scheduled invocation payload.
type Request struct {
	BucketName  string `json:"bucket_name"`
	Region      string `json:"region,omitempty"`
	ExportUsers bool   `json:"export_users,omitempty"`
	OutputFile  string `json:"output_file,omitempty"`
}

func main() {
	log.Init()
	awslambda.Start(handler)
}

func handler(ctx context.Context, req Request) (*models.SetupReport, error) {
	return handle(ctx, req, nil)
}

// handle validates the payload and runs setup. A report with failed steps is
// still returned without a handler error: provisioning conflicts do not heal
// on Lambda retry, and the report is what the schedule owner inspects.
func handle(ctx context.Context, req Request, factory awsclient.ClientFactory) (*models.SetupReport, error) {
	if req.BucketName == "" {
		return nil, fmt.Errorf("bucket_name is required")
	}

	sess, err := awsclient.Load(ctx, "", req.Region, factory)
	if err != nil {
		return nil, err
	}

	report := provision.RunSetup(ctx, provision.NewBackend(sess.Clients), provision.Options{
		BucketName:  req.BucketName,
		Region:      sess.Region,
		AccountID:   sess.AccountID,
		ExportUsers: req.ExportUsers,
		OutputFile:  artifactPath(req.OutputFile),
	})
	if !models.Succeeded(report.Steps) {
		log.Warnf("scheduled setup for bucket %s finished with failures", req.BucketName)
	}
	return report, nil
}

// artifactPath places the export artifact under the writable Lambda /tmp
// unless the payload already names an absolute path.
func artifactPath(outputFile string) string {
	if outputFile == "" {
		outputFile = "identity-center-users.csv"
	}
	if filepath.IsAbs(outputFile) {
		return outputFile
	}
	return filepath.Join(os.TempDir(), outputFile)
}
