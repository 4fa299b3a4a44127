package provision

import (
	"context"
	"errors"
	"time"

	"github.com/qdev-ingest/q3p/internal/export"
	"github.com/qdev-ingest/q3p/internal/log"
	"github.com/qdev-ingest/q3p/internal/models"
	"github.com/qdev-ingest/q3p/internal/naming"
)

// Options configures one setup run.
type Options struct {
	// BucketName is the ingestion bucket to provision. Required.
	BucketName string

	// Region the bucket is created in. Required (the caller resolves the
	// default).
	Region string

	// AccountID is recorded in the report when known.
	AccountID string

	// ExportUsers requests the identity export step.
	ExportUsers bool

	// OutputFile is the local path for the export artifact.
	OutputFile string
}

// RunSetup provisions the bucket, then the trail, then optionally exports
// identity users, recording one StepResult per step. Steps are sequential;
// the trail is skipped (never attempted) when the bucket step failed because
// CloudTrail cannot deliver without it. The export has no such dependency
// and is attempted whenever requested; a missing bucket degrades it to an
// upload failure with the local artifact preserved.
func RunSetup(ctx context.Context, b Backend, opts Options) *models.SetupReport {
	report := &models.SetupReport{
		BucketName:  opts.BucketName,
		Region:      opts.Region,
		AccountID:   opts.AccountID,
		GeneratedAt: time.Now().UTC(),
	}

	// Name problems are caught before any AWS call.
	if err := naming.ValidateBucketName(opts.BucketName); err != nil {
		report.Steps = append(report.Steps, failedStep(models.StepBucket, opts.BucketName,
			models.NewStepError(models.KindProvisioningError, err)))
		report.Steps = append(report.Steps, skippedStep(models.StepTrail,
			naming.TrailName(opts.BucketName), "bucket step failed"))
		if opts.ExportUsers {
			report.Steps = append(report.Steps, skippedStep(models.StepUserExport,
				opts.OutputFile, "bucket name invalid"))
		}
		return report
	}

	bucketErr := EnsureBucket(ctx, b.S3, opts.BucketName, opts.Region)
	report.Steps = append(report.Steps, stepResult(models.StepBucket, opts.BucketName, bucketErr))

	trailName := naming.TrailName(opts.BucketName)
	if bucketErr != nil {
		report.Steps = append(report.Steps, skippedStep(models.StepTrail, trailName, "bucket step failed"))
	} else {
		_, trailErr := EnsureTrail(ctx, b.CloudTrail, opts.BucketName)
		report.Steps = append(report.Steps, stepResult(models.StepTrail, trailName, trailErr))
	}

	if opts.ExportUsers {
		result, exportErr := export.Run(ctx, b.Export, export.Options{
			OutputPath: opts.OutputFile,
			Bucket:     opts.BucketName,
		})
		report.Steps = append(report.Steps, stepResult(models.StepUserExport, opts.OutputFile, exportErr))
		if result != nil {
			report.ExportedUsers = result.UserCount
			report.ExportLocation = result.Location
			if report.ExportLocation == "" {
				report.ExportLocation = result.LocalPath
			}
		}
	}

	if models.Succeeded(report.Steps) {
		log.Infof("setup finished for bucket %s", opts.BucketName)
	} else {
		log.Warnf("setup finished with failures for bucket %s", opts.BucketName)
	}
	return report
}

func stepResult(step, resource string, err error) models.StepResult {
	if err != nil {
		return failedStep(step, resource, err)
	}
	return models.StepResult{Step: step, Resource: resource, Status: models.StatusSuccess}
}

func failedStep(step, resource string, err error) models.StepResult {
	r := models.StepResult{
		Step:     step,
		Resource: resource,
		Status:   models.StatusFailed,
		Kind:     models.KindOf(err),
	}
	var se *models.StepError
	if errors.As(err, &se) {
		r.Detail = se.Err.Error()
	} else {
		r.Detail = err.Error()
	}
	return r
}

func skippedStep(step, resource, why string) models.StepResult {
	return models.StepResult{Step: step, Resource: resource, Status: models.StatusSkipped, Detail: why}
}
