// Package provision ensures the ingestion bucket and audit trail exist and
// match the required configuration, and sequences the full setup run.
package provision

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	s3svc "github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/qdev-ingest/q3p/internal/awsclient"
	"github.com/qdev-ingest/q3p/internal/log"
	"github.com/qdev-ingest/q3p/internal/models"
	"github.com/qdev-ingest/q3p/internal/policy"
)

// EnsureBucket guarantees the named bucket exists in region with the
// ingestion bucket policy attached. Re-running against an already
// provisioned bucket succeeds and reapplies the policy.
func EnsureBucket(ctx context.Context, client S3API, bucketName, region string) error {
	_, err := client.HeadBucket(ctx, &s3svc.HeadBucketInput{Bucket: aws.String(bucketName)})
	switch {
	case err == nil:
		log.Infof("bucket %s already exists", bucketName)
	case awsclient.IsNotFound(err):
		if err := createBucket(ctx, client, bucketName, region); err != nil {
			return err
		}
		log.Infof("created bucket %s in %s", bucketName, region)
	case awsclient.IsAccessDenied(err):
		// HeadBucket answers 403 when the name is taken by a bucket this
		// account cannot touch: a conflict, not a permission problem on
		// our own resources.
		return models.NewStepError(models.KindResourceConflict,
			fmt.Errorf("bucket name %s is already owned by another account: %w", bucketName, err))
	default:
		return stepError(err, fmt.Sprintf("check bucket %s", bucketName))
	}

	// The policy is reapplied on every run so drift never survives a setup.
	doc, err := policy.ForBucket(bucketName).JSON()
	if err != nil {
		return models.NewStepError(models.KindProvisioningError, err)
	}
	if _, err := client.PutBucketPolicy(ctx, &s3svc.PutBucketPolicyInput{
		Bucket: aws.String(bucketName),
		Policy: aws.String(doc),
	}); err != nil {
		return stepError(err, fmt.Sprintf("put bucket policy on %s", bucketName))
	}
	log.Infof("applied ingestion policy to bucket %s", bucketName)
	return nil
}

func createBucket(ctx context.Context, client S3API, bucketName, region string) error {
	in := &s3svc.CreateBucketInput{Bucket: aws.String(bucketName)}
	// us-east-1 is the one region CreateBucket rejects as an explicit
	// location constraint.
	if region != "" && region != "us-east-1" {
		in.CreateBucketConfiguration = &s3types.CreateBucketConfiguration{
			LocationConstraint: s3types.BucketLocationConstraint(region),
		}
	}

	_, err := client.CreateBucket(ctx, in)
	if err == nil {
		return nil
	}

	var owned *s3types.BucketAlreadyOwnedByYou
	if errors.As(err, &owned) {
		// Raced with a concurrent setup of our own; the bucket is ours.
		return nil
	}
	var taken *s3types.BucketAlreadyExists
	if errors.As(err, &taken) {
		return models.NewStepError(models.KindResourceConflict,
			fmt.Errorf("bucket name %s is already taken: %w", bucketName, err))
	}
	return stepError(err, fmt.Sprintf("create bucket %s", bucketName))
}

// stepError wraps a provider error with call context and its classified
// failure kind.
func stepError(err error, context string) error {
	return models.NewStepError(awsclient.Classify(err), fmt.Errorf("%s: %w", context, err))
}
