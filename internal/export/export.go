// Package export produces a CSV snapshot of the IAM Identity Center user
// directory and optionally mirrors it to the ingestion bucket.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	identitystoresvc "github.com/aws/aws-sdk-go-v2/service/identitystore"
	identitystoretypes "github.com/aws/aws-sdk-go-v2/service/identitystore/types"
	s3svc "github.com/aws/aws-sdk-go-v2/service/s3"
	ssoadminsvc "github.com/aws/aws-sdk-go-v2/service/ssoadmin"

	"github.com/qdev-ingest/q3p/internal/log"
	"github.com/qdev-ingest/q3p/internal/models"
	"github.com/qdev-ingest/q3p/internal/naming"
)

// csvHeader is the fixed artifact schema. Downstream ingestion matches on
// these column names; do not reorder.
var csvHeader = []string{"UserId", "UserName", "DisplayName", "Email", "Status"}

// ssoAdminAPI is the narrow sso-admin interface used to locate the identity
// store.
type ssoAdminAPI interface {
	ListInstances(ctx context.Context, params *ssoadminsvc.ListInstancesInput, optFns ...func(*ssoadminsvc.Options)) (*ssoadminsvc.ListInstancesOutput, error)
}

// identityStoreAPI embeds ListUsersAPIClient so the SDK paginator drives the
// directory listing.
type identityStoreAPI interface {
	identitystoresvc.ListUsersAPIClient
}

// objectPutterAPI is the single S3 operation the upload needs.
type objectPutterAPI interface {
	PutObject(ctx context.Context, params *s3svc.PutObjectInput, optFns ...func(*s3svc.Options)) (*s3svc.PutObjectOutput, error)
}

// Clients bundles the AWS clients the export needs. The fields accept the
// production awsclient.ClientSet members or test fakes.
type Clients struct {
	SSOAdmin      ssoAdminAPI
	IdentityStore identityStoreAPI
	S3            objectPutterAPI
}

// Options configures one export run.
type Options struct {
	// OutputPath is the local file the CSV is written to.
	OutputPath string

	// Bucket, when non-empty, is the upload target. The object key is
	// derived from the OutputPath base name under iam-users/.
	Bucket string
}

// UserRecord is one identity-directory principal, flattened to the artifact
// schema.
type UserRecord struct {
	UserID      string
	UserName    string
	DisplayName string
	Email       string
	Status      string
}

// Run lists every user in the account's identity directory, writes the CSV
// artifact locally, and uploads it when a bucket is configured.
//
// An empty directory is not an error: the artifact then contains only the
// header row. When the upload fails the local artifact is preserved and the
// returned error carries UploadError; the result still reports the local
// path and user count.
func Run(ctx context.Context, c Clients, opts Options) (*models.ExportResult, error) {
	storeID, err := resolveIdentityStore(ctx, c.SSOAdmin)
	if err != nil {
		return nil, err
	}

	users, err := listUsers(ctx, c.IdentityStore, storeID)
	if err != nil {
		return nil, err
	}
	log.WithField("users", len(users)).Infof("listed identity store %s", storeID)

	if err := writeCSV(opts.OutputPath, users); err != nil {
		return nil, models.NewStepError(models.KindProvisioningError, err)
	}

	result := &models.ExportResult{
		UserCount: len(users),
		LocalPath: opts.OutputPath,
	}
	if opts.Bucket == "" {
		return result, nil
	}

	key := naming.ExportKey(opts.OutputPath)
	if err := upload(ctx, c.S3, opts.Bucket, key, opts.OutputPath); err != nil {
		// The local file stays on disk; the operator can retry the upload.
		return result, models.NewStepError(models.KindUploadError,
			fmt.Errorf("upload %s to %s: %w", opts.OutputPath, naming.S3URI(opts.Bucket, key), err))
	}
	result.Location = naming.S3URI(opts.Bucket, key)
	log.Infof("exported %d users to %s", result.UserCount, result.Location)
	return result, nil
}

// resolveIdentityStore returns the identity store ID of the account's IAM
// Identity Center instance. Accounts have at most one instance.
func resolveIdentityStore(ctx context.Context, client ssoAdminAPI) (string, error) {
	out, err := client.ListInstances(ctx, &ssoadminsvc.ListInstancesInput{})
	if err != nil {
		return "", models.NewStepError(models.KindDirectoryAccessError,
			fmt.Errorf("list Identity Center instances: %w", err))
	}
	if len(out.Instances) == 0 {
		return "", models.NewStepError(models.KindDirectoryAccessError,
			fmt.Errorf("no IAM Identity Center instance found in this account"))
	}
	return aws.ToString(out.Instances[0].IdentityStoreId), nil
}

// listUsers pages through the directory with the SDK paginator so
// directories larger than one page are never truncated.
func listUsers(ctx context.Context, client identityStoreAPI, storeID string) ([]UserRecord, error) {
	paginator := identitystoresvc.NewListUsersPaginator(client, &identitystoresvc.ListUsersInput{
		IdentityStoreId: aws.String(storeID),
	})

	var records []UserRecord
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, models.NewStepError(models.KindDirectoryAccessError,
				fmt.Errorf("list users in identity store %s: %w", storeID, err))
		}
		for _, u := range page.Users {
			records = append(records, toRecord(u))
		}
	}
	return records, nil
}

// toRecord flattens a directory user onto the artifact schema. The primary
// email wins; without one the column is left empty. The directory API does
// not expose an enabled/disabled state, so Status is blank unless the
// record's user type carries one.
func toRecord(u identitystoretypes.User) UserRecord {
	return UserRecord{
		UserID:      aws.ToString(u.UserId),
		UserName:    aws.ToString(u.UserName),
		DisplayName: aws.ToString(u.DisplayName),
		Email:       primaryEmail(u.Emails),
		Status:      aws.ToString(u.UserType),
	}
}

func primaryEmail(emails []identitystoretypes.Email) string {
	for _, e := range emails {
		if e.Primary {
			return aws.ToString(e.Value)
		}
	}
	return ""
}

// writeCSV writes the artifact atomically enough for our purposes: full
// write, then flush, then close. A zero-user directory produces a
// header-only file.
func writeCSV(path string, users []UserRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		f.Close()
		return fmt.Errorf("write CSV header: %w", err)
	}
	for _, u := range users {
		row := []string{u.UserID, u.UserName, u.DisplayName, u.Email, u.Status}
		if err := w.Write(row); err != nil {
			f.Close()
			return fmt.Errorf("write CSV row for user %s: %w", u.UserID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flush CSV: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// upload mirrors the local artifact to the bucket.
func upload(ctx context.Context, client objectPutterAPI, bucket, key, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read artifact %s: %w", path, err)
	}
	_, err = client.PutObject(ctx, &s3svc.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("text/csv"),
	})
	return err
}
