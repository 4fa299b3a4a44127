package cleanup

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	s3svc "github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/qdev-ingest/q3p/internal/awsclient"
	"github.com/qdev-ingest/q3p/internal/log"
)

// deleteObjectsBatchSize is the DeleteObjects request cap.
const deleteObjectsBatchSize = 1000

// emptyBucket removes every object version and delete marker from the
// bucket and returns how many it removed. A missing bucket is not an error.
func emptyBucket(ctx context.Context, client S3API, bucketName string) (int, error) {
	deleted := 0
	in := &s3svc.ListObjectVersionsInput{Bucket: aws.String(bucketName)}

	for {
		page, err := client.ListObjectVersions(ctx, in)
		if awsclient.IsNotFound(err) {
			return deleted, nil
		}
		if err != nil {
			return deleted, stepError(err, fmt.Sprintf("list object versions in %s", bucketName))
		}

		objects := make([]s3types.ObjectIdentifier, 0, len(page.Versions)+len(page.DeleteMarkers))
		for _, v := range page.Versions {
			objects = append(objects, s3types.ObjectIdentifier{Key: v.Key, VersionId: v.VersionId})
		}
		for _, m := range page.DeleteMarkers {
			objects = append(objects, s3types.ObjectIdentifier{Key: m.Key, VersionId: m.VersionId})
		}

		for start := 0; start < len(objects); start += deleteObjectsBatchSize {
			end := start + deleteObjectsBatchSize
			if end > len(objects) {
				end = len(objects)
			}
			n, err := deleteBatch(ctx, client, bucketName, objects[start:end])
			deleted += n
			if err != nil {
				return deleted, err
			}
		}

		if !aws.ToBool(page.IsTruncated) {
			break
		}
		in.KeyMarker = page.NextKeyMarker
		in.VersionIdMarker = page.NextVersionIdMarker
	}

	log.Debugf("emptied bucket %s, %d objects removed", bucketName, deleted)
	return deleted, nil
}

func deleteBatch(ctx context.Context, client S3API, bucketName string, objects []s3types.ObjectIdentifier) (int, error) {
	if len(objects) == 0 {
		return 0, nil
	}
	out, err := client.DeleteObjects(ctx, &s3svc.DeleteObjectsInput{
		Bucket: aws.String(bucketName),
		Delete: &s3types.Delete{
			Objects: objects,
			Quiet:   aws.Bool(true),
		},
	})
	if err != nil {
		return 0, stepError(err, fmt.Sprintf("delete objects in %s", bucketName))
	}
	if len(out.Errors) > 0 {
		first := out.Errors[0]
		return len(objects) - len(out.Errors), stepError(
			fmt.Errorf("%s: %s", aws.ToString(first.Code), aws.ToString(first.Message)),
			fmt.Sprintf("delete %d objects in %s", len(out.Errors), bucketName))
	}
	return len(objects), nil
}

// deleteBucket removes the now-empty bucket. A missing bucket is not an
// error.
func deleteBucket(ctx context.Context, client S3API, bucketName string) (string, error) {
	_, err := client.DeleteBucket(ctx, &s3svc.DeleteBucketInput{Bucket: aws.String(bucketName)})
	if awsclient.IsNotFound(err) {
		return alreadyAbsent, nil
	}
	if err != nil {
		return "", stepError(err, fmt.Sprintf("delete bucket %s", bucketName))
	}
	return "", nil
}
