package provision

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	cloudtrailsvc "github.com/aws/aws-sdk-go-v2/service/cloudtrail"
	cloudtrailtypes "github.com/aws/aws-sdk-go-v2/service/cloudtrail/types"

	"github.com/qdev-ingest/q3p/internal/log"
	"github.com/qdev-ingest/q3p/internal/models"
	"github.com/qdev-ingest/q3p/internal/naming"
)

// Data-event resource types CloudTrail must capture for Q Developer usage
// analysis.
var qDeveloperResourceTypes = []string{
	"AWS::CodeWhisperer::Profile",
	"AWS::QDeveloper::Integration",
	"AWS::CodeWhisperer::Customization",
}

// EnsureTrail guarantees the derived trail exists, targets bucketName,
// captures Q Developer data events, and is logging. It returns the trail
// name it acted on.
//
// A trail already logging to bucketName is success. A trail under the same
// derived name but targeting a different bucket is a ResourceConflict: the
// derivation guarantees one trail per bucket, so such a trail belongs to a
// different (or stale) installation and is never silently repointed.
func EnsureTrail(ctx context.Context, client CloudTrailAPI, bucketName string) (string, error) {
	trailName := naming.TrailName(bucketName)

	out, err := client.DescribeTrails(ctx, &cloudtrailsvc.DescribeTrailsInput{
		IncludeShadowTrails: aws.Bool(false),
	})
	if err != nil {
		return trailName, stepError(err, "describe trails")
	}

	existing := findTrail(out.TrailList, trailName)
	switch {
	case existing == nil:
		if err := createTrail(ctx, client, trailName, bucketName); err != nil {
			return trailName, err
		}
		log.Infof("created trail %s targeting bucket %s", trailName, bucketName)
	case aws.ToString(existing.S3BucketName) != bucketName:
		return trailName, models.NewStepError(models.KindResourceConflict,
			fmt.Errorf("trail %s already exists but targets bucket %s, not %s",
				trailName, aws.ToString(existing.S3BucketName), bucketName))
	default:
		log.Infof("trail %s already exists", trailName)
	}

	if _, err := client.PutEventSelectors(ctx, &cloudtrailsvc.PutEventSelectorsInput{
		TrailName:              aws.String(trailName),
		AdvancedEventSelectors: qDeveloperEventSelectors(),
	}); err != nil {
		return trailName, stepError(err, fmt.Sprintf("put event selectors on trail %s", trailName))
	}

	if _, err := client.StartLogging(ctx, &cloudtrailsvc.StartLoggingInput{
		Name: aws.String(trailName),
	}); err != nil {
		return trailName, stepError(err, fmt.Sprintf("start logging on trail %s", trailName))
	}
	log.Infof("trail %s is logging to %s", trailName, naming.S3URI(bucketName, naming.TrailLogPrefix))
	return trailName, nil
}

func createTrail(ctx context.Context, client CloudTrailAPI, trailName, bucketName string) error {
	_, err := client.CreateTrail(ctx, &cloudtrailsvc.CreateTrailInput{
		Name:                    aws.String(trailName),
		S3BucketName:            aws.String(bucketName),
		S3KeyPrefix:             aws.String(strings.TrimSuffix(naming.TrailLogPrefix, "/")),
		IsMultiRegionTrail:      aws.Bool(true),
		EnableLogFileValidation: aws.Bool(true),
	})
	if err != nil {
		return stepError(err, fmt.Sprintf("create trail %s", trailName))
	}
	return nil
}

func findTrail(trails []cloudtrailtypes.Trail, name string) *cloudtrailtypes.Trail {
	for i := range trails {
		if aws.ToString(trails[i].Name) == name {
			return &trails[i]
		}
	}
	return nil
}

// qDeveloperEventSelectors builds one data-event selector per Q Developer
// resource type.
func qDeveloperEventSelectors() []cloudtrailtypes.AdvancedEventSelector {
	selectors := make([]cloudtrailtypes.AdvancedEventSelector, 0, len(qDeveloperResourceTypes))
	for _, rt := range qDeveloperResourceTypes {
		selectors = append(selectors, cloudtrailtypes.AdvancedEventSelector{
			Name: aws.String("Log " + rt + " events"),
			FieldSelectors: []cloudtrailtypes.AdvancedFieldSelector{
				{Field: aws.String("eventCategory"), Equals: []string{"Data"}},
				{Field: aws.String("resources.type"), Equals: []string{rt}},
			},
		})
	}
	return selectors
}
