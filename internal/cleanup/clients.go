package cleanup

import (
	"context"

	cloudtrailsvc "github.com/aws/aws-sdk-go-v2/service/cloudtrail"
	eventbridgesvc "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	iamsvc "github.com/aws/aws-sdk-go-v2/service/iam"
	lambdasvc "github.com/aws/aws-sdk-go-v2/service/lambda"
	s3svc "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/qdev-ingest/q3p/internal/awsclient"
)

// EventBridgeAPI is the narrow EventBridge surface rule teardown needs.
type EventBridgeAPI interface {
	ListTargetsByRule(ctx context.Context, params *eventbridgesvc.ListTargetsByRuleInput, optFns ...func(*eventbridgesvc.Options)) (*eventbridgesvc.ListTargetsByRuleOutput, error)
	RemoveTargets(ctx context.Context, params *eventbridgesvc.RemoveTargetsInput, optFns ...func(*eventbridgesvc.Options)) (*eventbridgesvc.RemoveTargetsOutput, error)
	DeleteRule(ctx context.Context, params *eventbridgesvc.DeleteRuleInput, optFns ...func(*eventbridgesvc.Options)) (*eventbridgesvc.DeleteRuleOutput, error)
}

// LambdaAPI is the narrow Lambda surface function teardown needs.
type LambdaAPI interface {
	DeleteFunction(ctx context.Context, params *lambdasvc.DeleteFunctionInput, optFns ...func(*lambdasvc.Options)) (*lambdasvc.DeleteFunctionOutput, error)
}

// IAMAPI is the narrow IAM surface role teardown needs. Inline policies are
// removed before the role itself.
type IAMAPI interface {
	DeleteRolePolicy(ctx context.Context, params *iamsvc.DeleteRolePolicyInput, optFns ...func(*iamsvc.Options)) (*iamsvc.DeleteRolePolicyOutput, error)
	DeleteRole(ctx context.Context, params *iamsvc.DeleteRoleInput, optFns ...func(*iamsvc.Options)) (*iamsvc.DeleteRoleOutput, error)
}

// CloudTrailAPI is the narrow CloudTrail surface trail teardown needs.
type CloudTrailAPI interface {
	DeleteTrail(ctx context.Context, params *cloudtrailsvc.DeleteTrailInput, optFns ...func(*cloudtrailsvc.Options)) (*cloudtrailsvc.DeleteTrailOutput, error)
}

// S3API is the narrow S3 surface bucket teardown needs. Versioned buckets
// keep versions and delete markers past a plain delete, so emptying walks
// ListObjectVersions rather than ListObjectsV2.
type S3API interface {
	ListObjectVersions(ctx context.Context, params *s3svc.ListObjectVersionsInput, optFns ...func(*s3svc.Options)) (*s3svc.ListObjectVersionsOutput, error)
	DeleteObjects(ctx context.Context, params *s3svc.DeleteObjectsInput, optFns ...func(*s3svc.Options)) (*s3svc.DeleteObjectsOutput, error)
	DeleteBucket(ctx context.Context, params *s3svc.DeleteBucketInput, optFns ...func(*s3svc.Options)) (*s3svc.DeleteBucketOutput, error)
}

// Backend is the teardown backend the cleanup orchestrator drives. Tests
// inject fakes; production code builds one from a loaded client set.
type Backend struct {
	EventBridge EventBridgeAPI
	Lambda      LambdaAPI
	IAM         IAMAPI
	CloudTrail  CloudTrailAPI
	S3          S3API
}

// NewBackend wires a Backend from production SDK clients.
func NewBackend(cs *awsclient.ClientSet) Backend {
	return Backend{
		EventBridge: cs.EventBridge,
		Lambda:      cs.Lambda,
		IAM:         cs.IAM,
		CloudTrail:  cs.CloudTrail,
		S3:          cs.S3,
	}
}
