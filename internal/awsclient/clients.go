package awsclient

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	cloudtrailsvc "github.com/aws/aws-sdk-go-v2/service/cloudtrail"
	eventbridgesvc "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	iamsvc "github.com/aws/aws-sdk-go-v2/service/iam"
	identitystoresvc "github.com/aws/aws-sdk-go-v2/service/identitystore"
	lambdasvc "github.com/aws/aws-sdk-go-v2/service/lambda"
	s3svc "github.com/aws/aws-sdk-go-v2/service/s3"
	ssoadminsvc "github.com/aws/aws-sdk-go-v2/service/ssoadmin"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// ---------------------------------------------------------------------------
// Per-service client interfaces
//
// Each interface covers only the operations this tool performs. Narrow
// interfaces instead of the full SDK clients keep test fakes small: a struct
// with a handful of methods returning canned data satisfies them.
// ---------------------------------------------------------------------------

// STSClient is the subset of STS used to resolve the caller account.
type STSClient interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// S3Client covers bucket provisioning, export upload, and bucket teardown.
// Emptying the bucket lists object versions rather than objects: the version
// listing enumerates current objects too, so one walk covers both.
type S3Client interface {
	HeadBucket(ctx context.Context, params *s3svc.HeadBucketInput, optFns ...func(*s3svc.Options)) (*s3svc.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, params *s3svc.CreateBucketInput, optFns ...func(*s3svc.Options)) (*s3svc.CreateBucketOutput, error)
	PutBucketPolicy(ctx context.Context, params *s3svc.PutBucketPolicyInput, optFns ...func(*s3svc.Options)) (*s3svc.PutBucketPolicyOutput, error)
	PutObject(ctx context.Context, params *s3svc.PutObjectInput, optFns ...func(*s3svc.Options)) (*s3svc.PutObjectOutput, error)
	ListObjectVersions(ctx context.Context, params *s3svc.ListObjectVersionsInput, optFns ...func(*s3svc.Options)) (*s3svc.ListObjectVersionsOutput, error)
	DeleteObjects(ctx context.Context, params *s3svc.DeleteObjectsInput, optFns ...func(*s3svc.Options)) (*s3svc.DeleteObjectsOutput, error)
	DeleteBucket(ctx context.Context, params *s3svc.DeleteBucketInput, optFns ...func(*s3svc.Options)) (*s3svc.DeleteBucketOutput, error)
}

// CloudTrailClient covers trail provisioning and teardown.
type CloudTrailClient interface {
	DescribeTrails(ctx context.Context, params *cloudtrailsvc.DescribeTrailsInput, optFns ...func(*cloudtrailsvc.Options)) (*cloudtrailsvc.DescribeTrailsOutput, error)
	CreateTrail(ctx context.Context, params *cloudtrailsvc.CreateTrailInput, optFns ...func(*cloudtrailsvc.Options)) (*cloudtrailsvc.CreateTrailOutput, error)
	PutEventSelectors(ctx context.Context, params *cloudtrailsvc.PutEventSelectorsInput, optFns ...func(*cloudtrailsvc.Options)) (*cloudtrailsvc.PutEventSelectorsOutput, error)
	StartLogging(ctx context.Context, params *cloudtrailsvc.StartLoggingInput, optFns ...func(*cloudtrailsvc.Options)) (*cloudtrailsvc.StartLoggingOutput, error)
	DeleteTrail(ctx context.Context, params *cloudtrailsvc.DeleteTrailInput, optFns ...func(*cloudtrailsvc.Options)) (*cloudtrailsvc.DeleteTrailOutput, error)
}

// SSOAdminClient discovers the IAM Identity Center instance for the account.
type SSOAdminClient interface {
	ListInstances(ctx context.Context, params *ssoadminsvc.ListInstancesInput, optFns ...func(*ssoadminsvc.Options)) (*ssoadminsvc.ListInstancesOutput, error)
}

// IdentityStoreClient lists directory users. It embeds ListUsersAPIClient so
// the SDK paginator handles directories larger than one page.
type IdentityStoreClient interface {
	identitystoresvc.ListUsersAPIClient
}

// IAMClient covers the role teardown performed by cleanup. Roles are created
// out-of-band (documented, not code-driven) but deleted here.
type IAMClient interface {
	DeleteRolePolicy(ctx context.Context, params *iamsvc.DeleteRolePolicyInput, optFns ...func(*iamsvc.Options)) (*iamsvc.DeleteRolePolicyOutput, error)
	DeleteRole(ctx context.Context, params *iamsvc.DeleteRoleInput, optFns ...func(*iamsvc.Options)) (*iamsvc.DeleteRoleOutput, error)
}

// LambdaClient covers function teardown.
type LambdaClient interface {
	DeleteFunction(ctx context.Context, params *lambdasvc.DeleteFunctionInput, optFns ...func(*lambdasvc.Options)) (*lambdasvc.DeleteFunctionOutput, error)
}

// EventBridgeClient covers schedule-rule teardown. Targets must be removed
// before the rule itself can be deleted.
type EventBridgeClient interface {
	ListTargetsByRule(ctx context.Context, params *eventbridgesvc.ListTargetsByRuleInput, optFns ...func(*eventbridgesvc.Options)) (*eventbridgesvc.ListTargetsByRuleOutput, error)
	RemoveTargets(ctx context.Context, params *eventbridgesvc.RemoveTargetsInput, optFns ...func(*eventbridgesvc.Options)) (*eventbridgesvc.RemoveTargetsOutput, error)
	DeleteRule(ctx context.Context, params *eventbridgesvc.DeleteRuleInput, optFns ...func(*eventbridgesvc.Options)) (*eventbridgesvc.DeleteRuleOutput, error)
}

// ---------------------------------------------------------------------------
// ClientSet and ClientFactory
// ---------------------------------------------------------------------------

// ClientSet holds initialised AWS service clients for one region. All fields
// are interfaces so tests can replace them with fakes without importing the
// AWS SDK in test files.
type ClientSet struct {
	STS           STSClient
	S3            S3Client
	CloudTrail    CloudTrailClient
	SSOAdmin      SSOAdminClient
	IdentityStore IdentityStoreClient
	IAM           IAMClient
	Lambda        LambdaClient
	EventBridge   EventBridgeClient
}

// ClientFactory creates a ClientSet from an aws.Config.
// Swap this in tests to inject fake clients.
type ClientFactory func(cfg aws.Config) *ClientSet

// NewClientSet is the production ClientFactory. It constructs real AWS SDK
// clients from cfg.
func NewClientSet(cfg aws.Config) *ClientSet {
	return &ClientSet{
		STS:           sts.NewFromConfig(cfg),
		S3:            s3svc.NewFromConfig(cfg),
		CloudTrail:    cloudtrailsvc.NewFromConfig(cfg),
		SSOAdmin:      ssoadminsvc.NewFromConfig(cfg),
		IdentityStore: identitystoresvc.NewFromConfig(cfg),
		IAM:           iamsvc.NewFromConfig(cfg),
		Lambda:        lambdasvc.NewFromConfig(cfg),
		EventBridge:   eventbridgesvc.NewFromConfig(cfg),
	}
}
