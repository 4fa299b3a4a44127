package provision

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	cloudtrailsvc "github.com/aws/aws-sdk-go-v2/service/cloudtrail"
	cloudtrailtypes "github.com/aws/aws-sdk-go-v2/service/cloudtrail/types"
	identitystoresvc "github.com/aws/aws-sdk-go-v2/service/identitystore"
	identitystoretypes "github.com/aws/aws-sdk-go-v2/service/identitystore/types"
	s3svc "github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	ssoadminsvc "github.com/aws/aws-sdk-go-v2/service/ssoadmin"
	ssoadmintypes "github.com/aws/aws-sdk-go-v2/service/ssoadmin/types"
	"github.com/aws/smithy-go"

	"github.com/qdev-ingest/q3p/internal/export"
)

// errForbidden is what HeadBucket answers when the name belongs to a bucket
// in another account.
func errForbidden() error {
	return &smithy.GenericAPIError{Code: "Forbidden", Message: "Forbidden"}
}

// fakeS3 is a stateful in-memory S3 backend. State carries across calls so
// idempotence properties can be asserted over repeated runs.
type fakeS3 struct {
	buckets  map[string]string // bucket name → region
	foreign  map[string]bool   // names owned by another account
	policies map[string]string
	objects  map[string][]byte // "bucket/key"

	createCalls     int
	lastCreateInput *s3svc.CreateBucketInput

	headErr   error
	createErr error
	policyErr error
	putErr    error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{
		buckets:  map[string]string{},
		foreign:  map[string]bool{},
		policies: map[string]string{},
		objects:  map[string][]byte{},
	}
}

func (f *fakeS3) HeadBucket(ctx context.Context, params *s3svc.HeadBucketInput, optFns ...func(*s3svc.Options)) (*s3svc.HeadBucketOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	name := aws.ToString(params.Bucket)
	if f.foreign[name] {
		return nil, errForbidden()
	}
	if _, ok := f.buckets[name]; !ok {
		return nil, &s3types.NotFound{}
	}
	return &s3svc.HeadBucketOutput{}, nil
}

func (f *fakeS3) CreateBucket(ctx context.Context, params *s3svc.CreateBucketInput, optFns ...func(*s3svc.Options)) (*s3svc.CreateBucketOutput, error) {
	f.createCalls++
	f.lastCreateInput = params
	if f.createErr != nil {
		return nil, f.createErr
	}
	name := aws.ToString(params.Bucket)
	if f.foreign[name] {
		return nil, &s3types.BucketAlreadyExists{}
	}
	if _, ok := f.buckets[name]; ok {
		return nil, &s3types.BucketAlreadyOwnedByYou{}
	}
	region := "us-east-1"
	if params.CreateBucketConfiguration != nil {
		region = string(params.CreateBucketConfiguration.LocationConstraint)
	}
	f.buckets[name] = region
	return &s3svc.CreateBucketOutput{}, nil
}

func (f *fakeS3) PutBucketPolicy(ctx context.Context, params *s3svc.PutBucketPolicyInput, optFns ...func(*s3svc.Options)) (*s3svc.PutBucketPolicyOutput, error) {
	if f.policyErr != nil {
		return nil, f.policyErr
	}
	f.policies[aws.ToString(params.Bucket)] = aws.ToString(params.Policy)
	return &s3svc.PutBucketPolicyOutput{}, nil
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3svc.PutObjectInput, optFns ...func(*s3svc.Options)) (*s3svc.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	name := aws.ToString(params.Bucket)
	if _, ok := f.buckets[name]; !ok {
		return nil, &s3types.NoSuchBucket{}
	}
	f.objects[name+"/"+aws.ToString(params.Key)] = []byte("stored")
	return &s3svc.PutObjectOutput{}, nil
}

// fakeCloudTrail is a stateful in-memory CloudTrail backend.
type fakeCloudTrail struct {
	trails    map[string]string // trail name → bucket
	logging   map[string]bool
	selectors map[string]int // trail name → selector count

	createCalls int

	describeErr  error
	createErr    error
	selectorsErr error
	startErr     error
}

func newFakeCloudTrail() *fakeCloudTrail {
	return &fakeCloudTrail{
		trails:    map[string]string{},
		logging:   map[string]bool{},
		selectors: map[string]int{},
	}
}

func (f *fakeCloudTrail) DescribeTrails(ctx context.Context, params *cloudtrailsvc.DescribeTrailsInput, optFns ...func(*cloudtrailsvc.Options)) (*cloudtrailsvc.DescribeTrailsOutput, error) {
	if f.describeErr != nil {
		return nil, f.describeErr
	}
	out := &cloudtrailsvc.DescribeTrailsOutput{}
	for name, bucket := range f.trails {
		out.TrailList = append(out.TrailList, cloudtrailtypes.Trail{
			Name:         aws.String(name),
			S3BucketName: aws.String(bucket),
		})
	}
	return out, nil
}

func (f *fakeCloudTrail) CreateTrail(ctx context.Context, params *cloudtrailsvc.CreateTrailInput, optFns ...func(*cloudtrailsvc.Options)) (*cloudtrailsvc.CreateTrailOutput, error) {
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	name := aws.ToString(params.Name)
	if _, ok := f.trails[name]; ok {
		return nil, &cloudtrailtypes.TrailAlreadyExistsException{}
	}
	f.trails[name] = aws.ToString(params.S3BucketName)
	return &cloudtrailsvc.CreateTrailOutput{}, nil
}

func (f *fakeCloudTrail) PutEventSelectors(ctx context.Context, params *cloudtrailsvc.PutEventSelectorsInput, optFns ...func(*cloudtrailsvc.Options)) (*cloudtrailsvc.PutEventSelectorsOutput, error) {
	if f.selectorsErr != nil {
		return nil, f.selectorsErr
	}
	f.selectors[aws.ToString(params.TrailName)] = len(params.AdvancedEventSelectors)
	return &cloudtrailsvc.PutEventSelectorsOutput{}, nil
}

func (f *fakeCloudTrail) StartLogging(ctx context.Context, params *cloudtrailsvc.StartLoggingInput, optFns ...func(*cloudtrailsvc.Options)) (*cloudtrailsvc.StartLoggingOutput, error) {
	if f.startErr != nil {
		return nil, f.startErr
	}
	f.logging[aws.ToString(params.Name)] = true
	return &cloudtrailsvc.StartLoggingOutput{}, nil
}

// fakeSSOAdmin and fakeIdentityStore back the export step.
type fakeSSOAdmin struct {
	storeID string
	err     error
}

func (f *fakeSSOAdmin) ListInstances(ctx context.Context, params *ssoadminsvc.ListInstancesInput, optFns ...func(*ssoadminsvc.Options)) (*ssoadminsvc.ListInstancesOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &ssoadminsvc.ListInstancesOutput{
		Instances: []ssoadmintypes.InstanceMetadata{
			{IdentityStoreId: aws.String(f.storeID)},
		},
	}, nil
}

type fakeIdentityStore struct {
	users []identitystoretypes.User
	err   error
}

func (f *fakeIdentityStore) ListUsers(ctx context.Context, params *identitystoresvc.ListUsersInput, optFns ...func(*identitystoresvc.Options)) (*identitystoresvc.ListUsersOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &identitystoresvc.ListUsersOutput{Users: f.users}, nil
}

// testBackend assembles a Backend over the fakes.
func testBackend(s3 *fakeS3, ct *fakeCloudTrail, sso *fakeSSOAdmin, ids *fakeIdentityStore) Backend {
	return Backend{
		S3:         s3,
		CloudTrail: ct,
		Export: export.Clients{
			SSOAdmin:      sso,
			IdentityStore: ids,
			S3:            s3,
		},
	}
}
