package awsclient

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// Session is a resolved AWS environment: the effective region, the caller's
// account ID, and initialised service clients. It is the unit passed into
// the orchestrators.
type Session struct {
	// Region is the effective region all regional clients are scoped to.
	Region string

	// AccountID is the caller's AWS account ID, resolved via STS.
	AccountID string

	// Config is the fully loaded AWS SDK v2 configuration.
	Config aws.Config

	// Clients holds the initialised service clients.
	Clients *ClientSet
}

// Load reads the standard AWS shared config and credentials, applies the
// optional profile and region overrides, constructs the service clients via
// factory, and resolves the caller account ID.
//
// Pass nil for factory to use the production NewClientSet.
func Load(ctx context.Context, profile, region string, factory ClientFactory) (*Session, error) {
	if factory == nil {
		factory = NewClientSet
	}

	opts := []func(*awsconfig.LoadOptions) error{}
	if profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	// Fall back to us-east-1 when neither the flag nor the environment
	// provides a region, so all SDK clients can be constructed.
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	clients := factory(cfg)

	accountID, err := resolveAccountID(ctx, clients.STS)
	if err != nil {
		return nil, fmt.Errorf("resolve account ID: %w", err)
	}

	return &Session{
		Region:    cfg.Region,
		AccountID: accountID,
		Config:    cfg,
		Clients:   clients,
	}, nil
}

// resolveAccountID calls STS GetCallerIdentity to retrieve the numeric AWS
// account ID for the loaded credentials.
func resolveAccountID(ctx context.Context, client STSClient) (string, error) {
	out, err := client.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("STS GetCallerIdentity: %w", err)
	}
	if out.Account == nil {
		return "", fmt.Errorf("STS GetCallerIdentity returned nil account")
	}
	return aws.ToString(out.Account), nil
}
