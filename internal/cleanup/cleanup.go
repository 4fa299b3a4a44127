// Package cleanup tears down every resource a setup run (and its documented
// companion resources) may have created, in dependency order.
package cleanup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	cloudtrailsvc "github.com/aws/aws-sdk-go-v2/service/cloudtrail"
	eventbridgesvc "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	iamsvc "github.com/aws/aws-sdk-go-v2/service/iam"
	lambdasvc "github.com/aws/aws-sdk-go-v2/service/lambda"

	"github.com/qdev-ingest/q3p/internal/awsclient"
	"github.com/qdev-ingest/q3p/internal/log"
	"github.com/qdev-ingest/q3p/internal/models"
	"github.com/qdev-ingest/q3p/internal/naming"
)

// Options configures one cleanup run.
type Options struct {
	// BucketName identifies the installation to tear down. Required.
	BucketName string

	// Region is recorded in the report.
	Region string

	// Confirm enables deletion. Without it the run is a dry run: every step
	// is reported as PLANNED and no AWS call is made.
	Confirm bool
}

// action is one teardown step. run returns a detail string for the report
// ("already absent", object counts) and an error on failure.
type action struct {
	step     string
	resource string
	run      func(ctx context.Context) (string, error)
}

// RunCleanup removes schedule rules, Lambda functions, IAM roles, the trail,
// the bucket contents and finally the bucket itself. Later steps depend on
// earlier ones being gone (a rule still targeting a function blocks nothing,
// but a non-empty bucket blocks DeleteBucket), so the order is fixed.
//
// Every step tolerates an already-absent resource: cleanup after a partial
// setup, or a second cleanup run, reports success for what is simply gone.
// A failed step does not stop the run; independent resources are still
// removed and the report carries one result per step either way.
func RunCleanup(ctx context.Context, b Backend, opts Options) *models.CleanupReport {
	report := &models.CleanupReport{
		BucketName:  opts.BucketName,
		Region:      opts.Region,
		DryRun:      !opts.Confirm,
		GeneratedAt: time.Now().UTC(),
	}

	if err := naming.ValidateBucketName(opts.BucketName); err != nil {
		report.Steps = append(report.Steps, models.StepResult{
			Step:     models.StepBucket,
			Resource: opts.BucketName,
			Status:   models.StatusFailed,
			Kind:     models.KindProvisioningError,
			Detail:   err.Error(),
		})
		return report
	}

	trailName := naming.TrailName(opts.BucketName)
	actions := []action{
		{models.StepScheduleRule, naming.SetupScheduleRule, func(ctx context.Context) (string, error) {
			return deleteRule(ctx, b.EventBridge, naming.SetupScheduleRule)
		}},
		{models.StepScheduleRule, naming.ExtractScheduleRule, func(ctx context.Context) (string, error) {
			return deleteRule(ctx, b.EventBridge, naming.ExtractScheduleRule)
		}},
		{models.StepFunction, naming.SetupFunctionName, func(ctx context.Context) (string, error) {
			return deleteFunction(ctx, b.Lambda, naming.SetupFunctionName)
		}},
		{models.StepFunction, naming.ExtractFunctionName, func(ctx context.Context) (string, error) {
			return deleteFunction(ctx, b.Lambda, naming.ExtractFunctionName)
		}},
		{models.StepRolePolicy, naming.SetupRoleName + "/" + naming.SetupRolePolicy, func(ctx context.Context) (string, error) {
			return deleteRolePolicy(ctx, b.IAM, naming.SetupRoleName, naming.SetupRolePolicy)
		}},
		{models.StepRole, naming.SetupRoleName, func(ctx context.Context) (string, error) {
			return deleteRole(ctx, b.IAM, naming.SetupRoleName)
		}},
		{models.StepRolePolicy, naming.ExtractRoleName + "/" + naming.ExtractRolePolicy, func(ctx context.Context) (string, error) {
			return deleteRolePolicy(ctx, b.IAM, naming.ExtractRoleName, naming.ExtractRolePolicy)
		}},
		{models.StepRole, naming.ExtractRoleName, func(ctx context.Context) (string, error) {
			return deleteRole(ctx, b.IAM, naming.ExtractRoleName)
		}},
		{models.StepTrail, trailName, func(ctx context.Context) (string, error) {
			return deleteTrail(ctx, b.CloudTrail, trailName)
		}},
		{models.StepBucketEmpty, opts.BucketName, func(ctx context.Context) (string, error) {
			deleted, err := emptyBucket(ctx, b.S3, opts.BucketName)
			report.ObjectsDeleted = deleted
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("deleted %d objects", deleted), nil
		}},
		{models.StepBucket, opts.BucketName, func(ctx context.Context) (string, error) {
			return deleteBucket(ctx, b.S3, opts.BucketName)
		}},
	}

	for _, a := range actions {
		if !opts.Confirm {
			report.Steps = append(report.Steps, models.StepResult{
				Step:     a.step,
				Resource: a.resource,
				Status:   models.StatusPlanned,
				Detail:   "would delete",
			})
			continue
		}

		detail, err := a.run(ctx)
		if err != nil {
			log.WithError(err).Errorf("cleanup step %s failed for %s", a.step, a.resource)
			report.Steps = append(report.Steps, models.StepResult{
				Step:     a.step,
				Resource: a.resource,
				Status:   models.StatusFailed,
				Kind:     models.KindOf(err),
				Detail:   errDetail(err),
			})
			continue
		}
		report.Steps = append(report.Steps, models.StepResult{
			Step:     a.step,
			Resource: a.resource,
			Status:   models.StatusSuccess,
			Detail:   detail,
		})
	}

	if opts.Confirm {
		log.Infof("cleanup finished for bucket %s, %d objects deleted", opts.BucketName, report.ObjectsDeleted)
	} else {
		log.Infof("cleanup dry run for bucket %s, nothing deleted", opts.BucketName)
	}
	return report
}

const alreadyAbsent = "already absent"

func deleteRule(ctx context.Context, client EventBridgeAPI, ruleName string) (string, error) {
	targets, err := client.ListTargetsByRule(ctx, &eventbridgesvc.ListTargetsByRuleInput{
		Rule: aws.String(ruleName),
	})
	if awsclient.IsNotFound(err) {
		return alreadyAbsent, nil
	}
	if err != nil {
		return "", stepError(err, fmt.Sprintf("list targets of rule %s", ruleName))
	}

	if len(targets.Targets) > 0 {
		ids := make([]string, 0, len(targets.Targets))
		for _, target := range targets.Targets {
			ids = append(ids, aws.ToString(target.Id))
		}
		if _, err := client.RemoveTargets(ctx, &eventbridgesvc.RemoveTargetsInput{
			Rule: aws.String(ruleName),
			Ids:  ids,
		}); err != nil && !awsclient.IsNotFound(err) {
			return "", stepError(err, fmt.Sprintf("remove targets from rule %s", ruleName))
		}
	}

	if _, err := client.DeleteRule(ctx, &eventbridgesvc.DeleteRuleInput{
		Name: aws.String(ruleName),
	}); err != nil && !awsclient.IsNotFound(err) {
		return "", stepError(err, fmt.Sprintf("delete rule %s", ruleName))
	}
	return "", nil
}

func deleteFunction(ctx context.Context, client LambdaAPI, functionName string) (string, error) {
	_, err := client.DeleteFunction(ctx, &lambdasvc.DeleteFunctionInput{
		FunctionName: aws.String(functionName),
	})
	if awsclient.IsNotFound(err) {
		return alreadyAbsent, nil
	}
	if err != nil {
		return "", stepError(err, fmt.Sprintf("delete function %s", functionName))
	}
	return "", nil
}

func deleteRolePolicy(ctx context.Context, client IAMAPI, roleName, policyName string) (string, error) {
	_, err := client.DeleteRolePolicy(ctx, &iamsvc.DeleteRolePolicyInput{
		RoleName:   aws.String(roleName),
		PolicyName: aws.String(policyName),
	})
	if awsclient.IsNotFound(err) {
		return alreadyAbsent, nil
	}
	if err != nil {
		return "", stepError(err, fmt.Sprintf("delete policy %s from role %s", policyName, roleName))
	}
	return "", nil
}

func deleteRole(ctx context.Context, client IAMAPI, roleName string) (string, error) {
	_, err := client.DeleteRole(ctx, &iamsvc.DeleteRoleInput{
		RoleName: aws.String(roleName),
	})
	if awsclient.IsNotFound(err) {
		return alreadyAbsent, nil
	}
	if err != nil {
		return "", stepError(err, fmt.Sprintf("delete role %s", roleName))
	}
	return "", nil
}

func deleteTrail(ctx context.Context, client CloudTrailAPI, trailName string) (string, error) {
	_, err := client.DeleteTrail(ctx, &cloudtrailsvc.DeleteTrailInput{
		Name: aws.String(trailName),
	})
	if awsclient.IsNotFound(err) {
		return alreadyAbsent, nil
	}
	if err != nil {
		return "", stepError(err, fmt.Sprintf("delete trail %s", trailName))
	}
	return "", nil
}

// stepError wraps a provider error with call context and its classified
// failure kind.
func stepError(err error, context string) error {
	return models.NewStepError(awsclient.Classify(err), fmt.Errorf("%s: %w", context, err))
}

func errDetail(err error) string {
	var se *models.StepError
	if errors.As(err, &se) {
		return se.Err.Error()
	}
	return err.Error()
}
