package awsclient

import (
	"errors"

	"github.com/aws/smithy-go"

	"github.com/qdev-ingest/q3p/internal/models"
)

// Error-code sets used to map provider failures onto the step failure
// taxonomy. The SDK surfaces most of these as typed errors, but matching on
// smithy.APIError codes keeps the mapping uniform across all eight services.
var (
	notFoundCodes = map[string]bool{
		"NotFound":                  true, // HeadBucket 404
		"NoSuchBucket":              true,
		"NoSuchKey":                 true,
		"NoSuchEntity":              true, // IAM
		"TrailNotFoundException":    true,
		"ResourceNotFoundException": true, // Lambda, EventBridge, identitystore
	}

	accessDeniedCodes = map[string]bool{
		"AccessDenied":                        true,
		"AccessDeniedException":               true,
		"UnauthorizedOperation":               true,
		"Forbidden":                           true, // HeadBucket 403
		"InsufficientS3BucketPolicyException": true, // CloudTrail cannot write to the bucket
	}

	conflictCodes = map[string]bool{
		"BucketAlreadyExists":            true,
		"TrailAlreadyExistsException":    true,
		"ResourceConflictException":      true,
		"EntityAlreadyExists":            true,
		"OperationNotPermittedException": true, // trail name/bucket mismatch variants
	}
)

// errorCode returns the provider error code from err, or "" when err is not
// an AWS API error.
func errorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

// IsNotFound reports whether err means "resource does not exist". Cleanup
// treats these as success so it can be re-run after partial teardown.
func IsNotFound(err error) bool {
	return notFoundCodes[errorCode(err)]
}

// IsAccessDenied reports whether err is a permission failure.
func IsAccessDenied(err error) bool {
	return accessDeniedCodes[errorCode(err)]
}

// IsConflict reports whether err means the name is already taken by an
// incompatible resource.
func IsConflict(err error) bool {
	return conflictCodes[errorCode(err)]
}

// Classify maps err onto the failure taxonomy. Errors that already carry a
// kind (wrapped StepErrors) keep it; raw provider errors are classified by
// code; everything else is a ProvisioningError.
func Classify(err error) models.FailureKind {
	var se *models.StepError
	if errors.As(err, &se) {
		return se.Kind
	}
	switch {
	case IsAccessDenied(err):
		return models.KindAuthorizationError
	case IsConflict(err):
		return models.KindResourceConflict
	default:
		return models.KindProvisioningError
	}
}
