package awsclient

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aws/smithy-go"

	"github.com/qdev-ingest/q3p/internal/models"
)

func apiErr(code string) error {
	return &smithy.GenericAPIError{Code: code, Message: "boom"}
}

func TestIsNotFound(t *testing.T) {
	for _, code := range []string{
		"NotFound",
		"NoSuchBucket",
		"NoSuchEntity",
		"TrailNotFoundException",
		"ResourceNotFoundException",
	} {
		if !IsNotFound(apiErr(code)) {
			t.Errorf("IsNotFound(%s) = false", code)
		}
	}
	if IsNotFound(apiErr("AccessDenied")) {
		t.Error("AccessDenied must not classify as not-found")
	}
	if IsNotFound(errors.New("plain")) {
		t.Error("non-API error must not classify as not-found")
	}
}

// Wrapped SDK errors must still classify: orchestrators wrap every provider
// error with call context before recording it.
func TestIsNotFound_Wrapped(t *testing.T) {
	err := fmt.Errorf("delete trail: %w", apiErr("TrailNotFoundException"))
	if !IsNotFound(err) {
		t.Error("wrapped not-found error must classify")
	}
}

func TestIsAccessDenied(t *testing.T) {
	for _, code := range []string{
		"AccessDenied",
		"AccessDeniedException",
		"UnauthorizedOperation",
		"Forbidden",
		"InsufficientS3BucketPolicyException",
	} {
		if !IsAccessDenied(apiErr(code)) {
			t.Errorf("IsAccessDenied(%s) = false", code)
		}
	}
}

func TestIsConflict(t *testing.T) {
	if !IsConflict(apiErr("BucketAlreadyExists")) {
		t.Error("BucketAlreadyExists must classify as conflict")
	}
	if IsConflict(apiErr("NoSuchBucket")) {
		t.Error("NoSuchBucket must not classify as conflict")
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		want models.FailureKind
	}{
		{apiErr("AccessDenied"), models.KindAuthorizationError},
		{apiErr("BucketAlreadyExists"), models.KindResourceConflict},
		{apiErr("InternalError"), models.KindProvisioningError},
		{errors.New("plain"), models.KindProvisioningError},
		// Pre-classified errors keep their kind.
		{models.NewStepError(models.KindUploadError, errors.New("put failed")), models.KindUploadError},
	}
	for _, c := range cases {
		if got := Classify(c.err); got != c.want {
			t.Errorf("Classify(%v): got %q; want %q", c.err, got, c.want)
		}
	}
}
