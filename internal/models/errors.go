package models

import (
	"errors"
	"fmt"
)

// FailureKind classifies a step failure so operators and the triggered
// handlers can react without parsing provider error strings.
type FailureKind string

const (
	// KindResourceConflict: the name is taken by an incompatible existing
	// resource (bucket owned by another account, trail targeting a
	// different bucket).
	KindResourceConflict FailureKind = "ResourceConflict"

	// KindAuthorizationError: the caller lacks permission for the call.
	KindAuthorizationError FailureKind = "AuthorizationError"

	// KindDirectoryAccessError: the identity store could not be reached or
	// no IAM Identity Center instance exists.
	KindDirectoryAccessError FailureKind = "DirectoryAccessError"

	// KindUploadError: the artifact was produced locally but could not be
	// persisted to the bucket. The local file is preserved.
	KindUploadError FailureKind = "UploadError"

	// KindProvisioningError: any other provider-side failure.
	KindProvisioningError FailureKind = "ProvisioningError"
)

// StepError carries a FailureKind together with the underlying provider
// error. Orchestrators record it per step instead of aborting the run.
type StepError struct {
	Kind FailureKind
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// NewStepError wraps err with the given kind.
func NewStepError(kind FailureKind, err error) *StepError {
	return &StepError{Kind: kind, Err: err}
}

// KindOf extracts the FailureKind from err, defaulting to ProvisioningError
// for errors that were never classified.
func KindOf(err error) FailureKind {
	var se *StepError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindProvisioningError
}
