package models

import "time"

// StepStatus is the outcome of one orchestrator step.
type StepStatus string

const (
	// StatusSuccess means the step completed, including "resource was
	// already in the desired state".
	StatusSuccess StepStatus = "SUCCESS"

	// StatusFailed means the step was attempted and errored.
	StatusFailed StepStatus = "FAILED"

	// StatusSkipped means the step was never attempted because a hard
	// dependency failed or the operator did not request it.
	StatusSkipped StepStatus = "SKIPPED"

	// StatusPlanned is used by cleanup dry runs: the step describes what
	// would be deleted, and nothing was touched.
	StatusPlanned StepStatus = "PLANNED"
)

// Step names shared by the CLI, the Lambda handlers and tests.
const (
	StepBucket       = "bucket"
	StepTrail        = "trail"
	StepUserExport   = "user-export"
	StepScheduleRule = "schedule-rule"
	StepFunction     = "lambda-function"
	StepRolePolicy   = "role-policy"
	StepRole         = "role"
	StepBucketEmpty  = "bucket-contents"
)

// StepResult records what one step did to one named resource.
type StepResult struct {
	Step     string      `json:"step"`
	Resource string      `json:"resource"`
	Status   StepStatus  `json:"status"`
	Kind     FailureKind `json:"failure_kind,omitempty"`
	Detail   string      `json:"detail,omitempty"`
}

// SetupReport is the structured outcome of a setup run. It is rendered as a
// table by the CLI and returned verbatim by the setup Lambda handler.
type SetupReport struct {
	BucketName  string       `json:"bucket_name"`
	Region      string       `json:"region"`
	AccountID   string       `json:"account_id,omitempty"`
	GeneratedAt time.Time    `json:"generated_at"`
	Steps       []StepResult `json:"steps"`

	// ExportedUsers and ExportLocation are populated when the export step
	// ran and produced an artifact.
	ExportedUsers  int    `json:"exported_users,omitempty"`
	ExportLocation string `json:"export_location,omitempty"`
}

// CleanupReport is the structured outcome of a cleanup run.
type CleanupReport struct {
	BucketName  string       `json:"bucket_name"`
	Region      string       `json:"region"`
	DryRun      bool         `json:"dry_run"`
	GeneratedAt time.Time    `json:"generated_at"`
	Steps       []StepResult `json:"steps"`

	// ObjectsDeleted counts bucket objects (including versions and delete
	// markers) removed while emptying the bucket.
	ObjectsDeleted int `json:"objects_deleted"`
}

// ExportResult is the structured outcome of one identity export. It is the
// response shape of the scheduled extraction handler.
type ExportResult struct {
	UserCount int    `json:"user_count"`
	LocalPath string `json:"local_path,omitempty"`
	Location  string `json:"location,omitempty"`
}

// Succeeded reports whether every attempted step in steps completed.
// Skipped and planned steps do not count as failures.
func Succeeded(steps []StepResult) bool {
	for _, s := range steps {
		if s.Status == StatusFailed {
			return false
		}
	}
	return true
}
