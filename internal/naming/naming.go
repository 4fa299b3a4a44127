// Package naming derives every dependent resource name from the target
// bucket name. Setup and cleanup never persist a resource registry; they
// agree on what to act on only because these derivations are pure.
package naming

import (
	"fmt"
	"net"
	"regexp"
	"strings"
)

// Bucket key layout. The Q Developer console writes under QDeveloperPrefix,
// CloudTrail delivers under TrailLogPrefix, and identity exports land under
// UserExportPrefix.
const (
	QDeveloperPrefix   = "q-developer/"
	PromptLogPrefix    = "q-developer/prompt-logs/"
	UsageMetricsPrefix = "q-developer/usage-metrics/"
	TrailLogPrefix     = "cloudtrail-logs/"
	UserExportPrefix   = "iam-users/"
)

// Fixed names for the out-of-band resources cleanup is responsible for.
// They are constants rather than bucket-derived because a single account
// hosts at most one scheduled ingestion pipeline.
const (
	SetupFunctionName   = "QDeveloper3PSetup"
	ExtractFunctionName = "IAMIdentityCenterUserExtract"

	SetupScheduleRule   = "QDeveloper3PSetupSchedule"
	ExtractScheduleRule = "IAMIdentityCenterUserExtractSchedule"

	SetupRoleName     = "lambda-q-developer-role"
	SetupRolePolicy   = "QDeveloper3PPermissions"
	ExtractRoleName   = "lambda-iam-identity-center-extract-role"
	ExtractRolePolicy = "IAMIdentityCenterExtractPermissions"
)

const trailNamePrefix = "q-developer-3p-trail-"

// TrailName returns the CloudTrail trail name for the given bucket.
func TrailName(bucketName string) string {
	return trailNamePrefix + bucketName
}

// ExportKey returns the bucket key for an identity export artifact.
// Only the base file name is used; any local directory component is local.
func ExportKey(outputFile string) string {
	if i := strings.LastIndexByte(outputFile, '/'); i >= 0 {
		outputFile = outputFile[i+1:]
	}
	return UserExportPrefix + outputFile
}

// S3URI renders an s3:// location for display and reports.
func S3URI(bucket, key string) string {
	return fmt.Sprintf("s3://%s/%s", bucket, key)
}

// bucketNameRE matches the S3 general-purpose bucket grammar: lowercase
// letters, digits, dots and hyphens, starting and ending with a letter or
// digit.
var bucketNameRE = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]*[a-z0-9]$`)

// ValidateBucketName checks name against the global S3 bucket naming rules.
// It rejects anything the CreateBucket API would reject so failures surface
// before any AWS call is made.
func ValidateBucketName(name string) error {
	if len(name) < 3 || len(name) > 63 {
		return fmt.Errorf("bucket name %q must be between 3 and 63 characters", name)
	}
	if !bucketNameRE.MatchString(name) {
		return fmt.Errorf("bucket name %q may contain only lowercase letters, digits, dots and hyphens, and must start and end with a letter or digit", name)
	}
	if strings.Contains(name, "..") || strings.Contains(name, ".-") || strings.Contains(name, "-.") {
		return fmt.Errorf("bucket name %q contains an invalid dot/hyphen sequence", name)
	}
	if net.ParseIP(name) != nil {
		return fmt.Errorf("bucket name %q must not be formatted as an IP address", name)
	}
	if strings.HasPrefix(name, "xn--") || strings.HasSuffix(name, "-s3alias") {
		return fmt.Errorf("bucket name %q uses a reserved prefix or suffix", name)
	}
	return nil
}
