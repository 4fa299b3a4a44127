package output_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/qdev-ingest/q3p/internal/models"
	"github.com/qdev-ingest/q3p/internal/output"
)

// ── helpers ───────────────────────────────────────────────────────────────────

func renderToString(steps []models.StepResult, opts output.TableOptions) string {
	var buf bytes.Buffer
	output.RenderSteps(&buf, steps, opts)
	return buf.String()
}

func oneStep(overrides ...func(*models.StepResult)) models.StepResult {
	s := models.StepResult{
		Step:     models.StepBucket,
		Resource: "q-metrics-test",
		Status:   models.StatusSuccess,
	}
	for _, fn := range overrides {
		fn(&s)
	}
	return s
}

// ── step table ────────────────────────────────────────────────────────────────

func TestRenderSteps_BaseColumns(t *testing.T) {
	out := renderToString([]models.StepResult{oneStep()}, output.TableOptions{})
	for _, want := range []string{"STEP", "RESOURCE", "STATUS", "DETAIL", "bucket", "q-metrics-test", "SUCCESS"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output\ngot:\n%s", want, out)
		}
	}
}

func TestRenderSteps_FailedStepShowsKind(t *testing.T) {
	s := oneStep(func(s *models.StepResult) {
		s.Status = models.StatusFailed
		s.Kind = models.KindResourceConflict
		s.Detail = "bucket name is already taken"
	})
	out := renderToString([]models.StepResult{s}, output.TableOptions{})
	if !strings.Contains(out, "[ResourceConflict] bucket name is already taken") {
		t.Errorf("failed step must show its failure kind\ngot:\n%s", out)
	}
}

func TestRenderSteps_LongDetailIsTruncated(t *testing.T) {
	long := strings.Repeat("x", 100)
	s := oneStep(func(s *models.StepResult) { s.Detail = long })
	out := renderToString([]models.StepResult{s}, output.TableOptions{})

	if strings.Contains(out, long) {
		t.Errorf("full 100-char detail must not appear verbatim\ngot:\n%s", out)
	}
	if !strings.Contains(out, "...") {
		t.Errorf("truncated detail must end with ellipsis\ngot:\n%s", out)
	}
}

func TestRenderSteps_EmptySteps_PrintsNoSteps(t *testing.T) {
	out := renderToString(nil, output.TableOptions{})
	if !strings.Contains(out, "No steps.") {
		t.Errorf("expected 'No steps.' for empty slice\ngot:\n%s", out)
	}
	if strings.Contains(out, "RESOURCE") {
		t.Errorf("column headers must not appear for empty steps\ngot:\n%s", out)
	}
}

// ── color mode ────────────────────────────────────────────────────────────────

func TestRenderSteps_ColoredFalse_NoAnsiCodes(t *testing.T) {
	out := renderToString([]models.StepResult{oneStep()}, output.TableOptions{Colored: false})
	if strings.Contains(out, "\033[") {
		t.Errorf("no ANSI codes must appear when Colored=false\ngot (hex): %q", out)
	}
}

func TestRenderSteps_ColoredTrue_HasAnsiCodes(t *testing.T) {
	out := renderToString([]models.StepResult{oneStep()}, output.TableOptions{Colored: true})
	if !strings.Contains(out, "\033[") {
		t.Errorf("ANSI codes expected when Colored=true\ngot:\n%s", out)
	}
}

// ── report rendering ──────────────────────────────────────────────────────────

func TestRenderSetupReport_IncludesExportSummary(t *testing.T) {
	report := &models.SetupReport{
		BucketName:     "q-metrics-test",
		Region:         "us-east-1",
		GeneratedAt:    time.Now().UTC(),
		Steps:          []models.StepResult{oneStep()},
		ExportedUsers:  12,
		ExportLocation: "s3://q-metrics-test/iam-users/users.csv",
	}
	var buf bytes.Buffer
	output.RenderSetupReport(&buf, report, output.TableOptions{})
	out := buf.String()

	if !strings.Contains(out, "Exported 12 users to s3://q-metrics-test/iam-users/users.csv") {
		t.Errorf("expected export summary\ngot:\n%s", out)
	}
	if strings.Contains(out, "failures") {
		t.Errorf("successful report must not mention failures\ngot:\n%s", out)
	}
}

func TestRenderSetupReport_FlagsFailures(t *testing.T) {
	report := &models.SetupReport{
		BucketName: "q-metrics-test",
		Region:     "us-east-1",
		Steps: []models.StepResult{
			oneStep(func(s *models.StepResult) {
				s.Status = models.StatusFailed
				s.Kind = models.KindAuthorizationError
			}),
		},
	}
	var buf bytes.Buffer
	output.RenderSetupReport(&buf, report, output.TableOptions{})
	if !strings.Contains(buf.String(), "Setup finished with failures.") {
		t.Errorf("expected failure summary\ngot:\n%s", buf.String())
	}
}

func TestRenderCleanupReport_DryRunReminder(t *testing.T) {
	report := &models.CleanupReport{
		BucketName: "q-metrics-test",
		Region:     "us-east-1",
		DryRun:     true,
		Steps: []models.StepResult{
			oneStep(func(s *models.StepResult) { s.Status = models.StatusPlanned }),
		},
	}
	var buf bytes.Buffer
	output.RenderCleanupReport(&buf, report, output.TableOptions{})
	out := buf.String()

	if !strings.Contains(out, "dry run") {
		t.Errorf("expected dry run heading\ngot:\n%s", out)
	}
	if !strings.Contains(out, "--confirm") {
		t.Errorf("dry run must point at --confirm\ngot:\n%s", out)
	}
}

func TestRenderCleanupReport_DeletedCount(t *testing.T) {
	report := &models.CleanupReport{
		BucketName:     "q-metrics-test",
		Region:         "us-east-1",
		Steps:          []models.StepResult{oneStep()},
		ObjectsDeleted: 7,
	}
	var buf bytes.Buffer
	output.RenderCleanupReport(&buf, report, output.TableOptions{})
	if !strings.Contains(buf.String(), "Deleted 7 bucket objects.") {
		t.Errorf("expected deleted-object count\ngot:\n%s", buf.String())
	}
}

// ── JSON mode ─────────────────────────────────────────────────────────────────

func TestRenderJSON_RoundTripsReport(t *testing.T) {
	report := &models.SetupReport{
		BucketName: "q-metrics-test",
		Region:     "us-east-1",
		Steps:      []models.StepResult{oneStep()},
	}
	var buf bytes.Buffer
	if err := output.RenderJSON(&buf, report); err != nil {
		t.Fatalf("RenderJSON: %v", err)
	}

	var decoded models.SetupReport
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.BucketName != "q-metrics-test" || len(decoded.Steps) != 1 {
		t.Errorf("decoded report = %+v", decoded)
	}
}

// ── ShortenDetail unit tests ──────────────────────────────────────────────────

func TestShortenDetail_ShortString_Unchanged(t *testing.T) {
	s := "hello"
	if got := output.ShortenDetail(s, 80); got != s {
		t.Errorf("got %q; want %q", got, s)
	}
}

func TestShortenDetail_TooLong_TruncatedWithEllipsis(t *testing.T) {
	s := strings.Repeat("a", 100)
	got := output.ShortenDetail(s, 80)
	if len([]rune(got)) != 80 {
		t.Errorf("truncated string should be 80 runes, got %d", len([]rune(got)))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("truncated string must end with '...', got %q", got)
	}
}

func TestShortenDetail_VerySmallMax_DoesNotPanic(t *testing.T) {
	if got := output.ShortenDetail("hello world", 2); got == "" {
		t.Error("ShortenDetail with tiny max must return non-empty string")
	}
}
