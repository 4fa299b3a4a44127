// Package output renders setup and cleanup reports for terminals and
// automation.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/qdev-ingest/q3p/internal/models"
)

// ANSI color codes for status output (used when Colored=true).
const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[0;31m"
	ansiGreen  = "\033[0;32m"
	ansiYellow = "\033[0;33m"
	ansiBlue   = "\033[0;34m"
)

// TableOptions controls how RenderSteps renders a step table.
type TableOptions struct {
	// Colored wraps status labels with ANSI codes. Default false (CI-safe).
	Colored bool
}

// ShortenDetail truncates detail to at most max runes, appending "..." when
// truncated. max is treated as at least 4 to guarantee space for the
// ellipsis.
func ShortenDetail(detail string, max int) string {
	if max < 4 {
		max = 4
	}
	runes := []rune(detail)
	if len(runes) <= max {
		return detail
	}
	return string(runes[:max-3]) + "..."
}

// statusCell returns the status padded to width characters.
// When colored, ANSI codes wrap only the text; trailing padding spaces are
// plain so subsequent columns stay visually aligned regardless of terminal
// ANSI support.
func statusCell(status models.StepStatus, width int, colored bool) string {
	text := string(status)
	if !colored {
		return fmt.Sprintf("%-*s", width, text)
	}
	var code string
	switch status {
	case models.StatusSuccess:
		code = ansiGreen
	case models.StatusFailed:
		code = ansiRed
	case models.StatusPlanned:
		code = ansiYellow
	case models.StatusSkipped:
		code = ansiBlue
	default:
		return fmt.Sprintf("%-*s", width, text)
	}
	spaces := width - len(text)
	if spaces < 0 {
		spaces = 0
	}
	return code + text + ansiReset + strings.Repeat(" ", spaces)
}

// truncateField shortens s to at most max bytes for name columns.
// A single-char ellipsis replaces the last byte when truncation occurs.
func truncateField(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}

// RenderSteps writes a formatted step table to w.
// The separator line width is derived from the header row so all rows align
// correctly.
//
// Column order:
//
//	STEP  RESOURCE  STATUS  DETAIL
func RenderSteps(w io.Writer, steps []models.StepResult, opts TableOptions) {
	if len(steps) == 0 {
		fmt.Fprintln(w, "No steps.")
		return
	}

	// Fixed column display widths.
	const (
		wStep     = 16
		wResource = 44
		wStatus   = 9
		wDetail   = 60
	)

	var hb strings.Builder
	hb.WriteString(fmt.Sprintf("%-*s", wStep, "STEP"))
	hb.WriteString(fmt.Sprintf("  %-*s", wResource, "RESOURCE"))
	hb.WriteString(fmt.Sprintf("  %-*s", wStatus, "STATUS"))
	hb.WriteString(fmt.Sprintf("  %-*s", wDetail, "DETAIL"))
	header := hb.String()

	fmt.Fprintln(w, header)
	fmt.Fprintln(w, strings.Repeat("-", len(header)))

	for _, s := range steps {
		detail := s.Detail
		if s.Status == models.StatusFailed && s.Kind != "" {
			detail = fmt.Sprintf("[%s] %s", s.Kind, detail)
		}

		var rb strings.Builder
		rb.WriteString(fmt.Sprintf("%-*s", wStep, truncateField(s.Step, wStep)))
		rb.WriteString(fmt.Sprintf("  %-*s", wResource, truncateField(s.Resource, wResource)))
		rb.WriteString("  " + statusCell(s.Status, wStatus, opts.Colored))
		rb.WriteString(fmt.Sprintf("  %-*s", wDetail, ShortenDetail(detail, wDetail)))
		fmt.Fprintln(w, rb.String())
	}
}

// RenderSetupReport writes the step table followed by a short summary of
// the setup run.
func RenderSetupReport(w io.Writer, report *models.SetupReport, opts TableOptions) {
	fmt.Fprintf(w, "Setup report for bucket %s (%s)\n\n", report.BucketName, report.Region)
	RenderSteps(w, report.Steps, opts)
	if report.ExportLocation != "" {
		fmt.Fprintf(w, "\nExported %d users to %s\n", report.ExportedUsers, report.ExportLocation)
	}
	if !models.Succeeded(report.Steps) {
		fmt.Fprintln(w, "\nSetup finished with failures.")
	}
}

// RenderCleanupReport writes the step table followed by a short summary of
// the cleanup run. Dry runs get a reminder that nothing was deleted.
func RenderCleanupReport(w io.Writer, report *models.CleanupReport, opts TableOptions) {
	mode := "Cleanup"
	if report.DryRun {
		mode = "Cleanup plan (dry run)"
	}
	fmt.Fprintf(w, "%s for bucket %s (%s)\n\n", mode, report.BucketName, report.Region)
	RenderSteps(w, report.Steps, opts)
	switch {
	case report.DryRun:
		fmt.Fprintln(w, "\nNothing was deleted. Re-run with --confirm to delete these resources.")
	case !models.Succeeded(report.Steps):
		fmt.Fprintln(w, "\nCleanup finished with failures.")
	default:
		fmt.Fprintf(w, "\nDeleted %d bucket objects.\n", report.ObjectsDeleted)
	}
}

// RenderJSON writes v as indented JSON for automation consumers.
func RenderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
