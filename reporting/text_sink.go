package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/runwatch/runwatch/summary"
)

// TextSummaryFilename is the human-readable counterpart to summary.json.
const TextSummaryFilename = "summary.log"

// TextSink writes a plain-text rendering of the run for humans reading
// artifacts without a terminal table.
type TextSink struct {
	baseDir        string
	includeDetails bool
}

// NewTextSink creates a text summary sink rooted at baseDir. When
// includeDetails is set, failure messages and stacks are appended in full.
func NewTextSink(baseDir string, includeDetails bool) *TextSink {
	return &TextSink{baseDir: baseDir, includeDetails: includeDetails}
}

// Write renders the run into testrun-<runID>/summary.log.
func (s *TextSink) Write(result *summary.RunResult) error {
	dir, err := runDir(s.baseDir, result.RunID)
	if err != nil {
		return err
	}

	content := s.format(result)
	path := filepath.Join(dir, TextSummaryFilename)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write summary file: %w", err)
	}
	return nil
}

func (s *TextSink) format(result *summary.RunResult) string {
	var b strings.Builder

	sum := result.Summary
	fmt.Fprintf(&b, "Test Run Summary (%s)\n", result.RunID)
	fmt.Fprintf(&b, "%s\n\n", strings.Repeat("=", 50))
	fmt.Fprintf(&b, "Total:   %d\n", sum.TotalTests)
	fmt.Fprintf(&b, "Passed:  %d\n", sum.Passed)
	fmt.Fprintf(&b, "Failed:  %d\n", sum.Failed)
	fmt.Fprintf(&b, "Skipped: %d\n", sum.Skipped)
	fmt.Fprintf(&b, "Retries: %d\n", sum.TotalRetries)
	fmt.Fprintf(&b, "Wall clock: %.1fs\n", sum.TotalTimeSeconds)
	fmt.Fprintf(&b, "Avg passing attempt: %.2fs, slowest: %.2fs\n", sum.AverageTestDurationSeconds, sum.SlowestTestDurationSeconds)
	if sum.EnvironmentURL != "" {
		fmt.Fprintf(&b, "Environment: %s\n", sum.EnvironmentURL)
	}

	b.WriteString("\nTests:\n")
	for _, v := range result.Verdicts {
		fmt.Fprintf(&b, "  [%s] %s (%d attempts, %.1fs)\n", v.Outcome, v.Title, v.Attempts, v.FinalDuration)
	}

	if len(sum.Failures) > 0 {
		b.WriteString("\nFailures:\n")
		for _, f := range sum.Failures {
			fmt.Fprintf(&b, "  %s (%.1fs", f.Title, f.TimeTaken)
			if f.IsTimeout {
				b.WriteString(", timeout")
			}
			b.WriteString(")\n")
			if s.includeDetails {
				if f.Message != "" {
					b.WriteString(indent(f.Message, "    "))
				}
				if f.Stack != "" {
					b.WriteString(indent(f.Stack, "    "))
				}
			}
		}
	}

	return b.String()
}

func indent(text, prefix string) string {
	var b strings.Builder
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		b.WriteString(prefix)
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}
