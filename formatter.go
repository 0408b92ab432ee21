package runwatch

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/acarl005/stripansi"
	"github.com/ethereum/go-ethereum/log"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/runwatch/runwatch/summary"
)

// ResultFormatter is responsible for formatting and displaying run results.
type ResultFormatter interface {
	FormatResults(result *summary.RunResult) error
}

// ConsoleResultFormatter implements the ResultFormatter interface.
type ConsoleResultFormatter struct {
	logger log.Logger
	out    io.Writer
}

// NewConsoleResultFormatter creates a formatter that renders to stdout.
func NewConsoleResultFormatter(logger log.Logger) *ConsoleResultFormatter {
	return &ConsoleResultFormatter{
		logger: logger,
		out:    os.Stdout,
	}
}

// FormatResults formats and displays the run results as a table.
func (f *ConsoleResultFormatter) FormatResults(result *summary.RunResult) error {
	f.logger.Info("Printing results...")
	t := table.NewWriter()
	t.SetOutputMirror(f.out)
	t.SetTitle(fmt.Sprintf("Test Run Results (%s)", formatSeconds(result.Summary.TotalTimeSeconds)))

	t.AppendHeader(table.Row{
		"Test", "Attempts", "Retries", "Duration", "Status", "Error",
	})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Test", WidthMax: 60, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Attempts", Align: text.AlignRight},
		{Name: "Retries", Align: text.AlignRight},
		{Name: "Duration", Align: text.AlignRight},
		{Name: "Error", WidthMax: 80, WidthMaxEnforcer: text.WrapSoft},
	})

	for _, verdict := range result.Verdicts {
		t.AppendRow(table.Row{
			verdict.Title,
			verdict.Attempts,
			verdict.Retries,
			formatSeconds(verdict.FinalDuration),
			getResultString(verdict.Outcome),
			extractKeyErrorMessage(verdict.FinalError),
		})
	}

	// The whole table is colored by the overall verdict.
	if result.Failed() {
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	} else if result.Summary.Passed == 0 && result.Summary.Skipped > 0 {
		t.SetStyle(table.StyleColoredBlackOnYellowWhite)
	} else {
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	}

	t.AppendFooter(table.Row{
		"TOTAL",
		result.Summary.TotalTests,
		result.Summary.TotalRetries,
		formatSeconds(result.Summary.TotalTimeSeconds),
		fmt.Sprintf("%dP %dF %dS", result.Summary.Passed, result.Summary.Failed, result.Summary.Skipped),
		"",
	})

	t.Render()
	return nil
}

// getResultString returns a glyph-prefixed string for a final outcome.
func getResultString(outcome summary.FinalOutcome) string {
	switch outcome {
	case summary.OutcomeExpectedPass:
		return "✓ pass"
	case summary.OutcomeFlakyPass:
		return "~ flaky"
	case summary.OutcomeSkipped:
		return "- skip"
	default:
		return "✗ fail"
	}
}

// extractKeyErrorMessage reduces a potentially multi-line error message to
// something that fits a table cell: ANSI escapes stripped, first line only,
// capped at 80 characters.
func extractKeyErrorMessage(msg string) string {
	msg = strings.TrimSpace(stripansi.Strip(msg))
	if msg == "" {
		return ""
	}
	if idx := strings.Index(msg, "\n"); idx != -1 {
		msg = msg[:idx]
	}
	// Truncate on a rune boundary so multi-byte characters survive intact.
	if runes := []rune(msg); len(runes) > 80 {
		return string(runes[:70]) + "..."
	}
	return msg
}

// formatSeconds formats a duration in seconds with 1 decimal place.
func formatSeconds(seconds float64) string {
	return fmt.Sprintf("%.1fs", seconds)
}
