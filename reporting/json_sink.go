package reporting

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/runwatch/runwatch/summary"
)

// SummaryFilename is the machine-readable artifact written for every run.
const SummaryFilename = "summary.json"

// JSONSink persists the RunSummary artifact. The JSON field set is an
// external contract consumed by downstream tooling.
type JSONSink struct {
	baseDir string
}

// NewJSONSink creates a JSON summary sink rooted at baseDir.
func NewJSONSink(baseDir string) *JSONSink {
	return &JSONSink{baseDir: baseDir}
}

// Write serializes the run summary into testrun-<runID>/summary.json.
func (s *JSONSink) Write(result *summary.RunResult) error {
	dir, err := runDir(s.baseDir, result.RunID)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(result.Summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run summary: %w", err)
	}

	path := filepath.Join(dir, SummaryFilename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write summary file: %w", err)
	}
	return nil
}

// Path returns where the summary artifact for runID is written.
func (s *JSONSink) Path(runID string) string {
	return filepath.Join(s.baseDir, RunDirectoryPrefix+runID, SummaryFilename)
}
