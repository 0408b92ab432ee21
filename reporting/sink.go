// Package reporting persists reduced run results as durable artifacts. Each
// sink writes into the run's artifact directory (testrun-<runID>) under a
// shared base directory.
package reporting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/runwatch/runwatch/summary"
)

// RunDirectoryPrefix is the standardized prefix for per-run directories.
const RunDirectoryPrefix = "testrun-"

// SummarySink consumes a complete run result once the run is closed.
type SummarySink interface {
	Write(result *summary.RunResult) error
}

// runDir returns (and creates) the artifact directory for a run.
func runDir(baseDir, runID string) (string, error) {
	dir := filepath.Join(baseDir, RunDirectoryPrefix+runID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}
	return dir, nil
}
