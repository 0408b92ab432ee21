// Package logging writes per-test failure logs into the run's artifact
// directory, one file per failed test.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/acarl005/stripansi"

	"github.com/runwatch/runwatch/reporting"
	"github.com/runwatch/runwatch/summary"
)

// FailedDirName holds one log file per failed test inside the run directory.
const FailedDirName = "failed"

// FileLogger handles writing failure details to files.
type FileLogger struct {
	baseDir   string
	runID     string
	failedDir string
	mu        sync.Mutex
}

// NewFileLogger creates the run's failure log directory under baseDir.
func NewFileLogger(baseDir, runID string) (*FileLogger, error) {
	failedDir := filepath.Join(baseDir, reporting.RunDirectoryPrefix+runID, FailedDirName)
	if err := os.MkdirAll(failedDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create failure log directory %s: %w", failedDir, err)
	}
	return &FileLogger{
		baseDir:   baseDir,
		runID:     runID,
		failedDir: failedDir,
	}, nil
}

// RunDir returns the run's artifact directory.
func (l *FileLogger) RunDir() string {
	return filepath.Join(l.baseDir, reporting.RunDirectoryPrefix+l.runID)
}

// FailedDir returns the directory holding per-test failure logs.
func (l *FileLogger) FailedDir() string {
	return l.failedDir
}

// LogFailure writes one failure's message and stack to its own log file.
// ANSI escape sequences from runner output are stripped so the files are
// readable in any viewer.
func (l *FileLogger) LogFailure(f summary.Failure) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "Test:     %s\n", f.Title)
	fmt.Fprintf(&b, "Duration: %.1fs\n", f.TimeTaken)
	fmt.Fprintf(&b, "Timeout:  %t\n\n", f.IsTimeout)
	if f.Message != "" {
		b.WriteString(stripansi.Strip(f.Message))
		b.WriteString("\n")
	}
	if f.Stack != "" {
		b.WriteString("\n")
		b.WriteString(stripansi.Strip(f.Stack))
		b.WriteString("\n")
	}

	path := filepath.Join(l.failedDir, sanitizeFilename(f.Title)+".log")
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write failure log for %q: %w", f.Title, err)
	}
	return nil
}

// sanitizeFilename makes a test title safe to use as a file name.
func sanitizeFilename(title string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "_",
	)
	name := replacer.Replace(title)
	if len(name) > 100 {
		name = name[:100]
	}
	return name
}
