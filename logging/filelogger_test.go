package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runwatch/runwatch/summary"
)

func TestFileLogger_LogFailureWritesOneFilePerTest(t *testing.T) {
	baseDir := t.TempDir()
	logger, err := NewFileLogger(baseDir, "run-abc")
	require.NoError(t, err)

	failure := summary.Failure{
		Title:     "TestCheckout/expired card",
		Message:   "expected decline, got approval",
		Stack:     "at checkout.go:42",
		TimeTaken: 2.5,
		IsTimeout: false,
	}
	require.NoError(t, logger.LogFailure(failure))

	path := filepath.Join(logger.FailedDir(), "TestCheckout_expired_card.log")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, "Test:     TestCheckout/expired card")
	assert.Contains(t, content, "Duration: 2.5s")
	assert.Contains(t, content, "expected decline, got approval")
	assert.Contains(t, content, "at checkout.go:42")
}

func TestFileLogger_StripsANSIEscapes(t *testing.T) {
	baseDir := t.TempDir()
	logger, err := NewFileLogger(baseDir, "run-ansi")
	require.NoError(t, err)

	failure := summary.Failure{
		Title:   "TestColors",
		Message: "\x1b[31mexpected\x1b[0m true",
	}
	require.NoError(t, logger.LogFailure(failure))

	data, err := os.ReadFile(filepath.Join(logger.FailedDir(), "TestColors.log"))
	require.NoError(t, err)

	assert.Contains(t, string(data), "expected true")
	assert.NotContains(t, string(data), "\x1b[")
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{name: "plain", title: "TestLogin", want: "TestLogin"},
		{name: "spaces and slashes", title: "suite/the test", want: "suite_the_test"},
		{name: "windows unfriendly", title: `a:b*c?"d"`, want: "a_b_c__d_"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeFilename(tt.title))
		})
	}
}

func TestSanitizeFilename_CapsLength(t *testing.T) {
	long := make([]byte, 300)
	for i := range long {
		long[i] = 'a'
	}
	assert.Len(t, sanitizeFilename(string(long)), 100)
}
