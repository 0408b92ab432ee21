package reporting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextSink_WritesReadableSummary(t *testing.T) {
	baseDir := t.TempDir()
	sink := NewTextSink(baseDir, true)
	result := reducedResult(t)

	require.NoError(t, sink.Write(result))

	data, err := os.ReadFile(filepath.Join(baseDir, RunDirectoryPrefix+"run-json", TextSummaryFilename))
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, "Test Run Summary (run-json)")
	assert.Contains(t, content, "Total:   2")
	assert.Contains(t, content, "Passed:  1")
	assert.Contains(t, content, "Failed:  1")
	assert.Contains(t, content, "[expected-pass] TestLogin")
	assert.Contains(t, content, "[failure] TestCheckout")
	assert.Contains(t, content, "timeout exceeded")
	assert.Contains(t, content, "at checkout.go:42")
	assert.Contains(t, content, "Environment: https://staging.example.com")
}

func TestTextSink_OmitsDetailsWhenDisabled(t *testing.T) {
	baseDir := t.TempDir()
	sink := NewTextSink(baseDir, false)

	require.NoError(t, sink.Write(reducedResult(t)))

	data, err := os.ReadFile(filepath.Join(baseDir, RunDirectoryPrefix+"run-json", TextSummaryFilename))
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, "TestCheckout")
	assert.NotContains(t, content, "at checkout.go:42")
}
