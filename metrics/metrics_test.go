package metrics

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/require"

	"github.com/runwatch/runwatch/store"
	"github.com/runwatch/runwatch/summary"
	"github.com/runwatch/runwatch/types"
)

func TestErrToLabel(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{
			name: "nil error",
			err:  nil,
		},
		{
			name: "simple error",
			err:  errors.New("test error"),
		},
		{
			name: "error with special chars",
			err:  errors.New("test@error#123"),
		},
		{
			name: "error with multiple spaces",
			err:  errors.New("test   error"),
		},
		{
			name: "error with multiple underscores",
			err:  errors.New("test__error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := errToLabel(tt.err)
			validLabelRegex := regexp.MustCompile(`[a-zA-Z_][a-zA-Z0-9_]*`)
			if !validLabelRegex.MatchString(result) {
				t.Errorf("errToLabel() = %v, is not a valid Prometheus label", result)
			}
		})
	}
}

func TestRecordRunSummary(t *testing.T) {
	s := store.NewStore()
	require.NoError(t, s.Record("TestA", types.Attempt{Index: 0, Outcome: types.AttemptPassed, Duration: 1.0}))

	start := time.Now()
	reducer := summary.NewReducer(log.NewLogger(log.DiscardHandler()))
	result, err := reducer.Reduce("run-metrics", s.Records(), summary.RunWindow{Start: start, End: start.Add(time.Second)}, "")
	require.NoError(t, err)

	// Must not panic; the vectors are package-level and shared.
	RecordRunSummary(result)
	RecordAttempt("run-metrics", string(types.AttemptPassed))
	RecordError("test error")
	RecordErrorDetails("label", errors.New("some failure"))
	RecordErrorDetails("label", nil)
}
