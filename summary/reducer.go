// Package summary reduces a closed attempt store into final per-test
// verdicts and the run-level summary artifact.
package summary

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/runwatch/runwatch/store"
	"github.com/runwatch/runwatch/types"
)

// FinalOutcome is the reduced, authoritative status of a test after all of
// its attempts are known. It is derived, never stored.
type FinalOutcome string

const (
	OutcomeExpectedPass FinalOutcome = "expected-pass"
	OutcomeFlakyPass    FinalOutcome = "flaky-pass"
	OutcomeFailure      FinalOutcome = "failure"
	OutcomeSkipped      FinalOutcome = "skipped"
)

// Passed reports whether the outcome counts toward the passed bucket.
func (o FinalOutcome) Passed() bool {
	return o == OutcomeExpectedPass || o == OutcomeFlakyPass
}

// timeoutMarker classifies a failure as a timeout when it appears anywhere
// in a final-attempt error message. Case-sensitive, matching the runner's
// message convention.
const timeoutMarker = "timeout"

// InvariantViolation is returned when reduction encounters a test record
// with zero attempts. No final outcome can be derived from it, so the whole
// reduction aborts rather than guessing.
type InvariantViolation struct {
	Title string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("test record %q has no attempts", e.Title)
}

// Failure describes one test whose final attempt failed. All fields derive
// from the last attempt only; earlier attempts are retry history.
type Failure struct {
	Title     string  `json:"title"`
	Message   string  `json:"message"`
	Stack     string  `json:"stack"`
	TimeTaken float64 `json:"timeTaken"`
	IsTimeout bool    `json:"isTimeout"`
}

// RunSummary is the machine-readable artifact produced once per run. Its
// field set is an external contract; do not add or rename JSON keys.
type RunSummary struct {
	StartTime                  int64     `json:"startTime"` // epoch milliseconds
	EndTime                    int64     `json:"endTime"`   // epoch milliseconds
	TotalTimeSeconds           float64   `json:"totalTimeSeconds"`
	TotalTests                 int       `json:"totalTests"`
	Passed                     int       `json:"passed"`
	Failed                     int       `json:"failed"`
	Skipped                    int       `json:"skipped"`
	Failures                   []Failure `json:"failures"`
	AverageTestDurationSeconds float64   `json:"averageTestDurationSeconds"`
	SlowestTestDurationSeconds float64   `json:"slowestTestDurationSeconds"`
	TotalRetries               int       `json:"totalRetries"`
	EnvironmentURL             string    `json:"environmentUrl"`
}

// TestVerdict carries the per-test reduction for display purposes. It is
// not part of the summary artifact.
type TestVerdict struct {
	Title         string
	Outcome       FinalOutcome
	Attempts      int
	Retries       int
	FinalDuration float64 // seconds, of the last attempt
	FinalError    string  // joined messages of the last attempt, empty when green
}

// RunWindow brackets the run with wall-clock timestamps supplied by the
// runner. Total run time comes from here, never from summing attempt
// durations, since attempts may execute concurrently.
type RunWindow struct {
	Start time.Time
	End   time.Time
}

// RunResult is the complete output of one reduction pass.
type RunResult struct {
	RunID    string
	Verdicts []TestVerdict
	Summary  *RunSummary
}

// Failed reports whether any test's final outcome was a failure. This is
// the single bit that drives the process exit status.
func (r *RunResult) Failed() bool {
	return r.Summary.Failed > 0
}

// String returns a one-line human summary, suitable for logging.
func (r *RunResult) String() string {
	s := r.Summary
	return fmt.Sprintf("run %s: %d tests, %d passed, %d failed, %d skipped, %d retries in %.1fs",
		r.RunID, s.TotalTests, s.Passed, s.Failed, s.Skipped, s.TotalRetries, s.TotalTimeSeconds)
}

// ReduceRecord collapses one test's attempt history into its final outcome.
// The highest-index attempt is authoritative: a failing last attempt means
// the retry budget is exhausted and the test failed, even if an earlier
// attempt happened to pass.
func ReduceRecord(rec *store.TestRecord) (FinalOutcome, error) {
	last, ok := rec.Last()
	if !ok {
		return "", &InvariantViolation{Title: rec.Title}
	}
	switch last.Outcome {
	case types.AttemptSkipped:
		return OutcomeSkipped, nil
	case types.AttemptPassed:
		if len(rec.Attempts) == 1 {
			return OutcomeExpectedPass, nil
		}
		return OutcomeFlakyPass, nil
	default:
		return OutcomeFailure, nil
	}
}

// Reducer computes run summaries from closed attempt stores. Reduction is a
// pure function of its inputs: reducing the same snapshot twice produces
// identical results.
type Reducer struct {
	log log.Logger
}

// NewReducer creates a reducer that logs through the given logger.
func NewReducer(logger log.Logger) *Reducer {
	return &Reducer{log: logger}
}

// Reduce computes every test's final outcome and the aggregate run summary.
// recs must be a closed snapshot (store.Records()); the store must not be
// mutated afterwards for the summary to remain meaningful.
func (r *Reducer) Reduce(runID string, recs []*store.TestRecord, window RunWindow, environmentURL string) (*RunResult, error) {
	result := &RunResult{
		RunID:    runID,
		Verdicts: make([]TestVerdict, 0, len(recs)),
		Summary: &RunSummary{
			StartTime:      window.Start.UnixMilli(),
			EndTime:        window.End.UnixMilli(),
			Failures:       make([]Failure, 0),
			EnvironmentURL: environmentURL,
		},
	}
	if window.End.After(window.Start) {
		result.Summary.TotalTimeSeconds = window.End.Sub(window.Start).Seconds()
	}

	var (
		passedDurationSum float64
		passedAttempts    int
		slowest           float64
	)

	for _, rec := range recs {
		outcome, err := ReduceRecord(rec)
		if err != nil {
			return nil, err
		}
		last, _ := rec.Last()

		verdict := TestVerdict{
			Title:         rec.Title,
			Outcome:       outcome,
			Attempts:      len(rec.Attempts),
			Retries:       rec.Retries(),
			FinalDuration: last.Duration,
		}

		result.Summary.TotalTests++
		result.Summary.TotalRetries += rec.Retries()

		switch {
		case outcome.Passed():
			result.Summary.Passed++
		case outcome == OutcomeSkipped:
			result.Summary.Skipped++
		default:
			result.Summary.Failed++
			failure := buildFailure(rec.Title, last)
			verdict.FinalError = failure.Message
			result.Summary.Failures = append(result.Summary.Failures, failure)
		}

		// Duration statistics cover passing attempts only, across all
		// tests, including the final pass of a flaky test.
		for _, a := range rec.Attempts {
			if a.Passed() {
				passedDurationSum += a.Duration
				passedAttempts++
				if a.Duration > slowest {
					slowest = a.Duration
				}
			}
		}

		result.Verdicts = append(result.Verdicts, verdict)
	}

	if passedAttempts > 0 {
		result.Summary.AverageTestDurationSeconds = passedDurationSum / float64(passedAttempts)
		result.Summary.SlowestTestDurationSeconds = slowest
	}

	r.log.Debug("Reduced run",
		"run_id", runID,
		"tests", result.Summary.TotalTests,
		"passed", result.Summary.Passed,
		"failed", result.Summary.Failed,
		"skipped", result.Summary.Skipped,
		"retries", result.Summary.TotalRetries)

	return result, nil
}

// buildFailure assembles a Failure entry from a test's final attempt.
// Messages and stacks are newline-joined in reported order. Missing
// messages and stacks are tolerated as empty text.
func buildFailure(title string, last types.Attempt) Failure {
	messages := make([]string, 0, len(last.Errors))
	stacks := make([]string, 0, len(last.Errors))
	isTimeout := false
	for _, e := range last.Errors {
		if e.Message != "" {
			messages = append(messages, e.Message)
		}
		if e.Stack != "" {
			stacks = append(stacks, e.Stack)
		}
		if strings.Contains(e.Message, timeoutMarker) {
			isTimeout = true
		}
	}
	return Failure{
		Title:     title,
		Message:   strings.Join(messages, "\n"),
		Stack:     strings.Join(stacks, "\n"),
		TimeTaken: last.Duration,
		IsTimeout: isTimeout,
	}
}
