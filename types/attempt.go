package types

import "fmt"

// AttemptOutcome represents the runner-reported result of a single
// execution attempt. The runner decides pass/fail; runwatch only records it.
type AttemptOutcome string

const (
	AttemptPassed   AttemptOutcome = "passed"
	AttemptFailed   AttemptOutcome = "failed"
	AttemptTimedOut AttemptOutcome = "timedOut"
	AttemptSkipped  AttemptOutcome = "skipped"
)

// Valid reports whether the outcome is one of the four runner-reported states.
func (o AttemptOutcome) Valid() bool {
	switch o {
	case AttemptPassed, AttemptFailed, AttemptTimedOut, AttemptSkipped:
		return true
	default:
		return false
	}
}

// AttemptError is one error reported for a failing attempt. Stack may be
// empty; the runner is not required to provide one.
type AttemptError struct {
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}

// Attempt captures one execution of a test. Attempts are immutable once
// recorded: the store appends them and never mutates or removes them.
type Attempt struct {
	// Index is 0 for the first try and increments per retry.
	Index int `json:"attempt_index"`
	// Outcome is the runner's verdict for this single attempt.
	Outcome AttemptOutcome `json:"outcome"`
	// Duration is the attempt's execution time in seconds.
	Duration float64 `json:"duration_seconds"`
	// Errors is empty when the attempt passed or was skipped.
	Errors []AttemptError `json:"errors,omitempty"`
}

// Validate checks the fields a runner must supply for every attempt.
func (a Attempt) Validate() error {
	if a.Index < 0 {
		return fmt.Errorf("attempt index must be non-negative, got %d", a.Index)
	}
	if !a.Outcome.Valid() {
		return fmt.Errorf("unknown attempt outcome %q", a.Outcome)
	}
	if a.Duration < 0 {
		return fmt.Errorf("attempt duration must be non-negative, got %f", a.Duration)
	}
	return nil
}

// Passed reports whether this individual attempt passed.
func (a Attempt) Passed() bool {
	return a.Outcome == AttemptPassed
}
