// Package events decodes the runner's attempt event stream and feeds it to
// an Observer. The protocol is one JSON object per line: a run_start event,
// one attempt event per execution, and a run_end event.
package events

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/runwatch/runwatch/types"
)

// Event action constants for the runner's NDJSON output.
const (
	ActionRunStart = "run_start"
	ActionAttempt  = "attempt"
	ActionRunEnd   = "run_end"
)

// Stack traces can get large; size the scanner accordingly.
const maxEventSize = 1 << 20

// Event is one line of the runner's event stream. Fields are populated
// depending on Action.
type Event struct {
	Action string    `json:"action"`
	Time   time.Time `json:"time,omitempty"`

	// attempt fields
	Test     string               `json:"test,omitempty"`
	Outcome  types.AttemptOutcome `json:"outcome,omitempty"`
	Duration float64              `json:"duration_seconds,omitempty"`
	Index    int                  `json:"attempt_index,omitempty"`
	Errors   []types.AttemptError `json:"errors,omitempty"`
}

// Observer receives the decoded runner lifecycle. AttemptRecorded may be
// invoked from whatever goroutine drives the parser; implementations own
// their synchronization.
type Observer interface {
	RunStarted(t time.Time)
	AttemptRecorded(test string, a types.Attempt) error
	RunEnded(t time.Time)
}

// Parser decodes an event stream line by line.
type Parser struct {
	log log.Logger
}

// NewParser creates a parser that logs skipped input through logger.
func NewParser(logger log.Logger) *Parser {
	return &Parser{log: logger}
}

// Parse reads the stream to EOF, invoking obs for every recognized event.
// Blank lines are ignored and unknown actions are skipped with a debug log;
// a line that is not valid JSON, or an attempt event missing required
// fields, aborts with an error since the stream is then untrustworthy.
func (p *Parser) Parse(r io.Reader, obs Observer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventSize)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var event Event
		if err := json.Unmarshal(line, &event); err != nil {
			return fmt.Errorf("malformed event on line %d: %w", lineNo, err)
		}

		switch event.Action {
		case ActionRunStart:
			obs.RunStarted(event.Time)
		case ActionRunEnd:
			obs.RunEnded(event.Time)
		case ActionAttempt:
			if event.Test == "" {
				return fmt.Errorf("attempt event on line %d has no test title", lineNo)
			}
			attempt := types.Attempt{
				Index:    event.Index,
				Outcome:  event.Outcome,
				Duration: event.Duration,
				Errors:   event.Errors,
			}
			if err := obs.AttemptRecorded(event.Test, attempt); err != nil {
				return fmt.Errorf("recording attempt from line %d: %w", lineNo, err)
			}
		default:
			p.log.Debug("Skipping unknown event action", "action", event.Action, "line", lineNo)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading event stream: %w", err)
	}
	return nil
}
