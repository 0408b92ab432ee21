// Package runwatch observes a test runner's lifecycle: it accumulates every
// execution attempt of every test, and when the run is complete reduces the
// attempt history into final verdicts, aggregate statistics, console output
// and a machine-readable summary artifact.
package runwatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/runwatch/runwatch/events"
	"github.com/runwatch/runwatch/exitcodes"
	"github.com/runwatch/runwatch/logging"
	"github.com/runwatch/runwatch/metrics"
	"github.com/runwatch/runwatch/reporting"
	"github.com/runwatch/runwatch/store"
	"github.com/runwatch/runwatch/summary"
	"github.com/runwatch/runwatch/types"
)

// Runwatch implements the events.Observer interface.
var _ events.Observer = &Runwatch{}

// Runwatch ties the attempt store, the reducer and the reporting sinks
// together for the lifetime of the process.
type Runwatch struct {
	ctx       context.Context
	config    *Config
	version   string
	parser    *events.Parser
	reducer   *summary.Reducer
	formatter ResultFormatter
	sinks     []reporting.SummarySink

	// mu guards the per-pass observation state (reset by observeRun) and
	// the latest reduced result.
	mu       sync.Mutex
	store    *store.Store
	runID    string
	runStart time.Time
	runEnd   time.Time
	result   *summary.RunResult

	running atomic.Bool
	done    chan struct{}
	wg      sync.WaitGroup

	shutdownCallback func(error) // Callback to signal application shutdown
}

// New creates a Runwatch service from config.
func New(ctx context.Context, config *Config, version string, shutdownCallback func(error)) (*Runwatch, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}
	if !config.RunOnce && config.Input == "-" {
		return nil, errors.New("interval mode requires a file input; stdin can only be observed once")
	}

	config.Log.Debug("Creating runwatch with config",
		"input", config.Input,
		"outputDir", config.OutputDir,
		"runInterval", config.RunInterval,
		"runOnce", config.RunOnce,
		"environmentURL", config.EnvironmentURL)

	return &Runwatch{
		ctx:       ctx,
		config:    config,
		version:   version,
		parser:    events.NewParser(config.Log),
		reducer:   summary.NewReducer(config.Log),
		formatter: NewConsoleResultFormatter(config.Log),
		sinks: []reporting.SummarySink{
			reporting.NewJSONSink(config.OutputDir),
			reporting.NewTextSink(config.OutputDir, true),
		},
		done:             make(chan struct{}),
		shutdownCallback: shutdownCallback,
	}, nil
}

// Start observes the event stream once, or periodically at the configured
// interval.
func (w *Runwatch) Start(ctx context.Context) error {
	// Panics while observing are runtime errors, not test failures.
	defer func() {
		if r := recover(); r != nil {
			w.config.Log.Error("Runtime error occurred", "error", r)
			os.Exit(exitcodes.RuntimeErr)
		}
	}()

	w.ctx = ctx
	w.done = make(chan struct{})
	w.running.Store(true)

	if w.config.RunOnce {
		w.config.Log.Info("Starting runwatch in run-once mode")
	} else {
		w.config.Log.Info("Starting runwatch in continuous mode", "interval", w.config.RunInterval)
	}

	if err := w.observeRun(ctx); err != nil {
		w.config.Log.Error("Runtime error observing run", "error", err)
		return NewRuntimeError(err)
	}

	if w.config.RunOnce {
		w.config.Log.Info("Observation complete, exiting (run-once mode)")

		if result := w.Result(); result != nil && result.Failed() {
			w.config.Log.Warn("Run completed with failures, returning exit code 1")
			return NewTestFailureError(w.result.String())
		}

		go func() {
			w.shutdownCallback(nil)
		}()
		return nil
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.config.Log.Debug("Starting periodic observer goroutine", "interval", w.config.RunInterval)

		for {
			select {
			case <-time.After(w.config.RunInterval):
				if !w.running.Load() {
					w.config.Log.Debug("Service stopped, exiting periodic observer")
					return
				}
				w.config.Log.Info("Running periodic observation")
				if err := w.observeRun(ctx); err != nil {
					w.config.Log.Error("Error observing run", "error", err)
					metrics.RecordErrorDetails("observe run", err)
				}

			case <-w.done:
				w.config.Log.Debug("Done signal received, stopping periodic observer")
				return

			case <-ctx.Done():
				w.config.Log.Debug("Context canceled, stopping periodic observer")
				w.running.Store(false)
				return
			}
		}
	}()
	w.config.Log.Debug("runwatch started successfully")
	return nil
}

// observeRun ingests one full event stream, reduces it and emits all
// artifacts for the run.
func (w *Runwatch) observeRun(ctx context.Context) error {
	runID := uuid.New().String()

	tracer := otel.Tracer("runwatch")
	_, span := tracer.Start(ctx, "observe run", trace.WithAttributes(attribute.String("run_id", runID)))
	defer span.End()

	w.mu.Lock()
	w.store = store.NewStore()
	w.runID = runID
	w.runStart = time.Time{}
	w.runEnd = time.Time{}
	w.mu.Unlock()

	w.config.Log.Info("Observing test run", "run_id", runID, "input", w.config.Input)

	ingestStart := time.Now()
	reader, closer, err := w.openInput()
	if err != nil {
		return err
	}
	parseErr := w.parser.Parse(reader, w)
	if closer != nil {
		closer.Close()
	}
	if parseErr != nil {
		return parseErr
	}

	// The runner brackets the run with run_start/run_end. Streams missing
	// either fall back to ingestion wall-clock time.
	w.mu.Lock()
	window := summary.RunWindow{Start: w.runStart, End: w.runEnd}
	recs := w.store.Records()
	w.mu.Unlock()
	if window.Start.IsZero() {
		window.Start = ingestStart
	}
	if window.End.IsZero() {
		window.End = time.Now()
	}

	result, err := w.reducer.Reduce(runID, recs, window, w.config.EnvironmentURL)
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.result = result
	w.mu.Unlock()

	if err := w.formatter.FormatResults(result); err != nil {
		w.config.Log.Error("Error formatting results", "error", err)
	}
	fmt.Println(result.String())

	for _, sink := range w.sinks {
		if err := sink.Write(result); err != nil {
			return err
		}
	}
	if err := w.writeFailureLogs(result); err != nil {
		return err
	}

	metrics.RecordRunSummary(result)
	if result.Failed() && w.config.ShowQuotes {
		printFailureQuote(w.config.QuotePool)
	}
	w.config.Log.Info("Run observation completed", "run_id", runID, "failed", result.Failed())
	return nil
}

func (w *Runwatch) openInput() (io.Reader, io.Closer, error) {
	if w.config.Input == "-" {
		return os.Stdin, nil, nil
	}
	f, err := os.Open(w.config.Input)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open event stream %q: %w", w.config.Input, err)
	}
	return f, f, nil
}

func (w *Runwatch) writeFailureLogs(result *summary.RunResult) error {
	if len(result.Summary.Failures) == 0 {
		return nil
	}
	fileLogger, err := logging.NewFileLogger(w.config.OutputDir, result.RunID)
	if err != nil {
		return err
	}
	for _, f := range result.Summary.Failures {
		if err := fileLogger.LogFailure(f); err != nil {
			return err
		}
	}
	return nil
}

// RunStarted implements events.Observer.
func (w *Runwatch) RunStarted(t time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.runStart = t
	w.config.Log.Debug("Run started", "time", t)
}

// AttemptRecorded implements events.Observer. Safe for concurrent callers;
// the store serializes appends.
func (w *Runwatch) AttemptRecorded(test string, a types.Attempt) error {
	w.mu.Lock()
	s, runID := w.store, w.runID
	w.mu.Unlock()

	if err := s.Record(test, a); err != nil {
		return err
	}
	metrics.RecordAttempt(runID, string(a.Outcome))
	return nil
}

// RunEnded implements events.Observer.
func (w *Runwatch) RunEnded(t time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.runEnd = t
	w.config.Log.Debug("Run ended", "time", t)
}

// Result returns the most recent reduced run result, nil before the first
// pass completes. Safe to call while a periodic pass is in flight.
func (w *Runwatch) Result() *summary.RunResult {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.result
}

// Stop stops the runwatch service.
func (w *Runwatch) Stop(ctx context.Context) error {
	w.config.Log.Info("Stopping runwatch")

	if !w.running.Load() {
		w.config.Log.Debug("Service already stopped, nothing to do")
		return nil
	}

	w.running.Store(false)
	close(w.done)

	w.config.Log.Info("runwatch stopped successfully")
	return nil
}

// Stopped returns true if the runwatch service is stopped.
func (w *Runwatch) Stopped() bool {
	return !w.running.Load()
}

// WaitForShutdown blocks until all goroutines have terminated, or the
// context expires. Useful in tests for a clean teardown.
func (w *Runwatch) WaitForShutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		w.config.Log.Warn("Timed out waiting for goroutines to terminate", "error", ctx.Err())
		return ctx.Err()
	}
}
