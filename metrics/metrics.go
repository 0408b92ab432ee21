package metrics

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/runwatch/runwatch/summary"
)

const (
	MetricsNamespace = "runwatch"
)

var (
	Debug                bool = true
	nonAlphanumericRegex      = regexp.MustCompile(`[^a-zA-Z ]+`)

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "errors_total",
		Help:      "Count of errors",
	}, []string{
		"error",
	})

	attemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "attempts_total",
		Help:      "Count of observed test attempts",
	}, []string{
		"run_id",
		"outcome",
	})

	runResults = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_results",
		Help:      "Result of observed test runs",
	}, []string{
		"run_id",
		"result",
	})

	runTestsTotal = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_tests_total",
		Help:      "Total number of tests in a run",
	}, []string{
		"run_id",
	})

	runTestsPassed = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_tests_passed",
		Help:      "Number of passed tests in a run",
	}, []string{
		"run_id",
	})

	runTestsFailed = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_tests_failed",
		Help:      "Number of failed tests in a run",
	}, []string{
		"run_id",
	})

	runTestsSkipped = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_tests_skipped",
		Help:      "Number of skipped tests in a run",
	}, []string{
		"run_id",
	})

	runRetriesTotal = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_retries_total",
		Help:      "Total retries observed in a run",
	}, []string{
		"run_id",
	})

	runDurationSeconds = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_duration_seconds",
		Help:      "Wall clock duration of a run",
	}, []string{
		"run_id",
	})
)

// errToLabel tries to make the error string a more valid Prometheus label
func errToLabel(err error) string {
	if err == nil {
		return "nil"
	}
	errClean := nonAlphanumericRegex.ReplaceAllString(err.Error(), "")
	errClean = strings.ReplaceAll(errClean, " ", "_")
	errClean = strings.ReplaceAll(errClean, "__", "_")
	return errClean
}

func RecordError(error string) {
	if Debug {
		log.Debug("metric inc",
			"m", "errors_total",
			"error", error,
		)
	}
	errorsTotal.WithLabelValues(error).Inc()
}

// RecordErrorDetails concats the error message to the label
// and also tries to clean the label to be a valid Prometheus label
func RecordErrorDetails(label string, err error) {
	if err == nil {
		return
	}
	label = fmt.Sprintf("%s.%s", label, errToLabel(err))
	RecordError(label)
}

// RecordAttempt counts one observed attempt.
func RecordAttempt(runID string, outcome string) {
	if Debug {
		log.Debug("metric inc",
			"m", "attempts_total",
			"run_id", runID,
			"outcome", outcome)
	}
	attemptsTotal.WithLabelValues(runID, outcome).Inc()
}

// RecordRunSummary emits the reduced run statistics.
func RecordRunSummary(result *summary.RunResult) {
	runID := result.RunID
	status := "pass"
	if result.Failed() {
		status = "fail"
	}
	if Debug {
		log.Debug("metric set",
			"m", "run_results",
			"run_id", runID,
			"result", status)
	}
	runResults.WithLabelValues(runID, status).Set(1)
	runTestsTotal.WithLabelValues(runID).Set(float64(result.Summary.TotalTests))
	runTestsPassed.WithLabelValues(runID).Set(float64(result.Summary.Passed))
	runTestsFailed.WithLabelValues(runID).Set(float64(result.Summary.Failed))
	runTestsSkipped.WithLabelValues(runID).Set(float64(result.Summary.Skipped))
	runRetriesTotal.WithLabelValues(runID).Set(float64(result.Summary.TotalRetries))
	runDurationSeconds.WithLabelValues(runID).Set(result.Summary.TotalTimeSeconds)
}
