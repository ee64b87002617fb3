package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"mrt/internal/domain"
)

const (
	MetricsNamespace = "mrt"
)

// Recorder collects the metrics of one invocation in its own registry
type Recorder struct {
	registry *prometheus.Registry

	casesTotal   *prometheus.CounterVec
	caseDuration *prometheus.HistogramVec
	hookFailures *prometheus.CounterVec
	runDuration  *prometheus.GaugeVec
}

// NewRecorder creates a new Recorder
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		casesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "cases_total",
			Help:      "Count of settled test cases",
		}, []string{
			"suite",
			"module",
			"outcome",
		}),
		caseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Name:      "case_duration_seconds",
			Help:      "Duration of test cases including case hooks",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		}, []string{
			"suite",
			"module",
		}),
		hookFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "hook_failures_total",
			Help:      "Count of failed setup and teardown hooks",
		}, []string{
			"suite",
			"level",
			"phase",
		}),
		runDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last run of a suite",
		}, []string{
			"suite",
		}),
	}
	r.registry.MustRegister(r.casesTotal, r.caseDuration, r.hookFailures, r.runDuration)
	return r
}

// Registry returns the registry holding the recorded metrics
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Observe records a suite summary
func (r *Recorder) Observe(s domain.Summary) {
	for _, res := range s.Results {
		r.casesTotal.WithLabelValues(s.Suite, res.Module, res.Outcome.String()).Inc()
		r.caseDuration.WithLabelValues(s.Suite, res.Module).Observe(res.Duration.Seconds())
		r.observeHooks(s.Suite, res.Hooks)
	}
	r.observeHooks(s.Suite, s.Hooks)
	r.runDuration.WithLabelValues(s.Suite).Set(s.Duration.Seconds())
}

func (r *Recorder) observeHooks(suite string, hooks []domain.HookResult) {
	for _, h := range hooks {
		if !h.OK() {
			r.hookFailures.WithLabelValues(suite, h.Level.String(), h.Phase.String()).Inc()
		}
	}
}

// WriteFile writes the metrics in the Prometheus text format, for the node exporter textfile collector
func (r *Recorder) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}
	return nil
}
