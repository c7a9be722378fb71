package worker

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus metrics for thread pool monitoring
type Metrics struct {
	queueDepth   prometheus.Gauge
	workers      prometheus.Gauge
	submitted    prometheus.Counter
	executed     prometheus.Counter
	rejected     prometheus.Counter
	blocked      prometheus.Counter
	taskDuration prometheus.Histogram
}

// newMetrics creates the pool collectors and registers them with reg
func newMetrics(reg prometheus.Registerer, prefix, pool string) (*Metrics, error) {
	labels := prometheus.Labels{"pool": pool}

	m := &Metrics{
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        prefix + "_queue_depth",
			Help:        "Current number of queued tasks",
			ConstLabels: labels,
		}),
		workers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        prefix + "_workers",
			Help:        "Number of worker threads",
			ConstLabels: labels,
		}),
		submitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        prefix + "_submitted_total",
			Help:        "Total tasks accepted by Run",
			ConstLabels: labels,
		}),
		executed: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        prefix + "_executed_total",
			Help:        "Total tasks that returned normally",
			ConstLabels: labels,
		}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        prefix + "_rejected_total",
			Help:        "Total tasks refused because the pool was not running",
			ConstLabels: labels,
		}),
		blocked: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        prefix + "_producer_blocked_total",
			Help:        "Total times a producer waited on a full queue",
			ConstLabels: labels,
		}),
		taskDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        prefix + "_task_duration_seconds",
			Help:        "Time spent executing tasks",
			ConstLabels: labels,
			Buckets:     []float64{0.0001, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}),
	}

	collectors := []prometheus.Collector{
		m.queueDepth, m.workers, m.submitted, m.executed, m.rejected, m.blocked, m.taskDuration,
	}
	var errs []error
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("register thread pool metrics: %w", err)
	}
	return m, nil
}

// all methods tolerate a nil receiver so callers need no metrics check

func (m *Metrics) setQueueDepth(n int) {
	if m != nil {
		m.queueDepth.Set(float64(n))
	}
}

func (m *Metrics) setWorkers(n int) {
	if m != nil {
		m.workers.Set(float64(n))
	}
}

func (m *Metrics) incSubmitted() {
	if m != nil {
		m.submitted.Inc()
	}
}

func (m *Metrics) incRejected() {
	if m != nil {
		m.rejected.Inc()
	}
}

func (m *Metrics) incBlocked() {
	if m != nil {
		m.blocked.Inc()
	}
}

func (m *Metrics) observeTask(d time.Duration) {
	if m != nil {
		m.executed.Inc()
		m.taskDuration.Observe(d.Seconds())
	}
}
