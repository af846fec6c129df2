package queue

import (
	"github.com/prometheus/client_golang/prometheus"
)

// workerMetrics methods are safe to call on a nil receiver, which is what a Worker without metrics has.
type workerMetrics struct {
	submittedTotal prometheus.Counter
	processedTotal prometheus.Counter
	panicsTotal    prometheus.Counter
	queueDepth     prometheus.Gauge
}

func newWorkerMetrics(registry prometheus.Registerer, namespace, name string) (*workerMetrics, error) {
	labels := prometheus.Labels{"worker": name}
	m := &workerMetrics{
		submittedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "worker",
			Name:        "submitted_total",
			Help:        "Total items submitted to the worker",
			ConstLabels: labels,
		}),
		processedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "worker",
			Name:        "processed_total",
			Help:        "Total items the worker callback returned from",
			ConstLabels: labels,
		}),
		panicsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "worker",
			Name:        "panics_total",
			Help:        "Total worker callback panics recovered",
			ConstLabels: labels,
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "worker",
			Name:        "queue_depth",
			Help:        "Items waiting to be processed",
			ConstLabels: labels,
		}),
	}
	for _, c := range []prometheus.Collector{m.submittedTotal, m.processedTotal, m.panicsTotal, m.queueDepth} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *workerMetrics) submitted(depth int) {
	if m == nil {
		return
	}
	m.submittedTotal.Inc()
	m.queueDepth.Set(float64(depth))
}

func (m *workerMetrics) depth(depth int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(depth))
}

func (m *workerMetrics) processed() {
	if m == nil {
		return
	}
	m.processedTotal.Inc()
}

func (m *workerMetrics) panicked() {
	if m == nil {
		return
	}
	m.panicsTotal.Inc()
}
