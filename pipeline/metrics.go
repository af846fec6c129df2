package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// pipelineMetrics methods are safe to call on a nil receiver, which is what a Pipeline without metrics has.
type pipelineMetrics struct {
	boxes          prometheus.Gauge
	producedTotal  prometheus.Counter
	droppedTotal   prometheus.Counter
	deliveredTotal prometheus.Counter
	flushesTotal   prometheus.Counter
	flushDuration  prometheus.Histogram
	readyProducers prometheus.Gauge
}

func newPipelineMetrics(registry prometheus.Registerer, namespace string) (*pipelineMetrics, error) {
	m := &pipelineMetrics{
		boxes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "boxes",
			Help:      "Boxes registered with the pipeline",
		}),
		producedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "values_produced_total",
			Help:      "Values buffered by producers for delivery",
		}),
		droppedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "values_dropped_total",
			Help:      "Values discarded because nothing was connected to the producer",
		}),
		deliveredTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "values_delivered_total",
			Help:      "Values passed to a consumer input, counted once per consumer",
		}),
		flushesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "flushes_total",
			Help:      "Producer buffer flushes performed by the dispatch loop",
		}),
		flushDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "flush_duration_seconds",
			Help:      "Time spent delivering one producer's buffered values",
			Buckets:   []float64{0.00001, 0.0001, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		}),
		readyProducers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "ready_producers",
			Help:      "Producers with buffered values waiting for the dispatch loop",
		}),
	}
	collectors := []prometheus.Collector{
		m.boxes, m.producedTotal, m.droppedTotal, m.deliveredTotal,
		m.flushesTotal, m.flushDuration, m.readyProducers,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *pipelineMetrics) registered(boxes int) {
	if m == nil {
		return
	}
	m.boxes.Set(float64(boxes))
}

func (m *pipelineMetrics) produced() {
	if m == nil {
		return
	}
	m.producedTotal.Inc()
}

func (m *pipelineMetrics) dropped() {
	if m == nil {
		return
	}
	m.droppedTotal.Inc()
}

func (m *pipelineMetrics) readyDepth(depth int) {
	if m == nil {
		return
	}
	m.readyProducers.Set(float64(depth))
}

func (m *pipelineMetrics) flushed(delivered int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.flushesTotal.Inc()
	m.deliveredTotal.Add(float64(delivered))
	m.flushDuration.Observe(elapsed.Seconds())
}
