package collector

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/runtime/options"
)

var ErrLabelMismatch = ierrors.New("label values do not match the labels of the metric")

type MetricType uint8

const (
	// Gauge is set to the collected value.
	Gauge MetricType = iota
	// Counter accumulates the collected values.
	Counter
	// Histogram samples observations into buckets.
	Histogram
)

// Metric wraps a prometheus metric. Its value is either pulled with the collect function on every
// scrape or pushed by the hooks the init function installs.
type Metric struct {
	Name      string
	Type      MetricType
	Namespace string

	help          string
	labels        []string
	buckets       []float64
	collectFunc   func() (value float64, labelValues []string)
	initValueFunc func() (value float64, labelValues []string)
	initFunc      func()

	promMetric prometheus.Collector
	once       sync.Once
}

// NewMetric creates a new metric with the given name.
func NewMetric(name string, opts ...options.Option[Metric]) *Metric {
	return options.Apply(&Metric{
		Name: name,
	}, opts)
}

func (m *Metric) createPromMetric() {
	m.once.Do(func() {
		switch m.Type {
		case Gauge:
			opts := prometheus.GaugeOpts{Namespace: m.Namespace, Name: m.Name, Help: m.help}
			if len(m.labels) == 0 {
				m.promMetric = prometheus.NewGauge(opts)
			} else {
				m.promMetric = prometheus.NewGaugeVec(opts, m.labels)
			}
		case Counter:
			opts := prometheus.CounterOpts{Namespace: m.Namespace, Name: m.Name, Help: m.help}
			if len(m.labels) == 0 {
				m.promMetric = prometheus.NewCounter(opts)
			} else {
				m.promMetric = prometheus.NewCounterVec(opts, m.labels)
			}
		case Histogram:
			opts := prometheus.HistogramOpts{Namespace: m.Namespace, Name: m.Name, Help: m.help, Buckets: m.buckets}
			if len(m.labels) == 0 {
				m.promMetric = prometheus.NewHistogram(opts)
			} else {
				m.promMetric = prometheus.NewHistogramVec(opts, m.labels)
			}
		}
	})
}

func (m *Metric) checkLabels(labelValues []string) error {
	if len(labelValues) != len(m.labels) {
		return ierrors.Wrapf(ErrLabelMismatch, "metric %s_%s expects %v, got %v", m.Namespace, m.Name, m.labels, labelValues)
	}

	return nil
}

func (m *Metric) collect() error {
	if m.collectFunc == nil {
		return nil
	}

	value, labelValues := m.collectFunc()

	return m.update(value, labelValues...)
}

// update sets a gauge, adds to a counter or observes a histogram value.
func (m *Metric) update(value float64, labelValues ...string) error {
	if err := m.checkLabels(labelValues); err != nil {
		return err
	}

	switch metric := m.promMetric.(type) {
	case prometheus.Gauge:
		metric.Set(value)
	case *prometheus.GaugeVec:
		metric.WithLabelValues(labelValues...).Set(value)
	case prometheus.Counter:
		metric.Add(value)
	case *prometheus.CounterVec:
		metric.WithLabelValues(labelValues...).Add(value)
	case prometheus.Histogram:
		metric.Observe(value)
	case *prometheus.HistogramVec:
		metric.WithLabelValues(labelValues...).Observe(value)
	}

	return nil
}

func (m *Metric) increment(labelValues ...string) error {
	if err := m.checkLabels(labelValues); err != nil {
		return err
	}

	switch metric := m.promMetric.(type) {
	case prometheus.Gauge:
		metric.Inc()
	case *prometheus.GaugeVec:
		metric.WithLabelValues(labelValues...).Inc()
	case prometheus.Counter:
		metric.Inc()
	case *prometheus.CounterVec:
		metric.WithLabelValues(labelValues...).Inc()
	default:
		return ierrors.Errorf("metric %s_%s can not be incremented", m.Namespace, m.Name)
	}

	return nil
}

// WithType sets the metric type.
func WithType(t MetricType) options.Option[Metric] {
	return func(m *Metric) {
		m.Type = t
	}
}

func WithHelp(help string) options.Option[Metric] {
	return func(m *Metric) {
		m.help = help
	}
}

// WithLabels defines the labels of the metric. Label values are passed in the same order on updates.
func WithLabels(labels ...string) options.Option[Metric] {
	return func(m *Metric) {
		m.labels = labels
	}
}

// WithBuckets sets the upper bounds of the buckets of a histogram.
func WithBuckets(buckets ...float64) options.Option[Metric] {
	return func(m *Metric) {
		m.buckets = buckets
	}
}

// WithCollectFunc sets the function that reads the value on every scrape.
func WithCollectFunc(collectFunc func() (metricValue float64, labelValues []string)) options.Option[Metric] {
	return func(m *Metric) {
		m.collectFunc = collectFunc
	}
}

// WithInitValueFunc sets the function that provides the value the metric is registered with.
func WithInitValueFunc(initValueFunc func() (metricValue float64, labelValues []string)) options.Option[Metric] {
	return func(m *Metric) {
		m.initValueFunc = initValueFunc
	}
}

// WithInitFunc sets a function that is called once on registration, typically to hook events
// that call Update or Increment on the collector.
func WithInitFunc(initFunc func()) options.Option[Metric] {
	return func(m *Metric) {
		m.initFunc = initFunc
	}
}
