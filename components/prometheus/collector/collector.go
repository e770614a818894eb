package collector

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/iotaledger/hive.go/ds/shrinkingmap"
	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/log"
)

var ErrMetricNotFound = ierrors.New("metric not found")

// Collector owns the prometheus registry and the registered collections.
type Collector struct {
	Registry *prometheus.Registry

	collections *shrinkingmap.ShrinkingMap[string, *Collection]

	log.Logger
}

func New(logger log.Logger) *Collector {
	return &Collector{
		Registry:    prometheus.NewRegistry(),
		collections: shrinkingmap.New[string, *Collection](),
		Logger:      logger,
	}
}

// RegisterCollection registers the metrics of the collection and runs their init functions.
func (c *Collector) RegisterCollection(collection *Collection) error {
	c.collections.Set(collection.CollectionName, collection)

	for _, metric := range collection.metrics {
		if err := c.Registry.Register(metric.promMetric); err != nil {
			return ierrors.Wrapf(err, "failed to register metric %s_%s", metric.Namespace, metric.Name)
		}

		if metric.initValueFunc != nil {
			value, labelValues := metric.initValueFunc()
			if err := metric.update(value, labelValues...); err != nil {
				return err
			}
		}

		if metric.initFunc != nil {
			metric.initFunc()
		}
	}

	return nil
}

// Collect refreshes the metrics that have a collect function.
func (c *Collector) Collect() {
	c.collections.ForEach(func(_ string, collection *Collection) bool {
		for _, metric := range collection.metrics {
			if err := metric.collect(); err != nil {
				c.LogWarn(err.Error())
			}
		}

		return true
	})
}

// Update sets a gauge, adds to a counter or observes a histogram value. The label values must be
// passed in the order the labels were defined in.
func (c *Collector) Update(namespace string, metricName string, value float64, labelValues ...string) {
	c.apply(namespace, metricName, func(metric *Metric) error {
		return metric.update(value, labelValues...)
	})
}

// Increment increments a gauge or a counter.
func (c *Collector) Increment(namespace string, metricName string, labelValues ...string) {
	c.apply(namespace, metricName, func(metric *Metric) error {
		return metric.increment(labelValues...)
	})
}

func (c *Collector) apply(namespace string, metricName string, f func(metric *Metric) error) {
	metric, err := c.metric(namespace, metricName)
	if err == nil {
		err = f(metric)
	}

	if err != nil {
		c.LogWarn(err.Error())
	}
}

func (c *Collector) metric(namespace string, metricName string) (*Metric, error) {
	collection, exists := c.collections.Get(namespace)
	if !exists {
		return nil, ierrors.Wrapf(ErrMetricNotFound, "namespace %s", namespace)
	}

	metric, exists := collection.Metric(metricName)
	if !exists {
		return nil, ierrors.Wrapf(ErrMetricNotFound, "%s_%s", namespace, metricName)
	}

	return metric, nil
}
