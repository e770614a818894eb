package prometheus

import (
	"github.com/iotaledger/purity/components/prometheus/collector"
)

const (
	readerNamespace = "reader"

	trackedOutputs = "tracked_outputs"
	dbSizeBytes    = "db_size_bytes"
)

var ReaderMetrics = collector.NewCollection(readerNamespace,
	collector.WithMetric(collector.NewMetric(trackedOutputs,
		collector.WithType(collector.Gauge),
		collector.WithHelp("Number of output ids the reader has seen."),
		collector.WithCollectFunc(func() (metricValue float64, labelValues []string) {
			return float64(deps.Tracker.Size()), nil
		}),
	)),
	collector.WithMetric(collector.NewMetric(dbSizeBytes,
		collector.WithType(collector.Gauge),
		collector.WithHelp("Size in bytes of the database of seen output ids."),
		collector.WithCollectFunc(func() (metricValue float64, labelValues []string) {
			if deps.TrackerStore == nil || deps.TrackerStore.Path() == "" {
				return 0, nil
			}

			size, err := deps.TrackerStore.Size()
			if err != nil {
				Component.LogDebugf("failed to get tracker database size: %s", err)
			}

			return float64(size), nil
		}),
	)),
)
