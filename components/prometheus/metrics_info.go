package prometheus

import (
	"runtime"
	"strconv"

	"github.com/iotaledger/purity/components/prometheus/collector"
)

const (
	infoNamespace = "info"

	appInfo  = "app"
	nodeInfo = "node"
	memUsage = "memory_usage_bytes"
)

var InfoMetrics = collector.NewCollection(infoNamespace,
	collector.WithMetric(collector.NewMetric(appInfo,
		collector.WithType(collector.Gauge),
		collector.WithHelp("Application OS data."),
		collector.WithLabels("os", "arch", "num_cpu"),
		collector.WithInitValueFunc(func() (metricValue float64, labelValues []string) {
			return 1, []string{runtime.GOOS, runtime.GOARCH, strconv.Itoa(runtime.GOMAXPROCS(0))}
		}),
	)),
	collector.WithMetric(collector.NewMetric(nodeInfo,
		collector.WithType(collector.Gauge),
		collector.WithHelp("The node the application talks to."),
		collector.WithLabels("url", "network"),
		collector.WithInitValueFunc(func() (metricValue float64, labelValues []string) {
			return 1, []string{deps.Client.URL(), deps.Client.CommittedAPI().ProtocolParameters().NetworkName()}
		}),
	)),
	collector.WithMetric(collector.NewMetric(memUsage,
		collector.WithType(collector.Gauge),
		collector.WithHelp("The memory usage in bytes of allocated heap objects."),
		collector.WithCollectFunc(func() (metricValue float64, labelValues []string) {
			var m runtime.MemStats
			runtime.ReadMemStats(&m)

			return float64(m.Alloc), nil
		}),
	)),
)
