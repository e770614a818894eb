package prometheus

import (
	"strconv"

	iotago "github.com/iotaledger/iota.go/v4"
	"github.com/iotaledger/purity/components/prometheus/collector"
	"github.com/iotaledger/purity/pkg/datachannel"
)

const (
	dataChannelNamespace = "datachannel"

	writesTotal          = "writes_total"
	inclusionTimeouts    = "inclusion_timeouts_total"
	writeDurationSeconds = "write_duration_seconds"
	writtenBytesTotal    = "written_bytes_total"
	readOutputsTotal     = "read_outputs_total"
)

var DataChannelMetrics = collector.NewCollection(dataChannelNamespace,
	collector.WithMetric(collector.NewMetric(writesTotal,
		collector.WithType(collector.Counter),
		collector.WithHelp("Number of written data outputs."),
		collector.WithLabels("included"),
		collector.WithInitFunc(func() {
			deps.Channel.Events.DataWritten.Hook(func(result *datachannel.WriteResult) {
				deps.Collector.Increment(dataChannelNamespace, writesTotal, strconv.FormatBool(result.Included))
			})
		}),
	)),
	collector.WithMetric(collector.NewMetric(inclusionTimeouts,
		collector.WithType(collector.Counter),
		collector.WithHelp("Number of written transactions that were not included within the retry budget."),
		collector.WithInitFunc(func() {
			deps.Channel.Events.InclusionTimedOut.Hook(func(_ *datachannel.WriteResult) {
				deps.Collector.Increment(dataChannelNamespace, inclusionTimeouts)
			})
		}),
	)),
	collector.WithMetric(collector.NewMetric(writeDurationSeconds,
		collector.WithType(collector.Histogram),
		collector.WithHelp("Time from building a data output until its inclusion wait ended."),
		collector.WithBuckets(0.5, 1, 2, 5, 10, 20, 30, 60),
		collector.WithInitFunc(func() {
			deps.Channel.Events.DataWritten.Hook(func(result *datachannel.WriteResult) {
				deps.Collector.Update(dataChannelNamespace, writeDurationSeconds, result.Duration.Seconds())
			})
		}),
	)),
	collector.WithMetric(collector.NewMetric(writtenBytesTotal,
		collector.WithType(collector.Counter),
		collector.WithHelp("Number of payload bytes written."),
		collector.WithInitFunc(func() {
			deps.Channel.Events.DataWritten.Hook(func(result *datachannel.WriteResult) {
				if payload, err := datachannel.Metadata(result.Output); err == nil {
					deps.Collector.Update(dataChannelNamespace, writtenBytesTotal, float64(len(payload)))
				}
			})
		}),
	)),
	collector.WithMetric(collector.NewMetric(readOutputsTotal,
		collector.WithType(collector.Counter),
		collector.WithHelp("Number of output ids returned by queries."),
		collector.WithInitFunc(func() {
			deps.Channel.Events.OutputsRead.Hook(func(outputIDs iotago.OutputIDs) {
				deps.Collector.Update(dataChannelNamespace, readOutputsTotal, float64(len(outputIDs)))
			})
		}),
	)),
)
