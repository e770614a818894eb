package prometheus

import (
	iotago "github.com/iotaledger/iota.go/v4"
	"github.com/iotaledger/purity/components/prometheus/collector"
)

const (
	faucetNamespace = "faucet"

	requestsTotal  = "requests_total"
	receivedTokens = "received_base_tokens"
)

var FaucetMetrics = collector.NewCollection(faucetNamespace,
	collector.WithMetric(collector.NewMetric(requestsTotal,
		collector.WithType(collector.Counter),
		collector.WithHelp("Number of fund requests sent to the faucet."),
		collector.WithLabels("status"),
		collector.WithInitFunc(func() {
			deps.Faucet.Events.FundsRequested.Hook(func(_ iotago.Address) {
				deps.Collector.Increment(faucetNamespace, requestsTotal, "accepted")
			})
			deps.Faucet.Events.RequestFailed.Hook(func(_ error) {
				deps.Collector.Increment(faucetNamespace, requestsTotal, "rejected")
			})
		}),
	)),
	collector.WithMetric(collector.NewMetric(receivedTokens,
		collector.WithType(collector.Gauge),
		collector.WithHelp("Balance observed after the last faucet funding arrived."),
		collector.WithInitFunc(func() {
			deps.Faucet.Events.FundsReceived.Hook(func(amount iotago.BaseToken) {
				deps.Collector.Update(faucetNamespace, receivedTokens, float64(amount))
			})
		}),
	)),
)
