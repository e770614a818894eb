package prometheus

import (
	"context"
	"time"

	"go.uber.org/atomic"

	"github.com/iotaledger/purity/components/prometheus/collector"
)

const (
	accountNamespace = "account"

	balance   = "balance_base_tokens"
	addresses = "addresses"
)

// lastBalance is reported if the node can not be reached during a scrape.
var lastBalance atomic.Uint64

var AccountMetrics = collector.NewCollection(accountNamespace,
	collector.WithMetric(collector.NewMetric(balance,
		collector.WithType(collector.Gauge),
		collector.WithHelp("Spendable balance of the account."),
		collector.WithLabels("alias"),
		collector.WithCollectFunc(func() (metricValue float64, labelValues []string) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if accountBalance, err := deps.Account.Balance(ctx); err != nil {
				Component.LogDebugf("failed to query balance: %s", err)
			} else {
				lastBalance.Store(uint64(accountBalance))
			}

			return float64(lastBalance.Load()), []string{deps.Account.Alias()}
		}),
	)),
	collector.WithMetric(collector.NewMetric(addresses,
		collector.WithType(collector.Gauge),
		collector.WithHelp("Number of generated addresses."),
		collector.WithLabels("alias"),
		collector.WithCollectFunc(func() (metricValue float64, labelValues []string) {
			return float64(len(deps.Account.Addresses())), []string{deps.Account.Alias()}
		}),
	)),
)
