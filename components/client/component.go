package client

import (
	"context"

	"go.uber.org/dig"

	"github.com/iotaledger/hive.go/app"
	"github.com/iotaledger/purity/pkg/daemon"
	"github.com/iotaledger/purity/pkg/ledger"
)

func init() {
	Component = &app.Component{
		Name:     "Client",
		DepsFunc: func(cDeps dependencies) { deps = cDeps },
		Params:   params,
		Provide:  provide,
		Run:      run,
	}
}

var (
	Component *app.Component
	deps      dependencies
)

type dependencies struct {
	dig.In

	Client ledger.Client
}

func provide(c *dig.Container) error {
	return c.Provide(func() ledger.Client {
		client, err := ledger.NewNodeClient(ParamsClient.NodeURL, ledger.WithRequestTimeout(ParamsClient.RequestTimeout))
		if err != nil {
			Component.LogPanicf("failed to connect to node: %s", err)
		}

		return client
	})
}

func run() error {
	// the components started after the client expect a synced node
	Component.LogInfof("Waiting for %s to report healthy ...", deps.Client.URL())
	healthy := true
	if err := ledger.AwaitHealthy(context.Background(), deps.Client, ParamsClient.HealthCheckInterval, ParamsClient.HealthTimeout); err != nil {
		healthy = false
		Component.LogWarnf("continuing with unhealthy node: %s", err)
	}

	return Component.Daemon().BackgroundWorker(Component.Name, func(ctx context.Context) {
		info, err := deps.Client.Info(ctx)
		if err != nil {
			Component.LogWarnf("failed to query info of %s: %s", deps.Client.URL(), err)
		} else {
			Component.LogInfof("Connected to %s %s at %s (healthy: %t, network: %s)", info.Name, info.Version, deps.Client.URL(), healthy, deps.Client.CommittedAPI().ProtocolParameters().NetworkName())
		}

		<-ctx.Done()
		Component.LogInfo("Stopping Client... done")
	}, daemon.PriorityClient)
}
