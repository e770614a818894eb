package prometheus

// Metrics are grouped in collections, one per namespace, defined in the metrics_<namespace>.go files.
// Names follow https://prometheus.io/docs/practices/naming/: base units, a unit suffix and 'total' for counters.

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/dig"

	"github.com/iotaledger/hive.go/app"
	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/purity/components/prometheus/collector"
	"github.com/iotaledger/purity/pkg/account"
	"github.com/iotaledger/purity/pkg/daemon"
	"github.com/iotaledger/purity/pkg/database"
	"github.com/iotaledger/purity/pkg/datachannel"
	"github.com/iotaledger/purity/pkg/faucet"
	"github.com/iotaledger/purity/pkg/ledger"
)

func init() {
	Component = &app.Component{
		Name:     "Prometheus",
		DepsFunc: func(cDeps dependencies) { deps = cDeps },
		Params:   params,
		Provide:  provide,
		Run:      run,
		IsEnabled: func(_ *dig.Container) bool {
			return ParamsMetrics.Enabled
		},
	}
}

var (
	Component *app.Component
	deps      dependencies
)

type dependencies struct {
	dig.In

	Collector *collector.Collector
	Client    ledger.Client

	Account      *account.Account     `optional:"true"`
	Channel      *datachannel.Channel `optional:"true"`
	Faucet       *faucet.Client       `optional:"true"`
	Tracker      *datachannel.Tracker `optional:"true"`
	TrackerStore *database.Store      `name:"trackerStore" optional:"true"`
}

func provide(c *dig.Container) error {
	return c.Provide(func() *collector.Collector {
		return collector.New(Component.Logger)
	})
}

func run() error {
	Component.LogInfo("Starting Prometheus exporter ...")

	if ParamsMetrics.GoMetrics {
		deps.Collector.Registry.MustRegister(collectors.NewGoCollector())
	}
	if ParamsMetrics.ProcessMetrics {
		deps.Collector.Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	if err := registerMetrics(); err != nil {
		Component.LogPanicf("failed to register metrics: %s", err)
	}

	return Component.Daemon().BackgroundWorker("Prometheus exporter", func(ctx context.Context) {
		Component.LogInfo("Starting Prometheus exporter ... done")

		e := echo.New()
		e.HideBanner = true
		e.Use(middleware.Recover())

		handler := promhttp.HandlerFor(deps.Collector.Registry, promhttp.HandlerOpts{
			EnableOpenMetrics: true,
		})
		if ParamsMetrics.PromhttpMetrics {
			handler = promhttp.InstrumentMetricHandler(deps.Collector.Registry, handler)
		}

		e.GET("/metrics", func(c echo.Context) error {
			deps.Collector.Collect()
			handler.ServeHTTP(c.Response().Writer, c.Request())

			return nil
		})

		server := &http.Server{Addr: ParamsMetrics.BindAddress, Handler: e, ReadHeaderTimeout: 5 * time.Second, WriteTimeout: 10 * time.Second}

		go func() {
			Component.LogInfof("You can now access the Prometheus exporter using: http://%s/metrics", ParamsMetrics.BindAddress)
			if err := server.ListenAndServe(); err != nil && !ierrors.Is(err, http.ErrServerClosed) {
				Component.LogErrorf("Stopping Prometheus exporter due to an error: %s", err)
			}
		}()

		<-ctx.Done()
		Component.LogInfo("Stopping Prometheus exporter ...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		//nolint:contextcheck // the worker context is already done
		if err := server.Shutdown(shutdownCtx); err != nil {
			Component.LogWarn(err.Error())
		}

		Component.LogInfo("Stopping Prometheus exporter ... done")
	}, daemon.PriorityMetrics)
}

func registerMetrics() error {
	collections := []*collector.Collection{InfoMetrics}

	if deps.Account != nil {
		collections = append(collections, AccountMetrics)
	}
	if deps.Channel != nil {
		collections = append(collections, DataChannelMetrics)
	}
	if deps.Faucet != nil {
		collections = append(collections, FaucetMetrics)
	}
	if deps.Tracker != nil {
		collections = append(collections, ReaderMetrics)
	}

	for _, collection := range collections {
		if err := deps.Collector.RegisterCollection(collection); err != nil {
			return err
		}
	}

	return nil
}
