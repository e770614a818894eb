package restapi

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/dig"

	"github.com/iotaledger/hive.go/app"
	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/purity/pkg/daemon"
	"github.com/iotaledger/purity/pkg/jwt"
	"github.com/iotaledger/purity/pkg/ledger"
	"github.com/iotaledger/purity/pkg/restapi"
	"github.com/iotaledger/purity/pkg/secretstore"
)

// JWTSubject is the subject of the API tokens.
const JWTSubject = "purity"

func init() {
	Component = &app.Component{
		Name:             "RestAPI",
		DepsFunc:         func(cDeps dependencies) { deps = cDeps },
		Params:           params,
		InitConfigParams: initConfigParams,
		Provide:          provide,
		Configure:        configure,
		Run:              run,
		IsEnabled: func(_ *dig.Container) bool {
			return ParamsRestAPI.Enabled
		},
	}
}

var (
	Component *app.Component
	deps      dependencies
)

type dependencies struct {
	dig.In

	Echo               *echo.Echo
	RestAPIBindAddress string `name:"restAPIBindAddress"`
	RestRouteManager   *RestRouteManager
	SecretStore        *secretstore.Store
	Client             ledger.Client
}

func initConfigParams(c *dig.Container) error {
	type cfgResult struct {
		dig.Out

		RestAPIBindAddress      string `name:"restAPIBindAddress"`
		RestAPILimitsMaxResults int    `name:"restAPILimitsMaxResults"`
	}

	if err := c.Provide(func() cfgResult {
		return cfgResult{
			RestAPIBindAddress:      ParamsRestAPI.BindAddress,
			RestAPILimitsMaxResults: ParamsRestAPI.Limits.MaxResults,
		}
	}); err != nil {
		Component.LogPanic(err.Error())
	}

	return nil
}

func provide(c *dig.Container) error {
	if err := c.Provide(func() *echo.Echo {
		e := echo.New()
		e.HideBanner = true
		e.HidePort = true
		e.HTTPErrorHandler = restapi.ErrorHandler()

		e.Use(middleware.Recover())
		if ParamsRestAPI.DebugRequestLoggerEnabled {
			e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
				LogMethod:  true,
				LogURI:     true,
				LogStatus:  true,
				LogLatency: true,
				LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
					Component.LogDebugf("%s %s %d %s", v.Method, v.URI, v.Status, v.Latency)

					return nil
				},
			}))
		}
		e.Use(middleware.CORS())
		e.Use(middleware.Gzip())
		e.Use(middleware.BodyLimit(ParamsRestAPI.Limits.MaxBodyLength))

		return e
	}); err != nil {
		Component.LogPanic(err.Error())
	}

	return c.Provide(func(e *echo.Echo) *RestRouteManager {
		return newRestRouteManager(e)
	})
}

func configure() error {
	deps.Echo.Use(apiMiddleware())
	setupRoutes()

	return nil
}

func run() error {
	Component.LogInfo("Starting REST-API server ...")

	if err := Component.Daemon().BackgroundWorker("REST-API server", func(ctx context.Context) {
		Component.LogInfo("Starting REST-API server ... done")

		bindAddr := deps.RestAPIBindAddress

		go func() {
			Component.LogInfof("You can now access the API using: http://%s", bindAddr)
			if err := deps.Echo.Start(bindAddr); err != nil && !ierrors.Is(err, http.ErrServerClosed) {
				Component.LogWarnf("Stopped REST-API server due to an error (%s)", err)
			}
		}()

		<-ctx.Done()
		Component.LogInfo("Stopping REST-API server ...")

		shutdownCtx, shutdownCtxCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCtxCancel()

		//nolint:contextcheck // false positive
		if err := deps.Echo.Shutdown(shutdownCtx); err != nil {
			Component.LogWarn(err.Error())
		}

		Component.LogInfo("Stopping REST-API server ... done")
	}, daemon.PriorityRestAPI); err != nil {
		Component.LogPanicf("failed to start worker: %s", err)
	}

	return nil
}

// NewAuth creates the token issuer of the API for the wallet secret.
func NewAuth(salt string, store *secretstore.Store) (*jwt.Auth, error) {
	// API tokens do not expire.
	return jwt.NewAuth(salt, 0, JWTSubject, []byte(store.Mnemonic()))
}
