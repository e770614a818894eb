package faucet

import (
	"go.uber.org/dig"

	"github.com/iotaledger/hive.go/app"
	"github.com/iotaledger/purity/pkg/faucet"
	"github.com/iotaledger/purity/pkg/ledger"
)

func init() {
	Component = &app.Component{
		Name:    "Faucet",
		Params:  params,
		Provide: provide,
		IsEnabled: func(_ *dig.Container) bool {
			return ParamsFaucet.Enabled
		},
	}
}

var Component *app.Component

func provide(c *dig.Container) error {
	return c.Provide(func(client ledger.Client) *faucet.Client {
		Component.LogInfof("Using faucet %s", ParamsFaucet.URL)

		return faucet.New(Component.Logger, ParamsFaucet.URL, client,
			faucet.WithTick(ParamsFaucet.Tick),
			faucet.WithWaitFor(ParamsFaucet.WaitFor),
		)
	})
}
