package app

import (
	"github.com/iotaledger/hive.go/app"
	"github.com/iotaledger/hive.go/app/components/profiling"
	"github.com/iotaledger/hive.go/app/components/shutdown"
	"github.com/iotaledger/purity/components/account"
	"github.com/iotaledger/purity/components/client"
	"github.com/iotaledger/purity/components/datachannel"
	"github.com/iotaledger/purity/components/faucet"
	"github.com/iotaledger/purity/components/prometheus"
	"github.com/iotaledger/purity/components/reader"
	"github.com/iotaledger/purity/components/restapi"
	"github.com/iotaledger/purity/components/restapi/data"
	"github.com/iotaledger/purity/components/writer"
)

var (
	// Name of the app.
	Name = "purity"

	// Version of the app.
	Version = "0.1.0"
)

func App() *app.App {
	return app.New(Name, Version,
		app.WithInitComponent(InitComponent),
		app.WithComponents(
			shutdown.Component,
			profiling.Component,
			client.Component,
			account.Component,
			faucet.Component,
			datachannel.Component,
			writer.Component,
			reader.Component,
			restapi.Component,
			data.Component,
			prometheus.Component,
		),
	)
}

var InitComponent *app.InitComponent

func init() {
	InitComponent = &app.InitComponent{
		Component: &app.Component{
			Name: "App",
		},
		NonHiddenFlags: []string{
			"config",
			"help",
			"version",
		},
	}
}
