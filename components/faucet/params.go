package faucet

import (
	"time"

	"github.com/iotaledger/hive.go/app"
)

// ParametersFaucet contains the definition of the parameters used by the faucet client.
type ParametersFaucet struct {
	// Enabled defines whether the faucet is used to top up the account.
	Enabled bool `default:"true" usage:"whether the faucet is used to top up the account"`
	// URL is the faucet or its enqueue endpoint.
	URL string `default:"http://localhost:8088" usage:"the URL of the faucet"`
	// MinBalance is the balance below which funds are requested.
	MinBalance uint64        `default:"1000000" usage:"the balance below which funds are requested from the faucet"`
	Tick       time.Duration `default:"5s" usage:"the interval the balance is checked in while waiting for funds"`
	WaitFor    time.Duration `default:"2m" usage:"how long to wait for requested funds"`
}

// ParamsFaucet contains the configuration used by the faucet component.
var ParamsFaucet = &ParametersFaucet{}

var params = &app.ComponentParams{
	Params: map[string]any{
		"faucet": ParamsFaucet,
	},
}
