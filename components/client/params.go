package client

import (
	"time"

	"github.com/iotaledger/hive.go/app"
)

// ParametersClient contains the definition of the parameters used to connect to the node.
type ParametersClient struct {
	// NodeURL is the URL of the node API.
	NodeURL string `default:"http://localhost:8050" usage:"the URL of the node API"`
	// ExplorerURL is the URL of the explorer used in block links.
	ExplorerURL string `default:"" usage:"the URL of the explorer used to log block links"`
	// RequestTimeout is the timeout of a single request to the node.
	RequestTimeout time.Duration `default:"10s" usage:"the timeout of a single request to the node"`
	// HealthTimeout bounds the wait for the node to report healthy at startup.
	HealthTimeout       time.Duration `default:"1m" usage:"the maximum time to wait for the node to report healthy at startup"`
	HealthCheckInterval time.Duration `default:"2s" usage:"the interval between health checks at startup"`
}

// ParamsClient contains the configuration used by the client component.
var ParamsClient = &ParametersClient{}

var params = &app.ComponentParams{
	Params: map[string]any{
		"client": ParamsClient,
	},
}
