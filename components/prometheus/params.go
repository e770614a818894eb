package prometheus

import (
	"github.com/iotaledger/hive.go/app"
)

// ParametersMetrics contains the definition of the parameters of the Prometheus exporter.
type ParametersMetrics struct {
	// Enabled defines whether the Prometheus exporter is enabled.
	Enabled     bool   `default:"false" usage:"whether the Prometheus exporter is enabled"`
	BindAddress string `default:"localhost:9311" usage:"the bind address of the Prometheus exporter"`
	// GoMetrics, ProcessMetrics and PromhttpMetrics add the collectors of the client library.
	GoMetrics       bool `default:"false" usage:"include go metrics"`
	ProcessMetrics  bool `default:"false" usage:"include process metrics"`
	PromhttpMetrics bool `default:"false" usage:"include promhttp metrics"`
}

// ParamsMetrics contains the configuration used by the Prometheus exporter.
var ParamsMetrics = &ParametersMetrics{}

var params = &app.ComponentParams{
	Params: map[string]any{
		"prometheus": ParamsMetrics,
	},
}
