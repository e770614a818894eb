package writer

import (
	"time"

	"github.com/iotaledger/hive.go/app"
)

// ParametersWriter contains the definition of the parameters used by the writer.
type ParametersWriter struct {
	// Enabled defines whether the writer component is enabled.
	Enabled bool `default:"true" usage:"whether the writer component is enabled"`
	// Tag is the tag the payloads are written under.
	Tag         string `default:"wallet-lib" usage:"the tag the payloads are written under"`
	PayloadSize int    `default:"16" usage:"the size of the random payloads in bytes"`
	// Count is the number of payloads to write. Zero keeps writing until shutdown.
	Count    int           `default:"2" usage:"the number of payloads to write, 0 writes until shutdown"`
	Interval time.Duration `default:"0s" usage:"the pause between two writes"`
	// Address is the bech32 address the outputs are locked to. An empty address uses the sender address.
	Address string `default:"" usage:"the bech32 address the data outputs are locked to, empty for the sender address or a fresh address"`
	// FreshAddress generates a new address of the account as recipient if no address is configured.
	FreshAddress bool          `default:"true" usage:"whether to lock the data outputs to a newly generated address if no address is set"`
	SenderIndex  uint32        `default:"0" usage:"the index of the own address that funds the writes"`
	Expiration   time.Duration `default:"0s" usage:"the time after which the outputs return to the sender, 0 disables the expiration"`
	Timelock     time.Duration `default:"0s" usage:"the time the outputs stay locked, 0 disables the timelock"`
}

// ParamsWriter contains the configuration used by the writer component.
var ParamsWriter = &ParametersWriter{}

var params = &app.ComponentParams{
	Params: map[string]any{
		"writer": ParamsWriter,
	},
}
