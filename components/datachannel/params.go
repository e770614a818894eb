package datachannel

import (
	"time"

	"github.com/iotaledger/hive.go/app"
)

// ParametersDataChannel contains the definition of the parameters used to write and read data outputs.
type ParametersDataChannel struct {
	// InclusionRetries is the number of times the inclusion of a written transaction is checked.
	InclusionRetries int           `default:"10" usage:"how often the inclusion of a written transaction is checked"`
	RetryInterval    time.Duration `default:"2s" usage:"the interval between inclusion checks"`

	Issuer struct {
		// AccountID is the hex encoded block issuer account. If it is empty the block issuer service of the node is used.
		AccountID    string `name:"accountID" default:"" usage:"the hex encoded block issuer account, empty to use the block issuer service of the node"`
		AddressIndex uint32 `default:"0" usage:"the index of the address whose key signs the blocks of the block issuer account"`
	}
}

// ParamsDataChannel contains the configuration used by the datachannel component.
var ParamsDataChannel = &ParametersDataChannel{}

var params = &app.ComponentParams{
	Params: map[string]any{
		"datachannel": ParamsDataChannel,
	},
}
