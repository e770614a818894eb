package reader

import (
	"time"

	"github.com/iotaledger/hive.go/app"
)

// ParametersReader contains the definition of the parameters used by the reader.
type ParametersReader struct {
	// Enabled defines whether the reader component is enabled.
	Enabled bool   `default:"false" usage:"whether the reader component is enabled"`
	Tag     string `default:"wallet-lib" usage:"the tag to read"`
	// Address is the bech32 address to read from. An empty address uses the first account address.
	Address  string        `default:"" usage:"the bech32 address to read from, empty for the first account address"`
	Interval time.Duration `default:"5s" usage:"the interval the outputs are polled in"`
	// DatabaseEngine is the engine of the database of seen output ids, "mapdb" keeps them in memory.
	DatabaseEngine string `default:"mapdb" usage:"the database engine of seen output ids (values: mapdb, rocksdb)"`
	DatabasePath   string `default:"reader/tracker" usage:"the path of the database of seen output ids"`
	// Decode enables fetching and logging the payloads of new outputs.
	Decode bool `default:"true" usage:"whether the payloads of new outputs are fetched and logged"`
}

// ParamsReader contains the configuration used by the reader component.
var ParamsReader = &ParametersReader{}

var params = &app.ComponentParams{
	Params: map[string]any{
		"reader": ParamsReader,
	},
}
