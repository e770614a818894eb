package account

import (
	"github.com/iotaledger/hive.go/app"
)

// ParametersAccount contains the definition of the parameters of the wallet account.
type ParametersAccount struct {
	// StoragePath is the directory the secret store and the account state are kept in.
	StoragePath string `default:"wallet" usage:"the directory the secret store and the account state are kept in"`
	// Password unlocks the secret store.
	Password string `default:"" usage:"the password of the secret store"`
	// Mnemonic is used to create the secret store if there is none yet. A random one is generated if it is empty.
	Mnemonic string `default:"" usage:"the BIP-39 mnemonic the secret store is created from if it does not exist yet"`
	Alias    string `default:"Alice" usage:"the alias of the account"`
	// BIP32Path is the derivation path of the account addresses.
	BIP32Path string `name:"bip32Path" default:"m/44'/4218'/0'/0'/0'" usage:"the BIP-32 path the addresses are derived with"`
}

// ParamsAccount contains the configuration used by the account component.
var ParamsAccount = &ParametersAccount{}

var params = &app.ComponentParams{
	Params: map[string]any{
		"account": ParamsAccount,
	},
	Masked: []string{"account.password", "account.mnemonic"},
}
