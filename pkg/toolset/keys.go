package toolset

import (
	"encoding/hex"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/iotaledger/hive.go/app/configuration"
	"github.com/iotaledger/hive.go/ierrors"
	iotago "github.com/iotaledger/iota.go/v4"
	"github.com/iotaledger/iota.go/v4/wallet"
	"github.com/iotaledger/purity/pkg/secretstore"
)

type addressInfo struct {
	Index          uint32 `json:"index"`
	PublicKey      string `json:"publicKey"`
	Ed25519Address string `json:"ed25519"`
	Bech32Address  string `json:"bech32"`
}

type walletInfo struct {
	BIP39     string         `json:"mnemonic,omitempty"`
	BIP32     string         `json:"path"`
	Addresses []*addressInfo `json:"addresses"`
}

func newWalletInfo(keyManager *wallet.KeyManager, hrp iotago.NetworkPrefix, withMnemonic bool, indexes ...uint32) *walletInfo {
	info := &walletInfo{
		BIP32:     keyManager.Path().String(),
		Addresses: make([]*addressInfo, 0, len(indexes)),
	}
	if withMnemonic {
		info.BIP39 = keyManager.Mnemonic().String()
	}

	for _, index := range indexes {
		_, pubKey := keyManager.KeyPair(index)
		addr := keyManager.Address(iotago.AddressEd25519, index)

		info.Addresses = append(info.Addresses, &addressInfo{
			Index:          index,
			PublicKey:      hex.EncodeToString(pubKey),
			Ed25519Address: addr.String(),
			Bech32Address:  addr.Bech32(hrp),
		})
	}

	return info
}

func printWalletInfo(info *walletInfo, outputJSON bool) error {
	if outputJSON {
		return printJSON(info)
	}

	if len(info.BIP39) > 0 {
		fmt.Println("Your seed BIP39 mnemonic: ", info.BIP39)
		fmt.Println()
	}
	fmt.Println("Your BIP32 path:          ", info.BIP32)

	for _, addr := range info.Addresses {
		fmt.Println()
		fmt.Println("Address index:            ", addr.Index)
		fmt.Println("Your ed25519 public key:  ", addr.PublicKey)
		fmt.Println("Your ed25519 address:     ", addr.Ed25519Address)
		fmt.Println("Your bech32 address:      ", addr.Bech32Address)
	}

	return nil
}

func generateMnemonic(args []string) error {
	fs := configuration.NewUnsortedFlagSet("", flag.ContinueOnError)
	hrpFlag := fs.String(FlagToolHRP, string(iotago.PrefixTestnet), "the HRP which should be used for the Bech32 address")
	bip32Path := fs.String(FlagToolBIP32Path, DefaultValueBIP32Path, "the BIP32 path that should be used to derive keys from seed")
	outputJSONFlag := fs.Bool(FlagToolOutputJSON, false, FlagToolDescriptionOutputJSON)

	fs.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Usage of %s:\n", ToolMnemonicGen)
		fs.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nexample: %s --%s %s\n", ToolMnemonicGen, FlagToolHRP, string(iotago.PrefixTestnet))
	}

	if err := parseFlagSet(fs, args); err != nil {
		return err
	}

	if len(*hrpFlag) == 0 {
		return ierrors.Errorf("'%s' not specified", FlagToolHRP)
	}

	keyManager, err := wallet.NewKeyManagerFromRandom(*bip32Path)
	if err != nil {
		return err
	}

	return printWalletInfo(newWalletInfo(keyManager, iotago.NetworkPrefix(*hrpFlag), true, 0), *outputJSONFlag)
}

func deriveAddresses(args []string) error {
	fs := configuration.NewUnsortedFlagSet("", flag.ContinueOnError)
	hrpFlag := fs.String(FlagToolHRP, string(iotago.PrefixTestnet), "the HRP which should be used for the Bech32 address")
	bip32Path := fs.String(FlagToolBIP32Path, DefaultValueBIP32Path, "the BIP32 path that should be used to derive keys from seed")
	mnemonicFlag := fs.String(FlagToolMnemonic, "", "the BIP-39 mnemonic, if empty the secret store is used")
	storagePathFlag := fs.String(FlagToolStoragePath, DefaultValueStoragePath, "the directory of the secret store")
	passwordFlag := fs.String(FlagToolPassword, "", "the password of the secret store")
	indexesFlag := fs.UintSlice(FlagToolIndexes, []uint{0}, "the address indexes to derive")
	outputJSONFlag := fs.Bool(FlagToolOutputJSON, false, FlagToolDescriptionOutputJSON)

	fs.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Usage of %s:\n", ToolAddress)
		fs.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nexample: %s --%s %s --%s 0,1,2\n", ToolAddress, FlagToolStoragePath, DefaultValueStoragePath, FlagToolIndexes)
	}

	if err := parseFlagSet(fs, args); err != nil {
		return err
	}

	mnemonic := *mnemonicFlag
	if mnemonic == "" {
		pw, err := password(*passwordFlag, "Password: ")
		if err != nil {
			return err
		}

		store, err := secretstore.Open(secretstore.Path(*storagePathFlag), pw)
		if err != nil {
			return err
		}
		mnemonic = store.Mnemonic()
	}

	keyManager, err := wallet.NewKeyManagerFromMnemonic(mnemonic, *bip32Path)
	if err != nil {
		return err
	}

	indexes := make([]uint32, 0, len(*indexesFlag))
	for _, index := range *indexesFlag {
		indexes = append(indexes, uint32(index))
	}

	return printWalletInfo(newWalletInfo(keyManager, iotago.NetworkPrefix(*hrpFlag), false, indexes...), *outputJSONFlag)
}

func initSecretStore(args []string) error {
	fs := configuration.NewUnsortedFlagSet("", flag.ContinueOnError)
	storagePathFlag := fs.String(FlagToolStoragePath, DefaultValueStoragePath, "the directory the secret store is created in")
	passwordFlag := fs.String(FlagToolPassword, "", "the password of the secret store")
	mnemonicFlag := fs.String(FlagToolMnemonic, "", "the BIP-39 mnemonic to store, a random one is generated if empty")

	fs.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Usage of %s:\n", ToolSecretInit)
		fs.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nexample: %s --%s %s\n", ToolSecretInit, FlagToolStoragePath, DefaultValueStoragePath)
	}

	if err := parseFlagSet(fs, args); err != nil {
		return err
	}

	path := secretstore.Path(*storagePathFlag)
	if secretstore.Exists(path) {
		return ierrors.Errorf("secret store %s already exists", path)
	}

	pw, err := password(*passwordFlag, "New password: ")
	if err != nil {
		return err
	}

	if _, err := secretstore.Create(path, pw, *mnemonicFlag); err != nil {
		return err
	}

	fmt.Println("Created secret store", path)

	return nil
}

func changeSecretStorePassword(args []string) error {
	fs := configuration.NewUnsortedFlagSet("", flag.ContinueOnError)
	storagePathFlag := fs.String(FlagToolStoragePath, DefaultValueStoragePath, "the directory of the secret store")
	passwordFlag := fs.String(FlagToolPassword, "", "the current password of the secret store")
	newPasswordFlag := fs.String(FlagToolNewPassword, "", "the new password of the secret store")

	fs.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Usage of %s:\n", ToolSecretPassword)
		fs.PrintDefaults()
	}

	if err := parseFlagSet(fs, args); err != nil {
		return err
	}

	pw, err := password(*passwordFlag, "Current password: ")
	if err != nil {
		return err
	}

	store, err := secretstore.Open(secretstore.Path(*storagePathFlag), pw)
	if err != nil {
		return err
	}

	newPw, err := password(*newPasswordFlag, "New password: ")
	if err != nil {
		return err
	}

	if err := store.ChangePassword(newPw); err != nil {
		return err
	}

	fmt.Println("Changed password of", store.Path())

	return nil
}
