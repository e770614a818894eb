package toolset

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	flag "github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/iotaledger/hive.go/ierrors"
)

const (
	FlagToolStoragePath = "storagePath"
	FlagToolPassword    = "password"
	FlagToolNewPassword = "newPassword"
	FlagToolOutputPath  = "outputPath"

	FlagToolHRP       = "hrp"
	FlagToolBIP32Path = "bip32Path"
	FlagToolMnemonic  = "mnemonic"
	FlagToolIndexes   = "indexes"
	FlagToolSalt      = "salt"

	FlagToolNodeURL   = "nodeURL"
	FlagToolFaucetURL = "faucetURL"
	FlagToolAddress   = "address"
	FlagToolTag       = "tag"
	FlagToolWaitFor   = "waitFor"

	FlagToolOutputJSON            = "json"
	FlagToolDescriptionOutputJSON = "format output as JSON"
)

const (
	ToolMnemonicGen    = "mnemonic-gen"
	ToolAddress        = "address"
	ToolSecretInit     = "secret-init"
	ToolSecretPassword = "secret-passwd"
	ToolNodeInfo       = "node-info"
	ToolFaucet         = "faucet"
	ToolRead           = "read"
	ToolBackup         = "backup"
	ToolJWTApi         = "jwt-api"
)

const (
	DefaultValueStoragePath = "wallet"
	DefaultValueBIP32Path   = "m/44'/4218'/0'/0'/0'"
	DefaultValueNodeURL     = "http://localhost:8050"
	DefaultValueTag         = "wallet-lib"
	DefaultValueJWTSalt     = "IOTA"
)

// ShouldHandleTools checks if tools were requested.
func ShouldHandleTools() bool {
	for _, arg := range os.Args[1:] {
		if strings.ToLower(arg) == "tool" || strings.ToLower(arg) == "tools" {
			return true
		}
	}

	return false
}

// HandleTools handles available tools.
func HandleTools() {
	args := os.Args[1:]
	if len(args) == 1 {
		listTools()
		os.Exit(1)
	}

	tools := map[string]func([]string) error{
		ToolMnemonicGen:    generateMnemonic,
		ToolAddress:        deriveAddresses,
		ToolSecretInit:     initSecretStore,
		ToolSecretPassword: changeSecretStorePassword,
		ToolNodeInfo:       nodeInfo,
		ToolFaucet:         requestFunds,
		ToolRead:           readTag,
		ToolBackup:         backupStorage,
		ToolJWTApi:         generateJWTApiToken,
	}

	tool, exists := tools[strings.ToLower(args[1])]
	if !exists {
		fmt.Print("tool not found.\n\n")
		listTools()
		os.Exit(1)
	}

	if err := tool(args[2:]); err != nil {
		if ierrors.Is(err, flag.ErrHelp) {
			// help text was requested
			os.Exit(0)
		}

		fmt.Printf("\nerror: %s\n", err)
		os.Exit(1)
	}

	os.Exit(0)
}

func listTools() {
	fmt.Printf("%-16s generates a BIP-39 mnemonic and its first address\n", ToolMnemonicGen+":")
	fmt.Printf("%-16s derives addresses from a mnemonic or the secret store\n", ToolAddress+":")
	fmt.Printf("%-16s creates the password protected secret store\n", ToolSecretInit+":")
	fmt.Printf("%-16s changes the password of the secret store\n", ToolSecretPassword+":")
	fmt.Printf("%-16s queries the health and info of a node\n", ToolNodeInfo+":")
	fmt.Printf("%-16s requests funds from a faucet and waits for them\n", ToolFaucet+":")
	fmt.Printf("%-16s reads the data outputs carrying a tag\n", ToolRead+":")
	fmt.Printf("%-16s copies the storage directory\n", ToolBackup+":")
	fmt.Printf("%-16s generates a JWT token for REST-API access\n", ToolJWTApi+":")
}

func parseFlagSet(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}

	// Check if all parameters were parsed
	if fs.NArg() != 0 {
		return ierrors.New("too much arguments")
	}

	return nil
}

func printJSON(obj interface{}) error {
	output, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		return err
	}

	fmt.Println(string(output))

	return nil
}

// password returns the flag value or asks for it on the terminal.
func password(value string, prompt string) (string, error) {
	if value != "" {
		return value, nil
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", ierrors.Errorf("'%s' not specified", FlagToolPassword)
	}

	fmt.Print(prompt)
	defer fmt.Println()

	passwordBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", ierrors.Wrap(err, "failed to read password")
	}

	if len(passwordBytes) == 0 {
		return "", ierrors.New("password must not be empty")
	}

	return string(passwordBytes), nil
}
