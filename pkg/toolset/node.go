package toolset

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/iotaledger/hive.go/app/configuration"
	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/log"
	iotago "github.com/iotaledger/iota.go/v4"
	"github.com/iotaledger/iota.go/v4/hexutil"
	"github.com/iotaledger/purity/pkg/datachannel"
	"github.com/iotaledger/purity/pkg/faucet"
	"github.com/iotaledger/purity/pkg/ledger"
)

func nodeInfo(args []string) error {
	fs := configuration.NewUnsortedFlagSet("", flag.ContinueOnError)
	nodeURLFlag := fs.String(FlagToolNodeURL, DefaultValueNodeURL, "URL of the node")
	outputJSONFlag := fs.Bool(FlagToolOutputJSON, false, FlagToolDescriptionOutputJSON)

	fs.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Usage of %s:\n", ToolNodeInfo)
		fs.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nexample: %s --%s %s\n", ToolNodeInfo, FlagToolNodeURL, DefaultValueNodeURL)
	}

	if err := parseFlagSet(fs, args); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := ledger.NewNodeClient(*nodeURLFlag)
	if err != nil {
		return err
	}

	healthy, err := client.Health(ctx)
	if err != nil {
		return err
	}

	info, err := client.Info(ctx)
	if err != nil {
		return err
	}

	if *outputJSONFlag {
		infoJSON, err := client.CommittedAPI().JSONEncode(info)
		if err != nil {
			return ierrors.Wrap(err, "failed to encode node info")
		}

		var indented bytes.Buffer
		if err := json.Indent(&indented, infoJSON, "", "  "); err != nil {
			return err
		}
		fmt.Println(indented.String())

		return nil
	}

	protocolParams := client.CommittedAPI().ProtocolParameters()

	fmt.Printf("Name: %s\nVersion: %s\nHealthy: %s\nNetwork: %s\nBech32 HRP: %s\nLatest commitment: %s\nLatest finalized slot: %d\n",
		info.Name,
		info.Version,
		yesOrNo(healthy),
		protocolParams.NetworkName(),
		protocolParams.Bech32HRP(),
		info.Status.LatestCommitmentID.ToHex(),
		info.Status.LatestFinalizedSlot,
	)

	return nil
}

func yesOrNo(value bool) string {
	if value {
		return "YES"
	}

	return "NO"
}

func parseBech32Address(bech32 string) (iotago.Address, error) {
	if bech32 == "" {
		return nil, ierrors.Errorf("'%s' not specified", FlagToolAddress)
	}

	_, address, err := iotago.ParseBech32(bech32)
	if err != nil {
		return nil, ierrors.Wrapf(err, "failed to parse %s", bech32)
	}

	return address, nil
}

func requestFunds(args []string) error {
	fs := configuration.NewUnsortedFlagSet("", flag.ContinueOnError)
	nodeURLFlag := fs.String(FlagToolNodeURL, DefaultValueNodeURL, "URL of the node")
	faucetURLFlag := fs.String(FlagToolFaucetURL, "http://localhost:8088", "URL of the faucet")
	addressFlag := fs.String(FlagToolAddress, "", "the bech32 address to fund")
	waitForFlag := fs.Duration(FlagToolWaitFor, 2*time.Minute, "how long to wait for the funds")

	fs.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Usage of %s:\n", ToolFaucet)
		fs.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nexample: %s --%s %s\n", ToolFaucet, FlagToolAddress, "[BECH32_ADDRESS]")
	}

	if err := parseFlagSet(fs, args); err != nil {
		return err
	}

	address, err := parseBech32Address(*addressFlag)
	if err != nil {
		return err
	}

	client, err := ledger.NewNodeClient(*nodeURLFlag)
	if err != nil {
		return err
	}

	balance, err := faucet.New(log.NewLogger(), *faucetURLFlag, client, faucet.WithWaitFor(*waitForFlag)).Fund(context.Background(), address)
	if err != nil {
		return err
	}

	fmt.Printf("Balance of %s: %d\n", *addressFlag, balance)

	return nil
}

type dataOutputInfo struct {
	OutputID string `json:"outputId"`
	Address  string `json:"address,omitempty"`
	Payload  string `json:"payload"`
	Spent    bool   `json:"spent"`
}

func readTag(args []string) error {
	fs := configuration.NewUnsortedFlagSet("", flag.ContinueOnError)
	nodeURLFlag := fs.String(FlagToolNodeURL, DefaultValueNodeURL, "URL of the node")
	tagFlag := fs.String(FlagToolTag, DefaultValueTag, "the tag to read")
	addressFlag := fs.String(FlagToolAddress, "", "the bech32 address to read from (optional)")
	outputJSONFlag := fs.Bool(FlagToolOutputJSON, false, FlagToolDescriptionOutputJSON)

	fs.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Usage of %s:\n", ToolRead)
		fs.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nexample: %s --%s %s\n", ToolRead, FlagToolTag, DefaultValueTag)
	}

	if err := parseFlagSet(fs, args); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	client, err := ledger.NewNodeClient(*nodeURLFlag)
	if err != nil {
		return err
	}

	// reading does not need an account or an issuer
	channel := datachannel.New(log.NewLogger(), client, nil, nil)

	var outputIDs iotago.OutputIDs
	if *addressFlag == "" {
		outputIDs, err = channel.ReadByTag(ctx, []byte(*tagFlag))
	} else {
		address, parseErr := parseBech32Address(*addressFlag)
		if parseErr != nil {
			return parseErr
		}
		outputIDs, err = channel.Read(ctx, []byte(*tagFlag), address)
	}
	if err != nil {
		return err
	}

	outputs, err := channel.ReadOutputs(ctx, outputIDs)
	if err != nil {
		return err
	}

	hrp := client.CommittedAPI().ProtocolParameters().Bech32HRP()

	infos := make([]*dataOutputInfo, 0, len(outputs))
	for _, output := range outputs {
		payload, err := datachannel.Metadata(output.Output)
		if err != nil {
			continue
		}

		info := &dataOutputInfo{
			OutputID: output.ID.ToHex(),
			Payload:  hexutil.EncodeHex(payload),
			Spent:    output.IsSpent(),
		}
		if addressUnlock := output.Output.UnlockConditionSet().Address(); addressUnlock != nil {
			info.Address = addressUnlock.Address.Bech32(hrp)
		}

		infos = append(infos, info)
	}

	if *outputJSONFlag {
		return printJSON(infos)
	}

	for _, info := range infos {
		fmt.Println(info.OutputID, info.Payload)
	}

	return nil
}
