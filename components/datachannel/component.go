package datachannel

import (
	"go.uber.org/dig"

	"github.com/iotaledger/hive.go/app"
	"github.com/iotaledger/hive.go/ierrors"
	iotago "github.com/iotaledger/iota.go/v4"
	"github.com/iotaledger/iota.go/v4/hexutil"
	clientcomponent "github.com/iotaledger/purity/components/client"
	"github.com/iotaledger/purity/pkg/account"
	"github.com/iotaledger/purity/pkg/datachannel"
	"github.com/iotaledger/purity/pkg/issuer"
	"github.com/iotaledger/purity/pkg/ledger"
)

func init() {
	Component = &app.Component{
		Name:    "DataChannel",
		Params:  params,
		Provide: provide,
	}
}

var Component *app.Component

func provide(c *dig.Container) error {
	if err := c.Provide(func(client ledger.Client, acc *account.Account) issuer.Issuer {
		if ParamsDataChannel.Issuer.AccountID == "" {
			Component.LogInfo("Issuing blocks with the block issuer service of the node")

			return issuer.NewServiceIssuer(client)
		}

		accountID, err := parseAccountID(ParamsDataChannel.Issuer.AccountID)
		if err != nil {
			Component.LogPanicf("invalid block issuer account: %s", err)
		}

		privateKey, _ := acc.KeyPair(ParamsDataChannel.Issuer.AddressIndex)
		Component.LogInfof("Issuing blocks with account %s", accountID.ToHex())

		return issuer.NewAccountIssuer(client, accountID, privateKey)
	}); err != nil {
		return err
	}

	return c.Provide(func(client ledger.Client, acc *account.Account, blockIssuer issuer.Issuer) *datachannel.Channel {
		return datachannel.New(Component.Logger, client, acc, blockIssuer,
			datachannel.WithInclusionRetries(ParamsDataChannel.InclusionRetries),
			datachannel.WithRetryInterval(ParamsDataChannel.RetryInterval),
			datachannel.WithExplorerURL(clientcomponent.ParamsClient.ExplorerURL),
		)
	})
}

func parseAccountID(hexAccountID string) (iotago.AccountID, error) {
	accountIDBytes, err := hexutil.DecodeHex(hexAccountID)
	if err != nil {
		return iotago.EmptyAccountID, ierrors.Wrapf(err, "failed to decode %s", hexAccountID)
	}

	if len(accountIDBytes) != iotago.AccountIDLength {
		return iotago.EmptyAccountID, ierrors.Errorf("account id %s has length %d instead of %d", hexAccountID, len(accountIDBytes), iotago.AccountIDLength)
	}

	var accountID iotago.AccountID
	copy(accountID[:], accountIDBytes)

	return accountID, nil
}
