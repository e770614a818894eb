package account_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/runtime/options"
	iotago "github.com/iotaledger/iota.go/v4"
	"github.com/iotaledger/iota.go/v4/wallet"
	"github.com/iotaledger/purity/pkg/account"
	"github.com/iotaledger/purity/pkg/testsuite/mock"
)

func newTestAccount(t *testing.T, storagePath string) (*account.Account, *mock.Client, *wallet.KeyManager) {
	client := mock.NewClient(iotago.V3API(iotago.NewV3SnapshotProtocolParameters(iotago.WithVersion(3))))

	keyManager, err := wallet.NewKeyManagerFromRandom(wallet.DefaultIOTAPath)
	require.NoError(t, err)

	opts := []options.Option[account.Account]{}
	if storagePath != "" {
		opts = append(opts, account.WithStoragePath(storagePath))
	}

	acc, err := account.New(client, keyManager, opts...)
	require.NoError(t, err)

	return acc, client, keyManager
}

func TestAddresses(t *testing.T) {
	acc, _, keyManager := newTestAccount(t, "")

	require.Equal(t, account.DefaultAlias, acc.Alias())
	require.Len(t, acc.Addresses(), 1)
	require.Equal(t, keyManager.Address(iotago.AddressEd25519, 0), acc.Address(0))

	generated, err := acc.GenerateAddress()
	require.NoError(t, err)
	require.EqualValues(t, 1, generated.Index)
	require.Equal(t, acc.Address(1), generated.Address)
	require.Len(t, acc.Addresses(), 2)

	index, found := acc.AddressIndex(generated.Address)
	require.True(t, found)
	require.EqualValues(t, 1, index)

	_, found = acc.AddressIndex(acc.Address(5))
	require.False(t, found)
}

func TestStatePersistence(t *testing.T) {
	storagePath := t.TempDir()

	acc, client, keyManager := newTestAccount(t, storagePath)
	_, err := acc.GenerateAddress()
	require.NoError(t, err)
	_, err = acc.GenerateAddress()
	require.NoError(t, err)

	restored, err := account.New(client, keyManager, account.WithStoragePath(storagePath), account.WithAlias("Bob"))
	require.NoError(t, err)
	require.Len(t, restored.Addresses(), 3)
	// the alias of an existing account is kept
	require.Equal(t, account.DefaultAlias, restored.Alias())

	otherPath, err := wallet.NewKeyManagerFromMnemonic(keyManager.Mnemonic().String(), "m/44'/4219'/0'/0'/0'")
	require.NoError(t, err)
	_, err = account.New(client, otherPath, account.WithStoragePath(storagePath))
	require.Error(t, err)
}

func TestUnspentOutputsAndBalance(t *testing.T) {
	ctx := context.Background()
	acc, client, _ := newTestAccount(t, "")

	second, err := acc.GenerateAddress()
	require.NoError(t, err)

	client.Fund(acc.Address(0), 1_000_000)
	client.Fund(second.Address, 500_000)
	// outputs with an expiration are not spendable
	client.Book(&iotago.BasicOutput{
		Amount: 700_000,
		UnlockConditions: iotago.BasicOutputUnlockConditions{
			&iotago.AddressUnlockCondition{Address: acc.Address(0)},
			&iotago.ExpirationUnlockCondition{ReturnAddress: acc.Address(1), Slot: 100},
		},
	})

	unspent, err := acc.UnspentOutputs(ctx)
	require.NoError(t, err)
	require.Len(t, unspent, 2)

	for _, outputData := range unspent {
		if outputData.AddressIndex == 1 {
			require.Equal(t, second.Address, outputData.Address)
		}
	}

	balance, err := acc.Balance(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1_500_000, balance)

	summary, err := acc.Summary(ctx)
	require.NoError(t, err)
	require.Len(t, summary.Addresses, 2)
	require.Len(t, summary.OutputIDs, 2)
	require.EqualValues(t, 1_500_000, summary.Balance)
}

func TestSelectInputs(t *testing.T) {
	ctx := context.Background()
	acc, client, _ := newTestAccount(t, "")

	large := client.Fund(acc.Address(0), 1_000_000)
	small := client.Fund(acc.Address(0), 200_000)

	selected, sum, err := acc.SelectInputs(ctx, 300_000)
	require.NoError(t, err)
	require.Len(t, selected, 1)
	require.Equal(t, large, selected[0].ID)
	require.EqualValues(t, 1_000_000, sum)

	// reserved outputs are never selected twice
	selected, sum, err = acc.SelectInputs(ctx, 100_000)
	require.NoError(t, err)
	require.Len(t, selected, 1)
	require.Equal(t, small, selected[0].ID)
	require.EqualValues(t, 200_000, sum)

	_, _, err = acc.SelectInputs(ctx, 1)
	require.True(t, ierrors.Is(err, account.ErrInsufficientFunds))

	acc.Release(large)
	selected, _, err = acc.SelectInputs(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, large, selected[0].ID)
}

func TestSelectInputsCombinesOutputs(t *testing.T) {
	ctx := context.Background()
	acc, client, _ := newTestAccount(t, "")

	client.Fund(acc.Address(0), 300_000)
	client.Fund(acc.Address(0), 400_000)
	client.Fund(acc.Address(0), 500_000)

	selected, sum, err := acc.SelectInputs(ctx, 800_000)
	require.NoError(t, err)
	require.Len(t, selected, 2)
	require.EqualValues(t, 900_000, sum)

	_, _, err = acc.SelectInputs(ctx, 400_000)
	require.True(t, ierrors.Is(err, account.ErrInsufficientFunds))
}

func TestSelectInputsRequiredAddress(t *testing.T) {
	ctx := context.Background()
	acc, client, _ := newTestAccount(t, "")

	second, err := acc.GenerateAddress()
	require.NoError(t, err)

	client.Fund(acc.Address(0), 5_000_000)
	owned := client.Fund(second.Address, 100_000)

	// the output of the required address comes first even though it is smaller
	selected, sum, err := acc.SelectInputs(ctx, 1_000_000, account.WithRequiredAddress(second.Index))
	require.NoError(t, err)
	require.Len(t, selected, 2)
	require.Equal(t, owned, selected[0].ID)
	require.Equal(t, second.Index, selected[0].AddressIndex)
	require.EqualValues(t, 5_100_000, sum)

	acc.Release(selected[0].ID, selected[1].ID)

	third, err := acc.GenerateAddress()
	require.NoError(t, err)

	_, _, err = acc.SelectInputs(ctx, 1, account.WithRequiredAddress(third.Index))
	require.True(t, ierrors.Is(err, account.ErrInsufficientFunds))
}

func TestPendingOutputs(t *testing.T) {
	ctx := context.Background()
	acc, client, _ := newTestAccount(t, "")

	funded := client.Fund(acc.Address(0), 1_000_000)
	acc.MarkSpent(funded)

	pending := &account.OutputData{
		ID: iotago.OutputIDFromTransactionIDAndIndex(iotago.TransactionID{1}, 1),
		Output: &iotago.BasicOutput{
			Amount: 400_000,
			UnlockConditions: iotago.BasicOutputUnlockConditions{
				&iotago.AddressUnlockCondition{Address: acc.Address(0)},
			},
		},
		Address: acc.Address(0),
	}
	acc.AddPending(pending)

	unspent, err := acc.UnspentOutputs(ctx)
	require.NoError(t, err)
	require.Len(t, unspent, 1)
	require.Equal(t, pending.ID, unspent[0].ID)

	balance, err := acc.Balance(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 400_000, balance)
}
