package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iotaledger/hive.go/ierrors"
	iotago "github.com/iotaledger/iota.go/v4"
	"github.com/iotaledger/iota.go/v4/tpkg"
	"github.com/iotaledger/purity/pkg/ledger"
	"github.com/iotaledger/purity/pkg/testsuite/mock"
)

func newAPI() iotago.API {
	return iotago.V3API(iotago.NewV3SnapshotProtocolParameters(iotago.WithVersion(3)))
}

func TestSpendableOutputsQuery(t *testing.T) {
	query := ledger.SpendableOutputsQuery("rms1qqq")
	require.Equal(t, "rms1qqq", query.AddressBech32)
	require.NotNil(t, query.HasTimelock)
	require.False(t, *query.HasTimelock)
	require.NotNil(t, query.HasExpiration)
	require.False(t, *query.HasExpiration)
}

func TestBalance(t *testing.T) {
	client := mock.NewClient(newAPI())
	address := tpkg.RandEd25519Address()

	balance, err := ledger.Balance(context.Background(), client, address)
	require.NoError(t, err)
	require.Zero(t, balance)

	client.Fund(address, 1_000)
	spent := client.Fund(address, 500)
	client.Fund(address, 250)
	client.Fund(tpkg.RandEd25519Address(), 10_000)

	client.Book(&iotago.BasicOutput{
		Amount: 5_000,
		UnlockConditions: iotago.BasicOutputUnlockConditions{
			&iotago.AddressUnlockCondition{Address: address},
			&iotago.TimelockUnlockCondition{Slot: 1_000},
		},
		Features: iotago.BasicOutputFeatures{},
	})

	client.Spend(spent)

	balance, err = ledger.Balance(context.Background(), client, address)
	require.NoError(t, err)
	require.EqualValues(t, 1_250, balance)
}

func TestBalanceQueryError(t *testing.T) {
	errIndexer := ierrors.New("indexer unavailable")
	client := mock.NewClient(newAPI(), mock.WithIndexerError(errIndexer))

	_, err := ledger.Balance(context.Background(), client, tpkg.RandEd25519Address())
	require.True(t, ierrors.Is(err, errIndexer))
}

func TestAwaitHealthy(t *testing.T) {
	client := mock.NewClient(newAPI(), mock.WithHealthyAfter(3))

	require.NoError(t, ledger.AwaitHealthy(context.Background(), client, time.Millisecond, 5*time.Second))

	healthy, err := client.Health(context.Background())
	require.NoError(t, err)
	require.True(t, healthy)
}

func TestAwaitHealthyTimeout(t *testing.T) {
	client := mock.NewClient(newAPI(), mock.WithHealthyAfter(-1))

	start := time.Now()
	err := ledger.AwaitHealthy(context.Background(), client, 5*time.Millisecond, 50*time.Millisecond)
	require.True(t, ierrors.Is(err, ledger.ErrNodeNotHealthy))
	require.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}
