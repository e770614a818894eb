package datachannel_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iotaledger/hive.go/ierrors"
	iotago "github.com/iotaledger/iota.go/v4"
	"github.com/iotaledger/iota.go/v4/tpkg"
	"github.com/iotaledger/purity/pkg/account"
	"github.com/iotaledger/purity/pkg/datachannel"
	"github.com/iotaledger/purity/pkg/deposit"
	"github.com/iotaledger/purity/pkg/testsuite/mock"
)

func TestWriteAnchorCreatesAndTransitions(t *testing.T) {
	ctx := context.Background()
	tf := newTestFramework(t, nil)
	tf.Client.Fund(tf.Account.Address(0), 10_000_000)

	var written []*datachannel.AnchorWriteResult
	tf.Channel.Events.AnchorWritten.Hook(func(result *datachannel.AnchorWriteResult) {
		written = append(written, result)
	})

	created, err := tf.Channel.WriteAnchor(ctx, iotago.EmptyAnchorID, []byte("first state"))
	require.NoError(t, err)
	require.True(t, created.Included)
	require.Equal(t, iotago.AnchorIDFromOutputID(created.OutputID), created.AnchorID)
	require.True(t, created.Output.AnchorID.Empty())
	require.Zero(t, created.Output.StateIndex)
	require.True(t, created.Output.StateController().Equal(tf.Account.Address(0)))
	require.True(t, created.Output.GovernorAddress().Equal(tf.Account.Address(0)))

	minDeposit, err := deposit.ForOutput(tf.Client.CommittedAPI().ProtocolParameters(), created.Output)
	require.NoError(t, err)
	require.Equal(t, minDeposit, created.Output.Amount)

	state, err := tf.Channel.ReadAnchor(ctx, created.AnchorID)
	require.NoError(t, err)
	require.Equal(t, created.OutputID, state.OutputID)
	require.Zero(t, state.StateIndex)
	require.Equal(t, []byte("first state"), state.Payload)

	// the anchor deposit is no longer part of the balance
	balance, err := tf.Account.Balance(ctx)
	require.NoError(t, err)
	require.Equal(t, iotago.BaseToken(10_000_000)-created.Output.Amount, balance)

	// a larger state needs a top up from the account
	larger := make([]byte, 512)
	updated, err := tf.Channel.WriteAnchor(ctx, created.AnchorID, larger)
	require.NoError(t, err)
	require.Equal(t, created.AnchorID, updated.AnchorID)
	require.Equal(t, created.AnchorID, updated.Output.AnchorID)
	require.EqualValues(t, 1, updated.Output.StateIndex)
	require.Greater(t, updated.Output.Amount, created.Output.Amount)

	signedTxs := tf.Client.SignedTransactions()
	require.Len(t, signedTxs, 2)

	state, err = tf.Channel.ReadAnchor(ctx, created.AnchorID)
	require.NoError(t, err)
	require.Equal(t, updated.OutputID, state.OutputID)
	require.EqualValues(t, 1, state.StateIndex)
	require.Equal(t, larger, state.Payload)

	// a smaller state keeps the deposit in the anchor and needs no funding
	shrunk, err := tf.Channel.WriteAnchor(ctx, created.AnchorID, []byte{1})
	require.NoError(t, err)
	require.EqualValues(t, 2, shrunk.Output.StateIndex)
	require.Equal(t, updated.Output.Amount, shrunk.Output.Amount)

	require.Len(t, written, 3)

	balanceAfter, err := tf.Account.Balance(ctx)
	require.NoError(t, err)
	require.Equal(t, iotago.BaseToken(10_000_000)-shrunk.Output.Amount, balanceAfter)
}

func TestWriteAnchorValidation(t *testing.T) {
	ctx := context.Background()
	tf := newTestFramework(t, nil)

	_, err := tf.Channel.WriteAnchor(ctx, iotago.EmptyAnchorID, nil)
	require.True(t, ierrors.Is(err, datachannel.ErrEmptyPayload))

	_, err = tf.Channel.WriteAnchor(ctx, iotago.EmptyAnchorID, []byte{1}, datachannel.WithSenderIndex(3))
	require.True(t, ierrors.Is(err, account.ErrUnknownAddress))

	_, err = tf.Channel.ReadAnchor(ctx, tpkg.RandAnchorID())
	require.True(t, ierrors.Is(err, mock.ErrNotFound))
}

func TestWriteAnchorForeignController(t *testing.T) {
	ctx := context.Background()
	tf := newTestFramework(t, nil)
	tf.Client.Fund(tf.Account.Address(0), 10_000_000)

	foreign := tpkg.RandEd25519Address()
	anchorID := tpkg.RandAnchorID()
	tf.Client.Book(&iotago.AnchorOutput{
		Amount:   1_000_000,
		AnchorID: anchorID,
		UnlockConditions: iotago.AnchorOutputUnlockConditions{
			&iotago.StateControllerAddressUnlockCondition{Address: foreign},
			&iotago.GovernorAddressUnlockCondition{Address: foreign},
		},
	})

	_, err := tf.Channel.WriteAnchor(ctx, anchorID, []byte{1})
	require.True(t, ierrors.Is(err, datachannel.ErrNotStateController))
	require.Empty(t, tf.Client.SignedTransactions())

	// an anchor without state metadata carries no data
	_, err = tf.Channel.ReadAnchor(ctx, anchorID)
	require.True(t, ierrors.Is(err, datachannel.ErrStateNotFound))
}

func TestWriteAnchorInsufficientFunds(t *testing.T) {
	tf := newTestFramework(t, nil)

	_, err := tf.Channel.WriteAnchor(context.Background(), iotago.EmptyAnchorID, []byte{1})
	require.True(t, ierrors.Is(err, account.ErrInsufficientFunds))
	require.Empty(t, tf.Client.SignedTransactions())
}
