package writer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/log"
	"github.com/iotaledger/hive.go/runtime/options"
	iotago "github.com/iotaledger/iota.go/v4"
	"github.com/iotaledger/iota.go/v4/wallet"
	datachannelcomponent "github.com/iotaledger/purity/components/datachannel"
	"github.com/iotaledger/purity/pkg/account"
	"github.com/iotaledger/purity/pkg/datachannel"
	"github.com/iotaledger/purity/pkg/issuer"
	"github.com/iotaledger/purity/pkg/testsuite/mock"
)

func setupWriter(t *testing.T, clientOpts ...options.Option[mock.Client]) (*mock.Client, *account.Account) {
	client := mock.NewClient(iotago.V3API(iotago.NewV3SnapshotProtocolParameters(iotago.WithVersion(3))), clientOpts...)

	keyManager, err := wallet.NewKeyManagerFromRandom(wallet.DefaultIOTAPath)
	require.NoError(t, err)

	acc, err := account.New(client, keyManager)
	require.NoError(t, err)

	Component.Logger = log.NewLogger()
	deps = dependencies{
		Channel: datachannel.New(log.NewLogger(), client, acc, issuer.NewServiceIssuer(client), datachannel.WithRetryInterval(time.Millisecond)),
	}

	params, retryInterval := *ParamsWriter, datachannelcomponent.ParamsDataChannel.RetryInterval
	t.Cleanup(func() {
		*ParamsWriter = params
		datachannelcomponent.ParamsDataChannel.RetryInterval = retryInterval
	})

	ParamsWriter.Tag = "wallet-lib"
	ParamsWriter.PayloadSize = 16
	ParamsWriter.Interval = 0
	ParamsWriter.Address = ""
	ParamsWriter.SenderIndex = 0

	return client, acc
}

func TestRecipientFreshAddress(t *testing.T) {
	client, acc := setupWriter(t)
	client.Fund(acc.Address(0), 10_000_000)

	ParamsWriter.FreshAddress = true
	ParamsWriter.Count = 2

	recipient, err := recipientAddress()
	require.NoError(t, err)
	require.True(t, recipient.Equal(acc.Address(1)))
	require.Len(t, acc.Addresses(), 2)

	writeAll(context.Background(), recipient)

	outputIDs, err := deps.Channel.Read(context.Background(), []byte(ParamsWriter.Tag), recipient)
	require.NoError(t, err)
	require.Len(t, outputIDs, 2)
}

func TestRecipientDefaultsToSender(t *testing.T) {
	_, acc := setupWriter(t)

	ParamsWriter.FreshAddress = false

	recipient, err := recipientAddress()
	require.NoError(t, err)
	require.Nil(t, recipient)
	require.Len(t, acc.Addresses(), 1)

	ParamsWriter.Address = "not-bech32"
	_, err = recipientAddress()
	require.Error(t, err)
}

func TestWriteAllPausesAfterErrors(t *testing.T) {
	client, acc := setupWriter(t, mock.WithSubmitError(ierrors.New("node unavailable")))
	client.Fund(acc.Address(0), 10_000_000)

	ParamsWriter.Count = 3
	datachannelcomponent.ParamsDataChannel.RetryInterval = 20 * time.Millisecond

	start := time.Now()
	writeAll(context.Background(), nil)
	require.GreaterOrEqual(t, time.Since(start), 3*datachannelcomponent.ParamsDataChannel.RetryInterval)
}

func TestWriteAllStopsDuringRetryPause(t *testing.T) {
	client, acc := setupWriter(t, mock.WithSubmitError(ierrors.New("node unavailable")))
	client.Fund(acc.Address(0), 10_000_000)

	ParamsWriter.Count = 0
	datachannelcomponent.ParamsDataChannel.RetryInterval = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		writeAll(ctx, nil)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		require.FailNow(t, "writer did not stop")
	}
}

func TestWriteAllStopsWithoutFunds(t *testing.T) {
	client, _ := setupWriter(t)

	ParamsWriter.Count = 0

	done := make(chan struct{})
	go func() {
		writeAll(context.Background(), nil)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		require.FailNow(t, "writer did not stop")
	}
	require.Empty(t, client.SignedTransactions())
}
