package faucet_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/log"
	iotago "github.com/iotaledger/iota.go/v4"
	"github.com/iotaledger/iota.go/v4/tpkg"
	"github.com/iotaledger/purity/pkg/faucet"
	"github.com/iotaledger/purity/pkg/testsuite/mock"
)

func newClient() *mock.Client {
	return mock.NewClient(iotago.V3API(iotago.NewV3SnapshotProtocolParameters(iotago.WithVersion(3))))
}

func TestFund(t *testing.T) {
	client := newClient()
	address := tpkg.RandEd25519Address()
	hrp := client.CommittedAPI().ProtocolParameters().Bech32HRP()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/enqueue", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req struct {
			Address string `json:"address"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, address.Bech32(hrp), req.Address)

		client.Fund(address, 1_000_000)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	faucetClient := faucet.New(log.NewLogger(), server.URL, client, faucet.WithTick(time.Millisecond))
	require.Equal(t, server.URL+"/api/enqueue", faucetClient.URL())

	var requested, received int
	faucetClient.Events.FundsRequested.Hook(func(iotago.Address) { requested++ })
	faucetClient.Events.FundsReceived.Hook(func(iotago.BaseToken) { received++ })

	balance, err := faucetClient.Fund(context.Background(), address)
	require.NoError(t, err)
	require.EqualValues(t, 1_000_000, balance)
	require.Equal(t, 1, requested)
	require.Equal(t, 1, received)
}

func TestURLWithEnqueueRoute(t *testing.T) {
	faucetClient := faucet.New(log.NewLogger(), "https://faucet.example/api/enqueue", newClient())
	require.Equal(t, "https://faucet.example/api/enqueue", faucetClient.URL())
}

func TestRequestRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":"429","message":"too many requests"}}`))
	}))
	defer server.Close()

	faucetClient := faucet.New(log.NewLogger(), server.URL, newClient())

	var failed error
	faucetClient.Events.RequestFailed.Hook(func(err error) { failed = err })

	err := faucetClient.RequestFunds(context.Background(), tpkg.RandEd25519Address())
	require.True(t, ierrors.Is(err, faucet.ErrRequestRejected))
	require.Contains(t, err.Error(), "too many requests")
	require.Equal(t, err, failed)
}

func TestAwaitFundsTimeout(t *testing.T) {
	faucetClient := faucet.New(log.NewLogger(), "http://unused", newClient(),
		faucet.WithTick(time.Millisecond),
		faucet.WithWaitFor(20*time.Millisecond),
	)

	_, err := faucetClient.AwaitFunds(context.Background(), tpkg.RandEd25519Address())
	require.True(t, ierrors.Is(err, faucet.ErrTimeout))
}
