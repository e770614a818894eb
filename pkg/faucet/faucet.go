// Package faucet requests test funds and waits until they arrived.
package faucet

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/log"
	"github.com/iotaledger/hive.go/runtime/options"
	iotago "github.com/iotaledger/iota.go/v4"
	"github.com/iotaledger/iota.go/v4/api"
	"github.com/iotaledger/purity/pkg/ledger"
)

const enqueueRoute = "/api/enqueue"

var (
	ErrRequestRejected = ierrors.New("faucet rejected the request")
	ErrTimeout         = ierrors.New("timed out waiting for funds")
)

type enqueueRequest struct {
	Address string `json:"address"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Client talks to the enqueue endpoint of a faucet.
type Client struct {
	Events *Events

	log.Logger

	url        string
	client     ledger.Client
	httpClient *http.Client

	optsTick    time.Duration
	optsWaitFor time.Duration
}

// WithTick sets the interval the balance is checked in while waiting for funds.
func WithTick(tick time.Duration) options.Option[Client] {
	return func(c *Client) {
		c.optsTick = tick
	}
}

// WithWaitFor sets how long to wait for funds.
func WithWaitFor(waitFor time.Duration) options.Option[Client] {
	return func(c *Client) {
		c.optsWaitFor = waitFor
	}
}

// WithHTTPClient sets the client used for the enqueue request.
func WithHTTPClient(httpClient *http.Client) options.Option[Client] {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// New creates a faucet client. The url may point to the faucet or to its enqueue endpoint.
func New(logger log.Logger, url string, client ledger.Client, opts ...options.Option[Client]) *Client {
	return options.Apply(&Client{
		Events:      NewEvents(),
		Logger:      logger,
		url:         strings.TrimSuffix(strings.TrimSuffix(url, "/"), enqueueRoute) + enqueueRoute,
		client:      client,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		optsTick:    5 * time.Second,
		optsWaitFor: 2 * time.Minute,
	}, opts)
}

// URL returns the enqueue endpoint.
func (c *Client) URL() string {
	return c.url
}

// RequestFunds asks the faucet to send funds to the address.
func (c *Client) RequestFunds(ctx context.Context, address iotago.Address) error {
	bech32 := address.Bech32(c.client.CommittedAPI().ProtocolParameters().Bech32HRP())

	body, err := json.Marshal(&enqueueRequest{Address: bech32})
	if err != nil {
		return ierrors.Wrap(err, "failed to encode faucet request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return ierrors.Wrap(err, "failed to create faucet request")
	}
	req.Header.Set("Content-Type", api.MIMEApplicationJSON)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return ierrors.Wrapf(err, "faucet request to %s failed", c.url)
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(io.LimitReader(res.Body, 64*1024))
	if err != nil {
		return ierrors.Wrap(err, "failed to read faucet response")
	}

	if res.StatusCode != http.StatusAccepted && res.StatusCode != http.StatusOK {
		err = ierrors.Wrapf(ErrRequestRejected, "status %d: %s", res.StatusCode, errorMessage(resBody))
		c.Events.RequestFailed.Trigger(err)

		return err
	}

	c.LogInfof("requested funds for %s", bech32)
	c.Events.FundsRequested.Trigger(address)

	return nil
}

func errorMessage(body []byte) string {
	errRes := &errorResponse{}
	if err := json.Unmarshal(body, errRes); err == nil && errRes.Error.Message != "" {
		return errRes.Error.Message
	}

	return strings.TrimSpace(string(body))
}

// AwaitFunds waits until the address holds spendable funds and returns its balance.
func (c *Client) AwaitFunds(ctx context.Context, address iotago.Address) (iotago.BaseToken, error) {
	ctx, cancel := context.WithTimeout(ctx, c.optsWaitFor)
	defer cancel()

	ticker := time.NewTicker(c.optsTick)
	defer ticker.Stop()

	for {
		balance, err := ledger.Balance(ctx, c.client, address)
		switch {
		case err != nil:
			c.LogDebugf("failed to query balance: %s", err)
		case balance > 0:
			c.Events.FundsReceived.Trigger(balance)

			return balance, nil
		}

		select {
		case <-ctx.Done():
			return 0, ierrors.Wrapf(ErrTimeout, "address %s after %s", address.Bech32(c.client.CommittedAPI().ProtocolParameters().Bech32HRP()), c.optsWaitFor)
		case <-ticker.C:
		}
	}
}

// Fund requests funds for the address and waits until they arrived.
func (c *Client) Fund(ctx context.Context, address iotago.Address) (iotago.BaseToken, error) {
	if err := c.RequestFunds(ctx, address); err != nil {
		return 0, err
	}

	return c.AwaitFunds(ctx, address)
}
