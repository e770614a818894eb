package ledger

import (
	"context"
	"time"

	"github.com/iotaledger/hive.go/ierrors"
	iotago "github.com/iotaledger/iota.go/v4"
	"github.com/iotaledger/iota.go/v4/api"
)

// SpendableOutputsQuery returns a query for the basic outputs of the address that can be
// consumed right away, i.e. without a timelock or an expiration.
func SpendableOutputsQuery(addressBech32 string) *api.BasicOutputsQuery {
	query := &api.BasicOutputsQuery{
		AddressBech32: addressBech32,
	}

	hasTimelock, hasExpiration := false, false
	query.HasTimelock = &hasTimelock
	query.HasExpiration = &hasExpiration

	return query
}

// Balance returns the sum of the base tokens held in spendable basic outputs of the address.
func Balance(ctx context.Context, client Client, address iotago.Address) (iotago.BaseToken, error) {
	bech32 := address.Bech32(client.CommittedAPI().ProtocolParameters().Bech32HRP())

	outputs, err := client.Outputs(ctx, SpendableOutputsQuery(bech32))
	if err != nil {
		return 0, ierrors.Wrapf(err, "failed to query balance of %s", bech32)
	}

	var balance iotago.BaseToken
	for _, output := range outputs {
		balance += output.Output.BaseTokenAmount()
	}

	return balance, nil
}

// ErrNodeNotHealthy is returned if the node did not report healthy in time.
var ErrNodeNotHealthy = ierrors.New("node is not healthy")

// AwaitHealthy polls the health of the node every interval until it reports healthy or timeout passed.
func AwaitHealthy(ctx context.Context, client Client, interval time.Duration, timeout time.Duration) error {
	if interval <= 0 {
		return ierrors.Errorf("invalid health check interval %s", interval)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastErr error
	for {
		healthy, err := client.Health(ctx)
		if err == nil && healthy {
			return nil
		}
		lastErr = err

		select {
		case <-ctx.Done():
			if lastErr != nil {
				return ierrors.Wrapf(ErrNodeNotHealthy, "%s after %s: %s", client.URL(), timeout, lastErr)
			}

			return ierrors.Wrapf(ErrNodeNotHealthy, "%s after %s", client.URL(), timeout)
		case <-ticker.C:
		}
	}
}
