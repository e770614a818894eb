package account

import (
	"context"

	iotago "github.com/iotaledger/iota.go/v4"
)

// Summary is an overview of the account.
type Summary struct {
	Alias     string           `json:"alias"`
	Addresses []string         `json:"addresses"`
	OutputIDs iotago.OutputIDs `json:"outputIds"`
	Balance   iotago.BaseToken `json:"balance"`
}

// Summary collects the addresses, the unspent outputs and the balance of the account.
func (a *Account) Summary(ctx context.Context) (*Summary, error) {
	unspent, err := a.UnspentOutputs(ctx)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		Alias:     a.Alias(),
		OutputIDs: make(iotago.OutputIDs, 0, len(unspent)),
	}

	for _, addressData := range a.Addresses() {
		summary.Addresses = append(summary.Addresses, a.Bech32(addressData.Address))
	}

	for _, outputData := range unspent {
		summary.OutputIDs = append(summary.OutputIDs, outputData.ID)
		summary.Balance += outputData.Output.BaseTokenAmount()
	}

	return summary, nil
}
