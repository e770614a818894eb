package account

import (
	"context"
	"sort"
	"time"

	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/runtime/options"
	iotago "github.com/iotaledger/iota.go/v4"
	"github.com/iotaledger/purity/pkg/ledger"
)

var (
	// ErrInsufficientFunds is returned if the spendable outputs of the account do not cover an amount.
	ErrInsufficientFunds = ierrors.New("insufficient funds")
	// ErrUnknownAddress is returned for address indexes that were not generated yet.
	ErrUnknownAddress = ierrors.New("address was not generated")
)

// pendingTimeout is how long outputs stay reserved or pending before the indexer view wins again.
const pendingTimeout = 2 * time.Minute

type pendingOutput struct {
	*OutputData
	addedAt time.Time
}

// UnspentOutputs returns the basic outputs without timelock, expiration or data on all generated
// addresses, including the remainders of submitted transactions the indexer does not know yet
// and excluding the outputs that are reserved for a transaction.
func (a *Account) UnspentOutputs(ctx context.Context) ([]*OutputData, error) {
	indexed := make(map[iotago.OutputID]*OutputData)

	for _, addressData := range a.Addresses() {
		outputs, err := a.client.Outputs(ctx, ledger.SpendableOutputsQuery(a.Bech32(addressData.Address)))
		if err != nil {
			return nil, ierrors.Wrapf(err, "failed to query outputs of address %d", addressData.Index)
		}

		for _, output := range outputs {
			if isDataOutput(output.Output) {
				continue
			}

			indexed[output.ID] = &OutputData{
				ID:           output.ID,
				Output:       output.Output,
				Address:      addressData.Address,
				AddressIndex: addressData.Index,
			}
		}
	}

	a.mutex.Lock()
	defer a.mutex.Unlock()

	a.cleanPending(indexed)

	unspent := make([]*OutputData, 0, len(indexed)+a.pendingCreated.Size())
	for outputID, outputData := range indexed {
		if !a.pendingSpent.Has(outputID) {
			unspent = append(unspent, outputData)
		}
	}
	a.pendingCreated.ForEach(func(outputID iotago.OutputID, pending *pendingOutput) bool {
		if !a.pendingSpent.Has(outputID) {
			unspent = append(unspent, pending.OutputData)
		}

		return true
	})

	sort.Slice(unspent, func(i, j int) bool {
		return unspent[i].ID.ToHex() < unspent[j].ID.ToHex()
	})

	return unspent, nil
}

// data outputs are never consumed as inputs
func isDataOutput(output iotago.Output) bool {
	basicOutput, isBasic := output.(*iotago.BasicOutput)

	return !isBasic || basicOutput.FeatureSet().Metadata() != nil || basicOutput.FeatureSet().Tag() != nil
}

func (a *Account) cleanPending(indexed map[iotago.OutputID]*OutputData) {
	now := time.Now()

	for _, outputID := range a.pendingSpent.Keys() {
		if reservedAt, exists := a.pendingSpent.Get(outputID); exists && now.Sub(reservedAt) > pendingTimeout {
			a.pendingSpent.Delete(outputID)
		}
	}

	for _, outputID := range a.pendingCreated.Keys() {
		pending, exists := a.pendingCreated.Get(outputID)
		if !exists {
			continue
		}

		if _, known := indexed[outputID]; known || now.Sub(pending.addedAt) > pendingTimeout {
			a.pendingCreated.Delete(outputID)
		}
	}
}

// Balance returns the sum of base tokens of all unspent outputs of the account.
func (a *Account) Balance(ctx context.Context) (iotago.BaseToken, error) {
	unspent, err := a.UnspentOutputs(ctx)
	if err != nil {
		return 0, err
	}

	var balance iotago.BaseToken
	for _, outputData := range unspent {
		balance += outputData.Output.BaseTokenAmount()
	}

	return balance, nil
}

// SelectionOptions are the optional parameters of an input selection.
type SelectionOptions struct {
	requiredAddress *uint32
}

// WithRequiredAddress makes the selection include an output of the address at index, so that the
// address is unlocked by the transaction.
func WithRequiredAddress(index uint32) options.Option[SelectionOptions] {
	return func(o *SelectionOptions) {
		o.requiredAddress = &index
	}
}

// SelectInputs reserves unspent outputs holding at least amount base tokens, largest first.
// Reserved outputs are not returned again until they are released or the reservation expires.
func (a *Account) SelectInputs(ctx context.Context, amount iotago.BaseToken, opts ...options.Option[SelectionOptions]) ([]*OutputData, iotago.BaseToken, error) {
	selectionOpts := options.Apply(&SelectionOptions{}, opts)

	unspent, err := a.UnspentOutputs(ctx)
	if err != nil {
		return nil, 0, err
	}

	isRequired := func(outputData *OutputData) bool {
		return selectionOpts.requiredAddress != nil && outputData.AddressIndex == *selectionOpts.requiredAddress
	}

	sort.SliceStable(unspent, func(i, j int) bool {
		if isRequired(unspent[i]) != isRequired(unspent[j]) {
			return isRequired(unspent[i])
		}

		return unspent[i].Output.BaseTokenAmount() > unspent[j].Output.BaseTokenAmount()
	})

	a.mutex.Lock()
	defer a.mutex.Unlock()

	var (
		selected []*OutputData
		sum      iotago.BaseToken
	)
	for _, outputData := range unspent {
		if sum >= amount {
			break
		}

		// another caller may have reserved it since the query
		if a.pendingSpent.Has(outputData.ID) {
			continue
		}

		selected = append(selected, outputData)
		sum += outputData.Output.BaseTokenAmount()
	}

	if sum < amount || len(selected) == 0 {
		return nil, 0, ierrors.Wrapf(ErrInsufficientFunds, "needed %d, available %d", amount, sum)
	}

	if selectionOpts.requiredAddress != nil && !isRequired(selected[0]) {
		return nil, 0, ierrors.Wrapf(ErrInsufficientFunds, "no spendable output on address %d", *selectionOpts.requiredAddress)
	}

	now := time.Now()
	for _, outputData := range selected {
		a.pendingSpent.Set(outputData.ID, now)
	}

	return selected, sum, nil
}

// Release gives reserved outputs back, e.g. after a transaction could not be submitted.
func (a *Account) Release(outputIDs ...iotago.OutputID) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	for _, outputID := range outputIDs {
		a.pendingSpent.Delete(outputID)
	}
}

// MarkSpent reserves outputs that were consumed by a submitted transaction.
func (a *Account) MarkSpent(outputIDs ...iotago.OutputID) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	now := time.Now()
	for _, outputID := range outputIDs {
		a.pendingSpent.Set(outputID, now)
	}
}

// AddPending registers outputs of a submitted transaction that belong to the account, so that
// they can be spent before the indexer reports them.
func (a *Account) AddPending(outputs ...*OutputData) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	now := time.Now()
	for _, outputData := range outputs {
		a.pendingCreated.Set(outputData.ID, &pendingOutput{OutputData: outputData, addedAt: now})
	}
}

// RemovePending forgets outputs registered with AddPending, e.g. after their transaction failed.
func (a *Account) RemovePending(outputIDs ...iotago.OutputID) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	for _, outputID := range outputIDs {
		a.pendingCreated.Delete(outputID)
	}
}
