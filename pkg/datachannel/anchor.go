package datachannel

import (
	"context"
	"time"

	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/runtime/options"
	iotago "github.com/iotaledger/iota.go/v4"
	"github.com/iotaledger/purity/pkg/account"
	"github.com/iotaledger/purity/pkg/deposit"
)

var (
	ErrNotStateController = ierrors.New("anchor is not controlled by the account")
	ErrStateNotFound      = ierrors.New("anchor carries no data")
)

// AnchorWriteResult acknowledges a write to an anchor.
type AnchorWriteResult struct {
	AnchorID      iotago.AnchorID
	OutputID      iotago.OutputID
	TransactionID iotago.TransactionID
	BlockID       iotago.BlockID
	Output        *iotago.AnchorOutput
	Included      bool
	Duration      time.Duration
}

// AnchorState is the payload stored in the current state of an anchor.
type AnchorState struct {
	AnchorID   iotago.AnchorID
	OutputID   iotago.OutputID
	StateIndex uint32
	Payload    []byte
}

// WriteAnchor stores the payload in the state metadata of an anchor output. An empty anchor id creates a
// new anchor controlled by the sender address. Otherwise the anchor, which must be controlled by an
// address of the account, transitions to its next state and the sender option is ignored.
func (c *Channel) WriteAnchor(ctx context.Context, anchorID iotago.AnchorID, payload []byte, opts ...options.Option[WriteOptions]) (*AnchorWriteResult, error) {
	writeOpts := options.Apply(&WriteOptions{}, opts)

	if len(payload) == 0 {
		return nil, ErrEmptyPayload
	}

	start := time.Now()

	issuance, err := c.client.BlockIssuance(ctx)
	if err != nil {
		return nil, ierrors.Wrap(err, "failed to get block issuance info")
	}

	issuerAccountID, err := c.issuer.AccountID(ctx)
	if err != nil {
		return nil, err
	}

	currentSlot := c.client.LatestAPI().TimeProvider().CurrentSlot()
	apiForSlot := c.client.APIForSlot(currentSlot)

	var (
		anchorOutput *iotago.AnchorOutput
		inputs       []*account.OutputData
		inputSum     iotago.BaseToken
		controller   *account.OutputData
	)

	if anchorID.Empty() {
		sender, err := c.account.GeneratedAddress(writeOpts.SenderIndex)
		if err != nil {
			return nil, err
		}

		controller = &account.OutputData{Address: sender, AddressIndex: writeOpts.SenderIndex}
		anchorOutput = &iotago.AnchorOutput{
			UnlockConditions: iotago.AnchorOutputUnlockConditions{
				&iotago.StateControllerAddressUnlockCondition{Address: sender},
				&iotago.GovernorAddressUnlockCondition{Address: sender},
			},
		}
	} else {
		if controller, err = c.currentAnchor(ctx, anchorID); err != nil {
			return nil, err
		}

		//nolint:forcetypeassert
		anchorOutput = controller.Output.Clone().(*iotago.AnchorOutput)
		anchorOutput.AnchorID = anchorID
		anchorOutput.StateIndex++
		anchorOutput.Mana = 0

		inputs = append(inputs, controller)
		inputSum = controller.Output.BaseTokenAmount()
	}

	setAnchorState(anchorOutput, payload)

	minDeposit, err := deposit.ForOutput(apiForSlot.ProtocolParameters(), anchorOutput)
	if err != nil {
		return nil, ierrors.Wrap(err, "failed to compute storage deposit")
	}
	anchorOutput.Amount = max(inputSum, minDeposit)

	var funding []*account.OutputData
	if inputSum < anchorOutput.Amount {
		var fundingSum iotago.BaseToken
		if funding, fundingSum, err = c.account.SelectInputs(ctx, anchorOutput.Amount-inputSum); err != nil {
			return nil, err
		}

		inputs = append(inputs, funding...)
		inputSum += fundingSum
	}

	//nolint:forcetypeassert
	controllerAddress := controller.Address.(*iotago.Ed25519Address)

	signedTx, remainder, err := c.buildTransaction(apiForSlot, currentSlot, issuance, issuerAccountID, inputs, inputSum, anchorOutput, controllerAddress, controller.AddressIndex)
	if err != nil {
		c.account.Release(inputIDs(funding)...)

		return nil, err
	}

	txID := signedTx.Transaction.MustID()
	blockID, included, err := c.issue(ctx, signedTx, issuance, funding, remainder)
	if err != nil {
		return nil, err
	}

	result := &AnchorWriteResult{
		AnchorID:      anchorID,
		OutputID:      iotago.OutputIDFromTransactionIDAndIndex(txID, 0),
		TransactionID: txID,
		BlockID:       blockID,
		Output:        anchorOutput,
		Included:      included,
		Duration:      time.Since(start),
	}
	if result.AnchorID.Empty() {
		result.AnchorID = iotago.AnchorIDFromOutputID(result.OutputID)
	}

	if !included {
		c.LogWarnf("transaction %s was not included after %d attempts", txID.ToHex(), c.optsInclusionRetries)
	}

	c.LogInfof("wrote %d bytes to anchor %s at state %d in %s", len(payload), result.AnchorID.ToHex(), anchorOutput.StateIndex, result.Duration)
	c.Events.AnchorWritten.Trigger(result)

	return result, nil
}

// ReadAnchor returns the payload stored in the current state of the anchor.
func (c *Channel) ReadAnchor(ctx context.Context, anchorID iotago.AnchorID) (*AnchorState, error) {
	outputID, anchorOutput, err := c.client.AnchorOutput(ctx, anchorID)
	if err != nil {
		return nil, err
	}

	stateMetadata := anchorOutput.FeatureSet().StateMetadata()
	if stateMetadata == nil {
		return nil, ierrors.Wrapf(ErrStateNotFound, "anchor %s", anchorID.ToHex())
	}

	payload, exists := stateMetadata.Entries[iotago.StateMetadataFeatureEntriesKey(MetadataKey)]
	if !exists {
		return nil, ierrors.Wrapf(ErrStateNotFound, "anchor %s", anchorID.ToHex())
	}

	return &AnchorState{
		AnchorID:   anchorID,
		OutputID:   outputID,
		StateIndex: anchorOutput.StateIndex,
		Payload:    payload,
	}, nil
}

// currentAnchor returns the unspent output of the anchor as input unlocked by its state controller.
func (c *Channel) currentAnchor(ctx context.Context, anchorID iotago.AnchorID) (*account.OutputData, error) {
	outputID, anchorOutput, err := c.client.AnchorOutput(ctx, anchorID)
	if err != nil {
		return nil, err
	}

	stateController := anchorOutput.StateController()
	controllerIndex, owned := c.account.AddressIndex(stateController)
	if !owned {
		return nil, ierrors.Wrapf(ErrNotStateController, "anchor %s", anchorID.ToHex())
	}

	return &account.OutputData{
		ID:           outputID,
		Output:       anchorOutput,
		Address:      stateController,
		AddressIndex: controllerIndex,
	}, nil
}

// setAnchorState replaces the state metadata and keeps the other features.
func setAnchorState(anchorOutput *iotago.AnchorOutput, payload []byte) {
	features := make(iotago.AnchorOutputFeatures, 0, len(anchorOutput.Features)+1)
	for _, feature := range anchorOutput.Features {
		if feature.Type() != iotago.FeatureStateMetadata {
			features = append(features, feature)
		}
	}

	anchorOutput.Features = append(features, &iotago.StateMetadataFeature{
		Entries: iotago.StateMetadataFeatureEntries{
			iotago.StateMetadataFeatureEntriesKey(MetadataKey): payload,
		},
	})
}
