package datachannel

import (
	"context"
	"math"
	"time"

	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/lo"
	"github.com/iotaledger/hive.go/runtime/options"
	iotago "github.com/iotaledger/iota.go/v4"
	"github.com/iotaledger/iota.go/v4/api"
	"github.com/iotaledger/iota.go/v4/builder"
	"github.com/iotaledger/purity/pkg/account"
	"github.com/iotaledger/purity/pkg/deposit"
)

// WriteOptions are the optional parameters of a write.
type WriteOptions struct {
	Expiration  time.Duration
	Timelock    time.Duration
	SenderIndex uint32
}

// WithExpiration adds an expiration unlock condition that returns the output to the sender after d.
func WithExpiration(d time.Duration) options.Option[WriteOptions] {
	return func(o *WriteOptions) {
		o.Expiration = d
	}
}

// WithTimelock adds a timelock unlock condition that keeps the output locked for d.
func WithTimelock(d time.Duration) options.Option[WriteOptions] {
	return func(o *WriteOptions) {
		o.Timelock = d
	}
}

// WithSenderIndex selects the own address used in the sender feature and as expiration return address.
func WithSenderIndex(index uint32) options.Option[WriteOptions] {
	return func(o *WriteOptions) {
		o.SenderIndex = index
	}
}

// WriteResult acknowledges a write.
type WriteResult struct {
	OutputID      iotago.OutputID
	TransactionID iotago.TransactionID
	BlockID       iotago.BlockID
	Output        *iotago.BasicOutput
	// Included is false if the transaction was not reported included within the retry budget.
	Included bool
	Duration time.Duration
}

// MaxTagLength is the maximum size of a tag feature.
const MaxTagLength = 64

func validate(tag []byte, payload []byte) error {
	if len(tag) == 0 || len(tag) > MaxTagLength {
		return ierrors.Wrapf(ErrInvalidTag, "got %d bytes", len(tag))
	}

	if len(payload) == 0 {
		return ErrEmptyPayload
	}

	return nil
}

// Write stores the payload under tag in a new output locked to address and waits for the
// transaction to be included. An inclusion that is not confirmed within the retry budget is not
// an error: the result is returned with Included set to false.
func (c *Channel) Write(ctx context.Context, address iotago.Address, tag []byte, payload []byte, opts ...options.Option[WriteOptions]) (*WriteResult, error) {
	writeOpts := options.Apply(&WriteOptions{}, opts)

	if err := validate(tag, payload); err != nil {
		return nil, err
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
	sender, err := c.account.GeneratedAddress(writeOpts.SenderIndex)
	if err != nil {
		return nil, err
	}

	dataOutput := c.dataOutput(apiForSlot, currentSlot, address, sender, tag, payload, writeOpts)
	if dataOutput.Amount, err = deposit.ForOutput(apiForSlot.ProtocolParameters(), dataOutput); err != nil {
		return nil, ierrors.Wrap(err, "failed to compute storage deposit")
	}

	inputs, inputSum, err := c.account.SelectInputs(ctx, dataOutput.Amount, account.WithRequiredAddress(writeOpts.SenderIndex))
	if err != nil {
		return nil, err
	}

	signedTx, remainder, err := c.buildTransaction(apiForSlot, currentSlot, issuance, issuerAccountID, inputs, inputSum, dataOutput, sender, writeOpts.SenderIndex)
	if err != nil {
		c.account.Release(inputIDs(inputs)...)

		return nil, err
	}

	txID := signedTx.Transaction.MustID()
	blockID, included, err := c.issue(ctx, signedTx, issuance, inputs, remainder)
	if err != nil {
		return nil, err
	}

	result := &WriteResult{
		OutputID:      iotago.OutputIDFromTransactionIDAndIndex(txID, 0),
		TransactionID: txID,
		BlockID:       blockID,
		Output:        dataOutput,
		Included:      included,
		Duration:      time.Since(start),
	}

	if !result.Included {
		c.LogWarnf("transaction %s was not included after %d attempts", txID.ToHex(), c.optsInclusionRetries)
		c.Events.InclusionTimedOut.Trigger(result)
	}

	if link := c.BlockLink(blockID); link != "" {
		c.LogInfof("wrote %d bytes with tag %s in %s: %s", len(payload), string(tag), result.Duration, link)
	} else {
		c.LogInfof("wrote %d bytes with tag %s in %s: output %s", len(payload), string(tag), result.Duration, result.OutputID.ToHex())
	}

	c.Events.DataWritten.Trigger(result)

	return result, nil
}

func (c *Channel) dataOutput(apiForSlot iotago.API, currentSlot iotago.SlotIndex, address iotago.Address, sender iotago.Address, tag []byte, payload []byte, writeOpts *WriteOptions) *iotago.BasicOutput {
	unlockConditions := iotago.BasicOutputUnlockConditions{
		&iotago.AddressUnlockCondition{Address: address},
	}

	if writeOpts.Timelock > 0 {
		unlockConditions = append(unlockConditions, &iotago.TimelockUnlockCondition{
			Slot: currentSlot + slotsFor(apiForSlot, writeOpts.Timelock),
		})
	}

	if writeOpts.Expiration > 0 {
		unlockConditions = append(unlockConditions, &iotago.ExpirationUnlockCondition{
			ReturnAddress: sender,
			Slot:          currentSlot + slotsFor(apiForSlot, writeOpts.Expiration),
		})
	}

	return &iotago.BasicOutput{
		UnlockConditions: unlockConditions,
		Features: iotago.BasicOutputFeatures{
			&iotago.SenderFeature{Address: sender},
			&iotago.MetadataFeature{Entries: iotago.MetadataFeatureEntries{MetadataKey: payload}},
			&iotago.TagFeature{Tag: tag},
		},
	}
}

// buildTransaction consumes the inputs into output and a remainder on the sender address. The
// output must be a *iotago.BasicOutput or a *iotago.AnchorOutput.
func (c *Channel) buildTransaction(apiForSlot iotago.API, currentSlot iotago.SlotIndex, issuance *api.IssuanceBlockHeaderResponse, issuerAccountID iotago.AccountID, inputs []*account.OutputData, inputSum iotago.BaseToken, output iotago.Output, sender *iotago.Ed25519Address, senderIndex uint32) (*iotago.SignedTransaction, *account.OutputData, error) {
	remainderOutput := &iotago.BasicOutput{
		Amount: inputSum - output.BaseTokenAmount(),
		UnlockConditions: iotago.BasicOutputUnlockConditions{
			&iotago.AddressUnlockCondition{Address: sender},
		},
		Features: iotago.BasicOutputFeatures{},
	}

	if remainderOutput.Amount > 0 {
		minRemainder, err := deposit.MinDeposit(apiForSlot.ProtocolParameters(), deposit.WithAddress(sender))
		if err != nil {
			return nil, nil, ierrors.Wrap(err, "failed to compute remainder deposit")
		}

		// change below the storage deposit cannot stand on its own
		if remainderOutput.Amount < minRemainder {
			addAmount(output, remainderOutput.Amount)
			remainderOutput.Amount = 0
		}
	}

	txBuilder := builder.NewTransactionBuilder(apiForSlot, c.account.AddressSigner(addressIndexes(inputs)...))
	for _, input := range inputs {
		txBuilder.AddInput(&builder.TxInput{
			UnlockTarget: input.Address,
			InputID:      input.ID,
			Input:        input.Output,
		})
	}

	txBuilder.AddOutput(output)
	if remainderOutput.Amount > 0 {
		txBuilder.AddOutput(remainderOutput)
	}

	signedTx, err := txBuilder.
		SetCreationSlot(currentSlot).
		AddCommitmentInput(&iotago.CommitmentInput{CommitmentID: lo.Return1(issuance.LatestCommitment.ID())}).
		AllotAllMana(currentSlot, issuerAccountID, 0).
		Build()
	if err != nil {
		return nil, nil, ierrors.Wrap(err, "failed to build transaction")
	}

	if remainderOutput.Amount == 0 {
		return signedTx, nil, nil
	}

	remainderID := iotago.OutputIDFromTransactionIDAndIndex(signedTx.Transaction.MustID(), 1)

	return signedTx, &account.OutputData{
		ID:           remainderID,
		Output:       remainderOutput,
		Address:      sender,
		AddressIndex: senderIndex,
	}, nil
}

// issue submits the transaction and waits for its inclusion. The inputs are marked spent once the
// transaction was issued and released again if it failed.
func (c *Channel) issue(ctx context.Context, signedTx *iotago.SignedTransaction, issuance *api.IssuanceBlockHeaderResponse, inputs []*account.OutputData, remainder *account.OutputData) (iotago.BlockID, bool, error) {
	blockID, err := c.issuer.Issue(ctx, signedTx, issuance)
	if err != nil {
		c.account.Release(inputIDs(inputs)...)

		return iotago.EmptyBlockID, false, ierrors.Wrap(err, "failed to issue transaction")
	}

	c.account.MarkSpent(inputIDs(inputs)...)
	if remainder != nil {
		c.account.AddPending(remainder)
	}

	txID := signedTx.Transaction.MustID()
	c.LogDebugf("issued transaction %s in block %s", txID.ToHex(), blockID.ToHex())

	included, err := c.awaitInclusion(ctx, txID)
	if err != nil {
		if ierrors.Is(err, ErrTransactionFailed) {
			c.account.Release(inputIDs(inputs)...)
			if remainder != nil {
				c.account.RemovePending(remainder.ID)
			}
		}

		return iotago.EmptyBlockID, false, err
	}

	return blockID, included, nil
}

func addAmount(output iotago.Output, amount iotago.BaseToken) {
	switch output := output.(type) {
	case *iotago.BasicOutput:
		output.Amount += amount
	case *iotago.AnchorOutput:
		output.Amount += amount
	}
}

func (c *Channel) awaitInclusion(ctx context.Context, txID iotago.TransactionID) (bool, error) {
	for attempt := 1; attempt <= c.optsInclusionRetries; attempt++ {
		metadata, err := c.client.TransactionMetadata(ctx, txID)
		switch {
		case err != nil:
			c.LogDebugf("transaction %s not known yet (attempt %d): %s", txID.ToHex(), attempt, err)

		case metadata.TransactionState == api.TransactionStateFailed:
			return false, ierrors.Wrapf(ErrTransactionFailed, "transaction %s, reason %d", txID.ToHex(), metadata.TransactionFailureReason)

		case isIncluded(metadata):
			return true, nil
		}

		if attempt == c.optsInclusionRetries {
			break
		}

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(c.optsRetryInterval):
		}
	}

	return false, nil
}

func isIncluded(metadata *api.TransactionMetadataResponse) bool {
	if metadata.TransactionFailureReason != api.TxFailureNone {
		return false
	}

	switch metadata.TransactionState {
	case api.TransactionStateAccepted, api.TransactionStateCommitted, api.TransactionStateFinalized:
		return true
	default:
		return false
	}
}

func slotsFor(apiForSlot iotago.API, d time.Duration) iotago.SlotIndex {
	slotDuration := time.Duration(apiForSlot.ProtocolParameters().SlotDurationInSeconds()) * time.Second

	return iotago.SlotIndex(math.Ceil(float64(d) / float64(slotDuration)))
}

func inputIDs(inputs []*account.OutputData) []iotago.OutputID {
	return lo.Map(inputs, func(input *account.OutputData) iotago.OutputID {
		return input.ID
	})
}

func addressIndexes(inputs []*account.OutputData) []uint32 {
	seen := make(map[uint32]struct{})

	indexes := make([]uint32, 0, len(inputs))
	for _, input := range inputs {
		if _, exists := seen[input.AddressIndex]; exists {
			continue
		}
		seen[input.AddressIndex] = struct{}{}
		indexes = append(indexes, input.AddressIndex)
	}

	return indexes
}
