package mock

import (
	"context"
	"sort"

	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/runtime/options"
	"github.com/iotaledger/hive.go/runtime/syncutils"
	"github.com/iotaledger/iota.go/v4/api"
	"github.com/iotaledger/iota.go/v4/hexutil"
	"github.com/iotaledger/iota.go/v4/tpkg"
	"github.com/iotaledger/purity/pkg/ledger"

	iotago "github.com/iotaledger/iota.go/v4"
)

var ErrNotFound = ierrors.New("not found")

type storedOutput struct {
	id      iotago.OutputID
	output  iotago.Output
	spentBy iotago.TransactionID
	spent   bool
}

type transaction struct {
	signedTx   *iotago.SignedTransaction
	polled     int
	acceptedAt int
}

// Client is an in-memory ledger.Client that books submitted transactions right away and
// answers indexer queries from its own output set.
type Client struct {
	api iotago.API

	outputs      map[iotago.OutputID]*storedOutput
	transactions map[iotago.TransactionID]*transaction
	blocks       []*iotago.Block
	payloads     []iotago.ApplicationPayload
	unavailable  map[iotago.OutputID]struct{}
	mutex        syncutils.RWMutex

	issuerAccountID iotago.AccountID

	healthPolls int

	optsHealthyAfter      int
	optsAcceptAfter       int
	optsTransactionState  api.TransactionState
	optsFailureReason     api.TransactionFailureReason
	optsSubmitErr         error
	optsIndexerErr        error
	optsLatestCommitSlot  iotago.SlotIndex
	optsReferenceManaCost iotago.Mana
}

func NewClient(apiInstance iotago.API, opts ...options.Option[Client]) *Client {
	return options.Apply(&Client{
		api:                   apiInstance,
		outputs:               make(map[iotago.OutputID]*storedOutput),
		transactions:          make(map[iotago.TransactionID]*transaction),
		unavailable:           make(map[iotago.OutputID]struct{}),
		issuerAccountID:       tpkg.RandAccountID(),
		optsTransactionState:  api.TransactionStateAccepted,
		optsFailureReason:     api.TxFailureNone,
		optsReferenceManaCost: 1,
	}, opts)
}

// WithAcceptAfter makes transactions report the pending state for the given amount of polls.
func WithAcceptAfter(polls int) options.Option[Client] {
	return func(c *Client) {
		c.optsAcceptAfter = polls
	}
}

// WithTransactionState sets the state reported for transactions once they are no longer pending.
func WithTransactionState(state api.TransactionState, reason api.TransactionFailureReason) options.Option[Client] {
	return func(c *Client) {
		c.optsTransactionState = state
		c.optsFailureReason = reason
	}
}

// WithSubmitError makes every submission fail with the given error.
func WithSubmitError(err error) options.Option[Client] {
	return func(c *Client) {
		c.optsSubmitErr = err
	}
}

// WithIndexerError makes every indexer query fail with the given error.
func WithIndexerError(err error) options.Option[Client] {
	return func(c *Client) {
		c.optsIndexerErr = err
	}
}

func (c *Client) URL() string {
	return "http://mock"
}

func (c *Client) CommittedAPI() iotago.API {
	return c.api
}

func (c *Client) LatestAPI() iotago.API {
	return c.api
}

func (c *Client) APIForSlot(_ iotago.SlotIndex) iotago.API {
	return c.api
}

func (c *Client) Health(_ context.Context) (bool, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.healthPolls++

	return c.optsHealthyAfter >= 0 && c.healthPolls > c.optsHealthyAfter, nil
}

func (c *Client) Info(_ context.Context) (*api.InfoResponse, error) {
	return &api.InfoResponse{
		Name:    "mock",
		Version: "0.0.0",
	}, nil
}

func (c *Client) BlockIssuance(_ context.Context) (*api.IssuanceBlockHeaderResponse, error) {
	return &api.IssuanceBlockHeaderResponse{
		StrongParents:       iotago.BlockIDs{tpkg.RandBlockID()},
		LatestFinalizedSlot: c.optsLatestCommitSlot,
		LatestCommitment:    iotago.NewCommitment(c.api.Version(), c.optsLatestCommitSlot, iotago.CommitmentID{}, iotago.Identifier{}, 0, c.optsReferenceManaCost),
	}, nil
}

func (c *Client) BlockIssuerInfo(_ context.Context) (*api.BlockIssuerInfo, error) {
	return &api.BlockIssuerInfo{
		BlockIssuerAddress: c.issuerAccountID.ToAddress().Bech32(c.api.ProtocolParameters().Bech32HRP()),
	}, nil
}

// IssuerAccountID returns the account of the mocked block issuer service.
func (c *Client) IssuerAccountID() iotago.AccountID {
	return c.issuerAccountID
}

func (c *Client) SendPayload(_ context.Context, payload iotago.ApplicationPayload, _ iotago.CommitmentID) (iotago.BlockID, error) {
	if c.optsSubmitErr != nil {
		return iotago.EmptyBlockID, c.optsSubmitErr
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.payloads = append(c.payloads, payload)

	return c.bookPayload(payload)
}

func (c *Client) SubmitBlock(_ context.Context, block *iotago.Block) (iotago.BlockID, error) {
	if c.optsSubmitErr != nil {
		return iotago.EmptyBlockID, c.optsSubmitErr
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.blocks = append(c.blocks, block)

	body, isBasic := block.Body.(*iotago.BasicBlockBody)
	if !isBasic {
		return iotago.EmptyBlockID, ierrors.New("only basic blocks are supported")
	}

	if _, err := c.bookPayload(body.Payload); err != nil {
		return iotago.EmptyBlockID, err
	}

	return block.ID()
}

func (c *Client) bookPayload(payload iotago.Payload) (iotago.BlockID, error) {
	signedTx, isTransaction := payload.(*iotago.SignedTransaction)
	if !isTransaction {
		return tpkg.RandBlockID(), nil
	}

	txID, err := signedTx.Transaction.ID()
	if err != nil {
		return iotago.EmptyBlockID, err
	}

	for _, utxoInput := range signedTx.Transaction.Inputs() {
		if stored, exists := c.outputs[utxoInput.OutputID()]; !exists || stored.spent {
			return iotago.EmptyBlockID, ierrors.Errorf("input %s is unknown or already spent", utxoInput.OutputID())
		}
	}

	// failed transactions leave the ledger untouched
	if c.optsTransactionState != api.TransactionStateFailed {
		for _, utxoInput := range signedTx.Transaction.Inputs() {
			stored := c.outputs[utxoInput.OutputID()]
			stored.spent = true
			stored.spentBy = txID
		}

		for index, output := range signedTx.Transaction.Outputs {
			outputID := iotago.OutputIDFromTransactionIDAndIndex(txID, uint16(index))
			c.outputs[outputID] = &storedOutput{id: outputID, output: output}
		}
	}

	c.transactions[txID] = &transaction{
		signedTx:   signedTx,
		acceptedAt: c.optsAcceptAfter,
	}

	var blockID iotago.BlockID
	copy(blockID[:], txID[:])

	return blockID, nil
}

// SignedTransactions returns all transactions booked so far.
func (c *Client) SignedTransactions() []*iotago.SignedTransaction {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	signedTxs := make([]*iotago.SignedTransaction, 0, len(c.transactions))
	for _, tx := range c.transactions {
		signedTxs = append(signedTxs, tx.signedTx)
	}

	return signedTxs
}

// SubmittedBlocks returns the blocks submitted through SubmitBlock.
func (c *Client) SubmittedBlocks() []*iotago.Block {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return append([]*iotago.Block(nil), c.blocks...)
}

// SentPayloads returns the payloads handed to the block issuer service.
func (c *Client) SentPayloads() []iotago.ApplicationPayload {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return append([]iotago.ApplicationPayload(nil), c.payloads...)
}

// Polls returns how often the state of the transaction was requested.
func (c *Client) Polls(txID iotago.TransactionID) int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if tx, exists := c.transactions[txID]; exists {
		return tx.polled
	}

	return 0
}

func (c *Client) TransactionMetadata(_ context.Context, txID iotago.TransactionID) (*api.TransactionMetadataResponse, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	tx, exists := c.transactions[txID]
	if !exists {
		return nil, ierrors.Wrapf(ErrNotFound, "transaction %s", txID)
	}
	tx.polled++

	if tx.acceptedAt < 0 || tx.polled <= tx.acceptedAt {
		return &api.TransactionMetadataResponse{
			TransactionID:            txID,
			TransactionState:         api.TransactionStatePending,
			TransactionFailureReason: api.TxFailureNone,
		}, nil
	}

	return &api.TransactionMetadataResponse{
		TransactionID:            txID,
		TransactionState:         c.optsTransactionState,
		TransactionFailureReason: c.optsFailureReason,
	}, nil
}

// NeverAccept keeps all transactions pending forever.
// WithHealthyAfter makes the node report itself unhealthy for the given amount of health checks.
// A negative amount keeps it unhealthy.
func WithHealthyAfter(checks int) options.Option[Client] {
	return func(c *Client) {
		c.optsHealthyAfter = checks
	}
}

func NeverAccept() options.Option[Client] {
	return WithAcceptAfter(-1)
}

func (c *Client) OutputWithMetadataByID(_ context.Context, outputID iotago.OutputID) (iotago.Output, *api.OutputMetadata, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	stored, exists := c.outputs[outputID]
	if _, unavailable := c.unavailable[outputID]; !exists || unavailable {
		return nil, nil, ierrors.Wrapf(ErrNotFound, "output %s", outputID)
	}

	metadata := &api.OutputMetadata{
		OutputID: outputID,
	}
	if stored.spent {
		metadata.Spent = &api.OutputConsumptionMetadata{
			TransactionID: stored.spentBy,
		}
	}

	return stored.output, metadata, nil
}

func (c *Client) AnchorOutput(_ context.Context, anchorID iotago.AnchorID) (iotago.OutputID, *iotago.AnchorOutput, error) {
	if c.optsIndexerErr != nil {
		return iotago.EmptyOutputID, nil, c.optsIndexerErr
	}

	c.mutex.RLock()
	defer c.mutex.RUnlock()

	for _, stored := range c.outputs {
		anchorOutput, isAnchor := stored.output.(*iotago.AnchorOutput)
		if !isAnchor || stored.spent {
			continue
		}

		// new anchors derive their id from the output that created them
		id := anchorOutput.AnchorID
		if id.Empty() {
			id = iotago.AnchorIDFromOutputID(stored.id)
		}

		if id == anchorID {
			return stored.id, anchorOutput, nil
		}
	}

	return iotago.EmptyOutputID, nil, ierrors.Wrapf(ErrNotFound, "anchor %s", anchorID.ToHex())
}

func (c *Client) OutputIDs(ctx context.Context, query *api.BasicOutputsQuery) (iotago.OutputIDs, error) {
	outputs, err := c.Outputs(ctx, query)
	if err != nil {
		return nil, err
	}

	outputIDs := make(iotago.OutputIDs, 0, len(outputs))
	for _, output := range outputs {
		outputIDs = append(outputIDs, output.ID)
	}

	return outputIDs, nil
}

func (c *Client) Outputs(_ context.Context, query *api.BasicOutputsQuery) ([]*ledger.Output, error) {
	if c.optsIndexerErr != nil {
		return nil, c.optsIndexerErr
	}

	c.mutex.RLock()
	defer c.mutex.RUnlock()

	matches := make([]*ledger.Output, 0)
	for _, stored := range c.outputs {
		if stored.spent || !c.matches(stored.output, query) {
			continue
		}

		matches = append(matches, &ledger.Output{ID: stored.id, Output: stored.output})
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].ID.ToHex() < matches[j].ID.ToHex()
	})

	return matches, nil
}

func (c *Client) matches(output iotago.Output, query *api.BasicOutputsQuery) bool {
	basicOutput, isBasic := output.(*iotago.BasicOutput)
	if !isBasic {
		return false
	}

	hrp := c.api.ProtocolParameters().Bech32HRP()
	unlockConditions := basicOutput.UnlockConditionSet()
	features := basicOutput.FeatureSet()

	if query.AddressBech32 != "" && unlockConditions.Address().Address.Bech32(hrp) != query.AddressBech32 {
		return false
	}

	if query.Tag != "" {
		tag := features.Tag()
		if tag == nil || hexutil.EncodeHex(tag.Tag) != query.Tag {
			return false
		}
	}

	if query.SenderBech32 != "" {
		sender := features.SenderFeature()
		if sender == nil || sender.Address.Bech32(hrp) != query.SenderBech32 {
			return false
		}
	}

	if query.HasTimelock != nil && *query.HasTimelock != (unlockConditions.Timelock() != nil) {
		return false
	}

	if query.HasExpiration != nil && *query.HasExpiration != (unlockConditions.Expiration() != nil) {
		return false
	}

	return true
}

// Fund books an output holding amount base tokens on the address, like a faucet would.
func (c *Client) Fund(address iotago.Address, amount iotago.BaseToken) iotago.OutputID {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	// the creation slot stays zero so that the output is older than any transaction spending it
	var txID iotago.TransactionID
	identifier := tpkg.Rand32ByteArray()
	copy(txID[:], identifier[:])

	outputID := iotago.OutputIDFromTransactionIDAndIndex(txID, 0)
	c.outputs[outputID] = &storedOutput{
		id: outputID,
		output: &iotago.BasicOutput{
			Amount: amount,
			UnlockConditions: iotago.BasicOutputUnlockConditions{
				&iotago.AddressUnlockCondition{Address: address},
			},
			Features: iotago.BasicOutputFeatures{},
		},
	}

	return outputID
}

// Book stores an arbitrary output under a fresh output ID.
func (c *Client) Book(output iotago.Output) iotago.OutputID {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	outputID := tpkg.RandOutputID(0)
	c.outputs[outputID] = &storedOutput{id: outputID, output: output}

	return outputID
}

// SetUnavailable makes the output unknown to OutputWithMetadataByID while the indexer still lists it.
func (c *Client) SetUnavailable(outputID iotago.OutputID, unavailable bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if unavailable {
		c.unavailable[outputID] = struct{}{}
	} else {
		delete(c.unavailable, outputID)
	}
}

// Spend marks the output as consumed.
func (c *Client) Spend(outputID iotago.OutputID) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if stored, exists := c.outputs[outputID]; exists {
		stored.spent = true
	}
}

var _ ledger.Client = &Client{}
