package ledger

import (
	"context"
	"time"

	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/runtime/options"
	"github.com/iotaledger/hive.go/runtime/syncutils"
	iotago "github.com/iotaledger/iota.go/v4"
	"github.com/iotaledger/iota.go/v4/api"
	"github.com/iotaledger/iota.go/v4/nodeclient"
)

// Client is the subset of the node API the wallet needs.
type Client interface {
	// URL returns the base URL of the node.
	URL() string
	// CommittedAPI returns the API of the latest committed slot.
	CommittedAPI() iotago.API
	// LatestAPI returns the API of the latest known protocol version.
	LatestAPI() iotago.API
	// APIForSlot returns the API valid for the given slot.
	APIForSlot(slot iotago.SlotIndex) iotago.API

	// Health reports whether the node considers itself healthy.
	Health(ctx context.Context) (bool, error)
	// Info returns the node info.
	Info(ctx context.Context) (*api.InfoResponse, error)
	// BlockIssuance returns the parents and the commitment to issue a block on top of.
	BlockIssuance(ctx context.Context) (*api.IssuanceBlockHeaderResponse, error)
	// BlockIssuerInfo returns the info of the block issuer service of the node.
	BlockIssuerInfo(ctx context.Context) (*api.BlockIssuerInfo, error)
	// SendPayload lets the block issuer service of the node wrap the payload in a block.
	SendPayload(ctx context.Context, payload iotago.ApplicationPayload, commitmentID iotago.CommitmentID) (iotago.BlockID, error)
	// SubmitBlock submits an already signed block.
	SubmitBlock(ctx context.Context, block *iotago.Block) (iotago.BlockID, error)
	// TransactionMetadata returns the inclusion state of a transaction.
	TransactionMetadata(ctx context.Context, txID iotago.TransactionID) (*api.TransactionMetadataResponse, error)
	// OutputWithMetadataByID returns an output and its metadata.
	OutputWithMetadataByID(ctx context.Context, outputID iotago.OutputID) (iotago.Output, *api.OutputMetadata, error)

	// OutputIDs queries the indexer for basic outputs and returns the ids of all pages.
	OutputIDs(ctx context.Context, query *api.BasicOutputsQuery) (iotago.OutputIDs, error)
	// Outputs queries the indexer for basic outputs and returns the outputs of all pages.
	Outputs(ctx context.Context, query *api.BasicOutputsQuery) ([]*Output, error)
	// AnchorOutput queries the indexer for the current output of an anchor.
	AnchorOutput(ctx context.Context, anchorID iotago.AnchorID) (iotago.OutputID, *iotago.AnchorOutput, error)
}

// Output is an output together with its id and, if fetched, its metadata.
type Output struct {
	ID       iotago.OutputID
	Output   iotago.Output
	Metadata *api.OutputMetadata
}

// IsSpent reports whether the metadata marks the output as consumed.
func (o *Output) IsSpent() bool {
	return o.Metadata != nil && o.Metadata.Spent != nil
}

// NodeClient implements Client on top of the iota.go node client.
type NodeClient struct {
	url    string
	client *nodeclient.Client

	indexer     nodeclient.IndexerClient
	blockIssuer nodeclient.BlockIssuerClient
	mutex       syncutils.Mutex

	optsRequestTimeout time.Duration
}

// NewNodeClient connects to the node behind url.
func NewNodeClient(url string, opts ...options.Option[NodeClient]) (*NodeClient, error) {
	c := options.Apply(&NodeClient{
		url:                url,
		optsRequestTimeout: 10 * time.Second,
	}, opts)

	client, err := nodeclient.New(url)
	if err != nil {
		return nil, ierrors.Wrapf(err, "failed to connect to node %s", url)
	}
	c.client = client

	return c, nil
}

// WithRequestTimeout sets the timeout applied to every request without a deadline.
func WithRequestTimeout(timeout time.Duration) options.Option[NodeClient] {
	return func(c *NodeClient) {
		c.optsRequestTimeout = timeout
	}
}

func (c *NodeClient) URL() string {
	return c.url
}

func (c *NodeClient) CommittedAPI() iotago.API {
	return c.client.CommittedAPI()
}

func (c *NodeClient) LatestAPI() iotago.API {
	return c.client.LatestAPI()
}

func (c *NodeClient) APIForSlot(slot iotago.SlotIndex) iotago.API {
	return c.client.APIForSlot(slot)
}

func (c *NodeClient) Health(ctx context.Context) (bool, error) {
	ctx, cancel := c.requestContext(ctx)
	defer cancel()

	return c.client.Health(ctx)
}

func (c *NodeClient) Info(ctx context.Context) (*api.InfoResponse, error) {
	ctx, cancel := c.requestContext(ctx)
	defer cancel()

	return c.client.Info(ctx)
}

func (c *NodeClient) BlockIssuance(ctx context.Context) (*api.IssuanceBlockHeaderResponse, error) {
	ctx, cancel := c.requestContext(ctx)
	defer cancel()

	return c.client.BlockIssuance(ctx)
}

func (c *NodeClient) BlockIssuerInfo(ctx context.Context) (*api.BlockIssuerInfo, error) {
	ctx, cancel := c.requestContext(ctx)
	defer cancel()

	blockIssuer, err := c.blockIssuerClient(ctx)
	if err != nil {
		return nil, err
	}

	return blockIssuer.Info(ctx)
}

func (c *NodeClient) SendPayload(ctx context.Context, payload iotago.ApplicationPayload, commitmentID iotago.CommitmentID) (iotago.BlockID, error) {
	ctx, cancel := c.requestContext(ctx)
	defer cancel()

	blockIssuer, err := c.blockIssuerClient(ctx)
	if err != nil {
		return iotago.EmptyBlockID, err
	}

	resp, err := blockIssuer.SendPayload(ctx, payload, commitmentID)
	if err != nil {
		return iotago.EmptyBlockID, err
	}

	return resp.BlockID, nil
}

func (c *NodeClient) SubmitBlock(ctx context.Context, block *iotago.Block) (iotago.BlockID, error) {
	ctx, cancel := c.requestContext(ctx)
	defer cancel()

	return c.client.SubmitBlock(ctx, block)
}

func (c *NodeClient) TransactionMetadata(ctx context.Context, txID iotago.TransactionID) (*api.TransactionMetadataResponse, error) {
	ctx, cancel := c.requestContext(ctx)
	defer cancel()

	return c.client.TransactionMetadata(ctx, txID)
}

func (c *NodeClient) OutputWithMetadataByID(ctx context.Context, outputID iotago.OutputID) (iotago.Output, *api.OutputMetadata, error) {
	ctx, cancel := c.requestContext(ctx)
	defer cancel()

	return c.client.OutputWithMetadataByID(ctx, outputID)
}

func (c *NodeClient) AnchorOutput(ctx context.Context, anchorID iotago.AnchorID) (iotago.OutputID, *iotago.AnchorOutput, error) {
	ctx, cancel := c.requestContext(ctx)
	defer cancel()

	indexer, err := c.indexerClient(ctx)
	if err != nil {
		return iotago.EmptyOutputID, nil, err
	}

	//nolint:forcetypeassert
	outputID, output, _, err := indexer.Anchor(ctx, anchorID.ToAddress().(*iotago.AnchorAddress))
	if err != nil {
		return iotago.EmptyOutputID, nil, ierrors.Wrapf(err, "failed to query anchor %s", anchorID.ToHex())
	}

	return *outputID, output, nil
}

func (c *NodeClient) OutputIDs(ctx context.Context, query *api.BasicOutputsQuery) (iotago.OutputIDs, error) {
	var outputIDs iotago.OutputIDs

	if err := c.forEachPage(ctx, query, func(res *nodeclient.IndexerResultSet) error {
		pageIDs, err := res.Response.Items.OutputIDs()
		if err != nil {
			return ierrors.Wrap(err, "failed to parse output IDs")
		}
		outputIDs = append(outputIDs, pageIDs...)

		return nil
	}); err != nil {
		return nil, err
	}

	return outputIDs, nil
}

func (c *NodeClient) Outputs(ctx context.Context, query *api.BasicOutputsQuery) ([]*Output, error) {
	var outputs []*Output

	if err := c.forEachPage(ctx, query, func(res *nodeclient.IndexerResultSet) error {
		pageOutputs, err := c.pageOutputs(ctx, res.Response)
		if err != nil {
			return err
		}
		outputs = append(outputs, pageOutputs...)

		return nil
	}); err != nil {
		return nil, err
	}

	return outputs, nil
}

// pageOutputs fetches the outputs of an indexer page. The result set's own Outputs panics on malformed ids.
func (c *NodeClient) pageOutputs(ctx context.Context, page *api.IndexerResponse) ([]*Output, error) {
	pageIDs, err := page.Items.OutputIDs()
	if err != nil {
		return nil, ierrors.Wrap(err, "failed to parse output IDs")
	}

	outputs := make([]*Output, 0, len(pageIDs))
	for _, outputID := range pageIDs {
		output, err := c.client.OutputByID(ctx, outputID)
		if err != nil {
			return nil, ierrors.Wrapf(err, "failed to fetch output %s", outputID.ToHex())
		}

		outputs = append(outputs, &Output{
			ID:     outputID,
			Output: output,
		})
	}

	return outputs, nil
}

func (c *NodeClient) forEachPage(ctx context.Context, query *api.BasicOutputsQuery, consumer func(res *nodeclient.IndexerResultSet) error) error {
	indexer, err := c.indexerClient(ctx)
	if err != nil {
		return err
	}

	res, err := indexer.Outputs(ctx, query)
	if err != nil {
		return ierrors.Wrap(err, "indexer request failed")
	}

	for res.Next() {
		if err := consumer(res); err != nil {
			return err
		}
	}

	if res.Error != nil {
		return ierrors.Wrap(res.Error, "indexer request failed")
	}

	return nil
}

func (c *NodeClient) indexerClient(ctx context.Context) (nodeclient.IndexerClient, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.indexer == nil {
		indexer, err := c.client.Indexer(ctx)
		if err != nil {
			return nil, ierrors.Wrap(err, "node does not provide the indexer plugin")
		}
		c.indexer = indexer
	}

	return c.indexer, nil
}

func (c *NodeClient) blockIssuerClient(ctx context.Context) (nodeclient.BlockIssuerClient, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.blockIssuer == nil {
		blockIssuer, err := c.client.BlockIssuer(ctx)
		if err != nil {
			return nil, ierrors.Wrap(err, "node does not provide the block issuer plugin")
		}
		c.blockIssuer = blockIssuer
	}

	return c.blockIssuer, nil
}

func (c *NodeClient) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline || c.optsRequestTimeout <= 0 {
		return ctx, func() {}
	}

	return context.WithTimeout(ctx, c.optsRequestTimeout)
}
