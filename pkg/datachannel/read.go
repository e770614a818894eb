package datachannel

import (
	"context"

	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/lo"
	iotago "github.com/iotaledger/iota.go/v4"
	"github.com/iotaledger/iota.go/v4/api"
	"github.com/iotaledger/iota.go/v4/hexutil"
	"github.com/iotaledger/purity/pkg/ledger"
)

// Query filters the unspent basic outputs returned by the indexer.
type Query struct {
	Tag           []byte
	Address       iotago.Address
	Sender        iotago.Address
	HasExpiration *bool
	HasTimelock   *bool
}

func (q *Query) indexerQuery(hrp iotago.NetworkPrefix) *api.BasicOutputsQuery {
	query := &api.BasicOutputsQuery{}

	if len(q.Tag) > 0 {
		query.Tag = hexutil.EncodeHex(q.Tag)
	}
	if q.Address != nil {
		query.AddressBech32 = q.Address.Bech32(hrp)
	}
	if q.Sender != nil {
		query.SenderBech32 = q.Sender.Bech32(hrp)
	}
	query.HasExpiration = q.HasExpiration
	query.HasTimelock = q.HasTimelock

	return query
}

// Query returns the ids of the unspent basic outputs matching the query.
func (c *Channel) Query(ctx context.Context, query *Query) (iotago.OutputIDs, error) {
	if len(query.Tag) > MaxTagLength {
		return nil, ierrors.Wrapf(ErrInvalidTag, "got %d bytes", len(query.Tag))
	}

	outputIDs, err := c.client.OutputIDs(ctx, query.indexerQuery(c.client.CommittedAPI().ProtocolParameters().Bech32HRP()))
	if err != nil {
		return nil, ierrors.Wrap(err, "failed to query outputs")
	}

	c.Events.OutputsRead.Trigger(outputIDs)

	return outputIDs, nil
}

// ReadByTag returns the ids of all unspent basic outputs carrying the tag.
func (c *Channel) ReadByTag(ctx context.Context, tag []byte) (iotago.OutputIDs, error) {
	if len(tag) == 0 {
		return nil, ErrInvalidTag
	}

	return c.Query(ctx, &Query{Tag: tag})
}

// Read returns the ids of all unspent basic outputs carrying the tag that are locked to address.
func (c *Channel) Read(ctx context.Context, tag []byte, address iotago.Address) (iotago.OutputIDs, error) {
	if len(tag) == 0 {
		return nil, ErrInvalidTag
	}

	return c.Query(ctx, &Query{Tag: tag, Address: address})
}

// ReadOutputs fetches the outputs and their metadata.
func (c *Channel) ReadOutputs(ctx context.Context, outputIDs iotago.OutputIDs) ([]*ledger.Output, error) {
	outputs := make([]*ledger.Output, 0, len(outputIDs))
	for _, outputID := range outputIDs {
		output, metadata, err := c.client.OutputWithMetadataByID(ctx, outputID)
		if err != nil {
			return nil, ierrors.Wrapf(err, "failed to fetch output %s", outputID.ToHex())
		}

		outputs = append(outputs, &ledger.Output{
			ID:       outputID,
			Output:   output,
			Metadata: metadata,
		})
	}

	return outputs, nil
}

// ReadNew returns the outputs carrying the tag and locked to address that the tracker has not seen yet.
// Only outputs that could be fetched are marked as seen, the others are returned again by the next call.
func (c *Channel) ReadNew(ctx context.Context, tracker *Tracker, tag []byte, address iotago.Address) ([]*ledger.Output, error) {
	outputIDs, err := c.Read(ctx, tag, address)
	if err != nil {
		return nil, err
	}

	var fetchErrs []error
	outputs := make([]*ledger.Output, 0)
	for _, outputID := range outputIDs {
		seen, err := tracker.Has(outputID)
		if err != nil {
			return nil, ierrors.Wrapf(err, "failed to look up output %s", outputID.ToHex())
		}
		if seen {
			continue
		}

		fetched, err := c.ReadOutputs(ctx, iotago.OutputIDs{outputID})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			fetchErrs = append(fetchErrs, err)

			continue
		}

		outputs = append(outputs, fetched[0])
	}

	if _, err := tracker.Add(lo.Map(outputs, func(output *ledger.Output) iotago.OutputID { return output.ID })...); err != nil {
		return nil, err
	}

	return outputs, ierrors.Join(fetchErrs...)
}

// Metadata returns the payload stored in the output.
func Metadata(output iotago.Output) ([]byte, error) {
	basicOutput, isBasic := output.(*iotago.BasicOutput)
	if !isBasic {
		return nil, ErrNotBasicOutput
	}

	metadata := basicOutput.FeatureSet().Metadata()
	if metadata == nil {
		return nil, ErrMetadataNotFound
	}

	data, exists := metadata.Entries[MetadataKey]
	if !exists {
		return nil, ErrMetadataNotFound
	}

	return data, nil
}

// Tag returns the tag of the output.
func Tag(output iotago.Output) ([]byte, error) {
	basicOutput, isBasic := output.(*iotago.BasicOutput)
	if !isBasic {
		return nil, ErrNotBasicOutput
	}

	tag := basicOutput.FeatureSet().Tag()
	if tag == nil {
		return nil, ErrTagNotFound
	}

	return tag.Tag, nil
}
