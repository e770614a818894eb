package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	iotago "github.com/iotaledger/iota.go/v4"
	"github.com/iotaledger/iota.go/v4/api"
)

func TestPageOutputsRejectsMalformedIDs(t *testing.T) {
	client := &NodeClient{}

	_, err := client.pageOutputs(context.Background(), &api.IndexerResponse{
		Items: iotago.HexOutputIDs{"0xnothex"},
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to parse output IDs")
}

func TestPageOutputsEmptyPage(t *testing.T) {
	client := &NodeClient{}

	outputs, err := client.pageOutputs(context.Background(), &api.IndexerResponse{})
	require.NoError(t, err)
	require.Empty(t, outputs)
}
