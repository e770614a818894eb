package deposit_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iotaledger/hive.go/runtime/options"
	"github.com/iotaledger/iota.go/v4/tpkg"
	"github.com/iotaledger/purity/pkg/deposit"

	iotago "github.com/iotaledger/iota.go/v4"
)

func TestMinDeposit(t *testing.T) {
	protocolParams := iotago.NewV3SnapshotProtocolParameters(iotago.WithVersion(3))
	storageScoreStructure := iotago.NewStorageScoreStructure(protocolParams.StorageScoreParameters())

	address := tpkg.RandEd25519Address()

	type test struct {
		name         string
		options      []options.Option[deposit.Options]
		targetOutput iotago.Output
	}

	tests := []*test{
		{
			name:    "ok - plain basic output",
			options: []options.Option[deposit.Options]{deposit.WithAddress(address)},
			targetOutput: &iotago.BasicOutput{
				UnlockConditions: iotago.BasicOutputUnlockConditions{
					&iotago.AddressUnlockCondition{Address: address},
				},
			},
		},
		{
			name: "ok - data output",
			options: []options.Option[deposit.Options]{
				deposit.WithAddress(address),
				deposit.WithSenderAddress(address),
				deposit.WithTagLength(10),
				deposit.WithMetadata("data", 16),
			},
			targetOutput: &iotago.BasicOutput{
				UnlockConditions: iotago.BasicOutputUnlockConditions{
					&iotago.AddressUnlockCondition{Address: address},
				},
				Features: iotago.BasicOutputFeatures{
					&iotago.SenderFeature{Address: address},
					&iotago.MetadataFeature{Entries: iotago.MetadataFeatureEntries{"data": make([]byte, 16)}},
					&iotago.TagFeature{Tag: make([]byte, 10)},
				},
			},
		},
		{
			name: "ok - data output with expiration",
			options: []options.Option[deposit.Options]{
				deposit.WithAddress(address),
				deposit.WithExpirationAddress(address),
				deposit.WithTagLength(10),
				deposit.WithMetadata("data", 16),
			},
			targetOutput: &iotago.BasicOutput{
				UnlockConditions: iotago.BasicOutputUnlockConditions{
					&iotago.AddressUnlockCondition{Address: address},
					&iotago.ExpirationUnlockCondition{ReturnAddress: address},
				},
				Features: iotago.BasicOutputFeatures{
					&iotago.MetadataFeature{Entries: iotago.MetadataFeatureEntries{"data": make([]byte, 16)}},
					&iotago.TagFeature{Tag: make([]byte, 10)},
				},
			},
		},
		{
			name: "ok - data output with timelock",
			options: []options.Option[deposit.Options]{
				deposit.WithAddress(address),
				deposit.WithHasTimelock(),
				deposit.WithTagLength(4),
			},
			targetOutput: &iotago.BasicOutput{
				UnlockConditions: iotago.BasicOutputUnlockConditions{
					&iotago.AddressUnlockCondition{Address: address},
					&iotago.TimelockUnlockCondition{},
				},
				Features: iotago.BasicOutputFeatures{
					&iotago.TagFeature{Tag: make([]byte, 4)},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			minDeposit, err := deposit.MinDeposit(protocolParams, tt.options...)
			require.NoError(t, err)

			expected, err := storageScoreStructure.MinDeposit(tt.targetOutput)
			require.NoError(t, err)

			require.Equal(t, expected, minDeposit)
		})
	}
}

func TestMinDepositGrowsWithPayload(t *testing.T) {
	protocolParams := iotago.NewV3SnapshotProtocolParameters(iotago.WithVersion(3))

	small, err := deposit.MinDeposit(protocolParams, deposit.WithTagLength(10), deposit.WithMetadata("data", 16))
	require.NoError(t, err)

	large, err := deposit.MinDeposit(protocolParams, deposit.WithTagLength(10), deposit.WithMetadata("data", 1024))
	require.NoError(t, err)

	require.Greater(t, large, small)
}
