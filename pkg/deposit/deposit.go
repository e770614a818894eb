// Package deposit computes the minimum storage deposit of the basic outputs the wallet creates.
package deposit

import (
	"github.com/iotaledger/hive.go/runtime/options"
	iotago "github.com/iotaledger/iota.go/v4"
)

// Options describes the shape of a basic output.
type Options struct {
	// UnlockConditions
	Address           iotago.Address
	HasTimelock       bool
	ExpirationAddress iotago.Address

	// Features
	SenderAddress  iotago.Address
	TagLength      int
	MetadataKey    string
	MetadataLength int
}

// WithAddress sets the address for the address unlock condition.
func WithAddress(address iotago.Address) options.Option[Options] {
	return func(opts *Options) {
		opts.Address = address
	}
}

// WithHasTimelock adds a timelock unlock condition.
func WithHasTimelock() options.Option[Options] {
	return func(opts *Options) {
		opts.HasTimelock = true
	}
}

// WithExpirationAddress adds an expiration unlock condition returning to the given address.
func WithExpirationAddress(address iotago.Address) options.Option[Options] {
	return func(opts *Options) {
		opts.ExpirationAddress = address
	}
}

// WithSenderAddress adds a sender feature.
func WithSenderAddress(address iotago.Address) options.Option[Options] {
	return func(opts *Options) {
		opts.SenderAddress = address
	}
}

// WithTagLength adds a tag feature with a dummy tag of the given length.
func WithTagLength(length int) options.Option[Options] {
	return func(opts *Options) {
		opts.TagLength = length
	}
}

// WithMetadata adds a metadata feature with a single entry under key holding length bytes.
func WithMetadata(key string, length int) options.Option[Options] {
	return func(opts *Options) {
		opts.MetadataKey = key
		opts.MetadataLength = length
	}
}

// Output builds a basic output without amount that has the shape described by the options.
func Output(opts ...options.Option[Options]) *iotago.BasicOutput {
	shape := options.Apply(&Options{
		Address: &iotago.Ed25519Address{},
	}, opts)

	unlockConditions := iotago.BasicOutputUnlockConditions{
		&iotago.AddressUnlockCondition{Address: shape.Address},
	}
	if shape.HasTimelock {
		unlockConditions = append(unlockConditions, &iotago.TimelockUnlockCondition{})
	}
	if shape.ExpirationAddress != nil {
		unlockConditions = append(unlockConditions, &iotago.ExpirationUnlockCondition{ReturnAddress: shape.ExpirationAddress})
	}

	features := iotago.BasicOutputFeatures{}
	if shape.SenderAddress != nil {
		features = append(features, &iotago.SenderFeature{Address: shape.SenderAddress})
	}
	if shape.MetadataLength > 0 {
		features = append(features, &iotago.MetadataFeature{
			Entries: iotago.MetadataFeatureEntries{
				iotago.MetadataFeatureEntriesKey(shape.MetadataKey): make([]byte, shape.MetadataLength),
			},
		})
	}
	if shape.TagLength > 0 {
		features = append(features, &iotago.TagFeature{Tag: make([]byte, shape.TagLength)})
	}

	return &iotago.BasicOutput{
		UnlockConditions: unlockConditions,
		Features:         features,
	}
}

// MinDeposit returns the minimum amount of base tokens an output of the described shape must hold.
func MinDeposit(protocolParams iotago.ProtocolParameters, opts ...options.Option[Options]) (iotago.BaseToken, error) {
	return iotago.NewStorageScoreStructure(protocolParams.StorageScoreParameters()).MinDeposit(Output(opts...))
}

// ForOutput returns the minimum deposit of an existing output.
func ForOutput(protocolParams iotago.ProtocolParameters, output iotago.Output) (iotago.BaseToken, error) {
	return iotago.NewStorageScoreStructure(protocolParams.StorageScoreParameters()).MinDeposit(output)
}
