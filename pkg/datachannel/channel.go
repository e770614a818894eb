// Package datachannel writes tagged binary payloads to the ledger as basic outputs and reads
// them back by tag.
package datachannel

import (
	"time"

	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/log"
	"github.com/iotaledger/hive.go/runtime/options"
	iotago "github.com/iotaledger/iota.go/v4"
	"github.com/iotaledger/purity/pkg/account"
	"github.com/iotaledger/purity/pkg/issuer"
	"github.com/iotaledger/purity/pkg/ledger"
)

// MetadataKey is the metadata feature entry the payload is stored under.
const MetadataKey = "data"

var (
	ErrInvalidTag        = ierrors.New("tag must hold between 1 and 64 bytes")
	ErrEmptyPayload      = ierrors.New("payload must not be empty")
	ErrTransactionFailed = ierrors.New("transaction failed")
	ErrNotBasicOutput    = ierrors.New("output is not a basic output")
	ErrMetadataNotFound  = ierrors.New("output carries no data")
	ErrTagNotFound       = ierrors.New("output carries no tag")
)

// Channel writes data outputs funded by an account and reads them back through the indexer.
type Channel struct {
	Events *Events

	client  ledger.Client
	account *account.Account
	issuer  issuer.Issuer

	log.Logger

	optsInclusionRetries int
	optsRetryInterval    time.Duration
	optsExplorerURL      string
}

// WithInclusionRetries sets how often the inclusion state of a transaction is polled.
func WithInclusionRetries(retries int) options.Option[Channel] {
	return func(c *Channel) {
		c.optsInclusionRetries = retries
	}
}

// WithRetryInterval sets the time between two inclusion polls.
func WithRetryInterval(interval time.Duration) options.Option[Channel] {
	return func(c *Channel) {
		c.optsRetryInterval = interval
	}
}

// WithExplorerURL sets the explorer that block links are logged for.
func WithExplorerURL(url string) options.Option[Channel] {
	return func(c *Channel) {
		c.optsExplorerURL = url
	}
}

// New creates a channel that writes with the funds of the account and issues through the issuer.
func New(logger log.Logger, client ledger.Client, acc *account.Account, blockIssuer issuer.Issuer, opts ...options.Option[Channel]) *Channel {
	return options.Apply(&Channel{
		Events:               NewEvents(),
		Logger:               logger,
		client:               client,
		account:              acc,
		issuer:               blockIssuer,
		optsInclusionRetries: 10,
		optsRetryInterval:    2 * time.Second,
	}, opts)
}

// Account returns the account funding the writes.
func (c *Channel) Account() *account.Account {
	return c.account
}

// BlockLink returns the explorer link of the block, or an empty string without explorer.
func (c *Channel) BlockLink(blockID iotago.BlockID) string {
	if c.optsExplorerURL == "" {
		return ""
	}

	return c.optsExplorerURL + "/block/" + blockID.ToHex()
}
