package account

import (
	"crypto/ed25519"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/atomic"

	"github.com/iotaledger/hive.go/ds/shrinkingmap"
	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/runtime/options"
	"github.com/iotaledger/hive.go/runtime/syncutils"
	iotago "github.com/iotaledger/iota.go/v4"
	"github.com/iotaledger/iota.go/v4/wallet"
	"github.com/iotaledger/purity/pkg/ledger"
)

// DefaultAlias is the alias of accounts created without an explicit one.
const DefaultAlias = "Alice"

// OutputData holds the details of an output that can be used as a transaction input.
type OutputData struct {
	// ID is the unique identifier of the output.
	ID iotago.OutputID
	// Output is the iotago Output.
	Output iotago.Output
	// Address is the address the output is locked to.
	Address iotago.Address
	// AddressIndex is the index of the address in the key manager.
	AddressIndex uint32
}

// AddressData is a generated address together with its derivation index.
type AddressData struct {
	Index   uint32
	Address *iotago.Ed25519Address
}

// Account derives addresses from a key manager and tracks the outputs it owns.
type Account struct {
	client     ledger.Client
	keyManager *wallet.KeyManager

	state            *State
	lastAddressIndex atomic.Uint32

	// outputs consumed by submitted transactions the indexer may still report as unspent
	pendingSpent *shrinkingmap.ShrinkingMap[iotago.OutputID, time.Time]
	// outputs created by submitted transactions the indexer may not know yet
	pendingCreated *shrinkingmap.ShrinkingMap[iotago.OutputID, *pendingOutput]
	mutex          syncutils.RWMutex

	optsAlias       string
	optsStoragePath string
}

// WithAlias sets the alias of a newly created account.
func WithAlias(alias string) options.Option[Account] {
	return func(a *Account) {
		a.optsAlias = alias
	}
}

// WithStoragePath persists the account state in the given directory.
func WithStoragePath(storagePath string) options.Option[Account] {
	return func(a *Account) {
		a.optsStoragePath = storagePath
	}
}

// New creates an account on top of the key manager. If a storage path is configured and holds a
// state file, the address book is restored from it, otherwise a new state is written.
func New(client ledger.Client, keyManager *wallet.KeyManager, opts ...options.Option[Account]) (*Account, error) {
	a := options.Apply(&Account{
		client:         client,
		keyManager:     keyManager,
		pendingSpent:   shrinkingmap.New[iotago.OutputID, time.Time](),
		pendingCreated: shrinkingmap.New[iotago.OutputID, *pendingOutput](),
		optsAlias:      DefaultAlias,
	}, opts)

	if err := a.loadState(); err != nil {
		return nil, err
	}

	return a, nil
}

func (a *Account) loadState() error {
	if a.optsStoragePath == "" {
		a.state = a.newState()

		return nil
	}

	state, err := readState(a.statePath())
	switch {
	case err == nil:
		if state.BIP32Path != a.keyManager.Path().String() {
			return ierrors.Errorf("account %s was created with BIP32 path %s, got %s", state.Alias, state.BIP32Path, a.keyManager.Path().String())
		}
		a.state = state
		a.lastAddressIndex.Store(state.LastAddressIndex)

		return nil

	case os.IsNotExist(err):
		a.state = a.newState()

		return writeState(a.statePath(), a.state)

	default:
		return ierrors.Wrap(err, "failed to load account state")
	}
}

func (a *Account) newState() *State {
	return &State{
		Alias:     a.optsAlias,
		BIP32Path: a.keyManager.Path().String(),
		CreatedAt: time.Now().UTC(),
	}
}

func (a *Account) statePath() string {
	return filepath.Join(a.optsStoragePath, StateFileName)
}

// Alias returns the name of the account.
func (a *Account) Alias() string {
	return a.state.Alias
}

// Client returns the ledger client the account queries.
func (a *Account) Client() ledger.Client {
	return a.client
}

// Address returns the Ed25519 address derived at index.
func (a *Account) Address(index uint32) *iotago.Ed25519Address {
	//nolint:forcetypeassert
	return a.keyManager.Address(iotago.AddressEd25519, index).(*iotago.Ed25519Address)
}

// Bech32 renders the address with the HRP of the connected network.
func (a *Account) Bech32(address iotago.Address) string {
	return address.Bech32(a.client.CommittedAPI().ProtocolParameters().Bech32HRP())
}

// GenerateAddress derives the next unused address and persists the new address index.
func (a *Account) GenerateAddress() (*AddressData, error) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	index := a.lastAddressIndex.Inc()
	a.state.LastAddressIndex = index

	if a.optsStoragePath != "" {
		if err := writeState(a.statePath(), a.state); err != nil {
			return nil, err
		}
	}

	return &AddressData{Index: index, Address: a.Address(index)}, nil
}

// GeneratedAddress returns the address at index if it belongs to the address book.
func (a *Account) GeneratedAddress(index uint32) (*iotago.Ed25519Address, error) {
	if lastIndex := a.lastAddressIndex.Load(); index > lastIndex {
		return nil, ierrors.Wrapf(ErrUnknownAddress, "index %d, last generated index %d", index, lastIndex)
	}

	return a.Address(index), nil
}

// Addresses returns all addresses generated so far, starting with the first one at index 0.
func (a *Account) Addresses() []*AddressData {
	lastIndex := a.lastAddressIndex.Load()

	addresses := make([]*AddressData, 0, lastIndex+1)
	for index := uint32(0); index <= lastIndex; index++ {
		addresses = append(addresses, &AddressData{Index: index, Address: a.Address(index)})
	}

	return addresses
}

// AddressIndex returns the derivation index of the address, if it belongs to the account.
func (a *Account) AddressIndex(address iotago.Address) (uint32, bool) {
	for _, addressData := range a.Addresses() {
		if addressData.Address.Equal(address) {
			return addressData.Index, true
		}
	}

	return 0, false
}

// KeyPair returns the key pair of the address at index.
func (a *Account) KeyPair(index uint32) (ed25519.PrivateKey, ed25519.PublicKey) {
	return a.keyManager.KeyPair(index)
}

// AddressSigner returns a signer holding the keys of the addresses at the given indexes.
func (a *Account) AddressSigner(indexes ...uint32) iotago.AddressSigner {
	return a.keyManager.AddressSigner(indexes...)
}
