// Package issuer wraps payloads into blocks and submits them to the node.
package issuer

import (
	"context"
	"crypto/ed25519"
	"time"

	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/runtime/syncutils"
	iotago "github.com/iotaledger/iota.go/v4"
	"github.com/iotaledger/iota.go/v4/api"
	"github.com/iotaledger/iota.go/v4/builder"
	"github.com/iotaledger/purity/pkg/ledger"
)

// Issuer issues a payload in a block.
type Issuer interface {
	// AccountID returns the account that issues the blocks and therefore receives the mana allotment.
	AccountID(ctx context.Context) (iotago.AccountID, error)
	// Issue wraps the payload in a block on top of the issuance response and submits it.
	Issue(ctx context.Context, payload iotago.ApplicationPayload, issuance *api.IssuanceBlockHeaderResponse) (iotago.BlockID, error)
}

// ServiceIssuer lets the block issuer service of the node issue the blocks.
type ServiceIssuer struct {
	client ledger.Client

	accountID     iotago.AccountID
	accountIDSet  bool
	accountIDLock syncutils.Mutex
}

// NewServiceIssuer creates an issuer backed by the block issuer service of the node.
func NewServiceIssuer(client ledger.Client) *ServiceIssuer {
	return &ServiceIssuer{
		client: client,
	}
}

func (s *ServiceIssuer) AccountID(ctx context.Context) (iotago.AccountID, error) {
	s.accountIDLock.Lock()
	defer s.accountIDLock.Unlock()

	if s.accountIDSet {
		return s.accountID, nil
	}

	info, err := s.client.BlockIssuerInfo(ctx)
	if err != nil {
		return iotago.EmptyAccountID, ierrors.Wrap(err, "failed to get block issuer info")
	}

	_, address, err := iotago.ParseBech32(info.BlockIssuerAddress)
	if err != nil {
		return iotago.EmptyAccountID, ierrors.Wrapf(err, "failed to parse block issuer address %s", info.BlockIssuerAddress)
	}

	accountAddress, isAccountAddress := address.(*iotago.AccountAddress)
	if !isAccountAddress {
		return iotago.EmptyAccountID, ierrors.Errorf("block issuer address %s is not an account address", info.BlockIssuerAddress)
	}

	s.accountID = accountAddress.AccountID()
	s.accountIDSet = true

	return s.accountID, nil
}

func (s *ServiceIssuer) Issue(ctx context.Context, payload iotago.ApplicationPayload, issuance *api.IssuanceBlockHeaderResponse) (iotago.BlockID, error) {
	commitmentID, err := issuance.LatestCommitment.ID()
	if err != nil {
		return iotago.EmptyBlockID, ierrors.Wrap(err, "failed to get commitment id")
	}

	blockID, err := s.client.SendPayload(ctx, payload, commitmentID)
	if err != nil {
		return iotago.EmptyBlockID, ierrors.Wrap(err, "block issuer service rejected the payload")
	}

	return blockID, nil
}

// AccountIssuer signs the blocks with the key of an own block issuer account.
type AccountIssuer struct {
	client     ledger.Client
	accountID  iotago.AccountID
	privateKey ed25519.PrivateKey
}

// NewAccountIssuer creates an issuer for the block issuer account with the given key.
func NewAccountIssuer(client ledger.Client, accountID iotago.AccountID, privateKey ed25519.PrivateKey) *AccountIssuer {
	return &AccountIssuer{
		client:     client,
		accountID:  accountID,
		privateKey: privateKey,
	}
}

func (a *AccountIssuer) AccountID(_ context.Context) (iotago.AccountID, error) {
	return a.accountID, nil
}

func (a *AccountIssuer) Issue(ctx context.Context, payload iotago.ApplicationPayload, issuance *api.IssuanceBlockHeaderResponse) (iotago.BlockID, error) {
	block, err := a.CreateBlock(payload, issuance)
	if err != nil {
		return iotago.EmptyBlockID, err
	}

	blockID, err := a.client.SubmitBlock(ctx, block)
	if err != nil {
		return iotago.EmptyBlockID, ierrors.Wrap(err, "failed to submit block")
	}

	return blockID, nil
}

// CreateBlock builds and signs a basic block carrying the payload.
func (a *AccountIssuer) CreateBlock(payload iotago.ApplicationPayload, issuance *api.IssuanceBlockHeaderResponse) (*iotago.Block, error) {
	issuingTime := time.Now().UTC()
	issuingSlot := a.client.LatestAPI().TimeProvider().SlotFromTime(issuingTime)

	commitmentID, err := issuance.LatestCommitment.ID()
	if err != nil {
		return nil, ierrors.Wrap(err, "failed to get commitment id")
	}

	blockBuilder := builder.NewBasicBlockBuilder(a.client.APIForSlot(issuingSlot))
	blockBuilder.SlotCommitmentID(commitmentID)
	blockBuilder.LatestFinalizedSlot(issuance.LatestFinalizedSlot)
	blockBuilder.IssuingTime(issuingTime)
	blockBuilder.StrongParents(issuance.StrongParents)
	blockBuilder.WeakParents(issuance.WeakParents)
	blockBuilder.ShallowLikeParents(issuance.ShallowLikeParents)
	blockBuilder.Payload(payload)

	// the rmc has to match the commitment the block references
	blockBuilder.CalculateAndSetMaxBurnedMana(issuance.LatestCommitment.ReferenceManaCost)
	blockBuilder.Sign(a.accountID, a.privateKey)

	block, err := blockBuilder.Build()
	if err != nil {
		return nil, ierrors.Wrap(err, "failed to build block")
	}

	return block, nil
}

var (
	_ Issuer = &ServiceIssuer{}
	_ Issuer = &AccountIssuer{}
)
