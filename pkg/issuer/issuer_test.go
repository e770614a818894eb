package issuer_test

import (
	"context"
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/lo"
	iotago "github.com/iotaledger/iota.go/v4"
	"github.com/iotaledger/iota.go/v4/tpkg"
	"github.com/iotaledger/purity/pkg/issuer"
	"github.com/iotaledger/purity/pkg/testsuite/mock"
)

func testAPI() iotago.API {
	return iotago.V3API(iotago.NewV3SnapshotProtocolParameters(iotago.WithVersion(3)))
}

func TestServiceIssuer(t *testing.T) {
	ctx := context.Background()
	client := mock.NewClient(testAPI())
	serviceIssuer := issuer.NewServiceIssuer(client)

	accountID, err := serviceIssuer.AccountID(ctx)
	require.NoError(t, err)
	require.Equal(t, client.IssuerAccountID(), accountID)

	issuance, err := client.BlockIssuance(ctx)
	require.NoError(t, err)

	payload := &iotago.TaggedData{Tag: []byte("wallet-lib"), Data: []byte("hello")}
	_, err = serviceIssuer.Issue(ctx, payload, issuance)
	require.NoError(t, err)

	sent := client.SentPayloads()
	require.Len(t, sent, 1)
	require.Equal(t, payload, sent[0])
}

func TestServiceIssuerPropagatesErrors(t *testing.T) {
	ctx := context.Background()
	errRejected := ierrors.New("rejected")
	client := mock.NewClient(testAPI(), mock.WithSubmitError(errRejected))

	issuance, err := client.BlockIssuance(ctx)
	require.NoError(t, err)

	_, err = issuer.NewServiceIssuer(client).Issue(ctx, &iotago.TaggedData{Tag: []byte("t")}, issuance)
	require.True(t, ierrors.Is(err, errRejected))
}

func TestAccountIssuer(t *testing.T) {
	ctx := context.Background()
	client := mock.NewClient(testAPI())

	_, privateKey, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	accountID := tpkg.RandAccountID()
	accountIssuer := issuer.NewAccountIssuer(client, accountID, privateKey)

	issuerAccountID, err := accountIssuer.AccountID(ctx)
	require.NoError(t, err)
	require.Equal(t, accountID, issuerAccountID)

	issuance, err := client.BlockIssuance(ctx)
	require.NoError(t, err)

	payload := &iotago.TaggedData{Tag: []byte("wallet-lib"), Data: []byte("hello")}
	blockID, err := accountIssuer.Issue(ctx, payload, issuance)
	require.NoError(t, err)

	blocks := client.SubmittedBlocks()
	require.Len(t, blocks, 1)
	require.Equal(t, accountID, blocks[0].Header.IssuerID)
	require.Equal(t, blockID, lo.PanicOnErr(blocks[0].ID()))

	body, isBasic := blocks[0].Body.(*iotago.BasicBlockBody)
	require.True(t, isBasic)
	require.Equal(t, payload, body.Payload)
	require.Equal(t, issuance.StrongParents, body.StrongParents)
}
