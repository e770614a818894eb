package data

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/iotaledger/hive.go/log"
	iotago "github.com/iotaledger/iota.go/v4"
	"github.com/iotaledger/iota.go/v4/hexutil"
	"github.com/iotaledger/iota.go/v4/tpkg"
	"github.com/iotaledger/iota.go/v4/wallet"
	"github.com/iotaledger/purity/pkg/account"
	"github.com/iotaledger/purity/pkg/datachannel"
	"github.com/iotaledger/purity/pkg/issuer"
	restapipkg "github.com/iotaledger/purity/pkg/restapi"
	"github.com/iotaledger/purity/pkg/testsuite/mock"
)

const testTag = "wallet-lib"

type testServer struct {
	Echo    *echo.Echo
	Client  *mock.Client
	Account *account.Account
}

func newTestServer(t *testing.T, maxResults int) *testServer {
	client := mock.NewClient(iotago.V3API(iotago.NewV3SnapshotProtocolParameters(iotago.WithVersion(3))))

	keyManager, err := wallet.NewKeyManagerFromRandom(wallet.DefaultIOTAPath)
	require.NoError(t, err)

	acc, err := account.New(client, keyManager)
	require.NoError(t, err)

	deps = dependencies{
		Channel:                 datachannel.New(log.NewLogger(), client, acc, issuer.NewServiceIssuer(client), datachannel.WithRetryInterval(time.Millisecond)),
		RestAPILimitsMaxResults: maxResults,
	}

	e := echo.New()
	e.HTTPErrorHandler = restapipkg.ErrorHandler()
	registerRoutes(e.Group("/api/data/v1"))

	return &testServer{
		Echo:    e,
		Client:  client,
		Account: acc,
	}
}

func (s *testServer) request(t *testing.T, method string, path string, body any) *httptest.ResponseRecorder {
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, path, nil)
	} else {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)

		req = httptest.NewRequest(method, path, strings.NewReader(string(encoded)))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}

	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)

	return rec
}

func (s *testServer) write(t *testing.T, req *restapipkg.WriteRequest) *restapipkg.WriteResponse {
	rec := s.request(t, http.MethodPost, "/api/data/v1/outputs", req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	resp := &restapipkg.WriteResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), resp))

	return resp
}

func TestWriteOutputCreated(t *testing.T) {
	s := newTestServer(t, 10)
	s.Client.Fund(s.Account.Address(0), 10_000_000)

	payload := []byte("hello world")
	written := s.write(t, &restapipkg.WriteRequest{Tag: testTag, Payload: hexutil.EncodeHex(payload)})
	require.True(t, written.Included)
	require.NotEmpty(t, written.OutputID)

	rec := s.request(t, http.MethodGet, "/api/data/v1/outputs/"+written.OutputID, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	output := &restapipkg.OutputResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), output))
	require.Equal(t, testTag, output.Tag)
	require.Equal(t, hexutil.EncodeHex(payload), output.Payload)
	require.Equal(t, s.Account.Bech32(s.Account.Address(0)), output.Address)
	require.False(t, output.Spent)
}

func TestOutputIDsByTagTruncated(t *testing.T) {
	s := newTestServer(t, 2)
	s.Client.Fund(s.Account.Address(0), 10_000_000)

	for range 3 {
		s.write(t, &restapipkg.WriteRequest{Tag: testTag, Payload: hexutil.EncodeHex([]byte{1, 2, 3})})
	}

	outputIDs, err := deps.Channel.ReadByTag(context.Background(), []byte(testTag))
	require.NoError(t, err)
	require.Len(t, outputIDs, 3)

	rec := s.request(t, http.MethodGet, "/api/data/v1/tags/"+testTag, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := &restapipkg.OutputIDsResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), resp))
	require.Equal(t, testTag, resp.Tag)
	require.Len(t, resp.OutputIDs, 2)
}

func TestOutputByIDWithoutData(t *testing.T) {
	s := newTestServer(t, 10)
	outputID := s.Client.Fund(s.Account.Address(0), 1_000_000)

	rec := s.request(t, http.MethodGet, "/api/data/v1/outputs/"+outputID.ToHex(), nil)
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	resp := &restapipkg.ErrorResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), resp))
	require.Equal(t, http.StatusText(http.StatusBadRequest), resp.Error.Code)
}

func TestWriteOutputInsufficientFunds(t *testing.T) {
	s := newTestServer(t, 10)

	rec := s.request(t, http.MethodPost, "/api/data/v1/outputs", &restapipkg.WriteRequest{
		Tag:     testTag,
		Payload: hexutil.EncodeHex([]byte{1}),
	})
	require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
	require.Empty(t, s.Client.SignedTransactions())
}

func TestWriteOutputInvalidRequests(t *testing.T) {
	s := newTestServer(t, 10)
	s.Client.Fund(s.Account.Address(0), 10_000_000)

	tests := []struct {
		name string
		req  *restapipkg.WriteRequest
	}{
		{"unknown sender index", &restapipkg.WriteRequest{Tag: testTag, Payload: "0x01", SenderIndex: 5}},
		{"payload not hex", &restapipkg.WriteRequest{Tag: testTag, Payload: "zz"}},
		{"empty payload", &restapipkg.WriteRequest{Tag: testTag, Payload: "0x"}},
		{"negative timelock", &restapipkg.WriteRequest{Tag: testTag, Payload: "0x01", Timelock: "-1m"}},
		{"invalid address", &restapipkg.WriteRequest{Tag: testTag, Payload: "0x01", Address: "rms1invalid"}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			rec := s.request(t, http.MethodPost, "/api/data/v1/outputs", test.req)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}

	require.Empty(t, s.Client.SignedTransactions())
}

func TestGenerateAddress(t *testing.T) {
	s := newTestServer(t, 10)

	rec := s.request(t, http.MethodPost, "/api/data/v1/addresses", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	resp := &restapipkg.AddressResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), resp))
	require.EqualValues(t, 1, resp.Index)
	require.Equal(t, s.Account.Bech32(s.Account.Address(1)), resp.Address)

	// the generated address can now fund writes
	s.Client.Fund(s.Account.Address(1), 10_000_000)
	written := s.write(t, &restapipkg.WriteRequest{Tag: testTag, Payload: "0x0102", SenderIndex: resp.Index})
	require.True(t, written.Included)

	rec = s.request(t, http.MethodGet, "/api/data/v1/account", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	summary := &restapipkg.AccountResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), summary))
	require.Len(t, summary.Addresses, 2)
}

func (s *testServer) writeAnchor(t *testing.T, path string, req *restapipkg.AnchorWriteRequest, expectedStatus int) *restapipkg.AnchorWriteResponse {
	rec := s.request(t, http.MethodPost, path, req)
	require.Equal(t, expectedStatus, rec.Code, rec.Body.String())

	resp := &restapipkg.AnchorWriteResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), resp))

	return resp
}

func TestAnchorRoutes(t *testing.T) {
	s := newTestServer(t, 10)
	s.Client.Fund(s.Account.Address(0), 10_000_000)

	created := s.writeAnchor(t, "/api/data/v1/anchors", &restapipkg.AnchorWriteRequest{Payload: "0x0102"}, http.StatusCreated)
	require.True(t, created.Included)
	require.Zero(t, created.StateIndex)

	updated := s.writeAnchor(t, "/api/data/v1/anchors/"+created.AnchorID, &restapipkg.AnchorWriteRequest{Payload: "0x030405"}, http.StatusOK)
	require.Equal(t, created.AnchorID, updated.AnchorID)
	require.EqualValues(t, 1, updated.StateIndex)

	rec := s.request(t, http.MethodGet, "/api/data/v1/anchors/"+created.AnchorID, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	state := &restapipkg.AnchorResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), state))
	require.Equal(t, updated.OutputID, state.OutputID)
	require.EqualValues(t, 1, state.StateIndex)
	require.Equal(t, "0x030405", state.Payload)
}

func TestAnchorRoutesErrors(t *testing.T) {
	s := newTestServer(t, 10)
	s.Client.Fund(s.Account.Address(0), 10_000_000)

	foreign := tpkg.RandEd25519Address()
	anchorID := tpkg.RandAnchorID()
	s.Client.Book(&iotago.AnchorOutput{
		Amount:   1_000_000,
		AnchorID: anchorID,
		UnlockConditions: iotago.AnchorOutputUnlockConditions{
			&iotago.StateControllerAddressUnlockCondition{Address: foreign},
			&iotago.GovernorAddressUnlockCondition{Address: foreign},
		},
	})

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"foreign state controller", http.MethodPost, "/api/data/v1/anchors/" + anchorID.ToHex(), &restapipkg.AnchorWriteRequest{Payload: "0x01"}, http.StatusForbidden},
		{"anchor without data", http.MethodGet, "/api/data/v1/anchors/" + anchorID.ToHex(), nil, http.StatusBadRequest},
		{"invalid anchor id", http.MethodGet, "/api/data/v1/anchors/0x1234", nil, http.StatusBadRequest},
		{"empty payload", http.MethodPost, "/api/data/v1/anchors", &restapipkg.AnchorWriteRequest{Payload: "0x"}, http.StatusBadRequest},
		{"unknown sender index", http.MethodPost, "/api/data/v1/anchors", &restapipkg.AnchorWriteRequest{Payload: "0x01", SenderIndex: 4}, http.StatusBadRequest},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			rec := s.request(t, test.method, test.path, test.body)
			require.Equal(t, test.status, rec.Code, rec.Body.String())
		})
	}

	require.Empty(t, s.Client.SignedTransactions())
}
