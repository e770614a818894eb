package restapi_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/inx-app/pkg/httpserver"
	"github.com/iotaledger/iota.go/v4/tpkg"
	"github.com/iotaledger/purity/pkg/account"
	"github.com/iotaledger/purity/pkg/datachannel"
	"github.com/iotaledger/purity/pkg/restapi"
)

func TestCompileRoutesAsRegexes(t *testing.T) {
	regexes, err := restapi.CompileRoutesAsRegexes([]string{"/health", "/api/data/v1/tags*"})
	require.NoError(t, err)

	require.True(t, restapi.MatchRoute(regexes, "/health"))
	require.True(t, restapi.MatchRoute(regexes, "/HEALTH"))
	require.True(t, restapi.MatchRoute(regexes, "/api/data/v1/tags/wallet-lib"))
	require.False(t, restapi.MatchRoute(regexes, "/api/data/v1/outputs"))
	require.False(t, restapi.MatchRoute(regexes, "/healthz"))

	_, err = restapi.CompileRoutesAsRegexes([]string{"^(unclosed"})
	require.Error(t, err)
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{ierrors.Wrap(datachannel.ErrInvalidTag, "tag"), http.StatusBadRequest},
		{datachannel.ErrEmptyPayload, http.StatusBadRequest},
		{ierrors.Wrap(httpserver.ErrInvalidParameter, "param"), http.StatusBadRequest},
		{ierrors.Wrap(account.ErrInsufficientFunds, "funds"), http.StatusConflict},
		{ierrors.Wrapf(account.ErrUnknownAddress, "index %d", 9), http.StatusBadRequest},
		{ierrors.Wrap(datachannel.ErrNotStateController, "anchor"), http.StatusForbidden},
		{datachannel.ErrStateNotFound, http.StatusBadRequest},
		{datachannel.ErrTransactionFailed, http.StatusUnprocessableEntity},
		{echo.NewHTTPError(http.StatusUnauthorized, "token"), http.StatusUnauthorized},
		{ierrors.New("boom"), http.StatusInternalServerError},
	}

	for _, test := range tests {
		require.Equal(t, test.status, restapi.StatusCode(test.err), test.err.Error())
	}
}

func TestErrorHandler(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = restapi.ErrorHandler()
	e.GET("/fail", func(c echo.Context) error {
		return ierrors.Wrap(account.ErrInsufficientFunds, "need 100")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fail", nil))
	require.Equal(t, http.StatusConflict, rec.Code)

	res := &restapi.ErrorResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), res))
	require.Equal(t, http.StatusText(http.StatusConflict), res.Error.Code)
	require.Contains(t, res.Error.Message, "insufficient funds")
}

func TestParseParameters(t *testing.T) {
	e := echo.New()
	outputID := tpkg.RandOutputID(1)

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames(restapi.ParameterOutputID, restapi.ParameterTag)
	c.SetParamValues(outputID.ToHex(), "wallet-lib")

	parsedOutputID, err := restapi.ParseOutputIDParam(c)
	require.NoError(t, err)
	require.Equal(t, outputID, parsedOutputID)

	tag, err := restapi.ParseTagParam(c)
	require.NoError(t, err)
	require.Equal(t, []byte("wallet-lib"), tag)

	c.SetParamValues("0x1234", "")
	_, err = restapi.ParseOutputIDParam(c)
	require.Error(t, err)

	_, err = restapi.ParseTagParam(c)
	require.True(t, ierrors.Is(err, httpserver.ErrInvalidParameter))

	address := tpkg.RandEd25519Address()
	parsed, err := restapi.ParseBech32Address(address.Bech32("rms"))
	require.NoError(t, err)
	require.True(t, address.Equal(parsed))

	parsed, err = restapi.ParseBech32Address("")
	require.NoError(t, err)
	require.Nil(t, parsed)

	_, err = restapi.ParseBech32Address("not-an-address")
	require.True(t, ierrors.Is(err, httpserver.ErrInvalidParameter))
}
