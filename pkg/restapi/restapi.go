// Package restapi contains the request parsing, error mapping and route matching of the HTTP API.
package restapi

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/inx-app/pkg/httpserver"
	iotago "github.com/iotaledger/iota.go/v4"
	"github.com/iotaledger/iota.go/v4/nodeclient"
	"github.com/iotaledger/purity/pkg/account"
	"github.com/iotaledger/purity/pkg/datachannel"
)

const (
	// ParameterTag is the tag path parameter.
	ParameterTag = "tag"
	// ParameterOutputID is the output id path parameter.
	ParameterOutputID = "outputID"
	// ParameterAnchorID is the anchor id path parameter.
	ParameterAnchorID = "anchorID"
	// QueryParameterAddress filters by the bech32 address the outputs are locked to.
	QueryParameterAddress = "address"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// CompileRoutesAsRegexes turns route patterns into regexes. A '*' matches anything, a pattern
// starting with '^' is used as a raw regex.
func CompileRoutesAsRegexes(routes []string) ([]*regexp.Regexp, error) {
	regexes := make([]*regexp.Regexp, 0, len(routes))
	for _, route := range routes {
		pattern := route
		if !strings.HasPrefix(route, "^") {
			pattern = "^" + strings.ReplaceAll(regexp.QuoteMeta(strings.ToLower(route)), `\*`, "(.*?)") + "$"
		}

		regex, err := regexp.Compile(pattern)
		if err != nil {
			return nil, ierrors.Wrapf(err, "invalid route in config: %s", route)
		}

		regexes = append(regexes, regex)
	}

	return regexes, nil
}

// MatchRoute reports whether the path matches one of the regexes.
func MatchRoute(regexes []*regexp.Regexp, path string) bool {
	loweredPath := strings.ToLower(path)
	for _, regex := range regexes {
		if regex.MatchString(loweredPath) {
			return true
		}
	}

	return false
}

// StatusCode maps the errors of the data channel to HTTP status codes.
func StatusCode(err error) int {
	var httpErr *echo.HTTPError
	if ierrors.As(err, &httpErr) {
		return httpErr.Code
	}

	switch {
	case ierrors.Is(err, httpserver.ErrInvalidParameter),
		ierrors.Is(err, datachannel.ErrInvalidTag),
		ierrors.Is(err, datachannel.ErrEmptyPayload),
		ierrors.Is(err, datachannel.ErrMetadataNotFound),
		ierrors.Is(err, datachannel.ErrTagNotFound),
		ierrors.Is(err, datachannel.ErrNotBasicOutput),
		ierrors.Is(err, account.ErrUnknownAddress),
		ierrors.Is(err, datachannel.ErrStateNotFound):
		return http.StatusBadRequest
	case ierrors.Is(err, datachannel.ErrNotStateController):
		return http.StatusForbidden
	case ierrors.Is(err, account.ErrInsufficientFunds):
		return http.StatusConflict
	case ierrors.Is(err, nodeclient.ErrHTTPNotFound):
		return http.StatusNotFound
	case ierrors.Is(err, datachannel.ErrTransactionFailed):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// ErrorHandler renders errors as ErrorResponse.
func ErrorHandler() echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		statusCode := StatusCode(err)

		message := err.Error()
		var httpErr *echo.HTTPError
		if ierrors.As(err, &httpErr) {
			if httpErrMessage, ok := httpErr.Message.(string); ok {
				message = httpErrMessage
			}
		}

		res := &ErrorResponse{}
		res.Error.Code = http.StatusText(statusCode)
		res.Error.Message = message

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(statusCode)

			return
		}

		_ = httpserver.JSONResponse(c, statusCode, res)
	}
}

// ParseOutputIDParam parses the output id path parameter.
func ParseOutputIDParam(c echo.Context) (iotago.OutputID, error) {
	outputID, err := httpserver.ParseOutputIDParam(c, ParameterOutputID)
	if err != nil {
		return iotago.EmptyOutputID, ierrors.Wrapf(err, "failed to parse output ID %s", c.Param(ParameterOutputID))
	}

	return outputID, nil
}

// ParseAnchorIDParam parses the anchor id path parameter.
func ParseAnchorIDParam(c echo.Context) (iotago.AnchorID, error) {
	anchorID, err := iotago.AnchorIDFromHexString(c.Param(ParameterAnchorID))
	if err != nil {
		return iotago.EmptyAnchorID, ierrors.Wrapf(httpserver.ErrInvalidParameter, "invalid anchor ID %s: %s", c.Param(ParameterAnchorID), err)
	}

	return anchorID, nil
}

// ParseTagParam returns the tag path parameter as bytes.
func ParseTagParam(c echo.Context) ([]byte, error) {
	tag := c.Param(ParameterTag)
	if tag == "" || len(tag) > datachannel.MaxTagLength {
		return nil, ierrors.Wrapf(httpserver.ErrInvalidParameter, "invalid tag %q", tag)
	}

	return []byte(tag), nil
}

// ParseBech32Address parses a bech32 address. An empty string yields nil.
func ParseBech32Address(bech32 string) (iotago.Address, error) {
	if bech32 == "" {
		return nil, nil
	}

	_, address, err := iotago.ParseBech32(bech32)
	if err != nil {
		return nil, ierrors.Wrapf(httpserver.ErrInvalidParameter, "invalid address %s: %s", bech32, err)
	}

	return address, nil
}
