package data

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/lo"
	"github.com/iotaledger/hive.go/runtime/options"
	"github.com/iotaledger/inx-app/pkg/httpserver"
	iotago "github.com/iotaledger/iota.go/v4"
	"github.com/iotaledger/iota.go/v4/hexutil"
	"github.com/iotaledger/purity/pkg/datachannel"
	restapipkg "github.com/iotaledger/purity/pkg/restapi"
)

func outputIDsByTag(c echo.Context) (*restapipkg.OutputIDsResponse, error) {
	tag, err := restapipkg.ParseTagParam(c)
	if err != nil {
		return nil, err
	}

	address, err := restapipkg.ParseBech32Address(c.QueryParam(restapipkg.QueryParameterAddress))
	if err != nil {
		return nil, err
	}

	var outputIDs iotago.OutputIDs
	if address == nil {
		outputIDs, err = deps.Channel.ReadByTag(c.Request().Context(), tag)
	} else {
		outputIDs, err = deps.Channel.Read(c.Request().Context(), tag, address)
	}
	if err != nil {
		return nil, err
	}

	if len(outputIDs) > deps.RestAPILimitsMaxResults {
		outputIDs = outputIDs[:deps.RestAPILimitsMaxResults]
	}

	return &restapipkg.OutputIDsResponse{
		Tag:       string(tag),
		OutputIDs: lo.Map(outputIDs, iotago.OutputID.ToHex),
	}, nil
}

func parseDuration(name string, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		return 0, ierrors.Wrapf(httpserver.ErrInvalidParameter, "invalid %s %q", name, value)
	}

	return d, nil
}

func writeOutput(c echo.Context) (*restapipkg.WriteResponse, error) {
	req := &restapipkg.WriteRequest{}
	if err := c.Bind(req); err != nil {
		return nil, ierrors.Wrapf(httpserver.ErrInvalidParameter, "invalid request: %s", err)
	}

	payload, err := hexutil.DecodeHex(req.Payload)
	if err != nil {
		return nil, ierrors.Wrapf(httpserver.ErrInvalidParameter, "invalid payload: %s", err)
	}

	address, err := restapipkg.ParseBech32Address(req.Address)
	if err != nil {
		return nil, err
	}
	if address == nil {
		if address, err = deps.Channel.Account().GeneratedAddress(req.SenderIndex); err != nil {
			return nil, err
		}
	}

	expiration, err := parseDuration("expiration", req.Expiration)
	if err != nil {
		return nil, err
	}

	timelock, err := parseDuration("timelock", req.Timelock)
	if err != nil {
		return nil, err
	}

	writeOpts := []options.Option[datachannel.WriteOptions]{datachannel.WithSenderIndex(req.SenderIndex)}
	if expiration > 0 {
		writeOpts = append(writeOpts, datachannel.WithExpiration(expiration))
	}
	if timelock > 0 {
		writeOpts = append(writeOpts, datachannel.WithTimelock(timelock))
	}

	result, err := deps.Channel.Write(c.Request().Context(), address, []byte(req.Tag), payload, writeOpts...)
	if err != nil {
		return nil, err
	}

	return &restapipkg.WriteResponse{
		OutputID:      result.OutputID.ToHex(),
		TransactionID: result.TransactionID.ToHex(),
		BlockID:       result.BlockID.ToHex(),
		Included:      result.Included,
		DurationMs:    result.Duration.Milliseconds(),
		BlockLink:     deps.Channel.BlockLink(result.BlockID),
	}, nil
}

func outputByID(c echo.Context) (*restapipkg.OutputResponse, error) {
	outputID, err := restapipkg.ParseOutputIDParam(c)
	if err != nil {
		return nil, err
	}

	outputs, err := deps.Channel.ReadOutputs(c.Request().Context(), iotago.OutputIDs{outputID})
	if err != nil {
		return nil, err
	}
	output := outputs[0]

	payload, err := datachannel.Metadata(output.Output)
	if err != nil {
		return nil, err
	}

	tag, err := datachannel.Tag(output.Output)
	if err != nil {
		return nil, err
	}

	resp := &restapipkg.OutputResponse{
		OutputID: output.ID.ToHex(),
		Tag:      string(tag),
		Payload:  hexutil.EncodeHex(payload),
		Spent:    output.IsSpent(),
	}
	if addressUnlock := output.Output.UnlockConditionSet().Address(); addressUnlock != nil {
		resp.Address = deps.Channel.Account().Bech32(addressUnlock.Address)
	}

	return resp, nil
}

func generateAddress() (*restapipkg.AddressResponse, error) {
	addressData, err := deps.Channel.Account().GenerateAddress()
	if err != nil {
		return nil, err
	}

	return &restapipkg.AddressResponse{
		Index:   addressData.Index,
		Address: deps.Channel.Account().Bech32(addressData.Address),
	}, nil
}

func accountSummary(c echo.Context) (*restapipkg.AccountResponse, error) {
	summary, err := deps.Channel.Account().Summary(c.Request().Context())
	if err != nil {
		return nil, err
	}

	return &restapipkg.AccountResponse{
		Alias:     summary.Alias,
		Addresses: summary.Addresses,
		OutputIDs: lo.Map(summary.OutputIDs, iotago.OutputID.ToHex),
		Balance:   strconv.FormatUint(uint64(summary.Balance), 10),
	}, nil
}

func writeAnchor(c echo.Context, anchorID iotago.AnchorID) (*restapipkg.AnchorWriteResponse, error) {
	req := &restapipkg.AnchorWriteRequest{}
	if err := c.Bind(req); err != nil {
		return nil, ierrors.Wrapf(httpserver.ErrInvalidParameter, "invalid request: %s", err)
	}

	payload, err := hexutil.DecodeHex(req.Payload)
	if err != nil {
		return nil, ierrors.Wrapf(httpserver.ErrInvalidParameter, "invalid payload: %s", err)
	}

	result, err := deps.Channel.WriteAnchor(c.Request().Context(), anchorID, payload, datachannel.WithSenderIndex(req.SenderIndex))
	if err != nil {
		return nil, err
	}

	return &restapipkg.AnchorWriteResponse{
		AnchorID:      result.AnchorID.ToHex(),
		OutputID:      result.OutputID.ToHex(),
		TransactionID: result.TransactionID.ToHex(),
		BlockID:       result.BlockID.ToHex(),
		StateIndex:    result.Output.StateIndex,
		Included:      result.Included,
		DurationMs:    result.Duration.Milliseconds(),
	}, nil
}

func anchorByID(c echo.Context) (*restapipkg.AnchorResponse, error) {
	anchorID, err := restapipkg.ParseAnchorIDParam(c)
	if err != nil {
		return nil, err
	}

	state, err := deps.Channel.ReadAnchor(c.Request().Context(), anchorID)
	if err != nil {
		return nil, err
	}

	return &restapipkg.AnchorResponse{
		AnchorID:   state.AnchorID.ToHex(),
		OutputID:   state.OutputID.ToHex(),
		StateIndex: state.StateIndex,
		Payload:    hexutil.EncodeHex(state.Payload),
	}, nil
}
