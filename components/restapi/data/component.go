package data

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/dig"

	"github.com/iotaledger/hive.go/app"
	"github.com/iotaledger/inx-app/pkg/httpserver"
	iotago "github.com/iotaledger/iota.go/v4"
	"github.com/iotaledger/purity/components/restapi"
	"github.com/iotaledger/purity/pkg/datachannel"
	restapipkg "github.com/iotaledger/purity/pkg/restapi"
)

const (
	// RouteTag returns the ids of the data outputs carrying the tag.
	// GET returns the output ids.
	// Query parameter "address" restricts the outputs to the ones locked to the bech32 address.
	RouteTag = "/tags/:" + restapipkg.ParameterTag

	// RouteOutputs writes a data output.
	// POST takes a WriteRequest and returns a WriteResponse once the inclusion wait ended.
	RouteOutputs = "/outputs"

	// RouteOutput returns a data output and its payload.
	RouteOutput = "/outputs/:" + restapipkg.ParameterOutputID

	// RouteAccount returns the addresses, unspent outputs and balance of the account.
	RouteAccount = "/account"

	// RouteAddresses generates the next address of the account.
	// POST returns the index and the bech32 address.
	RouteAddresses = "/addresses"

	// RouteAnchors creates an anchor holding the payload in its state.
	// POST takes an AnchorWriteRequest and returns an AnchorWriteResponse.
	RouteAnchors = "/anchors"

	// RouteAnchor returns the current state of an anchor.
	// GET returns an AnchorResponse.
	// POST takes an AnchorWriteRequest and transitions the anchor to the next state.
	RouteAnchor = "/anchors/:" + restapipkg.ParameterAnchorID
)

func init() {
	Component = &app.Component{
		Name:      "DataAPI",
		DepsFunc:  func(cDeps dependencies) { deps = cDeps },
		Configure: configure,
		IsEnabled: func(c *dig.Container) bool {
			return restapi.ParamsRestAPI.Enabled
		},
	}
}

var (
	Component *app.Component
	deps      dependencies
)

type dependencies struct {
	dig.In

	Channel                 *datachannel.Channel
	RestRouteManager        *restapi.RestRouteManager
	RestAPILimitsMaxResults int `name:"restAPILimitsMaxResults"`
}

func configure() error {
	registerRoutes(deps.RestRouteManager.AddRoute("data/v1"))

	return nil
}

func registerRoutes(routeGroup *echo.Group) {
	routeGroup.GET(RouteTag, func(c echo.Context) error {
		resp, err := outputIDsByTag(c)
		if err != nil {
			return err
		}

		return httpserver.JSONResponse(c, http.StatusOK, resp)
	})

	routeGroup.POST(RouteOutputs, func(c echo.Context) error {
		resp, err := writeOutput(c)
		if err != nil {
			return err
		}

		return httpserver.JSONResponse(c, http.StatusCreated, resp)
	})

	routeGroup.GET(RouteOutput, func(c echo.Context) error {
		resp, err := outputByID(c)
		if err != nil {
			return err
		}

		return httpserver.JSONResponse(c, http.StatusOK, resp)
	})

	routeGroup.GET(RouteAccount, func(c echo.Context) error {
		resp, err := accountSummary(c)
		if err != nil {
			return err
		}

		return httpserver.JSONResponse(c, http.StatusOK, resp)
	})

	routeGroup.POST(RouteAddresses, func(c echo.Context) error {
		resp, err := generateAddress()
		if err != nil {
			return err
		}

		return httpserver.JSONResponse(c, http.StatusCreated, resp)
	})

	routeGroup.POST(RouteAnchors, func(c echo.Context) error {
		resp, err := writeAnchor(c, iotago.EmptyAnchorID)
		if err != nil {
			return err
		}

		return httpserver.JSONResponse(c, http.StatusCreated, resp)
	})

	routeGroup.GET(RouteAnchor, func(c echo.Context) error {
		resp, err := anchorByID(c)
		if err != nil {
			return err
		}

		return httpserver.JSONResponse(c, http.StatusOK, resp)
	})

	routeGroup.POST(RouteAnchor, func(c echo.Context) error {
		anchorID, err := restapipkg.ParseAnchorIDParam(c)
		if err != nil {
			return err
		}

		resp, err := writeAnchor(c, anchorID)
		if err != nil {
			return err
		}

		return httpserver.JSONResponse(c, http.StatusOK, resp)
	})
}
