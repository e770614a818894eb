package restapi

import (
	"net/http"
	"sort"

	"github.com/labstack/echo/v4"

	"github.com/iotaledger/hive.go/ds/shrinkingmap"
	"github.com/iotaledger/inx-app/pkg/httpserver"
	"github.com/iotaledger/iota.go/v4/api"
)

type RoutesResponse struct {
	Routes []string `json:"routes"`
}

// RestRouteManager keeps track of the route groups the components add to the API.
type RestRouteManager struct {
	routes *shrinkingmap.ShrinkingMap[string, *echo.Group]
	echo   *echo.Echo
}

func newRestRouteManager(e *echo.Echo) *RestRouteManager {
	return &RestRouteManager{
		routes: shrinkingmap.New[string, *echo.Group](),
		echo:   e,
	}
}

// Routes returns the registered route groups.
func (p *RestRouteManager) Routes() []string {
	routes := p.routes.Keys()
	sort.Strings(routes)

	return routes
}

// AddRoute adds a route group to the API.
func (p *RestRouteManager) AddRoute(route string) *echo.Group {
	if group, exists := p.routes.Get(route); exists {
		return group
	}

	group := p.echo.Group("/api/" + route)
	p.routes.Set(route, group)

	return group
}

func setupRoutes() {
	deps.Echo.GET(api.RouteHealth, func(c echo.Context) error {
		healthy, err := deps.Client.Health(c.Request().Context())
		if err != nil || !healthy {
			return c.NoContent(http.StatusServiceUnavailable)
		}

		return c.NoContent(http.StatusOK)
	})

	deps.Echo.GET(api.RouteRoutes, func(c echo.Context) error {
		return httpserver.JSONResponse(c, http.StatusOK, &RoutesResponse{
			Routes: deps.RestRouteManager.Routes(),
		})
	})
}
