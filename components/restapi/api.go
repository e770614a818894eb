package restapi

import (
	"github.com/labstack/echo/v4"

	"github.com/iotaledger/purity/pkg/restapi"
)

func apiMiddleware() echo.MiddlewareFunc {
	publicRoutesRegEx, err := restapi.CompileRoutesAsRegexes(ParamsRestAPI.PublicRoutes)
	if err != nil {
		Component.LogFatal(err.Error())
	}

	protectedRoutesRegEx, err := restapi.CompileRoutesAsRegexes(ParamsRestAPI.ProtectedRoutes)
	if err != nil {
		Component.LogFatal(err.Error())
	}

	exposedRoutesRegEx := append(append(publicRoutesRegEx[:0:0], publicRoutesRegEx...), protectedRoutesRegEx...)

	salt := ParamsRestAPI.JWTAuth.Salt
	if len(salt) == 0 {
		Component.LogFatalf("'%s' should not be empty", Component.App().Config().GetParameterPath(&(ParamsRestAPI.JWTAuth.Salt)))
	}

	jwtAuth, err := NewAuth(salt, deps.SecretStore)
	if err != nil {
		Component.LogPanicf("JWT auth initialization failed: %s", err)
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		jwtMiddlewareHandler := jwtAuth.Middleware(func(c echo.Context) bool {
			return restapi.MatchRoute(publicRoutesRegEx, c.Request().URL.Path)
		})(next)

		return func(c echo.Context) error {
			// routes that are neither public nor protected are not exposed
			if !restapi.MatchRoute(exposedRoutesRegEx, c.Request().URL.Path) {
				return echo.ErrForbidden
			}

			return jwtMiddlewareHandler(c)
		}
	}
}
