package jwt_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/purity/pkg/jwt"
)

func newAuth(t *testing.T, salt string, sessionTimeout time.Duration) *jwt.Auth {
	auth, err := jwt.NewAuth(salt, sessionTimeout, "purity", []byte("secret material"))
	require.NoError(t, err)

	return auth
}

func TestIssueAndVerify(t *testing.T) {
	auth := newAuth(t, "IOTA", 0)

	token, err := auth.IssueJWT()
	require.NoError(t, err)

	claims, err := auth.VerifyJWT(token)
	require.NoError(t, err)
	require.True(t, claims.API)
	require.True(t, claims.VerifySubject("purity"))
	require.Zero(t, claims.ExpiresAt)
}

func TestVerifyRejectsForeignTokens(t *testing.T) {
	token, err := newAuth(t, "IOTA", 0).IssueJWT()
	require.NoError(t, err)

	_, err = newAuth(t, "other salt", 0).VerifyJWT(token)
	require.True(t, ierrors.Is(err, jwt.ErrInvalidToken))

	_, err = newAuth(t, "IOTA", 0).VerifyJWT(token + "x")
	require.True(t, ierrors.Is(err, jwt.ErrInvalidToken))
}

func TestVerifyRejectsExpiredTokens(t *testing.T) {
	auth := newAuth(t, "IOTA", -time.Minute)

	token, err := auth.IssueJWT()
	require.NoError(t, err)

	_, err = auth.VerifyJWT(token)
	require.True(t, ierrors.Is(err, jwt.ErrInvalidToken))
}

func TestNewAuthRequiresSalt(t *testing.T) {
	_, err := jwt.NewAuth("", 0, "purity", nil)
	require.ErrorIs(t, err, jwt.ErrEmptySalt)
}

func TestMiddleware(t *testing.T) {
	auth := newAuth(t, "IOTA", time.Hour)
	token, err := auth.IssueJWT()
	require.NoError(t, err)

	e := echo.New()
	e.Use(auth.Middleware(func(c echo.Context) bool {
		return c.Request().URL.Path == "/health"
	}))
	ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	e.GET("/health", ok)
	e.GET("/api/data", ok)

	tests := []struct {
		name   string
		path   string
		header string
		status int
	}{
		{"public route", "/health", "", http.StatusOK},
		{"missing token", "/api/data", "", http.StatusUnauthorized},
		{"wrong scheme", "/api/data", "Basic " + token, http.StatusUnauthorized},
		{"invalid token", "/api/data", "Bearer invalid", http.StatusUnauthorized},
		{"valid token", "/api/data", "Bearer " + token, http.StatusOK},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, test.path, nil)
			if test.header != "" {
				req.Header.Set("Authorization", test.header)
			}
			rec := httptest.NewRecorder()

			e.ServeHTTP(rec, req)
			require.Equal(t, test.status, rec.Code)
		})
	}
}
