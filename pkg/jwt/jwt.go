// Package jwt issues and verifies the tokens that grant access to the protected API routes.
package jwt

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/blake2b"

	"github.com/iotaledger/hive.go/ierrors"
)

const (
	headerAuthorization = "Authorization"
	authScheme          = "Bearer"
)

var (
	ErrMissingToken = ierrors.New("missing or malformed jwt")
	ErrInvalidToken = ierrors.New("invalid or expired jwt")
	ErrEmptySalt    = ierrors.New("salt must not be empty")
)

// AuthClaims are the claims of an API token.
type AuthClaims struct {
	jwt.StandardClaims

	API bool `json:"api"`
}

// VerifySubject compares the subject of the claims with the expected one.
func (c *AuthClaims) VerifySubject(expected string) bool {
	return subtle.ConstantTimeCompare([]byte(c.Subject), []byte(expected)) == 1
}

// Auth signs tokens with a secret derived from the salt and the secret material of the wallet.
type Auth struct {
	subject        string
	sessionTimeout time.Duration
	secret         []byte
}

// NewAuth creates an Auth. Tokens issued with a session timeout of zero do not expire.
func NewAuth(salt string, sessionTimeout time.Duration, subject string, secretMaterial []byte) (*Auth, error) {
	if salt == "" {
		return nil, ErrEmptySalt
	}

	secret := blake2b.Sum256(append([]byte(salt), secretMaterial...))

	return &Auth{
		subject:        subject,
		sessionTimeout: sessionTimeout,
		secret:         secret[:],
	}, nil
}

// IssueJWT creates a signed API token.
func (a *Auth) IssueJWT() (string, error) {
	now := time.Now()

	claims := &AuthClaims{
		StandardClaims: jwt.StandardClaims{
			Subject:   a.subject,
			Audience:  a.subject,
			IssuedAt:  now.Unix(),
			NotBefore: now.Unix(),
		},
		API: true,
	}
	if a.sessionTimeout != 0 {
		claims.ExpiresAt = now.Add(a.sessionTimeout).Unix()
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// VerifyJWT parses the token and checks its signature and claims.
func (a *Auth) VerifyJWT(token string) (*AuthClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &AuthClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ierrors.Errorf("unexpected signing method %v", t.Header["alg"])
		}

		return a.secret, nil
	})
	if err != nil {
		return nil, ierrors.Wrap(ErrInvalidToken, err.Error())
	}

	claims, ok := parsed.Claims.(*AuthClaims)
	if !ok || !parsed.Valid || !claims.API || !claims.VerifySubject(a.subject) || !claims.VerifyAudience(a.subject, true) {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// Middleware rejects requests without a valid token unless the skipper allows them.
func (a *Auth) Middleware(skipper func(c echo.Context) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skipper != nil && skipper(c) {
				return next(c)
			}

			header := c.Request().Header.Get(headerAuthorization)
			token, found := strings.CutPrefix(header, authScheme+" ")
			if !found || token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, ErrMissingToken.Error())
			}

			if _, err := a.VerifyJWT(token); err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
			}

			return next(c)
		}
	}
}
