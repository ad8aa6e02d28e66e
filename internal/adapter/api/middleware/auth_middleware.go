package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"minimarket/internal/domain/entity"
	"minimarket/pkg/errors"
	"minimarket/pkg/response"
)

const identityKey = "identity"

// SessionResolver turns an ID token into an identity. A nil identity with a
// nil error means the token is not a live session.
type SessionResolver interface {
	CurrentSession(ctx context.Context, idToken string) (*entity.Identity, error)
}

type AuthMiddleware struct {
	sessions SessionResolver
}

func NewAuthMiddleware(sessions SessionResolver) *AuthMiddleware {
	return &AuthMiddleware{
		sessions: sessions,
	}
}

// Authenticate rejects requests without a live session.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, ok := bearerToken(c)
		if !ok {
			return response.Error(c, errors.LoginRequired(""))
		}

		identity, err := m.sessions.CurrentSession(c.Request().Context(), token)
		if err != nil {
			return response.Error(c, err)
		}
		if identity == nil {
			return response.Error(c, errors.Unauthorized("Invalid or expired session", nil))
		}

		c.Set(identityKey, identity)
		return next(c)
	}
}

// Optional resolves the session when one is presented and lets anonymous
// requests through.
func (m *AuthMiddleware) Optional(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, ok := bearerToken(c)
		if !ok {
			return next(c)
		}

		identity, err := m.sessions.CurrentSession(c.Request().Context(), token)
		if err != nil {
			return response.Error(c, err)
		}
		if identity != nil {
			c.Set(identityKey, identity)
		}
		return next(c)
	}
}

// Resolve checks a token that did not arrive in a header, such as a websocket
// query parameter.
func (m *AuthMiddleware) Resolve(ctx context.Context, token string) (*entity.Identity, error) {
	return m.sessions.CurrentSession(ctx, token)
}

// IdentityFrom returns the caller's identity, or nil for anonymous requests.
func IdentityFrom(c echo.Context) *entity.Identity {
	identity, _ := c.Get(identityKey).(*entity.Identity)
	return identity
}

func bearerToken(c echo.Context) (string, bool) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
