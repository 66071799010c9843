package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/conductor/internal/apperr"
	"github.com/iliyamo/conductor/internal/auth"
	"github.com/iliyamo/conductor/internal/model"
)

// MsgAuthHeaderMissing is returned when no bearer token is sent.
const MsgAuthHeaderMissing = "Authorization header missing"

// Authenticator verifies a raw access token and loads its user.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (model.User, *auth.Claims, error)
}

// JWTAuth requires a valid Bearer access token. The token alone is trusted:
// logout does not revoke access tokens already issued, they simply expire.
// The user row is reloaded on every request so deleted users are rejected.
func JWTAuth(a Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := BearerToken(c)
			if !ok {
				return apperr.Unauthorized(MsgAuthHeaderMissing)
			}
			u, claims, err := a.Authenticate(c.Request().Context(), raw)
			if err != nil {
				return err
			}
			SetIdentity(c, u, claims)
			return next(c)
		}
	}
}

// BearerToken extracts the token of an "Authorization: Bearer <token>" header.
func BearerToken(c echo.Context) (string, bool) {
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	raw := strings.TrimSpace(h[len(prefix):])
	return raw, raw != ""
}
