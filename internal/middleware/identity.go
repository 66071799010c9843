package middleware

// identity.go keeps the authenticated user on the echo context. JWTAuth sets
// it; handlers and the rate limiter read it back.

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/conductor/internal/auth"
	"github.com/iliyamo/conductor/internal/authz"
	"github.com/iliyamo/conductor/internal/model"
)

const (
	ctxUser   = "user"
	ctxClaims = "claims"
)

// SetIdentity stores the authenticated user and the claims of the token that
// authenticated it.
func SetIdentity(c echo.Context, u model.User, claims *auth.Claims) {
	c.Set(ctxUser, u)
	c.Set(ctxClaims, claims)
}

// CurrentUser returns the user loaded by JWTAuth.
func CurrentUser(c echo.Context) (model.User, bool) {
	u, ok := c.Get(ctxUser).(model.User)
	return u, ok
}

// CurrentClaims returns the verified access token claims.
func CurrentClaims(c echo.Context) (*auth.Claims, bool) {
	cl, ok := c.Get(ctxClaims).(*auth.Claims)
	return cl, ok && cl != nil
}

// Actor is the authorization subject of the request. Unauthenticated
// requests get the zero actor, which owns nothing.
func Actor(c echo.Context) authz.Actor {
	u, ok := CurrentUser(c)
	if !ok {
		return authz.Actor{}
	}
	return authz.Actor{ID: u.ID, Role: u.Role}
}

// userID is the rate-limit identity: the user id, or "anon".
func userID(c echo.Context) string {
	if u, ok := CurrentUser(c); ok {
		return strconv.FormatUint(u.ID, 10)
	}
	return "anon"
}
