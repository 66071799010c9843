package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/conductor/internal/handler"
	"github.com/iliyamo/conductor/internal/middleware"
)

// Prefix is the root of every API route.
const Prefix = "/api/v1"

// RegisterRoutes registers the liveness probes. They need no authentication
// so load balancers can call them.
func RegisterRoutes(e *echo.Echo) {
	e.GET(Prefix+"/health", handler.Health)
	e.GET(Prefix+"/test/health", handler.TestHealth)
}

// RegisterAuth registers the session endpoints. Login, signup, refresh and
// logout are public; logout accepts either the refresh cookie or a bearer
// token. loginLimit guards the login route on top of the global bucket.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, authn middleware.Authenticator, loginLimit echo.MiddlewareFunc) {
	g := e.Group(Prefix)
	g.POST("/login", a.Login, loginLimit)
	g.POST("/signup", a.Signup)
	g.DELETE("/logout", a.Logout)
	g.POST("/auth/refresh", a.Refresh)

	auth := e.Group(Prefix, middleware.JWTAuth(authn))
	auth.GET("/auth/verify", a.Verify)
	auth.GET("/user", a.Me)
}
