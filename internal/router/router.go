package router // package router defines how HTTP routes are registered for the API

import (
	"net/http"

	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/startup-ecosystem/internal/handler"    // handlers that implement each endpoint
	"github.com/iliyamo/startup-ecosystem/internal/middleware" // JWT authentication and role enforcement
)

// RegisterRoutes registers routes that do not require authentication:
// liveness, readiness and the Prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo, db handler.Pinger, metricsHandler http.Handler) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(db))
	e.GET("/metrics", echo.WrapHandler(metricsHandler))
}

// RegisterAuth registers the session endpoints. Register, login and
// refresh live under /v1/auth behind the optional rate limiter; /v1/me
// requires an access token of any role.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group("/v1/auth", limit)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)                // rotates the refresh token
	g.POST("/refresh-access", a.RefreshAccess)   // new access token only
	// Logout does not require JWT so an expired session can still end.
	g.POST("/logout", a.Logout)
	e.POST("/v1/logout", a.Logout)

	e.GET("/v1/me", a.Me, middleware.JWTAuth(jwtSecret))
}
