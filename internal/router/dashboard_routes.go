package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/startup-ecosystem/internal/handler"
	"github.com/iliyamo/startup-ecosystem/internal/middleware"
	"github.com/iliyamo/startup-ecosystem/internal/model"
)

// RegisterFounder registers the founder dashboard under /v1/founder. The
// browse lists are the same for every founder, so they sit behind the
// shared response cache; the founder's own requests never do.
func RegisterFounder(e *echo.Echo, h *handler.FounderHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	g := e.Group(
		"/v1/founder",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleFounder),
	)
	g.GET("/mentors", h.ListMentors, cache)
	g.GET("/investors", h.ListInvestors, cache)
	g.GET("/events", h.ListEvents, cache)

	g.GET("/requests", h.MyRequests)
	g.POST("/funding-requests", h.SubmitFunding)
	g.POST("/mentor-requests", h.SubmitMentorship)
}

// RegisterSupporters registers the investor and mentor dashboards. Both
// share one handler; the role claim selects the request kind.
func RegisterSupporters(e *echo.Echo, h *handler.SupporterHandler, jwtSecret string) {
	for prefix, role := range map[string]model.Role{
		"/v1/investor": model.RoleInvestor,
		"/v1/mentor":   model.RoleMentor,
	} {
		g := e.Group(prefix, middleware.JWTAuth(jwtSecret), middleware.RequireRole(role))
		g.GET("/requests", h.Pending)
		g.POST("/requests/:id/accept", h.Accept)
		g.POST("/requests/:id/reject", h.Reject)
	}
}

// RegisterProfile registers self-service profile endpoints for every role
// that owns a profile.
func RegisterProfile(e *echo.Echo, h *handler.ProfileHandler, jwtSecret string) {
	g := e.Group(
		"/v1/me/profile",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleFounder, model.RoleMentor, model.RoleInvestor),
	)
	g.GET("", h.Get)
	g.PUT("", h.Update)
}

// RegisterAdmin registers ADMIN-scoped endpoints under /v1/admin.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)

	// ---- Users ----
	g.GET("/users", h.ListUsers) // ?role=Founder|Mentor|Investor
	g.POST("/users", h.CreateUser)
	g.PUT("/users/:id", h.UpdateUser)
	g.DELETE("/users/:id", h.DeleteUser)

	// ---- Events ----
	g.GET("/events", h.ListEvents)
	g.POST("/events", h.CreateEvent)
	g.PUT("/events/:id", h.UpdateEvent)
	g.DELETE("/events/:id", h.DeleteEvent)

	// ---- Reports ----
	g.GET("/reports/funding", h.FundingReport)
}
