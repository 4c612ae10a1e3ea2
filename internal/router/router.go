package router // package router registers the HTTP routes of the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ops/internal/handler"
	"github.com/iliyamo/event-ops/internal/middleware"
	"github.com/iliyamo/event-ops/internal/model"
)

// Options carries the cross-cutting middleware every data route shares.
// Nil entries are skipped.
type Options struct {
	JWTSecret string
	RateLimit echo.MiddlewareFunc
	Cache     echo.MiddlewareFunc
}

func (o Options) chain(extra ...echo.MiddlewareFunc) []echo.MiddlewareFunc {
	var out []echo.MiddlewareFunc
	for _, m := range append(extra, o.RateLimit, o.Cache) {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}

// operators returns a /v1 group open to every operator role.
func operators(e *echo.Echo, o Options) *echo.Group {
	return e.Group("/v1", o.chain(
		middleware.JWTAuth(o.JWTSecret),
		middleware.RequireRole(model.RoleStaff, model.RoleAdmin),
	)...)
}

var adminOnly = middleware.RequireRole(model.RoleAdmin)

// RegisterRoutes registers routes that do not require authentication.
func RegisterRoutes(e *echo.Echo, health echo.HandlerFunc) {
	e.GET("/healthz", health)
	e.GET("/v1/healthz", health)
}

// RegisterAuth registers login, token rotation and operator management.
// Token, refresh and logout are public; register is admin only.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, o Options) {
	pub := e.Group("/v1/auth")
	if o.RateLimit != nil {
		pub.Use(o.RateLimit)
	}
	pub.POST("/token", a.Token)
	pub.POST("/refresh", a.Refresh)
	pub.POST("/logout", a.Logout)

	auth := e.Group("/v1", middleware.JWTAuth(o.JWTSecret), middleware.RequireRole(model.RoleStaff, model.RoleAdmin))
	auth.GET("/me", a.Me)
	auth.POST("/auth/register", a.Register, adminOnly)
}

// RegisterDashboard exposes the server-side summary.
func RegisterDashboard(e *echo.Echo, d *handler.DashboardHandler, o Options) {
	g := operators(e, o)
	g.GET("/dashboard", d.Summary)
}
