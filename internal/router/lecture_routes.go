package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ops/internal/handler"
)

// RegisterLectures registers sessions.  Staff may register and unregister
// participants at the desk; creating and editing sessions is admin only.
func RegisterLectures(e *echo.Echo, h *handler.SessionHandler, o Options) {
	g := operators(e, o)

	g.GET("/lectures", h.List)
	g.GET("/lectures/with-occupation", h.ListWithOccupation)
	g.GET("/lectures/:id", h.Get)
	g.POST("/lectures", h.Create, adminOnly)
	g.PATCH("/lectures/:id", h.Update, adminOnly)

	g.POST("/lectures/:id/registrations", h.Register)
	g.DELETE("/lectures/:id/registrations/:pid", h.Unregister)
}

// RegisterProfiles registers the participant listing, check-in and payment,
// plus the public profile page lookup, which needs no token.
func RegisterProfiles(e *echo.Echo, h *handler.ProfileHandler, o Options) {
	pub := e.Group("/v1/p", o.chain()...)
	pub.GET("/:slug", h.Public)

	g := operators(e, o)

	g.GET("/profiles", h.List)
	g.GET("/profiles/:id", h.Get)
	g.POST("/profiles", h.Create, adminOnly)
	g.POST("/profiles/:id/check-in", h.CheckIn)
	g.POST("/profiles/:id/payment", h.TogglePayment)
}
