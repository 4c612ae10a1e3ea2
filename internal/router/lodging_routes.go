package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ops/internal/handler"
)

// RegisterLodging registers lodgings and lodge types.  Reads are open to
// staff; every change to capacity, type or occupants is admin only.
func RegisterLodging(e *echo.Echo, h *handler.LodgingHandler, o Options) {
	g := operators(e, o)

	// ---- Lodge types ----
	g.GET("/lodge-types", h.ListTypes)
	g.POST("/lodge-types", h.CreateType, adminOnly)

	// ---- Lodgings ----
	g.GET("/lodges", h.List)
	g.GET("/lodges/with-occupation", h.ListWithOccupation)
	g.GET("/lodges/:id", h.Get)
	g.POST("/lodges", h.Create, adminOnly)
	g.PATCH("/lodges/:id", h.Update, adminOnly)

	// ---- Occupants ----
	g.POST("/lodges/:id/participants", h.AssignParticipants, adminOnly)
	g.DELETE("/lodges/:id/participants/:pid", h.RemoveParticipant, adminOnly)
	g.PUT("/lodges/:id/key-owner", h.SetKeyOwner, adminOnly)
}
