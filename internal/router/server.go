package router

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ops/internal/config"
	"github.com/iliyamo/event-ops/internal/handler"
)

// Deps is everything New needs to build the API.  RateLimit, Cache, Events
// and Ping may be nil.
type Deps struct {
	Cfg       config.Config
	Profiles  handler.ProfileStore
	Lodgings  handler.LodgingStore
	Sessions  handler.SessionStore
	Users     handler.UserStore
	Tokens    handler.TokenStore
	Events    handler.ActivityPublisher
	Ping      func(ctx context.Context) error
	RateLimit echo.MiddlewareFunc
	Cache     echo.MiddlewareFunc
}

// New returns an echo instance with every API route registered.  Process
// level middleware (logger, recover) is left to the caller.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	o := Options{JWTSecret: d.Cfg.JWTSecret, RateLimit: d.RateLimit, Cache: d.Cache}

	RegisterRoutes(e, handler.Health(d.Ping))
	RegisterAuth(e, handler.NewAuthHandler(d.Cfg, d.Users, d.Tokens), o)
	RegisterProfiles(e, handler.NewProfileHandler(d.Profiles, d.Events), o)
	RegisterLodging(e, handler.NewLodgingHandler(d.Lodgings, d.Events), o)
	RegisterLectures(e, handler.NewSessionHandler(d.Sessions, d.Events), o)
	RegisterDashboard(e, handler.NewDashboardHandler(d.Profiles, d.Lodgings, d.Sessions), o)
	return e
}
