package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/event-ops/internal/model"
	"github.com/iliyamo/event-ops/internal/stats"
)

// DashboardHandler computes the summary server side from one read of each
// table.
type DashboardHandler struct {
	Profiles ProfileStore
	Lodgings LodgingStore
	Sessions SessionStore
}

func NewDashboardHandler(p ProfileStore, l LodgingStore, s SessionStore) *DashboardHandler {
	return &DashboardHandler{Profiles: p, Lodgings: l, Sessions: s}
}

// AllProfiles pages through the profile listing until every row is read.
func AllProfiles(ctx context.Context, store ProfileStore) ([]model.Profile, error) {
	out := []model.Profile{}
	q := model.ProfileSearch{Limit: model.MaxProfileLimit}
	for {
		page, err := store.Search(ctx, q)
		if err != nil {
			return nil, err
		}
		out = append(out, page.Profiles...)
		if len(page.Profiles) == 0 || len(out) >= page.Total {
			return out, nil
		}
		q.Offset += len(page.Profiles)
	}
}

// Summary handles GET /v1/dashboard.
func (h *DashboardHandler) Summary(c echo.Context) error {
	var snap stats.Snapshot
	g, ctx := errgroup.WithContext(c.Request().Context())
	g.Go(func() (err error) {
		snap.Profiles, err = AllProfiles(ctx, h.Profiles)
		return err
	})
	g.Go(func() (err error) {
		snap.Lodgings, err = h.Lodgings.ListWithOccupation(ctx)
		return err
	})
	g.Go(func() (err error) {
		snap.Sessions, err = h.Sessions.ListWithOccupation(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, stats.Compute(snap))
}
