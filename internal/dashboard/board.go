// Package dashboard holds the operator's read-only view of the event: one
// snapshot of profiles, lodgings and sessions plus the statistics computed
// from it.  A snapshot is never patched; every refresh builds a new one and
// swaps it in whole.
package dashboard

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/event-ops/internal/client"
	"github.com/iliyamo/event-ops/internal/model"
	"github.com/iliyamo/event-ops/internal/stats"
)

// ErrDiscarded is returned by Refresh when a newer refresh, or Abandon,
// made its response irrelevant.  The current view is left untouched.
var ErrDiscarded = errors.New("dashboard: response discarded")

// Source is the read side of the API.  *client.Client satisfies it.
type Source interface {
	AllProfiles(ctx context.Context, cred client.Credential) ([]model.Profile, error)
	ListLodgings(ctx context.Context, cred client.Credential) ([]model.LodgingWithOccupation, error)
	ListSessions(ctx context.Context, cred client.Credential) ([]model.SessionWithOccupancy, error)
}

// View is one immutable snapshot and its summary.
type View struct {
	Generation uint64
	FetchedAt  time.Time
	Snapshot   stats.Snapshot
	Summary    stats.Summary
}

// Board is safe for concurrent use.
type Board struct {
	src  Source
	cred client.Credential
	now  func() time.Time

	gen  atomic.Uint64
	view atomic.Pointer[View]
}

func New(src Source, cred client.Credential) *Board {
	if src == nil {
		panic("nil source passed to dashboard.New")
	}
	return &Board{src: src, cred: cred, now: time.Now}
}

// Current returns the latest view, or nil before the first refresh.
func (b *Board) Current() *View { return b.view.Load() }

// Abandon marks every refresh still in flight as stale.  Their responses
// are dropped when they arrive.
func (b *Board) Abandon() { b.gen.Add(1) }

// Refresh fetches the three lists in parallel and installs a new view.  A
// failed fetch leaves the previous view in place.
func (b *Board) Refresh(ctx context.Context) (*View, error) {
	gen := b.gen.Add(1)

	var snap stats.Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		snap.Profiles, err = b.src.AllProfiles(gctx, b.cred)
		return err
	})
	g.Go(func() (err error) {
		snap.Lodgings, err = b.src.ListLodgings(gctx, b.cred)
		return err
	})
	g.Go(func() (err error) {
		snap.Sessions, err = b.src.ListSessions(gctx, b.cred)
		return err
	})
	if err := g.Wait(); err != nil {
		if b.gen.Load() != gen {
			return nil, ErrDiscarded
		}
		return nil, err
	}
	if b.gen.Load() != gen {
		return nil, ErrDiscarded
	}

	v := &View{Generation: gen, FetchedAt: b.now(), Snapshot: snap, Summary: stats.Compute(snap)}
	for {
		cur := b.view.Load()
		if cur != nil && cur.Generation > gen {
			return nil, ErrDiscarded
		}
		if b.view.CompareAndSwap(cur, v) {
			return v, nil
		}
	}
}

// Lodging returns the lodging with id from the current view.
func (b *Board) Lodging(id uint64) (model.LodgingWithOccupation, bool) {
	v := b.Current()
	if v == nil {
		return model.LodgingWithOccupation{}, false
	}
	for _, l := range v.Snapshot.Lodgings {
		if l.ID == id {
			return l, true
		}
	}
	return model.LodgingWithOccupation{}, false
}

// Unassigned returns the participants without a lodging in the current
// view, in snapshot order.
func (b *Board) Unassigned() []model.Profile {
	v := b.Current()
	if v == nil {
		return nil
	}
	var out []model.Profile
	for _, p := range v.Snapshot.Profiles {
		if p.LodgeID == nil {
			out = append(out, p)
		}
	}
	return out
}
