// Package clienttest provides an in-process stand-in for the server that
// satisfies the same method set as *client.Client.
package clienttest

import (
	"context"
	"sync"

	"github.com/iliyamo/event-ops/internal/client"
	"github.com/iliyamo/event-ops/internal/model"
	"github.com/iliyamo/event-ops/internal/repository/memory"
)

// Authority answers client calls straight from a memory.Store.  Calls
// records every method name in order.  When BeforeWrite is set it runs
// ahead of each mutation, after whatever reads the caller did first, which
// lets a test change the store behind the caller's back.
type Authority struct {
	Store       *memory.Store
	BeforeWrite func(op string)

	mu    sync.Mutex
	calls []string
}

func New(store *memory.Store) *Authority {
	return &Authority{Store: store}
}

// Calls returns the methods invoked so far.
func (a *Authority) Calls() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.calls...)
}

// Writes returns only the mutating calls.
func (a *Authority) Writes() []string {
	var out []string
	for _, c := range a.Calls() {
		switch c {
		case "AssignParticipants", "RemoveParticipant", "SetKeyOwner", "UpdateLodging",
			"RegisterParticipants", "UnregisterParticipant", "UpdateSession":
			out = append(out, c)
		}
	}
	return out
}

func (a *Authority) enter(ctx context.Context, cred client.Credential, op string, write bool) error {
	a.mu.Lock()
	a.calls = append(a.calls, op)
	hook := a.BeforeWrite
	a.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if cred.Token == "" {
		return &model.Error{Code: model.CodeUnauthorized, Message: "no credential"}
	}
	if write && hook != nil {
		hook(op)
	}
	return nil
}

func (a *Authority) SearchProfiles(ctx context.Context, cred client.Credential, q model.ProfileSearch) (model.ProfilePage, error) {
	if err := a.enter(ctx, cred, "SearchProfiles", false); err != nil {
		return model.ProfilePage{}, err
	}
	return a.Store.Profiles().Search(ctx, q)
}

func (a *Authority) AllProfiles(ctx context.Context, cred client.Credential) ([]model.Profile, error) {
	if err := a.enter(ctx, cred, "AllProfiles", false); err != nil {
		return nil, err
	}
	out := []model.Profile{}
	q := model.ProfileSearch{Limit: model.MaxProfileLimit}
	for {
		page, err := a.Store.Profiles().Search(ctx, q)
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

func (a *Authority) LodgeTypes(ctx context.Context, cred client.Credential) ([]model.LodgeType, error) {
	if err := a.enter(ctx, cred, "LodgeTypes", false); err != nil {
		return nil, err
	}
	return a.Store.Lodgings().ListTypes(ctx)
}

func (a *Authority) ListLodgings(ctx context.Context, cred client.Credential) ([]model.LodgingWithOccupation, error) {
	if err := a.enter(ctx, cred, "ListLodgings", false); err != nil {
		return nil, err
	}
	return a.Store.Lodgings().ListWithOccupation(ctx)
}

func (a *Authority) LodgingDetail(ctx context.Context, cred client.Credential, id uint64) (*model.LodgingDetail, error) {
	if err := a.enter(ctx, cred, "LodgingDetail", false); err != nil {
		return nil, err
	}
	return a.Store.Lodgings().GetDetail(ctx, id)
}

func (a *Authority) AssignParticipants(ctx context.Context, cred client.Credential, id uint64, ids []uint64) error {
	if err := a.enter(ctx, cred, "AssignParticipants", true); err != nil {
		return err
	}
	return a.Store.Lodgings().Assign(ctx, id, ids)
}

func (a *Authority) RemoveParticipant(ctx context.Context, cred client.Credential, id, participantID uint64) error {
	if err := a.enter(ctx, cred, "RemoveParticipant", true); err != nil {
		return err
	}
	_, err := a.Store.Lodgings().Remove(ctx, id, participantID)
	return err
}

func (a *Authority) SetKeyOwner(ctx context.Context, cred client.Credential, id, participantID uint64) error {
	if err := a.enter(ctx, cred, "SetKeyOwner", true); err != nil {
		return err
	}
	return a.Store.Lodgings().SetKeyOwner(ctx, id, participantID)
}

func (a *Authority) UpdateLodging(ctx context.Context, cred client.Credential, id uint64, upd model.LodgingUpdate) error {
	if err := a.enter(ctx, cred, "UpdateLodging", true); err != nil {
		return err
	}
	return a.Store.Lodgings().Update(ctx, id, upd)
}

func (a *Authority) ListSessions(ctx context.Context, cred client.Credential) ([]model.SessionWithOccupancy, error) {
	if err := a.enter(ctx, cred, "ListSessions", false); err != nil {
		return nil, err
	}
	return a.Store.Sessions().ListWithOccupation(ctx)
}

func (a *Authority) SessionDetail(ctx context.Context, cred client.Credential, id uint64) (*model.SessionDetail, error) {
	if err := a.enter(ctx, cred, "SessionDetail", false); err != nil {
		return nil, err
	}
	return a.Store.Sessions().GetDetail(ctx, id)
}

func (a *Authority) RegisterParticipants(ctx context.Context, cred client.Credential, id uint64, ids []uint64) error {
	if err := a.enter(ctx, cred, "RegisterParticipants", true); err != nil {
		return err
	}
	return a.Store.Sessions().Register(ctx, id, ids)
}

func (a *Authority) UnregisterParticipant(ctx context.Context, cred client.Credential, id, participantID uint64) error {
	if err := a.enter(ctx, cred, "UnregisterParticipant", true); err != nil {
		return err
	}
	return a.Store.Sessions().Unregister(ctx, id, participantID)
}

func (a *Authority) UpdateSession(ctx context.Context, cred client.Credential, id uint64, upd model.SessionUpdate) error {
	if err := a.enter(ctx, cred, "UpdateSession", true); err != nil {
		return err
	}
	return a.Store.Sessions().Update(ctx, id, upd)
}
