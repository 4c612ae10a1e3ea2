// Package registration signs participants up for lectures and workshops.
// A session with no capacity accepts any number of registrations.
package registration

import (
	"context"

	"github.com/iliyamo/event-ops/internal/client"
	"github.com/iliyamo/event-ops/internal/model"
)

// Authority is the part of the API the manager needs.  *client.Client
// satisfies it.
type Authority interface {
	ListSessions(ctx context.Context, cred client.Credential) ([]model.SessionWithOccupancy, error)
	SessionDetail(ctx context.Context, cred client.Credential, id uint64) (*model.SessionDetail, error)
	RegisterParticipants(ctx context.Context, cred client.Credential, id uint64, participantIDs []uint64) error
	UnregisterParticipant(ctx context.Context, cred client.Credential, id, participantID uint64) error
	UpdateSession(ctx context.Context, cred client.Credential, id uint64, upd model.SessionUpdate) error
}

// Manager runs registration operations on behalf of one operator.
type Manager struct {
	api  Authority
	cred client.Credential
}

func New(api Authority, cred client.Credential) *Manager {
	if api == nil {
		panic("nil authority passed to registration.New")
	}
	return &Manager{api: api, cred: cred}
}

func (m *Manager) ListWithOccupation(ctx context.Context) ([]model.SessionWithOccupancy, error) {
	return m.api.ListSessions(ctx, m.cred)
}

func (m *Manager) GetDetail(ctx context.Context, sessionID uint64) (*model.SessionDetail, error) {
	return m.api.SessionDetail(ctx, m.cred, sessionID)
}

// Register signs one participant up.
func (m *Manager) Register(ctx context.Context, sessionID, participantID uint64) (*model.SessionDetail, error) {
	return m.RegisterMany(ctx, sessionID, participantID)
}

// RegisterMany signs up every participant in ids or none of them.  One
// participant who is already registered rejects the whole batch.
func (m *Manager) RegisterMany(ctx context.Context, sessionID uint64, ids ...uint64) (*model.SessionDetail, error) {
	ids = model.UniqueIDs(ids)
	if len(ids) == 0 {
		return nil, model.Invalid(model.EntitySession, sessionID, "no participants to register")
	}
	d, err := m.api.SessionDetail(ctx, m.cred, sessionID)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if d.Registered(id) {
			return nil, model.Errorf(model.CodeAlreadyRegistered, model.EntityProfile, id, "participant already registered for session %d", sessionID)
		}
	}
	if !d.Fits(len(ids)) {
		return nil, model.Errorf(model.CodeCapacityExceeded, model.EntitySession, sessionID,
			"%d of %d places taken, %d requested", d.Occupancy, *d.MaxCapacity, len(ids))
	}
	if err := m.api.RegisterParticipants(ctx, m.cred, sessionID, ids); err != nil {
		return nil, model.Rejected(err, model.CodeAlreadyRegistered, model.CodeCapacityExceeded)
	}
	return m.api.SessionDetail(ctx, m.cred, sessionID)
}

// Unregister removes one registration.
func (m *Manager) Unregister(ctx context.Context, sessionID, participantID uint64) (*model.SessionDetail, error) {
	d, err := m.api.SessionDetail(ctx, m.cred, sessionID)
	if err != nil {
		return nil, err
	}
	if !d.Registered(participantID) {
		return nil, model.Errorf(model.CodeNotRegistered, model.EntityProfile, participantID, "participant is not registered for session %d", sessionID)
	}
	if err := m.api.UnregisterParticipant(ctx, m.cred, sessionID, participantID); err != nil {
		return nil, model.Rejected(err, model.CodeNotFound, model.CodeNotRegistered)
	}
	return m.api.SessionDetail(ctx, m.cred, sessionID)
}

// UpdateSession edits name, window or capacity.  A window given in full is
// checked before anything is sent; a partial one is checked against the
// current session.  Capacity may not drop below the current occupancy.
func (m *Manager) UpdateSession(ctx context.Context, sessionID uint64, upd model.SessionUpdate) (*model.SessionDetail, error) {
	if upd.Start != nil && upd.End != nil && !upd.Start.Before(*upd.End) {
		return nil, model.Invalid(model.EntitySession, sessionID, "start_date must be before end_date")
	}
	if upd.SetCapacity && upd.MaxCapacity != nil && *upd.MaxCapacity < 1 {
		return nil, model.Invalid(model.EntitySession, sessionID, "max_capacity must be at least 1 or null")
	}
	d, err := m.api.SessionDetail(ctx, m.cred, sessionID)
	if err != nil {
		return nil, err
	}
	if err := upd.Validate(d.Session); err != nil {
		return nil, err
	}
	if upd.SetCapacity && upd.MaxCapacity != nil && *upd.MaxCapacity < d.Occupancy {
		return nil, model.Errorf(model.CodeCapacityBelowOccupation, model.EntitySession, sessionID,
			"capacity %d is below the %d current registrations", *upd.MaxCapacity, d.Occupancy)
	}
	if err := m.api.UpdateSession(ctx, m.cred, sessionID, upd); err != nil {
		return nil, model.Rejected(err, model.CodeNotFound, model.CodeCapacityBelowOccupation)
	}
	return m.api.SessionDetail(ctx, m.cred, sessionID)
}
