// Package lodging assigns participants to finite-capacity lodgings and
// manages who holds each lodging's key.
//
// Every operation checks its rules against a fresh read before asking the
// server, and every mutation re-reads the lodging afterwards so callers
// always get the server's view back.  When the server rejects something
// the local check had allowed, the error matches model.ErrConflict and
// still matches the server's own code.
package lodging

import (
	"context"

	"github.com/iliyamo/event-ops/internal/client"
	"github.com/iliyamo/event-ops/internal/model"
)

// Authority is the part of the API the manager needs.  *client.Client
// satisfies it.
type Authority interface {
	SearchProfiles(ctx context.Context, cred client.Credential, q model.ProfileSearch) (model.ProfilePage, error)
	LodgeTypes(ctx context.Context, cred client.Credential) ([]model.LodgeType, error)
	ListLodgings(ctx context.Context, cred client.Credential) ([]model.LodgingWithOccupation, error)
	LodgingDetail(ctx context.Context, cred client.Credential, id uint64) (*model.LodgingDetail, error)
	AssignParticipants(ctx context.Context, cred client.Credential, id uint64, participantIDs []uint64) error
	RemoveParticipant(ctx context.Context, cred client.Credential, id, participantID uint64) error
	SetKeyOwner(ctx context.Context, cred client.Credential, id, participantID uint64) error
	UpdateLodging(ctx context.Context, cred client.Credential, id uint64, upd model.LodgingUpdate) error
}

// Manager runs lodging operations on behalf of one operator.
type Manager struct {
	api  Authority
	cred client.Credential
}

func New(api Authority, cred client.Credential) *Manager {
	if api == nil {
		panic("nil authority passed to lodging.New")
	}
	return &Manager{api: api, cred: cred}
}

func (m *Manager) ListWithOccupation(ctx context.Context) ([]model.LodgingWithOccupation, error) {
	return m.api.ListLodgings(ctx, m.cred)
}

func (m *Manager) GetDetail(ctx context.Context, lodgingID uint64) (*model.LodgingDetail, error) {
	return m.api.LodgingDetail(ctx, m.cred, lodgingID)
}

// participants loads the profiles for ids and fails with NotFound on the
// first id the server does not know.  The lookup is split into chunks of
// at most one listing page each.
func (m *Manager) participants(ctx context.Context, ids []uint64) ([]model.Profile, error) {
	byID := make(map[uint64]model.Profile, len(ids))
	for start := 0; start < len(ids); start += model.MaxProfileLimit {
		chunk := ids[start:min(start+model.MaxProfileLimit, len(ids))]
		page, err := m.api.SearchProfiles(ctx, m.cred, model.ProfileSearch{IDs: chunk, Limit: model.MaxProfileLimit})
		if err != nil {
			return nil, err
		}
		for _, p := range page.Profiles {
			byID[p.ID] = p
		}
	}
	out := make([]model.Profile, 0, len(ids))
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			return nil, model.Errorf(model.CodeNotFound, model.EntityProfile, id, "participant does not exist")
		}
		out = append(out, p)
	}
	return out, nil
}

// AssignParticipants moves every participant in ids into the lodging or
// none of them.  Duplicate ids collapse; an empty set is invalid.
func (m *Manager) AssignParticipants(ctx context.Context, lodgingID uint64, ids ...uint64) (*model.LodgingDetail, error) {
	ids = model.UniqueIDs(ids)
	if len(ids) == 0 {
		return nil, model.Invalid(model.EntityLodging, lodgingID, "no participants to assign")
	}
	d, err := m.api.LodgingDetail(ctx, m.cred, lodgingID)
	if err != nil {
		return nil, err
	}
	ps, err := m.participants(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, p := range ps {
		if p.LodgeID != nil {
			return nil, model.Errorf(model.CodeAlreadyAssigned, model.EntityProfile, p.ID, "participant already holds lodging %d", *p.LodgeID)
		}
	}
	if d.Occupation+len(ids) > d.MaxCapacity {
		return nil, model.Errorf(model.CodeCapacityExceeded, model.EntityLodging, lodgingID,
			"%d of %d places taken, %d requested", d.Occupation, d.MaxCapacity, len(ids))
	}

	err = m.api.AssignParticipants(ctx, m.cred, lodgingID, ids)
	if err != nil {
		return nil, model.Rejected(err, model.CodeNotFound, model.CodeAlreadyAssigned, model.CodeCapacityExceeded)
	}
	return m.api.LodgingDetail(ctx, m.cred, lodgingID)
}

// RemoveParticipant takes the participant out of the lodging.  If they held
// the key, the lodging is left without a key owner.
func (m *Manager) RemoveParticipant(ctx context.Context, lodgingID, participantID uint64) (*model.LodgingDetail, error) {
	d, err := m.api.LodgingDetail(ctx, m.cred, lodgingID)
	if err != nil {
		return nil, err
	}
	if !d.Occupant(participantID) {
		return nil, model.Errorf(model.CodeNotAssigned, model.EntityProfile, participantID, "participant is not in lodging %d", lodgingID)
	}
	if err := m.api.RemoveParticipant(ctx, m.cred, lodgingID, participantID); err != nil {
		return nil, model.Rejected(err, model.CodeNotFound, model.CodeNotAssigned)
	}
	return m.api.LodgingDetail(ctx, m.cred, lodgingID)
}

// SetKeyOwner hands the key to a current occupant.
func (m *Manager) SetKeyOwner(ctx context.Context, lodgingID, participantID uint64) (*model.LodgingDetail, error) {
	d, err := m.api.LodgingDetail(ctx, m.cred, lodgingID)
	if err != nil {
		return nil, err
	}
	if !d.Occupant(participantID) {
		return nil, model.Errorf(model.CodeNotAnOccupant, model.EntityProfile, participantID, "participant is not in lodging %d", lodgingID)
	}
	if err := m.api.SetKeyOwner(ctx, m.cred, lodgingID, participantID); err != nil {
		return nil, model.Rejected(err, model.CodeNotFound, model.CodeNotAnOccupant)
	}
	return m.api.LodgingDetail(ctx, m.cred, lodgingID)
}

// UpdateLodging changes capacity, type or name.  Capacity may not drop
// below the current occupation and the type must exist.
func (m *Manager) UpdateLodging(ctx context.Context, lodgingID uint64, upd model.LodgingUpdate) (*model.LodgingDetail, error) {
	if err := upd.Validate(lodgingID); err != nil {
		return nil, err
	}
	d, err := m.api.LodgingDetail(ctx, m.cred, lodgingID)
	if err != nil {
		return nil, err
	}
	if upd.MaxCapacity != nil && *upd.MaxCapacity < d.Occupation {
		return nil, model.Errorf(model.CodeCapacityBelowOccupation, model.EntityLodging, lodgingID,
			"capacity %d is below the %d current occupants", *upd.MaxCapacity, d.Occupation)
	}
	if upd.LodgeTypeID != nil && *upd.LodgeTypeID != d.LodgeTypeID {
		types, err := m.api.LodgeTypes(ctx, m.cred)
		if err != nil {
			return nil, err
		}
		if !hasType(types, *upd.LodgeTypeID) {
			return nil, model.Errorf(model.CodeNotFound, model.EntityLodgeType, *upd.LodgeTypeID, "lodge type does not exist")
		}
	}
	if err := m.api.UpdateLodging(ctx, m.cred, lodgingID, upd); err != nil {
		return nil, model.Rejected(err, model.CodeNotFound, model.CodeCapacityBelowOccupation)
	}
	return m.api.LodgingDetail(ctx, m.cred, lodgingID)
}

func hasType(types []model.LodgeType, id uint64) bool {
	for _, t := range types {
		if t.ID == id {
			return true
		}
	}
	return false
}
