package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/iliyamo/event-ops/internal/model"
)

// Sessions is the lecture and workshop view of a Store.
type Sessions struct{ s *Store }

func (v *Sessions) List(ctx context.Context) ([]model.Session, error) {
	all, err := v.ListWithOccupation(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Session, len(all))
	for i := range all {
		out[i] = all[i].Session
	}
	return out, nil
}

func (v *Sessions) ListWithOccupation(_ context.Context) ([]model.SessionWithOccupancy, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	out := []model.SessionWithOccupancy{}
	for _, id := range sortedKeys(v.s.sessions) {
		out = append(out, model.SessionWithOccupancy{Session: v.s.sessions[id], Occupancy: len(v.s.regs[id])})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

func (v *Sessions) GetDetail(_ context.Context, id uint64) (*model.SessionDetail, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	sess, ok := v.s.sessions[id]
	if !ok {
		return nil, notFound(model.EntitySession, id)
	}
	regs := v.s.regs[id]
	ids := sortedKeys(regs)
	sort.SliceStable(ids, func(i, j int) bool { return regs[ids[i]].Before(regs[ids[j]]) })
	ps := make([]model.Profile, 0, len(ids))
	for _, pid := range ids {
		if p, ok := v.s.profiles[pid]; ok {
			ps = append(ps, p)
		}
	}
	return &model.SessionDetail{
		SessionWithOccupancy: model.SessionWithOccupancy{Session: sess, Occupancy: len(ps)},
		Participants:         ps,
	}, nil
}

func (v *Sessions) Create(_ context.Context, in model.NewSession) (uint64, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	sess := model.Session{
		ID:          v.s.id("lectures"),
		Name:        strings.TrimSpace(in.Name),
		StartDate:   in.StartDate.UTC(),
		EndDate:     in.EndDate.UTC(),
		IsWorkshop:  in.IsWorkshop,
		MaxCapacity: in.MaxCapacity,
		SpeakerID:   in.SpeakerID,
	}
	v.s.sessions[sess.ID] = sess
	return sess.ID, nil
}

func (v *Sessions) Register(_ context.Context, sessionID uint64, ids []uint64) error {
	ids = model.UniqueIDs(ids)
	if len(ids) == 0 {
		return model.Invalid(model.EntitySession, sessionID, "no participants to register")
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	sess, ok := v.s.sessions[sessionID]
	if !ok {
		return notFound(model.EntitySession, sessionID)
	}
	regs := v.s.regs[sessionID]
	for _, id := range ids {
		if _, ok := v.s.profiles[id]; !ok {
			return notFound(model.EntityProfile, id)
		}
	}
	for _, id := range ids {
		if _, ok := regs[id]; ok {
			return model.Errorf(model.CodeAlreadyRegistered, model.EntityProfile, id, "participant already registered for session %d", sessionID)
		}
	}
	if sess.MaxCapacity != nil && len(regs)+len(ids) > *sess.MaxCapacity {
		return model.Errorf(model.CodeCapacityExceeded, model.EntitySession, sessionID,
			"%d of %d places taken, %d requested", len(regs), *sess.MaxCapacity, len(ids))
	}
	if regs == nil {
		regs = map[uint64]time.Time{}
		v.s.regs[sessionID] = regs
	}
	now := v.s.now()
	for _, id := range ids {
		regs[id] = now
	}
	return nil
}

func (v *Sessions) Unregister(_ context.Context, sessionID, participantID uint64) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if _, ok := v.s.sessions[sessionID]; !ok {
		return notFound(model.EntitySession, sessionID)
	}
	if _, ok := v.s.regs[sessionID][participantID]; !ok {
		return model.Errorf(model.CodeNotRegistered, model.EntityProfile, participantID, "participant is not registered for session %d", sessionID)
	}
	delete(v.s.regs[sessionID], participantID)
	return nil
}

func (v *Sessions) Update(_ context.Context, sessionID uint64, upd model.SessionUpdate) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	cur, ok := v.s.sessions[sessionID]
	if !ok {
		return notFound(model.EntitySession, sessionID)
	}
	if err := upd.Validate(cur); err != nil {
		return err
	}
	if occ := len(v.s.regs[sessionID]); upd.SetCapacity && upd.MaxCapacity != nil && *upd.MaxCapacity < occ {
		return model.Errorf(model.CodeCapacityBelowOccupation, model.EntitySession, sessionID,
			"capacity %d is below the %d current registrations", *upd.MaxCapacity, occ)
	}
	v.s.sessions[sessionID] = upd.Apply(cur)
	return nil
}
