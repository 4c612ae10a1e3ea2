package memory

import (
	"context"
	"strings"

	"github.com/iliyamo/event-ops/internal/model"
)

// Lodgings is the lodging view of a Store.
type Lodgings struct{ s *Store }

func (v *Lodgings) ListTypes(_ context.Context) ([]model.LodgeType, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	out := []model.LodgeType{}
	for _, id := range sortedKeys(v.s.types) {
		out = append(out, v.s.types[id])
	}
	return out, nil
}

func (v *Lodgings) CreateType(_ context.Context, name string) (model.LodgeType, error) {
	name = strings.TrimSpace(name)
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	for _, t := range v.s.types {
		if strings.EqualFold(t.Type, name) {
			return model.LodgeType{}, model.Invalid(model.EntityLodgeType, 0, "lodge type %q already exists", name)
		}
	}
	t := model.LodgeType{ID: v.s.id("lodge_types"), Type: name}
	v.s.types[t.ID] = t
	return t, nil
}

func (v *Lodgings) List(ctx context.Context) ([]model.Lodging, error) {
	all, err := v.ListWithOccupation(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Lodging, len(all))
	for i := range all {
		out[i] = all[i].Lodging
	}
	return out, nil
}

func (v *Lodgings) ListWithOccupation(_ context.Context) ([]model.LodgingWithOccupation, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	out := []model.LodgingWithOccupation{}
	for _, id := range sortedKeys(v.s.lodges) {
		out = append(out, v.project(v.s.lodges[id], len(v.s.occupants(id))))
	}
	return out, nil
}

func (v *Lodgings) project(l model.Lodging, occupation int) model.LodgingWithOccupation {
	w := model.LodgingWithOccupation{
		Lodging:    l,
		Occupation: occupation,
		LodgeType:  v.s.types[l.LodgeTypeID].Type,
		Status:     model.StatusFor(occupation, l.MaxCapacity),
	}
	if l.KeyOwner != nil {
		if p, ok := v.s.profiles[*l.KeyOwner]; ok {
			name := p.Name
			w.KeyOwnerName = &name
		}
	}
	return w
}

func (v *Lodgings) GetDetail(_ context.Context, id uint64) (*model.LodgingDetail, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	l, ok := v.s.lodges[id]
	if !ok {
		return nil, notFound(model.EntityLodging, id)
	}
	ps := v.s.occupants(id)
	return &model.LodgingDetail{LodgingWithOccupation: v.project(l, len(ps)), Participants: ps}, nil
}

func (v *Lodgings) Create(_ context.Context, in model.NewLodging) (uint64, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if _, ok := v.s.types[in.LodgeTypeID]; !ok {
		return 0, notFound(model.EntityLodgeType, in.LodgeTypeID)
	}
	l := model.Lodging{ID: v.s.id("lodges"), Name: in.Name, MaxCapacity: in.MaxCapacity, LodgeTypeID: in.LodgeTypeID}
	v.s.lodges[l.ID] = l
	return l.ID, nil
}

func (v *Lodgings) Assign(_ context.Context, lodgingID uint64, ids []uint64) error {
	ids = model.UniqueIDs(ids)
	if len(ids) == 0 {
		return model.Invalid(model.EntityLodging, lodgingID, "no participants to assign")
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	l, ok := v.s.lodges[lodgingID]
	if !ok {
		return notFound(model.EntityLodging, lodgingID)
	}
	for _, id := range ids {
		p, ok := v.s.profiles[id]
		if !ok {
			return notFound(model.EntityProfile, id)
		}
		if p.LodgeID != nil {
			return model.Errorf(model.CodeAlreadyAssigned, model.EntityProfile, id, "participant already holds lodging %d", *p.LodgeID)
		}
	}
	occ := len(v.s.occupants(lodgingID))
	if occ+len(ids) > l.MaxCapacity {
		return model.Errorf(model.CodeCapacityExceeded, model.EntityLodging, lodgingID,
			"%d of %d places taken, %d requested", occ, l.MaxCapacity, len(ids))
	}
	for _, id := range ids {
		p := v.s.profiles[id]
		lid := lodgingID
		p.LodgeID = &lid
		v.s.profiles[id] = p
	}
	return nil
}

func (v *Lodgings) occupant(lodgingID, participantID uint64, code model.Code) error {
	p, ok := v.s.profiles[participantID]
	if !ok {
		return notFound(model.EntityProfile, participantID)
	}
	if !p.InLodging(lodgingID) {
		return model.Errorf(code, model.EntityProfile, participantID, "participant is not in lodging %d", lodgingID)
	}
	return nil
}

func (v *Lodgings) Remove(_ context.Context, lodgingID, participantID uint64) (bool, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	l, ok := v.s.lodges[lodgingID]
	if !ok {
		return false, notFound(model.EntityLodging, lodgingID)
	}
	if err := v.occupant(lodgingID, participantID, model.CodeNotAssigned); err != nil {
		return false, err
	}
	p := v.s.profiles[participantID]
	p.LodgeID = nil
	v.s.profiles[participantID] = p
	if l.KeyOwner != nil && *l.KeyOwner == participantID {
		l.KeyOwner = nil
		v.s.lodges[lodgingID] = l
		return true, nil
	}
	return false, nil
}

func (v *Lodgings) SetKeyOwner(_ context.Context, lodgingID, participantID uint64) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	l, ok := v.s.lodges[lodgingID]
	if !ok {
		return notFound(model.EntityLodging, lodgingID)
	}
	if err := v.occupant(lodgingID, participantID, model.CodeNotAnOccupant); err != nil {
		return err
	}
	pid := participantID
	l.KeyOwner = &pid
	v.s.lodges[lodgingID] = l
	return nil
}

func (v *Lodgings) Update(_ context.Context, lodgingID uint64, upd model.LodgingUpdate) error {
	if err := upd.Validate(lodgingID); err != nil {
		return err
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	l, ok := v.s.lodges[lodgingID]
	if !ok {
		return notFound(model.EntityLodging, lodgingID)
	}
	if upd.LodgeTypeID != nil {
		if _, ok := v.s.types[*upd.LodgeTypeID]; !ok {
			return notFound(model.EntityLodgeType, *upd.LodgeTypeID)
		}
		l.LodgeTypeID = *upd.LodgeTypeID
	}
	if upd.MaxCapacity != nil {
		occ := len(v.s.occupants(lodgingID))
		if *upd.MaxCapacity < occ {
			return model.Errorf(model.CodeCapacityBelowOccupation, model.EntityLodging, lodgingID,
				"capacity %d is below the %d current occupants", *upd.MaxCapacity, occ)
		}
		l.MaxCapacity = *upd.MaxCapacity
	}
	if upd.Name != nil {
		if name := strings.TrimSpace(*upd.Name); name == "" {
			l.Name = nil
		} else {
			l.Name = &name
		}
	}
	v.s.lodges[lodgingID] = l
	return nil
}
