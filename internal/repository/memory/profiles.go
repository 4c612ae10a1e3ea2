package memory

import (
	"context"
	"strings"

	"github.com/iliyamo/event-ops/internal/model"
)

// Profiles is the participant view of a Store.
type Profiles struct{ s *Store }

// Search filters, orders by name then id, and pages like the SQL query.
func (v *Profiles) Search(_ context.Context, q model.ProfileSearch) (model.ProfilePage, error) {
	q.Normalize()
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	var only map[uint64]struct{}
	if ids := model.UniqueIDs(q.IDs); len(ids) > 0 {
		only = make(map[uint64]struct{}, len(ids))
		for _, id := range ids {
			only[id] = struct{}{}
		}
	}
	matches := []model.Profile{}
	for _, p := range v.s.profiles {
		if only != nil {
			if _, ok := only[p.ID]; !ok {
				continue
			}
		}
		if q.Name != "" {
			insta := ""
			if p.Instagram != nil {
				insta = *p.Instagram
			}
			if !containsFold(p.Name, q.Name) && !containsFold(insta, q.Name) {
				continue
			}
		}
		if q.District != "" && p.District != q.District {
			continue
		}
		if q.LodgeID != nil && !p.InLodging(*q.LodgeID) {
			continue
		}
		if q.RoleID != nil && p.RoleID != *q.RoleID {
			continue
		}
		matches = append(matches, p)
	}
	sortProfiles(matches)

	page := model.ProfilePage{Profiles: []model.Profile{}, Total: len(matches), Offset: q.Offset, Limit: q.Limit}
	if q.Offset >= len(matches) {
		return page, nil
	}
	end := q.Offset + q.Limit
	if end > len(matches) {
		end = len(matches)
	}
	page.Profiles = append(page.Profiles, matches[q.Offset:end]...)
	return page, nil
}

func (v *Profiles) GetByID(_ context.Context, id uint64) (model.Profile, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	p, ok := v.s.profiles[id]
	if !ok {
		return model.Profile{}, notFound(model.EntityProfile, id)
	}
	return p, nil
}

func (v *Profiles) Create(_ context.Context, in model.NewProfile) (model.Profile, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	p := model.Profile{
		ID:        v.s.id("profiles"),
		Name:      strings.TrimSpace(in.Name),
		Age:       in.Age,
		District:  strings.TrimSpace(in.District),
		Instagram: in.Instagram,
		RoleID:    in.RoleID,
		TeamColor: in.TeamColor,
		TeamHex:   in.TeamHex,
	}
	p.Slug = model.Slug(p.Name, p.ID)
	v.s.profiles[p.ID] = p
	return p, nil
}

func (v *Profiles) CheckIn(_ context.Context, id uint64) (model.Profile, error) {
	return v.update(id, func(p *model.Profile) { p.CheckedIn = true })
}

func (v *Profiles) TogglePayment(_ context.Context, id uint64) (model.Profile, error) {
	return v.update(id, func(p *model.Profile) { p.IsPaid = !p.IsPaid })
}

func (v *Profiles) update(id uint64, fn func(*model.Profile)) (model.Profile, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	p, ok := v.s.profiles[id]
	if !ok {
		return model.Profile{}, notFound(model.EntityProfile, id)
	}
	fn(&p)
	v.s.profiles[id] = p
	return p, nil
}
