// Package memory is an in-process implementation of the authority's
// storage.  It enforces the same rules as the MySQL repositories under a
// single mutex, which makes it usable both for a database-less server and
// as the authority behind tests.
package memory

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/event-ops/internal/model"
)

// Store holds every table.  The zero value is not usable; call New.
type Store struct {
	mu sync.Mutex

	nextID   map[string]uint64
	profiles map[uint64]model.Profile
	types    map[uint64]model.LodgeType
	lodges   map[uint64]model.Lodging
	sessions map[uint64]model.Session
	regs     map[uint64]map[uint64]time.Time // session -> profile -> created_at
	users    map[uint64]model.User
	tokens   map[string]model.RefreshToken

	now func() time.Time
}

func New() *Store {
	return &Store{
		nextID:   map[string]uint64{},
		profiles: map[uint64]model.Profile{},
		types:    map[uint64]model.LodgeType{},
		lodges:   map[uint64]model.Lodging{},
		sessions: map[uint64]model.Session{},
		regs:     map[uint64]map[uint64]time.Time{},
		users:    map[uint64]model.User{},
		tokens:   map[string]model.RefreshToken{},
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) id(table string) uint64 {
	s.nextID[table]++
	return s.nextID[table]
}

// take reserves id in table, keeping the sequence ahead of explicit ids.
func (s *Store) take(table string, id uint64) uint64 {
	if id == 0 {
		return s.id(table)
	}
	if id > s.nextID[table] {
		s.nextID[table] = id
	}
	return id
}

func notFound(entity string, id uint64) error {
	return model.Errorf(model.CodeNotFound, entity, id, "%s %d does not exist", entity, id)
}

// AddLodgeType inserts t, assigning an id when t.ID is zero.
func (s *Store) AddLodgeType(t model.LodgeType) model.LodgeType {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = s.take("lodge_types", t.ID)
	s.types[t.ID] = t
	return t
}

// AddLodging inserts l as-is, without checking capacity or type.
func (s *Store) AddLodging(l model.Lodging) model.Lodging {
	s.mu.Lock()
	defer s.mu.Unlock()
	l.ID = s.take("lodges", l.ID)
	s.lodges[l.ID] = l
	return l
}

// AddProfile inserts p as-is.
func (s *Store) AddProfile(p model.Profile) model.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.take("profiles", p.ID)
	p.Slug = model.Slug(p.Name, p.ID)
	s.profiles[p.ID] = p
	return p
}

// AddSession inserts sess as-is.
func (s *Store) AddSession(sess model.Session) model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess.ID = s.take("lectures", sess.ID)
	s.sessions[sess.ID] = sess
	return sess
}

// AddRegistration records a registration without capacity checks.
func (s *Store) AddRegistration(sessionID, profileID uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.regs[sessionID] == nil {
		s.regs[sessionID] = map[uint64]time.Time{}
	}
	s.regs[sessionID][profileID] = s.now()
}

// Profiles returns the participant view of the store.
func (s *Store) Profiles() *Profiles { return &Profiles{s} }

// Lodgings returns the lodging view of the store.
func (s *Store) Lodgings() *Lodgings { return &Lodgings{s} }

// Sessions returns the session view of the store.
func (s *Store) Sessions() *Sessions { return &Sessions{s} }

// Users returns the operator account view of the store.
func (s *Store) Users() *Users { return &Users{s} }

// Tokens returns the refresh token view of the store.
func (s *Store) Tokens() *Tokens { return &Tokens{s} }

func (s *Store) occupants(lodgingID uint64) []model.Profile {
	out := []model.Profile{}
	for _, p := range s.profiles {
		if p.InLodging(lodgingID) {
			out = append(out, p)
		}
	}
	sortProfiles(out)
	return out
}

func sortProfiles(ps []model.Profile) {
	sort.SliceStable(ps, func(i, j int) bool {
		if ps[i].Name != ps[j].Name {
			return ps[i].Name < ps[j].Name
		}
		return ps[i].ID < ps[j].ID
	})
}

func sortedKeys[V any](m map[uint64]V) []uint64 {
	keys := make([]uint64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
