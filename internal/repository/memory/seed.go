package memory

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/iliyamo/event-ops/internal/model"
)

// Seed is the YAML document a memory store can be primed from.
type Seed struct {
	LodgeTypes []struct {
		ID   uint64 `yaml:"id"`
		Type string `yaml:"type"`
	} `yaml:"lodge_types"`
	Lodges []struct {
		ID          uint64  `yaml:"id"`
		Name        *string `yaml:"name"`
		MaxCapacity int     `yaml:"max_capacity"`
		LodgeTypeID uint64  `yaml:"lodge_type_id"`
		KeyOwner    *uint64 `yaml:"key_owner"`
	} `yaml:"lodges"`
	Profiles []struct {
		ID        uint64  `yaml:"id"`
		Name      string  `yaml:"name"`
		Age       int     `yaml:"age"`
		District  string  `yaml:"district"`
		Instagram *string `yaml:"instagram"`
		RoleID    uint64  `yaml:"role_id"`
		LodgeID   *uint64 `yaml:"lodge_id"`
		IsPaid    bool    `yaml:"is_paid"`
		CheckedIn bool    `yaml:"checked_in"`
		TeamColor string  `yaml:"team_color"`
		TeamHex   string  `yaml:"team_hex"`
	} `yaml:"profiles"`
	Lectures []struct {
		ID           uint64    `yaml:"id"`
		Name         string    `yaml:"name"`
		StartDate    time.Time `yaml:"start_date"`
		EndDate      time.Time `yaml:"end_date"`
		IsWorkshop   bool      `yaml:"is_workshop"`
		MaxCapacity  *int      `yaml:"max_capacity"`
		SpeakerID    *uint64   `yaml:"speaker_id"`
		Participants []uint64  `yaml:"participants"`
	} `yaml:"lectures"`
}

// LoadSeedFile opens path and primes s with it.
func (s *Store) LoadSeedFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return s.LoadSeed(f)
}

// LoadSeed decodes a Seed from r, inserts it and then checks the capacity
// and key holder rules over the result.
func (s *Store) LoadSeed(r io.Reader) error {
	var seed Seed
	if err := yaml.NewDecoder(r).Decode(&seed); err != nil && err != io.EOF {
		return fmt.Errorf("decode seed: %w", err)
	}
	for _, t := range seed.LodgeTypes {
		s.AddLodgeType(model.LodgeType{ID: t.ID, Type: t.Type})
	}
	for _, l := range seed.Lodges {
		s.AddLodging(model.Lodging{ID: l.ID, Name: l.Name, MaxCapacity: l.MaxCapacity, LodgeTypeID: l.LodgeTypeID, KeyOwner: l.KeyOwner})
	}
	for _, p := range seed.Profiles {
		s.AddProfile(model.Profile{
			ID: p.ID, Name: p.Name, Age: p.Age, District: p.District, Instagram: p.Instagram, RoleID: p.RoleID,
			LodgeID: p.LodgeID, IsPaid: p.IsPaid, CheckedIn: p.CheckedIn, TeamColor: p.TeamColor, TeamHex: p.TeamHex,
		})
	}
	for _, l := range seed.Lectures {
		sess := s.AddSession(model.Session{
			ID: l.ID, Name: l.Name, StartDate: l.StartDate.UTC(), EndDate: l.EndDate.UTC(),
			IsWorkshop: l.IsWorkshop, MaxCapacity: l.MaxCapacity, SpeakerID: l.SpeakerID,
		})
		for _, pid := range l.Participants {
			s.AddRegistration(sess.ID, pid)
		}
	}
	return s.Check()
}

// Check verifies every stored row against the capacity rules.
func (s *Store) Check() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.profiles {
		if err := p.Validate(); err != nil {
			return err
		}
		if p.LodgeID != nil {
			if _, ok := s.lodges[*p.LodgeID]; !ok {
				return notFound(model.EntityLodging, *p.LodgeID)
			}
		}
	}
	lv := &Lodgings{s}
	for _, id := range sortedKeys(s.lodges) {
		l := s.lodges[id]
		if _, ok := s.types[l.LodgeTypeID]; !ok {
			return notFound(model.EntityLodgeType, l.LodgeTypeID)
		}
		ps := s.occupants(id)
		d := model.LodgingDetail{LodgingWithOccupation: lv.project(l, len(ps)), Participants: ps}
		if err := d.Validate(); err != nil {
			return err
		}
		if d.Occupation > l.MaxCapacity {
			return model.Errorf(model.CodeCapacityExceeded, model.EntityLodging, id, "%d occupants for %d places", d.Occupation, l.MaxCapacity)
		}
	}
	for _, id := range sortedKeys(s.sessions) {
		sess := s.sessions[id]
		if err := sess.Validate(); err != nil {
			return err
		}
		for pid := range s.regs[id] {
			if _, ok := s.profiles[pid]; !ok {
				return notFound(model.EntityProfile, pid)
			}
		}
		if n := len(s.regs[id]); sess.MaxCapacity != nil && n > *sess.MaxCapacity {
			return model.Errorf(model.CodeCapacityExceeded, model.EntitySession, id, "%d registrations for %d places", n, *sess.MaxCapacity)
		}
	}
	return nil
}
