package model

import (
	"encoding/json"
	"strings"
	"time"
)

// Session is a scheduled lecture or workshop.  MaxCapacity nil means the
// session accepts any number of registrations.
type Session struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	IsWorkshop  bool      `json:"is_workshop"`
	MaxCapacity *int      `json:"max_capacity"`
	SpeakerID   *uint64   `json:"speaker_id"`
}

func (s Session) Validate() error {
	if s.ID == 0 {
		return Invalid(EntitySession, 0, "id is required")
	}
	if strings.TrimSpace(s.Name) == "" {
		return Invalid(EntitySession, s.ID, "name is required")
	}
	if !s.StartDate.Before(s.EndDate) {
		return Invalid(EntitySession, s.ID, "start_date must be before end_date")
	}
	if s.MaxCapacity != nil && *s.MaxCapacity < 0 {
		return Invalid(EntitySession, s.ID, "max_capacity must not be negative")
	}
	return nil
}

// Unbounded reports whether the session has no capacity ceiling.
func (s Session) Unbounded() bool { return s.MaxCapacity == nil }

// SessionWithOccupancy is the list projection of a session.
type SessionWithOccupancy struct {
	Session
	Occupancy int `json:"occupancy"`
}

func (s SessionWithOccupancy) Validate() error {
	if err := s.Session.Validate(); err != nil {
		return err
	}
	if s.Occupancy < 0 {
		return Invalid(EntitySession, s.ID, "occupancy must not be negative")
	}
	return nil
}

// Fits reports whether n more registrations stay within capacity.
func (s SessionWithOccupancy) Fits(n int) bool {
	return s.MaxCapacity == nil || s.Occupancy+n <= *s.MaxCapacity
}

// SessionDetail adds the registered participants.
type SessionDetail struct {
	SessionWithOccupancy
	Participants []Profile `json:"participants"`
}

func (d SessionDetail) Validate() error {
	if err := d.SessionWithOccupancy.Validate(); err != nil {
		return err
	}
	if d.Occupancy != len(d.Participants) {
		return Invalid(EntitySession, d.ID, "occupancy %d does not match %d participants", d.Occupancy, len(d.Participants))
	}
	for _, p := range d.Participants {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Registered reports whether participantID holds a registration.
func (d SessionDetail) Registered(participantID uint64) bool {
	for _, p := range d.Participants {
		if p.ID == participantID {
			return true
		}
	}
	return false
}

// Registration relates a profile to a session it signed up for.
type Registration struct {
	SessionID uint64    `json:"session_id"`
	ProfileID uint64    `json:"profile_id"`
	CreatedAt time.Time `json:"created_at"`
}

// NewSession is the payload for creating a session.
type NewSession struct {
	Name        string    `json:"name"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	IsWorkshop  bool      `json:"is_workshop"`
	MaxCapacity *int      `json:"max_capacity"`
	SpeakerID   *uint64   `json:"speaker_id"`
}

func (n NewSession) Validate() error {
	if strings.TrimSpace(n.Name) == "" {
		return Invalid(EntitySession, 0, "name is required")
	}
	if !n.StartDate.Before(n.EndDate) {
		return Invalid(EntitySession, 0, "start_date must be before end_date")
	}
	if n.MaxCapacity != nil && *n.MaxCapacity < 1 {
		return Invalid(EntitySession, 0, "max_capacity must be at least 1 or null")
	}
	return nil
}

// SessionUpdate carries an edit.  Name, Start and End are optional;
// MaxCapacity is applied only when SetCapacity is true so that an explicit
// null (unbounded) can be distinguished from "unchanged".  On the wire the
// presence of the max_capacity key plays the role of SetCapacity.
type SessionUpdate struct {
	Name        *string
	Start       *time.Time
	End         *time.Time
	SetCapacity bool
	MaxCapacity *int
}

type sessionUpdateWire struct {
	Name  *string    `json:"name,omitempty"`
	Start *time.Time `json:"start_date,omitempty"`
	End   *time.Time `json:"end_date,omitempty"`
}

func (u SessionUpdate) MarshalJSON() ([]byte, error) {
	m := map[string]any{}
	if u.Name != nil {
		m["name"] = *u.Name
	}
	if u.Start != nil {
		m["start_date"] = *u.Start
	}
	if u.End != nil {
		m["end_date"] = *u.End
	}
	if u.SetCapacity {
		m["max_capacity"] = u.MaxCapacity
	}
	return json.Marshal(m)
}

func (u *SessionUpdate) UnmarshalJSON(data []byte) error {
	var w sessionUpdateWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	*u = SessionUpdate{Name: w.Name, Start: w.Start, End: w.End}
	if raw, ok := keys["max_capacity"]; ok {
		u.SetCapacity = true
		if err := json.Unmarshal(raw, &u.MaxCapacity); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the update against the session's current window, so that
// changing only one end of the window still keeps start < end.
func (u SessionUpdate) Validate(current Session) error {
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		return Invalid(EntitySession, current.ID, "name must not be empty")
	}
	start, end := current.StartDate, current.EndDate
	if u.Start != nil {
		start = *u.Start
	}
	if u.End != nil {
		end = *u.End
	}
	if !start.Before(end) {
		return Invalid(EntitySession, current.ID, "start_date must be before end_date")
	}
	if u.SetCapacity && u.MaxCapacity != nil && *u.MaxCapacity < 1 {
		return Invalid(EntitySession, current.ID, "max_capacity must be at least 1 or null")
	}
	if u.Name == nil && u.Start == nil && u.End == nil && !u.SetCapacity {
		return Invalid(EntitySession, current.ID, "nothing to update")
	}
	return nil
}

// Apply returns current with the update applied.
func (u SessionUpdate) Apply(current Session) Session {
	out := current
	if u.Name != nil {
		out.Name = strings.TrimSpace(*u.Name)
	}
	if u.Start != nil {
		out.StartDate = *u.Start
	}
	if u.End != nil {
		out.EndDate = *u.End
	}
	if u.SetCapacity {
		out.MaxCapacity = u.MaxCapacity
	}
	return out
}
