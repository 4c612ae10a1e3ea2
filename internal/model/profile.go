package model

import "strings"

// Profile represents a participant of the gathering as stored in the
// `profiles` table.  A profile is created by registration, mutated by
// check-in, payment toggles and lodging assignment, and never deleted.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – display name.
//  Age       – age in years.
//  District  – home district, used for the district distribution.
//  Instagram – optional social handle.
//  RoleID    – participant role (camper, staff, speaker...).
//  LodgeID   – current lodging assignment (nil when unassigned).
//  IsPaid    – payment flag.
//  CheckedIn – check-in flag.
//  TeamColor – team affiliation name (empty when not on a team).
//  TeamHex   – display color code of the team.
//  Slug      – public handle, derived from Name and ID (see Slug).
type Profile struct {
	ID        uint64  `json:"id"`
	Name      string  `json:"name"`
	Age       int     `json:"age"`
	District  string  `json:"district"`
	Instagram *string `json:"instagram"`
	RoleID    uint64  `json:"role_id"`
	LodgeID   *uint64 `json:"lodge_id"`
	IsPaid    bool    `json:"is_paid"`
	CheckedIn bool    `json:"checked_in"`
	TeamColor string  `json:"team_color,omitempty"`
	TeamHex   string  `json:"team_hex,omitempty"`
	Slug      string  `json:"slug,omitempty"`
}

// Validate checks the fields a consumer relies on.
func (p Profile) Validate() error {
	if p.ID == 0 {
		return Invalid(EntityProfile, 0, "id is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return Invalid(EntityProfile, p.ID, "name is required")
	}
	if p.Age < 0 {
		return Invalid(EntityProfile, p.ID, "age must not be negative")
	}
	if p.LodgeID != nil && *p.LodgeID == 0 {
		return Invalid(EntityProfile, p.ID, "lodge_id must be null or positive")
	}
	return nil
}

// InLodging reports whether the profile is assigned to lodgingID.
func (p Profile) InLodging(lodgingID uint64) bool {
	return p.LodgeID != nil && *p.LodgeID == lodgingID
}

// ProfileSearch filters the participant listing.  Zero values mean "no
// filter".  Name matches the name or the instagram handle as a
// case-insensitive substring.
type ProfileSearch struct {
	Name     string   `query:"name"`
	District string   `query:"district"`
	LodgeID  *uint64  `query:"lodge_id"`
	RoleID   *uint64  `query:"role_id"`
	IDs      []uint64 `query:"ids"`
	Offset   int      `query:"offset"`
	Limit    int      `query:"limit"`
}

const (
	DefaultProfileLimit = 12
	MaxProfileLimit     = 1000
)

// Normalize clamps paging to sane bounds.
func (s *ProfileSearch) Normalize() {
	s.Name = strings.TrimSpace(s.Name)
	s.District = strings.TrimSpace(s.District)
	if s.Offset < 0 {
		s.Offset = 0
	}
	if s.Limit <= 0 {
		s.Limit = DefaultProfileLimit
	}
	if s.Limit > MaxProfileLimit {
		s.Limit = MaxProfileLimit
	}
}

// NewProfile is the payload for creating a participant.
type NewProfile struct {
	Name      string  `json:"name"`
	Age       int     `json:"age"`
	District  string  `json:"district"`
	Instagram *string `json:"instagram"`
	RoleID    uint64  `json:"role_id"`
	TeamColor string  `json:"team_color"`
	TeamHex   string  `json:"team_hex"`
}

func (p NewProfile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return Invalid(EntityProfile, 0, "name is required")
	}
	if p.Age < 0 {
		return Invalid(EntityProfile, 0, "age must not be negative")
	}
	return nil
}

// ProfilePage is one page of a profile search together with the number of
// matches across all pages.
type ProfilePage struct {
	Profiles []Profile `json:"profiles"`
	Total    int       `json:"total"`
	Offset   int       `json:"offset"`
	Limit    int       `json:"limit"`
}

func (p ProfilePage) Validate() error {
	if p.Total < len(p.Profiles) {
		return Invalid(EntityProfile, 0, "total %d below page size %d", p.Total, len(p.Profiles))
	}
	for _, pr := range p.Profiles {
		if err := pr.Validate(); err != nil {
			return err
		}
	}
	return nil
}
