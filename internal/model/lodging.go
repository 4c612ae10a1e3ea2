package model

import (
	"strconv"
	"strings"
)

// LodgeType is a categorical label for lodgings (e.g. "Quarto", "Chalé").
// It carries no behavior.
type LodgeType struct {
	ID   uint64 `json:"id"`
	Type string `json:"type"`
}

func (t LodgeType) Validate() error {
	if t.ID == 0 {
		return Invalid(EntityLodgeType, 0, "id is required")
	}
	if strings.TrimSpace(t.Type) == "" {
		return Invalid(EntityLodgeType, t.ID, "type is required")
	}
	return nil
}

// Lodging is a finite-capacity room.  Occupation is never stored on it; it
// is derived from the profiles whose LodgeID points here.
type Lodging struct {
	ID          uint64  `json:"id"`
	Name        *string `json:"name"`
	MaxCapacity int     `json:"max_capacity"`
	LodgeTypeID uint64  `json:"lodge_type_id"`
	KeyOwner    *uint64 `json:"key_owner"`
}

// Validate accepts a zero capacity so that degenerate rows coming from the
// server can still be displayed; creation and updates require at least one.
func (l Lodging) Validate() error {
	if l.ID == 0 {
		return Invalid(EntityLodging, 0, "id is required")
	}
	if l.MaxCapacity < 0 {
		return Invalid(EntityLodging, l.ID, "max_capacity must not be negative")
	}
	if l.KeyOwner != nil && *l.KeyOwner == 0 {
		return Invalid(EntityLodging, l.ID, "key_owner must be null or positive")
	}
	return nil
}

// DisplayName returns the lodging name or a fallback built from its id.
func (l Lodging) DisplayName() string {
	if l.Name != nil && strings.TrimSpace(*l.Name) != "" {
		return *l.Name
	}
	return "Quarto " + strconv.FormatUint(l.ID, 10)
}

// Lodging display statuses.
const (
	LodgingAvailable = "available"
	LodgingFull      = "full"
)

// LodgingWithOccupation is the list projection joining a lodging with its
// type, key holder and occupant count.
type LodgingWithOccupation struct {
	Lodging
	Occupation   int     `json:"occupation"`
	LodgeType    string  `json:"lodge_type"`
	KeyOwnerName *string `json:"key_owner_name"`
	Status       string  `json:"status"`
}

func (l LodgingWithOccupation) Validate() error {
	if err := l.Lodging.Validate(); err != nil {
		return err
	}
	if l.Occupation < 0 {
		return Invalid(EntityLodging, l.ID, "occupation must not be negative")
	}
	if l.KeyOwner == nil && l.KeyOwnerName != nil {
		return Invalid(EntityLodging, l.ID, "key_owner_name without key_owner")
	}
	return nil
}

// Free returns the number of open slots, never below zero.
func (l LodgingWithOccupation) Free() int {
	if n := l.MaxCapacity - l.Occupation; n > 0 {
		return n
	}
	return 0
}

// StatusFor derives the display status from occupation and capacity.
func StatusFor(occupation, capacity int) string {
	if occupation >= capacity {
		return LodgingFull
	}
	return LodgingAvailable
}

// LodgingDetail adds the full participant list to the list projection.
type LodgingDetail struct {
	LodgingWithOccupation
	Participants []Profile `json:"participants"`
}

func (d LodgingDetail) Validate() error {
	if err := d.LodgingWithOccupation.Validate(); err != nil {
		return err
	}
	if d.Occupation != len(d.Participants) {
		return Invalid(EntityLodging, d.ID, "occupation %d does not match %d participants", d.Occupation, len(d.Participants))
	}
	keyHeld := d.KeyOwner == nil
	for _, p := range d.Participants {
		if err := p.Validate(); err != nil {
			return err
		}
		if !p.InLodging(d.ID) {
			return Invalid(EntityLodging, d.ID, "participant %d is not assigned here", p.ID)
		}
		if d.KeyOwner != nil && p.ID == *d.KeyOwner {
			keyHeld = true
		}
	}
	if !keyHeld {
		return Invalid(EntityLodging, d.ID, "key owner %d is not an occupant", *d.KeyOwner)
	}
	return nil
}

// Occupant reports whether participantID is currently in the lodging.
func (d LodgingDetail) Occupant(participantID uint64) bool {
	for _, p := range d.Participants {
		if p.ID == participantID {
			return true
		}
	}
	return false
}

// NewLodging is the payload for creating a lodging.
type NewLodging struct {
	Name        *string `json:"name"`
	MaxCapacity int     `json:"max_capacity"`
	LodgeTypeID uint64  `json:"lodge_type_id"`
}

func (n NewLodging) Validate() error {
	if n.MaxCapacity < 1 {
		return Invalid(EntityLodging, 0, "max_capacity must be at least 1")
	}
	if n.LodgeTypeID == 0 {
		return Invalid(EntityLodging, 0, "lodge_type_id is required")
	}
	return nil
}

// LodgingUpdate carries an operator edit.  Nil fields are left unchanged.
type LodgingUpdate struct {
	Name        *string `json:"name,omitempty"`
	MaxCapacity *int    `json:"max_capacity,omitempty"`
	LodgeTypeID *uint64 `json:"lodge_type_id,omitempty"`
}

func (u LodgingUpdate) Validate(lodgingID uint64) error {
	if u.MaxCapacity != nil && *u.MaxCapacity < 1 {
		return Invalid(EntityLodging, lodgingID, "max_capacity must be at least 1")
	}
	if u.LodgeTypeID != nil && *u.LodgeTypeID == 0 {
		return Invalid(EntityLodging, lodgingID, "lodge_type_id must be positive")
	}
	if u.Name == nil && u.MaxCapacity == nil && u.LodgeTypeID == nil {
		return Invalid(EntityLodging, lodgingID, "nothing to update")
	}
	return nil
}
