// Package queue defines the activity events exchanged over the message
// broker and the consumer that records them.
package queue

import (
	"time"

	"github.com/google/uuid"
)

// ActivityQueue is the durable queue every activity event is routed to.
const ActivityQueue = "eventops.activity"

// Activity kinds.
const (
	KindLodgingAssigned     = "lodging.assigned"
	KindLodgingRemoved      = "lodging.removed"
	KindKeyOwnerSet         = "lodging.key_owner_set"
	KindLodgingUpdated      = "lodging.updated"
	KindLectureRegistered   = "lecture.registered"
	KindLectureUnregistered = "lecture.unregistered"
	KindLectureUpdated      = "lecture.updated"
	KindProfileCheckedIn    = "profile.checked_in"
	KindPaymentToggled      = "profile.payment_toggled"
)

// ActivityEvent is published after an operator mutation commits.  It
// carries enough to audit who changed what without querying the database.
type ActivityEvent struct {
	ID             string    `json:"id"`
	Kind           string    `json:"kind"`
	ActorID        uint64    `json:"actor_id"`
	Entity         string    `json:"entity"`
	EntityID       uint64    `json:"entity_id"`
	ParticipantIDs []uint64  `json:"participant_ids,omitempty"`
	Note           string    `json:"note,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// NewActivityEvent stamps a fresh id and the current time.
func NewActivityEvent(kind string, actorID uint64, entity string, entityID uint64, participants ...uint64) ActivityEvent {
	return ActivityEvent{
		ID:             uuid.NewString(),
		Kind:           kind,
		ActorID:        actorID,
		Entity:         entity,
		EntityID:       entityID,
		ParticipantIDs: participants,
		OccurredAt:     time.Now().UTC(),
	}
}
