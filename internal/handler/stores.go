package handler

import (
	"context"
	"time"

	"github.com/iliyamo/event-ops/internal/model"
	"github.com/iliyamo/event-ops/internal/queue"
)

// The stores below are satisfied by the MySQL repositories and by the
// in-memory store.

type ProfileStore interface {
	Search(ctx context.Context, s model.ProfileSearch) (model.ProfilePage, error)
	GetByID(ctx context.Context, id uint64) (model.Profile, error)
	Create(ctx context.Context, in model.NewProfile) (model.Profile, error)
	CheckIn(ctx context.Context, id uint64) (model.Profile, error)
	TogglePayment(ctx context.Context, id uint64) (model.Profile, error)
}

type LodgingStore interface {
	ListTypes(ctx context.Context) ([]model.LodgeType, error)
	CreateType(ctx context.Context, name string) (model.LodgeType, error)
	List(ctx context.Context) ([]model.Lodging, error)
	ListWithOccupation(ctx context.Context) ([]model.LodgingWithOccupation, error)
	GetDetail(ctx context.Context, id uint64) (*model.LodgingDetail, error)
	Create(ctx context.Context, in model.NewLodging) (uint64, error)
	Update(ctx context.Context, id uint64, upd model.LodgingUpdate) error
	Assign(ctx context.Context, id uint64, participantIDs []uint64) error
	Remove(ctx context.Context, id, participantID uint64) (keyCleared bool, err error)
	SetKeyOwner(ctx context.Context, id, participantID uint64) error
}

type SessionStore interface {
	List(ctx context.Context) ([]model.Session, error)
	ListWithOccupation(ctx context.Context) ([]model.SessionWithOccupancy, error)
	GetDetail(ctx context.Context, id uint64) (*model.SessionDetail, error)
	Create(ctx context.Context, in model.NewSession) (uint64, error)
	Update(ctx context.Context, id uint64, upd model.SessionUpdate) error
	Register(ctx context.Context, id uint64, participantIDs []uint64) error
	Unregister(ctx context.Context, id, participantID uint64) error
}

type UserStore interface {
	Create(ctx context.Context, email, password, role string, cost int) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

type TokenStore interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
}

// ActivityPublisher receives an event after each committed mutation.
type ActivityPublisher interface {
	PublishActivity(ctx context.Context, ev queue.ActivityEvent) error
}
