package memory

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/iliyamo/event-ops/internal/model"
	"github.com/iliyamo/event-ops/internal/repository"
	"github.com/iliyamo/event-ops/internal/utils"
)

// Users is the operator account view of a Store.  Missing rows report
// sql.ErrNoRows, as the MySQL repository does.
type Users struct{ s *Store }

func (v *Users) Create(_ context.Context, email, password, role string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	for _, u := range v.s.users {
		if u.Email == email {
			return 0, repository.ErrEmailExists
		}
	}
	now := v.s.now()
	u := model.User{ID: v.s.id("users"), Email: email, PasswordHash: hash, Role: role, IsActive: true, CreatedAt: now, UpdatedAt: now}
	v.s.users[u.ID] = u
	return u.ID, nil
}

func (v *Users) GetByEmail(_ context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	for _, u := range v.s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, sql.ErrNoRows
}

func (v *Users) GetByID(_ context.Context, id uint64) (model.User, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	u, ok := v.s.users[id]
	if !ok {
		return model.User{}, sql.ErrNoRows
	}
	return u, nil
}

// SetActive enables or disables an account.
func (v *Users) SetActive(id uint64, active bool) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if u, ok := v.s.users[id]; ok {
		u.IsActive = active
		v.s.users[id] = u
	}
}

func (v *Users) EnsureAdmin(ctx context.Context, email, password string, cost int) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil
	}
	id, err := v.Create(ctx, email, password, model.RoleAdmin, cost)
	if errors.Is(err, repository.ErrEmailExists) {
		return nil
	}
	if err != nil {
		return err
	}
	log.Printf("users: bootstrap admin %s created with id %d", email, id)
	return nil
}

// Tokens is the refresh token view of a Store.
type Tokens struct{ s *Store }

func (v *Tokens) StoreRefresh(_ context.Context, userID uint64, tokenHash string, exp time.Time) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	v.s.tokens[tokenHash] = model.RefreshToken{
		ID: v.s.id("refresh_tokens"), UserID: userID, TokenHash: tokenHash, ExpiresAt: exp.UTC(), CreatedAt: v.s.now(),
	}
	return nil
}

func (v *Tokens) ValidateRefresh(_ context.Context, tokenHash string) (uint64, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	t, ok := v.s.tokens[tokenHash]
	if !ok || t.RevokedAt != nil || v.s.now().After(t.ExpiresAt) {
		return 0, sql.ErrNoRows
	}
	return t.UserID, nil
}

func (v *Tokens) RevokeByHash(_ context.Context, tokenHash string) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if t, ok := v.s.tokens[tokenHash]; ok && t.RevokedAt == nil {
		now := v.s.now()
		t.RevokedAt = &now
		v.s.tokens[tokenHash] = t
	}
	return nil
}
