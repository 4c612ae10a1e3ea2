package repository

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"strings"

	"github.com/iliyamo/event-ops/internal/database"
	"github.com/iliyamo/event-ops/internal/model"
	"github.com/iliyamo/event-ops/internal/utils"
)

// UserRepo stores operator accounts.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// ErrEmailExists is returned by Create when the address is taken.
var ErrEmailExists = errors.New("email already exists")

const userCols = "id,email,cellphone,password_hash,role,is_active,created_at,updated_at"

// Create hashes password and inserts the user, returning its ID.
func (r *UserRepo) Create(ctx context.Context, email, password, role string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, role) VALUES (?,?,?)",
		email, hash, role)
	if err != nil {
		if database.IsDuplicateKey(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.  A missing row surfaces as
// sql.ErrNoRows so the login handler can answer 401 without leaking which
// half of the credentials was wrong.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	row := r.DB.QueryRowContext(ctx, "SELECT "+userCols+" FROM users WHERE email=? LIMIT 1", email)
	return scanUser(row)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	row := r.DB.QueryRowContext(ctx, "SELECT "+userCols+" FROM users WHERE id=? LIMIT 1", id)
	return scanUser(row)
}

// EnsureAdmin creates the bootstrap admin when the address is not yet
// registered.  An existing account is left untouched.
func (r *UserRepo) EnsureAdmin(ctx context.Context, email, password string, cost int) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil
	}
	_, err := r.GetByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !isNoRows(err) {
		return err
	}
	id, err := r.Create(ctx, email, password, model.RoleAdmin, cost)
	if errors.Is(err, ErrEmailExists) {
		return nil
	}
	if err != nil {
		return err
	}
	log.Printf("users: bootstrap admin %s created with id %d", email, id)
	return nil
}

func scanUser(s rowScanner) (model.User, error) {
	var u model.User
	err := s.Scan(&u.ID, &u.Email, &u.Cellphone, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}
