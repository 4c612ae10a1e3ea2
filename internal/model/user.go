package model

import "time"

// User represents an operator account as stored in the `users` table.
// Operators are the staff who run check-in and the admins who manage
// lodgings and sessions; participants never log in.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address.
//  Cellphone    – optional contact number.
//  PasswordHash – bcrypt hashed password.
//  Role         – ADMIN or STAFF.
//  IsActive     – whether the account may log in.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	Cellphone    string    // users.cellphone
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// Operator roles.
const (
	RoleAdmin = "ADMIN"
	RoleStaff = "STAFF"
)

// RefreshToken models an entry in the `refresh_tokens` table.  Only the
// SHA‑256 hash of the token is stored.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}

// Token is the login response, shaped after the OAuth2 password grant so
// the dashboard can store access_token as-is.
type Token struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
	RefreshToken string    `json:"refresh_token"`
	RefreshExp   time.Time `json:"refresh_expires_at"`
}

// Login is the credentials payload.
type Login struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
