package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/Allliance/content-rating/internal/apierr"
	"github.com/Allliance/content-rating/internal/dbx"
)

// User is the auth collaborator's identity record (§3, supplemented).
type User struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// UserStore persists users in the same Postgres database as C1/C2, since
// the spec treats auth as a thin collaborator rather than a separate system.
type UserStore struct {
	db *dbx.DB
}

// NewUserStore wraps an open database connection.
func NewUserStore(db *dbx.DB) *UserStore { return &UserStore{db: db} }

// Register creates a user with a bcrypt-hashed password, returning
// apierr.Validation if the username is taken or the input is malformed.
func (s *UserStore) Register(ctx context.Context, username, password string) (User, error) {
	if username == "" || password == "" {
		return User{}, apierr.Validationf("username and password are required")
	}

	hash, err := HashPassword(password)
	if err != nil {
		return User{}, apierr.Transient(err, "hash password")
	}

	id := uuid.NewString()
	row := s.db.Conn().QueryRowContext(ctx, `
		INSERT INTO users (user_id, username, password_hash) VALUES ($1, $2, $3)
		RETURNING user_id, username, created_at`, id, username, hash)

	var u User
	if err := row.Scan(&u.UserID, &u.Username, &u.CreatedAt); err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Class() == "23" {
			return User{}, apierr.Validationf("username %q is already taken", username)
		}
		return User{}, apierr.Transient(err, "create user")
	}
	return u, nil
}

// Authenticate verifies username/password and returns the matching user,
// or apierr.AuthFailure on any mismatch — never distinguishing "unknown
// username" from "wrong password" in the error so the response can't be
// used to enumerate accounts.
func (s *UserStore) Authenticate(ctx context.Context, username, password string) (User, error) {
	var u User
	var hash string
	row := s.db.Conn().QueryRowContext(ctx,
		`SELECT user_id, username, password_hash, created_at FROM users WHERE username = $1`, username)
	if err := row.Scan(&u.UserID, &u.Username, &hash, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, apierr.AuthFailuref("invalid username or password")
		}
		return User{}, apierr.Transient(err, "load user")
	}
	if !VerifyPassword(hash, password) {
		return User{}, apierr.AuthFailuref("invalid username or password")
	}
	return u, nil
}

// ByID loads a user by id, used to re-confirm identity on token refresh.
func (s *UserStore) ByID(ctx context.Context, userID string) (User, error) {
	var u User
	row := s.db.Conn().QueryRowContext(ctx,
		`SELECT user_id, username, created_at FROM users WHERE user_id = $1`, userID)
	if err := row.Scan(&u.UserID, &u.Username, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, apierr.AuthFailuref("user no longer exists")
		}
		return User{}, apierr.Transient(err, "load user")
	}
	return u, nil
}
