// Package auth provides user accounts, password login, JWT issuance and the
// request middleware that scopes every other endpoint to a user.
package auth

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrUserAlreadyExists is returned when registering an email twice.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrUserNotFound is returned when the account does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials is returned on a bad email/password pair.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// User is an account row. PasswordHash never leaves the package.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
