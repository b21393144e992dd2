// Package tag manages free-form labels users attach to expenses.
package tag

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrDuplicateTitle is returned when a tag title already exists for the user.
	ErrDuplicateTitle = errors.New("tag title already exists")
	// ErrNotFound is returned when the tag does not exist for the user.
	ErrNotFound = errors.New("tag not found")
	// ErrInvalidTitle is returned when a title is blank after trimming.
	ErrInvalidTitle = errors.New("tag title must not be blank")
)

// Tag is one user label.
type Tag struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"-"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}
