// Package category manages the user's expense taxonomy. Titles are unique
// per user after trimming and case folding; keywords drive automatic
// categorization of parsed expenses.
package category

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrDuplicateTitle is returned when a create or rename collides with an
// existing title for the same user.
var ErrDuplicateTitle = errors.New("category title already exists")

// ErrNotFound is returned when the category does not exist for the user.
var ErrNotFound = errors.New("category not found")

// Category is one entry in a user's taxonomy.
type Category struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"-"`
	Title     string    `json:"title"`
	Keywords  []string  `json:"keywords"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NormalizeTitle produces the canonical form used for uniqueness checks.
func NormalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}
