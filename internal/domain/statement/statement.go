// Package statement stores committed statements and their expenses, and
// exports them as CSV or XLSX.
package statement

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when the statement does not exist for the user.
var ErrNotFound = errors.New("statement not found")

// Statement is one committed bank statement.
type Statement struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"-"`
	Name      string    `json:"name"`
	Bank      string    `json:"bank"`
	IssueDate time.Time `json:"issue_date"`
	FilePath  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// Expense is one transaction row under a statement.
type Expense struct {
	ID          uuid.UUID   `json:"id"`
	UserID      uuid.UUID   `json:"-"`
	StatementID *uuid.UUID  `json:"statement_id,omitempty"`
	CategoryID  *uuid.UUID  `json:"category_id,omitempty"`
	TagIDs      []uuid.UUID `json:"tag_ids"`
	Description string      `json:"description"`
	AmountCents int64       `json:"amount_cents"`
	Currency    string      `json:"currency"`
	SpentAt     time.Time   `json:"spent_at"`
	CreatedAt   time.Time   `json:"created_at"`
}
