package statement

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository handles statement and expense persistence
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new statement repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreateWithExpenses inserts a statement and all its expenses in one
// transaction, so a reviewed statement commits entirely or not at all.
func (r *Repository) CreateWithExpenses(ctx context.Context, s *Statement, expenses []Expense) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin commit: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO statements (user_id, name, bank, issue_date, file_path)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''))
		RETURNING id, created_at
	`, s.UserID, s.Name, s.Bank, s.IssueDate, s.FilePath).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert statement: %w", err)
	}

	for i := range expenses {
		e := &expenses[i]
		e.UserID = s.UserID
		e.StatementID = &s.ID
		err = tx.QueryRow(ctx, `
			INSERT INTO expenses (user_id, statement_id, category_id, tag_ids, description, amount_cents, currency, spent_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id, created_at
		`, e.UserID, e.StatementID, e.CategoryID, e.TagIDs, e.Description, e.AmountCents, e.Currency, e.SpentAt).
			Scan(&e.ID, &e.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert expense %d: %w", i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit statement: %w", err)
	}
	return nil
}

// ListByUser returns the user's statements, newest first
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]Statement, error) {
	query := `
		SELECT id, user_id, name, bank, issue_date, COALESCE(file_path, ''), created_at
		FROM statements
		WHERE user_id = $1
		ORDER BY issue_date DESC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list statements: %w", err)
	}
	defer rows.Close()

	var statements []Statement
	for rows.Next() {
		var s Statement
		if err := rows.Scan(&s.ID, &s.UserID, &s.Name, &s.Bank, &s.IssueDate, &s.FilePath, &s.CreatedAt); err != nil {
			return nil, err
		}
		statements = append(statements, s)
	}
	return statements, rows.Err()
}

// Get returns one statement scoped to the user
func (r *Repository) Get(ctx context.Context, userID, id uuid.UUID) (*Statement, error) {
	query := `
		SELECT id, user_id, name, bank, issue_date, COALESCE(file_path, ''), created_at
		FROM statements
		WHERE user_id = $1 AND id = $2
	`

	var s Statement
	err := r.db.QueryRow(ctx, query, userID, id).
		Scan(&s.ID, &s.UserID, &s.Name, &s.Bank, &s.IssueDate, &s.FilePath, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get statement: %w", err)
	}
	return &s, nil
}

// ListExpenses returns all expenses under one statement, oldest first
func (r *Repository) ListExpenses(ctx context.Context, userID, statementID uuid.UUID) ([]Expense, error) {
	query := `
		SELECT id, user_id, statement_id, category_id, tag_ids, description, amount_cents, currency, spent_at, created_at
		FROM expenses
		WHERE user_id = $1 AND statement_id = $2
		ORDER BY spent_at ASC, created_at ASC
	`

	rows, err := r.db.Query(ctx, query, userID, statementID)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []Expense
	for rows.Next() {
		var e Expense
		if err := rows.Scan(&e.ID, &e.UserID, &e.StatementID, &e.CategoryID, &e.TagIDs, &e.Description, &e.AmountCents, &e.Currency, &e.SpentAt, &e.CreatedAt); err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

// Delete removes a statement; its expenses cascade
func (r *Repository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM statements WHERE user_id = $1 AND id = $2`,
		userID, id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete statement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CategoryTitles returns a lookup of category ID to title for export
func (r *Repository) CategoryTitles(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, title FROM categories WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load category titles: %w", err)
	}
	defer rows.Close()

	titles := make(map[uuid.UUID]string)
	for rows.Next() {
		var (
			id    uuid.UUID
			title string
		)
		if err := rows.Scan(&id, &title); err != nil {
			return nil, err
		}
		titles[id] = title
	}
	return titles, rows.Err()
}
