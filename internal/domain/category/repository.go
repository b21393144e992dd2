package category

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the slice of pgxpool.Pool the repository uses; narrowed so tests can
// substitute a mock connection.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository handles category persistence
type Repository struct {
	db DB
}

// NewRepository creates a new category repository
func NewRepository(db DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a category, relying on the unique index for title collisions
func (r *Repository) Create(ctx context.Context, c *Category) error {
	query := `
		INSERT INTO categories (user_id, title, keywords, color)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query, c.UserID, c.Title, c.Keywords, c.Color).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateTitle
	}
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

// ListByUser returns the user's categories in creation order. The order
// matters: categorization resolves keyword ties in favor of later entries.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]Category, error) {
	query := `
		SELECT id, user_id, title, keywords, color, created_at, updated_at
		FROM categories
		WHERE user_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Title, &c.Keywords, &c.Color, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// Get returns one category scoped to the user
func (r *Repository) Get(ctx context.Context, userID, id uuid.UUID) (*Category, error) {
	query := `
		SELECT id, user_id, title, keywords, color, created_at, updated_at
		FROM categories
		WHERE user_id = $1 AND id = $2
	`

	var c Category
	err := r.db.QueryRow(ctx, query, userID, id).
		Scan(&c.ID, &c.UserID, &c.Title, &c.Keywords, &c.Color, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &c, nil
}

// Update renames a category and replaces its keywords
func (r *Repository) Update(ctx context.Context, c *Category) error {
	query := `
		UPDATE categories
		SET title = $3, keywords = $4, color = $5, updated_at = now()
		WHERE user_id = $1 AND id = $2
		RETURNING updated_at
	`

	err := r.db.QueryRow(ctx, query, c.UserID, c.ID, c.Title, c.Keywords, c.Color).Scan(&c.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateTitle
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	return nil
}

// Delete removes a category. Expenses keep their category_id as NULL via
// the FK's ON DELETE SET NULL.
func (r *Repository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM categories WHERE user_id = $1 AND id = $2`,
		userID, id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
