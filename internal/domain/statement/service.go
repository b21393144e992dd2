package statement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// ExportFormat selects the download encoding.
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatXLSX ExportFormat = "xlsx"
)

// ErrUnsupportedFormat is returned for unknown export formats.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Service handles statement business logic
type Service struct {
	repo   *Repository
	logger *slog.Logger
}

// NewService creates a new statement service
func NewService(repo *Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Commit persists a statement with its expenses atomically
func (s *Service) Commit(ctx context.Context, st *Statement, expenses []Expense) error {
	if err := s.repo.CreateWithExpenses(ctx, st, expenses); err != nil {
		return err
	}

	s.logger.Info("statement committed",
		slog.String("user_id", st.UserID.String()),
		slog.String("statement_id", st.ID.String()),
		slog.String("bank", st.Bank),
		slog.Int("expenses", len(expenses)),
	)
	return nil
}

// List returns the user's statements
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]Statement, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Get returns one statement with its expenses
func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*Statement, []Expense, error) {
	st, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return nil, nil, err
	}

	expenses, err := s.repo.ListExpenses(ctx, userID, id)
	if err != nil {
		return nil, nil, err
	}
	return st, expenses, nil
}

// Delete removes a statement and its expenses
func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.Delete(ctx, userID, id)
}

// Export renders a statement's expenses in the requested format and returns
// the bytes with a suggested file name and content type.
func (s *Service) Export(ctx context.Context, userID, id uuid.UUID, format ExportFormat) ([]byte, string, string, error) {
	st, expenses, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, "", "", err
	}

	titles, err := s.repo.CategoryTitles(ctx, userID)
	if err != nil {
		return nil, "", "", err
	}

	switch format {
	case FormatCSV:
		data, err := exportCSV(expenses, titles)
		if err != nil {
			return nil, "", "", err
		}
		return data, fmt.Sprintf("%s.csv", st.Name), "text/csv", nil
	case FormatXLSX:
		data, err := exportXLSX(st, expenses, titles)
		if err != nil {
			return nil, "", "", err
		}
		return data, fmt.Sprintf("%s.xlsx", st.Name),
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", nil
	default:
		return nil, "", "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}
