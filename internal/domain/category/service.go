package category

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidTitle is returned when a title is blank after trimming.
var ErrInvalidTitle = errors.New("category title must not be blank")

const defaultColor = "#8884d8"

// Service handles category business logic
type Service struct {
	repo   *Repository
	logger *slog.Logger
}

// NewService creates a new category service
func NewService(repo *Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Create adds a category after validating the title and cleaning keywords
func (s *Service) Create(ctx context.Context, userID uuid.UUID, title string, keywords []string, color string) (*Category, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrInvalidTitle
	}
	if color == "" {
		color = defaultColor
	}

	c := &Category{
		UserID:   userID,
		Title:    title,
		Keywords: cleanKeywords(keywords),
		Color:    color,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	s.logger.Info("category created",
		slog.String("user_id", userID.String()),
		slog.String("title", title),
	)
	return c, nil
}

// List returns the user's categories in creation order
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]Category, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Get returns one category
func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*Category, error) {
	return s.repo.Get(ctx, userID, id)
}

// Update renames a category and replaces its keyword list
func (s *Service) Update(ctx context.Context, userID, id uuid.UUID, title string, keywords []string, color string) (*Category, error) {
	existing, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrInvalidTitle
	}

	existing.Title = title
	existing.Keywords = cleanKeywords(keywords)
	if color != "" {
		existing.Color = color
	}

	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// Delete removes a category; expenses referencing it fall back to
// uncategorized.
func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return fmt.Errorf("failed to delete category %s: %w", id, err)
	}

	s.logger.Info("category deleted",
		slog.String("user_id", userID.String()),
		slog.String("category_id", id.String()),
	)
	return nil
}

// cleanKeywords trims, lowercases and dedupes while preserving order
func cleanKeywords(keywords []string) []string {
	seen := make(map[string]bool, len(keywords))
	cleaned := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		cleaned = append(cleaned, kw)
	}
	return cleaned
}
