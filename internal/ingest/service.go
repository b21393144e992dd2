// Package ingest orchestrates statement uploads: it fans archives out into
// per-file jobs, exposes the review surface over parsed results, and commits
// reviewed statements into the ledger.
package ingest

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/ledgerlens/internal/domain/categorization"
	"github.com/FACorreiaa/ledgerlens/internal/domain/category"
	"github.com/FACorreiaa/ledgerlens/internal/domain/statement"
	"github.com/FACorreiaa/ledgerlens/internal/ingest/completion"
	"github.com/FACorreiaa/ledgerlens/internal/ingest/prompt"
	"github.com/FACorreiaa/ledgerlens/internal/ingest/queue"
	"github.com/FACorreiaa/ledgerlens/pkg/metrics"
	"github.com/FACorreiaa/ledgerlens/pkg/money"
	"github.com/FACorreiaa/ledgerlens/pkg/storage"
)

var (
	// ErrUnsupportedFile is returned when the upload is neither a PDF nor a
	// ZIP archive.
	ErrUnsupportedFile = errors.New("file must be a PDF or a ZIP of PDFs")
	// ErrEmptyArchive is returned when a ZIP contains no usable PDFs.
	ErrEmptyArchive = errors.New("archive contains no PDF files")
)

var (
	pdfMagic = []byte("%PDF")
	zipMagic = []byte("PK\x03\x04")
)

// Task is one pending or finished ingestion unit as shown to the user.
type Task struct {
	Key     string `json:"key"`
	Title   string `json:"title"`
	Status  string `json:"status"`
	Failure string `json:"failure,omitempty"`
}

// ReviewCandidate is one parsed transaction awaiting user confirmation.
type ReviewCandidate struct {
	Date          time.Time  `json:"date"`
	Description   string     `json:"description"`
	Amount        float64    `json:"amount"`
	CategoryID    *uuid.UUID `json:"category_id,omitempty"`
	CategoryTitle string     `json:"category_title,omitempty"`
}

// Review is the parsed result of one completed job, ready for editing.
type Review struct {
	Key           string            `json:"key"`
	Bank          string            `json:"bank"`
	StatementDate *time.Time        `json:"statement_date,omitempty"`
	TotalAmount   float64           `json:"total_amount"`
	Candidates    []ReviewCandidate `json:"candidates"`
}

// CategoryLister supplies the user's taxonomy.
type CategoryLister interface {
	List(ctx context.Context, userID uuid.UUID) ([]category.Category, error)
}

// StatementCommitter persists a reviewed statement with its expenses.
type StatementCommitter interface {
	Commit(ctx context.Context, st *statement.Statement, expenses []statement.Expense) error
}

// Service orchestrates the upload-to-commit flow.
type Service struct {
	store      queue.JobStore
	categories CategoryLister
	statements StatementCommitter
	files      storage.Storage
	logger     *slog.Logger
}

// NewService creates the ingest orchestrator.
func NewService(store queue.JobStore, categories CategoryLister, statements StatementCommitter, files storage.Storage, logger *slog.Logger) *Service {
	return &Service{
		store:      store,
		categories: categories,
		statements: statements,
		files:      files,
		logger:     logger,
	}
}

// Submit accepts a PDF or a ZIP of PDFs and enqueues one job per file. The
// user's category list is snapshotted onto each job so edits made while jobs
// wait do not change what the model is told.
func (s *Service) Submit(ctx context.Context, userID uuid.UUID, filename string, data []byte) ([]Task, error) {
	hints, err := s.categoryHints(ctx, userID)
	if err != nil {
		return nil, err
	}

	var files map[string][]byte
	switch {
	case bytes.HasPrefix(data, pdfMagic):
		files = map[string][]byte{path.Base(filename): data}
	case bytes.HasPrefix(data, zipMagic):
		files, err = extractPDFs(data)
		if err != nil {
			return nil, err
		}
	default:
		return nil, ErrUnsupportedFile
	}

	tasks := make([]Task, 0, len(files))
	for name, content := range files {
		job := &queue.Job{
			OwnerID:      userID,
			FileKey:      name,
			OriginalName: name,
			RawFile:      content,
			Categories:   hints,
		}
		if err := s.store.Enqueue(ctx, job); err != nil {
			return nil, fmt.Errorf("failed to enqueue %s: %w", name, err)
		}

		metrics.JobsEnqueued.Inc()
		tasks = append(tasks, Task{Key: name, Title: name, Status: string(queue.StatusWaiting)})
	}

	s.logger.Info("statements submitted",
		slog.String("user_id", userID.String()),
		slog.Int("files", len(tasks)),
	)
	return tasks, nil
}

// ListTasks returns the user's jobs in enqueue order.
func (s *Service) ListTasks(ctx context.Context, userID uuid.UUID) ([]Task, error) {
	jobs, err := s.store.ListByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}

	tasks := make([]Task, 0, len(jobs))
	for _, j := range jobs {
		tasks = append(tasks, Task{
			Key:     j.FileKey,
			Title:   j.OriginalName,
			Status:  string(j.Status),
			Failure: j.Failure,
		})
	}
	return tasks, nil
}

// GetReview parses a completed job's stored completion against the user's
// current categories and returns the result for review. Keyword
// categorization fills in categories the model missed.
func (s *Service) GetReview(ctx context.Context, userID uuid.UUID, key string) (*Review, error) {
	result, err := s.store.GetResult(ctx, userID, key)
	if err != nil {
		return nil, err
	}

	cats, err := s.categories.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	return s.buildReview(key, result.CompletionText, cats), nil
}

// Delete discards tasks regardless of state. A job deleted while a worker
// holds it finishes into the void.
func (s *Service) Delete(ctx context.Context, userID uuid.UUID, keys []string) error {
	return s.store.Delete(ctx, userID, keys)
}

// CommitOutcome reports per-key results of a commit request.
type CommitOutcome struct {
	Committed []string          `json:"committed"`
	Failed    map[string]string `json:"failed,omitempty"`
}

// Commit turns completed jobs into statements with expenses. Each key
// commits in its own transaction; one failure is recorded and the rest
// proceed. Rows whose amount never parsed are dropped rather than stored.
func (s *Service) Commit(ctx context.Context, userID uuid.UUID, keys []string) (*CommitOutcome, error) {
	cats, err := s.categories.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	outcome := &CommitOutcome{Failed: make(map[string]string)}
	for _, key := range keys {
		if err := s.commitOne(ctx, userID, key, cats); err != nil {
			s.logger.Error("failed to commit statement",
				slog.String("user_id", userID.String()),
				slog.String("file_key", key),
				slog.Any("error", err),
			)
			outcome.Failed[key] = err.Error()
			continue
		}
		outcome.Committed = append(outcome.Committed, key)
	}

	if len(outcome.Failed) == 0 {
		outcome.Failed = nil
	}
	return outcome, nil
}

func (s *Service) commitOne(ctx context.Context, userID uuid.UUID, key string, cats []category.Category) error {
	result, err := s.store.GetResult(ctx, userID, key)
	if err != nil {
		return err
	}

	review := s.buildReview(key, result.CompletionText, cats)

	issueDate := time.Now()
	if review.StatementDate != nil {
		issueDate = *review.StatementDate
	}

	filePath := ""
	if s.files != nil && len(result.FileBytes) > 0 {
		info, err := s.files.Upload(ctx, userID, result.OriginalName, "application/pdf", bytes.NewReader(result.FileBytes))
		if err != nil {
			// The original PDF is a convenience copy; losing it must not
			// block the commit.
			s.logger.Warn("failed to archive statement file", slog.Any("error", err))
		} else {
			filePath = info.Path
		}
	}

	st := &statement.Statement{
		UserID:    userID,
		Name:      strings.TrimSuffix(result.OriginalName, path.Ext(result.OriginalName)),
		Bank:      review.Bank,
		IssueDate: issueDate,
		FilePath:  filePath,
	}

	expenses := make([]statement.Expense, 0, len(review.Candidates))
	for _, cand := range review.Candidates {
		if math.IsNaN(cand.Amount) {
			continue
		}
		amount := money.NewFromFloat(cand.Amount, money.DefaultCurrency)
		expenses = append(expenses, statement.Expense{
			CategoryID:  cand.CategoryID,
			TagIDs:      []uuid.UUID{},
			Description: cand.Description,
			AmountCents: amount.Cents(),
			Currency:    amount.CurrencyCode(),
			SpentAt:     cand.Date,
		})
	}

	if err := s.statements.Commit(ctx, st, expenses); err != nil {
		return err
	}
	metrics.StatementsCommitted.Inc()

	// The job only leaves the queue once the statement is safely stored.
	return s.store.Delete(ctx, userID, []string{key})
}

// buildReview parses completion text and runs two recovery passes over
// candidates the parser left uncategorized: fuzzy title resolution for
// category names the model misspelled, then keyword matching on the
// description.
func (s *Service) buildReview(key, completionText string, cats []category.Category) *Review {
	parsed, candidates := completion.Parse(completionText, completionCategories(cats))

	engine := categorization.NewEngine(engineCategories(cats))
	resolver := categorization.NewTitleResolver(engineCategories(cats))

	review := &Review{
		Key:           key,
		Bank:          parsed.Bank,
		StatementDate: parsed.StatementDate,
		TotalAmount:   parsed.TotalAmount,
		Candidates:    make([]ReviewCandidate, 0, len(candidates)),
	}

	for _, cand := range candidates {
		rc := ReviewCandidate{
			Date:          cand.Date,
			Description:   cand.Description,
			Amount:        cand.Amount,
			CategoryID:    cand.CategoryID,
			CategoryTitle: cand.CategoryTitle,
		}
		if rc.CategoryID == nil && rc.CategoryTitle != "" {
			if c := resolver.Resolve(rc.CategoryTitle); c != nil {
				id := c.ID
				rc.CategoryID = &id
				rc.CategoryTitle = c.Title
			}
		}
		if rc.CategoryID == nil {
			if m := engine.Categorize(cand.Description); m != nil {
				id := m.CategoryID
				rc.CategoryID = &id
				rc.CategoryTitle = m.Title
			}
		}
		review.Candidates = append(review.Candidates, rc)
	}
	return review
}

func (s *Service) categoryHints(ctx context.Context, userID uuid.UUID) ([]prompt.CategoryHint, error) {
	cats, err := s.categories.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	hints := make([]prompt.CategoryHint, 0, len(cats))
	for _, c := range cats {
		hints = append(hints, prompt.CategoryHint{Title: c.Title, Keywords: c.Keywords})
	}
	return hints, nil
}

func completionCategories(cats []category.Category) []completion.Category {
	out := make([]completion.Category, 0, len(cats))
	for _, c := range cats {
		out = append(out, completion.Category{ID: c.ID, Title: c.Title})
	}
	return out
}

func engineCategories(cats []category.Category) []categorization.Category {
	out := make([]categorization.Category, 0, len(cats))
	for _, c := range cats {
		out = append(out, categorization.Category{ID: c.ID, Title: c.Title, Keywords: c.Keywords})
	}
	return out
}

// extractPDFs pulls PDF entries out of a ZIP, keyed by base filename.
// Directories, hidden files and archive junk like __MACOSX are skipped.
func extractPDFs(data []byte) (map[string][]byte, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	files := make(map[string][]byte)
	for _, entry := range reader.File {
		if entry.FileInfo().IsDir() {
			continue
		}

		name := path.Base(entry.Name)
		if strings.HasPrefix(name, ".") || strings.HasPrefix(entry.Name, "__MACOSX/") {
			continue
		}

		rc, err := entry.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open archive entry %s: %w", entry.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read archive entry %s: %w", entry.Name, err)
		}

		if !bytes.HasPrefix(content, pdfMagic) {
			continue
		}
		files[name] = content
	}

	if len(files) == 0 {
		return nil, ErrEmptyArchive
	}
	return files, nil
}
