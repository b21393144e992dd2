// Package e2etest exercises the full upload-to-commit flow over the
// in-memory queue with stubbed OCR and completion stages.
package e2etest

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/ledgerlens/internal/domain/category"
	"github.com/FACorreiaa/ledgerlens/internal/domain/statement"
	"github.com/FACorreiaa/ledgerlens/internal/ingest"
	"github.com/FACorreiaa/ledgerlens/internal/ingest/queue"
)

type stubExtractor struct{ text string }

func (s *stubExtractor) ExtractText(ctx context.Context, pdfBytes []byte) (string, error) {
	return s.text, nil
}

type stubCompleter struct{ reply string }

func (s *stubCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	return s.reply, nil
}

type categoriesStub struct{ cats []category.Category }

func (c *categoriesStub) List(ctx context.Context, userID uuid.UUID) ([]category.Category, error) {
	return c.cats, nil
}

type ledgerStub struct {
	statements []*statement.Statement
	expenses   [][]statement.Expense
}

func (l *ledgerStub) Commit(ctx context.Context, st *statement.Statement, expenses []statement.Expense) error {
	l.statements = append(l.statements, st)
	l.expenses = append(l.expenses, expenses)
	return nil
}

// TestIngestFlow walks one statement through the whole pipeline: upload,
// background processing, review and commit.
func TestIngestFlow(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	foodID := uuid.New()

	cats := []category.Category{
		{ID: foodID, Title: "Food", Keywords: []string{"nespresso"}},
	}

	store := queue.NewMemoryStore()
	ledger := &ledgerStub{}
	svc := ingest.NewService(store, &categoriesStub{cats: cats}, ledger, nil, slog.New(slog.DiscardHandler))

	worker := queue.NewWorker(store,
		&stubExtractor{text: "DBS statement 19 Jul 2024\nNespresso ION 38.60\nImportant Information fine print"},
		&stubCompleter{reply: "bank: DBS\n" +
			"statement date: 19 Jul 2024\n" +
			"total amount: 38.60\n" +
			"19 Jul 2024, Nespresso ION Singapore SG, 38.60, Food"},
		[]string{"Important Information"},
		1, 10*time.Millisecond,
		slog.New(slog.DiscardHandler),
	)
	worker.Start(ctx)
	defer worker.Stop()

	// Upload.
	tasks, err := svc.Submit(ctx, owner, "jul-2024.pdf", []byte("%PDF-1.7 raw"))
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "waiting", tasks[0].Status)

	// The background pipeline finishes the job.
	require.Eventually(t, func() bool {
		listed, err := svc.ListTasks(ctx, owner)
		return err == nil && len(listed) == 1 && listed[0].Status == "completed"
	}, 2*time.Second, 10*time.Millisecond)

	// Review the parsed result.
	review, err := svc.GetReview(ctx, owner, "jul-2024.pdf")
	require.NoError(t, err)
	assert.Equal(t, "DBS", review.Bank)
	require.Len(t, review.Candidates, 1)
	require.NotNil(t, review.Candidates[0].CategoryID)
	assert.Equal(t, foodID, *review.Candidates[0].CategoryID)

	// Commit.
	outcome, err := svc.Commit(ctx, owner, []string{"jul-2024.pdf"})
	require.NoError(t, err)
	assert.Equal(t, []string{"jul-2024.pdf"}, outcome.Committed)

	require.Len(t, ledger.statements, 1)
	assert.Equal(t, "jul-2024", ledger.statements[0].Name)
	assert.Equal(t, "DBS", ledger.statements[0].Bank)
	require.Len(t, ledger.expenses[0], 1)
	assert.Equal(t, int64(3860), ledger.expenses[0][0].AmountCents)

	// Committed tasks disappear from the queue.
	listed, err := svc.ListTasks(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, listed)
}
