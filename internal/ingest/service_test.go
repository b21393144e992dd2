package ingest

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/ledgerlens/internal/domain/category"
	"github.com/FACorreiaa/ledgerlens/internal/domain/statement"
	"github.com/FACorreiaa/ledgerlens/internal/ingest/queue"
)

type fakeCategories struct {
	cats []category.Category
	err  error
}

func (f *fakeCategories) List(ctx context.Context, userID uuid.UUID) ([]category.Category, error) {
	return f.cats, f.err
}

type fakeStatements struct {
	committed []*statement.Statement
	expenses  [][]statement.Expense
	err       error
}

func (f *fakeStatements) Commit(ctx context.Context, st *statement.Statement, expenses []statement.Expense) error {
	if f.err != nil {
		return f.err
	}
	f.committed = append(f.committed, st)
	f.expenses = append(f.expenses, expenses)
	return nil
}

func newTestService(store queue.JobStore, cats []category.Category, statements *fakeStatements) *Service {
	return NewService(store,
		&fakeCategories{cats: cats},
		statements,
		nil,
		slog.New(slog.DiscardHandler),
	)
}

func zipOf(t *testing.T, entries map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range entries {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestService_Submit(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	foodID := uuid.New()
	cats := []category.Category{{ID: foodID, Title: "Food", Keywords: []string{"nespresso"}}}

	t.Run("single pdf", func(t *testing.T) {
		store := queue.NewMemoryStore()
		svc := newTestService(store, cats, &fakeStatements{})

		tasks, err := svc.Submit(ctx, owner, "jul-2024.pdf", []byte("%PDF-1.7 content"))
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, "jul-2024.pdf", tasks[0].Key)
		assert.Equal(t, "waiting", tasks[0].Status)

		job, err := store.DequeueWaiting(ctx)
		require.NoError(t, err)
		require.NotNil(t, job)
		require.Len(t, job.Categories, 1)
		assert.Equal(t, "Food", job.Categories[0].Title)
	})

	t.Run("zip fans out to one job per pdf", func(t *testing.T) {
		store := queue.NewMemoryStore()
		svc := newTestService(store, cats, &fakeStatements{})

		archive := zipOf(t, map[string][]byte{
			"statements/jan.pdf":    []byte("%PDF-1.7 jan"),
			"statements/feb.pdf":    []byte("%PDF-1.7 feb"),
			"statements/.DS_Store":  []byte("junk"),
			"__MACOSX/._jan.pdf":    []byte("junk"),
			"statements/readme.txt": []byte("not a pdf"),
			"statements/2023/":      nil,
		})

		tasks, err := svc.Submit(ctx, owner, "statements.zip", archive)
		require.NoError(t, err)
		assert.Len(t, tasks, 2)

		jobs, err := store.ListByOwner(ctx, owner)
		require.NoError(t, err)
		keys := []string{jobs[0].FileKey, jobs[1].FileKey}
		assert.ElementsMatch(t, []string{"jan.pdf", "feb.pdf"}, keys)
	})

	t.Run("zip without pdfs is rejected", func(t *testing.T) {
		store := queue.NewMemoryStore()
		svc := newTestService(store, cats, &fakeStatements{})

		archive := zipOf(t, map[string][]byte{"notes.txt": []byte("hi")})
		_, err := svc.Submit(ctx, owner, "stuff.zip", archive)
		assert.ErrorIs(t, err, ErrEmptyArchive)
	})

	t.Run("other formats are rejected", func(t *testing.T) {
		store := queue.NewMemoryStore()
		svc := newTestService(store, cats, &fakeStatements{})

		_, err := svc.Submit(ctx, owner, "photo.png", []byte("\x89PNG\r\n"))
		assert.ErrorIs(t, err, ErrUnsupportedFile)
	})
}

func completeJob(t *testing.T, store *queue.MemoryStore, completion string) {
	t.Helper()
	job, err := store.DequeueWaiting(context.Background())
	require.NoError(t, err)
	require.NotNil(t, job)
	require.NoError(t, store.Complete(context.Background(), job.ID, completion))
}

func TestService_GetReview(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	foodID := uuid.New()
	transportID := uuid.New()
	funID := uuid.New()
	cats := []category.Category{
		{ID: foodID, Title: "Food", Keywords: []string{"nespresso"}},
		{ID: transportID, Title: "Transport", Keywords: []string{"grab"}},
		{ID: funID, Title: "Entertainment"},
	}

	store := queue.NewMemoryStore()
	svc := newTestService(store, cats, &fakeStatements{})

	_, err := svc.Submit(ctx, owner, "jul.pdf", []byte("%PDF-1.7"))
	require.NoError(t, err)
	completeJob(t, store, "bank: DBS\n"+
		"statement date: 19 Jul 2024\n"+
		"total amount: 58.10\n"+
		"19 Jul 2024, Nespresso ION Singapore SG, 38.60, Food\n"+
		"20 Jul 2024, GRAB *RIDE SG, 19.50, \n"+
		"21 Jul 2024, GV CINEMA TICKET, 12.00, Entertainmnt\n")

	review, err := svc.GetReview(ctx, owner, "jul.pdf")
	require.NoError(t, err)

	assert.Equal(t, "DBS", review.Bank)
	require.NotNil(t, review.StatementDate)
	assert.Equal(t, time.Date(2024, 7, 19, 0, 0, 0, 0, time.UTC), *review.StatementDate)
	assert.InDelta(t, 58.10, review.TotalAmount, 0.001)
	require.Len(t, review.Candidates, 3)

	// Model named the category on the first row.
	require.NotNil(t, review.Candidates[0].CategoryID)
	assert.Equal(t, foodID, *review.Candidates[0].CategoryID)

	// Second row was left uncategorized; the keyword pass fills it in.
	require.NotNil(t, review.Candidates[1].CategoryID)
	assert.Equal(t, transportID, *review.Candidates[1].CategoryID)
	assert.Equal(t, "Transport", review.Candidates[1].CategoryTitle)

	// Third row carries a misspelled title; fuzzy resolution recovers it.
	require.NotNil(t, review.Candidates[2].CategoryID)
	assert.Equal(t, funID, *review.Candidates[2].CategoryID)
	assert.Equal(t, "Entertainment", review.Candidates[2].CategoryTitle)
}

func TestService_GetReview_NotCompleted(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	store := queue.NewMemoryStore()
	svc := newTestService(store, nil, &fakeStatements{})

	_, err := svc.Submit(ctx, owner, "pending.pdf", []byte("%PDF-1.7"))
	require.NoError(t, err)

	_, err = svc.GetReview(ctx, owner, "pending.pdf")
	assert.ErrorIs(t, err, queue.ErrJobNotFound)
}

func TestService_Commit(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	foodID := uuid.New()
	cats := []category.Category{{ID: foodID, Title: "Food", Keywords: []string{"nespresso"}}}

	store := queue.NewMemoryStore()
	statements := &fakeStatements{}
	svc := newTestService(store, cats, statements)

	_, err := svc.Submit(ctx, owner, "jul.pdf", []byte("%PDF-1.7"))
	require.NoError(t, err)
	completeJob(t, store, "bank: DBS\n"+
		"statement date: 19 Jul 2024\n"+
		"19 Jul 2024, Nespresso ION Singapore SG, 38.60, Food\n"+
		"20 Jul 2024, MYSTERY CHARGE, not-a-number, \n")

	outcome, err := svc.Commit(ctx, owner, []string{"jul.pdf"})
	require.NoError(t, err)
	assert.Equal(t, []string{"jul.pdf"}, outcome.Committed)
	assert.Empty(t, outcome.Failed)

	require.Len(t, statements.committed, 1)
	st := statements.committed[0]
	assert.Equal(t, "jul", st.Name)
	assert.Equal(t, "DBS", st.Bank)
	assert.Equal(t, time.Date(2024, 7, 19, 0, 0, 0, 0, time.UTC), st.IssueDate)

	// The unparseable amount is dropped; the good row lands in cents.
	require.Len(t, statements.expenses[0], 1)
	exp := statements.expenses[0][0]
	assert.Equal(t, int64(3860), exp.AmountCents)
	assert.Equal(t, "SGD", exp.Currency)
	require.NotNil(t, exp.CategoryID)
	assert.Equal(t, foodID, *exp.CategoryID)

	// Committed jobs leave the queue.
	jobs, err := store.ListByOwner(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestService_Commit_ContinuesPastFailures(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()

	store := queue.NewMemoryStore()
	statements := &fakeStatements{}
	svc := newTestService(store, nil, statements)

	_, err := svc.Submit(ctx, owner, "good.pdf", []byte("%PDF-1.7"))
	require.NoError(t, err)
	completeJob(t, store, "bank: OCBC\n01 Jul 2024, Coffee, 5.00, ")

	outcome, err := svc.Commit(ctx, owner, []string{"missing.pdf", "good.pdf"})
	require.NoError(t, err)

	assert.Equal(t, []string{"good.pdf"}, outcome.Committed)
	require.Contains(t, outcome.Failed, "missing.pdf")
	assert.Len(t, statements.committed, 1)
}

func TestService_Commit_StorageFailureDoesNotCommit(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()

	store := queue.NewMemoryStore()
	statements := &fakeStatements{err: errors.New("db down")}
	svc := newTestService(store, nil, statements)

	_, err := svc.Submit(ctx, owner, "jul.pdf", []byte("%PDF-1.7"))
	require.NoError(t, err)
	completeJob(t, store, "bank: DBS\n01 Jul 2024, Coffee, 5.00, ")

	outcome, err := svc.Commit(ctx, owner, []string{"jul.pdf"})
	require.NoError(t, err)
	assert.Empty(t, outcome.Committed)
	assert.Contains(t, outcome.Failed, "jul.pdf")

	// The job stays queued so the user can retry the commit.
	jobs, err := store.ListByOwner(ctx, owner)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, queue.StatusCompleted, jobs[0].Status)
}
