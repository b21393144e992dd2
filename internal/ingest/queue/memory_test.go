package queue

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	owner := uuid.New()

	job := &Job{OwnerID: owner, FileKey: "jan.pdf", OriginalName: "jan.pdf", RawFile: []byte("%PDF-raw")}
	require.NoError(t, store.Enqueue(ctx, job))

	t.Run("enqueued job is listed as waiting", func(t *testing.T) {
		jobs, err := store.ListByOwner(ctx, owner)
		require.NoError(t, err)
		require.Len(t, jobs, 1)
		assert.Equal(t, StatusWaiting, jobs[0].Status)
		assert.Nil(t, jobs[0].RawFile, "listing must not carry payloads")
	})

	t.Run("no result before completion", func(t *testing.T) {
		_, err := store.GetResult(ctx, owner, "jan.pdf")
		assert.ErrorIs(t, err, ErrJobNotFound)
	})

	t.Run("dequeue claims and activates", func(t *testing.T) {
		claimed, err := store.DequeueWaiting(ctx)
		require.NoError(t, err)
		require.NotNil(t, claimed)
		assert.Equal(t, "jan.pdf", claimed.FileKey)
		assert.Equal(t, []byte("%PDF-raw"), claimed.RawFile)

		jobs, _ := store.ListByOwner(ctx, owner)
		assert.Equal(t, StatusActive, jobs[0].Status)

		again, err := store.DequeueWaiting(ctx)
		require.NoError(t, err)
		assert.Nil(t, again, "active job must not be claimed twice")
	})

	t.Run("complete stores the result", func(t *testing.T) {
		jobs, _ := store.ListByOwner(ctx, owner)
		require.NoError(t, store.Complete(ctx, jobs[0].ID, "bank: DBS"))

		res, err := store.GetResult(ctx, owner, "jan.pdf")
		require.NoError(t, err)
		assert.Equal(t, "bank: DBS", res.CompletionText)
		assert.Equal(t, []byte("%PDF-raw"), res.FileBytes)
		assert.Equal(t, "jan.pdf", res.OriginalName)
	})

	t.Run("delete removes job and result, idempotently", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, owner, []string{"jan.pdf", "never-existed.pdf"}))

		jobs, err := store.ListByOwner(ctx, owner)
		require.NoError(t, err)
		assert.Empty(t, jobs)

		_, err = store.GetResult(ctx, owner, "jan.pdf")
		assert.ErrorIs(t, err, ErrJobNotFound)

		require.NoError(t, store.Delete(ctx, owner, []string{"jan.pdf"}))
	})
}

func TestMemoryStore_EnqueueOverwritesSameKey(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	owner := uuid.New()

	first := &Job{OwnerID: owner, FileKey: "feb.pdf", RawFile: []byte("v1")}
	require.NoError(t, store.Enqueue(ctx, first))

	claimed, err := store.DequeueWaiting(ctx)
	require.NoError(t, err)
	require.NoError(t, store.Complete(ctx, claimed.ID, "old result"))

	// Re-uploading the same file name resets the job entirely.
	second := &Job{OwnerID: owner, FileKey: "feb.pdf", RawFile: []byte("v2")}
	require.NoError(t, store.Enqueue(ctx, second))

	jobs, err := store.ListByOwner(ctx, owner)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, StatusWaiting, jobs[0].Status)

	_, err = store.GetResult(ctx, owner, "feb.pdf")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestMemoryStore_DeleteWhileActiveDiscardsResult(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	owner := uuid.New()

	job := &Job{OwnerID: owner, FileKey: "mar.pdf"}
	require.NoError(t, store.Enqueue(ctx, job))

	claimed, err := store.DequeueWaiting(ctx)
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, owner, []string{"mar.pdf"}))

	// The worker finishing afterwards must not resurrect the job.
	require.NoError(t, store.Complete(ctx, claimed.ID, "late result"))

	jobs, err := store.ListByOwner(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestMemoryStore_RequeueStale(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	owner := uuid.New()

	require.NoError(t, store.Enqueue(ctx, &Job{OwnerID: owner, FileKey: "apr.pdf"}))
	claimed, err := store.DequeueWaiting(ctx)
	require.NoError(t, err)
	require.NotNil(t, claimed)

	// Fresh active job is left alone.
	n, err := store.RequeueStale(ctx, time.Hour)
	require.NoError(t, err)
	assert.Zero(t, n)

	// Backdate the claim to simulate a dead worker.
	stale := time.Now().Add(-2 * time.Hour)
	store.mu.Lock()
	store.jobs[owner]["apr.pdf"].StartedAt = &stale
	store.mu.Unlock()

	n, err = store.RequeueStale(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	jobs, _ := store.ListByOwner(ctx, owner)
	assert.Equal(t, StatusWaiting, jobs[0].Status)
}
