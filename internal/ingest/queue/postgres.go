package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/FACorreiaa/ledgerlens/internal/ingest/prompt"
)

// PostgresStore implements JobStore on the ingest_jobs table. Dequeueing
// uses FOR UPDATE SKIP LOCKED so multiple workers never claim the same job.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed job store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Enqueue(ctx context.Context, job *Job) error {
	snapshot, err := json.Marshal(job.Categories)
	if err != nil {
		return fmt.Errorf("failed to marshal category snapshot: %w", err)
	}

	query := `
		INSERT INTO ingest_jobs (owner_id, file_key, original_name, raw_file, categories)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (owner_id, file_key) DO UPDATE SET
			original_name = EXCLUDED.original_name,
			raw_file      = EXCLUDED.raw_file,
			categories    = EXCLUDED.categories,
			status        = 'waiting',
			completion    = NULL,
			failure       = NULL,
			enqueued_at   = now(),
			started_at    = NULL,
			finished_at   = NULL
		RETURNING id
	`

	if err := s.db.QueryRow(ctx, query, job.OwnerID, job.FileKey, job.OriginalName, job.RawFile, snapshot).Scan(&job.ID); err != nil {
		return fmt.Errorf("failed to enqueue job: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Job, error) {
	query := `
		SELECT id, owner_id, file_key, original_name, status, COALESCE(failure, ''), enqueued_at, started_at, finished_at
		FROM ingest_jobs
		WHERE owner_id = $1
		ORDER BY enqueued_at ASC
	`

	rows, err := s.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var j Job
		if err := rows.Scan(
			&j.ID,
			&j.OwnerID,
			&j.FileKey,
			&j.OriginalName,
			&j.Status,
			&j.Failure,
			&j.EnqueuedAt,
			&j.StartedAt,
			&j.FinishedAt,
		); err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}

	return jobs, rows.Err()
}

func (s *PostgresStore) GetResult(ctx context.Context, ownerID uuid.UUID, fileKey string) (*Result, error) {
	query := `
		SELECT completion, raw_file, original_name
		FROM ingest_jobs
		WHERE owner_id = $1 AND file_key = $2 AND status = 'completed'
	`

	var r Result
	err := s.db.QueryRow(ctx, query, ownerID, fileKey).Scan(&r.CompletionText, &r.FileBytes, &r.OriginalName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job result: %w", err)
	}

	return &r, nil
}

func (s *PostgresStore) Delete(ctx context.Context, ownerID uuid.UUID, fileKeys []string) error {
	if len(fileKeys) == 0 {
		return nil
	}

	_, err := s.db.Exec(ctx,
		`DELETE FROM ingest_jobs WHERE owner_id = $1 AND file_key = ANY($2)`,
		ownerID, fileKeys,
	)
	if err != nil {
		return fmt.Errorf("failed to delete jobs: %w", err)
	}
	return nil
}

func (s *PostgresStore) DequeueWaiting(ctx context.Context) (*Job, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin dequeue: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		SELECT id, owner_id, file_key, original_name, raw_file, categories
		FROM ingest_jobs
		WHERE status = 'waiting'
		ORDER BY enqueued_at ASC
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	`

	var (
		j        Job
		snapshot []byte
	)
	err = tx.QueryRow(ctx, query).Scan(&j.ID, &j.OwnerID, &j.FileKey, &j.OriginalName, &j.RawFile, &snapshot)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to claim job: %w", err)
	}

	if len(snapshot) > 0 {
		if err := json.Unmarshal(snapshot, &j.Categories); err != nil {
			// A corrupt snapshot degrades to an empty taxonomy rather than
			// wedging the queue.
			j.Categories = []prompt.CategoryHint{}
		}
	}

	if _, err := tx.Exec(ctx,
		`UPDATE ingest_jobs SET status = 'active', started_at = now() WHERE id = $1`,
		j.ID,
	); err != nil {
		return nil, fmt.Errorf("failed to mark job active: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit dequeue: %w", err)
	}

	j.Status = StatusActive
	return &j, nil
}

func (s *PostgresStore) Complete(ctx context.Context, jobID uuid.UUID, completionText string) error {
	// Deleting a job mid-run removes its row; the worker's late Complete
	// then updates nothing and the result is discarded.
	_, err := s.db.Exec(ctx,
		`UPDATE ingest_jobs SET status = 'completed', completion = $2, finished_at = now() WHERE id = $1 AND status = 'active'`,
		jobID, completionText,
	)
	if err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}
	return nil
}

func (s *PostgresStore) Fail(ctx context.Context, jobID uuid.UUID, reason string) error {
	_, err := s.db.Exec(ctx,
		`UPDATE ingest_jobs SET status = 'failed', failure = $2, finished_at = now() WHERE id = $1 AND status = 'active'`,
		jobID, reason,
	)
	if err != nil {
		return fmt.Errorf("failed to mark job failed: %w", err)
	}
	return nil
}

func (s *PostgresStore) RequeueStale(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)

	tag, err := s.db.Exec(ctx,
		`UPDATE ingest_jobs SET status = 'waiting', started_at = NULL WHERE status = 'active' AND started_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to requeue stale jobs: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
