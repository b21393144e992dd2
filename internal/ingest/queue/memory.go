package queue

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memJob pairs a job with its stored completion text.
type memJob struct {
	Job
	completion string
}

// MemoryStore is an in-memory JobStore used in tests and local development.
// It mirrors the Postgres store's semantics, including overwrite-on-enqueue
// and discard of results for deleted jobs.
type MemoryStore struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]map[string]*memJob // ownerID -> fileKey -> job
}

// NewMemoryStore creates an empty in-memory job store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[uuid.UUID]map[string]*memJob)}
}

func (s *MemoryStore) Enqueue(ctx context.Context, job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.jobs[job.OwnerID] == nil {
		s.jobs[job.OwnerID] = make(map[string]*memJob)
	}

	stored := memJob{Job: *job}
	stored.ID = uuid.New()
	stored.Status = StatusWaiting
	stored.Failure = ""
	stored.EnqueuedAt = time.Now()
	stored.StartedAt = nil
	stored.FinishedAt = nil

	s.jobs[job.OwnerID][job.FileKey] = &stored
	job.ID = stored.ID
	return nil
}

func (s *MemoryStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var jobs []Job
	for _, j := range s.jobs[ownerID] {
		copied := j.Job
		copied.RawFile = nil
		copied.Categories = nil
		jobs = append(jobs, copied)
	}

	sort.Slice(jobs, func(i, k int) bool { return jobs[i].EnqueuedAt.Before(jobs[k].EnqueuedAt) })
	return jobs, nil
}

func (s *MemoryStore) GetResult(ctx context.Context, ownerID uuid.UUID, fileKey string) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[ownerID][fileKey]
	if !ok || j.Status != StatusCompleted {
		return nil, ErrJobNotFound
	}

	return &Result{
		CompletionText: j.completion,
		FileBytes:      j.RawFile,
		OriginalName:   j.OriginalName,
	}, nil
}

func (s *MemoryStore) Delete(ctx context.Context, ownerID uuid.UUID, fileKeys []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range fileKeys {
		delete(s.jobs[ownerID], key)
	}
	return nil
}

func (s *MemoryStore) DequeueWaiting(ctx context.Context) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var oldest *memJob
	for _, byKey := range s.jobs {
		for _, j := range byKey {
			if j.Status != StatusWaiting {
				continue
			}
			if oldest == nil || j.EnqueuedAt.Before(oldest.EnqueuedAt) {
				oldest = j
			}
		}
	}

	if oldest == nil {
		return nil, nil
	}

	now := time.Now()
	oldest.Status = StatusActive
	oldest.StartedAt = &now

	claimed := oldest.Job
	return &claimed, nil
}

func (s *MemoryStore) Complete(ctx context.Context, jobID uuid.UUID, completionText string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if j := s.findActive(jobID); j != nil {
		now := time.Now()
		j.Status = StatusCompleted
		j.completion = completionText
		j.FinishedAt = &now
	}
	return nil
}

func (s *MemoryStore) Fail(ctx context.Context, jobID uuid.UUID, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if j := s.findActive(jobID); j != nil {
		now := time.Now()
		j.Status = StatusFailed
		j.Failure = reason
		j.FinishedAt = &now
	}
	return nil
}

func (s *MemoryStore) RequeueStale(ctx context.Context, olderThan time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-olderThan)
	requeued := 0
	for _, byKey := range s.jobs {
		for _, j := range byKey {
			if j.Status == StatusActive && j.StartedAt != nil && j.StartedAt.Before(cutoff) {
				j.Status = StatusWaiting
				j.StartedAt = nil
				requeued++
			}
		}
	}
	return requeued, nil
}

// findActive locates an active job by ID; callers hold the lock. A job
// deleted while running is simply not found, which discards its result.
func (s *MemoryStore) findActive(jobID uuid.UUID) *memJob {
	for _, byKey := range s.jobs {
		for _, j := range byKey {
			if j.ID == jobID && j.Status == StatusActive {
				return j
			}
		}
	}
	return nil
}
