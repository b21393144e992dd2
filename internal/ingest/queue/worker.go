package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/ledgerlens/internal/ingest/completion"
	"github.com/FACorreiaa/ledgerlens/internal/ingest/ocr"
	"github.com/FACorreiaa/ledgerlens/internal/ingest/prompt"
	"github.com/FACorreiaa/ledgerlens/internal/ingest/textproc"
	"github.com/FACorreiaa/ledgerlens/pkg/metrics"
	"github.com/FACorreiaa/ledgerlens/pkg/notify"
)

var tracer = otel.Tracer("github.com/FACorreiaa/ledgerlens/internal/ingest/queue")

// UserDirectory resolves an owner ID to a notification address.
type UserDirectory interface {
	EmailFor(ctx context.Context, userID string) (string, error)
}

// Worker drains the job store with a pool of goroutines, running the full
// per-file pipeline: rasterize/OCR -> trim -> prompt -> completion. One
// job failing never affects other jobs or the pool itself.
type Worker struct {
	store       JobStore
	extractor   ocr.TextExtractor
	completer   completion.Completer
	trimMarkers []string
	logger      *slog.Logger

	notifier notify.Notifier
	users    UserDirectory

	workers      int
	pollInterval time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWorker creates a worker pool over the given store.
func NewWorker(store JobStore, extractor ocr.TextExtractor, completer completion.Completer, trimMarkers []string, workers int, pollInterval time.Duration, logger *slog.Logger) *Worker {
	if workers <= 0 {
		workers = 1
	}
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &Worker{
		store:        store,
		extractor:    extractor,
		completer:    completer,
		trimMarkers:  trimMarkers,
		notifier:     notify.NopNotifier{},
		workers:      workers,
		pollInterval: pollInterval,
		logger:       logger,
	}
}

// WithNotifier adds email notification for finished jobs.
func (w *Worker) WithNotifier(n notify.Notifier, users UserDirectory) *Worker {
	w.notifier = n
	w.users = users
	return w
}

// Start launches the worker pool. Non-blocking.
func (w *Worker) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)

	w.logger.Info("starting ingest workers", slog.Int("workers", w.workers))
	for i := 0; i < w.workers; i++ {
		w.wg.Add(1)
		go w.run(ctx, i)
	}
}

// Stop signals all workers and waits for in-flight jobs to finish.
func (w *Worker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	w.logger.Info("ingest workers stopped")
}

func (w *Worker) run(ctx context.Context, workerID int) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("worker stopping", slog.Int("worker_id", workerID))
			return
		default:
		}

		job, err := w.store.DequeueWaiting(ctx)
		if err != nil {
			w.logger.Error("failed to dequeue job", slog.Any("error", err))
			w.sleep(ctx)
			continue
		}
		if job == nil {
			w.sleep(ctx)
			continue
		}

		w.process(ctx, job, workerID)
	}
}

func (w *Worker) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(w.pollInterval):
	}
}

// process runs the pipeline for one claimed job and records its terminal
// status. The pipeline's outcome is a first-class return value, not a log
// side channel.
func (w *Worker) process(ctx context.Context, job *Job, workerID int) {
	started := time.Now()

	ctx, span := tracer.Start(ctx, "ingest.pipeline", trace.WithAttributes(
		attribute.String("file_key", job.FileKey),
		attribute.String("owner_id", job.OwnerID.String()),
	))
	defer span.End()

	log := w.logger.With(
		slog.String("file_key", job.FileKey),
		slog.String("owner_id", job.OwnerID.String()),
		slog.Int("worker_id", workerID),
	)
	log.Info("processing ingest job")

	completionText, err := w.runPipeline(ctx, job)
	metrics.PipelineDuration.Observe(time.Since(started).Seconds())

	if err != nil {
		span.RecordError(err)
		log.Error("ingest job failed", slog.Any("error", err))

		if ferr := w.store.Fail(ctx, job.ID, err.Error()); ferr != nil {
			log.Error("failed to record job failure", slog.Any("error", ferr))
		}
		metrics.JobsFinished.WithLabelValues(string(StatusFailed)).Inc()
		w.notifyOutcome(ctx, job, err)
		return
	}

	if cerr := w.store.Complete(ctx, job.ID, completionText); cerr != nil {
		log.Error("failed to store job result", slog.Any("error", cerr))
		return
	}

	metrics.JobsFinished.WithLabelValues(string(StatusCompleted)).Inc()
	log.Info("ingest job completed",
		slog.Duration("took", time.Since(started)),
		slog.Int("completion_bytes", len(completionText)),
	)
	w.notifyOutcome(ctx, job, nil)
}

// runPipeline executes the stages for one file strictly in order; no stage
// runs before its predecessor's output is available.
func (w *Worker) runPipeline(ctx context.Context, job *Job) (string, error) {
	ctx, ocrSpan := tracer.Start(ctx, "ingest.ocr")
	rawText, err := w.extractor.ExtractText(ctx, job.RawFile)
	ocrSpan.End()
	if err != nil {
		return "", fmt.Errorf("ocr failed: %w", err)
	}

	trimmed := textproc.Trim(rawText, w.trimMarkers)

	instruction := prompt.Build(trimmed, job.Categories)

	ctx, llmSpan := tracer.Start(ctx, "ingest.completion")
	completionText, err := w.completer.Complete(ctx, instruction)
	llmSpan.End()
	if err != nil {
		return "", fmt.Errorf("completion failed: %w", err)
	}

	// Parse once here as a sanity check; the authoritative parse happens at
	// commit against the owner's current category list.
	_, candidates := completion.Parse(completionText, nil)
	w.logger.Debug("parsed completion",
		slog.String("file_key", job.FileKey),
		slog.Int("candidates", len(candidates)),
	)

	return completionText, nil
}

func (w *Worker) notifyOutcome(ctx context.Context, job *Job, jobErr error) {
	if w.users == nil {
		return
	}

	email, err := w.users.EmailFor(ctx, job.OwnerID.String())
	if err != nil || email == "" {
		return
	}

	if jobErr != nil {
		err = w.notifier.JobFailed(ctx, email, job.OriginalName, jobErr.Error())
	} else {
		err = w.notifier.JobCompleted(ctx, email, job.OriginalName)
	}
	if err != nil {
		w.logger.Warn("failed to send job notification", slog.Any("error", err))
	}
}
