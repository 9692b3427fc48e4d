// Package thumbs implements the pipeline consumer: a worker pool that derives
// thumbnail copies of uploaded images and delivers welcome notifications.
package thumbs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/driftbox/driftbox/internal/domain"
	"github.com/driftbox/driftbox/internal/queue"
	"github.com/driftbox/driftbox/internal/repository"
)

var jobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "driftbox_worker_jobs_total",
	Help: "Pipeline jobs by lane and terminal status.",
}, []string{"lane", "status"})

// BlobStore reads originals and writes derivatives.
type BlobStore interface {
	Read(ref string) ([]byte, error)
	SaveDerived(ref string, width int, content []byte) error
}

// JobQueue is the broker surface the worker consumes from. Re-enqueueing a
// transient failure is the retry policy; the worker never retries in place.
type JobQueue interface {
	Enqueue(ctx context.Context, lane string, job any) error
	Dequeue(ctx context.Context, timeout time.Duration, lanes ...string) (string, []byte, error)
	PublishEvent(ctx context.Context, event domain.JobEvent) error
}

// Options tune the worker pool.
type Options struct {
	Concurrency int
	MaxAttempts int
	PollTimeout time.Duration
}

// Worker consumes pipeline jobs until its context is cancelled.
type Worker struct {
	files  repository.FileRepository
	users  repository.UserRepository
	blobs  BlobStore
	queue  JobQueue
	logger *slog.Logger
	opts   Options
}

// NewWorker constructs a Worker.
func NewWorker(files repository.FileRepository, users repository.UserRepository, blobs BlobStore, q JobQueue, logger *slog.Logger, opts Options) *Worker {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = 5 * time.Second
	}
	return &Worker{files: files, users: users, blobs: blobs, queue: q, logger: logger, opts: opts}
}

// Run blocks consuming jobs across both lanes until ctx is cancelled.
// Workers process different jobs concurrently; duplicate delivery of the same
// job is tolerated because derivative writes overwrite.
func (w *Worker) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < w.opts.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.loop(ctx)
		}()
	}
	wg.Wait()
}

func (w *Worker) loop(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		lane, payload, err := w.queue.Dequeue(ctx, w.opts.PollTimeout, queue.LaneThumbnails, queue.LaneWelcome)
		if errors.Is(err, queue.ErrEmpty) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Error("dequeue failed", "error", err)
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}
		switch lane {
		case queue.LaneThumbnails:
			w.processThumbnail(ctx, payload)
		case queue.LaneWelcome:
			w.processWelcome(ctx, payload)
		default:
			w.logger.Error("job from unknown lane", "lane", lane)
		}
	}
}

// permanentError marks failures no retry can fix.
type permanentError struct{ err error }

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

func permanent(err error) error { return permanentError{err: err} }

func isPermanent(err error) bool {
	var pe permanentError
	return errors.As(err, &pe)
}

func (w *Worker) processThumbnail(ctx context.Context, payload []byte) {
	var job domain.ThumbnailJob
	if err := json.Unmarshal(payload, &job); err != nil {
		w.logger.Error("malformed thumbnail job", "error", err)
		jobsTotal.WithLabelValues("thumbnails", "failed").Inc()
		return
	}
	event := domain.JobEvent{Lane: "thumbnails", OwnerID: job.OwnerID, FileID: job.FileID}
	if job.FileID == "" || job.OwnerID == "" {
		w.fail(ctx, "thumbnails", event, errors.New("missing job ids"))
		return
	}
	w.publish(ctx, event, domain.JobProcessing, nil)

	err := w.generate(ctx, job)
	switch {
	case err == nil:
		jobsTotal.WithLabelValues("thumbnails", "done").Inc()
		w.publish(ctx, event, domain.JobDone, nil)
		w.logger.Info("thumbnails generated", "file_id", job.FileID, "owner_id", job.OwnerID)
	case isPermanent(err):
		w.fail(ctx, "thumbnails", event, err)
	default:
		job.Attempts++
		if job.Attempts < w.opts.MaxAttempts {
			w.logger.Warn("thumbnail job requeued", "file_id", job.FileID, "attempt", job.Attempts, "error", err)
			w.publish(ctx, event, domain.JobQueued, err)
			if qerr := w.queue.Enqueue(ctx, queue.LaneThumbnails, job); qerr != nil {
				w.fail(ctx, "thumbnails", event, qerr)
			}
			return
		}
		w.fail(ctx, "thumbnails", event, err)
	}
}

// generate re-resolves the job target and produces all derivative widths.
// A missing file or undecodable original is permanent; storage errors are
// transient.
func (w *Worker) generate(ctx context.Context, job domain.ThumbnailJob) error {
	file, err := w.files.GetOwnedFile(ctx, job.FileID, job.OwnerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return permanent(errors.New("file not found"))
		}
		return err
	}
	src, err := w.blobs.Read(file.ContentRef)
	if err != nil {
		return fmt.Errorf("read original: %w", err)
	}
	img, err := imaging.Decode(bytes.NewReader(src))
	if err != nil {
		return permanent(fmt.Errorf("decode image: %w", err))
	}
	format, err := imaging.FormatFromFilename(file.Name)
	if err != nil {
		format = imaging.PNG
	}
	for _, width := range domain.ThumbnailWidths {
		resized := imaging.Resize(img, width, 0, imaging.Lanczos)
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, resized, format); err != nil {
			return fmt.Errorf("encode width %d: %w", width, err)
		}
		if err := w.blobs.SaveDerived(file.ContentRef, width, buf.Bytes()); err != nil {
			return fmt.Errorf("store derivative %d: %w", width, err)
		}
	}
	return nil
}

func (w *Worker) processWelcome(ctx context.Context, payload []byte) {
	var job domain.WelcomeJob
	if err := json.Unmarshal(payload, &job); err != nil {
		w.logger.Error("malformed welcome job", "error", err)
		jobsTotal.WithLabelValues("welcome", "failed").Inc()
		return
	}
	event := domain.JobEvent{Lane: "welcome", OwnerID: job.UserID}
	if job.UserID == "" {
		w.fail(ctx, "welcome", event, errors.New("missing user id"))
		return
	}
	w.publish(ctx, event, domain.JobProcessing, nil)

	user, err := w.users.GetUserByID(ctx, job.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			w.fail(ctx, "welcome", event, permanent(errors.New("user not found")))
			return
		}
		job.Attempts++
		if job.Attempts < w.opts.MaxAttempts {
			w.publish(ctx, event, domain.JobQueued, err)
			if qerr := w.queue.Enqueue(ctx, queue.LaneWelcome, job); qerr != nil {
				w.fail(ctx, "welcome", event, qerr)
			}
			return
		}
		w.fail(ctx, "welcome", event, err)
		return
	}
	// The notification side effect: the original emits a console greeting.
	w.logger.Info("welcome notification sent", "user_id", user.ID, "email", user.Email)
	jobsTotal.WithLabelValues("welcome", "done").Inc()
	w.publish(ctx, event, domain.JobDone, nil)
}

func (w *Worker) fail(ctx context.Context, lane string, event domain.JobEvent, err error) {
	jobsTotal.WithLabelValues(lane, "failed").Inc()
	w.logger.Error("job failed", "lane", lane, "owner_id", event.OwnerID, "file_id", event.FileID, "permanent", isPermanent(err), "error", err)
	w.publish(ctx, event, domain.JobFailed, err)
}

func (w *Worker) publish(ctx context.Context, event domain.JobEvent, status domain.JobStatus, cause error) {
	event.Status = status
	if cause != nil {
		event.Error = cause.Error()
	}
	if err := w.queue.PublishEvent(ctx, event); err != nil {
		w.logger.Warn("job event publish failed", "error", err)
	}
}
