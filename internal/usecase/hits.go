package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/vadimbarashkov/shortlink/internal/entity"
	"golang.org/x/sync/semaphore"
)

const (
	defaultHitTimeout  = 5 * time.Second
	defaultMaxInFlight = 64
)

// ErrHitDropped is reported for a hit discarded because the in-flight limit
// was reached.
var ErrHitDropped = errors.New("hit dropped: too many writes in flight")

type hitRepository interface {
	IncrementHits(ctx context.Context, shortCode, originalURL string) (*entity.Metadata, error)
}

type hitMetrics interface {
	HitRecorded(d time.Duration, err error)
	HitDropped()
}

// HitRecorder runs metadata hit upserts outside the request that triggered them.
// Writes keep going after the request context is cancelled and are bounded by
// their own timeout. At most maxInFlight writes exist at once; a hit arriving
// over the limit is dropped. Failures are reported, never returned.
type HitRecorder struct {
	repo    hitRepository
	logger  *slog.Logger
	metrics hitMetrics
	timeout time.Duration
	sem     *semaphore.Weighted
	onError func(shortCode string, err error)
	wg      sync.WaitGroup
}

type HitRecorderOption func(*HitRecorder)

// WithHitTimeout bounds a single upsert.
func WithHitTimeout(d time.Duration) HitRecorderOption {
	return func(r *HitRecorder) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithMaxInFlight limits how many upserts may be pending at once.
func WithMaxInFlight(n int64) HitRecorderOption {
	return func(r *HitRecorder) {
		if n > 0 {
			r.sem = semaphore.NewWeighted(n)
		}
	}
}

// WithErrorHandler registers fn to receive every failed upsert.
func WithErrorHandler(fn func(shortCode string, err error)) HitRecorderOption {
	return func(r *HitRecorder) {
		r.onError = fn
	}
}

func NewHitRecorder(repo hitRepository, logger *slog.Logger, metrics hitMetrics, opts ...HitRecorderOption) *HitRecorder {
	r := &HitRecorder{
		repo:    repo,
		logger:  logger,
		metrics: metrics,
		timeout: defaultHitTimeout,
		sem:     semaphore.NewWeighted(defaultMaxInFlight),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Record schedules one hit for url and returns immediately. The hit is dropped
// and reported when the in-flight limit is reached.
func (r *HitRecorder) Record(ctx context.Context, url *entity.URL) {
	if !r.sem.TryAcquire(1) {
		r.metrics.HitDropped()
		r.report(url.ShortCode, ErrHitDropped)
		return
	}

	ctx = context.WithoutCancel(ctx)
	shortCode, originalURL := url.ShortCode, url.OriginalURL

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.sem.Release(1)

		ctx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()

		start := time.Now()
		_, err := r.repo.IncrementHits(ctx, shortCode, originalURL)
		r.metrics.HitRecorded(time.Since(start), err)

		if err != nil {
			r.report(shortCode, err)
		}
	}()
}

// Wait blocks until every scheduled hit has been written or has failed.
func (r *HitRecorder) Wait() {
	r.wg.Wait()
}

// Drain is Wait bounded by ctx. It must not race with Record.
func (r *HitRecorder) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *HitRecorder) report(shortCode string, err error) {
	const op = "usecase.HitRecorder.Record"

	r.logger.Error(
		"failed to record hit",
		slog.Group(op, slog.String("short_code", shortCode), slog.Any("err", err)),
	)

	if r.onError != nil {
		r.onError(shortCode, err)
	}
}
