// Package retention удаляет завершённые задачи синхронизации старше окна хранения.
package retention

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/chsync/internal/domain"
)

const (
	defaultCleanupInterval  = 1 * time.Hour
	defaultRetentionWindow  = 30 * 24 * time.Hour
	defaultCleanupBatchSize = 500
)

var (
	retentionRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chsync_sync_job_retention_runs_total",
		Help: "Total number of sync job retention runs grouped by result.",
	}, []string{"result"})
	retentionDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chsync_sync_job_retention_deleted_total",
		Help: "Total number of deleted finished sync jobs.",
	})
	retentionLastDeleted = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chsync_sync_job_retention_last_deleted",
		Help: "Number of deleted sync jobs during the last retention run.",
	})
)

// CleanupOptions задаёт параметры воркера очистки задач синхронизации.
type CleanupOptions struct {
	Logger    *log.Entry
	Interval  time.Duration
	Window    time.Duration
	BatchSize int
}

// CleanupOption настраивает CleanupWorker.
type CleanupOption func(*CleanupOptions)

// WithLogger задаёт logger для воркера.
func WithLogger(logger *log.Entry) CleanupOption {
	return func(opts *CleanupOptions) {
		opts.Logger = logger
	}
}

// WithInterval задаёт интервал между cleanup-циклами.
func WithInterval(interval time.Duration) CleanupOption {
	return func(opts *CleanupOptions) {
		opts.Interval = interval
	}
}

// WithWindow задаёт окно хранения завершённых задач.
func WithWindow(window time.Duration) CleanupOption {
	return func(opts *CleanupOptions) {
		opts.Window = window
	}
}

// WithBatchSize задаёт размер batch для одного удаления.
func WithBatchSize(batchSize int) CleanupOption {
	return func(opts *CleanupOptions) {
		opts.BatchSize = batchSize
	}
}

// CleanupWorker периодически удаляет завершённые задачи синхронизации
// вместе с их журналами. Незавершённые задачи не трогаются.
type CleanupWorker struct {
	repo      domain.SyncJobRepository
	logger    *log.Entry
	interval  time.Duration
	window    time.Duration
	batchSize int
}

// NewCleanupWorker создаёт воркер очистки задач синхронизации.
func NewCleanupWorker(repo domain.SyncJobRepository, options ...CleanupOption) *CleanupWorker {
	opts := CleanupOptions{
		Interval:  defaultCleanupInterval,
		Window:    defaultRetentionWindow,
		BatchSize: defaultCleanupBatchSize,
	}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "retention-worker")
	}

	if opts.Interval <= 0 {
		opts.Interval = defaultCleanupInterval
	}
	if opts.Window <= 0 {
		opts.Window = defaultRetentionWindow
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultCleanupBatchSize
	}

	return &CleanupWorker{
		repo:      repo,
		logger:    logger,
		interval:  opts.Interval,
		window:    opts.Window,
		batchSize: opts.BatchSize,
	}
}

// Run запускает периодическую очистку до отмены ctx.
func (w *CleanupWorker) Run(ctx context.Context) {
	if w.repo == nil {
		w.logger.Warn("retention worker is disabled: repo is nil")
		return
	}

	w.cleanup(ctx, time.Now().UTC().Add(-w.window))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.cleanup(ctx, time.Now().UTC().Add(-w.window))
		}
	}
}

func (w *CleanupWorker) cleanup(ctx context.Context, cutoff time.Time) {
	deleted, err := w.DeleteFinished(ctx, cutoff)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		retentionRunsTotal.WithLabelValues("error").Inc()
		w.logger.WithError(err).Warn("sync job retention run failed")
		return
	}

	retentionRunsTotal.WithLabelValues("ok").Inc()
	retentionLastDeleted.Set(float64(deleted))
	if deleted > 0 {
		w.logger.WithField("deleted", deleted).Info("sync job retention completed")
	}
}

// DeleteFinished удаляет завершённые задачи старше cutoff порциями batchSize.
func (w *CleanupWorker) DeleteFinished(ctx context.Context, cutoff time.Time) (int, error) {
	if cutoff.IsZero() {
		cutoff = time.Now().UTC().Add(-w.window)
	}

	totalDeleted := 0
	for {
		if err := ctx.Err(); err != nil {
			return totalDeleted, err
		}

		deleted, err := w.repo.DeleteFinishedBefore(ctx, cutoff, w.batchSize)
		if err != nil {
			return totalDeleted, err
		}

		totalDeleted += deleted
		if deleted > 0 {
			retentionDeletedTotal.Add(float64(deleted))
		}

		if deleted < w.batchSize {
			break
		}
	}

	return totalDeleted, nil
}
