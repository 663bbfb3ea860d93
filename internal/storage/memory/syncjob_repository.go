package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/chsync/internal/domain"
)

// syncJobRepositoryInMemory — in-memory реализация SyncJobRepository.
type syncJobRepositoryInMemory struct {
	mu   sync.RWMutex
	jobs map[string]domain.SyncJob
	logs map[string][]domain.SyncLog
}

// NewSyncJobRepository возвращает in-memory журнал задач синхронизации
// для локальной разработки и тестов.
func NewSyncJobRepository() *syncJobRepositoryInMemory {
	return &syncJobRepositoryInMemory{
		jobs: make(map[string]domain.SyncJob),
		logs: make(map[string][]domain.SyncLog),
	}
}

func (r *syncJobRepositoryInMemory) CreateJob(_ context.Context, job domain.SyncJob) (domain.SyncJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.StartedAt.IsZero() {
		job.StartedAt = time.Now().UTC()
	}
	if job.Status == "" {
		job.Status = domain.SyncJobRunning
	}
	r.jobs[job.ID] = job
	return job, nil
}

func (r *syncJobRepositoryInMemory) FinishJob(_ context.Context, id string, status domain.SyncJobStatus, total, ok, failed int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, exists := r.jobs[id]
	if !exists {
		return domain.ErrSyncJobNotFound
	}

	job.Status = status
	job.ItemsTotal = total
	job.ItemsOK = ok
	job.ItemsFailed = failed
	job.FinishedAt = time.Now().UTC()
	r.jobs[id] = job
	return nil
}

func (r *syncJobRepositoryInMemory) AppendLog(_ context.Context, entry domain.SyncLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	r.logs[entry.JobID] = append(r.logs[entry.JobID], entry)
	return nil
}

func (r *syncJobRepositoryInMemory) GetJob(_ context.Context, id string) (domain.SyncJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[id]
	if !ok {
		return domain.SyncJob{}, domain.ErrSyncJobNotFound
	}
	return job, nil
}

func (r *syncJobRepositoryInMemory) ListLogs(_ context.Context, jobID string) ([]domain.SyncLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	logs := r.logs[jobID]
	result := make([]domain.SyncLog, len(logs))
	copy(result, logs)
	return result, nil
}

// DeleteFinishedBefore удаляет завершённые задачи старше отметки вместе с журналами.
func (r *syncJobRepositoryInMemory) DeleteFinishedBefore(_ context.Context, cutoff time.Time, limit int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	candidates := make([]domain.SyncJob, 0)
	for _, job := range r.jobs {
		if job.Status.Finished() && !job.FinishedAt.IsZero() && job.FinishedAt.Before(cutoff) {
			candidates = append(candidates, job)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].FinishedAt.Before(candidates[j].FinishedAt)
	})

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	for _, job := range candidates {
		delete(r.jobs, job.ID)
		delete(r.logs, job.ID)
	}
	return len(candidates), nil
}

var _ domain.SyncJobRepository = (*syncJobRepositoryInMemory)(nil)
