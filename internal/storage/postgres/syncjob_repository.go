package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/chsync/internal/domain"
)

type syncJobRepository struct {
	db *sql.DB
}

// NewSyncJobRepository создаёт PostgreSQL-реализацию SyncJobRepository.
func NewSyncJobRepository(store *Store) domain.SyncJobRepository {
	return &syncJobRepository{db: store.DB()}
}

func (r *syncJobRepository) CreateJob(ctx context.Context, job domain.SyncJob) (domain.SyncJob, error) {
	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.StartedAt.IsZero() {
		job.StartedAt = time.Now().UTC()
	}
	if job.Status == "" {
		job.Status = domain.SyncJobQueued
	}

	_, err := r.db.ExecContext(opCtx, `
		INSERT INTO sync_jobs (
			id, channel_id, channel_account_id, job_type, status,
			items_total, items_ok, items_failed, started_at, finished_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NULL)
	`,
		job.ID, job.ChannelID, job.ChannelAccountID, string(job.Type), string(job.Status),
		job.ItemsTotal, job.ItemsOK, job.ItemsFailed, job.StartedAt,
	)
	if err != nil {
		return domain.SyncJob{}, fmt.Errorf("insert sync job: %w", err)
	}

	return job, nil
}

func (r *syncJobRepository) FinishJob(ctx context.Context, id string, status domain.SyncJobStatus, total, ok, failed int) error {
	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(opCtx, `
		UPDATE sync_jobs
		SET status = $2,
		    items_total = $3,
		    items_ok = $4,
		    items_failed = $5,
		    finished_at = NOW()
		WHERE id = $1
	`, id, string(status), total, ok, failed)
	if err != nil {
		return fmt.Errorf("finish sync job: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for sync job finish: %w", err)
	}
	if affected == 0 {
		return domain.ErrSyncJobNotFound
	}

	return nil
}

func (r *syncJobRepository) AppendLog(ctx context.Context, entry domain.SyncLog) error {
	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(opCtx, `
		INSERT INTO sync_logs (id, job_id, level, message, raw_payload, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, entry.ID, entry.JobID, string(entry.Level), entry.Message, entry.RawPayload, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("append sync log: %w", err)
	}

	return nil
}

func (r *syncJobRepository) GetJob(ctx context.Context, id string) (domain.SyncJob, error) {
	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var (
		job        domain.SyncJob
		jobType    string
		status     string
		finishedAt sql.NullTime
	)

	err := r.db.QueryRowContext(opCtx, `
		SELECT id, channel_id, channel_account_id, job_type, status,
		       items_total, items_ok, items_failed, started_at, finished_at
		FROM sync_jobs
		WHERE id = $1
	`, id).Scan(
		&job.ID, &job.ChannelID, &job.ChannelAccountID, &jobType, &status,
		&job.ItemsTotal, &job.ItemsOK, &job.ItemsFailed, &job.StartedAt, &finishedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.SyncJob{}, domain.ErrSyncJobNotFound
		}
		return domain.SyncJob{}, fmt.Errorf("select sync job: %w", err)
	}

	job.Type = domain.SyncJobType(jobType)
	job.Status = domain.SyncJobStatus(status)
	if finishedAt.Valid {
		job.FinishedAt = finishedAt.Time.UTC()
	}

	return job, nil
}

func (r *syncJobRepository) ListLogs(ctx context.Context, jobID string) ([]domain.SyncLog, error) {
	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(opCtx, `
		SELECT id, job_id, level, message, raw_payload, created_at
		FROM sync_logs
		WHERE job_id = $1
		ORDER BY created_at, id
	`, jobID)
	if err != nil {
		return nil, fmt.Errorf("list sync logs: %w", err)
	}
	defer rows.Close()

	logs := make([]domain.SyncLog, 0)
	for rows.Next() {
		var entry domain.SyncLog
		var level string
		if err := rows.Scan(&entry.ID, &entry.JobID, &level, &entry.Message, &entry.RawPayload, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan sync log: %w", err)
		}
		entry.Level = domain.LogLevel(level)
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sync logs: %w", err)
	}

	return logs, nil
}

func (r *syncJobRepository) DeleteFinishedBefore(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 500
	}

	// Журналы удаляются каскадом вместе с задачей.
	res, err := r.db.ExecContext(opCtx, `
		DELETE FROM sync_jobs
		WHERE id IN (
			SELECT id
			FROM sync_jobs
			WHERE status IN ('SUCCESS', 'FAILED')
			  AND finished_at IS NOT NULL
			  AND finished_at < $1
			ORDER BY finished_at
			LIMIT $2
		)
	`, cutoff, limit)
	if err != nil {
		return 0, fmt.Errorf("delete finished sync jobs: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected for sync job cleanup: %w", err)
	}

	return int(affected), nil
}

var _ domain.SyncJobRepository = (*syncJobRepository)(nil)
