package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/chsync/internal/domain"
)

func TestSyncJobRepository_PostgresLifecycle(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)

	repo := NewSyncJobRepository(store)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	job, err := repo.CreateJob(ctx, domain.SyncJob{
		ChannelID: "shopify",
		Type:      domain.SyncJobPullOrders,
		Status:    domain.SyncJobRunning,
	})
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	if job.ID == "" {
		t.Fatal("job id must be assigned")
	}

	if err := repo.AppendLog(ctx, domain.SyncLog{
		JobID:   job.ID,
		Level:   domain.LogLevelInfo,
		Message: "imported order 1001",
	}); err != nil {
		t.Fatalf("append info log: %v", err)
	}
	if err := repo.AppendLog(ctx, domain.SyncLog{
		JobID:      job.ID,
		Level:      domain.LogLevelError,
		Message:    "failed to import order 1002",
		RawPayload: []byte(`{"id":1002}`),
	}); err != nil {
		t.Fatalf("append error log: %v", err)
	}

	if err := repo.FinishJob(ctx, job.ID, domain.SyncJobSuccess, 2, 1, 1); err != nil {
		t.Fatalf("finish job: %v", err)
	}

	finished, err := repo.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if finished.Status != domain.SyncJobSuccess {
		t.Fatalf("status = %s, want SUCCESS", finished.Status)
	}
	if finished.ItemsTotal != 2 || finished.ItemsOK != 1 || finished.ItemsFailed != 1 {
		t.Fatalf("unexpected counters: %+v", finished)
	}
	if finished.FinishedAt.IsZero() {
		t.Fatal("finished job must carry finished_at")
	}

	logs, err := repo.ListLogs(ctx, job.ID)
	if err != nil {
		t.Fatalf("list logs: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("expected 2 logs, got %d", len(logs))
	}
	if logs[1].Level != domain.LogLevelError || len(logs[1].RawPayload) == 0 {
		t.Fatalf("error log must carry raw payload: %+v", logs[1])
	}
}

func TestSyncJobRepository_PostgresFinishNotFound(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)

	repo := NewSyncJobRepository(store)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := repo.FinishJob(ctx, uuid.NewString(), domain.SyncJobFailed, 0, 0, 0)
	if !errors.Is(err, domain.ErrSyncJobNotFound) {
		t.Fatalf("expected ErrSyncJobNotFound, got %v", err)
	}
}

func TestSyncJobRepository_PostgresDeleteFinishedBefore(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)

	repo := NewSyncJobRepository(store)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	finished, err := repo.CreateJob(ctx, domain.SyncJob{
		ChannelID: "shopify",
		Type:      domain.SyncJobPullOrders,
		Status:    domain.SyncJobRunning,
	})
	if err != nil {
		t.Fatalf("create finished job: %v", err)
	}
	if err := repo.AppendLog(ctx, domain.SyncLog{
		JobID: finished.ID, Level: domain.LogLevelInfo, Message: "done",
	}); err != nil {
		t.Fatalf("append log: %v", err)
	}
	if err := repo.FinishJob(ctx, finished.ID, domain.SyncJobSuccess, 1, 1, 0); err != nil {
		t.Fatalf("finish job: %v", err)
	}

	running, err := repo.CreateJob(ctx, domain.SyncJob{
		ChannelID: "shopify",
		Type:      domain.SyncJobPullOrders,
		Status:    domain.SyncJobRunning,
	})
	if err != nil {
		t.Fatalf("create running job: %v", err)
	}

	deleted, err := repo.DeleteFinishedBefore(ctx, time.Now().UTC().Add(time.Hour), 100)
	if err != nil {
		t.Fatalf("delete finished: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("deleted = %d, want 1", deleted)
	}

	if _, err := repo.GetJob(ctx, finished.ID); !errors.Is(err, domain.ErrSyncJobNotFound) {
		t.Fatalf("finished job must be gone, got %v", err)
	}
	if _, err := repo.GetJob(ctx, running.ID); err != nil {
		t.Fatalf("running job must survive cleanup: %v", err)
	}

	logs, err := repo.ListLogs(ctx, finished.ID)
	if err != nil {
		t.Fatalf("list logs: %v", err)
	}
	if len(logs) != 0 {
		t.Fatalf("logs of deleted job must be removed, got %d", len(logs))
	}
}
