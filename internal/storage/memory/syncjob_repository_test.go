package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/chsync/internal/domain"
)

func TestSyncJobLifecycle(t *testing.T) {
	repo := NewSyncJobRepository()
	ctx := context.Background()

	job, err := repo.CreateJob(ctx, domain.SyncJob{
		ChannelID: "channel-1",
		Type:      domain.SyncJobPullOrders,
		Status:    domain.SyncJobRunning,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if job.ID == "" {
		t.Fatal("job id must be assigned")
	}

	if err := repo.AppendLog(ctx, domain.SyncLog{JobID: job.ID, Level: domain.LogLevelInfo, Message: "imported order 1001"}); err != nil {
		t.Fatalf("append log failed: %v", err)
	}
	if err := repo.AppendLog(ctx, domain.SyncLog{JobID: job.ID, Level: domain.LogLevelError, Message: "failed order 1002", RawPayload: []byte(`{"id":1002}`)}); err != nil {
		t.Fatalf("append log failed: %v", err)
	}

	if err := repo.FinishJob(ctx, job.ID, domain.SyncJobSuccess, 3, 2, 1); err != nil {
		t.Fatalf("finish failed: %v", err)
	}

	got, err := repo.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Status != domain.SyncJobSuccess || got.ItemsTotal != 3 || got.ItemsOK != 2 || got.ItemsFailed != 1 {
		t.Fatalf("unexpected job state: %+v", got)
	}
	if got.FinishedAt.IsZero() {
		t.Fatal("finished job must have FinishedAt set")
	}

	logs, err := repo.ListLogs(ctx, job.ID)
	if err != nil {
		t.Fatalf("list logs failed: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("expected 2 logs, got %d", len(logs))
	}
	if logs[1].Level != domain.LogLevelError || len(logs[1].RawPayload) == 0 {
		t.Fatalf("error log must carry raw payload: %+v", logs[1])
	}
}

func TestFinishJob_NotFound(t *testing.T) {
	repo := NewSyncJobRepository()

	err := repo.FinishJob(context.Background(), "absent", domain.SyncJobSuccess, 0, 0, 0)
	if !errors.Is(err, domain.ErrSyncJobNotFound) {
		t.Fatalf("expected ErrSyncJobNotFound, got %v", err)
	}
}

func TestDeleteFinishedBefore(t *testing.T) {
	repo := NewSyncJobRepository()
	ctx := context.Background()

	oldJob, _ := repo.CreateJob(ctx, domain.SyncJob{ChannelID: "channel-1", Type: domain.SyncJobPullOrders})
	if err := repo.FinishJob(ctx, oldJob.ID, domain.SyncJobSuccess, 1, 1, 0); err != nil {
		t.Fatalf("finish failed: %v", err)
	}
	running, _ := repo.CreateJob(ctx, domain.SyncJob{ChannelID: "channel-1", Type: domain.SyncJobPullOrders, Status: domain.SyncJobRunning})

	// Отметка в будущем: под удаление попадают только завершённые задачи.
	deleted, err := repo.DeleteFinishedBefore(ctx, time.Now().UTC().Add(time.Hour), 100)
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("deleted = %d, want 1", deleted)
	}

	if _, err := repo.GetJob(ctx, oldJob.ID); !errors.Is(err, domain.ErrSyncJobNotFound) {
		t.Fatalf("finished job must be deleted, got %v", err)
	}
	if _, err := repo.GetJob(ctx, running.ID); err != nil {
		t.Fatalf("running job must survive, got %v", err)
	}

	if logs, _ := repo.ListLogs(ctx, oldJob.ID); len(logs) != 0 {
		t.Fatalf("logs of deleted job must be removed, got %d", len(logs))
	}
}
