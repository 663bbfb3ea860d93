package memory

import (
	"errors"
	"testing"

	"github.com/vladislavdragonenkov/chsync/internal/domain"
)

func TestOutboxEnqueuePull(t *testing.T) {
	repo := NewOutboxRepository()

	first, err := repo.Enqueue(domain.OutboxMessage{AggregateType: "order", AggregateID: "order-1", EventType: "order.imported"})
	if err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}
	if first.ID == "" {
		t.Fatal("id must be assigned")
	}

	if _, err := repo.Enqueue(domain.OutboxMessage{AggregateType: "order", AggregateID: "order-2", EventType: "order.hold"}); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	pending, err := repo.PullPending(10)
	if err != nil {
		t.Fatalf("pull failed: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending, got %d", len(pending))
	}
}

func TestOutboxMarkSent(t *testing.T) {
	repo := NewOutboxRepository()

	msg, _ := repo.Enqueue(domain.OutboxMessage{AggregateType: "order", AggregateID: "order-1", EventType: "order.imported"})
	if err := repo.MarkSent(msg.ID); err != nil {
		t.Fatalf("mark sent failed: %v", err)
	}

	pending, _ := repo.PullPending(10)
	if len(pending) != 0 {
		t.Fatalf("sent message must leave the queue, got %d pending", len(pending))
	}
}

func TestOutboxMarkMissing(t *testing.T) {
	repo := NewOutboxRepository()

	if err := repo.MarkSent("absent"); !errors.Is(err, domain.ErrOutboxPublish) {
		t.Fatalf("expected ErrOutboxPublish, got %v", err)
	}
	if err := repo.MarkFailed("absent"); !errors.Is(err, domain.ErrOutboxPublish) {
		t.Fatalf("expected ErrOutboxPublish, got %v", err)
	}
}

func TestOutboxStats(t *testing.T) {
	repo := NewOutboxRepository()

	stats, err := repo.Stats()
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.PendingCount != 0 || !stats.OldestPendingAt.IsZero() {
		t.Fatalf("unexpected empty stats: %+v", stats)
	}

	repo.Enqueue(domain.OutboxMessage{AggregateType: "order", AggregateID: "order-1", EventType: "order.imported"})
	repo.Enqueue(domain.OutboxMessage{AggregateType: "order", AggregateID: "order-2", EventType: "order.imported"})

	stats, err = repo.Stats()
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.PendingCount != 2 || stats.OldestPendingAt.IsZero() {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}
