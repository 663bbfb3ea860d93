package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/chsync/internal/domain"
)

// queueRepo — in-memory outbox для тестов воркера.
type queueRepo struct {
	pending []domain.OutboxMessage
	sent    []string
	failed  []string
}

func (q *queueRepo) Enqueue(msg domain.OutboxMessage) (domain.OutboxMessage, error) {
	q.pending = append(q.pending, msg)
	return msg, nil
}

func (q *queueRepo) PullPending(limit int) ([]domain.OutboxMessage, error) {
	batch := q.pending
	if limit > 0 && limit < len(batch) {
		batch = batch[:limit]
	}
	return append([]domain.OutboxMessage(nil), batch...), nil
}

func (q *queueRepo) Stats() (domain.OutboxStats, error) {
	stats := domain.OutboxStats{PendingCount: len(q.pending)}
	if len(q.pending) > 0 {
		stats.OldestPendingAt = time.Now().UTC().Add(-time.Minute)
	}
	return stats, nil
}

func (q *queueRepo) MarkSent(id string) error {
	q.sent = append(q.sent, id)
	return nil
}

func (q *queueRepo) MarkFailed(id string) error {
	q.failed = append(q.failed, id)
	return nil
}

// scriptedPublisher возвращает ошибки по сценарию; после исчерпания
// сценария публикация успешна. Запоминает отправленные события.
type scriptedPublisher struct {
	script    []error
	published []domain.OutboxMessage
}

func (p *scriptedPublisher) Publish(_ context.Context, event domain.OutboxMessage) error {
	var err error
	if len(p.script) > 0 {
		err = p.script[0]
		p.script = p.script[1:]
	}
	if err == nil {
		p.published = append(p.published, event)
	}
	return err
}

var (
	_ domain.OutboxRepository = (*queueRepo)(nil)
	_ domain.OutboxPublisher  = (*scriptedPublisher)(nil)
)

func importedEvent(id string) domain.OutboxMessage {
	return domain.OutboxMessage{
		ID:            id,
		AggregateType: "order",
		AggregateID:   "order-" + id,
		EventType:     "order.imported",
		Payload:       []byte(`{"order_id":"order-` + id + `"}`),
	}
}

func newTestWorker(repo *queueRepo, pub domain.OutboxPublisher, extra ...Option) *Worker {
	options := append([]Option{WithRetryBaseDelay(0), WithMaxAttempts(3)}, extra...)
	return NewWorker(repo, pub, options...)
}

func TestProcessOnce_DeliversAndMarksSent(t *testing.T) {
	t.Parallel()

	repo := &queueRepo{pending: []domain.OutboxMessage{importedEvent("e1")}}
	pub := &scriptedPublisher{}

	newTestWorker(repo, pub).ProcessOnce(context.Background())

	if len(pub.published) != 1 || pub.published[0].ID != "e1" {
		t.Fatalf("unexpected published events: %+v", pub.published)
	}
	if len(repo.sent) != 1 || repo.sent[0] != "e1" {
		t.Fatalf("unexpected sent marks: %v", repo.sent)
	}
	if len(repo.failed) != 0 {
		t.Fatalf("unexpected failed marks: %v", repo.failed)
	}
}

func TestProcessOnce_RetriesUntilSuccess(t *testing.T) {
	t.Parallel()

	repo := &queueRepo{pending: []domain.OutboxMessage{importedEvent("e2")}}
	pub := &scriptedPublisher{script: []error{
		errors.New("broker busy"),
		errors.New("broker busy"),
	}}

	newTestWorker(repo, pub).ProcessOnce(context.Background())

	// Третья попытка прошла: запись помечена sent, не failed.
	if len(repo.sent) != 1 || len(repo.failed) != 0 {
		t.Fatalf("sent=%v failed=%v", repo.sent, repo.failed)
	}
}

func TestProcessOnce_ExhaustedRetriesGoToDLQ(t *testing.T) {
	t.Parallel()

	repo := &queueRepo{pending: []domain.OutboxMessage{importedEvent("e3")}}
	pub := &scriptedPublisher{script: []error{
		errors.New("broker down"),
		errors.New("broker down"),
		errors.New("broker down"),
	}}
	dlq := &scriptedPublisher{}

	newTestWorker(repo, pub, WithDLQPublisher(dlq)).ProcessOnce(context.Background())

	if len(repo.failed) != 1 || repo.failed[0] != "e3" {
		t.Fatalf("unexpected failed marks: %v", repo.failed)
	}
	if len(repo.sent) != 0 {
		t.Fatalf("unexpected sent marks: %v", repo.sent)
	}
	if len(dlq.published) != 1 {
		t.Fatalf("expected 1 DLQ event, got %d", len(dlq.published))
	}

	// DLQ-конверт несёт исходный payload и причину отказа.
	var envelope struct {
		OutboxID     string          `json:"outbox_id"`
		EventType    string          `json:"event_type"`
		Payload      json.RawMessage `json:"payload"`
		PublishError string          `json:"publish_error"`
	}
	if err := json.Unmarshal(dlq.published[0].Payload, &envelope); err != nil {
		t.Fatalf("decode dlq envelope: %v", err)
	}
	if envelope.OutboxID != "e3" || envelope.EventType != "order.imported" {
		t.Fatalf("unexpected envelope: %+v", envelope)
	}
	if envelope.PublishError == "" || string(envelope.Payload) != `{"order_id":"order-e3"}` {
		t.Fatalf("envelope must carry error and original payload: %+v", envelope)
	}
}

func TestProcessOnce_NoDLQStillMarksFailed(t *testing.T) {
	t.Parallel()

	repo := &queueRepo{pending: []domain.OutboxMessage{importedEvent("e4")}}
	pub := &scriptedPublisher{script: []error{
		errors.New("broker down"),
		errors.New("broker down"),
		errors.New("broker down"),
	}}

	newTestWorker(repo, pub).ProcessOnce(context.Background())

	if len(repo.failed) != 1 {
		t.Fatalf("unexpected failed marks: %v", repo.failed)
	}
}

func TestBackoff_DoublesAndCaps(t *testing.T) {
	t.Parallel()

	w := NewWorker(&queueRepo{}, &scriptedPublisher{}, WithRetryBaseDelay(50*time.Millisecond))

	if got := w.backoff(1); got != 50*time.Millisecond {
		t.Fatalf("backoff(1) = %v", got)
	}
	if got := w.backoff(3); got != 200*time.Millisecond {
		t.Fatalf("backoff(3) = %v", got)
	}
	if got := w.backoff(40); got != maxRetryBackoff {
		t.Fatalf("backoff(40) = %v, want cap %v", got, maxRetryBackoff)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	t.Parallel()

	worker := newTestWorker(&queueRepo{}, &scriptedPublisher{}, WithPollInterval(5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		worker.Run(ctx)
	}()

	time.Sleep(15 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop on context cancel")
	}
}
