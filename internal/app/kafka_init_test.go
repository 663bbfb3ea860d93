package app

import (
	"context"
	"testing"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/chsync/internal/domain"
	"github.com/vladislavdragonenkov/chsync/internal/service/importer"
)

type fakeBatchImporter struct {
	summary domain.ImportSummary
	err     error
	batches []importer.Batch
}

func (f *fakeBatchImporter) ImportBatch(_ context.Context, batch importer.Batch) (domain.ImportSummary, error) {
	f.batches = append(f.batches, batch)
	return f.summary, f.err
}

func rawOrderConsumerMessage(value string) *sarama.ConsumerMessage {
	return &sarama.ConsumerMessage{
		Topic: "chsync.orders.raw",
		Value: []byte(value),
	}
}

func TestRawOrderHandler_Success(t *testing.T) {
	imp := &fakeBatchImporter{summary: domain.ImportSummary{Success: true, Imported: 1, JobID: "job-1"}}
	handler := newRawOrderHandler(imp, log.WithField("component", "test"))

	msg := rawOrderConsumerMessage(`{"channel_id":"shopify","channel_account_id":"acc-1","adapter":"shopify","payload":{"id":1001}}`)
	if err := handler(context.Background(), msg); err != nil {
		t.Fatalf("handler failed: %v", err)
	}

	if len(imp.batches) != 1 {
		t.Fatalf("expected 1 batch, got %d", len(imp.batches))
	}
	batch := imp.batches[0]
	if batch.ChannelID != "shopify" || batch.Adapter != "shopify" {
		t.Errorf("unexpected batch: %+v", batch)
	}
	if batch.ChannelAccountID != "acc-1" {
		t.Errorf("channel account id: got %q", batch.ChannelAccountID)
	}
	if batch.JobType != domain.SyncJobPullOrders {
		t.Errorf("job type: got %q", batch.JobType)
	}
	if len(batch.Payloads) != 1 {
		t.Fatalf("expected 1 payload, got %d", len(batch.Payloads))
	}
}

func TestRawOrderHandler_ParseError(t *testing.T) {
	imp := &fakeBatchImporter{summary: domain.ImportSummary{Success: true}}
	handler := newRawOrderHandler(imp, log.WithField("component", "test"))

	if err := handler(context.Background(), rawOrderConsumerMessage(`{"adapter":"shopify"}`)); err == nil {
		t.Fatal("expected parse error")
	}
	if len(imp.batches) != 0 {
		t.Fatal("importer must not be called on parse error")
	}
}

func TestRawOrderHandler_ImportError(t *testing.T) {
	imp := &fakeBatchImporter{err: context.DeadlineExceeded}
	handler := newRawOrderHandler(imp, log.WithField("component", "test"))

	msg := rawOrderConsumerMessage(`{"channel_id":"woo","adapter":"woo","payload":{"id":5}}`)
	if err := handler(context.Background(), msg); err == nil {
		t.Fatal("expected import error")
	}
}

func TestRawOrderHandler_FailedSummary(t *testing.T) {
	imp := &fakeBatchImporter{summary: domain.ImportSummary{Success: false, Errors: 1, JobID: "job-2"}}
	handler := newRawOrderHandler(imp, log.WithField("component", "test"))

	msg := rawOrderConsumerMessage(`{"channel_id":"woo","adapter":"woo","payload":{"id":6}}`)
	if err := handler(context.Background(), msg); err == nil {
		t.Fatal("expected error for failed job summary")
	}
}

func TestInitKafka_Disabled(t *testing.T) {
	producer, consumer, err := initKafka(KafkaConfig{}, &fakeBatchImporter{}, log.WithField("component", "test"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if producer != nil || consumer != nil {
		t.Fatal("expected nil producer and consumer when kafka is disabled")
	}
}
