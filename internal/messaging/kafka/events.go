package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
)

// Topics для Kafka.
const (
	// TopicRawOrders — сырые заказы каналов, подлежащие импорту.
	TopicRawOrders = "chsync.orders.raw"
	// TopicOrderEvents — события импортированных заказов из outbox.
	TopicOrderEvents = "chsync.order.events"
	// TopicDeadLetterQueue — очередь необработанных сообщений.
	TopicDeadLetterQueue = "chsync.dlq"
)

// Kafka headers для retry-логики.
const (
	HeaderRetryCount    = "x-retry-count"
	HeaderOriginalTopic = "x-original-topic"
	HeaderErrorMessage  = "x-error-message"
	HeaderFailedAt      = "x-failed-at"
)

// RawOrderMessage — сообщение канала с сырым заказом для импорта.
// Payload передаётся адаптеру канала без изменений.
type RawOrderMessage struct {
	ChannelID        string          `json:"channel_id"`
	ChannelAccountID string          `json:"channel_account_id,omitempty"`
	Adapter          string          `json:"adapter"`
	Payload          json.RawMessage `json:"payload"`
	ReceivedAt       time.Time       `json:"received_at,omitempty"`
}

// Validate проверяет обязательные поля сообщения.
func (m *RawOrderMessage) Validate() error {
	if m.ChannelID == "" {
		return fmt.Errorf("raw order message: channel_id is required")
	}
	if m.Adapter == "" {
		return fmt.Errorf("raw order message: adapter is required")
	}
	if len(m.Payload) == 0 {
		return fmt.Errorf("raw order message: payload is required")
	}
	return nil
}

// OrderEventEnvelope — конверт события заказа в TopicOrderEvents.
type OrderEventEnvelope struct {
	ID            string          `json:"id"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     string          `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
	PublishedAt   time.Time       `json:"published_at"`
}

// ParseRawOrderMessage парсит и валидирует RawOrderMessage из сообщения Kafka.
func ParseRawOrderMessage(message *sarama.ConsumerMessage) (*RawOrderMessage, error) {
	var raw RawOrderMessage
	if err := json.Unmarshal(message.Value, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal raw order message: %w", err)
	}
	if err := raw.Validate(); err != nil {
		return nil, err
	}
	return &raw, nil
}

// ParseOrderEventEnvelope парсит конверт события заказа.
func ParseOrderEventEnvelope(message *sarama.ConsumerMessage) (*OrderEventEnvelope, error) {
	var envelope OrderEventEnvelope
	if err := json.Unmarshal(message.Value, &envelope); err != nil {
		return nil, fmt.Errorf("unmarshal order event envelope: %w", err)
	}
	return &envelope, nil
}
