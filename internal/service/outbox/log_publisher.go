package outbox

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/chsync/internal/domain"
)

// LogPublisher пишет события outbox в лог вместо внешней шины.
// Используется, когда Kafka не настроен: события помечаются
// отправленными и очередь не растёт.
type LogPublisher struct {
	logger *log.Entry
}

var _ domain.OutboxPublisher = (*LogPublisher)(nil)

// NewLogPublisher создаёт logging-publisher.
func NewLogPublisher(logger *log.Entry) domain.OutboxPublisher {
	if logger == nil {
		logger = log.WithField("component", "outbox-log-publisher")
	}
	return &LogPublisher{logger: logger}
}

// Publish логирует событие и считает его доставленным.
func (p *LogPublisher) Publish(_ context.Context, msg domain.OutboxMessage) error {
	p.logger.WithFields(log.Fields{
		"message_id":     msg.ID,
		"aggregate_type": msg.AggregateType,
		"aggregate_id":   msg.AggregateID,
		"event_type":     msg.EventType,
	}).Info("outbox event published to log")
	return nil
}
