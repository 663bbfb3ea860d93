package app

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/chsync/internal/domain"
	"github.com/vladislavdragonenkov/chsync/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/chsync/internal/service/importer"
)

// batchImporter — часть импортера, нужная Kafka-обработчику.
type batchImporter interface {
	ImportBatch(ctx context.Context, batch importer.Batch) (domain.ImportSummary, error)
}

// newRawOrderHandler строит обработчик сообщений из топика сырых заказов.
// Сообщение разбирается в RawOrderMessage и импортируется пакетом из
// одного заказа. Ошибки разбора и импорта возвращаются наружу: consumer
// сам решает, повторять или отправлять в DLQ.
func newRawOrderHandler(imp batchImporter, logger *log.Entry) kafka.MessageHandler {
	return func(ctx context.Context, message *sarama.ConsumerMessage) error {
		raw, err := kafka.ParseRawOrderMessage(message)
		if err != nil {
			return fmt.Errorf("parse raw order message: %w", err)
		}

		summary, err := imp.ImportBatch(ctx, importer.Batch{
			ChannelID:        raw.ChannelID,
			ChannelAccountID: raw.ChannelAccountID,
			Adapter:          raw.Adapter,
			JobType:          domain.SyncJobPullOrders,
			Payloads:         []json.RawMessage{raw.Payload},
		})
		if err != nil {
			return fmt.Errorf("import raw order: %w", err)
		}
		if !summary.Success {
			return fmt.Errorf("import raw order: job %s finished with %d error(s)", summary.JobID, summary.Errors)
		}

		logger.WithFields(log.Fields{
			"channel_id": raw.ChannelID,
			"job_id":     summary.JobID,
			"imported":   summary.Imported,
			"skipped":    summary.Skipped,
		}).Info("raw order processed")
		return nil
	}
}

// initKafka поднимает producer и consumer сырых заказов, если Kafka
// настроен. Возвращает nil-значения при пустом списке брокеров.
func initKafka(cfg KafkaConfig, imp batchImporter, logger *log.Entry) (*kafka.Producer, *kafka.Consumer, error) {
	if !cfg.Enabled() {
		logger.Info("kafka is not configured, running without messaging")
		return nil, nil, nil
	}

	brokers := cfg.BrokerList()
	producer, err := kafka.NewProducer(brokers)
	if err != nil {
		return nil, nil, fmt.Errorf("create kafka producer: %w", err)
	}

	handler := newRawOrderHandler(imp, logger.WithField("component", "raw-order-handler"))
	consumer, err := kafka.NewConsumerWithDLQ(
		brokers,
		cfg.GroupID,
		[]string{cfg.RawOrdersTopic},
		handler,
		producer,
		cfg.ConsumerRetries,
	)
	if err != nil {
		_ = producer.Close()
		return nil, nil, fmt.Errorf("create kafka consumer: %w", err)
	}

	logger.WithFields(log.Fields{
		"brokers": brokers,
		"group":   cfg.GroupID,
		"topic":   cfg.RawOrdersTopic,
	}).Info("kafka initialized")
	return producer, consumer, nil
}

// closeKafka останавливает consumer и закрывает producer.
func closeKafka(producer *kafka.Producer, consumer *kafka.Consumer, logger *log.Entry) {
	if consumer != nil {
		if err := consumer.Stop(); err != nil {
			logger.WithError(err).Warn("failed to stop kafka consumer")
		}
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.WithError(err).Warn("failed to close kafka producer")
		} else {
			logger.Info("kafka producer closed")
		}
	}
}
