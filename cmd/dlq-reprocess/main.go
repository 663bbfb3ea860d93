// Утилита разбора chsync.dlq: просматривает скопившиеся записи и
// возвращает их в рабочие топики. В DLQ попадают два вида записей:
// сырые заказы, не пережившие импорт (из consumer), и события outbox,
// которые не удалось опубликовать (из outbox worker). По умолчанию
// утилита работает в dry-run и только печатает отчёт.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/chsync/internal/messaging/kafka"
)

const (
	defaultScanLimit   = 100
	defaultIdleTimeout = 2 * time.Second
)

type options struct {
	brokers     []string
	dlqTopic    string
	kind        string
	limit       int
	execute     bool
	fromNewest  bool
	idleTimeout time.Duration
}

func (o options) wantKind(k recordKind) bool {
	switch o.kind {
	case "raw":
		return k == kindRawOrder
	case "events":
		return k == kindOrderEvent
	default:
		return true
	}
}

// report печатается в stdout по завершении прогона.
type report struct {
	DryRun      bool `json:"dry_run"`
	Scanned     int  `json:"scanned"`
	RawOrders   int  `json:"raw_orders"`
	OrderEvents int  `json:"order_events"`
	Skipped     int  `json:"skipped"`
}

type recordKind string

const (
	kindRawOrder   recordKind = "raw-order"
	kindOrderEvent recordKind = "order-event"
)

// replayRecord — уже разобранная запись DLQ, готовая к отправке.
type replayRecord struct {
	kind  recordKind
	topic string
	key   string
	value []byte
}

// consumerRecord — формат, в котором consumer хоронит сырой заказ.
type consumerRecord struct {
	OriginalTopic string `json:"original_topic"`
	OriginalKey   string `json:"original_key"`
	OriginalValue string `json:"original_value"`
	ErrorMessage  string `json:"error_message"`
	RetryCount    int    `json:"retry_count"`
}

// outboxFailure — внутренний payload конверта, который outbox worker
// кладёт в DLQ вместо неопубликованного события.
type outboxFailure struct {
	OutboxID      string          `json:"outbox_id"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     string          `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
	PublishError  string          `json:"publish_error"`
}

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.InfoLevel)

	opts, err := readOptions(os.Args[1:])
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "dlq-reprocess:", err)
		os.Exit(1)
	}

	rep, err := execute(context.Background(), opts)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "dlq-reprocess:", err)
		os.Exit(1)
	}

	encoded, _ := json.Marshal(rep)
	fmt.Println(string(encoded))
}

func readOptions(args []string) (options, error) {
	var (
		opts       options
		brokersRaw string
	)

	fs := flag.NewFlagSet("dlq-reprocess", flag.ContinueOnError)
	fs.StringVar(&brokersRaw, "brokers", "", "брокеры Kafka через запятую; по умолчанию CHSYNC_KAFKA_BROKERS")
	fs.StringVar(&opts.dlqTopic, "topic", kafka.TopicDeadLetterQueue, "читаемый DLQ-топик")
	fs.StringVar(&opts.kind, "kind", "all", "какие записи возвращать: raw, events или all")
	fs.IntVar(&opts.limit, "limit", defaultScanLimit, "максимум просматриваемых записей")
	fs.BoolVar(&opts.execute, "execute", false, "реально публиковать; без флага только dry-run")
	fs.BoolVar(&opts.fromNewest, "newest", false, "смотреть хвост топика, а не начало")
	fs.DurationVar(&opts.idleTimeout, "idle-timeout", defaultIdleTimeout, "сколько ждать тишины в партиции")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	if strings.TrimSpace(brokersRaw) == "" {
		brokersRaw = os.Getenv("CHSYNC_KAFKA_BROKERS")
	}
	for _, chunk := range strings.Split(brokersRaw, ",") {
		if broker := strings.TrimSpace(chunk); broker != "" {
			opts.brokers = append(opts.brokers, broker)
		}
	}

	switch {
	case len(opts.brokers) == 0:
		return options{}, fmt.Errorf("нужны брокеры: -brokers или CHSYNC_KAFKA_BROKERS")
	case strings.TrimSpace(opts.dlqTopic) == "":
		return options{}, fmt.Errorf("-topic не может быть пустым")
	case opts.kind != "all" && opts.kind != "raw" && opts.kind != "events":
		return options{}, fmt.Errorf("-kind принимает raw, events или all, получено %q", opts.kind)
	case opts.limit <= 0:
		return options{}, fmt.Errorf("-limit должен быть больше нуля")
	case opts.idleTimeout <= 0:
		return options{}, fmt.Errorf("-idle-timeout должен быть больше нуля")
	}

	return opts, nil
}

// classify распознаёт запись DLQ и собирает из неё replayRecord.
func classify(value []byte) (replayRecord, error) {
	var cr consumerRecord
	if err := json.Unmarshal(value, &cr); err == nil && cr.OriginalValue != "" {
		topic := strings.TrimSpace(cr.OriginalTopic)
		if topic == "" {
			topic = kafka.TopicRawOrders
		}
		// Заголовок x-retry-count не переносится: после ручного
		// возврата заказ получает свежий бюджет ретраев.
		return replayRecord{
			kind:  kindRawOrder,
			topic: topic,
			key:   cr.OriginalKey,
			value: []byte(cr.OriginalValue),
		}, nil
	}

	var envelope kafka.OrderEventEnvelope
	if err := json.Unmarshal(value, &envelope); err != nil {
		return replayRecord{}, fmt.Errorf("запись не похожа ни на один формат DLQ: %w", err)
	}
	if len(envelope.Payload) == 0 {
		return replayRecord{}, fmt.Errorf("конверт события без payload")
	}

	var failure outboxFailure
	if err := json.Unmarshal(envelope.Payload, &failure); err != nil {
		return replayRecord{}, fmt.Errorf("разбор outbox-записи DLQ: %w", err)
	}
	if len(failure.Payload) == 0 {
		return replayRecord{}, fmt.Errorf("outbox-запись DLQ не содержит исходного события")
	}

	restored := kafka.OrderEventEnvelope{
		ID:            pick(failure.OutboxID, envelope.ID),
		AggregateType: pick(failure.AggregateType, envelope.AggregateType),
		AggregateID:   pick(failure.AggregateID, envelope.AggregateID),
		EventType:     pick(failure.EventType, envelope.EventType),
		Payload:       failure.Payload,
		PublishedAt:   time.Now().UTC(),
	}
	encoded, err := json.Marshal(restored)
	if err != nil {
		return replayRecord{}, fmt.Errorf("сборка события для повтора: %w", err)
	}

	return replayRecord{
		kind:  kindOrderEvent,
		topic: kafka.TopicOrderEvents,
		key:   pick(restored.AggregateID, restored.ID),
		value: encoded,
	}, nil
}

func pick(primary, fallback string) string {
	if strings.TrimSpace(primary) != "" {
		return primary
	}
	return fallback
}

// offsetLookup и partitionStream выделены из sarama ради тестов:
// боевая реализация — sarama.Client и sarama.Consumer.
type offsetLookup interface {
	Partitions(topic string) ([]int32, error)
	GetOffset(topic string, partition int32, at int64) (int64, error)
	Close() error
}

type partitionStream interface {
	Messages() <-chan *sarama.ConsumerMessage
	Errors() <-chan *sarama.ConsumerError
	Close() error
}

type streamOpener interface {
	openStream(topic string, partition int32, offset int64) (partitionStream, error)
	Close() error
}

type recordSender interface {
	send(rec replayRecord) error
	Close() error
}

type saramaOpener struct {
	consumer sarama.Consumer
}

func (o saramaOpener) openStream(topic string, partition int32, offset int64) (partitionStream, error) {
	pc, err := o.consumer.ConsumePartition(topic, partition, offset)
	if err != nil {
		return nil, err
	}
	return pc, nil
}

func (o saramaOpener) Close() error {
	if o.consumer == nil {
		return nil
	}
	return o.consumer.Close()
}

type saramaSender struct {
	producer sarama.SyncProducer
}

func (s saramaSender) send(rec replayRecord) error {
	_, _, err := s.producer.SendMessage(&sarama.ProducerMessage{
		Topic:     rec.topic,
		Key:       sarama.StringEncoder(rec.key),
		Value:     sarama.ByteEncoder(rec.value),
		Timestamp: time.Now().UTC(),
	})
	return err
}

func (s saramaSender) Close() error {
	if s.producer == nil {
		return nil
	}
	return s.producer.Close()
}

// connectKafka подменяется в тестах.
var connectKafka = func(opts options) (offsetLookup, streamOpener, recordSender, error) {
	config := sarama.NewConfig()
	config.Consumer.Return.Errors = true

	client, err := sarama.NewClient(opts.brokers, config)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("подключение к kafka: %w", err)
	}

	consumer, err := sarama.NewConsumerFromClient(client)
	if err != nil {
		_ = client.Close()
		return nil, nil, nil, fmt.Errorf("создание consumer: %w", err)
	}

	if !opts.execute {
		return client, saramaOpener{consumer: consumer}, nil, nil
	}

	producerConfig := sarama.NewConfig()
	producerConfig.Producer.RequiredAcks = sarama.WaitForAll
	producerConfig.Producer.Retry.Max = 5
	producerConfig.Producer.Return.Successes = true
	producerConfig.Producer.Compression = sarama.CompressionSnappy
	producerConfig.Producer.Idempotent = true
	producerConfig.Net.MaxOpenRequests = 1

	producer, err := sarama.NewSyncProducer(opts.brokers, producerConfig)
	if err != nil {
		_ = consumer.Close()
		_ = client.Close()
		return nil, nil, nil, fmt.Errorf("создание producer: %w", err)
	}

	return client, saramaOpener{consumer: consumer}, saramaSender{producer: producer}, nil
}

func execute(ctx context.Context, opts options) (report, error) {
	client, opener, sender, err := connectKafka(opts)
	if err != nil {
		return report{}, err
	}
	defer func() {
		if sender != nil {
			_ = sender.Close()
		}
		_ = opener.Close()
		_ = client.Close()
	}()

	return replayAll(ctx, opts, client, opener, sender)
}

func replayAll(ctx context.Context, opts options, client offsetLookup, opener streamOpener, sender recordSender) (report, error) {
	rep := report{DryRun: !opts.execute}
	if opts.execute && sender == nil {
		return rep, fmt.Errorf("в режиме execute нужен producer")
	}

	logger := log.WithField("component", "dlq-reprocess")
	logger.WithFields(log.Fields{
		"topic":   opts.dlqTopic,
		"kind":    opts.kind,
		"limit":   opts.limit,
		"execute": opts.execute,
	}).Info("начинаем разбор DLQ")

	err := scanTopic(ctx, opts, client, opener, func(msg *sarama.ConsumerMessage) error {
		rep.Scanned++

		rec, err := classify(msg.Value)
		if err != nil {
			rep.Skipped++
			logger.WithError(err).WithFields(log.Fields{
				"partition": msg.Partition,
				"offset":    msg.Offset,
			}).Warn("запись DLQ пропущена")
			return nil
		}
		if !opts.wantKind(rec.kind) {
			rep.Skipped++
			return nil
		}

		if opts.execute {
			if err := sender.send(rec); err != nil {
				return fmt.Errorf("публикация в %s: %w", rec.topic, err)
			}
		} else {
			logger.WithFields(log.Fields{
				"kind":      string(rec.kind),
				"to_topic":  rec.topic,
				"key":       rec.key,
				"partition": msg.Partition,
				"offset":    msg.Offset,
			}).Info("кандидат на возврат")
		}

		if rec.kind == kindRawOrder {
			rep.RawOrders++
		} else {
			rep.OrderEvents++
		}
		return nil
	})
	if err != nil {
		return rep, err
	}

	logger.WithFields(log.Fields{
		"scanned":      rep.Scanned,
		"raw_orders":   rep.RawOrders,
		"order_events": rep.OrderEvents,
		"skipped":      rep.Skipped,
	}).Info("разбор DLQ завершён")

	return rep, nil
}

// scanTopic обходит партиции DLQ по порядку и зовёт visit для каждой
// записи, пока не исчерпан лимит или топик.
func scanTopic(ctx context.Context, opts options, client offsetLookup, opener streamOpener, visit func(*sarama.ConsumerMessage) error) error {
	partitions, err := client.Partitions(opts.dlqTopic)
	if err != nil {
		return fmt.Errorf("партиции топика %s: %w", opts.dlqTopic, err)
	}
	sort.Slice(partitions, func(i, j int) bool { return partitions[i] < partitions[j] })

	budget := opts.limit
	for _, partition := range partitions {
		if budget <= 0 {
			return nil
		}
		visited, err := scanPartition(ctx, opts, client, opener, partition, budget, visit)
		if err != nil {
			return err
		}
		budget -= visited
	}
	return nil
}

func scanPartition(ctx context.Context, opts options, client offsetLookup, opener streamOpener, partition int32, budget int, visit func(*sarama.ConsumerMessage) error) (int, error) {
	oldest, err := client.GetOffset(opts.dlqTopic, partition, sarama.OffsetOldest)
	if err != nil {
		return 0, fmt.Errorf("oldest offset партиции %d: %w", partition, err)
	}
	newest, err := client.GetOffset(opts.dlqTopic, partition, sarama.OffsetNewest)
	if err != nil {
		return 0, fmt.Errorf("newest offset партиции %d: %w", partition, err)
	}
	if newest <= oldest {
		return 0, nil
	}

	start := oldest
	if opts.fromNewest {
		if start = newest - int64(budget); start < oldest {
			start = oldest
		}
	}

	stream, err := opener.openStream(opts.dlqTopic, partition, start)
	if err != nil {
		return 0, fmt.Errorf("чтение партиции %d: %w", partition, err)
	}
	defer func() { _ = stream.Close() }()

	idle := time.NewTimer(opts.idleTimeout)
	defer idle.Stop()

	visited := 0
	for visited < budget {
		select {
		case <-ctx.Done():
			return visited, ctx.Err()
		case err := <-stream.Errors():
			if err != nil {
				return visited, fmt.Errorf("ошибка партиции %d: %w", partition, err)
			}
		case msg, ok := <-stream.Messages():
			if !ok || msg == nil {
				return visited, nil
			}
			// Записи после newest появились уже во время прогона;
			// ими займётся следующий запуск.
			if msg.Offset >= newest {
				return visited, nil
			}

			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(opts.idleTimeout)

			if err := visit(msg); err != nil {
				return visited, err
			}
			visited++

			if msg.Offset+1 >= newest {
				return visited, nil
			}
		case <-idle.C:
			return visited, nil
		}
	}
	return visited, nil
}
