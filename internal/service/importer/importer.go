// Package importer реализует конвейер импорта заказов из каналов продаж:
// нормализация, дедупликация, резолв по каталогу, резервирование стока
// и протоколирование задачи синхронизации.
package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/chsync/internal/channel"
	"github.com/vladislavdragonenkov/chsync/internal/domain"
	"github.com/vladislavdragonenkov/chsync/internal/metrics"
)

// Batch — пакет сырых заказов одного канала на импорт.
type Batch struct {
	ChannelID        string
	ChannelAccountID string
	// Adapter — имя адаптера в реестре каналов.
	Adapter string
	JobType domain.SyncJobType
	// Payloads — сырые заказы в порядке получения от канала.
	Payloads []json.RawMessage
}

// Importer ведёт импорт заказов. Каждый заказ обрабатывается изолированно:
// сбой одного заказа не прерывает пакет.
type Importer struct {
	adapters   *channel.Registry
	resolver   domain.CatalogResolver
	ledger     domain.InventoryLedger
	orders     domain.OrderRepository
	warehouses domain.WarehouseRepository
	jobs       domain.SyncJobRepository

	warehouseID   string
	warehouseName string
	metrics       *metrics.ImportMetrics
	logger        *log.Entry
	now           func() time.Time
}

// Option настраивает Importer.
type Option func(*Importer)

// WithWarehouseID закрепляет склад импорта по id вместо склада по умолчанию.
func WithWarehouseID(id string) Option {
	return func(i *Importer) {
		i.warehouseID = id
	}
}

// WithWarehouseName закрепляет склад импорта по имени.
func WithWarehouseName(name string) Option {
	return func(i *Importer) {
		i.warehouseName = name
	}
}

// WithMetrics включает сбор метрик конвейера.
func WithMetrics(m *metrics.ImportMetrics) Option {
	return func(i *Importer) {
		i.metrics = m
	}
}

// WithLogger задаёт логгер.
func WithLogger(logger *log.Entry) Option {
	return func(i *Importer) {
		i.logger = logger
	}
}

// WithClock задаёт источник времени. Используется тестами.
func WithClock(now func() time.Time) Option {
	return func(i *Importer) {
		i.now = now
	}
}

// New создаёт конвейер импорта.
func New(
	adapters *channel.Registry,
	resolver domain.CatalogResolver,
	ledger domain.InventoryLedger,
	orders domain.OrderRepository,
	warehouses domain.WarehouseRepository,
	jobs domain.SyncJobRepository,
	opts ...Option,
) *Importer {
	imp := &Importer{
		adapters:   adapters,
		resolver:   resolver,
		ledger:     ledger,
		orders:     orders,
		warehouses: warehouses,
		jobs:       jobs,
		logger:     log.WithField("component", "importer"),
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(imp)
	}
	return imp
}

// исход обработки одного заказа.
type outcome int

const (
	outcomeImported outcome = iota
	outcomeSkipped
	outcomeFailed
)

func (o outcome) String() string {
	switch o {
	case outcomeImported:
		return "imported"
	case outcomeSkipped:
		return "skipped"
	default:
		return "failed"
	}
}

// ImportBatch обрабатывает пакет под одной задачей синхронизации.
// Отсутствие склада фатально: задача переводится в FAILED и возвращается
// ошибка. Ошибки отдельных заказов копятся в счётчике и журнале задачи.
func (i *Importer) ImportBatch(ctx context.Context, batch Batch) (domain.ImportSummary, error) {
	started := i.now()
	if i.metrics != nil {
		i.metrics.RecordBatchStarted()
		defer func() {
			i.metrics.RecordBatchFinished()
			i.metrics.RecordBatchDuration(time.Since(started))
		}()
	}

	jobType := batch.JobType
	if jobType == "" {
		jobType = domain.SyncJobPullOrders
	}

	job, err := i.jobs.CreateJob(ctx, domain.SyncJob{
		ChannelID:        batch.ChannelID,
		ChannelAccountID: batch.ChannelAccountID,
		Type:             jobType,
		Status:           domain.SyncJobRunning,
		StartedAt:        started,
	})
	if err != nil {
		return domain.ImportSummary{}, fmt.Errorf("create sync job: %w", err)
	}

	jobLogger := i.logger.WithFields(log.Fields{
		"job_id":     job.ID,
		"channel_id": batch.ChannelID,
	})

	warehouse, err := i.resolveWarehouse(ctx)
	if err != nil {
		i.appendLog(ctx, job.ID, domain.LogLevelError, fmt.Sprintf("warehouse precondition failed: %v", err), nil)
		i.finishJob(ctx, job.ID, domain.SyncJobFailed, len(batch.Payloads), 0, 0)
		jobLogger.WithError(err).Error("import batch aborted: no warehouse")
		return domain.ImportSummary{JobID: job.ID}, err
	}

	adapter, err := i.adapters.Get(batch.Adapter)
	if err != nil {
		i.appendLog(ctx, job.ID, domain.LogLevelError, fmt.Sprintf("adapter lookup failed: %v", err), nil)
		i.finishJob(ctx, job.ID, domain.SyncJobFailed, len(batch.Payloads), 0, 0)
		return domain.ImportSummary{JobID: job.ID}, err
	}

	var imported, skipped, failed int
	for _, payload := range batch.Payloads {
		orderStarted := i.now()
		res := i.processOne(ctx, job.ID, adapter, warehouse, payload)
		switch res {
		case outcomeImported:
			imported++
		case outcomeSkipped:
			skipped++
		case outcomeFailed:
			failed++
		}
		if i.metrics != nil {
			i.metrics.RecordOrderDuration(res.String(), time.Since(orderStarted))
		}
	}

	i.finishJob(ctx, job.ID, domain.SyncJobSuccess, len(batch.Payloads), imported, failed)

	jobLogger.WithFields(log.Fields{
		"imported": imported,
		"skipped":  skipped,
		"errors":   failed,
	}).Info("import batch finished")

	return domain.ImportSummary{
		Success:  true,
		Imported: imported,
		Skipped:  skipped,
		Errors:   failed,
		JobID:    job.ID,
	}, nil
}

// processOne проводит один сырой заказ через весь конвейер.
func (i *Importer) processOne(ctx context.Context, jobID string, adapter channel.Adapter, warehouse domain.Warehouse, payload json.RawMessage) outcome {
	normalized, err := adapter.Normalize(payload)
	if err != nil {
		// Непригодный для импорта заказ пропускаем, а не роняем пакет.
		i.appendLog(ctx, jobID, domain.LogLevelInfo, fmt.Sprintf("order skipped: %v", err), nil)
		i.recordOutcome(outcomeSkipped)
		return outcomeSkipped
	}
	if err := normalized.Validate(); err != nil {
		i.appendLog(ctx, jobID, domain.LogLevelInfo, fmt.Sprintf("order %s skipped: %v", normalized.ChannelOrderID, err), nil)
		i.recordOutcome(outcomeSkipped)
		return outcomeSkipped
	}

	ref := domain.ChannelRef{ChannelID: normalized.ChannelID, ChannelOrderID: normalized.ChannelOrderID}
	exists, err := i.orders.ExistsByChannelRef(ctx, ref)
	if err != nil {
		i.failOrder(ctx, jobID, normalized.ChannelOrderID, payload, err)
		return outcomeFailed
	}
	if exists {
		i.recordOutcome(outcomeSkipped)
		return outcomeSkipped
	}

	order, reservations, err := i.buildOrder(ctx, normalized, warehouse)
	if err != nil {
		i.failOrder(ctx, jobID, normalized.ChannelOrderID, payload, err)
		return outcomeFailed
	}

	event, err := buildOrderEvent(order)
	if err != nil {
		i.failOrder(ctx, jobID, normalized.ChannelOrderID, payload, err)
		return outcomeFailed
	}

	if _, err := i.orders.CreateImported(ctx, order, reservations, &event); err != nil {
		// Гонка с параллельным импортом того же заказа: уникальный
		// индекс сработал после быстрой проверки. Это не ошибка.
		if domain.IsDuplicateOrder(err) {
			i.recordOutcome(outcomeSkipped)
			return outcomeSkipped
		}
		i.failOrder(ctx, jobID, normalized.ChannelOrderID, payload, err)
		return outcomeFailed
	}

	i.appendLog(ctx, jobID, domain.LogLevelInfo,
		fmt.Sprintf("imported order %s with status %s", order.ChannelOrderID, order.Status), nil)

	if i.metrics != nil {
		i.metrics.RecordOrderImported()
		i.metrics.RecordReservations(len(reservations))
		i.metrics.RecordOutboxEvent()
		if order.Status == domain.OrderStatusHold {
			i.metrics.RecordOrderOnHold()
		}
	}
	return outcomeImported
}

// buildOrder резолвит позиции по каталогу, собирает заказ со статусом
// NEW или HOLD и список резервов для смапленных позиций.
func (i *Importer) buildOrder(ctx context.Context, normalized domain.NormalizedOrder, warehouse domain.Warehouse) (domain.Order, []domain.Reservation, error) {
	now := i.now()
	orderID := uuid.NewString()

	order := domain.Order{
		ID:               orderID,
		ChannelID:        normalized.ChannelID,
		ChannelAccountID: normalized.ChannelAccountID,
		ChannelOrderID:   normalized.ChannelOrderID,
		CustomerName:     normalized.CustomerName,
		CustomerEmail:    normalized.CustomerEmail,
		ShippingAddress:  normalized.ShippingAddress,
		BillingAddress:   normalized.BillingAddress,
		PaymentMode:      normalized.PaymentMode,
		TotalMinor:       normalized.TotalMinor,
		Items:            make([]domain.OrderItem, 0, len(normalized.Items)),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	var reservations []domain.Reservation
	allMapped := true
	allStockAvailable := true

	for _, item := range normalized.Items {
		orderItem := domain.OrderItem{
			ID:                uuid.NewString(),
			OrderID:           orderID,
			SKU:               item.SKU,
			Title:             item.Title,
			Qty:               item.Qty,
			PriceMinor:        item.PriceMinor,
			FulfillmentStatus: domain.FulfillmentStatusUnmappedSKU,
		}

		variant, found, err := i.resolver.Resolve(ctx, item.SKU)
		if err != nil {
			return domain.Order{}, nil, fmt.Errorf("resolve item %q: %w", item.SKU, err)
		}

		if found {
			orderItem.VariantID = variant.ID
			orderItem.FulfillmentStatus = domain.FulfillmentStatusMapped

			available, err := i.ledger.Availability(ctx, warehouse.ID, variant.ID)
			if err != nil {
				return domain.Order{}, nil, fmt.Errorf("availability for %q: %w", item.SKU, err)
			}
			if available < item.Qty {
				allStockAvailable = false
			}

			// Резерв ставится даже при нехватке стока: дефицит
			// отражается статусом HOLD, а не отказом в резерве.
			reservations = append(reservations, domain.Reservation{
				WarehouseID: warehouse.ID,
				VariantID:   variant.ID,
				Qty:         item.Qty,
				Reference:   orderID,
			})
		} else {
			allMapped = false
		}

		order.Items = append(order.Items, orderItem)
	}

	order.Status = deriveStatus(allMapped, allStockAvailable)
	return order, reservations, nil
}

func (i *Importer) resolveWarehouse(ctx context.Context) (domain.Warehouse, error) {
	switch {
	case i.warehouseID != "":
		return i.warehouses.GetByID(ctx, i.warehouseID)
	case i.warehouseName != "":
		return i.warehouses.GetByName(ctx, i.warehouseName)
	default:
		return i.warehouses.First(ctx)
	}
}

func (i *Importer) failOrder(ctx context.Context, jobID, channelOrderID string, payload json.RawMessage, err error) {
	i.appendLog(ctx, jobID, domain.LogLevelError,
		fmt.Sprintf("failed to import order %s: %v", channelOrderID, err), payload)
	i.logger.WithError(err).WithField("channel_order_id", channelOrderID).Error("order import failed")
	if i.metrics != nil {
		i.metrics.RecordOrderFailed()
	}
}

func (i *Importer) recordOutcome(res outcome) {
	if i.metrics == nil {
		return
	}
	if res == outcomeSkipped {
		i.metrics.RecordOrderSkipped()
	}
}

func (i *Importer) appendLog(ctx context.Context, jobID string, level domain.LogLevel, message string, raw json.RawMessage) {
	err := i.jobs.AppendLog(ctx, domain.SyncLog{
		ID:         uuid.NewString(),
		JobID:      jobID,
		Level:      level,
		Message:    message,
		RawPayload: raw,
		CreatedAt:  i.now(),
	})
	if err != nil {
		i.logger.WithError(err).WithField("job_id", jobID).Warn("failed to append sync log")
	}
}

func (i *Importer) finishJob(ctx context.Context, jobID string, status domain.SyncJobStatus, total, ok, failed int) {
	if err := i.jobs.FinishJob(ctx, jobID, status, total, ok, failed); err != nil {
		i.logger.WithError(err).WithField("job_id", jobID).Error("failed to finish sync job")
	}
}

// buildOrderEvent собирает outbox-событие о результате импорта.
func buildOrderEvent(order domain.Order) (domain.OutboxMessage, error) {
	eventType := EventOrderImported
	if order.Status == domain.OrderStatusHold {
		eventType = EventOrderHold
	}

	payload, err := json.Marshal(orderEventPayload{
		OrderID:        order.ID,
		ChannelID:      order.ChannelID,
		ChannelOrderID: order.ChannelOrderID,
		Status:         string(order.Status),
		PaymentMode:    string(order.PaymentMode),
		TotalMinor:     order.TotalMinor,
		ItemsCount:     len(order.Items),
	})
	if err != nil {
		return domain.OutboxMessage{}, fmt.Errorf("marshal order event: %w", err)
	}

	return domain.OutboxMessage{
		ID:            uuid.NewString(),
		AggregateType: "order",
		AggregateID:   order.ID,
		EventType:     eventType,
		Payload:       payload,
	}, nil
}

// Типы событий, публикуемых после импорта заказа.
const (
	EventOrderImported = "order.imported"
	EventOrderHold     = "order.hold"
)

type orderEventPayload struct {
	OrderID        string `json:"order_id"`
	ChannelID      string `json:"channel_id"`
	ChannelOrderID string `json:"channel_order_id"`
	Status         string `json:"status"`
	PaymentMode    string `json:"payment_mode"`
	TotalMinor     int64  `json:"total_minor"`
	ItemsCount     int    `json:"items_count"`
}
