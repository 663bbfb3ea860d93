package domain

import (
	"context"
	"time"
)

// CatalogResolver сопоставляет SKU канала с вариантом товара в каталоге.
type CatalogResolver interface {
	// Resolve возвращает вариант по SKU. Второй результат false,
	// если SKU в каталоге отсутствует; это штатная ситуация, не ошибка.
	Resolve(ctx context.Context, sku string) (ProductVariant, bool, error)
}

// InventoryLedger ведёт остатки и журнал движений.
type InventoryLedger interface {
	// Availability возвращает доступный остаток варианта на складе.
	// Для отсутствующей записи остатка возвращает 0.
	Availability(ctx context.Context, warehouseID, variantID string) (int32, error)

	// Reserve безусловно увеличивает резерв и пишет RESERVE-движение.
	// Запись остатка создаётся с нулевым физическим остатком, если её нет.
	Reserve(ctx context.Context, res Reservation) error

	// Release уменьшает резерв не ниже нуля и пишет RELEASE-движение
	// на фактически снятое количество.
	Release(ctx context.Context, res Reservation) error

	// AdjustStock применяет приход или списание физического остатка
	// и пишет IN/OUT-движение.
	AdjustStock(ctx context.Context, warehouseID, variantID string, delta int32, reference string) error
}

// OutboxMessage — событие, ожидающее публикации во внешнюю шину.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// OutboxStats — метрики очереди исходящих событий.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}

// OutboxPublisher доставляет события из outbox во внешнюю шину.
type OutboxPublisher interface {
	Publish(ctx context.Context, msg OutboxMessage) error
}
