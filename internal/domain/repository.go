package domain

import (
	"context"
	"time"
)

// OrderRepository отвечает за хранение импортированных заказов.
type OrderRepository interface {
	// CreateImported атомарно сохраняет заказ с позициями, применяет резервы,
	// пишет RESERVE-движения и кладёт событие в outbox. Либо фиксируется всё,
	// либо ничего. Повторный импорт по (channel_id, channel_order_id)
	// возвращает ErrOrderExists.
	CreateImported(ctx context.Context, order Order, reservations []Reservation, event *OutboxMessage) (Order, error)

	// ExistsByChannelRef сообщает, импортирован ли уже заказ канала.
	ExistsByChannelRef(ctx context.Context, ref ChannelRef) (bool, error)

	// Get возвращает заказ с позициями.
	Get(ctx context.Context, id string) (Order, error)
}

// VariantRepository отвечает за чтение каталога.
type VariantRepository interface {
	// FindBySKU возвращает вариант по SKU либо ErrVariantNotFound.
	FindBySKU(ctx context.Context, sku string) (ProductVariant, error)
}

// WarehouseRepository отвечает за справочник складов.
type WarehouseRepository interface {
	// GetByID возвращает склад либо ErrWarehouseNotFound.
	GetByID(ctx context.Context, id string) (Warehouse, error)

	// GetByName возвращает склад по имени либо ErrWarehouseNotFound.
	GetByName(ctx context.Context, name string) (Warehouse, error)

	// First возвращает склад по умолчанию (первый по дате создания)
	// либо ErrNoWarehouseConfigured, если складов нет.
	First(ctx context.Context) (Warehouse, error)
}

// InventoryRepository отвечает за остатки и журнал движений.
type InventoryRepository interface {
	// Get возвращает запись остатка либо ErrInventoryNotFound.
	Get(ctx context.Context, warehouseID, variantID string) (Inventory, error)

	// ApplyReserve увеличивает резерв (создавая запись при отсутствии)
	// и пишет RESERVE-движение в одной транзакции.
	ApplyReserve(ctx context.Context, res Reservation) error

	// ApplyRelease уменьшает резерв не ниже нуля и пишет RELEASE-движение
	// на фактически снятое количество. Возвращает снятое количество.
	ApplyRelease(ctx context.Context, res Reservation) (int32, error)

	// ApplyAdjustment изменяет физический остаток и пишет IN/OUT-движение.
	ApplyAdjustment(ctx context.Context, warehouseID, variantID string, delta int32, reference string) error

	// ListMovements возвращает движения варианта на складе, новые первыми.
	ListMovements(ctx context.Context, warehouseID, variantID string, limit int) ([]InventoryMovement, error)
}

// SyncJobRepository отвечает за задачи синхронизации и их журналы.
type SyncJobRepository interface {
	// CreateJob регистрирует задачу и возвращает её с заполненным id.
	CreateJob(ctx context.Context, job SyncJob) (SyncJob, error)

	// FinishJob переводит задачу в терминальный статус и фиксирует счётчики.
	FinishJob(ctx context.Context, id string, status SyncJobStatus, total, ok, failed int) error

	// AppendLog дописывает запись в журнал задачи.
	AppendLog(ctx context.Context, log SyncLog) error

	// GetJob возвращает задачу либо ErrSyncJobNotFound.
	GetJob(ctx context.Context, id string) (SyncJob, error)

	// ListLogs возвращает журнал задачи в порядке записи.
	ListLogs(ctx context.Context, jobID string) ([]SyncLog, error)

	// DeleteFinishedBefore удаляет завершённые задачи старше отметки
	// вместе с журналами. Возвращает число удалённых задач.
	DeleteFinishedBefore(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

// OutboxRepository отвечает за очередь исходящих событий.
type OutboxRepository interface {
	// Enqueue кладёт событие в очередь со статусом pending.
	Enqueue(msg OutboxMessage) (OutboxMessage, error)

	// PullPending возвращает пачку неотправленных событий в порядке создания.
	PullPending(limit int) ([]OutboxMessage, error)

	// MarkSent помечает событие доставленным.
	MarkSent(id string) error

	// MarkFailed помечает событие недоставленным.
	MarkFailed(id string) error

	// Stats возвращает метрики очереди.
	Stats() (OutboxStats, error)
}
