package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/chsync/internal/domain"
)

// orderRepositoryInMemory — in-memory реализация OrderRepository.
// Для эмуляции атомарного импорта репозиторий получает ссылки на
// in-memory остатки и outbox и применяет резервы вместе с заказом.
type orderRepositoryInMemory struct {
	mu        sync.RWMutex
	items     map[string]domain.Order
	byRef     map[domain.ChannelRef]string
	inventory *inventoryRepositoryInMemory
	outbox    *outboxRepositoryInMemory
}

// NewOrderRepository возвращает in-memory репозиторий заказов
// для локальной разработки и тестов.
func NewOrderRepository(inventory *inventoryRepositoryInMemory, outbox *outboxRepositoryInMemory) *orderRepositoryInMemory {
	return &orderRepositoryInMemory{
		items:     make(map[string]domain.Order),
		byRef:     make(map[domain.ChannelRef]string),
		inventory: inventory,
		outbox:    outbox,
	}
}

// CreateImported сохраняет заказ, применяет резервы и кладёт событие в outbox.
// Повтор по (channel_id, channel_order_id) возвращает ErrOrderExists.
func (r *orderRepositoryInMemory) CreateImported(_ context.Context, order domain.Order, reservations []domain.Reservation, event *domain.OutboxMessage) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ref := order.Ref()
	if _, exists := r.byRef[ref]; exists {
		return domain.Order{}, domain.ErrOrderExists
	}

	if order.ID == "" {
		order.ID = uuid.NewString()
	}

	// Сохраняем копию позиций, чтобы избежать мутаций извне.
	items := make([]domain.OrderItem, len(order.Items))
	copy(items, order.Items)
	order.Items = items

	r.items[order.ID] = order
	r.byRef[ref] = order.ID

	r.inventory.applyReserves(reservations)

	if event != nil {
		if _, err := r.outbox.Enqueue(*event); err != nil {
			return domain.Order{}, err
		}
	}

	return order, nil
}

func (r *orderRepositoryInMemory) ExistsByChannelRef(_ context.Context, ref domain.ChannelRef) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.byRef[ref]
	return exists, nil
}

func (r *orderRepositoryInMemory) Get(_ context.Context, id string) (domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.items[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}

	items := make([]domain.OrderItem, len(order.Items))
	copy(items, order.Items)
	order.Items = items
	return order, nil
}

var _ domain.OrderRepository = (*orderRepositoryInMemory)(nil)
