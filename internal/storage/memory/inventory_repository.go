package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/chsync/internal/domain"
)

type inventoryKey struct {
	warehouseID string
	variantID   string
}

// inventoryRepositoryInMemory — in-memory реализация InventoryRepository.
// Повторяет семантику Postgres-реализации: upsert резерва, нижняя граница
// нуля при снятии и журнал движений, который только дописывается.
type inventoryRepositoryInMemory struct {
	mu        sync.RWMutex
	items     map[inventoryKey]domain.Inventory
	movements []domain.InventoryMovement
}

// NewInventoryRepository возвращает in-memory хранилище остатков
// для локальной разработки и тестов.
func NewInventoryRepository() *inventoryRepositoryInMemory {
	return &inventoryRepositoryInMemory{items: make(map[inventoryKey]domain.Inventory)}
}

// SetStock выставляет физический остаток без записи движения.
// Используется тестами для подготовки данных.
func (r *inventoryRepositoryInMemory) SetStock(warehouseID, variantID string, totalQty int32) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := inventoryKey{warehouseID: warehouseID, variantID: variantID}
	inv, ok := r.items[key]
	if !ok {
		inv = domain.Inventory{
			ID:          uuid.NewString(),
			WarehouseID: warehouseID,
			VariantID:   variantID,
		}
	}
	inv.TotalQty = totalQty
	inv.UpdatedAt = time.Now().UTC()
	r.items[key] = inv
}

func (r *inventoryRepositoryInMemory) Get(_ context.Context, warehouseID, variantID string) (domain.Inventory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	inv, ok := r.items[inventoryKey{warehouseID: warehouseID, variantID: variantID}]
	if !ok {
		return domain.Inventory{}, domain.ErrInventoryNotFound
	}
	return inv, nil
}

func (r *inventoryRepositoryInMemory) ApplyReserve(_ context.Context, res domain.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.applyReserveLocked(res)
	return nil
}

// applyReserves применяет набор резервов под одной блокировкой.
// Вызывается репозиторием заказов при импорте, чтобы все резервы
// заказа легли в журнал одним неделимым шагом.
func (r *inventoryRepositoryInMemory) applyReserves(reservations []domain.Reservation) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, res := range reservations {
		r.applyReserveLocked(res)
	}
}

// applyReserveLocked делает резерв под уже взятой блокировкой.
func (r *inventoryRepositoryInMemory) applyReserveLocked(res domain.Reservation) {
	now := time.Now().UTC()
	key := inventoryKey{warehouseID: res.WarehouseID, variantID: res.VariantID}

	inv, ok := r.items[key]
	if !ok {
		// Запись остатка создаётся с нулевым физическим остатком.
		inv = domain.Inventory{
			ID:          uuid.NewString(),
			WarehouseID: res.WarehouseID,
			VariantID:   res.VariantID,
		}
	}
	inv.ReservedQty += res.Qty
	inv.UpdatedAt = now
	r.items[key] = inv

	r.movements = append(r.movements, domain.InventoryMovement{
		ID:          uuid.NewString(),
		WarehouseID: res.WarehouseID,
		VariantID:   res.VariantID,
		Type:        domain.MovementReserve,
		Qty:         res.Qty,
		Reference:   res.Reference,
		CreatedAt:   now,
	})
}

func (r *inventoryRepositoryInMemory) ApplyRelease(_ context.Context, res domain.Reservation) (int32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := inventoryKey{warehouseID: res.WarehouseID, variantID: res.VariantID}
	inv, ok := r.items[key]
	if !ok {
		// Нечего снимать: движение не пишем.
		return 0, nil
	}

	released := res.Qty
	if inv.ReservedQty < released {
		released = inv.ReservedQty
	}
	if released == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	inv.ReservedQty -= released
	inv.UpdatedAt = now
	r.items[key] = inv

	r.movements = append(r.movements, domain.InventoryMovement{
		ID:          uuid.NewString(),
		WarehouseID: res.WarehouseID,
		VariantID:   res.VariantID,
		Type:        domain.MovementRelease,
		Qty:         released,
		Reference:   res.Reference,
		CreatedAt:   now,
	})

	return released, nil
}

func (r *inventoryRepositoryInMemory) ApplyAdjustment(_ context.Context, warehouseID, variantID string, delta int32, reference string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	key := inventoryKey{warehouseID: warehouseID, variantID: variantID}

	inv, ok := r.items[key]
	if !ok {
		inv = domain.Inventory{
			ID:          uuid.NewString(),
			WarehouseID: warehouseID,
			VariantID:   variantID,
		}
	}
	inv.TotalQty += delta
	inv.UpdatedAt = now
	r.items[key] = inv

	movementType := domain.MovementIn
	qty := delta
	if delta < 0 {
		movementType = domain.MovementOut
		qty = -delta
	}

	r.movements = append(r.movements, domain.InventoryMovement{
		ID:          uuid.NewString(),
		WarehouseID: warehouseID,
		VariantID:   variantID,
		Type:        movementType,
		Qty:         qty,
		Reference:   reference,
		CreatedAt:   now,
	})

	return nil
}

func (r *inventoryRepositoryInMemory) ListMovements(_ context.Context, warehouseID, variantID string, limit int) ([]domain.InventoryMovement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.InventoryMovement, 0, len(r.movements))
	for _, mv := range r.movements {
		if mv.WarehouseID == warehouseID && mv.VariantID == variantID {
			result = append(result, mv)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

var _ domain.InventoryRepository = (*inventoryRepositoryInMemory)(nil)
