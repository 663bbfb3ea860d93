package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/chsync/internal/domain"
)

// warehouseRepositoryInMemory — простая in-memory реализация WarehouseRepository.
type warehouseRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.Warehouse
}

// NewWarehouseRepository возвращает in-memory справочник складов
// для локальной разработки и тестов.
func NewWarehouseRepository() *warehouseRepositoryInMemory {
	return &warehouseRepositoryInMemory{items: make(map[string]domain.Warehouse)}
}

// Add сохраняет склад и возвращает его с заполненным id.
func (r *warehouseRepositoryInMemory) Add(wh domain.Warehouse) domain.Warehouse {
	r.mu.Lock()
	defer r.mu.Unlock()

	if wh.ID == "" {
		wh.ID = uuid.NewString()
	}
	if wh.CreatedAt.IsZero() {
		wh.CreatedAt = time.Now().UTC()
	}
	r.items[wh.ID] = wh
	return wh
}

func (r *warehouseRepositoryInMemory) GetByID(_ context.Context, id string) (domain.Warehouse, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wh, ok := r.items[id]
	if !ok {
		return domain.Warehouse{}, domain.ErrWarehouseNotFound
	}
	return wh, nil
}

func (r *warehouseRepositoryInMemory) GetByName(_ context.Context, name string) (domain.Warehouse, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, wh := range r.items {
		if wh.Name == name {
			return wh, nil
		}
	}
	return domain.Warehouse{}, domain.ErrWarehouseNotFound
}

// First возвращает склад по умолчанию: самый ранний по дате создания.
func (r *warehouseRepositoryInMemory) First(_ context.Context) (domain.Warehouse, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.items) == 0 {
		return domain.Warehouse{}, domain.ErrNoWarehouseConfigured
	}

	all := make([]domain.Warehouse, 0, len(r.items))
	for _, wh := range r.items {
		all = append(all, wh)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})
	return all[0], nil
}

var _ domain.WarehouseRepository = (*warehouseRepositoryInMemory)(nil)
