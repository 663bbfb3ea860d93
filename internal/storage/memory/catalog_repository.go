package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/chsync/internal/domain"
)

// variantRepositoryInMemory — in-memory реализация VariantRepository.
// SKU уникален, как и в схеме каталога.
type variantRepositoryInMemory struct {
	mu    sync.RWMutex
	bySKU map[string]domain.ProductVariant
}

// NewVariantRepository возвращает in-memory каталог для локальной
// разработки и тестов.
func NewVariantRepository() *variantRepositoryInMemory {
	return &variantRepositoryInMemory{bySKU: make(map[string]domain.ProductVariant)}
}

// Add сохраняет вариант и возвращает его с заполненным id.
func (r *variantRepositoryInMemory) Add(variant domain.ProductVariant) domain.ProductVariant {
	r.mu.Lock()
	defer r.mu.Unlock()

	if variant.ID == "" {
		variant.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if variant.CreatedAt.IsZero() {
		variant.CreatedAt = now
	}
	variant.UpdatedAt = now
	r.bySKU[variant.SKU] = variant
	return variant
}

func (r *variantRepositoryInMemory) FindBySKU(_ context.Context, sku string) (domain.ProductVariant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	variant, ok := r.bySKU[sku]
	if !ok {
		return domain.ProductVariant{}, domain.ErrVariantNotFound
	}
	return variant, nil
}

var _ domain.VariantRepository = (*variantRepositoryInMemory)(nil)
