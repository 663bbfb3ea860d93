package catalog_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/chsync/internal/cache"
	"github.com/vladislavdragonenkov/chsync/internal/domain"
	"github.com/vladislavdragonenkov/chsync/internal/service/catalog"
	"github.com/vladislavdragonenkov/chsync/internal/storage/memory"
)

func TestResolve_Found(t *testing.T) {
	variants := memory.NewVariantRepository()
	added := variants.Add(domain.ProductVariant{SKU: "TEE-BLK-M", Title: "Black Tee M"})

	resolver := catalog.NewResolver(variants)

	variant, found, err := resolver.Resolve(context.Background(), "TEE-BLK-M")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if !found {
		t.Fatal("variant must be found")
	}
	if variant.ID != added.ID {
		t.Fatalf("variant id = %q, want %q", variant.ID, added.ID)
	}
}

func TestResolve_MissingIsNotError(t *testing.T) {
	resolver := catalog.NewResolver(memory.NewVariantRepository())

	_, found, err := resolver.Resolve(context.Background(), "ZZZ-404")
	if err != nil {
		t.Fatalf("missing sku must not be an error, got %v", err)
	}
	if found {
		t.Fatal("unknown sku must not be found")
	}
}

func TestResolve_EmptySKU(t *testing.T) {
	resolver := catalog.NewResolver(memory.NewVariantRepository())

	_, found, err := resolver.Resolve(context.Background(), "")
	if err != nil || found {
		t.Fatalf("empty sku must resolve to nothing: found=%v err=%v", found, err)
	}
}

// countingVariantRepository считает обращения к хранилищу.
type countingVariantRepository struct {
	domain.VariantRepository
	calls int
}

func (r *countingVariantRepository) FindBySKU(ctx context.Context, sku string) (domain.ProductVariant, error) {
	r.calls++
	return r.VariantRepository.FindBySKU(ctx, sku)
}

func TestResolve_CacheReadThrough(t *testing.T) {
	variants := memory.NewVariantRepository()
	variants.Add(domain.ProductVariant{SKU: "TEE-BLK-M", Title: "Black Tee M"})
	counting := &countingVariantRepository{VariantRepository: variants}

	c := cache.NewMemoryCache()
	defer c.Close()

	resolver := catalog.NewResolver(counting, catalog.WithCache(c, time.Minute))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, found, err := resolver.Resolve(ctx, "TEE-BLK-M")
		if err != nil || !found {
			t.Fatalf("resolve %d failed: found=%v err=%v", i, found, err)
		}
	}

	if counting.calls != 1 {
		t.Fatalf("repository must be hit once with warm cache, got %d calls", counting.calls)
	}
}

// brokenVariantRepository всегда падает.
type brokenVariantRepository struct{}

func (brokenVariantRepository) FindBySKU(context.Context, string) (domain.ProductVariant, error) {
	return domain.ProductVariant{}, errors.New("catalog unavailable")
}

func TestResolve_RepositoryError(t *testing.T) {
	resolver := catalog.NewResolver(brokenVariantRepository{})

	_, _, err := resolver.Resolve(context.Background(), "TEE-BLK-M")
	if err == nil {
		t.Fatal("repository errors must propagate")
	}
}
