// Package catalog резолвит SKU каналов в варианты товаров каталога.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/chsync/internal/cache"
	"github.com/vladislavdragonenkov/chsync/internal/domain"
)

const defaultCacheTTL = 5 * time.Minute

// Resolver ищет вариант товара по SKU с опциональным сквозным кэшем.
type Resolver struct {
	variants domain.VariantRepository
	cache    cache.Cache
	ttl      time.Duration
	logger   *log.Entry
}

// Option настраивает Resolver.
type Option func(*Resolver)

// WithCache включает сквозное кэширование результатов резолва.
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(r *Resolver) {
		r.cache = c
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// WithLogger задаёт логгер.
func WithLogger(logger *log.Entry) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver создаёт резолвер каталога.
func NewResolver(variants domain.VariantRepository, opts ...Option) *Resolver {
	r := &Resolver{
		variants: variants,
		ttl:      defaultCacheTTL,
		logger:   log.WithField("component", "catalog_resolver"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve возвращает вариант по SKU. Отсутствие SKU в каталоге
// не является ошибкой и возвращается вторым результатом.
func (r *Resolver) Resolve(ctx context.Context, sku string) (domain.ProductVariant, bool, error) {
	if sku == "" {
		return domain.ProductVariant{}, false, nil
	}

	cacheKey := "sku:" + sku
	if r.cache != nil {
		if data, err := r.cache.Get(ctx, cacheKey); err == nil {
			var variant domain.ProductVariant
			if err := json.Unmarshal(data, &variant); err == nil {
				return variant, true, nil
			}
			// Битую запись убираем и идём в хранилище.
			_ = r.cache.Delete(ctx, cacheKey)
		} else if !errors.Is(err, cache.ErrMiss) {
			r.logger.WithError(err).Warn("variant cache read failed")
		}
	}

	variant, err := r.variants.FindBySKU(ctx, sku)
	if errors.Is(err, domain.ErrVariantNotFound) {
		return domain.ProductVariant{}, false, nil
	}
	if err != nil {
		return domain.ProductVariant{}, false, fmt.Errorf("resolve sku %q: %w", sku, err)
	}

	if r.cache != nil {
		if data, err := json.Marshal(variant); err == nil {
			if err := r.cache.Set(ctx, cacheKey, data, r.ttl); err != nil {
				r.logger.WithError(err).Warn("variant cache write failed")
			}
		}
	}

	return variant, true, nil
}

var _ domain.CatalogResolver = (*Resolver)(nil)
