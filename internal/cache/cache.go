// Package cache предоставляет байтовый кэш с TTL для горячих чтений,
// в первую очередь для резолва SKU по каталогу.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss возвращается при отсутствии ключа в кэше.
var ErrMiss = errors.New("cache miss")

// Cache — абстракция кэша. Позволяет менять in-memory реализацию
// на Redis без изменения бизнес-логики.
type Cache interface {
	// Get возвращает значение по ключу либо ErrMiss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set сохраняет значение с заданным TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete удаляет значение по ключу. Отсутствие ключа не ошибка.
	Delete(ctx context.Context, key string) error
}
