// Package channel нормализует сырые заказы каналов продаж
// в канонический domain.NormalizedOrder.
package channel

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/vladislavdragonenkov/chsync/internal/domain"
)

// Лимиты полей при нормализации. Значения длиннее обрезаются молча.
const (
	MaxNameLen    = 255
	MaxEmailLen   = 255
	MaxTitleLen   = 255
	MaxSKULen     = 64
	MaxAddressLen = 1024
)

// ErrAdapterNotRegistered возвращается реестром для неизвестного канала.
var ErrAdapterNotRegistered = errors.New("channel adapter not registered")

// Adapter приводит сырой заказ конкретного канала к канонической форме.
type Adapter interface {
	// Name возвращает уникальное имя адаптера, например "shopify".
	Name() string

	// Normalize разбирает сырой заказ канала. Отсутствие внешнего id заказа
	// делает сообщение непригодным для импорта и возвращается как ошибка.
	Normalize(payload json.RawMessage) (domain.NormalizedOrder, error)
}

// Registry хранит адаптеры по имени канала.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry создаёт пустой реестр адаптеров.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Register добавляет адаптер. Повторная регистрация имени перезаписывает адаптер.
func (r *Registry) Register(a Adapter) {
	r.adapters[a.Name()] = a
}

// Get возвращает адаптер по имени либо ErrAdapterNotRegistered.
func (r *Registry) Get(name string) (Adapter, error) {
	a, ok := r.adapters[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAdapterNotRegistered, name)
	}
	return a, nil
}

// Truncate обрезает строку до limit байт. Обрезка по байтам безопасна,
// так как лимиты совпадают с ограничениями колонок в хранилище.
func Truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}

// JoinAddress собирает адресный блок из непустых строк через перевод строки
// и обрезает результат до MaxAddressLen.
func JoinAddress(lines ...string) string {
	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return Truncate(strings.Join(parts, "\n"), MaxAddressLen)
}

// JoinCityLine собирает строку "город, регион, индекс, страна" из непустых частей.
func JoinCityLine(parts ...string) string {
	joined := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			joined = append(joined, trimmed)
		}
	}
	return strings.Join(joined, ", ")
}

// ParseMinor переводит десятичную денежную строку в минимальные единицы.
// Пустая строка трактуется как ноль. Дробная часть длиннее двух знаков
// отбрасывается без округления.
func ParseMinor(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	negative := false
	if strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	}

	intPart := s
	fracPart := ""
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		intPart = s[:idx]
		fracPart = s[idx+1:]
	}
	if intPart == "" {
		intPart = "0"
	}
	if len(fracPart) > 2 {
		fracPart = fracPart[:2]
	}
	for len(fracPart) < 2 {
		fracPart += "0"
	}

	var value int64
	for _, digits := range []string{intPart, fracPart} {
		for _, c := range digits {
			if c < '0' || c > '9' {
				return 0, fmt.Errorf("invalid money value %q", s)
			}
			value = value*10 + int64(c-'0')
		}
	}

	if negative {
		value = -value
	}
	return value, nil
}
