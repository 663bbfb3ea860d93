package domain

import "time"

// ProductStatus описывает состояние товара в каталоге.
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "ACTIVE"
	ProductStatusArchived ProductStatus = "ARCHIVED"
)

// Valid проверяет корректность статуса товара.
func (s ProductStatus) Valid() bool {
	return s == ProductStatusActive || s == ProductStatusArchived
}

// Product — товар каталога. Продаются конкретные варианты товара.
type Product struct {
	ID        string
	Title     string
	Status    ProductStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProductVariant — вариант товара, идентифицируемый по SKU.
// SKU уникален в пределах каталога.
type ProductVariant struct {
	ID        string
	ProductID string
	SKU       string
	Title     string
	// PriceMinor — базовая цена в минимальных денежных единицах.
	PriceMinor int64
	Barcode    string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
