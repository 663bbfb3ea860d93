package domain

import "errors"

// Ошибки валидации заказа.
var (
	ErrChannelRequired          = errors.New("channel id is required")
	ErrChannelOrderIDRequired   = errors.New("channel order id is required")
	ErrCustomerNameRequired     = errors.New("customer name is required")
	ErrItemsRequired            = errors.New("order must contain at least one item")
	ErrTotalNegative            = errors.New("order total must not be negative")
	ErrOrderStatusInvalid       = errors.New("invalid order status")
	ErrPaymentModeInvalid       = errors.New("invalid payment mode")
	ErrFulfillmentStatusInvalid = errors.New("invalid fulfillment status")
	ErrItemQtyInvalid           = errors.New("item quantity must be positive")
	ErrItemPriceInvalid         = errors.New("item price must not be negative")
)

// Ошибки инвентаря и каталога.
var (
	ErrWarehouseRequired     = errors.New("warehouse id is required")
	ErrVariantRequired       = errors.New("variant id is required")
	ErrWarehouseNotFound     = errors.New("warehouse not found")
	ErrNoWarehouseConfigured = errors.New("no warehouse configured")
	ErrVariantNotFound       = errors.New("product variant not found")
	ErrInventoryNotFound     = errors.New("inventory record not found")
)

// Ошибки импорта и инфраструктуры.
var (
	// ErrOrderExists сигналит о повторном импорте заказа
	// с тем же (channel_id, channel_order_id).
	ErrOrderExists     = errors.New("order already imported")
	ErrOrderNotFound   = errors.New("order not found")
	ErrSyncJobNotFound = errors.New("sync job not found")
	ErrOutboxPublish   = errors.New("outbox message not found")
)

// IsDuplicateOrder сообщает, является ли ошибка повторным импортом заказа.
func IsDuplicateOrder(err error) bool {
	return errors.Is(err, ErrOrderExists)
}
