package domain

import "time"

// NormalizedItem — позиция заказа после приведения к канонической форме,
// но до резолва по каталогу.
type NormalizedItem struct {
	SKU        string
	Title      string
	Qty        int32
	PriceMinor int64
}

// NormalizedOrder — заказ, приведённый адаптером канала к канонической форме.
// Именно эта структура входит в конвейер импорта независимо от исходного канала.
type NormalizedOrder struct {
	ChannelID        string
	ChannelAccountID string
	ChannelOrderID   string
	CustomerName     string
	CustomerEmail    string
	ShippingAddress  string
	BillingAddress   string
	PaymentMode      PaymentMode
	TotalMinor       int64
	Items            []NormalizedItem
	PlacedAt         time.Time
}

// Validate проверяет, что нормализованный заказ пригоден для импорта.
func (n *NormalizedOrder) Validate() error {
	if n.ChannelID == "" {
		return ErrChannelRequired
	}
	if n.ChannelOrderID == "" {
		return ErrChannelOrderIDRequired
	}
	if len(n.Items) == 0 {
		return ErrItemsRequired
	}
	if !n.PaymentMode.Valid() {
		return ErrPaymentModeInvalid
	}
	for _, item := range n.Items {
		if item.Qty <= 0 {
			return ErrItemQtyInvalid
		}
		if item.PriceMinor < 0 {
			return ErrItemPriceInvalid
		}
	}
	return nil
}
