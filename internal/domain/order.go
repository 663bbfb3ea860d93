package domain

import "time"

// OrderStatus описывает жизненный цикл заказа после импорта из канала продаж.
// Импорт назначает только NEW или HOLD; остальные статусы принадлежат
// последующим fulfillment-процессам.
type OrderStatus string

const (
	// OrderStatusNew — заказ импортирован: все позиции смаплены и сток достаточен.
	OrderStatusNew OrderStatus = "NEW"
	// OrderStatusConfirmed — заказ подтверждён и передан на исполнение.
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	// OrderStatusPacked — заказ упакован.
	OrderStatusPacked OrderStatus = "PACKED"
	// OrderStatusShipped — заказ передан курьеру.
	OrderStatusShipped OrderStatus = "SHIPPED"
	// OrderStatusDelivered — заказ доставлен покупателю.
	OrderStatusDelivered OrderStatus = "DELIVERED"
	// OrderStatusCancelled — заказ отменён.
	OrderStatusCancelled OrderStatus = "CANCELLED"
	// OrderStatusReturned — заказ возвращён покупателем.
	OrderStatusReturned OrderStatus = "RETURNED"
	// OrderStatusHold — заказ требует ручного вмешательства:
	// несмапленный SKU либо нехватка стока на складе.
	OrderStatusHold OrderStatus = "HOLD"
)

// Valid проверяет, что статус относится к поддерживаемым значениям.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusNew, OrderStatusConfirmed, OrderStatusPacked, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled, OrderStatusReturned, OrderStatusHold:
		return true
	default:
		return false
	}
}

// PaymentMode описывает способ оплаты заказа.
type PaymentMode string

const (
	// PaymentModePrepaid — заказ оплачен на стороне канала.
	PaymentModePrepaid PaymentMode = "PREPAID"
	// PaymentModeCOD — оплата при получении.
	PaymentModeCOD PaymentMode = "COD"
)

// Valid проверяет корректность способа оплаты.
func (m PaymentMode) Valid() bool {
	return m == PaymentModePrepaid || m == PaymentModeCOD
}

// FulfillmentStatus описывает состояние позиции заказа относительно каталога.
type FulfillmentStatus string

const (
	// FulfillmentStatusPending — позиция ещё не проходила резолв по каталогу.
	FulfillmentStatusPending FulfillmentStatus = "PENDING"
	// FulfillmentStatusMapped — SKU позиции сопоставлен с вариантом товара.
	FulfillmentStatusMapped FulfillmentStatus = "MAPPED"
	// FulfillmentStatusUnmappedSKU — SKU не найден в каталоге, позиция ждёт ручного маппинга.
	FulfillmentStatusUnmappedSKU FulfillmentStatus = "UNMAPPED_SKU"
)

// Valid проверяет корректность статуса позиции.
func (s FulfillmentStatus) Valid() bool {
	switch s {
	case FulfillmentStatusPending, FulfillmentStatusMapped, FulfillmentStatusUnmappedSKU:
		return true
	default:
		return false
	}
}

// OrderItem представляет одну позицию импортированного заказа.
type OrderItem struct {
	ID      string
	OrderID string
	// VariantID пуст, пока SKU не сопоставлен с вариантом каталога.
	VariantID string
	// SKU хранится как прислал канал, даже если маппинг не удался.
	SKU   string
	Title string
	Qty   int32
	// PriceMinor — цена за единицу в минимальных денежных единицах.
	PriceMinor        int64
	FulfillmentStatus FulfillmentStatus
}

// ChannelRef — ключ идемпотентности импорта: пара (канал, внешний id заказа).
type ChannelRef struct {
	ChannelID      string
	ChannelOrderID string
}

// Order агрегирует импортированный заказ канала и его позиции.
type Order struct {
	ID               string
	ChannelID        string
	ChannelAccountID string
	// ChannelOrderID — идентификатор заказа в системе канала.
	ChannelOrderID  string
	CustomerName    string
	CustomerEmail   string
	ShippingAddress string
	BillingAddress  string
	PaymentMode     PaymentMode
	// TotalMinor — сумма заказа в минимальных денежных единицах.
	TotalMinor int64
	Status     OrderStatus
	Items      []OrderItem
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Ref возвращает ключ идемпотентности заказа.
func (o *Order) Ref() ChannelRef {
	return ChannelRef{ChannelID: o.ChannelID, ChannelOrderID: o.ChannelOrderID}
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список нарушений.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.ChannelID == "" {
		errs = append(errs, ErrChannelRequired)
	}
	if o.ChannelOrderID == "" {
		errs = append(errs, ErrChannelOrderIDRequired)
	}
	if o.CustomerName == "" {
		errs = append(errs, ErrCustomerNameRequired)
	}
	if len(o.Items) == 0 {
		errs = append(errs, ErrItemsRequired)
	}
	if o.TotalMinor < 0 {
		errs = append(errs, ErrTotalNegative)
	}
	if !o.Status.Valid() {
		errs = append(errs, ErrOrderStatusInvalid)
	}
	if !o.PaymentMode.Valid() {
		errs = append(errs, ErrPaymentModeInvalid)
	}

	for _, item := range o.Items {
		if item.Qty <= 0 {
			errs = append(errs, ErrItemQtyInvalid)
		}
		if item.PriceMinor < 0 {
			errs = append(errs, ErrItemPriceInvalid)
		}
		if !item.FulfillmentStatus.Valid() {
			errs = append(errs, ErrFulfillmentStatusInvalid)
		}
	}

	return errs
}
