package domain_test

import (
	"testing"
	"time"

	"github.com/vladislavdragonenkov/chsync/internal/domain"
)

// helper для создания базового импортированного заказа с одной позицией.
func makeOrder() domain.Order {
	now := time.Now().UTC()
	return domain.Order{
		ID:               "order-1",
		ChannelID:        "channel-1",
		ChannelAccountID: "account-1",
		ChannelOrderID:   "shopify-1001",
		CustomerName:     "Jane Smith",
		CustomerEmail:    "jane@example.com",
		PaymentMode:      domain.PaymentModePrepaid,
		TotalMinor:       500,
		Status:           domain.OrderStatusNew,
		Items: []domain.OrderItem{
			{
				ID:                "item-1",
				OrderID:           "order-1",
				VariantID:         "variant-1",
				SKU:               "TEE-BLK-M",
				Title:             "Black Tee M",
				Qty:               5,
				PriceMinor:        100,
				FulfillmentStatus: domain.FulfillmentStatusMapped,
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestOrderValidateInvariants_Ok(t *testing.T) {
	order := makeOrder()
	if errs := order.ValidateInvariants(); len(errs) != 0 {
		t.Fatalf("expected no validation errors, got %v", errs)
	}
}

func TestOrderValidateInvariants_Errors(t *testing.T) {
	cases := []struct {
		name string
		mut  func(o *domain.Order)
	}{
		{
			name: "no channel",
			mut: func(o *domain.Order) {
				o.ChannelID = ""
			},
		},
		{
			name: "no channel order id",
			mut: func(o *domain.Order) {
				o.ChannelOrderID = ""
			},
		},
		{
			name: "no customer name",
			mut: func(o *domain.Order) {
				o.CustomerName = ""
			},
		},
		{
			name: "no items",
			mut: func(o *domain.Order) {
				o.Items = nil
			},
		},
		{
			name: "negative total",
			mut: func(o *domain.Order) {
				o.TotalMinor = -1
			},
		},
		{
			name: "bad status",
			mut: func(o *domain.Order) {
				o.Status = "PROCESSING"
			},
		},
		{
			name: "bad payment mode",
			mut: func(o *domain.Order) {
				o.PaymentMode = "INVOICE"
			},
		},
		{
			name: "qty invalid",
			mut: func(o *domain.Order) {
				o.Items[0].Qty = 0
			},
		},
		{
			name: "price invalid",
			mut: func(o *domain.Order) {
				o.Items[0].PriceMinor = -5
			},
		},
		{
			name: "bad fulfillment status",
			mut: func(o *domain.Order) {
				o.Items[0].FulfillmentStatus = "SPLIT"
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			order := makeOrder()
			// Изменяем состояние согласно сценарию.
			mutOrder := order
			tc.mut(&mutOrder)

			if len(mutOrder.ValidateInvariants()) == 0 {
				t.Fatalf("expected validation errors for case %s", tc.name)
			}
		})
	}
}

func TestOrderStatusValid(t *testing.T) {
	valid := []domain.OrderStatus{
		domain.OrderStatusNew, domain.OrderStatusConfirmed, domain.OrderStatusPacked,
		domain.OrderStatusShipped, domain.OrderStatusDelivered, domain.OrderStatusCancelled,
		domain.OrderStatusReturned, domain.OrderStatusHold,
	}
	for _, s := range valid {
		if !s.Valid() {
			t.Fatalf("status %s must be valid", s)
		}
	}
	if domain.OrderStatus("DRAFT").Valid() {
		t.Fatal("unknown status must be invalid")
	}
}

func TestOrderRef(t *testing.T) {
	order := makeOrder()
	ref := order.Ref()
	if ref.ChannelID != "channel-1" || ref.ChannelOrderID != "shopify-1001" {
		t.Fatalf("unexpected channel ref: %+v", ref)
	}
}
