// Package woo нормализует заказы WooCommerce REST API.
package woo

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/chsync/internal/channel"
	"github.com/vladislavdragonenkov/chsync/internal/domain"
)

// AdapterName — имя адаптера в реестре каналов.
const AdapterName = "woo"

type orderPayload struct {
	ID       json.Number    `json:"id"`
	DatePaid string         `json:"date_paid"`
	Total    string         `json:"total"`
	Billing  addressPayload `json:"billing"`
	Shipping addressPayload `json:"shipping"`
	Items    []lineItem     `json:"line_items"`
	Created  string         `json:"date_created"`
}

type addressPayload struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Address1  string `json:"address_1"`
	Address2  string `json:"address_2"`
	City      string `json:"city"`
	State     string `json:"state"`
	Postcode  string `json:"postcode"`
	Country   string `json:"country"`
}

type lineItem struct {
	SKU       string      `json:"sku"`
	Name      string      `json:"name"`
	Quantity  int32       `json:"quantity"`
	Price     json.Number `json:"price"`
	VariantID json.Number `json:"variation_id"`
}

// Adapter нормализует заказы WooCommerce.
type Adapter struct {
	channelID        string
	channelAccountID string
}

// New создаёт адаптер, привязанный к каналу и аккаунту подключения.
func New(channelID, channelAccountID string) *Adapter {
	return &Adapter{channelID: channelID, channelAccountID: channelAccountID}
}

// Name возвращает имя адаптера.
func (a *Adapter) Name() string {
	return AdapterName
}

// Normalize приводит заказ WooCommerce к канонической форме.
// Предоплата определяется по непустому date_paid.
func (a *Adapter) Normalize(payload json.RawMessage) (domain.NormalizedOrder, error) {
	var raw orderPayload
	if err := json.Unmarshal(payload, &raw); err != nil {
		return domain.NormalizedOrder{}, fmt.Errorf("decode woo order: %w", err)
	}

	channelOrderID := raw.ID.String()
	if channelOrderID == "" {
		return domain.NormalizedOrder{}, domain.ErrChannelOrderIDRequired
	}

	totalMinor, err := channel.ParseMinor(raw.Total)
	if err != nil {
		return domain.NormalizedOrder{}, fmt.Errorf("woo order %s: %w", channelOrderID, err)
	}

	items := make([]domain.NormalizedItem, 0, len(raw.Items))
	for _, li := range raw.Items {
		priceMinor, err := channel.ParseMinor(li.Price.String())
		if err != nil {
			return domain.NormalizedOrder{}, fmt.Errorf("woo order %s line item: %w", channelOrderID, err)
		}

		sku := li.SKU
		if sku == "" {
			sku = li.VariantID.String()
		}
		if sku == "" || sku == "0" {
			sku = "—"
		}

		title := li.Name
		if title == "" {
			title = "Item"
		}

		items = append(items, domain.NormalizedItem{
			SKU:        channel.Truncate(sku, channel.MaxSKULen),
			Title:      channel.Truncate(title, channel.MaxTitleLen),
			Qty:        li.Quantity,
			PriceMinor: priceMinor,
		})
	}

	paymentMode := domain.PaymentModeCOD
	if raw.DatePaid != "" {
		paymentMode = domain.PaymentModePrepaid
	}

	placedAt, _ := time.Parse("2006-01-02T15:04:05", raw.Created)

	return domain.NormalizedOrder{
		ChannelID:        a.channelID,
		ChannelAccountID: a.channelAccountID,
		ChannelOrderID:   channelOrderID,
		CustomerName:     channel.Truncate(a.customerName(raw), channel.MaxNameLen),
		CustomerEmail:    channel.Truncate(raw.Billing.Email, channel.MaxEmailLen),
		ShippingAddress:  formatAddress(raw.Shipping),
		BillingAddress:   formatAddress(raw.Billing),
		PaymentMode:      paymentMode,
		TotalMinor:       totalMinor,
		Items:            items,
		PlacedAt:         placedAt,
	}, nil
}

func (a *Adapter) customerName(raw orderPayload) string {
	if full := strings.TrimSpace(raw.Shipping.FirstName + " " + raw.Shipping.LastName); full != "" {
		return full
	}
	if full := strings.TrimSpace(raw.Billing.FirstName + " " + raw.Billing.LastName); full != "" {
		return full
	}
	if raw.Billing.Email != "" {
		return raw.Billing.Email
	}
	return "Customer"
}

func formatAddress(addr addressPayload) string {
	return channel.JoinAddress(
		addr.Address1,
		addr.Address2,
		channel.JoinCityLine(addr.City, addr.State, addr.Postcode, addr.Country),
	)
}

var _ channel.Adapter = (*Adapter)(nil)
