// Package shopify нормализует заказы Shopify Admin API.
package shopify

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/chsync/internal/channel"
	"github.com/vladislavdragonenkov/chsync/internal/domain"
)

// AdapterName — имя адаптера в реестре каналов.
const AdapterName = "shopify"

// orderPayload повторяет форму заказа Shopify Admin API.
// Числовые поля приходят то строками, то числами, поэтому json.Number.
type orderPayload struct {
	ID              json.Number    `json:"id"`
	Email           string         `json:"email"`
	FinancialStatus string         `json:"financial_status"`
	TotalPrice      string         `json:"total_price"`
	CreatedAt       string         `json:"created_at"`
	Customer        customerInfo   `json:"customer"`
	ShippingAddress addressPayload `json:"shipping_address"`
	BillingAddress  addressPayload `json:"billing_address"`
	LineItems       []lineItem     `json:"line_items"`
}

type customerInfo struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type addressPayload struct {
	Name         string `json:"name"`
	Address1     string `json:"address1"`
	Address2     string `json:"address2"`
	City         string `json:"city"`
	Province     string `json:"province"`
	ProvinceCode string `json:"province_code"`
	Zip          string `json:"zip"`
	Country      string `json:"country"`
}

type lineItem struct {
	SKU       string      `json:"sku"`
	Title     string      `json:"title"`
	Quantity  int32       `json:"quantity"`
	Price     string      `json:"price"`
	VariantID json.Number `json:"variant_id"`
}

// Adapter нормализует заказы Shopify.
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

// Normalize приводит заказ Shopify к канонической форме.
func (a *Adapter) Normalize(payload json.RawMessage) (domain.NormalizedOrder, error) {
	var raw orderPayload
	if err := json.Unmarshal(payload, &raw); err != nil {
		return domain.NormalizedOrder{}, fmt.Errorf("decode shopify order: %w", err)
	}

	channelOrderID := raw.ID.String()
	if channelOrderID == "" {
		return domain.NormalizedOrder{}, domain.ErrChannelOrderIDRequired
	}

	totalMinor, err := channel.ParseMinor(raw.TotalPrice)
	if err != nil {
		return domain.NormalizedOrder{}, fmt.Errorf("shopify order %s: %w", channelOrderID, err)
	}

	items := make([]domain.NormalizedItem, 0, len(raw.LineItems))
	for _, li := range raw.LineItems {
		priceMinor, err := channel.ParseMinor(li.Price)
		if err != nil {
			return domain.NormalizedOrder{}, fmt.Errorf("shopify order %s line item: %w", channelOrderID, err)
		}

		sku := li.SKU
		if sku == "" {
			sku = li.VariantID.String()
		}
		if sku == "" {
			sku = "—"
		}

		title := li.Title
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

	placedAt, _ := time.Parse(time.RFC3339, raw.CreatedAt)

	return domain.NormalizedOrder{
		ChannelID:        a.channelID,
		ChannelAccountID: a.channelAccountID,
		ChannelOrderID:   channelOrderID,
		CustomerName:     channel.Truncate(a.customerName(raw), channel.MaxNameLen),
		CustomerEmail:    channel.Truncate(raw.Email, channel.MaxEmailLen),
		ShippingAddress:  formatAddress(raw.ShippingAddress),
		BillingAddress:   formatAddress(raw.BillingAddress),
		PaymentMode:      paymentMode(raw.FinancialStatus),
		TotalMinor:       totalMinor,
		Items:            items,
		PlacedAt:         placedAt,
	}, nil
}

// customerName выбирает имя покупателя по цепочке фолбэков:
// имя из адреса доставки, затем имя и фамилия покупателя, затем email.
func (a *Adapter) customerName(raw orderPayload) string {
	if raw.ShippingAddress.Name != "" {
		return raw.ShippingAddress.Name
	}
	if full := strings.TrimSpace(raw.Customer.FirstName + " " + raw.Customer.LastName); full != "" {
		return full
	}
	if raw.Email != "" {
		return raw.Email
	}
	return "Customer"
}

// paymentMode трактует только полностью оплаченные заказы как предоплату.
func paymentMode(financialStatus string) domain.PaymentMode {
	if financialStatus == "paid" {
		return domain.PaymentModePrepaid
	}
	return domain.PaymentModeCOD
}

func formatAddress(addr addressPayload) string {
	province := addr.ProvinceCode
	if province == "" {
		province = addr.Province
	}
	return channel.JoinAddress(
		addr.Address1,
		addr.Address2,
		channel.JoinCityLine(addr.City, province, addr.Zip, addr.Country),
	)
}

var _ channel.Adapter = (*Adapter)(nil)
