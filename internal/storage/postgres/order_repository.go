package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/chsync/internal/domain"
)

const (
	opTimeout = 5 * time.Second
)

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт PostgreSQL-реализацию OrderRepository.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepository{db: store.DB()}
}

func (r *orderRepository) CreateImported(ctx context.Context, order domain.Order, reservations []domain.Reservation, event *domain.OutboxMessage) (domain.Order, error) {
	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	now := time.Now().UTC()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	if order.UpdatedAt.IsZero() {
		order.UpdatedAt = order.CreatedAt
	}

	tx, err := r.db.BeginTx(opCtx, nil)
	if err != nil {
		return domain.Order{}, fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(opCtx, `
		INSERT INTO orders (
			id, channel_id, channel_account_id, channel_order_id,
			customer_name, customer_email, shipping_address, billing_address,
			payment_mode, total_minor, status, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`,
		order.ID, order.ChannelID, order.ChannelAccountID, order.ChannelOrderID,
		order.CustomerName, order.CustomerEmail, order.ShippingAddress, order.BillingAddress,
		string(order.PaymentMode), order.TotalMinor, string(order.Status),
		order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Order{}, domain.ErrOrderExists
		}
		return domain.Order{}, fmt.Errorf("insert order: %w", err)
	}

	for i := range order.Items {
		item := &order.Items[i]
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		item.OrderID = order.ID

		if _, err = tx.ExecContext(opCtx, `
			INSERT INTO order_items (
				id, order_id, variant_id, sku, title, qty, price_minor, fulfillment_status
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		`,
			item.ID, order.ID, nullableID(item.VariantID), item.SKU, item.Title,
			item.Qty, item.PriceMinor, string(item.FulfillmentStatus),
		); err != nil {
			return domain.Order{}, fmt.Errorf("insert order item: %w", err)
		}
	}

	for _, res := range reservations {
		if err = applyReserveTx(opCtx, tx, res); err != nil {
			return domain.Order{}, err
		}
	}

	if event != nil {
		if err = enqueueOutboxTx(opCtx, tx, *event); err != nil {
			return domain.Order{}, err
		}
	}

	if err = tx.Commit(); err != nil {
		return domain.Order{}, fmt.Errorf("commit imported order: %w", err)
	}

	return order, nil
}

func (r *orderRepository) ExistsByChannelRef(ctx context.Context, ref domain.ChannelRef) (bool, error) {
	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var id string
	err := r.db.QueryRowContext(opCtx, `
		SELECT id FROM orders
		WHERE channel_id = $1 AND channel_order_id = $2
	`, ref.ChannelID, ref.ChannelOrderID).Scan(&id)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("check order exists: %w", err)
}

func (r *orderRepository) Get(ctx context.Context, id string) (domain.Order, error) {
	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var (
		order       domain.Order
		status      string
		paymentMode string
	)

	err := r.db.QueryRowContext(opCtx, `
		SELECT id, channel_id, channel_account_id, channel_order_id,
		       customer_name, customer_email, shipping_address, billing_address,
		       payment_mode, total_minor, status, created_at, updated_at
		FROM orders
		WHERE id = $1
	`, id).Scan(
		&order.ID, &order.ChannelID, &order.ChannelAccountID, &order.ChannelOrderID,
		&order.CustomerName, &order.CustomerEmail, &order.ShippingAddress, &order.BillingAddress,
		&paymentMode, &order.TotalMinor, &status, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("select order: %w", err)
	}
	order.Status = domain.OrderStatus(status)
	order.PaymentMode = domain.PaymentMode(paymentMode)

	items, err := r.loadItems(opCtx, order.ID)
	if err != nil {
		return domain.Order{}, err
	}
	order.Items = items

	return order, nil
}

func (r *orderRepository) loadItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, COALESCE(variant_id::text, ''), sku, title, qty, price_minor, fulfillment_status
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.OrderItem, 0)
	for rows.Next() {
		var item domain.OrderItem
		var fulfillment string
		if err := rows.Scan(
			&item.ID, &item.OrderID, &item.VariantID, &item.SKU, &item.Title,
			&item.Qty, &item.PriceMinor, &fulfillment,
		); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		item.FulfillmentStatus = domain.FulfillmentStatus(fulfillment)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}

	return items, nil
}

// nullableID превращает пустой идентификатор в NULL для UUID-колонок.
func nullableID(id string) any {
	if id == "" {
		return nil
	}
	return id
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

var _ domain.OrderRepository = (*orderRepository)(nil)
