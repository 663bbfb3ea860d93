package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/chsync/internal/domain"
)

type inventoryRepository struct {
	db *sql.DB
}

// NewInventoryRepository создаёт PostgreSQL-реализацию InventoryRepository.
func NewInventoryRepository(store *Store) domain.InventoryRepository {
	return &inventoryRepository{db: store.DB()}
}

func (r *inventoryRepository) Get(ctx context.Context, warehouseID, variantID string) (domain.Inventory, error) {
	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var inv domain.Inventory
	err := r.db.QueryRowContext(opCtx, `
		SELECT id, warehouse_id, variant_id, total_qty, reserved_qty, updated_at
		FROM inventory
		WHERE warehouse_id = $1 AND variant_id = $2
	`, warehouseID, variantID).Scan(
		&inv.ID, &inv.WarehouseID, &inv.VariantID,
		&inv.TotalQty, &inv.ReservedQty, &inv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Inventory{}, domain.ErrInventoryNotFound
		}
		return domain.Inventory{}, fmt.Errorf("select inventory: %w", err)
	}

	return inv, nil
}

func (r *inventoryRepository) ApplyReserve(ctx context.Context, res domain.Reservation) error {
	if err := res.Validate(); err != nil {
		return err
	}

	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(opCtx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = applyReserveTx(opCtx, tx, res); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit reserve: %w", err)
	}

	return nil
}

func (r *inventoryRepository) ApplyRelease(ctx context.Context, res domain.Reservation) (int32, error) {
	if res.WarehouseID == "" {
		return 0, domain.ErrWarehouseRequired
	}
	if res.VariantID == "" {
		return 0, domain.ErrVariantRequired
	}
	if res.Qty <= 0 {
		return 0, domain.ErrItemQtyInvalid
	}

	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(opCtx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Резерв снимается не ниже нуля; фактически снятое количество
	// возвращается из той же команды.
	var released int32
	err = tx.QueryRowContext(opCtx, `
		UPDATE inventory i
		SET reserved_qty = GREATEST(i.reserved_qty - $3, 0),
		    updated_at = NOW()
		FROM (
			SELECT id, reserved_qty AS old_reserved
			FROM inventory
			WHERE warehouse_id = $1 AND variant_id = $2
			FOR UPDATE
		) o
		WHERE i.id = o.id
		RETURNING LEAST(o.old_reserved, $3::int)
	`, res.WarehouseID, res.VariantID, res.Qty).Scan(&released)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Нет записи остатка: снимать нечего, движение не пишется.
			_ = tx.Rollback()
			err = nil
			return 0, nil
		}
		return 0, fmt.Errorf("release reservation: %w", err)
	}

	if released > 0 {
		if err = insertMovementTx(opCtx, tx, domain.InventoryMovement{
			WarehouseID: res.WarehouseID,
			VariantID:   res.VariantID,
			Type:        domain.MovementRelease,
			Qty:         released,
			Reference:   res.Reference,
		}); err != nil {
			return 0, err
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit release: %w", err)
	}

	return released, nil
}

func (r *inventoryRepository) ApplyAdjustment(ctx context.Context, warehouseID, variantID string, delta int32, reference string) error {
	if warehouseID == "" {
		return domain.ErrWarehouseRequired
	}
	if variantID == "" {
		return domain.ErrVariantRequired
	}
	if delta == 0 {
		return nil
	}

	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(opCtx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(opCtx, `
		INSERT INTO inventory (id, warehouse_id, variant_id, total_qty, reserved_qty, updated_at)
		VALUES ($1, $2, $3, $4, 0, NOW())
		ON CONFLICT (warehouse_id, variant_id) DO UPDATE
		SET total_qty = inventory.total_qty + EXCLUDED.total_qty,
		    updated_at = NOW()
	`, uuid.NewString(), warehouseID, variantID, delta); err != nil {
		return fmt.Errorf("adjust inventory: %w", err)
	}

	movementType := domain.MovementIn
	qty := delta
	if delta < 0 {
		movementType = domain.MovementOut
		qty = -delta
	}

	if err = insertMovementTx(opCtx, tx, domain.InventoryMovement{
		WarehouseID: warehouseID,
		VariantID:   variantID,
		Type:        movementType,
		Qty:         qty,
		Reference:   reference,
	}); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit adjustment: %w", err)
	}

	return nil
}

func (r *inventoryRepository) ListMovements(ctx context.Context, warehouseID, variantID string, limit int) ([]domain.InventoryMovement, error) {
	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	query := `
		SELECT id, warehouse_id, variant_id, movement_type, qty, reference, created_at
		FROM inventory_movements
		WHERE warehouse_id = $1 AND variant_id = $2
		ORDER BY created_at DESC, id DESC
	`

	var (
		rows *sql.Rows
		err  error
	)

	if limit > 0 {
		rows, err = r.db.QueryContext(opCtx, query+" LIMIT $3", warehouseID, variantID, limit)
	} else {
		rows, err = r.db.QueryContext(opCtx, query, warehouseID, variantID)
	}
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()

	movements := make([]domain.InventoryMovement, 0)
	for rows.Next() {
		var m domain.InventoryMovement
		var movementType string
		if err := rows.Scan(&m.ID, &m.WarehouseID, &m.VariantID, &movementType, &m.Qty, &m.Reference, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		m.Type = domain.MovementType(movementType)
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate movements: %w", err)
	}

	return movements, nil
}

// applyReserveTx увеличивает резерв, создавая запись остатка при отсутствии,
// и пишет RESERVE-движение в рамках открытой транзакции.
func applyReserveTx(ctx context.Context, tx *sql.Tx, res domain.Reservation) error {
	if err := res.Validate(); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO inventory (id, warehouse_id, variant_id, total_qty, reserved_qty, updated_at)
		VALUES ($1, $2, $3, 0, $4, NOW())
		ON CONFLICT (warehouse_id, variant_id) DO UPDATE
		SET reserved_qty = inventory.reserved_qty + EXCLUDED.reserved_qty,
		    updated_at = NOW()
	`, uuid.NewString(), res.WarehouseID, res.VariantID, res.Qty); err != nil {
		return fmt.Errorf("apply reserve: %w", err)
	}

	return insertMovementTx(ctx, tx, domain.InventoryMovement{
		WarehouseID: res.WarehouseID,
		VariantID:   res.VariantID,
		Type:        domain.MovementReserve,
		Qty:         res.Qty,
		Reference:   res.Reference,
	})
}

func insertMovementTx(ctx context.Context, tx *sql.Tx, m domain.InventoryMovement) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO inventory_movements (id, warehouse_id, variant_id, movement_type, qty, reference, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`, m.ID, m.WarehouseID, m.VariantID, string(m.Type), m.Qty, m.Reference); err != nil {
		return fmt.Errorf("insert %s movement: %w", m.Type, err)
	}

	return nil
}

var _ domain.InventoryRepository = (*inventoryRepository)(nil)
