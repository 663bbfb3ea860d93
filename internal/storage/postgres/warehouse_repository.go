package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/chsync/internal/domain"
)

const warehouseColumns = `id, name, address, created_at`

type warehouseRepository struct {
	db *sql.DB
}

// NewWarehouseRepository создаёт PostgreSQL-реализацию WarehouseRepository.
func NewWarehouseRepository(store *Store) domain.WarehouseRepository {
	return &warehouseRepository{db: store.DB()}
}

func (r *warehouseRepository) GetByID(ctx context.Context, id string) (domain.Warehouse, error) {
	return r.getOne(ctx, `SELECT `+warehouseColumns+` FROM warehouses WHERE id = $1`, id)
}

func (r *warehouseRepository) GetByName(ctx context.Context, name string) (domain.Warehouse, error) {
	return r.getOne(ctx, `SELECT `+warehouseColumns+` FROM warehouses WHERE name = $1`, name)
}

func (r *warehouseRepository) First(ctx context.Context) (domain.Warehouse, error) {
	wh, err := r.getOne(ctx, `
		SELECT `+warehouseColumns+`
		FROM warehouses
		ORDER BY created_at, id
		LIMIT 1
	`)
	if errors.Is(err, domain.ErrWarehouseNotFound) {
		return domain.Warehouse{}, domain.ErrNoWarehouseConfigured
	}
	return wh, err
}

func (r *warehouseRepository) getOne(ctx context.Context, query string, args ...any) (domain.Warehouse, error) {
	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var wh domain.Warehouse
	err := r.db.QueryRowContext(opCtx, query, args...).Scan(
		&wh.ID, &wh.Name, &wh.Address, &wh.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Warehouse{}, domain.ErrWarehouseNotFound
		}
		return domain.Warehouse{}, fmt.Errorf("select warehouse: %w", err)
	}

	return wh, nil
}

var _ domain.WarehouseRepository = (*warehouseRepository)(nil)
