package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/chsync/internal/domain"
)

type variantRepository struct {
	db *sql.DB
}

// NewVariantRepository создаёт PostgreSQL-реализацию VariantRepository.
func NewVariantRepository(store *Store) domain.VariantRepository {
	return &variantRepository{db: store.DB()}
}

func (r *variantRepository) FindBySKU(ctx context.Context, sku string) (domain.ProductVariant, error) {
	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var v domain.ProductVariant
	err := r.db.QueryRowContext(opCtx, `
		SELECT id, product_id, sku, title, price_minor, barcode, created_at, updated_at
		FROM product_variants
		WHERE sku = $1
	`, sku).Scan(
		&v.ID, &v.ProductID, &v.SKU, &v.Title,
		&v.PriceMinor, &v.Barcode, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ProductVariant{}, domain.ErrVariantNotFound
		}
		return domain.ProductVariant{}, fmt.Errorf("select variant by sku: %w", err)
	}

	return v, nil
}

var _ domain.VariantRepository = (*variantRepository)(nil)
