// Package inventory ведёт остатки складов и журнал движений.
package inventory

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/chsync/internal/domain"
)

// Ledger реализует учёт остатков поверх InventoryRepository.
// Все изменения счётчиков сопровождаются записью в журнал движений.
type Ledger struct {
	repo   domain.InventoryRepository
	logger *log.Entry
}

// NewLedger создаёт сервис учёта остатков.
func NewLedger(repo domain.InventoryRepository) *Ledger {
	return &Ledger{
		repo:   repo,
		logger: log.WithField("component", "inventory_ledger"),
	}
}

// Availability возвращает доступный остаток варианта на складе.
// Отсутствие записи остатка трактуется как ноль.
func (l *Ledger) Availability(ctx context.Context, warehouseID, variantID string) (int32, error) {
	inv, err := l.repo.Get(ctx, warehouseID, variantID)
	if errors.Is(err, domain.ErrInventoryNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get inventory: %w", err)
	}
	return inv.AvailableQty(), nil
}

// Reserve безусловно увеличивает резерв под заказ.
// Нехватка стока не блокирует резерв: овер-резерв допустим
// и сигналится статусом HOLD на стороне заказа.
func (l *Ledger) Reserve(ctx context.Context, res domain.Reservation) error {
	if err := res.Validate(); err != nil {
		return err
	}
	if err := l.repo.ApplyReserve(ctx, res); err != nil {
		return fmt.Errorf("apply reserve: %w", err)
	}
	return nil
}

// Release снимает резерв. Счётчик не опускается ниже нуля,
// движение пишется на фактически снятое количество.
func (l *Ledger) Release(ctx context.Context, res domain.Reservation) error {
	if err := res.Validate(); err != nil {
		return err
	}

	released, err := l.repo.ApplyRelease(ctx, res)
	if err != nil {
		return fmt.Errorf("apply release: %w", err)
	}
	if released < res.Qty {
		l.logger.WithFields(log.Fields{
			"variant_id": res.VariantID,
			"requested":  res.Qty,
			"released":   released,
		}).Warn("release clamped to current reservation")
	}
	return nil
}

// ReleaseForOrder снимает резервы всех смапленных позиций заказа,
// например при отмене.
func (l *Ledger) ReleaseForOrder(ctx context.Context, warehouseID string, order domain.Order) error {
	for _, item := range order.Items {
		if item.VariantID == "" {
			continue
		}
		err := l.Release(ctx, domain.Reservation{
			WarehouseID: warehouseID,
			VariantID:   item.VariantID,
			Qty:         item.Qty,
			Reference:   order.ID,
		})
		if err != nil {
			return fmt.Errorf("release item %s: %w", item.SKU, err)
		}
	}
	return nil
}

// AdjustStock применяет приход (delta > 0) или списание (delta < 0)
// физического остатка. Единственный путь, на котором резерв может
// оказаться больше физического остатка.
func (l *Ledger) AdjustStock(ctx context.Context, warehouseID, variantID string, delta int32, reference string) error {
	if delta == 0 {
		return nil
	}
	if warehouseID == "" {
		return domain.ErrWarehouseRequired
	}
	if variantID == "" {
		return domain.ErrVariantRequired
	}
	if err := l.repo.ApplyAdjustment(ctx, warehouseID, variantID, delta, reference); err != nil {
		return fmt.Errorf("apply adjustment: %w", err)
	}
	return nil
}

var _ domain.InventoryLedger = (*Ledger)(nil)
