package domain

import "time"

// Warehouse — склад, на котором ведётся учёт остатков.
type Warehouse struct {
	ID        string
	Name      string
	Address   string
	CreatedAt time.Time
}

// Inventory — остаток варианта товара на конкретном складе.
// Пара (WarehouseID, VariantID) уникальна.
type Inventory struct {
	ID          string
	WarehouseID string
	VariantID   string
	// TotalQty — физический остаток на складе.
	TotalQty int32
	// ReservedQty — количество, зарезервированное под заказы.
	// Может превышать TotalQty: овер-резерв допустим и сигналит
	// о нехватке стока через статус HOLD у заказа.
	ReservedQty int32
	UpdatedAt   time.Time
}

// AvailableQty возвращает доступный к продаже остаток.
// Значение может быть отрицательным при овер-резерве.
func (i *Inventory) AvailableQty() int32 {
	return i.TotalQty - i.ReservedQty
}

// MovementType описывает вид движения остатка.
type MovementType string

const (
	// MovementIn — приход товара на склад.
	MovementIn MovementType = "IN"
	// MovementOut — списание товара со склада.
	MovementOut MovementType = "OUT"
	// MovementReserve — резервирование под заказ.
	MovementReserve MovementType = "RESERVE"
	// MovementRelease — снятие резерва.
	MovementRelease MovementType = "RELEASE"
)

// Valid проверяет корректность вида движения.
func (t MovementType) Valid() bool {
	switch t {
	case MovementIn, MovementOut, MovementReserve, MovementRelease:
		return true
	default:
		return false
	}
}

// InventoryMovement — запись журнала движений остатков.
// Журнал только дописывается, записи не изменяются и не удаляются.
type InventoryMovement struct {
	ID          string
	WarehouseID string
	VariantID   string
	Type        MovementType
	Qty         int32
	// Reference связывает движение с источником, например id заказа.
	Reference string
	CreatedAt time.Time
}

// Reservation описывает один резерв под позицию заказа.
type Reservation struct {
	WarehouseID string
	VariantID   string
	Qty         int32
	// Reference — id заказа, под который делается резерв.
	Reference string
}

// Validate проверяет корректность резерва.
func (r *Reservation) Validate() error {
	if r.WarehouseID == "" {
		return ErrWarehouseRequired
	}
	if r.VariantID == "" {
		return ErrVariantRequired
	}
	if r.Qty <= 0 {
		return ErrItemQtyInvalid
	}
	return nil
}
