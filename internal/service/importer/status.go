package importer

import "github.com/vladislavdragonenkov/chsync/internal/domain"

// deriveStatus выводит статус импортируемого заказа.
// Заказ попадает на HOLD, если хотя бы одна позиция не смаплена
// либо хотя бы одной смапленной позиции не хватило стока.
func deriveStatus(allMapped, allStockAvailable bool) domain.OrderStatus {
	if !allMapped || !allStockAvailable {
		return domain.OrderStatusHold
	}
	return domain.OrderStatusNew
}
