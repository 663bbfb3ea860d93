package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/vladislavdragonenkov/chsync/internal/domain"
)

func TestInventoryApplyReserve_CreatesRow(t *testing.T) {
	repo := NewInventoryRepository()
	ctx := context.Background()

	err := repo.ApplyReserve(ctx, domain.Reservation{
		WarehouseID: "wh-1",
		VariantID:   "variant-1",
		Qty:         5,
		Reference:   "order-1",
	})
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}

	inv, err := repo.Get(ctx, "wh-1", "variant-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	// Запись создаётся с нулевым физическим остатком.
	if inv.TotalQty != 0 || inv.ReservedQty != 5 {
		t.Fatalf("unexpected inventory: total=%d reserved=%d", inv.TotalQty, inv.ReservedQty)
	}

	movements, err := repo.ListMovements(ctx, "wh-1", "variant-1", 0)
	if err != nil {
		t.Fatalf("list movements failed: %v", err)
	}
	if len(movements) != 1 {
		t.Fatalf("expected 1 movement, got %d", len(movements))
	}
	if movements[0].Type != domain.MovementReserve || movements[0].Qty != 5 || movements[0].Reference != "order-1" {
		t.Fatalf("unexpected movement: %+v", movements[0])
	}
}

func TestInventoryApplyReserve_OverReservation(t *testing.T) {
	repo := NewInventoryRepository()
	ctx := context.Background()

	repo.SetStock("wh-1", "variant-1", 2)

	err := repo.ApplyReserve(ctx, domain.Reservation{WarehouseID: "wh-1", VariantID: "variant-1", Qty: 5, Reference: "order-1"})
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}

	inv, _ := repo.Get(ctx, "wh-1", "variant-1")
	if inv.ReservedQty != 5 {
		t.Fatalf("reserved = %d, want 5", inv.ReservedQty)
	}
	if inv.AvailableQty() != -3 {
		t.Fatalf("available = %d, want -3", inv.AvailableQty())
	}
}

func TestInventoryApplyRelease_FloorsAtZero(t *testing.T) {
	repo := NewInventoryRepository()
	ctx := context.Background()

	if err := repo.ApplyReserve(ctx, domain.Reservation{WarehouseID: "wh-1", VariantID: "variant-1", Qty: 3, Reference: "order-1"}); err != nil {
		t.Fatalf("reserve failed: %v", err)
	}

	released, err := repo.ApplyRelease(ctx, domain.Reservation{WarehouseID: "wh-1", VariantID: "variant-1", Qty: 10, Reference: "order-1"})
	if err != nil {
		t.Fatalf("release failed: %v", err)
	}
	// Снимается не больше, чем было зарезервировано.
	if released != 3 {
		t.Fatalf("released = %d, want 3", released)
	}

	inv, _ := repo.Get(ctx, "wh-1", "variant-1")
	if inv.ReservedQty != 0 {
		t.Fatalf("reserved = %d, want 0", inv.ReservedQty)
	}

	movements, _ := repo.ListMovements(ctx, "wh-1", "variant-1", 0)
	if len(movements) != 2 {
		t.Fatalf("expected 2 movements, got %d", len(movements))
	}
	if movements[0].Type != domain.MovementRelease || movements[0].Qty != 3 {
		t.Fatalf("release movement must record actual released qty: %+v", movements[0])
	}
}

func TestInventoryApplyRelease_MissingRow(t *testing.T) {
	repo := NewInventoryRepository()

	released, err := repo.ApplyRelease(context.Background(), domain.Reservation{WarehouseID: "wh-1", VariantID: "ghost", Qty: 2})
	if err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if released != 0 {
		t.Fatalf("released = %d, want 0", released)
	}

	movements, _ := repo.ListMovements(context.Background(), "wh-1", "ghost", 0)
	if len(movements) != 0 {
		t.Fatalf("no movement must be written for empty release, got %d", len(movements))
	}
}

func TestInventoryApplyAdjustment(t *testing.T) {
	repo := NewInventoryRepository()
	ctx := context.Background()

	if err := repo.ApplyAdjustment(ctx, "wh-1", "variant-1", 10, "receipt-1"); err != nil {
		t.Fatalf("adjustment failed: %v", err)
	}
	if err := repo.ApplyAdjustment(ctx, "wh-1", "variant-1", -4, "writeoff-1"); err != nil {
		t.Fatalf("adjustment failed: %v", err)
	}

	inv, _ := repo.Get(ctx, "wh-1", "variant-1")
	if inv.TotalQty != 6 {
		t.Fatalf("total = %d, want 6", inv.TotalQty)
	}

	movements, _ := repo.ListMovements(ctx, "wh-1", "variant-1", 0)
	if len(movements) != 2 {
		t.Fatalf("expected 2 movements, got %d", len(movements))
	}
	types := map[domain.MovementType]int32{}
	for _, mv := range movements {
		types[mv.Type] = mv.Qty
	}
	if types[domain.MovementIn] != 10 || types[domain.MovementOut] != 4 {
		t.Fatalf("unexpected movement quantities: %+v", types)
	}
}

func TestInventoryGet_NotFound(t *testing.T) {
	repo := NewInventoryRepository()

	_, err := repo.Get(context.Background(), "wh-1", "absent")
	if !errors.Is(err, domain.ErrInventoryNotFound) {
		t.Fatalf("expected ErrInventoryNotFound, got %v", err)
	}
}
