package inventory_test

import (
	"context"
	"testing"

	"github.com/vladislavdragonenkov/chsync/internal/domain"
	"github.com/vladislavdragonenkov/chsync/internal/service/inventory"
	"github.com/vladislavdragonenkov/chsync/internal/storage/memory"
)

func TestAvailability_MissingRowIsZero(t *testing.T) {
	ledger := inventory.NewLedger(memory.NewInventoryRepository())

	available, err := ledger.Availability(context.Background(), "wh-1", "variant-1")
	if err != nil {
		t.Fatalf("availability failed: %v", err)
	}
	if available != 0 {
		t.Fatalf("available = %d, want 0", available)
	}
}

func TestReserveAndAvailability(t *testing.T) {
	repo := memory.NewInventoryRepository()
	ledger := inventory.NewLedger(repo)
	ctx := context.Background()

	repo.SetStock("wh-1", "variant-1", 10)

	err := ledger.Reserve(ctx, domain.Reservation{WarehouseID: "wh-1", VariantID: "variant-1", Qty: 4, Reference: "order-1"})
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}

	available, err := ledger.Availability(ctx, "wh-1", "variant-1")
	if err != nil {
		t.Fatalf("availability failed: %v", err)
	}
	if available != 6 {
		t.Fatalf("available = %d, want 6", available)
	}
}

func TestReserve_Invalid(t *testing.T) {
	ledger := inventory.NewLedger(memory.NewInventoryRepository())

	err := ledger.Reserve(context.Background(), domain.Reservation{WarehouseID: "wh-1", VariantID: "variant-1", Qty: 0})
	if err == nil {
		t.Fatal("zero qty reservation must be rejected")
	}
}

func TestRelease_ClampsAtZero(t *testing.T) {
	repo := memory.NewInventoryRepository()
	ledger := inventory.NewLedger(repo)
	ctx := context.Background()

	if err := ledger.Reserve(ctx, domain.Reservation{WarehouseID: "wh-1", VariantID: "variant-1", Qty: 2, Reference: "order-1"}); err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if err := ledger.Release(ctx, domain.Reservation{WarehouseID: "wh-1", VariantID: "variant-1", Qty: 5, Reference: "order-1"}); err != nil {
		t.Fatalf("release failed: %v", err)
	}

	inv, err := repo.Get(ctx, "wh-1", "variant-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if inv.ReservedQty != 0 {
		t.Fatalf("reserved = %d, want 0", inv.ReservedQty)
	}
}

func TestReleaseForOrder(t *testing.T) {
	repo := memory.NewInventoryRepository()
	ledger := inventory.NewLedger(repo)
	ctx := context.Background()

	order := domain.Order{
		ID: "order-1",
		Items: []domain.OrderItem{
			{VariantID: "variant-1", SKU: "TEE-BLK-M", Qty: 2, FulfillmentStatus: domain.FulfillmentStatusMapped},
			{VariantID: "", SKU: "ZZZ-404", Qty: 1, FulfillmentStatus: domain.FulfillmentStatusUnmappedSKU},
		},
	}

	if err := ledger.Reserve(ctx, domain.Reservation{WarehouseID: "wh-1", VariantID: "variant-1", Qty: 2, Reference: "order-1"}); err != nil {
		t.Fatalf("reserve failed: %v", err)
	}

	if err := ledger.ReleaseForOrder(ctx, "wh-1", order); err != nil {
		t.Fatalf("release for order failed: %v", err)
	}

	inv, _ := repo.Get(ctx, "wh-1", "variant-1")
	if inv.ReservedQty != 0 {
		t.Fatalf("reserved = %d, want 0", inv.ReservedQty)
	}

	movements, _ := repo.ListMovements(ctx, "wh-1", "variant-1", 0)
	if len(movements) != 2 {
		t.Fatalf("expected RESERVE and RELEASE movements, got %d", len(movements))
	}
}

func TestAdjustStock(t *testing.T) {
	repo := memory.NewInventoryRepository()
	ledger := inventory.NewLedger(repo)
	ctx := context.Background()

	if err := ledger.AdjustStock(ctx, "wh-1", "variant-1", 10, "receipt-1"); err != nil {
		t.Fatalf("adjust failed: %v", err)
	}
	if err := ledger.AdjustStock(ctx, "wh-1", "variant-1", -3, "writeoff-1"); err != nil {
		t.Fatalf("adjust failed: %v", err)
	}
	// Нулевая дельта не пишет движений.
	if err := ledger.AdjustStock(ctx, "wh-1", "variant-1", 0, "noop"); err != nil {
		t.Fatalf("zero adjust failed: %v", err)
	}

	inv, _ := repo.Get(ctx, "wh-1", "variant-1")
	if inv.TotalQty != 7 {
		t.Fatalf("total = %d, want 7", inv.TotalQty)
	}

	movements, _ := repo.ListMovements(ctx, "wh-1", "variant-1", 0)
	if len(movements) != 2 {
		t.Fatalf("expected 2 movements, got %d", len(movements))
	}
}
