package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"gudangresto/backend/internal/domain"
	"gudangresto/backend/internal/store"
)

func TestAppendAndApplyMovementBatch(t *testing.T) {
	databaseURL := os.Getenv("GUDANGRESTO_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set GUDANGRESTO_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})

	stamp := time.Now().UnixNano()
	itemID := fmt.Sprintf("itm-it-%d", stamp)
	warehouseID := fmt.Sprintf("wh-it-%d", stamp)
	referenceID := fmt.Sprintf("ref-it-%d", stamp)

	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM balances WHERE item_id = $1`, itemID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM movements WHERE item_id = $1`, itemID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, itemID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM warehouses WHERE id = $1`, warehouseID)
	})

	if _, err := s.CreateItem(ctx, domain.Item{
		ID: itemID, Name: "Integration Flour", Category: domain.CategoryIngredient, Unit: "kg",
	}); err != nil {
		t.Fatalf("create item: %v", err)
	}
	if _, err := s.CreateWarehouse(ctx, domain.Warehouse{
		ID: warehouseID, Name: "Integration Warehouse",
	}); err != nil {
		t.Fatalf("create warehouse: %v", err)
	}

	appended, err := s.AppendMovements(ctx, []domain.Movement{
		{
			Type:        domain.MovementReceipt,
			ItemID:      itemID,
			WarehouseID: warehouseID,
			Delta:       decimal.NewFromInt(10),
			ReferenceID: referenceID,
		},
		{
			Type:        domain.MovementSale,
			ItemID:      itemID,
			WarehouseID: warehouseID,
			Delta:       decimal.RequireFromString("-2.5"),
			ReferenceID: referenceID,
		},
	})
	if err != nil {
		t.Fatalf("append movements: %v", err)
	}
	if len(appended) != 2 {
		t.Fatalf("expected 2 appended movements, got %d", len(appended))
	}
	if appended[1].Sequence <= appended[0].Sequence {
		t.Fatalf("sequences not increasing: %d then %d", appended[0].Sequence, appended[1].Sequence)
	}

	for _, movement := range appended {
		if err := s.ApplyDelta(ctx, movement.ItemID, movement.WarehouseID, movement.Delta, movement.ID, movement.Timestamp); err != nil {
			t.Fatalf("apply delta: %v", err)
		}
	}

	balance, err := s.GetBalance(ctx, itemID, warehouseID)
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if !balance.Quantity.Equal(decimal.RequireFromString("7.5")) {
		t.Fatalf("balance = %s, want 7.5", balance.Quantity)
	}

	// Re-applying the last movement must be a no-op.
	last := appended[1]
	if err := s.ApplyDelta(ctx, last.ItemID, last.WarehouseID, last.Delta, last.ID, last.Timestamp); err != nil {
		t.Fatalf("re-apply delta: %v", err)
	}
	balance, err = s.GetBalance(ctx, itemID, warehouseID)
	if err != nil {
		t.Fatalf("get balance after re-apply: %v", err)
	}
	if !balance.Quantity.Equal(decimal.RequireFromString("7.5")) {
		t.Fatalf("re-apply double-counted: balance = %s", balance.Quantity)
	}

	movements, err := s.ListMovements(ctx, store.MovementFilter{ItemID: itemID})
	if err != nil {
		t.Fatalf("list movements: %v", err)
	}
	if len(movements) != 2 {
		t.Fatalf("expected 2 movements in log, got %d", len(movements))
	}
}

func TestAppendMovementsRejectsUnknownReferences(t *testing.T) {
	databaseURL := os.Getenv("GUDANGRESTO_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set GUDANGRESTO_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})

	_, err = s.AppendMovements(ctx, []domain.Movement{{
		Type:        domain.MovementReceipt,
		ItemID:      "itm-does-not-exist",
		WarehouseID: "wh-does-not-exist",
		Delta:       decimal.NewFromInt(1),
	}})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown item/warehouse, got %v", err)
	}
}
