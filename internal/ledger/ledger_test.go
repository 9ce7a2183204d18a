package ledger

import (
	"testing"

	"github.com/shopspring/decimal"

	"gudangresto/backend/internal/domain"
)

func qty(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", s, err)
	}
	return d
}

func bal(t *testing.T, warehouseID string, quantity string) domain.Balance {
	t.Helper()
	return domain.Balance{ItemID: "itm-x", WarehouseID: warehouseID, Quantity: qty(t, quantity)}
}

func TestResolveWarehouseSingleHolder(t *testing.T) {
	active := map[string]bool{"wh-a": true, "wh-b": true, "wh-default": true}
	balances := []domain.Balance{
		bal(t, "wh-a", "5"),
		bal(t, "wh-b", "0"),
	}
	if got := ResolveWarehouse(balances, active, "wh-default"); got != "wh-a" {
		t.Fatalf("resolved %s, want wh-a", got)
	}
}

func TestResolveWarehouseDefaultWinsAmongHolders(t *testing.T) {
	active := map[string]bool{"wh-a": true, "wh-default": true}
	balances := []domain.Balance{
		bal(t, "wh-a", "100"),
		bal(t, "wh-default", "1"),
	}
	if got := ResolveWarehouse(balances, active, "wh-default"); got != "wh-default" {
		t.Fatalf("resolved %s, want wh-default", got)
	}
}

func TestResolveWarehouseLargestQuantityThenLexicographic(t *testing.T) {
	active := map[string]bool{"wh-a": true, "wh-b": true, "wh-c": true, "wh-default": true}

	balances := []domain.Balance{
		bal(t, "wh-b", "3"),
		bal(t, "wh-a", "7"),
	}
	if got := ResolveWarehouse(balances, active, "wh-default"); got != "wh-a" {
		t.Fatalf("resolved %s, want wh-a (largest quantity)", got)
	}

	balances = []domain.Balance{
		bal(t, "wh-c", "5"),
		bal(t, "wh-b", "5"),
	}
	if got := ResolveWarehouse(balances, active, "wh-default"); got != "wh-b" {
		t.Fatalf("resolved %s, want wh-b (smallest id on quantity tie)", got)
	}
}

func TestResolveWarehouseNoHolderFallsBackToDefault(t *testing.T) {
	active := map[string]bool{"wh-a": true, "wh-default": true}
	balances := []domain.Balance{
		bal(t, "wh-a", "-2"),
	}
	if got := ResolveWarehouse(balances, active, "wh-default"); got != "wh-default" {
		t.Fatalf("resolved %s, want wh-default", got)
	}
	if got := ResolveWarehouse(nil, active, "wh-default"); got != "wh-default" {
		t.Fatalf("resolved %s for empty balances, want wh-default", got)
	}
}

func TestResolveWarehouseIgnoresInactiveHolders(t *testing.T) {
	active := map[string]bool{"wh-a": true, "wh-default": true}
	balances := []domain.Balance{
		bal(t, "wh-retired", "50"),
		bal(t, "wh-a", "2"),
	}
	if got := ResolveWarehouse(balances, active, "wh-default"); got != "wh-a" {
		t.Fatalf("resolved %s, want wh-a (inactive holder excluded)", got)
	}
}

func TestFoldAndCompact(t *testing.T) {
	movements := []domain.Movement{
		{ItemID: "itm-x", WarehouseID: "wh-a", Delta: qty(t, "10")},
		{ItemID: "itm-x", WarehouseID: "wh-a", Delta: qty(t, "-10")},
		{ItemID: "itm-y", WarehouseID: "wh-a", Delta: qty(t, "2.5")},
	}
	folded := Fold(nil, movements)
	if len(folded) != 2 {
		t.Fatalf("expected 2 pairs before compaction, got %d", len(folded))
	}

	Compact(folded)
	if len(folded) != 1 {
		t.Fatalf("expected 1 pair after compaction, got %d", len(folded))
	}
	if got := folded[PairKey{ItemID: "itm-y", WarehouseID: "wh-a"}]; !got.Equal(qty(t, "2.5")) {
		t.Fatalf("folded quantity = %s, want 2.5", got)
	}
}

func TestDiffTreatsZeroAndAbsentAsEqual(t *testing.T) {
	folded := map[PairKey]decimal.Decimal{
		{ItemID: "itm-x", WarehouseID: "wh-a"}: qty(t, "5"),
	}
	live := []domain.Balance{
		bal(t, "wh-a", "5"),
		// Present in the store at exactly zero, absent from the fold.
		{ItemID: "itm-x", WarehouseID: "wh-b", Quantity: decimal.Zero},
	}

	matched, mismatches := Diff(folded, live)
	if len(mismatches) != 0 {
		t.Fatalf("expected no mismatches, got %+v", mismatches)
	}
	if matched != 2 {
		t.Fatalf("matched = %d, want 2", matched)
	}
}

func TestDiffReportsDivergenceSorted(t *testing.T) {
	folded := map[PairKey]decimal.Decimal{
		{ItemID: "itm-b", WarehouseID: "wh-a"}: qty(t, "3"),
		{ItemID: "itm-a", WarehouseID: "wh-a"}: qty(t, "1"),
	}
	live := []domain.Balance{
		{ItemID: "itm-a", WarehouseID: "wh-a", Quantity: qty(t, "9")},
	}

	_, mismatches := Diff(folded, live)
	if len(mismatches) != 2 {
		t.Fatalf("expected 2 mismatches, got %d", len(mismatches))
	}
	if mismatches[0].ItemID != "itm-a" || mismatches[1].ItemID != "itm-b" {
		t.Fatalf("mismatches not sorted: %+v", mismatches)
	}
	if !mismatches[0].LiveQty.Equal(qty(t, "9")) || !mismatches[0].RecomputedQty.Equal(qty(t, "1")) {
		t.Fatalf("unexpected mismatch quantities: %+v", mismatches[0])
	}
	// itm-b exists only in the fold; the live side reads as zero.
	if !mismatches[1].LiveQty.IsZero() {
		t.Fatalf("expected zero live quantity for log-only pair, got %s", mismatches[1].LiveQty)
	}
}

func TestBalancesStampsLastMovement(t *testing.T) {
	key := PairKey{ItemID: "itm-x", WarehouseID: "wh-a"}
	folded := map[PairKey]decimal.Decimal{
		key: qty(t, "4"),
		{ItemID: "itm-x", WarehouseID: "wh-b"}: decimal.Zero,
	}
	last := map[PairKey]domain.Movement{
		key: {ID: "mv-last"},
	}

	balances := Balances(folded, last)
	if len(balances) != 1 {
		t.Fatalf("expected zero-net pair omitted, got %d balances", len(balances))
	}
	if balances[0].LastMovementID != "mv-last" {
		t.Fatalf("last movement id = %q, want mv-last", balances[0].LastMovementID)
	}
}
