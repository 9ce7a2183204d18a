package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"gudangresto/backend/internal/domain"
)

// PairKey identifies one (item, warehouse) balance.
type PairKey struct {
	ItemID      string
	WarehouseID string
}

// ResolveWarehouse decides which warehouse a consumption of the given item
// deducts from. Recipes do not pin a warehouse per ingredient, yet stock may
// legitimately sit in several locations, so the choice follows a fixed,
// fully deterministic policy:
//
//  1. among active warehouses holding a positive balance, a single holder
//     wins outright;
//  2. several holders tie-break to the category default, then the largest
//     quantity, then the smallest warehouse id;
//  3. no positive holder falls back to the category default, which always
//     exists (validated at startup), so a sale can always proceed even into
//     a negative balance.
func ResolveWarehouse(balances []domain.Balance, activeWarehouses map[string]bool, defaultWarehouseID string) string {
	candidates := make([]domain.Balance, 0, len(balances))
	for _, balance := range balances {
		if !activeWarehouses[balance.WarehouseID] {
			continue
		}
		if balance.Quantity.Sign() > 0 {
			candidates = append(candidates, balance)
		}
	}

	switch len(candidates) {
	case 0:
		return defaultWarehouseID
	case 1:
		return candidates[0].WarehouseID
	}

	for _, candidate := range candidates {
		if candidate.WarehouseID == defaultWarehouseID {
			return defaultWarehouseID
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		cmp := candidates[i].Quantity.Cmp(candidates[j].Quantity)
		if cmp != 0 {
			return cmp > 0
		}
		return candidates[i].WarehouseID < candidates[j].WarehouseID
	})
	return candidates[0].WarehouseID
}

// Fold accumulates movement deltas into a running balance map. The same fold
// backs incremental rebuilds and recomputation audits, so both necessarily
// agree on the arithmetic.
func Fold(acc map[PairKey]decimal.Decimal, movements []domain.Movement) map[PairKey]decimal.Decimal {
	if acc == nil {
		acc = make(map[PairKey]decimal.Decimal)
	}
	for _, movement := range movements {
		key := PairKey{ItemID: movement.ItemID, WarehouseID: movement.WarehouseID}
		acc[key] = acc[key].Add(movement.Delta)
	}
	return acc
}

// Compact drops zero-net pairs from a folded map. The balance store keeps
// zero-net pairs absent to stay sparse; compacting before a diff keeps the
// two representations comparable.
func Compact(folded map[PairKey]decimal.Decimal) map[PairKey]decimal.Decimal {
	for key, qty := range folded {
		if qty.IsZero() {
			delete(folded, key)
		}
	}
	return folded
}

// Diff compares a folded replay result against the live balance entries and
// returns the matched pair count plus every divergence, ordered by item then
// warehouse id so reports are stable. It never mutates either side.
func Diff(folded map[PairKey]decimal.Decimal, live []domain.Balance) (int, []domain.Mismatch) {
	liveByKey := make(map[PairKey]decimal.Decimal, len(live))
	for _, balance := range live {
		liveByKey[PairKey{ItemID: balance.ItemID, WarehouseID: balance.WarehouseID}] = balance.Quantity
	}

	keys := make(map[PairKey]struct{}, len(folded)+len(liveByKey))
	for key := range folded {
		keys[key] = struct{}{}
	}
	for key := range liveByKey {
		keys[key] = struct{}{}
	}

	matched := 0
	mismatches := make([]domain.Mismatch, 0)
	for key := range keys {
		recomputed := folded[key]
		liveQty := liveByKey[key]
		if recomputed.Equal(liveQty) {
			matched++
			continue
		}
		mismatches = append(mismatches, domain.Mismatch{
			ItemID:        key.ItemID,
			WarehouseID:   key.WarehouseID,
			LiveQty:       liveQty,
			RecomputedQty: recomputed,
		})
	}

	sort.Slice(mismatches, func(i, j int) bool {
		if mismatches[i].ItemID != mismatches[j].ItemID {
			return mismatches[i].ItemID < mismatches[j].ItemID
		}
		return mismatches[i].WarehouseID < mismatches[j].WarehouseID
	})
	return matched, mismatches
}

// Balances turns a folded map into balance records, stamped with the last
// movement id applied per pair. Zero-net pairs are omitted.
func Balances(folded map[PairKey]decimal.Decimal, lastMovementByPair map[PairKey]domain.Movement) []domain.Balance {
	balances := make([]domain.Balance, 0, len(folded))
	for key, qty := range folded {
		if qty.IsZero() {
			continue
		}
		balance := domain.Balance{
			ItemID:      key.ItemID,
			WarehouseID: key.WarehouseID,
			Quantity:    qty,
		}
		if last, ok := lastMovementByPair[key]; ok {
			balance.LastMovementID = last.ID
			balance.UpdatedAt = last.Timestamp
		}
		balances = append(balances, balance)
	}
	sort.Slice(balances, func(i, j int) bool {
		if balances[i].ItemID != balances[j].ItemID {
			return balances[i].ItemID < balances[j].ItemID
		}
		return balances[i].WarehouseID < balances[j].WarehouseID
	})
	return balances
}
