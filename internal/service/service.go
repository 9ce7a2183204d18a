package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"gudangresto/backend/internal/cache"
	"gudangresto/backend/internal/catalog"
	"gudangresto/backend/internal/domain"
	"gudangresto/backend/internal/ledger"
	"gudangresto/backend/internal/registry"
	"gudangresto/backend/internal/store"
	"gudangresto/backend/internal/xid"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Service struct {
	repo            store.Repository
	catalog         *catalog.Index
	registry        *registry.Registry
	balanceCache    cache.BalanceCache
	balanceCacheTTL time.Duration
	chunkSize       int
}

func New(repo store.Repository, catalogIndex *catalog.Index, reg *registry.Registry, balanceCache cache.BalanceCache, balanceCacheTTL time.Duration, chunkSize int) *Service {
	if balanceCache == nil {
		balanceCache = cache.NoopBalanceCache{}
	}
	if balanceCacheTTL <= 0 {
		balanceCacheTTL = 15 * time.Second
	}
	if chunkSize < 1 {
		chunkSize = 500
	}

	return &Service{
		repo:            repo,
		catalog:         catalogIndex,
		registry:        reg,
		balanceCache:    balanceCache,
		balanceCacheTTL: balanceCacheTTL,
		chunkSize:       chunkSize,
	}
}

// ProcessSale expands a sold item into ingredient consumptions, resolves a
// warehouse per ingredient, and appends one negative movement per ingredient
// as a single batch. Expansion errors abort before anything is appended, so
// a failed sale leaves zero movements behind. Resulting negative balances
// are permitted: blocking a real-world sale on stock-accounting lag is worse
// than a temporarily negative number.
func (s *Service) ProcessSale(ctx context.Context, req domain.SaleRequest) (domain.SaleResponse, error) {
	if req.Qty.Sign() <= 0 {
		return domain.SaleResponse{}, fmt.Errorf("%w: sale quantity must be positive", store.ErrInvalidInput)
	}

	item, err := s.resolveItemRef(ctx, req.ItemID, req.ItemName)
	if err != nil {
		return domain.SaleResponse{}, err
	}
	if !item.Active {
		return domain.SaleResponse{}, fmt.Errorf("%w: item %s is inactive", store.ErrInvalidInput, item.ID)
	}

	referenceID := strings.TrimSpace(req.ReferenceID)
	if referenceID == "" {
		referenceID = xid.New("sale")
	}

	consumptions, err := s.catalog.ResolveSaleItem(ctx, item.ID)
	if err != nil {
		return domain.SaleResponse{}, err
	}

	activeSet, err := s.registry.ActiveSet(ctx)
	if err != nil {
		return domain.SaleResponse{}, err
	}

	// Build the full batch before touching the log: expansion must fail
	// closed with no partial deduction.
	movements := make([]domain.Movement, 0, len(consumptions))
	for _, consumption := range consumptions {
		defaultID, err := s.registry.DefaultFor(consumption.Item.Category)
		if err != nil {
			return domain.SaleResponse{}, err
		}
		balances, err := s.repo.ListBalancesByItem(ctx, consumption.Item.ID)
		if err != nil {
			return domain.SaleResponse{}, fmt.Errorf("read balances for %s: %w", consumption.Item.ID, err)
		}
		warehouseID := ledger.ResolveWarehouse(balances, activeSet, defaultID)

		movements = append(movements, domain.Movement{
			ID:          xid.New("mv"),
			Type:        domain.MovementSale,
			ItemID:      consumption.Item.ID,
			WarehouseID: warehouseID,
			Delta:       consumption.QtyPerUnit.Mul(req.Qty).Neg(),
			ReferenceID: referenceID,
			Description: fmt.Sprintf("sale of %s x%s", item.Name, req.Qty.String()),
		})
	}

	appended, err := s.repo.AppendMovements(ctx, movements)
	if err != nil {
		return domain.SaleResponse{}, fmt.Errorf("append sale movements: %w", err)
	}

	if err := s.applyMovements(ctx, appended); err != nil {
		return domain.SaleResponse{}, err
	}

	s.warnNegativeBalances(ctx, appended)
	s.logAudit(ctx, "sale", "movement_batch", referenceID, fmt.Sprintf("item=%s,qty=%s,movements=%d", item.ID, req.Qty.String(), len(appended)))

	return domain.SaleResponse{ReferenceID: referenceID, Movements: appended}, nil
}

// ReceiveStock appends a positive receipt movement. The warehouse defaults
// to the item's category default when not named.
func (s *Service) ReceiveStock(ctx context.Context, req domain.ReceiptRequest) (domain.Movement, error) {
	if req.Qty.Sign() <= 0 {
		return domain.Movement{}, fmt.Errorf("%w: receipt quantity must be positive", store.ErrInvalidInput)
	}

	item, err := s.repo.GetItemByID(ctx, strings.TrimSpace(req.ItemID))
	if err != nil {
		return domain.Movement{}, err
	}

	warehouseID := strings.TrimSpace(req.WarehouseID)
	if warehouseID == "" {
		warehouseID, err = s.registry.DefaultFor(item.Category)
		if err != nil {
			return domain.Movement{}, err
		}
	} else if _, err := s.repo.GetWarehouseByID(ctx, warehouseID); err != nil {
		return domain.Movement{}, err
	}

	movement := domain.Movement{
		ID:          xid.New("mv"),
		Type:        domain.MovementReceipt,
		ItemID:      item.ID,
		WarehouseID: warehouseID,
		Delta:       req.Qty,
		ReferenceID: strings.TrimSpace(req.ReferenceID),
		Description: strings.TrimSpace(req.Description),
	}

	appended, err := s.repo.AppendMovements(ctx, []domain.Movement{movement})
	if err != nil {
		return domain.Movement{}, fmt.Errorf("append receipt: %w", err)
	}
	if err := s.applyMovements(ctx, appended); err != nil {
		return domain.Movement{}, err
	}

	s.logAudit(ctx, "receipt", "movement", appended[0].ID, fmt.Sprintf("item=%s,warehouse=%s,qty=%s", item.ID, warehouseID, req.Qty.String()))
	return appended[0], nil
}

// Transfer moves stock between two active warehouses as a pair of movements
// sharing one reference id.
func (s *Service) Transfer(ctx context.Context, req domain.TransferRequest) ([]domain.Movement, error) {
	if req.Qty.Sign() <= 0 {
		return nil, fmt.Errorf("%w: transfer quantity must be positive", store.ErrInvalidInput)
	}
	if req.FromWarehouseID == req.ToWarehouseID {
		return nil, fmt.Errorf("%w: transfer source and destination are the same", store.ErrInvalidInput)
	}

	item, err := s.repo.GetItemByID(ctx, strings.TrimSpace(req.ItemID))
	if err != nil {
		return nil, err
	}
	for _, warehouseID := range []string{req.FromWarehouseID, req.ToWarehouseID} {
		warehouse, err := s.repo.GetWarehouseByID(ctx, warehouseID)
		if err != nil {
			return nil, err
		}
		if warehouse.Status != domain.WarehouseStatusActive {
			return nil, fmt.Errorf("%w: warehouse %s is inactive", store.ErrInvalidInput, warehouseID)
		}
	}

	referenceID := xid.New("tr")
	description := strings.TrimSpace(req.Description)
	movements := []domain.Movement{
		{
			ID:          xid.New("mv"),
			Type:        domain.MovementTransfer,
			ItemID:      item.ID,
			WarehouseID: req.FromWarehouseID,
			Delta:       req.Qty.Neg(),
			ReferenceID: referenceID,
			Description: description,
		},
		{
			ID:          xid.New("mv"),
			Type:        domain.MovementTransfer,
			ItemID:      item.ID,
			WarehouseID: req.ToWarehouseID,
			Delta:       req.Qty,
			ReferenceID: referenceID,
			Description: description,
		},
	}

	appended, err := s.repo.AppendMovements(ctx, movements)
	if err != nil {
		return nil, fmt.Errorf("append transfer: %w", err)
	}
	if err := s.applyMovements(ctx, appended); err != nil {
		return nil, err
	}

	s.logAudit(ctx, "transfer", "movement_batch", referenceID, fmt.Sprintf("item=%s,from=%s,to=%s,qty=%s", item.ID, req.FromWarehouseID, req.ToWarehouseID, req.Qty.String()))
	return appended, nil
}

// RecordStockCount reconciles counted quantities against the system balance
// by appending one compensating inventory_adjustment movement per drifted
// pair. The count itself never edits balances directly; corrections flow
// through the log like everything else.
func (s *Service) RecordStockCount(ctx context.Context, req domain.StockCountRequest) (domain.StockCountResponse, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.StockCountResponse{}, fmt.Errorf("admin role required")
	}
	if len(req.Lines) == 0 {
		return domain.StockCountResponse{}, store.ErrInvalidInput
	}

	countID := xid.New("count")
	adjustments := make([]domain.StockCountAdjustment, 0, len(req.Lines))
	movements := make([]domain.Movement, 0, len(req.Lines))

	for _, line := range req.Lines {
		if line.ItemID == "" || line.WarehouseID == "" || line.CountedQty.Sign() < 0 {
			return domain.StockCountResponse{}, store.ErrInvalidInput
		}
		if _, err := s.repo.GetItemByID(ctx, line.ItemID); err != nil {
			return domain.StockCountResponse{}, err
		}
		if _, err := s.repo.GetWarehouseByID(ctx, line.WarehouseID); err != nil {
			return domain.StockCountResponse{}, err
		}

		systemQty := decimal.Zero
		if balance, err := s.repo.GetBalance(ctx, line.ItemID, line.WarehouseID); err == nil {
			systemQty = balance.Quantity
		} else if !errors.Is(err, store.ErrNotFound) {
			return domain.StockCountResponse{}, err
		}

		delta := line.CountedQty.Sub(systemQty)
		adjustments = append(adjustments, domain.StockCountAdjustment{
			ItemID:      line.ItemID,
			WarehouseID: line.WarehouseID,
			SystemQty:   systemQty,
			CountedQty:  line.CountedQty,
			DeltaQty:    delta,
		})
		if delta.IsZero() {
			continue
		}
		movements = append(movements, domain.Movement{
			ID:          xid.New("mv"),
			Type:        domain.MovementInventoryAdjustment,
			ItemID:      line.ItemID,
			WarehouseID: line.WarehouseID,
			Delta:       delta,
			ReferenceID: countID,
			Description: fmt.Sprintf("stock count: system %s, counted %s", systemQty.String(), line.CountedQty.String()),
		})
	}

	appended := []domain.Movement{}
	if len(movements) > 0 {
		var err error
		appended, err = s.repo.AppendMovements(ctx, movements)
		if err != nil {
			return domain.StockCountResponse{}, fmt.Errorf("append stock count adjustments: %w", err)
		}
		if err := s.applyMovements(ctx, appended); err != nil {
			return domain.StockCountResponse{}, err
		}
	}

	s.logAudit(ctx, "stock_count", "movement_batch", countID, fmt.Sprintf("lines=%d,adjusted=%d,notes=%s", len(req.Lines), len(appended), req.Notes))

	return domain.StockCountResponse{
		CountID:     countID,
		Notes:       req.Notes,
		Adjustments: adjustments,
		Movements:   appended,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// GetBalance returns the live quantity for one pair; an absent pair reads
// as zero.
func (s *Service) GetBalance(ctx context.Context, itemID string, warehouseID string) (decimal.Decimal, error) {
	balance, err := s.repo.GetBalance(ctx, itemID, warehouseID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return balance.Quantity, nil
}

// GetItemBalances returns the per-active-warehouse balances for an item,
// served through the balance cache.
func (s *Service) GetItemBalances(ctx context.Context, itemID string) (domain.BalanceResponse, error) {
	if cached, ok, err := s.balanceCache.Get(ctx, itemID); err == nil && ok {
		return *cached, nil
	}

	if _, err := s.repo.GetItemByID(ctx, itemID); err != nil {
		return domain.BalanceResponse{}, err
	}

	activeSet, err := s.registry.ActiveSet(ctx)
	if err != nil {
		return domain.BalanceResponse{}, err
	}
	balances, err := s.repo.ListBalancesByItem(ctx, itemID)
	if err != nil {
		return domain.BalanceResponse{}, err
	}

	resp := domain.BalanceResponse{
		ItemID:   itemID,
		Balances: make(map[string]decimal.Decimal, len(balances)),
	}
	for _, balance := range balances {
		if !activeSet[balance.WarehouseID] {
			continue
		}
		resp.Balances[balance.WarehouseID] = balance.Quantity
		resp.Total = resp.Total.Add(balance.Quantity)
	}

	_ = s.balanceCache.Set(ctx, itemID, &resp, s.balanceCacheTTL)
	return resp, nil
}

func (s *Service) ListMovements(ctx context.Context, warehouseID string, from *time.Time, to *time.Time, limit int) ([]domain.Movement, error) {
	if limit < 1 || limit > 1000 {
		limit = 200
	}
	return s.repo.ListMovements(ctx, store.MovementFilter{
		WarehouseID: warehouseID,
		From:        from,
		To:          to,
		Limit:       limit,
	})
}

// Recompute replays the movement log into a scratch balance map and diffs it
// against the live store. The replay is pinned to the max sequence observed
// at the start, so movements appended by concurrent sales never leak into
// the report. Divergence is reported, never corrected here: live balances
// may legitimately lag the log under concurrent writers, and silent
// overwrite would mask real bugs. Correction is RebuildBalances, an
// explicit, audited operator action.
func (s *Service) Recompute(ctx context.Context, req domain.RecomputeRequest) (domain.RecomputeReport, error) {
	startedAt := time.Now().UTC()

	ceiling, err := s.repo.MaxMovementSequence(ctx)
	if err != nil {
		return domain.RecomputeReport{}, fmt.Errorf("read sequence ceiling: %w", err)
	}

	folded, read, err := s.foldMovements(ctx, req.From, req.To, ceiling)
	if err != nil {
		return domain.RecomputeReport{}, err
	}
	ledger.Compact(folded)

	live, err := s.repo.ListBalances(ctx)
	if err != nil {
		return domain.RecomputeReport{}, fmt.Errorf("read live balances: %w", err)
	}

	matched, mismatched := ledger.Diff(folded, live)
	fullHistory := req.From == nil && req.To == nil

	s.logAudit(ctx, "recompute", "balance_store", fmt.Sprintf("seq-%d", ceiling), fmt.Sprintf("matched=%d,mismatched=%d,full=%t", matched, len(mismatched), fullHistory))

	return domain.RecomputeReport{
		BoundarySequence: ceiling,
		MovementsRead:    read,
		Matched:          matched,
		Mismatched:       mismatched,
		FullHistory:      fullHistory,
		StartedAt:        startedAt.Format(time.RFC3339),
		FinishedAt:       time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// RebuildBalances replaces the entire balance store with a fresh fold over
// the full movement log. Admin only; meant to run after an operator has
// reviewed a recompute report.
func (s *Service) RebuildBalances(ctx context.Context) (domain.RebuildResponse, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.RebuildResponse{}, fmt.Errorf("admin role required")
	}

	ceiling, err := s.repo.MaxMovementSequence(ctx)
	if err != nil {
		return domain.RebuildResponse{}, fmt.Errorf("read sequence ceiling: %w", err)
	}

	folded := make(map[ledger.PairKey]decimal.Decimal)
	lastByPair := make(map[ledger.PairKey]domain.Movement)
	var cursor int64
	for {
		if err := ctx.Err(); err != nil {
			return domain.RebuildResponse{}, err
		}
		batch, err := s.repo.ListMovements(ctx, store.MovementFilter{
			AfterSequence: cursor,
			MaxSequence:   ceiling,
			Limit:         s.chunkSize,
		})
		if err != nil {
			return domain.RebuildResponse{}, fmt.Errorf("stream movements: %w", err)
		}
		if len(batch) == 0 {
			break
		}
		folded = ledger.Fold(folded, batch)
		for _, movement := range batch {
			lastByPair[ledger.PairKey{ItemID: movement.ItemID, WarehouseID: movement.WarehouseID}] = movement
		}
		cursor = batch[len(batch)-1].Sequence
		if len(batch) < s.chunkSize {
			break
		}
	}

	balances := ledger.Balances(folded, lastByPair)
	if err := s.repo.ReplaceBalances(ctx, balances); err != nil {
		return domain.RebuildResponse{}, fmt.Errorf("replace balances: %w", err)
	}

	for key := range lastByPair {
		_ = s.balanceCache.Invalidate(ctx, key.ItemID)
	}

	s.logAudit(ctx, "rebuild_balances", "balance_store", fmt.Sprintf("seq-%d", ceiling), fmt.Sprintf("pairs=%d", len(balances)))

	return domain.RebuildResponse{
		Pairs:            len(balances),
		BoundarySequence: ceiling,
		RebuiltAt:        time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// ListAnomalies reports pairs whose live balance is negative.
func (s *Service) ListAnomalies(ctx context.Context) ([]domain.Anomaly, error) {
	balances, err := s.repo.ListBalances(ctx)
	if err != nil {
		return nil, err
	}

	anomalies := make([]domain.Anomaly, 0)
	for _, balance := range balances {
		if balance.Quantity.Sign() >= 0 {
			continue
		}
		anomalies = append(anomalies, domain.Anomaly{
			Kind:        domain.AnomalyNegativeBalance,
			ItemID:      balance.ItemID,
			WarehouseID: balance.WarehouseID,
			Quantity:    balance.Quantity,
			UpdatedAt:   balance.UpdatedAt,
		})
	}
	return anomalies, nil
}

func (s *Service) ListItems(ctx context.Context) ([]domain.Item, error) {
	return s.repo.ListItems(ctx)
}

func (s *Service) CreateItem(ctx context.Context, req domain.ItemCreateRequest) (domain.Item, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Item{}, fmt.Errorf("admin role required")
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(req.Category)
	req.Unit = strings.TrimSpace(req.Unit)
	if req.Name == "" || req.Unit == "" {
		return domain.Item{}, store.ErrInvalidInput
	}
	if req.Category != domain.CategoryIngredient && req.Category != domain.CategoryProduct {
		return domain.Item{}, fmt.Errorf("%w: unknown category %q", store.ErrInvalidInput, req.Category)
	}

	created, err := s.repo.CreateItem(ctx, domain.Item{
		ID:        xid.New("itm"),
		Name:      req.Name,
		Category:  req.Category,
		Unit:      req.Unit,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return domain.Item{}, err
	}

	s.logAudit(ctx, "item_create", "item", created.ID, fmt.Sprintf("name=%s,category=%s", created.Name, created.Category))
	return *created, nil
}

func (s *Service) DeactivateItem(ctx context.Context, itemID string) (domain.Item, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Item{}, fmt.Errorf("admin role required")
	}

	updated, err := s.repo.SetItemActive(ctx, strings.TrimSpace(itemID), false)
	if err != nil {
		return domain.Item{}, err
	}

	s.logAudit(ctx, "item_deactivate", "item", updated.ID, "")
	return *updated, nil
}

// CreateRecipe validates every referenced ingredient up front: a recipe that
// would fail expansion is rejected at creation rather than at sale time.
func (s *Service) CreateRecipe(ctx context.Context, req domain.RecipeCreateRequest) (domain.Recipe, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Recipe{}, fmt.Errorf("admin role required")
	}
	if req.ProductID == "" || len(req.Lines) == 0 {
		return domain.Recipe{}, store.ErrInvalidInput
	}

	product, err := s.repo.GetItemByID(ctx, req.ProductID)
	if err != nil {
		return domain.Recipe{}, err
	}
	if product.Category != domain.CategoryProduct {
		return domain.Recipe{}, fmt.Errorf("%w: recipes belong to products, %s is %s", store.ErrInvalidInput, product.ID, product.Category)
	}

	ids := make([]string, 0, len(req.Lines))
	for _, line := range req.Lines {
		if line.IngredientID == "" || line.QtyPerUnit.Sign() <= 0 {
			return domain.Recipe{}, store.ErrInvalidInput
		}
		ids = append(ids, line.IngredientID)
	}
	ingredients, err := s.repo.GetItemsByIDs(ctx, ids)
	if err != nil {
		return domain.Recipe{}, err
	}
	for _, line := range req.Lines {
		ingredient, exists := ingredients[line.IngredientID]
		if !exists {
			return domain.Recipe{}, fmt.Errorf("%w: ingredient %s", store.ErrNotFound, line.IngredientID)
		}
		if ingredient.Category != domain.CategoryIngredient {
			return domain.Recipe{}, fmt.Errorf("%w: %s is not an ingredient", store.ErrInvalidInput, line.IngredientID)
		}
	}

	created, err := s.repo.CreateRecipe(ctx, domain.Recipe{
		ID:        xid.New("rcp"),
		ProductID: product.ID,
		Lines:     req.Lines,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return domain.Recipe{}, err
	}

	s.logAudit(ctx, "recipe_create", "recipe", created.ID, fmt.Sprintf("product=%s,lines=%d", created.ProductID, len(created.Lines)))
	return *created, nil
}

func (s *Service) ListWarehouses(ctx context.Context, includeInactive bool) ([]domain.Warehouse, error) {
	return s.repo.ListWarehouses(ctx, includeInactive)
}

func (s *Service) CreateWarehouse(ctx context.Context, req domain.WarehouseCreateRequest) (domain.Warehouse, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Warehouse{}, fmt.Errorf("admin role required")
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return domain.Warehouse{}, store.ErrInvalidInput
	}

	created, err := s.repo.CreateWarehouse(ctx, domain.Warehouse{
		ID:        xid.New("wh"),
		Name:      req.Name,
		Status:    domain.WarehouseStatusActive,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return domain.Warehouse{}, err
	}

	s.logAudit(ctx, "warehouse_create", "warehouse", created.ID, created.Name)
	return *created, nil
}

// DeactivateWarehouse retires a warehouse from resolution. Warehouses are
// never deleted: their historical movements stay in the log and still count
// during recomputation. A warehouse serving as a category default cannot be
// deactivated until the default is reassigned.
func (s *Service) DeactivateWarehouse(ctx context.Context, warehouseID string) (domain.Warehouse, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Warehouse{}, fmt.Errorf("admin role required")
	}

	defaults, err := s.repo.ListCategoryDefaults(ctx)
	if err != nil {
		return domain.Warehouse{}, err
	}
	for _, def := range defaults {
		if def.WarehouseID == warehouseID {
			return domain.Warehouse{}, fmt.Errorf("%w: warehouse %s is the default for category %q", store.ErrInvalidInput, warehouseID, def.Category)
		}
	}

	updated, err := s.repo.SetWarehouseStatus(ctx, warehouseID, domain.WarehouseStatusInactive)
	if err != nil {
		return domain.Warehouse{}, err
	}

	s.logAudit(ctx, "warehouse_deactivate", "warehouse", updated.ID, "")
	return *updated, nil
}

func (s *Service) SetCategoryDefault(ctx context.Context, category string, warehouseID string) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return fmt.Errorf("admin role required")
	}

	warehouse, err := s.repo.GetWarehouseByID(ctx, warehouseID)
	if err != nil {
		return err
	}
	if warehouse.Status != domain.WarehouseStatusActive {
		return fmt.Errorf("%w: warehouse %s is inactive", store.ErrInvalidInput, warehouseID)
	}

	if err := s.repo.SetCategoryDefault(ctx, category, warehouseID); err != nil {
		return err
	}
	if err := s.registry.ValidateDefaults(ctx); err != nil {
		return fmt.Errorf("refresh category defaults: %w", err)
	}

	s.logAudit(ctx, "category_default_set", "warehouse", warehouseID, fmt.Sprintf("category=%s", category))
	return nil
}

func (s *Service) ListAuditLogs(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	if limit < 1 || limit > 500 {
		limit = 100
	}
	return s.repo.ListAuditLogs(ctx, from, to, limit)
}

// resolveItemRef resolves a sale target by id, or by the legacy name path
// when no id is given.
func (s *Service) resolveItemRef(ctx context.Context, itemID string, itemName string) (*domain.Item, error) {
	itemID = strings.TrimSpace(itemID)
	if itemID != "" {
		return s.repo.GetItemByID(ctx, itemID)
	}
	return s.catalog.FindItemByName(ctx, itemName)
}

// applyMovements folds appended movements into the live balance store in
// append order and drops affected items from the balance cache.
func (s *Service) applyMovements(ctx context.Context, movements []domain.Movement) error {
	touched := make(map[string]struct{}, len(movements))
	for _, movement := range movements {
		if err := s.repo.ApplyDelta(ctx, movement.ItemID, movement.WarehouseID, movement.Delta, movement.ID, movement.Timestamp); err != nil {
			return fmt.Errorf("apply movement %s: %w", movement.ID, err)
		}
		touched[movement.ItemID] = struct{}{}
	}
	for itemID := range touched {
		_ = s.balanceCache.Invalidate(ctx, itemID)
	}
	return nil
}

func (s *Service) warnNegativeBalances(ctx context.Context, movements []domain.Movement) {
	for _, movement := range movements {
		if movement.Delta.Sign() >= 0 {
			continue
		}
		balance, err := s.repo.GetBalance(ctx, movement.ItemID, movement.WarehouseID)
		if err != nil {
			continue
		}
		if balance.Quantity.Sign() < 0 {
			log.Printf("[service] WARN: negative balance item=%s warehouse=%s qty=%s", movement.ItemID, movement.WarehouseID, balance.Quantity.String())
		}
	}
}

func (s *Service) logAudit(ctx context.Context, action string, entityType string, entityID string, detail string) {
	actor, _ := ActorFromContext(ctx)
	err := s.repo.CreateAuditLog(ctx, domain.AuditLog{
		ID:            xid.New("audit"),
		ActorUsername: actor.Username,
		ActorRole:     actor.Role,
		Action:        action,
		EntityType:    entityType,
		EntityID:      entityID,
		Detail:        detail,
		CreatedAt:     time.Now().UTC(),
	})
	if err != nil {
		log.Printf("[service] WARN: failed to write audit log action=%s: %v", action, err)
	}
}

// foldMovements streams the log in sequence order, chunked, up to the given
// ceiling, and folds deltas into a scratch map. Chunking keeps a large
// replay cancellable between pages.
func (s *Service) foldMovements(ctx context.Context, from *time.Time, to *time.Time, ceiling int64) (map[ledger.PairKey]decimal.Decimal, int64, error) {
	folded := make(map[ledger.PairKey]decimal.Decimal)
	var cursor int64
	var read int64
	for {
		if err := ctx.Err(); err != nil {
			return nil, read, err
		}
		batch, err := s.repo.ListMovements(ctx, store.MovementFilter{
			From:          from,
			To:            to,
			AfterSequence: cursor,
			MaxSequence:   ceiling,
			Limit:         s.chunkSize,
		})
		if err != nil {
			return nil, read, fmt.Errorf("stream movements: %w", err)
		}
		if len(batch) == 0 {
			break
		}
		folded = ledger.Fold(folded, batch)
		cursor = batch[len(batch)-1].Sequence
		read += int64(len(batch))
		if len(batch) < s.chunkSize {
			break
		}
	}
	return folded, read, nil
}
