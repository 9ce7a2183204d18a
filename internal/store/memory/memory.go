package memory

import (
	"context"
	"fmt"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"gudangresto/backend/internal/domain"
	"gudangresto/backend/internal/store"
	"gudangresto/backend/internal/xid"
)

type pairKey struct {
	itemID      string
	warehouseID string
}

type Store struct {
	mu               sync.RWMutex
	items            map[string]domain.Item
	recipesByProduct map[string]domain.Recipe
	warehouses       map[string]domain.Warehouse
	categoryDefaults map[string]string
	movements        []domain.Movement
	nextSequence     int64
	balances         map[pairKey]domain.Balance
	auditLogs        []domain.AuditLog
	usersByUsername  map[string]domain.UserAccount
}

// seedUsers builds the initial in-memory accounts for dev/demo mode.
// Credentials come from SEED_ADMIN_PASSWORD and SEED_OPERATOR_PASSWORD; if
// unset, hardcoded dev defaults are used with a warning. These credentials
// are never used in production (the backend uses PostgreSQL when
// DATABASE_URL is set).
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	operatorPwd := envOr("SEED_OPERATOR_PASSWORD", "operator123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_OPERATOR_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_OPERATOR_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"admin", adminPwd, "admin"},
		{"operator", operatorPwd, "operator"},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// NewSeeded builds a store pre-loaded with a small restaurant catalog. Seed
// balances are not written directly: they are folded from seed receipt
// movements so the movement log stays authoritative from the first record.
func NewSeeded() *Store {
	now := time.Now().UTC()

	warehouses := []domain.Warehouse{
		{ID: "wh-ingredients", Name: "Ingredients", Status: domain.WarehouseStatusActive, CreatedAt: now},
		{ID: "wh-goods", Name: "Goods", Status: domain.WarehouseStatusActive, CreatedAt: now},
		{ID: "wh-bar", Name: "Bar", Status: domain.WarehouseStatusActive, CreatedAt: now},
	}

	items := []domain.Item{
		{ID: "itm-flour", Name: "Tepung Terigu", Category: domain.CategoryIngredient, Unit: "kg", Active: true, CreatedAt: now},
		{ID: "itm-sugar", Name: "Gula Pasir", Category: domain.CategoryIngredient, Unit: "kg", Active: true, CreatedAt: now},
		{ID: "itm-egg", Name: "Telur", Category: domain.CategoryIngredient, Unit: "pcs", Active: true, CreatedAt: now},
		{ID: "itm-milk", Name: "Susu UHT", Category: domain.CategoryIngredient, Unit: "l", Active: true, CreatedAt: now},
		{ID: "itm-coffee", Name: "Kopi Bubuk", Category: domain.CategoryIngredient, Unit: "kg", Active: true, CreatedAt: now},
		{ID: "itm-pancake", Name: "Pancake", Category: domain.CategoryProduct, Unit: "portion", Active: true, CreatedAt: now},
		{ID: "itm-latte", Name: "Kopi Susu", Category: domain.CategoryProduct, Unit: "cup", Active: true, CreatedAt: now},
		{ID: "itm-water", Name: "Air Mineral Botol", Category: domain.CategoryProduct, Unit: "pcs", Active: true, CreatedAt: now},
	}

	recipes := []domain.Recipe{
		{
			ID:        "rcp-pancake",
			ProductID: "itm-pancake",
			Lines: []domain.RecipeLine{
				{IngredientID: "itm-flour", QtyPerUnit: decimal.RequireFromString("0.2")},
				{IngredientID: "itm-egg", QtyPerUnit: decimal.RequireFromString("2")},
				{IngredientID: "itm-milk", QtyPerUnit: decimal.RequireFromString("0.1")},
				{IngredientID: "itm-sugar", QtyPerUnit: decimal.RequireFromString("0.05")},
			},
			CreatedAt: now,
		},
		{
			ID:        "rcp-latte",
			ProductID: "itm-latte",
			Lines: []domain.RecipeLine{
				{IngredientID: "itm-coffee", QtyPerUnit: decimal.RequireFromString("0.02")},
				{IngredientID: "itm-milk", QtyPerUnit: decimal.RequireFromString("0.2")},
			},
			CreatedAt: now,
		},
	}

	seedReceipts := []struct {
		itemID      string
		warehouseID string
		qty         string
	}{
		{"itm-flour", "wh-ingredients", "10"},
		{"itm-sugar", "wh-ingredients", "8"},
		{"itm-egg", "wh-ingredients", "60"},
		{"itm-milk", "wh-ingredients", "12"},
		{"itm-coffee", "wh-ingredients", "2"},
		{"itm-milk", "wh-bar", "4"},
		{"itm-water", "wh-goods", "48"},
	}

	itemMap := make(map[string]domain.Item, len(items))
	for _, item := range items {
		itemMap[item.ID] = item
	}
	warehouseMap := make(map[string]domain.Warehouse, len(warehouses))
	for _, warehouse := range warehouses {
		warehouseMap[warehouse.ID] = warehouse
	}
	recipeMap := make(map[string]domain.Recipe, len(recipes))
	for _, recipe := range recipes {
		recipeMap[recipe.ProductID] = recipe
	}

	movements := make([]domain.Movement, 0, len(seedReceipts))
	balances := make(map[pairKey]domain.Balance, len(seedReceipts))
	for i, receipt := range seedReceipts {
		movement := domain.Movement{
			ID:          xid.New("mv"),
			Sequence:    int64(i + 1),
			Timestamp:   now,
			Type:        domain.MovementReceipt,
			ItemID:      receipt.itemID,
			WarehouseID: receipt.warehouseID,
			Delta:       decimal.RequireFromString(receipt.qty),
			ReferenceID: "seed",
			Description: "opening stock",
		}
		movements = append(movements, movement)

		key := pairKey{itemID: movement.ItemID, warehouseID: movement.WarehouseID}
		balance := balances[key]
		balance.ItemID = movement.ItemID
		balance.WarehouseID = movement.WarehouseID
		balance.Quantity = balance.Quantity.Add(movement.Delta)
		balance.LastMovementID = movement.ID
		balance.UpdatedAt = movement.Timestamp
		balances[key] = balance
	}

	return &Store{
		items:            itemMap,
		recipesByProduct: recipeMap,
		warehouses:       warehouseMap,
		categoryDefaults: map[string]string{
			domain.CategoryIngredient: "wh-ingredients",
			domain.CategoryProduct:    "wh-goods",
		},
		movements:       movements,
		nextSequence:    int64(len(movements)),
		balances:        balances,
		auditLogs:       make([]domain.AuditLog, 0, 128),
		usersByUsername: seedUsers(),
	}
}

// New builds an empty store with no catalog, warehouses, or users.
func New() *Store {
	return &Store{
		items:            make(map[string]domain.Item),
		recipesByProduct: make(map[string]domain.Recipe),
		warehouses:       make(map[string]domain.Warehouse),
		categoryDefaults: make(map[string]string),
		balances:         make(map[pairKey]domain.Balance),
		usersByUsername:  make(map[string]domain.UserAccount),
	}
}

func (s *Store) ListItems(_ context.Context) ([]domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]domain.Item, 0, len(s.items))
	for _, item := range s.items {
		items = append(items, item)
	}
	slices.SortFunc(items, func(a, b domain.Item) int {
		if a.Category == b.Category {
			return cmpString(a.Name, b.Name)
		}
		return cmpString(a.Category, b.Category)
	})
	return items, nil
}

func (s *Store) CreateItem(_ context.Context, item domain.Item) (*domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item.ID == "" || item.Name == "" {
		return nil, store.ErrInvalidInput
	}
	if item.Category != domain.CategoryIngredient && item.Category != domain.CategoryProduct {
		return nil, store.ErrInvalidInput
	}
	if _, exists := s.items[item.ID]; exists {
		return nil, store.ErrDuplicate
	}

	item.Active = true
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	s.items[item.ID] = item
	created := item
	return &created, nil
}

func (s *Store) GetItemByID(_ context.Context, id string) (*domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.items[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyItem := item
	return &copyItem, nil
}

func (s *Store) GetItemsByIDs(_ context.Context, ids []string) (map[string]domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]domain.Item, len(ids))
	for _, id := range ids {
		if item, exists := s.items[id]; exists {
			result[id] = item
		}
	}
	return result, nil
}

func (s *Store) FindItemsByName(_ context.Context, name string) ([]domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]domain.Item, 0, 2)
	for _, item := range s.items {
		if !item.Active {
			continue
		}
		if strings.EqualFold(item.Name, name) {
			matches = append(matches, item)
		}
	}
	slices.SortFunc(matches, func(a, b domain.Item) int {
		return cmpString(a.ID, b.ID)
	})
	return matches, nil
}

func (s *Store) SetItemActive(_ context.Context, id string, active bool) (*domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, exists := s.items[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	item.Active = active
	s.items[id] = item
	updated := item
	return &updated, nil
}

func (s *Store) CreateRecipe(_ context.Context, recipe domain.Recipe) (*domain.Recipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if recipe.ID == "" || recipe.ProductID == "" || len(recipe.Lines) == 0 {
		return nil, store.ErrInvalidInput
	}
	if _, exists := s.recipesByProduct[recipe.ProductID]; exists {
		return nil, store.ErrDuplicate
	}
	if recipe.CreatedAt.IsZero() {
		recipe.CreatedAt = time.Now().UTC()
	}

	s.recipesByProduct[recipe.ProductID] = recipe
	created := recipe
	return &created, nil
}

func (s *Store) GetRecipeByProductID(_ context.Context, productID string) (*domain.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recipe, exists := s.recipesByProduct[productID]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyRecipe := recipe
	copyRecipe.Lines = slices.Clone(recipe.Lines)
	return &copyRecipe, nil
}

func (s *Store) CreateWarehouse(_ context.Context, warehouse domain.Warehouse) (*domain.Warehouse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if warehouse.ID == "" || warehouse.Name == "" {
		return nil, store.ErrInvalidInput
	}
	if _, exists := s.warehouses[warehouse.ID]; exists {
		return nil, store.ErrDuplicate
	}

	warehouse.Status = domain.WarehouseStatusActive
	if warehouse.CreatedAt.IsZero() {
		warehouse.CreatedAt = time.Now().UTC()
	}
	s.warehouses[warehouse.ID] = warehouse
	created := warehouse
	return &created, nil
}

func (s *Store) ListWarehouses(_ context.Context, includeInactive bool) ([]domain.Warehouse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	warehouses := make([]domain.Warehouse, 0, len(s.warehouses))
	for _, warehouse := range s.warehouses {
		if !includeInactive && warehouse.Status != domain.WarehouseStatusActive {
			continue
		}
		warehouses = append(warehouses, warehouse)
	}
	slices.SortFunc(warehouses, func(a, b domain.Warehouse) int {
		return cmpString(a.ID, b.ID)
	})
	return warehouses, nil
}

func (s *Store) GetWarehouseByID(_ context.Context, id string) (*domain.Warehouse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	warehouse, exists := s.warehouses[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyWarehouse := warehouse
	return &copyWarehouse, nil
}

func (s *Store) SetWarehouseStatus(_ context.Context, id string, status string) (*domain.Warehouse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if status != domain.WarehouseStatusActive && status != domain.WarehouseStatusInactive {
		return nil, store.ErrInvalidInput
	}
	warehouse, exists := s.warehouses[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	warehouse.Status = status
	s.warehouses[id] = warehouse
	updated := warehouse
	return &updated, nil
}

func (s *Store) ListCategoryDefaults(_ context.Context) ([]domain.CategoryDefault, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	defaults := make([]domain.CategoryDefault, 0, len(s.categoryDefaults))
	for category, warehouseID := range s.categoryDefaults {
		defaults = append(defaults, domain.CategoryDefault{Category: category, WarehouseID: warehouseID})
	}
	slices.SortFunc(defaults, func(a, b domain.CategoryDefault) int {
		return cmpString(a.Category, b.Category)
	})
	return defaults, nil
}

func (s *Store) SetCategoryDefault(_ context.Context, category string, warehouseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if category == "" || warehouseID == "" {
		return store.ErrInvalidInput
	}
	if _, exists := s.warehouses[warehouseID]; !exists {
		return store.ErrNotFound
	}
	s.categoryDefaults[category] = warehouseID
	return nil
}

// AppendMovements validates and lands the whole batch inside one critical
// section: either every movement receives a sequence or none does, so a
// multi-ingredient sale can never be half-applied to the log.
func (s *Store) AppendMovements(_ context.Context, movements []domain.Movement) ([]domain.Movement, error) {
	if len(movements) == 0 {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, movement := range movements {
		if err := validateMovement(movement); err != nil {
			return nil, err
		}
		if _, exists := s.items[movement.ItemID]; !exists {
			return nil, fmt.Errorf("%w: item %s", store.ErrNotFound, movement.ItemID)
		}
		if _, exists := s.warehouses[movement.WarehouseID]; !exists {
			return nil, fmt.Errorf("%w: warehouse %s", store.ErrNotFound, movement.WarehouseID)
		}
	}

	now := time.Now().UTC()
	appended := make([]domain.Movement, 0, len(movements))
	for _, movement := range movements {
		if movement.ID == "" {
			movement.ID = xid.New("mv")
		}
		if movement.Timestamp.IsZero() {
			movement.Timestamp = now
		}
		s.nextSequence++
		movement.Sequence = s.nextSequence
		s.movements = append(s.movements, movement)
		appended = append(appended, movement)
	}
	return appended, nil
}

func validateMovement(movement domain.Movement) error {
	if movement.ItemID == "" || movement.WarehouseID == "" {
		return store.ErrInvalidInput
	}
	if movement.Delta.IsZero() {
		return fmt.Errorf("%w: zero delta", store.ErrInvalidInput)
	}
	switch movement.Type {
	case domain.MovementSale, domain.MovementInventoryAdjustment, domain.MovementReceipt, domain.MovementTransfer:
		return nil
	default:
		return fmt.Errorf("%w: unknown movement type %q", store.ErrInvalidInput, movement.Type)
	}
}

func (s *Store) ListMovements(_ context.Context, filter store.MovementFilter) ([]domain.Movement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Movement, 0, 64)
	for _, movement := range s.movements {
		if movement.Sequence <= filter.AfterSequence {
			continue
		}
		if filter.MaxSequence > 0 && movement.Sequence > filter.MaxSequence {
			continue
		}
		if filter.ItemID != "" && movement.ItemID != filter.ItemID {
			continue
		}
		if filter.WarehouseID != "" && movement.WarehouseID != filter.WarehouseID {
			continue
		}
		if filter.From != nil && movement.Timestamp.Before(*filter.From) {
			continue
		}
		if filter.To != nil && movement.Timestamp.After(*filter.To) {
			continue
		}
		result = append(result, movement)
		if filter.Limit > 0 && len(result) >= filter.Limit {
			break
		}
	}
	return result, nil
}

func (s *Store) MaxMovementSequence(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextSequence, nil
}

// ApplyDelta is idempotent per movement id: re-applying the movement already
// recorded on the pair is a no-op. Pairs that net to zero stay present here;
// only a full rebuild compacts them away.
func (s *Store) ApplyDelta(_ context.Context, itemID string, warehouseID string, delta decimal.Decimal, movementID string, at time.Time) error {
	if itemID == "" || warehouseID == "" || movementID == "" {
		return store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey{itemID: itemID, warehouseID: warehouseID}
	balance, exists := s.balances[key]
	if exists && balance.LastMovementID == movementID {
		return nil
	}

	balance.ItemID = itemID
	balance.WarehouseID = warehouseID
	balance.Quantity = balance.Quantity.Add(delta)
	balance.LastMovementID = movementID
	balance.UpdatedAt = at.UTC()
	s.balances[key] = balance
	return nil
}

func (s *Store) GetBalance(_ context.Context, itemID string, warehouseID string) (*domain.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	balance, exists := s.balances[pairKey{itemID: itemID, warehouseID: warehouseID}]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyBalance := balance
	return &copyBalance, nil
}

func (s *Store) ListBalancesByItem(_ context.Context, itemID string) ([]domain.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Balance, 0, 4)
	for key, balance := range s.balances {
		if key.itemID == itemID {
			result = append(result, balance)
		}
	}
	slices.SortFunc(result, func(a, b domain.Balance) int {
		return cmpString(a.WarehouseID, b.WarehouseID)
	})
	return result, nil
}

func (s *Store) ListBalances(_ context.Context) ([]domain.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Balance, 0, len(s.balances))
	for _, balance := range s.balances {
		result = append(result, balance)
	}
	slices.SortFunc(result, func(a, b domain.Balance) int {
		if a.ItemID == b.ItemID {
			return cmpString(a.WarehouseID, b.WarehouseID)
		}
		return cmpString(a.ItemID, b.ItemID)
	})
	return result, nil
}

func (s *Store) ReplaceBalances(_ context.Context, balances []domain.Balance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	replacement := make(map[pairKey]domain.Balance, len(balances))
	for _, balance := range balances {
		if balance.ItemID == "" || balance.WarehouseID == "" {
			return store.ErrInvalidInput
		}
		replacement[pairKey{itemID: balance.ItemID, warehouseID: balance.WarehouseID}] = balance
	}
	s.balances = replacement
	return nil
}

func (s *Store) CreateAuditLog(_ context.Context, entry domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.auditLogs = append(s.auditLogs, entry)
	return nil
}

func (s *Store) ListAuditLogs(_ context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.AuditLog, 0, limit)
	for i := len(s.auditLogs) - 1; i >= 0; i-- {
		entry := s.auditLogs[i]
		if entry.CreatedAt.Before(from) || entry.CreatedAt.After(to) {
			continue
		}
		result = append(result, entry)
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.Username == "" || user.Password == "" {
		return store.ErrInvalidInput
	}
	if _, exists := s.usersByUsername[user.Username]; exists {
		return store.ErrDuplicate
	}
	s.usersByUsername[user.Username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, user := range s.usersByUsername {
		users = append(users, user)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int {
		return cmpString(a.Username, b.Username)
	})
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.usersByUsername[username]
	if !exists {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByUsername[username] = user
	return nil
}

func cmpString(a string, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
