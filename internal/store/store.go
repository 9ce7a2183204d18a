package store

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"gudangresto/backend/internal/domain"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAmbiguousName = errors.New("ambiguous name")
	ErrInvalidInput  = errors.New("invalid input")
	ErrDuplicate     = errors.New("duplicate")
)

// MovementFilter narrows a movement-log read. AfterSequence and MaxSequence
// bound the read by the store-assigned sequence so replay can page through
// the log in order and stay pinned to a snapshot ceiling fixed at the start
// of a recomputation run.
type MovementFilter struct {
	ItemID        string
	WarehouseID   string
	From          *time.Time
	To            *time.Time
	AfterSequence int64
	MaxSequence   int64
	Limit         int
}

type Repository interface {
	// Catalog.
	ListItems(ctx context.Context) ([]domain.Item, error)
	CreateItem(ctx context.Context, item domain.Item) (*domain.Item, error)
	GetItemByID(ctx context.Context, id string) (*domain.Item, error)
	GetItemsByIDs(ctx context.Context, ids []string) (map[string]domain.Item, error)
	// FindItemsByName returns every live item with the given name; the
	// caller decides how to handle more than one match.
	FindItemsByName(ctx context.Context, name string) ([]domain.Item, error)
	SetItemActive(ctx context.Context, id string, active bool) (*domain.Item, error)
	CreateRecipe(ctx context.Context, recipe domain.Recipe) (*domain.Recipe, error)
	GetRecipeByProductID(ctx context.Context, productID string) (*domain.Recipe, error)

	// Warehouses.
	CreateWarehouse(ctx context.Context, warehouse domain.Warehouse) (*domain.Warehouse, error)
	ListWarehouses(ctx context.Context, includeInactive bool) ([]domain.Warehouse, error)
	GetWarehouseByID(ctx context.Context, id string) (*domain.Warehouse, error)
	SetWarehouseStatus(ctx context.Context, id string, status string) (*domain.Warehouse, error)
	ListCategoryDefaults(ctx context.Context) ([]domain.CategoryDefault, error)
	SetCategoryDefault(ctx context.Context, category string, warehouseID string) error

	// Movement log. AppendMovements assigns ids where missing and a
	// monotonically increasing sequence to each movement; the batch lands
	// atomically or not at all. Movements are never mutated or removed.
	AppendMovements(ctx context.Context, movements []domain.Movement) ([]domain.Movement, error)
	ListMovements(ctx context.Context, filter MovementFilter) ([]domain.Movement, error)
	MaxMovementSequence(ctx context.Context) (int64, error)

	// Balance projection. ApplyDelta is idempotent per movement id via the
	// stored last-movement-id on the pair.
	GetBalance(ctx context.Context, itemID string, warehouseID string) (*domain.Balance, error)
	ListBalancesByItem(ctx context.Context, itemID string) ([]domain.Balance, error)
	ListBalances(ctx context.Context) ([]domain.Balance, error)
	ApplyDelta(ctx context.Context, itemID string, warehouseID string, delta decimal.Decimal, movementID string, at time.Time) error
	ReplaceBalances(ctx context.Context, balances []domain.Balance) error

	// Audit and auth.
	CreateAuditLog(ctx context.Context, entry domain.AuditLog) error
	ListAuditLogs(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error)
	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}
