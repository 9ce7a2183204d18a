package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item is a catalog entry: either a raw ingredient or a sellable product.
// Immutable after creation except for the active flag.
type Item struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Unit      string    `json:"unit"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type ItemCreateRequest struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Unit     string `json:"unit"`
}

type RecipeLine struct {
	IngredientID string          `json:"ingredient_id"`
	QtyPerUnit   decimal.Decimal `json:"qty_per_unit"`
}

type Recipe struct {
	ID        string       `json:"id"`
	ProductID string       `json:"product_id"`
	Lines     []RecipeLine `json:"lines"`
	CreatedAt time.Time    `json:"created_at"`
}

type RecipeCreateRequest struct {
	ProductID string       `json:"product_id"`
	Lines     []RecipeLine `json:"lines"`
}

type Warehouse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type WarehouseCreateRequest struct {
	Name string `json:"name"`
}

// CategoryDefault maps an item category to the warehouse consumption falls
// back to when no positive balance pins the choice.
type CategoryDefault struct {
	Category    string `json:"category"`
	WarehouseID string `json:"warehouse_id"`
}

// Movement is one immutable signed stock change for an (item, warehouse)
// pair. Movements are never edited or deleted; corrections are additional
// movements with inverted deltas referencing the original.
type Movement struct {
	ID          string          `json:"id"`
	Sequence    int64           `json:"sequence"`
	Timestamp   time.Time       `json:"timestamp"`
	Type        string          `json:"type"`
	ItemID      string          `json:"item_id"`
	WarehouseID string          `json:"warehouse_id"`
	Delta       decimal.Decimal `json:"delta"`
	ReferenceID string          `json:"reference_id,omitempty"`
	Description string          `json:"description,omitempty"`
}

// Balance is the materialized quantity for an (item, warehouse) pair. It is
// a pure projection of the movement log and may be rebuilt at any time.
type Balance struct {
	ItemID         string          `json:"item_id"`
	WarehouseID    string          `json:"warehouse_id"`
	Quantity       decimal.Decimal `json:"quantity"`
	LastMovementID string          `json:"last_movement_id"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type SaleRequest struct {
	ItemID      string          `json:"item_id,omitempty"`
	ItemName    string          `json:"item_name,omitempty"`
	Qty         decimal.Decimal `json:"qty"`
	ReferenceID string          `json:"reference_id"`
}

type SaleResponse struct {
	ReferenceID string     `json:"reference_id"`
	Movements   []Movement `json:"movements"`
}

type ReceiptRequest struct {
	ItemID      string          `json:"item_id"`
	WarehouseID string          `json:"warehouse_id,omitempty"`
	Qty         decimal.Decimal `json:"qty"`
	ReferenceID string          `json:"reference_id,omitempty"`
	Description string          `json:"description,omitempty"`
}

type TransferRequest struct {
	ItemID          string          `json:"item_id"`
	FromWarehouseID string          `json:"from_warehouse_id"`
	ToWarehouseID   string          `json:"to_warehouse_id"`
	Qty             decimal.Decimal `json:"qty"`
	Description     string          `json:"description,omitempty"`
}

type StockCountLine struct {
	ItemID      string          `json:"item_id"`
	WarehouseID string          `json:"warehouse_id"`
	CountedQty  decimal.Decimal `json:"counted_qty"`
}

type StockCountRequest struct {
	Notes string           `json:"notes,omitempty"`
	Lines []StockCountLine `json:"lines"`
}

type StockCountAdjustment struct {
	ItemID      string          `json:"item_id"`
	WarehouseID string          `json:"warehouse_id"`
	SystemQty   decimal.Decimal `json:"system_qty"`
	CountedQty  decimal.Decimal `json:"counted_qty"`
	DeltaQty    decimal.Decimal `json:"delta_qty"`
}

type StockCountResponse struct {
	CountID     string                 `json:"count_id"`
	Notes       string                 `json:"notes,omitempty"`
	Adjustments []StockCountAdjustment `json:"adjustments"`
	Movements   []Movement             `json:"movements"`
	CreatedAt   string                 `json:"created_at"`
}

type BalanceResponse struct {
	ItemID   string                     `json:"item_id"`
	Balances map[string]decimal.Decimal `json:"balances"`
	Total    decimal.Decimal            `json:"total"`
}

// Mismatch is one (item, warehouse) pair whose live balance diverged from
// the replayed quantity.
type Mismatch struct {
	ItemID        string          `json:"item_id"`
	WarehouseID   string          `json:"warehouse_id"`
	LiveQty       decimal.Decimal `json:"live_qty"`
	RecomputedQty decimal.Decimal `json:"recomputed_qty"`
}

// RecomputeReport is the outcome of replaying the movement log against the
// live balance store. Divergence is reported, never auto-corrected.
type RecomputeReport struct {
	BoundarySequence int64      `json:"boundary_sequence"`
	MovementsRead    int64      `json:"movements_read"`
	Matched          int        `json:"matched"`
	Mismatched       []Mismatch `json:"mismatched"`
	FullHistory      bool       `json:"full_history"`
	StartedAt        string     `json:"started_at"`
	FinishedAt       string     `json:"finished_at"`
}

type RecomputeRequest struct {
	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`
}

type RebuildResponse struct {
	Pairs            int    `json:"pairs"`
	BoundarySequence int64  `json:"boundary_sequence"`
	RebuiltAt        string `json:"rebuilt_at"`
}

// Anomaly flags a pair whose balance is in a state worth operator attention.
// Today the only kind is a negative balance: sales are never blocked on
// stock-accounting lag, so negatives are reported instead of rejected.
type Anomaly struct {
	Kind        string          `json:"kind"`
	ItemID      string          `json:"item_id"`
	WarehouseID string          `json:"warehouse_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

type OperatorCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type OperatorUser struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}

type AuditLog struct {
	ID            string    `json:"id"`
	ActorUsername string    `json:"actor_username"`
	ActorRole     string    `json:"actor_role"`
	Action        string    `json:"action"`
	EntityType    string    `json:"entity_type"`
	EntityID      string    `json:"entity_id"`
	Detail        string    `json:"detail"`
	CreatedAt     time.Time `json:"created_at"`
}

const (
	CategoryIngredient = "ingredient"
	CategoryProduct    = "product"
)

const (
	MovementSale                = "sale"
	MovementInventoryAdjustment = "inventory_adjustment"
	MovementReceipt             = "receipt"
	MovementTransfer            = "transfer"
)

const (
	WarehouseStatusActive   = "active"
	WarehouseStatusInactive = "inactive"
)

const (
	AnomalyNegativeBalance = "negative_balance"
)
