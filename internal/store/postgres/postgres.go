package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"

	"gudangresto/backend/internal/domain"
	"gudangresto/backend/internal/store"
	"gudangresto/backend/internal/xid"
)

// Store is the PostgreSQL repository. Schema is managed by migrations
// outside the binary; the tables used here are items, recipes, recipe_lines,
// warehouses, category_defaults, movements (sequence BIGSERIAL), balances,
// audit_logs and users.
type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ListItems(ctx context.Context) ([]domain.Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, category, unit, active, created_at
		FROM items
		ORDER BY category, name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Item, 0, 128)
	for rows.Next() {
		var item domain.Item
		if err := rows.Scan(&item.ID, &item.Name, &item.Category, &item.Unit, &item.Active, &item.CreatedAt); err != nil {
			return nil, err
		}
		item.CreatedAt = item.CreatedAt.UTC()
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CreateItem(ctx context.Context, item domain.Item) (*domain.Item, error) {
	if item.ID == "" || item.Name == "" {
		return nil, store.ErrInvalidInput
	}
	if item.Category != domain.CategoryIngredient && item.Category != domain.CategoryProduct {
		return nil, store.ErrInvalidInput
	}

	item.Active = true
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO items (id, name, category, unit, active, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, item.ID, item.Name, item.Category, item.Unit, item.Active, item.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicate
		}
		return nil, err
	}

	created := item
	return &created, nil
}

func (s *Store) GetItemByID(ctx context.Context, id string) (*domain.Item, error) {
	var item domain.Item
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, category, unit, active, created_at
		FROM items
		WHERE id = $1
	`, id).Scan(&item.ID, &item.Name, &item.Category, &item.Unit, &item.Active, &item.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	item.CreatedAt = item.CreatedAt.UTC()
	return &item, nil
}

func (s *Store) GetItemsByIDs(ctx context.Context, ids []string) (map[string]domain.Item, error) {
	result := make(map[string]domain.Item, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, category, unit, active, created_at
		FROM items
		WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.Item
		if err := rows.Scan(&item.ID, &item.Name, &item.Category, &item.Unit, &item.Active, &item.CreatedAt); err != nil {
			return nil, err
		}
		item.CreatedAt = item.CreatedAt.UTC()
		result[item.ID] = item
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) FindItemsByName(ctx context.Context, name string) ([]domain.Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, category, unit, active, created_at
		FROM items
		WHERE active = true AND lower(name) = lower($1)
		ORDER BY id
	`, strings.TrimSpace(name))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]domain.Item, 0, 2)
	for rows.Next() {
		var item domain.Item
		if err := rows.Scan(&item.ID, &item.Name, &item.Category, &item.Unit, &item.Active, &item.CreatedAt); err != nil {
			return nil, err
		}
		item.CreatedAt = item.CreatedAt.UTC()
		matches = append(matches, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return matches, nil
}

func (s *Store) SetItemActive(ctx context.Context, id string, active bool) (*domain.Item, error) {
	var item domain.Item
	err := s.db.QueryRowContext(ctx, `
		UPDATE items SET active = $2
		WHERE id = $1
		RETURNING id, name, category, unit, active, created_at
	`, id, active).Scan(&item.ID, &item.Name, &item.Category, &item.Unit, &item.Active, &item.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	item.CreatedAt = item.CreatedAt.UTC()
	return &item, nil
}

func (s *Store) CreateRecipe(ctx context.Context, recipe domain.Recipe) (*domain.Recipe, error) {
	if recipe.ID == "" || recipe.ProductID == "" || len(recipe.Lines) == 0 {
		return nil, store.ErrInvalidInput
	}
	if recipe.CreatedAt.IsZero() {
		recipe.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO recipes (id, product_id, created_at)
		VALUES ($1,$2,$3)
	`, recipe.ID, recipe.ProductID, recipe.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicate
		}
		return nil, err
	}

	for _, line := range recipe.Lines {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO recipe_lines (recipe_id, ingredient_id, qty_per_unit)
			VALUES ($1,$2,$3)
		`, recipe.ID, line.IngredientID, line.QtyPerUnit)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	created := recipe
	return &created, nil
}

func (s *Store) GetRecipeByProductID(ctx context.Context, productID string) (*domain.Recipe, error) {
	var recipe domain.Recipe
	err := s.db.QueryRowContext(ctx, `
		SELECT id, product_id, created_at
		FROM recipes
		WHERE product_id = $1
	`, productID).Scan(&recipe.ID, &recipe.ProductID, &recipe.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	recipe.CreatedAt = recipe.CreatedAt.UTC()

	rows, err := s.db.QueryContext(ctx, `
		SELECT ingredient_id, qty_per_unit
		FROM recipe_lines
		WHERE recipe_id = $1
		ORDER BY ingredient_id
	`, recipe.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.RecipeLine
		if err := rows.Scan(&line.IngredientID, &line.QtyPerUnit); err != nil {
			return nil, err
		}
		recipe.Lines = append(recipe.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &recipe, nil
}

func (s *Store) CreateWarehouse(ctx context.Context, warehouse domain.Warehouse) (*domain.Warehouse, error) {
	if warehouse.ID == "" || warehouse.Name == "" {
		return nil, store.ErrInvalidInput
	}
	warehouse.Status = domain.WarehouseStatusActive
	if warehouse.CreatedAt.IsZero() {
		warehouse.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO warehouses (id, name, status, created_at)
		VALUES ($1,$2,$3,$4)
	`, warehouse.ID, warehouse.Name, warehouse.Status, warehouse.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicate
		}
		return nil, err
	}
	created := warehouse
	return &created, nil
}

func (s *Store) ListWarehouses(ctx context.Context, includeInactive bool) ([]domain.Warehouse, error) {
	query := `
		SELECT id, name, status, created_at
		FROM warehouses
	`
	if !includeInactive {
		query += ` WHERE status = 'active'`
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	warehouses := make([]domain.Warehouse, 0, 8)
	for rows.Next() {
		var warehouse domain.Warehouse
		if err := rows.Scan(&warehouse.ID, &warehouse.Name, &warehouse.Status, &warehouse.CreatedAt); err != nil {
			return nil, err
		}
		warehouse.CreatedAt = warehouse.CreatedAt.UTC()
		warehouses = append(warehouses, warehouse)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return warehouses, nil
}

func (s *Store) GetWarehouseByID(ctx context.Context, id string) (*domain.Warehouse, error) {
	var warehouse domain.Warehouse
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, status, created_at
		FROM warehouses
		WHERE id = $1
	`, id).Scan(&warehouse.ID, &warehouse.Name, &warehouse.Status, &warehouse.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	warehouse.CreatedAt = warehouse.CreatedAt.UTC()
	return &warehouse, nil
}

func (s *Store) SetWarehouseStatus(ctx context.Context, id string, status string) (*domain.Warehouse, error) {
	if status != domain.WarehouseStatusActive && status != domain.WarehouseStatusInactive {
		return nil, store.ErrInvalidInput
	}

	var warehouse domain.Warehouse
	err := s.db.QueryRowContext(ctx, `
		UPDATE warehouses SET status = $2
		WHERE id = $1
		RETURNING id, name, status, created_at
	`, id, status).Scan(&warehouse.ID, &warehouse.Name, &warehouse.Status, &warehouse.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	warehouse.CreatedAt = warehouse.CreatedAt.UTC()
	return &warehouse, nil
}

func (s *Store) ListCategoryDefaults(ctx context.Context) ([]domain.CategoryDefault, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT category, warehouse_id
		FROM category_defaults
		ORDER BY category
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	defaults := make([]domain.CategoryDefault, 0, 4)
	for rows.Next() {
		var def domain.CategoryDefault
		if err := rows.Scan(&def.Category, &def.WarehouseID); err != nil {
			return nil, err
		}
		defaults = append(defaults, def)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return defaults, nil
}

func (s *Store) SetCategoryDefault(ctx context.Context, category string, warehouseID string) error {
	if category == "" || warehouseID == "" {
		return store.ErrInvalidInput
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO category_defaults (category, warehouse_id)
		VALUES ($1,$2)
		ON CONFLICT (category)
		DO UPDATE SET warehouse_id = EXCLUDED.warehouse_id
	`, category, warehouseID)
	return err
}

// AppendMovements lands the batch in one serializable transaction. The log
// sequence is assigned by the movements.sequence BIGSERIAL, so ordering is
// the database's, not the caller's.
func (s *Store) AppendMovements(ctx context.Context, movements []domain.Movement) ([]domain.Movement, error) {
	if len(movements) == 0 {
		return nil, store.ErrInvalidInput
	}
	for _, movement := range movements {
		if err := validateMovement(movement); err != nil {
			return nil, err
		}
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	appended := make([]domain.Movement, 0, len(movements))
	for _, movement := range movements {
		if movement.ID == "" {
			movement.ID = xid.New("mv")
		}
		if movement.Timestamp.IsZero() {
			movement.Timestamp = now
		}
		err := tx.QueryRowContext(ctx, `
			INSERT INTO movements (id, ts, type, item_id, warehouse_id, delta, reference_id, description)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
			RETURNING sequence
		`, movement.ID, movement.Timestamp, movement.Type, movement.ItemID, movement.WarehouseID, movement.Delta, nullIfEmpty(movement.ReferenceID), strings.TrimSpace(movement.Description)).Scan(&movement.Sequence)
		if err != nil {
			if isUniqueViolation(err) {
				return nil, store.ErrDuplicate
			}
			if isForeignKeyViolation(err) {
				return nil, fmt.Errorf("%w: %s/%s", store.ErrNotFound, movement.ItemID, movement.WarehouseID)
			}
			return nil, err
		}
		appended = append(appended, movement)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
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

func (s *Store) ListMovements(ctx context.Context, filter store.MovementFilter) ([]domain.Movement, error) {
	conditions := []string{"sequence > $1"}
	args := []any{filter.AfterSequence}

	if filter.MaxSequence > 0 {
		args = append(args, filter.MaxSequence)
		conditions = append(conditions, fmt.Sprintf("sequence <= $%d", len(args)))
	}
	if filter.ItemID != "" {
		args = append(args, filter.ItemID)
		conditions = append(conditions, fmt.Sprintf("item_id = $%d", len(args)))
	}
	if filter.WarehouseID != "" {
		args = append(args, filter.WarehouseID)
		conditions = append(conditions, fmt.Sprintf("warehouse_id = $%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		conditions = append(conditions, fmt.Sprintf("ts >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		conditions = append(conditions, fmt.Sprintf("ts <= $%d", len(args)))
	}

	limit := filter.Limit
	if limit < 1 {
		limit = 1000
	}
	args = append(args, limit)

	query := fmt.Sprintf(`
		SELECT id, sequence, ts, type, item_id, warehouse_id, delta, COALESCE(reference_id, ''), description
		FROM movements
		WHERE %s
		ORDER BY sequence ASC
		LIMIT $%d
	`, strings.Join(conditions, " AND "), len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	movements := make([]domain.Movement, 0, limit)
	for rows.Next() {
		var movement domain.Movement
		if err := rows.Scan(&movement.ID, &movement.Sequence, &movement.Timestamp, &movement.Type, &movement.ItemID, &movement.WarehouseID, &movement.Delta, &movement.ReferenceID, &movement.Description); err != nil {
			return nil, err
		}
		movement.Timestamp = movement.Timestamp.UTC()
		movements = append(movements, movement)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return movements, nil
}

func (s *Store) MaxMovementSequence(ctx context.Context) (int64, error) {
	var max int64
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(sequence), 0) FROM movements`).Scan(&max)
	if err != nil {
		return 0, err
	}
	return max, nil
}

func (s *Store) GetBalance(ctx context.Context, itemID string, warehouseID string) (*domain.Balance, error) {
	var balance domain.Balance
	err := s.db.QueryRowContext(ctx, `
		SELECT item_id, warehouse_id, quantity, last_movement_id, updated_at
		FROM balances
		WHERE item_id = $1 AND warehouse_id = $2
	`, itemID, warehouseID).Scan(&balance.ItemID, &balance.WarehouseID, &balance.Quantity, &balance.LastMovementID, &balance.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	balance.UpdatedAt = balance.UpdatedAt.UTC()
	return &balance, nil
}

func (s *Store) ListBalancesByItem(ctx context.Context, itemID string) ([]domain.Balance, error) {
	return s.queryBalances(ctx, `
		SELECT item_id, warehouse_id, quantity, last_movement_id, updated_at
		FROM balances
		WHERE item_id = $1
		ORDER BY warehouse_id
	`, itemID)
}

func (s *Store) ListBalances(ctx context.Context) ([]domain.Balance, error) {
	return s.queryBalances(ctx, `
		SELECT item_id, warehouse_id, quantity, last_movement_id, updated_at
		FROM balances
		ORDER BY item_id, warehouse_id
	`)
}

func (s *Store) queryBalances(ctx context.Context, query string, args ...any) ([]domain.Balance, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	balances := make([]domain.Balance, 0, 16)
	for rows.Next() {
		var balance domain.Balance
		if err := rows.Scan(&balance.ItemID, &balance.WarehouseID, &balance.Quantity, &balance.LastMovementID, &balance.UpdatedAt); err != nil {
			return nil, err
		}
		balance.UpdatedAt = balance.UpdatedAt.UTC()
		balances = append(balances, balance)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return balances, nil
}

// ApplyDelta folds one movement into its pair. The WHERE guard on the upsert
// makes re-applying the movement already recorded on the pair a no-op, so a
// retried writer cannot double-count.
func (s *Store) ApplyDelta(ctx context.Context, itemID string, warehouseID string, delta decimal.Decimal, movementID string, at time.Time) error {
	if itemID == "" || warehouseID == "" || movementID == "" {
		return store.ErrInvalidInput
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO balances (item_id, warehouse_id, quantity, last_movement_id, updated_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (item_id, warehouse_id)
		DO UPDATE SET
			quantity = balances.quantity + EXCLUDED.quantity,
			last_movement_id = EXCLUDED.last_movement_id,
			updated_at = EXCLUDED.updated_at
		WHERE balances.last_movement_id IS DISTINCT FROM EXCLUDED.last_movement_id
	`, itemID, warehouseID, delta, movementID, at.UTC())
	return err
}

// ReplaceBalances swaps the whole projection atomically.
func (s *Store) ReplaceBalances(ctx context.Context, balances []domain.Balance) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM balances`); err != nil {
		return err
	}
	for _, balance := range balances {
		if balance.ItemID == "" || balance.WarehouseID == "" {
			return store.ErrInvalidInput
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO balances (item_id, warehouse_id, quantity, last_movement_id, updated_at)
			VALUES ($1,$2,$3,$4,$5)
		`, balance.ItemID, balance.WarehouseID, balance.Quantity, balance.LastMovementID, balance.UpdatedAt.UTC())
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *Store) CreateAuditLog(ctx context.Context, entry domain.AuditLog) error {
	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, entry.ID, entry.ActorUsername, entry.ActorRole, entry.Action, entry.EntityType, entry.EntityID, entry.Detail, entry.CreatedAt)
	return err
}

func (s *Store) ListAuditLogs(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at
		FROM audit_logs
		WHERE created_at BETWEEN $1 AND $2
		ORDER BY created_at DESC
		LIMIT $3
	`, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.AuditLog, 0, limit)
	for rows.Next() {
		var entry domain.AuditLog
		if err := rows.Scan(&entry.ID, &entry.ActorUsername, &entry.ActorRole, &entry.Action, &entry.EntityType, &entry.EntityID, &entry.Detail, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.CreatedAt = entry.CreatedAt.UTC()
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	if user.Username == "" || user.Password == "" {
		return store.ErrInvalidInput
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, password, role, active, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, user.Username, user.Password, user.Role, user.Active, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicate
		}
		return err
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password, role, active, created_at
		FROM users
		ORDER BY username
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 8)
	for rows.Next() {
		var user domain.UserAccount
		if err := rows.Scan(&user.Username, &user.Password, &user.Role, &user.Active, &user.CreatedAt); err != nil {
			return nil, err
		}
		user.CreatedAt = user.CreatedAt.UTC()
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users SET password = $2 WHERE username = $1
	`, username, password)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func nullIfEmpty(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return false
}
