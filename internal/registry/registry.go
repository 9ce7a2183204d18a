package registry

import (
	"context"
	"fmt"
	"sync"

	"gudangresto/backend/internal/domain"
	"gudangresto/backend/internal/store"
)

// Reader is the read-only slice of the repository the registry needs.
type Reader interface {
	ListWarehouses(ctx context.Context, includeInactive bool) ([]domain.Warehouse, error)
	ListCategoryDefaults(ctx context.Context) ([]domain.CategoryDefault, error)
}

// Registry is the single place the category-to-default-warehouse policy
// lives. Defaults are loaded once and refreshed on demand; a missing default
// is a configuration error surfaced at startup, never at request time.
type Registry struct {
	mu       sync.RWMutex
	reader   Reader
	defaults map[string]string
}

func New(reader Reader) *Registry {
	return &Registry{
		reader:   reader,
		defaults: make(map[string]string),
	}
}

// ValidateDefaults loads the category defaults and checks that every known
// item category maps to exactly one active warehouse. Called at startup and
// after any default change.
func (r *Registry) ValidateDefaults(ctx context.Context) error {
	defaults, err := r.reader.ListCategoryDefaults(ctx)
	if err != nil {
		return fmt.Errorf("load category defaults: %w", err)
	}

	active, err := r.activeSet(ctx)
	if err != nil {
		return err
	}

	loaded := make(map[string]string, len(defaults))
	for _, def := range defaults {
		if _, dup := loaded[def.Category]; dup {
			return fmt.Errorf("category %q has more than one default warehouse", def.Category)
		}
		if !active[def.WarehouseID] {
			return fmt.Errorf("category %q defaults to warehouse %s which is not active", def.Category, def.WarehouseID)
		}
		loaded[def.Category] = def.WarehouseID
	}

	for _, category := range []string{domain.CategoryIngredient, domain.CategoryProduct} {
		if _, ok := loaded[category]; !ok {
			return fmt.Errorf("no default warehouse configured for category %q", category)
		}
	}

	r.mu.Lock()
	r.defaults = loaded
	r.mu.Unlock()
	return nil
}

// DefaultFor returns the default warehouse id for an item category.
func (r *Registry) DefaultFor(category string) (string, error) {
	r.mu.RLock()
	warehouseID, ok := r.defaults[category]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: no default warehouse for category %q", store.ErrNotFound, category)
	}
	return warehouseID, nil
}

// ListActive returns the active warehouses. Inactive warehouses never
// participate in resolution, though their historical movements stay valid.
func (r *Registry) ListActive(ctx context.Context) ([]domain.Warehouse, error) {
	return r.reader.ListWarehouses(ctx, false)
}

// ActiveSet returns the active warehouse ids as a membership set.
func (r *Registry) ActiveSet(ctx context.Context) (map[string]bool, error) {
	return r.activeSet(ctx)
}

func (r *Registry) activeSet(ctx context.Context) (map[string]bool, error) {
	warehouses, err := r.reader.ListWarehouses(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("list active warehouses: %w", err)
	}
	set := make(map[string]bool, len(warehouses))
	for _, warehouse := range warehouses {
		set[warehouse.ID] = true
	}
	return set, nil
}
