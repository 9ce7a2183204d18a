package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"gudangresto/backend/internal/domain"
	"gudangresto/backend/internal/store"
)

// ErrIncompleteRecipe means a recipe references an ingredient that cannot be
// resolved. Expansion fails closed: no movement may be appended for a sale
// whose recipe does not fully resolve.
var ErrIncompleteRecipe = errors.New("incomplete recipe")

// Reader is the read-only slice of the repository the catalog needs.
type Reader interface {
	GetItemByID(ctx context.Context, id string) (*domain.Item, error)
	GetItemsByIDs(ctx context.Context, ids []string) (map[string]domain.Item, error)
	FindItemsByName(ctx context.Context, name string) ([]domain.Item, error)
	GetRecipeByProductID(ctx context.Context, productID string) (*domain.Recipe, error)
}

// Consumption is one ingredient draw produced by expanding a sold item.
type Consumption struct {
	Item       domain.Item
	QtyPerUnit decimal.Decimal
}

// Index resolves sold items into the concrete ingredient quantities a sale
// consumes. It is a read-only view over the catalog collections.
type Index struct {
	reader Reader
}

func NewIndex(reader Reader) *Index {
	return &Index{reader: reader}
}

// ResolveSaleItem expands an item into its consumption list. An ingredient
// sold directly consumes itself at quantity 1. A product expands through its
// recipe; a product with no recipe is sold as-is (bottled drinks and other
// resale goods). Any unresolvable ingredient aborts the whole expansion.
func (ix *Index) ResolveSaleItem(ctx context.Context, itemID string) ([]Consumption, error) {
	item, err := ix.reader.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	if item.Category == domain.CategoryIngredient {
		return []Consumption{{Item: *item, QtyPerUnit: decimal.NewFromInt(1)}}, nil
	}

	recipe, err := ix.reader.GetRecipeByProductID(ctx, item.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return []Consumption{{Item: *item, QtyPerUnit: decimal.NewFromInt(1)}}, nil
		}
		return nil, err
	}
	if len(recipe.Lines) == 0 {
		return nil, fmt.Errorf("%w: recipe %s for %s has no lines", ErrIncompleteRecipe, recipe.ID, item.ID)
	}

	ids := make([]string, 0, len(recipe.Lines))
	for _, line := range recipe.Lines {
		ids = append(ids, line.IngredientID)
	}
	ingredients, err := ix.reader.GetItemsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	consumptions := make([]Consumption, 0, len(recipe.Lines))
	for _, line := range recipe.Lines {
		ingredient, ok := ingredients[line.IngredientID]
		if !ok {
			return nil, fmt.Errorf("%w: ingredient %s referenced by recipe %s", ErrIncompleteRecipe, line.IngredientID, recipe.ID)
		}
		if line.QtyPerUnit.Sign() <= 0 {
			return nil, fmt.Errorf("%w: non-positive quantity for ingredient %s in recipe %s", ErrIncompleteRecipe, line.IngredientID, recipe.ID)
		}
		consumptions = append(consumptions, Consumption{Item: ingredient, QtyPerUnit: line.QtyPerUnit})
	}

	return consumptions, nil
}

// FindItemByName is the legacy slower lookup path for rows that stored only
// a display name. More than one live match is a real hazard observed in the
// data, so it is surfaced as ErrAmbiguousName instead of silently resolved
// to the first match.
func (ix *Index) FindItemByName(ctx context.Context, name string) (*domain.Item, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, store.ErrInvalidInput
	}

	matches, err := ix.reader.FindItemsByName(ctx, name)
	if err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, store.ErrNotFound
	case 1:
		item := matches[0]
		return &item, nil
	default:
		return nil, fmt.Errorf("%w: %d live items named %q", store.ErrAmbiguousName, len(matches), name)
	}
}
