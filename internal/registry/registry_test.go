package registry_test

import (
	"context"
	"testing"
	"time"

	"gudangresto/backend/internal/domain"
	"gudangresto/backend/internal/registry"
	"gudangresto/backend/internal/store/memory"
)

func TestValidateDefaultsAcceptsSeededStore(t *testing.T) {
	reg := registry.New(memory.NewSeeded())
	if err := reg.ValidateDefaults(context.Background()); err != nil {
		t.Fatalf("validate defaults: %v", err)
	}

	warehouseID, err := reg.DefaultFor(domain.CategoryIngredient)
	if err != nil {
		t.Fatalf("default for ingredient: %v", err)
	}
	if warehouseID != "wh-ingredients" {
		t.Fatalf("ingredient default = %s, want wh-ingredients", warehouseID)
	}
}

func TestValidateDefaultsRejectsMissingCategory(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()
	if _, err := repo.CreateWarehouse(ctx, domain.Warehouse{
		ID: "wh-main", Name: "Main", CreatedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("create warehouse: %v", err)
	}
	if err := repo.SetCategoryDefault(ctx, domain.CategoryIngredient, "wh-main"); err != nil {
		t.Fatalf("set default: %v", err)
	}

	reg := registry.New(repo)
	if err := reg.ValidateDefaults(ctx); err == nil {
		t.Fatal("expected error for missing product default")
	}
}

func TestValidateDefaultsRejectsInactiveWarehouse(t *testing.T) {
	repo := memory.NewSeeded()
	ctx := context.Background()

	// Retire the ingredient default out from under the config.
	if _, err := repo.SetWarehouseStatus(ctx, "wh-ingredients", domain.WarehouseStatusInactive); err != nil {
		t.Fatalf("set status: %v", err)
	}

	reg := registry.New(repo)
	if err := reg.ValidateDefaults(ctx); err == nil {
		t.Fatal("expected error for default pointing at inactive warehouse")
	}
}

func TestActiveSetExcludesInactive(t *testing.T) {
	repo := memory.NewSeeded()
	ctx := context.Background()
	if _, err := repo.SetWarehouseStatus(ctx, "wh-bar", domain.WarehouseStatusInactive); err != nil {
		t.Fatalf("set status: %v", err)
	}

	reg := registry.New(repo)
	active, err := reg.ActiveSet(ctx)
	if err != nil {
		t.Fatalf("active set: %v", err)
	}
	if active["wh-bar"] {
		t.Fatal("inactive warehouse present in active set")
	}
	if !active["wh-ingredients"] || !active["wh-goods"] {
		t.Fatalf("expected active warehouses in set, got %v", active)
	}
}
