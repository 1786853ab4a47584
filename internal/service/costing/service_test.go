package costing

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/bakery/internal/domain/models"
	"github.com/mamadbah2/bakery/internal/repository/memory"
)

func newTestService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	store.AddProduct(models.Product{ID: "bread", Name: "Baguette", SalePrice: decimal.NewFromInt(100)})
	store.AddProduct(models.Product{ID: "cake", Name: "Cake", SalePrice: decimal.NewFromInt(500)})
	return NewService(store, store, nil), store
}

func productFixedCost(t *testing.T, store *memory.Store, id string) decimal.Decimal {
	t.Helper()
	p, ok, err := store.Product(context.Background(), id)
	if err != nil || !ok {
		t.Fatalf("Product(%s) = %v, %v", id, ok, err)
	}
	return p.FixedCost
}

func TestCreateAndListCosts(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	flour, err := svc.CreateCost(ctx, CreateCostRequest{Name: " Flour ", Unit: "kg", PricePerUnit: 8.5})
	if err != nil {
		t.Fatalf("CreateCost() error = %v", err)
	}
	if flour.ID == "" || flour.Name != "Flour" || !flour.PricePerUnit.Equal(decimal.NewFromFloat(8.5)) {
		t.Errorf("created cost = %+v", flour)
	}
	if _, err := svc.CreateCost(ctx, CreateCostRequest{Name: "Butter", Unit: "kg", PricePerUnit: 30}); err != nil {
		t.Fatalf("CreateCost() error = %v", err)
	}

	costs, err := svc.ListCosts(ctx)
	if err != nil {
		t.Fatalf("ListCosts() error = %v", err)
	}
	if len(costs) != 2 || costs[0].Name != "Butter" {
		t.Errorf("ListCosts() = %+v, want 2 costs sorted by name", costs)
	}
}

func TestCreateCostValidation(t *testing.T) {
	svc, _ := newTestService(t)

	tests := []struct {
		name string
		req  CreateCostRequest
	}{
		{"zero price", CreateCostRequest{Name: "Salt", Unit: "kg", PricePerUnit: 0}},
		{"negative price", CreateCostRequest{Name: "Salt", Unit: "kg", PricePerUnit: -1}},
		{"price too high", CreateCostRequest{Name: "Salt", Unit: "kg", PricePerUnit: 1000001}},
		{"not a number", CreateCostRequest{Name: "Salt", Unit: "kg", PricePerUnit: math.NaN()}},
		{"blank name", CreateCostRequest{Name: "  ", Unit: "kg", PricePerUnit: 1}},
		{"missing unit", CreateCostRequest{Name: "Salt", PricePerUnit: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.CreateCost(context.Background(), tt.req); !errors.Is(err, models.ErrInvalidInput) {
				t.Errorf("error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestSetProductCostsComputesFixedCost(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	flour, _ := svc.CreateCost(ctx, CreateCostRequest{Name: "Flour", Unit: "kg", PricePerUnit: 10})
	yeast, _ := svc.CreateCost(ctx, CreateCostRequest{Name: "Yeast", Unit: "g", PricePerUnit: 2})

	fixed, err := svc.SetProductCosts(ctx, "bread", []models.ProductCostLine{
		{CostID: flour.ID, Quantity: 0.5},
		{CostID: yeast.ID, Quantity: 3},
		{CostID: "retired", Quantity: 100},
	})
	if err != nil {
		t.Fatalf("SetProductCosts() error = %v", err)
	}
	// 10*0.5 + 2*3, unknown cost counts 0
	if !fixed.Equal(decimal.NewFromInt(11)) {
		t.Errorf("fixed cost = %s, want 11", fixed)
	}
	if got := productFixedCost(t, store, "bread"); !got.Equal(fixed) {
		t.Errorf("stored fixed cost = %s, want %s", got, fixed)
	}

	fixed, err = svc.SetProductCosts(ctx, "bread", nil)
	if err != nil || !fixed.IsZero() {
		t.Fatalf("clearing recipe = %s, %v, want 0", fixed, err)
	}
	lines, _ := store.ProductCosts(ctx, "bread")
	if len(lines) != 0 {
		t.Errorf("recipe lines after clearing = %v", lines)
	}
}

func TestSetProductCostsValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		productID string
		lines     []models.ProductCostLine
		want      error
	}{
		{"zero quantity", "bread", []models.ProductCostLine{{CostID: "c", Quantity: 0}}, models.ErrInvalidInput},
		{"quantity too high", "bread", []models.ProductCostLine{{CostID: "c", Quantity: 10001}}, models.ErrInvalidInput},
		{"missing cost id", "bread", []models.ProductCostLine{{Quantity: 1}}, models.ErrInvalidInput},
		{"unknown product", "pie", []models.ProductCostLine{{CostID: "c", Quantity: 1}}, models.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.SetProductCosts(ctx, tt.productID, tt.lines); !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestUpdateCostPriceRecomputesProducts(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	flour, _ := svc.CreateCost(ctx, CreateCostRequest{Name: "Flour", Unit: "kg", PricePerUnit: 10})
	sugar, _ := svc.CreateCost(ctx, CreateCostRequest{Name: "Sugar", Unit: "kg", PricePerUnit: 4})

	if _, err := svc.SetProductCosts(ctx, "bread", []models.ProductCostLine{{CostID: flour.ID, Quantity: 2}}); err != nil {
		t.Fatalf("SetProductCosts(bread) error = %v", err)
	}
	if _, err := svc.SetProductCosts(ctx, "cake", []models.ProductCostLine{{CostID: sugar.ID, Quantity: 1}}); err != nil {
		t.Fatalf("SetProductCosts(cake) error = %v", err)
	}

	updated, err := svc.UpdateCostPrice(ctx, flour.ID, 12.5)
	if err != nil {
		t.Fatalf("UpdateCostPrice() error = %v", err)
	}
	if len(updated) != 1 || updated[0] != "bread" {
		t.Errorf("updated = %v, want [bread]", updated)
	}
	if got := productFixedCost(t, store, "bread"); !got.Equal(decimal.NewFromInt(25)) {
		t.Errorf("bread fixed cost = %s, want 25", got)
	}
	if got := productFixedCost(t, store, "cake"); !got.Equal(decimal.NewFromInt(4)) {
		t.Errorf("cake fixed cost = %s, want 4", got)
	}

	if _, err := svc.UpdateCostPrice(ctx, "missing", 3); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("UpdateCostPrice(missing) error = %v, want ErrNotFound", err)
	}
	if _, err := svc.UpdateCostPrice(ctx, flour.ID, 0); !errors.Is(err, models.ErrInvalidInput) {
		t.Errorf("UpdateCostPrice(0) error = %v, want ErrInvalidInput", err)
	}
}

func TestDeleteCost(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	flour, _ := svc.CreateCost(ctx, CreateCostRequest{Name: "Flour", Unit: "kg", PricePerUnit: 10})
	salt, _ := svc.CreateCost(ctx, CreateCostRequest{Name: "Salt", Unit: "kg", PricePerUnit: 1})
	if _, err := svc.SetProductCosts(ctx, "bread", []models.ProductCostLine{{CostID: flour.ID, Quantity: 1}}); err != nil {
		t.Fatalf("SetProductCosts() error = %v", err)
	}

	if err := svc.DeleteCost(ctx, flour.ID); !errors.Is(err, models.ErrCostInUse) {
		t.Fatalf("DeleteCost(in use) error = %v, want ErrCostInUse", err)
	}
	if err := svc.DeleteCost(ctx, salt.ID); err != nil {
		t.Fatalf("DeleteCost() error = %v", err)
	}
	if err := svc.DeleteCost(ctx, salt.ID); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("second DeleteCost() error = %v, want ErrNotFound", err)
	}
}
