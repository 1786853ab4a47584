package costing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/bakery/internal/domain/models"
	"github.com/mamadbah2/bakery/internal/repository"
)

// Service manages cost items and keeps product fixed costs in step with
// their recipes.
type Service struct {
	costs   repository.CostStore
	catalog repository.Catalog
	logger  *zap.Logger
}

// NewService wires a costing service.
func NewService(costs repository.CostStore, catalog repository.Catalog, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{costs: costs, catalog: catalog, logger: logger}
}

// CreateCostRequest describes a new cost item.
type CreateCostRequest struct {
	Name         string  `json:"name" binding:"required"`
	Unit         string  `json:"unit" binding:"required"`
	PricePerUnit float64 `json:"price_per_unit"`
}

// ListCosts returns every cost item sorted by name.
func (s *Service) ListCosts(ctx context.Context) ([]models.CostItem, error) {
	costs, err := s.costs.ListCosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list costs: %w", err)
	}
	return costs, nil
}

// CreateCost stores a new cost item under a generated id.
func (s *Service) CreateCost(ctx context.Context, req CreateCostRequest) (models.CostItem, error) {
	if err := models.ValidateCostPrice(req.PricePerUnit); err != nil {
		return models.CostItem{}, err
	}
	cost := models.CostItem{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(req.Name),
		Unit:         strings.TrimSpace(req.Unit),
		PricePerUnit: decimal.NewFromFloat(req.PricePerUnit),
	}
	if err := models.ValidateCost(cost); err != nil {
		return models.CostItem{}, err
	}
	if err := s.costs.SaveCost(ctx, cost); err != nil {
		return models.CostItem{}, fmt.Errorf("save cost: %w", err)
	}

	s.logger.Info("cost created", zap.String("cost_id", cost.ID), zap.String("name", cost.Name))
	return cost, nil
}

// DeleteCost removes a cost item no recipe references.
func (s *Service) DeleteCost(ctx context.Context, id string) error {
	if err := models.ValidateID("cost_id", id); err != nil {
		return err
	}
	if _, ok, err := s.costs.GetCost(ctx, id); err != nil {
		return fmt.Errorf("load cost: %w", err)
	} else if !ok {
		return fmt.Errorf("cost %s: %w", id, models.ErrNotFound)
	}

	recipes, err := s.costs.AllProductCosts(ctx)
	if err != nil {
		return fmt.Errorf("load recipes: %w", err)
	}
	for productID, lines := range recipes {
		for _, line := range lines {
			if line.CostID == id {
				return fmt.Errorf("cost %s used by product %s: %w", id, productID, models.ErrCostInUse)
			}
		}
	}

	if err := s.costs.DeleteCost(ctx, id); err != nil {
		return fmt.Errorf("delete cost: %w", err)
	}
	s.logger.Info("cost deleted", zap.String("cost_id", id))
	return nil
}

// SetProductCosts replaces the recipe of a product and returns its new
// fixed cost. Lines pointing at unknown cost items count as zero.
func (s *Service) SetProductCosts(ctx context.Context, productID string, lines []models.ProductCostLine) (decimal.Decimal, error) {
	if err := models.ValidateID("product_id", productID); err != nil {
		return decimal.Zero, err
	}
	if err := models.ValidateCostLines(lines); err != nil {
		return decimal.Zero, err
	}
	if _, ok, err := s.catalog.Product(ctx, productID); err != nil {
		return decimal.Zero, fmt.Errorf("load product: %w", err)
	} else if !ok {
		return decimal.Zero, fmt.Errorf("product %s: %w", productID, models.ErrNotFound)
	}

	prices, err := s.priceIndex(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	fixed := FixedCost(lines, prices)

	if err := s.costs.SetProductCosts(ctx, productID, lines); err != nil {
		return decimal.Zero, fmt.Errorf("save recipe: %w", err)
	}
	if err := s.costs.SetProductFixedCost(ctx, productID, fixed); err != nil {
		return decimal.Zero, fmt.Errorf("save fixed cost: %w", err)
	}

	s.logger.Info("product recipe updated",
		zap.String("product_id", productID),
		zap.Int("lines", len(lines)),
		zap.String("fixed_cost", fixed.String()))
	return fixed, nil
}

// UpdateCostPrice changes the unit price of a cost item and recomputes the
// fixed cost of every product whose recipe uses it. It returns the ids of
// the products it updated.
func (s *Service) UpdateCostPrice(ctx context.Context, costID string, price float64) ([]string, error) {
	if err := models.ValidateID("cost_id", costID); err != nil {
		return nil, err
	}
	if err := models.ValidateCostPrice(price); err != nil {
		return nil, err
	}

	if err := s.costs.SetCostPrice(ctx, costID, decimal.NewFromFloat(price)); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("cost %s: %w", costID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("save cost price: %w", err)
	}

	recipes, err := s.costs.AllProductCosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load recipes: %w", err)
	}
	prices, err := s.priceIndex(ctx)
	if err != nil {
		return nil, err
	}

	var updated []string
	for productID, lines := range recipes {
		if !usesCost(lines, costID) {
			continue
		}
		fixed := FixedCost(lines, prices)
		if err := s.costs.SetProductFixedCost(ctx, productID, fixed); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				s.logger.Warn("recipe references missing product", zap.String("product_id", productID))
				continue
			}
			return updated, fmt.Errorf("save fixed cost of %s: %w", productID, err)
		}
		updated = append(updated, productID)
	}

	s.logger.Info("cost price updated",
		zap.String("cost_id", costID),
		zap.Float64("price", price),
		zap.Int("products_updated", len(updated)))
	return updated, nil
}

func (s *Service) priceIndex(ctx context.Context) (map[string]decimal.Decimal, error) {
	costs, err := s.costs.ListCosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list costs: %w", err)
	}
	prices := make(map[string]decimal.Decimal, len(costs))
	for _, c := range costs {
		prices[c.ID] = c.PricePerUnit
	}
	return prices, nil
}

// FixedCost sums price per unit times quantity over the recipe lines.
func FixedCost(lines []models.ProductCostLine, prices map[string]decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		price, ok := prices[line.CostID]
		if !ok {
			continue
		}
		total = total.Add(price.Mul(decimal.NewFromFloat(line.Quantity)))
	}
	return total
}

func usesCost(lines []models.ProductCostLine, costID string) bool {
	for _, line := range lines {
		if line.CostID == costID {
			return true
		}
	}
	return false
}
