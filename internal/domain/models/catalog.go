package models

import "github.com/shopspring/decimal"

// Product is a catalog entry; the core only reads it.
type Product struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	SalePrice  decimal.Decimal `json:"sale_price"`
	FixedCost  decimal.Decimal `json:"fixed_cost"`
	ProducerID string          `json:"producer_id"`
}

// Producer is a producer profile with its daily salary.
type Producer struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	SalaryCost decimal.Decimal `json:"salary_cost"`
}

// CostItem is a base ingredient or supply priced per unit.
type CostItem struct {
	ID           string          `json:"id"`
	Name         string          `json:"name" validate:"required"`
	Unit         string          `json:"unit" validate:"required"`
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
}

// ProductCostLine links a product recipe to a cost item.
type ProductCostLine struct {
	CostID   string  `json:"cost_id"`
	Quantity float64 `json:"quantity"`
}

// Catalog indexes products by id.
type Catalog map[string]Product

// Producers indexes producer profiles by id.
type Producers map[string]Producer
