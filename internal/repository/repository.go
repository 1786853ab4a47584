package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/bakery/internal/domain/models"
)

// RangeOpts bounds a date-ordered range read. From and To are inclusive date
// keys; an empty ProducerID reads every producer.
type RangeOpts struct {
	From       string
	To         string
	ProducerID string
}

// RecordStore is the date-keyed production record store.
type RecordStore interface {
	ReadRange(ctx context.Context, opts RangeOpts) ([]models.DateSheet, error)
	ReadDay(ctx context.Context, date, producerID string) (models.ProducerDay, bool, error)
	WriteDay(ctx context.Context, date, producerID string, day models.ProducerDay) error
	Exists(ctx context.Context, date, producerID string) (bool, error)
	DeleteDay(ctx context.Context, date, producerID string) error
}

// Catalog provides read access to products and producers.
type Catalog interface {
	Products(ctx context.Context) (models.Catalog, error)
	Product(ctx context.Context, id string) (models.Product, bool, error)
	Producers(ctx context.Context) (models.Producers, error)
	Producer(ctx context.Context, id string) (models.Producer, bool, error)
}

// CostStore persists cost items, product recipes and product fixed costs.
type CostStore interface {
	ListCosts(ctx context.Context) ([]models.CostItem, error)
	GetCost(ctx context.Context, id string) (models.CostItem, bool, error)
	SaveCost(ctx context.Context, cost models.CostItem) error
	DeleteCost(ctx context.Context, id string) error
	SetCostPrice(ctx context.Context, id string, price decimal.Decimal) error
	ProductCosts(ctx context.Context, productID string) ([]models.ProductCostLine, error)
	AllProductCosts(ctx context.Context) (map[string][]models.ProductCostLine, error)
	SetProductCosts(ctx context.Context, productID string, lines []models.ProductCostLine) error
	SetProductFixedCost(ctx context.Context, productID string, fixedCost decimal.Decimal) error
}

// ReportStore keeps daily reporting snapshots.
type ReportStore interface {
	SaveDailyReports(ctx context.Context, reports []models.DailyReport) error
}
