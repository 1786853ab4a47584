package aggregation

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/mamadbah2/bakery/internal/domain/models"
	"github.com/mamadbah2/bakery/internal/repository"
)

const (
	productsFlightKey  = "products"
	producersFlightKey = "producers"
)

// Service reads production records and catalog data and derives aggregates.
type Service struct {
	store   repository.RecordStore
	catalog repository.Catalog
	waste   decimal.Decimal
	flight  singleflight.Group
	logger  *zap.Logger
}

// NewService wires an aggregation service. wastePercentage applies to every product.
func NewService(store repository.RecordStore, catalog repository.Catalog, wastePercentage float64, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:   store,
		catalog: catalog,
		waste:   decimal.NewFromFloat(wastePercentage),
		logger:  logger,
	}
}

// WastePercentage returns the waste share applied by the service.
func (s *Service) WastePercentage() decimal.Decimal {
	return s.waste
}

// DayAggregates returns one aggregate per producer with records on date.
func (s *Service) DayAggregates(ctx context.Context, date string) ([]models.DayAggregate, error) {
	if err := models.ValidateDate(date); err != nil {
		return nil, err
	}
	return s.RangeAggregates(ctx, date, date)
}

// RangeAggregates returns aggregates for every producer-day between from and
// to inclusive, ordered by date then producer.
func (s *Service) RangeAggregates(ctx context.Context, from, to string) ([]models.DayAggregate, error) {
	if err := models.ValidateDate(from); err != nil {
		return nil, err
	}
	if err := models.ValidateDate(to); err != nil {
		return nil, err
	}

	sheets, err := s.store.ReadRange(ctx, repository.RangeOpts{From: from, To: to})
	if err != nil {
		return nil, fmt.Errorf("load productions: %w", err)
	}
	if len(sheets) == 0 {
		return []models.DayAggregate{}, nil
	}

	catalog, producers, err := s.loadCatalog(ctx)
	if err != nil {
		return nil, err
	}

	var out []models.DayAggregate
	for _, sheet := range sheets {
		out = append(out, Aggregate(sheet.Date, sheet.Producers, catalog, producers, s.waste)...)
	}

	s.logger.Debug("aggregates computed", zap.String("from", from), zap.String("to", to), zap.Int("count", len(out)))
	return out, nil
}

// ProducerDayAggregate returns the aggregate of one stored producer-day.
func (s *Service) ProducerDayAggregate(ctx context.Context, date, producerID string) (models.DayAggregate, error) {
	day, ok, err := s.store.ReadDay(ctx, date, producerID)
	if err != nil {
		return models.DayAggregate{}, fmt.Errorf("load production: %w", err)
	}
	if !ok {
		return models.DayAggregate{}, fmt.Errorf("production %s for %s: %w", date, producerID, models.ErrNotFound)
	}
	return s.AggregateRecords(ctx, date, producerID, day)
}

// AggregateRecords derives the aggregate of an in-memory producer-day.
func (s *Service) AggregateRecords(ctx context.Context, date, producerID string, day models.ProducerDay) (models.DayAggregate, error) {
	catalog, producers, err := s.loadCatalog(ctx)
	if err != nil {
		return models.DayAggregate{}, err
	}
	aggs := Aggregate(date, map[string]models.ProducerDay{producerID: day}, catalog, producers, s.waste)
	return aggs[0], nil
}

// CostSummary returns the cost-centric view of one stored producer-day.
func (s *Service) CostSummary(ctx context.Context, date, producerID string) (models.CostSummary, error) {
	day, ok, err := s.store.ReadDay(ctx, date, producerID)
	if err != nil {
		return models.CostSummary{}, fmt.Errorf("load production: %w", err)
	}
	if !ok {
		return models.CostSummary{}, fmt.Errorf("production %s for %s: %w", date, producerID, models.ErrNotFound)
	}

	catalog, err := s.loadProducts(ctx)
	if err != nil {
		return models.CostSummary{}, err
	}
	producer, ok, err := s.catalog.Producer(ctx, producerID)
	if err != nil {
		return models.CostSummary{}, fmt.Errorf("load producer: %w", err)
	}

	salary := decimal.Zero
	if ok {
		salary = producer.SalaryCost
	} else {
		s.logger.Debug("producer profile missing, using zero salary", zap.String("producer_id", producerID))
	}
	return AggregateCosts(day, catalog, salary), nil
}

// ProductStats returns per-product totals for date.
func (s *Service) ProductStats(ctx context.Context, date, producerFilter string) ([]models.ProductStat, error) {
	if err := models.ValidateDate(date); err != nil {
		return nil, err
	}

	sheets, err := s.store.ReadRange(ctx, repository.RangeOpts{From: date, To: date, ProducerID: producerFilter})
	if err != nil {
		return nil, fmt.Errorf("load productions: %w", err)
	}
	catalog, _, err := s.loadCatalog(ctx)
	if err != nil {
		return nil, err
	}

	records := map[string]models.ProducerDay{}
	if len(sheets) > 0 {
		records = sheets[0].Producers
	}
	return ProductStats(records, catalog, producerFilter), nil
}

// loadCatalog fetches products and producers, sharing in-flight loads
// between concurrent callers.
func (s *Service) loadCatalog(ctx context.Context) (models.Catalog, models.Producers, error) {
	products, err := s.loadProducts(ctx)
	if err != nil {
		return nil, nil, err
	}

	producers, err, _ := s.flight.Do(producersFlightKey, func() (interface{}, error) {
		return s.catalog.Producers(ctx)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("load producers: %w", err)
	}

	return products, producers.(models.Producers), nil
}

func (s *Service) loadProducts(ctx context.Context) (models.Catalog, error) {
	products, err, _ := s.flight.Do(productsFlightKey, func() (interface{}, error) {
		return s.catalog.Products(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	return products.(models.Catalog), nil
}
