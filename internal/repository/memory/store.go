package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/bakery/internal/domain/models"
	"github.com/mamadbah2/bakery/internal/repository"
)

// Store is an in-memory implementation of every repository contract, used by
// tests and local runs without MongoDB.
type Store struct {
	mu           sync.RWMutex
	productions  map[string]map[string]models.ProducerDay
	products     models.Catalog
	producers    models.Producers
	costs        map[string]models.CostItem
	productCosts map[string][]models.ProductCostLine
	reports      map[string]models.DailyReport
}

// Verify interface compliance
var (
	_ repository.RecordStore = (*Store)(nil)
	_ repository.Catalog     = (*Store)(nil)
	_ repository.CostStore   = (*Store)(nil)
	_ repository.ReportStore = (*Store)(nil)
)

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		productions:  make(map[string]map[string]models.ProducerDay),
		products:     make(models.Catalog),
		producers:    make(models.Producers),
		costs:        make(map[string]models.CostItem),
		productCosts: make(map[string][]models.ProductCostLine),
		reports:      make(map[string]models.DailyReport),
	}
}

// AddProduct registers a catalog entry.
func (s *Store) AddProduct(p models.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

// AddProducer registers a producer profile.
func (s *Store) AddProducer(p models.Producer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.producers[p.ID] = p
}

// Reports returns the snapshots saved so far ordered by report id.
func (s *Store) Reports() []models.DailyReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.DailyReport, 0, len(s.reports))
	for _, report := range s.reports {
		out = append(out, report)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ReadRange returns the stored dates within opts ordered by date key.
func (s *Store) ReadRange(_ context.Context, opts repository.RangeOpts) ([]models.DateSheet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dates := make([]string, 0, len(s.productions))
	for date := range s.productions {
		if opts.From != "" && date < opts.From {
			continue
		}
		if opts.To != "" && date > opts.To {
			continue
		}
		dates = append(dates, date)
	}
	sort.Strings(dates)

	sheets := make([]models.DateSheet, 0, len(dates))
	for _, date := range dates {
		sheet := models.DateSheet{Date: date, Producers: make(map[string]models.ProducerDay)}
		for producerID, day := range s.productions[date] {
			if opts.ProducerID != "" && producerID != opts.ProducerID {
				continue
			}
			sheet.Producers[producerID] = day.Clone()
		}
		if len(sheet.Producers) == 0 {
			continue
		}
		sheets = append(sheets, sheet)
	}
	return sheets, nil
}

// ReadDay returns the producer-day stored under date.
func (s *Store) ReadDay(_ context.Context, date, producerID string) (models.ProducerDay, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	day, ok := s.productions[date][producerID]
	if !ok {
		return models.ProducerDay{}, false, nil
	}
	return day.Clone(), true, nil
}

// WriteDay stores day, removing the key when nothing is left after pruning.
func (s *Store) WriteDay(_ context.Context, date, producerID string, day models.ProducerDay) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pruned := day.Pruned()
	if len(pruned) == 0 {
		s.deleteLocked(date, producerID)
		return nil
	}

	byProducer, ok := s.productions[date]
	if !ok {
		byProducer = make(map[string]models.ProducerDay)
		s.productions[date] = byProducer
	}
	byProducer[producerID] = pruned
	return nil
}

// Exists reports whether a producer-day is stored.
func (s *Store) Exists(_ context.Context, date, producerID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.productions[date][producerID]
	return ok, nil
}

// DeleteDay removes a producer-day.
func (s *Store) DeleteDay(_ context.Context, date, producerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteLocked(date, producerID)
	return nil
}

func (s *Store) deleteLocked(date, producerID string) {
	byProducer, ok := s.productions[date]
	if !ok {
		return
	}
	delete(byProducer, producerID)
	if len(byProducer) == 0 {
		delete(s.productions, date)
	}
}

// Products returns a copy of the catalog.
func (s *Store) Products(_ context.Context) (models.Catalog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(models.Catalog, len(s.products))
	for id, p := range s.products {
		out[id] = p
	}
	return out, nil
}

// Product looks up a single catalog entry.
func (s *Store) Product(_ context.Context, id string) (models.Product, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	return p, ok, nil
}

// Producers returns a copy of the producer profiles.
func (s *Store) Producers(_ context.Context) (models.Producers, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(models.Producers, len(s.producers))
	for id, p := range s.producers {
		out[id] = p
	}
	return out, nil
}

// Producer looks up a single producer profile.
func (s *Store) Producer(_ context.Context, id string) (models.Producer, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.producers[id]
	return p, ok, nil
}

// ListCosts returns the cost items sorted by name.
func (s *Store) ListCosts(_ context.Context) ([]models.CostItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.CostItem, 0, len(s.costs))
	for _, c := range s.costs {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// GetCost looks up a cost item.
func (s *Store) GetCost(_ context.Context, id string) (models.CostItem, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.costs[id]
	return c, ok, nil
}

// SaveCost inserts or replaces a cost item.
func (s *Store) SaveCost(_ context.Context, cost models.CostItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.costs[cost.ID] = cost
	return nil
}

// DeleteCost removes a cost item.
func (s *Store) DeleteCost(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.costs, id)
	return nil
}

// SetCostPrice updates the unit price of a cost item.
func (s *Store) SetCostPrice(_ context.Context, id string, price decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.costs[id]
	if !ok {
		return models.ErrNotFound
	}
	c.PricePerUnit = price
	s.costs[id] = c
	return nil
}

// ProductCosts returns the recipe lines of a product.
func (s *Store) ProductCosts(_ context.Context, productID string) ([]models.ProductCostLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.ProductCostLine(nil), s.productCosts[productID]...), nil
}

// AllProductCosts returns every product recipe.
func (s *Store) AllProductCosts(_ context.Context) (map[string][]models.ProductCostLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]models.ProductCostLine, len(s.productCosts))
	for id, lines := range s.productCosts {
		out[id] = append([]models.ProductCostLine(nil), lines...)
	}
	return out, nil
}

// SetProductCosts replaces a product recipe; an empty recipe removes it.
func (s *Store) SetProductCosts(_ context.Context, productID string, lines []models.ProductCostLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(lines) == 0 {
		delete(s.productCosts, productID)
		return nil
	}
	s.productCosts[productID] = append([]models.ProductCostLine(nil), lines...)
	return nil
}

// SetProductFixedCost updates the fixed cost of a catalog entry.
func (s *Store) SetProductFixedCost(_ context.Context, productID string, fixedCost decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productID]
	if !ok {
		return models.ErrNotFound
	}
	p.FixedCost = fixedCost
	s.products[productID] = p
	return nil
}

// SaveDailyReports stores reporting snapshots, replacing any earlier
// snapshot of the same producer-day.
func (s *Store) SaveDailyReports(_ context.Context, reports []models.DailyReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, report := range reports {
		if report.ID == "" {
			report.ID = models.ReportID(report.Date, report.ProducerID)
		}
		s.reports[report.ID] = report
	}
	return nil
}
