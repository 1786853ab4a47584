package production

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/bakery/internal/domain/models"
	"github.com/mamadbah2/bakery/internal/repository"
)

// Aggregator derives the aggregate of a producer-day after a write.
type Aggregator interface {
	AggregateRecords(ctx context.Context, date, producerID string, day models.ProducerDay) (models.DayAggregate, error)
}

// Service is the validated write path over the record store. Writes to one
// producer-day are serialised so they apply in the order they were issued.
type Service struct {
	store      repository.RecordStore
	aggregator Aggregator
	locks      *keyedMutex
	logger     *zap.Logger
}

// NewService wires a production service.
func NewService(store repository.RecordStore, aggregator Aggregator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:      store,
		aggregator: aggregator,
		locks:      newKeyedMutex(),
		logger:     logger,
	}
}

// GetDay returns a stored producer-day.
func (s *Service) GetDay(ctx context.Context, date, producerID string) (models.ProducerDay, error) {
	if err := validateKey(date, producerID); err != nil {
		return nil, err
	}
	day, ok, err := s.store.ReadDay(ctx, date, producerID)
	if err != nil {
		return nil, fmt.Errorf("load production: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("production %s for %s: %w", date, producerID, models.ErrNotFound)
	}
	return day, nil
}

// CreateDay stores a new producer-day. It fails with ErrDuplicateEntry when
// one already exists, so the caller can edit it instead.
func (s *Service) CreateDay(ctx context.Context, date, producerID string, day models.ProducerDay) (models.DayAggregate, error) {
	if err := validateKey(date, producerID); err != nil {
		return models.DayAggregate{}, err
	}
	if err := models.ValidateDay(day); err != nil {
		return models.DayAggregate{}, err
	}

	unlock := s.locks.Lock(dayKey(date, producerID))
	defer unlock()

	exists, err := s.store.Exists(ctx, date, producerID)
	if err != nil {
		return models.DayAggregate{}, fmt.Errorf("check production: %w", err)
	}
	if exists {
		return models.DayAggregate{}, fmt.Errorf("production %s for %s: %w", date, producerID, models.ErrDuplicateEntry)
	}

	pruned := day.Pruned()
	if err := s.store.WriteDay(ctx, date, producerID, pruned); err != nil {
		return models.DayAggregate{}, fmt.Errorf("save production: %w", err)
	}

	s.logger.Info("production created", zap.String("date", date), zap.String("producer_id", producerID), zap.Int("products", len(pruned)))
	return s.aggregator.AggregateRecords(ctx, date, producerID, pruned)
}

// ReplaceDay overwrites an existing producer-day with day.
func (s *Service) ReplaceDay(ctx context.Context, date, producerID string, day models.ProducerDay) (models.DayAggregate, error) {
	if err := validateKey(date, producerID); err != nil {
		return models.DayAggregate{}, err
	}
	if err := models.ValidateDay(day); err != nil {
		return models.DayAggregate{}, err
	}

	unlock := s.locks.Lock(dayKey(date, producerID))
	defer unlock()

	exists, err := s.store.Exists(ctx, date, producerID)
	if err != nil {
		return models.DayAggregate{}, fmt.Errorf("check production: %w", err)
	}
	if !exists {
		return models.DayAggregate{}, fmt.Errorf("production %s for %s: %w", date, producerID, models.ErrNotFound)
	}

	pruned := day.Pruned()
	if err := s.store.WriteDay(ctx, date, producerID, pruned); err != nil {
		return models.DayAggregate{}, fmt.Errorf("save production: %w", err)
	}

	s.logger.Info("production replaced", zap.String("date", date), zap.String("producer_id", producerID), zap.Int("products", len(pruned)))
	return s.aggregator.AggregateRecords(ctx, date, producerID, pruned)
}

// DeleteDay removes a producer-day.
func (s *Service) DeleteDay(ctx context.Context, date, producerID string) error {
	if err := validateKey(date, producerID); err != nil {
		return err
	}

	unlock := s.locks.Lock(dayKey(date, producerID))
	defer unlock()

	exists, err := s.store.Exists(ctx, date, producerID)
	if err != nil {
		return fmt.Errorf("check production: %w", err)
	}
	if !exists {
		return fmt.Errorf("production %s for %s: %w", date, producerID, models.ErrNotFound)
	}
	if err := s.store.DeleteDay(ctx, date, producerID); err != nil {
		return fmt.Errorf("delete production: %w", err)
	}

	s.logger.Info("production deleted", zap.String("date", date), zap.String("producer_id", producerID))
	return nil
}

// SetQuantity updates the quantity of one product, leaving the other products untouched.
func (s *Service) SetQuantity(ctx context.Context, date, producerID, productID string, quantity int) (models.ProductionRecord, error) {
	if quantity < 0 {
		return models.ProductionRecord{}, models.Invalid("quantity", fmt.Sprintf("invalid quantity %d for product %s", quantity, productID))
	}
	return s.update(ctx, date, producerID, productID, func(rec *models.ProductionRecord) error {
		rec.Quantity = quantity
		return nil
	})
}

// SetCompleted marks one product batch as finished or not.
func (s *Service) SetCompleted(ctx context.Context, date, producerID, productID string, completed bool) (models.ProductionRecord, error) {
	return s.update(ctx, date, producerID, productID, func(rec *models.ProductionRecord) error {
		if completed && rec.Quantity == 0 {
			return models.Invalid("completed", fmt.Sprintf("product %s has no quantity to complete", productID))
		}
		rec.Completed = completed
		return nil
	})
}

// SetSelected opts a product into or out of the day's plan. Deselecting
// also clears its quantity and completion in the same write.
func (s *Service) SetSelected(ctx context.Context, date, producerID, productID string, selected bool) (models.ProductionRecord, error) {
	return s.update(ctx, date, producerID, productID, func(rec *models.ProductionRecord) error {
		if selected {
			rec.Selected = true
			return nil
		}
		*rec = models.ProductionRecord{}
		return nil
	})
}

// update performs a read-merge-write of a single product under the producer-day lock.
func (s *Service) update(ctx context.Context, date, producerID, productID string, mutate func(*models.ProductionRecord) error) (models.ProductionRecord, error) {
	if err := validateKey(date, producerID); err != nil {
		return models.ProductionRecord{}, err
	}
	if err := models.ValidateID("product_id", productID); err != nil {
		return models.ProductionRecord{}, err
	}

	unlock := s.locks.Lock(dayKey(date, producerID))
	defer unlock()

	day, _, err := s.store.ReadDay(ctx, date, producerID)
	if err != nil {
		return models.ProductionRecord{}, fmt.Errorf("load production: %w", err)
	}
	day = day.Clone()

	record := day[productID]
	if err := mutate(&record); err != nil {
		return models.ProductionRecord{}, err
	}
	record = record.Normalize()
	day[productID] = record

	if err := s.store.WriteDay(ctx, date, producerID, day); err != nil {
		return models.ProductionRecord{}, fmt.Errorf("save production: %w", err)
	}

	s.logger.Debug("production record updated",
		zap.String("date", date),
		zap.String("producer_id", producerID),
		zap.String("product_id", productID),
		zap.Int("quantity", record.Quantity),
		zap.Bool("completed", record.Completed),
		zap.Bool("selected", record.Selected))
	return record, nil
}

func validateKey(date, producerID string) error {
	if err := models.ValidateDate(date); err != nil {
		return err
	}
	return models.ValidateID("producer_id", producerID)
}
