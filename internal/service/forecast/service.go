package forecast

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/bakery/internal/domain/models"
	"github.com/mamadbah2/bakery/internal/repository"
)

// WeatherProvider answers whether a date is expected to be rainy.
type WeatherProvider interface {
	IsRainy(ctx context.Context, date time.Time) (bool, error)
}

// Suggestion is the planned quantity for one product. Available is false
// when there is no usable history, in which case Quantity is 0 and must not
// be read as "produce nothing".
type Suggestion struct {
	ProductID  string     `json:"product_id"`
	ProducerID string     `json:"producer_id"`
	Date       string     `json:"date"`
	Baseline   int        `json:"baseline"`
	Quantity   int        `json:"quantity"`
	Available  bool       `json:"available"`
	Samples    int        `json:"samples"`
	Adjustment Adjustment `json:"adjustment"`
}

// Service produces quantity suggestions from stored history.
type Service struct {
	store   repository.RecordStore
	weather WeatherProvider
	opts    EstimatorOptions
	logger  *zap.Logger
}

// NewService wires a forecast service. weather may be nil, in which case
// dates are treated as not rainy unless the caller says otherwise.
func NewService(store repository.RecordStore, weather WeatherProvider, opts EstimatorOptions, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, weather: weather, opts: opts.withDefaults(), logger: logger}
}

// EstimateBaseline returns the historical baseline of one product.
func (s *Service) EstimateBaseline(ctx context.Context, productID, producerID, date string) (int, error) {
	baselines, err := s.EstimateBaselines(ctx, producerID, date, []string{productID})
	if err != nil {
		return 0, err
	}
	return baselines[productID].Baseline, nil
}

// Estimate is a historical baseline and the number of samples behind it.
type Estimate struct {
	Baseline int
	Samples  int
}

// EstimateBaselines computes baselines for several products with a single
// range read of the producer's history.
func (s *Service) EstimateBaselines(ctx context.Context, producerID, date string, productIDs []string) (map[string]Estimate, error) {
	target, err := s.validate(producerID, date, productIDs)
	if err != nil {
		return nil, err
	}

	from, to := s.opts.HistoryWindow(target)
	sheets, err := s.store.ReadRange(ctx, repository.RangeOpts{From: from, To: to, ProducerID: producerID})
	if err != nil {
		return nil, fmt.Errorf("load production history: %w", err)
	}

	out := make(map[string]Estimate, len(productIDs))
	for _, productID := range productIDs {
		samples := CollectSamples(sheets, producerID, productID)
		out[productID] = Estimate{
			Baseline: Baseline(samples, target.Weekday(), s.opts.OutlierSigma),
			Samples:  len(samples),
		}
	}

	s.logger.Debug("baselines estimated",
		zap.String("producer_id", producerID),
		zap.String("date", date),
		zap.String("from", from),
		zap.String("to", to),
		zap.Int("dates_read", len(sheets)),
		zap.Int("products", len(productIDs)))
	return out, nil
}

// Suggest returns the adjusted quantity for one product.
func (s *Service) Suggest(ctx context.Context, productID, producerID, date string, rainy *bool) (Suggestion, error) {
	suggestions, err := s.SuggestAll(ctx, producerID, date, []string{productID}, rainy)
	if err != nil {
		return Suggestion{}, err
	}
	return suggestions[0], nil
}

// SuggestAll returns adjusted quantities for productIDs, in the same order.
// A nil rainy flag is resolved through the weather provider.
func (s *Service) SuggestAll(ctx context.Context, producerID, date string, productIDs []string, rainy *bool) ([]Suggestion, error) {
	estimates, err := s.EstimateBaselines(ctx, producerID, date, productIDs)
	if err != nil {
		return nil, err
	}

	target, _ := models.ParseDate(date)
	isRainy := s.resolveRain(ctx, target, rainy)

	suggestions := make([]Suggestion, 0, len(productIDs))
	for _, productID := range productIDs {
		est := estimates[productID]
		adj := Breakdown(est.Baseline, target, isRainy)
		suggestions = append(suggestions, Suggestion{
			ProductID:  productID,
			ProducerID: producerID,
			Date:       date,
			Baseline:   est.Baseline,
			Quantity:   adj.Final,
			Available:  est.Baseline > 0,
			Samples:    est.Samples,
			Adjustment: adj,
		})
	}
	return suggestions, nil
}

func (s *Service) resolveRain(ctx context.Context, date time.Time, rainy *bool) bool {
	if rainy != nil {
		return *rainy
	}
	if s.weather == nil {
		return false
	}

	isRainy, err := s.weather.IsRainy(ctx, date)
	if err != nil {
		s.logger.Warn("weather lookup failed, assuming dry day", zap.Error(err), zap.String("date", models.FormatDate(date)))
		return false
	}
	return isRainy
}

func (s *Service) validate(producerID, date string, productIDs []string) (time.Time, error) {
	if err := models.ValidateID("producer_id", producerID); err != nil {
		return time.Time{}, err
	}
	if err := models.ValidateDate(date); err != nil {
		return time.Time{}, err
	}
	if len(productIDs) == 0 {
		return time.Time{}, models.Invalid("product_id", "at least one product is required")
	}
	for _, id := range productIDs {
		if err := models.ValidateID("product_id", id); err != nil {
			return time.Time{}, err
		}
	}
	target, _ := models.ParseDate(date)
	return target, nil
}
