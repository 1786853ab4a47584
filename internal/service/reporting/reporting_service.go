package reporting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/bakery/internal/domain/models"
	"github.com/mamadbah2/bakery/internal/repository"
	repo "github.com/mamadbah2/bakery/internal/repository/sheets"
)

const productionDataRange = "Production!A:H"

// Aggregator supplies the aggregates of a date.
type Aggregator interface {
	DayAggregates(ctx context.Context, date string) ([]models.DayAggregate, error)
}

// Snapshot is the outcome of a daily reporting run.
type Snapshot struct {
	Date       string
	Aggregates []models.DayAggregate
	Exported   int
	Digest     string
}

// Service snapshots daily aggregates into the report store and the
// production sheet and formats the daily digest.
type Service struct {
	aggregator Aggregator
	reports    repository.ReportStore
	sheet      repo.Repository
	now        func() time.Time
	logger     *zap.Logger
}

// NewService wires a new reporting service instance. sheet may be nil when
// the spreadsheet export is not configured.
func NewService(aggregator Aggregator, reports repository.ReportStore, sheet repo.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		aggregator: aggregator,
		reports:    reports,
		sheet:      sheet,
		now:        time.Now,
		logger:     logger,
	}
}

// DailySnapshot aggregates date, stores one report per producer, exports the
// rows not yet present in the sheet and returns the digest.
func (s *Service) DailySnapshot(ctx context.Context, date string) (Snapshot, error) {
	aggregates, err := s.aggregator.DayAggregates(ctx, date)
	if err != nil {
		return Snapshot{}, fmt.Errorf("aggregate %s: %w", date, err)
	}

	snap := Snapshot{Date: date, Aggregates: aggregates, Digest: FormatDigest(date, aggregates)}
	if len(aggregates) == 0 {
		s.logger.Info("no production to report", zap.String("date", date))
		return snap, nil
	}

	createdAt := s.now().UTC()
	reports := make([]models.DailyReport, 0, len(aggregates))
	for _, agg := range aggregates {
		reports = append(reports, models.NewDailyReport(agg, createdAt))
	}
	if err := s.reports.SaveDailyReports(ctx, reports); err != nil {
		return snap, fmt.Errorf("save daily reports: %w", err)
	}

	if s.sheet != nil {
		exported, err := s.export(ctx, date, reports)
		if err != nil {
			return snap, err
		}
		snap.Exported = exported
	}

	s.logger.Info("daily snapshot stored",
		zap.String("date", date),
		zap.Int("producers", len(aggregates)),
		zap.Int("exported_rows", snap.Exported))
	return snap, nil
}

func (s *Service) export(ctx context.Context, date string, reports []models.DailyReport) (int, error) {
	existing, err := s.sheet.ReadRange(ctx, productionDataRange)
	if err != nil {
		return 0, fmt.Errorf("load production range: %w", err)
	}

	seen := make(map[string]bool)
	for _, row := range existing {
		if len(row) < 2 {
			continue
		}
		if fmt.Sprint(row[0]) == date {
			seen[fmt.Sprint(row[1])] = true
		}
	}

	var rows [][]interface{}
	for _, r := range reports {
		if seen[r.ProducerID] {
			s.logger.Debug("skip exported producer row", zap.String("date", date), zap.String("producer_id", r.ProducerID))
			continue
		}
		rows = append(rows, SheetRow(r))
	}
	if err := s.sheet.AppendRows(ctx, productionDataRange, rows); err != nil {
		return 0, fmt.Errorf("export production rows: %w", err)
	}
	return len(rows), nil
}

// SheetRow lays out a report as a Production sheet row.
func SheetRow(r models.DailyReport) []interface{} {
	return []interface{}{
		r.Date,
		r.ProducerID,
		r.ProducerName,
		r.TotalQuantity,
		r.EffectiveQuantity,
		r.TotalSales,
		r.LaborCostPercentage,
		r.Status,
	}
}

// FormatDigest renders the daily text summary.
func FormatDigest(date string, aggregates []models.DayAggregate) string {
	if len(aggregates) == 0 {
		return fmt.Sprintf("Production %s: no records yet.", date)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Production %s\n", date)

	totalUnits := 0
	totalSales := decimal.Zero
	for _, agg := range aggregates {
		fmt.Fprintf(&b, "- %s: %d units (%d after waste), sales %s, labour %d%%, %d%% done\n",
			agg.ProducerName,
			agg.TotalQuantity,
			agg.EffectiveQuantity,
			agg.TotalSales.StringFixed(0),
			agg.LaborCostPercentage,
			agg.CompletionPercentage)
		totalUnits += agg.TotalQuantity
		totalSales = totalSales.Add(agg.TotalSales)
	}
	fmt.Fprintf(&b, "Total: %d units, sales %s", totalUnits, totalSales.StringFixed(0))
	return b.String()
}
