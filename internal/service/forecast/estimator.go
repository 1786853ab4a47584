package forecast

import (
	"math"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/mamadbah2/bakery/internal/domain/models"
)

const (
	// DefaultWindowDays is how far back history is read for a baseline.
	DefaultWindowDays = 90
	// DefaultOutlierSigma is the cutoff, in standard deviations, for the cross-weekday fallback.
	DefaultOutlierSigma = 2.0
)

// EstimatorOptions tunes the historical baseline.
type EstimatorOptions struct {
	WindowDays   int
	OutlierSigma float64
}

// DefaultEstimatorOptions returns the stock window and outlier cutoff.
func DefaultEstimatorOptions() EstimatorOptions {
	return EstimatorOptions{WindowDays: DefaultWindowDays, OutlierSigma: DefaultOutlierSigma}
}

func (o EstimatorOptions) withDefaults() EstimatorOptions {
	if o.WindowDays <= 0 {
		o.WindowDays = DefaultWindowDays
	}
	if o.OutlierSigma <= 0 {
		o.OutlierSigma = DefaultOutlierSigma
	}
	return o
}

// HistoryWindow returns the inclusive date keys read for target: the window
// days before target, excluding target itself.
func (o EstimatorOptions) HistoryWindow(target time.Time) (from, to string) {
	o = o.withDefaults()
	return models.FormatDate(target.AddDate(0, 0, -o.WindowDays)), models.FormatDate(target.AddDate(0, 0, -1))
}

// CollectSamples extracts the completed, non-empty records of one
// (producer, product) pair from range-read sheets.
func CollectSamples(sheets []models.DateSheet, producerID, productID string) []models.HistoricalSample {
	var samples []models.HistoricalSample
	for _, sheet := range sheets {
		record, ok := sheet.Producers[producerID][productID]
		if !ok || record.Quantity <= 0 || !record.Completed {
			continue
		}
		date, err := models.ParseDate(sheet.Date)
		if err != nil {
			continue
		}
		samples = append(samples, models.HistoricalSample{
			Quantity:  record.Quantity,
			Date:      sheet.Date,
			DayOfWeek: date.Weekday(),
		})
	}
	return samples
}

// Baseline computes the smoothed quantity for weekday from samples. Same
// weekday samples win outright; otherwise every sample is used after
// rejecting those further than sigma standard deviations from the mean.
// Zero means no suggestion is available.
func Baseline(samples []models.HistoricalSample, weekday time.Weekday, sigma float64) int {
	if len(samples) == 0 {
		return 0
	}
	if sigma <= 0 {
		sigma = DefaultOutlierSigma
	}

	var sameDay stats.Float64Data
	all := make(stats.Float64Data, 0, len(samples))
	for _, sample := range samples {
		all = append(all, float64(sample.Quantity))
		if sample.DayOfWeek == weekday {
			sameDay = append(sameDay, float64(sample.Quantity))
		}
	}

	if len(sameDay) > 0 {
		mean, _ := stats.Mean(sameDay)
		return roundHalfUp(mean)
	}

	mean, _ := stats.Mean(all)
	stdDev, _ := stats.StandardDeviationPopulation(all)

	kept := make(stats.Float64Data, 0, len(all))
	for _, q := range all {
		if math.Abs(q-mean) <= sigma*stdDev {
			kept = append(kept, q)
		}
	}
	if len(kept) == 0 {
		return roundHalfUp(mean)
	}

	filtered, _ := stats.Mean(kept)
	return roundHalfUp(filtered)
}

// roundHalfUp rounds .5 towards positive infinity.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}
