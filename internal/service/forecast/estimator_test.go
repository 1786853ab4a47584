package forecast

import (
	"testing"
	"time"

	"github.com/mamadbah2/bakery/internal/domain/models"
)

func sample(date string, qty int) models.HistoricalSample {
	d, err := models.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return models.HistoricalSample{Quantity: qty, Date: date, DayOfWeek: d.Weekday()}
}

func TestBaseline(t *testing.T) {
	tests := []struct {
		name    string
		samples []models.HistoricalSample
		weekday time.Weekday
		want    int
	}{
		{
			name:    "no history",
			samples: nil,
			weekday: time.Tuesday,
			want:    0,
		},
		{
			name: "same weekday mean rounds half up",
			samples: []models.HistoricalSample{
				sample("2024-02-06", 8),
				sample("2024-02-13", 9),
				sample("2024-02-20", 10),
				sample("2024-02-27", 11),
			},
			weekday: time.Tuesday,
			want:    10,
		},
		{
			name: "same weekday ignores other days",
			samples: []models.HistoricalSample{
				sample("2024-02-06", 20),
				sample("2024-02-07", 500),
				sample("2024-02-08", 500),
			},
			weekday: time.Tuesday,
			want:    20,
		},
		{
			name: "fallback drops outliers beyond two sigma",
			samples: []models.HistoricalSample{
				sample("2024-02-05", 10),
				sample("2024-02-06", 10),
				sample("2024-02-07", 10),
				sample("2024-02-08", 10),
				sample("2024-02-09", 10),
				sample("2024-02-10", 10),
				sample("2024-02-12", 10),
				sample("2024-02-13", 10),
				sample("2024-02-14", 10),
				sample("2024-02-15", 100),
			},
			weekday: time.Sunday,
			want:    10,
		},
		{
			name: "fallback keeps everything when spread is even",
			samples: []models.HistoricalSample{
				sample("2024-02-05", 10),
				sample("2024-02-06", 20),
			},
			weekday: time.Sunday,
			want:    15,
		},
		{
			name: "single sample",
			samples: []models.HistoricalSample{
				sample("2024-02-05", 7),
			},
			weekday: time.Sunday,
			want:    7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Baseline(tt.samples, tt.weekday, DefaultOutlierSigma); got != tt.want {
				t.Errorf("Baseline() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestBaselineNonNegative(t *testing.T) {
	samples := []models.HistoricalSample{sample("2024-02-05", 1), sample("2024-02-06", 1)}
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if got := Baseline(samples, wd, DefaultOutlierSigma); got < 0 {
			t.Fatalf("Baseline() = %d for %s, want >= 0", got, wd)
		}
	}
}

func TestCollectSamples(t *testing.T) {
	sheets := []models.DateSheet{
		{Date: "2024-02-05", Producers: map[string]models.ProducerDay{
			"p1": {
				"bread":     {Quantity: 10, Completed: true},
				"croissant": {Quantity: 5, Completed: false},
			},
			"p2": {"bread": {Quantity: 99, Completed: true}},
		}},
		{Date: "2024-02-06", Producers: map[string]models.ProducerDay{
			"p1": {"bread": {Quantity: 0, Completed: true, Selected: true}},
		}},
		{Date: "2024-02-07", Producers: map[string]models.ProducerDay{
			"p1": {"bread": {Quantity: 12, Completed: true}},
		}},
	}

	got := CollectSamples(sheets, "p1", "bread")
	if len(got) != 2 {
		t.Fatalf("CollectSamples() returned %d samples, want 2", len(got))
	}
	if got[0].Quantity != 10 || got[0].DayOfWeek != time.Monday {
		t.Errorf("first sample = %+v, want quantity 10 on Monday", got[0])
	}
	if got[1].Quantity != 12 || got[1].Date != "2024-02-07" {
		t.Errorf("second sample = %+v, want quantity 12 on 2024-02-07", got[1])
	}

	if n := len(CollectSamples(sheets, "p1", "croissant")); n != 0 {
		t.Errorf("incomplete records produced %d samples, want 0", n)
	}
}

func TestHistoryWindow(t *testing.T) {
	target, _ := models.ParseDate("2024-03-05")

	from, to := DefaultEstimatorOptions().HistoryWindow(target)
	if from != "2023-12-06" || to != "2024-03-04" {
		t.Errorf("HistoryWindow() = (%s, %s), want (2023-12-06, 2024-03-04)", from, to)
	}

	from, to = EstimatorOptions{WindowDays: 7}.HistoryWindow(target)
	if from != "2024-02-27" || to != "2024-03-04" {
		t.Errorf("HistoryWindow(7) = (%s, %s), want (2024-02-27, 2024-03-04)", from, to)
	}
}
