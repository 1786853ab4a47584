package forecast

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mamadbah2/bakery/internal/domain/models"
	"github.com/mamadbah2/bakery/internal/repository/memory"
)

type stubWeather struct {
	rainy bool
	err   error
	calls int
}

func (s *stubWeather) IsRainy(context.Context, time.Time) (bool, error) {
	s.calls++
	return s.rainy, s.err
}

func seedHistory(t *testing.T, store *memory.Store, producerID, productID string, history map[string]int) {
	t.Helper()
	for date, qty := range history {
		day := models.ProducerDay{productID: {Quantity: qty, Completed: true, Selected: true}}
		if err := store.WriteDay(context.Background(), date, producerID, day); err != nil {
			t.Fatalf("seed %s: %v", date, err)
		}
	}
}

func TestSuggestUsesSameWeekdayHistory(t *testing.T) {
	store := memory.NewStore()
	// Tuesdays before 2024-03-05.
	seedHistory(t, store, "p1", "bread", map[string]int{
		"2024-02-06": 8,
		"2024-02-13": 9,
		"2024-02-20": 10,
		"2024-02-27": 11,
	})
	// The target day itself is outside the window.
	seedHistory(t, store, "p1", "bread", map[string]int{"2024-03-05": 500})

	svc := NewService(store, nil, DefaultEstimatorOptions(), nil)
	dry := false

	got, err := svc.Suggest(context.Background(), "bread", "p1", "2024-03-05", &dry)
	if err != nil {
		t.Fatalf("Suggest() error = %v", err)
	}
	if got.Baseline != 10 {
		t.Errorf("Baseline = %d, want 10", got.Baseline)
	}
	if got.Quantity != 12 {
		t.Errorf("Quantity = %d, want 12", got.Quantity)
	}
	if !got.Available || got.Samples != 4 {
		t.Errorf("Available = %v, Samples = %d, want true and 4", got.Available, got.Samples)
	}
}

func TestSuggestWithoutHistory(t *testing.T) {
	svc := NewService(memory.NewStore(), nil, DefaultEstimatorOptions(), nil)

	got, err := svc.Suggest(context.Background(), "bread", "p1", "2024-03-05", nil)
	if err != nil {
		t.Fatalf("Suggest() error = %v", err)
	}
	if got.Available || got.Quantity != 0 {
		t.Errorf("got Available = %v, Quantity = %d, want no suggestion", got.Available, got.Quantity)
	}
}

func TestSuggestIgnoresOtherProducers(t *testing.T) {
	store := memory.NewStore()
	seedHistory(t, store, "p2", "bread", map[string]int{"2024-02-27": 50})

	svc := NewService(store, nil, DefaultEstimatorOptions(), nil)
	baseline, err := svc.EstimateBaseline(context.Background(), "bread", "p1", "2024-03-05")
	if err != nil {
		t.Fatalf("EstimateBaseline() error = %v", err)
	}
	if baseline != 0 {
		t.Errorf("baseline = %d, want 0", baseline)
	}
}

func TestSuggestResolvesWeather(t *testing.T) {
	store := memory.NewStore()
	seedHistory(t, store, "p1", "bread", map[string]int{"2024-04-09": 100})
	// 2024-04-16 is a mid-month Tuesday in a regular season.

	tests := []struct {
		name    string
		weather *stubWeather
		rainy   *bool
		want    int
		calls   int
	}{
		{name: "rainy day", weather: &stubWeather{rainy: true}, want: 90, calls: 1},
		{name: "dry day", weather: &stubWeather{}, want: 100, calls: 1},
		{name: "lookup failure counts as dry", weather: &stubWeather{rainy: true, err: errors.New("timeout")}, want: 100, calls: 1},
		{name: "explicit flag skips lookup", weather: &stubWeather{rainy: true}, rainy: new(bool), want: 100, calls: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(store, tt.weather, DefaultEstimatorOptions(), nil)
			got, err := svc.Suggest(context.Background(), "bread", "p1", "2024-04-16", tt.rainy)
			if err != nil {
				t.Fatalf("Suggest() error = %v", err)
			}
			if got.Quantity != tt.want {
				t.Errorf("Quantity = %d, want %d", got.Quantity, tt.want)
			}
			if tt.weather.calls != tt.calls {
				t.Errorf("weather calls = %d, want %d", tt.weather.calls, tt.calls)
			}
		})
	}
}

func TestSuggestAllKeepsOrder(t *testing.T) {
	store := memory.NewStore()
	seedHistory(t, store, "p1", "bread", map[string]int{"2024-04-09": 100})
	seedHistory(t, store, "p1", "cake", map[string]int{"2024-04-02": 40})

	svc := NewService(store, nil, DefaultEstimatorOptions(), nil)
	dry := false
	got, err := svc.SuggestAll(context.Background(), "p1", "2024-04-16", []string{"cake", "bread", "tart"}, &dry)
	if err != nil {
		t.Fatalf("SuggestAll() error = %v", err)
	}

	want := []struct {
		id  string
		qty int
	}{{"cake", 40}, {"bread", 100}, {"tart", 0}}
	if len(got) != len(want) {
		t.Fatalf("got %d suggestions, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].ProductID != w.id || got[i].Quantity != w.qty {
			t.Errorf("suggestion %d = %s/%d, want %s/%d", i, got[i].ProductID, got[i].Quantity, w.id, w.qty)
		}
	}
}

func TestSuggestValidation(t *testing.T) {
	svc := NewService(memory.NewStore(), nil, DefaultEstimatorOptions(), nil)

	tests := []struct {
		name       string
		producerID string
		date       string
		products   []string
	}{
		{"bad date", "p1", "16/04/2024", []string{"bread"}},
		{"missing producer", "", "2024-04-16", []string{"bread"}},
		{"no products", "p1", "2024-04-16", nil},
		{"blank product", "p1", "2024-04-16", []string{""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SuggestAll(context.Background(), tt.producerID, tt.date, tt.products, nil)
			if !errors.Is(err, models.ErrInvalidInput) {
				t.Errorf("error = %v, want ErrInvalidInput", err)
			}
		})
	}
}
