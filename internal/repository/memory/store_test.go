package memory

import (
	"context"
	"testing"

	"github.com/mamadbah2/bakery/internal/domain/models"
	"github.com/mamadbah2/bakery/internal/repository"
)

func TestStoreReadRange(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	writes := []struct {
		date, producer string
		day            models.ProducerDay
	}{
		{"2024-03-07", "p1", models.ProducerDay{"A": {Quantity: 3}}},
		{"2024-03-05", "p1", models.ProducerDay{"A": {Quantity: 1}}},
		{"2024-03-05", "p2", models.ProducerDay{"B": {Quantity: 2}}},
		{"2024-03-06", "p2", models.ProducerDay{"B": {Quantity: 4}}},
		{"2024-04-01", "p1", models.ProducerDay{"A": {Quantity: 9}}},
	}
	for _, w := range writes {
		if err := s.WriteDay(ctx, w.date, w.producer, w.day); err != nil {
			t.Fatalf("WriteDay(%s, %s): %v", w.date, w.producer, err)
		}
	}

	tests := []struct {
		name  string
		opts  repository.RangeOpts
		dates []string
	}{
		{"all producers", repository.RangeOpts{From: "2024-03-05", To: "2024-03-07"}, []string{"2024-03-05", "2024-03-06", "2024-03-07"}},
		{"one producer", repository.RangeOpts{From: "2024-03-05", To: "2024-03-31", ProducerID: "p1"}, []string{"2024-03-05", "2024-03-07"}},
		{"inclusive bounds", repository.RangeOpts{From: "2024-03-06", To: "2024-03-06"}, []string{"2024-03-06"}},
		{"empty range", repository.RangeOpts{From: "2024-05-01", To: "2024-05-31"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sheets, err := s.ReadRange(ctx, tt.opts)
			if err != nil {
				t.Fatalf("ReadRange() error = %v", err)
			}
			if len(sheets) != len(tt.dates) {
				t.Fatalf("got %d dates, want %d", len(sheets), len(tt.dates))
			}
			for i, sheet := range sheets {
				if sheet.Date != tt.dates[i] {
					t.Errorf("date %d = %s, want %s", i, sheet.Date, tt.dates[i])
				}
				if tt.opts.ProducerID != "" {
					for producer := range sheet.Producers {
						if producer != tt.opts.ProducerID {
							t.Errorf("unexpected producer %s in filtered read", producer)
						}
					}
				}
			}
		})
	}
}

func TestStoreWriteDayPrunes(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	if err := s.WriteDay(ctx, "2024-03-05", "p1", models.ProducerDay{
		"A": {Quantity: 2, Completed: true},
		"B": {},
		"C": {Selected: true},
	}); err != nil {
		t.Fatalf("WriteDay() error = %v", err)
	}

	day, ok, err := s.ReadDay(ctx, "2024-03-05", "p1")
	if err != nil || !ok {
		t.Fatalf("ReadDay() = %v, %v", ok, err)
	}
	if _, found := day["B"]; found || len(day) != 2 {
		t.Errorf("stored day = %+v, want B pruned", day)
	}

	day["A"] = models.ProductionRecord{Quantity: 100}
	again, _, _ := s.ReadDay(ctx, "2024-03-05", "p1")
	if again["A"].Quantity != 2 {
		t.Error("ReadDay returned a shared map")
	}

	if err := s.WriteDay(ctx, "2024-03-05", "p1", models.ProducerDay{"A": {}}); err != nil {
		t.Fatalf("WriteDay() error = %v", err)
	}
	if exists, _ := s.Exists(ctx, "2024-03-05", "p1"); exists {
		t.Error("empty producer-day is still stored")
	}
	if sheets, _ := s.ReadRange(ctx, repository.RangeOpts{From: "2024-03-05", To: "2024-03-05"}); len(sheets) != 0 {
		t.Errorf("ReadRange() returned %d sheets for an emptied date", len(sheets))
	}
}
