package models

import (
	"sort"
	"time"
)

// DateLayout is the key format used for production dates.
const DateLayout = "2006-01-02"

// ProductionRecord captures one producer's work for one product on one date.
type ProductionRecord struct {
	Quantity  int  `bson:"quantity" json:"quantity" validate:"gte=0"`
	Completed bool `bson:"completed" json:"completed"`
	Selected  bool `bson:"selected" json:"selected"`
}

// Normalize enforces that a zero quantity batch cannot be completed.
func (r ProductionRecord) Normalize() ProductionRecord {
	if r.Quantity == 0 {
		r.Completed = false
	}
	return r
}

// Empty reports whether the record carries nothing worth persisting.
func (r ProductionRecord) Empty() bool {
	return r.Quantity == 0 && !r.Selected
}

// ProducerDay holds every product record of one producer for one date, keyed by product id.
type ProducerDay map[string]ProductionRecord

// Clone returns an independent copy of the producer-day.
func (d ProducerDay) Clone() ProducerDay {
	out := make(ProducerDay, len(d))
	for id, rec := range d {
		out[id] = rec
	}
	return out
}

// Pruned normalizes every record and drops the empty ones.
func (d ProducerDay) Pruned() ProducerDay {
	out := make(ProducerDay, len(d))
	for id, rec := range d {
		rec = rec.Normalize()
		if rec.Empty() {
			continue
		}
		out[id] = rec
	}
	return out
}

// SelectedIDs lists the products opted into the plan, sorted.
func (d ProducerDay) SelectedIDs() []string {
	ids := make([]string, 0, len(d))
	for id, rec := range d {
		if rec.Selected {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// DateSheet groups the producer-days stored under one date key.
type DateSheet struct {
	Date      string
	Producers map[string]ProducerDay
}

// HistoricalSample is a completed, non-empty record used by the forecast.
type HistoricalSample struct {
	Quantity  int
	Date      string
	DayOfWeek time.Weekday
}

// ParseDate parses a production date key as a UTC calendar day.
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, value, time.UTC)
}

// FormatDate renders the production date key of t.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
