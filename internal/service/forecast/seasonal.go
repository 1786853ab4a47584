package forecast

import "time"

// MonthPhase classifies the day of month.
type MonthPhase string

// Season classifies the month of year.
type Season string

const (
	PhaseEarly MonthPhase = "early"
	PhaseMid   MonthPhase = "mid"
	PhaseLate  MonthPhase = "late"

	SeasonLow      Season = "low"
	SeasonVacation Season = "vacation"
	SeasonRegular  Season = "regular"
	SeasonHigh     Season = "high"
)

var monthPhaseFactors = map[MonthPhase]float64{
	PhaseEarly: 1.20,
	PhaseMid:   1.00,
	PhaseLate:  0.85,
}

var seasonFactors = map[Season]float64{
	SeasonLow:      0.75,
	SeasonVacation: 0.80,
	SeasonRegular:  1.00,
	SeasonHigh:     1.30,
}

const (
	rainyFactor  = 0.90
	normalFactor = 1.00
)

// Adjustment is the step-by-step view of a seasonal adjustment. Each
// intermediate quantity is rounded from the unrounded running product.
type Adjustment struct {
	Base            int        `json:"base"`
	AfterMonthPhase int        `json:"after_month_phase"`
	AfterSeason     int        `json:"after_season"`
	Final           int        `json:"final"`
	MonthPhase      MonthPhase `json:"month_phase"`
	Season          Season     `json:"season"`
	Rainy           bool       `json:"rainy"`
	MonthFactor     float64    `json:"month_factor"`
	SeasonFactor    float64    `json:"season_factor"`
	WeatherFactor   float64    `json:"weather_factor"`
}

// MonthPhaseOf classifies the day of month of date.
func MonthPhaseOf(date time.Time) MonthPhase {
	switch day := date.Day(); {
	case day <= 10:
		return PhaseEarly
	case day <= 20:
		return PhaseMid
	default:
		return PhaseLate
	}
}

// SeasonOf classifies the month of date.
func SeasonOf(date time.Time) Season {
	switch date.Month() {
	case time.January, time.February:
		return SeasonLow
	case time.July:
		return SeasonVacation
	case time.December:
		return SeasonHigh
	default:
		return SeasonRegular
	}
}

// Breakdown applies month phase, season and weather factors to baseline and
// reports every stage. A zero baseline yields a zero adjustment.
func Breakdown(baseline int, date time.Time, rainy bool) Adjustment {
	phase := MonthPhaseOf(date)
	season := SeasonOf(date)
	weather := normalFactor
	if rainy {
		weather = rainyFactor
	}

	adj := Adjustment{
		Base:          baseline,
		MonthPhase:    phase,
		Season:        season,
		Rainy:         rainy,
		MonthFactor:   monthPhaseFactors[phase],
		SeasonFactor:  seasonFactors[season],
		WeatherFactor: weather,
	}
	if baseline <= 0 {
		adj.Base = 0
		return adj
	}

	running := float64(baseline) * adj.MonthFactor
	adj.AfterMonthPhase = roundHalfUp(running)
	running *= adj.SeasonFactor
	adj.AfterSeason = roundHalfUp(running)
	running *= adj.WeatherFactor
	adj.Final = roundHalfUp(running)
	return adj
}

// Adjust returns the seasonally corrected quantity for baseline.
func Adjust(baseline int, date time.Time, rainy bool) int {
	return Breakdown(baseline, date, rainy).Final
}
