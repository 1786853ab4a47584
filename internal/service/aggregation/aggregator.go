package aggregation

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/bakery/internal/domain/models"
)

// DefaultWastePercentage is the share of every batch assumed lost.
const DefaultWastePercentage = 10

// UnknownProducerName labels producer-days whose producer profile is missing.
const UnknownProducerName = "unknown producer"

var (
	hundred = decimal.NewFromInt(100)
	half    = decimal.NewFromFloat(0.5)
)

// Aggregate derives one DayAggregate per producer present in dateRecords.
// Records without a catalog entry are skipped; a missing producer profile
// counts as zero salary. The result is ordered by producer id.
func Aggregate(date string, dateRecords map[string]models.ProducerDay, catalog models.Catalog, producers models.Producers, wastePercentage decimal.Decimal) []models.DayAggregate {
	producerIDs := make([]string, 0, len(dateRecords))
	for id := range dateRecords {
		producerIDs = append(producerIDs, id)
	}
	sort.Strings(producerIDs)

	out := make([]models.DayAggregate, 0, len(producerIDs))
	for _, producerID := range producerIDs {
		producer, ok := producers[producerID]
		if !ok {
			producer = models.Producer{ID: producerID, Name: UnknownProducerName, SalaryCost: decimal.Zero}
		}
		out = append(out, AggregateDay(date, producer, dateRecords[producerID], catalog, wastePercentage))
	}
	return out
}

// AggregateDay derives the waste-aware metrics of a single producer-day.
// Planned products that have no quantity yet do not count toward completion.
func AggregateDay(date string, producer models.Producer, records models.ProducerDay, catalog models.Catalog, wastePercentage decimal.Decimal) models.DayAggregate {
	keepRatio := decimal.NewFromInt(1).Sub(wastePercentage.Div(hundred))

	var (
		totalQuantity  int
		totalItems     int
		completedItems int
		totalSales     = decimal.Zero
	)
	for productID, record := range records {
		product, ok := catalog[productID]
		if !ok || record.Quantity == 0 {
			continue
		}

		effectiveUnits := decimal.NewFromInt(int64(record.Quantity)).Mul(keepRatio).Floor()
		totalQuantity += record.Quantity
		totalSales = totalSales.Add(effectiveUnits.Mul(product.SalePrice))
		totalItems++
		if record.Completed {
			completedItems++
		}
	}

	wasteQuantity := int(decimal.NewFromInt(int64(totalQuantity)).Mul(wastePercentage).Div(hundred).Floor().IntPart())
	completion := percentage(completedItems, totalItems)

	salary := producer.SalaryCost
	var laborCost int64
	if totalSales.IsPositive() {
		laborCost = roundHalfUp(salary.Div(totalSales).Mul(hundred))
	}

	return models.DayAggregate{
		Date:                 date,
		ProducerID:           producer.ID,
		ProducerName:         producer.Name,
		TotalQuantity:        totalQuantity,
		WasteQuantity:        wasteQuantity,
		EffectiveQuantity:    totalQuantity - wasteQuantity,
		WastePercentage:      wastePercentage,
		TotalSales:           totalSales,
		SalaryCost:           salary,
		LaborCostPercentage:  laborCost,
		CompletionPercentage: completion,
		Status:               statusFor(completion),
		Records:              records,
	}
}

// AggregateCosts derives the cost-centric summary of a producer-day: sales
// and fixed costs on raw quantities, with performance measured against salary.
// Every catalog record counts toward completion, planned ones included.
func AggregateCosts(records models.ProducerDay, catalog models.Catalog, salaryCost decimal.Decimal) models.CostSummary {
	var (
		totalItems     int
		completedItems int
		totalCost      = decimal.Zero
		totalSales     = decimal.Zero
	)
	for productID, record := range records {
		product, ok := catalog[productID]
		if !ok {
			continue
		}
		qty := decimal.NewFromInt(int64(record.Quantity))
		totalCost = totalCost.Add(qty.Mul(product.FixedCost))
		totalSales = totalSales.Add(qty.Mul(product.SalePrice))
		totalItems++
		if record.Completed {
			completedItems++
		}
	}

	netIncome := totalSales.Sub(totalCost)
	var performance int64
	if !salaryCost.IsZero() {
		performance = roundHalfUp(netIncome.Sub(salaryCost).Div(salaryCost).Mul(hundred))
	}
	completion := percentage(completedItems, totalItems)

	return models.CostSummary{
		TotalCost:            totalCost,
		TotalSales:           totalSales,
		NetIncome:            netIncome,
		SalaryCost:           salaryCost,
		Performance:          performance,
		CompletionPercentage: completion,
		Status:               statusFor(completion),
	}
}

// ProductStats sums quantities per catalog product across producers. An
// empty producerFilter includes every producer. Output is ordered by product name.
func ProductStats(dateRecords map[string]models.ProducerDay, catalog models.Catalog, producerFilter string) []models.ProductStat {
	stats := make([]models.ProductStat, 0, len(catalog))
	for productID, product := range catalog {
		stat := models.ProductStat{ProductID: productID, ProductName: product.Name}
		for producerID, day := range dateRecords {
			if producerFilter != "" && producerID != producerFilter {
				continue
			}
			record, ok := day[productID]
			if !ok {
				continue
			}
			stat.TotalQuantity += record.Quantity
			if record.Completed {
				stat.CompletedQuantity += record.Quantity
			}
		}
		stats = append(stats, stat)
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].ProductName == stats[j].ProductName {
			return stats[i].ProductID < stats[j].ProductID
		}
		return stats[i].ProductName < stats[j].ProductName
	})
	return stats
}

func percentage(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Floor(float64(part)/float64(total)*100 + 0.5))
}

// roundHalfUp rounds .5 towards positive infinity, negatives included.
func roundHalfUp(d decimal.Decimal) int64 {
	return d.Add(half).Floor().IntPart()
}

func statusFor(completion int) models.ProductionStatus {
	if completion == 100 {
		return models.StatusCompleted
	}
	return models.StatusInProgress
}
