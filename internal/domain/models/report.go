package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductionStatus is the completion state of a producer-day.
type ProductionStatus string

const (
	StatusCompleted  ProductionStatus = "completed"
	StatusInProgress ProductionStatus = "in-progress"
)

// DayAggregate is the derived financial and operational view of one producer-day.
type DayAggregate struct {
	Date                 string           `json:"date"`
	ProducerID           string           `json:"producer_id"`
	ProducerName         string           `json:"producer_name"`
	TotalQuantity        int              `json:"total_quantity"`
	WasteQuantity        int              `json:"waste_quantity"`
	EffectiveQuantity    int              `json:"effective_quantity"`
	WastePercentage      decimal.Decimal  `json:"waste_percentage"`
	TotalSales           decimal.Decimal  `json:"total_sales"`
	SalaryCost           decimal.Decimal  `json:"salary_cost"`
	LaborCostPercentage  int64            `json:"labor_cost_percentage"`
	CompletionPercentage int              `json:"completion_percentage"`
	Status               ProductionStatus `json:"status"`
	Records              ProducerDay      `json:"records"`
}

// CostSummary is the cost-centric view of one producer-day.
type CostSummary struct {
	TotalCost            decimal.Decimal  `json:"total_cost"`
	TotalSales           decimal.Decimal  `json:"total_sales"`
	NetIncome            decimal.Decimal  `json:"net_income"`
	SalaryCost           decimal.Decimal  `json:"salary_cost"`
	Performance          int64            `json:"performance"`
	CompletionPercentage int              `json:"completion_percentage"`
	Status               ProductionStatus `json:"status"`
}

// ProductStat sums one product's output across producers for a date.
type ProductStat struct {
	ProductID         string `json:"product_id"`
	ProductName       string `json:"product_name"`
	TotalQuantity     int    `json:"total_quantity"`
	CompletedQuantity int    `json:"completed_quantity"`
}

// DailyReport is the snapshot of a producer-day stored for reporting.
type DailyReport struct {
	ID                   string    `bson:"_id" json:"id"`
	Date                 string    `bson:"date" json:"date"`
	ProducerID           string    `bson:"producer_id" json:"producer_id"`
	ProducerName         string    `bson:"producer_name" json:"producer_name"`
	TotalQuantity        int       `bson:"total_quantity" json:"total_quantity"`
	WasteQuantity        int       `bson:"waste_quantity" json:"waste_quantity"`
	EffectiveQuantity    int       `bson:"effective_quantity" json:"effective_quantity"`
	TotalSales           string    `bson:"total_sales" json:"total_sales"`
	SalaryCost           string    `bson:"salary_cost" json:"salary_cost"`
	LaborCostPercentage  int64     `bson:"labor_cost_percentage" json:"labor_cost_percentage"`
	CompletionPercentage int       `bson:"completion_percentage" json:"completion_percentage"`
	Status               string    `bson:"status" json:"status"`
	CreatedAt            time.Time `bson:"created_at" json:"created_at"`
}

// NewDailyReport converts an aggregate into its stored snapshot.
func NewDailyReport(agg DayAggregate, createdAt time.Time) DailyReport {
	return DailyReport{
		ID:                   ReportID(agg.Date, agg.ProducerID),
		Date:                 agg.Date,
		ProducerID:           agg.ProducerID,
		ProducerName:         agg.ProducerName,
		TotalQuantity:        agg.TotalQuantity,
		WasteQuantity:        agg.WasteQuantity,
		EffectiveQuantity:    agg.EffectiveQuantity,
		TotalSales:           agg.TotalSales.String(),
		SalaryCost:           agg.SalaryCost.String(),
		LaborCostPercentage:  agg.LaborCostPercentage,
		CompletionPercentage: agg.CompletionPercentage,
		Status:               string(agg.Status),
		CreatedAt:            createdAt,
	}
}

// ReportID keys the snapshot of one producer-day so reruns replace it.
func ReportID(date, producerID string) string {
	return date + "/" + producerID
}
