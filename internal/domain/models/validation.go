package models

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateDate checks that value is a production date key.
func ValidateDate(value string) error {
	if value == "" {
		return Invalid("date", "date is required")
	}
	if _, err := ParseDate(value); err != nil {
		return Invalid("date", fmt.Sprintf("date %q must use the YYYY-MM-DD format", value))
	}
	return nil
}

// ValidateID checks that an identifier was provided.
func ValidateID(field, value string) error {
	if err := validate.Var(value, "required,max=128"); err != nil {
		return Invalid(field, fmt.Sprintf("%s is required and must be at most 128 characters", field))
	}
	return nil
}

// ValidateRecord checks a single production record.
func ValidateRecord(productID string, record ProductionRecord) error {
	if err := ValidateID("product_id", productID); err != nil {
		return err
	}
	if err := validate.Struct(record); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return Invalid("quantity", fmt.Sprintf("invalid quantity %d for product %s", record.Quantity, productID))
		}
		return Invalid("", err.Error())
	}
	if record.Completed && record.Quantity == 0 {
		return Invalid("completed", fmt.Sprintf("product %s has no quantity to complete", productID))
	}
	return nil
}

// ValidateDay checks every record of a producer-day in a stable order. A day
// with nothing left to persist after pruning is rejected.
func ValidateDay(day ProducerDay) error {
	ids := make([]string, 0, len(day))
	for id := range day {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if err := ValidateRecord(id, day[id]); err != nil {
			return err
		}
	}
	if len(day.Pruned()) == 0 {
		return Invalid("products", "at least one product needs a quantity or a selection")
	}
	return nil
}

// ValidateCostPrice checks a cost item unit price.
func ValidateCostPrice(price float64) error {
	switch {
	case math.IsNaN(price):
		return Invalid("price_per_unit", "price must be a valid number")
	case price <= 0:
		return Invalid("price_per_unit", "price must be greater than 0")
	case price > 1000000:
		return Invalid("price_per_unit", "price is too high")
	}
	return nil
}

// ValidateCostLines checks the recipe lines of a product.
func ValidateCostLines(lines []ProductCostLine) error {
	for _, line := range lines {
		if line.CostID == "" {
			return Invalid("cost_id", "cost id is required")
		}
		switch {
		case math.IsNaN(line.Quantity):
			return Invalid("quantity", "quantity must be a valid number")
		case line.Quantity <= 0:
			return Invalid("quantity", "quantity must be greater than 0")
		case line.Quantity > 10000:
			return Invalid("quantity", "quantity is too high")
		}
	}
	return nil
}

// ValidateCost checks the descriptive fields of a cost item.
func ValidateCost(cost CostItem) error {
	if err := validate.Struct(cost); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			field := strings.ToLower(fieldErrs[0].Field())
			return Invalid(field, fmt.Sprintf("%s is required", field))
		}
		return Invalid("", err.Error())
	}
	return nil
}
