package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is the slice of the products service's aggregate needed for
// pricing and inventory checks.
type Product struct {
	ID           uuid.UUID       `json:"id"`
	Title        string          `json:"title"`
	Price        Price           `json:"price"`
	Inventory    uint32          `json:"inventory"`
	WeightGrams  decimal.Decimal `json:"weight_grams"`
	TaxCategory  string          `json:"tax_category,omitempty"`
	TaxInclusive bool            `json:"tax_inclusive"`
}

// TaxRate holds the tax percentages for a destination address: a general rate
// plus category-specific overrides.
type TaxRate struct {
	General    float64            `json:"general"`
	Categories map[string]float64 `json:"categories,omitempty"`
}

// RateFor returns the rate for a tax category, falling back to the general
// rate when no category-specific override exists.
func (t *TaxRate) RateFor(category string) float64 {
	if category != "" {
		if rate, ok := t.Categories[category]; ok {
			return rate
		}
	}
	return t.General
}
