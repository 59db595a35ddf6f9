package content

import (
	"slices"

	"github.com/jakechorley/exam-allocator/pkg/core/model"
)

// WeightTable maps a category to its declared weightage percentage.
// The zero value is an empty table.
type WeightTable struct {
	order    []string
	percents map[string]float64
}

// NewWeightTable builds a table from declared weights. Later duplicates overwrite
// earlier ones but keep the first position. Negative percentages are clamped to 0.
func NewWeightTable(weights []model.CategoryWeight) WeightTable {
	table := WeightTable{
		percents: make(map[string]float64, len(weights)),
	}
	for _, w := range weights {
		if _, exists := table.percents[w.Category]; !exists {
			table.order = append(table.order, w.Category)
		}
		table.percents[w.Category] = max(w.Percent, 0)
	}
	return table
}

// Percent returns the declared percentage for a category, 0 when it is missing
func (t WeightTable) Percent(category string) float64 {
	return t.percents[category]
}

// Has reports whether the category was declared
func (t WeightTable) Has(category string) bool {
	_, ok := t.percents[category]
	return ok
}

// Len returns the number of declared categories
func (t WeightTable) Len() int {
	return len(t.order)
}

// Total returns the sum of every declared percentage
func (t WeightTable) Total() float64 {
	total := 0.0
	for _, category := range t.order {
		total += t.percents[category]
	}
	return total
}

// Categories returns the declared categories in declaration order
func (t WeightTable) Categories() []string {
	return slices.Clone(t.order)
}

// Weights returns the table as apportionment weights in declaration order
func (t WeightTable) Weights() []model.Weight {
	weights := make([]model.Weight, 0, len(t.order))
	for _, category := range t.order {
		weights = append(weights, model.Weight{Key: category, Percent: t.percents[category]})
	}
	return weights
}
