package allocation

import (
	"math"
	"sort"

	"github.com/jakechorley/exam-allocator/pkg/content"
	"github.com/jakechorley/exam-allocator/pkg/core/model"
)

// PlanCategory is a topic competing for a share of the study budget
type PlanCategory struct {
	Key            string
	Label          string
	DeclaredWeight float64
	Tier           model.Tier
}

// ResourceAllocationRow is one topic's share of the study budget
type ResourceAllocationRow struct {
	Category       string
	Label          string
	Tier           model.Tier
	DeclaredWeight float64
	Allocated      float64 // Rounded to one decimal
}

// BuildResourcePlan distributes totalBudget (e.g. study hours) across categories.
//
// Each category's effective weight is its declared weight times its tier multiplier;
// it receives totalBudget * effective / Σeffective, rounded to one decimal. When no
// category has a positive effective weight the budget is split evenly.
//
// Rows are ordered by tier (must-crack first), then by declared weight descending,
// then by input order.
//
// Returns an empty plan if totalBudget is non-positive or not finite, or if there are
// no categories.
func BuildResourcePlan(categories []PlanCategory, totalBudget float64, multipliers TierMultipliers) []ResourceAllocationRow {
	rows := []ResourceAllocationRow{}

	if totalBudget <= 0 || math.IsNaN(totalBudget) || math.IsInf(totalBudget, 0) {
		return rows
	}
	if len(categories) == 0 {
		return rows
	}

	declared := make([]float64, len(categories))
	largest := 0.0
	for i, category := range categories {
		weight := category.DeclaredWeight
		if weight < 0 || math.IsNaN(weight) || math.IsInf(weight, 0) {
			weight = 0
		}
		declared[i] = weight
		largest = max(largest, weight)
	}

	// Scaling by the largest declared weight keeps the products finite
	effective := make([]float64, len(categories))
	for i, category := range categories {
		if largest > 0 {
			effective[i] = declared[i] / largest * multipliers.Multiplier(category.Tier)
		}
	}
	sum := finiteSum(effective)

	// Uniform fallback when nothing carries weight
	if sum == 0 {
		for i := range effective {
			effective[i] = 1
		}
		sum = float64(len(effective))
	}

	for i, category := range categories {
		rows = append(rows, ResourceAllocationRow{
			Category:       category.Key,
			Label:          category.Label,
			Tier:           category.Tier,
			DeclaredWeight: category.DeclaredWeight,
			Allocated:      roundTo(totalBudget*effective[i]/sum, 1),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Tier.Rank() != rows[j].Tier.Rank() {
			return rows[i].Tier.Rank() < rows[j].Tier.Rank()
		}
		return rows[i].DeclaredWeight > rows[j].DeclaredWeight
	})

	return rows
}

// PlanFromWeightTable turns a weightage table into plan categories. tierOf assigns each
// category its tier; labels default to the category key.
func PlanFromWeightTable(table content.WeightTable, tierOf func(category string) model.Tier) []PlanCategory {
	categories := make([]PlanCategory, 0, table.Len())
	for _, category := range table.Categories() {
		categories = append(categories, PlanCategory{
			Key:            category,
			Label:          category,
			DeclaredWeight: table.Percent(category),
			Tier:           tierOf(category),
		})
	}
	return categories
}

// TotalAllocated sums the allocated amount of every row
func TotalAllocated(rows []ResourceAllocationRow) float64 {
	total := 0.0
	for _, row := range rows {
		total += row.Allocated
	}
	return roundTo(total, 1)
}
