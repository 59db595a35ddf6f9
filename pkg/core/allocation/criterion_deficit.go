package allocation

import (
	"fmt"
	"slices"

	"github.com/jakechorley/exam-allocator/pkg/core/model"
)

// DeficitCriterion steers selection towards under-served groups.
//
// Affinity:
//   - Returns the weight the item's group (category or difficulty) still needs
//     to reach its target, or 0 once the target is met
//
// Validation:
//   - Reports groups that finish more than the tolerance short of their target
type DeficitCriterion struct {
	name           string
	label          string
	attribute      func(item *model.ContentItem) string
	targets        func(state *PaperState) map[string]int
	achieved       func(state *PaperState) map[string]int
	affinityWeight float64
	tolerance      int
}

// NewCategoryDeficitCriterion balances selected weight across categories
func NewCategoryDeficitCriterion(affinityWeight float64, tolerance int) *DeficitCriterion {
	return &DeficitCriterion{
		name:           "CategoryDeficit",
		label:          "Category",
		attribute:      func(item *model.ContentItem) string { return item.Category },
		targets:        func(state *PaperState) map[string]int { return state.CategoryTargets },
		achieved:       func(state *PaperState) map[string]int { return state.CategoryAchieved },
		affinityWeight: affinityWeight,
		tolerance:      tolerance,
	}
}

// NewDifficultyDeficitCriterion balances selected weight across difficulty levels
func NewDifficultyDeficitCriterion(affinityWeight float64, tolerance int) *DeficitCriterion {
	return &DeficitCriterion{
		name:           "DifficultyDeficit",
		label:          "Difficulty",
		attribute:      func(item *model.ContentItem) string { return item.Difficulty },
		targets:        func(state *PaperState) map[string]int { return state.DifficultyTargets },
		achieved:       func(state *PaperState) map[string]int { return state.DifficultyAchieved },
		affinityWeight: affinityWeight,
		tolerance:      tolerance,
	}
}

func (c *DeficitCriterion) Name() string {
	return c.name
}

func (c *DeficitCriterion) IsItemValid(state *PaperState, bucket *Bucket, item *model.ContentItem) bool {
	return true
}

func (c *DeficitCriterion) CalculateItemAffinity(state *PaperState, bucket *Bucket, item *model.ContentItem) float64 {
	key := c.attribute(item)
	deficit := c.targets(state)[key] - c.achieved(state)[key]
	return float64(max(deficit, 0))
}

func (c *DeficitCriterion) ValidatePaperState(state *PaperState) []ValidationIssue {
	var issues []ValidationIssue

	targets := c.targets(state)
	achieved := c.achieved(state)

	keys := make([]string, 0, len(targets))
	for key := range targets {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	for _, key := range keys {
		shortfall := targets[key] - achieved[key]
		if shortfall > c.tolerance {
			issues = append(issues, ValidationIssue{
				CriterionName: c.Name(),
				Description: fmt.Sprintf("%s %q is %d marks short: has %d of %d",
					c.label, key, shortfall, achieved[key], targets[key]),
			})
		}
	}

	return issues
}

func (c *DeficitCriterion) AffinityWeight() float64 {
	return c.affinityWeight
}
