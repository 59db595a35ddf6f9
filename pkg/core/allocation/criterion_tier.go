package allocation

import "github.com/jakechorley/exam-allocator/pkg/core/model"

// TierCriterion favours high-priority items.
//
// Affinity:
//   - Returns the configured bonus for the item's tier (0 for unknown tiers)
type TierCriterion struct {
	bonus          map[model.Tier]float64
	affinityWeight float64
}

// NewTierCriterion creates a new TierCriterion with the given bonus table and weight
func NewTierCriterion(bonus map[model.Tier]float64, affinityWeight float64) *TierCriterion {
	return &TierCriterion{
		bonus:          bonus,
		affinityWeight: affinityWeight,
	}
}

func (c *TierCriterion) Name() string {
	return "Tier"
}

func (c *TierCriterion) IsItemValid(state *PaperState, bucket *Bucket, item *model.ContentItem) bool {
	return true
}

func (c *TierCriterion) CalculateItemAffinity(state *PaperState, bucket *Bucket, item *model.ContentItem) float64 {
	return c.bonus[item.Tier]
}

func (c *TierCriterion) ValidatePaperState(state *PaperState) []ValidationIssue {
	return nil
}

func (c *TierCriterion) AffinityWeight() float64 {
	return c.affinityWeight
}
