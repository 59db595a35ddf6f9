package allocation

import "github.com/jakechorley/exam-allocator/pkg/core/model"

// OversizeCriterion nudges selection away from items larger than the space left in a bucket.
//
// Affinity:
//   - Returns minus the weight the item would add beyond the bucket's target weight
//   - Returns 0 for buckets without a target weight
type OversizeCriterion struct {
	affinityWeight float64
}

// NewOversizeCriterion creates a new OversizeCriterion with the given penalty weight
func NewOversizeCriterion(affinityWeight float64) *OversizeCriterion {
	return &OversizeCriterion{affinityWeight: affinityWeight}
}

func (c *OversizeCriterion) Name() string {
	return "Oversize"
}

func (c *OversizeCriterion) IsItemValid(state *PaperState, bucket *Bucket, item *model.ContentItem) bool {
	return true
}

func (c *OversizeCriterion) CalculateItemAffinity(state *PaperState, bucket *Bucket, item *model.ContentItem) float64 {
	if bucket.TargetWeight == 0 {
		return 0
	}
	excess := item.Weight - bucket.RemainingWeight()
	return -float64(max(excess, 0))
}

func (c *OversizeCriterion) ValidatePaperState(state *PaperState) []ValidationIssue {
	return nil
}

func (c *OversizeCriterion) AffinityWeight() float64 {
	return c.affinityWeight
}
