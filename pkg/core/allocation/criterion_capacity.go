package allocation

import (
	"fmt"

	"github.com/jakechorley/exam-allocator/pkg/core/model"
)

// BucketCapacityCriterion keeps buckets close to their quota.
//
// Validity:
//   - An empty bucket accepts any item, so every bucket with candidates gets at least one
//   - Returns false once the bucket holds TargetCount items
//   - Returns false if the item would push the bucket more than the tolerance past its target weight
//
// Validation:
//   - Reports empty, underfilled and overfilled buckets
type BucketCapacityCriterion struct {
	tolerance int
}

// NewBucketCapacityCriterion creates a new BucketCapacityCriterion with the given overshoot tolerance
func NewBucketCapacityCriterion(tolerance int) *BucketCapacityCriterion {
	return &BucketCapacityCriterion{tolerance: max(tolerance, 0)}
}

func (c *BucketCapacityCriterion) Name() string {
	return "BucketCapacity"
}

func (c *BucketCapacityCriterion) IsItemValid(state *PaperState, bucket *Bucket, item *model.ContentItem) bool {
	if bucket.IsEmpty() {
		return true
	}

	if bucket.TargetCount > 0 && len(bucket.Items) >= bucket.TargetCount {
		return false
	}

	if bucket.TargetWeight > 0 && bucket.AchievedWeight+item.Weight > bucket.TargetWeight+c.tolerance {
		return false
	}

	return true
}

func (c *BucketCapacityCriterion) CalculateItemAffinity(state *PaperState, bucket *Bucket, item *model.ContentItem) float64 {
	return 0
}

func (c *BucketCapacityCriterion) ValidatePaperState(state *PaperState) []ValidationIssue {
	var issues []ValidationIssue

	for _, bucket := range state.Buckets {
		if !bucket.HasQuota() {
			continue
		}

		switch fillStatus(bucket) {
		case FillStatusEmpty:
			issues = append(issues, ValidationIssue{
				BucketID:      bucket.ID,
				CriterionName: c.Name(),
				Description:   fmt.Sprintf("Bucket is empty: no eligible items for a target of %s", describeTarget(bucket)),
			})
		case FillStatusUnderfilled:
			issues = append(issues, ValidationIssue{
				BucketID:      bucket.ID,
				CriterionName: c.Name(),
				Description: fmt.Sprintf("Bucket is underfilled: has %d marks in %d items but target is %s",
					bucket.AchievedWeight, len(bucket.Items), describeTarget(bucket)),
			})
		}

		if bucket.TargetWeight > 0 && bucket.AchievedWeight > bucket.TargetWeight+c.tolerance {
			issues = append(issues, ValidationIssue{
				BucketID:      bucket.ID,
				CriterionName: c.Name(),
				Description: fmt.Sprintf("Bucket is overfilled: has %d marks but target is %d",
					bucket.AchievedWeight, bucket.TargetWeight),
			})
		}
	}

	return issues
}

func (c *BucketCapacityCriterion) AffinityWeight() float64 {
	return 0
}

func describeTarget(bucket *Bucket) string {
	if bucket.TargetWeight > 0 {
		return fmt.Sprintf("%d marks", bucket.TargetWeight)
	}
	return fmt.Sprintf("%d items", bucket.TargetCount)
}
