package allocation

import "github.com/jakechorley/exam-allocator/pkg/core/model"

// Criterion defines the interface for selection criteria.
// Criteria decide which items may enter a bucket and how attractive each one is.
type Criterion interface {
	// Name returns a human-readable identifier for this criterion
	Name() string

	// IsItemValid determines if an item may be placed in the bucket right now.
	// This acts as a veto - if ANY criterion returns false, the item is skipped.
	IsItemValid(state *PaperState, bucket *Bucket, item *model.ContentItem) bool

	// CalculateItemAffinity returns the raw score of placing the item in the bucket.
	// The value is multiplied by AffinityWeight. Higher is better; negative values penalise.
	// Return 0 if this criterion doesn't affect scoring.
	CalculateItemAffinity(state *PaperState, bucket *Bucket, item *model.ContentItem) float64

	// ValidatePaperState checks the final paper against this criterion's requirements.
	// Returns the issues found (empty if all valid).
	ValidatePaperState(state *PaperState) []ValidationIssue

	// AffinityWeight returns the multiplier applied to CalculateItemAffinity
	AffinityWeight() float64
}

// DefaultCriteria builds the standard criteria from the given settings
func DefaultCriteria(settings Settings) []Criterion {
	return []Criterion{
		NewTierCriterion(settings.TierBonus, settings.TierWeight),
		NewCategoryDeficitCriterion(settings.CategoryCoefficient, settings.OvershootTolerance),
		NewDifficultyDeficitCriterion(settings.SecondaryCoefficient, settings.OvershootTolerance),
		NewOversizeCriterion(settings.OversizePenalty),
		NewBucketCapacityCriterion(settings.OvershootTolerance),
	}
}

// IsItemValidForBucket returns true if the item is tagged for the bucket, has not been
// used anywhere in the run and no criterion vetoes it
func IsItemValidForBucket(state *PaperState, bucket *Bucket, item *model.ContentItem, criteria []Criterion) bool {
	if item.Bucket != bucket.ID {
		return false
	}

	if state.Used[item.ID] {
		return false
	}

	for _, criterion := range criteria {
		if !criterion.IsItemValid(state, bucket, item) {
			return false
		}
	}

	return true
}

// CalculateItemAffinity sums the weighted affinity of every criterion.
// It does not check validity; call IsItemValidForBucket first.
func CalculateItemAffinity(state *PaperState, bucket *Bucket, item *model.ContentItem, criteria []Criterion) float64 {
	total := 0.0
	for _, criterion := range criteria {
		total += criterion.CalculateItemAffinity(state, bucket, item) * criterion.AffinityWeight()
	}
	return total
}

// ValidatePaperState collects the issues reported by every criterion
func ValidatePaperState(state *PaperState, criteria []Criterion) []ValidationIssue {
	issues := []ValidationIssue{}
	for _, criterion := range criteria {
		issues = append(issues, criterion.ValidatePaperState(state)...)
	}
	return issues
}
