package allocation

import (
	"fmt"
	"math"

	"github.com/jakechorley/exam-allocator/pkg/content"
	"github.com/jakechorley/exam-allocator/pkg/core/model"
)

// PaperRequest contains the inputs of a paper build.
// Pool and CategoryWeights are read-only for the duration of the run.
type PaperRequest struct {
	// Pool is the question bank to select from
	Pool *content.Repository

	// Buckets are the exam sections to fill, in processing order
	Buckets []BucketQuota

	// CategoryWeights is the topic weightage table
	CategoryWeights content.WeightTable

	// DifficultyWeights overrides Settings.DifficultyRatio when non-empty
	DifficultyWeights []model.Weight

	// AllowList, when non-nil, switches to a curated paper built from exactly these ids
	AllowList []string
}

// BuildPaper builds an exam paper from the pool.
//
// Category targets come from the weightage table scaled to the paper's total target
// weight; difficulty targets come from the global difficulty ratio. A single greedy
// selection then runs across every bucket in order.
//
// When req.AllowList is non-nil selection is skipped and BuildCuratedPaper is used.
//
// Returns an empty result when no buckets are defined and an *InputError when the
// bucket definitions are malformed.
func BuildPaper(req PaperRequest, settings Settings, rng RandomSource) (*AllocationResult, error) {
	if err := validateQuotas(req.Buckets); err != nil {
		return nil, err
	}

	if req.AllowList != nil {
		return BuildCuratedPaper(req, settings)
	}

	if len(req.Buckets) == 0 {
		return buildResult(newPaperState(nil, Targets{}), nil), nil
	}

	pool := req.Pool.Items()
	targets := paperTargets(req, settings, pool)

	return NewSelector(settings, rng).Select(pool, req.Buckets, targets), nil
}

// BuildCuratedPaper places exactly the allow-listed items into their buckets, in
// allow-list order, without running selection.
//
// Repeated ids are placed once. Ids missing from the pool are reported in UnknownIDs;
// items whose bucket is not part of the paper are reported in UnplacedIDs. Targets and
// summaries are computed the same way as for a generated paper.
func BuildCuratedPaper(req PaperRequest, settings Settings) (*AllocationResult, error) {
	if err := validateQuotas(req.Buckets); err != nil {
		return nil, err
	}

	pool := req.Pool.Items()
	state := newPaperState(req.Buckets, paperTargets(req, settings, pool))

	bucketByID := make(map[string]*Bucket, len(state.Buckets))
	for _, bucket := range state.Buckets {
		bucketByID[bucket.ID] = bucket
	}

	var unknown, unplaced []string
	seen := make(map[string]bool)

	for _, id := range req.AllowList {
		if seen[id] {
			continue
		}
		seen[id] = true

		item, ok := req.Pool.Get(id)
		if !ok {
			unknown = append(unknown, id)
			continue
		}

		bucket, ok := bucketByID[item.Bucket]
		if !ok {
			unplaced = append(unplaced, id)
			continue
		}

		state.place(bucket, item)
	}

	// Only the capacity check is meaningful for a hand-picked paper
	result := buildResult(state, []Criterion{NewBucketCapacityCriterion(settings.OvershootTolerance)})
	result.Curated = true
	if unknown != nil {
		result.UnknownIDs = unknown
	}
	if unplaced != nil {
		result.UnplacedIDs = unplaced
	}

	return result, nil
}

// paperTargets computes the category and difficulty targets for a paper
func paperTargets(req PaperRequest, settings Settings, pool []model.ContentItem) Targets {
	grandTotal := GrandTotalWeight(req.Buckets, pool)

	difficultyWeights := req.DifficultyWeights
	if len(difficultyWeights) == 0 {
		difficultyWeights = settings.DifficultyRatio
	}

	return Targets{
		Category:   CategoryTargets(req.CategoryWeights, req.Pool.Categories(), grandTotal),
		Difficulty: Apportion(grandTotal, difficultyWeights),
	}
}

// GrandTotalWeight returns the sum of every bucket's target weight. Buckets with only a
// target count contribute that count times the mean weight of their eligible items.
func GrandTotalWeight(quotas []BucketQuota, pool []model.ContentItem) int {
	total := 0
	for _, quota := range quotas {
		if quota.TargetWeight > 0 {
			total += quota.TargetWeight
			continue
		}
		if quota.TargetCount <= 0 {
			continue
		}

		sum, count := 0, 0
		for _, item := range pool {
			if item.Bucket == quota.ID {
				sum += item.Weight
				count++
			}
		}
		if count > 0 {
			total += int(math.Round(float64(quota.TargetCount) * float64(sum) / float64(count)))
		}
	}
	return total
}

// CategoryTargets apportions total across categories according to the weightage table.
//
// Categories present in the pool but missing from the table get a weight of 0. When
// every weight is 0 (or the table is empty) the total is split uniformly.
func CategoryTargets(table content.WeightTable, poolCategories []string, total int) map[string]int {
	weights := table.Weights()
	for _, category := range poolCategories {
		if !table.Has(category) {
			weights = append(weights, model.Weight{Key: category, Percent: 0})
		}
	}
	return Apportion(total, weights)
}

// validateQuotas rejects negative targets and repeated bucket ids
func validateQuotas(quotas []BucketQuota) error {
	seen := make(map[string]bool, len(quotas))
	for i, quota := range quotas {
		if quota.ID == "" {
			return &InputError{Message: fmt.Sprintf("bucket %d has no id", i)}
		}
		if seen[quota.ID] {
			return &InputError{Message: fmt.Sprintf("duplicate bucket id %q", quota.ID)}
		}
		seen[quota.ID] = true

		if quota.TargetWeight < 0 || quota.TargetCount < 0 {
			return &InputError{Message: fmt.Sprintf("bucket %q has a negative target", quota.ID)}
		}
	}
	return nil
}
