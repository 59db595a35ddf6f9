package allocation

import (
	"math"
	"slices"
	"sort"

	"github.com/jakechorley/exam-allocator/pkg/core/model"
)

// Selector fills bucket quotas from a content pool using deficit-driven greedy selection
type Selector struct {
	criteria    []Criterion
	jitterScale float64
	rng         RandomSource
}

// NewSelector creates a selector from the given settings. When no criteria are passed
// the defaults built from settings are used. A nil rng disables jitter.
func NewSelector(settings Settings, rng RandomSource, criteria ...Criterion) *Selector {
	if len(criteria) == 0 {
		criteria = DefaultCriteria(settings)
	}
	return &Selector{
		criteria:    criteria,
		jitterScale: settings.JitterScale,
		rng:         rng,
	}
}

// Select fills each quota in order from the pool.
//
// Buckets are processed in the order given; earlier buckets get first claim on scarce
// items. Within a bucket the highest-scoring valid candidate is placed until the quota
// is met or no valid candidate remains. Category and difficulty counters are shared
// across buckets so later buckets see the deficits left by earlier ones.
//
// An item id is never placed twice. Buckets that cannot be filled are reported in the
// result rather than treated as failures.
func (s *Selector) Select(pool []model.ContentItem, quotas []BucketQuota, targets Targets) *AllocationResult {
	state := newPaperState(quotas, targets)

	for _, bucket := range state.Buckets {
		candidates := candidatesFor(pool, bucket.ID)

		for !bucket.IsFull() {
			best := s.findBestItem(state, bucket, candidates)

			// Candidate pool exhausted for this bucket
			if best == nil {
				break
			}

			state.place(bucket, *best)
		}
	}

	return buildResult(state, s.criteria)
}

// Select runs a single selection with the default criteria
func Select(pool []model.ContentItem, quotas []BucketQuota, targets Targets, settings Settings, rng RandomSource) *AllocationResult {
	return NewSelector(settings, rng).Select(pool, quotas, targets)
}

// findBestItem returns the valid candidate with the highest score, or nil if none remain.
// Exact score ties go to the candidate that appears first in the pool.
func (s *Selector) findBestItem(state *PaperState, bucket *Bucket, candidates []*model.ContentItem) *model.ContentItem {
	var best *model.ContentItem
	bestScore := math.Inf(-1)

	for _, item := range candidates {
		if !IsItemValidForBucket(state, bucket, item, s.criteria) {
			continue
		}

		score := CalculateItemAffinity(state, bucket, item, s.criteria) + s.jitter()

		if best == nil || score > bestScore {
			bestScore = score
			best = item
		}
	}

	return best
}

func (s *Selector) jitter() float64 {
	if s.rng == nil || s.jitterScale <= 0 {
		return 0
	}
	return s.rng.Float64() * s.jitterScale
}

// candidatesFor returns pointers to the pool items tagged for the bucket
func candidatesFor(pool []model.ContentItem, bucketID string) []*model.ContentItem {
	var candidates []*model.ContentItem
	for i := range pool {
		if pool[i].Bucket == bucketID {
			candidates = append(candidates, &pool[i])
		}
	}
	return candidates
}

func fillStatus(bucket *Bucket) FillStatus {
	if !bucket.HasQuota() {
		return FillStatusMet
	}
	if bucket.IsEmpty() {
		return FillStatusEmpty
	}
	if bucket.TargetWeight > 0 {
		if bucket.AchievedWeight >= bucket.TargetWeight {
			return FillStatusMet
		}
		return FillStatusUnderfilled
	}
	if len(bucket.Items) >= bucket.TargetCount {
		return FillStatusMet
	}
	return FillStatusUnderfilled
}

// buildResult creates the final report from a finished run
func buildResult(state *PaperState, criteria []Criterion) *AllocationResult {
	// Initialize with empty slices (not nil) for easier consumption
	result := &AllocationResult{
		Buckets:      make([]BucketResult, 0, len(state.Buckets)),
		Categories:   []AttributeSummary{},
		Difficulties: []AttributeSummary{},
		Tiers:        []TierSummary{},
		Issues:       []ValidationIssue{},
		UnknownIDs:   []string{},
		UnplacedIDs:  []string{},
	}

	categoryCounts := make(map[string]int)
	difficultyCounts := make(map[string]int)
	tierCounts := make(map[model.Tier]int)
	tierWeights := make(map[model.Tier]int)

	for _, bucket := range state.Buckets {
		result.Buckets = append(result.Buckets, BucketResult{
			ID:             bucket.ID,
			Label:          bucket.Label,
			Items:          slices.Clone(bucket.Items),
			AchievedWeight: bucket.AchievedWeight,
			TargetWeight:   bucket.TargetWeight,
			TargetCount:    bucket.TargetCount,
			Status:         fillStatus(bucket),
		})

		result.AchievedWeight += bucket.AchievedWeight
		result.TargetWeight += bucket.TargetWeight

		for _, item := range bucket.Items {
			categoryCounts[item.Category]++
			difficultyCounts[item.Difficulty]++
			tierCounts[item.Tier]++
			tierWeights[item.Tier] += item.Weight
		}
	}

	result.Categories = summarize(state.CategoryTargets, state.CategoryAchieved, categoryCounts)
	result.Difficulties = summarize(state.DifficultyTargets, state.DifficultyAchieved, difficultyCounts)
	result.Tiers = summarizeTiers(tierCounts, tierWeights)
	result.Issues = ValidatePaperState(state, criteria)

	return result
}

// summarize merges targets and achieved counters into a list sorted by key
func summarize(targets, achieved map[string]int, counts map[string]int) []AttributeSummary {
	keys := make(map[string]bool)
	for key := range targets {
		keys[key] = true
	}
	for key := range achieved {
		keys[key] = true
	}

	summaries := make([]AttributeSummary, 0, len(keys))
	for key := range keys {
		summaries = append(summaries, AttributeSummary{
			Key:            key,
			TargetWeight:   targets[key],
			AchievedWeight: achieved[key],
			ItemCount:      counts[key],
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Key < summaries[j].Key
	})

	return summaries
}

// summarizeTiers lists known tiers in rank order followed by any unknown tiers by name
func summarizeTiers(counts map[model.Tier]int, weights map[model.Tier]int) []TierSummary {
	summaries := make([]TierSummary, 0, len(counts))
	for _, tier := range model.Tiers {
		if counts[tier] > 0 {
			summaries = append(summaries, TierSummary{Tier: tier, ItemCount: counts[tier], Weight: weights[tier]})
		}
	}

	var unknown []model.Tier
	for tier := range counts {
		if !tier.IsValid() {
			unknown = append(unknown, tier)
		}
	}
	slices.Sort(unknown)
	for _, tier := range unknown {
		summaries = append(summaries, TierSummary{Tier: tier, ItemCount: counts[tier], Weight: weights[tier]})
	}

	return summaries
}
