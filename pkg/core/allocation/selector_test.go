package allocation

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/exam-allocator/pkg/core/model"
)

func item(id, bucket, category string, tier model.Tier, difficulty string, weight int) model.ContentItem {
	return model.ContentItem{
		ID:         id,
		Bucket:     bucket,
		Category:   category,
		Tier:       tier,
		Difficulty: difficulty,
		Weight:     weight,
	}
}

// noJitterSettings returns the default scoring with the random term switched off
func noJitterSettings() Settings {
	settings := DefaultSettings()
	settings.JitterScale = 0
	return settings
}

func seeded(seed int64) RandomSource {
	return NewRandomSource(&seed)
}

func bucketItemIDs(bucket BucketResult) []string {
	ids := make([]string, 0, len(bucket.Items))
	for _, item := range bucket.Items {
		ids = append(ids, item.ID)
	}
	return ids
}

func TestSelect_UnderfilledWhenPoolExhausted(t *testing.T) {
	var pool []model.ContentItem
	for i := 0; i < 15; i++ {
		pool = append(pool, item(fmt.Sprintf("q%d", i), "A", "Algebra", model.TierHighROI, "easy", 1))
	}

	result := Select(pool, []BucketQuota{{ID: "A", Label: "Section A", TargetWeight: 20}}, Targets{}, DefaultSettings(), seeded(1))

	require.Len(t, result.Buckets, 1)
	bucket := result.Buckets[0]
	assert.Len(t, bucket.Items, 15)
	assert.Equal(t, 15, bucket.AchievedWeight)
	assert.Equal(t, 20, bucket.TargetWeight)
	assert.Equal(t, FillStatusUnderfilled, bucket.Status)
	assert.Equal(t, 5, bucket.Shortfall())

	assert.False(t, result.Complete())
	warnings := result.Warnings()
	require.Len(t, warnings, 1)
	assert.Equal(t, "Section A: 5 marks short of target", warnings[0].Notice())

	require.NotEmpty(t, result.Issues)
	assert.Equal(t, "BucketCapacity", result.Issues[0].CriterionName)
	assert.Equal(t, "A", result.Issues[0].BucketID)
}

func TestSelect_EmptyBucket(t *testing.T) {
	pool := []model.ContentItem{item("q1", "A", "Algebra", model.TierHighROI, "easy", 1)}

	result := Select(pool, []BucketQuota{{ID: "A", TargetWeight: 1}, {ID: "B", TargetWeight: 5}}, Targets{}, DefaultSettings(), nil)

	assert.Equal(t, FillStatusMet, result.Buckets[0].Status)
	assert.Equal(t, FillStatusEmpty, result.Buckets[1].Status)
	assert.Equal(t, 5, result.Buckets[1].Shortfall())

	underfilled := result.Underfilled()
	require.Len(t, underfilled, 1)
	assert.Equal(t, "B", underfilled[0].ID)
}

func TestSelect_PrefersHigherTier(t *testing.T) {
	pool := []model.ContentItem{
		item("good", "A", "Algebra", model.TierGoodToDo, "easy", 1),
		item("roi", "A", "Algebra", model.TierHighROI, "easy", 1),
		item("must", "A", "Algebra", model.TierMustCrack, "easy", 1),
	}

	result := Select(pool, []BucketQuota{{ID: "A", TargetWeight: 2}}, Targets{}, noJitterSettings(), nil)

	assert.Equal(t, []string{"must", "roi"}, bucketItemIDs(result.Buckets[0]))
}

func TestSelect_FollowsCategoryDeficits(t *testing.T) {
	pool := []model.ContentItem{
		item("a1", "A", "Algebra", model.TierHighROI, "", 1),
		item("a2", "A", "Algebra", model.TierHighROI, "", 1),
		item("a3", "A", "Algebra", model.TierHighROI, "", 1),
		item("g1", "A", "Geometry", model.TierHighROI, "", 1),
		item("g2", "A", "Geometry", model.TierHighROI, "", 1),
	}
	targets := Targets{Category: map[string]int{"Algebra": 2, "Geometry": 2}}

	result := Select(pool, []BucketQuota{{ID: "A", TargetWeight: 4}}, targets, noJitterSettings(), nil)

	assert.Equal(t, []string{"a1", "g1", "a2", "g2"}, bucketItemIDs(result.Buckets[0]))
}

func TestSelect_SharesCountersAcrossBuckets(t *testing.T) {
	pool := []model.ContentItem{
		item("a1", "A", "Algebra", model.TierHighROI, "", 1),
		item("a2", "A", "Algebra", model.TierHighROI, "", 1),
		item("a3", "A", "Algebra", model.TierHighROI, "", 1),
		item("b1", "B", "Algebra", model.TierHighROI, "", 1),
		item("g1", "B", "Geometry", model.TierHighROI, "", 1),
		item("g2", "B", "Geometry", model.TierHighROI, "", 1),
	}
	targets := Targets{Category: map[string]int{"Algebra": 2, "Geometry": 2}}
	quotas := []BucketQuota{{ID: "A", TargetWeight: 2}, {ID: "B", TargetWeight: 2}}

	result := Select(pool, quotas, targets, noJitterSettings(), nil)

	assert.Equal(t, []string{"a1", "a2"}, bucketItemIDs(result.Buckets[0]))
	assert.Equal(t, []string{"g1", "g2"}, bucketItemIDs(result.Buckets[1]), "bucket B should see Algebra already satisfied")
}

func TestSelect_FollowsDifficultyDeficits(t *testing.T) {
	pool := []model.ContentItem{
		item("e1", "A", "Algebra", model.TierHighROI, "easy", 1),
		item("e2", "A", "Algebra", model.TierHighROI, "easy", 1),
		item("h1", "A", "Algebra", model.TierHighROI, "hard", 1),
	}
	targets := Targets{Difficulty: map[string]int{"easy": 1, "hard": 1}}

	result := Select(pool, []BucketQuota{{ID: "A", TargetWeight: 2}}, targets, noJitterSettings(), nil)

	assert.ElementsMatch(t, []string{"e1", "h1"}, bucketItemIDs(result.Buckets[0]))
}

func TestSelect_AvoidsOversizedItems(t *testing.T) {
	pool := []model.ContentItem{
		item("big", "A", "Algebra", model.TierHighROI, "", 7),
		item("fit", "A", "Algebra", model.TierHighROI, "", 5),
	}

	result := Select(pool, []BucketQuota{{ID: "A", TargetWeight: 5}}, Targets{}, noJitterSettings(), nil)

	assert.Equal(t, []string{"fit"}, bucketItemIDs(result.Buckets[0]))
	assert.Equal(t, FillStatusMet, result.Buckets[0].Status)
}

func TestSelect_FirstItemAlwaysAccepted(t *testing.T) {
	pool := []model.ContentItem{item("huge", "A", "Algebra", model.TierHighROI, "", 10)}

	result := Select(pool, []BucketQuota{{ID: "A", TargetWeight: 3}}, Targets{}, DefaultSettings(), seeded(5))

	bucket := result.Buckets[0]
	assert.Equal(t, []string{"huge"}, bucketItemIDs(bucket))
	assert.Equal(t, 10, bucket.AchievedWeight)
	assert.Equal(t, FillStatusMet, bucket.Status)

	var overfilled bool
	for _, issue := range result.Issues {
		if strings.Contains(issue.Description, "overfilled") {
			overfilled = true
		}
	}
	assert.True(t, overfilled, "overshooting first item should be reported")
}

func TestSelect_RejectsOvershootBeyondTolerance(t *testing.T) {
	pool := []model.ContentItem{
		item("q1", "A", "Algebra", model.TierMustCrack, "", 4),
		item("q2", "A", "Algebra", model.TierMustCrack, "", 4),
		item("q3", "A", "Algebra", model.TierGoodToDo, "", 3),
	}

	// Target 5 with tolerance 2: after one 4-mark item, another 4 would reach 8 (> 7)
	result := Select(pool, []BucketQuota{{ID: "A", TargetWeight: 5}}, Targets{}, noJitterSettings(), nil)

	assert.Equal(t, []string{"q1", "q3"}, bucketItemIDs(result.Buckets[0]))
	assert.Equal(t, 7, result.Buckets[0].AchievedWeight)
}

func TestSelect_CountOnlyQuota(t *testing.T) {
	var pool []model.ContentItem
	for i := 0; i < 5; i++ {
		pool = append(pool, item(fmt.Sprintf("q%d", i), "A", "Algebra", model.TierHighROI, "", 2))
	}

	result := Select(pool, []BucketQuota{{ID: "A", TargetCount: 3}}, Targets{}, DefaultSettings(), seeded(2))

	assert.Len(t, result.Buckets[0].Items, 3)
	assert.Equal(t, FillStatusMet, result.Buckets[0].Status)
}

func TestSelect_CountCapsWeightQuota(t *testing.T) {
	var pool []model.ContentItem
	for i := 0; i < 5; i++ {
		pool = append(pool, item(fmt.Sprintf("q%d", i), "A", "Algebra", model.TierHighROI, "", 3))
	}

	result := Select(pool, []BucketQuota{{ID: "A", TargetWeight: 10, TargetCount: 2}}, Targets{}, DefaultSettings(), seeded(2))

	bucket := result.Buckets[0]
	assert.Len(t, bucket.Items, 2)
	assert.Equal(t, 6, bucket.AchievedWeight)
	assert.Equal(t, FillStatusUnderfilled, bucket.Status)
}

func TestSelect_ZeroQuotaSelectsNothing(t *testing.T) {
	pool := []model.ContentItem{item("q1", "A", "Algebra", model.TierHighROI, "", 1)}

	result := Select(pool, []BucketQuota{{ID: "A"}}, Targets{}, DefaultSettings(), nil)

	assert.Empty(t, result.Buckets[0].Items)
	assert.Equal(t, FillStatusMet, result.Buckets[0].Status)
}

func TestSelect_IgnoresItemsForOtherBuckets(t *testing.T) {
	pool := []model.ContentItem{
		item("a1", "A", "Algebra", model.TierHighROI, "", 1),
		item("x1", "X", "Algebra", model.TierMustCrack, "", 1),
	}

	result := Select(pool, []BucketQuota{{ID: "A", TargetWeight: 2}}, Targets{}, DefaultSettings(), seeded(3))

	assert.Equal(t, []string{"a1"}, bucketItemIDs(result.Buckets[0]))
}

func TestSelect_NeverReusesAnID(t *testing.T) {
	// The same id is tagged for two buckets; it may only be used once
	pool := []model.ContentItem{
		item("shared", "A", "Algebra", model.TierMustCrack, "", 1),
		item("shared", "B", "Algebra", model.TierMustCrack, "", 1),
		item("b1", "B", "Algebra", model.TierGoodToDo, "", 1),
	}

	result := Select(pool, []BucketQuota{{ID: "A", TargetWeight: 1}, {ID: "B", TargetWeight: 1}}, Targets{}, noJitterSettings(), nil)

	assert.Equal(t, []string{"shared"}, bucketItemIDs(result.Buckets[0]))
	assert.Equal(t, []string{"b1"}, bucketItemIDs(result.Buckets[1]))
}

func TestSelect_SameSeedSamePaper(t *testing.T) {
	pool := randomPool(rand.New(rand.NewPCG(1, 1)), 200)
	quotas := []BucketQuota{{ID: "A", TargetWeight: 30}, {ID: "B", TargetWeight: 25}, {ID: "C", TargetWeight: 20}}
	targets := Targets{
		Category:   map[string]int{"Algebra": 30, "Geometry": 25, "Calculus": 20},
		Difficulty: map[string]int{"easy": 38, "medium": 26, "hard": 11},
	}

	first := Select(pool, quotas, targets, DefaultSettings(), seeded(42))
	second := Select(pool, quotas, targets, DefaultSettings(), seeded(42))

	assert.Equal(t, first.ItemIDs(), second.ItemIDs())
}

func TestSelect_DifferentSeedsVary(t *testing.T) {
	var pool []model.ContentItem
	for i := 0; i < 10; i++ {
		pool = append(pool, item(fmt.Sprintf("q%d", i), "A", "Algebra", model.TierHighROI, "easy", 1))
	}
	quotas := []BucketQuota{{ID: "A", TargetWeight: 3}}

	distinct := make(map[string]bool)
	for seed := int64(0); seed < 20; seed++ {
		result := Select(pool, quotas, Targets{}, DefaultSettings(), seeded(seed))
		distinct[strings.Join(result.ItemIDs(), ",")] = true
	}

	assert.Greater(t, len(distinct), 1, "jitter should let regenerated papers differ")
}

func TestSelect_InvariantsHoldAcrossRuns(t *testing.T) {
	r := rand.New(rand.NewPCG(99, 100))
	settings := DefaultSettings()

	for run := 0; run < 100; run++ {
		pool := randomPool(r, 20+r.IntN(120))
		quotas := []BucketQuota{
			{ID: "A", TargetWeight: 5 + r.IntN(40)},
			{ID: "B", TargetWeight: 5 + r.IntN(40)},
			{ID: "C", TargetWeight: 5 + r.IntN(40)},
		}
		targets := Targets{
			Category:   map[string]int{"Algebra": 20, "Geometry": 20, "Calculus": 20},
			Difficulty: map[string]int{"easy": 30, "medium": 20, "hard": 10},
		}

		result := Select(pool, quotas, targets, settings, seeded(int64(run)))

		// Uniqueness
		seen := make(map[string]bool)
		for _, id := range result.ItemIDs() {
			assert.False(t, seen[id], "run %d: id %s selected twice", run, id)
			seen[id] = true
		}

		// Quota tolerance
		for _, bucket := range result.Buckets {
			if len(bucket.Items) > 1 {
				assert.LessOrEqual(t, bucket.AchievedWeight, bucket.TargetWeight+settings.OvershootTolerance,
					"run %d bucket %s overshoots", run, bucket.ID)
			}

			if bucket.AchievedWeight < bucket.TargetWeight {
				room := bucket.TargetWeight + settings.OvershootTolerance - bucket.AchievedWeight
				for _, candidate := range pool {
					if candidate.Bucket == bucket.ID && !seen[candidate.ID] {
						assert.Greater(t, candidate.Weight, room,
							"run %d bucket %s stopped short while %s still fitted", run, bucket.ID, candidate.ID)
					}
				}
			}
		}
	}
}

func TestNewSelector_CustomCriteria(t *testing.T) {
	pool := []model.ContentItem{
		item("q1", "A", "Algebra", model.TierHighROI, "", 1),
		item("q2", "A", "Geometry", model.TierHighROI, "", 1),
	}

	onlyGeometry := &mockCriterion{
		name:  "OnlyGeometry",
		valid: func(item *model.ContentItem) bool { return item.Category == "Geometry" },
	}

	result := NewSelector(DefaultSettings(), nil, onlyGeometry).Select(pool, []BucketQuota{{ID: "A", TargetWeight: 2}}, Targets{})

	assert.Equal(t, []string{"q2"}, bucketItemIDs(result.Buckets[0]))
	assert.Equal(t, FillStatusUnderfilled, result.Buckets[0].Status)
}

func randomPool(r *rand.Rand, size int) []model.ContentItem {
	buckets := []string{"A", "B", "C"}
	categories := []string{"Algebra", "Geometry", "Calculus"}
	difficulties := []string{"easy", "medium", "hard"}

	pool := make([]model.ContentItem, 0, size)
	for i := 0; i < size; i++ {
		pool = append(pool, item(
			fmt.Sprintf("q%d", i),
			buckets[r.IntN(len(buckets))],
			categories[r.IntN(len(categories))],
			model.Tiers[r.IntN(len(model.Tiers))],
			difficulties[r.IntN(len(difficulties))],
			1+r.IntN(5),
		))
	}
	return pool
}

// mockCriterion is a configurable criterion for tests
type mockCriterion struct {
	name           string
	valid          func(item *model.ContentItem) bool
	affinity       float64
	affinityWeight float64
	issues         []ValidationIssue
}

func (m *mockCriterion) Name() string { return m.name }

func (m *mockCriterion) IsItemValid(state *PaperState, bucket *Bucket, item *model.ContentItem) bool {
	if m.valid == nil {
		return true
	}
	return m.valid(item)
}

func (m *mockCriterion) CalculateItemAffinity(state *PaperState, bucket *Bucket, item *model.ContentItem) float64 {
	return m.affinity
}

func (m *mockCriterion) ValidatePaperState(state *PaperState) []ValidationIssue { return m.issues }

func (m *mockCriterion) AffinityWeight() float64 { return m.affinityWeight }
