package content

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/exam-allocator/pkg/core/model"
)

func sampleItems() []model.ContentItem {
	return []model.ContentItem{
		{ID: "q1", Category: "Algebra", Bucket: "A", Tier: model.TierMustCrack, Difficulty: "easy", Weight: 1},
		{ID: "q2", Category: "Geometry", Bucket: "B", Tier: model.TierHighROI, Difficulty: "medium", Weight: 2},
		{ID: "q3", Category: "Algebra", Bucket: "B", Tier: model.TierGoodToDo, Difficulty: "hard", Weight: 4},
	}
}

func TestNewRepository_Queries(t *testing.T) {
	repo, err := NewRepository(sampleItems())
	require.NoError(t, err)

	assert.Equal(t, 3, repo.Len())
	assert.Equal(t, []string{"A", "B"}, repo.Buckets())
	assert.Equal(t, []string{"Algebra", "Geometry"}, repo.Categories())

	bucketB := repo.ByBucket("B")
	require.Len(t, bucketB, 2)
	assert.Equal(t, "q2", bucketB[0].ID)
	assert.Equal(t, "q3", bucketB[1].ID)

	algebra := repo.ByCategory("Algebra")
	require.Len(t, algebra, 2)

	item, ok := repo.Get("q3")
	assert.True(t, ok)
	assert.Equal(t, 4, item.Weight)

	_, ok = repo.Get("missing")
	assert.False(t, ok)
}

func TestNewRepository_DuplicateID(t *testing.T) {
	items := sampleItems()
	items[2].ID = "q1"

	_, err := NewRepository(items)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate item id")
}

func TestNewRepository_NonPositiveWeight(t *testing.T) {
	items := sampleItems()
	items[1].Weight = 0

	_, err := NewRepository(items)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "non-positive weight")
}

func TestNewRepository_MissingID(t *testing.T) {
	items := sampleItems()
	items[0].ID = ""

	_, err := NewRepository(items)
	assert.Error(t, err)
}

func TestRepository_ItemsIsACopy(t *testing.T) {
	repo, err := NewRepository(sampleItems())
	require.NoError(t, err)

	items := repo.Items()
	items[0].Weight = 99

	original, _ := repo.Get("q1")
	assert.Equal(t, 1, original.Weight, "mutating the returned slice must not change the repository")
}

func TestRepository_NilIsEmpty(t *testing.T) {
	var repo *Repository
	assert.Equal(t, 0, repo.Len())
	assert.Nil(t, repo.Items())
	assert.Nil(t, repo.ByBucket("A"))
}

func TestWeightTable(t *testing.T) {
	table := NewWeightTable([]model.CategoryWeight{
		{Category: "Algebra", Percent: 40},
		{Category: "Geometry", Percent: 35},
		{Category: "Calculus", Percent: -5},
		{Category: "Algebra", Percent: 45},
	})

	assert.Equal(t, 3, table.Len())
	assert.Equal(t, 45.0, table.Percent("Algebra"))
	assert.Equal(t, 0.0, table.Percent("Calculus"))
	assert.Equal(t, 0.0, table.Percent("Statistics"))
	assert.True(t, table.Has("Calculus"))
	assert.False(t, table.Has("Statistics"))
	assert.Equal(t, 80.0, table.Total())

	want := []model.Weight{
		{Key: "Algebra", Percent: 45},
		{Key: "Geometry", Percent: 35},
		{Key: "Calculus", Percent: 0},
	}
	if diff := cmp.Diff(want, table.Weights()); diff != "" {
		t.Errorf("Weights() mismatch (-want +got):\n%s", diff)
	}
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "content.yaml")
	data := `
weights:
  - category: Algebra
    percent: 60
  - category: Geometry
    percent: 40
items:
  - id: q1
    category: Algebra
    subcategory: Linear equations
    bucket: section-a
    tier: Must Crack
    difficulty: easy
    marks: 1
  - id: q2
    category: Geometry
    bucket: section-b
    tier: good-to-do
    difficulty: hard
    marks: 4
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	source := NewFileSource(path)

	items, err := source.ListContentItems(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, model.TierMustCrack, items[0].Tier)
	assert.Equal(t, "Linear equations", items[0].Subcategory)
	assert.Equal(t, 4, items[1].Weight)

	weights, err := source.ListCategoryWeights(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.CategoryWeight{
		{Category: "Algebra", Percent: 60},
		{Category: "Geometry", Percent: 40},
	}, weights)
}

func TestFileSource_InvalidTier(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "content.yaml")
	data := `
items:
  - id: q1
    category: Algebra
    bucket: section-a
    tier: essential
    marks: 1
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	_, err := NewFileSource(path).ListContentItems(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid tier")
}

func TestFileSource_ValidationFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "content.yaml")
	data := `
items:
  - id: q1
    category: Algebra
    bucket: section-a
    tier: high-roi
    marks: 0
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	_, err := NewFileSource(path).ListContentItems(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestFileSource_MissingFile(t *testing.T) {
	_, err := NewFileSource(filepath.Join(t.TempDir(), "nope.yaml")).ListCategoryWeights(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read content file")
}
