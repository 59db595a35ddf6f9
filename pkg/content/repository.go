// Package content holds the read-only inputs of an allocation run: the question
// pool and the topic weightage table.
package content

import (
	"fmt"
	"slices"

	"github.com/jakechorley/exam-allocator/pkg/core/model"
)

// Repository is an immutable, pre-loaded collection of content items.
// Every query returns a fresh slice so callers can never mutate the pool.
type Repository struct {
	items   []model.ContentItem
	byID    map[string]int
	buckets []string
	cats    []string
}

// NewRepository builds a repository from the given items, preserving load order.
// Returns an error if an id is empty or repeated, or if an item has a non-positive weight.
func NewRepository(items []model.ContentItem) (*Repository, error) {
	repo := &Repository{
		items: make([]model.ContentItem, 0, len(items)),
		byID:  make(map[string]int, len(items)),
	}

	seenBucket := make(map[string]bool)
	seenCategory := make(map[string]bool)

	for i, item := range items {
		if item.ID == "" {
			return nil, fmt.Errorf("item at position %d has no id", i)
		}
		if _, exists := repo.byID[item.ID]; exists {
			return nil, fmt.Errorf("duplicate item id %q", item.ID)
		}
		if item.Weight <= 0 {
			return nil, fmt.Errorf("item %q has non-positive weight %d", item.ID, item.Weight)
		}

		repo.byID[item.ID] = len(repo.items)
		repo.items = append(repo.items, item)

		if !seenBucket[item.Bucket] {
			seenBucket[item.Bucket] = true
			repo.buckets = append(repo.buckets, item.Bucket)
		}
		if !seenCategory[item.Category] {
			seenCategory[item.Category] = true
			repo.cats = append(repo.cats, item.Category)
		}
	}

	return repo, nil
}

// Len returns the number of items in the pool
func (r *Repository) Len() int {
	if r == nil {
		return 0
	}
	return len(r.items)
}

// Items returns a copy of every item in load order
func (r *Repository) Items() []model.ContentItem {
	if r == nil {
		return nil
	}
	return slices.Clone(r.items)
}

// Get looks up an item by id
func (r *Repository) Get(id string) (model.ContentItem, bool) {
	if r == nil {
		return model.ContentItem{}, false
	}
	idx, ok := r.byID[id]
	if !ok {
		return model.ContentItem{}, false
	}
	return r.items[idx], true
}

// ByBucket returns the items tagged for the given bucket in load order
func (r *Repository) ByBucket(bucket string) []model.ContentItem {
	return r.filter(func(item model.ContentItem) bool { return item.Bucket == bucket })
}

// ByCategory returns the items tagged with the given category in load order
func (r *Repository) ByCategory(category string) []model.ContentItem {
	return r.filter(func(item model.ContentItem) bool { return item.Category == category })
}

// Buckets returns the distinct bucket ids in first-seen order
func (r *Repository) Buckets() []string {
	if r == nil {
		return nil
	}
	return slices.Clone(r.buckets)
}

// Categories returns the distinct categories in first-seen order
func (r *Repository) Categories() []string {
	if r == nil {
		return nil
	}
	return slices.Clone(r.cats)
}

func (r *Repository) filter(keep func(model.ContentItem) bool) []model.ContentItem {
	if r == nil {
		return nil
	}
	var out []model.ContentItem
	for _, item := range r.items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}
