package allocation

import (
	"fmt"

	"github.com/jakechorley/exam-allocator/pkg/core/model"
)

// BucketQuota declares how much a bucket (exam section) must hold.
// TargetWeight governs when set; TargetCount caps the number of items when set.
// A quota with both fields zero asks for nothing.
type BucketQuota struct {
	ID           string
	Label        string
	TargetWeight int
	TargetCount  int
}

// Targets are the absolute weight targets the selector works towards
type Targets struct {
	// Category maps category -> target weight across the whole paper
	Category map[string]int

	// Difficulty maps secondary attribute -> target weight across the whole paper
	Difficulty map[string]int
}

// Bucket is a quota being filled during a run
type Bucket struct {
	ID             string
	Label          string
	Index          int
	TargetWeight   int
	TargetCount    int
	Items          []model.ContentItem
	AchievedWeight int
}

// IsEmpty returns true if no item has been placed in the bucket yet
func (b *Bucket) IsEmpty() bool {
	return len(b.Items) == 0
}

// IsFull returns true once the bucket's quota no longer accepts items
func (b *Bucket) IsFull() bool {
	if b.TargetCount > 0 && len(b.Items) >= b.TargetCount {
		return true
	}
	if b.TargetWeight > 0 {
		return b.AchievedWeight >= b.TargetWeight
	}
	return b.TargetCount == 0
}

// RemainingWeight returns the weight still needed to reach the target
func (b *Bucket) RemainingWeight() int {
	return max(b.TargetWeight-b.AchievedWeight, 0)
}

// HasQuota reports whether the bucket asks for anything at all
func (b *Bucket) HasQuota() bool {
	return b.TargetWeight > 0 || b.TargetCount > 0
}

// PaperState is the mutable state of a single allocation run.
// It is created fresh on every call and never shared between runs.
type PaperState struct {
	// Buckets in processing order
	Buckets []*Bucket

	// Targets the run is working towards
	CategoryTargets   map[string]int
	DifficultyTargets map[string]int

	// Achieved weight so far, shared across buckets
	CategoryAchieved   map[string]int
	DifficultyAchieved map[string]int

	// Used tracks every item id placed anywhere in the run
	Used map[string]bool
}

func newPaperState(quotas []BucketQuota, targets Targets) *PaperState {
	state := &PaperState{
		Buckets:            make([]*Bucket, 0, len(quotas)),
		CategoryTargets:    make(map[string]int, len(targets.Category)),
		DifficultyTargets:  make(map[string]int, len(targets.Difficulty)),
		CategoryAchieved:   make(map[string]int),
		DifficultyAchieved: make(map[string]int),
		Used:               make(map[string]bool),
	}

	for i, quota := range quotas {
		state.Buckets = append(state.Buckets, &Bucket{
			ID:           quota.ID,
			Label:        quota.Label,
			Index:        i,
			TargetWeight: quota.TargetWeight,
			TargetCount:  quota.TargetCount,
			Items:        []model.ContentItem{},
		})
	}

	// Copy so the caller's maps are never written to
	for k, v := range targets.Category {
		state.CategoryTargets[k] = v
	}
	for k, v := range targets.Difficulty {
		state.DifficultyTargets[k] = v
	}

	return state
}

// CategoryDeficit returns how much weight the category still needs (never negative)
func (s *PaperState) CategoryDeficit(category string) int {
	return max(s.CategoryTargets[category]-s.CategoryAchieved[category], 0)
}

// DifficultyDeficit returns how much weight the difficulty still needs (never negative)
func (s *PaperState) DifficultyDeficit(difficulty string) int {
	return max(s.DifficultyTargets[difficulty]-s.DifficultyAchieved[difficulty], 0)
}

// place records an item in a bucket and updates the shared counters
func (s *PaperState) place(bucket *Bucket, item model.ContentItem) {
	bucket.Items = append(bucket.Items, item)
	bucket.AchievedWeight += item.Weight
	s.CategoryAchieved[item.Category] += item.Weight
	s.DifficultyAchieved[item.Difficulty] += item.Weight
	s.Used[item.ID] = true
}

// FillStatus is the outcome of a single bucket
type FillStatus string

const (
	FillStatusMet         FillStatus = "met"
	FillStatusUnderfilled FillStatus = "underfilled"
	FillStatusEmpty       FillStatus = "empty"
)

// BucketResult is the final content of one bucket
type BucketResult struct {
	ID             string
	Label          string
	Items          []model.ContentItem
	AchievedWeight int
	TargetWeight   int
	TargetCount    int
	Status         FillStatus
}

// Shortfall returns how far the bucket is from its target: in weight units when a
// target weight is set, otherwise in items
func (b BucketResult) Shortfall() int {
	if b.TargetWeight > 0 {
		return max(b.TargetWeight-b.AchievedWeight, 0)
	}
	return max(b.TargetCount-len(b.Items), 0)
}

// AttributeSummary compares target and achieved weight for a category or difficulty
type AttributeSummary struct {
	Key            string
	TargetWeight   int
	AchievedWeight int
	ItemCount      int
}

// TierSummary counts the selected items of one tier
type TierSummary struct {
	Tier      model.Tier
	ItemCount int
	Weight    int
}

// ValidationIssue describes a requirement the final paper does not meet.
// Issues are informational; the paper is still returned.
type ValidationIssue struct {
	// BucketID is empty for paper-wide issues
	BucketID      string
	CriterionName string
	Description   string
}

// UnderfillWarning reports a bucket that could not reach its target
type UnderfillWarning struct {
	BucketID  string
	Label     string
	Status    FillStatus
	Achieved  int
	Target    int
	Shortfall int
	ByCount   bool
}

// Notice renders the warning for an end user, e.g. "Section A: 5 marks short of target"
func (w UnderfillWarning) Notice() string {
	name := w.Label
	if name == "" {
		name = w.BucketID
	}
	unit := "marks"
	if w.ByCount {
		unit = "items"
	}
	return fmt.Sprintf("%s: %d %s short of target", name, w.Shortfall, unit)
}

// AllocationResult is the paper produced by a run
type AllocationResult struct {
	Buckets        []BucketResult
	AchievedWeight int
	TargetWeight   int

	Categories   []AttributeSummary
	Difficulties []AttributeSummary
	Tiers        []TierSummary

	Issues []ValidationIssue

	// Curated is true when the paper came from an explicit allow-list
	Curated bool

	// UnknownIDs are allow-listed ids missing from the pool
	UnknownIDs []string

	// UnplacedIDs are allow-listed items whose bucket is not part of the paper
	UnplacedIDs []string
}

// Underfilled returns the buckets that did not reach their target
func (r *AllocationResult) Underfilled() []BucketResult {
	var out []BucketResult
	for _, bucket := range r.Buckets {
		if bucket.Status != FillStatusMet {
			out = append(out, bucket)
		}
	}
	return out
}

// Warnings converts every underfilled bucket into a user-facing warning
func (r *AllocationResult) Warnings() []UnderfillWarning {
	var warnings []UnderfillWarning
	for _, bucket := range r.Underfilled() {
		warnings = append(warnings, UnderfillWarning{
			BucketID:  bucket.ID,
			Label:     bucket.Label,
			Status:    bucket.Status,
			Achieved:  bucket.AchievedWeight,
			Target:    bucket.TargetWeight,
			Shortfall: bucket.Shortfall(),
			ByCount:   bucket.TargetWeight == 0,
		})
	}
	return warnings
}

// Complete returns true if every bucket met its target
func (r *AllocationResult) Complete() bool {
	return len(r.Underfilled()) == 0
}

// ItemCount returns the number of selected items across all buckets
func (r *AllocationResult) ItemCount() int {
	count := 0
	for _, bucket := range r.Buckets {
		count += len(bucket.Items)
	}
	return count
}

// ItemIDs returns the ids of every selected item in bucket order
func (r *AllocationResult) ItemIDs() []string {
	ids := make([]string, 0, r.ItemCount())
	for _, bucket := range r.Buckets {
		for _, item := range bucket.Items {
			ids = append(ids, item.ID)
		}
	}
	return ids
}

// InputError is returned for structurally invalid allocation inputs
type InputError struct {
	Message string
	Cause   error
}

func (e *InputError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *InputError) Unwrap() error {
	return e.Cause
}
