package model

import "strings"

// Tier is the coarse priority label attached to topics and questions
type Tier string

const (
	TierMustCrack Tier = "must-crack"
	TierHighROI   Tier = "high-roi"
	TierGoodToDo  Tier = "good-to-do"
)

// Tiers lists every tier in rank order
var Tiers = []Tier{TierMustCrack, TierHighROI, TierGoodToDo}

func (t Tier) IsValid() bool {
	return t == TierMustCrack || t == TierHighROI || t == TierGoodToDo
}

// Rank returns the sort position of the tier (must-crack first).
// Unknown tiers sort after every known tier.
func (t Tier) Rank() int {
	switch t {
	case TierMustCrack:
		return 0
	case TierHighROI:
		return 1
	case TierGoodToDo:
		return 2
	default:
		return 3
	}
}

// ParseTier normalises free-text tier labels such as "Must Crack" or "HIGH_ROI".
// The second return value is false when the label does not name a known tier.
func ParseTier(raw string) (Tier, bool) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.NewReplacer(" ", "-", "_", "-").Replace(normalized)
	tier := Tier(normalized)
	return tier, tier.IsValid()
}

// ContentItem is a single tagged question from the content pool
type ContentItem struct {
	ID          string
	Category    string
	Subcategory string
	Bucket      string // Exam section the item can fill
	Tier        Tier
	Difficulty  string // Secondary attribute balanced alongside category targets
	Weight      int    // Marks, always positive
}

// CategoryWeight is the declared relative importance of a category in percent
type CategoryWeight struct {
	Category string
	Percent  float64
}

// Weight is a generic key/percentage pair used for apportionment
type Weight struct {
	Key     string
	Percent float64
}
