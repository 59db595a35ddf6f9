package allocation

import (
	"math"

	"github.com/jakechorley/exam-allocator/pkg/core/model"
)

// Settings tunes the paper selector's scoring
type Settings struct {
	// TierBonus is the raw score of an item's tier before TierWeight is applied
	TierBonus map[model.Tier]float64

	// TierWeight multiplies the tier bonus
	TierWeight float64

	// CategoryCoefficient multiplies the outstanding category deficit
	CategoryCoefficient float64

	// SecondaryCoefficient multiplies the outstanding difficulty deficit
	SecondaryCoefficient float64

	// OversizePenalty multiplies the weight an item would add beyond the bucket's target
	OversizePenalty float64

	// JitterScale bounds the random term added to every score (0 disables it)
	JitterScale float64

	// OvershootTolerance is how far past its target weight a bucket may go
	OvershootTolerance int

	// DifficultyRatio is the global difficulty mix applied to the paper's total weight
	DifficultyRatio []model.Weight
}

// DefaultSettings returns the scoring used when no configuration overrides it
func DefaultSettings() Settings {
	return Settings{
		TierBonus: map[model.Tier]float64{
			model.TierMustCrack: 3,
			model.TierHighROI:   2,
			model.TierGoodToDo:  1,
		},
		TierWeight:           4,
		CategoryCoefficient:  1,
		SecondaryCoefficient: 0.5,
		OversizePenalty:      0.5,
		JitterScale:          2,
		OvershootTolerance:   2,
		DifficultyRatio:      DefaultDifficultyRatio(),
	}
}

// DefaultDifficultyRatio is the easy/medium/hard mix of a standard paper
func DefaultDifficultyRatio() []model.Weight {
	return []model.Weight{
		{Key: "easy", Percent: 50},
		{Key: "medium", Percent: 35},
		{Key: "hard", Percent: 15},
	}
}

// TierMultipliers scales declared topic weights by tier when planning study time.
// This is the single table every plan uses.
type TierMultipliers map[model.Tier]float64

// DefaultTierMultipliers returns the standard multiplier table
func DefaultTierMultipliers() TierMultipliers {
	return TierMultipliers{
		model.TierMustCrack: 1.3,
		model.TierHighROI:   1.0,
		model.TierGoodToDo:  0.6,
	}
}

// Multiplier returns the multiplier for a tier, 1.0 when the tier is not in the table
// or its value is not finite
func (m TierMultipliers) Multiplier(tier model.Tier) float64 {
	value, ok := m[tier]
	if !ok || math.IsNaN(value) || math.IsInf(value, 0) {
		return 1.0
	}
	return max(value, 0)
}
