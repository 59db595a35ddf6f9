package allocation

import (
	"math"
	"slices"
	"sort"

	"github.com/jakechorley/exam-allocator/pkg/core/model"
)

// remainderEpsilon treats fractional remainders this close together as tied
const remainderEpsilon = 1e-9

// Apportion splits total into integer counts per key, proportional to the given
// percentages, using largest-remainder (Hamilton) apportionment.
//
// The counts always sum to exactly total. Each key first receives the floor of its
// exact share; the leftover units go one each to the keys with the largest fractional
// remainders, ties broken by position in weights.
//
// Percentages are normalised against their sum, so they need not add up to 100.
// Negative or non-finite percentages count as 0. When every percentage is 0 the
// keys share the total equally. Repeated keys are merged at their first position.
//
// Example:
//   - total 10, weights A=50 B=30 C=20 → A=5 B=3 C=2
//   - total 7, weights A=50 B=50 → A=4 B=3 (A comes first)
//
// Returns an empty map for an empty weight list and all zeros when total <= 0.
func Apportion(total int, weights []model.Weight) map[string]int {
	keys, percents := mergeWeights(weights)

	result := make(map[string]int, len(keys))
	for _, key := range keys {
		result[key] = 0
	}

	if len(keys) == 0 || total <= 0 {
		return result
	}

	sum := finiteSum(percents)

	// Uniform fallback when nothing carries weight
	if sum == 0 {
		for i := range percents {
			percents[i] = 1
		}
		sum = float64(len(percents))
	}

	type share struct {
		key       string
		remainder float64
	}
	shares := make([]share, 0, len(keys))

	assigned := 0
	for i, key := range keys {
		exact := float64(total) * percents[i] / sum
		base := int(math.Floor(exact))
		result[key] = base
		assigned += base
		shares = append(shares, share{key: key, remainder: exact - float64(base)})
	}

	leftover := total - assigned
	if leftover <= 0 {
		return result
	}

	sort.SliceStable(shares, func(i, j int) bool {
		return shares[i].remainder > shares[j].remainder+remainderEpsilon
	})

	for i := 0; i < leftover; i++ {
		result[shares[i%len(shares)].key]++
	}

	return result
}

// ApportionAmount splits a real-valued total into multiples of step using Apportion.
// The total is first rounded to the nearest step.
func ApportionAmount(total, step float64, weights []model.Weight) map[string]float64 {
	result := make(map[string]float64, len(weights))
	if step <= 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		for _, w := range weights {
			result[w.Key] = 0
		}
		return result
	}

	units := int(math.Round(total / step))
	for key, count := range Apportion(units, weights) {
		result[key] = roundTo(float64(count)*step, 6)
	}

	return result
}

// mergeWeights collapses repeated keys and sanitises percentages
func mergeWeights(weights []model.Weight) ([]string, []float64) {
	keys := make([]string, 0, len(weights))
	percents := make([]float64, 0, len(weights))
	position := make(map[string]int, len(weights))

	for _, w := range weights {
		p := w.Percent
		if p < 0 || math.IsNaN(p) || math.IsInf(p, 0) {
			p = 0
		}

		if idx, exists := position[w.Key]; exists {
			percents[idx] += p
			continue
		}

		position[w.Key] = len(keys)
		keys = append(keys, w.Key)
		percents = append(percents, p)
	}

	return keys, percents
}

// finiteSum returns the sum of non-negative finite values. When the sum overflows,
// values are first divided in place by their largest element, which keeps every
// ratio and brings the sum back to at most len(values).
func finiteSum(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	if !math.IsInf(sum, 1) {
		return sum
	}

	largest := slices.Max(values)
	sum = 0
	for i := range values {
		values[i] /= largest
		sum += values[i]
	}
	return sum
}

// roundTo rounds value to the given number of decimal places
func roundTo(value float64, decimals int) float64 {
	factor := math.Pow(10, float64(decimals))
	return math.Round(value*factor) / factor
}
