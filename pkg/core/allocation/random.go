package allocation

import "math/rand/v2"

// RandomSource supplies the jitter that lets a regenerated paper differ from the last.
// Implementations are used by a single run at a time; *rand.Rand satisfies it.
type RandomSource interface {
	// Float64 returns a value in [0.0, 1.0)
	Float64() float64
}

// NewRandomSource returns a reproducible source when seed is set and a freshly
// seeded one otherwise
func NewRandomSource(seed *int64) RandomSource {
	if seed == nil {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	s := uint64(*seed)
	return rand.New(rand.NewPCG(s, s^0x9e3779b97f4a7c15))
}
