package fast

// Rng is the random source of VRF initialization and stress generation.
// *math/rand.Rand satisfies it; SplitMix64 is the portable default.
type Rng interface {
	Uint64() uint64
}

// SplitMix64 is a seeded, platform-independent generator.
// The same seed always yields the same sequence.
type SplitMix64 struct {
	state uint64
}

var _ Rng = (*SplitMix64)(nil)

func NewSplitMix64(seed uint64) *SplitMix64 {
	return &SplitMix64{state: seed}
}

func (s *SplitMix64) Uint64() uint64 {
	s.state += 0x9E3779B97F4A7C15
	z := s.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// randBelow returns a value in [0, n). n must be positive.
func randBelow(r Rng, n uint64) uint64 {
	// rejection keeps the distribution uniform
	limit := ^uint64(0) - (^uint64(0) % n)
	for {
		if v := r.Uint64(); v < limit {
			return v % n
		}
	}
}

// randRange returns a value in [lo, hi], inclusive like the register picks of the stress program.
func randRange(r Rng, lo, hi uint64) uint64 {
	return lo + randBelow(r, hi-lo+1)
}
