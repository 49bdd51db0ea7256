package coach

import (
	"math/rand/v2"
)

// Shuffler randomises exercise order where the engine picks among equally eligible candidates.
type Shuffler interface {
	// Shuffle permutes n elements through swap, like [rand.Shuffle].
	Shuffle(n int, swap func(i, j int))
}

type randShuffler struct {
	rng *rand.Rand
}

func (s randShuffler) Shuffle(n int, swap func(i, j int)) {
	s.rng.Shuffle(n, swap)
}

// NewSeededShuffler returns a reproducible Shuffler. Equal seeds give equal permutations.
func NewSeededShuffler(seed uint64) Shuffler {
	return randShuffler{rng: rand.New(rand.NewPCG(seed, seed))} //nolint:gosec // not used for security.
}

// NewRandomShuffler returns a Shuffler backed by the global random source.
func NewRandomShuffler() Shuffler {
	return globalShuffler{}
}

type globalShuffler struct{}

func (globalShuffler) Shuffle(n int, swap func(i, j int)) {
	rand.Shuffle(n, swap)
}

// shuffled returns a shuffled copy of exercises.
func shuffled(s Shuffler, exercises []Exercise) []Exercise {
	out := make([]Exercise, len(exercises))
	copy(out, exercises)
	s.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}
