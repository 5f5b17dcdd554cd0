package captcha

import (
	"math/rand/v2"
	"sync"
)

// Rand is the source of operands, operators and nonces. Implementations
// must be safe for concurrent use.
type Rand interface {
	// IntN returns a uniform value in [0, n).
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

type lockedRand struct {
	lock sync.Mutex
	r    *rand.Rand
}

func (l *lockedRand) IntN(n int) int {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.r.IntN(n)
}

// NewSeededRand returns a deterministic, concurrency-safe Rand.
func NewSeededRand(seed1, seed2 uint64) Rand {
	return &lockedRand{r: rand.New(rand.NewPCG(seed1, seed2))}
}

// between returns a uniform value in [lo, hi].
func between(r Rand, lo, hi int) int {
	return lo + r.IntN(hi-lo+1)
}
