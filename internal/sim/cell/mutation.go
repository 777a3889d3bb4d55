package cell

import (
	"math/rand"

	"github.com/fgamador/evo2/internal/sim/num"
)

// Mutator produces a child's value for one heritable param from the
// parent's value and that param's mutation standard deviation.
type Mutator interface {
	Mutate(value, stdev num.NonNeg) num.NonNeg
}

// GaussianMutator perturbs values with normally distributed noise from a
// seeded source. Draws that land below zero are redrawn.
type GaussianMutator struct {
	rng *rand.Rand
}

func NewGaussianMutator(rng *rand.Rand) *GaussianMutator {
	return &GaussianMutator{rng: rng}
}

func (g *GaussianMutator) Mutate(value, stdev num.NonNeg) num.NonNeg {
	for {
		v := value.Value() + stdev.Value()*g.rng.NormFloat64()
		if v >= 0 {
			return num.ClipNonNeg(v)
		}
	}
}

// IdentityMutator passes values through unchanged. It is the fallback
// when no mutator is supplied.
type IdentityMutator struct{}

func (IdentityMutator) Mutate(value, _ num.NonNeg) num.NonNeg { return value }

// AdditiveMutator adds the standard deviation to the value on every
// mutation, a deterministic drift.
type AdditiveMutator struct{}

func (AdditiveMutator) Mutate(value, stdev num.NonNeg) num.NonNeg { return value.Add(stdev) }
