package world

import "github.com/fgamador/evo2/internal/sim/num"

// FoodSource contributes food to the world at the start of every step.
// Polling may advance internal state.
type FoodSource interface {
	FoodThisStep() num.NonNeg
}

// ConstantFoodSource adds the same amount every step.
type ConstantFoodSource struct {
	amount num.NonNeg
}

func NewConstantFoodSource(amount num.NonNeg) *ConstantFoodSource {
	return &ConstantFoodSource{amount: amount}
}

func (s *ConstantFoodSource) FoodThisStep() num.NonNeg { return s.amount }

// GrowingFoodSource adds a linearly growing amount: the initial amount
// on its first poll, then one increment more on every poll after that.
type GrowingFoodSource struct {
	next      num.NonNeg
	increment num.NonNeg
}

func NewGrowingFoodSource(initial, increment num.NonNeg) *GrowingFoodSource {
	return &GrowingFoodSource{next: initial, increment: increment}
}

func (s *GrowingFoodSource) FoodThisStep() num.NonNeg {
	amount := s.next
	s.next = s.next.Add(s.increment)
	return amount
}
