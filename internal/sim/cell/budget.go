package cell

import "github.com/fgamador/evo2/internal/sim/num"

// Budget divides an available amount across a list of desired amounts.
// When the total demand fits, every entry is granted in full. Otherwise
// every entry is scaled by the same ratio, so the grants together spend
// exactly the available amount. A demand of zero is granted zeros.
func Budget(available num.NonNeg, desired []num.NonNeg) (granted []num.NonNeg, total num.NonNeg) {
	granted = make([]num.NonNeg, len(desired))

	var sum float64
	for _, d := range desired {
		sum += d.Value()
	}
	if sum <= available.Value() {
		copy(granted, desired)
		return granted, num.ClipNonNeg(sum)
	}

	// sum > available >= 0, so the division is safe.
	scale := available.Value() / sum
	for i, d := range desired {
		granted[i] = num.ClipNonNeg(d.Value() * scale)
	}
	return granted, available
}
