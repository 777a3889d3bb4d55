package cell

import "github.com/fgamador/evo2/internal/sim/num"

func nn(v float64) num.NonNeg { return num.ClipNonNeg(v) }

func fr(v float64) num.Frac { return num.ClipFrac(v) }

func rt(v float64) num.Rate {
	r, err := num.NewRate(v)
	if err != nil {
		panic(err)
	}
	return r
}
