// Package num provides the bounded scalar types the simulation state is
// built from. Each type has a checked constructor for values coming from
// configuration (out-of-range is an error) and a clipping constructor for
// values produced by arithmetic (out-of-range saturates at the bound).
package num

import (
	"fmt"
	"math"
)

// NonNeg is a float64 known to be >= 0. The zero value is 0.
type NonNeg struct {
	v float64
}

// NewNonNeg rejects negative and NaN inputs.
func NewNonNeg(v float64) (NonNeg, error) {
	if math.IsNaN(v) || v < 0 {
		return NonNeg{}, fmt.Errorf("non-negative value out of range: %v", v)
	}
	return NonNeg{v}, nil
}

// ClipNonNeg saturates at the lower bound.
func ClipNonNeg(v float64) NonNeg {
	if v > 0 {
		return NonNeg{v}
	}
	return NonNeg{} // negatives, -0 and NaN all land on zero
}

func (n NonNeg) Value() float64 { return n.v }

func (n NonNeg) IsZero() bool { return n.v == 0 }

func (n NonNeg) Add(o NonNeg) NonNeg { return NonNeg{n.v + o.v} }

// SubClip subtracts o, clipping the result at zero.
func (n NonNeg) SubClip(o NonNeg) NonNeg { return ClipNonNeg(n.v - o.v) }

func (n NonNeg) Mul(o NonNeg) NonNeg { return NonNeg{n.v * o.v} }

// MulRate converts an amount into a fraction via a per-unit rate. The
// product is clipped into [0, 1].
func (n NonNeg) MulRate(r Rate) Frac { return ClipFrac(n.v * r.v) }

func (n NonNeg) Min(o NonNeg) NonNeg {
	if o.v < n.v {
		return o
	}
	return n
}

// Frac is a float64 known to be in [0, 1]. The zero value is 0.
type Frac struct {
	v float64
}

// NewFrac rejects inputs outside [0, 1] and NaN.
func NewFrac(v float64) (Frac, error) {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return Frac{}, fmt.Errorf("fraction out of range [0, 1]: %v", v)
	}
	return Frac{v}, nil
}

// ClipFrac saturates at both bounds.
func ClipFrac(v float64) Frac {
	if v >= 1 {
		return Frac{1}
	}
	if v > 0 {
		return Frac{v}
	}
	return Frac{}
}

func (f Frac) Value() float64 { return f.v }

func (f Frac) IsZero() bool { return f.v == 0 }

// AddClip adds o, clipping the result at one.
func (f Frac) AddClip(o Frac) Frac { return ClipFrac(f.v + o.v) }

// SubClip subtracts o, clipping the result at zero.
func (f Frac) SubClip(o Frac) Frac { return ClipFrac(f.v - o.v) }

// Rate is a non-negative multiplier that turns a NonNeg amount into a
// Frac, for example health lost per unit of energy expended.
type Rate struct {
	v float64
}

// NewRate rejects negative and NaN inputs.
func NewRate(v float64) (Rate, error) {
	if math.IsNaN(v) || v < 0 {
		return Rate{}, fmt.Errorf("rate out of range: %v", v)
	}
	return Rate{v}, nil
}

func (r Rate) Value() float64 { return r.v }
