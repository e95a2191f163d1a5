// Package rational provides exact rational arithmetic for musical cycle
// positions, so that repeated block-boundary addition over long renders
// does not drift the way repeated float64 addition would.
package rational

import "math/big"

// Rational is an exact rational number, immutable by convention: every
// operation returns a new value rather than mutating the receiver.
type Rational struct {
	r *big.Rat
}

// Zero returns the rational 0/1.
func Zero() Rational {
	return Rational{r: new(big.Rat)}
}

// New returns the rational num/den.
func New(num, den int64) Rational {
	return Rational{r: big.NewRat(num, den)}
}

// FromFloat64 approximates f as a rational with denominator bounded by
// denomLimit (use a large limit, e.g. 1<<20, for sub-sample precision).
func FromFloat64(f float64, denomLimit int64) Rational {
	r := new(big.Rat).SetFloat64(f)
	if r == nil {
		return Zero()
	}
	if denomLimit > 0 && r.Denom().IsInt64() && r.Denom().Int64() > denomLimit {
		return Rational{r: limitDenominator(r, denomLimit)}
	}
	return Rational{r: r}
}

// limitDenominator returns floor-toward-zero(r*limit)/limit, computed via
// float64: a rational with denominator limit that is at most 1/limit
// away from r. It is not the best approximation for that bound.
func limitDenominator(r *big.Rat, limit int64) *big.Rat {
	// Stern-Brocot style bisection is overkill for this engine's needs;
	// a float round-trip through the limited denominator is sufficient
	// because callers only use this at block-boundary granularity.
	f, _ := r.Float64()
	num := int64(f * float64(limit))
	return big.NewRat(num, limit)
}

// Add returns a + b.
func (a Rational) Add(b Rational) Rational {
	return Rational{r: new(big.Rat).Add(a.ratOrZero(), b.ratOrZero())}
}

// Sub returns a - b.
func (a Rational) Sub(b Rational) Rational {
	return Rational{r: new(big.Rat).Sub(a.ratOrZero(), b.ratOrZero())}
}

// Mul returns a * b.
func (a Rational) Mul(b Rational) Rational {
	return Rational{r: new(big.Rat).Mul(a.ratOrZero(), b.ratOrZero())}
}

// Cmp compares a and b: -1 if a<b, 0 if equal, +1 if a>b.
func (a Rational) Cmp(b Rational) int {
	return a.ratOrZero().Cmp(b.ratOrZero())
}

// Less reports whether a < b.
func (a Rational) Less(b Rational) bool {
	return a.Cmp(b) < 0
}

// Float64 returns the nearest float64 approximation.
func (a Rational) Float64() float64 {
	f, _ := a.ratOrZero().Float64()
	return f
}

// String renders the rational as "num/den".
func (a Rational) String() string {
	return a.ratOrZero().RatString()
}

func (a Rational) ratOrZero() *big.Rat {
	if a.r == nil {
		return new(big.Rat)
	}
	return a.r
}
