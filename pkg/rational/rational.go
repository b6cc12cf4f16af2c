package rational

import (
	"fmt"
	"math"
	"strconv"
)

// ArithmeticError reports an invalid arithmetic operation, such as a division
// by zero or a constructor with a zero denominator.
type ArithmeticError struct {
	Op string // Operation that failed (e.g., "div")
}

func (e *ArithmeticError) Error() string {
	return fmt.Sprintf("arithmetic error in %s: division by zero", e.Op)
}

// Rational is an exact fraction. The zero value is 0/1.
//
// Invariants: the denominator is always positive and the fraction is always
// in lowest terms, so two equal values compare equal with ==.
//
// Arithmetic cross-multiplies raw int64 components without overflow checks.
// Results stay exact as long as every intermediate numerator and denominator
// product fits in int64, which holds for musical ratios by a wide margin;
// values near math.MaxInt64 wrap silently.
type Rational struct {
	num int64
	den int64
}

// New creates a rational from a numerator and denominator.
// It fails with *ArithmeticError if den is zero.
func New(num, den int64) (Rational, error) {
	if den == 0 {
		return Rational{}, &ArithmeticError{Op: "new"}
	}
	return reduce(num, den), nil
}

// FromInt creates a rational with denominator 1.
func FromInt(n int64) Rational {
	return Rational{num: n, den: 1}
}

// FromFloat approximates a float as a rational with denominator up to 1e9.
// Intended for non-exact inputs; exact decimal text should be parsed digit
// by digit instead.
func FromFloat(f float64) Rational {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Rational{num: 0, den: 1}
	}
	const scale = 1e9
	return reduce(int64(math.Round(f*scale)), int64(scale))
}

func reduce(num, den int64) Rational {
	if den < 0 {
		num, den = -num, -den
	}
	if num == 0 {
		return Rational{num: 0, den: 1}
	}
	g := gcd(abs64(num), den)
	return Rational{num: num / g, den: den / g}
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func abs64(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}

// Num returns the numerator.
func (r Rational) Num() int64 {
	return r.num
}

// Den returns the denominator. Always positive.
func (r Rational) Den() int64 {
	if r.den == 0 {
		return 1 // zero value normalization
	}
	return r.den
}

// Add returns r + o.
func (r Rational) Add(o Rational) Rational {
	return reduce(r.Num()*o.Den()+o.Num()*r.Den(), r.Den()*o.Den())
}

// Sub returns r - o.
func (r Rational) Sub(o Rational) Rational {
	return reduce(r.Num()*o.Den()-o.Num()*r.Den(), r.Den()*o.Den())
}

// Mul returns r * o.
func (r Rational) Mul(o Rational) Rational {
	return reduce(r.Num()*o.Num(), r.Den()*o.Den())
}

// Div returns r / o, failing with *ArithmeticError when o is zero.
func (r Rational) Div(o Rational) (Rational, error) {
	if o.Num() == 0 {
		return Rational{}, &ArithmeticError{Op: "div"}
	}
	return reduce(r.Num()*o.Den(), r.Den()*o.Num()), nil
}

// Neg returns -r.
func (r Rational) Neg() Rational {
	return Rational{num: -r.Num(), den: r.Den()}
}

// Abs returns the absolute value of r.
func (r Rational) Abs() Rational {
	if r.Num() < 0 {
		return r.Neg()
	}
	return Rational{num: r.Num(), den: r.Den()}
}

// Cmp compares r and o, returning -1, 0 or +1.
func (r Rational) Cmp(o Rational) int {
	lhs := r.Num() * o.Den()
	rhs := o.Num() * r.Den()
	switch {
	case lhs < rhs:
		return -1
	case lhs > rhs:
		return 1
	default:
		return 0
	}
}

// IsZero reports whether r is exactly zero.
func (r Rational) IsZero() bool {
	return r.Num() == 0
}

// IsInt reports whether r is a whole number.
func (r Rational) IsInt() bool {
	return r.Den() == 1
}

// Float returns the floating approximation of r, for tolerance comparisons.
func (r Rational) Float() float64 {
	return float64(r.Num()) / float64(r.Den())
}

// String renders the fraction as "n/d", or just "n" for whole numbers.
func (r Rational) String() string {
	if r.IsInt() {
		return strconv.FormatInt(r.Num(), 10)
	}
	return strconv.FormatInt(r.Num(), 10) + "/" + strconv.FormatInt(r.Den(), 10)
}
