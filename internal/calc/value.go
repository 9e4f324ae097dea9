package calc

// #region imports
import (
	"fmt"
	"math"
	"math/big"
	"sort"
	"strings"
)

// #endregion

// #region value

// value is an exact sum of terms coef*sqrt(radicand) with rational
// coefficients and square-free positive integer radicands (radicand 1 is
// the rational part). Transcendental inputs (pi, sin, log, ...) drop
// exactness: the value then carries only a float64 approximation.
type value struct {
	terms  map[int64]*big.Rat // radicand -> coefficient; nil when approx
	approx bool
	f      float64
}

func rational(r *big.Rat) value {
	return value{terms: map[int64]*big.Rat{1: new(big.Rat).Set(r)}}
}

func approximate(f float64) value {
	return value{approx: true, f: f}
}

func zero() value {
	return rational(new(big.Rat))
}

// #endregion

// #region float

// Float returns the numeric evaluation and whether it is finite.
func (v value) Float() (float64, bool) {
	if v.approx {
		return v.f, !math.IsInf(v.f, 0) && !math.IsNaN(v.f)
	}
	var sum float64
	for rad, coef := range v.terms {
		c, _ := coef.Float64()
		sum += c * math.Sqrt(float64(rad))
	}
	return sum, !math.IsInf(sum, 0) && !math.IsNaN(sum)
}

func (v value) isRational() bool {
	if v.approx {
		return false
	}
	for rad, coef := range v.terms {
		if rad != 1 && coef.Sign() != 0 {
			return false
		}
	}
	return true
}

func (v value) rationalPart() *big.Rat {
	if c, ok := v.terms[1]; ok {
		return c
	}
	return new(big.Rat)
}

func (v value) isZero() bool {
	if v.approx {
		return v.f == 0
	}
	for _, coef := range v.terms {
		if coef.Sign() != 0 {
			return false
		}
	}
	return true
}

// #endregion

// #region arithmetic

func (v value) add(w value) value {
	if v.approx || w.approx {
		a, _ := v.Float()
		b, _ := w.Float()
		return approximate(a + b)
	}
	out := value{terms: map[int64]*big.Rat{}}
	for rad, coef := range v.terms {
		out.terms[rad] = new(big.Rat).Set(coef)
	}
	for rad, coef := range w.terms {
		if cur, ok := out.terms[rad]; ok {
			cur.Add(cur, coef)
		} else {
			out.terms[rad] = new(big.Rat).Set(coef)
		}
	}
	return out.compact()
}

func (v value) neg() value {
	if v.approx {
		return approximate(-v.f)
	}
	out := value{terms: map[int64]*big.Rat{}}
	for rad, coef := range v.terms {
		out.terms[rad] = new(big.Rat).Neg(coef)
	}
	return out
}

func (v value) sub(w value) value {
	return v.add(w.neg())
}

func (v value) mul(w value) value {
	if v.approx || w.approx {
		a, _ := v.Float()
		b, _ := w.Float()
		return approximate(a * b)
	}
	out := value{terms: map[int64]*big.Rat{}}
	for ra, ca := range v.terms {
		for rb, cb := range w.terms {
			if ra > math.MaxInt64/rb {
				a, _ := v.Float()
				b, _ := w.Float()
				return approximate(a * b)
			}
			coef := new(big.Rat).Mul(ca, cb)
			// sqrt(ra)*sqrt(rb) = sqrt(ra*rb), re-simplified to square-free form
			outside, inside := splitSquare(ra * rb)
			coef.Mul(coef, new(big.Rat).SetInt64(outside))
			if cur, ok := out.terms[inside]; ok {
				cur.Add(cur, coef)
			} else {
				out.terms[inside] = coef
			}
		}
	}
	return out.compact()
}

func (v value) div(w value) (value, error) {
	if w.isZero() {
		return value{}, fmt.Errorf("division by zero")
	}
	if v.approx || w.approx {
		a, _ := v.Float()
		b, _ := w.Float()
		return approximate(a / b), nil
	}
	// Invert a single-term divisor exactly: 1/(c*sqrt(r)) = sqrt(r)/(c*r).
	nonzero := w.nonzeroTerms()
	if len(nonzero) == 1 {
		rad := nonzero[0]
		coef := w.terms[rad]
		inv := value{terms: map[int64]*big.Rat{
			rad: new(big.Rat).Quo(big.NewRat(1, rad), coef),
		}}
		return v.mul(inv), nil
	}
	// Multi-term divisor: fall back to numeric.
	a, _ := v.Float()
	b, _ := w.Float()
	return approximate(a / b), nil
}

func (v value) powInt(n int64) (value, error) {
	if n == 0 {
		return rational(big.NewRat(1, 1)), nil
	}
	if n > 4096 || n < -4096 {
		return value{}, fmt.Errorf("exponent %d out of supported range", n)
	}
	base := v
	if n < 0 {
		inv, err := rational(big.NewRat(1, 1)).div(v)
		if err != nil {
			return value{}, err
		}
		base = inv
		n = -n
	}
	out := rational(big.NewRat(1, 1))
	for i := int64(0); i < n; i++ {
		out = out.mul(base)
	}
	return out, nil
}

func (v value) sqrt() (value, error) {
	if v.approx {
		if v.f < 0 {
			return value{}, fmt.Errorf("square root of negative value")
		}
		return approximate(math.Sqrt(v.f)), nil
	}
	if !v.isRational() {
		// sqrt of a radical sum: numeric fallback
		f, _ := v.Float()
		if f < 0 {
			return value{}, fmt.Errorf("square root of negative value")
		}
		return approximate(math.Sqrt(f)), nil
	}
	r := v.rationalPart()
	if r.Sign() < 0 {
		return value{}, fmt.Errorf("square root of negative value")
	}
	if !r.Num().IsInt64() || !r.Denom().IsInt64() {
		f, _ := v.Float()
		return approximate(math.Sqrt(f)), nil
	}
	num := r.Num().Int64()
	den := r.Denom().Int64()
	if num != 0 && den > math.MaxInt64/num {
		f, _ := v.Float()
		return approximate(math.Sqrt(f)), nil
	}
	// sqrt(n/d) = sqrt(n*d)/d, then factor out perfect squares
	outside, inside := splitSquare(num * den)
	coef := big.NewRat(outside, den)
	return value{terms: map[int64]*big.Rat{inside: coef}}.compact(), nil
}

// #endregion

// #region helpers

func (v value) nonzeroTerms() []int64 {
	var out []int64
	for rad, coef := range v.terms {
		if coef.Sign() != 0 {
			out = append(out, rad)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// compact drops zero terms, keeping the rational slot for true zero.
func (v value) compact() value {
	if v.approx {
		return v
	}
	for rad, coef := range v.terms {
		if rad != 1 && coef.Sign() == 0 {
			delete(v.terms, rad)
		}
	}
	if len(v.terms) == 0 {
		v.terms[1] = new(big.Rat)
	}
	return v
}

// splitSquare factors n into outside^2 * inside with inside square-free.
func splitSquare(n int64) (outside, inside int64) {
	if n == 0 {
		return 0, 1
	}
	outside, inside = 1, n
	for p := int64(2); p*p <= inside; p++ {
		for inside%(p*p) == 0 {
			inside /= p * p
			outside *= p
		}
	}
	return outside, inside
}

// #endregion

// #region formatting

// Exact reports whether the value has an exact symbolic form.
func (v value) Exact() bool {
	return !v.approx
}

// String renders the exact form ("25", "3/2", "8*sqrt(1929)") or a decimal
// for approximate values.
func (v value) String() string {
	if v.approx {
		return formatFloat(v.f)
	}
	terms := v.nonzeroTerms()
	if len(terms) == 0 {
		return "0"
	}
	var parts []string
	for _, rad := range terms {
		coef := v.terms[rad]
		var s string
		switch {
		case rad == 1:
			s = coef.RatString()
		case coef.Cmp(big.NewRat(1, 1)) == 0:
			s = fmt.Sprintf("sqrt(%d)", rad)
		case coef.Cmp(big.NewRat(-1, 1)) == 0:
			s = fmt.Sprintf("-sqrt(%d)", rad)
		default:
			s = fmt.Sprintf("%s*sqrt(%d)", coef.RatString(), rad)
		}
		parts = append(parts, s)
	}
	out := parts[0]
	for _, p := range parts[1:] {
		if strings.HasPrefix(p, "-") {
			out += " - " + p[1:]
		} else {
			out += " + " + p
		}
	}
	return out
}

func formatFloat(f float64) string {
	s := fmt.Sprintf("%g", f)
	return s
}

// #endregion
