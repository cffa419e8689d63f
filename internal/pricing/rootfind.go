package pricing

import "math"

// RootFinder locates a root of f inside a bracket [lo, hi] whose endpoint
// values flo and fhi are already known to have opposite signs (or one of
// them is exactly zero).
//
// Implementations stop when |f(x)| < tol or the bracket has shrunk below
// tol, and return their best estimate with the number of iterations spent.
// Running out of iterations is not an error.
type RootFinder interface {
	FindRoot(f func(float64) float64, lo, hi, flo, fhi, tol float64, maxIter int) (root float64, iterations int)
}

// Bisection halves the bracket until the midpoint is within tolerance.
type Bisection struct{}

// FindRoot implements RootFinder.
func (Bisection) FindRoot(f func(float64) float64, lo, hi, flo, fhi, tol float64, maxIter int) (float64, int) {
	if flo == 0 {
		return lo, 0
	}
	if fhi == 0 {
		return hi, 0
	}

	mid := 0.5 * (lo + hi)
	for i := 1; i <= maxIter; i++ {
		mid = 0.5 * (lo + hi)
		diff := f(mid)
		if math.Abs(diff) < tol {
			return mid, i
		}
		if diff*flo > 0 {
			lo, flo = mid, diff
		} else {
			hi = mid
		}
	}
	return mid, maxIter
}

// Brent combines inverse quadratic interpolation and secant steps with
// bisection as a safeguard. It keeps the root bracketed at every step, so it
// converges whenever Bisection would, usually in far fewer evaluations.
type Brent struct{}

// FindRoot implements RootFinder.
func (Brent) FindRoot(f func(float64) float64, lo, hi, flo, fhi, tol float64, maxIter int) (float64, int) {
	if flo == 0 {
		return lo, 0
	}
	if fhi == 0 {
		return hi, 0
	}

	const machEps = 2.220446049250313e-16

	a, b := lo, hi
	fa, fb := flo, fhi
	c, fc := b, fb
	var d, e float64

	for i := 1; i <= maxIter; i++ {
		if (fb > 0 && fc > 0) || (fb < 0 && fc < 0) {
			c, fc = a, fa
			d = b - a
			e = d
		}
		if math.Abs(fc) < math.Abs(fb) {
			a, b, c = b, c, b
			fa, fb, fc = fb, fc, fb
		}

		tol1 := 2*machEps*math.Abs(b) + 0.5*tol
		xm := 0.5 * (c - b)
		if math.Abs(xm) <= tol1 || math.Abs(fb) < tol {
			return b, i
		}

		if math.Abs(e) >= tol1 && math.Abs(fa) > math.Abs(fb) {
			s := fb / fa
			var p, q float64
			if a == c {
				// secant
				p = 2 * xm * s
				q = 1 - s
			} else {
				// inverse quadratic interpolation
				q = fa / fc
				r := fb / fc
				p = s * (2*xm*q*(q-r) - (b-a)*(r-1))
				q = (q - 1) * (r - 1) * (s - 1)
			}
			if p > 0 {
				q = -q
			}
			p = math.Abs(p)

			min1 := 3*xm*q - math.Abs(tol1*q)
			min2 := math.Abs(e * q)
			if 2*p < math.Min(min1, min2) {
				e = d
				d = p / q
			} else {
				d = xm
				e = d
			}
		} else {
			d = xm
			e = d
		}

		a, fa = b, fb
		if math.Abs(d) > tol1 {
			b += d
		} else {
			b += math.Copysign(tol1, xm)
		}
		fb = f(b)
	}
	return b, maxIter
}
