package coins

const maxSolverIterations = 200

// mapUpdate maximises
//
//	h*log(x) + t*log(1-x) + log N(x; mu, sigma)
//
// over [0, 1]. The objective is strictly concave, so its derivative is
// decreasing and the maximiser is either an endpoint or the unique root,
// found by Newton steps kept inside a shrinking bisection bracket.
func mapUpdate(h, t float64, prior Normal, tol float64) float64 {
	var (
		s2   = prior.Sigma * prior.Sigma
		grad = func(x float64) float64 {
			return h/x - t/(1-x) - (x-prior.Mu)/s2
		}
		hess = func(x float64) float64 {
			return -h/(x*x) - t/((1-x)*(1-x)) - 1/s2
		}
	)

	// With no expected heads (tails) the derivative is finite at 0 (1).
	if h == 0 && prior.Mu/s2-t <= 0 {
		return 0
	}

	if t == 0 && h-(1-prior.Mu)/s2 >= 0 {
		return 1
	}

	// The derivative is positive just above lo and negative just below hi
	// from here on, so [lo, hi] always brackets the root.
	var (
		lo, hi = 0.0, 1.0
		width  = hi - lo
		x      = 0.5
	)

	if h+t > 0 {
		x = h / (h + t)
	}

	if x <= lo || x >= hi {
		x = (lo + hi) / 2
	}

	for i := 0; i < maxSolverIterations && hi-lo > tol; i++ {
		g := grad(x)
		if g == 0 {
			return x
		}

		// Check the sign one tol past x as well, so a root next to x closes
		// the bracket instead of relying on the Newton step size.
		p := x - tol
		if g > 0 {
			lo = x
			p = x + tol
		} else {
			hi = x
		}

		if p > lo && p < hi {
			if grad(p) > 0 {
				lo = p
			} else {
				hi = p
			}
		}

		// Newton steps that leave the bracket or fail to halve it fall back
		// to bisection.
		n := x - g/hess(x)
		if !(n > lo && n < hi) || hi-lo > width/2 {
			n = (lo + hi) / 2
		}

		width = hi - lo
		x = n
	}

	return (lo + hi) / 2
}
