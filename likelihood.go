package coins

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/combin"
)

// BinomialLikelihood returns P(X = k) for X ~ Binomial(n, p). Out of range k
// yields 0, as do the degenerate cases p = 0 with k > 0 and p = 1 with k < n.
func BinomialLikelihood(k, n int, p float64) float64 {
	return math.Exp(LogBinomialLikelihood(k, n, p))
}

// LogBinomialLikelihood is the natural logarithm of BinomialLikelihood,
// computed without forming the coefficient or the powers directly.
func LogBinomialLikelihood(k, n int, p float64) float64 {
	if n < 0 || k < 0 || k > n || math.IsNaN(p) || p < 0 || p > 1 {
		return math.Inf(-1)
	}

	var (
		fk = float64(k)
		fn = float64(n)
		l  = combin.LogGeneralizedBinomial(fn, fk)
	)

	// 0 * log(0) is taken as 0 so the endpoints stay exact.
	switch {
	case p == 0:
		if k > 0 {
			return math.Inf(-1)
		}
		return l
	case p == 1:
		if k < n {
			return math.Inf(-1)
		}
		return l
	}

	return l + fk*math.Log(p) + (fn-fk)*math.Log1p(-p)
}

// LogLikelihood is the observed-data log-likelihood of the dataset under an
// equal-weight mixture of the two coins.
func LogLikelihood(d Dataset, theta Theta) float64 {
	ll := make([]float64, len(d))

	for i, e := range d {
		var (
			n  = e.Tosses()
			la = LogBinomialLikelihood(e.Heads, n, theta.A)
			lb = LogBinomialLikelihood(e.Heads, n, theta.B)
		)

		ll[i] = logSumExp(la, lb) - math.Ln2
	}

	return floats.Sum(ll)
}

// LogPosterior adds the prior log-density of theta to LogLikelihood. A nil
// prior contributes nothing.
func LogPosterior(d Dataset, theta Theta, prior *Prior) float64 {
	lp := LogLikelihood(d, theta)
	if prior == nil {
		return lp
	}

	return lp + prior.A.Dist().LogProb(theta.A) + prior.B.Dist().LogProb(theta.B)
}

func logSumExp(a, b float64) float64 {
	if a < b {
		a, b = b, a
	}

	if math.IsInf(a, -1) {
		return a
	}

	return a + math.Log1p(math.Exp(b-a))
}
