package coins

import (
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/floats"
)

const (
	DefaultEpsilon       = 0.001
	DefaultMaxIterations = 100
)

// Engine runs EM for the two-coin mixture. It holds no per-run state, so a
// single Engine may be shared by concurrent runs.
type Engine struct {
	iterations int
	epsilon    float64
	prior      *Prior
	logger     *slog.Logger
}

// Fit is the outcome of one EM run. Trace starts with the initial guess and
// holds one entry per completed iteration.
type Fit struct {
	Theta         Theta
	Trace         []Theta
	Iterations    int
	LogLikelihood float64
}

func NewEngine(iterations int, epsilon float64) (*Engine, error) {
	if iterations < 1 {
		return nil, ErrZeroIterations
	}

	if !(epsilon > 0) {
		return nil, ErrZeroEpsilon
	}

	return &Engine{
		iterations: iterations,
		epsilon:    epsilon,
		logger:     slog.Default(),
	}, nil
}

// WithPrior switches the M-step to the MAP update under p.
func (e *Engine) WithPrior(p *Prior) *Engine {
	e.prior = p
	return e
}

func (e *Engine) WithLogger(l *slog.Logger) *Engine {
	if l != nil {
		e.logger = l
	}
	return e
}

func (e *Engine) Epsilon() float64 {
	return e.epsilon
}

// RunEM fits the dataset from the initial guess with the default iteration cap.
func RunEM(d Dataset, initial Theta, epsilon float64, prior *Prior) (Theta, []Theta, error) {
	e, err := NewEngine(DefaultMaxIterations, epsilon)
	if err != nil {
		return Theta{}, nil, err
	}

	f, err := e.WithPrior(prior).Run(d, initial)
	if err != nil {
		return Theta{}, f.trace(), err
	}

	return f.Theta, f.Trace, nil
}

// Run iterates E and M steps until the largest parameter change is at most
// epsilon. On ErrNumericalDegeneracy or ErrNonConvergence the returned Fit
// carries only the trace recorded so far.
func (e *Engine) Run(d Dataset, initial Theta) (*Fit, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	if err := initial.Validate(); err != nil {
		return nil, err
	}

	if err := e.prior.Validate(); err != nil {
		return nil, err
	}

	var (
		l     = len(d)
		heads = make([]float64, l)
		tails = make([]float64, l)
		wa    = make([]float64, l)
		wb    = make([]float64, l)
		trace = make([]Theta, 1, 16)
		cur   = initial
	)

	for i, x := range d {
		heads[i] = float64(x.Heads)
		tails[i] = float64(x.Tails)
	}

	trace[0] = initial

	for i := 1; i <= e.iterations; i++ {
		if err := e.expectation(d, cur, wa, wb); err != nil {
			return &Fit{Trace: trace, Iterations: i - 1}, fmt.Errorf("iteration %d: %w", i, err)
		}

		next, err := e.maximization(
			[2]float64{floats.Dot(wa, heads), floats.Dot(wb, heads)},
			[2]float64{floats.Dot(wa, tails), floats.Dot(wb, tails)},
		)
		if err != nil {
			return &Fit{Trace: trace, Iterations: i - 1}, fmt.Errorf("iteration %d: %w", i, err)
		}

		improvement := math.Max(math.Abs(next.A-cur.A), math.Abs(next.B-cur.B))

		e.logger.Debug("em iteration",
			"iteration", i,
			"theta_a", next.A,
			"theta_b", next.B,
			"improvement", improvement,
		)

		trace = append(trace, next)
		cur = next

		if improvement <= e.epsilon {
			return &Fit{
				Theta:         cur,
				Trace:         trace,
				Iterations:    i,
				LogLikelihood: LogLikelihood(d, cur),
			}, nil
		}
	}

	return &Fit{Trace: trace, Iterations: e.iterations}, fmt.Errorf("%w within %d iterations", ErrNonConvergence, e.iterations)
}

// expectation fills wa and wb with each coin's responsibility for every
// experiment. Normalisation happens in log space so long experiments do not
// underflow to a spurious degeneracy.
func (e *Engine) expectation(d Dataset, theta Theta, wa, wb []float64) error {
	for i, x := range d {
		var (
			n  = x.Tosses()
			la = LogBinomialLikelihood(x.Heads, n, theta.A)
			lb = LogBinomialLikelihood(x.Heads, n, theta.B)
		)

		if math.IsInf(la, -1) && math.IsInf(lb, -1) {
			return fmt.Errorf("experiment %d with %d heads under %v: %w", i, x.Heads, theta, ErrNumericalDegeneracy)
		}

		wa[i] = 1 / (1 + math.Exp(lb-la))
		wb[i] = 1 / (1 + math.Exp(la-lb))
	}

	return nil
}

// maximization turns expected heads and tails per coin into new parameters.
func (e *Engine) maximization(heads, tails [2]float64) (Theta, error) {
	var t [2]float64

	for c := CoinA; c <= CoinB; c++ {
		h, s := heads[c], tails[c]

		if e.prior != nil {
			t[c] = mapUpdate(h, s, e.prior.Get(c), e.epsilon*1e-6)
			continue
		}

		if !(h+s > 0) {
			return Theta{}, fmt.Errorf("coin %v has no responsibility: %w", c, ErrNumericalDegeneracy)
		}

		t[c] = h / (h + s)
	}

	return Theta{A: t[CoinA], B: t[CoinB]}, nil
}

func (f *Fit) trace() []Theta {
	if f == nil {
		return nil
	}

	return f.Trace
}
