package coins

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"runtime"
	"sort"

	"github.com/sourcegraph/conc/pool"
)

// RestartResult is the outcome of one EM run from a random start. A failed
// restart keeps its error in Err, has a NaN Score and is ranked after every
// successful one.
type RestartResult struct {
	Index      int
	Initial    Theta
	Final      Theta
	Score      float64
	Iterations int
	Err        error
}

func (r RestartResult) Failed() bool {
	return r.Err != nil
}

// Restarter runs independent EM fits from uniformly drawn starting points.
type Restarter struct {
	engine  *Engine
	workers int
	logger  *slog.Logger
}

func NewRestarter(engine *Engine, workers int) (*Restarter, error) {
	if engine == nil {
		e, err := NewEngine(DefaultMaxIterations, DefaultEpsilon)
		if err != nil {
			return nil, err
		}
		engine = e
	}

	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}

	return &Restarter{
		engine:  engine,
		workers: workers,
		logger:  slog.Default(),
	}, nil
}

func (r *Restarter) WithLogger(l *slog.Logger) *Restarter {
	if l != nil {
		r.logger = l
	}
	return r
}

// RunMultiRestart runs restarts EM fits with the default engine and returns
// them ranked by ascending score against truth.
func RunMultiRestart(d Dataset, restarts int, rng *rand.Rand, truth Theta) ([]RestartResult, error) {
	r, err := NewRestarter(nil, 0)
	if err != nil {
		return nil, err
	}

	return r.Run(d, restarts, rng, truth)
}

// Run draws every starting point from rng up front, in restart order, so the
// ranking depends only on the seed and not on worker scheduling. Errors of
// individual restarts are recorded in their results; Run itself only fails on
// invalid arguments.
func (r *Restarter) Run(d Dataset, restarts int, rng *rand.Rand, truth Theta) ([]RestartResult, error) {
	if restarts < 1 {
		return nil, ErrZeroRestarts
	}

	if rng == nil {
		return nil, ErrNilSource
	}

	if err := truth.Validate(); err != nil {
		return nil, fmt.Errorf("ground truth: %w", err)
	}

	if err := d.Validate(); err != nil {
		return nil, err
	}

	var (
		initials = make([]Theta, restarts)
		results  = make([]RestartResult, restarts)
	)

	for i := range initials {
		initials[i] = Theta{A: rng.Float64(), B: rng.Float64()}
	}

	// Each task writes only its own slot.
	p := pool.New().WithMaxGoroutines(r.workers)

	for i := range results {
		i := i
		p.Go(func() {
			results[i] = r.restart(d, i, initials[i], truth)
		})
	}

	p.Wait()

	rank(results)

	return results, nil
}

func (r *Restarter) restart(d Dataset, i int, initial, truth Theta) RestartResult {
	res := RestartResult{
		Index:   i,
		Initial: initial,
		Score:   math.NaN(),
	}

	f, err := r.engine.Run(d, initial)
	if err != nil {
		r.logger.Warn("restart excluded from ranking",
			"restart", i,
			"theta_a", initial.A,
			"theta_b", initial.B,
			"error", err,
		)
		res.Err = err
		if f != nil {
			res.Iterations = f.Iterations
		}
		return res
	}

	res.Final = f.Theta
	res.Iterations = f.Iterations
	res.Score = f.Theta.Score(truth)

	return res
}

func rank(results []RestartResult) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]

		if a.Failed() != b.Failed() {
			return !a.Failed()
		}

		if !a.Failed() && a.Score != b.Score {
			return a.Score < b.Score
		}

		return a.Index < b.Index
	})
}

// Succeeded returns the results that took part in the ranking, in order.
func Succeeded(results []RestartResult) []RestartResult {
	s := make([]RestartResult, 0, len(results))
	for _, r := range results {
		if !r.Failed() {
			s = append(s, r)
		}
	}

	return s
}

// Best returns the lowest scoring successful restart of a ranked sequence.
func Best(results []RestartResult) (RestartResult, bool) {
	for _, r := range results {
		if !r.Failed() {
			return r, true
		}
	}

	return RestartResult{}, false
}

// Worst returns the highest scoring successful restart of a ranked sequence.
func Worst(results []RestartResult) (RestartResult, bool) {
	for i := len(results) - 1; i >= 0; i-- {
		if !results[i].Failed() {
			return results[i], true
		}
	}

	return RestartResult{}, false
}
