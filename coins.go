// Package coins estimates the biases of two coins from toss counts whose coin
// labels are hidden, using Expectation-Maximization with optional restarts and
// a Normal prior, and compares against the fully labeled MLE.
package coins

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

type Coin int

const (
	CoinA Coin = iota
	CoinB
)

func (c Coin) String() string {
	switch c {
	case CoinA:
		return "A"
	case CoinB:
		return "B"
	default:
		return fmt.Sprintf("Coin(%d)", int(c))
	}
}

// Experiment is one trial of a fixed number of tosses of a single coin.
type Experiment struct {
	Heads, Tails int
}

func (e Experiment) Tosses() int {
	return e.Heads + e.Tails
}

// Dataset is an ordered sequence of experiments sharing the same toss count.
type Dataset []Experiment

// Tosses returns the per-experiment toss count, or 0 for an empty dataset.
func (d Dataset) Tosses() int {
	if len(d) == 0 {
		return 0
	}

	return d[0].Tosses()
}

// Validate checks that the dataset is non-empty and every experiment has the
// same positive number of tosses.
func (d Dataset) Validate() error {
	if len(d) == 0 {
		return ErrEmptySet
	}

	n := d.Tosses()
	if n < 1 {
		return ErrInvalidTosses
	}

	for i, e := range d {
		if e.Heads < 0 || e.Tails < 0 || e.Tosses() != n {
			return fmt.Errorf("experiment %d (%d heads, %d tails, want %d tosses): %w", i, e.Heads, e.Tails, n, ErrInvalidTosses)
		}
	}

	return nil
}

// LabeledExperiment carries the coin that actually produced the experiment.
type LabeledExperiment struct {
	Experiment
	Coin Coin
}

type LabeledDataset []LabeledExperiment

// Unlabel drops the coin labels, leaving what EM is allowed to see.
func (d LabeledDataset) Unlabel() Dataset {
	u := make(Dataset, len(d))
	for i := range d {
		u[i] = d[i].Experiment
	}

	return u
}

// Theta holds the heads probability of coin A and coin B.
type Theta struct {
	A, B float64
}

func (t Theta) Validate() error {
	if !isProbability(t.A) || !isProbability(t.B) {
		return fmt.Errorf("theta (%g, %g): %w", t.A, t.B, ErrInvalidProbability)
	}

	return nil
}

// Swap returns the parameters with the coin labels exchanged.
func (t Theta) Swap() Theta {
	return Theta{A: t.B, B: t.A}
}

// Get returns the bias of coin c.
func (t Theta) Get(c Coin) float64 {
	if c == CoinB {
		return t.B
	}

	return t.A
}

// Score is the L1 distance to the true parameters; lower is better.
func (t Theta) Score(truth Theta) float64 {
	return floats.Distance([]float64{t.A, t.B}, []float64{truth.A, truth.B}, 1)
}

func (t Theta) String() string {
	return fmt.Sprintf("(%.4f, %.4f)", t.A, t.B)
}

// Normal is a Normal prior over a single coin's bias.
type Normal struct {
	Mu    float64 `yaml:"mu"`
	Sigma float64 `yaml:"sigma"`
}

func (n Normal) Dist() distuv.Normal {
	return distuv.Normal{
		Mu:    n.Mu,
		Sigma: n.Sigma,
	}
}

// Prior turns the M-step into a MAP update. A nil *Prior means plain MLE.
type Prior struct {
	A Normal `yaml:"a"`
	B Normal `yaml:"b"`
}

func (p *Prior) Validate() error {
	if p == nil {
		return nil
	}

	if !(p.A.Sigma > 0) || !(p.B.Sigma > 0) {
		return fmt.Errorf("prior sigma (%g, %g): %w", p.A.Sigma, p.B.Sigma, ErrInvalidPrior)
	}

	return nil
}

func (p *Prior) Get(c Coin) Normal {
	if c == CoinB {
		return p.B
	}

	return p.A
}

func isProbability(p float64) bool {
	return p >= 0 && p <= 1
}
