package coins

import (
	"math/rand"
)

// Simulate produces experiments of the given number of tosses, picking coin A
// or B with equal probability for each one and tossing it with the bias in
// truth.
func Simulate(rng *rand.Rand, truth Theta, experiments, tosses int) (LabeledDataset, error) {
	if rng == nil {
		return nil, ErrNilSource
	}

	if experiments < 1 {
		return nil, ErrEmptySet
	}

	if tosses < 1 {
		return nil, ErrInvalidTosses
	}

	if err := truth.Validate(); err != nil {
		return nil, err
	}

	d := make(LabeledDataset, experiments)

	for i := range d {
		c := CoinA
		if rng.Intn(2) == 1 {
			c = CoinB
		}

		var (
			p = truth.Get(c)
			h int
		)

		for j := 0; j < tosses; j++ {
			if rng.Float64() < p {
				h++
			}
		}

		d[i] = LabeledExperiment{
			Experiment: Experiment{Heads: h, Tails: tosses - h},
			Coin:       c,
		}
	}

	return d, nil
}
