package coins

import "fmt"

// ComputeMLE returns the per-coin fraction of heads using the true labels.
// A coin that never appears makes its estimate undefined.
func ComputeMLE(d LabeledDataset) (Theta, error) {
	if len(d) == 0 {
		return Theta{}, ErrEmptySet
	}

	var heads, tosses [2]int

	for _, e := range d {
		if e.Coin != CoinA && e.Coin != CoinB {
			return Theta{}, fmt.Errorf("coin %v: %w", e.Coin, ErrInvalidLabel)
		}

		heads[e.Coin] += e.Heads
		tosses[e.Coin] += e.Tosses()
	}

	for c := CoinA; c <= CoinB; c++ {
		if tosses[c] == 0 {
			return Theta{}, fmt.Errorf("coin %v: %w", c, ErrDivisionUndefined)
		}
	}

	return Theta{
		A: float64(heads[CoinA]) / float64(tosses[CoinA]),
		B: float64(heads[CoinB]) / float64(tosses[CoinB]),
	}, nil
}
