package coins

import "errors"

var (
	ErrEmptySet           = errors.New("empty dataset")
	ErrInvalidTosses      = errors.New("experiments must share a positive toss count")
	ErrInvalidProbability = errors.New("probability must be within [0, 1]")
	ErrInvalidPrior       = errors.New("prior sigma must be positive")
	ErrInvalidLabel       = errors.New("coin label must be A or B")
	ErrZeroIterations     = errors.New("number of iterations cannot be less than 1")
	ErrZeroEpsilon        = errors.New("epsilon must be positive")
	ErrZeroRestarts       = errors.New("number of restarts cannot be less than 1")
	ErrNilSource          = errors.New("random source is required")

	// ErrNumericalDegeneracy is returned when both coins assign zero
	// likelihood to an observation, or a coin with no prior receives zero
	// total responsibility.
	ErrNumericalDegeneracy = errors.New("numerical degeneracy")

	// ErrNonConvergence is returned when the iteration cap is reached before
	// the improvement drops to epsilon.
	ErrNonConvergence = errors.New("EM did not converge")

	// ErrDivisionUndefined is returned by the MLE when a coin never appears.
	ErrDivisionUndefined = errors.New("coin never observed")
)
