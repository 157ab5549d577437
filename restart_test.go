package coins

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietRestarter(t *testing.T, e *Engine, workers int) *Restarter {
	t.Helper()

	r, err := NewRestarter(e, workers)
	require.NoError(t, err)

	return r.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func assertSameRanking(t *testing.T, a, b []RestartResult) {
	t.Helper()

	require.Len(t, b, len(a))

	for i := range a {
		assert.Equal(t, a[i].Index, b[i].Index)
		assert.Equal(t, a[i].Initial, b[i].Initial)
		assert.Equal(t, a[i].Final, b[i].Final)
		assert.Equal(t, a[i].Iterations, b[i].Iterations)
		assert.Equal(t, a[i].Failed(), b[i].Failed())
		if !a[i].Failed() {
			assert.Equal(t, a[i].Score, b[i].Score)
		}
	}
}

func TestRunMultiRestartIsReproducible(t *testing.T) {
	var (
		d     = classicDataset()
		truth = Theta{A: 0.8, B: 0.45}
	)

	a, err := RunMultiRestart(d, 20, rand.New(rand.NewSource(42)), truth)
	require.NoError(t, err)

	b, err := RunMultiRestart(d, 20, rand.New(rand.NewSource(42)), truth)
	require.NoError(t, err)

	assert.Len(t, a, 20)
	assertSameRanking(t, a, b)
}

func TestRestarterWorkerCountDoesNotChangeRanking(t *testing.T) {
	var (
		d     = separatedDataset()
		truth = Theta{A: 0.9, B: 0.1}
	)

	e, err := NewEngine(DefaultMaxIterations, DefaultEpsilon)
	require.NoError(t, err)

	a, err := quietRestarter(t, e, 1).Run(d, 32, rand.New(rand.NewSource(7)), truth)
	require.NoError(t, err)

	b, err := quietRestarter(t, e, 8).Run(d, 32, rand.New(rand.NewSource(7)), truth)
	require.NoError(t, err)

	assertSameRanking(t, a, b)
}

func TestRunMultiRestartRanksByScore(t *testing.T) {
	truth := Theta{A: 0.8, B: 0.45}

	results, err := RunMultiRestart(classicDataset(), 20, rand.New(rand.NewSource(3)), truth)
	require.NoError(t, err)

	seen := make(map[int]bool, len(results))

	for i, r := range results {
		seen[r.Index] = true

		if r.Failed() {
			continue
		}

		assert.InDelta(t, math.Abs(r.Final.A-truth.A)+math.Abs(r.Final.B-truth.B), r.Score, TOLERANCE)
		if i > 0 && !results[i-1].Failed() {
			assert.LessOrEqual(t, results[i-1].Score, r.Score)
		}
	}

	assert.Len(t, seen, 20)
}

func TestRunMultiRestartRecordsFailures(t *testing.T) {
	e, err := NewEngine(1, 1e-12)
	require.NoError(t, err)

	results, err := quietRestarter(t, e, 4).Run(classicDataset(), 5, rand.New(rand.NewSource(1)), Theta{A: 0.8, B: 0.45})
	require.NoError(t, err)
	require.Len(t, results, 5)

	for i, r := range results {
		assert.True(t, r.Failed())
		assert.ErrorIs(t, r.Err, ErrNonConvergence)
		assert.True(t, math.IsNaN(r.Score))
		assert.Equal(t, i, r.Index)
	}

	_, ok := Best(results)
	assert.False(t, ok)

	_, ok = Worst(results)
	assert.False(t, ok)

	assert.Empty(t, Succeeded(results))
}

func TestRunMultiRestartRejectsInvalidArguments(t *testing.T) {
	var (
		d     = classicDataset()
		truth = Theta{A: 0.8, B: 0.45}
		rng   = rand.New(rand.NewSource(1))
	)

	_, err := RunMultiRestart(d, 0, rng, truth)
	assert.ErrorIs(t, err, ErrZeroRestarts)

	_, err = RunMultiRestart(d, 3, nil, truth)
	assert.ErrorIs(t, err, ErrNilSource)

	_, err = RunMultiRestart(d, 3, rng, Theta{A: -1, B: 0.5})
	assert.ErrorIs(t, err, ErrInvalidProbability)

	_, err = RunMultiRestart(Dataset{}, 3, rng, truth)
	assert.ErrorIs(t, err, ErrEmptySet)
}

func TestRankPutsFailuresLast(t *testing.T) {
	var (
		fail    = errors.New("failed")
		results = []RestartResult{
			{Index: 0, Score: 0.3},
			{Index: 1, Score: math.NaN(), Err: fail},
			{Index: 2, Score: 0.1},
			{Index: 3, Score: math.NaN(), Err: fail},
			{Index: 4, Score: 0.2},
			{Index: 5, Score: 0.1},
		}
	)

	rank(results)

	var order []int
	for _, r := range results {
		order = append(order, r.Index)
	}
	assert.Equal(t, []int{2, 5, 4, 0, 1, 3}, order)

	best, ok := Best(results)
	require.True(t, ok)
	assert.Equal(t, 2, best.Index)

	worst, ok := Worst(results)
	require.True(t, ok)
	assert.Equal(t, 0, worst.Index)

	assert.Len(t, Succeeded(results), 4)
}
