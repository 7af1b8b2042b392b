package rl

import (
	"math"

	"golang.org/x/exp/constraints"
	"golang.org/x/exp/rand"
)

// SelectGreedy returns the best known action for the state
func SelectGreedy(table *QTable, state int) int {
	return table.Argmax(state)
}

// EpsilonGreedy picks a uniformly random action with probability Epsilon
// and the greedy action otherwise
type EpsilonGreedy struct {
	Epsilon float64
	Rand    *rand.Rand
}

func (e *EpsilonGreedy) Select(table *QTable, state int) int {
	if e.Rand.Float64() < e.Epsilon {
		_, actions := table.Dims()
		return e.Rand.Intn(actions)
	}
	return SelectGreedy(table, state)
}

// Exploration is a linearly decaying exploration rate floored at zero
type Exploration struct {
	Initial float64
	Decay   float64
}

// At returns the exploration rate after the given number of completed
// episodes. It is computed from the count rather than by repeated
// subtraction so it equals max(0, Initial-Decay*episodes) exactly.
func (e Exploration) At(episodes int) float64 {
	return math.Max(0, e.Initial-e.Decay*float64(episodes))
}

// RollingSum returns, for every index t, the sum of record over the
// trailing window ending at t. The first window-1 entries sum over fewer
// elements.
func RollingSum[T constraints.Integer | constraints.Float](record []T, window int) []float64 {
	out := make([]float64, len(record))
	var sum float64
	for i, v := range record {
		sum += float64(v)
		if i >= window {
			sum -= float64(record[i-window])
		}
		out[i] = sum
	}
	return out
}
