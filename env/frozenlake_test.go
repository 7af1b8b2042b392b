package env

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func newLake(t *testing.T, c FrozenLakeConfig) *FrozenLake {
	t.Helper()
	if c.Map == nil {
		c.Map = Maps["4x4"]
	}
	if c.Output == nil {
		c.Output = &bytes.Buffer{}
	}
	lake, err := NewFrozenLake(c)
	require.NoError(t, err)
	return lake
}

func TestFrozenLakeCardinalities(t *testing.T) {
	small := newLake(t, FrozenLakeConfig{})
	require.Equal(t, 16, small.StateCount())
	require.Equal(t, 4, small.ActionCount())
	require.Equal(t, 100, small.MaxSteps())
	require.Equal(t, "frozen_lake4x4", small.ID())

	large := newLake(t, FrozenLakeConfig{Map: Maps["8x8"]})
	require.Equal(t, 64, large.StateCount())
	require.Equal(t, 200, large.MaxSteps())
	require.Equal(t, "frozen_lake8x8", large.ID())
}

func TestFrozenLakeStepBeforeReset(t *testing.T) {
	lake := newLake(t, FrozenLakeConfig{})
	_, err := lake.Step(Down)
	require.ErrorIs(t, err, ErrNotReset)
}

func TestFrozenLakeInvalidAction(t *testing.T) {
	lake := newLake(t, FrozenLakeConfig{})
	_, err := lake.Reset()
	require.NoError(t, err)
	_, err = lake.Step(4)
	require.ErrorIs(t, err, ErrInvalidAction)
	_, err = lake.Step(-1)
	require.ErrorIs(t, err, ErrInvalidAction)
}

func TestFrozenLakeDeterministicPath(t *testing.T) {
	lake := newLake(t, FrozenLakeConfig{})
	state, err := lake.Reset()
	require.NoError(t, err)
	require.Equal(t, 0, state)

	// Left and Up at the corner keep the agent in place
	step, err := lake.Step(Left)
	require.NoError(t, err)
	require.Equal(t, Step{State: 0}, step)
	step, err = lake.Step(Up)
	require.NoError(t, err)
	require.Equal(t, 0, step.State)

	// Down, Down, Right, Right, Down, Right reaches the goal on the 4x4 map
	path := []int{Down, Down, Right, Right, Down, Right}
	for i, a := range path {
		step, err = lake.Step(a)
		require.NoError(t, err)
		if i < len(path)-1 {
			require.False(t, step.Done(), "step %d ended the episode in state %d", i, step.State)
			require.Zero(t, step.Reward)
		}
	}
	require.Equal(t, 15, step.State)
	require.Equal(t, 1.0, step.Reward)
	require.True(t, step.Terminated)
	require.False(t, step.Truncated)

	_, err = lake.Step(Down)
	require.ErrorIs(t, err, ErrEpisodeDone)
}

func TestFrozenLakeHoleTerminates(t *testing.T) {
	lake := newLake(t, FrozenLakeConfig{})
	_, err := lake.Reset()
	require.NoError(t, err)
	_, err = lake.Step(Right)
	require.NoError(t, err)
	step, err := lake.Step(Down)
	require.NoError(t, err)
	require.Equal(t, 5, step.State)
	require.Equal(t, byte(TileHole), lake.Tile(step.State))
	require.True(t, step.Terminated)
	require.Zero(t, step.Reward)
}

func TestFrozenLakeTruncation(t *testing.T) {
	lake := newLake(t, FrozenLakeConfig{MaxSteps: 3})
	_, err := lake.Reset()
	require.NoError(t, err)
	var step Step
	for i := 0; i < 3; i++ {
		step, err = lake.Step(Left)
		require.NoError(t, err)
	}
	require.True(t, step.Truncated)
	require.False(t, step.Terminated)

	state, err := lake.Reset()
	require.NoError(t, err)
	require.Equal(t, 0, state)
	step, err = lake.Step(Left)
	require.NoError(t, err)
	require.False(t, step.Done())
}

func TestFrozenLakeSlipperyStaysAdjacent(t *testing.T) {
	lake := newLake(t, FrozenLakeConfig{Map: []string{"FFF", "FSF", "FFG"}, Slippery: true, Seed: 11})
	seen := map[int]bool{}
	for i := 0; i < 300; i++ {
		_, err := lake.Reset()
		require.NoError(t, err)
		step, err := lake.Step(Right)
		require.NoError(t, err)
		seen[step.State] = true
	}
	// intended Right (5) or the perpendicular Up (1) and Down (7)
	require.Equal(t, map[int]bool{1: true, 5: true, 7: true}, seen)
}

func TestFrozenLakeSlipperySeeded(t *testing.T) {
	run := func() []int {
		lake := newLake(t, FrozenLakeConfig{Map: Maps["8x8"], Slippery: true, Seed: 42})
		var states []int
		_, err := lake.Reset()
		require.NoError(t, err)
		for i := 0; i < 50; i++ {
			step, err := lake.Step(i % 4)
			require.NoError(t, err)
			states = append(states, step.State)
			if step.Done() {
				_, err = lake.Reset()
				require.NoError(t, err)
			}
		}
		return states
	}
	require.Equal(t, run(), run())
}

func TestFrozenLakeRender(t *testing.T) {
	var buf bytes.Buffer
	lake := newLake(t, FrozenLakeConfig{Output: &buf})
	_, err := lake.Reset()
	require.NoError(t, err)
	require.NoError(t, lake.Render())
	_, err = lake.Step(Right)
	require.NoError(t, err)
	buf.Reset()
	require.NoError(t, lake.Render())

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 5)
	require.Equal(t, "  (Right)", lines[0])
	require.Equal(t, "SFFF", lines[1])
	require.Equal(t, "HFFG", lines[4])
}

func TestNewFrozenLakeInvalidMaps(t *testing.T) {
	tests := map[string][]string{
		"empty":        {},
		"ragged":       {"SF", "F"},
		"no start":     {"FF", "FG"},
		"two starts":   {"SS", "FG"},
		"no goal":      {"SF", "FH"},
		"unknown tile": {"SX", "FG"},
	}
	for name, layout := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NewFrozenLake(FrozenLakeConfig{Map: layout})
			require.ErrorIs(t, err, ErrInvalidMap)
		})
	}
}

func TestGenerateRandomMap(t *testing.T) {
	layout, err := GenerateRandomMap(6, 0.7, 3)
	require.NoError(t, err)
	require.Len(t, layout, 6)
	require.Equal(t, byte(TileStart), layout[0][0])
	require.Equal(t, byte(TileGoal), layout[5][5])

	grid, start, err := parseMap(layout)
	require.NoError(t, err)
	require.Equal(t, 0, start)
	require.True(t, reachable(grid, 0, 0))

	again, err := GenerateRandomMap(6, 0.7, 3)
	require.NoError(t, err)
	require.Equal(t, layout, again)

	_, err = GenerateRandomMap(1, 0.7, 3)
	require.ErrorIs(t, err, ErrInvalidMap)
	_, err = GenerateRandomMap(4, 0, 3)
	require.ErrorIs(t, err, ErrInvalidMap)
}

func TestReachable(t *testing.T) {
	blocked := [][]byte{[]byte("SH"), []byte("HG")}
	require.False(t, reachable(blocked, 0, 0))
	open := [][]byte{[]byte("SF"), []byte("HG")}
	require.True(t, reachable(open, 0, 0))
}
