package rl

import (
	"errors"
	"math"
	"testing"

	"github.com/netrixframework/qlearn/env"
	"github.com/netrixframework/qlearn/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

// constantEnv has a single state and action. Every step pays reward and
// episodes are truncated after horizon steps.
type constantEnv struct {
	reward  float64
	horizon int
	steps   int
}

func (c *constantEnv) Reset() (int, error) {
	c.steps = 0
	return 0, nil
}

func (c *constantEnv) Step(int) (env.Step, error) {
	c.steps++
	return env.Step{State: 0, Reward: c.reward, Truncated: c.steps >= c.horizon}, nil
}

func (c *constantEnv) StateCount() int  { return 1 }
func (c *constantEnv) ActionCount() int { return 1 }

// chainEnv has two states and two actions. Action 0 moves from state 0 to
// state 1, and from state 1 ends the episode with reward 1. Action 1 moves
// back to state 0.
type chainEnv struct {
	state   int
	steps   int
	resets  int
	actions []int
	renders int
}

func (c *chainEnv) Reset() (int, error) {
	c.state = 0
	c.steps = 0
	c.resets++
	return 0, nil
}

func (c *chainEnv) Step(action int) (env.Step, error) {
	c.actions = append(c.actions, action)
	c.steps++
	step := env.Step{}
	switch {
	case action == 1:
		step.State = 0
	case c.state == 0:
		step.State = 1
	default:
		step.State = 1
		step.Reward = 1
		step.Terminated = true
	}
	step.Truncated = !step.Terminated && c.steps >= 50
	c.state = step.State
	return step, nil
}

func (c *chainEnv) StateCount() int  { return 2 }
func (c *chainEnv) ActionCount() int { return 2 }

func (c *chainEnv) Render() error {
	c.renders++
	return nil
}

// faultyEnv misbehaves in the way selected by mode
type faultyEnv struct {
	chainEnv
	mode string
}

func (f *faultyEnv) Reset() (int, error) {
	switch f.mode {
	case "reset error":
		return 0, errors.New("boom")
	case "reset out of range":
		return 7, nil
	}
	return f.chainEnv.Reset()
}

func (f *faultyEnv) Step(action int) (env.Step, error) {
	switch f.mode {
	case "step error":
		return env.Step{}, errors.New("boom")
	case "negative state":
		return env.Step{State: -1}, nil
	case "nan reward":
		return env.Step{State: 1, Reward: math.NaN()}, nil
	}
	return f.chainEnv.Step(action)
}

type recordingObserver struct {
	episodes []EpisodeStats
	runs     []RunStats
}

func (r *recordingObserver) EpisodeDone(s EpisodeStats) { r.episodes = append(r.episodes, s) }
func (r *recordingObserver) RunDone(s RunStats)         { r.runs = append(r.runs, s) }

func testConfig() *Config {
	return &Config{
		LearningRate:   0.99,
		DiscountFactor: 0.99,
		InitialEpsilon: 0.9,
		EpsilonDecay:   0.00005,
		SuccessReward:  1,
		Window:         100,
		ModelKey:       "test_model",
		Seed:           1,
	}
}

func newTrainer(t *testing.T, c *Config, e env.Environment, s store.Store, opts ...Option) *Trainer {
	t.Helper()
	trainer, err := NewTrainer(c, e, s, opts...)
	require.NoError(t, err)
	return trainer
}

func TestConvergesOnConstantReward(t *testing.T) {
	for _, r := range []float64{1, 0.5, -2} {
		trainer := newTrainer(t, testConfig(), &constantEnv{reward: r, horizon: 20}, store.NewMemoryStore())
		result, err := trainer.Run(100, true, false)
		require.NoError(t, err)
		assert.InDelta(t, r/(1-0.99), result.Table.Get(0, 0), 1e-3, "reward %v", r)
	}
}

func TestTwoStateScenario(t *testing.T) {
	c := testConfig()
	c.InitialEpsilon = 0
	trainer := newTrainer(t, c, &chainEnv{}, store.NewMemoryStore())
	result, err := trainer.Run(500, true, false)
	require.NoError(t, err)
	assert.InDelta(t, 0.99, result.Table.Get(0, 0), 0.01)
	assert.InDelta(t, 1.0, result.Table.Get(1, 0), 0.01)
	assert.Equal(t, 500, result.Successes())
	assert.Equal(t, 1000, result.Steps)
}

func TestEpsilonSchedule(t *testing.T) {
	tests := []struct {
		initial  float64
		decay    float64
		episodes int
	}{
		{0.9, 0.00005, 1},
		{0.9, 0.00005, 37},
		{0.9, 0.1, 3},
		{0.9, 0.1, 12},
		{0.9, 0.1, 20},
		{0.5, 0, 10},
		{1, 0.3, 4},
	}
	for _, tt := range tests {
		c := testConfig()
		c.InitialEpsilon = tt.initial
		c.EpsilonDecay = tt.decay
		obs := &recordingObserver{}
		trainer := newTrainer(t, c, &chainEnv{}, store.NewMemoryStore(), WithObserver(obs))
		result, err := trainer.Run(tt.episodes, true, false)
		require.NoError(t, err)

		want := math.Max(0, tt.initial-tt.decay*float64(tt.episodes))
		require.Equal(t, want, trainer.Epsilon())
		require.Equal(t, want, result.Epsilon)

		prev := tt.initial
		for _, s := range obs.episodes {
			require.GreaterOrEqual(t, s.Epsilon, 0.0)
			require.LessOrEqual(t, s.Epsilon, prev)
			prev = s.Epsilon
		}
	}
}

func TestEvaluationIsGreedy(t *testing.T) {
	s := store.NewMemoryStore()
	require.NoError(t, SaveTable(s, "test_model", NewQTableFrom([][]float64{{2, 1}, {5, -1}})))

	var trajectories [][]int
	for _, seed := range []uint64{1, 2, 3} {
		c := testConfig()
		c.Seed = seed
		e := &chainEnv{}
		trainer := newTrainer(t, c, e, s)
		result, err := trainer.Run(5, false, false)
		require.NoError(t, err)
		require.Equal(t, 5, result.Successes())
		require.Zero(t, trainer.Epsilon())
		trajectories = append(trajectories, e.actions)
	}
	require.Equal(t, []int{0, 0, 0, 0, 0, 0, 0, 0, 0, 0}, trajectories[0])
	require.Equal(t, trajectories[0], trajectories[1])
	require.Equal(t, trajectories[0], trajectories[2])
}

func TestEvaluationDoesNotModifyTable(t *testing.T) {
	s := store.NewMemoryStore()
	stored := NewQTableFrom([][]float64{{2, 1}, {5, -1}})
	require.NoError(t, SaveTable(s, "test_model", stored))

	trainer := newTrainer(t, testConfig(), &chainEnv{}, s)
	result, err := trainer.Run(10, false, false)
	require.NoError(t, err)
	require.True(t, stored.Equal(result.Table))
}

func TestMissingModel(t *testing.T) {
	e := &chainEnv{}
	trainer := newTrainer(t, testConfig(), e, store.NewMemoryStore())
	_, err := trainer.Run(3, false, false)
	require.ErrorIs(t, err, ErrMissingModel)
	require.Zero(t, e.resets)
}

func TestCardinalityMismatch(t *testing.T) {
	s := store.NewMemoryStore()
	require.NoError(t, SaveTable(s, "test_model", NewQTable(16, 4)))

	e := &chainEnv{}
	obs := &recordingObserver{}
	trainer := newTrainer(t, testConfig(), e, s, WithObserver(obs))
	_, err := trainer.Run(3, false, false)
	require.ErrorIs(t, err, ErrCardinalityMismatch)
	require.Zero(t, e.resets)
	require.Empty(t, obs.episodes)
	require.Len(t, obs.runs, 1)
	require.ErrorIs(t, obs.runs[0].Err, ErrCardinalityMismatch)
}

func TestCorruptModel(t *testing.T) {
	s := store.NewMemoryStore()
	require.NoError(t, s.Put("test_model", []byte("not a table")))
	trainer := newTrainer(t, testConfig(), &chainEnv{}, s)
	_, err := trainer.Run(1, false, false)
	require.ErrorIs(t, err, ErrCorruptModel)
}

func TestEnvironmentProtocolErrors(t *testing.T) {
	for _, mode := range []string{"reset error", "reset out of range", "step error", "negative state", "nan reward"} {
		t.Run(mode, func(t *testing.T) {
			s := store.NewMemoryStore()
			trainer := newTrainer(t, testConfig(), &faultyEnv{mode: mode}, s)
			_, err := trainer.Run(3, true, false)
			require.ErrorIs(t, err, ErrEnvironmentProtocol)

			_, err = s.Get("test_model")
			require.ErrorIs(t, err, store.ErrNotFound, "a failed run must not store a table")
		})
	}
}

func TestInvalidEpisodes(t *testing.T) {
	trainer := newTrainer(t, testConfig(), &chainEnv{}, store.NewMemoryStore())
	_, err := trainer.Run(0, true, false)
	require.ErrorIs(t, err, ErrInvalidEpisodes)
}

func TestNewTrainerInvalidConfig(t *testing.T) {
	tests := map[string]func(*Config){
		"learning rate": func(c *Config) { c.LearningRate = 0 },
		"discount":      func(c *Config) { c.DiscountFactor = 2 },
		"epsilon":       func(c *Config) { c.InitialEpsilon = 1.1 },
		"decay":         func(c *Config) { c.EpsilonDecay = -0.1 },
		"window":        func(c *Config) { c.Window = 0 },
		"model key":     func(c *Config) { c.ModelKey = "" },
	}
	for name, modify := range tests {
		c := testConfig()
		modify(c)
		_, err := NewTrainer(c, &chainEnv{}, store.NewMemoryStore())
		require.ErrorIs(t, err, ErrInvalidConfig, name)
	}
}

func TestTrainingStoresTable(t *testing.T) {
	s := store.NewMemoryStore()
	require.NoError(t, SaveTable(s, "test_model", NewQTable(2, 2)))

	trainer := newTrainer(t, testConfig(), &chainEnv{}, s)
	result, err := trainer.Run(50, true, false)
	require.NoError(t, err)

	stored, err := LoadTable(s, "test_model", 2, 2)
	require.NoError(t, err)
	require.True(t, stored.Equal(result.Table))
	require.NotZero(t, stored.Get(1, 0))
}

func TestRender(t *testing.T) {
	e := &chainEnv{}
	c := testConfig()
	c.InitialEpsilon = 0
	trainer := newTrainer(t, c, e, store.NewMemoryStore())
	_, err := trainer.Run(4, true, true)
	require.NoError(t, err)
	// one rendering after every reset and every step
	require.Equal(t, 4+len(e.actions), e.renders)

	e = &chainEnv{}
	trainer = newTrainer(t, c, e, store.NewMemoryStore())
	_, err = trainer.Run(4, true, false)
	require.NoError(t, err)
	require.Zero(t, e.renders)
}

func TestObserver(t *testing.T) {
	obs := &recordingObserver{}
	c := testConfig()
	c.Window = 3
	trainer := newTrainer(t, c, &chainEnv{}, store.NewMemoryStore(), WithObserver(obs))
	result, err := trainer.Run(10, true, false)
	require.NoError(t, err)

	require.Len(t, obs.episodes, 10)
	for i, s := range obs.episodes {
		require.Equal(t, i, s.Episode)
		require.True(t, s.Training)
		require.Equal(t, result.Rolling[i], s.Rolling)
		require.Equal(t, result.Rewards[i] == 1, s.Success)
	}
	require.Len(t, obs.runs, 1)
	require.NoError(t, obs.runs[0].Err)
	require.Equal(t, result.Successes(), obs.runs[0].Successes)
	require.Equal(t, result.Rolling, obs.runs[0].Rolling)
}

func TestWithRandIsReproducible(t *testing.T) {
	run := func() []int {
		e := &chainEnv{}
		trainer := newTrainer(t, testConfig(), e, store.NewMemoryStore(), WithRand(rand.New(rand.NewSource(99))))
		_, err := trainer.Run(20, true, false)
		require.NoError(t, err)
		return e.actions
	}
	require.Equal(t, run(), run())
}

func TestLearnsFrozenLake(t *testing.T) {
	lake, err := env.NewFrozenLake(env.FrozenLakeConfig{Map: env.Maps["4x4"]})
	require.NoError(t, err)

	c := testConfig()
	c.ModelKey = lake.ID()
	c.InitialEpsilon = 1
	c.EpsilonDecay = 0.0005
	c.Seed = 5
	s := store.NewMemoryStore()

	trainer := newTrainer(t, c, lake, s)
	_, err = trainer.Run(3000, true, false)
	require.NoError(t, err)

	evaluator := newTrainer(t, c, lake, s)
	result, err := evaluator.Run(10, false, false)
	require.NoError(t, err)
	require.Equal(t, 10, result.Successes())
}
