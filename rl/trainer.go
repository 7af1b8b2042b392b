package rl

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/netrixframework/qlearn/config"
	"github.com/netrixframework/qlearn/env"
	"github.com/netrixframework/qlearn/log"
	"github.com/netrixframework/qlearn/store"
	"golang.org/x/exp/rand"
)

// Config holds the trainer hyper parameters
type Config struct {
	// LearningRate is alpha in the Bellman update
	LearningRate float64
	// DiscountFactor is gamma in the Bellman update
	DiscountFactor float64
	// InitialEpsilon is the exploration rate of the first training episode
	InitialEpsilon float64
	// EpsilonDecay is subtracted from the exploration rate after every
	// training episode
	EpsilonDecay float64
	// SuccessReward is the final reward that marks a successful episode
	SuccessReward float64
	// Window is the number of trailing episodes in the rolling sum
	Window int
	// ModelKey identifies the stored value table
	ModelKey string
	// Seed of the exploration source. 0 seeds from the clock
	Seed uint64
	// LogEvery logs progress every n episodes. 0 disables it
	LogEvery int
}

// NewConfig builds the trainer config from the file config
func NewConfig(c config.TrainerConfig, modelKey string) *Config {
	return &Config{
		LearningRate:   c.LearningRate,
		DiscountFactor: c.DiscountFactor,
		InitialEpsilon: c.InitialEpsilon,
		EpsilonDecay:   c.EpsilonDecay,
		SuccessReward:  c.SuccessReward,
		Window:         c.Window,
		ModelKey:       modelKey,
		Seed:           c.Seed,
		LogEvery:       c.LogEvery,
	}
}

func (c *Config) validate() error {
	switch {
	case c.LearningRate <= 0 || c.LearningRate > 1:
		return fmt.Errorf("%w: learning rate %v not in (0, 1]", ErrInvalidConfig, c.LearningRate)
	case c.DiscountFactor < 0 || c.DiscountFactor > 1:
		return fmt.Errorf("%w: discount factor %v not in [0, 1]", ErrInvalidConfig, c.DiscountFactor)
	case c.InitialEpsilon < 0 || c.InitialEpsilon > 1:
		return fmt.Errorf("%w: initial epsilon %v not in [0, 1]", ErrInvalidConfig, c.InitialEpsilon)
	case c.EpsilonDecay < 0:
		return fmt.Errorf("%w: negative epsilon decay %v", ErrInvalidConfig, c.EpsilonDecay)
	case c.Window <= 0:
		return fmt.Errorf("%w: window %d must be positive", ErrInvalidConfig, c.Window)
	case c.ModelKey == "":
		return fmt.Errorf("%w: empty model key", ErrInvalidConfig)
	}
	return nil
}

// EpisodeStats describes a finished episode
type EpisodeStats struct {
	// Episode is the zero based index in the run
	Episode  int
	Training bool
	Steps    int
	// Reward of the final step
	Reward  float64
	Success bool
	// Epsilon is the exploration rate for the next episode
	Epsilon float64
	// Rolling is the number of successes in the trailing window
	Rolling float64
}

// RunStats describes a finished or failed run
type RunStats struct {
	Training  bool
	Episodes  int
	Successes int
	Epsilon   float64
	Rolling   []float64
	Err       error
}

// Observer is notified as the run progresses. Calls happen on the
// goroutine executing Run.
type Observer interface {
	EpisodeDone(EpisodeStats)
	RunDone(RunStats)
}

// Result is the outcome of a run
type Result struct {
	// Rewards holds 1 for every successful episode and 0 otherwise
	Rewards []float64
	// Rolling is the trailing window sum of Rewards
	Rolling []float64
	// Epsilon is the exploration rate at the end of the run
	Epsilon float64
	// Steps is the total number of environment steps
	Steps int
	Table *QTable
}

// Successes returns the number of successful episodes
func (r *Result) Successes() int {
	n := 0
	for _, v := range r.Rewards {
		if v == 1 {
			n++
		}
	}
	return n
}

// Trainer runs Q-learning episodes against an environment. It is not safe
// for concurrent use.
type Trainer struct {
	config      *Config
	env         env.Environment
	store       store.Store
	rand        *rand.Rand
	exploration Exploration
	observers   []Observer

	table   *QTable
	epsilon float64

	Logger *log.Logger
}

// Option configures a Trainer
type Option func(*Trainer)

// WithLogger sets the logger
func WithLogger(l *log.Logger) Option {
	return func(t *Trainer) {
		t.Logger = l
	}
}

// WithObserver adds an observer
func WithObserver(o Observer) Option {
	return func(t *Trainer) {
		t.observers = append(t.observers, o)
	}
}

// WithRand replaces the exploration source
func WithRand(r *rand.Rand) Option {
	return func(t *Trainer) {
		t.rand = r
	}
}

// NewTrainer validates the config and instantiates Trainer
func NewTrainer(c *Config, e env.Environment, s store.Store, opts ...Option) (*Trainer, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	seed := c.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	t := &Trainer{
		config: c,
		env:    e,
		store:  s,
		rand:   rand.New(rand.NewSource(seed)),
		exploration: Exploration{
			Initial: c.InitialEpsilon,
			Decay:   c.EpsilonDecay,
		},
		epsilon:   c.InitialEpsilon,
		observers: make([]Observer, 0),
		Logger:    log.DefaultLogger,
	}
	for _, o := range opts {
		o(t)
	}
	return t, nil
}

// Table returns the value table of the last run
func (t *Trainer) Table() *QTable {
	return t.table
}

// Epsilon returns the current exploration rate
func (t *Trainer) Epsilon() float64 {
	return t.epsilon
}

// Run executes the given number of episodes. When training, the value
// table starts at zero, is updated after every step and is stored under
// the model key at the end. Otherwise the stored table is loaded and the
// greedy policy is followed without updates. Any environment failure
// aborts the run.
func (t *Trainer) Run(episodes int, training, render bool) (*Result, error) {
	if episodes <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidEpisodes, episodes)
	}
	logger := t.Logger.With(log.LogParams{
		"mode":     modeName(training),
		"episodes": episodes,
		"model":    t.config.ModelKey,
	})

	result, err := t.run(episodes, training, render, logger)
	stats := RunStats{Training: training, Episodes: episodes, Epsilon: t.epsilon, Err: err}
	if result != nil {
		stats.Episodes = len(result.Rewards)
		stats.Successes = result.Successes()
		stats.Rolling = result.Rolling
	}
	for _, o := range t.observers {
		o.RunDone(stats)
	}
	if err != nil {
		logger.WithError(err).Error("Run failed")
		return nil, err
	}
	logger.With(log.LogParams{
		"successes": stats.Successes,
		"steps":     result.Steps,
		"epsilon":   result.Epsilon,
	}).Info("Run finished")
	return result, nil
}

func (t *Trainer) run(episodes int, training, render bool, logger *log.Logger) (*Result, error) {
	states, actions := t.env.StateCount(), t.env.ActionCount()
	if states <= 0 || actions <= 0 {
		return nil, fmt.Errorf("%w: declared %d states and %d actions", ErrEnvironmentProtocol, states, actions)
	}
	if training {
		t.table = NewQTable(states, actions)
	} else {
		table, err := LoadTable(t.store, t.config.ModelKey, states, actions)
		if err != nil {
			return nil, err
		}
		t.table = table
	}
	// evaluation is purely greedy
	t.epsilon = 0
	if training {
		t.epsilon = t.exploration.At(0)
	}

	var renderer env.Renderer
	if render {
		r, ok := t.env.(env.Renderer)
		if ok {
			renderer = r
		} else {
			logger.Warn("Environment does not support rendering")
		}
	}
	logger.Info("Starting run")

	result := &Result{Rewards: make([]float64, episodes)}
	var rolling float64
	for i := 0; i < episodes; i++ {
		steps, last, err := t.runEpisode(training, renderer)
		if err != nil {
			return nil, fmt.Errorf("episode %d: %w", i, err)
		}
		result.Steps += steps
		if training {
			t.epsilon = t.exploration.At(i + 1)
		}

		success := last == t.config.SuccessReward
		if success {
			result.Rewards[i] = 1
		}
		rolling += result.Rewards[i]
		if i >= t.config.Window {
			rolling -= result.Rewards[i-t.config.Window]
		}

		stats := EpisodeStats{
			Episode:  i,
			Training: training,
			Steps:    steps,
			Reward:   last,
			Success:  success,
			Epsilon:  t.epsilon,
			Rolling:  rolling,
		}
		for _, o := range t.observers {
			o.EpisodeDone(stats)
		}
		if t.config.LogEvery > 0 && (i+1)%t.config.LogEvery == 0 {
			logger.With(log.LogParams{
				"episode": i + 1,
				"epsilon": t.epsilon,
				"rolling": rolling,
			}).Debug("Progress")
		}
	}

	result.Rolling = RollingSum(result.Rewards, t.config.Window)
	result.Epsilon = t.epsilon
	result.Table = t.table
	if training {
		if err := SaveTable(t.store, t.config.ModelKey, t.table); err != nil {
			return nil, err
		}
		logger.Info("Stored value table")
	}
	return result, nil
}

// runEpisode plays one episode and returns the number of steps and the
// reward of the final step
func (t *Trainer) runEpisode(training bool, renderer env.Renderer) (int, float64, error) {
	state, err := t.env.Reset()
	if err != nil {
		return 0, 0, fmt.Errorf("%w: reset: %w", ErrEnvironmentProtocol, err)
	}
	if err := t.checkState(state); err != nil {
		return 0, 0, err
	}
	if err := t.render(renderer); err != nil {
		return 0, 0, err
	}

	policy := &EpsilonGreedy{Epsilon: t.epsilon, Rand: t.rand}
	steps := 0
	for {
		var action int
		if training {
			action = policy.Select(t.table, state)
		} else {
			action = SelectGreedy(t.table, state)
		}

		step, err := t.env.Step(action)
		if err != nil {
			return steps, 0, fmt.Errorf("%w: step: %w", ErrEnvironmentProtocol, err)
		}
		if err := t.checkState(step.State); err != nil {
			return steps, 0, err
		}
		if math.IsNaN(step.Reward) || math.IsInf(step.Reward, 0) {
			return steps, 0, fmt.Errorf("%w: reward %v is not finite", ErrEnvironmentProtocol, step.Reward)
		}

		if training {
			t.update(state, action, step)
		}
		state = step.State
		steps++
		if err := t.render(renderer); err != nil {
			return steps, 0, err
		}
		if step.Done() {
			return steps, step.Reward, nil
		}
	}
}

// update applies Q[s,a] += alpha * (target - Q[s,a]). The target bootstraps
// from the best action value of the next state unless the episode
// terminated there.
func (t *Trainer) update(state, action int, step env.Step) {
	target := step.Reward
	if !step.Terminated {
		target += t.config.DiscountFactor * t.table.MaxValue(step.State)
	}
	cur := t.table.Get(state, action)
	t.table.Set(state, action, cur+t.config.LearningRate*(target-cur))
}

func (t *Trainer) checkState(state int) error {
	states, _ := t.table.Dims()
	if state < 0 || state >= states {
		return fmt.Errorf("%w: state %d not in [0, %d)", ErrEnvironmentProtocol, state, states)
	}
	return nil
}

func (t *Trainer) render(renderer env.Renderer) error {
	if renderer == nil {
		return nil
	}
	if err := renderer.Render(); err != nil {
		return fmt.Errorf("%w: render: %w", ErrEnvironmentProtocol, err)
	}
	return nil
}

// SaveTable encodes the table and stores it under the key
func SaveTable(s store.Store, key string, table *QTable) error {
	data, err := table.MarshalBinary()
	if err != nil {
		return fmt.Errorf("failed to encode value table: %w", err)
	}
	if err := s.Put(key, data); err != nil {
		return fmt.Errorf("failed to store value table: %w", err)
	}
	return nil
}

// LoadTable fetches the table stored under the key and checks that it has
// the expected shape
func LoadTable(s store.Store, key string, states, actions int) (*QTable, error) {
	data, err := s.Get(key)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: nothing stored under %s", ErrMissingModel, key)
	} else if err != nil {
		return nil, fmt.Errorf("failed to load value table: %w", err)
	}
	table := &QTable{}
	if err := table.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptModel, key, err)
	}
	rows, cols := table.Dims()
	if rows != states || cols != actions {
		return nil, fmt.Errorf("%w: stored table is %dx%d, environment has %d states and %d actions",
			ErrCardinalityMismatch, rows, cols, states, actions)
	}
	return table, nil
}

func modeName(training bool) string {
	if training {
		return "train"
	}
	return "eval"
}
