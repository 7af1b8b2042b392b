// Package env defines the episodic environments the trainer runs against
// and ships the FrozenLake grid world.
package env

import "errors"

var (
	// ErrNotReset is returned by Step when Reset was never called
	ErrNotReset = errors.New("environment has not been reset")
	// ErrEpisodeDone is returned by Step after the episode terminated or was truncated
	ErrEpisodeDone = errors.New("episode is already done")
	// ErrInvalidAction is returned when the action is outside [0, ActionCount())
	ErrInvalidAction = errors.New("invalid action")
	// ErrInvalidMap is returned for malformed grid descriptions
	ErrInvalidMap = errors.New("invalid map")
)

// Step is the outcome of submitting one action
type Step struct {
	State      int
	Reward     float64
	Terminated bool
	Truncated  bool
}

// Done reports whether the episode ended with this step
func (s Step) Done() bool {
	return s.Terminated || s.Truncated
}

// Environment is a finite, episodic, discrete state and action environment.
// States lie in [0, StateCount()) and actions in [0, ActionCount()).
// Both counts are fixed for the lifetime of the environment.
type Environment interface {
	Reset() (int, error)
	Step(action int) (Step, error)
	StateCount() int
	ActionCount() int
}

// Renderer is implemented by environments that can show their current
// state to a human
type Renderer interface {
	Render() error
}
