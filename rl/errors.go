package rl

import "errors"

var (
	// ErrMissingModel is returned when evaluation finds no stored value table
	ErrMissingModel = errors.New("missing model")
	// ErrCorruptModel is returned when a stored value table cannot be decoded
	ErrCorruptModel = errors.New("corrupt model")
	// ErrCardinalityMismatch is returned when the stored value table does not
	// match the state and action counts of the environment
	ErrCardinalityMismatch = errors.New("cardinality mismatch")
	// ErrEnvironmentProtocol is returned when the environment fails or
	// reports something outside its declared state space
	ErrEnvironmentProtocol = errors.New("environment protocol error")
	// ErrInvalidEpisodes is returned for a non positive episode count
	ErrInvalidEpisodes = errors.New("episode count must be positive")
	// ErrInvalidConfig is returned for out of range hyper parameters
	ErrInvalidConfig = errors.New("invalid trainer config")
)
