package env

import (
	"fmt"
	"io"
	"time"

	"github.com/netrixframework/qlearn/config"
)

// Lake is a configured FrozenLake together with the key its value table is
// stored under
type Lake struct {
	*FrozenLake
	// Key is frozen_lake<rows>x<cols> for the predefined maps. Random maps
	// carry the seed they were generated from.
	Key string
	// Seed is the seed actually used, after replacing 0 with the clock
	Seed uint64
}

// FromConfig builds the FrozenLake described by the environment config
func FromConfig(c config.EnvironmentConfig, out io.Writer, colors bool) (*Lake, error) {
	seed := c.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	var layout []string
	random := false
	switch c.Map {
	case "random":
		m, err := GenerateRandomMap(c.RandomMapSize, c.RandomMapP, seed)
		if err != nil {
			return nil, err
		}
		layout = m
		random = true
	default:
		m, ok := Maps[c.Map]
		if !ok {
			return nil, fmt.Errorf("%w: unknown map %q", ErrInvalidMap, c.Map)
		}
		layout = m
	}

	lake, err := NewFrozenLake(FrozenLakeConfig{
		Map:      layout,
		Slippery: c.Slippery,
		MaxSteps: c.MaxSteps,
		Seed:     seed,
		Output:   out,
		Colors:   colors,
	})
	if err != nil {
		return nil, err
	}
	key := lake.ID()
	if random {
		key = fmt.Sprintf("%s_random%d", key, seed)
	}
	return &Lake{FrozenLake: lake, Key: key, Seed: seed}, nil
}
