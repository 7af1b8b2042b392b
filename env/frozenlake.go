package env

import (
	"fmt"
	"io"
	"os"

	"github.com/logrusorgru/aurora"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// FrozenLake actions
const (
	Left = iota
	Down
	Right
	Up
)

var actionNames = [...]string{"Left", "Down", "Right", "Up"}

// ActionName returns the human readable name of a FrozenLake action
func ActionName(action int) string {
	if action < 0 || action >= len(actionNames) {
		return fmt.Sprintf("Action(%d)", action)
	}
	return actionNames[action]
}

// FrozenLakeConfig configures a FrozenLake environment
type FrozenLakeConfig struct {
	// Map is the layout, one string per row
	Map []string
	// Slippery moves the agent in the intended direction or in one of
	// the two perpendicular directions, each with probability 1/3
	Slippery bool
	// MaxSteps truncates episodes. 0 picks 100 for maps with at most 16
	// tiles and 200 otherwise
	MaxSteps int
	// Seed of the transition source
	Seed uint64
	// Output receives renderings. Defaults to stdout
	Output io.Writer
	// Colors enables ANSI colours in renderings
	Colors bool
}

// FrozenLake is a grid world where the agent walks from the start tile to
// the goal tile across frozen tiles without falling into holes.
// Reaching the goal yields reward 1, every other step 0. Episodes terminate
// on a goal or a hole and are truncated after MaxSteps steps.
type FrozenLake struct {
	grid     [][]byte
	rows     int
	cols     int
	start    int
	slippery bool
	maxSteps int
	slip     distuv.Categorical

	state      int
	steps      int
	lastAction int
	started    bool
	done       bool

	out io.Writer
	au  aurora.Aurora
}

var _ Environment = &FrozenLake{}
var _ Renderer = &FrozenLake{}

// NewFrozenLake validates the map and instantiates FrozenLake
func NewFrozenLake(c FrozenLakeConfig) (*FrozenLake, error) {
	grid, start, err := parseMap(c.Map)
	if err != nil {
		return nil, err
	}
	rows, cols := len(grid), len(grid[0])
	maxSteps := c.MaxSteps
	if maxSteps == 0 {
		maxSteps = 100
		if rows*cols > 16 {
			maxSteps = 200
		}
	}
	out := c.Output
	if out == nil {
		out = os.Stdout
	}
	return &FrozenLake{
		grid:       grid,
		rows:       rows,
		cols:       cols,
		start:      start,
		slippery:   c.Slippery,
		maxSteps:   maxSteps,
		slip:       distuv.NewCategorical([]float64{1, 1, 1}, rand.NewSource(c.Seed)),
		state:      start,
		lastAction: -1,
		out:        out,
		au:         aurora.NewAurora(c.Colors),
	}, nil
}

// ID identifies the layout size, e.g. frozen_lake8x8
func (f *FrozenLake) ID() string {
	return fmt.Sprintf("frozen_lake%dx%d", f.rows, f.cols)
}

// StateCount implements Environment
func (f *FrozenLake) StateCount() int {
	return f.rows * f.cols
}

// ActionCount implements Environment
func (f *FrozenLake) ActionCount() int {
	return len(actionNames)
}

// MaxSteps returns the truncation horizon
func (f *FrozenLake) MaxSteps() int {
	return f.maxSteps
}

// Tile returns the tile at the given state index
func (f *FrozenLake) Tile(state int) byte {
	return f.grid[state/f.cols][state%f.cols]
}

// Size returns the number of rows and columns
func (f *FrozenLake) Size() (int, int) {
	return f.rows, f.cols
}

// Reset implements Environment and places the agent on the start tile
func (f *FrozenLake) Reset() (int, error) {
	f.state = f.start
	f.steps = 0
	f.lastAction = -1
	f.started = true
	f.done = false
	return f.state, nil
}

// Step implements Environment
func (f *FrozenLake) Step(action int) (Step, error) {
	if !f.started {
		return Step{}, ErrNotReset
	}
	if f.done {
		return Step{}, ErrEpisodeDone
	}
	if action < 0 || action >= f.ActionCount() {
		return Step{}, fmt.Errorf("%w: %d not in [0, %d)", ErrInvalidAction, action, f.ActionCount())
	}

	direction := action
	if f.slippery {
		offset := int(f.slip.Rand()) - 1
		direction = (action + offset + len(actionNames)) % len(actionNames)
	}
	f.state = f.move(f.state, direction)
	f.steps++
	f.lastAction = action

	tile := f.Tile(f.state)
	step := Step{State: f.state}
	if tile == TileGoal {
		step.Reward = 1
	}
	step.Terminated = tile == TileGoal || tile == TileHole
	step.Truncated = !step.Terminated && f.steps >= f.maxSteps
	f.done = step.Done()
	return step, nil
}

func (f *FrozenLake) move(state, direction int) int {
	row, col := state/f.cols, state%f.cols
	switch direction {
	case Left:
		if col > 0 {
			col--
		}
	case Down:
		if row < f.rows-1 {
			row++
		}
	case Right:
		if col < f.cols-1 {
			col++
		}
	case Up:
		if row > 0 {
			row--
		}
	}
	return row*f.cols + col
}

// Render implements Renderer. The agent tile is highlighted and the last
// action is printed above the grid
func (f *FrozenLake) Render() error {
	if f.lastAction >= 0 {
		if _, err := fmt.Fprintf(f.out, "  (%s)\n", ActionName(f.lastAction)); err != nil {
			return err
		}
	} else {
		if _, err := fmt.Fprintln(f.out); err != nil {
			return err
		}
	}
	for r := 0; r < f.rows; r++ {
		for c := 0; c < f.cols; c++ {
			tile := string(f.grid[r][c])
			var v aurora.Value
			switch {
			case r*f.cols+c == f.state:
				v = f.au.BgRed(tile).Bold()
			case f.grid[r][c] == TileHole:
				v = f.au.Blue(tile)
			case f.grid[r][c] == TileGoal:
				v = f.au.Green(tile)
			default:
				v = f.au.White(tile)
			}
			if _, err := fmt.Fprint(f.out, v); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(f.out); err != nil {
			return err
		}
	}
	return nil
}
