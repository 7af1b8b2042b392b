// Package visualizer draws a learned value table over the grid it was
// trained on.
package visualizer

import (
	"fmt"
	"io"

	"github.com/logrusorgru/aurora"
	"github.com/netrixframework/qlearn/env"
	"github.com/netrixframework/qlearn/rl"
)

// Grid is the layout the policy is drawn over
type Grid interface {
	Size() (int, int)
	Tile(state int) byte
}

var arrows = map[int]string{
	env.Left:  "←",
	env.Down:  "↓",
	env.Right: "→",
	env.Up:    "↑",
}

// PolicyVisualizer prints the greedy move of every state, and optionally
// the state values, over the grid
type PolicyVisualizer struct {
	grid  Grid
	table *rl.QTable
	au    aurora.Aurora
}

// NewPolicyVisualizer checks that the table fits the grid
func NewPolicyVisualizer(grid Grid, table *rl.QTable, colors bool) (*PolicyVisualizer, error) {
	rows, cols := grid.Size()
	states, _ := table.Dims()
	if states != rows*cols {
		return nil, fmt.Errorf("%w: table has %d states, grid has %d", rl.ErrCardinalityMismatch, states, rows*cols)
	}
	return &PolicyVisualizer{
		grid:  grid,
		table: table,
		au:    aurora.NewAurora(colors),
	}, nil
}

// Policy writes one arrow per tile. Holes and the goal are printed as is
// since no move is taken from them.
func (v *PolicyVisualizer) Policy(w io.Writer) error {
	rows, cols := v.grid.Size()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			state := r*cols + c
			var cell aurora.Value
			switch v.grid.Tile(state) {
			case env.TileHole:
				cell = v.au.Blue("H")
			case env.TileGoal:
				cell = v.au.Green("G")
			default:
				arrow, ok := arrows[v.table.Argmax(state)]
				if !ok {
					arrow = "?"
				}
				if v.table.MaxValue(state) == 0 {
					cell = v.au.Gray(12, arrow)
				} else {
					cell = v.au.Yellow(arrow).Bold()
				}
			}
			if _, err := fmt.Fprintf(w, "%s ", cell); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}

// Values writes the maximum action value of every tile
func (v *PolicyVisualizer) Values(w io.Writer) error {
	rows, cols := v.grid.Size()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if _, err := fmt.Fprintf(w, "%7.4f ", v.table.MaxValue(r*cols+c)); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}
