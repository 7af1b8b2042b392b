package env

import (
	"fmt"

	"golang.org/x/exp/rand"
)

// Tiles of a FrozenLake map
const (
	TileStart  = 'S'
	TileFrozen = 'F'
	TileHole   = 'H'
	TileGoal   = 'G'
)

const maxMapAttempts = 10000

// Maps are the predefined FrozenLake layouts keyed by name
var Maps = map[string][]string{
	"4x4": {
		"SFFF",
		"FHFH",
		"FFFH",
		"HFFG",
	},
	"8x8": {
		"SFFFFFFF",
		"FFFFFFFF",
		"FFFHFFFF",
		"FFFFFHFF",
		"FFFHFFFF",
		"FHHFFFHF",
		"FHFFHFHF",
		"FFFHFFFG",
	},
}

// GenerateRandomMap returns a size x size map where each tile other than
// the start (top left) and the goal (bottom right) is frozen with
// probability p. Maps are drawn until the goal is reachable from the start.
func GenerateRandomMap(size int, p float64, seed uint64) ([]string, error) {
	if size < 2 {
		return nil, fmt.Errorf("%w: size must be at least 2, got %d", ErrInvalidMap, size)
	}
	if p <= 0 || p > 1 {
		return nil, fmt.Errorf("%w: frozen probability must be in (0, 1], got %v", ErrInvalidMap, p)
	}
	r := rand.New(rand.NewSource(seed))

	board := make([][]byte, size)
	for i := range board {
		board[i] = make([]byte, size)
	}
	for attempt := 0; attempt < maxMapAttempts; attempt++ {
		for i := range board {
			for j := range board[i] {
				if r.Float64() < p {
					board[i][j] = TileFrozen
				} else {
					board[i][j] = TileHole
				}
			}
		}
		board[0][0] = TileStart
		board[size-1][size-1] = TileGoal
		if reachable(board, 0, 0) {
			out := make([]string, size)
			for i, row := range board {
				out[i] = string(row)
			}
			return out, nil
		}
	}
	return nil, fmt.Errorf("%w: no solvable map after %d attempts", ErrInvalidMap, maxMapAttempts)
}

// reachable runs a depth first search from (row, col) over non hole tiles
// and reports whether a goal tile can be reached
func reachable(board [][]byte, row, col int) bool {
	rows, cols := len(board), len(board[0])
	seen := make([]bool, rows*cols)
	frontier := []int{row*cols + col}
	seen[frontier[0]] = true
	for len(frontier) > 0 {
		cur := frontier[len(frontier)-1]
		frontier = frontier[:len(frontier)-1]
		r, c := cur/cols, cur%cols
		if board[r][c] == TileGoal {
			return true
		}
		for _, d := range [][2]int{{1, 0}, {0, 1}, {-1, 0}, {0, -1}} {
			nr, nc := r+d[0], c+d[1]
			if nr < 0 || nr >= rows || nc < 0 || nc >= cols {
				continue
			}
			next := nr*cols + nc
			if seen[next] || board[nr][nc] == TileHole {
				continue
			}
			seen[next] = true
			frontier = append(frontier, next)
		}
	}
	return false
}

// parseMap validates the layout and returns it as a byte grid along with
// the index of the start tile
func parseMap(layout []string) ([][]byte, int, error) {
	if len(layout) == 0 || len(layout[0]) == 0 {
		return nil, 0, fmt.Errorf("%w: empty map", ErrInvalidMap)
	}
	cols := len(layout[0])
	grid := make([][]byte, len(layout))
	start, goals := -1, 0
	for i, row := range layout {
		if len(row) != cols {
			return nil, 0, fmt.Errorf("%w: row %d has %d tiles, expected %d", ErrInvalidMap, i, len(row), cols)
		}
		grid[i] = []byte(row)
		for j, tile := range grid[i] {
			switch tile {
			case TileStart:
				if start != -1 {
					return nil, 0, fmt.Errorf("%w: more than one start tile", ErrInvalidMap)
				}
				start = i*cols + j
			case TileGoal:
				goals++
			case TileFrozen, TileHole:
			default:
				return nil, 0, fmt.Errorf("%w: unknown tile %q at (%d, %d)", ErrInvalidMap, tile, i, j)
			}
		}
	}
	if start == -1 {
		return nil, 0, fmt.Errorf("%w: no start tile", ErrInvalidMap)
	}
	if goals == 0 {
		return nil, 0, fmt.Errorf("%w: no goal tile", ErrInvalidMap)
	}
	return grid, start, nil
}
