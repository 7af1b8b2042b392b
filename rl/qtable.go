package rl

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// QTable is a dense states x actions table of action value estimates
type QTable struct {
	m *mat.Dense
}

// NewQTable returns a zero initialized table. Both dimensions must be positive.
func NewQTable(states, actions int) *QTable {
	return &QTable{m: mat.NewDense(states, actions, nil)}
}

// NewQTableFrom wraps rows of values. All rows must have the same length.
func NewQTableFrom(rows [][]float64) *QTable {
	data := make([]float64, 0, len(rows)*len(rows[0]))
	for _, row := range rows {
		data = append(data, row...)
	}
	return &QTable{m: mat.NewDense(len(rows), len(rows[0]), data)}
}

// Dims returns the number of states and actions
func (q *QTable) Dims() (int, int) {
	return q.m.Dims()
}

func (q *QTable) Get(state, action int) float64 {
	return q.m.At(state, action)
}

func (q *QTable) Set(state, action int, v float64) {
	q.m.Set(state, action, v)
}

// Row returns the action values of a state. The slice shares storage with
// the table.
func (q *QTable) Row(state int) []float64 {
	return q.m.RawRowView(state)
}

// MaxValue returns the largest action value of a state
func (q *QTable) MaxValue(state int) float64 {
	return floats.Max(q.m.RawRowView(state))
}

// Argmax returns the action with the largest value for a state. Ties go to
// the lowest action index.
func (q *QTable) Argmax(state int) int {
	return floats.MaxIdx(q.m.RawRowView(state))
}

// Policy returns the greedy action of every state
func (q *QTable) Policy() []int {
	states, _ := q.Dims()
	policy := make([]int, states)
	for s := range policy {
		policy[s] = q.Argmax(s)
	}
	return policy
}

// Rows copies the table into a slice per state
func (q *QTable) Rows() [][]float64 {
	states, _ := q.Dims()
	rows := make([][]float64, states)
	for s := range rows {
		rows[s] = mat.Row(nil, s, q.m)
	}
	return rows
}

func (q *QTable) Clone() *QTable {
	return &QTable{m: mat.DenseCopyOf(q.m)}
}

// Equal reports whether both tables have the same shape and values
func (q *QTable) Equal(o *QTable) bool {
	return mat.Equal(q.m, o.m)
}

// MarshalBinary encodes the shape and the raw float64 bits of every entry
func (q *QTable) MarshalBinary() ([]byte, error) {
	return q.m.MarshalBinary()
}

// UnmarshalBinary replaces the table with the decoded one
func (q *QTable) UnmarshalBinary(data []byte) error {
	var m mat.Dense
	if err := m.UnmarshalBinary(data); err != nil {
		return err
	}
	q.m = &m
	return nil
}
