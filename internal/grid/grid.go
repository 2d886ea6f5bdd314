// Package grid provides a dense, row-major 2D table of int64 values with
// bounds-checked access. It backs the dynamic-programming tables of the
// distance algorithm; nothing heavier than a flat slice is needed there.
package grid

import "fmt"

// Grid is a fixed-size rows×cols table. The zero value of every cell is 0.
type Grid struct {
	rows, cols int
	cells      []int64
}

// New allocates a rows×cols Grid with all cells zero.
func New(rows, cols int) *Grid {
	if rows < 0 || cols < 0 {
		panic(fmt.Sprintf("grid: invalid dimensions %dx%d", rows, cols))
	}
	return &Grid{rows: rows, cols: cols, cells: make([]int64, rows*cols)}
}

// Rows returns the number of rows.
func (g *Grid) Rows() int { return g.rows }

// Cols returns the number of columns.
func (g *Grid) Cols() int { return g.cols }

// At returns the value at (row, col). Panics if out of range.
func (g *Grid) At(row, col int) int64 {
	return g.cells[g.offset(row, col)]
}

// Set stores v at (row, col). Panics if out of range.
func (g *Grid) Set(row, col int, v int64) {
	g.cells[g.offset(row, col)] = v
}

func (g *Grid) offset(row, col int) int {
	if row < 0 || row >= g.rows || col < 0 || col >= g.cols {
		panic(fmt.Sprintf("grid: index (%d,%d) out of range for %dx%d grid", row, col, g.rows, g.cols))
	}
	return row*g.cols + col
}
