// Package seat decodes sparse seat-state snapshots into dense grids.
package seat

import (
	"strconv"
	"strings"
)

// Status is a seat status code as recorded by the simulation.
type Status byte

const (
	Vacant   Status = 'V'
	Taken    Status = 'T'
	Reserved Status = 'R'
	Signed   Status = 'S'
)

// Statuses lists every status in display order.
var Statuses = []Status{Vacant, Taken, Reserved, Signed}

// ParseStatus maps a recorded code to a Status. Unknown codes are Vacant.
func ParseStatus(code string) Status {
	if len(code) != 1 {
		return Vacant
	}
	switch s := Status(code[0]); s {
	case Vacant, Taken, Reserved, Signed:
		return s
	default:
		return Vacant
	}
}

// Code returns the single-letter recorded code.
func (s Status) Code() string {
	return string(rune(s))
}

// Label returns the human status word.
func (s Status) Label() string {
	switch s {
	case Taken:
		return "Taken"
	case Reserved:
		return "Reserved"
	case Signed:
		return "Signed"
	default:
		return "Vacant"
	}
}

// Indicator returns the compact on-cell indicator.
func (s Status) Indicator() string {
	return s.Label()[:1]
}

// Coord is a zero-based seat coordinate.
type Coord struct {
	Row int
	Col int
}

// Key formats the coordinate the way records key their seat state.
func (c Coord) Key() string {
	return strconv.Itoa(c.Row) + "," + strconv.Itoa(c.Col)
}

// MaxIndex is the largest row or column index a key may carry. Larger keys are
// treated as malformed.
const MaxIndex = 4095

// ParseCoord parses a "row,col" key. Anything else reports false.
func ParseCoord(key string) (Coord, bool) {
	rowPart, colPart, ok := strings.Cut(key, ",")
	if !ok {
		return Coord{}, false
	}
	row, ok := parseIndex(rowPart)
	if !ok {
		return Coord{}, false
	}
	col, ok := parseIndex(colPart)
	if !ok {
		return Coord{}, false
	}
	return Coord{Row: row, Col: col}, true
}

func parseIndex(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil || n > MaxIndex {
		return 0, false
	}
	return n, true
}

// Extent is a grid size.
type Extent struct {
	Rows int
	Cols int
}

// DefaultFallback is used when a step carries no seat state.
var DefaultFallback = Extent{Rows: 3, Cols: 3}

// Cell is one decoded seat.
type Cell struct {
	Coord  Coord
	Status Status
	Label  string
}

// Grid is a dense row-major seat grid.
type Grid struct {
	Rows  int
	Cols  int
	Cells []Cell
}

// At returns the cell at row, col. Out-of-range coordinates return a vacant cell.
func (g Grid) At(row, col int) Cell {
	if row < 0 || col < 0 || row >= g.Rows || col >= g.Cols {
		return newCell(Coord{Row: row, Col: col}, Vacant)
	}
	return g.Cells[row*g.Cols+col]
}

// Count returns how many cells hold the given status.
func (g Grid) Count(status Status) int {
	n := 0
	for _, c := range g.Cells {
		if c.Status == status {
			n++
		}
	}
	return n
}

// Decode expands a sparse coordinate→code map into a dense grid. The extent is
// derived from the largest row and column among well-formed keys; an empty map
// yields an all-vacant grid of the fallback extent.
func Decode(state map[string]string, fallback Extent) Grid {
	if len(state) == 0 {
		return vacantGrid(fallback)
	}
	parsed := make(map[Coord]Status, len(state))
	maxRow, maxCol := -1, -1
	for key, code := range state {
		coord, ok := ParseCoord(key)
		if !ok {
			continue
		}
		if coord.Row > maxRow {
			maxRow = coord.Row
		}
		if coord.Col > maxCol {
			maxCol = coord.Col
		}
		parsed[coord] = ParseStatus(code)
	}
	rows, cols := maxRow+1, maxCol+1
	if rows == 0 || cols == 0 {
		return Grid{}
	}
	grid := Grid{Rows: rows, Cols: cols, Cells: make([]Cell, 0, rows*cols)}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			coord := Coord{Row: r, Col: c}
			status, ok := parsed[coord]
			if !ok {
				status = Vacant
			}
			grid.Cells = append(grid.Cells, newCell(coord, status))
		}
	}
	return grid
}

func vacantGrid(extent Extent) Grid {
	if extent.Rows <= 0 || extent.Cols <= 0 {
		return Grid{}
	}
	grid := Grid{Rows: extent.Rows, Cols: extent.Cols, Cells: make([]Cell, 0, extent.Rows*extent.Cols)}
	for r := 0; r < extent.Rows; r++ {
		for c := 0; c < extent.Cols; c++ {
			grid.Cells = append(grid.Cells, newCell(Coord{Row: r, Col: c}, Vacant))
		}
	}
	return grid
}

func newCell(coord Coord, status Status) Cell {
	return Cell{Coord: coord, Status: status, Label: status.Label()}
}
