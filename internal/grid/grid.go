package grid

import (
	"bufio"
	"io"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
)

// DefaultTransmission is the per-edge infection probability used when no
// WithTransmission option is given.
const DefaultTransmission = 0.4

// Grid holds the cell states of a rows x cols lattice and the outcome of the
// most recent Step.
//
// Grid is not safe for concurrent use. A single caller drives it.
type Grid struct {
	rows  int
	cols  int
	cells [][]State

	transmission float64
	source       Source

	changed bool
}

// Option configures a Grid at construction.
type Option func(*Grid) error

// WithSource sets the random source used by Step.
func WithSource(src Source) Option {
	return func(g *Grid) error {
		g.source = src
		return nil
	}
}

// WithTransmission sets the per-edge infection probability.
func WithTransmission(p float64) Option {
	return func(g *Grid) error {
		if math.IsNaN(p) || p < 0 || p > 1 {
			return ErrInvalidTransmission
		}
		g.transmission = p
		return nil
	}
}

// New creates a rows x cols grid with every cell Naive.
//
// HasChanged reports true until the first Step, so a driver looping on it
// runs at least one step.
func New(rows, cols int, opts ...Option) (*Grid, error) {
	if rows <= 0 || cols <= 0 {
		return nil, &DimensionError{Rows: rows, Cols: cols}
	}

	cells := make([][]State, rows)
	for r := range cells {
		cells[r] = make([]State, cols)
	}

	g := &Grid{
		rows:         rows,
		cols:         cols,
		cells:        cells,
		transmission: DefaultTransmission,
		changed:      true,
	}
	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, err
		}
	}
	if g.source == nil {
		g.source = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return g, nil
}

// Rows returns the number of rows.
func (g *Grid) Rows() int { return g.rows }

// Cols returns the number of columns.
func (g *Grid) Cols() int { return g.cols }

// Size returns rows*cols, the exclusive upper bound of valid cell ids.
func (g *Grid) Size() int { return g.rows * g.cols }

// Transmission returns the per-edge infection probability.
func (g *Grid) Transmission() float64 { return g.transmission }

// HasChanged reports whether the most recent Step infected at least one cell.
func (g *Grid) HasChanged() bool { return g.changed }

func (g *Grid) locate(op string, id int) (int, int, error) {
	if id < 0 || id >= g.Size() {
		return 0, 0, &RangeError{Op: op, ID: id, Size: g.Size()}
	}
	return id / g.cols, id % g.cols, nil
}

// SetState overwrites the state of cell id.
func (g *Grid) SetState(id int, s State) error {
	r, c, err := g.locate("set", id)
	if err != nil {
		return err
	}
	if !s.Valid() {
		return ErrInvalidState
	}
	g.cells[r][c] = s
	return nil
}

// State returns the state of cell id.
func (g *Grid) State(id int) (State, error) {
	r, c, err := g.locate("get", id)
	if err != nil {
		return 0, err
	}
	return g.cells[r][c], nil
}

// Neighbors returns the in-bounds cells above, below, left and right of id,
// in that order.
func (g *Grid) Neighbors(id int) ([]int, error) {
	r, c, err := g.locate("neighbors", id)
	if err != nil {
		return nil, err
	}
	return g.neighbors(r, c), nil
}

func (g *Grid) neighbors(r, c int) []int {
	out := make([]int, 0, 4)
	if r > 0 {
		out = append(out, (r-1)*g.cols+c)
	}
	if r+1 < g.rows {
		out = append(out, (r+1)*g.cols+c)
	}
	if c > 0 {
		out = append(out, r*g.cols+c-1)
	}
	if c+1 < g.cols {
		out = append(out, r*g.cols+c+1)
	}
	return out
}

// Step applies one synchronous transition to the whole grid and returns the
// number of newly infected cells.
//
// The scan reads only pre-step states. Recoveries are committed after the
// scan, followed by infections.
func (g *Grid) Step() int {
	var recovered []int
	var infected []int
	marked := make(map[int]bool)

	for id := 0; id < g.Size(); id++ {
		r, c := id/g.cols, id%g.cols
		if g.cells[r][c] != Infected {
			continue
		}
		recovered = append(recovered, id)
		for _, n := range g.neighbors(r, c) {
			if g.cells[n/g.cols][n%g.cols] != Naive {
				continue
			}
			// One draw per (infected, naive neighbor) pair, even if n is already marked.
			if g.source.Float64() < g.transmission && !marked[n] {
				marked[n] = true
				infected = append(infected, n)
			}
		}
	}

	for _, id := range recovered {
		g.cells[id/g.cols][id%g.cols] = Recovered
	}
	for _, id := range infected {
		g.cells[id/g.cols][id%g.cols] = Infected
	}

	g.changed = len(infected) > 0
	return len(infected)
}

// Cells returns a row-major copy of every cell state.
func (g *Grid) Cells() []State {
	out := make([]State, 0, g.Size())
	for _, row := range g.cells {
		out = append(out, row...)
	}
	return out
}

// Counts tallies cells per state.
func (g *Grid) Counts() Counts {
	var c Counts
	for _, row := range g.cells {
		for _, s := range row {
			c.add(s)
		}
	}
	return c
}

// WriteTo writes the text dump: one row per line as space-separated numeric
// state codes, followed by a blank line.
func (g *Grid) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	for _, row := range g.cells {
		m, err := bw.WriteString(formatRow(row))
		n += int64(m)
		if err != nil {
			return n, err
		}
	}
	m, err := bw.WriteString("\n")
	n += int64(m)
	if err != nil {
		return n, err
	}
	return n, bw.Flush()
}

func (g *Grid) String() string {
	var sb strings.Builder
	_, _ = g.WriteTo(&sb)
	return sb.String()
}

func formatRow(row []State) string {
	var sb strings.Builder
	for i, s := range row {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strconv.Itoa(int(s)))
	}
	sb.WriteByte('\n')
	return sb.String()
}
