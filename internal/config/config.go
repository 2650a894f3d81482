// Package config loads simulation settings from CUE files.
//
// A config file declares a top-level "simulation" struct, which is unified
// with the embedded #Simulation schema before decoding:
//
//	simulation: {
//		rows: 4
//		cols: 6
//		transmission: 0.4
//		seed: 7
//		seeds: [{cell: 12, state: "infected"}]
//	}
//
// Unknown fields, non-positive dimensions and out-of-range probabilities are
// rejected by the schema with file positions attached.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/werous/covid-transmission-sim/internal/grid"
)

//go:embed schema.cue
var schemaCUE string

// Simulation describes one run: the grid, how infection spreads, and the
// initial cell states.
type Simulation struct {
	Rows         int     `json:"rows"`
	Cols         int     `json:"cols"`
	Transmission float64 `json:"transmission"`

	// Seed fixes the random source. Nil means a fresh random seed per run.
	Seed *uint64 `json:"seed,omitempty"`

	// MaxSteps caps the step loop. Zero means rows*cols + 1.
	MaxSteps int `json:"max_steps,omitempty"`

	Seeds []Seed `json:"seeds"`
}

// Seed sets one cell before the first step.
type Seed struct {
	Cell  int        `json:"cell"`
	State grid.State `json:"state"`
}

// Default returns the reference run: a 4x6 grid with cell 12 infected.
func Default() Simulation {
	return Simulation{
		Rows:         4,
		Cols:         6,
		Transmission: grid.DefaultTransmission,
		Seeds:        []Seed{{Cell: 12, State: grid.Infected}},
	}
}

// Validate checks dimensions, probability and seed cells without building a grid.
func (s Simulation) Validate() error {
	if s.Rows <= 0 || s.Cols <= 0 {
		return &grid.DimensionError{Rows: s.Rows, Cols: s.Cols}
	}
	if s.Transmission < 0 || s.Transmission > 1 {
		return fmt.Errorf("%w: %v", grid.ErrInvalidTransmission, s.Transmission)
	}
	if s.MaxSteps < 0 {
		return fmt.Errorf("max_steps must be positive, got %d", s.MaxSteps)
	}
	size := s.Rows * s.Cols
	for i, seed := range s.Seeds {
		if seed.Cell < 0 || seed.Cell >= size {
			return fmt.Errorf("seeds[%d]: %w", i, &grid.RangeError{Op: "seed", ID: seed.Cell, Size: size})
		}
		if !seed.State.Valid() {
			return fmt.Errorf("seeds[%d]: %w", i, grid.ErrInvalidState)
		}
	}
	return nil
}

// Error codes reported by LoadError.
const (
	ErrCodeRead    = "C001" // file could not be read
	ErrCodeSyntax  = "C002" // CUE did not compile
	ErrCodeMissing = "C003" // no simulation struct
	ErrCodeSchema  = "C004" // schema violation
	ErrCodeDecode  = "C005" // decoded value unusable
	ErrCodeInvalid = "C006" // semantic check failed
)

// LoadError reports a config problem, with a CUE position when one is known.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
	Err     error
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error { return e.Err }

// fromCUE converts a CUE error into a LoadError carrying its first position.
func fromCUE(code string, err error) *LoadError {
	le := &LoadError{Code: code, Message: err.Error(), Err: err}
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return le
	}
	first := errs[0]
	le.Message = first.Error()
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}

// Load reads and parses a CUE config file.
func Load(path string) (Simulation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Simulation{}, &LoadError{Code: ErrCodeRead, Message: fmt.Sprintf("failed to read config file: %v", err), Err: err}
	}
	return Parse(path, data)
}

// rawSimulation mirrors the schema field names for cue.Value.Decode.
type rawSimulation struct {
	Rows         int       `json:"rows"`
	Cols         int       `json:"cols"`
	Transmission float64   `json:"transmission"`
	Seed         *int64    `json:"seed,omitempty"`
	MaxSteps     int       `json:"max_steps,omitempty"`
	Seeds        []rawSeed `json:"seeds"`
}

type rawSeed struct {
	Cell  int    `json:"cell"`
	State string `json:"state"`
}

// Parse compiles src, unifies it with the schema and decodes the result.
// filename is used only for error positions.
func Parse(filename string, src []byte) (Simulation, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Simulation{}, fromCUE(ErrCodeSyntax, err)
	}

	value := ctx.CompileBytes(src, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return Simulation{}, fromCUE(ErrCodeSyntax, err)
	}

	simVal := value.LookupPath(cue.ParsePath("simulation"))
	if !simVal.Exists() {
		return Simulation{}, &LoadError{Code: ErrCodeMissing, Message: fmt.Sprintf("%s: no simulation struct found", filename)}
	}

	unified := schema.LookupPath(cue.ParsePath("#Simulation")).Unify(simVal)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return Simulation{}, fromCUE(ErrCodeSchema, err)
	}

	var raw rawSimulation
	if err := unified.Decode(&raw); err != nil {
		return Simulation{}, fromCUE(ErrCodeDecode, err)
	}

	sim := Simulation{
		Rows:         raw.Rows,
		Cols:         raw.Cols,
		Transmission: raw.Transmission,
		MaxSteps:     raw.MaxSteps,
		Seeds:        make([]Seed, 0, len(raw.Seeds)),
	}
	if raw.Seed != nil {
		seed := uint64(*raw.Seed)
		sim.Seed = &seed
	}
	for i, rs := range raw.Seeds {
		state, err := grid.ParseState(rs.State)
		if err != nil {
			return Simulation{}, &LoadError{Code: ErrCodeDecode, Message: fmt.Sprintf("seeds[%d]: %v", i, err), Err: err}
		}
		sim.Seeds = append(sim.Seeds, Seed{Cell: rs.Cell, State: state})
	}

	if err := sim.Validate(); err != nil {
		return Simulation{}, &LoadError{Code: ErrCodeInvalid, Message: err.Error(), Err: err}
	}
	return sim, nil
}
