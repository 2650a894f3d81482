package scenario

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/werous/covid-transmission-sim/internal/grid"
)

// Scenario defines one simulation run and what it must produce.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	Rows         int      `yaml:"rows"`
	Cols         int      `yaml:"cols"`
	Transmission *float64 `yaml:"transmission,omitempty"`

	// Random is a forced draw sequence, cycled when exhausted.
	Random []float64 `yaml:"random,omitempty"`

	// Seed seeds a PCG source when Random is empty.
	Seed *uint64 `yaml:"seed,omitempty"`

	MaxSteps int `yaml:"max_steps,omitempty"`

	// RunID is the fixed run id recorded in the trace.
	// Defaults to "test-run-default".
	RunID string `yaml:"run_id,omitempty"`

	Seeds []CellState `yaml:"seeds"`

	// Expect checks individual frames by step number.
	Expect []FrameExpect `yaml:"expect,omitempty"`

	// Final checks the settled grid.
	Final *FinalExpect `yaml:"final,omitempty"`
}

// CellState sets one cell before the first step.
type CellState struct {
	Cell  int        `yaml:"cell"`
	State grid.State `yaml:"state"`
}

// FrameExpect is a subset match against the frame emitted after Step.
// Step 0 is the seeded grid.
type FrameExpect struct {
	Step    int                `yaml:"step"`
	Changed *bool              `yaml:"changed,omitempty"`
	Cells   map[int]grid.State `yaml:"cells,omitempty"`
	Counts  *grid.Counts       `yaml:"counts,omitempty"`
}

// FinalExpect is a subset match against the finished run.
type FinalExpect struct {
	Steps   *int               `yaml:"steps,omitempty"`
	Changed *bool              `yaml:"changed,omitempty"`
	Cells   map[int]grid.State `yaml:"cells,omitempty"`
	Counts  *grid.Counts       `yaml:"counts,omitempty"`
}

// Load reads and parses a scenario YAML file.
// Unknown fields are rejected so that typos fail loudly.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

// LoadDir loads every *.yaml and *.yml file in dir whose base name matches
// filter (a filepath.Match pattern; empty matches all), sorted by file name.
func LoadDir(dir, filter string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenarios directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		if filter != "" {
			ok, err := filepath.Match(filter, e.Name())
			if err != nil {
				return nil, fmt.Errorf("invalid filter %q: %w", filter, err)
			}
			if !ok {
				continue
			}
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := Load(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks required fields and that every referenced cell
// exists.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Rows <= 0 || s.Cols <= 0 {
		return fmt.Errorf("rows and cols must be positive, got %dx%d", s.Rows, s.Cols)
	}
	if s.Transmission != nil && (*s.Transmission < 0 || *s.Transmission > 1) {
		return fmt.Errorf("transmission must be within [0, 1], got %v", *s.Transmission)
	}
	if len(s.Random) == 0 && s.Seed == nil {
		return fmt.Errorf("one of random or seed is required")
	}
	for i, v := range s.Random {
		if v < 0 || v > 1 {
			return fmt.Errorf("random[%d]: draws must be within [0, 1], got %v", i, v)
		}
	}
	if s.MaxSteps < 0 {
		return fmt.Errorf("max_steps must be positive")
	}
	if len(s.Expect) == 0 && s.Final == nil {
		return fmt.Errorf("at least one of expect or final is required")
	}

	size := s.Rows * s.Cols
	checkCells := func(where string, cells map[int]grid.State) error {
		for id := range cells {
			if id < 0 || id >= size {
				return fmt.Errorf("%s: cell %d out of range [0, %d)", where, id, size)
			}
		}
		return nil
	}

	for i, seed := range s.Seeds {
		if seed.Cell < 0 || seed.Cell >= size {
			return fmt.Errorf("seeds[%d]: cell %d out of range [0, %d)", i, seed.Cell, size)
		}
	}
	for i, e := range s.Expect {
		if e.Step < 0 {
			return fmt.Errorf("expect[%d]: step must be non-negative", i)
		}
		if e.Changed == nil && e.Cells == nil && e.Counts == nil {
			return fmt.Errorf("expect[%d]: nothing to check", i)
		}
		if err := checkCells(fmt.Sprintf("expect[%d]", i), e.Cells); err != nil {
			return err
		}
	}
	if s.Final != nil {
		if err := checkCells("final", s.Final.Cells); err != nil {
			return err
		}
	}
	return nil
}
