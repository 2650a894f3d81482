package scenario

import (
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/werous/covid-transmission-sim/internal/config"
	"github.com/werous/covid-transmission-sim/internal/grid"
	"github.com/werous/covid-transmission-sim/internal/sim"
	"github.com/werous/covid-transmission-sim/internal/testutil"
)

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every expectation matched.
	Pass bool `json:"pass"`

	// Errors lists every mismatch. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	RunID       string      `json:"run_id"`
	Steps       int         `json:"steps"`
	Draws       int         `json:"draws"`
	Fingerprint string      `json:"fingerprint"`
	Trace       []sim.Frame `json:"trace"`
}

// AddError records a mismatch and marks the result as failed.
func (r *Result) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Pass = false
}

// Option configures Run.
type Option func(*runOptions)

type runOptions struct {
	logger *slog.Logger
}

// WithLogger routes simulation logs to l. By default they are discarded.
func WithLogger(l *slog.Logger) Option {
	return func(o *runOptions) { o.logger = l }
}

// Config converts the scenario into a simulation config.
func (s *Scenario) Config() config.Simulation {
	cfg := config.Simulation{
		Rows:         s.Rows,
		Cols:         s.Cols,
		Transmission: grid.DefaultTransmission,
		Seed:         s.Seed,
		MaxSteps:     s.MaxSteps,
		Seeds:        make([]config.Seed, len(s.Seeds)),
	}
	if s.Transmission != nil {
		cfg.Transmission = *s.Transmission
	}
	for i, cs := range s.Seeds {
		cfg.Seeds[i] = config.Seed{Cell: cs.Cell, State: cs.State}
	}
	return cfg
}

// Run executes the scenario and evaluates its expectations.
//
// An error is returned only when the scenario cannot be run at all. A run
// that hits its step limit is reported as a failed Result.
func Run(s *Scenario, opts ...Option) (*Result, error) {
	o := runOptions{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&o)
	}

	var src grid.Source
	if len(s.Random) > 0 {
		src = grid.NewSequence(s.Random...)
	} else {
		src = grid.NewSource(*s.Seed)
	}
	rec := testutil.NewRecordingSource(src)

	runner, err := sim.New(s.Config(),
		sim.WithSource(rec),
		sim.WithRunIDGenerator(testutil.NewFixedRunIDGenerator(s.RunID)),
		sim.WithLogger(o.logger),
		sim.WithFrames(),
	)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}

	result := &Result{Pass: true, Errors: []string{}}
	report, runErr := runner.Run()
	result.RunID = report.RunID
	result.Steps = report.Steps
	result.Draws = len(rec.Draws())
	result.Fingerprint = report.Fingerprint
	result.Trace = report.Frames
	if runErr != nil {
		if !sim.IsStepsExceededError(runErr) {
			return nil, fmt.Errorf("scenario %s: %w", s.Name, runErr)
		}
		result.AddError("%v", runErr)
	}

	frames := make(map[int]sim.Frame, len(report.Frames))
	for _, f := range report.Frames {
		frames[f.Step] = f
	}
	for i, e := range s.Expect {
		f, ok := frames[e.Step]
		if !ok {
			result.AddError("expect[%d]: no frame for step %d (run took %d steps)", i, e.Step, report.Steps)
			continue
		}
		where := fmt.Sprintf("expect[%d] step %d", i, e.Step)
		checkFrame(result, where, e.Changed, e.Cells, e.Counts, f)
	}

	if s.Final != nil {
		if s.Final.Steps != nil && *s.Final.Steps != report.Steps {
			result.AddError("final: steps: expected %d, got %d", *s.Final.Steps, report.Steps)
		}
		if len(report.Frames) > 0 {
			last := report.Frames[len(report.Frames)-1]
			checkFrame(result, "final", s.Final.Changed, s.Final.Cells, s.Final.Counts, last)
		}
	}

	return result, nil
}

func checkFrame(r *Result, where string, changed *bool, cells map[int]grid.State, counts *grid.Counts, f sim.Frame) {
	if changed != nil && *changed != f.Changed {
		r.AddError("%s: changed: expected %v, got %v", where, *changed, f.Changed)
	}

	ids := make([]int, 0, len(cells))
	for id := range cells {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		if got := f.Cells[id]; got != cells[id] {
			r.AddError("%s: cell %d: expected %s, got %s", where, id, cells[id], got)
		}
	}

	if counts != nil && *counts != f.Counts {
		r.AddError("%s: counts: expected %+v, got %+v", where, *counts, f.Counts)
	}
}
