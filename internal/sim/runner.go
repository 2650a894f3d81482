package sim

import (
	"fmt"
	"log/slog"

	"github.com/werous/covid-transmission-sim/internal/config"
	"github.com/werous/covid-transmission-sim/internal/grid"
	"github.com/werous/covid-transmission-sim/internal/trace"
)

// Frame is a snapshot of the grid: the initial state (Step 0) or the state
// after a Step.
type Frame struct {
	Seq           int64        `json:"seq"`
	Step          int          `json:"step"`
	Changed       bool         `json:"changed"`
	NewInfections int          `json:"new_infections"`
	Counts        grid.Counts  `json:"counts"`
	Cells         []grid.State `json:"cells"`
}

// Report summarizes a finished run.
type Report struct {
	RunID        string      `json:"run_id"`
	Rows         int         `json:"rows"`
	Cols         int         `json:"cols"`
	Transmission float64     `json:"transmission"`
	Steps        int         `json:"steps"`
	Final        grid.Counts `json:"final"`
	Fingerprint  string      `json:"fingerprint"`
	Frames       []Frame     `json:"frames,omitempty"`
}

// FrameFunc observes each frame as it is produced. The grid must not be
// mutated. A non-nil error stops the run.
type FrameFunc func(f Frame, g *grid.Grid) error

// Runner drives one grid to stability.
type Runner struct {
	grid     *grid.Grid
	clock    *Clock
	runIDs   RunIDGenerator
	observe  FrameFunc
	logger   *slog.Logger
	maxSteps int
	keep     bool
}

// Option configures a Runner.
type Option func(*runnerOptions)

type runnerOptions struct {
	source  grid.Source
	clock   *Clock
	runIDs  RunIDGenerator
	observe FrameFunc
	logger  *slog.Logger
	keep    bool
}

// WithSource overrides the random source chosen from the config seed.
func WithSource(src grid.Source) Option {
	return func(o *runnerOptions) { o.source = src }
}

// WithClock sets the clock used to stamp frames.
func WithClock(c *Clock) Option {
	return func(o *runnerOptions) { o.clock = c }
}

// WithRunIDGenerator sets the run id generator. Defaults to UUIDv7Generator.
func WithRunIDGenerator(gen RunIDGenerator) Option {
	return func(o *runnerOptions) { o.runIDs = gen }
}

// WithObserver registers a callback invoked for every frame.
func WithObserver(fn FrameFunc) Option {
	return func(o *runnerOptions) { o.observe = fn }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *runnerOptions) { o.logger = l }
}

// WithFrames keeps every frame in the Report.
func WithFrames() Option {
	return func(o *runnerOptions) { o.keep = true }
}

// New validates cfg, builds the grid and applies the seeds.
func New(cfg config.Simulation, opts ...Option) (*Runner, error) {
	o := runnerOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid simulation: %w", err)
	}

	src := o.source
	if src == nil && cfg.Seed != nil {
		src = grid.NewSource(*cfg.Seed)
	}
	gridOpts := []grid.Option{grid.WithTransmission(cfg.Transmission)}
	if src != nil {
		gridOpts = append(gridOpts, grid.WithSource(src))
	}

	g, err := grid.New(cfg.Rows, cfg.Cols, gridOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create grid: %w", err)
	}
	for _, seed := range cfg.Seeds {
		if err := g.SetState(seed.Cell, seed.State); err != nil {
			return nil, fmt.Errorf("failed to seed cell %d: %w", seed.Cell, err)
		}
	}

	r := &Runner{
		grid:     g,
		clock:    o.clock,
		runIDs:   o.runIDs,
		observe:  o.observe,
		logger:   o.logger,
		maxSteps: cfg.MaxSteps,
		keep:     o.keep,
	}
	if r.clock == nil {
		r.clock = NewClock()
	}
	if r.runIDs == nil {
		r.runIDs = UUIDv7Generator{}
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.maxSteps == 0 {
		r.maxSteps = g.Size() + 1
	}
	return r, nil
}

// Grid returns the grid being driven.
func (r *Runner) Grid() *grid.Grid {
	return r.grid
}

// Run emits the initial frame, then steps until the grid reports no change.
//
// The returned report is non-nil even on error and describes the run up to
// the failure.
func (r *Runner) Run() (*Report, error) {
	g := r.grid
	report := &Report{
		RunID:        r.runIDs.Generate(),
		Rows:         g.Rows(),
		Cols:         g.Cols(),
		Transmission: g.Transmission(),
	}
	log := r.logger.With("run_id", report.RunID)
	log.Info("simulation starting",
		"rows", g.Rows(), "cols", g.Cols(),
		"transmission", g.Transmission(), "max_steps", r.maxSteps)

	if err := r.emit(report, 0, true, 0); err != nil {
		return report, err
	}

	quota := newStepQuota(r.maxSteps)
	for g.HasChanged() {
		if err := quota.check(report.RunID); err != nil {
			log.Error("step quota exceeded", "steps", report.Steps, "limit", r.maxSteps)
			return r.finish(report, err)
		}
		infected := g.Step()
		report.Steps++
		log.Debug("step", "step", report.Steps, "new_infections", infected, "changed", g.HasChanged())

		if err := r.emit(report, report.Steps, g.HasChanged(), infected); err != nil {
			return r.finish(report, err)
		}
	}

	report, err := r.finish(report, nil)
	if err != nil {
		return report, err
	}
	log.Info("simulation settled",
		"steps", report.Steps,
		"recovered", report.Final.Recovered,
		"naive", report.Final.Naive)
	return report, nil
}

func (r *Runner) emit(report *Report, step int, changed bool, infected int) error {
	f := Frame{
		Seq:           r.clock.Next(),
		Step:          step,
		Changed:       changed,
		NewInfections: infected,
		Counts:        r.grid.Counts(),
		Cells:         r.grid.Cells(),
	}
	if r.keep {
		report.Frames = append(report.Frames, f)
	}
	if r.observe != nil {
		if err := r.observe(f, r.grid); err != nil {
			return fmt.Errorf("observer failed at step %d: %w", step, err)
		}
	}
	return nil
}

func (r *Runner) finish(report *Report, runErr error) (*Report, error) {
	report.Final = r.grid.Counts()
	fp, err := trace.Fingerprint(r.grid.Rows(), r.grid.Cols(), r.grid.Cells())
	if err != nil {
		return report, err
	}
	report.Fingerprint = fp
	return report, runErr
}
