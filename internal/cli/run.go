package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/werous/covid-transmission-sim/internal/config"
	"github.com/werous/covid-transmission-sim/internal/grid"
	"github.com/werous/covid-transmission-sim/internal/sim"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Seed         uint64
	Transmission float64
	MaxSteps     int
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run [config.cue]",
		Short: "Run a simulation until no new infection occurs",
		Long: `Run a percolation simulation and print the grid after every step.

Without a config file the reference run is used: a 4x6 grid with cell 12
infected and transmission probability 0.4. Flags override config values.

Each grid is printed one row per line as state codes
(0 naive, 1 infected, 2 recovered, 3 vaccinated), followed by a blank line.

Example:
  percolate run
  percolate run sim.cue --seed 42
  percolate run --transmission 0.6 --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runSimulation(opts, path, cmd)
		},
	}

	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "seed for the random source (default: random)")
	cmd.Flags().Float64Var(&opts.Transmission, "transmission", grid.DefaultTransmission, "per-edge infection probability")
	cmd.Flags().IntVar(&opts.MaxSteps, "max-steps", 0, "stop with an error after this many steps (default: rows*cols+1)")

	return cmd
}

func runSimulation(opts *RunOptions, path string, cmd *cobra.Command) error {
	logger := newLogger(opts.RootOptions, cmd)
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to load config", err)
		}
		cfg = loaded
		logger.Debug("config loaded", "path", path)
	}

	flags := cmd.Flags()
	if flags.Changed("seed") {
		seed := opts.Seed
		cfg.Seed = &seed
	}
	if flags.Changed("transmission") {
		cfg.Transmission = opts.Transmission
	}
	if flags.Changed("max-steps") {
		cfg.MaxSteps = opts.MaxSteps
	}

	simOpts := []sim.Option{sim.WithLogger(logger)}
	if opts.Format == "json" {
		simOpts = append(simOpts, sim.WithFrames())
	} else {
		w := cmd.OutOrStdout()
		simOpts = append(simOpts, sim.WithObserver(func(_ sim.Frame, g *grid.Grid) error {
			_, err := g.WriteTo(w)
			return err
		}))
	}

	runner, err := sim.New(cfg, simOpts...)
	if err != nil {
		code := ErrCodeGeneric
		if grid.IsOutOfRange(err) {
			code = ErrCodeOutOfRange
		}
		_ = formatter.Error(code, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid simulation", err)
	}

	report, err := runner.Run()
	if err != nil {
		if sim.IsStepsExceededError(err) {
			_ = formatter.Error(ErrCodeStepLimit, err.Error(), map[string]int{"steps": report.Steps})
			return WrapExitError(ExitFailure, "simulation did not settle", err)
		}
		return WrapExitError(ExitFailure, "simulation failed", err)
	}

	if opts.Format == "json" {
		return formatter.Success(report)
	}
	formatter.VerboseLog("run %s settled after %d step(s): %s", report.RunID, report.Steps, formatCounts(report.Final))
	return nil
}

func formatCounts(c grid.Counts) string {
	return fmt.Sprintf("naive=%d infected=%d recovered=%d vaccinated=%d",
		c.Naive, c.Infected, c.Recovered, c.Vaccinated)
}
