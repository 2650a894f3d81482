package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/werous/covid-transmission-sim/internal/config"
	"github.com/werous/covid-transmission-sim/internal/grid"
)

// ValidationResult is the JSON payload of a successful validate.
type ValidationResult struct {
	Valid        bool    `json:"valid"`
	Rows         int     `json:"rows"`
	Cols         int     `json:"cols"`
	Transmission float64 `json:"transmission"`
	Seeds        int     `json:"seeds"`
}

func (r ValidationResult) String() string {
	return fmt.Sprintf("✓ Config valid: %dx%d grid, %d seed(s), transmission %v", r.Rows, r.Cols, r.Seeds, r.Transmission)
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config.cue>",
		Short: "Validate a simulation config without running it",
		Long: `Validate a CUE simulation config against the schema.

Reports the first schema violation with its file position. Seed cells are
checked against the grid size.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	formatter.VerboseLog("Validating %s", path)
	cfg, err := config.Load(path)
	if err != nil {
		var le *config.LoadError
		if !errors.As(err, &le) {
			_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
			return WrapExitError(ExitCommandError, "validation failed", err)
		}

		code := ErrCodeConfig
		if grid.IsOutOfRange(err) {
			code = ErrCodeOutOfRange
		}
		_ = formatter.Error(code, le.Error(), loadErrorDetails(le))

		if le.Code == config.ErrCodeRead {
			return WrapExitError(ExitCommandError, "cannot read config", err)
		}
		return WrapExitError(ExitFailure, "config invalid", err)
	}

	return formatter.Success(ValidationResult{
		Valid:        true,
		Rows:         cfg.Rows,
		Cols:         cfg.Cols,
		Transmission: cfg.Transmission,
		Seeds:        len(cfg.Seeds),
	})
}

func loadErrorDetails(le *config.LoadError) map[string]any {
	details := map[string]any{"config_code": le.Code}
	if le.Pos.IsValid() {
		details["file"] = le.Pos.Filename()
		details["line"] = le.Pos.Line()
		details["column"] = le.Pos.Column()
	}
	return details
}
