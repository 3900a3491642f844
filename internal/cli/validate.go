package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/PawelJastrzebski/quadratic-fork/internal/config"
)

// ValidationError locates a configuration error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config.cue>",
		Short: "Check a configuration file against the schema",
		Long: `Validate a CUE configuration file against the embedded schema and
print the resolved settings, defaults included.

Exit codes:
  0 - Configuration is valid
  1 - Configuration is invalid
  2 - Command error (file not found, etc.)`,
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
	f := newFormatter(opts, cmd)

	if _, err := os.Stat(path); err != nil {
		return f.Failure(ExitCommandError, "E_NOT_FOUND", fmt.Sprintf("config file not found: %s", path), nil)
	}

	cfg, err := config.Load(path)
	if err != nil {
		verr := ValidationError{Field: "config", Message: err.Error()}
		var cerr *config.Error
		if errors.As(err, &cerr) {
			verr.Field = cerr.Field
			verr.Message = cerr.Message
			if cerr.Pos.IsValid() {
				verr.Line = cerr.Pos.Line()
				verr.Column = cerr.Pos.Column()
			}
		}
		return f.Failure(ExitFailure, "E_INVALID_CONFIG", err.Error(), verr)
	}

	return f.Result(cfg, func(w io.Writer) {
		fmt.Fprintf(w, "✓ %s is valid\n", path)
		fmt.Fprintf(w, "  sheets:    %s\n", strings.Join(cfg.Sheets, ", "))
		fmt.Fprintf(w, "  max_steps: %d\n", cfg.Engine.MaxSteps)
		store := cfg.Store.Path
		if store == "" {
			store = "(memory)"
		}
		fmt.Fprintf(w, "  store:     %s\n", store)
		fmt.Fprintf(w, "  log:       %s, %s\n", cfg.Log.Level, cfg.Log.Format)
	})
}
