package cli

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/PawelJastrzebski/quadratic-fork/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string

	cfg *config.Config
	log *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the gridcore CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "gridcore",
		Short: "gridcore - spreadsheet transaction engine",
		Long: `Drive the gridcore transaction engine from the command line.

Edits are applied as transactions and persisted to a SQLite log, which
can be replayed, listed, exported to xlsx or filled from an xlsx file.
Scripted scenarios exercise the engine against a recording host.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if opts.ConfigPath != "" {
				cfg, err := config.Load(opts.ConfigPath)
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to load config", err)
				}
				opts.cfg = cfg
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to a CUE configuration file")

	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewSetCommand(opts))
	cmd.AddCommand(NewLogCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))

	return cmd
}

// Config returns the loaded configuration, or the schema defaults when no
// --config was given.
func (o *RootOptions) Config() *config.Config {
	if o.cfg == nil {
		o.cfg = config.Default()
	}
	return o.cfg
}

// Logger returns the logger the configuration asks for, writing to the
// command's stderr. --verbose forces debug level.
func (o *RootOptions) Logger(cmd *cobra.Command) *slog.Logger {
	if o.log == nil {
		o.log = o.Config().Logger(cmd.ErrOrStderr(), o.Verbose)
	}
	return o.log
}

// storePath picks the log location: the --db flag wins over store.path.
func (o *RootOptions) storePath(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if p := o.Config().Store.Path; p != "" {
		return p, nil
	}
	return "", NewExitError(ExitCommandError, "no transaction log: pass --db or set store.path in the config")
}
