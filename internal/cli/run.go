package cli

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/PawelJastrzebski/quadratic-fork/internal/harness"
)

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run one scenario and print its trace",
		Long: `Run a single scenario file and print what every step did,
followed by the final displayed cells.

Examples:
  gridcore run ./scenarios/python_host.yaml
  gridcore run ./scenarios/python_host.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runScenario(opts *RootOptions, path string, cmd *cobra.Command) error {
	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	result, err := harness.Run(scenario,
		harness.WithLogger(opts.Logger(cmd)),
		harness.WithMaxSteps(opts.Config().Engine.MaxSteps),
	)
	if err != nil {
		return WrapExitError(ExitFailure, "scenario failed to run", err)
	}

	f := newFormatter(opts, cmd)
	if err := f.Result(result, func(w io.Writer) { writeRunText(w, scenario.Name, result) }); err != nil {
		return err
	}
	if !result.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed", scenario.Name))
	}
	return nil
}

func writeRunText(w io.Writer, name string, result *harness.Result) {
	fmt.Fprintf(w, "Scenario: %s\n\n", name)
	for _, ev := range result.Trace {
		status := "complete"
		if !ev.Complete {
			status = "waiting"
		}
		line := fmt.Sprintf("%3d  %-16s %s", ev.Seq, ev.Action, status)
		if ev.Transaction != "" {
			line += " " + ev.Transaction
		}
		fmt.Fprintln(w, line)
		if len(ev.Changed) > 0 {
			fmt.Fprintf(w, "       changed: %s\n", strings.Join(ev.Changed, ", "))
		}
		for _, d := range ev.Dispatched {
			fmt.Fprintf(w, "       dispatched: %s\n", d)
		}
		if len(ev.Cells) > 0 {
			fmt.Fprintf(w, "       cells: %s\n", strings.Join(ev.Cells, ", "))
		}
		if ev.Error != "" {
			fmt.Fprintf(w, "       error: %s\n", ev.Error)
		}
	}

	fmt.Fprintln(w)
	writeState(w, result.State)

	if result.Pass {
		fmt.Fprintln(w, "✓ PASS")
		return
	}
	fmt.Fprintln(w, "✗ FAIL")
	for _, e := range result.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}
}

// writeState prints displayed cells per sheet in name order.
func writeState(w io.Writer, state map[string]map[string]string) {
	for _, name := range slices.Sorted(maps.Keys(state)) {
		cells := state[name]
		fmt.Fprintf(w, "%s:\n", name)
		if len(cells) == 0 {
			fmt.Fprintln(w, "  (empty)")
			continue
		}
		for _, a1 := range sortedCells(cells) {
			fmt.Fprintf(w, "  %s = %s\n", a1, cells[a1])
		}
	}
}
