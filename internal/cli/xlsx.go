package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/PawelJastrzebski/quadratic-fork/internal/xlsx"
)

// WorkbookOptions holds flags for the export and import commands.
type WorkbookOptions struct {
	*RootOptions
	Database string
	Cursor   string
}

// WorkbookResult reports an export or import.
type WorkbookResult struct {
	Path    string   `json:"path"`
	Sheets  []string `json:"sheets"`
	Changed int      `json:"changed,omitempty"`
	Saved   int      `json:"saved,omitempty"`
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WorkbookOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export <out.xlsx>",
		Short: "Write the displayed values of a log to an xlsx file",
		Long: `Replay a transaction log and write every sheet's displayed values
to an xlsx workbook. Code cells are exported as their outputs.

Example:
  gridcore export --db ./book.db ./book.xlsx`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the SQLite transaction log")

	return cmd
}

func runExport(opts *WorkbookOptions, out string, cmd *cobra.Command) error {
	ctx := context.Background()

	path, err := opts.storePath(opts.Database)
	if err != nil {
		return err
	}
	wb, err := openWorkbook(ctx, opts.RootOptions, cmd, path, nil)
	if err != nil {
		return err
	}
	defer wb.Close()

	if wb.fresh {
		return NewExitError(ExitCommandError, fmt.Sprintf("transaction log %s is empty", path))
	}

	g := wb.ctrl.Grid()
	if err := xlsx.ExportFile(g, out); err != nil {
		return WrapExitError(ExitFailure, "export failed", err)
	}

	result := WorkbookResult{Path: out}
	for _, sheet := range g.Sheets() {
		result.Sheets = append(result.Sheets, sheet.Name)
	}
	return newFormatter(opts.RootOptions, cmd).Result(result, func(w io.Writer) {
		fmt.Fprintf(w, "✓ Exported %d sheet(s) to %s\n", len(result.Sheets), out)
	})
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WorkbookOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <in.xlsx>",
		Short: "Write the values of an xlsx file into a log",
		Long: `Read every worksheet of an xlsx file and apply its values as one
transaction, so a single undo reverts the import.

An empty log starts a workbook with the file's sheet names. Otherwise
every worksheet must match an existing sheet by name.

Example:
  gridcore import --db ./book.db ./data.xlsx`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the SQLite transaction log")
	cmd.Flags().StringVar(&opts.Cursor, "cursor", "", "cursor state recorded with the transaction")

	return cmd
}

func runImport(opts *WorkbookOptions, in string, cmd *cobra.Command) error {
	ctx := context.Background()

	sheets, err := xlsx.ReadFile(in)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read workbook", err)
	}
	names := make([]string, 0, len(sheets))
	for _, s := range sheets {
		names = append(names, s.Name)
	}

	path, err := opts.storePath(opts.Database)
	if err != nil {
		return err
	}
	wb, err := openWorkbook(ctx, opts.RootOptions, cmd, path, names)
	if err != nil {
		return err
	}
	defer wb.Close()

	ops, err := xlsx.Operations(wb.ctrl.Grid(), sheets)
	if err != nil {
		return WrapExitError(ExitFailure, "import failed", err)
	}
	result := WorkbookResult{Path: in, Sheets: names}
	if len(ops) > 0 {
		summary, err := wb.ctrl.StartUserTransaction(ops, opts.Cursor)
		if err != nil {
			return WrapExitError(ExitFailure, "import failed", err)
		}
		result.Changed = len(summary.CellsChanged)
	}
	if result.Saved, err = wb.save(ctx); err != nil {
		return err
	}

	return newFormatter(opts.RootOptions, cmd).Result(result, func(w io.Writer) {
		fmt.Fprintf(w, "✓ Imported %s: %d cell(s) changed, %d transaction(s) saved\n", in, result.Changed, result.Saved)
	})
}
