package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/PawelJastrzebski/quadratic-fork/internal/engine"
	"github.com/PawelJastrzebski/quadratic-fork/internal/ir"
)

// SetOptions holds flags for the set command.
type SetOptions struct {
	*RootOptions
	Database string
	Language string
	Cursor   string
}

// SetResult reports one edit.
type SetResult struct {
	Cell    string   `json:"cell"`
	Display string   `json:"display"`
	Changed []string `json:"changed"`
	Saved   int      `json:"saved"`
	Waiting string   `json:"waiting,omitempty"`
}

// NewSetCommand creates the set command.
func NewSetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "set <cell> <input>",
		Short: "Write a value or code cell and save it to the log",
		Long: `Apply one edit to the workbook stored in a transaction log.

The input is parsed like typed cell input. With --language the input is
stored as a code cell instead: Formula cells are evaluated in process,
Python and JavaScript cells need an interpreter host and record a host
error when run from the command line.

Cells are addressed as "Sheet 1!B2" or "B2" for the first sheet.

Examples:
  gridcore set --db ./book.db A1 5
  gridcore set --db ./book.db "Sheet 1!B1" "A1*2" --language formula`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSet(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the SQLite transaction log")
	cmd.Flags().StringVar(&opts.Language, "language", "", "store the input as a code cell (formula|python|javascript)")
	cmd.Flags().StringVar(&opts.Cursor, "cursor", "", "cursor state recorded with the transaction")

	return cmd
}

func runSet(opts *SetOptions, ref, input string, cmd *cobra.Command) error {
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

	g := wb.ctrl.Grid()
	sp, err := parseCellRef(g, ref)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid cell", err)
	}

	var summary engine.TransactionSummary
	if opts.Language != "" {
		lang, err := ir.ParseLanguage(opts.Language)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid language", err)
		}
		summary, err = wb.ctrl.SetCodeCell(sp, lang, input, opts.Cursor)
		if err != nil {
			return WrapExitError(ExitFailure, "edit failed", err)
		}
	} else {
		summary, err = wb.ctrl.SetCellValue(sp, input, opts.Cursor)
		if err != nil {
			return WrapExitError(ExitFailure, "edit failed", err)
		}
	}

	saved, err := wb.save(ctx)
	if err != nil {
		return err
	}

	result := SetResult{
		Cell:    describeCells(g, []ir.SheetPos{sp})[0],
		Display: g.Sheet(sp.Sheet).DisplayValue(sp.Pos).Display(),
		Changed: describeCells(g, summary.CellsChanged),
		Saved:   saved,
		Waiting: summary.TransactionID,
	}
	return newFormatter(opts.RootOptions, cmd).Result(result, func(w io.Writer) {
		fmt.Fprintf(w, "%s = %s\n", result.Cell, result.Display)
		for _, c := range result.Changed {
			fmt.Fprintf(w, "  changed %s\n", c)
		}
		fmt.Fprintf(w, "%d transaction(s) saved\n", result.Saved)
	})
}
