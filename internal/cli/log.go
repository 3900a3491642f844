package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/PawelJastrzebski/quadratic-fork/internal/store"
)

// LogOptions holds flags for the log command.
type LogOptions struct {
	*RootOptions
	Database string
	After    int64
}

// LogEntry is one committed transaction as listed by the log command.
type LogEntry struct {
	Seq        int64    `json:"seq"`
	ID         string   `json:"id"`
	Type       string   `json:"type"`
	Cursor     string   `json:"cursor,omitempty"`
	Operations []string `json:"operations"`
	Digest     string   `json:"digest"`
	Synced     bool     `json:"synced"`
}

// LogResult holds the log command output.
type LogResult struct {
	Sheets       []string   `json:"sheets"`
	Transactions []LogEntry `json:"transactions"`
}

// NewLogCommand creates the log command.
func NewLogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "log",
		Short: "List the transactions in a log",
		Long: `List committed transactions in commit order with their type,
operation kinds and sync state.

Examples:
  gridcore log --db ./book.db
  gridcore log --db ./book.db --after 10 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLog(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the SQLite transaction log")
	cmd.Flags().Int64Var(&opts.After, "after", 0, "only list transactions with a greater sequence number")

	return cmd
}

func runLog(opts *LogOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	path, err := opts.storePath(opts.Database)
	if err != nil {
		return err
	}
	st, err := store.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open transaction log", err)
	}
	defer st.Close()

	sheets, err := st.ReadSheets(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read sheets", err)
	}
	entries, err := st.ReadTransactions(ctx, opts.After)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read transactions", err)
	}

	result := LogResult{
		Sheets:       make([]string, 0, len(sheets)),
		Transactions: make([]LogEntry, 0, len(entries)),
	}
	for _, sh := range sheets {
		result.Sheets = append(result.Sheets, sh.Name)
	}
	for _, e := range entries {
		kinds := make([]string, 0, len(e.Forward.Operations))
		for _, op := range e.Forward.Operations {
			kinds = append(kinds, string(op.Kind()))
		}
		result.Transactions = append(result.Transactions, LogEntry{
			Seq:        e.Seq,
			ID:         e.Forward.ID,
			Type:       string(e.Forward.Type),
			Cursor:     e.Forward.Cursor,
			Operations: kinds,
			Digest:     e.Digest,
			Synced:     e.Synced,
		})
	}

	return newFormatter(opts.RootOptions, cmd).Result(result, func(w io.Writer) {
		writeLogText(w, result)
	})
}

func writeLogText(w io.Writer, result LogResult) {
	fmt.Fprintf(w, "Sheets: %s\n\n", strings.Join(result.Sheets, ", "))
	if len(result.Transactions) == 0 {
		fmt.Fprintln(w, "No transactions.")
		return
	}
	for _, e := range result.Transactions {
		synced := ""
		if e.Synced {
			synced = "  (synced)"
		}
		fmt.Fprintf(w, "%6d  %-11s %s  %s%s\n", e.Seq, e.Type, e.ID, strings.Join(e.Operations, ", "), synced)
	}
}
