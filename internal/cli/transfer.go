package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/szerviz/internal/lifecycle"
)

// ExportResult is the export payload.
type ExportResult struct {
	File  string `json:"file"`
	Count int    `json:"count"`
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		dir    string
		stdout bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Save a backup file of every client",
		Long: `Save every client to a JSON backup file named <prefix>_<YYYY-MM-DD>.json
and reset the backup reminder.

Example:
  szerviz export --dir ~/Backups
  szerviz export --stdout > backup.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer a.Close()

			var path string
			exp, err := a.mgr.ExportSnapshot(cmd.Context(), func(exp lifecycle.Export) error {
				if stdout {
					_, err := fmt.Fprintln(a.out.Writer, string(exp.Data))
					return err
				}
				path = filepath.Join(dir, exp.FileName)
				return os.WriteFile(path, append(exp.Data, '\n'), 0o600)
			})
			if err != nil {
				return a.out.Fail(err)
			}
			if stdout {
				return nil
			}

			if a.out.Format == "json" {
				return a.out.Success(ExportResult{File: path, Count: exp.Count})
			}
			fmt.Fprintf(a.out.Writer, "✓ Saved %d client(s) to %s\n", exp.Count, path)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "directory to write the backup file to")
	cmd.Flags().BoolVar(&stdout, "stdout", false, "write the backup to stdout instead of a file")

	return cmd
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "import <backup.json>",
		Short: "Restore clients from a backup file",
		Long: `Restore clients from a backup file.

Modes:
  merge    add clients whose id is not present yet (default)
  replace  replace every client with the file's contents

Invalid files are rejected without changing anything.

Example:
  szerviz import szerviz_mentes_2024-06-10.json
  szerviz import backup.json --mode replace`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer a.Close()

			m, err := lifecycle.ParseImportMode(mode)
			if err != nil {
				return a.out.Fail(usageError("%v", err))
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return a.out.Fail(usageError("read backup: %v", err))
			}

			res, err := a.mgr.ImportSnapshot(cmd.Context(), data, m)
			if err != nil {
				return a.out.Fail(err)
			}
			if a.out.Format == "json" {
				return a.out.Success(res)
			}
			fmt.Fprintf(a.out.Writer, "✓ Imported %d client(s), skipped %d duplicate(s); %d client(s) total.\n", res.Added, res.Skipped, res.Total)
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "merge", "import mode (merge|replace)")

	return cmd
}

// HistoryEntry is one row of the history payload.
type HistoryEntry struct {
	FileName    string    `json:"fileName"`
	RecordCount int       `json:"recordCount"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past backups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer a.Close()

			entries, err := a.store.ExportHistory(cmd.Context(), limit)
			if err != nil {
				return a.out.Fail(err)
			}
			out := make([]HistoryEntry, len(entries))
			for i, e := range entries {
				out[i] = HistoryEntry{FileName: e.FileName, RecordCount: e.RecordCount, CreatedAt: e.CreatedAt}
			}

			if a.out.Format == "json" {
				return a.out.Success(out)
			}
			if len(out) == 0 {
				fmt.Fprintln(a.out.Writer, "No backups yet. Run `szerviz export`.")
				return nil
			}
			for _, e := range out {
				fmt.Fprintf(a.out.Writer, "  %s  %-34s  %d client(s)\n", e.CreatedAt.Local().Format("2006-01-02 15:04"), e.FileName, e.RecordCount)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "maximum number of entries")

	return cmd
}
