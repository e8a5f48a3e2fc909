// ABOUTME: State management subcommands: summary, list, clear, export, import.
// ABOUTME: Each maps directly onto one state store operation and exits non-zero on failure.
package main

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/2389-research/sift/internal/models"
	"github.com/2389-research/sift/internal/storage"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show a summary of the session ledger",
	Long:  "Show handled-item counts by action, the session count, and the state file location.",
	Args:  cobra.NoArgs,
	RunE:  runSummary,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all handled items",
	Long:  "List every handled item with its action, destination, and timestamp.",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var clearCmd = &cobra.Command{
	Use:   "clear {all|handled}",
	Short: "Clear state data",
	Long: `Clear state data.

  clear handled   forget handled items only; cursor and session count survive
  clear all       reset the whole ledger (session count survives; a ledger too
                  corrupt to read is deleted outright)`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"all", "handled"},
	RunE:      runClear,
}

var exportCmd = &cobra.Command{
	Use:   "export <path>",
	Short: "Export the ledger to a file",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

var importCmd = &cobra.Command{
	Use:   "import <path>",
	Short: "Import a ledger from a file, replacing current state",
	Long:  "Validate and import a ledger document. Import is all-or-nothing: on failure the current state is untouched.",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}

// newTable returns a table writer, styled only when stdout is a terminal.
func newTable() table.Writer {
	t := table.NewWriter()
	if isatty.IsTerminal(os.Stdout.Fd()) {
		t.SetStyle(table.StyleRounded)
	}
	return t
}

func runSummary(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	sum := store.Summary()

	t := newTable()
	t.AppendRows([]table.Row{
		{"Sessions run", sum.SessionCount},
		{"Items left in place", sum.Left},
		{"Items moved to folders", sum.Moved},
		{"Items moved to trash", sum.Trashed},
		{"Total items handled", sum.Total},
	})
	fmt.Println(t.Render())
	fmt.Printf("State file: %s\n", sum.FilePath)

	cursor := store.Cursor()
	if len(cursor.Items) > 0 && cursor.CurrentIndex >= 0 {
		fmt.Printf("Saved position: %d/%d\n", cursor.CurrentIndex+1, len(cursor.Items))
	} else {
		fmt.Println("No saved position")
	}
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	records := store.Records()
	if len(records) == 0 {
		fmt.Println("No items have been handled yet.")
		return nil
	}

	sorted := make([]models.HandledRecord, 0, len(records))
	for _, rec := range records {
		sorted = append(sorted, rec)
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	t := newTable()
	t.AppendHeader(table.Row{"Filename", "Action", "Destination", "When", "Original Path"})
	for _, rec := range sorted {
		t.AppendRow(table.Row{
			rec.Filename,
			string(rec.Action),
			rec.Destination,
			rec.Timestamp.Format("2006-01-02 15:04:05"),
			rec.OriginalPath,
		})
	}
	fmt.Println(t.Render())
	return nil
}

func runClear(cmd *cobra.Command, args []string) error {
	lock, err := acquireLock()
	if err != nil {
		return err
	}
	defer func() { _ = lock.Unlock() }()

	switch args[0] {
	case "handled":
		store, err := openStore()
		if err != nil {
			return err
		}
		if err := store.ClearHandled(); err != nil {
			return fmt.Errorf("failed to clear handled items: %w", err)
		}
		fmt.Println("Handled items cleared.")

	case "all":
		path, err := globalConfig.GetStateFile()
		if err != nil {
			return err
		}
		store, err := storage.Open(path)
		if err != nil {
			// Recovery path: a ledger too corrupt to read is removed outright.
			var corrupt *storage.CorruptStateError
			if !errors.As(err, &corrupt) {
				return err
			}
			if err := storage.Discard(path); err != nil {
				return err
			}
			fmt.Println("Corrupt state file removed.")
			return nil
		}
		if err := store.ClearAll(); err != nil {
			return fmt.Errorf("failed to clear state: %w", err)
		}
		fmt.Println("All state data cleared.")

	default:
		return fmt.Errorf("unknown clear target %q (valid: all, handled)", args[0])
	}
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	if err := store.ExportTo(args[0]); err != nil {
		return fmt.Errorf("failed to export state: %w", err)
	}
	fmt.Printf("State exported to: %s\n", args[0])
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	lock, err := acquireLock()
	if err != nil {
		return err
	}
	defer func() { _ = lock.Unlock() }()

	store, err := openStore()
	if err != nil {
		return err
	}
	if err := store.ImportFrom(args[0]); err != nil {
		return fmt.Errorf("failed to import state: %w", err)
	}
	fmt.Printf("State imported from: %s\n", args[0])
	return nil
}
