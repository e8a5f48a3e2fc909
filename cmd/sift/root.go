// ABOUTME: Root Cobra command and shared helpers for the sift CLI.
// ABOUTME: Loads config, opens the state store, and guards mutating commands with a file lock.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/2389-research/sift/internal/config"
	"github.com/2389-research/sift/internal/storage"
)

var globalConfig *config.Config

var rootCmd = &cobra.Command{
	Use:   "sift",
	Short: "Triage a cluttered folder one item at a time",
	Long: `sift walks a folder's contents and lets you decide, per item, whether to
leave it, move it to a folder, or trash it. Decisions are remembered across
runs: close sift mid-session and it resumes exactly where you left off,
skipping everything you already handled.

Run without arguments to start triaging. State management subcommands
(summary, list, clear, export, import) operate on the session ledger.`,
	RunE: runTriage,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "version" {
			return nil
		}
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		globalConfig = cfg
		return nil
	},
	SilenceUsage: true,
}

// openStore opens the ledger at the configured path. A corrupt ledger gets a
// recovery hint appended; the damaged file itself is never touched here.
func openStore() (*storage.Store, error) {
	path, err := globalConfig.GetStateFile()
	if err != nil {
		return nil, err
	}
	store, err := storage.Open(path)
	if err != nil {
		var corrupt *storage.CorruptStateError
		if errors.As(err, &corrupt) {
			return nil, fmt.Errorf("%w\nrun \"sift clear all\" to discard the damaged state file", err)
		}
		return nil, err
	}
	return store, nil
}

// acquireLock takes the single-instance lock next to the state file. A second
// concurrent instance would race on save, so it fails fast instead.
func acquireLock() (*flock.Flock, error) {
	path, err := globalConfig.GetStateFile()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}
	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire state lock: %w", err)
	}
	if !locked {
		return nil, errors.New("another sift instance is already running")
	}
	return lock, nil
}
