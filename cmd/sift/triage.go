// ABOUTME: Default command: run the interactive triage TUI over the target directory.
// ABOUTME: Takes the instance lock, opens the ledger, bumps the session counter, and hands off to the TUI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/2389-research/sift/internal/config"
	"github.com/2389-research/sift/internal/iterator"
	"github.com/2389-research/sift/internal/logging"
	"github.com/2389-research/sift/internal/tui"
)

func runTriage(cmd *cobra.Command, args []string) error {
	lock, err := acquireLock()
	if err != nil {
		return err
	}
	defer func() { _ = lock.Unlock() }()

	store, err := openStore()
	if err != nil {
		return err
	}
	if err := store.IncrementSession(); err != nil {
		return fmt.Errorf("failed to record session: %w", err)
	}

	logger := logging.Nop()
	if dataDir, err := config.DataDir(); err == nil {
		if fileLogger, err := logging.New(dataDir, globalConfig.LogLevel); err == nil {
			logger = fileLogger
		}
	}

	targetDir, err := globalConfig.GetTargetDir()
	if err != nil {
		return err
	}
	trashDir, err := globalConfig.GetTrashDir()
	if err != nil {
		return err
	}

	it, err := iterator.New(targetDir, store)
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", targetDir, err)
	}
	logger.Info("session started", "dir", targetDir, "items", it.Len(), "session", store.SessionCount())

	return tui.Run(it, store, trashDir, logger)
}
