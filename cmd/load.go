package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/bhujal-ai/bhujal/internal/app"
	"github.com/bhujal-ai/bhujal/internal/config"
	"github.com/bhujal-ai/bhujal/internal/store"
)

// runLoad replaces the readings store with the rows of a CSV export.
// An exclusive file lock serializes concurrent ETL runs.
func runLoad(args []string, out io.Writer) error {
	if len(args) != 1 || strings.HasPrefix(args[0], "-") {
		return errors.New("usage: bhujal load <readings.csv>")
	}
	csvPath := args[0]

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := slog.Default()

	release, err := store.AcquireLoadLock(ctx, etlLockPath(cfg))
	if err != nil {
		return fmt.Errorf("acquiring load lock: %w", err)
	}
	defer release()

	st, err := app.OpenStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Warn("store close error", "error", closeErr)
		}
	}()

	n, err := store.LoadCSV(ctx, st, csvPath, logger)
	if err != nil {
		return fmt.Errorf("loading %s: %w", csvPath, err)
	}

	fmt.Fprintf(out, "Loaded %d readings from %s into %s.\n", n, csvPath, st.Source())
	return nil
}

// etlLockPath picks the lock file serializing local ETL runs. It sits
// next to the SQLite file when one is configured, otherwise in the
// temp directory.
func etlLockPath(cfg *config.Config) string {
	if cfg.DBPath != "" {
		return cfg.DBPath + ".lock"
	}
	return filepath.Join(os.TempDir(), "bhujal-etl.lock")
}
