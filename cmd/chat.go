package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	tea "charm.land/bubbletea/v2"

	"github.com/bhujal-ai/bhujal/internal/app"
	"github.com/bhujal-ai/bhujal/internal/config"
	"github.com/bhujal-ai/bhujal/internal/tui"
)

// runChat initializes and starts the interactive chat TUI.
func runChat() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := slog.Default()
	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	// An explicit config language pins the chrome; "auto" lets it
	// follow the language of each answer.
	lang := ""
	if cfg.Language != config.LanguageAuto {
		lang = cfg.Language
	}

	model, err := tui.New(ctx, a.Pipeline, lang)
	if err != nil {
		return fmt.Errorf("creating TUI: %w", err)
	}

	program := tea.NewProgram(model, tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("TUI exited: %w", err)
	}
	return nil
}
