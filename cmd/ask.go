package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/bhujal-ai/bhujal/internal/app"
	"github.com/bhujal-ai/bhujal/internal/config"
	"github.com/bhujal-ai/bhujal/internal/i18n"
	"github.com/bhujal-ai/bhujal/internal/pipeline"
)

// runAsk answers one question and exits. Output goes to out as plain
// text safe to pipe, or as the structured Answer JSON with --json.
func runAsk(args []string, out io.Writer) error {
	askFlags := flag.NewFlagSet("ask", flag.ContinueOnError)
	askFlags.SetOutput(os.Stderr)
	asJSON := askFlags.Bool("json", false, "print the structured answer as JSON")
	if err := askFlags.Parse(args); err != nil {
		return fmt.Errorf("parsing ask flags: %w", err)
	}

	question := strings.TrimSpace(strings.Join(askFlags.Args(), " "))
	if question == "" {
		return errors.New(`usage: bhujal ask [--json] "<question>"`)
	}

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

	ans, err := a.Pipeline.Ask(ctx, question)
	if err != nil {
		return fmt.Errorf("answering: %w", err)
	}

	if *asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(ans); err != nil {
			return fmt.Errorf("encoding answer: %w", err)
		}
		return nil
	}

	writeAnswer(out, ans)
	return nil
}

// writeAnswer renders one answer for a terminal or a pipe: prose, then
// the stage, the readings table and the citation list, labeled in the
// answer's language.
func writeAnswer(w io.Writer, ans *pipeline.Answer) {
	lang := i18n.Normalize(ans.Language)

	fmt.Fprintln(w, ans.Text)

	if ans.Stage != "" {
		fmt.Fprintf(w, "\n%s\n", i18n.StageName(lang, ans.Stage))
	}

	if len(ans.TableHeaders) > 0 && len(ans.TableRows) > 0 {
		fmt.Fprintln(w)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, strings.Join(ans.TableHeaders, "\t"))
		for _, row := range ans.TableRows {
			fmt.Fprintln(tw, strings.Join(row, "\t"))
		}
		_ = tw.Flush()
	}

	if len(ans.Citations) > 0 {
		fmt.Fprintf(w, "\n%s:\n", i18n.T(lang, "citations.label"))
		for _, c := range ans.Citations {
			fmt.Fprintf(w, "  %s\n", c)
		}
	}
}
