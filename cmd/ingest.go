package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/bhujal-ai/bhujal/internal/config"
	"github.com/bhujal-ai/bhujal/internal/corpus"
	"github.com/bhujal-ai/bhujal/internal/store"
)

// runIngest distills documents or pages into corpus entries and appends
// them to the external corpus file.
func runIngest(args []string, out io.Writer) error {
	ingestFlags := flag.NewFlagSet("ingest", flag.ContinueOnError)
	ingestFlags.SetOutput(os.Stderr)
	keywords := ingestFlags.String("keywords", "", "comma-separated keywords merged with the derived ones")
	year := ingestFlags.Int("year", 0, "publication year for recency tie-breaks")
	if err := ingestFlags.Parse(args); err != nil {
		return fmt.Errorf("parsing ingest flags: %w", err)
	}

	targets := ingestFlags.Args()
	if len(targets) == 0 {
		return errors.New("usage: bhujal ingest [--keywords k1,k2] [--year 2024] <path|url>...")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cfg.CorpusPath == "" {
		return errors.New("ingest needs corpus_path (or BHUJAL_CORPUS_PATH) to persist passages; the embedded corpus is read-only")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	release, err := store.AcquireLoadLock(ctx, cfg.CorpusPath+".lock")
	if err != nil {
		return fmt.Errorf("acquiring ingest lock: %w", err)
	}
	defer release()

	opts := corpus.IngestOptions{
		Keywords: splitKeywords(*keywords),
		Year:     *year,
	}

	for _, target := range targets {
		entry, err := ingestOne(ctx, target, opts)
		if err != nil {
			return fmt.Errorf("ingesting %s: %w", target, err)
		}
		if err := corpus.AppendToFile(cfg.CorpusPath, entry); err != nil {
			return fmt.Errorf("appending %s: %w", target, err)
		}
		fmt.Fprintf(out, "Ingested %s (%d keywords).\n", entry.Source, len(entry.Keywords))
	}
	return nil
}

func ingestOne(ctx context.Context, target string, opts corpus.IngestOptions) (corpus.Entry, error) {
	if isURL(target) {
		return corpus.FromURL(ctx, target, opts)
	}
	return corpus.FromFile(target, opts)
}

func isURL(target string) bool {
	return strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://")
}

// splitKeywords parses the --keywords flag, dropping empty fragments.
func splitKeywords(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
