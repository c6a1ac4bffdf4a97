// Package app assembles the application: configuration in, a ready
// pipeline and its dependencies out.
//
// Setup opens the configured store backend, seeds it on first run,
// loads the corpus, builds the composer for the configured provider
// and wires the pipeline. Every command shares this construction path,
// so a config change behaves identically in chat, ask, serve and mcp.
package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/bhujal-ai/bhujal/internal/compose"
	"github.com/bhujal-ai/bhujal/internal/config"
	"github.com/bhujal-ai/bhujal/internal/corpus"
	"github.com/bhujal-ai/bhujal/internal/log"
	"github.com/bhujal-ai/bhujal/internal/pipeline"
	"github.com/bhujal-ai/bhujal/internal/store"
)

// Store is the full backend surface the app wires into the pipeline,
// the HTTP data endpoints and the ETL commands. Both store backends
// satisfy it; consumers downstream narrow it to the slice they need.
type Store interface {
	Source() string
	Series(ctx context.Context, loc store.Location, fromYear, toYear int) ([]store.Reading, error)
	ReadingAt(ctx context.Context, loc store.Location, year int) (*store.Reading, error)
	Latest(ctx context.Context, loc store.Location) (*store.Reading, error)
	Locations(ctx context.Context) ([]store.Location, error)
	Count(ctx context.Context) (int64, error)
	YearRange(ctx context.Context) (minYear, maxYear int, err error)
	ReplaceAll(ctx context.Context, rows []store.Reading) error
	Ping(ctx context.Context) error
	Close() error
}

// App is the assembled application container.
type App struct {
	Config   *config.Config
	Logger   log.Logger
	Store    Store
	Corpus   *corpus.Corpus
	Composer *compose.Composer
	Pipeline *pipeline.Pipeline
}

// Setup builds the App from cfg. An empty store is seeded with the
// embedded sample dataset so a fresh install can answer immediately.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (*App, error) {
	if cfg == nil {
		return nil, config.ErrConfigNil
	}
	if logger == nil {
		logger = log.NewNop()
	}

	st, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	if err := store.EnsureSeed(ctx, st, logger); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("seeding store: %w", err)
	}

	crp, err := corpus.Load(cfg.CorpusPath)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("loading corpus: %w", err)
	}

	composer := newComposer(cfg, logger)

	pipe, err := pipeline.New(ctx, pipeline.Config{
		Store:    st,
		Corpus:   crp,
		Composer: composer,
		TopK:     cfg.TopK,
		Language: answerLanguage(cfg),
		Logger:   logger,
	})
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("building pipeline: %w", err)
	}

	return &App{
		Config:   cfg,
		Logger:   logger,
		Store:    st,
		Corpus:   crp,
		Composer: composer,
		Pipeline: pipe,
	}, nil
}

// OpenStore opens the backend cfg selects: PostgreSQL when DATABASE_URL
// is set, the embedded SQLite database otherwise. The ETL commands use
// it directly so loading never needs a completion provider.
func OpenStore(ctx context.Context, cfg *config.Config, logger log.Logger) (Store, error) {
	if cfg.DatabaseURL != "" {
		p, err := store.OpenPostgres(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, fmt.Errorf("opening postgres store: %w", err)
		}
		return p, nil
	}

	s, err := store.OpenSQLite(cfg.DBPath, logger)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite store: %w", err)
	}
	return s, nil
}

// Close releases the store. Safe on a nil or partially built App.
func (a *App) Close() error {
	if a == nil || a.Store == nil {
		return nil
	}
	if err := a.Store.Close(); err != nil {
		return fmt.Errorf("closing store: %w", err)
	}
	return nil
}

// newComposer wires the configured provider behind the deterministic
// fallback, with the pacing and timeout the config asks for.
func newComposer(cfg *config.Config, logger log.Logger) *compose.Composer {
	return compose.New(compose.Config{
		Primary: completionService(cfg),
		Timeout: time.Duration(cfg.TimeoutSec) * time.Second,
		Limiter: rate.NewLimiter(rate.Limit(float64(cfg.CompletionRPM)/60.0), 5),
		Logger:  logger,
	})
}

// completionService returns the provider cfg names, or nil when
// composition is pinned to the deterministic fallback.
func completionService(cfg *config.Config) compose.Service {
	if cfg.FallbackOnly {
		return nil
	}
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return compose.NewOpenAI(cfg.ModelName, cfg.Temperature, cfg.MaxTokens)
	case config.ProviderGemini:
		return compose.NewGemini(cfg.ModelName, cfg.Temperature, cfg.MaxTokens)
	default:
		// ProviderNone; Validate rejects anything else at load time.
		return nil
	}
}

// answerLanguage maps the configured language to the pipeline's pin.
// "auto" means detect per query.
func answerLanguage(cfg *config.Config) string {
	if cfg.Language == config.LanguageAuto {
		return ""
	}
	return cfg.Language
}
