// Package pipeline runs one conversational turn: classify the question,
// retrieve the grounding rows or corpus passages, compose the
// explanation, and assemble the Answer.
//
// A Pipeline is built once at startup and is read-only afterwards, so
// concurrent turns share it without locking. Missing data is an answer
// state, not an error: callers only see an error when the store itself
// fails or the context is canceled.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/bhujal-ai/bhujal/internal/compose"
	"github.com/bhujal-ai/bhujal/internal/corpus"
	"github.com/bhujal-ai/bhujal/internal/i18n"
	"github.com/bhujal-ai/bhujal/internal/intent"
	"github.com/bhujal-ai/bhujal/internal/log"
	"github.com/bhujal-ai/bhujal/internal/store"
)

// Store is the read-only view of the reading store the pipeline needs.
// Both store backends satisfy it.
type Store interface {
	Source() string
	Series(ctx context.Context, loc store.Location, fromYear, toYear int) ([]store.Reading, error)
	ReadingAt(ctx context.Context, loc store.Location, year int) (*store.Reading, error)
	Latest(ctx context.Context, loc store.Location) (*store.Reading, error)
	Locations(ctx context.Context) ([]store.Location, error)
}

// Answer is the structured result of one turn. Presenters render it
// directly; nothing is parsed back out of the composed text.
type Answer struct {
	Text          string     `json:"text"`
	Intent        string     `json:"intent"`
	Language      string     `json:"language"`
	Stage         string     `json:"stage,omitempty"`
	DeltaMPerYear *float64   `json:"delta_m_per_year,omitempty"`
	TableHeaders  []string   `json:"table_headers,omitempty"`
	TableRows     [][]string `json:"table_rows,omitempty"`
	Citations     []string   `json:"citations,omitempty"`
	Insufficient  bool       `json:"insufficient"`
	ComposedBy    string     `json:"composed_by,omitempty"`
}

// Config wires a Pipeline.
type Config struct {
	Store    Store
	Corpus   *corpus.Corpus
	Composer *compose.Composer
	// TopK bounds definition retrieval (default corpus.DefaultTopK).
	TopK int
	// Language pins the answer language to "en" or "hi"; anything else
	// detects it per query.
	Language string
	Logger   log.Logger
}

// Pipeline holds the per-process turn state: store handle, corpus,
// composer and the location name index.
type Pipeline struct {
	store    Store
	corpus   *corpus.Corpus
	composer *compose.Composer
	index    *locationIndex
	topK     int
	language string // "" = detect per query
	logger   log.Logger
}

var tracer = otel.Tracer("bhujal/pipeline")

// New builds the pipeline and loads the location index from the store.
func New(ctx context.Context, cfg Config) (*Pipeline, error) {
	if cfg.Store == nil {
		return nil, errors.New("store is required")
	}
	if cfg.Corpus == nil {
		return nil, errors.New("corpus is required")
	}
	if cfg.Composer == nil {
		return nil, errors.New("composer is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}
	topK := cfg.TopK
	if topK <= 0 {
		topK = corpus.DefaultTopK
	}
	language := ""
	switch cfg.Language {
	case i18n.LangEN, i18n.LangHI:
		language = cfg.Language
	}

	locs, err := cfg.Store.Locations(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading location index: %w", err)
	}
	index := newLocationIndex(locs)
	logger.Debug("location index built", "locations", index.Len())

	return &Pipeline{
		store:    cfg.Store,
		corpus:   cfg.Corpus,
		composer: cfg.Composer,
		index:    index,
		topK:     topK,
		language: language,
		logger:   logger,
	}, nil
}

// Ask answers one question. The returned error is reserved for store or
// context failures; everything else, including unknown locations and
// empty result sets, comes back as an Answer with Insufficient set.
func (p *Pipeline) Ask(ctx context.Context, query string) (*Answer, error) {
	query = strings.TrimSpace(query)

	ctx, span := tracer.Start(ctx, "pipeline.ask")
	defer span.End()

	res := intent.Classify(query)
	lang := p.answerLanguage(res)
	span.SetAttributes(
		attribute.String("bhujal.intent", res.Intent.String()),
		attribute.String("bhujal.language", lang),
	)

	ret, err := p.retrieve(ctx, query, res, lang)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Bool("bhujal.insufficient", ret.insufficient))

	req := compose.Request{
		Query:    query,
		Language: lang,
		Segments: ret.segments,
		Table:    markdownTable(ret.headers, ret.rows),
	}
	cctx, composeSpan := tracer.Start(ctx, "pipeline.compose")
	text, composedBy := p.composer.Compose(cctx, req)
	composeSpan.SetAttributes(attribute.String("bhujal.composed_by", composedBy))
	composeSpan.End()

	p.logger.Debug("turn answered",
		"intent", res.Intent.String(),
		"language", lang,
		"insufficient", ret.insufficient,
		"composed_by", composedBy)

	return &Answer{
		Text:          text,
		Intent:        res.Intent.String(),
		Language:      lang,
		Stage:         ret.stage,
		DeltaMPerYear: ret.delta,
		TableHeaders:  ret.headers,
		TableRows:     ret.rows,
		Citations:     ret.citations,
		Insufficient:  ret.insufficient,
		ComposedBy:    composedBy,
	}, nil
}

func (p *Pipeline) answerLanguage(res intent.Result) string {
	if p.language != "" {
		return p.language
	}
	return res.Language
}
