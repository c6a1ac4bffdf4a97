package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bhujal-ai/bhujal/internal/log"
	"github.com/bhujal-ai/bhujal/internal/pipeline"
	"github.com/bhujal-ai/bhujal/internal/store"
)

// Asker runs one question-answering turn. *pipeline.Pipeline satisfies it.
type Asker interface {
	Ask(ctx context.Context, query string) (*pipeline.Answer, error)
}

// Store is the read surface the data tools need. Both store backends
// satisfy it.
type Store interface {
	Source() string
	Locations(ctx context.Context) ([]store.Location, error)
	Series(ctx context.Context, loc store.Location, fromYear, toYear int) ([]store.Reading, error)
}

// Config holds MCP server configuration.
type Config struct {
	Name     string
	Version  string
	Pipeline Asker
	Store    Store
	Logger   log.Logger
}

// Server wraps the MCP SDK server around the pipeline and store.
type Server struct {
	mcpServer *mcp.Server
	pipe      Asker
	store     Store
	logger    log.Logger
	name      string
	version   string
}

// NewServer creates an MCP server with all tools registered.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Name == "" {
		return nil, errors.New("server name is required")
	}
	if cfg.Version == "" {
		return nil, errors.New("server version is required")
	}
	if cfg.Pipeline == nil {
		return nil, errors.New("pipeline is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("store is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewNop()
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, nil)

	s := &Server{
		mcpServer: mcpServer,
		pipe:      cfg.Pipeline,
		store:     cfg.Store,
		logger:    cfg.Logger,
		name:      cfg.Name,
		version:   cfg.Version,
	}

	if err := s.registerAskTool(); err != nil {
		return nil, fmt.Errorf("registering ask: %w", err)
	}
	if err := s.registerDataTools(); err != nil {
		return nil, fmt.Errorf("registering data tools: %w", err)
	}

	return s, nil
}

// Run serves the MCP protocol on the given transport. Blocks until the
// transport closes or ctx is canceled.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	return s.mcpServer.Run(ctx, transport)
}
