package mcp

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bhujal-ai/bhujal/internal/compose"
	"github.com/bhujal-ai/bhujal/internal/corpus"
	"github.com/bhujal-ai/bhujal/internal/log"
	"github.com/bhujal-ai/bhujal/internal/pipeline"
	"github.com/bhujal-ai/bhujal/internal/store"
)

// testRows seeds a declining block, a stable block, and district rollup
// rows, the same fixture the HTTP surface tests against.
var testRows = []store.Reading{
	{State: "Uttarakhand", District: "Dehradun", Block: "Doiwala", Year: 2018, LevelM: 10.0, Stage: store.StageSafe},
	{State: "Uttarakhand", District: "Dehradun", Block: "Doiwala", Year: 2019, LevelM: 10.6, Stage: store.StageSafe},
	{State: "Uttarakhand", District: "Dehradun", Block: "Doiwala", Year: 2020, LevelM: 11.4, Stage: store.StageSemiCritical},
	{State: "Uttarakhand", District: "Dehradun", Block: "Doiwala", Year: 2021, LevelM: 12.4, Stage: store.StageCritical},
	{State: "Uttarakhand", District: "Dehradun", Block: "Doiwala", Year: 2022, LevelM: 13.0, Stage: store.StageCritical},
	{State: "Uttarakhand", District: "Haridwar", Block: "Roorkee", Year: 2021, LevelM: 8.0, Stage: store.StageSafe},
	{State: "Uttarakhand", District: "Haridwar", Block: "Roorkee", Year: 2022, LevelM: 7.9, Stage: store.StageSafe},
	{State: "Uttarakhand", District: "Dehradun", Block: "", Year: 2022, LevelM: 12.0, Stage: store.StageCritical},
	{State: "Uttarakhand", District: "Dehradun", Block: "", Year: 2023, LevelM: 12.4, Stage: store.StageCritical},
}

// newTestDeps builds a seeded SQLite store and a template-composer
// pipeline, so no network or API key is involved.
func newTestDeps(t *testing.T) (*store.SQLite, *pipeline.Pipeline) {
	t.Helper()
	ctx := context.Background()

	st, err := store.OpenSQLite(filepath.Join(t.TempDir(), "bhujal.db"), log.NewNop())
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	if err := st.ReplaceAll(ctx, testRows); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	c, err := corpus.Load("")
	if err != nil {
		t.Fatalf("corpus.Load: %v", err)
	}

	p, err := pipeline.New(ctx, pipeline.Config{
		Store:    st,
		Corpus:   c,
		Composer: compose.New(compose.Config{}),
		Logger:   log.NewNop(),
	})
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}
	return st, p
}

func validConfig(t *testing.T) Config {
	t.Helper()
	st, p := newTestDeps(t)
	return Config{
		Name:     "test-server",
		Version:  "1.0.0",
		Pipeline: p,
		Store:    st,
	}
}

func TestNewServer_Success(t *testing.T) {
	cfg := validConfig(t)

	server, err := NewServer(cfg)
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}

	if server.name != "test-server" {
		t.Errorf("server.name = %q, want %q", server.name, "test-server")
	}
	if server.version != "1.0.0" {
		t.Errorf("server.version = %q, want %q", server.version, "1.0.0")
	}
	if server.mcpServer == nil {
		t.Error("server.mcpServer is nil")
	}
	if server.pipe == nil {
		t.Error("server.pipe is nil")
	}
	if server.store == nil {
		t.Error("server.store is nil")
	}
	if server.logger == nil {
		t.Error("server.logger should default, not stay nil")
	}
}

func TestNewServer_ValidationErrors(t *testing.T) {
	st, p := newTestDeps(t)

	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{
			name:    "missing name",
			config:  Config{Version: "1.0.0", Pipeline: p, Store: st},
			wantErr: "server name is required",
		},
		{
			name:    "missing version",
			config:  Config{Name: "test", Pipeline: p, Store: st},
			wantErr: "server version is required",
		},
		{
			name:    "missing pipeline",
			config:  Config{Name: "test", Version: "1.0.0", Store: st},
			wantErr: "pipeline is required",
		},
		{
			name:    "missing store",
			config:  Config{Name: "test", Version: "1.0.0", Pipeline: p},
			wantErr: "store is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewServer(tt.config)
			if err == nil {
				t.Fatal("NewServer succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("NewServer error = %q, want to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}
