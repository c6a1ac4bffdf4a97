package api

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bhujal-ai/bhujal/internal/compose"
	"github.com/bhujal-ai/bhujal/internal/corpus"
	"github.com/bhujal-ai/bhujal/internal/log"
	"github.com/bhujal-ai/bhujal/internal/pipeline"
	"github.com/bhujal-ai/bhujal/internal/store"
)

// apiTestRows seeds a declining block, a stable block, and district
// rollup rows, enough to exercise every endpoint.
var apiTestRows = []store.Reading{
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

// newTestServer builds a handler over a seeded SQLite store with the
// template composer, so no network or API key is involved.
func newTestServer(t *testing.T, mutate func(*Config)) http.Handler {
	t.Helper()
	ctx := context.Background()

	st, err := store.OpenSQLite(filepath.Join(t.TempDir(), "bhujal.db"), log.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ReplaceAll(ctx, apiTestRows))

	c, err := corpus.Load("")
	require.NoError(t, err)

	p, err := pipeline.New(ctx, pipeline.Config{
		Store:    st,
		Corpus:   c,
		Composer: compose.New(compose.Config{}),
		Logger:   log.NewNop(),
	})
	require.NoError(t, err)

	cfg := Config{Pipeline: p, Store: st, Logger: log.NewNop()}
	if mutate != nil {
		mutate(&cfg)
	}
	return NewServer(cfg).Handler()
}

func TestServerHealthEndpoints(t *testing.T) {
	t.Parallel()
	// No dependencies at all: liveness still works, readiness fails.
	handler := NewServer(Config{Logger: log.NewNop()}).Handler()

	t.Run("GET /health returns 200", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ok", w.Body.String())
	})

	t.Run("GET /ready returns 503 without a store", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestServerReadinessWithStore(t *testing.T) {
	t.Parallel()
	handler := newTestServer(t, nil)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ready", w.Body.String())
}

func TestServerAskDisabledWithoutPipeline(t *testing.T) {
	t.Parallel()
	handler := NewServer(Config{Logger: log.NewNop()}).Handler()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ask", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	// Route is never registered when the pipeline is missing.
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServerRequestIDHeader(t *testing.T) {
	t.Parallel()
	handler := newTestServer(t, nil)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestServerRateLimiting(t *testing.T) {
	t.Parallel()
	handler := newTestServer(t, func(cfg *Config) { cfg.RateBurst = 2 })

	get := func(path string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = "198.51.100.1:4000"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, get("/api/v1/locations"))
	assert.Equal(t, http.StatusOK, get("/api/v1/locations"))
	assert.Equal(t, http.StatusTooManyRequests, get("/api/v1/locations"))

	// Probes stay reachable for the same client.
	assert.Equal(t, http.StatusOK, get("/health"))
}

func TestServerCORS(t *testing.T) {
	t.Parallel()
	handler := newTestServer(t, func(cfg *Config) {
		cfg.AllowedOrigins = []string{"http://localhost:3000"}
	})

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/locations", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/ask", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
	})
}

func TestServerRunGracefulShutdown(t *testing.T) {
	t.Parallel()
	srv := NewServer(Config{Logger: log.NewNop()})

	ctx, cancel := context.WithCancel(context.Background())

	// Find an available port.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	_ = listener.Close()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run(ctx, addr)
	}()

	// Poll for readiness instead of a fixed sleep.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 50*time.Millisecond)
		if err == nil {
			_ = conn.Close()
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down in time")
	}
}

func TestServerDefaultAddr(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "127.0.0.1:3400", DefaultAddr)
}
