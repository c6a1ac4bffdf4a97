package corpus

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromFile(t *testing.T) {
	t.Parallel()

	t.Run("plain text", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "aquifer-notes.txt")
		body := "Alluvial aquifers store most extractable groundwater.\n" +
			"Aquifer recharge depends on rainfall and soil permeability.\n"
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

		e, err := FromFile(path, IngestOptions{Year: 2024})
		require.NoError(t, err)
		assert.Equal(t, "aquifer-notes.txt", e.Source)
		assert.Equal(t, 2024, e.Year)
		assert.NotContains(t, e.Text, "\n")
		assert.Contains(t, e.Text, "Alluvial aquifers")
		assert.Contains(t, e.Keywords, "aquifer-notes")
		assert.Contains(t, e.Keywords, "recharge")
	})

	t.Run("html", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "advisory.html")
		body := `<html><head><title>Recharge Advisory</title></head><body>
			<p>Percolation tanks slow runoff in upper catchments.</p>
			<p>Desilting existing tanks restores their recharge capacity.</p>
			<script>ignore()</script></body></html>`
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

		e, err := FromFile(path, IngestOptions{})
		require.NoError(t, err)
		assert.Contains(t, e.Text, "Percolation tanks")
		assert.Contains(t, e.Text, "Desilting")
		assert.NotContains(t, e.Text, "<p>")
		assert.NotContains(t, e.Text, "ignore()")
	})

	t.Run("explicit keywords come first", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "doc.txt")
		require.NoError(t, os.WriteFile(path, []byte("Borewell census data."), 0o644))

		e, err := FromFile(path, IngestOptions{Keywords: []string{"Census", "borewell"}})
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(e.Keywords), 2)
		assert.Equal(t, "census", e.Keywords[0])
		assert.Equal(t, "borewell", e.Keywords[1])
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := FromFile(filepath.Join(t.TempDir(), "absent.txt"), IngestOptions{})
		require.ErrorIs(t, err, ErrBadTarget)
	})

	t.Run("empty file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "empty.txt")
		require.NoError(t, os.WriteFile(path, nil, 0o644))
		_, err := FromFile(path, IngestOptions{})
		require.ErrorIs(t, err, ErrNoContent)
	})
}

func TestFromURL(t *testing.T) {
	t.Parallel()

	page := `<html><head><title>Water Budgeting Primer</title></head><body>
		<article>
		<p>Water budgeting compares village demand with available recharge. It is the
		first step of a participatory security plan and is repeated every season.</p>
		<p>Budgets feed crop planning so sowing decisions respect the groundwater
		balance rather than deplete it further.</p>
		</article></body></html>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/primer" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, page)
	}))
	defer srv.Close()

	t.Run("fetches and distills", func(t *testing.T) {
		e, err := FromURL(context.Background(), srv.URL+"/primer", IngestOptions{Year: 2023})
		require.NoError(t, err)

		u, err := url.Parse(srv.URL)
		require.NoError(t, err)
		assert.Equal(t, u.Host+"/primer", e.Source)
		assert.Contains(t, e.Text, "Water budgeting")
		assert.NotContains(t, e.Text, "<p>")
		assert.Contains(t, e.Keywords, "budgeting")
		assert.Equal(t, 2023, e.Year)
	})

	t.Run("cancelled context aborts", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := FromURL(ctx, srv.URL+"/primer", IngestOptions{})
		require.Error(t, err)
	})

	t.Run("http error status", func(t *testing.T) {
		_, err := FromURL(context.Background(), srv.URL+"/missing", IngestOptions{})
		require.Error(t, err)
	})

	t.Run("not a url", func(t *testing.T) {
		_, err := FromURL(context.Background(), "not a url", IngestOptions{})
		require.ErrorIs(t, err, ErrBadTarget)
	})

	t.Run("unsupported scheme", func(t *testing.T) {
		_, err := FromURL(context.Background(), "ftp://example.com/doc", IngestOptions{})
		require.ErrorIs(t, err, ErrBadTarget)
	})
}

func TestAppendToFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state", "corpus.yaml")
	first := Entry{Source: "a.txt", Year: 2024, Keywords: []string{"alpha"}, Text: "Alpha text."}
	second := Entry{Source: "b.txt", Keywords: []string{"beta"}, Text: "Beta text."}

	require.NoError(t, AppendToFile(path, first))
	require.NoError(t, AppendToFile(path, second))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4+2, c.Len())

	hits := c.Search("alpha", 1)
	require.Len(t, hits, 1)
	assert.Equal(t, "a.txt", hits[0].Source)
	assert.Equal(t, 2024, hits[0].Year)

	t.Run("corrupt existing file is an error", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "corpus.yaml")
		require.NoError(t, os.WriteFile(bad, []byte("entries: [oops"), 0o644))
		require.Error(t, AppendToFile(bad, first))
	})
}

func TestDeriveKeywords(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("recharge ", 5) + strings.Repeat("aquifer ", 3) +
		"the and 2022 2022 ok " + strings.Repeat("tank ", 4)
	got := deriveKeywords("Recharge Manual", text, []string{"manual"})

	require.NotEmpty(t, got)
	assert.Equal(t, "manual", got[0])
	assert.Contains(t, got, "recharge")
	assert.Contains(t, got, "aquifer")
	assert.Contains(t, got, "tank")
	assert.NotContains(t, got, "the")
	assert.NotContains(t, got, "and")
	assert.NotContains(t, got, "2022")
	assert.NotContains(t, got, "ok")

	t.Run("cap holds", func(t *testing.T) {
		long := ""
		for i := 0; i < 50; i++ {
			long += fmt.Sprintf("word%02d ", i)
		}
		got := deriveKeywords("", long, nil)
		assert.LessOrEqual(t, len(got), maxDerivedKeywords)
	})
}

func TestClip(t *testing.T) {
	t.Parallel()

	t.Run("short text unchanged", func(t *testing.T) {
		assert.Equal(t, "short.", clip("short."))
	})

	t.Run("long text cut at sentence end", func(t *testing.T) {
		sentence := strings.Repeat("x", 1000) + ". " + strings.Repeat("y", 1000)
		got := clip(sentence)
		assert.Equal(t, strings.Repeat("x", 1000)+".", got)
	})

	t.Run("no sentence end falls back to hard cut", func(t *testing.T) {
		got := clip(strings.Repeat("z", 4000))
		assert.Equal(t, maxEntryRunes, len([]rune(got)))
	})
}
