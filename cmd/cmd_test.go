package cmd

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bhujal-ai/bhujal/internal/log"
	"github.com/bhujal-ai/bhujal/internal/store"
)

func TestRunHelp(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	runHelp(&buf)
	out := buf.String()

	for _, want := range []string{
		"bhujal ask",
		"bhujal serve",
		"bhujal mcp",
		"bhujal load",
		"bhujal ingest",
		"/clear",
		"OPENAI_API_KEY",
		"DATABASE_URL",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("help output missing %q", want)
		}
	}
}

func TestRunVersion(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	runVersion(&buf)
	out := buf.String()

	for _, want := range []string{"Bhujal " + Version, "Build:", "Commit:"} {
		if !strings.Contains(out, want) {
			t.Errorf("version output missing %q", want)
		}
	}
}

func TestExecuteUnknownCommand(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()
	os.Args = []string{"bhujal", "frobnicate"}

	err := Execute()
	if err == nil || !strings.Contains(err.Error(), "unknown command: frobnicate") {
		t.Fatalf("Execute() = %v, want unknown command error", err)
	}
}

func TestExecuteVersion(t *testing.T) {
	oldArgs := os.Args
	oldStdout := os.Stdout
	defer func() {
		os.Args = oldArgs
		os.Stdout = oldStdout
	}()

	os.Args = []string{"bhujal", "--version"}
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe() unexpected error: %v", err)
	}
	os.Stdout = w

	execErr := Execute()

	w.Close()
	os.Stdout = oldStdout
	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)

	if execErr != nil {
		t.Fatalf("Execute() unexpected error: %v", execErr)
	}
	if !strings.Contains(buf.String(), "Bhujal "+Version) {
		t.Errorf("version output = %q, want it to contain %q", buf.String(), "Bhujal "+Version)
	}
}

func TestRunAskRequiresQuestion(t *testing.T) {
	t.Parallel()

	for _, args := range [][]string{nil, {}, {"--json"}, {"   "}} {
		err := runAsk(args, io.Discard)
		if err == nil || !strings.Contains(err.Error(), "usage: bhujal ask") {
			t.Errorf("runAsk(%v) = %v, want usage error", args, err)
		}
	}
}

// TestRunAskOneShot runs the full one-shot path against a throwaway
// home directory: config defaults, seeded SQLite store, deterministic
// composer, JSON output.
func TestRunAskOneShot(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("BHUJAL_FALLBACK_ONLY", "true")

	var buf bytes.Buffer
	if err := runAsk([]string{"--json", "What", "does", "over-exploited", "mean?"}, &buf); err != nil {
		t.Fatalf("runAsk() unexpected error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		`"intent": "definition"`,
		`"language": "en"`,
		`"composed_by": "template"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("answer JSON missing %q\nGot: %s", want, out)
		}
	}
}

func TestRunLoadRequiresPath(t *testing.T) {
	t.Parallel()

	for _, args := range [][]string{nil, {}, {"-x"}, {"a.csv", "b.csv"}} {
		err := runLoad(args, io.Discard)
		if err == nil || !strings.Contains(err.Error(), "usage: bhujal load") {
			t.Errorf("runLoad(%v) = %v, want usage error", args, err)
		}
	}
}

// TestRunLoadRoundTrip loads a small CSV through the real command path
// and verifies the rows replaced the seed data.
func TestRunLoadRoundTrip(t *testing.T) {
	home := t.TempDir()
	dbPath := filepath.Join(home, "bhujal.db")
	t.Setenv("HOME", home)
	t.Setenv("BHUJAL_DB_PATH", dbPath)

	csvPath := filepath.Join(home, "readings.csv")
	csv := "state,district,block,year,level_m,stage\n" +
		"Uttarakhand,Dehradun,Doiwala,2021,10.4,Safe\n" +
		"Uttarakhand,Dehradun,Doiwala,2022,11.1,Semi-critical\n"
	if err := os.WriteFile(csvPath, []byte(csv), 0o600); err != nil {
		t.Fatalf("writing CSV fixture: %v", err)
	}

	var buf bytes.Buffer
	if err := runLoad([]string{csvPath}, &buf); err != nil {
		t.Fatalf("runLoad() unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "Loaded 2 readings") {
		t.Errorf("load output = %q, want loaded-count line", buf.String())
	}

	s, err := store.OpenSQLite(dbPath, log.NewNop())
	if err != nil {
		t.Fatalf("reopening store: %v", err)
	}
	defer s.Close()

	n, err := s.Count(t.Context())
	if err != nil {
		t.Fatalf("Count() unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("Count() = %d, want 2", n)
	}
}

func TestRunIngestRequiresTargets(t *testing.T) {
	t.Parallel()

	err := runIngest(nil, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "usage: bhujal ingest") {
		t.Fatalf("runIngest(nil) = %v, want usage error", err)
	}
}

// TestRunIngestFile ingests a local document end to end and checks the
// corpus file gained a searchable entry.
func TestRunIngestFile(t *testing.T) {
	home := t.TempDir()
	corpusPath := filepath.Join(home, "corpus.yaml")
	t.Setenv("HOME", home)
	t.Setenv("BHUJAL_CORPUS_PATH", corpusPath)

	docPath := filepath.Join(home, "note.txt")
	doc := "Groundwater recharge in the Doon valley depends on monsoon intensity " +
		"and the share of assessment units kept below critical extraction."
	if err := os.WriteFile(docPath, []byte(doc), 0o600); err != nil {
		t.Fatalf("writing document fixture: %v", err)
	}

	var buf bytes.Buffer
	if err := runIngest([]string{"--keywords", "recharge,doon", docPath}, &buf); err != nil {
		t.Fatalf("runIngest() unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "Ingested") {
		t.Errorf("ingest output = %q, want Ingested line", buf.String())
	}

	data, err := os.ReadFile(corpusPath)
	if err != nil {
		t.Fatalf("reading corpus file: %v", err)
	}
	for _, want := range []string{"recharge", "monsoon"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("corpus file missing %q", want)
		}
	}
}

func TestRunIngestRequiresCorpusPath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("BHUJAL_CORPUS_PATH", "")

	err := runIngest([]string{"somefile.txt"}, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "corpus_path") {
		t.Fatalf("runIngest() = %v, want corpus_path error", err)
	}
}

func TestSplitKeywords(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "empty", input: "", want: nil},
		{name: "blank", input: "  ", want: nil},
		{name: "pair", input: "aquifer,recharge", want: []string{"aquifer", "recharge"}},
		{name: "messy", input: " aquifer , ,recharge ,", want: []string{"aquifer", "recharge"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := splitKeywords(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("splitKeywords(%q) = %v, want %v", tt.input, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("splitKeywords(%q)[%d] = %q, want %q", tt.input, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestIsURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		target string
		want   bool
	}{
		{"https://cgwb.gov.in/report", true},
		{"http://example.org", true},
		{"./notes.txt", false},
		{"/abs/path.html", false},
		{"ftp://example.org", false},
	}

	for _, tt := range tests {
		if got := isURL(tt.target); got != tt.want {
			t.Errorf("isURL(%q) = %v, want %v", tt.target, got, tt.want)
		}
	}
}
