package main

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/pagerank/internal/database"
	"github.com/nao1215/pagerank/internal/model"
)

// saveRun stores a run with the given iteration ranking.
func saveRun(t *testing.T, db *database.RankDB, corpus, fingerprint string, date time.Time, ranks model.Ranking) int64 {
	t.Helper()

	r := model.NewRankReport(corpus)
	r.DateRanked = date
	r.Fingerprint = fingerprint
	r.Pages = len(ranks)
	r.Damping = 0.85
	r.Iteration = ranks

	id, err := db.Save(context.Background(), r)
	if err != nil {
		t.Fatalf("failed to save run: %v", err)
	}
	return id
}

// historyDB holds three runs of corpus; the last one adds c.html and
// changes the graph.
type historyDB struct {
	db     *database.RankDB
	dir    string
	corpus string
	ids    []int64
}

func newHistoryDB(t *testing.T) *historyDB {
	t.Helper()

	dir := t.TempDir()
	db, err := database.Open(dir, database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	h := &historyDB{db: db, dir: dir, corpus: t.TempDir()}
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	h.ids = []int64{
		saveRun(t, db, h.corpus, "abc", base, model.Ranking{"a.html": 0.5, "b.html": 0.5}),
		saveRun(t, db, h.corpus, "abc", base.Add(time.Hour), model.Ranking{"a.html": 0.6, "b.html": 0.4}),
		saveRun(t, db, h.corpus, "def", base.Add(2*time.Hour), model.Ranking{"a.html": 0.7, "b.html": 0.2, "c.html": 0.1}),
	}
	return h
}

func TestNewHistoryCmd(t *testing.T) {
	t.Parallel()

	cmd := NewHistoryCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "history [corpus-dir]" {
			t.Errorf("unexpected Use: got %q", cmd.Use)
		}
	})

	t.Run("accepts maximum 1 argument", func(t *testing.T) {
		t.Parallel()
		if err := cmd.Args(cmd, []string{"a", "b"}); err == nil {
			t.Error("expected error for two arguments")
		}
	})

	t.Run("flags have expected shorthands", func(t *testing.T) {
		t.Parallel()
		flagsWithShort := map[string]string{
			"list":         "l",
			"list-corpora": "L",
			"with-run-id":  "i",
			"json":         "j",
			"markdown":     "m",
		}
		for flag, shorthand := range flagsWithShort {
			f := cmd.Flags().Lookup(flag)
			if f == nil {
				t.Errorf("expected flag %q to exist", flag)
				continue
			}
			if f.Shorthand != shorthand {
				t.Errorf("flag %q: expected shorthand %q, got %q", flag, shorthand, f.Shorthand)
			}
		}
		if cmd.Flags().Lookup("db-dir") == nil {
			t.Error("expected db-dir flag")
		}
	})
}

func TestCompareRankings(t *testing.T) {
	t.Parallel()

	previous := model.Ranking{"a.html": 0.5, "b.html": 0.3, "c.html": 0.2}
	current := model.Ranking{"a.html": 0.4, "b.html": 0.35, "d.html": 0.25}

	result := compareRankings(previous, current)

	if len(result.Changes) != 2 {
		t.Fatalf("expected 2 changes, got %d", len(result.Changes))
	}
	if result.Changes[0].Page != "a.html" || result.Changes[1].Page != "b.html" {
		t.Errorf("expected largest change first, got %+v", result.Changes)
	}
	if d := result.Changes[0].Delta; d > -0.0999 || d < -0.1001 {
		t.Errorf("expected delta -0.1 for a.html, got %v", d)
	}
	if len(result.Added) != 1 || result.Added[0] != "d.html" {
		t.Errorf("expected d.html added, got %v", result.Added)
	}
	if len(result.Removed) != 1 || result.Removed[0] != "c.html" {
		t.Errorf("expected c.html removed, got %v", result.Removed)
	}
}

func TestFormatDelta(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		delta float64
		want  string
	}{
		{name: "positive change has plus sign", delta: 0.0011, want: "+0.0011"},
		{name: "negative change has minus sign", delta: -0.0011, want: "-0.0011"},
		{name: "zero has no sign", delta: 0, want: "0.0000"},
		{name: "tiny negative change rounds to unsigned zero", delta: -0.00001, want: "0.0000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := formatDelta(tt.delta); got != tt.want {
				t.Errorf("formatDelta(%v) = %q, want %q", tt.delta, got, tt.want)
			}
		})
	}
}

func TestRunComparison(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("compares the latest two runs", func(t *testing.T) {
		t.Parallel()

		h := newHistoryDB(t)
		result, err := runComparison(ctx, h.db, h.corpus, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if result.PreviousRun.ID != h.ids[1] || result.CurrentRun.ID != h.ids[2] {
			t.Errorf("expected runs %d and %d, got %d and %d",
				h.ids[1], h.ids[2], result.PreviousRun.ID, result.CurrentRun.ID)
		}
		if result.SameGraph {
			t.Error("expected graph change to be detected")
		}
		if len(result.Added) != 1 || result.Added[0] != "c.html" {
			t.Errorf("expected c.html added, got %v", result.Added)
		}
		if result.CurrentRun.TopPage != "a.html" {
			t.Errorf("expected top page a.html, got %q", result.CurrentRun.TopPage)
		}
	})

	t.Run("compares with a chosen run", func(t *testing.T) {
		t.Parallel()

		h := newHistoryDB(t)
		result, err := runComparison(ctx, h.db, h.corpus, h.ids[0])
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.PreviousRun.ID != h.ids[0] {
			t.Errorf("expected previous run %d, got %d", h.ids[0], result.PreviousRun.ID)
		}
		if result.Changes[0].Page != "b.html" {
			t.Errorf("expected b.html to change most, got %+v", result.Changes)
		}
	})

	t.Run("fails with fewer than two runs", func(t *testing.T) {
		t.Parallel()

		h := newHistoryDB(t)
		other := t.TempDir()
		saveRun(t, h.db, other, "abc", time.Now(), model.Ranking{"a.html": 1})

		_, err := runComparison(ctx, h.db, other, 0)
		if err == nil || !strings.Contains(err.Error(), "at least 2 runs") {
			t.Errorf("expected 'at least 2 runs' error, got %v", err)
		}
	})

	t.Run("fails without history", func(t *testing.T) {
		t.Parallel()

		h := newHistoryDB(t)
		_, err := runComparison(ctx, h.db, "/never/ranked", 0)
		if err == nil || !strings.Contains(err.Error(), "no run history") {
			t.Errorf("expected 'no run history' error, got %v", err)
		}
	})

	t.Run("rejects the latest run as comparison target", func(t *testing.T) {
		t.Parallel()

		h := newHistoryDB(t)
		if _, err := runComparison(ctx, h.db, h.corpus, h.ids[2]); err == nil {
			t.Error("expected error when comparing the latest run with itself")
		}
	})

	t.Run("rejects a run of another corpus", func(t *testing.T) {
		t.Parallel()

		h := newHistoryDB(t)
		otherID := saveRun(t, h.db, "/other", "abc", time.Now(), model.Ranking{"a.html": 1})

		_, err := runComparison(ctx, h.db, h.corpus, otherID)
		if err == nil || !strings.Contains(err.Error(), "belongs to /other") {
			t.Errorf("expected 'belongs to' error, got %v", err)
		}
	})

	t.Run("rejects an unknown run", func(t *testing.T) {
		t.Parallel()

		h := newHistoryDB(t)
		_, err := runComparison(ctx, h.db, h.corpus, 9999)
		if err == nil || !strings.Contains(err.Error(), "not found") {
			t.Errorf("expected 'not found' error, got %v", err)
		}
	})
}

// closedHistoryDB returns a populated database directory that is no longer
// held open by the test.
func closedHistoryDB(t *testing.T) *historyDB {
	t.Helper()

	h := newHistoryDB(t)
	if err := h.db.Close(); err != nil {
		t.Fatalf("failed to close database: %v", err)
	}
	return h
}

func TestRunHistoryCmd(t *testing.T) {
	t.Parallel()

	t.Run("prints text comparison", func(t *testing.T) {
		t.Parallel()

		h := closedHistoryDB(t)
		out, err := executeRoot(t, "history", "--db-dir", h.dir, h.corpus)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{"Run Comparison: " + h.corpus, "Link graph:   CHANGED", "b.html", "-0.2000", "[+] c.html"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, out)
			}
		}
	})

	t.Run("prints JSON comparison", func(t *testing.T) {
		t.Parallel()

		h := closedHistoryDB(t)
		out, err := executeRoot(t, "history", "-j", "--db-dir", h.dir, h.corpus)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var result ComparisonResult
		if err := json.Unmarshal([]byte(out), &result); err != nil {
			t.Fatalf("output is not JSON: %v\n%s", err, out)
		}
		if result.Corpus != h.corpus {
			t.Errorf("expected corpus %q, got %q", h.corpus, result.Corpus)
		}
		if len(result.Changes) != 2 {
			t.Errorf("expected 2 changes, got %d", len(result.Changes))
		}
	})

	t.Run("prints Markdown comparison", func(t *testing.T) {
		t.Parallel()

		h := closedHistoryDB(t)
		out, err := executeRoot(t, "history", "-m", "--db-dir", h.dir, h.corpus)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{"# Run Comparison", "## Rank Changes", "## Added Pages (1)", "`a.html`"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, out)
			}
		}
	})

	t.Run("lists runs of a corpus", func(t *testing.T) {
		t.Parallel()

		h := closedHistoryDB(t)
		out, err := executeRoot(t, "history", "-l", "--db-dir", h.dir, h.corpus)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "(3 runs)") {
			t.Errorf("expected 3 runs listed, got:\n%s", out)
		}
	})

	t.Run("lists corpora", func(t *testing.T) {
		t.Parallel()

		h := closedHistoryDB(t)
		out, err := executeRoot(t, "history", "-L", "--db-dir", h.dir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "Ranked corpora (1)") || !strings.Contains(out, h.corpus) {
			t.Errorf("expected corpus listed, got:\n%s", out)
		}
	})

	t.Run("requires a corpus", func(t *testing.T) {
		t.Parallel()

		_, err := executeRoot(t, "history", "--db-dir", t.TempDir())
		if err == nil || !strings.Contains(err.Error(), "corpus directory is required") {
			t.Errorf("expected missing corpus error, got %v", err)
		}
	})

	t.Run("rejects conflicting formats", func(t *testing.T) {
		t.Parallel()

		_, err := executeRoot(t, "history", "-j", "-m", "--db-dir", t.TempDir(), t.TempDir())
		if err == nil || !strings.Contains(err.Error(), "conflicting report formats") {
			t.Errorf("expected conflicting formats error, got %v", err)
		}
	})

	t.Run("compares runs stored by rank", func(t *testing.T) {
		t.Parallel()

		corpus := fourPages(t)
		dbDir := t.TempDir()
		cfgPath := writeEmptyConfig(t)
		for range 2 {
			if _, err := executeRoot(t, "rank", "--db-dir", dbDir, "-n", "2000", "-c", cfgPath, corpus); err != nil {
				t.Fatalf("rank failed: %v", err)
			}
		}

		out, err := executeRoot(t, "history", "--db-dir", dbDir, corpus)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "Link graph:   unchanged") {
			t.Errorf("expected unchanged graph, got:\n%s", out)
		}
		// Iteration is deterministic, so no page moves.
		if !strings.Contains(out, "2.html") || strings.Contains(out, "+0.") || strings.Contains(out, "-0.") {
			t.Errorf("expected identical iteration ranks, got:\n%s", out)
		}
	})
}
