package rank

import (
	"testing"

	"github.com/nao1215/pagerank/internal/graph"
)

// damping is the damping factor used throughout the tests.
const damping = 0.85

// mustGraph builds a graph or fails the test.
func mustGraph(t *testing.T, links map[string][]string) *graph.Graph {
	t.Helper()

	g, err := graph.New(links)
	if err != nil {
		t.Fatalf("failed to build graph: %v", err)
	}
	return g
}

// corpus0 returns a four page corpus without dangling pages.
func corpus0(t *testing.T) *graph.Graph {
	t.Helper()

	return mustGraph(t, map[string][]string{
		"1.html": {"2.html"},
		"2.html": {"1.html", "3.html"},
		"3.html": {"2.html", "4.html"},
		"4.html": {"2.html"},
	})
}

// danglingPair returns {"A": {}, "B": {"A"}}: A is dangling and only B links to A.
func danglingPair(t *testing.T) *graph.Graph {
	t.Helper()

	return mustGraph(t, map[string][]string{
		"A": {},
		"B": {"A"},
	})
}

// near reports whether a and b differ by at most tolerance.
func near(a, b, tolerance float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= tolerance
}
