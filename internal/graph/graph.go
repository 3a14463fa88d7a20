package graph

import (
	"encoding/hex"
	"fmt"
	"slices"

	"golang.org/x/crypto/sha3"
)

// Graph is an immutable directed link graph over named pages.
//
// Pages are kept in sorted order and addressed either by name or by their
// index in that order. Index-based accessors exist for the rankers, which
// walk the graph many times and should not pay for map lookups.
type Graph struct {
	// pages holds page names in ascending order.
	pages []string

	// index maps a page name to its position in pages.
	index map[string]int

	// out holds, per page index, the sorted indices of linked pages.
	out [][]int

	// in holds, per page index, the sorted indices of pages linking to it.
	in [][]int
}

// New builds a Graph from an adjacency mapping of page to linked pages.
//
// Every key is a page, including pages with no links. Self links and
// duplicate links are dropped. A link to a page that is not a key of
// links makes New fail with ErrInvalidInput and ErrUnknownTarget.
func New(links map[string][]string) (*Graph, error) {
	pages := make([]string, 0, len(links))
	for page := range links {
		if page == "" {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, ErrEmptyPage)
		}
		pages = append(pages, page)
	}
	slices.Sort(pages)

	g := &Graph{
		pages: pages,
		index: make(map[string]int, len(pages)),
		out:   make([][]int, len(pages)),
		in:    make([][]int, len(pages)),
	}
	for i, page := range pages {
		g.index[page] = i
	}

	for i, page := range pages {
		targets := make([]int, 0, len(links[page]))
		for _, target := range links[page] {
			j, ok := g.index[target]
			if !ok {
				return nil, fmt.Errorf("%w: %w: %q links to %q", ErrInvalidInput, ErrUnknownTarget, page, target)
			}
			if j == i {
				continue
			}
			targets = append(targets, j)
		}
		slices.Sort(targets)
		g.out[i] = slices.Compact(targets)
	}

	for i, targets := range g.out {
		for _, j := range targets {
			g.in[j] = append(g.in[j], i)
		}
	}

	return g, nil
}

// Len returns the number of pages.
func (g *Graph) Len() int {
	return len(g.pages)
}

// Pages returns the page names in ascending order.
func (g *Graph) Pages() []string {
	return slices.Clone(g.pages)
}

// Page returns the name of the page at index i.
func (g *Graph) Page(i int) string {
	return g.pages[i]
}

// Index returns the index of page and whether the page exists.
func (g *Graph) Index(page string) (int, bool) {
	i, ok := g.index[page]
	return i, ok
}

// Links returns the pages linked from page in ascending order.
// It returns nil for an unknown page.
func (g *Graph) Links(page string) []string {
	i, ok := g.index[page]
	if !ok {
		return nil
	}
	links := make([]string, len(g.out[i]))
	for k, j := range g.out[i] {
		links[k] = g.pages[j]
	}
	return links
}

// Out returns the indices of pages linked from the page at index i.
// The returned slice is shared and must not be modified.
func (g *Graph) Out(i int) []int {
	return g.out[i]
}

// In returns the indices of pages linking to the page at index i.
// The returned slice is shared and must not be modified.
func (g *Graph) In(i int) []int {
	return g.in[i]
}

// OutDegree returns the number of outbound links of the page at index i.
func (g *Graph) OutDegree(i int) int {
	return len(g.out[i])
}

// Dangling returns the pages without outbound links in ascending order.
func (g *Graph) Dangling() []string {
	var dangling []string
	for i, targets := range g.out {
		if len(targets) == 0 {
			dangling = append(dangling, g.pages[i])
		}
	}
	return dangling
}

// LinkCount returns the total number of links in the graph.
func (g *Graph) LinkCount() int {
	n := 0
	for _, targets := range g.out {
		n += len(targets)
	}
	return n
}

// Adjacency returns a fresh copy of the graph as page to sorted links.
// Dangling pages map to an empty, non-nil slice so they survive JSON
// encoding.
func (g *Graph) Adjacency() map[string][]string {
	adj := make(map[string][]string, len(g.pages))
	for _, page := range g.pages {
		links := g.Links(page)
		if links == nil {
			links = []string{}
		}
		adj[page] = links
	}
	return adj
}

// Fingerprint returns a SHA3-256 digest of the graph structure in hex.
// Two graphs with the same pages and links have the same fingerprint
// regardless of how their adjacency was ordered when built.
func (g *Graph) Fingerprint() string {
	h := sha3.New256()
	for i, page := range g.pages {
		h.Write([]byte(page))
		h.Write([]byte{0})
		for _, j := range g.out[i] {
			h.Write([]byte(g.pages[j]))
			h.Write([]byte{0})
		}
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
