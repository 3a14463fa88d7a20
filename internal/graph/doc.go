// Package graph defines the link graph of a closed document corpus.
//
// A Graph maps every page to the set of pages it links to. The graph is
// built once by New and is read-only afterwards, so it can be shared by
// the sampling and iterative rankers without copying.
//
// Invariants enforced by New:
//   - every link target is itself a page of the graph
//   - a page never links to itself
//   - each link appears at most once
//
// A page with no outbound links is a dangling page.
package graph
