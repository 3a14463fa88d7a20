// Package main provides the entry point for the pagerank CLI.
//
// pagerank ranks the pages of a directory of HTML files by importance,
// estimating PageRank both by random walk sampling and by fixed-point
// iteration.
//
// Usage:
//
//	pagerank rank <corpus-dir>...
//	pagerank history <corpus-dir>
//
// See --help for all available options.
package main

// main is the entry point for pagerank.
func main() {
	Execute()
}
