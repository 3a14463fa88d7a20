// Package crawler turns a directory of HTML files into a link graph.
//
// # Architecture
//
// The Crawler lists one directory (no recursion), keeps the files whose
// extension is configured, and parses them concurrently with a bounded
// errgroup. Each document is parsed by a Parser that walks the DOM and
// collects the title and every <a href> that names a sibling file.
//
// Links are then filtered so that the resulting graph is closed: a page
// only links to other pages of the same corpus, never to itself.
//
// # Components
//
//   - Crawler: Lists, parses and assembles a Corpus
//   - Parser: HTML parser that extracts the title and local links
//   - Corpus: The link graph plus per-document metadata
//
// # Usage
//
//	corpus, err := crawler.Crawl(ctx, "corpus0", crawler.WithWorkers(4))
//	ranks, err := rank.Solve(corpus.Graph, 0.85)
package crawler
