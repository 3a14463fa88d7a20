package pipeline

import "errors"

// ErrNoGraph is returned by ranking steps that run before a crawl step has
// stored the link graph on the report.
var ErrNoGraph = errors.New("no link graph: run the crawl step first")
