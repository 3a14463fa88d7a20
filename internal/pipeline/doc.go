// Package pipeline provides a framework for executing ranking steps in
// sequence.
//
// A corpus is processed through several stages: crawling the directory into
// a link graph, estimating PageRank by random walk sampling, solving it by
// fixed-point iteration, and comparing the two results. Each stage is a Step
// that receives the current report and fills in its part.
//
// Steps can be added or removed without touching the core loop, and every
// step gets the same error handling, logging, cancellation and timing.
//
// The pipeline supports both single corpora and batch processing with
// concurrency control using errgroup.
package pipeline
