package model

import (
	"time"

	"github.com/nao1215/pagerank/internal/graph"
)

// RankReport is the result of ranking one corpus.
// Pipeline steps fill it in as they run.
type RankReport struct {
	// === Corpus ===

	// Corpus is the directory that was ranked.
	Corpus string `json:"corpus"`

	// Fingerprint identifies the link structure of the corpus.
	// Two runs with the same fingerprint ranked the same graph.
	Fingerprint string `json:"fingerprint,omitempty"`

	// DateRanked is when the run started.
	DateRanked time.Time `json:"date_ranked"`

	// Graph is the link graph built by the crawl step.
	Graph *graph.Graph `json:"-"`

	// Documents describes every file of the corpus in name order.
	Documents []Document `json:"documents,omitempty"`

	// Pages is the number of pages in the corpus.
	Pages int `json:"pages"`

	// Links is the number of distinct links between pages.
	Links int `json:"links"`

	// Dangling lists the pages without outbound links.
	Dangling []string `json:"dangling,omitempty"`

	// === Parameters ===

	// Damping is the damping factor both methods used.
	Damping float64 `json:"damping"`

	// Samples is the number of random walk samples.
	Samples int `json:"samples"`

	// Seed is the random walk seed used for the run.
	Seed uint64 `json:"seed,omitempty"`

	// === Results ===

	// Sampling is the ranking estimated by the random walk.
	Sampling Ranking `json:"sampling,omitempty"`

	// Iteration is the ranking computed by fixed-point iteration,
	// rescaled to sum to one.
	Iteration Ranking `json:"iteration,omitempty"`

	// IterationRaw is the unscaled fixed point. It sums to less than one
	// when the corpus has dangling pages.
	IterationRaw Ranking `json:"iteration_raw,omitempty"`

	// Iterations is the number of updates the solver needed.
	Iterations int `json:"iterations,omitempty"`

	// Agreement compares Sampling against Iteration.
	Agreement *Agreement `json:"agreement,omitempty"`

	// === Run State ===

	// PerformedSteps lists the pipeline steps that completed.
	PerformedSteps []string `json:"performed_steps,omitempty"`

	// Error contains any error that stopped the run.
	Error error `json:"-"`

	// ErrorMessage is the string form of Error for serialization.
	ErrorMessage string `json:"error,omitempty"` //nolint:tagliatelle // error is conventional
}

// NewRankReport creates a report for the given corpus directory.
func NewRankReport(corpus string) *RankReport {
	return &RankReport{
		Corpus:     corpus,
		DateRanked: time.Now(),
	}
}

// SetGraph records g and the statistics derived from it.
func (r *RankReport) SetGraph(g *graph.Graph) {
	r.Graph = g
	r.Pages = g.Len()
	r.Links = g.LinkCount()
	r.Fingerprint = g.Fingerprint()
	r.Dangling = g.Dangling()
}

// SetError records err on the report. The first error wins, since later
// steps usually fail only because an earlier one did.
func (r *RankReport) SetError(err error) {
	if err == nil || r.Error != nil {
		return
	}
	r.Error = err
	r.ErrorMessage = err.Error()
}

// MarkPerformed appends step to PerformedSteps.
func (r *RankReport) MarkPerformed(step string) {
	r.PerformedSteps = append(r.PerformedSteps, step)
}

// HasResults reports whether at least one ranking method produced scores.
func (r *RankReport) HasResults() bool {
	return len(r.Sampling) > 0 || len(r.Iteration) > 0
}

// Document returns the document with the given name.
// Returns nil if the corpus has no such file.
func (r *RankReport) Document(name string) *Document {
	for i := range r.Documents {
		if r.Documents[i].Name == name {
			return &r.Documents[i]
		}
	}
	return nil
}
