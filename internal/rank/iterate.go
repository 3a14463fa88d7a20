package rank

import (
	"fmt"
	"math"

	"github.com/nao1215/pagerank/internal/graph"
)

const (
	// DefaultThreshold is the largest per-page change between two iterations
	// at which the ranks count as converged.
	DefaultThreshold = 0.001

	// DefaultMaxIterations caps Iterate. Small corpora converge in tens of
	// iterations; the cap only stops runaway loops.
	DefaultMaxIterations = 10000
)

// Result is the outcome of Iterate.
type Result struct {
	// Ranks is the converged fixed point rescaled to sum to one.
	Ranks Distribution

	// Raw is the converged fixed point as produced by the update rule.
	// It sums to less than one when the graph has dangling pages.
	Raw Distribution

	// Iterations is the number of synchronous updates performed.
	Iterations int

	// Delta is the largest per-page change in the final update.
	Delta float64
}

// iterateOptions holds the settings of a single Iterate call.
type iterateOptions struct {
	threshold     float64
	maxIterations int
}

// IterateOption configures Iterate.
type IterateOption func(*iterateOptions)

// WithThreshold sets the convergence threshold. It must be positive.
func WithThreshold(threshold float64) IterateOption {
	return func(o *iterateOptions) {
		o.threshold = threshold
	}
}

// WithMaxIterations sets the iteration cap. It must be at least one.
func WithMaxIterations(n int) IterateOption {
	return func(o *iterateOptions) {
		o.maxIterations = n
	}
}

// Solve returns the PageRank of every page by fixed-point iteration with
// the default threshold and cap. It is Iterate without the bookkeeping.
func Solve(g *graph.Graph, damping float64) (Distribution, error) {
	res, err := Iterate(g, damping)
	if err != nil {
		return nil, err
	}
	return res.Ranks, nil
}

// Iterate solves the PageRank equations by synchronous substitution.
//
// Every page starts at 1/N. Each iteration computes all new ranks from the
// previous iteration's ranks only, and the loop stops once no page changed
// by more than the threshold.
func Iterate(g *graph.Graph, damping float64, opts ...IterateOption) (*Result, error) {
	if err := validate(g, damping); err != nil {
		return nil, err
	}

	o := &iterateOptions{
		threshold:     DefaultThreshold,
		maxIterations: DefaultMaxIterations,
	}
	for _, opt := range opts {
		opt(o)
	}
	if !(o.threshold > 0) {
		return nil, fmt.Errorf("%w: threshold %v must be positive", ErrInvalidInput, o.threshold)
	}
	if o.maxIterations < 1 {
		return nil, fmt.Errorf("%w: iteration cap %d must be at least 1", ErrInvalidInput, o.maxIterations)
	}

	n := g.Len()
	base := (1 - damping) / float64(n)

	prev := make([]float64, n)
	next := make([]float64, n)
	for i := range prev {
		prev[i] = 1 / float64(n)
	}

	for iteration := 1; iteration <= o.maxIterations; iteration++ {
		delta := 0.0
		for p := range n {
			incoming := 0.0
			for _, q := range g.In(p) {
				incoming += prev[q] / float64(g.OutDegree(q))
			}
			next[p] = base + damping*incoming
			delta = math.Max(delta, math.Abs(next[p]-prev[p]))
		}

		if delta <= o.threshold {
			return newResult(g, next, iteration, delta), nil
		}
		prev, next = next, prev
	}

	return nil, fmt.Errorf("%w after %d iterations", ErrNotConverged, o.maxIterations)
}

// newResult packages the converged ranks.
func newResult(g *graph.Graph, ranks []float64, iterations int, delta float64) *Result {
	total := 0.0
	for _, r := range ranks {
		total += r
	}

	scaled := make([]float64, len(ranks))
	for i, r := range ranks {
		scaled[i] = r / total
	}

	return &Result{
		Ranks:      fromSlice(g, scaled),
		Raw:        fromSlice(g, ranks),
		Iterations: iterations,
		Delta:      delta,
	}
}
