package rank

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/nao1215/pagerank/internal/graph"
)

// sampleOptions holds the settings of a single Estimate call.
type sampleOptions struct {
	rng *rand.Rand
}

// SampleOption configures Estimate.
type SampleOption func(*sampleOptions)

// WithRand makes Estimate draw from r. A nil r is ignored.
func WithRand(r *rand.Rand) SampleOption {
	return func(o *sampleOptions) {
		if r != nil {
			o.rng = r
		}
	}
}

// WithSeed makes Estimate draw from a PCG source seeded with seed, so the
// same graph, damping factor, sample count and seed give the same result.
func WithSeed(seed uint64) SampleOption {
	return func(o *sampleOptions) {
		o.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// Estimate approximates PageRank with a random walk of samples pages.
//
// The walk starts on a uniformly chosen page. Each of the following
// samples-1 steps computes the transition distribution of the current
// page, adds it to a running sum and moves to a page drawn from it. The
// result is that sum divided by samples-1, so a budget of one sample
// yields all zeros.
func Estimate(g *graph.Graph, damping float64, samples int, opts ...SampleOption) (Distribution, error) {
	if err := validate(g, damping); err != nil {
		return nil, err
	}
	if samples < 1 {
		return nil, fmt.Errorf("%w: sample count %d must be at least 1", ErrInvalidInput, samples)
	}

	o := &sampleOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.rng == nil {
		o.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	n := g.Len()
	sum := make([]float64, n)
	if samples == 1 {
		return fromSlice(g, sum), nil
	}

	w := newWalker(g, damping)
	current := o.rng.IntN(n)
	for range samples - 1 {
		step := w.step(current)
		for j, p := range step.prob {
			sum[j] += p
		}
		current = step.pick(o.rng)
	}

	steps := float64(samples - 1)
	for j := range sum {
		sum[j] /= steps
	}
	return fromSlice(g, sum), nil
}

// transitionStep is the transition distribution out of one page together
// with its running totals for weighted selection.
type transitionStep struct {
	prob []float64
	cum  []float64
}

// pick draws a page index with probability proportional to its weight.
func (s *transitionStep) pick(rng *rand.Rand) int {
	total := s.cum[len(s.cum)-1]
	u := rng.Float64() * total
	// First index whose running total exceeds u.
	i, found := slices.BinarySearch(s.cum, u)
	if found {
		i++
	}
	return min(i, len(s.cum)-1)
}

// walker memoises transition steps per page for the duration of one walk.
// The transition model is a pure function of the graph, so reusing a step
// does not change the result.
type walker struct {
	g       *graph.Graph
	damping float64
	steps   []*transitionStep
}

func newWalker(g *graph.Graph, damping float64) *walker {
	return &walker{
		g:       g,
		damping: damping,
		steps:   make([]*transitionStep, g.Len()),
	}
}

// step returns the transition step out of page i.
func (w *walker) step(i int) *transitionStep {
	if s := w.steps[i]; s != nil {
		return s
	}

	n := w.g.Len()
	s := &transitionStep{
		prob: make([]float64, n),
		cum:  make([]float64, n),
	}
	transitionRow(w.g, i, w.damping, s.prob)
	total := 0.0
	for j, p := range s.prob {
		total += p
		s.cum[j] = total
	}

	w.steps[i] = s
	return s
}
