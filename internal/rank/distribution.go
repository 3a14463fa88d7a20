package rank

import (
	"maps"
	"slices"

	"github.com/nao1215/pagerank/internal/graph"
)

// Distribution maps each page to a probability.
type Distribution map[string]float64

// Sum returns the total probability mass.
func (d Distribution) Sum() float64 {
	total := 0.0
	for _, page := range d.Pages() {
		total += d[page]
	}
	return total
}

// Pages returns the pages of the distribution in ascending order.
func (d Distribution) Pages() []string {
	return slices.Sorted(maps.Keys(d))
}

// fromSlice converts index-ordered values into a Distribution.
func fromSlice(g *graph.Graph, values []float64) Distribution {
	d := make(Distribution, len(values))
	for i, v := range values {
		d[g.Page(i)] = v
	}
	return d
}
