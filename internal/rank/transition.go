package rank

import (
	"fmt"

	"github.com/nao1215/pagerank/internal/graph"
)

// Transition returns the probability of visiting each page next when the
// surfer is on page.
//
// Linked pages receive (1-d)/N + d/L and all other pages (1-d)/N, where L
// is the number of links on page. A dangling page gives every page 1/N.
func Transition(g *graph.Graph, page string, damping float64) (Distribution, error) {
	if err := validate(g, damping); err != nil {
		return nil, err
	}
	i, ok := g.Index(page)
	if !ok {
		return nil, fmt.Errorf("%w: unknown page %q", ErrInvalidInput, page)
	}

	row := make([]float64, g.Len())
	transitionRow(g, i, damping, row)
	return fromSlice(g, row), nil
}

// transitionRow writes the transition probabilities out of page i into row,
// which must have one slot per page.
func transitionRow(g *graph.Graph, i int, damping float64, row []float64) {
	n := float64(g.Len())
	links := g.Out(i)

	if len(links) == 0 {
		for j := range row {
			row[j] = 1 / n
		}
		return
	}

	base := (1 - damping) / n
	for j := range row {
		row[j] = base
	}
	share := damping / float64(len(links))
	for _, j := range links {
		row[j] += share
	}
}
