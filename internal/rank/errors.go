package rank

import (
	"errors"
	"fmt"

	"github.com/nao1215/pagerank/internal/graph"
)

// ErrInvalidInput is returned for an empty graph, an unknown page, a damping
// factor outside (0,1) or a bad sample budget. It wraps
// graph.ErrInvalidInput so either sentinel matches with errors.Is.
var ErrInvalidInput = fmt.Errorf("rank: %w", graph.ErrInvalidInput)

// ErrNotConverged is returned when Iterate reaches its iteration cap before
// the ranks settle. Well-formed graphs converge long before the default cap.
var ErrNotConverged = errors.New("rank: iteration did not converge")

// validate checks the preconditions shared by every entry point.
func validate(g *graph.Graph, damping float64) error {
	if g == nil || g.Len() == 0 {
		return fmt.Errorf("%w: graph has no pages", ErrInvalidInput)
	}
	// Written as a negated range check so NaN is rejected too.
	if !(damping > 0 && damping < 1) {
		return fmt.Errorf("%w: damping factor %v outside (0,1)", ErrInvalidInput, damping)
	}
	return nil
}
