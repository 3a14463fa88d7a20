package model

import (
	"cmp"
	"maps"
	"math"
	"slices"
)

// Ranking maps every page of a corpus to its score under one ranking method.
type Ranking map[string]float64

// Score is a single page and its score.
type Score struct {
	Page  string  `json:"page"`
	Score float64 `json:"score"`
}

// Sorted returns the scores ordered by score descending, ties by page name.
func (r Ranking) Sorted() []Score {
	scores := make([]Score, 0, len(r))
	for page, score := range r {
		scores = append(scores, Score{Page: page, Score: score})
	}
	slices.SortFunc(scores, func(a, b Score) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Page, b.Page)
	})
	return scores
}

// Pages returns the page names in byte order.
func (r Ranking) Pages() []string {
	return slices.Sorted(maps.Keys(r))
}

// Sum returns the total score, added in page name order so that the result
// does not depend on map iteration order.
func (r Ranking) Sum() float64 {
	total := 0.0
	for _, page := range r.Pages() {
		total += r[page]
	}
	return total
}

// Top returns the highest scoring page. It returns false for an empty ranking.
func (r Ranking) Top() (Score, bool) {
	if len(r) == 0 {
		return Score{}, false
	}
	return r.Sorted()[0], true
}

// Agreement describes how closely two rankings of the same corpus match.
type Agreement struct {
	// MaxDiff is the largest absolute score difference of any page.
	MaxDiff float64 `json:"max_diff"`

	// Page is the page where MaxDiff occurs. Ties go to the first page
	// in name order.
	Page string `json:"page,omitempty"`

	// Tolerance is the largest MaxDiff the run accepted as agreement.
	// Zero means DefaultAgreementTolerance.
	Tolerance float64 `json:"tolerance,omitempty"`
}

// DefaultAgreementTolerance is the largest MaxDiff at which two rankings
// are reported as agreeing.
const DefaultAgreementTolerance = 0.05

// Within reports whether the rankings agree to within tolerance.
func (a Agreement) Within(tolerance float64) bool {
	return a.MaxDiff <= tolerance
}

// Limit returns the tolerance the agreement is judged against.
func (a Agreement) Limit() float64 {
	if a.Tolerance > 0 {
		return a.Tolerance
	}
	return DefaultAgreementTolerance
}

// Agrees reports whether MaxDiff is within Limit.
func (a Agreement) Agrees() bool {
	return a.Within(a.Limit())
}

// Compare returns the agreement between a and b. Pages missing from one side
// count as zero.
func Compare(a, b Ranking) Agreement {
	pages := slices.Sorted(maps.Keys(a))
	for page := range b {
		if _, ok := a[page]; !ok {
			pages = append(pages, page)
		}
	}
	slices.Sort(pages)

	var agreement Agreement
	for _, page := range pages {
		diff := math.Abs(a[page] - b[page])
		if diff > agreement.MaxDiff {
			agreement = Agreement{MaxDiff: diff, Page: page}
		}
	}
	return agreement
}
