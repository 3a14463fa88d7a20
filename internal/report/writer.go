package report

import (
	"io"

	"github.com/nao1215/pagerank/internal/model"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Writer defines the interface for report output.
type Writer interface {
	// Write outputs the report to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(report *model.RankReport) (int, error)
}

// MultiWriter writes to multiple Writers in order.
// This is useful for outputting to both terminal and file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(report *model.RankReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// sortedPages returns the pages of r in display order.
// Digits compare by value, so 2.html comes before 10.html.
func sortedPages(r model.Ranking) []string {
	pages := r.Pages()
	collate.New(language.Und, collate.Numeric).SortStrings(pages)
	return pages
}
