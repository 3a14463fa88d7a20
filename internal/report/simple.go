package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/pagerank/internal/model"
)

// SimpleWriter outputs plain text reports for terminal display.
//
// The ranking sections list every page in name order with four decimal
// places, one section per method, followed by a line comparing the two.
type SimpleWriter struct {
	baseWriter

	// showCorpus prefixes the output with the corpus directory. It is
	// useful when several corpora are written to the same stream.
	showCorpus bool

	// verbose adds run parameters and the unscaled iteration values.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithCorpusHeader prints the corpus directory before the results.
func WithCorpusHeader(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showCorpus = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report in plain text.
func (w *SimpleWriter) Write(report *model.RankReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)

	if len(report.Sampling) > 0 {
		sb.WriteString(fmt.Sprintf("PageRank Results from Sampling (n = %d)\n", report.Samples))
		writeRanking(&sb, report.Sampling)
		if w.verbose {
			sb.WriteString(fmt.Sprintf("  (seed %d)\n", report.Seed))
		}
		sb.WriteString("\n")
	}

	if len(report.Iteration) > 0 {
		sb.WriteString("PageRank Results from Iteration\n")
		writeRanking(&sb, report.Iteration)
		if w.verbose {
			sb.WriteString(fmt.Sprintf("  (converged after %d iterations, unscaled mass %.4f)\n",
				report.Iterations, report.IterationRaw.Sum()))
		}
		sb.WriteString("\n")
	}

	w.writeFooter(&sb, report)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the optional corpus line and any recorded error.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.RankReport) {
	if w.showCorpus {
		sb.WriteString(fmt.Sprintf("Corpus: %s\n", report.Corpus))
		if w.verbose {
			sb.WriteString(fmt.Sprintf("Pages: %d  Links: %d  Dangling: %d  Damping: %.2f\n",
				report.Pages, report.Links, len(report.Dangling), report.Damping))
		}
		sb.WriteString("\n")
	}
	if report.ErrorMessage != "" {
		sb.WriteString(fmt.Sprintf("Error: %s\n\n", report.ErrorMessage))
	}
}

// writeRanking writes one "  page: score" line per page in name order.
func writeRanking(sb *strings.Builder, ranking model.Ranking) {
	for _, page := range sortedPages(ranking) {
		sb.WriteString(fmt.Sprintf("  %s: %.4f\n", page, ranking[page]))
	}
}

// writeFooter writes the agreement between the two methods.
func (w *SimpleWriter) writeFooter(sb *strings.Builder, report *model.RankReport) {
	a := report.Agreement
	if a == nil {
		return
	}

	if a.Agrees() {
		sb.WriteString(fmt.Sprintf("Methods agree: largest difference %.4f (%s)\n", a.MaxDiff, a.Page))
		return
	}
	sb.WriteString(fmt.Sprintf("Methods DISAGREE: largest difference %.4f (%s) exceeds %g\n",
		a.MaxDiff, a.Page, a.Limit()))
}
