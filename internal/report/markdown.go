package report

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/pagerank/internal/model"
)

// fingerprintWidth is how many fingerprint characters the summary shows.
const fingerprintWidth = 12

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.RankReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeRankings(md, report)
	w.writeDangling(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the run summary table and the status alert.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.RankReport) {
	md.H1("PageRank Report")
	md.PlainText("")

	rows := [][]string{
		{"Corpus", "`" + report.Corpus + "`"},
		{"Date", report.DateRanked.Format("2006-01-02 15:04:05 MST")},
		{"Pages", strconv.Itoa(report.Pages)},
		{"Links", strconv.Itoa(report.Links)},
		{"Dangling Pages", strconv.Itoa(len(report.Dangling))},
		{"Damping", strconv.FormatFloat(report.Damping, 'f', 2, 64)},
	}
	if report.Samples > 0 {
		rows = append(rows,
			[]string{"Samples", strconv.Itoa(report.Samples)},
			[]string{"Seed", strconv.FormatUint(report.Seed, 10)},
		)
	}
	if report.Iterations > 0 {
		rows = append(rows, []string{"Iterations", strconv.Itoa(report.Iterations)})
	}
	if report.Fingerprint != "" {
		rows = append(rows, []string{"Fingerprint", "`" + shortFingerprint(report.Fingerprint) + "`"})
	}
	rows = append(rows, []string{"Status", statusText(report)})

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	w.writeAlert(md, report)
}

// statusText returns the status cell based on report state.
func statusText(report *model.RankReport) string {
	if report.ErrorMessage != "" {
		return "❌ Error - " + report.ErrorMessage
	}
	return "✅ Complete"
}

// writeAlert summarizes how well the two methods agree.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.RankReport) {
	a := report.Agreement
	switch {
	case report.ErrorMessage != "":
		md.Cautionf("The run did not finish cleanly: %s", report.ErrorMessage)
	case a == nil:
		md.Note("Only one ranking method produced results, so no comparison is available.")
	case a.Agrees():
		md.Tip(fmt.Sprintf("Sampling and iteration agree. The largest difference is %.4f on `%s`.",
			a.MaxDiff, a.Page))
	default:
		md.Warningf("Sampling and iteration disagree by %.4f on `%s`, more than %g. "+
			"Consider raising the sample count.", a.MaxDiff, a.Page, a.Limit())
	}
	md.PlainText("")
}

// writeRankings writes the per-page score table and the share chart.
func (w *MarkdownWriter) writeRankings(md *markdown.Markdown, report *model.RankReport) {
	md.H2("Rankings")
	md.PlainText("")

	if !report.HasResults() {
		md.PlainText("No ranking results.")
		md.PlainText("")
		return
	}

	all := make(model.Ranking, len(report.Sampling))
	for page := range report.Sampling {
		all[page] = 0
	}
	for page := range report.Iteration {
		all[page] = 0
	}

	rows := make([][]string, 0, len(all))
	for _, page := range sortedPages(all) {
		rows = append(rows, []string{
			"`" + page + "`",
			formatScore(report.Sampling, page),
			formatScore(report.Iteration, page),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Page", "Sampling", "Iteration"},
		Rows:   rows,
	})
	md.PlainText("")

	if len(report.Iteration) > 0 {
		w.writePieChart(md, report.Iteration)
	}
}

// formatScore returns the score of page in r, or "-" when r lacks it.
func formatScore(r model.Ranking, page string) string {
	score, ok := r[page]
	if !ok {
		return "-"
	}
	return strconv.FormatFloat(score, 'f', 4, 64)
}

// writePieChart writes a mermaid pie chart of the ranking in basis points.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, ranking model.Ranking) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("PageRank Share (basis points)"),
		piechart.WithShowData(true),
	)

	for _, score := range ranking.Sorted() {
		bp := uint64(math.Round(score.Score * 10000))
		if bp == 0 {
			continue
		}
		chart.LabelAndIntValue(score.Page, bp)
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeDangling lists pages without outbound links.
func (w *MarkdownWriter) writeDangling(md *markdown.Markdown, report *model.RankReport) {
	if len(report.Dangling) == 0 {
		return
	}

	md.H2("Dangling Pages")
	md.PlainText("")
	md.PlainText("These pages link nowhere. A surfer on them jumps to any page at random.")
	md.PlainText("")
	md.BulletList(report.Dangling...)
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [pagerank](https://github.com/nao1215/pagerank)*")
}

// shortFingerprint truncates a fingerprint for display.
func shortFingerprint(s string) string {
	if len(s) <= fingerprintWidth {
		return s
	}
	return s[:fingerprintWidth]
}
