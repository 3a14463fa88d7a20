package main

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/pagerank/internal/config"
	"github.com/nao1215/pagerank/internal/database"
	"github.com/nao1215/pagerank/internal/model"
	"github.com/spf13/cobra"
)

// dateLayout is how run dates are shown.
const dateLayout = "2006-01-02 15:04:05"

// NewHistoryCmd creates the history command.
// This command compares ranking runs stored in the database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [corpus-dir]",
		Short: "Compare stored ranking runs of a corpus",
		Long: `History shows how the iteration ranks of a corpus changed between runs.

Every 'pagerank rank' run is stored in the history database unless
--no-save is given. By default the latest two runs of the corpus are
compared page by page. Pages that appeared or disappeared between the runs
are listed separately.

Examples:
  # Compare the latest two runs of a corpus
  pagerank history corpus0

  # List all stored runs of a corpus
  pagerank history --list corpus0

  # Compare the latest run with a specific run by ID
  pagerank history --with-run-id 3 corpus0

  # Output comparison in JSON format
  pagerank history --json corpus0

  # List all corpora in the database
  pagerank history --list-corpora`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("list", "l", false,
		"List run history for the specified corpus")
	cmd.Flags().BoolP("list-corpora", "L", false,
		"List all corpora in the database")

	cmd.Flags().Int64P("with-run-id", "i", 0,
		"Compare the latest run with a specific run by ID (use --list to see available IDs)")

	cmd.Flags().BoolP("json", "j", false,
		"Output comparison result in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output comparison result in Markdown format")

	cmd.Flags().String("db-dir", "",
		"Directory of the run history database (default: XDG data directory)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	listCorpora, err := cmd.Flags().GetBool("list-corpora")
	if err != nil {
		return err
	}

	// Validate arguments before opening the database.
	var corpus string
	if !listCorpora {
		if len(args) == 0 {
			return errors.New("corpus directory is required (use --list-corpora to see stored corpora)")
		}
		corpus, err = filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("invalid corpus path: %w", err)
		}
	}

	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	if jsonOutput && markdownOutput {
		return config.ErrConflictingReportFormats
	}

	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if listCorpora {
		return listStoredCorpora(ctx, db, out)
	}

	listHistory, err := cmd.Flags().GetBool("list")
	if err != nil {
		return err
	}
	if listHistory {
		return listRunHistory(ctx, db, corpus, out)
	}

	withRunID, err := cmd.Flags().GetInt64("with-run-id")
	if err != nil {
		return err
	}

	result, err := runComparison(ctx, db, corpus, withRunID)
	if err != nil {
		return err
	}

	switch {
	case jsonOutput:
		return outputComparisonJSON(out, result)
	case markdownOutput:
		return outputComparisonMarkdown(out, result)
	default:
		return outputComparisonText(out, result)
	}
}

// listStoredCorpora lists all corpora that have runs in the database.
func listStoredCorpora(ctx context.Context, db *database.RankDB, out io.Writer) error {
	corpora, err := db.ListCorpora(ctx)
	if err != nil {
		return fmt.Errorf("failed to list corpora: %w", err)
	}

	if len(corpora) == 0 {
		fmt.Fprintln(out, "No ranked corpora found in the database.")
		fmt.Fprintln(out, "\nUse 'pagerank rank <dir>' to rank a corpus.")
		return nil
	}

	fmt.Fprintf(out, "Ranked corpora (%d):\n\n", len(corpora))
	for _, corpus := range corpora {
		fmt.Fprintf(out, "  • %s\n", corpus)
	}
	fmt.Fprintln(out, "\nUse 'pagerank history --list <dir>' to see the runs of a corpus.")

	return nil
}

// listRunHistory lists all stored runs of a corpus.
func listRunHistory(ctx context.Context, db *database.RankDB, corpus string, out io.Writer) error {
	runs, err := db.HistoryWithMetadata(ctx, corpus)
	if err != nil {
		return fmt.Errorf("failed to get run history: %w", err)
	}

	if len(runs) == 0 {
		fmt.Fprintf(out, "No run history found for %s\n", corpus)
		fmt.Fprintln(out, "\nUse 'pagerank rank' to rank this corpus.")
		return nil
	}

	fmt.Fprintf(out, "Run history for %s (%d runs):\n\n", corpus, len(runs))
	fmt.Fprintf(out, "  %-6s  %-19s  %-6s  %-8s  %-8s  %s\n", "ID", "Date", "Pages", "Damping", "MaxDiff", "Top Page")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 70))

	for _, run := range runs {
		maxDiff := "-"
		if run.MaxDiff != nil {
			maxDiff = strconv.FormatFloat(*run.MaxDiff, 'f', 4, 64)
		}
		top := run.TopPage
		if top == "" {
			top = "-"
		}
		fmt.Fprintf(out, "  %-6d  %-19s  %-6d  %-8.2f  %-8s  %s\n",
			run.ID,
			run.Timestamp.Local().Format(dateLayout),
			run.Pages,
			run.Damping,
			maxDiff,
			top,
		)
	}

	fmt.Fprintln(out, "\nUse 'pagerank history <dir>' to compare the latest two runs.")
	fmt.Fprintln(out, "Use 'pagerank history --with-run-id <id> <dir>' to compare with a specific run.")

	return nil
}

// ComparisonResult holds the result of comparing two runs of a corpus.
type ComparisonResult struct {
	// Corpus is the ranked directory.
	Corpus string `json:"corpus"`

	// PreviousRun and CurrentRun describe the compared runs.
	PreviousRun RunSummary `json:"previous_run"`
	CurrentRun  RunSummary `json:"current_run"`

	// SameGraph reports whether both runs ranked the same link structure.
	SameGraph bool `json:"same_graph"`

	// Changes lists pages present in both runs, largest change first.
	Changes []PageChange `json:"changes"`

	// Added lists pages only present in the current run.
	Added []string `json:"added,omitempty"`

	// Removed lists pages only present in the previous run.
	Removed []string `json:"removed,omitempty"`
}

// RunSummary contains the metadata of one run for comparison display.
type RunSummary struct {
	ID          int64     `json:"id"`
	DateRanked  time.Time `json:"date_ranked"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	Pages       int       `json:"pages"`
	Damping     float64   `json:"damping"`
	TopPage     string    `json:"top_page,omitempty"`
}

// PageChange is the iteration rank of one page in both runs.
type PageChange struct {
	Page     string  `json:"page"`
	Previous float64 `json:"previous"`
	Current  float64 `json:"current"`
	Delta    float64 `json:"delta"`
}

// runComparison loads the two runs to compare and diffs their iteration
// ranks. withRunID selects the previous run; zero means the one before
// the latest.
func runComparison(ctx context.Context, db *database.RankDB, corpus string, withRunID int64) (*ComparisonResult, error) {
	runs, err := db.HistoryWithMetadata(ctx, corpus)
	if err != nil {
		return nil, fmt.Errorf("failed to get run history: %w", err)
	}

	if len(runs) == 0 {
		return nil, fmt.Errorf("no run history found for %s", corpus)
	}
	if len(runs) < 2 {
		return nil, fmt.Errorf("at least 2 runs are required for comparison (found %d)", len(runs))
	}

	current := runs[0]
	previous := runs[1]

	if withRunID > 0 {
		if withRunID == current.ID {
			return nil, fmt.Errorf("run %d is the latest run; choose an earlier run to compare with", withRunID)
		}
		idx := slices.IndexFunc(runs, func(m database.RunMetadata) bool { return m.ID == withRunID })
		if idx < 0 {
			other, err := db.ByID(ctx, withRunID)
			if err != nil {
				return nil, fmt.Errorf("failed to get run with ID %d: %w", withRunID, err)
			}
			if other == nil {
				return nil, fmt.Errorf("run with ID %d not found", withRunID)
			}
			return nil, fmt.Errorf("run ID %d belongs to %s, not %s", withRunID, other.Corpus, corpus)
		}
		previous = runs[idx]
	}

	before, err := db.Scores(ctx, previous.ID, database.MethodIteration)
	if err != nil {
		return nil, err
	}
	after, err := db.Scores(ctx, current.ID, database.MethodIteration)
	if err != nil {
		return nil, err
	}

	result := compareRankings(before, after)
	result.Corpus = corpus
	result.PreviousRun = summarize(previous)
	result.CurrentRun = summarize(current)
	result.SameGraph = previous.Fingerprint != "" && previous.Fingerprint == current.Fingerprint

	return result, nil
}

// summarize converts stored run metadata for display.
func summarize(m database.RunMetadata) RunSummary {
	return RunSummary{
		ID:          m.ID,
		DateRanked:  m.Timestamp,
		Fingerprint: m.Fingerprint,
		Pages:       m.Pages,
		Damping:     m.Damping,
		TopPage:     m.TopPage,
	}
}

// compareRankings diffs two rankings of the same corpus.
func compareRankings(previous, current model.Ranking) *ComparisonResult {
	result := &ComparisonResult{}

	for _, page := range current.Pages() {
		before, ok := previous[page]
		if !ok {
			result.Added = append(result.Added, page)
			continue
		}
		result.Changes = append(result.Changes, PageChange{
			Page:     page,
			Previous: before,
			Current:  current[page],
			Delta:    current[page] - before,
		})
	}
	for _, page := range previous.Pages() {
		if _, ok := current[page]; !ok {
			result.Removed = append(result.Removed, page)
		}
	}

	slices.SortStableFunc(result.Changes, func(a, b PageChange) int {
		return cmp.Compare(math.Abs(b.Delta), math.Abs(a.Delta))
	})

	return result
}

// outputComparisonJSON outputs the comparison result in JSON format.
func outputComparisonJSON(out io.Writer, result *ComparisonResult) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// outputComparisonMarkdown outputs the comparison result in Markdown format.
func outputComparisonMarkdown(out io.Writer, result *ComparisonResult) error {
	md := markdown.NewMarkdown(out)

	md.H1("Run Comparison: " + filepath.Base(result.Corpus))
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Run", "ID", "Date", "Pages", "Damping", "Top Page"},
		Rows: [][]string{
			summaryRow("Previous", result.PreviousRun),
			summaryRow("Current", result.CurrentRun),
		},
	})
	md.PlainText("")

	if result.SameGraph {
		md.Note("Both runs ranked the same link graph. Changes come from the ranking parameters or sampling noise.")
	} else {
		md.Warningf("The link graph changed between the runs.")
	}
	md.PlainText("")

	md.H2("Rank Changes")
	md.PlainText("")
	if len(result.Changes) == 0 {
		md.PlainText("No pages in common.")
	} else {
		rows := make([][]string, len(result.Changes))
		for i, c := range result.Changes {
			rows[i] = []string{
				"`" + c.Page + "`",
				strconv.FormatFloat(c.Previous, 'f', 4, 64),
				strconv.FormatFloat(c.Current, 'f', 4, 64),
				formatDelta(c.Delta),
			}
		}
		md.Table(markdown.TableSet{
			Header: []string{"Page", "Previous", "Current", "Change"},
			Rows:   rows,
		})
	}
	md.PlainText("")

	if len(result.Added) > 0 {
		md.H2(fmt.Sprintf("Added Pages (%d)", len(result.Added)))
		md.PlainText("")
		md.BulletList(result.Added...)
		md.PlainText("")
	}
	if len(result.Removed) > 0 {
		md.H2(fmt.Sprintf("Removed Pages (%d)", len(result.Removed)))
		md.PlainText("")
		md.BulletList(result.Removed...)
		md.PlainText("")
	}

	return md.Build()
}

// summaryRow formats one run for the Markdown summary table.
func summaryRow(label string, run RunSummary) []string {
	top := run.TopPage
	if top == "" {
		top = "-"
	}
	return []string{
		label,
		strconv.FormatInt(run.ID, 10),
		run.DateRanked.Local().Format(dateLayout),
		strconv.Itoa(run.Pages),
		strconv.FormatFloat(run.Damping, 'f', 2, 64),
		top,
	}
}

// outputComparisonText outputs the comparison result in human-readable text format.
func outputComparisonText(out io.Writer, result *ComparisonResult) error {
	fmt.Fprintf(out, "Run Comparison: %s\n", result.Corpus)
	fmt.Fprintln(out, strings.Repeat("=", 60))

	fmt.Fprintf(out, "\nPrevious run: #%-4d %s  (%d pages, damping %.2f)\n",
		result.PreviousRun.ID, result.PreviousRun.DateRanked.Local().Format(dateLayout),
		result.PreviousRun.Pages, result.PreviousRun.Damping)
	fmt.Fprintf(out, "Current run:  #%-4d %s  (%d pages, damping %.2f)\n",
		result.CurrentRun.ID, result.CurrentRun.DateRanked.Local().Format(dateLayout),
		result.CurrentRun.Pages, result.CurrentRun.Damping)

	graph := "CHANGED"
	if result.SameGraph {
		graph = "unchanged"
	}
	fmt.Fprintf(out, "Link graph:   %s\n", graph)

	if len(result.Changes) > 0 {
		fmt.Fprintln(out, "\nIteration Ranks:")
		fmt.Fprintf(out, "  %-30s  %-8s  %-8s  %s\n", "Page", "Previous", "Current", "Change")
		fmt.Fprintln(out, "  "+strings.Repeat("-", 60))
		for _, c := range result.Changes {
			fmt.Fprintf(out, "  %-30s  %-8.4f  %-8.4f  %s\n", c.Page, c.Previous, c.Current, formatDelta(c.Delta))
		}
	}

	if len(result.Added) > 0 {
		fmt.Fprintf(out, "\nAdded Pages (%d):\n", len(result.Added))
		for _, page := range result.Added {
			fmt.Fprintf(out, "  [+] %s\n", page)
		}
	}

	if len(result.Removed) > 0 {
		fmt.Fprintf(out, "\nRemoved Pages (%d):\n", len(result.Removed))
		for _, page := range result.Removed {
			fmt.Fprintf(out, "  [-] %s\n", page)
		}
	}

	return nil
}

// formatDelta formats a score change with sign and four decimals.
// Changes that round to zero print without a sign.
func formatDelta(delta float64) string {
	s := strconv.FormatFloat(delta, 'f', 4, 64)
	switch {
	case s == "-0.0000" || s == "0.0000":
		return "0.0000"
	case delta > 0:
		return "+" + s
	default:
		return s
	}
}
