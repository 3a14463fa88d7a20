package crawler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/nao1215/pagerank/internal/graph"
	"github.com/nao1215/pagerank/internal/model"
	"golang.org/x/sync/errgroup"
)

// DefaultExtensions lists the file extensions treated as corpus documents.
var DefaultExtensions = []string{".html"}

// Corpus is a crawled directory: its link graph and the documents it
// was built from.
type Corpus struct {
	// Dir is the crawled directory.
	Dir string

	// Graph is the link graph over the corpus documents.
	Graph *graph.Graph

	// Documents describes every document in name order.
	Documents []model.Document

	// Skipped counts anchors that did not name another corpus document.
	Skipped int
}

// Crawler reads a directory of HTML files into a Corpus.
type Crawler struct {
	// extensions are the lower-case file extensions to include.
	extensions []string

	// ignorePatterns are glob patterns matched against file names.
	// Matching files are left out of the corpus.
	ignorePatterns []string

	// workers bounds how many files are parsed at once.
	workers int

	// maxFileSize is the largest document accepted. Larger files fail the
	// crawl instead of being parsed partially.
	maxFileSize int64

	logger *slog.Logger
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithExtensions sets the file extensions to include, e.g. ".html", ".htm".
// Matching is case-insensitive. An empty list keeps the default.
func WithExtensions(exts []string) Option {
	return func(c *Crawler) {
		if len(exts) == 0 {
			return
		}
		c.extensions = make([]string, 0, len(exts))
		for _, ext := range exts {
			ext = strings.ToLower(ext)
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			c.extensions = append(c.extensions, ext)
		}
	}
}

// WithIgnorePatterns sets glob patterns (filepath.Match syntax) for file
// names to leave out, e.g. "draft-*", "404.html".
func WithIgnorePatterns(patterns []string) Option {
	return func(c *Crawler) {
		c.ignorePatterns = patterns
	}
}

// WithWorkers sets how many files are parsed concurrently.
func WithWorkers(n int) Option {
	return func(c *Crawler) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithMaxFileSize sets the largest document size in bytes.
func WithMaxFileSize(size int64) Option {
	return func(c *Crawler) {
		if size > 0 {
			c.maxFileSize = size
		}
	}
}

// WithLogger sets the logger used for per-document debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Crawler) {
		c.logger = logger
	}
}

// New creates a Crawler with the given options.
func New(opts ...Option) *Crawler {
	c := &Crawler{
		extensions:  slices.Clone(DefaultExtensions),
		workers:     8,
		maxFileSize: model.MaxDocumentSize,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = slog.Default()
	}

	return c
}

// Crawl reads dir with a Crawler built from opts.
func Crawl(ctx context.Context, dir string, opts ...Option) (*Corpus, error) {
	return New(opts...).Crawl(ctx, dir)
}

// parsed holds the per-file output of a crawl before the graph is built.
type parsed struct {
	doc   model.Document
	links []string
	skip  int
}

// Crawl lists dir without descending into subdirectories, parses every
// matching file and builds the link graph.
//
// Links to the document itself and to files that are not part of the corpus
// are dropped, so every page in the graph links only to other corpus pages.
func (c *Crawler) Crawl(ctx context.Context, dir string) (*Corpus, error) {
	names, err := c.listDocuments(dir)
	if err != nil {
		return nil, err
	}

	results := make([]parsed, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	for i, name := range names {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := c.parseFile(dir, name)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return c.build(dir, names, results)
}

// listDocuments returns the sorted names of the files in dir that belong to
// the corpus.
func (c *Crawler) listDocuments(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !slices.Contains(c.extensions, strings.ToLower(filepath.Ext(name))) {
			continue
		}
		ignored, err := c.ignored(name)
		if err != nil {
			return nil, err
		}
		if ignored {
			c.logger.Debug("ignoring document", "name", name)
			continue
		}
		names = append(names, name)
	}

	if len(names) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyCorpus, dir)
	}

	slices.Sort(names)
	return names, nil
}

// ignored reports whether name matches one of the ignore patterns.
func (c *Crawler) ignored(name string) (bool, error) {
	for _, pattern := range c.ignorePatterns {
		matched, err := filepath.Match(pattern, name)
		if err != nil {
			return false, fmt.Errorf("%w %q: %w", ErrInvalidPattern, pattern, err)
		}
		if matched {
			return true, nil
		}
	}
	return false, nil
}

// parseFile reads and parses a single document.
func (c *Crawler) parseFile(dir, name string) (parsed, error) {
	f, err := os.Open(filepath.Join(dir, name))
	if err != nil {
		return parsed{}, fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer f.Close()

	raw, err := io.ReadAll(io.LimitReader(f, c.maxFileSize+1))
	if err != nil {
		return parsed{}, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if int64(len(raw)) > c.maxFileSize {
		c.logger.Warn("document exceeds size limit", "name", name, "limit", c.maxFileSize)
		return parsed{}, fmt.Errorf("%w: %s is larger than %d bytes", ErrDocumentTooLarge, name, c.maxFileSize)
	}

	result, err := NewParser(name).Parse(bytes.NewReader(raw))
	if err != nil {
		return parsed{}, fmt.Errorf("failed to parse %s: %w", name, err)
	}

	doc := model.Document{
		Name:  name,
		Title: result.Title,
		Size:  int64(len(raw)),
	}
	doc.ComputeHash(raw)

	c.logger.Debug("parsed document", "name", name, "links", len(result.Links), "skipped", result.Skipped)

	return parsed{doc: doc, links: result.Links, skip: result.Skipped}, nil
}

// build filters links to corpus members and assembles the Corpus.
func (c *Crawler) build(dir string, names []string, results []parsed) (*Corpus, error) {
	members := make(map[string]struct{}, len(names))
	for _, name := range names {
		members[name] = struct{}{}
	}

	corpus := &Corpus{
		Dir:       dir,
		Documents: make([]model.Document, 0, len(results)),
	}

	links := make(map[string][]string, len(results))
	for _, res := range results {
		kept := make([]string, 0, len(res.links))
		for _, link := range res.links {
			if _, ok := members[link]; !ok || link == res.doc.Name {
				corpus.Skipped++
				continue
			}
			kept = append(kept, link)
		}
		corpus.Skipped += res.skip
		links[res.doc.Name] = kept
	}

	g, err := graph.New(links)
	if err != nil {
		return nil, fmt.Errorf("failed to build link graph: %w", err)
	}
	corpus.Graph = g

	for _, res := range results {
		doc := res.doc
		doc.OutLinks = len(g.Links(doc.Name))
		corpus.Documents = append(corpus.Documents, doc)
	}

	c.logger.Debug("crawled corpus",
		"dir", dir,
		"documents", g.Len(),
		"links", g.LinkCount(),
		"skipped", corpus.Skipped,
	)

	return corpus, nil
}
