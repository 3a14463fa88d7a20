package crawler

import (
	"io"
	"net/url"
	"path"
	"slices"
	"strings"

	"golang.org/x/net/html"
)

// Parser extracts the title and page links from one HTML document of a
// corpus.
//
// We use golang.org/x/net/html rather than a regular expression so that
// malformed markup, attribute order and quoting style do not hide links.
type Parser struct {
	// base is the document's own location, used to resolve relative links.
	base *url.URL
}

// ParseResult contains the information extracted from one document.
type ParseResult struct {
	// Title is the page title from the <title> tag.
	Title string

	// Links contains the corpus-relative file names of every local page
	// the document links to, deduplicated, in document order. Links may
	// still point at files that are not part of the corpus.
	Links []string

	// Skipped counts anchors that were dropped because they point outside
	// the corpus directory (other hosts, absolute paths, parent or sub
	// directories, or non-navigational schemes).
	Skipped int
}

// NewParser creates a parser for the document with the given corpus-relative
// file name.
func NewParser(name string) *Parser {
	return &Parser{base: &url.URL{Path: "/" + name}}
}

// Parse parses HTML content and extracts the title and local links.
func (p *Parser) Parse(content io.Reader) (*ParseResult, error) {
	doc, err := html.Parse(content)
	if err != nil {
		return nil, err
	}

	result := &ParseResult{
		Links: make([]string, 0),
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			p.processElement(n, result)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return result, nil
}

// processElement handles HTML element nodes.
func (p *Parser) processElement(n *html.Node, result *ParseResult) {
	switch n.Data {
	case "title":
		if result.Title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
			result.Title = strings.TrimSpace(n.FirstChild.Data)
		}

	case "a":
		href, ok := getAttr(n, "href")
		if !ok {
			return
		}
		name, ok := p.resolveLink(href)
		if !ok {
			result.Skipped++
			return
		}
		if !slices.Contains(result.Links, name) {
			result.Links = append(result.Links, name)
		}
	}
}

// resolveLink turns href into a corpus-relative file name.
// It returns false when the link cannot name a file in the corpus directory.
func (p *Parser) resolveLink(href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}

	u, err := url.Parse(href)
	if err != nil {
		return "", false
	}

	// Anything with a scheme or host leaves the corpus, including
	// javascript:, mailto: and data: URLs.
	if u.Scheme != "" || u.Host != "" || u.Opaque != "" {
		return "", false
	}
	if u.Path == "" || strings.HasPrefix(u.Path, "/") {
		return "", false
	}

	cleaned := path.Clean(u.Path)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", false
	}

	// Query and fragment do not change which file is linked.
	resolved := p.base.ResolveReference(&url.URL{Path: cleaned})
	name := strings.TrimPrefix(resolved.Path, "/")
	if name == "" || strings.Contains(name, "/") {
		return "", false
	}
	return name, true
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) (string, bool) {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val, true
		}
	}
	return "", false
}
