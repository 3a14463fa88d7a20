// Package report renders ranking results.
//
// This package contains writers for different output formats:
//   - SimpleWriter: plain text for terminal display
//   - JSONWriter: structured JSON for tool integration
//   - MarkdownWriter: tables and a mermaid chart for sharing
//
// Writers implement the Writer interface, allowing them to be used
// interchangeably and composed for multi-format output.
package report
