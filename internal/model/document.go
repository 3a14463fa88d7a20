package model

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// Document represents one HTML file of a corpus.
type Document struct {
	// Name is the file name relative to the corpus directory. It is the
	// page identifier used by the link graph.
	Name string `json:"name"`

	// Title is the text of the <title> element. Empty when absent.
	Title string `json:"title,omitempty"`

	// OutLinks is the number of distinct in-corpus pages this document
	// links to, self links excluded.
	OutLinks int `json:"out_links"`

	// Size is the file size in bytes.
	Size int64 `json:"size"`

	// Hash is the SHA3-256 hash of the file content.
	// Used to detect changed pages between runs.
	Hash string `json:"hash"`
}

// MaxDocumentSize is the largest file the crawler accepts. A larger file
// fails the crawl of its corpus.
const MaxDocumentSize = 10 * 1024 * 1024 // 10 MB

// ComputeHash calculates and sets the SHA3-256 hash of raw.
func (d *Document) ComputeHash(raw []byte) {
	if len(raw) == 0 {
		d.Hash = ""
		return
	}

	sum := sha3.Sum256(raw)
	d.Hash = hex.EncodeToString(sum[:])
}

// IsDangling reports whether the document has no outbound links.
func (d *Document) IsDangling() bool {
	return d.OutLinks == 0
}
