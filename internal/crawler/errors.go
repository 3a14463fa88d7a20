package crawler

import "errors"

// Crawl errors. Callers use errors.Is to tell them apart.
var (
	// ErrNotDirectory is returned when the corpus path exists but is not a
	// directory.
	ErrNotDirectory = errors.New("corpus path is not a directory")

	// ErrEmptyCorpus is returned when the directory contains no file with
	// a configured extension. PageRank is undefined on an empty corpus.
	ErrEmptyCorpus = errors.New("corpus contains no documents")

	// ErrInvalidPattern is returned when an ignore pattern is not valid
	// glob syntax.
	ErrInvalidPattern = errors.New("invalid ignore pattern")

	// ErrDocumentTooLarge is returned when a file exceeds the size limit.
	ErrDocumentTooLarge = errors.New("document too large (leave it out with --ignore)")
)
