package graph

import "errors"

// ErrInvalidInput is returned when a graph cannot be built from the given
// adjacency. Callers use errors.Is to detect it.
var ErrInvalidInput = errors.New("invalid input")

var (
	// ErrEmptyPage is returned when a page name is empty.
	ErrEmptyPage = errors.New("page name must not be empty")

	// ErrUnknownTarget is returned when a link points at a page that is not
	// part of the graph. The crawler filters such links before building.
	ErrUnknownTarget = errors.New("link target is not a page of the graph")
)
