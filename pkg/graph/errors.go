package graph

import (
	"errors"
	"fmt"
)

var (
	// ErrNotReady is returned by Store.Current before any dataset was ingested.
	ErrNotReady = errors.New("graph: no dataset loaded")

	// ErrNodeNotFound is matched by every NodeNotFoundError.
	ErrNodeNotFound = errors.New("graph: node not found")

	// ErrEmptyGraph is returned by Build when the edge list yields no nodes.
	ErrEmptyGraph = errors.New("graph: edge table is empty")
)

// NodeNotFoundError names the identifier a query referenced.
type NodeNotFoundError struct {
	ID string
}

func (e *NodeNotFoundError) Error() string {
	return fmt.Sprintf("graph: node not found: %q", e.ID)
}

func (e *NodeNotFoundError) Is(target error) bool {
	return target == ErrNodeNotFound
}
