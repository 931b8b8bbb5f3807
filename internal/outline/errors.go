package outline

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound        = errors.New("node not found")
	ErrDepthExceeded   = errors.New("max depth exceeded")
	ErrCyclicMove      = errors.New("cannot move node under its own descendant")
	ErrAmbiguous       = errors.New("ambiguous reference")
	ErrInvalidMaxDepth = errors.New("invalid max depth")
)

func notFound(id NodeID) error {
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

// DepthError reports a structural change that would place NodeID deeper
// than the book's configured maximum.
type DepthError struct {
	NodeID NodeID
	Max    int
}

func (e *DepthError) Error() string {
	return fmt.Sprintf("max depth %d exceeded at node %s", e.Max, e.NodeID)
}

func (e *DepthError) Is(target error) bool { return target == ErrDepthExceeded }

// Candidate is one of several nodes matched by an ambiguous reference.
type Candidate struct {
	ID       NodeID
	Position string
	Title    string
}

// AmbiguousError lists every node a reference matched.
type AmbiguousError struct {
	Ref        string
	Kind       string // "id prefix" or "title"
	Candidates []Candidate
}

func (e *AmbiguousError) Error() string {
	parts := make([]string, len(e.Candidates))
	for i, c := range e.Candidates {
		parts[i] = fmt.Sprintf("'%s' (%s)", c.Title, c.Position)
	}
	return fmt.Sprintf("ambiguous %s match: '%s' matches %d nodes: %s",
		e.Kind, e.Ref, len(e.Candidates), strings.Join(parts, ", "))
}

func (e *AmbiguousError) Is(target error) bool { return target == ErrAmbiguous }
