package outline

import (
	"fmt"
	"strings"
)

// Resolve turns a human-typed reference into a node identifier. Forms are
// tried in order:
//
//  1. positional number ("2-3"), which must exist;
//  2. a full identifier, used as is;
//  3. an identifier prefix matching exactly one node;
//  4. a case-insensitive title substring matching exactly one node.
//
// Several matches in step 3 or 4 yield an *AmbiguousError.
func (b *Book) Resolve(ref string) (NodeID, error) {
	if ref == "" {
		return NodeID{}, fmt.Errorf("%w: empty reference", ErrNotFound)
	}

	if IsPositional(ref) {
		if id, ok := b.LookupPosition(ref); ok {
			return id, nil
		}
		return NodeID{}, fmt.Errorf("%w: no node at position '%s'", ErrNotFound, ref)
	}

	if id, err := ParseNodeID(ref); err == nil {
		return id, nil
	}

	var byPrefix []NodeID
	for _, id := range b.NodeIDs() {
		if strings.HasPrefix(id.String(), ref) {
			byPrefix = append(byPrefix, id)
		}
	}
	switch len(byPrefix) {
	case 0:
	case 1:
		return byPrefix[0], nil
	default:
		return NodeID{}, b.ambiguous(ref, "id prefix", byPrefix)
	}

	query := strings.ToLower(ref)
	var byTitle []NodeID
	for _, n := range b.Nodes() {
		if strings.Contains(strings.ToLower(n.title), query) {
			byTitle = append(byTitle, n.id)
		}
	}
	switch len(byTitle) {
	case 0:
		return NodeID{}, fmt.Errorf("%w: no node matching '%s'", ErrNotFound, ref)
	case 1:
		return byTitle[0], nil
	default:
		return NodeID{}, b.ambiguous(ref, "title", byTitle)
	}
}

func (b *Book) ambiguous(ref, kind string, ids []NodeID) *AmbiguousError {
	positions := make(map[NodeID]string, len(b.nodes))
	for _, p := range b.Positions() {
		positions[p.ID] = p.Number
	}
	e := &AmbiguousError{Ref: ref, Kind: kind}
	for _, id := range ids {
		pos, ok := positions[id]
		if !ok {
			pos = id.Short()
		}
		e.Candidates = append(e.Candidates, Candidate{ID: id, Position: pos, Title: b.nodes[id].title})
	}
	return e
}
