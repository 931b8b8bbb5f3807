package outline

import (
	"strconv"
	"strings"
)

// Position pairs a node with its positional number ("1", "2-3", "1-2-1").
type Position struct {
	Number string
	ID     NodeID
}

// Positions numbers the whole book depth-first: roots are 1, 2, ...; the
// children of n are n-1, n-2, ... The result reflects the tree at call time
// and must not be kept across mutations.
func (b *Book) Positions() []Position {
	type frame struct {
		id     NodeID
		number string
	}
	out := make([]Position, 0, len(b.nodes))
	stack := make([]frame, 0, len(b.roots))
	for i := len(b.roots) - 1; i >= 0; i-- {
		stack = append(stack, frame{id: b.roots[i], number: strconv.Itoa(i + 1)})
	}
	seen := make(map[NodeID]struct{}, len(b.nodes))
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n, ok := b.nodes[f.id]
		if !ok {
			continue
		}
		if _, dup := seen[f.id]; dup {
			continue
		}
		seen[f.id] = struct{}{}
		out = append(out, Position{Number: f.number, ID: f.id})
		for i := len(n.children) - 1; i >= 0; i-- {
			stack = append(stack, frame{id: n.children[i], number: f.number + "-" + strconv.Itoa(i+1)})
		}
	}
	return out
}

// LookupPosition resolves a positional number to a node.
func (b *Book) LookupPosition(number string) (NodeID, bool) {
	for _, p := range b.Positions() {
		if p.Number == number {
			return p.ID, true
		}
	}
	return NodeID{}, false
}

// PositionOf returns the positional number of id.
func (b *Book) PositionOf(id NodeID) (string, bool) {
	for _, p := range b.Positions() {
		if p.ID == id {
			return p.Number, true
		}
	}
	return "", false
}

// Label returns the positional number of id, falling back to its short
// identifier when the node is not reachable from the roots.
func (b *Book) Label(id NodeID) string {
	if num, ok := b.PositionOf(id); ok {
		return num
	}
	return id.Short()
}

// IsPositional reports whether s has positional-number syntax: non-empty
// hyphen-separated segments of ASCII digits.
func IsPositional(s string) bool {
	if s == "" {
		return false
	}
	for _, seg := range strings.Split(s, "-") {
		if seg == "" {
			return false
		}
		for i := 0; i < len(seg); i++ {
			if seg[i] < '0' || seg[i] > '9' {
				return false
			}
		}
	}
	return true
}
