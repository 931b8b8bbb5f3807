package outline

import (
	"fmt"
	"slices"
)

// NodeType tags a node as a grouping Section or an informational Content item.
type NodeType int

const (
	Section NodeType = iota
	Content
)

func (t NodeType) String() string {
	switch t {
	case Section:
		return "section"
	case Content:
		return "content"
	default:
		return fmt.Sprintf("NodeType(%d)", int(t))
	}
}

// ParseNodeType accepts exactly "section" or "content".
func ParseNodeType(s string) (NodeType, error) {
	switch s {
	case "section":
		return Section, nil
	case "content":
		return Content, nil
	default:
		return 0, fmt.Errorf("unknown node type %q (use: section, content)", s)
	}
}

// Node is a single element of a Book. Nodes are owned by their Book and
// are only ever changed through Book methods; the accessors below never
// expose internal slices.
type Node struct {
	id          NodeID
	parent      *NodeID
	children    []NodeID
	title       string
	body        *string
	nodeType    NodeType
	placeholder *string
}

func (n *Node) ID() NodeID { return n.id }

// Parent returns the parent identifier, or false for a root node.
func (n *Node) Parent() (NodeID, bool) {
	if n.parent == nil {
		return NodeID{}, false
	}
	return *n.parent, true
}

// Children returns a copy of the ordered child identifiers.
func (n *Node) Children() []NodeID { return slices.Clone(n.children) }

func (n *Node) Title() string { return n.title }

// Body returns the free-text body and whether one is set.
func (n *Node) Body() (string, bool) { return deref(n.body) }

func (n *Node) Type() NodeType { return n.nodeType }

// Placeholder returns the fill-in hint and whether one is set.
func (n *Node) Placeholder() (string, bool) { return deref(n.placeholder) }

func (n *Node) IsLeaf() bool { return len(n.children) == 0 }

func (n *Node) insertChild(id NodeID, position int) {
	n.children = slices.Insert(n.children, clampPosition(position, len(n.children)), id)
}

func (n *Node) removeChild(id NodeID) {
	n.children = slices.DeleteFunc(n.children, func(c NodeID) bool { return c == id })
}

// clampPosition maps a requested sibling index onto [0, n]. Anything past
// the end, or negative, appends.
func clampPosition(position, n int) int {
	if position < 0 || position > n {
		return n
	}
	return position
}

func deref(s *string) (string, bool) {
	if s == nil {
		return "", false
	}
	return *s, true
}

func ptr[T any](v T) *T { return &v }
