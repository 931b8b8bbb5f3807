package outline

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrCorrupt is returned when a decoded book violates the tree invariants.
var ErrCorrupt = errors.New("corrupt book")

type bookJSON struct {
	ID       BookID              `json:"id"`
	Title    string              `json:"title"`
	MaxDepth int                 `json:"max_depth"`
	Nodes    map[NodeID]nodeJSON `json:"nodes"`
	Roots    []NodeID            `json:"root_nodes"`
}

type nodeJSON struct {
	ID          NodeID   `json:"id"`
	Parent      *NodeID  `json:"parent"`
	Children    []NodeID `json:"children"`
	Title       string   `json:"title"`
	Body        *string  `json:"body"`
	NodeType    string   `json:"node_type"`
	Placeholder *string  `json:"placeholder"`
}

// MarshalJSON encodes the whole arena. This is the persisted form of a
// book, distinct from the export tree in package api.
func (b *Book) MarshalJSON() ([]byte, error) {
	out := bookJSON{
		ID:       b.id,
		Title:    b.title,
		MaxDepth: b.maxDepth,
		Nodes:    make(map[NodeID]nodeJSON, len(b.nodes)),
		Roots:    append([]NodeID{}, b.roots...),
	}
	for id, n := range b.nodes {
		out.Nodes[id] = nodeJSON{
			ID:          n.id,
			Parent:      n.parent,
			Children:    append([]NodeID{}, n.children...),
			Title:       n.title,
			Body:        n.body,
			NodeType:    persistedType(n.nodeType),
			Placeholder: n.placeholder,
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a persisted book and rejects it unless every
// structural invariant holds.
func (b *Book) UnmarshalJSON(data []byte) error {
	var in bookJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if in.MaxDepth < 1 || in.MaxDepth > MaxDepthLimit {
		return fmt.Errorf("%w: %d", ErrInvalidMaxDepth, in.MaxDepth)
	}

	decoded := &Book{
		id:       in.ID,
		title:    in.Title,
		maxDepth: in.MaxDepth,
		nodes:    make(map[NodeID]*Node, len(in.Nodes)),
		roots:    append([]NodeID{}, in.Roots...),
	}
	for key, n := range in.Nodes {
		if key != n.ID {
			return fmt.Errorf("%w: node key %s holds node %s", ErrCorrupt, key, n.ID)
		}
		t, err := parsePersistedType(n.NodeType)
		if err != nil {
			return fmt.Errorf("%w: node %s: %v", ErrCorrupt, n.ID, err)
		}
		decoded.nodes[key] = &Node{
			id:          n.ID,
			parent:      n.Parent,
			children:    append([]NodeID{}, n.Children...),
			title:       n.Title,
			body:        n.Body,
			nodeType:    t,
			placeholder: n.Placeholder,
		}
	}
	if err := decoded.check(); err != nil {
		return err
	}
	*b = *decoded
	return nil
}

// check verifies parent/child agreement, the root list, reachability and
// the depth limit.
func (b *Book) check() error {
	isRoot := make(map[NodeID]bool, len(b.roots))
	for _, r := range b.roots {
		n, ok := b.nodes[r]
		if !ok {
			return fmt.Errorf("%w: dangling root %s", ErrCorrupt, r)
		}
		if isRoot[r] {
			return fmt.Errorf("%w: root %s listed twice", ErrCorrupt, r)
		}
		if n.parent != nil {
			return fmt.Errorf("%w: root %s has a parent", ErrCorrupt, r)
		}
		isRoot[r] = true
	}

	for id, n := range b.nodes {
		if n.parent == nil {
			if !isRoot[id] {
				return fmt.Errorf("%w: parentless node %s is not a root", ErrCorrupt, id)
			}
		} else {
			p, ok := b.nodes[*n.parent]
			if !ok {
				return fmt.Errorf("%w: node %s has dangling parent %s", ErrCorrupt, id, *n.parent)
			}
			count := 0
			for _, c := range p.children {
				if c == id {
					count++
				}
			}
			if count != 1 {
				return fmt.Errorf("%w: parent %s lists node %s %d times", ErrCorrupt, *n.parent, id, count)
			}
		}
		for _, c := range n.children {
			child, ok := b.nodes[c]
			if !ok {
				return fmt.Errorf("%w: node %s has dangling child %s", ErrCorrupt, id, c)
			}
			if child.parent == nil || *child.parent != id {
				return fmt.Errorf("%w: child %s does not point back to %s", ErrCorrupt, c, id)
			}
		}
	}

	reached := 0
	var tooDeep error
	b.walk(b.roots, func(n *Node, level int) {
		reached++
		if level+1 > b.maxDepth && tooDeep == nil {
			tooDeep = &DepthError{NodeID: n.id, Max: b.maxDepth}
		}
	})
	if reached != len(b.nodes) {
		return fmt.Errorf("%w: %d of %d nodes reachable from roots", ErrCorrupt, reached, len(b.nodes))
	}
	if tooDeep != nil {
		return fmt.Errorf("%w: %w", ErrCorrupt, tooDeep)
	}
	return nil
}

func persistedType(t NodeType) string {
	if t == Section {
		return "Section"
	}
	return "Content"
}

func parsePersistedType(s string) (NodeType, error) {
	switch s {
	case "Section", "section":
		return Section, nil
	case "Content", "content":
		return Content, nil
	default:
		return 0, fmt.Errorf("unknown node type %q", s)
	}
}
