// Package outline implements the Book aggregate: a depth-limited tree of
// titled nodes addressed either by opaque NodeID or by positional numbers
// ("1", "2-3") derived from the current tree shape.
//
// Nodes live in a single arena (map[NodeID]*Node) owned by the Book.
// Parent and child links are identifier values, and only Book methods
// write them, so the two directions always agree.
package outline

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

const (
	// MaxDepthLimit is the largest max depth a Book accepts. It also bounds
	// every ancestor walk, so corrupt parent chains cannot loop forever.
	MaxDepthLimit = 255

	// AppendPosition inserts after every existing sibling.
	AppendPosition = math.MaxInt
)

// Book is the aggregate root. All structural mutation goes through it.
type Book struct {
	id       BookID
	title    string
	maxDepth int
	nodes    map[NodeID]*Node
	roots    []NodeID
}

// New creates an empty book. maxDepth must be in [1, MaxDepthLimit];
// a root node has depth 1.
func New(title string, maxDepth int) (*Book, error) {
	if maxDepth < 1 || maxDepth > MaxDepthLimit {
		return nil, fmt.Errorf("%w: %d (must be 1..%d)", ErrInvalidMaxDepth, maxDepth, MaxDepthLimit)
	}
	return &Book{
		id:       NewBookID(),
		title:    title,
		maxDepth: maxDepth,
		nodes:    make(map[NodeID]*Node),
		roots:    []NodeID{},
	}, nil
}

func (b *Book) ID() BookID     { return b.id }
func (b *Book) Title() string  { return b.title }
func (b *Book) MaxDepth() int  { return b.maxDepth }
func (b *Book) NodeCount() int { return len(b.nodes) }

// Roots returns a copy of the ordered root identifiers.
func (b *Book) Roots() []NodeID { return slices.Clone(b.roots) }

// Node returns the node with the given id.
func (b *Book) Node(id NodeID) (*Node, bool) {
	n, ok := b.nodes[id]
	return n, ok
}

// NodeIDs returns every identifier, sorted by textual form.
func (b *Book) NodeIDs() []NodeID {
	ids := make([]NodeID, 0, len(b.nodes))
	for id := range b.nodes {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, c NodeID) int { return strings.Compare(a.String(), c.String()) })
	return ids
}

// AddRequest describes a new node. Position is a 0-based index among the
// new siblings; use AppendPosition to add at the end.
type AddRequest struct {
	Parent      *NodeID
	Title       string
	Type        NodeType
	Body        *string
	Placeholder *string
	Position    int
}

// Add inserts a node and returns its identifier. The depth limit is
// checked before anything is linked.
func (b *Book) Add(req AddRequest) (NodeID, error) {
	depth := 1
	if req.Parent != nil {
		if _, ok := b.nodes[*req.Parent]; !ok {
			return NodeID{}, notFound(*req.Parent)
		}
		depth = b.Depth(*req.Parent) + 1
	}

	id := NewNodeID()
	if depth > b.maxDepth {
		return NodeID{}, &DepthError{NodeID: id, Max: b.maxDepth}
	}

	n := &Node{
		id:          id,
		title:       req.Title,
		nodeType:    req.Type,
		body:        cloneString(req.Body),
		placeholder: cloneString(req.Placeholder),
	}
	b.nodes[id] = n
	b.attach(n, req.Parent, req.Position)
	return id, nil
}

// UpdateRequest changes node attributes. Nil Title/Type leave them as they
// are; Body and Placeholder distinguish keep, set and clear.
type UpdateRequest struct {
	Title       *string
	Type        *NodeType
	Body        Patch[string]
	Placeholder Patch[string]
}

// Update edits a node in place. Type changes are not revalidated.
func (b *Book) Update(id NodeID, req UpdateRequest) error {
	n, ok := b.nodes[id]
	if !ok {
		return notFound(id)
	}
	if req.Title != nil {
		n.title = *req.Title
	}
	if req.Type != nil {
		n.nodeType = *req.Type
	}
	n.body = req.Body.apply(n.body)
	n.placeholder = req.Placeholder.apply(n.placeholder)
	return nil
}

// Move re-parents id (and its subtree) under newParent, or to the root list
// when newParent is nil. All checks run before the tree is touched.
func (b *Book) Move(id NodeID, newParent *NodeID, position int) error {
	if err := b.validateMove(id, newParent); err != nil {
		return err
	}
	n := b.nodes[id]
	b.detach(n)
	b.attach(n, newParent, position)
	return nil
}

// Remove deletes id together with every descendant.
func (b *Book) Remove(id NodeID) error {
	n, ok := b.nodes[id]
	if !ok {
		return notFound(id)
	}
	doomed := b.Subtree(id)
	b.detach(n)
	for _, d := range doomed {
		delete(b.nodes, d.id)
	}
	return nil
}

// Depth returns the depth of id, 1 for a root. The climb stops after
// MaxDepthLimit steps, so a corrupt chain reports that ceiling instead of
// hanging.
func (b *Book) Depth(id NodeID) int {
	depth := 1
	cur := id
	for depth < MaxDepthLimit {
		n, ok := b.nodes[cur]
		if !ok || n.parent == nil {
			break
		}
		depth++
		cur = *n.parent
	}
	return depth
}

// Nodes returns every node in depth-first, sibling order.
func (b *Book) Nodes() []*Node {
	var out []*Node
	b.walk(b.roots, func(n *Node, _ int) { out = append(out, n) })
	return out
}

// Subtree returns root and its descendants in depth-first, sibling order.
// It is empty when root does not exist.
func (b *Book) Subtree(root NodeID) []*Node {
	var out []*Node
	b.walk([]NodeID{root}, func(n *Node, _ int) { out = append(out, n) })
	return out
}

// walk visits nodes reachable from starts in depth-first order. level is 0
// for the starting nodes. A node is visited at most once.
func (b *Book) walk(starts []NodeID, visit func(n *Node, level int)) {
	type frame struct {
		id    NodeID
		level int
	}
	stack := make([]frame, 0, len(starts))
	for i := len(starts) - 1; i >= 0; i-- {
		stack = append(stack, frame{id: starts[i]})
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
		visit(n, f.level)
		for i := len(n.children) - 1; i >= 0; i-- {
			stack = append(stack, frame{id: n.children[i], level: f.level + 1})
		}
	}
}

func (b *Book) validateMove(id NodeID, newParent *NodeID) error {
	if _, ok := b.nodes[id]; !ok {
		return notFound(id)
	}
	base := 1
	if newParent != nil {
		if _, ok := b.nodes[*newParent]; !ok {
			return notFound(*newParent)
		}
		if *newParent == id || b.isDescendant(*newParent, id) {
			return fmt.Errorf("%w: %s", ErrCyclicMove, id)
		}
		base = b.Depth(*newParent) + 1
	}
	if base+b.subtreeHeight(id) > b.maxDepth {
		return &DepthError{NodeID: id, Max: b.maxDepth}
	}
	return nil
}

// isDescendant reports whether ancestor appears on node's parent chain.
func (b *Book) isDescendant(node, ancestor NodeID) bool {
	cur := node
	for range MaxDepthLimit {
		n, ok := b.nodes[cur]
		if !ok || n.parent == nil {
			return false
		}
		if *n.parent == ancestor {
			return true
		}
		cur = *n.parent
	}
	return false
}

// subtreeHeight is the number of levels below id: 0 for a leaf.
func (b *Book) subtreeHeight(id NodeID) int {
	height := 0
	b.walk([]NodeID{id}, func(_ *Node, level int) {
		height = max(height, level)
	})
	return height
}

func (b *Book) attach(n *Node, parent *NodeID, position int) {
	if parent == nil {
		n.parent = nil
		b.roots = slices.Insert(b.roots, clampPosition(position, len(b.roots)), n.id)
		return
	}
	n.parent = ptr(*parent)
	b.nodes[*parent].insertChild(n.id, position)
}

func (b *Book) detach(n *Node) {
	if n.parent == nil {
		b.roots = slices.DeleteFunc(b.roots, func(r NodeID) bool { return r == n.id })
		return
	}
	if p, ok := b.nodes[*n.parent]; ok {
		p.removeChild(n.id)
	}
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	return ptr(*s)
}
