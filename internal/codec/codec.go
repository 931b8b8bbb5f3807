// Package codec converts between a Book and its portable forms: the nested
// api.Tree (export and import), a Markdown checklist, and JSONPath queries
// over the exported tree.
package codec

import (
	"errors"
	"fmt"

	"github.com/agentic-research/outline/api"
	"github.com/agentic-research/outline/internal/outline"
)

// MaxImportNesting bounds how deeply an imported tree may nest, regardless
// of the max depth the tree declares for itself. Roots are level 0.
const MaxImportNesting = 32

var (
	ErrInvalidType    = errors.New("invalid node type")
	ErrRecursionLimit = errors.New("import nesting limit exceeded")
)

// legacyTypes are retired tags that still read as content.
var legacyTypes = map[string]bool{
	"checklist": true,
	"reference": true,
	"runnable":  true,
}

// Export builds the nested tree for the whole book, or for the children of
// subtreeRoot when it is non-nil. A subtree export carries the subtree
// root's title and nothing else of that node.
func Export(b *outline.Book, subtreeRoot *outline.NodeID) (*api.Tree, error) {
	tree := &api.Tree{
		Title:    b.Title(),
		MaxDepth: b.MaxDepth(),
		Nodes:    []api.Node{},
	}
	roots := b.Roots()
	if subtreeRoot != nil {
		n, ok := b.Node(*subtreeRoot)
		if !ok {
			return nil, fmt.Errorf("%w: %s", outline.ErrNotFound, *subtreeRoot)
		}
		tree.Title = n.Title()
		roots = n.Children()
	}
	for _, id := range roots {
		if n, ok := exportNode(b, id, 0); ok {
			tree.Nodes = append(tree.Nodes, n)
		}
	}
	return tree, nil
}

func exportNode(b *outline.Book, id outline.NodeID, level int) (api.Node, bool) {
	n, ok := b.Node(id)
	if !ok || level >= outline.MaxDepthLimit {
		return api.Node{}, false
	}
	out := api.Node{
		ID:    id.String(),
		Title: n.Title(),
		Type:  n.Type().String(),
	}
	if body, ok := n.Body(); ok {
		out.Body = &body
	}
	if ph, ok := n.Placeholder(); ok {
		out.Placeholder = &ph
	}
	for _, c := range n.Children() {
		if child, ok := exportNode(b, c, level+1); ok {
			out.Children = append(out.Children, child)
		}
	}
	return out, true
}

// Import builds a new book from tree. Node identifiers in tree are ignored;
// every node gets a fresh one. Nesting and type tags are validated for the
// whole tree before any node is inserted.
func Import(tree *api.Tree) (*outline.Book, error) {
	for _, n := range tree.Nodes {
		if err := checkNode(n, 0); err != nil {
			return nil, err
		}
	}

	b, err := outline.New(tree.Title, tree.MaxDepth)
	if err != nil {
		return nil, err
	}
	for _, n := range tree.Nodes {
		if err := importNode(b, nil, n, 0); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func checkNode(n api.Node, level int) error {
	if level >= MaxImportNesting {
		return fmt.Errorf("%w: node %q at level %d (limit %d)", ErrRecursionLimit, n.Title, level, MaxImportNesting)
	}
	if _, err := parseType(n.Type); err != nil {
		return err
	}
	for _, c := range n.Children {
		if err := checkNode(c, level+1); err != nil {
			return err
		}
	}
	return nil
}

func importNode(b *outline.Book, parent *outline.NodeID, n api.Node, level int) error {
	if level >= MaxImportNesting {
		return fmt.Errorf("%w: node %q at level %d (limit %d)", ErrRecursionLimit, n.Title, level, MaxImportNesting)
	}
	t, err := parseType(n.Type)
	if err != nil {
		return err
	}
	id, err := b.Add(outline.AddRequest{
		Parent:      parent,
		Title:       n.Title,
		Type:        t,
		Body:        n.Body,
		Placeholder: n.Placeholder,
		Position:    outline.AppendPosition,
	})
	if err != nil {
		return fmt.Errorf("import %q: %w", n.Title, err)
	}
	for _, c := range n.Children {
		if err := importNode(b, &id, c, level+1); err != nil {
			return err
		}
	}
	return nil
}

func parseType(tag string) (outline.NodeType, error) {
	if legacyTypes[tag] {
		return outline.Content, nil
	}
	t, err := outline.ParseNodeType(tag)
	if err != nil {
		return 0, fmt.Errorf("%w: '%s'", ErrInvalidType, tag)
	}
	return t, nil
}
