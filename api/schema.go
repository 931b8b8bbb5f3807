package api

// Tree is the portable, nested form of a book. It is what export writes and
// import reads; identifiers are informational and regenerated on import.
type Tree struct {
	// Title of the book.
	Title string `json:"title"`
	// MaxDepth is the deepest level a node may occupy (roots are level 1).
	MaxDepth int `json:"max_depth"`
	// Nodes are the roots, in sibling order.
	Nodes []Node `json:"nodes"`
}

// Node is one entry of the tree.
// Type is "section" or "content"; legacy files may also carry
// "checklist", "reference" or "runnable", which read as content.
type Node struct {
	// ID of the node at export time.
	ID string `json:"id"`
	// Title shown in the table of contents.
	Title string `json:"title"`
	// Type selects how the node renders.
	Type string `json:"node_type"`
	// Body is free text, rendered under content entries.
	Body *string `json:"body,omitempty"`
	// Placeholder is a fill-in hint (optional).
	Placeholder *string `json:"placeholder,omitempty"`
	// Children in sibling order.
	Children []Node `json:"children,omitempty"`
}
