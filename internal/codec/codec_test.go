package codec

import (
	"encoding/json"
	"testing"

	"github.com/agentic-research/outline/api"
	"github.com/agentic-research/outline/internal/outline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func add(t *testing.T, b *outline.Book, parent *outline.NodeID, title string, typ outline.NodeType, body, ph *string) outline.NodeID {
	t.Helper()
	id, err := b.Add(outline.AddRequest{
		Parent:      parent,
		Title:       title,
		Type:        typ,
		Body:        body,
		Placeholder: ph,
		Position:    outline.AppendPosition,
	})
	require.NoError(t, err)
	return id
}

// runbook builds a two-section book:
//
//	1. Design
//	  1-1. Define requirements (placeholder)
//	  1-2. API design (body)
//	2. Implementation
//	  2-1. Write code
//	  2-2. Write tests (list body)
func runbook(t *testing.T) (*outline.Book, map[string]outline.NodeID) {
	t.Helper()
	b, err := outline.New("Dev Runbook", 4)
	require.NoError(t, err)
	ids := map[string]outline.NodeID{}
	design := add(t, b, nil, "Design", outline.Section, nil, nil)
	ids["design"] = design
	ids["requirements"] = add(t, b, &design, "Define requirements", outline.Content, nil, strPtr("requirements list"))
	ids["api"] = add(t, b, &design, "API design", outline.Content, strPtr("REST endpoints"), nil)
	impl := add(t, b, nil, "Implementation", outline.Section, nil, nil)
	ids["implementation"] = impl
	ids["code"] = add(t, b, &impl, "Write code", outline.Content, nil, nil)
	ids["tests"] = add(t, b, &impl, "Write tests", outline.Content, strPtr("- unit\n* integration"), nil)
	return b, ids
}

func TestExport_WholeBook(t *testing.T) {
	b, ids := runbook(t)
	tree, err := Export(b, nil)
	require.NoError(t, err)

	assert.Equal(t, "Dev Runbook", tree.Title)
	assert.Equal(t, 4, tree.MaxDepth)
	require.Len(t, tree.Nodes, 2)

	design := tree.Nodes[0]
	assert.Equal(t, ids["design"].String(), design.ID)
	assert.Equal(t, "section", design.Type)
	assert.Nil(t, design.Body)
	require.Len(t, design.Children, 2)
	assert.Equal(t, "content", design.Children[0].Type)
	assert.Equal(t, "requirements list", *design.Children[0].Placeholder)
	assert.Empty(t, design.Children[0].Children)
}

func TestExport_SubtreeKeepsOnlyRootTitle(t *testing.T) {
	b, ids := runbook(t)
	root := ids["implementation"]
	tree, err := Export(b, &root)
	require.NoError(t, err)

	assert.Equal(t, "Implementation", tree.Title)
	require.Len(t, tree.Nodes, 2)
	assert.Equal(t, "Write code", tree.Nodes[0].Title)
	assert.Equal(t, "Write tests", tree.Nodes[1].Title)
}

func TestExport_MissingSubtreeRoot(t *testing.T) {
	b, _ := runbook(t)
	missing := outline.NewNodeID()
	_, err := Export(b, &missing)
	assert.ErrorIs(t, err, outline.ErrNotFound)
}

func TestExport_OmitsEmptyChildren(t *testing.T) {
	b, _ := runbook(t)
	tree, err := Export(b, nil)
	require.NoError(t, err)
	out, err := RenderJSON(tree)
	require.NoError(t, err)

	var raw struct {
		Nodes []map[string]any `json:"nodes"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &raw))
	children := raw.Nodes[0]["children"].([]any)
	leaf := children[0].(map[string]any)
	assert.NotContains(t, leaf, "children")
	assert.NotContains(t, leaf, "body")
	assert.Contains(t, leaf, "placeholder")
}

func TestImport_RoundTrip(t *testing.T) {
	b, _ := runbook(t)
	tree, err := Export(b, nil)
	require.NoError(t, err)

	imported, err := Import(tree)
	require.NoError(t, err)
	assert.Equal(t, b.Title(), imported.Title())
	assert.Equal(t, b.MaxDepth(), imported.MaxDepth())
	assert.Equal(t, b.NodeCount(), imported.NodeCount())
	assert.Len(t, imported.Roots(), len(b.Roots()))

	want, got := b.Nodes(), imported.Nodes()
	require.Len(t, got, len(want))
	for i := range want {
		assert.NotEqual(t, want[i].ID(), got[i].ID(), "identifiers are regenerated")
		assert.Equal(t, want[i].Title(), got[i].Title())
		assert.Equal(t, want[i].Type(), got[i].Type())
		wb, wok := want[i].Body()
		gb, gok := got[i].Body()
		assert.Equal(t, wok, gok)
		assert.Equal(t, wb, gb)
		wp, wok := want[i].Placeholder()
		gp, gok := got[i].Placeholder()
		assert.Equal(t, wok, gok)
		assert.Equal(t, wp, gp)
		assert.Len(t, got[i].Children(), len(want[i].Children()))
	}

	// Export of the import reproduces the tree apart from identifiers.
	again, err := Export(imported, nil)
	require.NoError(t, err)
	assert.Equal(t, stripIDs(tree.Nodes), stripIDs(again.Nodes))
}

func stripIDs(nodes []api.Node) []api.Node {
	out := make([]api.Node, len(nodes))
	for i, n := range nodes {
		n.ID = ""
		n.Children = stripIDs(n.Children)
		if len(n.Children) == 0 {
			n.Children = nil
		}
		out[i] = n
	}
	return out
}

func TestImport_JSONRoundTripIsExact(t *testing.T) {
	b, _ := runbook(t)
	tree, err := Export(b, nil)
	require.NoError(t, err)
	first, err := RenderJSON(tree)
	require.NoError(t, err)

	decoded, err := DecodeTree([]byte(first))
	require.NoError(t, err)
	second, err := RenderJSON(decoded)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestImport_LegacyTypesBecomeContent(t *testing.T) {
	tree := &api.Tree{
		Title:    "Legacy",
		MaxDepth: 3,
		Nodes: []api.Node{
			{Title: "A", Type: "checklist"},
			{Title: "B", Type: "reference"},
			{Title: "C", Type: "runnable"},
		},
	}
	b, err := Import(tree)
	require.NoError(t, err)
	for _, n := range b.Nodes() {
		assert.Equal(t, outline.Content, n.Type(), n.Title())
	}
}

func TestImport_InvalidType(t *testing.T) {
	tree := &api.Tree{
		Title:    "Bad",
		MaxDepth: 4,
		Nodes: []api.Node{
			{Title: "ok", Type: "section", Children: []api.Node{
				{ID: "dummy", Title: "Node", Type: "unknown_type"},
			}},
		},
	}
	_, err := Import(tree)
	require.ErrorIs(t, err, ErrInvalidType)
	assert.Contains(t, err.Error(), "unknown_type")
}

func nested(levels int) []api.Node {
	var node *api.Node
	for i := levels; i > 0; i-- {
		n := api.Node{Title: "level", Type: "section"}
		if node != nil {
			n.Children = []api.Node{*node}
		}
		node = &n
	}
	return []api.Node{*node}
}

func TestImport_RecursionLimit(t *testing.T) {
	for _, maxDepth := range []int{4, 64, outline.MaxDepthLimit} {
		_, err := Import(&api.Tree{Title: "bomb", MaxDepth: maxDepth, Nodes: nested(40)})
		assert.ErrorIs(t, err, ErrRecursionLimit, "max_depth=%d", maxDepth)
		assert.NotErrorIs(t, err, outline.ErrDepthExceeded)
	}
}

func TestImport_NestingAtCeiling(t *testing.T) {
	b, err := Import(&api.Tree{Title: "deep", MaxDepth: MaxImportNesting, Nodes: nested(MaxImportNesting)})
	require.NoError(t, err)
	assert.Equal(t, MaxImportNesting, b.NodeCount())

	_, err = Import(&api.Tree{Title: "deeper", MaxDepth: 64, Nodes: nested(MaxImportNesting + 1)})
	assert.ErrorIs(t, err, ErrRecursionLimit)
}

func TestImport_DepthExceededByDeclaredMax(t *testing.T) {
	_, err := Import(&api.Tree{Title: "shallow", MaxDepth: 2, Nodes: nested(3)})
	assert.ErrorIs(t, err, outline.ErrDepthExceeded)
}

func TestImport_InvalidMaxDepth(t *testing.T) {
	_, err := Import(&api.Tree{Title: "zero", MaxDepth: 0})
	assert.ErrorIs(t, err, outline.ErrInvalidMaxDepth)
}
