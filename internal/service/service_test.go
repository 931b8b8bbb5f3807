package service

import (
	"errors"
	"testing"

	"github.com/agentic-research/outline/internal/outline"
	"github.com/agentic-research/outline/internal/store"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStore records how often Save reaches the underlying store.
type countingStore struct {
	store.Store
	saves   int
	failErr error
}

func (c *countingStore) Save(b *outline.Book) error {
	if c.failErr != nil {
		return c.failErr
	}
	c.saves++
	return c.Store.Save(b)
}

func newService(t *testing.T) (*BookService, *countingStore) {
	t.Helper()
	cs := &countingStore{Store: store.NewFileShelf(memfs.New()).Book("test")}
	return New(cs), cs
}

func TestBookService_RequiresBook(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.AddNode(outline.AddRequest{Title: "x"})
	assert.ErrorIs(t, err, ErrBookNotFound)
	_, err = svc.ReadTree()
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestBookService_CRUD(t *testing.T) {
	svc, cs := newService(t)
	_, err := svc.CreateBook("Runbook", 3)
	require.NoError(t, err)

	parent, err := svc.AddNode(outline.AddRequest{Title: "Phase 1", Type: outline.Section, Position: outline.AppendPosition})
	require.NoError(t, err)
	child, err := svc.AddNode(outline.AddRequest{Parent: &parent, Title: "Task", Type: outline.Content, Position: outline.AppendPosition})
	require.NoError(t, err)

	title := "Task renamed"
	require.NoError(t, svc.UpdateNode(child, outline.UpdateRequest{Title: &title, Body: outline.Set("do it")}))
	require.NoError(t, svc.MoveNode(child, nil, 0))

	b, err := svc.ReadTree()
	require.NoError(t, err)
	assert.Equal(t, []outline.NodeID{child, parent}, b.Roots())
	n, _ := b.Node(child)
	assert.Equal(t, "Task renamed", n.Title())
	body, _ := n.Body()
	assert.Equal(t, "do it", body)

	require.NoError(t, svc.RemoveNode(parent))
	b, err = svc.ReadTree()
	require.NoError(t, err)
	assert.Equal(t, 1, b.NodeCount())
	assert.Equal(t, 6, cs.saves)
}

func TestBookService_FailedMutationIsNotSaved(t *testing.T) {
	svc, cs := newService(t)
	_, err := svc.CreateBook("Shallow", 1)
	require.NoError(t, err)
	root, err := svc.AddNode(outline.AddRequest{Title: "only", Position: outline.AppendPosition})
	require.NoError(t, err)
	before := cs.saves

	_, err = svc.AddNode(outline.AddRequest{Parent: &root, Title: "too deep"})
	assert.ErrorIs(t, err, outline.ErrDepthExceeded)
	assert.ErrorIs(t, svc.MoveNode(root, &root, 0), outline.ErrCyclicMove)
	assert.ErrorIs(t, svc.RemoveNode(outline.NewNodeID()), outline.ErrNotFound)
	assert.Equal(t, before, cs.saves)

	b, err := svc.ReadTree()
	require.NoError(t, err)
	assert.Equal(t, 1, b.NodeCount())
}

func TestBookService_StoreErrorPropagates(t *testing.T) {
	svc, cs := newService(t)
	_, err := svc.CreateBook("x", 2)
	require.NoError(t, err)

	boom := &store.Error{Op: "save", Slug: "test", Err: errors.New("disk full")}
	cs.failErr = boom
	_, err = svc.AddNode(outline.AddRequest{Title: "y"})
	assert.ErrorIs(t, err, store.ErrStore)
	assert.Contains(t, err.Error(), "disk full")
}

func TestBookService_CreateRejectsInvalidMaxDepth(t *testing.T) {
	svc, cs := newService(t)
	_, err := svc.CreateBook("x", 0)
	assert.ErrorIs(t, err, outline.ErrInvalidMaxDepth)
	assert.Zero(t, cs.saves)
}

func TestBookService_SaveBookReplaces(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.CreateBook("old", 2)
	require.NoError(t, err)

	replacement, err := outline.New("new", 4)
	require.NoError(t, err)
	require.NoError(t, svc.SaveBook(replacement))

	b, err := svc.ReadTree()
	require.NoError(t, err)
	assert.Equal(t, "new", b.Title())
	assert.Equal(t, replacement.ID(), b.ID())
}
