// Package service runs book operations as load, mutate, save units over a
// store.Store. Nothing is persisted when the mutation fails.
package service

import (
	"errors"

	"github.com/agentic-research/outline/internal/outline"
	"github.com/agentic-research/outline/internal/store"
)

// ErrBookNotFound is returned when the store holds no book yet.
var ErrBookNotFound = errors.New("book not found")

type BookService struct {
	repo store.Store
}

func New(repo store.Store) *BookService {
	return &BookService{repo: repo}
}

// CreateBook saves a new empty book, replacing any existing one.
func (s *BookService) CreateBook(title string, maxDepth int) (*outline.Book, error) {
	b, err := outline.New(title, maxDepth)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *BookService) AddNode(req outline.AddRequest) (outline.NodeID, error) {
	var id outline.NodeID
	err := s.mutate(func(b *outline.Book) error {
		var err error
		id, err = b.Add(req)
		return err
	})
	return id, err
}

func (s *BookService) UpdateNode(id outline.NodeID, req outline.UpdateRequest) error {
	return s.mutate(func(b *outline.Book) error { return b.Update(id, req) })
}

func (s *BookService) MoveNode(id outline.NodeID, newParent *outline.NodeID, position int) error {
	return s.mutate(func(b *outline.Book) error { return b.Move(id, newParent, position) })
}

// RemoveNode deletes id and its descendants.
func (s *BookService) RemoveNode(id outline.NodeID) error {
	return s.mutate(func(b *outline.Book) error { return b.Remove(id) })
}

// ReadTree loads the current book.
func (s *BookService) ReadTree() (*outline.Book, error) {
	return s.load()
}

// SaveBook persists b as is, for example after an import.
func (s *BookService) SaveBook(b *outline.Book) error {
	return s.repo.Save(b)
}

func (s *BookService) mutate(fn func(*outline.Book) error) error {
	b, err := s.load()
	if err != nil {
		return err
	}
	if err := fn(b); err != nil {
		return err
	}
	return s.repo.Save(b)
}

func (s *BookService) load() (*outline.Book, error) {
	b, err := s.repo.Load()
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrBookNotFound
	}
	return b, nil
}
