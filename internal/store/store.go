// Package store persists books. A Shelf holds many books keyed by slug;
// each slug yields a Store that loads and saves one whole book at a time.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/agentic-research/outline/internal/outline"
	"github.com/go-git/go-billy/v5/osfs"
)

// ErrStore matches every failure reported by a Store or Shelf.
var ErrStore = errors.New("store error")

// Error carries the failed operation and the book it concerned.
type Error struct {
	Op   string
	Slug string
	Err  error
}

func (e *Error) Error() string {
	if e.Slug == "" {
		return fmt.Sprintf("store %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("store %s %s: %v", e.Op, e.Slug, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == ErrStore }

// Store loads and saves a single book.
type Store interface {
	// Load returns nil, nil when the book does not exist yet.
	Load() (*outline.Book, error)
	Save(b *outline.Book) error
}

// Shelf is a collection of books addressed by slug.
type Shelf interface {
	// List returns every slug in ascending order.
	List() ([]string, error)
	Exists(slug string) (bool, error)
	Book(slug string) Store
	Close() error
}

var slugRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidateSlug accepts non-empty slugs of ASCII letters, digits, '-' and '_'.
func ValidateSlug(slug string) error {
	if !slugRe.MatchString(slug) {
		return fmt.Errorf("invalid slug %q: use only letters, digits, '-' and '_'", slug)
	}
	return nil
}

// Backend names accepted by Open.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// SQLiteFile is the database file name inside the shelf directory.
const SQLiteFile = "shelf.db"

// Open returns the shelf rooted at dir, creating the directory if needed.
func Open(backend, dir string) (Shelf, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &Error{Op: "open", Err: err}
	}
	switch backend {
	case BackendJSON, "":
		return NewFileShelf(osfs.New(dir)), nil
	case BackendSQLite:
		return OpenSQLiteShelf(filepath.Join(dir, SQLiteFile))
	default:
		return nil, &Error{Op: "open", Err: fmt.Errorf("unknown backend %q (use: %s, %s)", backend, BackendJSON, BackendSQLite)}
	}
}
