package store

import (
	"encoding/json"
	"errors"
	"os"
	"sort"
	"strings"

	"github.com/agentic-research/outline/internal/outline"
	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

const bookExt = ".json"

// FileShelf keeps one "<slug>.json" file per book at the root of a
// billy.Filesystem.
type FileShelf struct {
	fs billy.Filesystem
}

func NewFileShelf(fs billy.Filesystem) *FileShelf {
	return &FileShelf{fs: fs}
}

func (s *FileShelf) List() ([]string, error) {
	entries, err := s.fs.ReadDir(".")
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, &Error{Op: "list", Err: err}
	}
	slugs := []string{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		slug, ok := strings.CutSuffix(e.Name(), bookExt)
		if !ok || ValidateSlug(slug) != nil {
			continue
		}
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	return slugs, nil
}

func (s *FileShelf) Exists(slug string) (bool, error) {
	_, err := s.fs.Stat(slug + bookExt)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, &Error{Op: "stat", Slug: slug, Err: err}
}

func (s *FileShelf) Book(slug string) Store {
	return &fileStore{fs: s.fs, slug: slug}
}

func (s *FileShelf) Close() error { return nil }

type fileStore struct {
	fs   billy.Filesystem
	slug string
}

func (f *fileStore) path() string { return f.slug + bookExt }

func (f *fileStore) Load() (*outline.Book, error) {
	if err := ValidateSlug(f.slug); err != nil {
		return nil, &Error{Op: "load", Slug: f.slug, Err: err}
	}
	data, err := util.ReadFile(f.fs, f.path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, &Error{Op: "load", Slug: f.slug, Err: err}
	}
	var b outline.Book
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, &Error{Op: "load", Slug: f.slug, Err: err}
	}
	return &b, nil
}

// Save writes to a temporary file and renames it over the book, so a
// crash never leaves a half-written book behind.
func (f *fileStore) Save(b *outline.Book) error {
	if err := ValidateSlug(f.slug); err != nil {
		return &Error{Op: "save", Slug: f.slug, Err: err}
	}
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return &Error{Op: "save", Slug: f.slug, Err: err}
	}
	tmp := f.path() + ".tmp"
	if err := util.WriteFile(f.fs, tmp, data, 0o644); err != nil {
		return &Error{Op: "save", Slug: f.slug, Err: err}
	}
	if err := f.fs.Rename(tmp, f.path()); err != nil {
		_ = f.fs.Remove(tmp)
		return &Error{Op: "save", Slug: f.slug, Err: err}
	}
	return nil
}
