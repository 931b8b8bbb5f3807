package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/agentic-research/outline/internal/outline"
	_ "modernc.org/sqlite"
)

// SQLiteShelf keeps every book as one row of a single SQLite table. The
// book itself is stored in its JSON form; title and node count are
// denormalized for listing.
type SQLiteShelf struct {
	db *sql.DB
}

// OpenSQLiteShelf opens (or creates) the database at dbPath.
func OpenSQLiteShelf(dbPath string) (*SQLiteShelf, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, &Error{Op: "open", Err: fmt.Errorf("open sqlite %s: %w", dbPath, err)}
	}
	// Single connection: writes are serialized.
	db.SetMaxOpenConns(1)

	schema := `
	CREATE TABLE IF NOT EXISTS books (
		slug TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		node_count INTEGER NOT NULL,
		data JSON NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, &Error{Op: "open", Err: fmt.Errorf("create schema: %w", err)}
	}
	return &SQLiteShelf{db: db}, nil
}

func (s *SQLiteShelf) List() ([]string, error) {
	rows, err := s.db.Query("SELECT slug FROM books ORDER BY slug")
	if err != nil {
		return nil, &Error{Op: "list", Err: err}
	}
	defer func() { _ = rows.Close() }()

	slugs := []string{}
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return nil, &Error{Op: "list", Err: err}
		}
		slugs = append(slugs, slug)
	}
	if err := rows.Err(); err != nil {
		return nil, &Error{Op: "list", Err: err}
	}
	return slugs, nil
}

func (s *SQLiteShelf) Exists(slug string) (bool, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM books WHERE slug = ?", slug).Scan(&n); err != nil {
		return false, &Error{Op: "stat", Slug: slug, Err: err}
	}
	return n > 0, nil
}

func (s *SQLiteShelf) Book(slug string) Store {
	return &sqliteStore{db: s.db, slug: slug}
}

func (s *SQLiteShelf) Close() error {
	return s.db.Close()
}

type sqliteStore struct {
	db   *sql.DB
	slug string
}

func (st *sqliteStore) Load() (*outline.Book, error) {
	var data string
	err := st.db.QueryRow("SELECT data FROM books WHERE slug = ?", st.slug).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &Error{Op: "load", Slug: st.slug, Err: err}
	}
	var b outline.Book
	if err := json.Unmarshal([]byte(data), &b); err != nil {
		return nil, &Error{Op: "load", Slug: st.slug, Err: err}
	}
	return &b, nil
}

func (st *sqliteStore) Save(b *outline.Book) error {
	if err := ValidateSlug(st.slug); err != nil {
		return &Error{Op: "save", Slug: st.slug, Err: err}
	}
	data, err := json.Marshal(b)
	if err != nil {
		return &Error{Op: "save", Slug: st.slug, Err: err}
	}
	_, err = st.db.Exec(`
		INSERT INTO books (slug, title, node_count, data, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(slug) DO UPDATE SET
			title = excluded.title,
			node_count = excluded.node_count,
			data = excluded.data,
			updated_at = excluded.updated_at
	`, st.slug, b.Title(), b.NodeCount(), string(data), time.Now().Unix())
	if err != nil {
		return &Error{Op: "save", Slug: st.slug, Err: err}
	}
	return nil
}
