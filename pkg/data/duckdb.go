package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/marcboeker/go-duckdb/v2"
)

const librarySchema = `
CREATE TABLE IF NOT EXISTS novels (
  id TEXT PRIMARY KEY,
  title TEXT,
  status TEXT,
  last_updated TIMESTAMP
)`

// LibraryEntry is one registered novel.
type LibraryEntry struct {
	ID          string
	Title       string
	Status      string
	LastUpdated time.Time
}

// Library registers every novel that has been downloaded at least once, so
// `update` can re-run them and `list` can show them.
type Library struct {
	db *sql.DB
}

// OpenLibrary opens (or creates) the library database at path. An empty path
// opens an in-memory database.
func OpenLibrary(path string) (*Library, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open library db: %w", err)
	}
	if _, err := db.Exec(librarySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate library db: %w", err)
	}
	return &Library{db: db}, nil
}

// Upsert records a novel, replacing any previous row for the same id.
func (l *Library) Upsert(ctx context.Context, book *Book) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO novels (id, title, status, last_updated)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
		  title = excluded.title,
		  status = excluded.status,
		  last_updated = excluded.last_updated
	`, book.ID, book.Title, book.Status, time.Now())
	if err != nil {
		return fmt.Errorf("upsert novel %s: %w", book.ID, err)
	}
	return nil
}

// List returns all registered novels, most recently updated first.
func (l *Library) List(ctx context.Context) ([]LibraryEntry, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, title, status, last_updated
		FROM novels
		ORDER BY last_updated DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list novels: %w", err)
	}
	defer rows.Close()

	var entries []LibraryEntry
	for rows.Next() {
		var e LibraryEntry
		if err := rows.Scan(&e.ID, &e.Title, &e.Status, &e.LastUpdated); err != nil {
			return nil, fmt.Errorf("scan novel row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Delete removes a novel from the registry. The bookstore record stays.
func (l *Library) Delete(ctx context.Context, id string) error {
	if _, err := l.db.ExecContext(ctx, `DELETE FROM novels WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete novel %s: %w", id, err)
	}
	return nil
}

func (l *Library) Close() error {
	return l.db.Close()
}
