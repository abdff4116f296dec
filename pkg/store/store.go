// Package store persists recovered chapter text, one JSON record per book.
//
// A record is a flat object: a reserved "_metadata" key plus one key per
// recovered chapter title. Presence of a title with non-empty content means
// the chapter is recovered and is never fetched again, which is what makes
// interrupted runs resumable.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
	"gocloud.dev/gcerrors"

	"github.com/kerbaras/fanqie/pkg/utils"
)

// MetadataKey is reserved inside every record; a chapter may not use it as a
// title.
const MetadataKey = "_metadata"

// ErrReservedKey is returned when a chapter title collides with MetadataKey.
var ErrReservedKey = errors.New("store: chapter title collides with reserved metadata key")

// Metadata describes the book a record belongs to. It is overwritten on every
// run; chapter entries are append-only.
type Metadata struct {
	NovelID     string `json:"novel_id"`
	Name        string `json:"name"`
	Status      string `json:"status"`
	LastUpdated string `json:"last_updated"`
}

// Record is the in-memory form of one book's persisted content.
type Record struct {
	Meta     Metadata
	chapters map[string]string
}

// NewRecord returns an empty record carrying the given metadata.
func NewRecord(meta Metadata) *Record {
	return &Record{Meta: meta, chapters: make(map[string]string)}
}

// Has reports whether the chapter is already recovered.
func (r *Record) Has(title string) bool {
	return r.chapters[title] != ""
}

// Get returns the recovered content for a chapter, if any.
func (r *Record) Get(title string) (string, bool) {
	content, ok := r.chapters[title]
	return content, ok && content != ""
}

// Put stores recovered content for a chapter.
func (r *Record) Put(title, content string) error {
	if title == MetadataKey {
		return ErrReservedKey
	}
	r.chapters[title] = content
	return nil
}

// Len is the number of recovered chapters.
func (r *Record) Len() int {
	return len(r.chapters)
}

// SetMetadata overwrites the metadata block, keeping every chapter entry.
func (r *Record) SetMetadata(meta Metadata) {
	r.Meta = meta
}

// Clone returns an independent copy, so workers can fold results into a
// snapshot without racing a concurrent save.
func (r *Record) Clone() *Record {
	out := NewRecord(r.Meta)
	for title, content := range r.chapters {
		out.chapters[title] = content
	}
	return out
}

// MarshalJSON writes the flat record layout: metadata and chapter entries in
// one object.
func (r *Record) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(r.chapters)+1)
	flat[MetadataKey] = r.Meta
	for title, content := range r.chapters {
		flat[title] = content
	}
	return json.Marshal(flat)
}

// UnmarshalJSON reads the flat record layout. Unknown non-string values are
// rejected rather than silently dropped.
func (r *Record) UnmarshalJSON(data []byte) error {
	var flat map[string]json.RawMessage
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}
	r.chapters = make(map[string]string, len(flat))
	for key, raw := range flat {
		if key == MetadataKey {
			if err := json.Unmarshal(raw, &r.Meta); err != nil {
				return fmt.Errorf("store: bad metadata block: %w", err)
			}
			continue
		}
		var content string
		if err := json.Unmarshal(raw, &content); err != nil {
			return fmt.Errorf("store: bad chapter entry %q: %w", key, err)
		}
		r.chapters[key] = content
	}
	return nil
}

// Store reads and writes book records in a blob bucket.
type Store struct {
	bucket *blob.Bucket
}

// New wraps an open bucket. Tests pass a memblob bucket.
func New(bucket *blob.Bucket) *Store {
	return &Store{bucket: bucket}
}

// OpenDir opens a file-backed store rooted at dir, creating it if needed.
func OpenDir(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create bookstore dir: %w", err)
	}
	bucket, err := fileblob.OpenBucket(dir, nil)
	if err != nil {
		return nil, fmt.Errorf("open bookstore bucket: %w", err)
	}
	return &Store{bucket: bucket}, nil
}

// Key derives the record key for a book title.
func Key(title string) string {
	return utils.SanitizeFilename(title) + ".json"
}

// Load reads the record stored under key. A missing record yields an empty
// one, so first downloads and resumed downloads share a code path.
func (s *Store) Load(ctx context.Context, key string) (*Record, error) {
	data, err := s.bucket.ReadAll(ctx, key)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return NewRecord(Metadata{}), nil
		}
		return nil, fmt.Errorf("load record %s: %w", key, err)
	}
	record := NewRecord(Metadata{})
	if err := json.Unmarshal(data, record); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", key, err)
	}
	return record, nil
}

// Save atomically replaces the record stored under key. Safe to call
// repeatedly mid-run; each call is a full checkpoint.
func (s *Store) Save(ctx context.Context, key string, record *Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode record %s: %w", key, err)
	}
	if err := s.bucket.WriteAll(ctx, key, data, nil); err != nil {
		return fmt.Errorf("save record %s: %w", key, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.bucket.Close()
}
