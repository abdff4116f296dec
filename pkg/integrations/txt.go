package integrations

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kerbaras/fanqie/pkg/data"
	"github.com/kerbaras/fanqie/pkg/utils"
)

// SingleTXT writes the whole book into one plain text file.
type SingleTXT struct {
	Dir    string
	Indent string
}

func (r *SingleTXT) Render(book *data.Book) (string, error) {
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	var sb strings.Builder
	for _, ch := range book.Chapters {
		if ch.Content == "" {
			continue
		}
		sb.WriteString("\n")
		sb.WriteString(ch.Title)
		sb.WriteString("\n")
		sb.WriteString(indentLines(ch.Content, r.Indent))
		sb.WriteString("\n")
	}

	path := filepath.Join(r.Dir, utils.SanitizeFilename(book.Title)+".txt")
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// SplitTXT writes one text file per chapter inside a directory named after
// the book.
type SplitTXT struct {
	Dir    string
	Indent string
}

func (r *SplitTXT) Render(book *data.Book) (string, error) {
	dir := filepath.Join(r.Dir, utils.SanitizeFilename(book.Title))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	for _, ch := range book.Chapters {
		if ch.Content == "" {
			continue
		}
		path := filepath.Join(dir, utils.SanitizeFilename(ch.Title)+".txt")
		body := ch.Title + "\n\n" + indentLines(ch.Content, r.Indent) + "\n"
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			return "", fmt.Errorf("write %s: %w", path, err)
		}
	}
	return dir, nil
}
