package integrations

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-shiori/go-epub"

	"github.com/kerbaras/fanqie/pkg/data"
	"github.com/kerbaras/fanqie/pkg/utils"
)

// EPUB renders the book as a single EPUB file, with the site cover embedded
// when one was fetched.
type EPUB struct {
	Dir    string
	Author string
	Cover  []byte
	Indent string
}

func (r *EPUB) Render(book *data.Book) (string, error) {
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	e, err := epub.NewEpub(book.Title)
	if err != nil {
		return "", fmt.Errorf("create epub: %w", err)
	}
	if r.Author != "" {
		e.SetAuthor(r.Author)
	}
	e.SetLang("zh")

	if len(r.Cover) > 0 {
		tmp, err := r.addCover(e)
		if err != nil {
			return "", err
		}
		// The library reads image sources from disk at write time, so the
		// temp file must outlive e.Write.
		defer os.Remove(tmp)
	}

	for _, ch := range book.Chapters {
		if ch.Content == "" {
			continue
		}
		if _, err := e.AddSection(r.chapterHTML(ch), ch.Title, "", ""); err != nil {
			return "", fmt.Errorf("add chapter %q: %w", ch.Title, err)
		}
	}

	path := filepath.Join(r.Dir, utils.SanitizeFilename(book.Title)+".epub")
	if err := e.Write(path); err != nil {
		return "", fmt.Errorf("write epub: %w", err)
	}
	return path, nil
}

// addCover downscales the cover and stages it in a temp file for the epub,
// returning the temp path so the caller can remove it after writing.
func (r *EPUB) addCover(e *epub.Epub) (string, error) {
	cover, err := downscaleCover(r.Cover)
	if err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp("", "fanqie-cover-*.jpg")
	if err != nil {
		return "", fmt.Errorf("cover temp file: %w", err)
	}
	if _, err := tmp.Write(cover); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("cover temp file: %w", err)
	}
	tmp.Close()

	internal, err := e.AddImage(tmp.Name(), "cover.jpg")
	if err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("embed cover: %w", err)
	}
	if err := e.SetCover(internal, ""); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("set cover: %w", err)
	}
	return tmp.Name(), nil
}

func (r *EPUB) chapterHTML(ch data.Chapter) string {
	var sb strings.Builder
	sb.WriteString("<h1>")
	sb.WriteString(html.EscapeString(ch.Title))
	sb.WriteString("</h1>\n")
	for _, line := range strings.Split(ch.Content, "\n") {
		if line == "" {
			continue
		}
		sb.WriteString("<p>")
		sb.WriteString(html.EscapeString(r.Indent + line))
		sb.WriteString("</p>\n")
	}
	return sb.String()
}
