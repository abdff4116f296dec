package integrations

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"

	"github.com/kerbaras/fanqie/pkg/data"
	"github.com/kerbaras/fanqie/pkg/utils"
)

// HTML renders the book as a directory of linked pages: an index with the
// table of contents plus one page per chapter with prev/next navigation.
type HTML struct {
	Dir string
}

func (r *HTML) Render(book *data.Book) (string, error) {
	dir := filepath.Join(r.Dir, utils.SanitizeFilename(book.Title)+"(html)")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	var rendered []data.Chapter
	for _, ch := range book.Chapters {
		if ch.Content != "" {
			rendered = append(rendered, ch)
		}
	}

	if err := r.writeIndex(dir, book, rendered); err != nil {
		return "", err
	}
	for i, ch := range rendered {
		if err := r.writeChapter(dir, book, rendered, i); err != nil {
			return "", fmt.Errorf("write chapter %q: %w", ch.Title, err)
		}
	}
	return dir, nil
}

func chapterFile(i int) string {
	return fmt.Sprintf("chapter_%04d.html", i+1)
}

func (r *HTML) writeIndex(dir string, book *data.Book, chapters []data.Chapter) error {
	var sb strings.Builder
	title := html.EscapeString(book.Title)
	sb.WriteString("<!DOCTYPE html>\n<html lang=\"zh\">\n<head><meta charset=\"utf-8\"><title>")
	sb.WriteString(title)
	sb.WriteString("</title></head>\n<body>\n<h1>")
	sb.WriteString(title)
	sb.WriteString("</h1>\n<ul>\n")
	for i, ch := range chapters {
		sb.WriteString(fmt.Sprintf("<li><a href=%q>%s</a></li>\n", chapterFile(i), html.EscapeString(ch.Title)))
	}
	sb.WriteString("</ul>\n</body>\n</html>\n")
	return os.WriteFile(filepath.Join(dir, "index.html"), []byte(sb.String()), 0o644)
}

func (r *HTML) writeChapter(dir string, book *data.Book, chapters []data.Chapter, i int) error {
	ch := chapters[i]
	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html lang=\"zh\">\n<head><meta charset=\"utf-8\"><title>")
	sb.WriteString(html.EscapeString(ch.Title))
	sb.WriteString("</title></head>\n<body>\n<h1>")
	sb.WriteString(html.EscapeString(ch.Title))
	sb.WriteString("</h1>\n")
	for _, line := range strings.Split(ch.Content, "\n") {
		if line == "" {
			continue
		}
		sb.WriteString("<p>")
		sb.WriteString(html.EscapeString(line))
		sb.WriteString("</p>\n")
	}

	sb.WriteString("<nav>")
	if i > 0 {
		sb.WriteString(fmt.Sprintf("<a href=%q>上一章</a> ", chapterFile(i-1)))
	}
	sb.WriteString(`<a href="index.html">目录</a>`)
	if i < len(chapters)-1 {
		sb.WriteString(fmt.Sprintf(" <a href=%q>下一章</a>", chapterFile(i+1)))
	}
	sb.WriteString("</nav>\n</body>\n</html>\n")
	return os.WriteFile(filepath.Join(dir, chapterFile(i)), []byte(sb.String()), 0o644)
}
