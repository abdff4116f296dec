// Package integrations renders a downloaded book into its final artifact.
package integrations

import (
	"fmt"
	"strings"

	"github.com/kerbaras/fanqie/pkg/config"
	"github.com/kerbaras/fanqie/pkg/data"
)

// Renderer writes the artifact for a fully assembled book and returns its
// path. Chapters with empty content (failed downloads) are skipped; the rest
// keep the book's reading order.
type Renderer interface {
	Render(book *data.Book) (string, error)
}

// Options carries book-page extras some renderers can use.
type Options struct {
	Author string
	Cover  []byte
}

// New returns the renderer for the configured save mode.
func New(cfg config.Config, opts Options) (Renderer, error) {
	switch cfg.SaveMode {
	case config.SaveSingleTXT:
		return &SingleTXT{Dir: cfg.SavePath, Indent: cfg.Indent()}, nil
	case config.SaveSplitTXT:
		return &SplitTXT{Dir: cfg.SavePath, Indent: cfg.Indent()}, nil
	case config.SaveEPUB:
		return &EPUB{Dir: cfg.SavePath, Author: opts.Author, Cover: opts.Cover, Indent: cfg.Indent()}, nil
	case config.SaveHTML:
		return &HTML{Dir: cfg.SavePath}, nil
	case config.SaveLaTeX:
		return &LaTeX{Dir: cfg.SavePath, Indent: cfg.Indent()}, nil
	default:
		return nil, fmt.Errorf("integrations: unknown save mode %q", cfg.SaveMode)
	}
}

// indentLines prepends the paragraph placeholder to every non-empty line.
func indentLines(content, indent string) string {
	if indent == "" {
		return content
	}
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = indent + line
		}
	}
	return strings.Join(lines, "\n")
}
