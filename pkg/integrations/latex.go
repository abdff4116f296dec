package integrations

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kerbaras/fanqie/pkg/data"
	"github.com/kerbaras/fanqie/pkg/utils"
)

// LaTeX renders the book as a ctexart document, one section per chapter.
type LaTeX struct {
	Dir    string
	Indent string
}

var latexEscaper = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	`{`, `\{`,
	`}`, `\}`,
	`$`, `\$`,
	`&`, `\&`,
	`#`, `\#`,
	`^`, `\textasciicircum{}`,
	`_`, `\_`,
	`%`, `\%`,
	`~`, `\textasciitilde{}`,
)

func (r *LaTeX) Render(book *data.Book) (string, error) {
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("\\documentclass[UTF8]{ctexart}\n")
	sb.WriteString("\\usepackage{geometry}\n")
	sb.WriteString("\\geometry{a4paper,margin=2.5cm}\n\n")
	sb.WriteString("\\title{" + latexEscaper.Replace(book.Title) + "}\n")
	sb.WriteString("\\author{}\n\\date{}\n\n")
	sb.WriteString("\\begin{document}\n\\maketitle\n\\tableofcontents\n\\newpage\n\n")

	for _, ch := range book.Chapters {
		if ch.Content == "" {
			continue
		}
		sb.WriteString("\\section{" + latexEscaper.Replace(ch.Title) + "}\n\n")
		for _, line := range strings.Split(ch.Content, "\n") {
			if line == "" {
				continue
			}
			sb.WriteString(r.Indent + latexEscaper.Replace(line) + "\n\n")
		}
	}
	sb.WriteString("\\end{document}\n")

	path := filepath.Join(r.Dir, utils.SanitizeFilename(book.Title)+".tex")
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
