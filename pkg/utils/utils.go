package utils

import (
	"fmt"
	"math/rand"
	"net/url"
	"strings"
)

// Windows-illegal filename characters and their full-width stand-ins. Chapter
// titles become filenames and bookstore keys, so the replacement must be
// reversible-looking rather than lossy.
var filenameReplacer = strings.NewReplacer(
	"<", "＜",
	">", "＞",
	":", "：",
	`"`, "＂",
	"/", "／",
	`\`, "＼",
	"|", "｜",
	"?", "？",
	"*", "＊",
)

// SanitizeFilename replaces characters that are invalid in filenames with
// their full-width equivalents.
func SanitizeFilename(name string) string {
	return filenameReplacer.Replace(name)
}

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/93.0.4577.63 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:91.0) Gecko/20100101 Firefox/91.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/93.0.4577.63 Safari/537.36 Edg/93.0.961.47",
}

// RandomUserAgent picks one of the browser user agents the site tolerates.
func RandomUserAgent() string {
	return userAgents[rand.Intn(len(userAgents))]
}

// ParseNovelID extracts the numeric book id from a raw argument, which may be
// the id itself or a full book page URL.
func ParseNovelID(arg string) (string, error) {
	s := strings.TrimSpace(arg)
	if u, err := url.Parse(s); err == nil && u.Host != "" {
		path := strings.Trim(u.Path, "/")
		if i := strings.LastIndex(path, "/"); i >= 0 {
			path = path[i+1:]
		}
		s = path
	}
	if s == "" {
		return "", fmt.Errorf("no book id in %q", arg)
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("book id %q is not numeric", s)
		}
	}
	return s, nil
}
