package sources

import (
	"context"
	"errors"

	"github.com/kerbaras/fanqie/pkg/data"
)

// ErrNotFound means the book page yielded no recognizable chapter list or
// title. It is fatal to a download run.
var ErrNotFound = errors.New("sources: book not found")

// Source provides everything the download pipeline needs from the remote
// site. GetMarkup is the primary chapter endpoint (reader page HTML);
// GetStructured is the fallback API endpoint returning the content field
// directly. Both return still-obfuscated text.
type Source interface {
	GetBook(ctx context.Context, novelID string) (*data.Book, error)
	GetMarkup(ctx context.Context, remoteID, cookie string) (string, error)
	GetStructured(ctx context.Context, remoteID, cookie string) (string, error)
}

// BookInfo carries the optional book-page extras used by the EPUB renderer.
type BookInfo struct {
	Author   string
	CoverURL string
}
