package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/kerbaras/fanqie/pkg/data"
	"github.com/kerbaras/fanqie/pkg/utils"
)

const defaultBaseURL = "https://fanqienovel.com"

// Fanqie talks to fanqienovel.com.
type Fanqie struct {
	api *utils.API
}

func NewFanqie(timeout time.Duration) *Fanqie {
	return NewFanqieWithBase(defaultBaseURL, timeout)
}

// NewFanqieWithBase exists for tests pointing at an httptest server.
func NewFanqieWithBase(baseURL string, timeout time.Duration) *Fanqie {
	return &Fanqie{api: utils.NewAPI(baseURL, timeout)}
}

// GetBook fetches the book page and extracts title, serialization status and
// the ordered chapter list. An unrecognizable page yields ErrNotFound.
func (f *Fanqie) GetBook(ctx context.Context, novelID string) (*data.Book, error) {
	body, err := f.api.GetHTML(ctx, "/page/"+novelID, "")
	if err != nil {
		return nil, fmt.Errorf("fetch book page %s: %w", novelID, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse book page %s: %w", novelID, err)
	}

	var chapters []data.Chapter
	doc.Find("div.chapter div a").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		parts := strings.Split(href, "/")
		chapters = append(chapters, data.Chapter{
			Title:    strings.TrimSpace(sel.Text()),
			RemoteID: parts[len(parts)-1],
		})
	})

	title := strings.TrimSpace(doc.Find("h1").First().Text())
	status := strings.TrimSpace(doc.Find("span.info-label-yellow").First().Text())

	if len(chapters) == 0 || title == "" || status == "" {
		return nil, ErrNotFound
	}

	return &data.Book{
		ID:       novelID,
		Title:    title,
		Status:   status,
		Chapters: chapters,
	}, nil
}

// GetMarkup fetches the reader page for a chapter and joins its paragraph
// texts. The result is obfuscated chapter text, one paragraph per line.
func (f *Fanqie) GetMarkup(ctx context.Context, remoteID, cookie string) (string, error) {
	body, err := f.api.GetHTML(ctx, "/reader/"+remoteID, cookie)
	if err != nil {
		return "", fmt.Errorf("fetch reader page %s: %w", remoteID, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse reader page %s: %w", remoteID, err)
	}

	var paragraphs []string
	doc.Find("div.muye-reader-content p").Each(func(_ int, sel *goquery.Selection) {
		paragraphs = append(paragraphs, sel.Text())
	})
	return strings.Join(paragraphs, "\n"), nil
}

// GetStructured fetches the chapter through the JSON API endpoint, the
// fallback when the reader page is unreachable.
func (f *Fanqie) GetStructured(ctx context.Context, remoteID, cookie string) (string, error) {
	var payload struct {
		Data struct {
			ChapterData struct {
				Content string `json:"content"`
			} `json:"chapterData"`
		} `json:"data"`
	}
	params := url.Values{"itemId": {remoteID}}
	if err := f.api.GetJSON(ctx, "/api/reader/full", params, cookie, &payload); err != nil {
		return "", fmt.Errorf("fetch chapter api %s: %w", remoteID, err)
	}
	return payload.Data.ChapterData.Content, nil
}

// GetBookInfo extracts author and cover URL from the book page's ld+json
// block. Both are optional; a missing block is not an error.
func (f *Fanqie) GetBookInfo(ctx context.Context, novelID string) (*BookInfo, error) {
	body, err := f.api.GetHTML(ctx, "/page/"+novelID, "")
	if err != nil {
		return nil, fmt.Errorf("fetch book page %s: %w", novelID, err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse book page %s: %w", novelID, err)
	}

	info := &BookInfo{}
	raw := doc.Find(`script[type="application/ld+json"]`).First().Text()
	if raw == "" {
		return info, nil
	}
	var ld struct {
		Author []struct {
			Name string `json:"name"`
		} `json:"author"`
		Image []string `json:"image"`
	}
	if err := json.Unmarshal([]byte(raw), &ld); err != nil {
		return info, nil
	}
	if len(ld.Author) > 0 {
		info.Author = ld.Author[0].Name
	}
	if len(ld.Image) > 0 {
		info.CoverURL = ld.Image[0]
	}
	return info, nil
}

// FetchCover downloads the cover image bytes.
func (f *Fanqie) FetchCover(ctx context.Context, coverURL string) ([]byte, error) {
	return utils.FetchURL(ctx, coverURL)
}
