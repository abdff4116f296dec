package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bookPage = `<!DOCTYPE html>
<html><head>
<script type="application/ld+json">{"author":[{"name":"作者甲"}],"image":["https://img.example.com/cover.jpg"]}</script>
</head><body>
<h1>测试小说</h1>
<span class="info-label-yellow">连载中</span>
<div class="chapter">
  <div class="chapter-item"><a href="/reader/7001">第1章 开端</a></div>
  <div class="chapter-item"><a href="/reader/7002">第2章 转折</a></div>
  <div class="chapter-item"><a href="/reader/7003">第3章 结局</a></div>
</div>
</body></html>`

const readerPage = `<!DOCTYPE html>
<html><body>
<div class="muye-reader-content noselect">
  <p>第一段。</p>
  <p>第二段。</p>
</div>
</body></html>`

func newTestSource(t *testing.T, handler http.Handler) *Fanqie {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewFanqieWithBase(srv.URL, 5*time.Second)
}

func TestGetBook(t *testing.T) {
	src := newTestSource(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/page/101", r.URL.Path)
		fmt.Fprint(w, bookPage)
	}))

	book, err := src.GetBook(context.Background(), "101")
	require.NoError(t, err)
	assert.Equal(t, "测试小说", book.Title)
	assert.Equal(t, "连载中", book.Status)
	require.Len(t, book.Chapters, 3)
	assert.Equal(t, "第1章 开端", book.Chapters[0].Title)
	assert.Equal(t, "7001", book.Chapters[0].RemoteID)
	assert.Equal(t, "7003", book.Chapters[2].RemoteID)
}

func TestGetBookNotFound(t *testing.T) {
	src := newTestSource(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body><h1></h1></body></html>")
	}))

	_, err := src.GetBook(context.Background(), "404404")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetBookTransportError(t *testing.T) {
	src := newTestSource(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := src.GetBook(context.Background(), "101")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestGetMarkup(t *testing.T) {
	var gotCookie string
	src := newTestSource(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/reader/7001", r.URL.Path)
		gotCookie = r.Header.Get("Cookie")
		fmt.Fprint(w, readerPage)
	}))

	body, err := src.GetMarkup(context.Background(), "7001", "novel_web_id=42")
	require.NoError(t, err)
	assert.Equal(t, "第一段。\n第二段。", body)
	assert.Equal(t, "novel_web_id=42", gotCookie)
}

func TestGetMarkupEmptyPage(t *testing.T) {
	src := newTestSource(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body></body></html>")
	}))

	body, err := src.GetMarkup(context.Background(), "7001", "")
	require.NoError(t, err)
	assert.Empty(t, body)
}

func TestGetStructured(t *testing.T) {
	src := newTestSource(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/reader/full", r.URL.Path)
		require.Equal(t, "7002", r.URL.Query().Get("itemId"))
		fmt.Fprint(w, `{"data":{"chapterData":{"content":"<p>正文</p>"}}}`)
	}))

	content, err := src.GetStructured(context.Background(), "7002", "")
	require.NoError(t, err)
	assert.Equal(t, "<p>正文</p>", content)
}

func TestGetBookInfo(t *testing.T) {
	src := newTestSource(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, bookPage)
	}))

	info, err := src.GetBookInfo(context.Background(), "101")
	require.NoError(t, err)
	assert.Equal(t, "作者甲", info.Author)
	assert.Equal(t, "https://img.example.com/cover.jpg", info.CoverURL)
}

func TestGetBookInfoMissingBlock(t *testing.T) {
	src := newTestSource(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body><h1>书</h1></body></html>")
	}))

	info, err := src.GetBookInfo(context.Background(), "101")
	require.NoError(t, err)
	assert.Empty(t, info.Author)
	assert.Empty(t, info.CoverURL)
}

// fullReaderPage pads the chapter body past the probe threshold.
func fullReaderPage() string {
	para := strings.Repeat("很长的正文段落。", 10)
	return fmt.Sprintf(`<html><body><div class="muye-reader-content"><p>%s</p><p>%s</p></div></body></html>`, para, para)
}
