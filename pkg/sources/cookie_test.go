package sources

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCookieMintRefresh(t *testing.T) {
	// The first candidate gets a teaser page, the second the full chapter.
	var probes atomic.Int64
	src := newTestSource(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasPrefix(r.Header.Get("Cookie"), "novel_web_id="))
		if probes.Add(1) == 1 {
			fmt.Fprint(w, `<html><body><div class="muye-reader-content"><p>短</p></div></body></html>`)
			return
		}
		fmt.Fprint(w, fullReaderPage())
	}))

	path := filepath.Join(t.TempDir(), "cookie.json")
	mint := NewCookieMint(src, path, zap.NewNop())

	cookie, err := mint.Refresh(context.Background(), "7001")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(cookie, "novel_web_id="))
	assert.EqualValues(t, 2, probes.Load())

	// The accepted cookie is persisted for the next run.
	loaded, err := mint.load()
	require.NoError(t, err)
	assert.Equal(t, cookie, loaded)
}

func TestCookieMintInitReusesPersisted(t *testing.T) {
	src := newTestSource(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, fullReaderPage())
	}))

	path := filepath.Join(t.TempDir(), "cookie.json")
	mint := NewCookieMint(src, path, zap.NewNop())
	require.NoError(t, mint.save("novel_web_id=7777777777777777777"))

	cookie, err := mint.Init(context.Background(), "7001")
	require.NoError(t, err)
	assert.Equal(t, "novel_web_id=7777777777777777777", cookie)
}

func TestCookieMintInitReplacesRejected(t *testing.T) {
	src := newTestSource(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Cookie") == "novel_web_id=1" {
			fmt.Fprint(w, "<html><body></body></html>")
			return
		}
		fmt.Fprint(w, fullReaderPage())
	}))

	path := filepath.Join(t.TempDir(), "cookie.json")
	mint := NewCookieMint(src, path, zap.NewNop())
	require.NoError(t, mint.save("novel_web_id=1"))

	cookie, err := mint.Init(context.Background(), "7001")
	require.NoError(t, err)
	assert.NotEqual(t, "novel_web_id=1", cookie)
	assert.True(t, strings.HasPrefix(cookie, "novel_web_id="))
}

func TestCookieMintGivesUp(t *testing.T) {
	src := newTestSource(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body></body></html>")
	}))

	mint := NewCookieMint(src, filepath.Join(t.TempDir(), "cookie.json"), zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := mint.Refresh(ctx, "7001")
	assert.Error(t, err)
}
