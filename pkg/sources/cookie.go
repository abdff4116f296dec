package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// probeMinLength is the minimum decoded-page body length for a cookie to be
// considered usable. Rejected sessions get a truncated teaser page instead of
// the full chapter.
const probeMinLength = 200

// maxMintAttempts bounds a single Refresh call; the site accepts most random
// ids, so hitting the bound means something other than the cookie is wrong.
const maxMintAttempts = 50

// CookieMint mints and validates novel_web_id session cookies. A candidate is
// accepted when a probe chapter comes back with a full body.
type CookieMint struct {
	source *Fanqie
	path   string
	logger *zap.Logger
	rand   *rand.Rand
}

// NewCookieMint persists accepted cookies at path (a JSON file).
func NewCookieMint(source *Fanqie, path string, logger *zap.Logger) *CookieMint {
	return &CookieMint{
		source: source,
		path:   path,
		logger: logger,
		rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Init returns a working cookie, preferring the persisted one when it still
// passes the probe and minting a fresh one otherwise.
func (m *CookieMint) Init(ctx context.Context, probeChapterID string) (string, error) {
	if cookie, err := m.load(); err == nil && cookie != "" {
		if m.probe(ctx, probeChapterID, cookie) {
			m.logger.Debug("reusing persisted cookie")
			return cookie, nil
		}
		m.logger.Info("persisted cookie rejected, minting a new one")
	}
	return m.Refresh(ctx, probeChapterID)
}

// Refresh mints candidate cookies until one passes the probe, then persists
// and returns it.
func (m *CookieMint) Refresh(ctx context.Context, probeChapterID string) (string, error) {
	for attempt := 0; attempt < maxMintAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		cookie := m.mint()
		if m.probe(ctx, probeChapterID, cookie) {
			if err := m.save(cookie); err != nil {
				m.logger.Warn("persist cookie failed", zap.Error(err))
			}
			m.logger.Info("minted session cookie", zap.Int("attempts", attempt+1))
			return cookie, nil
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(time.Duration(50+m.rand.Intn(100)) * time.Millisecond):
		}
	}
	return "", fmt.Errorf("no usable cookie after %d attempts", maxMintAttempts)
}

// mint draws a random novel_web_id in the range the site hands out itself.
func (m *CookieMint) mint() string {
	const base = int64(1e18)
	id := base*6 + m.rand.Int63n(base*3)
	return fmt.Sprintf("novel_web_id=%d", id)
}

func (m *CookieMint) probe(ctx context.Context, chapterID, cookie string) bool {
	body, err := m.source.GetMarkup(ctx, chapterID, cookie)
	if err != nil {
		m.logger.Debug("cookie probe failed", zap.Error(err))
		return false
	}
	return len(body) > probeMinLength
}

func (m *CookieMint) load() (string, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return "", err
	}
	var cookie string
	if err := json.Unmarshal(data, &cookie); err != nil {
		return "", err
	}
	return cookie, nil
}

func (m *CookieMint) save(cookie string) error {
	data, err := json.Marshal(cookie)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(m.path, data, 0o644)
}
