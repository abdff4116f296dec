package services

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/kerbaras/fanqie/pkg/config"
	"github.com/kerbaras/fanqie/pkg/data"
	"github.com/kerbaras/fanqie/pkg/decode"
	"github.com/kerbaras/fanqie/pkg/sources"
)

const maxAttempts = 3

// Cache is the fetcher's view of already recovered chapters. The orchestrator
// backs it with the mutex-guarded record so the lookup is race free.
type Cache interface {
	Lookup(title string) (string, bool)
}

// ChapterUnavailableError marks a chapter that stayed unreachable through all
// retries. The run keeps going; the chapter is reported in the final outcome.
type ChapterUnavailableError struct {
	Title string
	Err   error
}

func (e *ChapterUnavailableError) Error() string {
	return fmt.Sprintf("chapter %q unavailable: %v", e.Title, e.Err)
}

func (e *ChapterUnavailableError) Unwrap() error { return e.Err }

// Fetcher turns one table-of-contents entry into decoded chapter text. It
// tries the reader page first and the JSON API second, decodes with both
// charset modes, and falls back to structural markup stripping when neither
// mode fits.
type Fetcher struct {
	source sources.Source
	creds  *CredentialState
	cache  Cache
	logger *zap.Logger

	retryDelay time.Duration
	delayMin   time.Duration
	delayMax   time.Duration
}

func NewFetcher(source sources.Source, creds *CredentialState, cache Cache, cfg config.Config, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		source:     source,
		creds:      creds,
		cache:      cache,
		logger:     logger,
		retryDelay: time.Second,
		delayMin:   time.Duration(cfg.DelayMinMS) * time.Millisecond,
		delayMax:   time.Duration(cfg.DelayMaxMS) * time.Millisecond,
	}
}

// Fetch returns the decoded content for a chapter, consulting the cache
// first. After maxAttempts transport failures it returns a
// ChapterUnavailableError wrapping the last cause.
func (f *Fetcher) Fetch(ctx context.Context, ch data.Chapter) (string, error) {
	if content, ok := f.cache.Lookup(ch.Title); ok {
		return content, nil
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, f.retryDelay); err != nil {
				return "", err
			}
		}
		content, err := f.fetchOnce(ctx, ch)
		if err != nil {
			lastErr = err
			f.creds.RecordFailure(ctx, ch.RemoteID)
			f.logger.Debug("chapter fetch attempt failed",
				zap.String("chapter", ch.Title),
				zap.Int("attempt", attempt+1),
				zap.Error(err))
			continue
		}
		return content, nil
	}
	return "", &ChapterUnavailableError{Title: ch.Title, Err: lastErr}
}

// fetchOnce runs one endpoint-and-decode cycle. A raw body that fits neither
// charset mode still yields text through the structural fallback, but counts
// as a failure against the credential since garbled pages usually mean a
// rejected session.
func (f *Fetcher) fetchOnce(ctx context.Context, ch data.Chapter) (string, error) {
	cookie := f.creds.Cookie()
	raw, err := f.source.GetMarkup(ctx, ch.RemoteID, cookie)
	if err != nil {
		f.logger.Debug("reader page failed, trying api endpoint",
			zap.String("chapter", ch.Title), zap.Error(err))
		raw, err = f.source.GetStructured(ctx, ch.RemoteID, cookie)
		if err != nil {
			return "", err
		}
	}
	if raw == "" {
		return "", fmt.Errorf("empty chapter body for %s", ch.RemoteID)
	}

	text, err := decode.Decode(raw, 0)
	if err != nil {
		text, err = decode.Decode(raw, 1)
	}
	if err != nil {
		f.creds.RecordFailure(ctx, ch.RemoteID)
		f.logger.Debug("both charset modes rejected, stripping markup",
			zap.String("chapter", ch.Title))
		return decode.StripMarkup(raw), nil
	}

	f.creds.RecordSuccess()
	if err := f.pace(ctx); err != nil {
		return "", err
	}
	return text, nil
}

// pace sleeps for a random duration inside the configured window, keeping the
// request rate under the server's radar.
func (f *Fetcher) pace(ctx context.Context) error {
	if f.delayMax <= 0 {
		return nil
	}
	d := f.delayMin
	if span := f.delayMax - f.delayMin; span > 0 {
		d += time.Duration(rand.Int63n(int64(span) + 1))
	}
	return sleep(ctx, d)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
