package services

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// refreshThreshold is how many consecutive failures trigger a credential
// rotation.
const refreshThreshold = 7

// Refresher mints a replacement session cookie. The chapter id passed in is
// the one whose failure triggered the rotation, used as the validation probe.
type Refresher interface {
	Refresh(ctx context.Context, probeChapterID string) (string, error)
}

// CredentialState holds the session cookie shared by all workers and rotates
// it after too many consecutive failures. All methods are safe for concurrent
// use; the mutex also guarantees one rotation per threshold crossing even when
// several workers fail at once.
type CredentialState struct {
	mu        sync.Mutex
	cookie    string
	failures  int
	refresher Refresher
	logger    *zap.Logger
}

func NewCredentialState(cookie string, refresher Refresher, logger *zap.Logger) *CredentialState {
	return &CredentialState{cookie: cookie, refresher: refresher, logger: logger}
}

// Cookie returns the current session cookie.
func (c *CredentialState) Cookie() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cookie
}

// RecordSuccess resets the consecutive failure counter.
func (c *CredentialState) RecordSuccess() {
	c.mu.Lock()
	c.failures = 0
	c.mu.Unlock()
}

// RecordFailure bumps the consecutive failure counter. Crossing the threshold
// resets it and swaps in a freshly minted cookie; a failed mint keeps the old
// cookie so the run can limp on.
func (c *CredentialState) RecordFailure(ctx context.Context, probeChapterID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.failures++
	if c.failures < refreshThreshold {
		return
	}
	c.failures = 0

	c.logger.Info("failure threshold reached, rotating session cookie",
		zap.Int("threshold", refreshThreshold))
	cookie, err := c.refresher.Refresh(ctx, probeChapterID)
	if err != nil {
		c.logger.Warn("cookie rotation failed, keeping current cookie", zap.Error(err))
		return
	}
	c.cookie = cookie
}
