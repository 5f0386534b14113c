package xshmem

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/srediag/xshmem/api"
	"github.com/srediag/xshmem/internal/logger"
)

var pkgLogger = logger.New("xshmem", os.Stdout)

// InitAttr initializes h with vendor attributes when its backend supports
// them and returns an error wrapping api.ErrInitAttrUnsupported otherwise.
func InitAttr(h api.OpenSHMEM, attr *api.InitAttr) error {
	ai, ok := h.(api.AttrInitializer)
	if !ok {
		return fmt.Errorf("%s: %w", h.Library(), api.ErrInitAttrUnsupported)
	}
	return ai.InitAttr(attr)
}

// InitWithRetry calls h.Init until it succeeds, b gives up, or ctx is done.
// The selector and adapters never retry; this is for callers whose launcher
// can race the backend's bootstrap. A nil b means a single attempt.
func InitWithRetry(ctx context.Context, h api.OpenSHMEM, b backoff.BackOff) error {
	if b == nil {
		b = &backoff.StopBackOff{}
	}
	attempt := 0
	op := func() error {
		attempt++
		return h.Init()
	}
	notify := func(err error, next time.Duration) {
		pkgLogger.Warnf("%s init attempt %d failed: %v, retrying in %s", h.Library(), attempt, err, next)
	}
	if err := backoff.RetryNotify(op, backoff.WithContext(b, ctx), notify); err != nil {
		return fmt.Errorf("%s init after %d attempt(s): %w", h.Library(), attempt, err)
	}
	return nil
}

// RetryPolicy builds the backoff described by cfg.
func RetryPolicy(cfg RetryConfig) backoff.BackOff {
	if cfg.MaxRetries <= 0 {
		return &backoff.StopBackOff{}
	}
	return backoff.WithMaxRetries(backoff.NewConstantBackOff(cfg.Interval), uint64(cfg.MaxRetries))
}
