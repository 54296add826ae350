package cta

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/omadigital/engage-core/pkg/logging"
)

// Fetcher loads the active CTA set from the backing store.
type Fetcher interface {
	FetchActive(ctx context.Context) ([]Definition, error)
}

// Catalog is a read-mostly cache over the CTA store. Readers always see an
// immutable snapshot; a background refresher swaps in new snapshots on a
// fixed interval, and administrative edits can force a refresh through
// Invalidate. A failed refresh keeps the last-good snapshot.
type Catalog struct {
	fetcher  Fetcher
	interval time.Duration
	logger   *logging.Logger

	snapshot atomic.Pointer[[]Definition]
	kick     chan struct{}
}

// NewCatalog creates a catalog refreshing every interval.
func NewCatalog(fetcher Fetcher, interval time.Duration, logger *logging.Logger) *Catalog {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if logger == nil {
		logger = logging.Default()
	}
	c := &Catalog{
		fetcher:  fetcher,
		interval: interval,
		logger:   logger,
		kick:     make(chan struct{}, 1),
	}
	empty := []Definition{}
	c.snapshot.Store(&empty)
	return c
}

// Active returns the current snapshot. The returned slice must be treated
// as read-only.
func (c *Catalog) Active() []Definition {
	return *c.snapshot.Load()
}

// Invalidate schedules an immediate refresh. Safe to call from any
// goroutine; coalesces with a pending one.
func (c *Catalog) Invalidate() {
	select {
	case c.kick <- struct{}{}:
	default:
	}
}

// Refresh loads a new snapshot synchronously. Used at startup and by the
// refresh loop.
func (c *Catalog) Refresh(ctx context.Context) error {
	defs, err := c.fetcher.FetchActive(ctx)
	if err != nil {
		return err
	}
	c.snapshot.Store(&defs)
	return nil
}

// Start runs the periodic refresh loop until ctx is cancelled. In-flight
// readers are never blocked: they keep reading the previous snapshot while
// a refresh is running.
func (c *Catalog) Start(ctx context.Context) {
	if err := c.Refresh(ctx); err != nil {
		c.logger.Warn("initial CTA catalog refresh failed", "error", err)
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-c.kick:
		}
		if err := c.Refresh(ctx); err != nil {
			c.logger.Warn("CTA catalog refresh failed, keeping last snapshot", "error", err)
		}
	}
}
