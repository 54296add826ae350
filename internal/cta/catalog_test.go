package cta

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	mu    sync.Mutex
	defs  []Definition
	err   error
	calls int
}

func (f *fakeFetcher) FetchActive(ctx context.Context) ([]Definition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.defs, nil
}

func (f *fakeFetcher) set(defs []Definition, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.defs, f.err = defs, err
}

func TestCatalogStartsEmpty(t *testing.T) {
	c := NewCatalog(&fakeFetcher{}, time.Minute, nil)
	assert.Empty(t, c.Active())
}

func TestCatalogRefreshSwapsSnapshot(t *testing.T) {
	f := &fakeFetcher{defs: []Definition{defWith("quote", PriorityHigh, "fr", "devis")}}
	c := NewCatalog(f, time.Minute, nil)

	require.NoError(t, c.Refresh(context.Background()))

	active := c.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "quote", active[0].ID)
}

func TestCatalogKeepsLastGoodOnFailure(t *testing.T) {
	f := &fakeFetcher{defs: []Definition{defWith("quote", PriorityHigh, "fr", "devis")}}
	c := NewCatalog(f, time.Minute, nil)
	require.NoError(t, c.Refresh(context.Background()))

	f.set(nil, errors.New("db down"))
	require.Error(t, c.Refresh(context.Background()))

	assert.Len(t, c.Active(), 1, "failed refresh must keep the previous snapshot")
}

func TestCatalogInvalidateTriggersRefresh(t *testing.T) {
	f := &fakeFetcher{}
	c := NewCatalog(f, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Start(ctx)
		close(done)
	}()

	// Wait for the initial refresh, then force another one.
	require.Eventually(t, func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.calls >= 1
	}, time.Second, 5*time.Millisecond)

	f.set([]Definition{defWith("new", PriorityLow, LanguageBoth, "contact")}, nil)
	c.Invalidate()

	require.Eventually(t, func() bool {
		return len(c.Active()) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}

func TestCatalogInvalidateNeverBlocks(t *testing.T) {
	c := NewCatalog(&fakeFetcher{}, time.Hour, nil)
	for i := 0; i < 10; i++ {
		c.Invalidate()
	}
}
