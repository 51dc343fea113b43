// Package poller keeps periodically refreshed snapshots of VMS state.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/igraph100/DW-Spectrum/internal/log"
)

// Fetcher produces one fresh snapshot.
type Fetcher[T any] func(ctx context.Context) (T, error)

// Cache holds the last good snapshot returned by a Fetcher and refreshes it
// on a fixed interval or on demand.
type Cache[T any] struct {
	name     string
	interval time.Duration
	fetch    Fetcher[T]
	log      *logrus.Entry

	mu      sync.RWMutex
	data    T
	hasData bool
	lastErr error
	updated time.Time

	subMu     sync.Mutex
	nextSub   int
	listeners map[int]func(T)

	refreshMu sync.Mutex
	trigger   chan struct{}
}

func NewCache[T any](name string, interval time.Duration, fetch Fetcher[T]) *Cache[T] {
	return &Cache[T]{
		name:      name,
		interval:  interval,
		fetch:     fetch,
		log:       log.WithComponent("poller").WithField("poller", name),
		listeners: map[int]func(T){},
		trigger:   make(chan struct{}, 1),
	}
}

func (c *Cache[T]) Name() string { return c.name }

func (c *Cache[T]) Interval() time.Duration { return c.interval }

// Refresh fetches a snapshot now. Concurrent calls are serialised. On failure
// the previous snapshot is kept and the cache reports unavailable.
func (c *Cache[T]) Refresh(ctx context.Context) (T, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	start := time.Now()
	data, err := c.fetch(ctx)
	if err != nil {
		c.mu.Lock()
		c.lastErr = err
		old := c.data
		c.mu.Unlock()

		c.log.WithError(err).Warn("refresh failed")
		return old, err
	}

	c.mu.Lock()
	c.data = data
	c.hasData = true
	c.lastErr = nil
	c.updated = time.Now()
	c.mu.Unlock()

	c.log.WithField("took", time.Since(start).Round(time.Millisecond)).Debug("refreshed")
	c.notify(data)
	return data, nil
}

// Current returns the last good snapshot and whether there is one.
func (c *Cache[T]) Current() (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data, c.hasData
}

// Available reports whether the most recent refresh succeeded.
func (c *Cache[T]) Available() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hasData && c.lastErr == nil
}

func (c *Cache[T]) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

// Updated is the time of the last successful refresh.
func (c *Cache[T]) Updated() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.updated
}

// Subscribe registers fn to receive every new snapshot. The returned func
// removes it.
func (c *Cache[T]) Subscribe(fn func(T)) func() {
	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.listeners[id] = fn
	c.subMu.Unlock()

	return func() {
		c.subMu.Lock()
		delete(c.listeners, id)
		c.subMu.Unlock()
	}
}

func (c *Cache[T]) notify(data T) {
	c.subMu.Lock()
	fns := make([]func(T), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()

	for _, fn := range fns {
		fn(data)
	}
}

// RequestRefresh asks Run for an early refresh. It never blocks; requests
// made while one is pending are merged.
func (c *Cache[T]) RequestRefresh() {
	select {
	case c.trigger <- struct{}{}:
	default:
	}
}

// Run refreshes immediately, then on every tick and every request, until ctx
// is cancelled.
func (c *Cache[T]) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.log.WithField("interval", c.interval).Info("poller started")
	defer c.log.Info("poller stopped")

	c.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-c.trigger:
		}
		c.Refresh(ctx)
	}
}
