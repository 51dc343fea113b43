package store

import (
	"sync"

	"github.com/igraph100/DW-Spectrum/internal/schedule"
)

func modeCacheKey(instance string) string   { return instance + ".recording_mode_cache" }
func streamBlockKey(instance string) string { return instance + ".stream_block_cache" }

// ModeCache remembers the last recording mode applied to each camera so a
// disabled schedule can be re-enabled in the same mode.
type ModeCache struct {
	db  *DB
	key string

	mu    sync.RWMutex
	modes map[string]schedule.Mode
}

func NewModeCache(db *DB, instance string) *ModeCache {
	return &ModeCache{db: db, key: modeCacheKey(instance), modes: map[string]schedule.Mode{}}
}

// Load replaces the in-memory map with the persisted one, keeping only
// known modes.
func (c *ModeCache) Load() error {
	var raw map[string]any
	if err := c.db.load(c.key, &raw); err != nil {
		return err
	}

	modes := make(map[string]schedule.Mode, len(raw))
	for id, v := range raw {
		s, ok := v.(string)
		if !ok {
			continue
		}
		if m := schedule.Mode(s); m.Valid() {
			modes[id] = m
		}
	}

	c.mu.Lock()
	c.modes = modes
	c.mu.Unlock()
	return nil
}

func (c *ModeCache) Get(cameraID string) (schedule.Mode, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.modes[cameraID]
	return m, ok
}

// Set records mode for the camera and persists the cache. Unknown modes
// are ignored.
func (c *ModeCache) Set(cameraID string, mode schedule.Mode) error {
	if !mode.Valid() {
		return nil
	}

	c.mu.Lock()
	c.modes[cameraID] = mode
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	return c.db.save(c.key, snapshot)
}

// All returns a copy of the cache.
func (c *ModeCache) All() map[string]schedule.Mode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]schedule.Mode, len(c.modes))
	for k, v := range c.modes {
		out[k] = v
	}
	return out
}

func (c *ModeCache) snapshotLocked() map[string]string {
	out := make(map[string]string, len(c.modes))
	for k, v := range c.modes {
		if v.Valid() {
			out[k] = string(v)
		}
	}
	return out
}

// StreamBlockCache holds the per-camera live stream block flag. It only
// exists on the client side, the VMS knows nothing about it.
type StreamBlockCache struct {
	db  *DB
	key string

	mu      sync.RWMutex
	blocked map[string]bool
}

func NewStreamBlockCache(db *DB, instance string) *StreamBlockCache {
	return &StreamBlockCache{db: db, key: streamBlockKey(instance), blocked: map[string]bool{}}
}

// Load replaces the in-memory map with the persisted one. Truthy values of
// any JSON type count as blocked.
func (c *StreamBlockCache) Load() error {
	var raw map[string]any
	if err := c.db.load(c.key, &raw); err != nil {
		return err
	}

	blocked := make(map[string]bool, len(raw))
	for id, v := range raw {
		blocked[id] = truthy(v)
	}

	c.mu.Lock()
	c.blocked = blocked
	c.mu.Unlock()
	return nil
}

func (c *StreamBlockCache) Blocked(cameraID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.blocked[cameraID]
}

// Set stores the flag and persists the cache.
func (c *StreamBlockCache) Set(cameraID string, blocked bool) error {
	c.mu.Lock()
	c.blocked[cameraID] = blocked
	snapshot := make(map[string]bool, len(c.blocked))
	for k, v := range c.blocked {
		snapshot[k] = v
	}
	c.mu.Unlock()

	return c.db.save(c.key, snapshot)
}

func (c *StreamBlockCache) All() map[string]bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]bool, len(c.blocked))
	for k, v := range c.blocked {
		out[k] = v
	}
	return out
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	case nil:
		return false
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	}
	return false
}
