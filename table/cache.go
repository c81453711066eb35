// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package table

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/danielhkuo/aadhaar-intel/models"
)

// Snapshot is one load of a master table file.
type Snapshot struct {
	Path     string
	Records  []models.MasterRecord
	ModTime  time.Time
	Size     int64
	LoadedAt time.Time
}

// Version identifies the file state a snapshot was loaded from.
func (s *Snapshot) Version() string {
	return fmt.Sprintf("%d:%d", s.ModTime.UnixNano(), s.Size)
}

// Cache memoizes master table loads per path. An entry is reused only while
// the file's modification time and size are unchanged; Invalidate and Flush
// drop entries explicitly.
type Cache struct {
	mu      sync.Mutex
	entries *cache.Cache
}

func NewCache() *Cache {
	return &Cache{entries: cache.New(cache.NoExpiration, 0)}
}

// Load returns the cached snapshot for path, re-reading the file when it
// changed on disk. Callers must treat Records as read-only.
func (c *Cache) Load(path string) (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		c.entries.Delete(path)
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if v, ok := c.entries.Get(path); ok {
		snap := v.(*Snapshot)
		if snap.ModTime.Equal(info.ModTime()) && snap.Size == info.Size() {
			return snap, nil
		}
	}

	records, err := Read(path)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Path:     path,
		Records:  records,
		ModTime:  info.ModTime(),
		Size:     info.Size(),
		LoadedAt: time.Now(),
	}
	c.entries.Set(path, snap, cache.NoExpiration)
	return snap, nil
}

// Invalidate drops the entry for path.
func (c *Cache) Invalidate(path string) {
	c.entries.Delete(path)
}

// Flush drops every entry.
func (c *Cache) Flush() {
	c.entries.Flush()
}
