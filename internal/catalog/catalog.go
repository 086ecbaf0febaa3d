// Package catalog holds the in-memory list of video records presented to the user.
//
// All mutations go through Catalog methods; readers get copies from Snapshot, so
// a record slice handed out is never modified afterwards.
package catalog

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/On-Jun9/DupeChecker/internal/metrics"
	"github.com/On-Jun9/DupeChecker/pkg/types"
)

const (
	DefaultSortKey       = types.SortByDuration
	DefaultSortDirection = types.SortDescending
)

type Catalog struct {
	mu         sync.RWMutex
	files      []types.VideoFile
	sortKey    types.SortKey
	sortDir    types.SortDirection
	mostRecent time.Time
	hasRecent  bool
}

func New() *Catalog {
	return &Catalog{
		sortKey: DefaultSortKey,
		sortDir: DefaultSortDirection,
	}
}

// ReplaceAll swaps the whole record set in one step. Later duplicates of an
// already seen FullPath are dropped. The current sort state is applied.
func (c *Catalog) ReplaceAll(files []types.VideoFile) {
	next := make([]types.VideoFile, 0, len(files))
	seen := make(map[string]struct{}, len(files))
	for _, f := range files {
		if _, dup := seen[f.FullPath]; dup {
			continue
		}
		seen[f.FullPath] = struct{}{}
		next = append(next, f)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	SortFiles(next, c.sortKey, c.sortDir)
	c.files = next
	c.recompute()
}

// Reset restores the default sort state (duration, descending) and replaces the records.
func (c *Catalog) Reset(files []types.VideoFile) {
	c.mu.Lock()
	c.sortKey = DefaultSortKey
	c.sortDir = DefaultSortDirection
	c.mu.Unlock()

	c.ReplaceAll(files)
}

// RemoveByPath removes the record with the given FullPath. It reports whether
// a record was removed; an absent path is a no-op.
func (c *Catalog) RemoveByPath(path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, f := range c.files {
		if f.FullPath != path {
			continue
		}
		next := make([]types.VideoFile, 0, len(c.files)-1)
		next = append(next, c.files[:i]...)
		next = append(next, c.files[i+1:]...)
		c.files = next
		c.recompute()
		return true
	}
	return false
}

// SortBy reorders the records by key and direction. Equal keys keep their relative order.
func (c *Catalog) SortBy(key types.SortKey, dir types.SortDirection) error {
	if !key.Valid() {
		return fmt.Errorf("unknown sort key %q", key)
	}
	if !dir.Valid() {
		return fmt.Errorf("unknown sort direction %q", dir)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	next := make([]types.VideoFile, len(c.files))
	copy(next, c.files)
	SortFiles(next, key, dir)

	c.files = next
	c.sortKey = key
	c.sortDir = dir
	return nil
}

// ToggleSort applies column-header semantics: the current key flips direction,
// any other key starts descending. It returns the direction that was applied.
func (c *Catalog) ToggleSort(key types.SortKey) (types.SortDirection, error) {
	c.mu.RLock()
	dir := types.SortDescending
	if key == c.sortKey {
		dir = c.sortDir.Reverse()
	}
	c.mu.RUnlock()

	if err := c.SortBy(key, dir); err != nil {
		return "", err
	}
	return dir, nil
}

func (c *Catalog) SortState() (types.SortKey, types.SortDirection) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sortKey, c.sortDir
}

// Snapshot returns a copy of the records in display order.
func (c *Catalog) Snapshot() []types.VideoFile {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]types.VideoFile, len(c.files))
	copy(out, c.files)
	return out
}

func (c *Catalog) Get(path string) (types.VideoFile, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, f := range c.files {
		if f.FullPath == path {
			return f, true
		}
	}
	return types.VideoFile{}, false
}

func (c *Catalog) FindByID(id string) (types.VideoFile, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, f := range c.files {
		if f.ID == id {
			return f, true
		}
	}
	return types.VideoFile{}, false
}

func (c *Catalog) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.files)
}

// MostRecentModified returns the latest ModifiedAt, or false when the catalog is empty.
func (c *Catalog) MostRecentModified() (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mostRecent, c.hasRecent
}

func (c *Catalog) Stats() types.CatalogStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := types.CatalogStats{
		Count:         len(c.files),
		SortKey:       c.sortKey,
		SortDirection: c.sortDir,
	}
	if c.hasRecent {
		recent := c.mostRecent
		stats.MostRecentModified = &recent
	}
	return stats
}

// recompute refreshes the derived aggregates. Callers hold the write lock.
func (c *Catalog) recompute() {
	c.mostRecent = time.Time{}
	c.hasRecent = false
	for _, f := range c.files {
		if !c.hasRecent || f.ModifiedAt.After(c.mostRecent) {
			c.mostRecent = f.ModifiedAt
			c.hasRecent = true
		}
	}
	metrics.CatalogSize.Set(float64(len(c.files)))
}

// SortFiles stably sorts files in place. Unknown keys leave the order untouched.
func SortFiles(files []types.VideoFile, key types.SortKey, dir types.SortDirection) {
	cmp := compareFunc(key)
	if cmp == nil {
		return
	}

	sort.SliceStable(files, func(i, j int) bool {
		if dir == types.SortAscending {
			return cmp(files[i], files[j]) < 0
		}
		return cmp(files[i], files[j]) > 0
	})
}

func compareFunc(key types.SortKey) func(a, b types.VideoFile) int {
	switch key {
	case types.SortByName:
		return func(a, b types.VideoFile) int {
			return strings.Compare(a.Name, b.Name)
		}
	case types.SortBySize:
		return func(a, b types.VideoFile) int {
			return compareInt64(a.SizeBytes, b.SizeBytes)
		}
	case types.SortByDuration:
		return func(a, b types.VideoFile) int {
			return compareInt64(int64(a.DurationSeconds), int64(b.DurationSeconds))
		}
	case types.SortByModified:
		return func(a, b types.VideoFile) int {
			return a.ModifiedAt.Compare(b.ModifiedAt)
		}
	}
	return nil
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
