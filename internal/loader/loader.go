package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/On-Jun9/DupeChecker/internal/metadata"
	"github.com/On-Jun9/DupeChecker/internal/metrics"
	"github.com/On-Jun9/DupeChecker/internal/state"
	"github.com/On-Jun9/DupeChecker/pkg/types"
)

// SourceCache marks durations served from the probe cache.
const SourceCache = "cache"

// gbThreshold is 1000 MiB, not 1 GiB.
const gbThreshold = 1000 * 1024 * 1024

type DurationExtractor interface {
	Extract(ctx context.Context, path string) types.MediaMetadata
}

type Loader struct {
	workers   int
	extractor DurationExtractor
	cache     *state.State
}

// New creates a loader with a fixed pool of workers. cache may be nil.
func New(workers int, extractor DurationExtractor, cache *state.State) *Loader {
	if workers < 1 {
		workers = 1
	}
	return &Loader{
		workers:   workers,
		extractor: extractor,
		cache:     cache,
	}
}

type LoadResult struct {
	Path     string
	File     types.VideoFile
	Metadata types.MediaMetadata
	CacheHit bool
	Error    error
}

// LoadAll processes paths on the worker pool and sends one result per processed
// path to resultChan, which is closed when every worker has finished. After ctx
// is cancelled the remaining paths are dropped without a result.
func (l *Loader) LoadAll(ctx context.Context, paths []string, resultChan chan<- LoadResult) {
	taskChan := make(chan string, len(paths))

	var wg sync.WaitGroup
	for i := 0; i < l.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range taskChan {
				if ctx.Err() != nil {
					continue
				}
				resultChan <- l.loadOne(ctx, path)
			}
		}()
	}

	for _, path := range paths {
		taskChan <- path
	}
	close(taskChan)

	wg.Wait()
	close(resultChan)
}

// Load collects the records of every path that did not fail. Order is unspecified.
func (l *Loader) Load(ctx context.Context, paths []string) []types.VideoFile {
	resultChan := make(chan LoadResult, len(paths))
	go l.LoadAll(ctx, paths, resultChan)

	files := make([]types.VideoFile, 0, len(paths))
	for result := range resultChan {
		if result.Error == nil {
			files = append(files, result.File)
		}
	}
	return files
}

func (l *Loader) loadOne(ctx context.Context, path string) LoadResult {
	info, err := os.Stat(path)
	if err != nil {
		metrics.FilesLoaded.WithLabelValues("skipped").Inc()
		return LoadResult{Path: path, Error: err}
	}
	if !info.Mode().IsRegular() {
		metrics.FilesLoaded.WithLabelValues("skipped").Inc()
		return LoadResult{Path: path, Error: fmt.Errorf("not a regular file: %s", path)}
	}

	size, modTime := info.Size(), info.ModTime()

	var meta types.MediaMetadata
	cacheHit := false
	if l.cache != nil {
		if p, ok := l.cache.Lookup(path, size, modTime); ok {
			meta = types.MediaMetadata{DurationSeconds: p.DurationSeconds, Source: SourceCache}
			cacheHit = true
			metrics.ProbeCacheHits.Inc()
		}
	}

	if !cacheHit {
		meta = l.extract(ctx, path)
		if l.cache != nil {
			l.cache.Store(path, size, modTime, meta.DurationSeconds, meta.Source)
		}
	}

	file := NewVideoFile(path, size, modTime, meta.DurationSeconds)
	file.DurationSource = meta.Source

	metrics.FilesLoaded.WithLabelValues("loaded").Inc()
	return LoadResult{Path: path, File: file, Metadata: meta, CacheHit: cacheHit}
}

func (l *Loader) extract(ctx context.Context, path string) (meta types.MediaMetadata) {
	defer func() {
		if r := recover(); r != nil {
			meta = types.MediaMetadata{Error: fmt.Sprintf("duration extraction panicked: %v", r)}
		}
	}()
	if l.extractor == nil {
		return types.MediaMetadata{Error: "no duration extractor"}
	}
	return l.extractor.Extract(ctx, path)
}

// NewVideoFile builds a record whose display fields are derived from its sources.
func NewVideoFile(path string, size int64, modTime time.Time, seconds int) types.VideoFile {
	if size < 0 {
		size = 0
	}
	if seconds < 0 {
		seconds = 0
	}

	return types.VideoFile{
		ID:              RecordID(path),
		Name:            filepath.Base(path),
		FullPath:        path,
		SizeBytes:       size,
		SizeDisplay:     FormatSize(size),
		DurationSeconds: seconds,
		DurationDisplay: metadata.FormatDuration(seconds),
		ModifiedAt:      modTime,
	}
}

// RecordID derives a short stable identifier from the full path.
func RecordID(path string) string {
	return strconv.FormatUint(xxhash.Sum64String(path), 16)
}

// FormatSize renders "x.xx GB" from 1000 MiB upwards, "x.x MB" below.
func FormatSize(bytes int64) string {
	if bytes >= gbThreshold {
		return fmt.Sprintf("%.2f GB", float64(bytes)/(1024*1024*1024))
	}
	return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
}
