package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/On-Jun9/DupeChecker/internal/catalog"
	"github.com/On-Jun9/DupeChecker/internal/config"
	"github.com/On-Jun9/DupeChecker/internal/loader"
	"github.com/On-Jun9/DupeChecker/internal/log"
	"github.com/On-Jun9/DupeChecker/internal/metadata"
	"github.com/On-Jun9/DupeChecker/internal/metrics"
	"github.com/On-Jun9/DupeChecker/internal/scanner"
	"github.com/On-Jun9/DupeChecker/internal/state"
	"github.com/On-Jun9/DupeChecker/pkg/types"
)

var (
	// ErrSuperseded is returned by a load that a newer ScanAndLoad replaced
	// before it finished. The catalog keeps the newer load's records.
	ErrSuperseded = errors.New("load superseded by a newer request")
	ErrNotFound   = errors.New("video not found in catalog")
)

type Pipeline struct {
	cfg             *config.Config
	scanner         *scanner.Scanner
	loader          *loader.Loader
	cache           *state.State
	catalog         *catalog.Catalog
	logger          *log.Logger
	userDataManager *config.UserDataManager

	mu               sync.Mutex
	generation       uint64
	cancel           context.CancelFunc
	progressCallback ProgressCallback
}

func New(cfg *config.Config) (*Pipeline, error) {
	userDataManager, err := config.NewUserDataManager()
	if err != nil {
		return nil, fmt.Errorf("failed to create user data manager: %w", err)
	}

	extractor := metadata.New(metadata.Options{
		FFprobePath:   cfg.FFprobePath,
		ShellFallback: cfg.ShellFallback,
		ProbeTimeout:  cfg.ProbeTimeout,
	})

	return NewWithExtractor(cfg, extractor, userDataManager)
}

// NewWithExtractor builds a pipeline around an already constructed duration
// extractor and user data store.
func NewWithExtractor(cfg *config.Config, extractor loader.DurationExtractor, userDataManager *config.UserDataManager) (*Pipeline, error) {
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}

	logger, err := log.New(cfg.LogFile, cfg.LogJSON, true)
	if err != nil {
		return nil, err
	}

	var cache *state.State
	if !cfg.IgnoreCache {
		cache, err = state.Load(cfg.CacheFile)
		if err != nil {
			logger.Close()
			return nil, err
		}
	}

	return &Pipeline{
		cfg:             cfg,
		scanner:         scanner.New(),
		loader:          loader.New(cfg.Jobs, extractor, cache),
		cache:           cache,
		catalog:         catalog.New(),
		logger:          logger,
		userDataManager: userDataManager,
	}, nil
}

func (p *Pipeline) SetProgressCallback(cb ProgressCallback) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.progressCallback = cb
}

func (p *Pipeline) Catalog() *catalog.Catalog {
	return p.catalog
}

func (p *Pipeline) UserData() *config.UserDataManager {
	return p.userDataManager
}

func (p *Pipeline) Logger() *log.Logger {
	return p.logger
}

func (p *Pipeline) emit(update ProgressUpdate) {
	p.mu.Lock()
	cb := p.progressCallback
	p.mu.Unlock()

	if cb != nil {
		cb(update)
	}
}

// begin starts a new load generation and cancels the one in flight.
func (p *Pipeline) begin(parent context.Context) (context.Context, uint64, func()) {
	ctx, cancel := context.WithCancel(parent)

	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	p.generation++
	gen := p.generation
	p.cancel = cancel
	p.mu.Unlock()

	return ctx, gen, func() {
		cancel()
		p.mu.Lock()
		if p.generation == gen {
			p.cancel = nil
		}
		p.mu.Unlock()
	}
}

// Generation returns the number of the most recently started load.
func (p *Pipeline) Generation() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.generation
}

// ScanAndLoad scans root, reads every video's metadata and replaces the
// catalog with the result sorted by duration, longest first (or by the
// configured sort). An invalid root fails before any work starts. A load
// overtaken by a newer call returns ErrSuperseded and leaves the catalog alone.
func (p *Pipeline) ScanAndLoad(ctx context.Context, root string) ([]types.VideoFile, *types.LoadSummary, error) {
	absRoot, err := scanner.ValidateRoot(root)
	if err != nil {
		p.logger.Error("Invalid root '"+root+"'", err)
		p.emit(ProgressUpdate{Type: UpdateError, Error: err.Error()})
		return nil, nil, err
	}

	ctx, gen, done := p.begin(ctx)
	defer done()

	startTime := time.Now()
	summary := &types.LoadSummary{
		Root:       absRoot,
		Generation: gen,
		StartTime:  startTime,
	}

	p.logger.Info("Starting scan: '" + absRoot + "'")
	p.emit(ProgressUpdate{
		Type:       UpdateStatus,
		Generation: gen,
		Message:    "Scanning for video files...",
	})

	paths, err := p.scanner.Scan(absRoot)
	if err != nil {
		metrics.LoadDuration.WithLabelValues("failed").Observe(time.Since(startTime).Seconds())
		p.logger.Error("Scan failed", err)
		p.emit(ProgressUpdate{Type: UpdateError, Generation: gen, Error: err.Error()})
		return nil, nil, err
	}

	metrics.FilesScanned.Add(float64(len(paths)))
	summary.ScannedFiles = len(paths)
	p.logger.Info("Found " + strconv.Itoa(len(paths)) + " video files")
	p.emit(ProgressUpdate{
		Type:       UpdateStatus,
		Generation: gen,
		Message:    "Reading durations...",
		Total:      len(paths),
	})

	resultChan := make(chan loader.LoadResult, len(paths))
	go p.loader.LoadAll(ctx, paths, resultChan)

	files := make([]types.VideoFile, 0, len(paths))
	processed := 0

	for result := range resultChan {
		processed++

		if result.Error != nil {
			summary.SkippedFiles++
			p.logger.Warn("Skipped '" + result.Path + "': " + result.Error.Error())
			continue
		}

		files = append(files, result.File)
		summary.TotalBytes += result.File.SizeBytes
		if result.File.DurationSeconds == 0 {
			summary.UnknownDuration++
		}
		if result.CacheHit {
			summary.CacheHits++
		}

		p.logger.LogVideo(result.File, result.Metadata)
		p.emit(ProgressUpdate{
			Type:       UpdateLoadProgress,
			Generation: gen,
			Current:    processed,
			Total:      len(paths),
			Filename:   result.File.Name,
		})
	}

	snapshot, err := p.publish(ctx, gen, files)
	if err != nil {
		status := "cancelled"
		if errors.Is(err, ErrSuperseded) {
			status = "superseded"
		}
		metrics.LoadDuration.WithLabelValues(status).Observe(time.Since(startTime).Seconds())
		p.logger.Warn("Load of '" + absRoot + "' abandoned: " + err.Error())
		return nil, nil, err
	}

	summary.LoadedFiles = len(snapshot)
	summary.EndTime = time.Now()
	summary.Duration = summary.EndTime.Sub(startTime)

	if p.cache != nil {
		if err := p.cache.Save(); err != nil {
			p.logger.Error("Failed to save probe cache", err)
		}
	}

	if err := p.userDataManager.AddRecentRoot(absRoot); err != nil {
		p.logger.Error("Failed to save path history", err)
	}

	metrics.LoadDuration.WithLabelValues("success").Observe(summary.Duration.Seconds())
	p.logger.Summary(*summary)

	p.emit(ProgressUpdate{
		Type:       UpdateComplete,
		Generation: gen,
		Summary:    summary,
	})

	return snapshot, summary, nil
}

// publish hands the loaded records to the catalog in one step, unless a newer
// load has started or ctx was cancelled.
func (p *Pipeline) publish(ctx context.Context, gen uint64, files []types.VideoFile) ([]types.VideoFile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.generation != gen {
		return nil, ErrSuperseded
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.catalog.Reset(files)
	if p.cfg.SortKey != catalog.DefaultSortKey || p.cfg.SortDirection != catalog.DefaultSortDirection {
		if err := p.catalog.SortBy(p.cfg.SortKey, p.cfg.SortDirection); err != nil {
			return nil, err
		}
	}

	return p.catalog.Snapshot(), nil
}

// DeleteFile removes the file from disk and then from the catalog. When the
// filesystem refuses, a *types.DeleteError is returned and the catalog is unchanged.
func (p *Pipeline) DeleteFile(path string) error {
	info, err := os.Lstat(path)
	if err == nil && info.IsDir() {
		err = errors.New("is a directory")
	}
	if err == nil {
		err = os.Remove(path)
	}
	if err != nil {
		metrics.Deletes.WithLabelValues("failed").Inc()
		delErr := &types.DeleteError{Path: path, Err: err}
		p.logger.Error("Delete failed", delErr)
		return delErr
	}

	p.catalog.RemoveByPath(path)
	if p.cache != nil {
		p.cache.Forget(path)
	}

	metrics.Deletes.WithLabelValues("deleted").Inc()
	p.logger.Info("Deleted '" + path + "'")
	return nil
}

// DeleteByID deletes the catalog record with the given ID.
func (p *Pipeline) DeleteByID(id string) (types.VideoFile, error) {
	file, ok := p.catalog.FindByID(id)
	if !ok {
		return types.VideoFile{}, ErrNotFound
	}
	return file, p.DeleteFile(file.FullPath)
}

// Close cancels any load in flight, saves the probe cache and closes the log.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	p.mu.Unlock()

	if p.cache != nil {
		if err := p.cache.Save(); err != nil {
			p.logger.Error("Failed to save probe cache", err)
		}
	}
	return p.logger.Close()
}
