package metadata

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/On-Jun9/DupeChecker/internal/metrics"
	"github.com/On-Jun9/DupeChecker/pkg/types"
)

const (
	SourceMP4     = "mp4"
	SourceFFprobe = "ffprobe"
	SourceShell   = "shell"
)

// ErrUnsupportedFormat is returned by a Prober that does not handle the file's container.
var ErrUnsupportedFormat = errors.New("unsupported container format")

// Prober reads a duration in seconds from the file's own container metadata.
type Prober interface {
	Name() string
	ProbeDuration(ctx context.Context, path string) (int, error)
}

// PlatformProvider is a best-effort OS metadata source consulted after every
// Prober has failed. It may be unavailable on the current host.
type PlatformProvider interface {
	Available() bool
	TryGetDuration(path string) (int, bool)
}

type Options struct {
	// FFprobePath is the ffprobe binary name or path. Empty disables ffprobe.
	FFprobePath string
	// ShellFallback enables the OS shell property provider.
	ShellFallback bool
	// ProbeTimeout bounds each structured probe. Zero means no limit.
	ProbeTimeout time.Duration
}

type Extractor struct {
	probers  []Prober
	platform PlatformProvider
	timeout  time.Duration
}

func New(opts Options) *Extractor {
	probers := []Prober{NewMP4Prober()}
	if opts.FFprobePath != "" {
		if ff, err := NewFFprobeProber(opts.FFprobePath); err == nil {
			probers = append(probers, ff)
		}
	}

	var platform PlatformProvider
	if opts.ShellFallback {
		platform = NewShellProvider()
	}

	return NewWithProbers(probers, platform, opts.ProbeTimeout)
}

// NewWithProbers builds an Extractor from explicit strategies. platform may be nil.
func NewWithProbers(probers []Prober, platform PlatformProvider, timeout time.Duration) *Extractor {
	return &Extractor{
		probers:  probers,
		platform: platform,
		timeout:  timeout,
	}
}

// Probers returns the names of the configured structured readers in order.
func (e *Extractor) Probers() []string {
	names := make([]string, 0, len(e.probers))
	for _, p := range e.probers {
		names = append(names, p.Name())
	}
	return names
}

// Extract resolves the duration of path. It never fails: when every strategy
// comes up empty the result has DurationSeconds 0 and the reasons in Error.
func (e *Extractor) Extract(ctx context.Context, path string) types.MediaMetadata {
	var reasons []string

	for _, p := range e.probers {
		seconds, err := e.probe(ctx, p, path)
		switch {
		case errors.Is(err, ErrUnsupportedFormat):
			metrics.DurationProbes.WithLabelValues(p.Name(), "skipped").Inc()
			continue
		case err != nil:
			metrics.DurationProbes.WithLabelValues(p.Name(), "error").Inc()
			reasons = append(reasons, p.Name()+": "+err.Error())
			continue
		case seconds <= 0:
			metrics.DurationProbes.WithLabelValues(p.Name(), "empty").Inc()
			reasons = append(reasons, p.Name()+": no duration")
			continue
		}

		metrics.DurationProbes.WithLabelValues(p.Name(), "ok").Inc()
		return types.MediaMetadata{DurationSeconds: seconds, Source: p.Name()}
	}

	if e.platform != nil && e.platform.Available() {
		if seconds, ok := e.tryPlatform(path); ok && seconds > 0 {
			metrics.DurationProbes.WithLabelValues(SourceShell, "ok").Inc()
			return types.MediaMetadata{DurationSeconds: seconds, Source: SourceShell}
		}
		metrics.DurationProbes.WithLabelValues(SourceShell, "empty").Inc()
		reasons = append(reasons, SourceShell+": no length property")
	}

	if len(reasons) == 0 {
		reasons = append(reasons, "no duration reader for this file")
	}
	return types.MediaMetadata{Error: strings.Join(reasons, "; ")}
}

// ExtractDurationSeconds is Extract reduced to the number of seconds.
func (e *Extractor) ExtractDurationSeconds(ctx context.Context, path string) int {
	return e.Extract(ctx, path).DurationSeconds
}

func (e *Extractor) probe(ctx context.Context, p Prober, path string) (seconds int, err error) {
	defer func() {
		if r := recover(); r != nil {
			seconds, err = 0, fmt.Errorf("panic: %v", r)
		}
	}()

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	return p.ProbeDuration(ctx, path)
}

func (e *Extractor) tryPlatform(path string) (seconds int, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			seconds, ok = 0, false
		}
	}()
	return e.platform.TryGetDuration(path)
}
