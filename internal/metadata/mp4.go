package metadata

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/abema/go-mp4"
)

var mp4Extensions = map[string]bool{
	"mp4": true, "m4v": true, "mov": true,
}

// MP4Prober reads the movie header (mvhd) of ISO-BMFF/QuickTime files.
type MP4Prober struct{}

func NewMP4Prober() *MP4Prober {
	return &MP4Prober{}
}

func (p *MP4Prober) Name() string {
	return SourceMP4
}

func (p *MP4Prober) ProbeDuration(ctx context.Context, path string) (int, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if !mp4Extensions[ext] {
		return 0, ErrUnsupportedFormat
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	info, err := mp4.Probe(f)
	if err != nil {
		return 0, err
	}
	if info.Timescale == 0 {
		return 0, errors.New("movie header has zero timescale")
	}

	return int(info.Duration / uint64(info.Timescale)), nil
}
