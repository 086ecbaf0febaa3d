package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// FFprobeProber shells out to ffprobe, which understands every container in the allow-list.
type FFprobeProber struct {
	binary string
}

// NewFFprobeProber resolves binary on PATH and fails if it cannot be found.
func NewFFprobeProber(binary string) (*FFprobeProber, error) {
	resolved, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("ffprobe not found: %w", err)
	}
	return &FFprobeProber{binary: resolved}, nil
}

func (p *FFprobeProber) Name() string {
	return SourceFFprobe
}

func (p *FFprobeProber) ProbeDuration(ctx context.Context, path string) (int, error) {
	cmd := exec.CommandContext(ctx, p.binary,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "json",
		path,
	)

	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return 0, fmt.Errorf("ffprobe failed: %s", strings.TrimSpace(string(exitErr.Stderr)))
		}
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}

	return parseFFprobeOutput(out)
}

type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

func parseFFprobeOutput(data []byte) (int, error) {
	var out ffprobeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return 0, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	raw := strings.TrimSpace(out.Format.Duration)
	if raw == "" || raw == "N/A" {
		return 0, errors.New("ffprobe reported no duration")
	}

	seconds, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid ffprobe duration %q: %w", raw, err)
	}
	if seconds < 0 {
		return 0, fmt.Errorf("invalid ffprobe duration %q", raw)
	}

	return int(seconds), nil
}
