package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/On-Jun9/DupeChecker/pkg/types"
	"gopkg.in/yaml.v3"
)

const (
	dataDirName         = ".dupechecker"
	defaultProbeTimeout = 30 * time.Second
)

type Config struct {
	Root          string              `yaml:"root" json:"root"`
	Jobs          int                 `yaml:"jobs" json:"jobs"`
	FFprobePath   string              `yaml:"ffprobe_path" json:"ffprobe_path"`
	ProbeTimeout  time.Duration       `yaml:"probe_timeout" json:"probe_timeout"`
	ShellFallback bool                `yaml:"shell_fallback" json:"shell_fallback"`
	CacheFile     string              `yaml:"cache_file" json:"cache_file"`
	IgnoreCache   bool                `yaml:"ignore_cache" json:"ignore_cache"`
	LogFile       string              `yaml:"log_file" json:"log_file"`
	LogJSON       bool                `yaml:"log_json" json:"log_json"`
	SortKey       types.SortKey       `yaml:"sort_key" json:"sort_key"`
	SortDirection types.SortDirection `yaml:"sort_direction" json:"sort_direction"`
}

// DataDir returns ~/.dupechecker, where the cache, log and user data live.
func DataDir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, dataDirName)
}

func DefaultConfig() *Config {
	jobs := runtime.NumCPU()
	if jobs < 1 {
		jobs = 4
	}

	dataDir := DataDir()

	return &Config{
		Jobs:          jobs,
		FFprobePath:   "ffprobe",
		ProbeTimeout:  defaultProbeTimeout,
		ShellFallback: true,
		CacheFile:     filepath.Join(dataDir, "probe-cache.json"),
		IgnoreCache:   false,
		LogFile:       filepath.Join(dataDir, "dupechecker.log"),
		LogJSON:       false,
		SortKey:       types.SortByDuration,
		SortDirection: types.SortDescending,
	}
}

func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the fields a scan needs and fills in the ones left empty.
func (c *Config) Validate() error {
	if c.Root == "" {
		return &ValidationError{Field: "root", Message: "root path is required"}
	}
	return c.Normalize()
}

// Normalize fills defaults without requiring a root. The web server uses it
// because the root arrives with each scan request.
func (c *Config) Normalize() error {
	if c.Jobs < 1 {
		c.Jobs = 1
	}
	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = defaultProbeTimeout
	}

	dataDir := DataDir()

	if c.LogFile == "" {
		c.LogFile = filepath.Join(dataDir, "dupechecker.log")
	}
	if c.CacheFile == "" {
		c.CacheFile = filepath.Join(dataDir, "probe-cache.json")
	}

	if c.SortKey == "" {
		c.SortKey = types.SortByDuration
	}
	if !c.SortKey.Valid() {
		return &ValidationError{Field: "sort_key", Message: "must be one of name, size, duration, modified"}
	}
	if c.SortDirection == "" {
		c.SortDirection = types.SortDescending
	}
	if !c.SortDirection.Valid() {
		return &ValidationError{Field: "sort_direction", Message: "must be asc or desc"}
	}

	return nil
}

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
