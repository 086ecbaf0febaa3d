// Package types defines core data structures used across DupeChecker modules.
package types

import (
	"time"
)

// VideoFile represents one discovered video file in the catalog.
type VideoFile struct {
	// ID is a stable, URL-safe identifier derived from FullPath.
	ID string `json:"id"`
	// Name is the base filename shown in the list.
	Name string `json:"name"`
	// FullPath is the absolute path and the unique key within a catalog.
	FullPath string `json:"full_path"`
	// SizeBytes is the file length in bytes.
	SizeBytes int64 `json:"size_bytes"`
	// SizeDisplay is derived from SizeBytes (e.g., "476.8 MB", "1.40 GB").
	SizeDisplay string `json:"size_display"`
	// DurationSeconds is the playback length. 0 means unknown.
	DurationSeconds int `json:"duration_seconds"`
	// DurationDisplay is "mm:ss" or "hh:mm:ss", empty when DurationSeconds is 0.
	DurationDisplay string `json:"duration_display"`
	// ModifiedAt is the filesystem last-write time.
	ModifiedAt time.Time `json:"modified_at"`
	// DurationSource indicates which strategy produced the duration (e.g., "mp4", "ffprobe", "shell", "cache").
	DurationSource string `json:"duration_source,omitempty"`
}

// MediaMetadata contains the result of a duration extraction.
type MediaMetadata struct {
	// DurationSeconds is the extracted duration, 0 if every strategy failed.
	DurationSeconds int
	// Source indicates where the duration came from.
	Source string
	// Error contains the collected failure reasons if any.
	Error string
}

// SortKey selects the column used to order the catalog.
type SortKey string

const (
	SortByName     SortKey = "name"
	SortBySize     SortKey = "size"
	SortByDuration SortKey = "duration"
	SortByModified SortKey = "modified"
)

// Valid reports whether k is one of the known sort keys.
func (k SortKey) Valid() bool {
	switch k {
	case SortByName, SortBySize, SortByDuration, SortByModified:
		return true
	}
	return false
}

// SortDirection is the ordering direction of a sort.
type SortDirection string

const (
	SortAscending  SortDirection = "asc"
	SortDescending SortDirection = "desc"
)

// Valid reports whether d is a known direction.
func (d SortDirection) Valid() bool {
	return d == SortAscending || d == SortDescending
}

// Reverse returns the opposite direction.
func (d SortDirection) Reverse() SortDirection {
	if d == SortAscending {
		return SortDescending
	}
	return SortAscending
}

// LoadSummary contains statistics for a completed scan-and-load.
type LoadSummary struct {
	Root            string        `json:"root"`
	Generation      uint64        `json:"generation"`
	ScannedFiles    int           `json:"scanned_files"`
	LoadedFiles     int           `json:"loaded_files"`
	SkippedFiles    int           `json:"skipped_files"`
	UnknownDuration int           `json:"unknown_duration"`
	CacheHits       int           `json:"cache_hits"`
	TotalBytes      int64         `json:"total_bytes"`
	StartTime       time.Time     `json:"start_time"`
	EndTime         time.Time     `json:"end_time"`
	Duration        time.Duration `json:"duration"`
}

// CatalogStats holds the aggregate views over the current catalog.
type CatalogStats struct {
	Count              int           `json:"count"`
	MostRecentModified *time.Time    `json:"most_recent_modified,omitempty"`
	SortKey            SortKey       `json:"sort_key"`
	SortDirection      SortDirection `json:"sort_direction"`
}

// UserSettings represents the persisted user preferences.
type UserSettings struct {
	LastRoot      string        `json:"last_root"`
	SortKey       SortKey       `json:"sort_key"`
	SortDirection SortDirection `json:"sort_direction"`
	Jobs          int           `json:"jobs"`
	FFprobePath   string        `json:"ffprobe_path"`
	ShellFallback bool          `json:"shell_fallback"`
	LogFile       string        `json:"log_file"`
	LogJSON       bool          `json:"log_json"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// PathHistory stores the list of recently scanned roots, most recent first.
type PathHistory struct {
	Roots     []string  `json:"roots"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Bookmarks stores the user's bookmarked folders.
type Bookmarks struct {
	Roots     []string  `json:"roots"`
	UpdatedAt time.Time `json:"updated_at"`
}
