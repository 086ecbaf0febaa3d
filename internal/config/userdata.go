package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/On-Jun9/DupeChecker/pkg/types"
)

// MaxRecentRoots bounds the path history.
const MaxRecentRoots = 20

// UserDataManager manages user data (settings, bookmarks, path history).
type UserDataManager struct {
	dataDir string
}

// validatePath checks for potentially malicious characters in paths.
// Paths end up in the web UI, so HTML/script patterns are rejected.
// Note: <> alone are allowed as they're valid in Unix filenames.
func validatePath(path string) error {
	if path == "" {
		return nil
	}

	lowerPath := strings.ToLower(path)

	htmlTagPatterns := []string{
		"<script",
		"</script",
		"<iframe",
		"<object",
		"<embed",
		"<img",
	}

	for _, pattern := range htmlTagPatterns {
		if strings.Contains(lowerPath, pattern) {
			return fmt.Errorf("path contains HTML tag pattern: %s", pattern)
		}
	}

	dangerousPatterns := []string{
		"javascript:",
		"onerror=",
		"onload=",
		"onclick=",
		"onmouseover=",
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(lowerPath, pattern) {
			return fmt.Errorf("path contains potentially malicious pattern: %s", pattern)
		}
	}

	if len(path) > 4096 {
		return fmt.Errorf("path too long (max 4096 characters)")
	}

	return nil
}

// NewUserDataManager creates a manager rooted at ~/.dupechecker.
func NewUserDataManager() (*UserDataManager, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return NewUserDataManagerAt(filepath.Join(homeDir, dataDirName))
}

// NewUserDataManagerAt creates a manager that keeps its files in dataDir.
func NewUserDataManagerAt(dataDir string) (*UserDataManager, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &UserDataManager{dataDir: dataDir}, nil
}

// writeJSON marshals v and replaces filename atomically (temp file then rename).
func (m *UserDataManager) writeJSON(name, what string, v any) error {
	filename := filepath.Join(m.dataDir, name)
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", what, err)
	}

	tmpFile := filename + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s file: %w", what, err)
	}
	if err := os.Rename(tmpFile, filename); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("failed to rename %s file: %w", what, err)
	}

	return nil
}

// readJSON reports found=false when the file does not exist.
func (m *UserDataManager) readJSON(name, what string, v any) (bool, error) {
	data, err := os.ReadFile(filepath.Join(m.dataDir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read %s file: %w", what, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", what, err)
	}
	return true, nil
}

// SaveSettings saves user settings to disk.
func (m *UserDataManager) SaveSettings(settings *types.UserSettings) error {
	if err := validatePath(settings.LastRoot); err != nil {
		return &ValidationError{
			Field:   "last_root",
			Message: fmt.Sprintf("invalid root path: %v", err),
		}
	}
	if settings.SortKey != "" && !settings.SortKey.Valid() {
		return &ValidationError{Field: "sort_key", Message: "must be one of name, size, duration, modified"}
	}
	if settings.SortDirection != "" && !settings.SortDirection.Valid() {
		return &ValidationError{Field: "sort_direction", Message: "must be asc or desc"}
	}

	settings.UpdatedAt = time.Now()
	return m.writeJSON("settings.json", "settings", settings)
}

// LoadSettings loads user settings from disk.
// Returns default settings if file doesn't exist.
func (m *UserDataManager) LoadSettings() (*types.UserSettings, error) {
	var settings types.UserSettings
	found, err := m.readJSON("settings.json", "settings", &settings)
	if err != nil {
		return nil, err
	}
	if !found {
		return &types.UserSettings{
			SortKey:       types.SortByDuration,
			SortDirection: types.SortDescending,
			Jobs:          0,
			FFprobePath:   "ffprobe",
			ShellFallback: true,
			LogFile:       filepath.Join(m.dataDir, "dupechecker.log"),
			UpdatedAt:     time.Now(),
		}, nil
	}

	return &settings, nil
}

// SaveBookmarks saves bookmarks to disk.
func (m *UserDataManager) SaveBookmarks(bookmarks *types.Bookmarks) error {
	for _, path := range bookmarks.Roots {
		if err := validatePath(path); err != nil {
			return &ValidationError{
				Field:   "bookmarks",
				Message: fmt.Sprintf("invalid bookmark: %v", err),
			}
		}
	}

	bookmarks.UpdatedAt = time.Now()
	return m.writeJSON("bookmarks.json", "bookmarks", bookmarks)
}

// LoadBookmarks loads bookmarks from disk.
// Returns empty bookmarks if file doesn't exist.
func (m *UserDataManager) LoadBookmarks() (*types.Bookmarks, error) {
	var bookmarks types.Bookmarks
	found, err := m.readJSON("bookmarks.json", "bookmarks", &bookmarks)
	if err != nil {
		return nil, err
	}
	if !found {
		return &types.Bookmarks{Roots: []string{}, UpdatedAt: time.Now()}, nil
	}
	return &bookmarks, nil
}

// SavePathHistory saves path history to disk.
func (m *UserDataManager) SavePathHistory(history *types.PathHistory) error {
	for _, path := range history.Roots {
		if err := validatePath(path); err != nil {
			return &ValidationError{
				Field:   "path_history",
				Message: fmt.Sprintf("invalid path in history: %v", err),
			}
		}
	}

	history.UpdatedAt = time.Now()
	return m.writeJSON("path-history.json", "path history", history)
}

// LoadPathHistory loads path history from disk.
// Returns empty history if file doesn't exist.
func (m *UserDataManager) LoadPathHistory() (*types.PathHistory, error) {
	var history types.PathHistory
	found, err := m.readJSON("path-history.json", "path history", &history)
	if err != nil {
		return nil, err
	}
	if !found {
		return &types.PathHistory{Roots: []string{}, UpdatedAt: time.Now()}, nil
	}
	return &history, nil
}

// AddRecentRoot moves root to the front of the path history, keeping at most
// MaxRecentRoots entries.
func (m *UserDataManager) AddRecentRoot(root string) error {
	history, err := m.LoadPathHistory()
	if err != nil {
		return fmt.Errorf("failed to load path history: %w", err)
	}

	roots := make([]string, 0, len(history.Roots)+1)
	roots = append(roots, root)
	for _, r := range history.Roots {
		if r != root {
			roots = append(roots, r)
		}
	}
	if len(roots) > MaxRecentRoots {
		roots = roots[:MaxRecentRoots]
	}
	history.Roots = roots

	if err := m.SavePathHistory(history); err != nil {
		return fmt.Errorf("failed to save path history: %w", err)
	}
	return nil
}
