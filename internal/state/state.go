// Package state persists probed durations between runs so unchanged files are
// not probed again. It never decides which files are listed.
package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type ProbedFile struct {
	Path            string    `json:"path"`
	Size            int64     `json:"size"`
	ModTime         time.Time `json:"mod_time"`
	DurationSeconds int       `json:"duration_seconds"`
	Source          string    `json:"source"`
	Timestamp       time.Time `json:"timestamp"`
}

type State struct {
	mu       sync.RWMutex
	filePath string
	Probed   map[string]ProbedFile `json:"probed"`
	LastRun  time.Time             `json:"last_run"`
}

func New(filePath string) *State {
	return &State{
		filePath: filePath,
		Probed:   make(map[string]ProbedFile),
	}
}

func Load(filePath string) (*State, error) {
	s := New(filePath)

	data, err := os.ReadFile(filePath)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(data, s); err != nil {
		return nil, err
	}
	if s.Probed == nil {
		s.Probed = make(map[string]ProbedFile)
	}

	return s, nil
}

func (s *State) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(s.filePath), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	tmpFile := s.filePath + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmpFile, s.filePath); err != nil {
		os.Remove(tmpFile)
		return err
	}
	return nil
}

// Lookup returns the cached probe for path if size and modification time still match.
func (s *State) Lookup(path string, size int64, modTime time.Time) (ProbedFile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.Probed[path]
	if !ok || p.Size != size || !p.ModTime.Equal(modTime) {
		return ProbedFile{}, false
	}
	return p, true
}

// Store records a positive duration. Unknown durations are not cached so they are retried.
func (s *State) Store(path string, size int64, modTime time.Time, seconds int, source string) {
	if seconds <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.Probed[path] = ProbedFile{
		Path:            path,
		Size:            size,
		ModTime:         modTime,
		DurationSeconds: seconds,
		Source:          source,
		Timestamp:       time.Now(),
	}
	s.LastRun = time.Now()
}

func (s *State) Forget(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Probed, path)
}

func (s *State) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.Probed)
}
