package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/On-Jun9/DupeChecker/pkg/types"
)

// VideoExtensions is the fixed allow-list of scanned extensions (lowercase, no dot).
var VideoExtensions = map[string]bool{
	"mp4": true, "mkv": true, "avi": true, "mov": true, "wmv": true,
	"flv": true, "webm": true, "ts": true, "m4v": true,
}

type Scanner struct {
	includeExt map[string]bool
}

func New() *Scanner {
	return &Scanner{includeExt: VideoExtensions}
}

// IsVideo reports whether path has an allow-listed extension (case-insensitive).
func (s *Scanner) IsVideo(path string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	return s.includeExt[ext]
}

// ValidateRoot resolves root to an absolute path and checks that it is an existing directory.
func ValidateRoot(root string) (string, error) {
	if strings.TrimSpace(root) == "" {
		return "", fmt.Errorf("%w: root path is empty", types.ErrInvalidInput)
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("%w: %v", types.ErrInvalidInput, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("%w: root %q does not exist: %v", types.ErrInvalidInput, root, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: root %q is not a directory", types.ErrInvalidInput, root)
	}

	return abs, nil
}

// Scan returns the absolute paths of all allow-listed files under root.
// Unreadable entries below root are skipped.
func (s *Scanner) Scan(root string) ([]string, error) {
	abs, err := ValidateRoot(root)
	if err != nil {
		return nil, err
	}

	var paths []string

	err = filepath.WalkDir(abs, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == abs {
				return err
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}

		if !s.IsVideo(path) {
			return nil
		}

		paths = append(paths, path)
		return nil
	})

	return paths, err
}
