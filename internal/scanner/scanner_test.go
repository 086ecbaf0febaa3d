package scanner

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/On-Jun9/DupeChecker/pkg/types"
)

// TestScanner_Scan는 테스트 코드 동작을 검증하거나 보조합니다.
func TestScanner_Scan(t *testing.T) {
	// 허용 목록 확장자만 대소문자 구분 없이 재귀적으로 수집되어야 한다.
	tmpDir := t.TempDir()

	testFiles := []struct {
		name    string
		content string
	}{
		{"video1.mp4", "fake mp4"},
		{"VIDEO2.MP4", "upper mp4"},
		{"clip.mkv", "fake mkv"},
		{"document.pdf", "should be ignored"},
		{"photo.jpg", "should be ignored"},
		{"subdir/nested.webm", "nested video"},
		{"subdir/deeper/stream.TS", "nested ts"},
		{"subdir/notes.txt", "ignored"},
	}

	for _, tf := range testFiles {
		path := filepath.Join(tmpDir, tf.name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(tf.content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	s := New()
	paths, err := s.Scan(tmpDir)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if len(paths) != 5 {
		t.Fatalf("expected 5 files, got %d: %v", len(paths), paths)
	}

	sort.Strings(paths)
	want := []string{
		filepath.Join(tmpDir, "VIDEO2.MP4"),
		filepath.Join(tmpDir, "clip.mkv"),
		filepath.Join(tmpDir, "subdir/deeper/stream.TS"),
		filepath.Join(tmpDir, "subdir/nested.webm"),
		filepath.Join(tmpDir, "video1.mp4"),
	}
	sort.Strings(want)
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("path[%d]: expected %s, got %s", i, want[i], paths[i])
		}
		if !filepath.IsAbs(paths[i]) {
			t.Errorf("expected absolute path, got %s", paths[i])
		}
	}
}

// TestScanner_ScanSkipsDirectoriesNamedLikeVideos는 테스트 코드 동작을 검증하거나 보조합니다.
func TestScanner_ScanSkipsDirectoriesNamedLikeVideos(t *testing.T) {
	// 확장자처럼 보이는 디렉터리는 결과에 포함되면 안 된다.
	tmpDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(tmpDir, "folder.mp4"), 0755); err != nil {
		t.Fatal(err)
	}

	paths, err := New().Scan(tmpDir)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(paths) != 0 {
		t.Fatalf("expected no files, got %v", paths)
	}
}

// TestScanner_ScanRejectsMissingRoot는 테스트 코드 동작을 검증하거나 보조합니다.
func TestScanner_ScanRejectsMissingRoot(t *testing.T) {
	// 존재하지 않는 루트는 ErrInvalidInput으로 즉시 실패해야 한다.
	_, err := New().Scan(filepath.Join(t.TempDir(), "missing"))
	if !errors.Is(err, types.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

// TestScanner_ScanRejectsFileRoot는 테스트 코드 동작을 검증하거나 보조합니다.
func TestScanner_ScanRejectsFileRoot(t *testing.T) {
	// 파일을 루트로 지정하면 ErrInvalidInput이어야 한다.
	file := filepath.Join(t.TempDir(), "a.mp4")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := New().Scan(file)
	if !errors.Is(err, types.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

// TestValidateRoot_RejectsEmpty는 테스트 코드 동작을 검증하거나 보조합니다.
func TestValidateRoot_RejectsEmpty(t *testing.T) {
	// 빈 경로는 탐색 전에 거부되어야 한다.
	if _, err := ValidateRoot("  "); !errors.Is(err, types.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

// TestScanner_IsVideo는 테스트 코드 동작을 검증하거나 보조합니다.
func TestScanner_IsVideo(t *testing.T) {
	// 확장자 판별은 대소문자를 무시해야 한다.
	s := New()
	cases := map[string]bool{
		"a.MP4":   true,
		"b.m4v":   true,
		"c.Ts":    true,
		"d.mxf":   false,
		"e":       false,
		"f.mp4.x": false,
	}
	for name, want := range cases {
		if got := s.IsVideo(name); got != want {
			t.Errorf("IsVideo(%q) = %v, want %v", name, got, want)
		}
	}
}
