package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/On-Jun9/DupeChecker/pkg/types"
)

// decodeAPIErrorResponse는 테스트 코드 동작을 검증하거나 보조합니다.
func decodeAPIErrorResponse(t *testing.T, rr *httptest.ResponseRecorder) APIErrorResponse {
	t.Helper()

	var response APIErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode APIErrorResponse: %v", err)
	}
	return response
}

// decodeValidationErrorResponse는 테스트 코드 동작을 검증하거나 보조합니다.
func decodeValidationErrorResponse(t *testing.T, rr *httptest.ResponseRecorder) ValidationError {
	t.Helper()

	var response ValidationError
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode ValidationError: %v", err)
	}
	return response
}

// decodeVideoList는 테스트 코드 동작을 검증하거나 보조합니다.
func decodeVideoList(t *testing.T, rr *httptest.ResponseRecorder) VideoListResponse {
	t.Helper()

	var response VideoListResponse
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode VideoListResponse: %v", err)
	}
	return response
}

func fileNames(files []types.VideoFile) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Name
	}
	return out
}

func assertOrder(t *testing.T, files []types.VideoFile, want ...string) {
	t.Helper()
	got := fileNames(files)
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

// TestHandleScan_ReturnsBadRequestOnInvalidJSON는 테스트 코드 동작을 검증하거나 보조합니다.
func TestHandleScan_ReturnsBadRequestOnInvalidJSON(t *testing.T) {
	// 요청 바디 파싱 실패는 400 + JSON 에러 응답이어야 한다.
	s := newTestServer(t, stubExtractor{})

	rr := serve(s, http.MethodPost, "/api/scan", "{")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
	if rr.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("expected application/json, got %s", rr.Header().Get("Content-Type"))
	}
	if decodeAPIErrorResponse(t, rr).Message == "" {
		t.Fatal("expected error message")
	}
}

// TestHandleScan_RejectsInvalidRootSynchronously는 테스트 코드 동작을 검증하거나 보조합니다.
func TestHandleScan_RejectsInvalidRootSynchronously(t *testing.T) {
	// 잘못된 루트는 작업 시작 전에 400 + {field:root}로 거부되어야 한다.
	s := newTestServer(t, stubExtractor{})
	missing := filepath.ToSlash(filepath.Join(t.TempDir(), "missing"))

	for _, body := range []string{`{}`, `{"root":"` + missing + `"}`} {
		rr := serve(s, http.MethodPost, "/api/scan", body)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400 for %s, got %d", body, rr.Code)
		}
		if field := decodeValidationErrorResponse(t, rr).Field; field != "root" {
			t.Fatalf("expected field root, got %s", field)
		}
	}
	if s.pipeline.Generation() != 0 {
		t.Fatalf("expected no load to start, generation=%d", s.pipeline.Generation())
	}
}

// TestHandleScan_LoadsCatalogSortedByDuration는 테스트 코드 동작을 검증하거나 보조합니다.
func TestHandleScan_LoadsCatalogSortedByDuration(t *testing.T) {
	// 스캔 후 /api/videos는 재생 시간 내림차순 목록과 통계를 반환해야 한다.
	s := newTestServer(t, libraryDurations())
	loadLibrary(t, s, writeLibrary(t), 3)

	rr := serve(s, http.MethodGet, "/api/videos", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	list := decodeVideoList(t, rr)
	assertOrder(t, list.Files, "long.mkv", "short.mp4", "mystery.avi")

	if list.Files[0].DurationDisplay != "02:00:00" || list.Files[2].DurationDisplay != "" {
		t.Fatalf("unexpected duration display: %+v", list.Files)
	}
	if list.Stats.Count != 3 || list.Stats.MostRecentModified == nil {
		t.Fatalf("unexpected stats: %+v", list.Stats)
	}
	if list.Stats.SortKey != types.SortByDuration || list.Stats.SortDirection != types.SortDescending {
		t.Fatalf("unexpected sort state: %+v", list.Stats)
	}
}

// TestHandleListVideos_SortQuery는 테스트 코드 동작을 검증하거나 보조합니다.
func TestHandleListVideos_SortQuery(t *testing.T) {
	// sort/dir 쿼리로 정렬을 지정할 수 있고 잘못된 키는 400이어야 한다.
	s := newTestServer(t, libraryDurations())
	loadLibrary(t, s, writeLibrary(t), 3)

	rr := serve(s, http.MethodGet, "/api/videos?sort=name&dir=asc", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	assertOrder(t, decodeVideoList(t, rr).Files, "long.mkv", "mystery.avi", "short.mp4")

	rr = serve(s, http.MethodGet, "/api/videos?sort=size", "")
	assertOrder(t, decodeVideoList(t, rr).Files, "long.mkv", "mystery.avi", "short.mp4")

	rr = serve(s, http.MethodGet, "/api/videos?sort=bitrate", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
	if field := decodeValidationErrorResponse(t, rr).Field; field != "sort" {
		t.Fatalf("expected field sort, got %s", field)
	}
}

// TestHandleToggleSort는 테스트 코드 동작을 검증하거나 보조합니다.
func TestHandleToggleSort(t *testing.T) {
	// 같은 열을 다시 선택하면 방향이 바뀌고 새 열은 내림차순으로 시작해야 한다.
	s := newTestServer(t, libraryDurations())
	loadLibrary(t, s, writeLibrary(t), 3)

	decode := func(rr *httptest.ResponseRecorder) SortResponse {
		t.Helper()
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}
		var resp SortResponse
		if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode SortResponse: %v", err)
		}
		return resp
	}

	resp := decode(serve(s, http.MethodPost, "/api/sort", `{"key":"duration"}`))
	if resp.SortDirection != types.SortAscending {
		t.Fatalf("expected asc after toggling current key, got %s", resp.SortDirection)
	}
	assertOrder(t, resp.Files, "mystery.avi", "short.mp4", "long.mkv")

	resp = decode(serve(s, http.MethodPost, "/api/sort", `{"key":"name"}`))
	if resp.SortDirection != types.SortDescending {
		t.Fatalf("expected desc for a new key, got %s", resp.SortDirection)
	}
	assertOrder(t, resp.Files, "short.mp4", "mystery.avi", "long.mkv")

	rr := serve(s, http.MethodPost, "/api/sort", `{"key":"bitrate"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}

	rr = serve(s, http.MethodPost, "/api/sort", `{`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

// TestHandleDeleteVideo는 테스트 코드 동작을 검증하거나 보조합니다.
func TestHandleDeleteVideo(t *testing.T) {
	// 삭제 성공은 200, 없는 ID는 404, 파일 삭제 실패는 409이며 실패 시 목록은 유지되어야 한다.
	s := newTestServer(t, libraryDurations())
	root := writeLibrary(t)
	loadLibrary(t, s, root, 3)

	files := s.pipeline.Catalog().Snapshot()
	long, short := files[0], files[1]

	rr := serve(s, http.MethodDelete, "/api/videos/"+long.ID, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp DeleteResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode DeleteResponse: %v", err)
	}
	if resp.Path != long.FullPath {
		t.Fatalf("unexpected deleted path: %s", resp.Path)
	}
	if _, err := os.Stat(long.FullPath); !os.IsNotExist(err) {
		t.Fatalf("expected file to be removed, stat err=%v", err)
	}
	if s.pipeline.Catalog().Count() != 2 {
		t.Fatalf("expected 2 records, got %d", s.pipeline.Catalog().Count())
	}

	rr = serve(s, http.MethodDelete, "/api/videos/does-not-exist", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}

	if err := os.Remove(short.FullPath); err != nil {
		t.Fatalf("failed to remove file behind the catalog: %v", err)
	}
	rr = serve(s, http.MethodDelete, "/api/videos/"+short.ID, "")
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rr.Code)
	}
	if decodeAPIErrorResponse(t, rr).Message == "" {
		t.Fatal("expected delete failure reason")
	}
	if s.pipeline.Catalog().Count() != 2 {
		t.Fatalf("expected catalog unchanged after failed delete, got %d", s.pipeline.Catalog().Count())
	}
}

// TestHandleStats_EmptyCatalog는 테스트 코드 동작을 검증하거나 보조합니다.
func TestHandleStats_EmptyCatalog(t *testing.T) {
	// 빈 카탈로그의 통계는 개수 0과 최신 수정 시각 없음이어야 한다.
	s := newTestServer(t, stubExtractor{})

	rr := serve(s, http.MethodGet, "/api/stats", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var stats types.CatalogStats
	if err := json.NewDecoder(rr.Body).Decode(&stats); err != nil {
		t.Fatalf("failed to decode stats: %v", err)
	}
	if stats.Count != 0 || stats.MostRecentModified != nil {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

// TestHandleBrowse는 테스트 코드 동작을 검증하거나 보조합니다.
func TestHandleBrowse(t *testing.T) {
	// 숨김 항목은 제외하고 디렉터리 여부를 표시해야 하며 없는 경로는 404여야 한다.
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "movies"), 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".hidden"), []byte("x"), 0644); err != nil {
		t.Fatalf("failed to create hidden file: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "clip.mp4"), []byte("x"), 0644); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}

	s := newTestServer(t, stubExtractor{})
	rr := serve(s, http.MethodGet, "/api/browse?path="+filepath.ToSlash(dir), "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var resp BrowseResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode browse response: %v", err)
	}
	if len(resp.Entries) != 2 {
		t.Fatalf("expected 2 visible entries, got %+v", resp.Entries)
	}
	for _, e := range resp.Entries {
		if e.Name == "movies" && !e.IsDir {
			t.Fatal("expected movies to be a directory")
		}
	}

	rr = serve(s, http.MethodGet, "/api/browse?path="+filepath.ToSlash(filepath.Join(dir, "nope")), "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
}

// TestHandleUserData_RoundTrips는 테스트 코드 동작을 검증하거나 보조합니다.
func TestHandleUserData_RoundTrips(t *testing.T) {
	// settings/bookmarks/path-history는 저장 후 같은 값을 돌려줘야 한다.
	s := newTestServer(t, stubExtractor{})

	tests := []struct {
		route string
		body  string
		check func(t *testing.T, rr *httptest.ResponseRecorder)
	}{
		{
			route: "/api/settings",
			body:  `{"last_root":"/videos","sort_key":"size","sort_direction":"asc","jobs":3}`,
			check: func(t *testing.T, rr *httptest.ResponseRecorder) {
				var got types.UserSettings
				if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
					t.Fatalf("failed to decode settings: %v", err)
				}
				if got.LastRoot != "/videos" || got.SortKey != types.SortBySize || got.Jobs != 3 {
					t.Fatalf("unexpected settings: %+v", got)
				}
			},
		},
		{
			route: "/api/bookmarks",
			body:  `{"roots":["/movies"]}`,
			check: func(t *testing.T, rr *httptest.ResponseRecorder) {
				var got types.Bookmarks
				if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
					t.Fatalf("failed to decode bookmarks: %v", err)
				}
				if len(got.Roots) != 1 || got.Roots[0] != "/movies" {
					t.Fatalf("unexpected bookmarks: %+v", got)
				}
			},
		},
		{
			route: "/api/path-history",
			body:  `{"roots":["/b","/a"]}`,
			check: func(t *testing.T, rr *httptest.ResponseRecorder) {
				var got types.PathHistory
				if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
					t.Fatalf("failed to decode path history: %v", err)
				}
				if len(got.Roots) != 2 || got.Roots[0] != "/b" {
					t.Fatalf("unexpected path history: %+v", got)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.route, func(t *testing.T) {
			rr := serve(s, http.MethodPost, tt.route, tt.body)
			if rr.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
			}

			rr = serve(s, http.MethodGet, tt.route, "")
			if rr.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d", rr.Code)
			}
			tt.check(t, rr)
		})
	}
}

// TestHandleUserData_ValidationAndDecodeErrors는 테스트 코드 동작을 검증하거나 보조합니다.
func TestHandleUserData_ValidationAndDecodeErrors(t *testing.T) {
	// 위험한 경로는 400 + field, 깨진 JSON은 400 + message로 응답해야 한다.
	s := newTestServer(t, stubExtractor{})

	tests := []struct {
		route string
		body  string
		field string
	}{
		{"/api/settings", `{"last_root":"<script>x</script>"}`, "last_root"},
		{"/api/bookmarks", `{"roots":["javascript:alert(1)"]}`, "bookmarks"},
		{"/api/path-history", `{"roots":["/a<iframe>"]}`, "path_history"},
	}

	for _, tt := range tests {
		rr := serve(s, http.MethodPost, tt.route, tt.body)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected status 400, got %d", tt.route, rr.Code)
		}
		if field := decodeValidationErrorResponse(t, rr).Field; field != tt.field {
			t.Fatalf("%s: expected field %s, got %s", tt.route, tt.field, field)
		}

		rr = serve(s, http.MethodPost, tt.route, "{")
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected status 400 for broken JSON, got %d", tt.route, rr.Code)
		}
		if decodeAPIErrorResponse(t, rr).Message == "" {
			t.Fatalf("%s: expected error message", tt.route)
		}
	}
}
