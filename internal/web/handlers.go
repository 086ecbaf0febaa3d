package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gorilla/mux"

	"github.com/On-Jun9/DupeChecker/internal/config"
	"github.com/On-Jun9/DupeChecker/internal/pipeline"
	"github.com/On-Jun9/DupeChecker/internal/scanner"
	"github.com/On-Jun9/DupeChecker/pkg/types"
)

// ValidationError represents a field validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type APIErrorResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeAPIError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, APIErrorResponse{Message: message})
}

func writeValidationError(w http.ResponseWriter, field, message string) {
	writeJSON(w, http.StatusBadRequest, ValidationError{
		Field:   field,
		Message: message,
	})
}

// writeSaveError maps config.ValidationError to 400 and anything else to 500.
func writeSaveError(w http.ResponseWriter, err error) {
	var validationErr *config.ValidationError
	if errors.As(err, &validationErr) {
		writeValidationError(w, validationErr.Field, validationErr.Message)
		return
	}
	writeAPIError(w, http.StatusInternalServerError, err.Error())
}

type BrowseResponse struct {
	Path    string     `json:"path"`
	Entries []DirEntry `json:"entries"`
	Error   string     `json:"error,omitempty"`
}

type DirEntry struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	IsDir bool   `json:"is_dir"`
}

func (s *Server) handleBrowse(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		homeDir, _ := os.UserHomeDir()
		path = homeDir
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			writeAPIError(w, http.StatusNotFound, err.Error())
			return
		}
		if errors.Is(err, os.ErrPermission) {
			writeAPIError(w, http.StatusForbidden, err.Error())
			return
		}
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}

	dirEntries := []DirEntry{}
	for _, entry := range entries {
		if entry.Name()[0] == '.' {
			continue
		}
		dirEntries = append(dirEntries, DirEntry{
			Name:  entry.Name(),
			Path:  filepath.Join(path, entry.Name()),
			IsDir: entry.IsDir(),
		})
	}

	writeJSON(w, http.StatusOK, BrowseResponse{
		Path:    path,
		Entries: dirEntries,
	})
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.cfg)
}

type ScanRequest struct {
	Root string `json:"root"`
}

type ScanResponse struct {
	Status string `json:"status"`
	Root   string `json:"root"`
}

// handleScan validates the root synchronously and runs the load in the
// background. A scan started while another is running supersedes it.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, http.StatusBadRequest, err.Error())
		return
	}

	root, err := scanner.ValidateRoot(req.Root)
	if err != nil {
		writeValidationError(w, "root", err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, ScanResponse{Status: "started", Root: root})

	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.pipeline.Logger().Error("Scan panicked", fmt.Errorf("%v", r))
				s.broadcastProgress(pipeline.ProgressUpdate{Type: pipeline.UpdateError, Error: fmt.Sprintf("Internal Server Error: %v", r)})
			}
		}()

		// Errors are already logged and broadcast by the pipeline.
		s.pipeline.ScanAndLoad(s.ctx, root)
	}()
}

type VideoListResponse struct {
	Files []types.VideoFile  `json:"files"`
	Stats types.CatalogStats `json:"stats"`
}

func (s *Server) handleListVideos(w http.ResponseWriter, r *http.Request) {
	cat := s.pipeline.Catalog()

	if key := r.URL.Query().Get("sort"); key != "" {
		dir := types.SortDirection(r.URL.Query().Get("dir"))
		if dir == "" {
			dir = types.SortDescending
		}
		if err := cat.SortBy(types.SortKey(key), dir); err != nil {
			writeValidationError(w, "sort", err.Error())
			return
		}
	}

	writeJSON(w, http.StatusOK, VideoListResponse{
		Files: cat.Snapshot(),
		Stats: cat.Stats(),
	})
}

type SortRequest struct {
	Key types.SortKey `json:"key"`
}

type SortResponse struct {
	SortKey       types.SortKey       `json:"sort_key"`
	SortDirection types.SortDirection `json:"sort_direction"`
	Files         []types.VideoFile   `json:"files"`
}

// handleToggleSort applies column-header semantics to the catalog.
func (s *Server) handleToggleSort(w http.ResponseWriter, r *http.Request) {
	var req SortRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, http.StatusBadRequest, err.Error())
		return
	}

	cat := s.pipeline.Catalog()
	dir, err := cat.ToggleSort(req.Key)
	if err != nil {
		writeValidationError(w, "key", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, SortResponse{
		SortKey:       req.Key,
		SortDirection: dir,
		Files:         cat.Snapshot(),
	})
}

type DeleteResponse struct {
	Status string `json:"status"`
	ID     string `json:"id"`
	Path   string `json:"path"`
}

func (s *Server) handleDeleteVideo(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	file, err := s.pipeline.DeleteByID(id)
	if err != nil {
		if errors.Is(err, pipeline.ErrNotFound) {
			writeAPIError(w, http.StatusNotFound, err.Error())
			return
		}
		var delErr *types.DeleteError
		if errors.As(err, &delErr) {
			writeAPIError(w, http.StatusConflict, delErr.Error())
			return
		}
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := DeleteResponse{Status: "deleted", ID: id, Path: file.FullPath}
	s.broadcastJSON(map[string]string{"type": "deleted", "id": id, "path": file.FullPath})
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.pipeline.Catalog().Stats())
}

func (s *Server) broadcastJSON(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	select {
	case s.hub.broadcast <- data:
	case <-s.hub.done:
	}
}

func (s *Server) broadcastProgress(update pipeline.ProgressUpdate) {
	s.broadcastJSON(update)
}

// UserData-related handlers (settings, bookmarks, path history)

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.pipeline.UserData().LoadSettings()
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	var settings types.UserSettings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		writeAPIError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.pipeline.UserData().SaveSettings(&settings); err != nil {
		writeSaveError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetBookmarks(w http.ResponseWriter, r *http.Request) {
	bookmarks, err := s.pipeline.UserData().LoadBookmarks()
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, bookmarks)
}

func (s *Server) handleSaveBookmarks(w http.ResponseWriter, r *http.Request) {
	var bookmarks types.Bookmarks
	if err := json.NewDecoder(r.Body).Decode(&bookmarks); err != nil {
		writeAPIError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.pipeline.UserData().SaveBookmarks(&bookmarks); err != nil {
		writeSaveError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetPathHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.pipeline.UserData().LoadPathHistory()
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) handleSavePathHistory(w http.ResponseWriter, r *http.Request) {
	var history types.PathHistory
	if err := json.NewDecoder(r.Body).Decode(&history); err != nil {
		writeAPIError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.pipeline.UserData().SavePathHistory(&history); err != nil {
		writeSaveError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}
