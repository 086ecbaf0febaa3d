package web

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/On-Jun9/DupeChecker/internal/config"
	"github.com/On-Jun9/DupeChecker/internal/pipeline"
)

type Server struct {
	router   *mux.Router
	hub      *Hub
	cfg      *config.Config
	pipeline *pipeline.Pipeline
	version  string

	// ctx bounds background loads; cancelled by Close.
	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer builds the pipeline described by cfg and wires it to the HTTP API.
func NewServer(cfg *config.Config) (*Server, error) {
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}

	p, err := pipeline.New(cfg)
	if err != nil {
		return nil, err
	}

	return NewServerWithPipeline(cfg, p), nil
}

func NewServerWithPipeline(cfg *config.Config, p *pipeline.Pipeline) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		router:   mux.NewRouter(),
		hub:      NewHub(),
		cfg:      cfg,
		pipeline: p,
		version:  "unknown",
		ctx:      ctx,
		cancel:   cancel,
	}

	p.SetProgressCallback(s.broadcastProgress)

	go s.hub.Run()

	s.setupRoutes()
	return s
}

func (s *Server) SetVersion(v string) {
	s.version = v
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/version", s.handleVersion).Methods("GET")
	api.HandleFunc("/browse", s.handleBrowse).Methods("GET")
	api.HandleFunc("/config", s.handleGetConfig).Methods("GET")
	api.HandleFunc("/ws", s.handleWebSocket)

	// Catalog routes
	api.HandleFunc("/scan", s.handleScan).Methods("POST")
	api.HandleFunc("/videos", s.handleListVideos).Methods("GET")
	api.HandleFunc("/videos/{id}", s.handleDeleteVideo).Methods("DELETE")
	api.HandleFunc("/sort", s.handleToggleSort).Methods("POST")
	api.HandleFunc("/stats", s.handleStats).Methods("GET")

	// UserData routes (settings, bookmarks, path history)
	api.HandleFunc("/settings", s.handleGetSettings).Methods("GET")
	api.HandleFunc("/settings", s.handleSaveSettings).Methods("POST")
	api.HandleFunc("/bookmarks", s.handleGetBookmarks).Methods("GET")
	api.HandleFunc("/bookmarks", s.handleSaveBookmarks).Methods("POST")
	api.HandleFunc("/path-history", s.handleGetPathHistory).Methods("GET")
	api.HandleFunc("/path-history", s.handleSavePathHistory).Methods("POST")

	s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")
}

func (s *Server) Start(addr string) error {
	fmt.Printf("Starting DupeChecker Web UI at http://%s\n", addr)
	return http.ListenAndServe(addr, s.router)
}

// Close cancels background loads, disconnects websocket clients and closes the pipeline.
func (s *Server) Close() error {
	s.cancel()
	s.hub.Stop()
	return s.pipeline.Close()
}
