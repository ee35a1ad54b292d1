// Package server exposes the split workbench as a JSON API: sessions,
// document upload, plan editing, suggestions, split runs, previews and
// artifact downloads.
package server

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/local/pdfsplitter/internal/metrics"
	"github.com/local/pdfsplitter/internal/session"
	"github.com/local/pdfsplitter/internal/statuscheck"
	"github.com/local/pdfsplitter/internal/storage"
)

// Renderer produces page thumbnails for the preview endpoint.
type Renderer interface {
	Page(data []byte, page, width int) ([]byte, error)
}

type Server struct {
	manager   *session.Manager
	store     storage.Store
	renderer  Renderer
	checker   *statuscheck.Checker
	maxUpload int64
}

func New(manager *session.Manager, store storage.Store, renderer Renderer, checker *statuscheck.Checker, maxUploadMB int) *Server {
	if maxUploadMB <= 0 {
		maxUploadMB = 100
	}
	return &Server{
		manager:   manager,
		store:     store,
		renderer:  renderer,
		checker:   checker,
		maxUpload: int64(maxUploadMB) << 20,
	}
}

func (s *Server) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	api.HandleFunc("/sessions", s.handleCreateSession).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}", s.handleCloseSession).Methods(http.MethodDelete)
	api.HandleFunc("/sessions/{id}/document", s.handleUploadDocument).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/ranges", s.handleAddRange).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/ranges/{rangeID}", s.handleUpdateRange).Methods(http.MethodPatch)
	api.HandleFunc("/sessions/{id}/ranges/{rangeID}", s.handleRemoveRange).Methods(http.MethodDelete)
	api.HandleFunc("/sessions/{id}/plan/clear", s.handleClearPlan).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/plan/undo", s.handleUndo).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/plan/redo", s.handleRedo).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/pages/{page}/rotate", s.handleRotatePage).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/suggest", s.handleRequestSuggestions).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/suggest", s.handleSuggestionStatus).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}/split", s.handleStartSplit).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/split/reset", s.handleResetSplit).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/process", s.handleProcessStatus).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}/preview/{page}", s.handlePreview).Methods(http.MethodGet)
	api.HandleFunc("/artifacts/{handle}", s.handleDownloadArtifact).Methods(http.MethodGet)
}

// sessionFrom resolves the {id} path variable, replying 404 itself when the
// session is gone.
func (s *Server) sessionFrom(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := mux.Vars(r)["id"]
	sess, ok := s.manager.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return sess, true
}
