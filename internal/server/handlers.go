package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/local/pdfsplitter/internal/planner"
	"github.com/local/pdfsplitter/internal/statuscheck"
)

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.checker == nil {
		writeJSON(w, http.StatusOK, statuscheck.Summary{})
		return
	}
	writeJSON(w, http.StatusOK, s.checker.Summary(r.Context()))
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := s.manager.Create()
	writeJSON(w, http.StatusCreated, sess.Snapshot())
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFrom(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, ok := s.manager.Get(id); !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	if !s.manager.Remove(id) {
		writeError(w, http.StatusConflict, "session is mid-split")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFrom(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", mbe.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, hdr, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}
	name := hdr.Filename
	if name == "" {
		name = "upload.pdf"
	}

	if err := sess.LoadDocument(name, data); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess.Snapshot())
}

func (s *Server) handleAddRange(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFrom(w, r)
	if !ok {
		return
	}

	var body struct {
		Start int `json:"start"`
		End   int `json:"end"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	rng, err := sess.AddRange(body.Start, body.End)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rng)
}

func (s *Server) handleUpdateRange(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFrom(w, r)
	if !ok {
		return
	}
	rangeID := mux.Vars(r)["rangeID"]

	var body struct {
		Label *string `json:"label"`
		Color *string `json:"color"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if body.Label == nil && body.Color == nil {
		writeError(w, http.StatusBadRequest, "nothing to update")
		return
	}

	touched := false
	if body.Label != nil {
		changed, err := sess.RelabelRange(rangeID, *body.Label)
		if err != nil {
			respondError(w, err)
			return
		}
		touched = touched || changed
	}
	if body.Color != nil {
		changed, err := sess.RecolorRange(rangeID, *body.Color)
		if err != nil {
			respondError(w, err)
			return
		}
		touched = touched || changed
	}
	if !touched {
		writeError(w, http.StatusNotFound, "range not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveRange(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFrom(w, r)
	if !ok {
		return
	}
	removed, err := sess.RemoveRange(mux.Vars(r)["rangeID"])
	if err != nil {
		respondError(w, err)
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "range not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearPlan(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFrom(w, r)
	if !ok {
		return
	}
	if err := sess.ClearRanges(); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFrom(w, r)
	if !ok {
		return
	}
	plan, err := sess.Undo()
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFrom(w, r)
	if !ok {
		return
	}
	plan, err := sess.Redo()
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// handleRotatePage advances the page a quarter turn, or jumps straight to
// the posted degrees when the body carries them.
func (s *Server) handleRotatePage(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFrom(w, r)
	if !ok {
		return
	}
	page, err := strconv.Atoi(mux.Vars(r)["page"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid page")
		return
	}

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	var degrees *int
	if len(strings.TrimSpace(string(raw))) > 0 {
		var body struct {
			Degrees *int `json:"degrees"`
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		degrees = body.Degrees
	}

	var rotation int
	if degrees != nil {
		if err := sess.SetPageRotation(page, *degrees); err != nil {
			respondRotateError(w, err)
			return
		}
		rotation = *degrees
	} else {
		rotation, err = sess.RotatePage(page)
		if err != nil {
			respondRotateError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]int{"page": page, "rotation": rotation})
}

// respondRotateError treats everything that is not a known state conflict
// as bad input.
func respondRotateError(w http.ResponseWriter, err error) {
	code := httpStatus(err)
	if code == http.StatusInternalServerError {
		code = http.StatusUnprocessableEntity
	}
	writeError(w, code, err.Error())
}

func (s *Server) handleRequestSuggestions(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFrom(w, r)
	if !ok {
		return
	}

	var body struct {
		Instructions string `json:"instructions"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
	}

	id, err := sess.RequestSuggestions(body.Instructions)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"request_id": id, "state": "pending"})
}

func (s *Server) handleSuggestionStatus(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFrom(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.SuggestionStatus())
}

func (s *Server) handleStartSplit(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFrom(w, r)
	if !ok {
		return
	}

	var body struct {
		Strategy   string `json:"strategy"`
		ChunkSize  int    `json:"chunk_size"`
		Expression string `json:"expression"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
	}

	strategy, err := planner.ParseStrategy(body.Strategy)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := sess.StartSplit(strategy, body.ChunkSize, body.Expression); err != nil {
		respondError(w, err)
		return
	}
	log.Info().Str("session", sess.ID).Str("strategy", string(strategy)).Msg("split started")
	writeJSON(w, http.StatusAccepted, sess.ProcessStatus())
}

func (s *Server) handleResetSplit(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFrom(w, r)
	if !ok {
		return
	}
	if err := sess.ResetSplit(); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleProcessStatus(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFrom(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.ProcessStatus())
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFrom(w, r)
	if !ok {
		return
	}
	page, err := strconv.Atoi(mux.Vars(r)["page"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid page")
		return
	}
	width := 0
	if q := r.URL.Query().Get("width"); q != "" {
		if width, err = strconv.Atoi(q); err != nil {
			writeError(w, http.StatusBadRequest, "invalid width")
			return
		}
	}

	data, _, err := sess.Source()
	if err != nil {
		respondError(w, err)
		return
	}
	if page < 0 || page >= sess.Snapshot().PageCount {
		writeError(w, http.StatusNotFound, "page not found")
		return
	}

	img, err := s.renderer.Page(data, page, width)
	if err != nil {
		log.Error().Err(err).Str("session", sess.ID).Int("page", page).Msg("preview render failed")
		writeError(w, http.StatusInternalServerError, "render failed")
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(img)
}

func (s *Server) handleDownloadArtifact(w http.ResponseWriter, r *http.Request) {
	handle := mux.Vars(r)["handle"]
	art, err := s.store.Get(r.Context(), handle)
	if err != nil {
		respondError(w, err)
		return
	}

	contentType := "application/pdf"
	if strings.HasSuffix(art.Name, ".zip") {
		contentType = "application/zip"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", art.Name))
	_, _ = w.Write(art.Data)
}
