package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/local/pdfsplitter/internal/filetype"
	"github.com/local/pdfsplitter/internal/planner"
	"github.com/local/pdfsplitter/internal/process"
	"github.com/local/pdfsplitter/internal/segment"
	"github.com/local/pdfsplitter/internal/session"
	"github.com/local/pdfsplitter/internal/storage"
	"github.com/local/pdfsplitter/internal/suggest"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorBody{Error: msg})
}

// httpStatus maps domain errors onto response codes: bad input is 422,
// state conflicts are 409, a missing oracle is 503.
func httpStatus(err error) int {
	switch {
	case segment.IsValidation(err),
		errors.Is(err, filetype.ErrUnsupported),
		errors.Is(err, session.ErrBadDocument),
		errors.Is(err, planner.ErrEmptyPlan),
		errors.Is(err, planner.ErrBadChunkSize),
		errors.Is(err, planner.ErrEmptySelection),
		errors.Is(err, process.ErrNoOutputs):
		return http.StatusUnprocessableEntity
	case errors.Is(err, segment.ErrNoDocument),
		errors.Is(err, session.ErrSplitInProgress),
		errors.Is(err, session.ErrSuggestionPending),
		errors.Is(err, process.ErrAlreadyRunning),
		errors.Is(err, process.ErrNotIdle),
		errors.Is(err, process.ErrNotTerminal),
		errors.Is(err, suggest.ErrPending),
		errors.Is(err, suggest.ErrClosed):
		return http.StatusConflict
	case errors.Is(err, suggest.ErrNoOracle):
		return http.StatusServiceUnavailable
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func respondError(w http.ResponseWriter, err error) {
	writeError(w, httpStatus(err), err.Error())
}
