package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/trapline-dev/trapline/internal/honeypot"
	"github.com/trapline-dev/trapline/internal/session"
)

// maxBodyBytes bounds request bodies; batch payloads are the largest
// legitimate shape.
const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleEngage(w http.ResponseWriter, r *http.Request) {
	var req honeypot.EngageRequest
	if !s.decode(w, r, &req) {
		return
	}

	resp, err := s.service.Engage(r.Context(), req)
	if err != nil {
		s.writeEngageError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEngageBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Messages []honeypot.EngageRequest `json:"messages"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	items, err := s.service.EngageBatch(r.Context(), req.Messages)
	if err != nil {
		s.writeEngageError(w, err)
		return
	}
	// Item failures live in their envelopes; the batch itself is 200.
	s.writeJSON(w, http.StatusOK, map[string]any{
		"count":   len(items),
		"results": items,
	})
}

func (s *Server) handleEngageExtended(w http.ResponseWriter, r *http.Request) {
	var ext honeypot.ExtendedRequest
	if !s.decode(w, r, &ext) {
		return
	}

	resp, err := s.service.Engage(r.Context(), ext.Normalize())
	if err != nil {
		s.writeEngageError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	sess, err := s.service.GetSession(r.Context(), id)
	if errors.Is(err, session.ErrSessionNotFound) {
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: "session not found"})
		return
	}
	if err != nil {
		s.logger.Error("get session failed", "session_id", id, "error", err)
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	s.writeJSON(w, http.StatusOK, sess)
}

// decode parses a JSON body, replying 400 on malformed input. Returns
// false when the response has already been written.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

// writeEngageError maps pipeline errors onto HTTP statuses.
func (s *Server) writeEngageError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, honeypot.ErrEmptyMessage), errors.Is(err, honeypot.ErrBatchTooLong):
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		s.logger.Error("engagement failed", "error", err)
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("write response failed", "error", err)
	}
}
