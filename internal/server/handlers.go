package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/chunkdoc/internal/cache"
	"github.com/ziadkadry99/chunkdoc/internal/docgen"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 10 << 20

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, data any, message string) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: data, Message: message})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Success: false, Error: msg})
}

// statusFor maps pipeline errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, docgen.ErrInvalidRequest), errors.Is(err, docgen.ErrUnsupportedFile):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func decodeRequest(w http.ResponseWriter, r *http.Request) (docgen.Request, bool) {
	var req docgen.Request
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return req, false
	}
	if req.RequestID == "" {
		req.RequestID = r.Header.Get("X-Request-Id")
	}
	return req, true
}

// htmlResult adds rendered HTML to a result.
type htmlResult struct {
	*docgen.Result
	HTML string `json:"html"`
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}

	res, err := s.docs.Document(r.Context(), req)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			s.logger.Error("documentation request failed", "path", req.FilePath, "error", err)
		}
		writeError(w, status, err.Error())
		return
	}

	if r.URL.Query().Get("format") == "html" {
		frag, err := s.renderer.Fragment(res.Documentation)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeData(w, htmlResult{Result: res, HTML: frag}, "Documentation generated successfully")
		return
	}
	writeData(w, res, "Documentation generated successfully")
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}
	est, err := s.docs.Estimate(r.Context(), req)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeData(w, est, "")
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	writeData(w, s.cache.Stats(r.Context()), "")
}

func (s *Server) handleCacheGet(w http.ResponseWriter, r *http.Request) {
	key, err := cache.ParseKey(chi.URLParam(r, "key"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	e, ok := s.cache.Lookup(r.Context(), key)
	if !ok {
		writeError(w, http.StatusNotFound, "cache entry not found")
		return
	}
	writeData(w, e, "")
}

func (s *Server) handleCacheDelete(w http.ResponseWriter, r *http.Request) {
	key, err := cache.ParseKey(chi.URLParam(r, "key"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.cache.Remove(r.Context(), key); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeData(w, map[string]string{"file_hash": key.String()}, "Cache entry removed")
}
