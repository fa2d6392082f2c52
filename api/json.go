package api

import (
	"encoding/json"
	"net/http"
	"runtime/debug"
	"time"
)

func (h *Handler) readJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Errorf("write response for %s %s: %v", r.Method, r.URL.Path, err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	h.writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: err.Error()})
}

func (h *Handler) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	h.log.Errorf("%s %s failed: %v", r.Method, r.URL.Path, err)
	h.writeJSON(w, r, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
}

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		h.log.Debugf("%s %s took %s", r.Method, r.URL.Path, time.Since(start))
	})
}

func (h *Handler) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				h.log.Errorf("panic in %s %s: %v\n%s", r.Method, r.URL.Path, rec, debug.Stack())
				h.writeJSON(w, r, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}
