package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"finview/internal/log"
)

// handleIndex sends authenticated users to the dashboard and everyone else
// to the login page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if _, err := s.tokens.FromRequest(r); err == nil {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	http.Redirect(w, r, "/auth/login", http.StatusFound)
}

type healthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks"`
}

// handleHealth reports each backend independently; a failing store degrades
// the overall status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	resp := healthResponse{
		Status:  "ok",
		Version: s.cfg.Version,
		Checks: map[string]string{
			"store":    "ok",
			"identity": "ok",
			"cache":    "ok",
		},
	}
	status := http.StatusOK

	if err := s.store.Health(ctx); err != nil {
		resp.Checks["store"] = "error: " + err.Error()
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	}

	if err := s.provider.Health(ctx); err != nil {
		resp.Checks["identity"] = "error: " + err.Error()
		resp.Status = "degraded"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Health encode failed",
			log.FieldError, err.Error())
	}
}
