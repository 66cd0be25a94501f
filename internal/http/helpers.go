package http

import (
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"finview/internal/log"
)

const dateInputLayout = "2006-01-02"

// timeNow is swapped in tests.
var timeNow = time.Now

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// formatAmount renders cents as a currency string, e.g. "€1234.56".
func formatAmount(cents int64) string {
	neg := cents < 0
	if neg {
		cents = -cents
	}
	s := fmt.Sprintf("€%d.%02d", cents/100, cents%100)
	if neg {
		return "-" + s
	}
	return s
}

// formatPercent renders a percentage with one decimal, e.g. "12.5%".
func formatPercent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"amount":  formatAmount,
		"percent": formatPercent,
	}
}

// render executes a template, falling back to a plain 500 on failure.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Templates not loaded",
			log.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			log.FieldError, err.Error(), "template", name)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// renderError writes an error page with the given status.
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if s.templates != nil {
		data := struct {
			Status  int
			Message string
		}{Status: status, Message: message}
		if err := s.templates.ExecuteTemplate(w, "error.html", data); err == nil {
			return
		}
	}
	fmt.Fprintf(w, "<h1>%d</h1><p>%s</p>", status, template.HTMLEscapeString(message))
}

// parseDateField parses a YYYY-MM-DD form value, defaulting to today when
// empty.
func parseDateField(v string, now time.Time) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	d, err := time.Parse(dateInputLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", v, err)
	}
	return d, nil
}
