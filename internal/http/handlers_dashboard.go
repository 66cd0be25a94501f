package http

import (
	"fmt"
	"net/http"

	"finview/internal/log"
)

type dashboardPage struct {
	Title    string
	UserName string
	View     dashboardView
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	user, ok := currentUser(r.Context())
	if !ok {
		http.Redirect(w, r, "/auth/login", http.StatusFound)
		return
	}
	logger := log.FromContext(r.Context())
	now := timeNow()

	key := fmt.Sprintf("%d:%s", user.ID, now.Format("2006-01"))
	view, hit := s.dashCache.Get(key)
	if !hit {
		txs, err := s.store.ListTransactions(r.Context(), user.ID)
		if err != nil {
			logger.ErrorContext(r.Context(), "List transactions failed",
				log.FieldError, err.Error(), log.FieldUserID, user.ID)
			s.renderError(w, r, http.StatusInternalServerError, "Could not load your dashboard. Please try again.")
			return
		}
		goals, err := s.store.ListGoals(r.Context(), user.ID)
		if err != nil {
			logger.ErrorContext(r.Context(), "List goals failed",
				log.FieldError, err.Error(), log.FieldUserID, user.ID)
			s.renderError(w, r, http.StatusInternalServerError, "Could not load your dashboard. Please try again.")
			return
		}
		view = buildDashboardView(txs, goals, now)
		s.dashCache.Set(key, view)
	} else {
		logger.DebugContext(r.Context(), "Dashboard cache hit", log.FieldUserID, user.ID)
	}

	name := user.FullName
	if name == "" {
		name = user.Email
	}
	s.render(w, r, "dashboard.html", dashboardPage{
		Title:    "Dashboard",
		UserName: name,
		View:     view,
	})
}
