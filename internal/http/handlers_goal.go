package http

import (
	"net/http"
	"strconv"

	"finview/internal/core"
	"finview/internal/log"
)

type goalsPage struct {
	Title    string
	UserName string
	Error    string
	Goals    []goalRow
}

func (s *Server) handleGoals(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.renderGoals(w, r, "", http.StatusOK)
	case http.MethodPost:
		s.handleCreateGoal(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) renderGoals(w http.ResponseWriter, r *http.Request, formError string, status int) {
	user, ok := currentUser(r.Context())
	if !ok {
		http.Redirect(w, r, "/auth/login", http.StatusFound)
		return
	}

	goals, err := s.store.ListGoals(r.Context(), user.ID)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "List goals failed",
			log.FieldError, err.Error(), log.FieldUserID, user.ID)
		s.renderError(w, r, http.StatusInternalServerError, "Could not load your goals. Please try again.")
		return
	}

	page := goalsPage{
		Title:    "Savings goals",
		UserName: user.FullName,
		Error:    formError,
	}
	for _, g := range goals {
		progress := core.GoalProgress(g)
		width := int(progress)
		if width > 100 {
			width = 100
		}
		row := goalRow{
			ID:       g.ID,
			Name:     g.Name,
			Target:   formatAmount(g.TargetAmount.Cents),
			Current:  formatAmount(g.CurrentAmount.Cents),
			Progress: formatPercent(progress),
			Width:    width,
		}
		if !g.Deadline.IsZero() {
			row.Deadline = g.Deadline.Format("02 Jan 2006")
		}
		page.Goals = append(page.Goals, row)
	}

	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	s.render(w, r, "goals.html", page)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r.Context())
	if !ok {
		http.Redirect(w, r, "/auth/login", http.StatusFound)
		return
	}
	logger := log.FromContext(r.Context())

	if err := r.ParseForm(); err != nil {
		s.renderGoals(w, r, "Invalid request.", http.StatusBadRequest)
		return
	}

	target, err := core.ParseAmount(r.Form.Get("target_amount"))
	if err != nil {
		s.renderGoals(w, r, "Invalid target amount.", http.StatusUnprocessableEntity)
		return
	}

	goal := core.Goal{
		UserID:       user.ID,
		Name:         sanitizeInput(r.Form.Get("name")),
		Description:  sanitizeInput(r.Form.Get("description")),
		TargetAmount: target,
	}
	if v := sanitizeInput(r.Form.Get("deadline")); v != "" {
		deadline, err := parseDateField(v, timeNow())
		if err != nil {
			s.renderGoals(w, r, "Invalid deadline, expected YYYY-MM-DD.", http.StatusUnprocessableEntity)
			return
		}
		goal.Deadline = deadline
	}
	if err := goal.Validate(); err != nil {
		s.renderGoals(w, r, "Invalid goal: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}

	created, err := s.store.CreateGoal(r.Context(), goal)
	if err != nil {
		logger.ErrorContext(r.Context(), "Create goal failed",
			log.FieldError, err.Error(), log.FieldUserID, user.ID)
		s.renderError(w, r, http.StatusInternalServerError, "Could not save the goal. Please try again.")
		return
	}

	logger.InfoContext(r.Context(), "Goal created",
		log.FieldOperation, log.OpCreate,
		log.FieldGoalID, created.ID,
		log.FieldUserID, user.ID)

	s.InvalidateUserCache(user.ID)
	http.Redirect(w, r, "/goals", http.StatusSeeOther)
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	user, ok := currentUser(r.Context())
	if !ok {
		http.Redirect(w, r, "/auth/login", http.StatusFound)
		return
	}

	if err := r.ParseForm(); err != nil {
		s.renderGoals(w, r, "Invalid request.", http.StatusBadRequest)
		return
	}
	id, err := strconv.ParseInt(r.Form.Get("id"), 10, 64)
	if err != nil {
		s.renderGoals(w, r, "Invalid goal id.", http.StatusUnprocessableEntity)
		return
	}
	current, err := core.ParseAmount(r.Form.Get("current_amount"))
	if err != nil {
		s.renderGoals(w, r, "Invalid amount.", http.StatusUnprocessableEntity)
		return
	}

	if err := s.store.UpdateGoalAmount(r.Context(), user.ID, id, current); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Update goal failed",
			log.FieldError, err.Error(), log.FieldGoalID, id, log.FieldUserID, user.ID)
		s.renderError(w, r, http.StatusInternalServerError, "Could not update the goal. Please try again.")
		return
	}

	s.InvalidateUserCache(user.ID)
	http.Redirect(w, r, "/goals", http.StatusSeeOther)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	user, ok := currentUser(r.Context())
	if !ok {
		http.Redirect(w, r, "/auth/login", http.StatusFound)
		return
	}

	if err := r.ParseForm(); err != nil {
		s.renderGoals(w, r, "Invalid request.", http.StatusBadRequest)
		return
	}
	id, err := strconv.ParseInt(r.Form.Get("id"), 10, 64)
	if err != nil {
		s.renderGoals(w, r, "Invalid goal id.", http.StatusUnprocessableEntity)
		return
	}

	if err := s.store.DeleteGoal(r.Context(), user.ID, id); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Delete goal failed",
			log.FieldError, err.Error(), log.FieldGoalID, id, log.FieldUserID, user.ID)
	} else {
		s.InvalidateUserCache(user.ID)
	}

	http.Redirect(w, r, "/goals", http.StatusSeeOther)
}
