package http

import (
	"net/http"
	"strconv"

	"finview/internal/core"
	"finview/internal/log"
)

type transactionRow struct {
	ID          int64
	Date        string
	Description string
	Amount      string
	Kind        string
	Category    string
}

type transactionsPage struct {
	Title    string
	UserName string
	Error    string
	Rows     []transactionRow
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.renderTransactions(w, r, "", http.StatusOK)
	case http.MethodPost:
		s.handleCreateTransaction(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) renderTransactions(w http.ResponseWriter, r *http.Request, formError string, status int) {
	user, ok := currentUser(r.Context())
	if !ok {
		http.Redirect(w, r, "/auth/login", http.StatusFound)
		return
	}

	txs, err := s.store.ListTransactions(r.Context(), user.ID)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "List transactions failed",
			log.FieldError, err.Error(), log.FieldUserID, user.ID)
		s.renderError(w, r, http.StatusInternalServerError, "Could not load your transactions. Please try again.")
		return
	}

	page := transactionsPage{
		Title:    "Transactions",
		UserName: user.FullName,
		Error:    formError,
	}
	for _, t := range txs {
		page.Rows = append(page.Rows, transactionRow{
			ID:          t.ID,
			Date:        t.Date.Format("02 Jan 2006"),
			Description: t.Description,
			Amount:      formatAmount(t.Amount.Cents),
			Kind:        string(t.Kind),
			Category:    t.Category,
		})
	}

	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	s.render(w, r, "transactions.html", page)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r.Context())
	if !ok {
		http.Redirect(w, r, "/auth/login", http.StatusFound)
		return
	}
	logger := log.FromContext(r.Context())

	if err := r.ParseForm(); err != nil {
		s.renderTransactions(w, r, "Invalid request.", http.StatusBadRequest)
		return
	}

	amount, err := core.ParseAmount(r.Form.Get("amount"))
	if err != nil {
		s.renderTransactions(w, r, "Invalid amount.", http.StatusUnprocessableEntity)
		return
	}
	date, err := parseDateField(r.Form.Get("date"), timeNow())
	if err != nil {
		s.renderTransactions(w, r, "Invalid date, expected YYYY-MM-DD.", http.StatusUnprocessableEntity)
		return
	}

	tx := core.Transaction{
		UserID:      user.ID,
		Date:        date,
		Description: sanitizeInput(r.Form.Get("description")),
		Amount:      amount,
		Kind:        core.Kind(sanitizeInput(r.Form.Get("type"))),
		Category:    sanitizeInput(r.Form.Get("category")),
	}
	if err := tx.Validate(); err != nil {
		s.renderTransactions(w, r, "Invalid transaction: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}

	created, err := s.store.CreateTransaction(r.Context(), tx)
	if err != nil {
		logger.ErrorContext(r.Context(), "Create transaction failed",
			log.FieldError, err.Error(), log.FieldUserID, user.ID)
		s.renderError(w, r, http.StatusInternalServerError, "Could not save the transaction. Please try again.")
		return
	}

	logger.InfoContext(r.Context(), "Transaction created",
		log.FieldOperation, log.OpCreate,
		log.FieldTxID, created.ID,
		log.FieldUserID, user.ID,
		log.FieldKind, string(created.Kind),
		log.FieldAmount, created.Amount.Cents)

	s.InvalidateUserCache(user.ID)
	if s.publisher != nil {
		if err := s.publisher.PublishTransactionCreated(r.Context(), user.ID, created.ID, created.Date.Year(), int(created.Date.Month())); err != nil {
			logger.WarnContext(r.Context(), "Failed to publish transaction event",
				log.FieldError, err.Error(), log.FieldTxID, created.ID)
		}
	}

	http.Redirect(w, r, "/transactions", http.StatusSeeOther)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
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
		s.renderTransactions(w, r, "Invalid request.", http.StatusBadRequest)
		return
	}
	id, err := strconv.ParseInt(r.Form.Get("id"), 10, 64)
	if err != nil {
		s.renderTransactions(w, r, "Invalid transaction id.", http.StatusUnprocessableEntity)
		return
	}

	if err := s.store.DeleteTransaction(r.Context(), user.ID, id); err != nil {
		// Deleting a row that is already gone is not worth an error page.
		log.FromContext(r.Context()).WarnContext(r.Context(), "Delete transaction failed",
			log.FieldError, err.Error(), log.FieldTxID, id, log.FieldUserID, user.ID)
	} else {
		s.InvalidateUserCache(user.ID)
	}

	http.Redirect(w, r, "/transactions", http.StatusSeeOther)
}
