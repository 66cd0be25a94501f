package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"finview/internal/core"
)

func TestCreateTransaction(t *testing.T) {
	st := newFakeStore()
	st.addUser("ada@example.com", "Ada")
	pub := &fakePublisher{}
	srv, tokens := newTestServer(t, st, &fakeProvider{}, pub)

	form := "type=expense&description=Groceries&amount=12.50&category=Food&date=2024-03-10"
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, authedRequest(t, tokens, "ada@example.com", http.MethodPost, "/transactions", form))

	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/transactions" {
		t.Fatalf("status=%d location=%q body=%s", rr.Code, rr.Header().Get("Location"), rr.Body.String())
	}
	if len(st.txs) != 1 {
		t.Fatalf("transactions stored=%d, want 1", len(st.txs))
	}
	tx := st.txs[0]
	if tx.Amount.Cents != 1250 || tx.Kind != core.Expense || tx.Category != "Food" {
		t.Fatalf("unexpected transaction: %+v", tx)
	}
	if !tx.Date.Equal(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("date=%v", tx.Date)
	}
	if len(pub.events) != 1 || pub.events[0] != tx.ID {
		t.Fatalf("transaction event not published: %v", pub.events)
	}
}

func TestCreateTransactionDefaultsDateToToday(t *testing.T) {
	st := newFakeStore()
	st.addUser("ada@example.com", "Ada")
	srv, tokens := newTestServer(t, st, &fakeProvider{}, nil)

	form := "type=income&description=Salary&amount=2500"
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, authedRequest(t, tokens, "ada@example.com", http.MethodPost, "/transactions", form))

	if rr.Code != http.StatusSeeOther {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	now := time.Now()
	want := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if !st.txs[0].Date.Equal(want) {
		t.Fatalf("date=%v, want today %v", st.txs[0].Date, want)
	}
}

func TestCreateTransactionInvalidAmount(t *testing.T) {
	st := newFakeStore()
	st.addUser("ada@example.com", "Ada")
	srv, tokens := newTestServer(t, st, &fakeProvider{}, nil)

	form := "type=expense&description=Groceries&amount=abc"
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, authedRequest(t, tokens, "ada@example.com", http.MethodPost, "/transactions", form))

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status=%d, want 422", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Invalid amount") {
		t.Fatalf("missing form error: %s", rr.Body.String())
	}
	if len(st.txs) != 0 {
		t.Fatalf("invalid transaction was stored")
	}
}

func TestCreateTransactionRejectsBadKind(t *testing.T) {
	st := newFakeStore()
	st.addUser("ada@example.com", "Ada")
	srv, tokens := newTestServer(t, st, &fakeProvider{}, nil)

	form := "type=transfer&description=Groceries&amount=10"
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, authedRequest(t, tokens, "ada@example.com", http.MethodPost, "/transactions", form))

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status=%d, want 422", rr.Code)
	}
}

func TestListTransactionsRenders(t *testing.T) {
	st := newFakeStore()
	user := st.addUser("ada@example.com", "Ada")
	st.txs = append(st.txs, core.Transaction{
		ID: 7, UserID: user.ID,
		Date:        time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		Description: "Groceries",
		Amount:      core.Money{Cents: 1250},
		Kind:        core.Expense,
		Category:    "Food",
	})
	srv, tokens := newTestServer(t, st, &fakeProvider{}, nil)

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, authedRequest(t, tokens, "ada@example.com", http.MethodGet, "/transactions", ""))
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{"Groceries", "€12.50", "10 Mar 2024"} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q", want)
		}
	}
}

func TestDeleteTransaction(t *testing.T) {
	st := newFakeStore()
	user := st.addUser("ada@example.com", "Ada")
	st.txs = append(st.txs, core.Transaction{ID: 7, UserID: user.ID, Description: "Groceries", Amount: core.Money{Cents: 1250}, Kind: core.Expense, Date: time.Now()})
	srv, tokens := newTestServer(t, st, &fakeProvider{}, nil)

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, authedRequest(t, tokens, "ada@example.com", http.MethodPost, "/transactions/delete", "id=7"))
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("status=%d", rr.Code)
	}
	if len(st.txs) != 0 {
		t.Fatalf("transaction not deleted")
	}

	// Deleting a row that is already gone still redirects.
	rr = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, authedRequest(t, tokens, "ada@example.com", http.MethodPost, "/transactions/delete", "id=7"))
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("repeat delete status=%d", rr.Code)
	}
}
