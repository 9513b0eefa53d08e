package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/spendlog/spendlog/internal/accounts"
	"github.com/spendlog/spendlog/internal/ledger"
	"github.com/spendlog/spendlog/internal/repo/memory"
	"github.com/spendlog/spendlog/internal/session"
)

func setupTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	accountsSvc := accounts.NewService(memory.NewUsersRepo())
	ledgerSvc := ledger.NewService(memory.NewExpensesRepo())
	sessions := session.NewManager(session.NewMemoryStore(), time.Hour)

	handler := NewHandler(accountsSvc, ledgerSvc, sessions, "session_token", false, nil)
	router := gin.New()
	handler.RegisterRoutes(router)

	return router
}

func postForm(t *testing.T, router *gin.Engine, path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func get(t *testing.T, router *gin.Engine, path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, path, nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()

	for _, c := range rec.Result().Cookies() {
		if c.Name == "session_token" && c.Value != "" {
			return c
		}
	}
	t.Fatal("expected a session_token cookie to be set")
	return nil
}

func decodeBody(t *testing.T, body []byte, target any) {
	t.Helper()
	if err := json.Unmarshal(body, target); err != nil {
		t.Fatalf("failed to decode body %q: %v", body, err)
	}
}

func signupForm(username, password string) url.Values {
	return url.Values{
		"username":         {username},
		"password":         {password},
		"confirm_password": {password},
	}
}

func TestSignupLoginExpenseLifecycle(t *testing.T) {
	router := setupTestRouter(t)

	// Signup succeeds and bounces to the login page.
	rec := postForm(t, router, "/signup", signupForm("alice", "pw1"), nil)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("signup: expected 303, got %d (%s)", rec.Code, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Fatalf("signup: expected redirect to /login, got %q", loc)
	}

	// A second signup with the same username is rejected.
	rec = postForm(t, router, "/signup", signupForm("alice", "pw2"), nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("duplicate signup: expected 400, got %d", rec.Code)
	}

	// Login with the original password.
	rec = postForm(t, router, "/login", url.Values{
		"username": {"alice"},
		"password": {"pw1"},
	}, nil)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("login: expected 303, got %d (%s)", rec.Code, rec.Body.String())
	}
	cookie := sessionCookie(t, rec)

	// Save an expense.
	rec = postForm(t, router, "/save", url.Values{
		"amount":      {"10.5"},
		"category":    {"food"},
		"description": {"lunch"},
	}, cookie)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("save: expected 303, got %d (%s)", rec.Code, rec.Body.String())
	}

	// It shows up on the dashboard with a fresh id.
	rec = get(t, router, "/dashboard", cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard: expected 200, got %d", rec.Code)
	}

	var listing struct {
		Expenses []struct {
			ID       string  `json:"id"`
			Amount   float64 `json:"amount"`
			Category string  `json:"category"`
		} `json:"expenses"`
		Categories []string `json:"categories"`
	}
	decodeBody(t, rec.Body.Bytes(), &listing)
	if len(listing.Expenses) != 1 {
		t.Fatalf("expected one expense, got %d", len(listing.Expenses))
	}
	id := listing.Expenses[0].ID
	if id == "" {
		t.Fatal("expected the expense to carry an id")
	}

	// Fetch it by id.
	rec = get(t, router, "/edit/"+id, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("get expense: expected 200, got %d", rec.Code)
	}

	var single struct {
		Expense struct {
			Amount      float64 `json:"amount"`
			Description string  `json:"description"`
		} `json:"expense"`
	}
	decodeBody(t, rec.Body.Bytes(), &single)
	if single.Expense.Amount != 10.5 || single.Expense.Description != "lunch" {
		t.Fatalf("unexpected expense payload: %+v", single.Expense)
	}

	// Update it.
	rec = postForm(t, router, "/edit/"+id, url.Values{
		"amount":      {"12.0"},
		"category":    {"food"},
		"description": {"lunch2"},
	}, cookie)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("update: expected 303, got %d (%s)", rec.Code, rec.Body.String())
	}

	rec = get(t, router, "/edit/"+id, cookie)
	decodeBody(t, rec.Body.Bytes(), &single)
	if single.Expense.Amount != 12.0 {
		t.Fatalf("expected amount 12.0 after update, got %v", single.Expense.Amount)
	}

	// Delete, then the id is gone.
	rec = postForm(t, router, "/delete/"+id, nil, cookie)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("delete: expected 303, got %d", rec.Code)
	}

	rec = get(t, router, "/edit/"+id, cookie)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestSignupPasswordConfirmationMismatch(t *testing.T) {
	router := setupTestRouter(t)

	rec := postForm(t, router, "/signup", url.Values{
		"username":         {"alice"},
		"password":         {"pw1"},
		"confirm_password": {"pw2"},
	}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var resp map[string]any
	decodeBody(t, rec.Body.Bytes(), &resp)
	if resp["error"] == "" {
		t.Fatal("expected an error message in the response")
	}
}

func TestLoginFailures(t *testing.T) {
	router := setupTestRouter(t)

	rec := postForm(t, router, "/signup", signupForm("alice", "pw1"), nil)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("signup: expected 303, got %d", rec.Code)
	}

	rec = postForm(t, router, "/login", url.Values{
		"username": {"alice"},
		"password": {"wrong"},
	}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password: expected 401, got %d", rec.Code)
	}

	rec = postForm(t, router, "/login", url.Values{
		"username": {"nobody"},
		"password": {"pw1"},
	}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unknown user: expected 401, got %d", rec.Code)
	}
}

func TestSaveWithoutSessionRedirectsToLogin(t *testing.T) {
	router := setupTestRouter(t)

	rec := postForm(t, router, "/save", url.Values{
		"amount":      {"5"},
		"category":    {"food"},
		"description": {"snack"},
	}, nil)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Fatalf("expected redirect to /login, got %q", loc)
	}
}

func TestSaveRejectsMalformedAmount(t *testing.T) {
	router := setupTestRouter(t)

	rec := postForm(t, router, "/signup", signupForm("alice", "pw1"), nil)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("signup: expected 303, got %d", rec.Code)
	}
	rec = postForm(t, router, "/login", url.Values{
		"username": {"alice"},
		"password": {"pw1"},
	}, nil)
	cookie := sessionCookie(t, rec)

	rec = postForm(t, router, "/save", url.Values{
		"amount":      {"ten and a half"},
		"category":    {"food"},
		"description": {"lunch"},
	}, cookie)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed amount, got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestExpensesFilterByCategory(t *testing.T) {
	router := setupTestRouter(t)

	rec := postForm(t, router, "/signup", signupForm("alice", "pw1"), nil)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("signup: expected 303, got %d", rec.Code)
	}
	rec = postForm(t, router, "/login", url.Values{
		"username": {"alice"},
		"password": {"pw1"},
	}, nil)
	cookie := sessionCookie(t, rec)

	for _, e := range []struct{ amount, category string }{
		{"10", "food"},
		{"20", "travel"},
		{"30", "food"},
	} {
		rec = postForm(t, router, "/save", url.Values{
			"amount":   {e.amount},
			"category": {e.category},
		}, cookie)
		if rec.Code != http.StatusSeeOther {
			t.Fatalf("save: expected 303, got %d", rec.Code)
		}
	}

	var listing struct {
		Expenses   []struct{ Category string } `json:"expenses"`
		Categories []string                    `json:"categories"`
	}

	rec = get(t, router, "/expenses", cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("expenses: expected 200, got %d", rec.Code)
	}
	decodeBody(t, rec.Body.Bytes(), &listing)
	if len(listing.Expenses) != 3 || len(listing.Categories) != 2 {
		t.Fatalf("unfiltered: expected 3 expenses over 2 categories, got %d/%d",
			len(listing.Expenses), len(listing.Categories))
	}

	rec = get(t, router, "/expenses?category=food", cookie)
	decodeBody(t, rec.Body.Bytes(), &listing)
	if len(listing.Expenses) != 2 {
		t.Fatalf("filtered: expected 2 expenses, got %d", len(listing.Expenses))
	}
	// The category set is derived after filtering, so it collapses to the
	// filter value.
	if len(listing.Categories) != 1 || listing.Categories[0] != "food" {
		t.Fatalf("filtered: expected categories [food], got %v", listing.Categories)
	}
}

func TestLogoutInvalidatesSession(t *testing.T) {
	router := setupTestRouter(t)

	rec := postForm(t, router, "/signup", signupForm("alice", "pw1"), nil)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("signup: expected 303, got %d", rec.Code)
	}
	rec = postForm(t, router, "/login", url.Values{
		"username": {"alice"},
		"password": {"pw1"},
	}, nil)
	cookie := sessionCookie(t, rec)

	rec = get(t, router, "/logout", cookie)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("logout: expected 303, got %d", rec.Code)
	}

	// The old token no longer authenticates anything.
	rec = get(t, router, "/dashboard", cookie)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
		t.Fatalf("expected dashboard to bounce to /login after logout, got %d %q",
			rec.Code, rec.Header().Get("Location"))
	}
}
