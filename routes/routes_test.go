package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/splitly/splitly-api/handlers"
	"github.com/splitly/splitly-api/middleware"
	"github.com/splitly/splitly-api/models"
	"github.com/splitly/splitly-api/store/sqlite"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	router := gin.New()
	ws := handlers.NewWSHandler()

	v1 := router.Group("/api/v1")
	SetupAuthRoutes(v1, st)

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())
	SetupExpenseRoutes(protected, st, ws)
	SetupUserRoutes(protected, st)

	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func register(t *testing.T, router *gin.Engine, username string) (string, string) {
	t.Helper()

	w := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"username":   username,
		"email":      username + "@example.com",
		"first_name": "Test",
		"last_name":  "User",
		"password":   "secret123",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register %s: expected 201, got %d: %s", username, w.Code, w.Body)
	}

	var resp models.AuthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode auth response: %v", err)
	}

	return resp.Token, resp.User.ID
}

func TestExpenseLifecycleOverHTTP(t *testing.T) {
	router := newTestRouter(t)

	creatorToken, _ := register(t, router, "alice")
	debtorToken, debtorID := register(t, router, "bob")
	outsiderToken, _ := register(t, router, "mallory")

	// Create with an explicit share for bob.
	w := doJSON(t, router, http.MethodPost, "/api/v1/expenses", creatorToken, gin.H{
		"title":          "Dinner",
		"amount":         "100.00",
		"category":       "FOOD",
		"date":           "2025-11-02",
		"payment_method": "CASH",
		"shares":         []gin.H{{"user_id": debtorID, "amount_owed": "100.00"}},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", w.Code, w.Body)
	}

	var created models.ExpenseResponse
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode expense: %v", err)
	}
	if len(created.Shares) != 1 || created.Shares[0].Username != "bob" {
		t.Fatalf("unexpected shares: %+v", created.Shares)
	}

	// Share holder can read it, an outsider cannot.
	if w := doJSON(t, router, http.MethodGet, "/api/v1/expenses/"+created.ID, debtorToken, nil); w.Code != http.StatusOK {
		t.Errorf("share holder get: expected 200, got %d", w.Code)
	}
	if w := doJSON(t, router, http.MethodGet, "/api/v1/expenses/"+created.ID, outsiderToken, nil); w.Code != http.StatusForbidden {
		t.Errorf("outsider get: expected 403, got %d", w.Code)
	}
	if w := doJSON(t, router, http.MethodGet, "/api/v1/expenses/"+created.ID, "", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous get: expected 401, got %d", w.Code)
	}

	// Debtor settles their share.
	shareID := created.Shares[0].ID
	if w := doJSON(t, router, http.MethodPatch, "/api/v1/expenses/share/"+shareID+"/pay", debtorToken, nil); w.Code != http.StatusOK {
		t.Errorf("settle: expected 200, got %d: %s", w.Code, w.Body)
	}
	if w := doJSON(t, router, http.MethodPatch, "/api/v1/expenses/share/"+shareID+"/pay", outsiderToken, nil); w.Code != http.StatusForbidden {
		t.Errorf("outsider settle: expected 403, got %d", w.Code)
	}

	// Listing shows the expense once for the debtor.
	w = doJSON(t, router, http.MethodGet, "/api/v1/expenses/all", debtorToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", w.Code)
	}
	var listing []models.ExpenseResponse
	if err := json.Unmarshal(w.Body.Bytes(), &listing); err != nil {
		t.Fatalf("failed to decode listing: %v", err)
	}
	if len(listing) != 1 || listing[0].ID != created.ID {
		t.Fatalf("unexpected listing: %+v", listing)
	}

	// Delete, then the expense is gone.
	if w := doJSON(t, router, http.MethodDelete, "/api/v1/expenses/"+created.ID, creatorToken, nil); w.Code != http.StatusNoContent {
		t.Errorf("delete: expected 204, got %d", w.Code)
	}
	if w := doJSON(t, router, http.MethodGet, "/api/v1/expenses/"+created.ID, creatorToken, nil); w.Code != http.StatusNotFound {
		t.Errorf("get after delete: expected 404, got %d", w.Code)
	}
}

func TestCreateExpense_BadAmount(t *testing.T) {
	router := newTestRouter(t)
	token, _ := register(t, router, "alice")

	w := doJSON(t, router, http.MethodPost, "/api/v1/expenses", token, gin.H{
		"title":          "Nothing",
		"amount":         "0",
		"category":       "OTHER",
		"date":           "2025-11-02",
		"payment_method": "CASH",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body)
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	router := newTestRouter(t)
	register(t, router, "alice")

	w := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"username":   "alice",
		"email":      "alice2@example.com",
		"first_name": "Test",
		"last_name":  "User",
		"password":   "secret123",
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body)
	}
}

func TestLoginAndUserSearch(t *testing.T) {
	router := newTestRouter(t)
	register(t, router, "alice")
	token, _ := register(t, router, "bob")

	w := doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"username": "alice",
		"password": "secret123",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", w.Code, w.Body)
	}

	w = doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"username": "alice",
		"password": "wrong-password",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad login: expected 401, got %d", w.Code)
	}

	w = doJSON(t, router, http.MethodGet, "/api/v1/users/search?query=ali", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("search: expected 200, got %d", w.Code)
	}
	var results []models.UserDTO
	if err := json.Unmarshal(w.Body.Bytes(), &results); err != nil {
		t.Fatalf("failed to decode search results: %v", err)
	}
	if len(results) != 1 || results[0].Username != "alice" {
		t.Fatalf("unexpected search results: %+v", results)
	}

	w = doJSON(t, router, http.MethodGet, "/api/v1/users/alice", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get user: expected 200, got %d", w.Code)
	}
}
