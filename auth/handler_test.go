package auth

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"vidshare/db"

	_ "modernc.org/sqlite"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	rawDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	rawDB.SetMaxOpenConns(1)
	if err := db.RunMigrations(rawDB, db.DialectSQLite); err != nil {
		t.Fatalf("schema migration: %v", err)
	}
	t.Cleanup(func() { rawDB.Close() })
	return &Handler{DB: db.NewCompatDB(rawDB, db.DialectSQLite), JWTSecret: "test-secret"}
}

func postJSON(t *testing.T, fn http.HandlerFunc, body map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	b, _ := json.Marshal(body)
	req := httptest.NewRequest("POST", "/", bytes.NewReader(b))
	rec := httptest.NewRecorder()
	fn(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var m map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&m); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	return m
}

func TestRegister_Success(t *testing.T) {
	h := newTestHandler(t)
	rec := postJSON(t, h.HandleRegister, map[string]string{
		"username": "alice", "email": "alice@test.com", "password": "password123",
	})
	if rec.Code != 201 {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	resp := decodeJSON(t, rec)
	if resp["token"] == "" || resp["user_id"] == "" {
		t.Errorf("missing token or user_id: %v", resp)
	}
}

func TestRegister_ShortPassword(t *testing.T) {
	h := newTestHandler(t)
	rec := postJSON(t, h.HandleRegister, map[string]string{
		"username": "alice", "email": "alice@test.com", "password": "short",
	})
	if rec.Code != 400 {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestRegister_InvalidEmail(t *testing.T) {
	h := newTestHandler(t)
	rec := postJSON(t, h.HandleRegister, map[string]string{
		"username": "alice", "email": "nope", "password": "password123",
	})
	if rec.Code != 400 {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	h := newTestHandler(t)
	body := map[string]string{"username": "alice", "email": "alice@test.com", "password": "password123"}
	if rec := postJSON(t, h.HandleRegister, body); rec.Code != 201 {
		t.Fatalf("first register failed: %d", rec.Code)
	}
	if rec := postJSON(t, h.HandleRegister, body); rec.Code != 409 {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestLogin_Success(t *testing.T) {
	h := newTestHandler(t)
	postJSON(t, h.HandleRegister, map[string]string{
		"username": "alice", "email": "alice@test.com", "password": "password123",
	})
	rec := postJSON(t, h.HandleLogin, map[string]string{
		"username": "alice", "password": "password123",
	})
	if rec.Code != 200 {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	if decodeJSON(t, rec)["token"] == "" {
		t.Error("missing token")
	}
}

func TestLogin_ByEmail(t *testing.T) {
	h := newTestHandler(t)
	postJSON(t, h.HandleRegister, map[string]string{
		"username": "alice", "email": "alice@test.com", "password": "password123",
	})
	rec := postJSON(t, h.HandleLogin, map[string]string{
		"username": "alice@test.com", "password": "password123",
	})
	if rec.Code != 200 {
		t.Fatalf("login by email failed: %d", rec.Code)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	h := newTestHandler(t)
	postJSON(t, h.HandleRegister, map[string]string{
		"username": "alice", "email": "alice@test.com", "password": "password123",
	})
	rec := postJSON(t, h.HandleLogin, map[string]string{
		"username": "alice", "password": "wrongpassword",
	})
	if rec.Code != 401 {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestGenerateToken_And_Extract(t *testing.T) {
	token := GenerateToken("user-42", "secret")
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	if got := ExtractUserIDFromToken(req, "secret"); got != "user-42" {
		t.Errorf("extracted %q, want user-42", got)
	}
	if got := ExtractUserIDFromToken(req, "other-secret"); got != "" {
		t.Errorf("wrong secret should fail, got %q", got)
	}
}

func TestMiddleware_Unauthorized(t *testing.T) {
	h := newTestHandler(t)
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })
	rec := httptest.NewRecorder()
	h.Middleware(next).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != 401 || called {
		t.Fatalf("expected 401 without handler call, got %d called=%v", rec.Code, called)
	}
}

func TestMiddleware_Authorized(t *testing.T) {
	h := newTestHandler(t)
	var gotID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = ExtractUserID(r)
	})
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+GenerateToken("user-7", h.JWTSecret))
	rec := httptest.NewRecorder()
	h.Middleware(next).ServeHTTP(rec, req)
	if gotID != "user-7" {
		t.Fatalf("context user = %q, want user-7", gotID)
	}
}

func TestOptionalAuth_PassesThroughAnonymous(t *testing.T) {
	h := newTestHandler(t)
	var ok bool
	next := func(w http.ResponseWriter, r *http.Request) {
		_, ok = ExtractUserID(r)
		w.WriteHeader(200)
	}
	rec := httptest.NewRecorder()
	h.OptionalAuth(next)(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != 200 || ok {
		t.Fatalf("anonymous request should pass without identity, got %d ok=%v", rec.Code, ok)
	}
}
