package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"vidshare/db"
	"vidshare/httputil"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const maxPasswordLen = 72 // bcrypt truncates at 72 bytes

// Handler holds dependencies for authentication endpoints.
type Handler struct {
	DB        *db.CompatDB
	JWTSecret string
}

// RegisterRequest is the JSON body for POST /api/auth/register.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleRegister creates a new user account and returns a signed token.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	httputil.MaxBody(r, httputil.DefaultBodyLimit)

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, 400, map[string]string{"error": "invalid request body"})
		return
	}
	if len(req.Username) < 3 || len(req.Password) < 8 {
		httputil.WriteJSON(w, 400, map[string]string{"error": "username must be 3+ chars, password 8+ chars"})
		return
	}
	if len(req.Password) > maxPasswordLen {
		httputil.WriteJSON(w, 400, map[string]string{"error": "password must not exceed 72 characters"})
		return
	}
	if !strings.Contains(req.Email, "@") || len(req.Email) < 5 {
		httputil.WriteJSON(w, 400, map[string]string{"error": "a valid email address is required"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		httputil.WriteJSON(w, 500, map[string]string{"error": "internal error"})
		return
	}

	userID := uuid.New().String()
	_, err = h.DB.ExecContext(r.Context(), `
		INSERT INTO users (id, username, email, password_hash, display_name, created_at)
		VALUES (?, ?, ?, ?, ?, `+h.DB.NowUTC()+`)`,
		userID, req.Username, req.Email, string(hash), req.Username)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") || strings.Contains(err.Error(), "duplicate key") {
			httputil.WriteJSON(w, 409, map[string]string{"error": "username or email already taken"})
			return
		}
		httputil.WriteJSON(w, 500, map[string]string{"error": "failed to create user"})
		return
	}

	httputil.WriteJSON(w, 201, map[string]string{
		"token":   GenerateToken(userID, h.JWTSecret),
		"user_id": userID,
	})
}

// LoginRequest is the JSON body for POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleLogin authenticates an existing user by username or email.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	httputil.MaxBody(r, httputil.DefaultBodyLimit)

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, 400, map[string]string{"error": "invalid request body"})
		return
	}

	var userID, hash string
	err := h.DB.QueryRowContext(r.Context(),
		`SELECT id, password_hash FROM users WHERE username = ? OR email = ?`,
		req.Username, req.Username,
	).Scan(&userID, &hash)
	if err != nil {
		httputil.WriteJSON(w, 401, map[string]string{"error": "invalid credentials"})
		return
	}

	if len(req.Password) > maxPasswordLen {
		httputil.WriteJSON(w, 401, map[string]string{"error": "invalid credentials"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)); err != nil {
		httputil.WriteJSON(w, 401, map[string]string{"error": "invalid credentials"})
		return
	}

	httputil.WriteJSON(w, 200, map[string]string{
		"token":   GenerateToken(userID, h.JWTSecret),
		"user_id": userID,
	})
}
