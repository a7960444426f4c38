package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"vidshare/httputil"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

// UserIDKey is the context key used to store the authenticated user ID.
const UserIDKey contextKey = "user_id"

// ExtractUserID returns the user ID from the request context, if present.
func ExtractUserID(r *http.Request) (string, bool) {
	uid, ok := r.Context().Value(UserIDKey).(string)
	return uid, ok && uid != ""
}

// GenerateToken creates a signed JWT for the given user ID and secret.
func GenerateToken(userID, secret string) string {
	claims := jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(7 * 24 * time.Hour).Unix(),
		"iat": time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, _ := token.SignedString([]byte(secret))
	return s
}

// ExtractUserIDFromToken parses the Bearer JWT from a request using the given secret.
func ExtractUserIDFromToken(r *http.Request, secret string) string {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}

	tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(secret), nil
	})

	if err != nil || !token.Valid {
		return ""
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ""
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return ""
	}
	return sub
}

// OptionalAuth injects the user ID into the context if a valid JWT is
// present, but does not reject unauthenticated requests.
func (h *Handler) OptionalAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := ExtractUserIDFromToken(r, h.JWTSecret)
		if userID != "" {
			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			r = r.WithContext(ctx)
		}
		next(w, r)
	}
}

// Middleware requires a valid JWT and puts the user ID into the context.
func (h *Handler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := ExtractUserIDFromToken(r, h.JWTSecret)
		if userID == "" {
			httputil.WriteJSON(w, 401, map[string]string{"error": "unauthorized"})
			return
		}
		ctx := context.WithValue(r.Context(), UserIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
