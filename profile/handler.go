// Package profile serves the authenticated user's own profile.
package profile

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"vidshare/auth"
	"vidshare/db"
	"vidshare/httputil"
)

// Handler holds dependencies for profile endpoints.
type Handler struct {
	DB *db.CompatDB
}

// HandleGetProfile returns the caller's profile with their video references.
func (h *Handler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.UserIDKey).(string)

	var username, email, displayName, videoIDsJSON, createdAt string
	var avatarURL sql.NullString
	err := h.DB.QueryRowContext(r.Context(), `
		SELECT username, email, display_name, avatar_url, video_ids, created_at
		FROM users WHERE id = ?`, userID,
	).Scan(&username, &email, &displayName, &avatarURL, &videoIDsJSON, &createdAt)
	if err != nil {
		httputil.WriteJSON(w, 404, map[string]string{"error": "user not found"})
		return
	}

	videoIDs := make([]string, 0)
	json.Unmarshal([]byte(videoIDsJSON), &videoIDs)

	var avatar interface{}
	if avatarURL.Valid {
		avatar = avatarURL.String
	}

	httputil.WriteJSON(w, 200, map[string]interface{}{
		"id":           userID,
		"username":     username,
		"email":        email,
		"display_name": displayName,
		"avatar_url":   avatar,
		"video_ids":    videoIDs,
		"video_count":  len(videoIDs),
		"created_at":   createdAt,
	})
}
