package videos

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"vidshare/auth"
	"vidshare/httputil"

	"github.com/go-chi/chi/v5"
)

// HandleLike toggles the caller's like on a video and returns the new state.
// The read-modify-write is not serialized against concurrent toggles.
func (h *Handler) HandleLike(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.UserIDKey).(string)
	videoID := chi.URLParam(r, "id")

	var likedByJSON string
	err := h.DB.QueryRowContext(r.Context(),
		`SELECT liked_by FROM videos WHERE id = ?`, videoID).Scan(&likedByJSON)
	if err != nil {
		httputil.WriteJSON(w, 404, map[string]string{"error": "video not found"})
		return
	}

	var likedBy []string
	json.Unmarshal([]byte(likedByJSON), &likedBy)

	liked := true
	kept := make([]string, 0, len(likedBy)+1)
	for _, uid := range likedBy {
		if uid == userID {
			liked = false
			continue
		}
		kept = append(kept, uid)
	}
	if liked {
		kept = append(kept, userID)
	}

	out, _ := json.Marshal(kept)
	if _, err := h.DB.ExecContext(r.Context(), `
		UPDATE videos SET liked_by = ?, updated_at = ?
		WHERE id = ?`, string(out), nowStamp(), videoID); err != nil {
		httputil.WriteJSON(w, 500, map[string]string{"error": "failed to update like"})
		return
	}

	httputil.WriteJSON(w, 200, map[string]interface{}{
		"liked":      liked,
		"likesCount": len(kept),
	})
}

// HandleDelete removes a video. Only the owner may delete; blob-store
// cleanup is best-effort and never blocks the database deletion.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.UserIDKey).(string)
	videoID := chi.URLParam(r, "id")

	var ownerID, storageID, videoURL string
	err := h.DB.QueryRowContext(r.Context(),
		`SELECT owner_id, storage_id, video_url FROM videos WHERE id = ?`,
		videoID).Scan(&ownerID, &storageID, &videoURL)
	if err != nil {
		httputil.WriteJSON(w, 404, map[string]string{"error": "video not found"})
		return
	}

	if ownerID != userID {
		httputil.WriteJSON(w, 403, map[string]string{"error": "you do not own this video"})
		return
	}

	if strings.Contains(videoURL, h.Classifier.StorageMarker) && h.Store != nil {
		if err := h.Store.Remove(r.Context(), storageID); err != nil {
			log.Printf("blob delete failed for video %s (key %s): %v", videoID, storageID, err)
		}
	}

	if _, err := h.DB.ExecContext(r.Context(),
		`DELETE FROM videos WHERE id = ?`, videoID); err != nil {
		httputil.WriteJSON(w, 500, map[string]string{"error": "failed to delete video"})
		return
	}

	if err := h.removeFromOwnerList(r.Context(), userID, videoID); err != nil {
		// The video row is already gone; report the half-finished delete.
		log.Printf("owner list update failed after deleting video %s: %v", videoID, err)
		httputil.WriteJSON(w, 500, map[string]string{"error": "failed to delete video"})
		return
	}

	httputil.WriteJSON(w, 200, map[string]string{"message": "video deleted"})
}
