package videos

import (
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"vidshare/auth"
	"vidshare/httputil"

	"github.com/go-chi/chi/v5"
)

// HandleList serves the public catalog with optional substring search and
// page/limit pagination.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := auth.ExtractUserID(r)

	page := parsePositive(r.URL.Query().Get("page"), 1)
	limit := parsePositive(r.URL.Query().Get("limit"), defaultPageSize)
	if limit > maxPageSize {
		limit = maxPageSize
	}

	where := "v.is_public = 1"
	args := []interface{}{}
	if search := r.URL.Query().Get("search"); search != "" {
		// Case-insensitive substring match across title, description and the
		// JSON-encoded tag list; a hit in any one field qualifies.
		pattern := "%" + escapeLike(strings.ToLower(search)) + "%"
		where += ` AND (LOWER(v.title) LIKE ? ESCAPE '\' OR LOWER(v.description) LIKE ? ESCAPE '\' OR LOWER(v.tags) LIKE ? ESCAPE '\')`
		args = append(args, pattern, pattern, pattern)
	}

	var total int
	if err := h.DB.QueryRowContext(r.Context(),
		`SELECT COUNT(*) FROM videos v WHERE `+where, args...).Scan(&total); err != nil {
		httputil.WriteJSON(w, 500, map[string]string{"error": "failed to list videos"})
		return
	}
	totalPages := (total + limit - 1) / limit

	rows, err := h.DB.QueryContext(r.Context(), `
		SELECT `+videoColumns+`
		FROM videos v
		JOIN users u ON v.owner_id = u.id
		WHERE `+where+`
		ORDER BY v.created_at DESC
		LIMIT ? OFFSET ?`, append(args, limit, (page-1)*limit)...)
	if err != nil {
		httputil.WriteJSON(w, 500, map[string]string{"error": "failed to list videos"})
		return
	}
	defer rows.Close()

	videos := make([]map[string]interface{}, 0)
	for rows.Next() {
		v, err := scanVideoRow(rows, h.Classifier, viewerID)
		if err != nil {
			continue
		}
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		log.Printf("HandleList: rows iteration error: %v", err)
	}

	httputil.WriteJSON(w, 200, map[string]interface{}{
		"videos":      videos,
		"totalPages":  totalPages,
		"currentPage": page,
	})
}

// HandleGet returns a single video and unconditionally increments its view
// counter. Visibility is not enforced on this path.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "id")
	viewerID, _ := auth.ExtractUserID(r)

	// Store-level increment; concurrent fetches never lose an update.
	res, err := h.DB.ExecContext(r.Context(), `
		UPDATE videos SET views = views + 1, updated_at = ?
		WHERE id = ?`, nowStamp(), videoID)
	if err != nil {
		httputil.WriteJSON(w, 500, map[string]string{"error": "failed to load video"})
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		httputil.WriteJSON(w, 404, map[string]string{"error": "video not found"})
		return
	}

	video, err := h.fetchVideo(r.Context(), videoID, viewerID)
	if err != nil {
		httputil.WriteJSON(w, 404, map[string]string{"error": "video not found"})
		return
	}
	httputil.WriteJSON(w, 200, video)
}

// HandleMyVideos lists the authenticated user's own videos, private included.
func (h *Handler) HandleMyVideos(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.UserIDKey).(string)

	rows, err := h.DB.QueryContext(r.Context(), `
		SELECT `+videoColumns+`
		FROM videos v
		JOIN users u ON v.owner_id = u.id
		WHERE v.owner_id = ?
		ORDER BY v.created_at DESC`, userID)
	if err != nil {
		httputil.WriteJSON(w, 500, map[string]string{"error": "failed to list videos"})
		return
	}
	defer rows.Close()

	videos := make([]map[string]interface{}, 0)
	for rows.Next() {
		v, err := scanVideoRow(rows, h.Classifier, userID)
		if err != nil {
			continue
		}
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		log.Printf("HandleMyVideos: rows iteration error: %v", err)
	}

	httputil.WriteJSON(w, 200, videos)
}

// HandleStream returns a presigned URL for a blob-store-hosted video.
func (h *Handler) HandleStream(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "id")

	var storageID, videoURL string
	err := h.DB.QueryRowContext(r.Context(),
		`SELECT storage_id, video_url FROM videos WHERE id = ?`,
		videoID).Scan(&storageID, &videoURL)
	if err != nil {
		httputil.WriteJSON(w, 404, map[string]string{"error": "video not found"})
		return
	}

	if !strings.Contains(videoURL, h.Classifier.StorageMarker) {
		httputil.WriteJSON(w, 404, map[string]string{"error": "video is not hosted in storage"})
		return
	}

	streamURL, err := h.Store.PresignedGet(r.Context(), storageID, 2*time.Hour)
	if err != nil {
		httputil.WriteJSON(w, 500, map[string]string{"error": "failed to generate stream URL"})
		return
	}
	httputil.WriteJSON(w, 200, map[string]string{"url": streamURL})
}

// escapeLike neutralizes LIKE metacharacters so a search term matches
// literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func parsePositive(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
