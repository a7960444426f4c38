package videos

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"vidshare/auth"
	"vidshare/db"
	"vidshare/httputil"
	"vidshare/provider"

	"github.com/google/uuid"
)

// BlobStore is the subset of the storage client the video handlers need.
type BlobStore interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Remove(ctx context.Context, key string) error
	PresignedGet(ctx context.Context, key string, expiry time.Duration) (string, error)
	ObjectURL(key string) string
}

// Handler holds dependencies for all video endpoints.
type Handler struct {
	DB         *db.CompatDB
	Store      BlobStore
	Classifier provider.Classifier
}

// validateMeta checks the caller-supplied title and description limits.
// Returns a client-facing message, or "" when valid.
func validateMeta(title, description string) string {
	if strings.TrimSpace(title) == "" {
		return "title is required"
	}
	if len(title) > maxTitleLen {
		return fmt.Sprintf("title must not exceed %d characters", maxTitleLen)
	}
	if len(description) > maxDescriptionLen {
		return fmt.Sprintf("description must not exceed %d characters", maxDescriptionLen)
	}
	return ""
}

// persistVideo inserts the video row. The owner-list update is a separate,
// non-transactional write done by the callers.
func (h *Handler) persistVideo(ctx context.Context, id, title, description, storageID,
	videoURL, thumbnailURL string, kind provider.Kind, duration float64,
	tags []string, ownerID string) error {

	tagsJSON, _ := json.Marshal(tags)
	now := nowStamp()
	_, err := h.DB.ExecContext(ctx, `
		INSERT INTO videos (id, title, description, storage_id, video_url, thumbnail_url,
		                    provider, duration, views, liked_by, owner_id, tags, is_public,
		                    created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, '[]', ?, ?, 1, ?, ?)`,
		id, title, description, storageID, videoURL, thumbnailURL,
		string(kind), duration, ownerID, string(tagsJSON), now, now)
	return err
}

// respondCreated runs the shared tail of both upload modes: owner-list sync
// and the 201 response with the owner expanded.
func (h *Handler) respondCreated(w http.ResponseWriter, r *http.Request, userID, videoID string) {
	if err := h.appendToOwnerList(r.Context(), userID, videoID); err != nil {
		// The video row is already persisted; the dangling reference is a
		// documented inconsistency window, surfaced as a server error.
		log.Printf("owner list update failed for video %s: %v", videoID, err)
		httputil.WriteJSON(w, 500, map[string]string{"error": "failed to save video"})
		return
	}

	video, err := h.fetchVideo(r.Context(), videoID, userID)
	if err != nil {
		httputil.WriteJSON(w, 500, map[string]string{"error": "failed to load video"})
		return
	}
	httputil.WriteJSON(w, 201, video)
}

// HandleUpload accepts a multipart video upload: the binary goes to the blob
// store, the record to the database.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.UserIDKey).(string)
	httputil.MaxBody(r, maxUploadBytes)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		httputil.WriteJSON(w, 400, map[string]string{"error": "invalid multipart form"})
		return
	}

	file, header, err := r.FormFile("video")
	if err != nil {
		httputil.WriteJSON(w, 400, map[string]string{"error": "video file is required"})
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtensions[ext] {
		httputil.WriteJSON(w, 400, map[string]string{"error": "unsupported video format (allowed: mp4, mov, avi, wmv, flv, webm)"})
		return
	}

	title := r.FormValue("title")
	description := r.FormValue("description")
	if msg := validateMeta(title, description); msg != "" {
		httputil.WriteJSON(w, 400, map[string]string{"error": msg})
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "video/" + strings.TrimPrefix(ext, ".")
	}

	// The object key is the storage identifier kept for later deletion.
	key := "videos/" + uuid.New().String() + ext
	if err := h.Store.Upload(r.Context(), key, file, header.Size, contentType); err != nil {
		log.Printf("blob upload failed: %v", err)
		httputil.WriteJSON(w, 500, map[string]string{"error": "failed to store video"})
		return
	}

	videoURL := h.Store.ObjectURL(key)
	res := h.Classifier.Classify(videoURL)

	videoID := uuid.New().String()
	if err := h.persistVideo(r.Context(), videoID, title, description, key,
		videoURL, res.Thumbnail, res.Kind, 0, splitTags(r.FormValue("tags")), userID); err != nil {
		log.Printf("video insert failed: %v", err)
		httputil.WriteJSON(w, 500, map[string]string{"error": "failed to save video"})
		return
	}

	h.respondCreated(w, r, userID, videoID)
}

// UploadLinkRequest is the JSON body for POST /api/videos/upload-link.
type UploadLinkRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Tags        string `json:"tags"`
	VideoURL    string `json:"videoUrl"`
}

// HandleUploadLink registers an externally hosted video by URL.
func (h *Handler) HandleUploadLink(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.UserIDKey).(string)
	httputil.MaxBody(r, httputil.DefaultBodyLimit)

	var req UploadLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, 400, map[string]string{"error": "invalid request body"})
		return
	}

	if req.VideoURL == "" {
		httputil.WriteJSON(w, 400, map[string]string{"error": "videoUrl is required"})
		return
	}
	parsed, err := url.Parse(req.VideoURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		httputil.WriteJSON(w, 400, map[string]string{"error": "videoUrl must be a valid http or https URL"})
		return
	}

	if msg := validateMeta(req.Title, req.Description); msg != "" {
		httputil.WriteJSON(w, 400, map[string]string{"error": msg})
		return
	}

	res := h.Classifier.Classify(req.VideoURL)
	storageID := res.ID
	if storageID == "" {
		// No provider-scoped id could be derived; synthesize a unique token.
		storageID = fmt.Sprintf("link_%d", time.Now().UnixMilli())
	}

	videoID := uuid.New().String()
	if err := h.persistVideo(r.Context(), videoID, req.Title, req.Description, storageID,
		req.VideoURL, res.Thumbnail, res.Kind, 0, splitTags(req.Tags), userID); err != nil {
		log.Printf("video insert failed: %v", err)
		httputil.WriteJSON(w, 500, map[string]string{"error": "failed to save video"})
		return
	}

	h.respondCreated(w, r, userID, videoID)
}
