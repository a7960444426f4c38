// Package videos implements the video catalog: upload (file and link),
// listing and search, single-video fetch, ownership-gated delete and like
// toggling.
package videos

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"vidshare/provider"
)

const (
	maxTitleLen       = 200
	maxDescriptionLen = 2000

	// Upload size ceiling: 5 GiB.
	maxUploadBytes int64 = 5 << 30

	defaultPageSize = 12
	maxPageSize     = 48
)

// allowedExtensions enumerates the accepted upload container formats.
var allowedExtensions = map[string]bool{
	".mp4": true, ".mov": true, ".avi": true,
	".wmv": true, ".flv": true, ".webm": true,
}

// videoColumns is the shared select list for video responses, joined with
// the owning user for display.
const videoColumns = `
	v.id, v.title, v.description, v.storage_id, v.video_url, v.thumbnail_url,
	v.provider, v.duration, v.views, v.liked_by, v.tags, v.is_public,
	v.created_at, v.updated_at, v.owner_id, u.username, u.display_name, u.avatar_url`

// nowStamp returns the current UTC time as fixed-width ISO 8601 text.
// Nanosecond padding keeps lexicographic and chronological order identical.
func nowStamp() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000000000Z")
}

// splitTags turns a comma-separated tag string into a trimmed, non-empty,
// order-preserving list.
func splitTags(raw string) []string {
	tags := make([]string, 0)
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

type scanner interface {
	Scan(dest ...interface{}) error
}

// scanVideoRow scans one joined video row into the response shape. The
// classifier re-derives playback information from the stored URL so the SPA
// player and the server share one classification path.
func scanVideoRow(s scanner, c provider.Classifier, viewerID string) (map[string]interface{}, error) {
	var id, title, description, storageID, videoURL, thumbnailURL, providerKind string
	var likedByJSON, tagsJSON, createdAt, updatedAt, ownerID, username, displayName string
	var avatarURL sql.NullString
	var duration float64
	var views int64
	var isPublic int

	if err := s.Scan(&id, &title, &description, &storageID, &videoURL, &thumbnailURL,
		&providerKind, &duration, &views, &likedByJSON, &tagsJSON, &isPublic,
		&createdAt, &updatedAt, &ownerID, &username, &displayName, &avatarURL); err != nil {
		return nil, err
	}

	var likedBy, tags []string
	json.Unmarshal([]byte(likedByJSON), &likedBy)
	json.Unmarshal([]byte(tagsJSON), &tags)
	if tags == nil {
		tags = []string{}
	}

	liked := false
	if viewerID != "" {
		for _, uid := range likedBy {
			if uid == viewerID {
				liked = true
				break
			}
		}
	}

	res := c.Classify(videoURL)

	var avatar interface{}
	if avatarURL.Valid {
		avatar = avatarURL.String
	}

	return map[string]interface{}{
		"id": id, "title": title, "description": description,
		"storage_id": storageID, "video_url": videoURL,
		"thumbnail_url": thumbnailURL, "provider": providerKind,
		"playback": res.Playback(), "embed_url": res.EmbedURL,
		"duration_seconds": duration, "views": views,
		"likes_count": len(likedBy), "liked": liked,
		"tags": tags, "is_public": isPublic == 1,
		"created_at": createdAt, "updated_at": updatedAt,
		"owner": map[string]interface{}{
			"id": ownerID, "username": username,
			"display_name": displayName, "avatar_url": avatar,
		},
	}, nil
}

// fetchVideo loads a single video with its owner expanded.
func (h *Handler) fetchVideo(ctx context.Context, id, viewerID string) (map[string]interface{}, error) {
	row := h.DB.QueryRowContext(ctx, `
		SELECT `+videoColumns+`
		FROM videos v
		JOIN users u ON v.owner_id = u.id
		WHERE v.id = ?`, id)
	return scanVideoRow(row, h.Classifier, viewerID)
}

// appendToOwnerList adds a video reference to the owner's video_ids. The
// write is separate from the video insert and is not rolled back on failure.
func (h *Handler) appendToOwnerList(ctx context.Context, ownerID, videoID string) error {
	var idsJSON string
	if err := h.DB.QueryRowContext(ctx,
		`SELECT video_ids FROM users WHERE id = ?`, ownerID).Scan(&idsJSON); err != nil {
		return err
	}
	var ids []string
	json.Unmarshal([]byte(idsJSON), &ids)
	ids = append(ids, videoID)
	out, _ := json.Marshal(ids)
	_, err := h.DB.ExecContext(ctx,
		`UPDATE users SET video_ids = ? WHERE id = ?`, string(out), ownerID)
	return err
}

// removeFromOwnerList pulls a video reference from the owner's video_ids.
func (h *Handler) removeFromOwnerList(ctx context.Context, ownerID, videoID string) error {
	var idsJSON string
	if err := h.DB.QueryRowContext(ctx,
		`SELECT video_ids FROM users WHERE id = ?`, ownerID).Scan(&idsJSON); err != nil {
		return err
	}
	var ids []string
	json.Unmarshal([]byte(idsJSON), &ids)
	kept := ids[:0]
	for _, v := range ids {
		if v != videoID {
			kept = append(kept, v)
		}
	}
	out, _ := json.Marshal(kept)
	_, err := h.DB.ExecContext(ctx,
		`UPDATE users SET video_ids = ? WHERE id = ?`, string(out), ownerID)
	return err
}
