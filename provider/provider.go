// Package provider classifies video URLs by origin and derives thumbnail,
// identifier and playback information from the URL alone. Classification is
// purely syntactic: no network calls, no existence checks. The same results
// are served to the SPA through the API so the player never has to re-derive
// the provider itself.
package provider

import (
	"fmt"
	"regexp"
	"strings"
)

// Kind identifies the service a video URL points to.
type Kind string

const (
	KindStorage Kind = "storage"
	KindDrive   Kind = "drive"
	KindYouTube Kind = "youtube"
	KindVimeo   Kind = "vimeo"
	KindDirect  Kind = "direct"
)

// DefaultStorageMarker is the path marker of blob-store-hosted uploads.
const DefaultStorageMarker = "/storage/"

// FallbackThumbnail is returned for URLs matching no known provider.
const FallbackThumbnail = "https://images.pexels.com/photos/799443/pexels-photo-799443.jpeg?auto=compress&w=800"

// frameSegment is the path component inserted before a storage-hosted
// filename to address its first-frame capture.
const frameSegment = "frame0"

var driveFileRe = regexp.MustCompile(`/file/d/([^/?#]+)`)

// Result is the outcome of classifying a single URL.
type Result struct {
	Kind      Kind
	ID        string // provider-scoped identifier, empty when none could be derived
	Thumbnail string
	EmbedURL  string // empty for natively playable sources
}

// Playback reports how a player should render this source.
func (r Result) Playback() string {
	if r.EmbedURL != "" {
		return "embed"
	}
	return "native"
}

// Classifier holds the one configurable input to classification: the path
// marker identifying blob-store-hosted URLs.
type Classifier struct {
	StorageMarker string
}

// New returns a Classifier using the given storage marker, or
// DefaultStorageMarker when empty.
func New(storageMarker string) Classifier {
	if storageMarker == "" {
		storageMarker = DefaultStorageMarker
	}
	return Classifier{StorageMarker: storageMarker}
}

// Classify maps a raw video URL to its provider kind, a stable identifier
// and a derived thumbnail URL. Providers are tested in priority order and
// the first match wins.
func (c Classifier) Classify(rawURL string) Result {
	marker := c.StorageMarker
	if marker == "" {
		marker = DefaultStorageMarker
	}

	switch {
	case strings.Contains(rawURL, marker):
		return classifyStorage(rawURL)
	case strings.Contains(rawURL, "drive.google.com"):
		return classifyDrive(rawURL)
	case strings.Contains(rawURL, "youtube.com/watch?v=") || strings.Contains(rawURL, "youtu.be/"):
		return classifyYouTube(rawURL)
	case strings.Contains(rawURL, "vimeo.com/"):
		return classifyVimeo(rawURL)
	default:
		return Result{Kind: KindDirect, Thumbnail: FallbackThumbnail}
	}
}

// classifyStorage handles blob-store-hosted uploads. The thumbnail is the
// same URL with a frame-capture path component inserted before the filename
// and the extension swapped to .jpg; the identifier is the filename without
// its extension.
func classifyStorage(rawURL string) Result {
	path := rawURL
	if i := strings.IndexAny(path, "?#"); i != -1 {
		path = path[:i]
	}

	slash := strings.LastIndexByte(path, '/')
	dir, file := path[:slash+1], path[slash+1:]

	base := file
	if dot := strings.LastIndexByte(file, '.'); dot > 0 {
		base = file[:dot]
	}

	return Result{
		Kind:      KindStorage,
		ID:        base,
		Thumbnail: dir + frameSegment + "/" + base + ".jpg",
	}
}

// classifyDrive extracts the file id from either an id= query parameter or a
// /file/d/<id>/ path segment. URLs with neither pattern yield no identifier
// and the fallback thumbnail.
func classifyDrive(rawURL string) Result {
	id := driveQueryID(rawURL)
	if id == "" {
		if m := driveFileRe.FindStringSubmatch(rawURL); m != nil {
			id = m[1]
		}
	}

	if id == "" {
		return Result{Kind: KindDrive, Thumbnail: FallbackThumbnail}
	}

	return Result{
		Kind:      KindDrive,
		ID:        "drive_" + id,
		Thumbnail: fmt.Sprintf("https://drive.google.com/thumbnail?id=%s&sz=w800-h450", id),
		EmbedURL:  fmt.Sprintf("https://drive.google.com/file/d/%s/preview", id),
	}
}

// driveQueryID extracts the value of the id query parameter. The match is
// anchored at a parameter boundary so parameters such as ouid= never win.
func driveQueryID(rawURL string) string {
	for _, sep := range []string{"?id=", "&id="} {
		i := strings.Index(rawURL, sep)
		if i == -1 {
			continue
		}
		id := rawURL[i+len(sep):]
		if j := strings.IndexAny(id, "&#"); j != -1 {
			id = id[:j]
		}
		return id
	}
	return ""
}

func classifyYouTube(rawURL string) Result {
	var id string
	if i := strings.Index(rawURL, "watch?v="); i != -1 {
		id = rawURL[i+len("watch?v="):]
	} else if i := strings.Index(rawURL, "youtu.be/"); i != -1 {
		id = rawURL[i+len("youtu.be/"):]
	}
	// Trim any trailing query string or path.
	if j := strings.IndexAny(id, "&?#/"); j != -1 {
		id = id[:j]
	}

	if id == "" {
		return Result{Kind: KindYouTube, Thumbnail: FallbackThumbnail}
	}

	return Result{
		Kind:      KindYouTube,
		ID:        "yt_" + id,
		Thumbnail: fmt.Sprintf("https://img.youtube.com/vi/%s/maxresdefault.jpg", id),
		EmbedURL:  fmt.Sprintf("https://www.youtube.com/embed/%s", id),
	}
}

// classifyVimeo takes the last path segment as the video id. Vimeo's real
// thumbnails require an authenticated API call, so a third-party proxy is
// used instead.
func classifyVimeo(rawURL string) Result {
	path := rawURL
	if i := strings.IndexAny(path, "?#"); i != -1 {
		path = path[:i]
	}
	path = strings.TrimRight(path, "/")

	id := path
	if slash := strings.LastIndexByte(path, '/'); slash != -1 {
		id = path[slash+1:]
	}

	if id == "" {
		return Result{Kind: KindVimeo, Thumbnail: FallbackThumbnail}
	}

	return Result{
		Kind:      KindVimeo,
		ID:        "vimeo_" + id,
		Thumbnail: fmt.Sprintf("https://vumbnail.com/%s.jpg", id),
		EmbedURL:  fmt.Sprintf("https://player.vimeo.com/video/%s", id),
	}
}
