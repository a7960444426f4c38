package httputil

import (
	"encoding/json"
	"net/http"
)

// DefaultBodyLimit is the default maximum JSON request body size (1 MB).
const DefaultBodyLimit int64 = 1 << 20

// WriteJSON sends a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// MaxBody wraps r.Body with a size limit to prevent oversized payloads.
func MaxBody(r *http.Request, n int64) {
	r.Body = http.MaxBytesReader(nil, r.Body, n)
}
