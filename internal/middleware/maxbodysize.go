package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// NewMaxBodySizeHandler returns a middleware that limits incoming request body
// sizes to limit bytes. A request that advertises a larger Content-Length is
// rejected with 413 before the next handler runs; otherwise the body is
// wrapped in http.MaxBytesReader so a streamed body fails once it passes the
// limit. A limit <= 0 disables the check.
func NewMaxBodySizeHandler(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				writeTooLarge(w, limit)
				return
			}
			if r.Body != nil && r.Body != http.NoBody {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeTooLarge writes the same error body the API handlers use.
func writeTooLarge(w http.ResponseWriter, limit int64) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Connection", "close")
	w.WriteHeader(http.StatusRequestEntityTooLarge)
	//nolint:errcheck
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"code":    "too_large",
			"message": fmt.Sprintf("request body exceeds %d bytes", limit),
		},
	})
}
