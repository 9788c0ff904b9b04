package middleware

import "net/http"

// RequestSizeLimitMiddleware caps request bodies at limit bytes. Declared
// oversize bodies are refused up front; chunked ones fail on read.
func RequestSizeLimitMiddleware(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch {
			case r.Body == nil || r.Body == http.NoBody:
			case r.ContentLength > limit:
				writeJSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			default:
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}
