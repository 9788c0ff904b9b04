package middleware

import (
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// RecoveryMiddleware turns a handler panic into a 500 response
func RecoveryMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				// The server uses ErrAbortHandler to drop a stream silently
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}

				fields := []zap.Field{
					zap.String("request_id", GetRequestID(r.Context())),
					zap.String("route", r.Method+" "+r.URL.Path),
					zap.Any("panic", rec),
					zap.Stack("stack"),
				}
				if userID, ok := GetUserID(r.Context()); ok {
					fields = append(fields, zap.Int("user_id", userID))
				}
				logger.Error("handler panicked", fields...)

				writeJSONError(w, http.StatusInternalServerError, "internal server error")
			}()

			next.ServeHTTP(w, r)
		})
	}
}
