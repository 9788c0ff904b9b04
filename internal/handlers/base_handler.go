package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rusingacademy/progress-service/internal/middleware"
	"go.uber.org/zap"
)

// BaseHandler carries the response helpers shared by all handlers
type BaseHandler struct {
	Logger *zap.Logger
}

// RespondJSON writes data as a JSON body with the given status
func (h *BaseHandler) RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// RespondError writes the {"error": message} envelope
func (h *BaseHandler) RespondError(w http.ResponseWriter, status int, message string) {
	h.RespondJSON(w, status, map[string]string{"error": message})
}

// RespondValidationError sends a 400 response listing every failed field
func (h *BaseHandler) RespondValidationError(w http.ResponseWriter, messages []string) {
	h.RespondJSON(w, http.StatusBadRequest, map[string]any{
		"error":   "validation failed",
		"details": messages,
	})
}

// AuthenticatedUser returns the user ID set by the auth middleware, answering
// 401 itself when the route was mounted without it
func (h *BaseHandler) AuthenticatedUser(w http.ResponseWriter, r *http.Request) (int, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.Logger.Error("user ID not found in context", zap.String("path", r.URL.Path))
		h.RespondError(w, http.StatusUnauthorized, "user ID not found in context")
	}
	return userID, ok
}

// DecodeJSON reads the request body into dst. On failure it has already
// answered 413 for an oversize body or 400 otherwise.
func (h *BaseHandler) DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		h.RespondError(w, http.StatusRequestEntityTooLarge, "request body too large")
	} else {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
	}
	return false
}
