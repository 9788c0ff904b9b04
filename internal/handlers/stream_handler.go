package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rusingacademy/progress-service/internal/realtime"
	"go.uber.org/zap"
)

// StreamHandler serves progress events over server-sent events
type StreamHandler struct {
	BaseHandler
	hub *realtime.Hub
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(hub *realtime.Hub, logger *zap.Logger) *StreamHandler {
	return &StreamHandler{
		BaseHandler: BaseHandler{Logger: logger},
		hub:         hub,
	}
}

// RegisterRoutes registers the learner stream behind authMiddleware and the admin stream behind adminMiddleware
func (h *StreamHandler) RegisterRoutes(r chi.Router, authMiddleware, adminMiddleware func(http.Handler) http.Handler) {
	r.With(authMiddleware).Get("/progress/stream", h.StreamUserProgress)
	r.With(adminMiddleware).Get("/admin/progress/stream", h.StreamAdminProgress)
}

// StreamUserProgress handles GET /progress/stream
// @Summary Stream own progress events
// @Description Server-sent events carrying progress:updated for the authenticated user
// @Tags stream
// @Produce text/event-stream
// @Security ApiKeyAuth
// @Success 200 {string} string "Event stream"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /progress/stream [get]
func (h *StreamHandler) StreamUserProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.AuthenticatedUser(w, r)
	if !ok {
		return
	}

	h.serve(w, r, userID, realtime.UserRoom(userID))
}

// StreamAdminProgress handles GET /admin/progress/stream
// @Summary Stream course progress events
// @Description Server-sent events carrying progress:course-updated for every learner
// @Tags stream
// @Produce text/event-stream
// @Security ApiKeyAuth
// @Success 200 {string} string "Event stream"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Router /admin/progress/stream [get]
func (h *StreamHandler) StreamAdminProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.AuthenticatedUser(w, r)
	if !ok {
		return
	}

	h.serve(w, r, userID, realtime.AdminRoom)
}

func (h *StreamHandler) serve(w http.ResponseWriter, r *http.Request, userID int, room string) {
	// The server write timeout would otherwise cut long-lived streams.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		h.Logger.Debug("could not clear write deadline", zap.Error(err))
	}

	client := h.hub.NewClient(userID)
	h.hub.Join(client, room)
	defer h.hub.CloseClient(client)

	h.Logger.Info("progress stream opened",
		zap.Int("user_id", userID),
		zap.String("room", room),
		zap.String("client_id", client.ID.String()),
	)
	h.hub.ServeSSE(w, r, client)
	h.Logger.Info("progress stream closed", zap.String("client_id", client.ID.String()))
}
