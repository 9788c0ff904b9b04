package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rusingacademy/progress-service/internal/models"
	"github.com/rusingacademy/progress-service/internal/services"
	"github.com/rusingacademy/progress-service/internal/validation"
	"go.uber.org/zap"
)

// ProgressSyncService is the interface that wraps methods for lesson progress synchronization
type ProgressSyncService interface {
	// SyncProgress merges a client-reported update into the stored progress of a lesson
	//
	// "ctx" is the context for the request.
	// "userID" is the ID of the authenticated user.
	// "update" is the reported progress, its time is a delta.
	//
	// Returns the merged progress, the course aggregate when a course was given, and an error if any.
	SyncProgress(ctx context.Context, userID int, update models.ProgressUpdate) (*models.SyncResult, error)
	// BatchSync applies updates sequentially in input order
	//
	// "ctx" is the context for the request.
	// "userID" is the ID of the authenticated user.
	// "updates" is the ordered list of updates.
	//
	// Returns the number of synced updates with per-item results and an error if any.
	// On error the result still holds the updates committed before the failure.
	BatchSync(ctx context.Context, userID int, updates []models.ProgressUpdate) (*models.BatchSyncResult, error)
	// GetLessonProgress retrieves the stored progress of one lesson
	//
	// "ctx" is the context for the request.
	// "userID" is the ID of the authenticated user.
	// "lessonID" is the ID of the lesson.
	//
	// Returns the stored progress and an error if any.
	GetLessonProgress(ctx context.Context, userID, lessonID int) (*models.ProgressSnapshot, error)
	// GetUserCourseProgress retrieves per-lesson progress and the aggregate within a course
	//
	// "ctx" is the context for the request.
	// "userID" is the ID of the authenticated user.
	// "courseID" is the ID of the course.
	//
	// Returns the course progress and an error if any.
	GetUserCourseProgress(ctx context.Context, userID, courseID int) (*models.UserCourseProgress, error)
	// GetUserLearningStats aggregates progress across all courses
	//
	// "ctx" is the context for the request.
	// "userID" is the ID of the authenticated user.
	//
	// Returns the learning stats and an error if any.
	GetUserLearningStats(ctx context.Context, userID int) (*models.LearningStats, error)
}

// ProgressHandler handles HTTP requests for lesson progress
type ProgressHandler struct {
	BaseHandler
	service      ProgressSyncService
	validator    *validation.Validator
	maxBatchSize int
}

// NewProgressHandler creates a new progress handler
func NewProgressHandler(svc ProgressSyncService, validator *validation.Validator, maxBatchSize int, logger *zap.Logger) *ProgressHandler {
	return &ProgressHandler{
		BaseHandler:  BaseHandler{Logger: logger},
		service:      svc,
		validator:    validator,
		maxBatchSize: maxBatchSize,
	}
}

// RegisterRoutes registers all progress handler routes
func (h *ProgressHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/progress", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/sync", h.SyncProgress)
		r.Post("/batch-sync", h.BatchSync)
		r.Get("/lessons/{lessonId}", h.GetLessonProgress)
		r.Get("/courses/{courseId}", h.GetCourseProgress)
		r.Get("/stats", h.GetLearningStats)
	})
}

// SyncProgress handles POST /progress/sync
// @Summary Sync lesson progress
// @Description Merge a progress report for one lesson. Percent never decreases, time is added and completion is sticky.
// @Tags progress
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body models.ProgressUpdate true "Progress update"
// @Success 200 {object} models.SyncResult "Merged progress"
// @Failure 400 {object} map[string]any "Validation failed"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 409 {object} map[string]string "Concurrent update conflict"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /progress/sync [post]
func (h *ProgressHandler) SyncProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.AuthenticatedUser(w, r)
	if !ok {
		return
	}

	var update models.ProgressUpdate
	if !h.DecodeJSON(w, r, &update) {
		return
	}

	if messages := h.validator.Struct(update); messages != nil {
		h.RespondValidationError(w, messages)
		return
	}

	result, err := h.service.SyncProgress(r.Context(), userID, update)
	if err != nil {
		h.respondServiceError(w, "failed to sync progress", err, zap.Int("user_id", userID), zap.Int("lesson_id", update.LessonID))
		return
	}

	h.RespondJSON(w, http.StatusOK, result)
}

// BatchSync handles POST /progress/batch-sync
// @Summary Sync a batch of lesson progress updates
// @Description Apply up to 50 progress updates sequentially in input order, e.g. when an offline client flushes its queue
// @Tags progress
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body models.BatchSyncRequest true "Ordered updates"
// @Success 200 {object} models.BatchSyncResult "Synced count and per-item results"
// @Failure 400 {object} map[string]any "Validation failed"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 409 {object} map[string]any "Concurrent update conflict, with the number of updates already synced"
// @Failure 500 {object} map[string]any "Internal server error, with the number of updates already synced"
// @Router /progress/batch-sync [post]
func (h *ProgressHandler) BatchSync(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.AuthenticatedUser(w, r)
	if !ok {
		return
	}

	var req models.BatchSyncRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	if len(req.Updates) > h.maxBatchSize {
		h.RespondValidationError(w, []string{fmt.Sprintf("updates: must contain at most %d items", h.maxBatchSize)})
		return
	}

	if messages := h.validator.Struct(req); messages != nil {
		h.RespondValidationError(w, messages)
		return
	}

	result, err := h.service.BatchSync(r.Context(), userID, req.Updates)
	if err != nil {
		synced := 0
		if result != nil {
			synced = result.Synced
		}
		status, message := h.serviceErrorStatus("failed to batch sync progress", err,
			zap.Int("user_id", userID), zap.Int("updates", len(req.Updates)), zap.Int("synced", synced))
		// the first "synced" updates are stored and must not be resent
		h.RespondJSON(w, status, map[string]any{
			"error":  message,
			"synced": synced,
		})
		return
	}

	h.RespondJSON(w, http.StatusOK, result)
}

// GetLessonProgress handles GET /progress/lessons/{lessonId}
// @Summary Get lesson progress
// @Description Get the stored progress of one lesson, including its sync version
// @Tags progress
// @Produce json
// @Security ApiKeyAuth
// @Param lessonId path int true "Lesson ID"
// @Success 200 {object} models.ProgressSnapshot "Stored progress"
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "No progress for this lesson"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /progress/lessons/{lessonId} [get]
func (h *ProgressHandler) GetLessonProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.AuthenticatedUser(w, r)
	if !ok {
		return
	}

	lessonID, err := positiveIDParam(r, "lessonId")
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	progress, err := h.service.GetLessonProgress(r.Context(), userID, lessonID)
	if err != nil {
		h.respondServiceError(w, "failed to get lesson progress", err, zap.Int("user_id", userID), zap.Int("lesson_id", lessonID))
		return
	}

	h.RespondJSON(w, http.StatusOK, progress)
}

// GetCourseProgress handles GET /progress/courses/{courseId}
// @Summary Get course progress
// @Description Get per-lesson progress and the completion aggregate of a course
// @Tags progress
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "Course ID"
// @Success 200 {object} models.UserCourseProgress "Course progress"
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /progress/courses/{courseId} [get]
func (h *ProgressHandler) GetCourseProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.AuthenticatedUser(w, r)
	if !ok {
		return
	}

	courseID, err := positiveIDParam(r, "courseId")
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	progress, err := h.service.GetUserCourseProgress(r.Context(), userID, courseID)
	if err != nil {
		h.respondServiceError(w, "failed to get course progress", err, zap.Int("user_id", userID), zap.Int("course_id", courseID))
		return
	}

	h.RespondJSON(w, http.StatusOK, progress)
}

// GetLearningStats handles GET /progress/stats
// @Summary Get learning stats
// @Description Get completed lessons, total time and active courses across all courses
// @Tags progress
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} models.LearningStats "Learning stats"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /progress/stats [get]
func (h *ProgressHandler) GetLearningStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.AuthenticatedUser(w, r)
	if !ok {
		return
	}

	stats, err := h.service.GetUserLearningStats(r.Context(), userID)
	if err != nil {
		h.respondServiceError(w, "failed to get learning stats", err, zap.Int("user_id", userID))
		return
	}

	h.RespondJSON(w, http.StatusOK, stats)
}

// respondServiceError maps service errors to HTTP statuses
func (h *ProgressHandler) respondServiceError(w http.ResponseWriter, msg string, err error, fields ...zap.Field) {
	status, message := h.serviceErrorStatus(msg, err, fields...)
	h.RespondError(w, status, message)
}

// serviceErrorStatus logs a service error and returns the status and message to answer with
func (h *ProgressHandler) serviceErrorStatus(msg string, err error, fields ...zap.Field) (int, string) {
	switch {
	case errors.Is(err, services.ErrProgressNotFound):
		return http.StatusNotFound, services.ErrProgressNotFound.Error()
	case errors.Is(err, services.ErrSyncConflict):
		h.Logger.Warn(msg, append(fields, zap.Error(err))...)
		return http.StatusConflict, "progress was updated concurrently, please retry"
	default:
		h.Logger.Error(msg, append(fields, zap.Error(err))...)
		return http.StatusInternalServerError, "progress service unavailable, please retry"
	}
}

// positiveIDParam parses a positive integer URL parameter
func positiveIDParam(r *http.Request, name string) (int, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}
