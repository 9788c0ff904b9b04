package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rusingacademy/progress-service/internal/models"
	"github.com/rusingacademy/progress-service/internal/repositories"
	"go.uber.org/zap"
)

var (
	// ErrSyncConflict is returned when concurrent writers kept moving the sync version during every retry
	ErrSyncConflict = errors.New("progress sync conflict")
	// ErrProgressNotFound is returned when the user has no progress for the requested lesson
	ErrProgressNotFound = errors.New("lesson progress not found")
)

// LessonProgressRepository defines methods for lesson progress data access
type LessonProgressRepository interface {
	// GetByUserAndLesson retrieves the progress row of a user for a lesson
	//
	// "ctx" is the context for the request.
	// "userID" is the ID of the user.
	// "lessonID" is the ID of the lesson.
	//
	// Returns repositories.ErrProgressNotFound when no row exists.
	GetByUserAndLesson(ctx context.Context, userID, lessonID int) (*models.LessonProgress, error)
	// Create inserts a new progress row
	//
	// "ctx" is the context for the request.
	// "progress" is the row to insert, its ID is set on success.
	//
	// Returns repositories.ErrDuplicateProgress when a row for the same user and lesson already exists.
	Create(ctx context.Context, progress *models.LessonProgress) error
	// UpdateIfVersion writes a merged progress row if the stored version still matches
	//
	// "ctx" is the context for the request.
	// "progress" is the merged row.
	// "expectedVersion" is the sync version the merge was computed from.
	//
	// Returns false when the stored version has changed in the meantime.
	UpdateIfVersion(ctx context.Context, progress *models.LessonProgress, expectedVersion int) (bool, error)
	// ListByUserAndCourse retrieves all progress rows of a user within a course
	//
	// "ctx" is the context for the request.
	// "userID" is the ID of the user.
	// "courseID" is the ID of the course.
	//
	// Returns a list of lesson progress items and an error if any.
	ListByUserAndCourse(ctx context.Context, userID, courseID int) ([]models.LessonProgressItem, error)
	// CountCompletedByCourse counts completed lessons of a user within a course
	//
	// "ctx" is the context for the request.
	// "userID" is the ID of the user.
	// "courseID" is the ID of the course.
	//
	// Returns the number of completed lessons and an error if any.
	CountCompletedByCourse(ctx context.Context, userID, courseID int) (int, error)
	// GetUserStats aggregates all progress rows of a user
	//
	// "ctx" is the context for the request.
	// "userID" is the ID of the user.
	//
	// Returns the learning stats and an error if any.
	GetUserStats(ctx context.Context, userID int) (*models.LearningStats, error)
}

// CourseStructureRepository defines read-only methods over the course structure
type CourseStructureRepository interface {
	// CountLessonsByCourse counts the lessons that belong to a course through its modules
	//
	// "ctx" is the context for the request.
	// "courseID" is the ID of the course.
	//
	// Returns the number of lessons and an error if any.
	CountLessonsByCourse(ctx context.Context, courseID int) (int, error)
}

// ProgressBroadcaster delivers progress events to interested listeners on a best-effort basis
type ProgressBroadcaster interface {
	// BroadcastProgress notifies the user's audience about a merged lesson record and,
	// when courseProgress is not nil, the admin audience about the course aggregate.
	BroadcastProgress(ctx context.Context, userID int, progress models.ProgressSnapshot, courseProgress *models.CourseProgress) error
}

// ProgressSyncOptions holds tunables of the progress sync service
type ProgressSyncOptions struct {
	// MaxConflictRetries is the number of re-read and re-merge attempts after a version conflict
	MaxConflictRetries int
	// BroadcastTimeout bounds the time spent notifying listeners after a write
	BroadcastTimeout time.Duration
}

type progressSyncService struct {
	progressRepo  LessonProgressRepository
	structureRepo CourseStructureRepository
	broadcaster   ProgressBroadcaster
	logger        *zap.Logger
	options       ProgressSyncOptions
	now           func() time.Time
}

// storageNow returns the current time at the millisecond precision of the
// DATETIME(3) columns, so timestamps read back equal the ones returned on write
func storageNow() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// NewProgressSyncService creates a new progress sync service
//
// "broadcaster" may be nil, in which case no notifications are sent.
func NewProgressSyncService(
	progressRepo LessonProgressRepository,
	structureRepo CourseStructureRepository,
	broadcaster ProgressBroadcaster,
	logger *zap.Logger,
	options ProgressSyncOptions,
) *progressSyncService {
	if options.MaxConflictRetries < 0 {
		options.MaxConflictRetries = 0
	}
	if options.BroadcastTimeout <= 0 {
		options.BroadcastTimeout = 2 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &progressSyncService{
		progressRepo:  progressRepo,
		structureRepo: structureRepo,
		broadcaster:   broadcaster,
		logger:        logger,
		options:       options,
		now:           storageNow,
	}
}

// SyncProgress folds a client-reported update into the stored progress of a lesson
func (s *progressSyncService) SyncProgress(ctx context.Context, userID int, update models.ProgressUpdate) (*models.SyncResult, error) {
	record, err := s.persist(ctx, userID, update)
	if err != nil {
		return nil, err
	}

	result := &models.SyncResult{
		Success:  true,
		Progress: record.Snapshot(),
	}

	// the write is committed, so a missing aggregate must not fail the call
	if update.CourseID != nil {
		courseProgress, err := s.calculateCourseProgress(ctx, userID, *update.CourseID)
		if err != nil {
			s.logger.Warn("failed to calculate course progress, omitting it",
				zap.Int("user_id", userID),
				zap.Int("course_id", *update.CourseID),
				zap.Error(err),
			)
		} else {
			result.CourseProgress = courseProgress
		}
	}

	s.broadcast(ctx, userID, result.Progress, result.CourseProgress)

	return result, nil
}

// BatchSync applies updates one after another in input order.
// On failure it returns the results of the updates already committed together
// with the error, so the caller can resend only the remaining ones.
func (s *progressSyncService) BatchSync(ctx context.Context, userID int, updates []models.ProgressUpdate) (*models.BatchSyncResult, error) {
	batch := &models.BatchSyncResult{
		Results: make([]models.SyncResult, 0, len(updates)),
	}

	for i, update := range updates {
		result, err := s.SyncProgress(ctx, userID, update)
		if err != nil {
			return batch, fmt.Errorf("failed to sync update %d of %d: %w", i+1, len(updates), err)
		}
		batch.Results = append(batch.Results, *result)
		batch.Synced++
	}

	return batch, nil
}

// GetLessonProgress retrieves the stored progress of a single lesson
func (s *progressSyncService) GetLessonProgress(ctx context.Context, userID, lessonID int) (*models.ProgressSnapshot, error) {
	record, err := s.progressRepo.GetByUserAndLesson(ctx, userID, lessonID)
	if errors.Is(err, repositories.ErrProgressNotFound) {
		return nil, ErrProgressNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lesson progress: %w", err)
	}

	snapshot := record.Snapshot()
	return &snapshot, nil
}

// GetUserCourseProgress retrieves per-lesson progress and the aggregate of a user within a course
func (s *progressSyncService) GetUserCourseProgress(ctx context.Context, userID, courseID int) (*models.UserCourseProgress, error) {
	lessons, err := s.progressRepo.ListByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list course progress: %w", err)
	}

	totalLessons, err := s.structureRepo.CountLessonsByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to count course lessons: %w", err)
	}

	overall := models.CourseProgressOverall{TotalLessons: totalLessons}
	for _, lesson := range lessons {
		if lesson.Status == models.ProgressStatusCompleted {
			overall.CompletedLessons++
		}
		overall.TotalTimeSeconds += lesson.TimeSpentSeconds
	}
	overall.OverallPercent = models.OverallPercent(overall.CompletedLessons, overall.TotalLessons)

	if lessons == nil {
		lessons = []models.LessonProgressItem{}
	}

	return &models.UserCourseProgress{
		Lessons: lessons,
		Overall: overall,
	}, nil
}

// GetUserLearningStats aggregates a user's progress across all courses
func (s *progressSyncService) GetUserLearningStats(ctx context.Context, userID int) (*models.LearningStats, error) {
	stats, err := s.progressRepo.GetUserStats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get learning stats: %w", err)
	}
	return stats, nil
}

// persist inserts the first record for the lesson or merges the update into the stored one.
// Version conflicts are resolved by re-reading and re-merging the same update.
func (s *progressSyncService) persist(ctx context.Context, userID int, update models.ProgressUpdate) (*models.LessonProgress, error) {
	for attempt := 0; attempt <= s.options.MaxConflictRetries; attempt++ {
		current, err := s.progressRepo.GetByUserAndLesson(ctx, userID, update.LessonID)
		if errors.Is(err, repositories.ErrProgressNotFound) {
			record := s.newRecord(userID, update)
			err = s.progressRepo.Create(ctx, record)
			if errors.Is(err, repositories.ErrDuplicateProgress) {
				s.logger.Debug("progress row created concurrently, merging instead",
					zap.Int("user_id", userID),
					zap.Int("lesson_id", update.LessonID),
				)
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("failed to create lesson progress: %w", err)
			}
			return record, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get lesson progress: %w", err)
		}

		merged := mergeProgress(current, update, s.now())
		ok, err := s.progressRepo.UpdateIfVersion(ctx, merged, current.SyncVersion)
		if err != nil {
			return nil, fmt.Errorf("failed to update lesson progress: %w", err)
		}
		if ok {
			return merged, nil
		}

		s.logger.Debug("progress sync version conflict",
			zap.Int("user_id", userID),
			zap.Int("lesson_id", update.LessonID),
			zap.Int("expected_version", current.SyncVersion),
			zap.Int("attempt", attempt+1),
		)
	}

	s.logger.Warn("progress sync retries exhausted",
		zap.Int("user_id", userID),
		zap.Int("lesson_id", update.LessonID),
	)
	return nil, ErrSyncConflict
}

// newRecord builds the first record of a lesson from the update verbatim
func (s *progressSyncService) newRecord(userID int, update models.ProgressUpdate) *models.LessonProgress {
	now := s.now()
	record := &models.LessonProgress{
		UserID:           userID,
		LessonID:         update.LessonID,
		CourseID:         update.CourseID,
		ModuleID:         update.ModuleID,
		Status:           update.Status,
		ProgressPercent:  update.ProgressPercent,
		TimeSpentSeconds: update.TimeSpentSeconds,
		LastAccessedAt:   now,
		LastSyncAt:       now,
		SyncVersion:      1,
	}
	if update.Status == models.ProgressStatusCompleted {
		record.CompletedAt = &now
	}
	return record
}

// mergeProgress folds an update into a stored record without modifying it.
//
// Status only moves toward completion and completion is sticky. The percent never
// decreases, time accumulates and the completion timestamp is written once.
func mergeProgress(current *models.LessonProgress, update models.ProgressUpdate, now time.Time) *models.LessonProgress {
	merged := *current

	// a stale not_started report must not pull an in_progress lesson back
	merged.Status = update.Status
	if current.Status.Rank() > update.Status.Rank() {
		merged.Status = current.Status
	}

	merged.ProgressPercent = max(current.ProgressPercent, update.ProgressPercent)
	merged.TimeSpentSeconds = current.TimeSpentSeconds + update.TimeSpentSeconds

	if merged.Status == models.ProgressStatusCompleted {
		if current.CompletedAt == nil {
			merged.CompletedAt = &now
		}
	} else {
		merged.CompletedAt = nil
	}

	if merged.CourseID == nil {
		merged.CourseID = update.CourseID
	}
	if merged.ModuleID == nil {
		merged.ModuleID = update.ModuleID
	}

	merged.SyncVersion = current.SyncVersion + 1
	merged.LastAccessedAt = now
	merged.LastSyncAt = now

	return &merged
}

// calculateCourseProgress recomputes the course aggregate from scratch
func (s *progressSyncService) calculateCourseProgress(ctx context.Context, userID, courseID int) (*models.CourseProgress, error) {
	totalLessons, err := s.structureRepo.CountLessonsByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	completedLessons, err := s.progressRepo.CountCompletedByCourse(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}

	return &models.CourseProgress{
		CourseID:         courseID,
		CompletedLessons: completedLessons,
		TotalLessons:     totalLessons,
		OverallPercent:   models.OverallPercent(completedLessons, totalLessons),
	}, nil
}

// broadcast notifies listeners without affecting the outcome of the sync
func (s *progressSyncService) broadcast(ctx context.Context, userID int, progress models.ProgressSnapshot, courseProgress *models.CourseProgress) {
	if s.broadcaster == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("progress broadcast panicked",
				zap.Int("user_id", userID),
				zap.Any("panic", r),
			)
		}
	}()

	// the write is already committed, so request cancellation must not cut the notification short
	broadcastCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.options.BroadcastTimeout)
	defer cancel()

	if err := s.broadcaster.BroadcastProgress(broadcastCtx, userID, progress, courseProgress); err != nil {
		s.logger.Warn("failed to broadcast progress update",
			zap.Int("user_id", userID),
			zap.Int("lesson_id", progress.LessonID),
			zap.Error(err),
		)
	}
}
