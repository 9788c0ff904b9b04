package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/rusingacademy/progress-service/internal/models"
)

// mysqlErrDuplicateEntry is the MySQL error number for a unique key violation
const mysqlErrDuplicateEntry = 1062

var (
	// ErrProgressNotFound is returned when no progress row exists for the user and lesson
	ErrProgressNotFound = errors.New("lesson progress not found")
	// ErrDuplicateProgress is returned when a progress row for the user and lesson already exists
	ErrDuplicateProgress = errors.New("lesson progress already exists")
)

type lessonProgressRepository struct {
	db *sql.DB
}

// NewLessonProgressRepository creates a new lesson progress repository
func NewLessonProgressRepository(db *sql.DB) *lessonProgressRepository {
	return &lessonProgressRepository{
		db: db,
	}
}

// GetByUserAndLesson retrieves the progress row for a user and lesson
func (r *lessonProgressRepository) GetByUserAndLesson(ctx context.Context, userID, lessonID int) (*models.LessonProgress, error) {
	query := `
		SELECT id, user_id, lesson_id, course_id, module_id, status, progress_percent,
			time_spent_seconds, completed_at, last_accessed_at, last_sync_at, sync_version
		FROM lesson_progress
		WHERE user_id = ? AND lesson_id = ?
		LIMIT 1
	`

	var (
		progress    models.LessonProgress
		courseID    sql.NullInt64
		moduleID    sql.NullInt64
		completedAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, userID, lessonID).Scan(
		&progress.ID,
		&progress.UserID,
		&progress.LessonID,
		&courseID,
		&moduleID,
		&progress.Status,
		&progress.ProgressPercent,
		&progress.TimeSpentSeconds,
		&completedAt,
		&progress.LastAccessedAt,
		&progress.LastSyncAt,
		&progress.SyncVersion,
	)
	if err == sql.ErrNoRows {
		return nil, ErrProgressNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lesson progress: %w", err)
	}

	if courseID.Valid {
		id := int(courseID.Int64)
		progress.CourseID = &id
	}
	if moduleID.Valid {
		id := int(moduleID.Int64)
		progress.ModuleID = &id
	}
	if completedAt.Valid {
		t := completedAt.Time
		progress.CompletedAt = &t
	}

	return &progress, nil
}

// Create inserts a new progress row and sets its ID
//
// A concurrent insert for the same user and lesson results in ErrDuplicateProgress.
func (r *lessonProgressRepository) Create(ctx context.Context, progress *models.LessonProgress) error {
	query := `
		INSERT INTO lesson_progress (user_id, lesson_id, course_id, module_id, status, progress_percent,
			time_spent_seconds, completed_at, last_accessed_at, last_sync_at, sync_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		progress.UserID,
		progress.LessonID,
		progress.CourseID,
		progress.ModuleID,
		progress.Status,
		progress.ProgressPercent,
		progress.TimeSpentSeconds,
		progress.CompletedAt,
		progress.LastAccessedAt,
		progress.LastSyncAt,
		progress.SyncVersion,
	)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlErrDuplicateEntry {
			return ErrDuplicateProgress
		}
		return fmt.Errorf("failed to create lesson progress: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	progress.ID = int(id)
	return nil
}

// UpdateIfVersion writes the merged progress row only if the stored sync_version still equals expectedVersion.
//
// Returns false without error when another writer has moved the version on.
// course_id and module_id are only filled in when they were previously unset.
func (r *lessonProgressRepository) UpdateIfVersion(ctx context.Context, progress *models.LessonProgress, expectedVersion int) (bool, error) {
	query := `
		UPDATE lesson_progress
		SET status = ?, progress_percent = ?, time_spent_seconds = ?, completed_at = ?,
			last_accessed_at = ?, last_sync_at = ?, sync_version = ?,
			course_id = COALESCE(course_id, ?), module_id = COALESCE(module_id, ?)
		WHERE id = ? AND sync_version = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		progress.Status,
		progress.ProgressPercent,
		progress.TimeSpentSeconds,
		progress.CompletedAt,
		progress.LastAccessedAt,
		progress.LastSyncAt,
		progress.SyncVersion,
		progress.CourseID,
		progress.ModuleID,
		progress.ID,
		expectedVersion,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update lesson progress: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// ListByUserAndCourse retrieves all progress rows of a user within a course
func (r *lessonProgressRepository) ListByUserAndCourse(ctx context.Context, userID, courseID int) ([]models.LessonProgressItem, error) {
	query := `
		SELECT lesson_id, status, progress_percent, time_spent_seconds
		FROM lesson_progress
		WHERE user_id = ? AND course_id = ?
		ORDER BY lesson_id
	`

	rows, err := r.db.QueryContext(ctx, query, userID, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lesson progress: %w", err)
	}
	defer rows.Close()

	items := []models.LessonProgressItem{}
	for rows.Next() {
		var item models.LessonProgressItem
		if err := rows.Scan(&item.LessonID, &item.Status, &item.ProgressPercent, &item.TimeSpentSeconds); err != nil {
			return nil, fmt.Errorf("failed to scan lesson progress: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating lesson progress: %w", err)
	}

	return items, nil
}

// CountCompletedByCourse counts the completed lessons of a user within a course
func (r *lessonProgressRepository) CountCompletedByCourse(ctx context.Context, userID, courseID int) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM lesson_progress
		WHERE user_id = ? AND course_id = ? AND status = ?
	`

	var count int
	err := r.db.QueryRowContext(ctx, query, userID, courseID, models.ProgressStatusCompleted).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count completed lessons: %w", err)
	}

	return count, nil
}

// GetUserStats aggregates all progress rows of a user regardless of course
func (r *lessonProgressRepository) GetUserStats(ctx context.Context, userID int) (*models.LearningStats, error) {
	query := `
		SELECT
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS total_completed,
			COALESCE(SUM(time_spent_seconds), 0) AS total_time,
			COUNT(DISTINCT course_id) AS active_courses
		FROM lesson_progress
		WHERE user_id = ?
	`

	var stats models.LearningStats
	err := r.db.QueryRowContext(ctx, query, models.ProgressStatusCompleted, userID).Scan(
		&stats.TotalLessonsCompleted,
		&stats.TotalTimeSeconds,
		&stats.ActiveCourses,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get learning stats: %w", err)
	}

	return &stats, nil
}
