package models

import "time"

// ProgressStatus represents the status of a lesson for a learner
type ProgressStatus string

const (
	ProgressStatusNotStarted ProgressStatus = "not_started"
	ProgressStatusInProgress ProgressStatus = "in_progress"
	ProgressStatusCompleted  ProgressStatus = "completed"
)

// IsValid reports whether the status is one of the known values
func (s ProgressStatus) IsValid() bool {
	switch s {
	case ProgressStatusNotStarted, ProgressStatusInProgress, ProgressStatusCompleted:
		return true
	}
	return false
}

// Rank returns the position of the status on the way to completion.
// Unknown values rank below not_started.
func (s ProgressStatus) Rank() int {
	switch s {
	case ProgressStatusNotStarted:
		return 1
	case ProgressStatusInProgress:
		return 2
	case ProgressStatusCompleted:
		return 3
	}
	return 0
}

// LessonProgress represents one row of the lesson_progress table.
// There is at most one row per (UserID, LessonID).
type LessonProgress struct {
	ID               int            `json:"id"`
	UserID           int            `json:"userId"`
	LessonID         int            `json:"lessonId"`
	CourseID         *int           `json:"courseId,omitempty"`
	ModuleID         *int           `json:"moduleId,omitempty"`
	Status           ProgressStatus `json:"status"`
	ProgressPercent  int            `json:"progressPercent"`
	TimeSpentSeconds int            `json:"timeSpentSeconds"`
	CompletedAt      *time.Time     `json:"completedAt,omitempty"`
	LastAccessedAt   time.Time      `json:"lastAccessedAt"`
	LastSyncAt       time.Time      `json:"lastSyncAt"`
	SyncVersion      int            `json:"syncVersion"`
}

// Snapshot returns the client-facing subset of the record
func (p *LessonProgress) Snapshot() ProgressSnapshot {
	return ProgressSnapshot{
		LessonID:         p.LessonID,
		Status:           p.Status,
		ProgressPercent:  p.ProgressPercent,
		TimeSpentSeconds: p.TimeSpentSeconds,
		SyncVersion:      p.SyncVersion,
		CompletedAt:      p.CompletedAt,
	}
}

// ProgressUpdate represents a client-reported progress update for one lesson.
// TimeSpentSeconds is a delta, not an absolute value, and at most one day per report.
type ProgressUpdate struct {
	LessonID         int            `json:"lessonId" validate:"required,gt=0"`
	CourseID         *int           `json:"courseId,omitempty" validate:"omitempty,gt=0"`
	ModuleID         *int           `json:"moduleId,omitempty" validate:"omitempty,gt=0"`
	Status           ProgressStatus `json:"status" validate:"required,oneof=not_started in_progress completed"`
	ProgressPercent  int            `json:"progressPercent" validate:"gte=0,lte=100"`
	TimeSpentSeconds int            `json:"timeSpentSeconds" validate:"gte=0,lte=86400"`
}

// BatchSyncRequest represents a request to sync several updates in order
type BatchSyncRequest struct {
	Updates []ProgressUpdate `json:"updates" validate:"required,min=1,dive"`
}

// ProgressSnapshot represents the merged state of a lesson returned to clients
type ProgressSnapshot struct {
	LessonID         int            `json:"lessonId"`
	Status           ProgressStatus `json:"status"`
	ProgressPercent  int            `json:"progressPercent"`
	TimeSpentSeconds int            `json:"timeSpentSeconds"`
	SyncVersion      int            `json:"syncVersion"`
	CompletedAt      *time.Time     `json:"completedAt,omitempty"`
}

// CourseProgress represents the course-level aggregate for a learner
type CourseProgress struct {
	CourseID         int `json:"courseId"`
	CompletedLessons int `json:"completedLessons"`
	TotalLessons     int `json:"totalLessons"`
	OverallPercent   int `json:"overallPercent"`
}

// SyncResult represents the result of a single progress sync
type SyncResult struct {
	Success        bool             `json:"success"`
	Progress       ProgressSnapshot `json:"progress"`
	CourseProgress *CourseProgress  `json:"courseProgress,omitempty"`
}

// BatchSyncResult represents the result of a batch sync
type BatchSyncResult struct {
	Synced  int          `json:"synced"`
	Results []SyncResult `json:"results"`
}

// LessonProgressItem represents one lesson row in a course progress response
type LessonProgressItem struct {
	LessonID         int            `json:"lessonId"`
	Status           ProgressStatus `json:"status"`
	ProgressPercent  int            `json:"progressPercent"`
	TimeSpentSeconds int            `json:"timeSpentSeconds"`
}

// CourseProgressOverall represents the aggregate part of a course progress response
type CourseProgressOverall struct {
	CompletedLessons int `json:"completedLessons"`
	TotalLessons     int `json:"totalLessons"`
	OverallPercent   int `json:"overallPercent"`
	TotalTimeSeconds int `json:"totalTimeSeconds"`
}

// UserCourseProgress represents a learner's progress across one course
type UserCourseProgress struct {
	Lessons []LessonProgressItem  `json:"lessons"`
	Overall CourseProgressOverall `json:"overall"`
}

// LearningStats represents a learner's progress across all courses
type LearningStats struct {
	TotalLessonsCompleted int `json:"totalLessonsCompleted"`
	TotalTimeSeconds      int `json:"totalTimeSeconds"`
	ActiveCourses         int `json:"activeCourses"`
}

// OverallPercent returns round(completed / total * 100), or 0 when total is 0
func OverallPercent(completed, total int) int {
	if total <= 0 {
		return 0
	}
	// integer half-up rounding of completed*100/total
	return (completed*200 + total) / (total * 2)
}
