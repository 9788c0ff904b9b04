package repositories

import (
	"context"
	"database/sql"
	"fmt"
)

type courseStructureRepository struct {
	db *sql.DB
}

// NewCourseStructureRepository creates a new read-only repository over courses, modules and lessons
func NewCourseStructureRepository(db *sql.DB) *courseStructureRepository {
	return &courseStructureRepository{
		db: db,
	}
}

// CountLessonsByCourse counts the lessons that belong to a course through its modules
func (r *courseStructureRepository) CountLessonsByCourse(ctx context.Context, courseID int) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM lessons l
		INNER JOIN course_modules cm ON l.module_id = cm.id
		WHERE cm.course_id = ?
	`

	var count int
	err := r.db.QueryRowContext(ctx, query, courseID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count course lessons: %w", err)
	}

	return count, nil
}
