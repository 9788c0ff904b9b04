package validation

import (
	"testing"

	"github.com/rusingacademy/progress-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_ProgressUpdate(t *testing.T) {
	v := New()
	courseID := 5
	zero := 0

	tests := []struct {
		name           string
		update         models.ProgressUpdate
		expectedFields []string
	}{
		{
			name: "valid update",
			update: models.ProgressUpdate{
				LessonID: 10, CourseID: &courseID, Status: models.ProgressStatusInProgress,
				ProgressPercent: 20, TimeSpentSeconds: 60,
			},
		},
		{
			name: "valid completed update with zero time",
			update: models.ProgressUpdate{
				LessonID: 10, Status: models.ProgressStatusCompleted, ProgressPercent: 100,
			},
		},
		{
			name:           "missing lesson",
			update:         models.ProgressUpdate{Status: models.ProgressStatusInProgress},
			expectedFields: []string{"lessonId"},
		},
		{
			name:           "percent above range",
			update:         models.ProgressUpdate{LessonID: 1, Status: models.ProgressStatusInProgress, ProgressPercent: 101},
			expectedFields: []string{"progressPercent"},
		},
		{
			name:           "negative percent and time",
			update:         models.ProgressUpdate{LessonID: 1, Status: models.ProgressStatusInProgress, ProgressPercent: -1, TimeSpentSeconds: -5},
			expectedFields: []string{"progressPercent", "timeSpentSeconds"},
		},
		{
			name:   "one day of time is accepted",
			update: models.ProgressUpdate{LessonID: 1, Status: models.ProgressStatusInProgress, TimeSpentSeconds: 86400},
		},
		{
			name:           "time delta above one day",
			update:         models.ProgressUpdate{LessonID: 1, Status: models.ProgressStatusInProgress, TimeSpentSeconds: 86401},
			expectedFields: []string{"timeSpentSeconds"},
		},
		{
			name:           "unknown status",
			update:         models.ProgressUpdate{LessonID: 1, Status: "paused"},
			expectedFields: []string{"status"},
		},
		{
			name:           "zero course id",
			update:         models.ProgressUpdate{LessonID: 1, CourseID: &zero, Status: models.ProgressStatusInProgress},
			expectedFields: []string{"courseId"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			messages := v.Struct(tt.update)

			if len(tt.expectedFields) == 0 {
				assert.Empty(t, messages)
				return
			}
			require.Len(t, messages, len(tt.expectedFields))
			for i, field := range tt.expectedFields {
				assert.Contains(t, messages[i], field)
			}
		})
	}
}

func TestValidator_BatchSyncRequest(t *testing.T) {
	v := New()

	assert.NotEmpty(t, v.Struct(models.BatchSyncRequest{}))
	assert.NotEmpty(t, v.Struct(models.BatchSyncRequest{Updates: []models.ProgressUpdate{}}))

	messages := v.Struct(models.BatchSyncRequest{Updates: []models.ProgressUpdate{
		{LessonID: 1, Status: models.ProgressStatusInProgress, ProgressPercent: 10},
		{LessonID: 2, Status: models.ProgressStatusInProgress, ProgressPercent: 150},
	}})
	require.Len(t, messages, 1)
	assert.Contains(t, messages[0], "updates[1].progressPercent")
}
