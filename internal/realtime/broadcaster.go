package realtime

import (
	"context"
	"fmt"
	"time"

	"github.com/rusingacademy/progress-service/internal/models"
)

// Publisher delivers a message to the clients of its room
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
}

// ProgressUpdatedPayload is the data of EventProgressUpdated
type ProgressUpdatedPayload struct {
	Progress       models.ProgressSnapshot `json:"progress"`
	CourseProgress *models.CourseProgress  `json:"courseProgress,omitempty"`
	Timestamp      string                  `json:"timestamp"`
}

// CourseProgressUpdatedPayload is the data of EventCourseProgressUpdated
type CourseProgressUpdatedPayload struct {
	UserID         int                    `json:"userId"`
	CourseProgress *models.CourseProgress `json:"courseProgress"`
	Timestamp      string                 `json:"timestamp"`
}

// Broadcaster turns progress changes into room messages
type Broadcaster struct {
	publisher Publisher
	now       func() time.Time
}

// NewBroadcaster creates a broadcaster on top of a hub or a bus
func NewBroadcaster(publisher Publisher) *Broadcaster {
	return &Broadcaster{
		publisher: publisher,
		now:       time.Now,
	}
}

// BroadcastProgress sends the merged lesson record to the user's room and,
// when a course aggregate is present, the aggregate to the admin room
func (b *Broadcaster) BroadcastProgress(ctx context.Context, userID int, progress models.ProgressSnapshot, courseProgress *models.CourseProgress) error {
	if b == nil || b.publisher == nil {
		return nil
	}

	timestamp := b.now().UTC().Format(time.RFC3339Nano)

	err := b.publisher.Publish(ctx, Message{
		Room:  UserRoom(userID),
		Event: EventProgressUpdated,
		Data: ProgressUpdatedPayload{
			Progress:       progress,
			CourseProgress: courseProgress,
			Timestamp:      timestamp,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to publish to user room: %w", err)
	}

	if courseProgress == nil {
		return nil
	}

	err = b.publisher.Publish(ctx, Message{
		Room:  AdminRoom,
		Event: EventCourseProgressUpdated,
		Data: CourseProgressUpdatedPayload{
			UserID:         userID,
			CourseProgress: courseProgress,
			Timestamp:      timestamp,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to publish to admin room: %w", err)
	}

	return nil
}
