package course

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ReviewChannel is the redis channel queued courses are announced on.
const ReviewChannel = "course.review_requested"

// Notifier announces courses that entered the review queue.
type Notifier interface {
	NotifyReview(ctx context.Context, c Course) error
}

// MultiNotifier fans a notification out to every notifier.
type MultiNotifier []Notifier

func (m MultiNotifier) NotifyReview(ctx context.Context, c Course) error {
	var errs []error
	for _, n := range m {
		if err := n.NotifyReview(ctx, c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ReviewRequested is the payload published for a queued course.
type ReviewRequested struct {
	Type         string   `json:"type"`
	CourseID     string   `json:"courseId"`
	InstructorID string   `json:"instructorId"`
	Title        string   `json:"title"`
	QualityScore int      `json:"qualityScore"`
	AdminFlags   []string `json:"adminFlags"`
}

// NewReviewRequested builds the announcement for c.
func NewReviewRequested(c Course) ReviewRequested {
	return ReviewRequested{
		Type:         "COURSE_REVIEW_REQUESTED",
		CourseID:     c.ID,
		InstructorID: c.InstructorID,
		Title:        c.Title,
		QualityScore: c.QualityScore,
		AdminFlags:   c.AdminFlags,
	}
}

// RedisNotifier publishes review requests on a redis channel.
type RedisNotifier struct {
	client  *redis.Client
	channel string
}

// NewRedisNotifier creates a notifier publishing on ReviewChannel.
func NewRedisNotifier(client *redis.Client) *RedisNotifier {
	return &RedisNotifier{client: client, channel: ReviewChannel}
}

func (n *RedisNotifier) NotifyReview(ctx context.Context, c Course) error {
	payload, err := json.Marshal(NewReviewRequested(c))
	if err != nil {
		return fmt.Errorf("marshal review request: %w", err)
	}
	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", n.channel, err)
	}
	return nil
}
