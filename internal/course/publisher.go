package course

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/p-n-ai/pai-courses/internal/quality"
)

// PublisherConfig holds dependencies for the publisher.
type PublisherConfig struct {
	Store    Store
	Gate     *quality.Gate
	Events   EventLogger // default NopEventLogger
	Notifier Notifier    // optional
	Locker   Locker      // optional; serializes evaluate+insert when set
}

// Publisher runs submissions through the quality gate and manages the review queue.
type Publisher struct {
	store    Store
	gate     *quality.Gate
	events   EventLogger
	notifier Notifier
	locker   Locker
}

// NewPublisher creates a publisher.
func NewPublisher(cfg PublisherConfig) *Publisher {
	events := cfg.Events
	if events == nil {
		events = NopEventLogger{}
	}
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = MultiNotifier{}
	}
	return &Publisher{
		store:    cfg.Store,
		gate:     cfg.Gate,
		events:   events,
		notifier: notifier,
		locker:   cfg.Locker,
	}
}

// Publish validates a raw submission body, scores it and queues it for
// review. A rejected submission returns *QualityError and is not stored.
func (p *Publisher) Publish(ctx context.Context, body []byte) (Course, error) {
	if err := ValidateSubmission(body); err != nil {
		return Course{}, err
	}

	var sub Submission
	if err := json.Unmarshal(body, &sub); err != nil {
		return Course{}, fmt.Errorf("decode submission: %w", err)
	}

	if p.locker != nil {
		unlock, err := p.locker.Lock(ctx)
		if err != nil {
			return Course{}, err
		}
		defer unlock()
	}

	res, err := p.gate.Evaluate(ctx, sub.Quality(), sub.InstructorID)
	if err != nil {
		return Course{}, fmt.Errorf("evaluate submission: %w", err)
	}

	if !res.IsValid {
		slog.Info("submission rejected by quality gate",
			"instructor_id", sub.InstructorID,
			"score", res.Score,
			"flags", res.Flags,
		)
		p.logEvent(Event{
			InstructorID: sub.InstructorID,
			EventType:    EventQualityCheckFailed,
			Data: map[string]any{
				"title": sub.Title,
				"score": res.Score,
				"flags": res.Flags,
			},
		})
		return Course{}, &QualityError{Result: res}
	}

	created, err := p.store.CreateCourse(ctx, sub.queued(res))
	if err != nil {
		return Course{}, fmt.Errorf("store course: %w", err)
	}

	slog.Info("course queued for review",
		"course_id", created.ID,
		"instructor_id", created.InstructorID,
		"score", created.QualityScore,
	)
	p.logEvent(Event{
		CourseID:     created.ID,
		InstructorID: created.InstructorID,
		EventType:    EventCourseSubmitted,
		Data: map[string]any{
			"score": created.QualityScore,
			"flags": created.AdminFlags,
		},
	})

	if err := p.notifier.NotifyReview(ctx, created); err != nil {
		slog.Warn("review notification failed", "course_id", created.ID, "error", err)
	}

	return created, nil
}

// Queue returns the courses awaiting review, oldest first.
func (p *Publisher) Queue(ctx context.Context) ([]Course, error) {
	courses, err := p.store.ListByStatus(ctx, StatusReview)
	if err != nil {
		return nil, fmt.Errorf("list review queue: %w", err)
	}
	return courses, nil
}

// Review applies an admin decision to a queued course.
func (p *Publisher) Review(ctx context.Context, id string, d Decision) (Course, error) {
	if d.Status != StatusPublished && d.Status != StatusRejected {
		return Course{}, ErrInvalidDecision
	}
	if _, err := uuid.Parse(id); err != nil {
		return Course{}, ErrNotFound
	}

	c, err := p.store.UpdateStatus(ctx, id, StatusReview, d.Status, d.Note)
	if err != nil {
		return Course{}, err
	}

	slog.Info("course reviewed", "course_id", c.ID, "status", c.Status)
	p.logEvent(Event{
		CourseID:     c.ID,
		InstructorID: c.InstructorID,
		EventType:    EventCourseReviewed,
		Data: map[string]any{
			"status": string(c.Status),
			"note":   d.Note,
		},
	})
	return c, nil
}

// SaveProfile stores an instructor's avatar and name.
func (p *Publisher) SaveProfile(ctx context.Context, instructorID string, profile quality.Profile) error {
	if strings.TrimSpace(instructorID) == "" {
		return ErrInstructorRequired
	}
	return p.store.SaveProfile(ctx, instructorID, profile)
}

func (p *Publisher) logEvent(e Event) {
	if err := p.events.LogEvent(e); err != nil {
		slog.Warn("failed to log course event", "type", e.EventType, "error", err)
	}
}
