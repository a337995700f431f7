// Package course owns course records and the publish flow that routes new
// submissions through the quality gate into the admin review queue.
package course

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/p-n-ai/pai-courses/internal/quality"
)

var (
	// ErrNotFound is returned when a course does not exist.
	ErrNotFound = errors.New("course not found")
	// ErrInvalidTransition is returned when a course is not in the status a change requires.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrInstructorRequired is returned when a profile is saved without an instructor id.
	ErrInstructorRequired = errors.New("instructor_id is required")
	// ErrInvalidDecision is returned for a review decision other than Published or Rejected.
	ErrInvalidDecision = errors.New("decision must be Published or Rejected")
)

// Status is the review lifecycle state of a course.
type Status string

const (
	StatusDraft     Status = "Draft"
	StatusReview    Status = "Review"
	StatusPublished Status = "Published"
	StatusRejected  Status = "Rejected"
)

// Section is one curriculum section. Lecture bodies are kept verbatim.
type Section struct {
	Title    string            `json:"title,omitempty"`
	Lectures []json.RawMessage `json:"lectures"`
}

// Course is a stored course record.
type Course struct {
	ID            string    `json:"id"`
	InstructorID  string    `json:"instructor_id"`
	Title         string    `json:"title"`
	Subtitle      string    `json:"subtitle"`
	Description   string    `json:"description"`
	Category      string    `json:"category"`
	Level         string    `json:"level"`
	Price         float64   `json:"price"`
	Objectives    []string  `json:"objectives"`
	Curriculum    []Section `json:"curriculum"`
	ThumbnailURL  string    `json:"thumbnailUrl"`
	PromoVideoURL string    `json:"promoVideoUrl"`
	Status        Status    `json:"status"`
	AdminFlags    []string  `json:"admin_flags"`
	QualityScore  int       `json:"quality_score"`
	ReviewNote    string    `json:"review_note,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Submission is the publish request body, already checked against the submission schema.
type Submission struct {
	Title         string    `json:"title"`
	Subtitle      string    `json:"subtitle"`
	Description   string    `json:"description"`
	Category      string    `json:"category"`
	Level         string    `json:"level"`
	Price         float64   `json:"price"`
	Objectives    []string  `json:"objectives"`
	Curriculum    []Section `json:"curriculum"`
	ThumbnailURL  string    `json:"thumbnailUrl"`
	PromoVideoURL string    `json:"promoVideoUrl"`
	InstructorID  string    `json:"instructor_id"`
}

// Quality returns the structural view the gate scores.
func (s Submission) Quality() quality.Submission {
	sections := make([]quality.Section, len(s.Curriculum))
	for i, sec := range s.Curriculum {
		sections[i] = quality.Section{LectureCount: len(sec.Lectures)}
	}
	return quality.Submission{
		Title:         s.Title,
		Description:   s.Description,
		Sections:      sections,
		ThumbnailURL:  s.ThumbnailURL,
		PromoVideoURL: s.PromoVideoURL,
	}
}

// queued builds the record stored for a submission that passed the gate.
func (s Submission) queued(res quality.Result) Course {
	objectives := s.Objectives
	if objectives == nil {
		objectives = []string{}
	}
	return Course{
		InstructorID:  s.InstructorID,
		Title:         s.Title,
		Subtitle:      s.Subtitle,
		Description:   s.Description,
		Category:      s.Category,
		Level:         s.Level,
		Price:         s.Price,
		Objectives:    objectives,
		Curriculum:    s.Curriculum,
		ThumbnailURL:  s.ThumbnailURL,
		PromoVideoURL: s.PromoVideoURL,
		Status:        StatusReview,
		AdminFlags:    res.Flags,
		QualityScore:  res.Score,
	}
}

// QualityError reports a submission the gate rejected.
type QualityError struct {
	Result quality.Result
}

func (e *QualityError) Error() string {
	return fmt.Sprintf("automated quality check failed: score %d", e.Result.Score)
}

// Decision is an admin verdict on a queued course.
type Decision struct {
	Status Status `json:"status"`
	Note   string `json:"note"`
}
