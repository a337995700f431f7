package quality

import (
	"context"
	"errors"
	"fmt"
)

// ErrProfileNotFound is returned by a Lookup when the instructor has no stored profile.
var ErrProfileNotFound = errors.New("instructor profile not found")

// Section is one curriculum section. Only its lecture count is scored.
type Section struct {
	LectureCount int
}

// Submission is the structural view of a freshly authored course.
type Submission struct {
	Title         string
	Description   string
	Sections      []Section
	ThumbnailURL  string
	PromoVideoURL string
}

// LectureCount returns the total number of lectures across all sections.
func (s Submission) LectureCount() int {
	total := 0
	for _, sec := range s.Sections {
		total += sec.LectureCount
	}
	return total
}

// PriorCourse is a title/description pair of a course owned by another instructor.
type PriorCourse struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Profile is the subset of an instructor profile the trust rule reads.
type Profile struct {
	AvatarURL string `json:"avatar_url"`
	FullName  string `json:"full_name"`
}

// Complete reports whether both avatar and full name are present.
func (p Profile) Complete() bool {
	return p.AvatarURL != "" && p.FullName != ""
}

// Result is the verdict of one evaluation.
type Result struct {
	IsValid bool     `json:"isValid"`
	Score   int      `json:"score"`
	Flags   []string `json:"flags"`
}

// Lookup is the read-only data access the gate needs.
type Lookup interface {
	// OtherInstructorCourses returns every course not authored by instructorID.
	OtherInstructorCourses(ctx context.Context, instructorID string) ([]PriorCourse, error)
	// InstructorProfile returns ErrProfileNotFound when no profile exists.
	InstructorProfile(ctx context.Context, instructorID string) (Profile, error)
}

// FetchError reports that one of the gate's lookups failed at the data layer.
type FetchError struct {
	Lookup string // "corpus" or "profile"
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("quality %s lookup: %v", e.Lookup, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
