package course_test

import (
	"encoding/json"
	"testing"
)

type lectureJSON struct {
	Title string `json:"title"`
}

type sectionJSON struct {
	Title    string        `json:"title"`
	Lectures []lectureJSON `json:"lectures"`
}

type submissionJSON struct {
	Title         string        `json:"title"`
	Subtitle      string        `json:"subtitle,omitempty"`
	Description   string        `json:"description"`
	Category      string        `json:"category,omitempty"`
	Level         string        `json:"level,omitempty"`
	Price         float64       `json:"price"`
	Objectives    []string      `json:"objectives,omitempty"`
	Curriculum    []sectionJSON `json:"curriculum"`
	ThumbnailURL  *string       `json:"thumbnailUrl"`
	PromoVideoURL *string       `json:"promoVideoUrl"`
	InstructorID  string        `json:"instructor_id"`
}

func strPtr(s string) *string { return &s }

// goodSubmission has two sections, five lectures and both assets.
func goodSubmission(instructorID, title string) submissionJSON {
	return submissionJSON{
		Title:       title,
		Subtitle:    "From zero to production",
		Description: "Hands-on course with real projects.",
		Category:    "Development",
		Level:       "Beginner",
		Price:       49.9,
		Objectives:  []string{"Write services", "Ship them"},
		Curriculum: []sectionJSON{
			{Title: "Basics", Lectures: []lectureJSON{{"Intro"}, {"Setup"}, {"Syntax"}}},
			{Title: "Projects", Lectures: []lectureJSON{{"API"}, {"Deploy"}}},
		},
		ThumbnailURL:  strPtr("https://cdn.example.com/thumb.png"),
		PromoVideoURL: strPtr("https://cdn.example.com/promo.mp4"),
		InstructorID:  instructorID,
	}
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	return data
}
