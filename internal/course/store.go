package course

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/p-n-ai/pai-courses/internal/quality"
)

// Store persists courses and instructor profiles. It serves the gate's
// read-only lookups as well.
type Store interface {
	quality.Lookup
	CreateCourse(ctx context.Context, c Course) (Course, error)
	GetCourse(ctx context.Context, id string) (Course, error)
	ListByStatus(ctx context.Context, status Status) ([]Course, error)
	// UpdateStatus moves a course from one status to another, returning
	// ErrInvalidTransition when the course is not currently in from.
	UpdateStatus(ctx context.Context, id string, from, to Status, note string) (Course, error)
	SaveProfile(ctx context.Context, instructorID string, p quality.Profile) error
}

// MemoryStore is an in-memory implementation of Store.
type MemoryStore struct {
	courses  map[string]Course
	order    []string
	profiles map[string]quality.Profile
	mu       sync.RWMutex
}

// NewMemoryStore creates a new in-memory course store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		courses:  make(map[string]Course),
		profiles: make(map[string]quality.Profile),
	}
}

func (s *MemoryStore) CreateCourse(_ context.Context, c Course) (Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c.ID = uuid.NewString()
	now := time.Now()
	c.CreatedAt, c.UpdatedAt = now, now
	if c.Status == "" {
		c.Status = StatusDraft
	}
	if c.AdminFlags == nil {
		c.AdminFlags = []string{}
	}
	s.courses[c.ID] = c
	s.order = append(s.order, c.ID)
	return c, nil
}

func (s *MemoryStore) GetCourse(_ context.Context, id string) (Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.courses[id]
	if !ok {
		return Course{}, ErrNotFound
	}
	return c, nil
}

func (s *MemoryStore) ListByStatus(_ context.Context, status Status) ([]Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []Course{}
	for _, id := range s.order {
		if c := s.courses[id]; c.Status == status {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *MemoryStore) UpdateStatus(_ context.Context, id string, from, to Status, note string) (Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.courses[id]
	if !ok {
		return Course{}, ErrNotFound
	}
	if c.Status != from {
		return Course{}, ErrInvalidTransition
	}
	c.Status = to
	c.ReviewNote = note
	c.UpdatedAt = time.Now()
	s.courses[id] = c
	return c, nil
}

func (s *MemoryStore) OtherInstructorCourses(_ context.Context, instructorID string) ([]quality.PriorCourse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []quality.PriorCourse
	for _, id := range s.order {
		c := s.courses[id]
		if c.InstructorID == instructorID {
			continue
		}
		out = append(out, quality.PriorCourse{Title: c.Title, Description: c.Description})
	}
	return slices.Clip(out), nil
}

func (s *MemoryStore) InstructorProfile(_ context.Context, instructorID string) (quality.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[instructorID]
	if !ok {
		return quality.Profile{}, quality.ErrProfileNotFound
	}
	return p, nil
}

func (s *MemoryStore) SaveProfile(_ context.Context, instructorID string, p quality.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[instructorID] = p
	return nil
}
