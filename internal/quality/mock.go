package quality

import (
	"context"
	"sync"
)

// MockLookup is a test double for Lookup.
type MockLookup struct {
	Corpus     []PriorCourse
	Profiles   map[string]Profile
	CorpusErr  error
	ProfileErr error

	mu    sync.Mutex
	calls int
}

func (m *MockLookup) OtherInstructorCourses(_ context.Context, _ string) ([]PriorCourse, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.CorpusErr != nil {
		return nil, m.CorpusErr
	}
	return m.Corpus, nil
}

func (m *MockLookup) InstructorProfile(_ context.Context, instructorID string) (Profile, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.ProfileErr != nil {
		return Profile{}, m.ProfileErr
	}
	p, ok := m.Profiles[instructorID]
	if !ok {
		return Profile{}, ErrProfileNotFound
	}
	return p, nil
}

// Calls returns how many lookups were served.
func (m *MockLookup) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
