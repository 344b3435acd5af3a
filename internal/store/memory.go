package store

import (
	"context"
	"sort"
	"sync"
)

type memoryRepo struct {
	mu          sync.RWMutex
	tests       map[string]Test
	submissions map[string]Submission // key: studentID|testID
	order       []string              // test publish order
}

// NewInMemoryRepo is the dev/test store. The mutex makes every update a
// critical section, so the Repo contract holds without version bookkeeping.
func NewInMemoryRepo() Repo {
	return &memoryRepo{
		tests:       map[string]Test{},
		submissions: map[string]Submission{},
	}
}

func subKey(studentID, testID string) string { return studentID + "|" + testID }

func (m *memoryRepo) PutTest(_ context.Context, t Test) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.tests[t.ID]; !exists {
		m.order = append(m.order, t.ID)
	}
	m.tests[t.ID] = t
	return nil
}

func (m *memoryRepo) GetTest(_ context.Context, id string) (Test, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tests[id]
	if !ok {
		return Test{}, ErrNotFound
	}
	return t, nil
}

func (m *memoryRepo) ActiveTest(_ context.Context) (Test, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.order) == 0 {
		return Test{}, ErrNotFound
	}
	return m.tests[m.order[len(m.order)-1]], nil
}

func (m *memoryRepo) PutSubmission(_ context.Context, s Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.Version = 1
	m.submissions[subKey(s.StudentID, s.TestID)] = s
	return nil
}

func (m *memoryRepo) GetSubmission(_ context.Context, studentID, testID string) (Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.submissions[subKey(studentID, testID)]
	if !ok {
		return Submission{}, ErrNotFound
	}
	return s, nil
}

func (m *memoryRepo) ListSubmissions(_ context.Context, testID string) ([]Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Submission, 0, len(m.submissions))
	for _, s := range m.submissions {
		if testID == "" || s.TestID == testID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt < out[j].SubmittedAt })
	return out, nil
}

func (m *memoryRepo) UpdateSubmission(_ context.Context, studentID, testID string, mutate func(*Submission) error) (Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := subKey(studentID, testID)
	s, ok := m.submissions[key]
	if !ok {
		return Submission{}, ErrNotFound
	}
	if err := mutate(&s); err != nil {
		return Submission{}, err
	}
	s.Version++
	m.submissions[key] = s
	return s, nil
}
