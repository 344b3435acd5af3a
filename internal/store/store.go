// Package store persists published tests and student submissions. A
// submission is keyed by (student_id, test_id); its graded result is updated
// through an atomic read-modify-write so two grading runs racing on the same
// record cannot lose each other's writes.
package store

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record modified concurrently")
)

// Submission statuses.
const (
	StatusReceived = "received"
	StatusAssigned = "assigned"
	StatusGraded   = "graded"
)

// Test is a published rubric record. RubricJSON is the validated payload as
// published; it is decoded per grading run.
type Test struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	RubricJSON string `json:"rubric_json"`
	CreatedAt  int64  `json:"created_at"`
}

// Submission is one student's answer sheet for one test. A resubmission
// replaces the previous record for the same (student, test) pair.
type Submission struct {
	ID              string `json:"id"`
	StudentID       string `json:"student_id"`
	TestID          string `json:"test_id"`
	AnswersJSON     string `json:"answers_json"`
	Status          string `json:"status"`
	AssignedTeacher string `json:"assigned_teacher,omitempty"`
	GradedJSON      string `json:"graded_json,omitempty"`
	Version         int64  `json:"version"`
	SubmittedAt     int64  `json:"submitted_at"`
	GradedAt        int64  `json:"graded_at,omitempty"`
}

type Repo interface {
	PutTest(ctx context.Context, t Test) error
	GetTest(ctx context.Context, id string) (Test, error)
	// ActiveTest returns the most recently published test.
	ActiveTest(ctx context.Context) (Test, error)

	PutSubmission(ctx context.Context, s Submission) error
	GetSubmission(ctx context.Context, studentID, testID string) (Submission, error)
	ListSubmissions(ctx context.Context, testID string) ([]Submission, error)

	// UpdateSubmission applies mutate inside a read-modify-write cycle with an
	// optimistic version check, retrying on conflict. mutate must be safe to
	// call more than once.
	UpdateSubmission(ctx context.Context, studentID, testID string, mutate func(*Submission) error) (Submission, error)
}
