package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dnvaishnavi/automated-multimodal-grader/internal/grading"
	"github.com/dnvaishnavi/automated-multimodal-grader/internal/rubric"
	"github.com/dnvaishnavi/automated-multimodal-grader/internal/store"
	"github.com/dnvaishnavi/automated-multimodal-grader/internal/syncx"
)

// POST /submissions/{studentID}/{testID}/grade
// Re-grading replaces the previous result.
func GradeSubmissionHandler(repo store.Repo, engine *grading.Engine, events *syncx.EventRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		studentID := chi.URLParam(r, "studentID")
		testID := chi.URLParam(r, "testID")
		grade, err := gradeOne(r.Context(), repo, engine, studentID, testID)
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "submission not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, "grade: "+err.Error(), http.StatusInternalServerError)
			return
		}
		appendEvent(r, events, syncx.TypeSubmissionGraded, studentID+"|"+testID, map[string]any{
			"student_id": studentID, "test_id": testID,
			"total": grade.Total, "max_total": grade.MaxTotal,
		})
		_ = json.NewEncoder(w).Encode(grade)
	}
}

type gradeAllResult struct {
	StudentID string  `json:"student_id"`
	Total     float64 `json:"total,omitempty"`
	MaxTotal  float64 `json:"max_total,omitempty"`
	Error     string  `json:"error,omitempty"`
}

// POST /tests/{testID}/grade-all
// Grades every submission for the test with a bounded worker pool; per-student
// failures are reported, not fatal.
func GradeAllHandler(repo store.Repo, engine *grading.Engine, events *syncx.EventRepo, workers int) http.HandlerFunc {
	if workers <= 0 {
		workers = 4
	}
	return func(w http.ResponseWriter, r *http.Request) {
		testID := chi.URLParam(r, "testID")
		subs, err := repo.ListSubmissions(r.Context(), testID)
		if err != nil {
			http.Error(w, "list submissions: "+err.Error(), http.StatusInternalServerError)
			return
		}

		results := make([]gradeAllResult, len(subs))
		sem := make(chan struct{}, workers)
		var wg sync.WaitGroup
		for i, sub := range subs {
			wg.Add(1)
			go func(i int, sub store.Submission) {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()

				res := gradeAllResult{StudentID: sub.StudentID}
				grade, err := gradeOne(r.Context(), repo, engine, sub.StudentID, sub.TestID)
				if err != nil {
					res.Error = err.Error()
				} else {
					res.Total, res.MaxTotal = grade.Total, grade.MaxTotal
					appendEvent(r, events, syncx.TypeSubmissionGraded, sub.StudentID+"|"+sub.TestID, map[string]any{
						"student_id": sub.StudentID, "test_id": sub.TestID,
						"total": grade.Total, "max_total": grade.MaxTotal,
					})
				}
				results[i] = res
			}(i, sub)
		}
		wg.Wait()

		_ = json.NewEncoder(w).Encode(map[string]any{
			"test_id": testID,
			"graded":  results,
		})
	}
}

func gradeOne(ctx context.Context, repo store.Repo, engine *grading.Engine, studentID, testID string) (grading.SubmissionGrade, error) {
	sub, err := repo.GetSubmission(ctx, studentID, testID)
	if err != nil {
		return grading.SubmissionGrade{}, err
	}
	testRec, err := repo.GetTest(ctx, testID)
	if err != nil {
		return grading.SubmissionGrade{}, fmt.Errorf("load test: %w", err)
	}
	test, _, err := rubric.DecodeTest([]byte(testRec.RubricJSON))
	if err != nil {
		return grading.SubmissionGrade{}, fmt.Errorf("decode rubric: %w", err)
	}
	test.ID = testID
	// Key-point marks defer to the teacher-assigned question total.
	for i := range test.Questions {
		q := &test.Questions[i]
		q.KeyPoints = rubric.ScaleMarks(q.KeyPoints, q.MaxMarks)
	}

	var payload struct {
		Answers []grading.Answer `json:"answers"`
	}
	if err := json.Unmarshal([]byte(sub.AnswersJSON), &payload); err != nil {
		return grading.SubmissionGrade{}, fmt.Errorf("decode answers: %w", err)
	}

	grade := engine.GradeSubmission(ctx, payload.Answers, test)
	grade.StudentID = studentID

	gradedJSON, err := json.Marshal(grade)
	if err != nil {
		return grading.SubmissionGrade{}, fmt.Errorf("encode grade: %w", err)
	}
	_, err = repo.UpdateSubmission(ctx, studentID, testID, func(s *store.Submission) error {
		s.GradedJSON = string(gradedJSON)
		s.Status = store.StatusGraded
		s.GradedAt = time.Now().Unix()
		return nil
	})
	if err != nil {
		return grading.SubmissionGrade{}, fmt.Errorf("store grade: %w", err)
	}
	return grade, nil
}
