package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	authmw "github.com/dnvaishnavi/automated-multimodal-grader/internal/auth/middleware"
	"github.com/dnvaishnavi/automated-multimodal-grader/internal/grading"
	"github.com/dnvaishnavi/automated-multimodal-grader/internal/rbac"
	"github.com/dnvaishnavi/automated-multimodal-grader/internal/store"
)

const testRubricPayload = `{
  "id": "t1",
  "title": "Physics quiz",
  "rubric": [{
    "question_id": "Q1",
    "max_marks": 2,
    "key_points": [
      {"id": "k1", "concept": "final value", "type": "final_answer",
       "expected_final_answer": "42", "marks": 2, "acceptable_modalities": ["final_answer"]}
    ]
  }]
}`

func newRouter(repo store.Repo) chi.Router {
	engine := grading.NewEngine()
	r := chi.NewRouter()
	r.Post("/tests", PublishTestHandler(repo, nil))
	r.Get("/tests/active", ActiveTestHandler(repo))
	r.Post("/submissions", CreateSubmissionHandler(repo, nil, nil, nil))
	r.Get("/submissions", ListSubmissionsHandler(repo))
	r.Post("/submissions/{studentID}/{testID}/assign", AssignSubmissionHandler(repo))
	r.Post("/submissions/{studentID}/{testID}/grade", GradeSubmissionHandler(repo, engine, nil))
	return r
}

func doJSON(t *testing.T, r chi.Router, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPublishAndGradeFlow(t *testing.T) {
	repo := store.NewInMemoryRepo()
	r := newRouter(repo)

	if w := doJSON(t, r, "POST", "/tests", testRubricPayload); w.Code != http.StatusOK {
		t.Fatalf("publish: %d %s", w.Code, w.Body)
	}

	submission := `{"student_id": "alice", "test_id": "t1", "answers": [
		{"question_id": "Q1", "final_answer": "42"}
	]}`
	if w := doJSON(t, r, "POST", "/submissions", submission); w.Code != http.StatusOK {
		t.Fatalf("submit: %d %s", w.Code, w.Body)
	}

	w := doJSON(t, r, "POST", "/submissions/alice/t1/grade", "")
	if w.Code != http.StatusOK {
		t.Fatalf("grade: %d %s", w.Code, w.Body)
	}
	var grade grading.SubmissionGrade
	if err := json.Unmarshal(w.Body.Bytes(), &grade); err != nil {
		t.Fatal(err)
	}
	if grade.Total != 2 || grade.MaxTotal != 2 {
		t.Fatalf("grade = %+v, want 2/2", grade)
	}

	stored, err := repo.GetSubmission(context.Background(), "alice", "t1")
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != store.StatusGraded || stored.GradedJSON == "" {
		t.Fatalf("submission not persisted as graded: %+v", stored)
	}
}

func TestPublishRejectsInvalidRubric(t *testing.T) {
	r := newRouter(store.NewInMemoryRepo())
	if w := doJSON(t, r, "POST", "/tests", `{"rubric": "nope"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("code = %d, want 400", w.Code)
	}
}

func TestCreateSubmissionUnknownTest(t *testing.T) {
	r := newRouter(store.NewInMemoryRepo())
	body := `{"student_id": "alice", "test_id": "ghost", "answers": [{"question_id": "Q1"}]}`
	if w := doJSON(t, r, "POST", "/submissions", body); w.Code != http.StatusNotFound {
		t.Fatalf("code = %d, want 404", w.Code)
	}
}

func TestGradeMissingSubmission(t *testing.T) {
	r := newRouter(store.NewInMemoryRepo())
	if w := doJSON(t, r, "POST", "/submissions/alice/t1/grade", ""); w.Code != http.StatusNotFound {
		t.Fatalf("code = %d, want 404", w.Code)
	}
}

func TestListSubmissionsStudentSeesOwnOnly(t *testing.T) {
	repo := store.NewInMemoryRepo()
	r := newRouter(repo)
	_ = doJSON(t, r, "POST", "/tests", testRubricPayload)
	_ = doJSON(t, r, "POST", "/submissions", `{"student_id": "alice", "test_id": "t1", "answers": [{"question_id": "Q1"}]}`)
	_ = doJSON(t, r, "POST", "/submissions", `{"student_id": "bob", "test_id": "t1", "answers": [{"question_id": "Q1"}]}`)

	req := httptest.NewRequest("GET", "/submissions?test_id=t1", nil)
	ctx := rbac.WithRole(req.Context(), "student")
	ctx = authmw.WithSubject(ctx, "alice")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req.WithContext(ctx))

	var subs []store.Submission
	if err := json.Unmarshal(w.Body.Bytes(), &subs); err != nil {
		t.Fatal(err)
	}
	if len(subs) != 1 || subs[0].StudentID != "alice" {
		t.Fatalf("got %+v, want only alice's submission", subs)
	}
}

func TestAssignSubmission(t *testing.T) {
	repo := store.NewInMemoryRepo()
	r := newRouter(repo)
	_ = doJSON(t, r, "POST", "/tests", testRubricPayload)
	_ = doJSON(t, r, "POST", "/submissions", `{"student_id": "alice", "test_id": "t1", "answers": [{"question_id": "Q1"}]}`)

	w := doJSON(t, r, "POST", "/submissions/alice/t1/assign", `{"teacher_id": "mr-k"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("assign: %d %s", w.Code, w.Body)
	}
	got, _ := repo.GetSubmission(context.Background(), "alice", "t1")
	if got.AssignedTeacher != "mr-k" || got.Status != store.StatusAssigned {
		t.Fatalf("got %+v", got)
	}
}
