package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	authmw "github.com/dnvaishnavi/automated-multimodal-grader/internal/auth/middleware"
	"github.com/dnvaishnavi/automated-multimodal-grader/internal/grading"
	"github.com/dnvaishnavi/automated-multimodal-grader/internal/rbac"
	"github.com/dnvaishnavi/automated-multimodal-grader/internal/rubric"
	"github.com/dnvaishnavi/automated-multimodal-grader/internal/storage"
	"github.com/dnvaishnavi/automated-multimodal-grader/internal/store"
	"github.com/dnvaishnavi/automated-multimodal-grader/internal/syncx"
	"github.com/dnvaishnavi/automated-multimodal-grader/internal/vision"
)

type createSubmissionReq struct {
	StudentID string           `json:"student_id"`
	TestID    string           `json:"test_id"`
	Answers   []grading.Answer `json:"answers"`
}

// POST /submissions
// JSON body: {student_id, test_id, answers}. An image body (with
// ?student_id=&test_id=) is stored, run through vision extraction, and the
// extracted answers are submitted instead. Resubmitting replaces the earlier
// record for the same (student, test) pair.
func CreateSubmissionHandler(repo store.Repo, extractor *vision.Extractor, bs storage.BlobStore, events *syncx.EventRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createSubmissionReq
		if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
			raw, err := io.ReadAll(io.LimitReader(r.Body, 8<<20))
			if err != nil {
				http.Error(w, "read body: "+err.Error(), http.StatusBadRequest)
				return
			}
			if err := rubric.ValidateAnswersPayload(raw); err != nil {
				http.Error(w, "invalid answers: "+err.Error(), http.StatusBadRequest)
				return
			}
			if err := json.Unmarshal(raw, &req); err != nil {
				http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
				return
			}
		} else {
			if extractor == nil {
				http.Error(w, "vision extraction not configured", http.StatusServiceUnavailable)
				return
			}
			req.StudentID = strings.TrimSpace(r.URL.Query().Get("student_id"))
			req.TestID = strings.TrimSpace(r.URL.Query().Get("test_id"))
			image, mimeType, err := readImage(r)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			if bs != nil && req.StudentID != "" && req.TestID != "" {
				key := fmt.Sprintf("submissions/%s/%s/%s", req.TestID, req.StudentID, uuid.NewString())
				if _, err := bs.Put(key, bytes.NewReader(image)); err != nil {
					http.Error(w, "store image: "+err.Error(), http.StatusInternalServerError)
					return
				}
			}
			req.Answers, err = extractor.ExtractAnswers(r.Context(), image, mimeType)
			if err != nil {
				http.Error(w, "extract answers: "+err.Error(), http.StatusBadGateway)
				return
			}
		}

		// Students can only file under their own identity.
		if sub := authmw.SubjectFromContext(r.Context()); sub != "" &&
			rbac.RoleFromContext(r.Context()) == "student" {
			req.StudentID = sub
		}
		if req.StudentID == "" || req.TestID == "" {
			http.Error(w, "student_id and test_id required", http.StatusBadRequest)
			return
		}
		if _, err := repo.GetTest(r.Context(), req.TestID); err != nil {
			http.Error(w, "unknown test: "+req.TestID, http.StatusNotFound)
			return
		}

		answersJSON, err := json.Marshal(map[string]any{"answers": req.Answers})
		if err != nil {
			http.Error(w, "encode answers: "+err.Error(), http.StatusInternalServerError)
			return
		}
		rec := store.Submission{
			ID:          uuid.NewString(),
			StudentID:   req.StudentID,
			TestID:      req.TestID,
			AnswersJSON: string(answersJSON),
			Status:      store.StatusReceived,
			SubmittedAt: time.Now().Unix(),
		}
		if err := repo.PutSubmission(r.Context(), rec); err != nil {
			http.Error(w, "store submission: "+err.Error(), http.StatusInternalServerError)
			return
		}
		appendEvent(r, events, syncx.TypeSubmissionReceived, rec.StudentID+"|"+rec.TestID, map[string]any{
			"submission_id": rec.ID, "student_id": rec.StudentID, "test_id": rec.TestID,
		})
		_ = json.NewEncoder(w).Encode(rec)
	}
}

// GET /submissions?test_id=...
// Students see only their own submissions; teachers and admins see all.
func ListSubmissionsHandler(repo store.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		testID := strings.TrimSpace(r.URL.Query().Get("test_id"))
		if testID == "" {
			http.Error(w, "test_id required", http.StatusBadRequest)
			return
		}
		subs, err := repo.ListSubmissions(r.Context(), testID)
		if err != nil {
			http.Error(w, "list submissions: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if rbac.RoleFromContext(r.Context()) == "student" {
			self := authmw.SubjectFromContext(r.Context())
			own := subs[:0]
			for _, s := range subs {
				if s.StudentID == self {
					own = append(own, s)
				}
			}
			subs = own
		}
		if subs == nil {
			subs = []store.Submission{}
		}
		_ = json.NewEncoder(w).Encode(subs)
	}
}

// POST /submissions/{studentID}/{testID}/assign  { "teacher_id": "..." }
func AssignSubmissionHandler(repo store.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		studentID := chi.URLParam(r, "studentID")
		testID := chi.URLParam(r, "testID")
		var req struct {
			TeacherID string `json:"teacher_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TeacherID == "" {
			http.Error(w, "teacher_id required", http.StatusBadRequest)
			return
		}
		sub, err := repo.UpdateSubmission(r.Context(), studentID, testID, func(s *store.Submission) error {
			s.AssignedTeacher = req.TeacherID
			if s.Status == store.StatusReceived {
				s.Status = store.StatusAssigned
			}
			return nil
		})
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "submission not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, "assign: "+err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(sub)
	}
}

func appendEvent(r *http.Request, events *syncx.EventRepo, typ, key string, data map[string]any) {
	if events == nil {
		return
	}
	payload, _ := json.Marshal(data)
	if err := events.Append(r.Context(), syncx.Event{Type: typ, Key: key, DataJSON: string(payload)}); err != nil {
		log.Printf("event append (%s %s): %v", typ, key, err)
	}
}
