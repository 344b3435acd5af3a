package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dnvaishnavi/automated-multimodal-grader/internal/rubric"
	"github.com/dnvaishnavi/automated-multimodal-grader/internal/storage"
	"github.com/dnvaishnavi/automated-multimodal-grader/internal/store"
	"github.com/dnvaishnavi/automated-multimodal-grader/internal/syncx"
	"github.com/dnvaishnavi/automated-multimodal-grader/internal/vision"
)

// POST /tests
// Body: rubric payload (see rubric schema). Publishing replaces the active
// test; decode warnings come back alongside the stored record.
func PublishTestHandler(repo store.Repo, events *syncx.EventRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(io.LimitReader(r.Body, 4<<20))
		if err != nil {
			http.Error(w, "read body: "+err.Error(), http.StatusBadRequest)
			return
		}
		if err := rubric.ValidateTestPayload(raw); err != nil {
			http.Error(w, "invalid rubric: "+err.Error(), http.StatusBadRequest)
			return
		}
		t, warnings, err := rubric.DecodeTest(raw)
		if err != nil {
			http.Error(w, "decode rubric: "+err.Error(), http.StatusBadRequest)
			return
		}

		rec := store.Test{
			ID:         t.ID,
			Title:      t.Title,
			RubricJSON: string(raw),
			CreatedAt:  time.Now().Unix(),
		}
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		if err := repo.PutTest(r.Context(), rec); err != nil {
			http.Error(w, "store test: "+err.Error(), http.StatusInternalServerError)
			return
		}
		appendEvent(r, events, syncx.TypeTestPublished, rec.ID, map[string]any{
			"test_id": rec.ID, "title": rec.Title,
		})

		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":       rec.ID,
			"title":    rec.Title,
			"warnings": warnings,
		})
	}
}

// GET /tests/active
func ActiveTestHandler(repo store.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := repo.ActiveTest(r.Context())
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "no active test", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, "active test: "+err.Error(), http.StatusInternalServerError)
			return
		}
		// Students get the questions, not the marking scheme.
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":         t.ID,
			"title":      t.Title,
			"created_at": t.CreatedAt,
		})
	}
}

// POST /tests/{testID}/extract-rubric
// Body: marking-scheme image. Returns the extracted rubric payload for the
// teacher to review and publish; nothing is stored except the image itself.
func ExtractRubricHandler(extractor *vision.Extractor, bs storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if extractor == nil {
			http.Error(w, "vision extraction not configured", http.StatusServiceUnavailable)
			return
		}
		testID := strings.TrimSpace(chi.URLParam(r, "testID"))
		if testID == "" {
			http.Error(w, "testID required", http.StatusBadRequest)
			return
		}
		image, mimeType, err := readImage(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if bs != nil {
			key := fmt.Sprintf("rubrics/%s/%s", testID, uuid.NewString())
			if _, err := bs.Put(key, bytes.NewReader(image)); err != nil {
				http.Error(w, "store image: "+err.Error(), http.StatusInternalServerError)
				return
			}
		}
		raw, err := extractor.ExtractRubric(r.Context(), image, mimeType)
		if err != nil {
			http.Error(w, "extract rubric: "+err.Error(), http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(raw)
	}
}

func readImage(r *http.Request) ([]byte, string, error) {
	mimeType := r.Header.Get("Content-Type")
	if mimeType == "" || strings.HasPrefix(mimeType, "application/json") {
		return nil, "", errors.New("image body with an image/* content type required")
	}
	image, err := io.ReadAll(io.LimitReader(r.Body, 16<<20))
	if err != nil {
		return nil, "", fmt.Errorf("read image: %w", err)
	}
	if len(image) == 0 {
		return nil, "", errors.New("empty image body")
	}
	return image, mimeType, nil
}
