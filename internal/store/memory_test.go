package store

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryRepoActiveTest(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepo()

	if _, err := repo.ActiveTest(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("empty repo: err = %v, want ErrNotFound", err)
	}
	if err := repo.PutTest(ctx, Test{ID: "t1", Title: "first"}); err != nil {
		t.Fatal(err)
	}
	if err := repo.PutTest(ctx, Test{ID: "t2", Title: "second"}); err != nil {
		t.Fatal(err)
	}
	active, err := repo.ActiveTest(ctx)
	if err != nil || active.ID != "t2" {
		t.Fatalf("active = %+v err = %v, want t2", active, err)
	}
}

func TestMemoryRepoResubmitReplaces(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepo()

	first := Submission{ID: "s1", StudentID: "alice", TestID: "t1", AnswersJSON: "{}", Status: StatusReceived}
	if err := repo.PutSubmission(ctx, first); err != nil {
		t.Fatal(err)
	}
	// Grade it, then resubmit: the grade must be gone and the version reset.
	if _, err := repo.UpdateSubmission(ctx, "alice", "t1", func(s *Submission) error {
		s.GradedJSON = `{"total":5}`
		s.Status = StatusGraded
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	second := Submission{ID: "s2", StudentID: "alice", TestID: "t1", AnswersJSON: `{"answers":[]}`, Status: StatusReceived}
	if err := repo.PutSubmission(ctx, second); err != nil {
		t.Fatal(err)
	}
	got, err := repo.GetSubmission(ctx, "alice", "t1")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != "s2" || got.GradedJSON != "" || got.Status != StatusReceived || got.Version != 1 {
		t.Fatalf("resubmit did not replace cleanly: %+v", got)
	}
}

func TestMemoryRepoUpdateSubmission(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepo()

	if _, err := repo.UpdateSubmission(ctx, "nobody", "t1", func(*Submission) error { return nil }); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	if err := repo.PutSubmission(ctx, Submission{ID: "s1", StudentID: "bob", TestID: "t1"}); err != nil {
		t.Fatal(err)
	}
	updated, err := repo.UpdateSubmission(ctx, "bob", "t1", func(s *Submission) error {
		s.Status = StatusGraded
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Status != StatusGraded || updated.Version != 2 {
		t.Fatalf("got %+v, want graded at version 2", updated)
	}

	// A mutate error leaves the record untouched.
	boom := errors.New("boom")
	if _, err := repo.UpdateSubmission(ctx, "bob", "t1", func(*Submission) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	got, _ := repo.GetSubmission(ctx, "bob", "t1")
	if got.Version != 2 {
		t.Fatalf("failed mutate bumped version: %+v", got)
	}
}

func TestMemoryRepoListSubmissionsFilters(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepo()

	_ = repo.PutSubmission(ctx, Submission{ID: "s1", StudentID: "a", TestID: "t1", SubmittedAt: 1})
	_ = repo.PutSubmission(ctx, Submission{ID: "s2", StudentID: "b", TestID: "t1", SubmittedAt: 2})
	_ = repo.PutSubmission(ctx, Submission{ID: "s3", StudentID: "a", TestID: "t2", SubmittedAt: 3})

	subs, err := repo.ListSubmissions(ctx, "t1")
	if err != nil {
		t.Fatal(err)
	}
	if len(subs) != 2 || subs[0].ID != "s1" || subs[1].ID != "s2" {
		t.Fatalf("got %+v", subs)
	}
}
