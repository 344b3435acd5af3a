package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const updateRetries = 3

type SQLRepo struct {
	db *sql.DB
}

func NewSQLRepo(db *sql.DB) *SQLRepo { return &SQLRepo{db: db} }

func (r *SQLRepo) PutTest(ctx context.Context, t Test) error {
	if t.CreatedAt == 0 {
		t.CreatedAt = time.Now().Unix()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tests (id, title, rubric_json, created_at)
		 VALUES ($1,$2,$3,$4)
		 ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, rubric_json=EXCLUDED.rubric_json`,
		t.ID, t.Title, t.RubricJSON, t.CreatedAt)
	return err
}

func (r *SQLRepo) GetTest(ctx context.Context, id string) (Test, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, title, rubric_json, created_at FROM tests WHERE id=$1`, id)
	return scanTest(row)
}

func (r *SQLRepo) ActiveTest(ctx context.Context) (Test, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, title, rubric_json, created_at FROM tests ORDER BY created_at DESC LIMIT 1`)
	return scanTest(row)
}

func scanTest(row *sql.Row) (Test, error) {
	var t Test
	if err := row.Scan(&t.ID, &t.Title, &t.RubricJSON, &t.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Test{}, ErrNotFound
		}
		return Test{}, err
	}
	return t, nil
}

func (r *SQLRepo) PutSubmission(ctx context.Context, s Submission) error {
	if s.SubmittedAt == 0 {
		s.SubmittedAt = time.Now().Unix()
	}
	// A resubmission replaces the prior record and resets the grade.
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO submissions (id, student_id, test_id, answers_json, status, assigned_teacher, graded_json, version, submitted_at, graded_at)
		 VALUES ($1,$2,$3,$4,$5,'','',1,$6,0)
		 ON CONFLICT (student_id, test_id) DO UPDATE SET
		   id=EXCLUDED.id, answers_json=EXCLUDED.answers_json, status=EXCLUDED.status,
		   graded_json='', version=submissions.version+1, submitted_at=EXCLUDED.submitted_at, graded_at=0`,
		s.ID, s.StudentID, s.TestID, s.AnswersJSON, StatusReceived, s.SubmittedAt)
	return err
}

func (r *SQLRepo) GetSubmission(ctx context.Context, studentID, testID string) (Submission, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, student_id, test_id, answers_json, status, assigned_teacher, graded_json, version, submitted_at, graded_at
		 FROM submissions WHERE student_id=$1 AND test_id=$2`, studentID, testID)
	var s Submission
	err := row.Scan(&s.ID, &s.StudentID, &s.TestID, &s.AnswersJSON, &s.Status,
		&s.AssignedTeacher, &s.GradedJSON, &s.Version, &s.SubmittedAt, &s.GradedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Submission{}, ErrNotFound
	}
	if err != nil {
		return Submission{}, err
	}
	return s, nil
}

func (r *SQLRepo) ListSubmissions(ctx context.Context, testID string) ([]Submission, error) {
	query := `SELECT id, student_id, test_id, answers_json, status, assigned_teacher, graded_json, version, submitted_at, graded_at
		FROM submissions`
	args := []any{}
	if testID != "" {
		query += ` WHERE test_id=$1`
		args = append(args, testID)
	}
	query += ` ORDER BY submitted_at ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Submission
	for rows.Next() {
		var s Submission
		if err := rows.Scan(&s.ID, &s.StudentID, &s.TestID, &s.AnswersJSON, &s.Status,
			&s.AssignedTeacher, &s.GradedJSON, &s.Version, &s.SubmittedAt, &s.GradedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// UpdateSubmission does an optimistic read-modify-write: the UPDATE carries
// the version the record was read at, and a zero row count means someone got
// there first, in which case the cycle re-reads and retries.
func (r *SQLRepo) UpdateSubmission(ctx context.Context, studentID, testID string, mutate func(*Submission) error) (Submission, error) {
	for attempt := 0; attempt < updateRetries; attempt++ {
		s, err := r.GetSubmission(ctx, studentID, testID)
		if err != nil {
			return Submission{}, err
		}
		readVersion := s.Version
		if err := mutate(&s); err != nil {
			return Submission{}, err
		}
		res, err := r.db.ExecContext(ctx,
			`UPDATE submissions SET answers_json=$1, status=$2, assigned_teacher=$3, graded_json=$4,
			   version=version+1, graded_at=$5
			 WHERE student_id=$6 AND test_id=$7 AND version=$8`,
			s.AnswersJSON, s.Status, s.AssignedTeacher, s.GradedJSON, s.GradedAt,
			studentID, testID, readVersion)
		if err != nil {
			return Submission{}, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return Submission{}, err
		}
		if n == 1 {
			s.Version = readVersion + 1
			return s, nil
		}
	}
	return Submission{}, fmt.Errorf("update submission %s/%s: %w", studentID, testID, ErrConflict)
}
