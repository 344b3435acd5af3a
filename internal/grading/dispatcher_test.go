package grading

import (
	"context"
	"strings"
	"testing"

	"github.com/dnvaishnavi/automated-multimodal-grader/internal/flowchart"
	"github.com/dnvaishnavi/automated-multimodal-grader/internal/rubric"
)

func TestGradeSubmissionSkipsUnknownQuestions(t *testing.T) {
	e := NewEngine()
	test := rubric.Test{ID: "t1", Questions: []rubric.Question{{
		QuestionID: "Q1", MaxMarks: 2,
		KeyPoints: []rubric.KeyPoint{textKP(2, "gravity")},
	}}}
	answers := []Answer{
		{QuestionID: "Q1", Text: []string{"gravity pulls things down"}},
		{QuestionID: "Q9", Text: []string{"not in the rubric"}},
	}
	grade := e.GradeSubmission(context.Background(), answers, test)
	if len(grade.Questions) != 1 || grade.Questions[0].QuestionID != "Q1" {
		t.Fatalf("got %+v, want only Q1 graded", grade.Questions)
	}
	if grade.MaxTotal != 2 {
		t.Fatalf("max total = %v, want 2", grade.MaxTotal)
	}
}

func TestGradeQuestionNoKeyPoints(t *testing.T) {
	e := NewEngine()
	qr := e.GradeQuestion(context.Background(), Answer{QuestionID: "Q1"}, rubric.Question{QuestionID: "Q1", MaxMarks: 5})
	if len(qr.Breakdown) != 1 || !strings.Contains(qr.Breakdown[0].Reason, "no key points") {
		t.Fatalf("got %+v", qr)
	}
	if qr.Score != 0 || qr.MaxScore != 5 {
		t.Fatalf("score=%v max=%v", qr.Score, qr.MaxScore)
	}
}

func TestGradeQuestionMixedModalities(t *testing.T) {
	e := NewEngine()
	q := rubric.Question{
		QuestionID: "Q1", MaxMarks: 4,
		KeyPoints: []rubric.KeyPoint{
			textKP(2, "momentum is conserved"),
			{ID: "k2", Concept: "final value", Marks: 2,
				Modalities: []rubric.Modality{rubric.ModalityFinalAnswer},
				Check:      rubric.FinalAnswerCheck{ExpectedAnswer: "42"}},
		},
	}
	ans := Answer{
		QuestionID:  "Q1",
		Text:        []string{"momentum is conserved in closed systems"},
		FinalAnswer: "42",
	}
	qr := e.GradeQuestion(context.Background(), ans, q)
	// Text key point: coverage 1, neutral entailment, no embedder -> half.
	// Final answer: exact match -> full.
	if qr.Score != 3 {
		t.Fatalf("score = %v, want 3; breakdown: %+v", qr.Score, qr.Breakdown)
	}
	if len(qr.Breakdown) != 2 {
		t.Fatalf("breakdown length %d", len(qr.Breakdown))
	}
}

func TestGradeQuestionRoutesFlowchartKeyPoints(t *testing.T) {
	e := NewEngine()
	q := rubric.Question{
		QuestionID: "Q1", MaxMarks: 1,
		KeyPoints: []rubric.KeyPoint{{
			ID: "k1", Concept: "Start Node", Marks: 1,
			Modalities: []rubric.Modality{rubric.ModalityFlowchart},
			Check:      rubric.NodeCheck{ExpectedText: "Start"},
		}},
	}
	ans := Answer{
		QuestionID: "Q1",
		Flowcharts: []flowchart.Graph{{Nodes: []flowchart.Node{{ID: "n1", Text: "Start"}}}},
	}
	qr := e.GradeQuestion(context.Background(), ans, q)
	if qr.Score != 1 {
		t.Fatalf("score = %v, want 1; breakdown: %+v", qr.Score, qr.Breakdown)
	}
}

func TestGradeQuestionUnansweredFlowchart(t *testing.T) {
	e := NewEngine()
	q := rubric.Question{
		QuestionID: "Q1", MaxMarks: 1,
		KeyPoints: []rubric.KeyPoint{{
			ID: "k1", Concept: "Start Node", Marks: 1,
			Modalities: []rubric.Modality{rubric.ModalityFlowchart},
			Check:      rubric.NodeCheck{ExpectedText: "Start"},
		}},
	}
	qr := e.GradeQuestion(context.Background(), Answer{QuestionID: "Q1"}, q)
	if qr.Score != 0 || !strings.Contains(qr.Breakdown[0].Reason, "no flowchart") {
		t.Fatalf("got %+v", qr)
	}
}
