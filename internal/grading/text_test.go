package grading

import (
	"context"
	"strings"
	"testing"

	"github.com/dnvaishnavi/automated-multimodal-grader/internal/rubric"
)

func textKP(marks float64, phrases ...string) rubric.KeyPoint {
	return rubric.KeyPoint{
		ID: "k1", Concept: "conservation of momentum", Marks: marks,
		Modalities: []rubric.Modality{rubric.ModalityText},
		Check:      rubric.TextCheck{EvidencePhrases: phrases},
	}
}

func TestEvaluateTextShortcutFullCredit(t *testing.T) {
	e := NewEngine(
		WithNLI(fakeNLI{scores: NLIScores{Entailment: 0.75}}),
		WithEmbedder(fakeEmbedder{vec: []float64{1, 2, 3}}),
	)
	ev := e.evaluateText(context.Background(), []string{"total momentum stays constant"}, textKP(2))
	if ev.awarded != 2 {
		t.Fatalf("awarded = %v, want full 2 (entailment+similarity shortcut)", ev.awarded)
	}
}

func TestEvaluateTextContradictionVeto(t *testing.T) {
	e := NewEngine(
		WithNLI(fakeNLI{scores: NLIScores{Entailment: 0.9, Contradiction: 0.7}}),
		WithEmbedder(fakeEmbedder{vec: []float64{1, 0}}),
	)
	ev := e.evaluateText(context.Background(), []string{"momentum is never conserved"}, textKP(2))
	if ev.awarded != 0 || ev.reason != "contradiction detected" {
		t.Fatalf("got awarded=%v reason=%q, want veto", ev.awarded, ev.reason)
	}
}

func TestEvaluateTextHeuristicOnly(t *testing.T) {
	// No collaborators: entailment falls back to neutral 0.5, similarity is 0,
	// phrase coverage carries the rest. 0.3*1 + 0.4*0.5 = 0.5 of the marks.
	e := NewEngine()
	ev := e.evaluateText(context.Background(), []string{"Momentum is conserved in collisions"}, textKP(2, "momentum is conserved"))
	if ev.awarded != 1 {
		t.Fatalf("awarded = %v, want 1.0", ev.awarded)
	}
}

func TestEvaluateTextNLIErrorFallsBack(t *testing.T) {
	e := NewEngine(WithNLI(fakeNLI{err: context.DeadlineExceeded}))
	ev := e.evaluateText(context.Background(), []string{"momentum is conserved here"}, textKP(2, "momentum is conserved"))
	if ev.awarded != 1 {
		t.Fatalf("awarded = %v, want heuristic fallback 1.0", ev.awarded)
	}
}

func TestEvaluateTextEmpty(t *testing.T) {
	e := NewEngine()
	ev := e.evaluateText(context.Background(), nil, textKP(2))
	if ev.awarded != 0 || !strings.Contains(ev.reason, "no text") {
		t.Fatalf("got awarded=%v reason=%q", ev.awarded, ev.reason)
	}
}

func TestCosine(t *testing.T) {
	if got := cosine([]float64{1, 0}, []float64{0, 1}); got != 0 {
		t.Fatalf("orthogonal cosine = %v, want 0", got)
	}
	if got := cosine([]float64{2, 2}, []float64{1, 1}); got < 0.999 {
		t.Fatalf("parallel cosine = %v, want ~1", got)
	}
	if got := cosine([]float64{1}, []float64{1, 2}); got != 0 {
		t.Fatalf("length mismatch cosine = %v, want 0", got)
	}
}
