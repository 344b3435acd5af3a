package grading

import (
	"context"
	"strings"

	"github.com/dnvaishnavi/automated-multimodal-grader/internal/rubric"
)

// Final-answer evidence accepts, in order: symbolic equivalence (so "x^2+C"
// matches "C+x^2"), then a case-insensitive exact string match.
func (e *Engine) evaluateFinalAnswer(ctx context.Context, studentFinal string, kp rubric.KeyPoint) evidence {
	check, ok := kp.Check.(rubric.FinalAnswerCheck)
	if !ok || check.ExpectedAnswer == "" {
		return evidence{source: "final_answer", reason: "no expected final answer"}
	}
	student := strings.TrimSpace(studentFinal)
	if student == "" {
		return evidence{source: "final_answer", reason: "missing final answer"}
	}
	expected := strings.TrimSpace(check.ExpectedAnswer)

	if e.matchSymbolic(ctx, []string{student}, expected) {
		return evidence{matched: true, awarded: kp.Marks, source: "final_answer", reason: "correct value (symbolic match)"}
	}
	if strings.EqualFold(student, expected) {
		return evidence{matched: true, awarded: kp.Marks, source: "final_answer", reason: "correct value (exact match)"}
	}
	return evidence{source: "final_answer", reason: "final answer incorrect"}
}
