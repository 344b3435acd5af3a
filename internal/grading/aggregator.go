package grading

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dnvaishnavi/automated-multimodal-grader/internal/rubric"
)

// Escalation floor: arbitration is pointless without student content to read.
const minContextLen = 5

var fenceRe = regexp.MustCompile("(?i)```json|```")

type arbiterVerdict struct {
	AwardedMarks any    `json:"awarded_marks"`
	Reasoning    string `json:"reasoning"`
}

// resolve turns the best heuristic evidence into the final EvaluationResult
// for a key point, consulting the arbiter when the heuristics left marks on
// the table and there is student context worth reading. The arbiter is
// advisory: its mark is accepted only when it parses as a number within
// [0, max]; every other outcome (timeout, malformed JSON, out-of-range value)
// keeps the heuristic result.
func (e *Engine) resolve(ctx context.Context, best evidence, contextText string, kp rubric.KeyPoint) EvaluationResult {
	heuristic := EvaluationResult{
		KeyID:   kp.ID,
		Concept: kp.Concept,
		Awarded: clamp(best.awarded, 0, kp.Marks),
		Max:     kp.Marks,
		Reason:  best.reason,
	}
	if heuristic.Reason == "" {
		heuristic.Reason = fmt.Sprintf("criteria not met: %s", kp.Concept)
	}

	contextText = strings.TrimSpace(contextText)
	if e.arbiter == nil || heuristic.Awarded >= kp.Marks || len(contextText) <= minContextLen {
		return heuristic
	}

	cctx, cancel := e.callCtx(ctx)
	raw, err := e.arbiter.Review(cctx, arbiterPrompt(contextText, kp))
	cancel()
	if err != nil {
		return heuristic // collaborator failure degrades silently
	}

	var verdict arbiterVerdict
	if err := json.Unmarshal([]byte(strings.TrimSpace(fenceRe.ReplaceAllString(raw, ""))), &verdict); err != nil {
		heuristic.Reason += " (arbiter response was not valid JSON)"
		return heuristic
	}
	mark, ok := numericMark(verdict.AwardedMarks)
	if !ok || mark < 0 || mark > kp.Marks {
		heuristic.Reason += fmt.Sprintf(" (arbiter mark %v unusable)", verdict.AwardedMarks)
		return heuristic
	}

	reason := verdict.Reasoning
	if reason == "" {
		reason = "arbiter verdict"
	}
	return EvaluationResult{
		KeyID:   kp.ID,
		Concept: kp.Concept,
		Awarded: round2(mark),
		Max:     kp.Marks,
		Reason:  "[arbiter] " + reason,
	}
}

// arbiterPrompt asks for a JSON verdict and carries the concrete expected
// target when the key point has one, so the model grades against the rubric
// instead of hallucinating it.
func arbiterPrompt(contextText string, kp rubric.KeyPoint) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a fair academic evaluator. Verify whether the target concept is present in the student answer.\n\n")
	fmt.Fprintf(&b, "Target concept: %q\n", kp.Concept)
	switch c := kp.Check.(type) {
	case rubric.EquationCheck:
		fmt.Fprintf(&b, "Expected equation: %q\n", c.ExpectedEquation)
	case rubric.FinalAnswerCheck:
		fmt.Fprintf(&b, "Expected final answer: %q\n", c.ExpectedAnswer)
	case rubric.TextCheck:
		if len(c.EvidencePhrases) > 0 {
			fmt.Fprintf(&b, "Rubric evidence phrases: %s\n", strings.Join(c.EvidencePhrases, "; "))
		}
	}
	fmt.Fprintf(&b, "Student answer: %q\n\n", contextText)
	fmt.Fprintf(&b, "Award partial credit when the concept is semantically correct but incomplete. ")
	fmt.Fprintf(&b, "Award 0 for contradictions or when the concept is absent. Judge meaning, not wording.\n")
	fmt.Fprintf(&b, "Respond ONLY with JSON: {\"awarded_marks\": <number between 0 and %g>, \"reasoning\": \"...\"}\n", kp.Marks)
	return b.String()
}

func numericMark(v any) (float64, bool) {
	switch m := v.(type) {
	case float64:
		return m, true
	case json.Number:
		f, err := m.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(m), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
