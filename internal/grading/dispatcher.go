package grading

import (
	"context"
	"strings"
	"time"

	"github.com/dnvaishnavi/automated-multimodal-grader/internal/flowchart"
	"github.com/dnvaishnavi/automated-multimodal-grader/internal/rubric"
)

// GradeSubmission grades every answered question that has a rubric entry.
// Answers without a rubric question are skipped; rubric questions without an
// answer score zero. Failures stay local to their key point.
func (e *Engine) GradeSubmission(ctx context.Context, answers []Answer, test rubric.Test) SubmissionGrade {
	byID := make(map[string]rubric.Question, len(test.Questions))
	for _, q := range test.Questions {
		byID[q.QuestionID] = q
	}

	grade := SubmissionGrade{TestID: test.ID, GradedAt: time.Now().Unix()}
	for _, ans := range answers {
		q, ok := byID[ans.QuestionID]
		if !ok {
			continue
		}
		qr := e.GradeQuestion(ctx, ans, q)
		grade.Total += qr.Score
		grade.MaxTotal += qr.MaxScore
		grade.Questions = append(grade.Questions, qr)
	}
	grade.Total = round2(grade.Total)
	return grade
}

// GradeQuestion routes each key point to the flowchart path or the evidence/
// aggregation path based on its acceptable modalities, then sums awarded
// marks with 2-decimal rounding.
func (e *Engine) GradeQuestion(ctx context.Context, ans Answer, q rubric.Question) QuestionResult {
	qr := QuestionResult{QuestionID: q.QuestionID, MaxScore: q.MaxMarks}
	if len(q.KeyPoints) == 0 {
		qr.Breakdown = append(qr.Breakdown, EvaluationResult{
			Reason: "rubric has no key points for this question",
		})
		return qr
	}

	// The first extracted flowchart carries the diagram evidence for every
	// flowchart key point of this question.
	var graph *flowchart.Graph
	if len(ans.Flowcharts) > 0 {
		graph = &ans.Flowcharts[0]
	}

	var flowKPs []rubric.KeyPoint
	for _, kp := range q.KeyPoints {
		if kp.Accepts(rubric.ModalityFlowchart) {
			flowKPs = append(flowKPs, kp)
		}
	}
	flowResults := map[string]EvaluationResult{}
	for _, r := range EvaluateFlowchart(graph, flowKPs) {
		flowResults[r.KeyID] = r
	}

	for _, kp := range q.KeyPoints {
		var res EvaluationResult
		if r, ok := flowResults[kp.ID]; ok {
			res = r
		} else {
			res = e.gradeEvidenceKeyPoint(ctx, ans, kp)
		}
		res.Awarded = clamp(res.Awarded, 0, res.Max)
		qr.Score += res.Awarded
		qr.Breakdown = append(qr.Breakdown, res)
	}
	qr.Score = round2(qr.Score)
	return qr
}

// gradeEvidenceKeyPoint runs every evaluator the key point's modalities allow,
// keeps the best-scoring evidence, and lets the aggregator decide whether the
// arbiter should refine it.
func (e *Engine) gradeEvidenceKeyPoint(ctx context.Context, ans Answer, kp rubric.KeyPoint) EvaluationResult {
	var evidences []evidence
	if kp.Accepts(rubric.ModalityText) {
		evidences = append(evidences, e.evaluateText(ctx, ans.Text, kp))
	}
	if kp.Accepts(rubric.ModalityEquation) {
		evidences = append(evidences, e.evaluateEquation(ctx, ans.Equations, kp))
	}
	if kp.Accepts(rubric.ModalityFinalAnswer) {
		evidences = append(evidences, e.evaluateFinalAnswer(ctx, ans.FinalAnswer, kp))
	}

	best := evidence{reason: "no acceptable modality produced evidence"}
	for _, ev := range evidences {
		if ev.awarded > best.awarded || (best.source == "" && ev.source != "") {
			best = ev
		}
	}

	contextText := strings.TrimSpace(strings.Join(ans.Text, " ") + " " + ans.FinalAnswer)
	return e.resolve(ctx, best, contextText, kp)
}
