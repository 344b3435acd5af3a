package grading

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/dnvaishnavi/automated-multimodal-grader/internal/rubric"
)

// Text evidence combines three independent signals: verbatim phrase coverage,
// NLI entailment against the concept, and embedding similarity. Canonical
// thresholds (see DESIGN.md): contradiction veto 0.6, entailment levels at
// 0.3/0.7, full-credit shortcut at entailment-level >= 0.8 and similarity
// >= 0.7, otherwise 0.3*coverage + 0.4*entailment + 0.3*similarity.
const (
	contradictionVeto = 0.6
	entailHigh        = 0.7
	entailLow         = 0.3
	shortcutEntail    = 0.8
	shortcutSim       = 0.7
	weightCoverage    = 0.3
	weightEntailment  = 0.4
	weightSimilarity  = 0.3
)

func (e *Engine) evaluateText(ctx context.Context, texts []string, kp rubric.KeyPoint) evidence {
	studentText := strings.TrimSpace(strings.Join(texts, " "))
	if studentText == "" {
		return evidence{source: "text", reason: "no text provided"}
	}

	var phrases []string
	if tc, ok := kp.Check.(rubric.TextCheck); ok {
		phrases = tc.EvidencePhrases
	}
	coverage := 0.0
	lower := strings.ToLower(studentText)
	for _, p := range phrases {
		if p != "" && strings.Contains(lower, strings.ToLower(p)) {
			coverage = 1.0
			break
		}
	}

	entailment := 0.5 // neutral fallback when the NLI collaborator is unavailable
	if e.nli != nil {
		cctx, cancel := e.callCtx(ctx)
		scores, err := e.nli.Classify(cctx, studentText, kp.Concept)
		cancel()
		if err == nil {
			if scores.Contradiction > contradictionVeto {
				return evidence{source: "text", reason: "contradiction detected"}
			}
			switch {
			case scores.Entailment > entailHigh:
				entailment = 1.0
			case scores.Entailment > entailLow:
				entailment = 0.5
			default:
				entailment = 0.0
			}
		}
	}

	similarity := 0.0
	if e.embedder != nil {
		cctx, cancel := e.callCtx(ctx)
		similarity = e.conceptSimilarity(cctx, studentText, kp.Concept)
		cancel()
	}

	fraction := weightCoverage*coverage + weightEntailment*entailment + weightSimilarity*similarity
	if entailment >= shortcutEntail && similarity >= shortcutSim {
		fraction = 1.0
	}

	awarded := round2(fraction * kp.Marks)
	return evidence{
		matched: awarded > 0,
		awarded: awarded,
		source:  "text",
		reason:  fmt.Sprintf("content match %d%% (coverage=%.1f entailment=%.1f similarity=%.2f)", int(fraction*100), coverage, entailment, similarity),
	}
}

func (e *Engine) conceptSimilarity(ctx context.Context, studentText, concept string) float64 {
	a, err := e.embedder.Embed(ctx, studentText)
	if err != nil {
		return 0
	}
	b, err := e.embedder.Embed(ctx, concept)
	if err != nil {
		return 0
	}
	return clamp(cosine(a, b), 0, 1)
}

func cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
