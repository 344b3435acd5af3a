package grading

import (
	"fmt"

	"github.com/dnvaishnavi/automated-multimodal-grader/internal/flowchart"
	"github.com/dnvaishnavi/automated-multimodal-grader/internal/rubric"
)

// Concept-match credit bands for node checks.
const (
	conceptFloor     = 0.6  // below or at: no credit
	fullCreditScore  = 0.85 // above: full credit; between floor and this: proportional
)

// EvaluateFlowchart scores a question's flowchart key points against a
// student graph. Node checks resolve first and populate the concept→node map
// that connection checks depend on; results come back in the original
// key-point order. A nil graph zeroes every key point rather than erroring:
// the rest of the rubric must still be scored.
func EvaluateFlowchart(g *flowchart.Graph, kps []rubric.KeyPoint) []EvaluationResult {
	results := make(map[string]EvaluationResult, len(kps))

	if g == nil {
		for _, kp := range kps {
			results[kp.ID] = zeroResult(kp, "no flowchart found in student answer")
		}
		return ordered(kps, results)
	}

	ix := flowchart.NewIndex(*g)
	intents := flowchart.Intents(*g)
	candidates := make([]flowchart.Candidate, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		candidates = append(candidates, flowchart.Candidate{ID: n.ID, Text: n.Text})
	}

	// Phase 1: node checks build the concept map.
	conceptNode := map[string]string{}
	for _, kp := range kps {
		check, ok := kp.Check.(rubric.NodeCheck)
		if !ok {
			continue
		}
		nodeID, score := flowchart.MatchConcept(check.ExpectedText, candidates)
		switch {
		case score > fullCreditScore:
			conceptNode[kp.Concept] = nodeID
			results[kp.ID] = EvaluationResult{
				KeyID: kp.ID, Concept: kp.Concept, Awarded: kp.Marks, Max: kp.Marks,
				Reason: fmt.Sprintf("concept matched node %q (score %.2f)", nodeID, score),
			}
		case score > conceptFloor:
			conceptNode[kp.Concept] = nodeID
			results[kp.ID] = EvaluationResult{
				KeyID: kp.ID, Concept: kp.Concept, Awarded: round2(kp.Marks * score), Max: kp.Marks,
				Reason: fmt.Sprintf("partial concept match on node %q (score %.2f)", nodeID, score),
			}
		default:
			results[kp.ID] = zeroResult(kp, "concept missing or unclear")
		}
	}

	// Phase 2: connection checks resolve through the concept map (direct
	// mode) or through node intents (transitive mode). A failed check stays
	// local to its key point.
	for _, kp := range kps {
		check, ok := kp.Check.(rubric.ConnectionCheck)
		if !ok {
			continue
		}
		results[kp.ID] = evaluateConnection(kp, check, ix, intents, *g, conceptNode)
	}

	// Anything that is neither a node nor a connection check does not belong
	// to the flowchart path.
	for _, kp := range kps {
		if _, done := results[kp.ID]; !done {
			results[kp.ID] = zeroResult(kp, "key point is not a flowchart check")
		}
	}
	return ordered(kps, results)
}

func evaluateConnection(kp rubric.KeyPoint, check rubric.ConnectionCheck, ix *flowchart.Index,
	intents map[string]flowchart.Intent, g flowchart.Graph, conceptNode map[string]string) EvaluationResult {

	if check.Mode == rubric.ConnectDirect {
		from, okFrom := conceptNode[check.FromText]
		to, okTo := conceptNode[check.ToText]
		if !okFrom || !okTo {
			return zeroResult(kp, "cannot verify logic (nodes missing)")
		}
		if ix.HasEdge(from, to) {
			return EvaluationResult{
				KeyID: kp.ID, Concept: kp.Concept, Awarded: kp.Marks, Max: kp.Marks,
				Reason: fmt.Sprintf("logical flow confirmed: %s connects to %s", check.FromText, check.ToText),
			}
		}
		return zeroResult(kp, fmt.Sprintf("missing logical link from %q to %q", check.FromText, check.ToText))
	}

	fromIntent := flowchart.ClassifyIntent(check.FromText)
	toIntent := flowchart.ClassifyIntent(check.ToText)
	fromNodes := toSet(flowchart.NodesWithIntent(intents, fromIntent, g))
	toNodes := toSet(flowchart.NodesWithIntent(intents, toIntent, g))
	if len(fromNodes) == 0 || len(toNodes) == 0 {
		return zeroResult(kp, "cannot verify logic (nodes missing)")
	}
	if ix.Reachable(fromNodes, toNodes) {
		return EvaluationResult{
			KeyID: kp.ID, Concept: kp.Concept, Awarded: kp.Marks, Max: kp.Marks,
			Reason: fmt.Sprintf("logical flow confirmed: %s reaches %s", fromIntent, toIntent),
		}
	}
	return zeroResult(kp, fmt.Sprintf("missing logical link between %s and %s", fromIntent, toIntent))
}

func zeroResult(kp rubric.KeyPoint, reason string) EvaluationResult {
	return EvaluationResult{KeyID: kp.ID, Concept: kp.Concept, Awarded: 0, Max: kp.Marks, Reason: reason}
}

func ordered(kps []rubric.KeyPoint, results map[string]EvaluationResult) []EvaluationResult {
	out := make([]EvaluationResult, 0, len(kps))
	for _, kp := range kps {
		out = append(out, results[kp.ID])
	}
	return out
}

func toSet(ids []string) map[string]struct{} {
	m := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}
