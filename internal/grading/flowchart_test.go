package grading

import (
	"strings"
	"testing"

	"github.com/dnvaishnavi/automated-multimodal-grader/internal/flowchart"
	"github.com/dnvaishnavi/automated-multimodal-grader/internal/rubric"
)

func countingGraph() *flowchart.Graph {
	return &flowchart.Graph{
		Nodes: []flowchart.Node{
			{ID: "n1", Text: "Start", Shape: flowchart.ShapeOval},
			{ID: "n2", Text: "Read number", Shape: flowchart.ShapeRect},
			{ID: "n3", Text: "Print result", Shape: flowchart.ShapeRect},
			{ID: "n4", Text: "End", Shape: flowchart.ShapeOval},
		},
		Edges: []flowchart.Edge{
			{Source: "n1", Target: "n2"},
			{Source: "n2", Target: "n3"},
			{Source: "n3", Target: "n4"},
		},
	}
}

func countingKeyPoints() []rubric.KeyPoint {
	return []rubric.KeyPoint{
		{ID: "k1", Concept: "Start Node", Marks: 1,
			Modalities: []rubric.Modality{rubric.ModalityFlowchart},
			Check:      rubric.NodeCheck{ExpectedText: "Start"}},
		{ID: "k2", Concept: "Read Input", Marks: 1,
			Modalities: []rubric.Modality{rubric.ModalityFlowchart},
			Check:      rubric.NodeCheck{ExpectedText: "Read number"}},
		{ID: "k3", Concept: "input flow", Marks: 1,
			Modalities: []rubric.Modality{rubric.ModalityFlowchart},
			Check: rubric.ConnectionCheck{
				FromText: "Start Node", ToText: "Read Input", Mode: rubric.ConnectDirect}},
	}
}

func TestEvaluateFlowchartFullMarks(t *testing.T) {
	results := EvaluateFlowchart(countingGraph(), countingKeyPoints())
	total := 0.0
	for _, r := range results {
		total += r.Awarded
	}
	if total != 3 {
		t.Fatalf("total = %v, want 3; results: %+v", total, results)
	}
	// Results come back in rubric order regardless of evaluation phases.
	if results[0].KeyID != "k1" || results[1].KeyID != "k2" || results[2].KeyID != "k3" {
		t.Fatalf("result order broken: %+v", results)
	}
}

func TestEvaluateFlowchartMissingEdge(t *testing.T) {
	g := countingGraph()
	g.Edges = g.Edges[1:] // drop Start -> Read number
	results := EvaluateFlowchart(g, countingKeyPoints())

	conn := results[2]
	if conn.Awarded != 0 {
		t.Fatalf("connection awarded %v, want 0", conn.Awarded)
	}
	if !strings.Contains(conn.Reason, "missing logical link") {
		t.Fatalf("reason = %q", conn.Reason)
	}
	// Node checks still score.
	if results[0].Awarded != 1 || results[1].Awarded != 1 {
		t.Fatalf("node checks affected by missing edge: %+v", results)
	}
}

func TestEvaluateFlowchartSynonymNode(t *testing.T) {
	g := countingGraph()
	g.Nodes[0].Text = "Begin"
	results := EvaluateFlowchart(g, countingKeyPoints()[:1])
	if results[0].Awarded != 1 {
		t.Fatalf("synonym match (0.95) should give full credit: %+v", results[0])
	}
}

func TestEvaluateFlowchartPartialConceptMatch(t *testing.T) {
	g := &flowchart.Graph{Nodes: []flowchart.Node{{ID: "n1", Text: "count"}}}
	kps := []rubric.KeyPoint{{
		ID: "k1", Concept: "loop counter", Marks: 1,
		Modalities: []rubric.Modality{rubric.ModalityFlowchart},
		Check:      rubric.NodeCheck{ExpectedText: "counter"},
	}}
	results := EvaluateFlowchart(g, kps)
	// LCS ratio 10/12 sits between the floor and the full-credit band.
	if results[0].Awarded != 0.83 {
		t.Fatalf("awarded = %v, want 0.83", results[0].Awarded)
	}
}

func TestEvaluateFlowchartIntentConnection(t *testing.T) {
	kps := []rubric.KeyPoint{{
		ID: "k1", Concept: "start reaches output", Marks: 1,
		Modalities: []rubric.Modality{rubric.ModalityFlowchart},
		Check: rubric.ConnectionCheck{
			FromText: "Start", ToText: "Print result", Mode: rubric.ConnectByIntent},
	}}
	results := EvaluateFlowchart(countingGraph(), kps)
	if results[0].Awarded != 1 {
		t.Fatalf("transitive path Start->...->Print should score: %+v", results[0])
	}
}

func TestEvaluateFlowchartNilGraph(t *testing.T) {
	results := EvaluateFlowchart(nil, countingKeyPoints())
	for _, r := range results {
		if r.Awarded != 0 {
			t.Fatalf("nil graph must zero every key point: %+v", r)
		}
		if !strings.Contains(r.Reason, "no flowchart") {
			t.Fatalf("reason = %q", r.Reason)
		}
	}
}

func TestEvaluateFlowchartMissingConcept(t *testing.T) {
	g := &flowchart.Graph{Nodes: []flowchart.Node{{ID: "n1", Text: "zzz"}}}
	results := EvaluateFlowchart(g, countingKeyPoints())
	if results[0].Awarded != 0 || results[0].Reason != "concept missing or unclear" {
		t.Fatalf("got %+v", results[0])
	}
	// Connection check depends on nodes that never matched.
	if results[2].Reason != "cannot verify logic (nodes missing)" {
		t.Fatalf("got %+v", results[2])
	}
}
