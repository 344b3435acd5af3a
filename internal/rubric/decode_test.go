package rubric

import (
	"strings"
	"testing"
)

const countingRubric = `{
  "title": "Counting loop",
  "rubric": [{
    "question_id": "Q1",
    "max_marks": 3,
    "key_points": [
      {"id": "k1", "concept": "Start Node", "type": "node_check", "expected_text": "Start", "marks": 1},
      {"id": "k2", "concept": "End Node", "type": "node_check", "expected_text": "End", "marks": 1},
      {"id": "k3", "concept": "flow", "type": "connection_check", "from_text": "Start Node", "to_text": "End Node", "marks": 1},
      {"id": "k4", "concept": "broken", "type": "text", "marks": 0}
    ]
  }]
}`

func TestDecodeTestSkipsBadKeyPoints(t *testing.T) {
	test, warnings, err := DecodeTest([]byte(countingRubric))
	if err != nil {
		t.Fatal(err)
	}
	if len(test.Questions) != 1 || len(test.Questions[0].KeyPoints) != 3 {
		t.Fatalf("got %d key points, want 3 (zero-mark one skipped)", len(test.Questions[0].KeyPoints))
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "k4") {
		t.Fatalf("warnings = %v", warnings)
	}
}

func TestDecodeConnectionModeDirect(t *testing.T) {
	test, _, err := DecodeTest([]byte(countingRubric))
	if err != nil {
		t.Fatal(err)
	}
	check := test.Questions[0].KeyPoints[2].Check.(ConnectionCheck)
	// Both endpoints name declared node-check concepts.
	if check.Mode != ConnectDirect {
		t.Fatalf("mode = %v, want ConnectDirect", check.Mode)
	}
}

func TestDecodeConnectionModeIntent(t *testing.T) {
	payload := `{"rubric": [{"question_id": "Q1", "max_marks": 1, "key_points": [
		{"id": "k1", "concept": "flow", "type": "connection_check", "from_text": "Start", "to_text": "Print result", "marks": 1}
	]}]}`
	test, _, err := DecodeTest([]byte(payload))
	if err != nil {
		t.Fatal(err)
	}
	check := test.Questions[0].KeyPoints[0].Check.(ConnectionCheck)
	if check.Mode != ConnectByIntent {
		t.Fatalf("mode = %v, want ConnectByIntent", check.Mode)
	}
}

func TestDecodeDefaultModalities(t *testing.T) {
	test, _, err := DecodeTest([]byte(countingRubric))
	if err != nil {
		t.Fatal(err)
	}
	kps := test.Questions[0].KeyPoints
	if !kps[0].Accepts(ModalityFlowchart) {
		t.Fatal("node_check should default to flowchart modality")
	}
	if kps[0].Accepts(ModalityText) {
		t.Fatal("node_check should not default to text modality")
	}
}

func TestDecodeMarkSumWarning(t *testing.T) {
	payload := `{"rubric": [{"question_id": "Q1", "max_marks": 5, "key_points": [
		{"id": "k1", "concept": "c", "type": "text", "marks": 2}
	]}]}`
	_, warnings, err := DecodeTest([]byte(payload))
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "max_marks") {
		t.Fatalf("warnings = %v", warnings)
	}
}

func TestDecodeUnknownTypeSkipped(t *testing.T) {
	payload := `{"rubric": [{"question_id": "Q1", "key_points": [
		{"id": "k1", "concept": "c", "type": "telepathy_check", "marks": 1},
		{"id": "k2", "concept": "c2", "type": "text", "marks": 1}
	]}]}`
	test, warnings, err := DecodeTest([]byte(payload))
	if err != nil {
		t.Fatal(err)
	}
	if len(test.Questions[0].KeyPoints) != 1 {
		t.Fatalf("got %d key points, want 1", len(test.Questions[0].KeyPoints))
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "unknown key-point type") {
		t.Fatalf("warnings = %v", warnings)
	}
}

func TestDecodeEmptyRubric(t *testing.T) {
	if _, _, err := DecodeTest([]byte(`{"rubric": []}`)); err == nil {
		t.Fatal("empty rubric must be an error")
	}
	if _, _, err := DecodeTest([]byte(`not json`)); err == nil {
		t.Fatal("malformed payload must be an error")
	}
}

func TestValidateTestPayload(t *testing.T) {
	if err := ValidateTestPayload([]byte(countingRubric)); err != nil {
		t.Fatalf("valid payload rejected: %v", err)
	}
	bad := `{"rubric": [{"question_id": "Q1", "key_points": [
		{"id": "k1", "concept": "c", "type": "telepathy_check", "marks": 1}
	]}]}`
	if err := ValidateTestPayload([]byte(bad)); err == nil {
		t.Fatal("unknown check type must fail schema validation")
	}
}
