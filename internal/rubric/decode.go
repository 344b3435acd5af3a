package rubric

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Wire shapes. Teachers author (or vision extraction emits) this JSON; it is
// decoded exactly once into the typed model above.

type keyPointJSON struct {
	ID                   string   `json:"id"`
	Concept              string   `json:"concept"`
	Type                 string   `json:"type"`
	Marks                float64  `json:"marks"`
	AcceptableModalities []string `json:"acceptable_modalities"`

	ExpectedText        string   `json:"expected_text,omitempty"`
	FromText            string   `json:"from_text,omitempty"`
	ToText              string   `json:"to_text,omitempty"`
	EvidencePhrases     []string `json:"evidence_phrases,omitempty"`
	ExpectedEquation    string   `json:"expected_equation,omitempty"`
	ExpectedFinalAnswer string   `json:"expected_final_answer,omitempty"`
}

type questionJSON struct {
	QuestionID string         `json:"question_id"`
	MaxMarks   float64        `json:"max_marks"`
	KeyPoints  []keyPointJSON `json:"key_points"`
}

type testJSON struct {
	ID        string         `json:"id,omitempty"`
	Title     string         `json:"title,omitempty"`
	Rubric    []questionJSON `json:"rubric"`
	CreatedAt int64          `json:"created_at,omitempty"`
}

// DecodeTest parses a rubric payload into the typed model. Recoverable
// problems (a skipped key point, a mark-sum mismatch) come back as warnings;
// only an unusable payload is an error.
func DecodeTest(raw []byte) (Test, []string, error) {
	var tj testJSON
	if err := json.Unmarshal(raw, &tj); err != nil {
		return Test{}, nil, fmt.Errorf("decode rubric: %w", err)
	}
	if len(tj.Rubric) == 0 {
		return Test{}, nil, fmt.Errorf("decode rubric: no questions")
	}
	t := Test{ID: tj.ID, Title: tj.Title, CreatedAt: tj.CreatedAt}
	var warnings []string
	for _, qj := range tj.Rubric {
		q, ws := decodeQuestion(qj)
		warnings = append(warnings, ws...)
		t.Questions = append(t.Questions, q)
	}
	return t, warnings, nil
}

func decodeQuestion(qj questionJSON) (Question, []string) {
	q := Question{QuestionID: qj.QuestionID, MaxMarks: qj.MaxMarks}
	var warnings []string

	// Node-check concepts seen so far; connection checks against two declared
	// concepts can demand a literal edge, anything else degrades to the
	// intent-based variant.
	nodeConcepts := map[string]bool{}
	for _, kj := range qj.KeyPoints {
		if kj.Type == "node_check" {
			nodeConcepts[kj.Concept] = true
		}
	}

	sum := 0.0
	for _, kj := range qj.KeyPoints {
		kp, err := decodeKeyPoint(kj, nodeConcepts)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s/%s: %v (skipped)", qj.QuestionID, kj.ID, err))
			continue
		}
		sum += kp.Marks
		q.KeyPoints = append(q.KeyPoints, kp)
	}
	if qj.MaxMarks > 0 && math.Abs(sum-qj.MaxMarks) > 0.001 {
		warnings = append(warnings, fmt.Sprintf(
			"%s: key-point marks sum to %.2f but max_marks is %.2f", qj.QuestionID, sum, qj.MaxMarks))
	}
	return q, warnings
}

func decodeKeyPoint(kj keyPointJSON, nodeConcepts map[string]bool) (KeyPoint, error) {
	if kj.Marks <= 0 {
		return KeyPoint{}, fmt.Errorf("marks must be > 0, got %v", kj.Marks)
	}
	kp := KeyPoint{ID: kj.ID, Concept: kj.Concept, Marks: kj.Marks}
	for _, m := range kj.AcceptableModalities {
		switch Modality(strings.TrimSpace(m)) {
		case ModalityText, ModalityEquation, ModalityFinalAnswer, ModalityFlowchart:
			kp.Modalities = append(kp.Modalities, Modality(strings.TrimSpace(m)))
		}
	}

	switch kj.Type {
	case "node_check":
		if kj.ExpectedText == "" {
			return KeyPoint{}, fmt.Errorf("node_check without expected_text")
		}
		kp.Check = NodeCheck{ExpectedText: kj.ExpectedText}
		if len(kp.Modalities) == 0 {
			kp.Modalities = []Modality{ModalityFlowchart}
		}
	case "connection_check":
		if kj.FromText == "" || kj.ToText == "" {
			return KeyPoint{}, fmt.Errorf("connection_check without from_text/to_text")
		}
		mode := ConnectByIntent
		if nodeConcepts[kj.FromText] && nodeConcepts[kj.ToText] {
			mode = ConnectDirect
		}
		kp.Check = ConnectionCheck{FromText: kj.FromText, ToText: kj.ToText, Mode: mode}
		if len(kp.Modalities) == 0 {
			kp.Modalities = []Modality{ModalityFlowchart}
		}
	case "text":
		kp.Check = TextCheck{EvidencePhrases: kj.EvidencePhrases}
	case "equation":
		if kj.ExpectedEquation == "" {
			return KeyPoint{}, fmt.Errorf("equation check without expected_equation")
		}
		kp.Check = EquationCheck{ExpectedEquation: kj.ExpectedEquation}
	case "final_answer":
		if kj.ExpectedFinalAnswer == "" {
			return KeyPoint{}, fmt.Errorf("final_answer check without expected_final_answer")
		}
		kp.Check = FinalAnswerCheck{ExpectedAnswer: kj.ExpectedFinalAnswer}
	default:
		return KeyPoint{}, fmt.Errorf("unknown key-point type %q", kj.Type)
	}
	if len(kp.Modalities) == 0 {
		kp.Modalities = []Modality{ModalityText}
	}
	return kp, nil
}
