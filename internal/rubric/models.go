package rubric

// Modality is the kind of student content a key point may be satisfied by.
type Modality string

const (
	ModalityText        Modality = "text"
	ModalityEquation    Modality = "equation"
	ModalityFinalAnswer Modality = "final_answer"
	ModalityFlowchart   Modality = "flowchart"
)

// KeyPoint is one atomic rubric assertion with its own mark allocation. The
// modality-specific payload lives in Check, decoded once at rubric load so the
// grading path never inspects ad hoc JSON fields.
type KeyPoint struct {
	ID         string
	Concept    string
	Marks      float64
	Modalities []Modality
	Check      Check
}

// Accepts reports whether the key point may be satisfied by the modality.
func (k KeyPoint) Accepts(m Modality) bool {
	for _, have := range k.Modalities {
		if have == m {
			return true
		}
	}
	return false
}

// Check is the kind-specific payload of a key point.
type Check interface{ isCheck() }

// NodeCheck asserts that a node expressing ExpectedText exists in the
// student's flowchart.
type NodeCheck struct {
	ExpectedText string
}

// ConnectionMode selects how a ConnectionCheck is verified.
type ConnectionMode int

const (
	// ConnectDirect requires an explicit edge between the two nodes matched
	// by earlier node checks.
	ConnectDirect ConnectionMode = iota
	// ConnectByIntent maps endpoints to node intents and accepts any
	// directed path between the intent groups.
	ConnectByIntent
)

// ConnectionCheck asserts a logical flow between two concepts in the
// student's flowchart.
type ConnectionCheck struct {
	FromText string
	ToText   string
	Mode     ConnectionMode
}

// TextCheck asserts the concept is expressed in prose, optionally backed by
// verbatim evidence phrases.
type TextCheck struct {
	EvidencePhrases []string
}

// EquationCheck asserts an equation equivalent to ExpectedEquation appears.
type EquationCheck struct {
	ExpectedEquation string
}

// FinalAnswerCheck asserts the boxed final answer equals ExpectedAnswer.
type FinalAnswerCheck struct {
	ExpectedAnswer string
}

func (NodeCheck) isCheck()        {}
func (ConnectionCheck) isCheck()  {}
func (TextCheck) isCheck()        {}
func (EquationCheck) isCheck()    {}
func (FinalAnswerCheck) isCheck() {}

// Question is the rubric for one question.
type Question struct {
	QuestionID string
	MaxMarks   float64
	KeyPoints  []KeyPoint
}

// Test is a published rubric: one Question per gradable question.
type Test struct {
	ID        string
	Title     string
	Questions []Question
	CreatedAt int64
}
