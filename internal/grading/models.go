package grading

import (
	"context"
	"math"
	"time"

	"github.com/dnvaishnavi/automated-multimodal-grader/internal/flowchart"
)

// Answer is one question's extracted student content.
type Answer struct {
	QuestionID  string            `json:"question_id"`
	Text        []string          `json:"text,omitempty"`
	Equations   []string          `json:"equations,omitempty"`
	Flowcharts  []flowchart.Graph `json:"flowcharts,omitempty"`
	FinalAnswer string            `json:"final_answer,omitempty"`
}

// EvaluationResult is the outcome for a single key point. Awarded is always
// clamped to [0, Max].
type EvaluationResult struct {
	KeyID   string  `json:"key_id"`
	Concept string  `json:"criteria"`
	Awarded float64 `json:"awarded_marks"`
	Max     float64 `json:"max_marks"`
	Reason  string  `json:"reason"`
}

// QuestionResult is the ordered per-key-point breakdown for one question.
type QuestionResult struct {
	QuestionID string             `json:"question_id"`
	Score      float64            `json:"score"`
	MaxScore   float64            `json:"max_score"`
	Breakdown  []EvaluationResult `json:"breakdown"`
}

// SubmissionGrade is the full grading outcome for one submission. A re-grade
// produces a fresh SubmissionGrade that replaces the previous one.
type SubmissionGrade struct {
	StudentID string           `json:"student_id,omitempty"`
	TestID    string           `json:"test_id,omitempty"`
	Total     float64          `json:"total"`
	MaxTotal  float64          `json:"max_total"`
	Questions []QuestionResult `json:"questions"`
	GradedAt  int64            `json:"graded_at,omitempty"`
}

// NLIScores are the class probabilities from the entailment collaborator.
// They need not sum to exactly 1.
type NLIScores struct {
	Entailment    float64 `json:"entailment"`
	Contradiction float64 `json:"contradiction"`
	Neutral       float64 `json:"neutral"`
}

// NLI classifies whether a hypothesis follows from a premise.
type NLI interface {
	Classify(ctx context.Context, premise, hypothesis string) (NLIScores, error)
}

// Embedder maps text to a dense vector; cosine similarity is computed here.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Symbolic simplifies a math expression; an unparseable expression is an
// error, never a panic.
type Symbolic interface {
	Simplify(ctx context.Context, expr string) (string, error)
}

// Arbiter is the free-text model consulted when heuristics leave marks on the
// table. It returns raw text that is expected, but not trusted, to be JSON.
type Arbiter interface {
	Review(ctx context.Context, prompt string) (string, error)
}

// Engine evaluates submissions against decoded rubrics. Collaborators are
// injected once at construction; a nil collaborator disables its signal and
// the evaluators degrade per the failure rules.
type Engine struct {
	nli         NLI
	embedder    Embedder
	symbolic    Symbolic
	arbiter     Arbiter
	callTimeout time.Duration
}

type Option func(*Engine)

func WithNLI(n NLI) Option           { return func(e *Engine) { e.nli = n } }
func WithEmbedder(em Embedder) Option { return func(e *Engine) { e.embedder = em } }
func WithSymbolic(s Symbolic) Option  { return func(e *Engine) { e.symbolic = s } }
func WithArbiter(a Arbiter) Option    { return func(e *Engine) { e.arbiter = a } }

// WithCallTimeout bounds each collaborator call; on expiry the heuristic
// result stands.
func WithCallTimeout(d time.Duration) Option {
	return func(e *Engine) { e.callTimeout = d }
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{callTimeout: 30 * time.Second}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Engine) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.callTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, e.callTimeout)
}

// evidence is one evaluator's independent verdict for a key point.
type evidence struct {
	matched bool
	awarded float64
	source  string
	reason  string
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
