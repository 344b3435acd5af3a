// Package vision turns answer-sheet and rubric images into structured JSON
// via the Gemini API. Extraction output is schema-validated before anything
// downstream sees it; an empty or malformed response becomes an error the
// grading path treats as "no evidence".
package vision

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"google.golang.org/genai"

	"github.com/dnvaishnavi/automated-multimodal-grader/internal/grading"
	"github.com/dnvaishnavi/automated-multimodal-grader/internal/rubric"
)

const DefaultModel = "gemini-2.5-flash"

const answerPrompt = `Analyze this answer sheet carefully.
If some text is unclear, make your best reasonable guess. DO NOT return an empty response.
Return ONLY a RAW JSON object (no markdown).

Schema:
{
  "answers": [
    {
      "question_id": "Q7",
      "text": ["prose the student wrote"],
      "equations": ["E = mc^2"],
      "final_answer": "42",
      "flowcharts": [
        {
          "nodes": [{"id": "node_1", "text": "exact text", "shape": "oval/rect/diamond"}],
          "edges": [{"source": "node_1", "target": "node_2", "label": "Yes/No"}]
        }
      ]
    }
  ]
}`

const rubricPrompt = `Analyze this correct answer / marking scheme carefully.
If some text is unclear, make your best reasonable guess. DO NOT return an empty response.
Return ONLY a RAW JSON object (no markdown).

Schema:
{
  "rubric": [
    {
      "question_id": "Q7",
      "max_marks": 5,
      "key_points": [
        {
          "id": "k1",
          "concept": "Start Node",
          "type": "node_check",
          "expected_text": "Start",
          "marks": 1,
          "acceptable_modalities": ["flowchart"]
        }
      ]
    }
  ]
}`

var mdFenceRe = regexp.MustCompile("(?i)```json|```")

type Extractor struct {
	client *genai.Client
	model  string
}

func NewExtractor(ctx context.Context, apiKey, model string) (*Extractor, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("vision API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create vision client: %w", err)
	}
	if model == "" {
		model = DefaultModel
	}
	return &Extractor{client: client, model: model}, nil
}

// ExtractAnswers converts a student answer-sheet image into per-question
// extracted answers.
func (x *Extractor) ExtractAnswers(ctx context.Context, image []byte, mimeType string) ([]grading.Answer, error) {
	raw, err := x.generate(ctx, answerPrompt, image, mimeType)
	if err != nil {
		return nil, err
	}
	if err := rubric.ValidateAnswersPayload(raw); err != nil {
		return nil, fmt.Errorf("extracted answers rejected: %w", err)
	}
	var payload struct {
		Answers []grading.Answer `json:"answers"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decode extracted answers: %w", err)
	}
	return payload.Answers, nil
}

// ExtractRubric converts a marking-scheme image into the raw rubric payload.
// The caller decodes it with rubric.DecodeTest so warnings surface there.
func (x *Extractor) ExtractRubric(ctx context.Context, image []byte, mimeType string) ([]byte, error) {
	raw, err := x.generate(ctx, rubricPrompt, image, mimeType)
	if err != nil {
		return nil, err
	}
	if err := rubric.ValidateTestPayload(raw); err != nil {
		return nil, fmt.Errorf("extracted rubric rejected: %w", err)
	}
	return raw, nil
}

func (x *Extractor) generate(ctx context.Context, prompt string, image []byte, mimeType string) ([]byte, error) {
	contents := []*genai.Content{{
		Parts: []*genai.Part{
			{Text: prompt},
			{InlineData: &genai.Blob{MIMEType: mimeType, Data: image}},
		},
	}}
	result, err := x.client.Models.GenerateContent(ctx, x.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("vision extract: %w", err)
	}
	text := strings.TrimSpace(result.Text())
	if text == "" {
		return nil, fmt.Errorf("vision extract: empty response")
	}
	return []byte(strings.TrimSpace(mdFenceRe.ReplaceAllString(text, ""))), nil
}
