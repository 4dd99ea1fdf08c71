// Package explain produces the rationale attached to a learning path.
package explain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/okian/auralearn/internal/domain/model"
	"github.com/okian/auralearn/internal/domain/ports"
	"github.com/okian/auralearn/internal/domain/recovery"
	"github.com/okian/auralearn/pkg/logger"
	"github.com/okian/auralearn/pkg/metrics"
)

// Fallback is returned when the generator's rationale cannot be parsed.
func Fallback() model.Explanation {
	return model.Explanation{
		Summary:     "Generated based on top relevance matches in the Knowledge Base.",
		Assumptions: []string{"Standard learning progression"},
		Confidence:  model.ConfidenceMedium,
	}
}

const promptTemplate = `You are an AI explainability engine. Explain WHY the system generated this learning plan.

User Goal: "%s"
Selected Skills: %s
Cross-Domain Impacts: %s

Provide an explanation in JSON format with the following keys:
- "summary" (string): why these skills were chosen for the goal.
- "assumptions" (list of strings): 2-3 assumptions about the user's background or intent.
- "confidence" (string): "High", "Medium", or "Low" based on the clarity of the goal and available knowledge.`

// raw mirrors the generated JSON before normalization.
type raw struct {
	Summary     string   `json:"summary"`
	Assumptions []string `json:"assumptions"`
	Confidence  string   `json:"confidence"`
}

// Reporter asks the generator for a rationale.
type Reporter struct {
	gen ports.Generator
	log logger.Logger
}

// New returns a Reporter.
func New(gen ports.Generator) *Reporter {
	return &Reporter{gen: gen, log: logger.Named("explain")}
}

// Explain returns a rationale that is never absent. Only transport failures
// are errors.
func (r *Reporter) Explain(ctx context.Context, goal model.GoalContext, path model.LearningPath, impact model.CrossDomainImpact) (model.Explanation, error) {
	impacts, err := json.Marshal(impact)
	if err != nil {
		return model.Explanation{}, fmt.Errorf("encode impacts: %w", err)
	}
	prompt := fmt.Sprintf(promptTemplate, goal.RawInput, strings.Join(path.Skills(), ", "), impacts)

	text, err := r.gen.GenerateText(ctx, prompt)
	if err != nil {
		return model.Explanation{}, fmt.Errorf("explain path: %w", err)
	}

	fb := Fallback()
	res := recovery.Decode(text, raw{Summary: fb.Summary, Assumptions: fb.Assumptions, Confidence: string(fb.Confidence)})
	metrics.RecordRecoveryOutcome("explaining", res.Outcome.String())
	if res.ParseFailed() {
		r.log.Warn(ctx, "explanation defaulted", logger.Error(res.Err))
	}
	return normalize(res.Value), nil
}

// normalize fills blanks from the fallback and coerces the confidence label.
func normalize(in raw) model.Explanation {
	fb := Fallback()
	out := model.Explanation{
		Summary:     strings.TrimSpace(in.Summary),
		Assumptions: make([]string, 0, len(in.Assumptions)),
		Confidence:  fb.Confidence,
	}
	if out.Summary == "" {
		out.Summary = fb.Summary
	}
	for _, a := range in.Assumptions {
		if a = strings.TrimSpace(a); a != "" {
			out.Assumptions = append(out.Assumptions, a)
		}
	}
	if c, ok := model.ParseConfidence(in.Confidence); ok {
		out.Confidence = c
	}
	return out
}
