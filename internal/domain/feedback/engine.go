package feedback

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

const (
	expansionQualifiers = "advanced techniques best practices"
	maxSupplementDocs   = 3
)

const promptTemplate = `You are an adaptive learning path designer. Refine the path based on the user's feedback while keeping a logical skill progression.

ORIGINAL GOAL: %s

CURRENT LEARNING PATH:
- Foundation: %s
- Intermediate: %s
- Advanced: %s

USER FEEDBACK:
- Skills already known (REMOVE from path): %s
- Skills too advanced (MOVE to a later stage or add prerequisites): %s
- Skills not relevant (REMOVE from path): %s
- Topics to explore more (ADD related skills): %s
- General feedback: %s
%s
REFINEMENT RULES:
1. Remove "already_known" and "not_relevant" skills completely.
2. Move "too_advanced" skills to a later stage or add a prerequisite before them.
3. For each "want_more" topic add at most 2 related skills, taken only from the additional content.
4. Keep basics before advanced topics.
5. Keep each stage to at most 5-6 skills.

Return valid JSON:
{"foundation": [...], "intermediate": [...], "advanced": [...], "changes_made": ["..."]}`

// Engine runs one refinement: categorize, expand, refine, recover.
type Engine struct {
	retriever ports.Retriever
	gen       ports.Generator
	log       logger.Logger
}

// NewEngine returns an Engine. A nil generator always uses Fallback; a nil
// retriever skips expansion.
func NewEngine(retriever ports.Retriever, gen ports.Generator) *Engine {
	return &Engine{retriever: retriever, gen: gen, log: logger.Named("feedback")}
}

// Refine derives a revised path. The input path is never modified.
func (e *Engine) Refine(ctx context.Context, path model.LearningPath, rec model.FeedbackRecord, goal string) (model.RefinementResult, error) {
	cat := Categorize(rec)
	e.log.Debug(ctx, "feedback categorized",
		logger.Int("already_known", len(cat.AlreadyKnown)),
		logger.Int("too_advanced", len(cat.TooAdvanced)),
		logger.Int("not_relevant", len(cat.NotRelevant)),
		logger.Int("want_more", len(cat.WantMore)),
	)

	supplementary, err := e.expand(ctx, goal, cat.WantMore)
	if err != nil {
		return model.RefinementResult{}, err
	}

	if e.gen == nil {
		return e.fallback(ctx, path, cat, "no generator configured"), nil
	}

	text, err := e.gen.GenerateText(ctx, prompt(path, cat, goal, supplementary))
	if err != nil {
		return model.RefinementResult{}, fmt.Errorf("refine path: %w", err)
	}

	res := recovery.Decode(text, Generated{})
	metrics.RecordRecoveryOutcome("refining", res.Outcome.String())
	if res.ParseFailed() {
		return e.fallback(ctx, path, cat, "structured output defaulted"), nil
	}

	metrics.RecordRefinement(string(model.RefinementGenerative))
	return model.RefinementResult{
		Status:            model.StatusSuccess,
		RefinedPath:       ApplyGenerated(path, cat, res.Value, supplementary),
		FeedbackProcessed: Summarize(cat, true),
		Categorized:       cat,
		Mode:              model.RefinementGenerative,
	}, nil
}

func (e *Engine) fallback(ctx context.Context, path model.LearningPath, cat model.FeedbackCategorized, why string) model.RefinementResult {
	e.log.Warn(ctx, "using deterministic refinement", logger.String("reason", why))
	metrics.RecordRefinement(string(model.RefinementFallback))
	return model.RefinementResult{
		Status:            model.StatusSuccess,
		RefinedPath:       Fallback(path, cat),
		FeedbackProcessed: Summarize(cat, false),
		Categorized:       cat,
		Mode:              model.RefinementFallback,
	}
}

func (e *Engine) expand(ctx context.Context, goal string, topics []string) (string, error) {
	if len(topics) == 0 || e.retriever == nil {
		return "", nil
	}
	docs, err := e.retriever.Search(ctx, ExpansionQuery(goal, topics))
	if err != nil {
		return "", fmt.Errorf("retrieve expansion content: %w", err)
	}
	var parts []string
	for _, d := range docs {
		if len(parts) == maxSupplementDocs {
			break
		}
		if c := strings.TrimSpace(d.Content); c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, "\n\n"), nil
}

// ExpansionQuery builds the supplementary retrieval query.
func ExpansionQuery(goal string, topics []string) string {
	return fmt.Sprintf("%s %s %s", strings.TrimSpace(goal), strings.Join(topics, " "), expansionQualifiers)
}

func prompt(path model.LearningPath, cat model.FeedbackCategorized, goal, supplementary string) string {
	extra := ""
	if supplementary != "" {
		extra = "\nADDITIONAL KNOWLEDGE BASE CONTENT (use to add new relevant skills):\n" + supplementary + "\n"
	}
	return fmt.Sprintf(promptTemplate, goal,
		list(path.Foundation), list(path.Intermediate), list(path.Advanced),
		list(cat.AlreadyKnown), list(cat.TooAdvanced), list(cat.NotRelevant), list(cat.WantMore),
		cat.GeneralFeedback, extra)
}

func list(v []string) string {
	if v == nil {
		v = []string{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(b)
}
