// Package extract pulls a grounded skill set out of retrieved documents.
//
// The extractor fails closed: when the knowledge store has nothing, or the
// generator judges the content off-topic, the result is not grounded and no
// skills are surfaced.
package extract

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/okian/auralearn/internal/domain/grounding"
	"github.com/okian/auralearn/internal/domain/model"
	"github.com/okian/auralearn/internal/domain/ports"
	"github.com/okian/auralearn/pkg/logger"
	"github.com/okian/auralearn/pkg/metrics"
)

// Sentinel is the token the generator returns for off-topic content.
const Sentinel = "IRRELEVANT"

// DefaultContextDocuments is how many top documents ground the extraction.
const DefaultContextDocuments = 3

// Messages shown when a run ends as insufficient_knowledge.
const (
	MessageNoDocuments = "Knowledge Base does not contain sufficient information for this goal."
	MessageIrrelevant  = "Sorry, I am unable to assist you with this request. Try something else while I increase my knowledge."
)

// Reason says why an extraction is not grounded.
type Reason string

const (
	ReasonNone        Reason = ""
	ReasonNoDocuments Reason = "no_documents"
	ReasonIrrelevant  Reason = "irrelevant"
	ReasonUngrounded  Reason = "ungrounded"
)

// Extraction is the extractor's output for one goal.
type Extraction struct {
	Skills    model.SkillSet
	Documents []model.RetrievedDocument
	Reason    Reason
	Message   string
}

// Grounded reports whether skills may be surfaced.
func (e Extraction) Grounded() bool { return e.Reason == ReasonNone && len(e.Skills) > 0 }

const promptTemplate = `You are a strict content validator and curriculum designer.

User Goal: "%s"

Retrieved Knowledge Base Content:
%s

Task:
1. Determine if the retrieved content contains specific information relevant to the User Goal.
2. If the content is about a different subject area, you MUST return the single word: %s.
3. If the content IS relevant, extract the specific technical skills, concepts, and tools mentioned in the text.

Return ONLY:
- The word "%s" if the content does not match the goal.
- OR a comma-separated list of skills found in the text.`

var listMarker = regexp.MustCompile(`^(?:[-*•]+|\d+[.)])\s*`)

// Option configures an Extractor.
type Option func(*Extractor)

// WithContextDocuments sets how many top documents are sent to the generator.
func WithContextDocuments(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.contextDocs = n
		}
	}
}

// Extractor retrieves documents for a goal and extracts skills from them.
type Extractor struct {
	retriever   ports.Retriever
	gen         ports.Generator
	contextDocs int
	log         logger.Logger
}

// New returns an Extractor.
func New(retriever ports.Retriever, gen ports.Generator, opts ...Option) *Extractor {
	e := &Extractor{
		retriever:   retriever,
		gen:         gen,
		contextDocs: DefaultContextDocuments,
		log:         logger.Named("extract"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract runs one retrieval with the raw goal, gates on relevance and
// returns the skills the documents substantiate.
func (e *Extractor) Extract(ctx context.Context, goal model.GoalContext) (Extraction, error) {
	docs, err := e.retriever.Search(ctx, goal.RawInput)
	if err != nil {
		return Extraction{}, fmt.Errorf("retrieve documents: %w", err)
	}
	if len(docs) == 0 {
		e.log.Info(ctx, "no documents for goal", logger.String("reason", string(ReasonNoDocuments)))
		metrics.RecordGroundingFailure(string(ReasonNoDocuments))
		return Extraction{Reason: ReasonNoDocuments, Message: MessageNoDocuments}, nil
	}

	corpus := aggregate(docs, e.contextDocs)
	text, err := e.gen.GenerateText(ctx, fmt.Sprintf(promptTemplate, goal.RawInput, corpus, Sentinel, Sentinel))
	if err != nil {
		return Extraction{}, fmt.Errorf("extract skills: %w", err)
	}

	out := Extraction{Documents: docs}
	if IsIrrelevant(text) {
		e.log.Info(ctx, "content judged irrelevant", logger.Int("documents", len(docs)))
		metrics.RecordGroundingFailure(string(ReasonIrrelevant))
		out.Reason, out.Message = ReasonIrrelevant, MessageIrrelevant
		return out, nil
	}

	parsed := ParseSkills(text)
	out.Skills = filterGrounded(parsed, grounding.NewIndex(corpus))
	if len(out.Skills) == 0 {
		e.log.Info(ctx, "no grounded skills", logger.Int("proposed", len(parsed)))
		metrics.RecordGroundingFailure(string(ReasonUngrounded))
		out.Reason, out.Message = ReasonUngrounded, MessageIrrelevant
		return out, nil
	}

	if dropped := len(parsed) - len(out.Skills); dropped > 0 {
		e.log.Debug(ctx, "dropped ungrounded skills", logger.Int("dropped", dropped))
	}
	e.log.Debug(ctx, "skills extracted", logger.Strings("skills", out.Skills))
	return out, nil
}

// IsIrrelevant detects the sentinel anywhere in the text, ignoring case.
// A sentence that merely uses the word also matches.
func IsIrrelevant(text string) bool {
	return strings.Contains(strings.ToUpper(text), Sentinel)
}

// ParseSkills splits a comma-delimited answer into an ordered skill set.
// List markers and quotes are stripped from each entry.
func ParseSkills(text string) model.SkillSet {
	text = strings.ReplaceAll(text, "\n", ",")
	parts := strings.Split(text, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		p = listMarker.ReplaceAllString(p, "")
		p = strings.TrimLeft(p, "\"'` ")
		p = strings.TrimRight(p, ".;:\"'` ")
		names = append(names, p)
	}
	return model.NewSkillSet(names...)
}

func aggregate(docs []model.RetrievedDocument, n int) string {
	if len(docs) < n {
		n = len(docs)
	}
	parts := make([]string, 0, n)
	for _, d := range docs[:n] {
		parts = append(parts, d.Content)
	}
	return strings.Join(parts, "\n\n")
}

func filterGrounded(skills model.SkillSet, idx grounding.Index) model.SkillSet {
	out := make(model.SkillSet, 0, len(skills))
	for _, s := range skills {
		if idx.Contains(s) {
			out = append(out, s)
		}
	}
	return out
}
