// Package crossdomain projects a learning path onto health, finance and
// agriculture, grounding each projection in its own retrieval.
package crossdomain

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/auralearn/internal/domain/model"
	"github.com/okian/auralearn/internal/domain/ports"
	"github.com/okian/auralearn/internal/domain/recovery"
	"github.com/okian/auralearn/pkg/logger"
	"github.com/okian/auralearn/pkg/metrics"
)

const (
	maxQuerySkills = 5
	maxContextDocs = 3
)

// queryTemplates prefix the domain retrieval queries.
var queryTemplates = map[model.Domain]string{
	model.DomainHealth:      "applications in healthcare and health data analysis",
	model.DomainFinance:     "applications in personal finance and financial modeling",
	model.DomainAgriculture: "applications in agriculture and precision farming",
}

// defaults fill a domain whose explanation came back empty.
var defaults = map[model.Domain]string{
	model.DomainHealth:      "Skills applicable to health data analysis.",
	model.DomainFinance:     "Skills useful for financial modeling.",
	model.DomainAgriculture: "Skills relevant to precision agriculture.",
}

const groundedPrompt = `You are a cross-domain career analyst.
Skills: %s
Domain: %s

Reference material:
%s

In 2-3 sentences, explain how these skills apply to the %s domain.
Use ONLY facts from the reference material above.
Return valid JSON: {"explanation": "..."}`

const ungroundedPrompt = `You are a cross-domain career analyst.
Skills: %s
Domain: %s

No reference material is available for this domain.
Write ONE conservative, generic sentence on how these skills could apply to the %s domain. Do not state specific facts.
Return valid JSON: {"explanation": "..."}`

type answer struct {
	Explanation string `json:"explanation"`
}

// Mapper explains each domain independently.
type Mapper struct {
	retriever ports.Retriever
	gen       ports.Generator
	log       logger.Logger
}

// New returns a Mapper.
func New(retriever ports.Retriever, gen ports.Generator) *Mapper {
	return &Mapper{retriever: retriever, gen: gen, log: logger.Named("crossdomain")}
}

// Map returns an explanation for every domain. Transport failures abort the
// whole mapping.
func (m *Mapper) Map(ctx context.Context, path model.LearningPath) (model.CrossDomainImpact, error) {
	var impact model.CrossDomainImpact
	skills := path.Skills()
	if len(skills) > maxQuerySkills {
		skills = skills[:maxQuerySkills]
	}

	for _, d := range model.Domains {
		text, err := m.explain(ctx, d, skills)
		if err != nil {
			return model.CrossDomainImpact{}, fmt.Errorf("map %s: %w", d, err)
		}
		impact.Set(d, text)
	}
	return impact, nil
}

func (m *Mapper) explain(ctx context.Context, d model.Domain, skills []string) (string, error) {
	joined := strings.Join(skills, ", ")
	docs, err := m.retriever.Search(ctx, Query(d, skills))
	if err != nil {
		return "", err
	}

	var parts []string
	for _, doc := range docs {
		if len(parts) == maxContextDocs {
			break
		}
		if c := strings.TrimSpace(doc.Content); c != "" {
			parts = append(parts, c)
		}
	}

	prompt := fmt.Sprintf(ungroundedPrompt, joined, d, d)
	if len(parts) > 0 {
		prompt = fmt.Sprintf(groundedPrompt, joined, d, strings.Join(parts, "\n\n"), d)
	}

	text, err := m.gen.GenerateText(ctx, prompt)
	if err != nil {
		return "", err
	}

	res := recovery.Decode(text, answer{Explanation: plainText(text)})
	metrics.RecordRecoveryOutcome("mapping_domains", res.Outcome.String())
	out := strings.TrimSpace(res.Value.Explanation)
	if out == "" {
		m.log.Debug(ctx, "empty domain explanation, using default", logger.String("domain", string(d)))
		out = defaults[d]
	}
	return out, nil
}

// Query combines the domain template with the given skills.
func Query(d model.Domain, skills []string) string {
	if len(skills) > maxQuerySkills {
		skills = skills[:maxQuerySkills]
	}
	return strings.TrimSpace(queryTemplates[d] + " " + strings.Join(skills, " "))
}

// plainText keeps an unstructured answer usable. Broken JSON is discarded.
func plainText(text string) string {
	t := strings.TrimSpace(text)
	if strings.ContainsAny(t, "{}") {
		return ""
	}
	return t
}
