// Package structure buckets a skill set into foundation, intermediate and
// advanced stages.
package structure

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

const promptTemplate = `You are an expert curriculum developer.
User Goal: "%s"
Available Skills: %s

Organize ONLY the provided available skills into a 3-stage learning roadmap (Foundation, Intermediate, Advanced).
Do not add skills that were not in the provided list.

Return the result as valid JSON with the keys: "foundation", "intermediate", "advanced".
Each key should contain a list of strings.`

// Result is a structured path and how it was obtained.
type Result struct {
	Path     model.LearningPath
	Outcome  recovery.Outcome
	Fallback bool
}

// Structurer asks the generator to stage a skill set and repairs the answer.
type Structurer struct {
	gen ports.Generator
	log logger.Logger
}

// New returns a Structurer.
func New(gen ports.Generator) *Structurer {
	return &Structurer{gen: gen, log: logger.Named("structure")}
}

// Structure stages skills. The returned path always holds exactly the input
// skills, each once.
func (s *Structurer) Structure(ctx context.Context, skills model.SkillSet, goal string) (Result, error) {
	if len(skills) == 0 {
		return Result{Path: model.LearningPath{}.Clone(), Outcome: recovery.Defaulted, Fallback: true}, nil
	}

	text, err := s.gen.GenerateText(ctx, fmt.Sprintf(promptTemplate, goal, strings.Join(skills, ", ")))
	if err != nil {
		return Result{}, fmt.Errorf("structure path: %w", err)
	}

	res := recovery.Decode(text, model.LearningPath{})
	metrics.RecordRecoveryOutcome("structuring", res.Outcome.String())
	if res.ParseFailed() {
		s.log.Warn(ctx, "structured output defaulted, partitioning in order", logger.Error(res.Err))
		return Result{Path: FallbackPartition(skills), Outcome: res.Outcome, Fallback: true}, nil
	}

	path := Sanitize(res.Value, skills)
	return Result{Path: path, Outcome: res.Outcome}, nil
}

// FallbackPartition splits skills into three contiguous thirds in order.
func FallbackPartition(skills model.SkillSet) model.LearningPath {
	n := len(skills)
	a, b := n/3, 2*n/3
	return model.LearningPath{
		Foundation:   append([]string{}, skills[:a]...),
		Intermediate: append([]string{}, skills[a:b]...),
		Advanced:     append([]string{}, skills[b:]...),
	}
}

// Sanitize repairs a generated path against the input set: unknown skills
// are dropped, a skill listed twice keeps its first stage, and any input
// skill the generator omitted goes where FallbackPartition would put it.
func Sanitize(generated model.LearningPath, skills model.SkillSet) model.LearningPath {
	out := model.LearningPath{}.Clone()
	placed := make(map[string]struct{}, len(skills))

	for _, st := range model.Stages {
		var kept []string
		for _, raw := range generated.Stage(st) {
			name, ok := skills.Canonical(raw)
			if !ok {
				continue
			}
			if _, dup := placed[model.Fold(name)]; dup {
				continue
			}
			placed[model.Fold(name)] = struct{}{}
			kept = append(kept, name)
		}
		out.SetStage(st, append(out.Stage(st), kept...))
	}

	fallback := FallbackPartition(skills)
	for _, st := range model.Stages {
		for _, name := range fallback.Stage(st) {
			if _, ok := placed[model.Fold(name)]; ok {
				continue
			}
			placed[model.Fold(name)] = struct{}{}
			out.SetStage(st, append(out.Stage(st), name))
		}
	}
	return out
}
