// Package goal restates a learner's raw input as a goal context.
package goal

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/auralearn/internal/domain/model"
	"github.com/okian/auralearn/internal/domain/ports"
	"github.com/okian/auralearn/pkg/logger"
)

const promptTemplate = `Interpret the following user goal.
Extract:
- primary goal
- constraints (time, level, focus)
- assumptions (if any)

User input:
%s

Return a structured interpretation.`

// Interpreter asks the generator for a restatement of the goal. The answer
// is carried forward as-is and never validated.
type Interpreter struct {
	gen ports.Generator
	log logger.Logger
}

// NewInterpreter returns an Interpreter backed by gen.
func NewInterpreter(gen ports.Generator) *Interpreter {
	return &Interpreter{gen: gen, log: logger.Named("goal")}
}

// Interpret builds the run's GoalContext. Transport failures are returned
// without retry.
func (i *Interpreter) Interpret(ctx context.Context, raw string) (model.GoalContext, error) {
	raw = strings.TrimSpace(raw)
	text, err := i.gen.GenerateText(ctx, fmt.Sprintf(promptTemplate, raw))
	if err != nil {
		return model.GoalContext{}, fmt.Errorf("interpret goal: %w", err)
	}
	i.log.Debug(ctx, "goal interpreted", logger.Int("interpretation_len", len(text)))
	return model.GoalContext{RawInput: raw, InterpretedGoal: text}, nil
}
