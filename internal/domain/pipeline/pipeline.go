// Package pipeline sequences the stages of one learning-path run.
//
// A run is an explicit state machine:
//
//	Interpreting -> Extracting -> Structuring -> MappingDomains -> Explaining -> Done
//	                     \-> InsufficientKnowledge
//
// Every run owns its artifacts. Two runs never share mutable state, so a
// Pipeline can serve concurrent callers.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/auralearn/internal/domain/crossdomain"
	"github.com/okian/auralearn/internal/domain/explain"
	"github.com/okian/auralearn/internal/domain/extract"
	"github.com/okian/auralearn/internal/domain/feedback"
	"github.com/okian/auralearn/internal/domain/goal"
	"github.com/okian/auralearn/internal/domain/model"
	"github.com/okian/auralearn/internal/domain/ports"
	"github.com/okian/auralearn/internal/domain/structure"
	"github.com/okian/auralearn/pkg/logger"
	"github.com/okian/auralearn/pkg/metrics"
)

// Plan is the static execution plan recorded in every trace.
var Plan = []string{"generate_learning_path", "map_cross_domain_impact", "generate_explanation"}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithContextDocuments sets how many top documents ground skill extraction.
func WithContextDocuments(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.contextDocs = n
		}
	}
}

// WithIDGenerator replaces the run id source.
func WithIDGenerator(fn func() string) Option {
	return func(p *Pipeline) {
		if fn != nil {
			p.newID = fn
		}
	}
}

// WithClock replaces the time source.
func WithClock(fn func() time.Time) Option {
	return func(p *Pipeline) {
		if fn != nil {
			p.now = fn
		}
	}
}

// Pipeline wires the stages over one retriever and one generator.
type Pipeline struct {
	interpreter *goal.Interpreter
	extractor   *extract.Extractor
	structurer  *structure.Structurer
	mapper      *crossdomain.Mapper
	reporter    *explain.Reporter
	refiner     *feedback.Engine

	contextDocs int
	newID       func() string
	now         func() time.Time
	log         logger.Logger
}

// New builds a Pipeline.
func New(retriever ports.Retriever, gen ports.Generator, opts ...Option) *Pipeline {
	p := &Pipeline{
		contextDocs: extract.DefaultContextDocuments,
		newID:       uuid.NewString,
		now:         time.Now,
		log:         logger.Named("pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.interpreter = goal.NewInterpreter(gen)
	p.extractor = extract.New(retriever, gen, extract.WithContextDocuments(p.contextDocs))
	p.structurer = structure.New(gen)
	p.mapper = crossdomain.New(retriever, gen)
	p.reporter = explain.New(gen)
	p.refiner = feedback.NewEngine(retriever, gen)
	return p
}

// run holds the artifacts of one invocation.
type run struct {
	machine    *machine
	result     *model.RunResult
	extraction extract.Extraction
	path       model.LearningPath
	impact     model.CrossDomainImpact
}

// Run executes the full pipeline for a raw goal. Grounding failures are
// reported through Status; transport failures are returned as errors.
func (p *Pipeline) Run(ctx context.Context, raw string) (*model.RunResult, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrEmptyGoal
	}

	started := p.now()
	r := &run{
		machine: newMachine(),
		result: &model.RunResult{
			RunID:         p.newID(),
			DecisionTrace: model.NewDecisionTrace(),
		},
	}

	for !r.machine.state.Terminal() {
		state := r.machine.state
		stepStarted := time.Now()
		next, err := p.step(ctx, r, raw)
		metrics.RecordStageDuration(state.String(), float64(time.Since(stepStarted).Microseconds())/1000)
		if err != nil {
			metrics.RecordPipelineRun("failed")
			p.log.Error(ctx, "pipeline run failed",
				logger.String("run_id", r.result.RunID),
				logger.String("state", state.String()),
				logger.Error(err),
			)
			return nil, err
		}
		if err := r.machine.advance(next); err != nil {
			return nil, err
		}
	}

	r.result.DecisionTrace.Seal()
	r.result.Status = r.result.LearningPlan.Status
	r.result.Message = r.result.LearningPlan.Message
	r.result.CompletedAt = p.now()
	metrics.RecordPipelineRun(string(r.result.Status))
	p.log.Info(ctx, "pipeline run finished",
		logger.String("run_id", r.result.RunID),
		logger.String("status", string(r.result.Status)),
		logger.Duration("elapsed", r.result.CompletedAt.Sub(started)),
	)
	return r.result, nil
}

func (p *Pipeline) step(ctx context.Context, r *run, raw string) (State, error) {
	trace := r.result.DecisionTrace

	switch r.machine.state {
	case Interpreting:
		gc, err := p.interpreter.Interpret(ctx, raw)
		if err != nil {
			return 0, err
		}
		r.result.Goal = gc
		if err := trace.Record(model.TraceGoalInterpretation, gc); err != nil {
			return 0, err
		}
		return Extracting, trace.Record(model.TracePlan, Plan)

	case Extracting:
		ex, err := p.extractor.Extract(ctx, r.result.Goal)
		if err != nil {
			return 0, err
		}
		r.extraction = ex
		if !ex.Grounded() {
			r.result.LearningPlan = insufficient(ex)
			return InsufficientKnowledge, trace.Record(model.TraceEducationOutput, r.result.LearningPlan)
		}
		return Structuring, nil

	case Structuring:
		sr, err := p.structurer.Structure(ctx, r.extraction.Skills, r.result.Goal.RawInput)
		if err != nil {
			return 0, err
		}
		r.path = sr.Path
		r.result.LearningPlan = success(r.result.Goal, r.extraction, sr.Path)
		return MappingDomains, trace.Record(model.TraceEducationOutput, r.result.LearningPlan)

	case MappingDomains:
		impact, err := p.mapper.Map(ctx, r.path)
		if err != nil {
			return 0, err
		}
		r.impact = impact
		r.result.CrossDomainImpact = &impact
		return Explaining, trace.Record(model.TraceCrossDomainOutput, impact)

	case Explaining:
		e, err := p.reporter.Explain(ctx, r.result.Goal, r.path, r.impact)
		if err != nil {
			return 0, err
		}
		r.result.Explanation = &e
		return Done, trace.Record(model.TraceExplanation, e)

	default:
		return 0, fmt.Errorf("%w: no step for %s", ErrIllegalTransition, r.machine.state)
	}
}

// BuildLearningPath extracts and structures a path for an interpreted goal.
func (p *Pipeline) BuildLearningPath(ctx context.Context, gc model.GoalContext) (model.EducationOutcome, error) {
	if strings.TrimSpace(gc.RawInput) == "" {
		return model.EducationOutcome{}, ErrEmptyGoal
	}
	ex, err := p.extractor.Extract(ctx, gc)
	if err != nil {
		return model.EducationOutcome{}, err
	}
	if !ex.Grounded() {
		return insufficient(ex), nil
	}
	sr, err := p.structurer.Structure(ctx, ex.Skills, gc.RawInput)
	if err != nil {
		return model.EducationOutcome{}, err
	}
	return success(gc, ex, sr.Path), nil
}

// Refine runs the feedback refinement for a prior path. The prior path is
// left untouched; the caller decides whether to commit the result.
func (p *Pipeline) Refine(ctx context.Context, path model.LearningPath, rec model.FeedbackRecord, goal string) (model.RefinementResult, error) {
	return p.refiner.Refine(ctx, path, rec, goal)
}

func insufficient(ex extract.Extraction) model.EducationOutcome {
	return model.EducationOutcome{
		Status:  model.StatusInsufficientKnowledge,
		Message: ex.Message,
	}
}

func success(gc model.GoalContext, ex extract.Extraction, path model.LearningPath) model.EducationOutcome {
	sources := make([]model.SourceSummary, 0, len(ex.Documents))
	for _, d := range ex.Documents {
		sources = append(sources, model.SourceSummary{Score: d.Score, Source: d.Source})
	}
	lp := path.Clone()
	return model.EducationOutcome{
		Status:           model.StatusSuccess,
		Goal:             gc.RawInput,
		SkillsIdentified: ex.Skills,
		LearningPath:     &lp,
		SourceDocuments:  sources,
	}
}
