package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/okian/auralearn/internal/domain/extract"
	"github.com/okian/auralearn/internal/domain/model"
	"github.com/okian/auralearn/internal/domain/ports"
	. "github.com/smartystreets/goconvey/convey"
)

// scripted answers by recognizing which stage built the prompt.
type scripted struct {
	mu        sync.Mutex
	calls     []string
	skills    string
	failStage string
	err       error
}

func (s *scripted) GenerateText(_ context.Context, prompt string) (string, error) {
	stage := "unknown"
	switch {
	case strings.Contains(prompt, "Interpret the following user goal"):
		stage = "interpret"
	case strings.Contains(prompt, "strict content validator"):
		stage = "extract"
	case strings.Contains(prompt, "expert curriculum developer"):
		stage = "structure"
	case strings.Contains(prompt, "cross-domain career analyst"):
		stage = "map"
	case strings.Contains(prompt, "explainability engine"):
		stage = "explain"
	}
	s.mu.Lock()
	s.calls = append(s.calls, stage)
	s.mu.Unlock()

	if stage == s.failStage {
		return "", s.err
	}
	switch stage {
	case "interpret":
		return "Primary goal: " + firstLine(prompt), nil
	case "extract":
		return s.skills, nil
	case "structure":
		return `{"foundation":["REST APIs"],"intermediate":["Databases"],"advanced":[]}`, nil
	case "map":
		return `{"explanation":"Applies here."}`, nil
	case "explain":
		return `{"summary":"Backend basics.","assumptions":["Knows coding"],"confidence":"High"}`, nil
	}
	return "", nil
}

func firstLine(prompt string) string {
	i := strings.Index(prompt, "User input:\n")
	if i < 0 {
		return ""
	}
	rest := prompt[i+len("User input:\n"):]
	return strings.SplitN(rest, "\n", 2)[0]
}

func backendRetriever(docs bool) ports.Retriever {
	return ports.RetrieverFunc(func(context.Context, string) ([]model.RetrievedDocument, error) {
		if !docs {
			return nil, nil
		}
		return []model.RetrievedDocument{
			{Content: "REST APIs are built over HTTP.", Score: 0.9, Source: map[string]any{"uri": "kb://rest"}},
			{Content: "Databases store application state.", Score: 0.8},
			{Content: "Caching reduces latency.", Score: 0.7},
		}, nil
	})
}

func TestRunSuccess(t *testing.T) {
	Convey("Given a pipeline over a backend knowledge store", t, func() {
		gen := &scripted{skills: "REST APIs, Databases"}
		p := New(backendRetriever(true), gen, WithIDGenerator(func() string { return "run-1" }))

		res, err := p.Run(context.Background(), "Learn backend development")

		Convey("Then the run succeeds with a full result", func() {
			So(err, ShouldBeNil)
			So(res.RunID, ShouldEqual, "run-1")
			So(res.Status, ShouldEqual, model.StatusSuccess)
			So(res.LearningPlan.LearningPath, ShouldNotBeNil)
			So(res.CrossDomainImpact, ShouldNotBeNil)
			So(res.CrossDomainImpact.Agriculture, ShouldEqual, "Applies here.")
			So(res.Explanation.Confidence, ShouldEqual, model.ConfidenceHigh)
		})

		Convey("Then the union of stages equals the extracted skills", func() {
			got := res.LearningPlan.LearningPath.Skills()
			sort.Strings(got)
			want := []string(res.LearningPlan.SkillsIdentified)
			sort.Strings(want)
			So(got, ShouldResemble, want)
			So(res.LearningPlan.LearningPath.Foundation, ShouldContain, "REST APIs")
			So(res.LearningPlan.LearningPath.Intermediate, ShouldContain, "Databases")
		})

		Convey("Then sources are summarized", func() {
			So(len(res.LearningPlan.SourceDocuments), ShouldEqual, 3)
			So(res.LearningPlan.SourceDocuments[0].Source["uri"], ShouldEqual, "kb://rest")
		})

		Convey("Then stages ran strictly in order", func() {
			So(gen.calls, ShouldResemble, []string{"interpret", "extract", "structure", "map", "map", "map", "explain"})
		})

		Convey("Then the trace holds every artifact and is sealed", func() {
			So(res.DecisionTrace.Sealed(), ShouldBeTrue)
			So(res.DecisionTrace.Keys(), ShouldResemble, []model.TraceKey{
				model.TraceGoalInterpretation,
				model.TracePlan,
				model.TraceEducationOutput,
				model.TraceCrossDomainOutput,
				model.TraceExplanation,
			})
			plan, _ := res.DecisionTrace.Get(model.TracePlan)
			So(plan, ShouldResemble, Plan)
		})

		Convey("Then the result serializes", func() {
			raw, err := json.Marshal(res)
			So(err, ShouldBeNil)
			So(string(raw), ShouldContainSubstring, `"status":"success"`)
			So(string(raw), ShouldContainSubstring, `"decision_trace":{"goal_interpretation"`)
		})
	})
}

func TestRunInsufficientKnowledge(t *testing.T) {
	Convey("Given a knowledge store with nothing for the goal", t, func() {
		gen := &scripted{skills: "REST APIs"}
		res, err := New(backendRetriever(false), gen).Run(context.Background(), "Learn pottery")

		Convey("Then the run short-circuits without a path", func() {
			So(err, ShouldBeNil)
			So(res.Status, ShouldEqual, model.StatusInsufficientKnowledge)
			So(res.Message, ShouldEqual, extract.MessageNoDocuments)
			So(res.LearningPlan.LearningPath, ShouldBeNil)
			So(res.CrossDomainImpact, ShouldBeNil)
			So(res.Explanation, ShouldBeNil)
			So(gen.calls, ShouldResemble, []string{"interpret"})
		})

		Convey("Then the trace stops at the education output", func() {
			So(res.DecisionTrace.Sealed(), ShouldBeTrue)
			So(res.DecisionTrace.Len(), ShouldEqual, 3)
			_, ok := res.DecisionTrace.Get(model.TraceCrossDomainOutput)
			So(ok, ShouldBeFalse)
		})

		Convey("Then the JSON carries a null learning path", func() {
			raw, err := json.Marshal(res)
			So(err, ShouldBeNil)
			So(string(raw), ShouldContainSubstring, `"learning_path":null`)
		})
	})

	Convey("Given a generator that flags the content as irrelevant", t, func() {
		gen := &scripted{skills: "IRRELEVANT"}
		res, err := New(backendRetriever(true), gen).Run(context.Background(), "cooking recipes")

		Convey("Then the run is insufficient with the distinct message", func() {
			So(err, ShouldBeNil)
			So(res.Status, ShouldEqual, model.StatusInsufficientKnowledge)
			So(res.Message, ShouldEqual, extract.MessageIrrelevant)
			So(res.LearningPlan.SkillsIdentified, ShouldBeEmpty)
			So(res.LearningPlan.LearningPath, ShouldBeNil)
		})
	})
}

func TestRunTransportFailure(t *testing.T) {
	Convey("Given a generator that fails mid-run", t, func() {
		for _, stage := range []string{"interpret", "extract", "structure", "map", "explain"} {
			boom := errors.New(stage + " unreachable")
			gen := &scripted{skills: "REST APIs, Databases", failStage: stage, err: boom}

			res, err := New(backendRetriever(true), gen).Run(context.Background(), "Learn backend")

			Convey("Then a failure in "+stage+" propagates unchanged", func() {
				So(res, ShouldBeNil)
				So(errors.Is(err, boom), ShouldBeTrue)
			})
		}
	})

	Convey("Given an empty goal", t, func() {
		_, err := New(backendRetriever(true), &scripted{}).Run(context.Background(), "  ")
		So(errors.Is(err, ErrEmptyGoal), ShouldBeTrue)
	})
}

func TestRunsAreIndependent(t *testing.T) {
	Convey("Given concurrent runs with different goals", t, func() {
		gen := &scripted{skills: "REST APIs, Databases"}
		p := New(backendRetriever(true), gen)

		const n = 8
		results := make([]*model.RunResult, n)
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i], _ = p.Run(context.Background(), fmt.Sprintf("goal %d", i))
			}(i)
		}
		wg.Wait()

		Convey("Then each run sees only its own artifacts", func() {
			ids := map[string]struct{}{}
			for i, r := range results {
				So(r, ShouldNotBeNil)
				So(r.Goal.RawInput, ShouldEqual, fmt.Sprintf("goal %d", i))
				So(r.Goal.InterpretedGoal, ShouldEqual, fmt.Sprintf("Primary goal: goal %d", i))
				ids[r.RunID] = struct{}{}
			}
			So(len(ids), ShouldEqual, n)
		})
	})
}

func TestBuildLearningPath(t *testing.T) {
	Convey("Given the build operation alone", t, func() {
		p := New(backendRetriever(true), &scripted{skills: "REST APIs, Databases"})
		out, err := p.BuildLearningPath(context.Background(), model.GoalContext{RawInput: "Learn backend"})

		Convey("Then it extracts and structures without mapping", func() {
			So(err, ShouldBeNil)
			So(out.Status, ShouldEqual, model.StatusSuccess)
			So(out.Goal, ShouldEqual, "Learn backend")
			So(out.LearningPath.Len(), ShouldEqual, 2)
		})
	})
}

func TestMachine(t *testing.T) {
	Convey("Given the run state machine", t, func() {
		m := newMachine()

		Convey("Then the happy path is legal", func() {
			for _, s := range []State{Extracting, Structuring, MappingDomains, Explaining, Done} {
				So(m.advance(s), ShouldBeNil)
			}
			So(m.state.Terminal(), ShouldBeTrue)
			So(len(m.history), ShouldEqual, 6)
		})

		Convey("Then only Extracting may end in InsufficientKnowledge", func() {
			So(errors.Is(m.advance(InsufficientKnowledge), ErrIllegalTransition), ShouldBeTrue)
			So(m.advance(Extracting), ShouldBeNil)
			So(m.advance(InsufficientKnowledge), ShouldBeNil)
			So(m.state.Terminal(), ShouldBeTrue)
		})

		Convey("Then skipping a stage is refused", func() {
			err := m.advance(Structuring)
			So(errors.Is(err, ErrIllegalTransition), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "interpreting -> structuring")
		})

		Convey("Then terminal states have no exits", func() {
			So(m.advance(Extracting), ShouldBeNil)
			So(m.advance(InsufficientKnowledge), ShouldBeNil)
			So(errors.Is(m.advance(Structuring), ErrIllegalTransition), ShouldBeTrue)
		})

		Convey("Then states have names", func() {
			So(MappingDomains.String(), ShouldEqual, "mapping_domains")
			So(State(42).String(), ShouldEqual, "state(42)")
		})
	})
}
