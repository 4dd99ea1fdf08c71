package feedback_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/okian/auralearn/internal/domain/feedback"
	"github.com/okian/auralearn/internal/domain/model"
	"github.com/okian/auralearn/internal/domain/ports"
	. "github.com/smartystreets/goconvey/convey"
)

func basePath() model.LearningPath {
	return model.LearningPath{
		Foundation:   []string{"HTTP", "REST APIs", "Git"},
		Intermediate: []string{"Databases", "Docker"},
		Advanced:     []string{"Sharding", "Kubernetes"},
	}
}

func TestCategorize(t *testing.T) {
	Convey("Given a raw feedback record", t, func() {
		rec := model.FeedbackRecord{
			SkillFeedback: map[string]string{
				"Git":        "already_known",
				"HTTP":       " Already Known ",
				"Sharding":   "too-advanced",
				"Docker":     "not_relevant",
				"Databases":  "want_more",
				"REST APIs":  "love it",
				"Kubernetes": "",
			},
			GeneralFeedback: "  more hands-on please ",
		}
		cat := feedback.Categorize(rec)

		Convey("Then ratings land in sorted buckets and unknown ones are ignored", func() {
			So(cmp.Diff(model.FeedbackCategorized{
				AlreadyKnown:    []string{"Git", "HTTP"},
				TooAdvanced:     []string{"Sharding"},
				NotRelevant:     []string{"Docker"},
				WantMore:        []string{"Databases"},
				GeneralFeedback: "more hands-on please",
			}, cat), ShouldBeEmpty)
		})

		Convey("Then bucket sizes never exceed the ratings given", func() {
			So(cat.Total(), ShouldBeLessThanOrEqualTo, len(rec.SkillFeedback))
			So(cat.Total(), ShouldEqual, 5)
		})
	})

	Convey("Given only known ratings", t, func() {
		rec := model.FeedbackRecord{SkillFeedback: map[string]string{"a": "want_more", "b": "too_advanced"}}
		So(feedback.Categorize(rec).Total(), ShouldEqual, len(rec.SkillFeedback))
	})

	Convey("Given ratings for one skill under different casing", t, func() {
		rec := model.FeedbackRecord{SkillFeedback: map[string]string{
			"REST APIs":  "too_advanced",
			"rest apis":  "want_more",
			" Rest APIs": "already_known",
		}}
		cat := feedback.Categorize(rec)

		Convey("Then the skill lands in exactly one bucket, decided by the first key in sorted order", func() {
			So(cat.AlreadyKnown, ShouldResemble, []string{"Rest APIs"})
			So(cat.TooAdvanced, ShouldBeEmpty)
			So(cat.WantMore, ShouldBeEmpty)
			So(cat.Total(), ShouldEqual, 1)
		})
	})

	Convey("Given a blank skill key with a known rating", t, func() {
		rec := model.FeedbackRecord{SkillFeedback: map[string]string{
			"Git": "already_known",
			"Go":  "want_more",
			"   ": "not_relevant",
		}}
		cat := feedback.Categorize(rec)

		Convey("Then it names no skill and is not counted", func() {
			So(cat.NotRelevant, ShouldBeEmpty)
			So(cat.Total(), ShouldEqual, 2)
		})
	})

	Convey("Given no ratings", t, func() {
		cat := feedback.Categorize(model.FeedbackRecord{})
		So(cat.Total(), ShouldEqual, 0)
		So(cat.AlreadyKnown, ShouldNotBeNil)
	})
}

func TestFallback(t *testing.T) {
	Convey("Given the deterministic refinement", t, func() {
		Convey("When a foundation skill is too advanced and intermediate is empty", func() {
			path := model.LearningPath{Foundation: []string{"REST APIs"}}
			cat := feedback.Categorize(model.FeedbackRecord{SkillFeedback: map[string]string{"REST APIs": "too_advanced"}})

			out := feedback.Fallback(path, cat)

			Convey("Then it moves to intermediate", func() {
				So(out.Path.Foundation, ShouldBeEmpty)
				So(out.Path.Intermediate, ShouldResemble, []string{"REST APIs"})
				So(out.ChangesMade, ShouldResemble, []string{"Adjusted 1 skills that were too advanced"})
			})
		})

		Convey("When removals and moves are mixed", func() {
			cat := feedback.Categorize(model.FeedbackRecord{SkillFeedback: map[string]string{
				"Git":        "already_known",
				"Docker":     "not_relevant",
				"REST APIs":  "too_advanced",
				"Databases":  "too_advanced",
				"Kubernetes": "too_advanced",
				"Sharding":   "want_more",
			}})
			original := basePath()
			out := feedback.Fallback(original, cat)

			Convey("Then removed skills leave and others move one stage later", func() {
				So(cmp.Diff(model.LearningPath{
					Foundation:   []string{"HTTP"},
					Intermediate: []string{"REST APIs"},
					Advanced:     []string{"Sharding", "Kubernetes", "Databases"},
				}, out.Path), ShouldBeEmpty)
			})

			Convey("Then the changelog counts the buckets", func() {
				So(out.ChangesMade, ShouldResemble, []string{
					"Removed 1 skills you already know",
					"Removed 1 irrelevant skills",
					"Adjusted 3 skills that were too advanced",
				})
			})

			Convey("Then the original path is untouched", func() {
				So(cmp.Diff(basePath(), original), ShouldBeEmpty)
			})

			Convey("Then a second pass removes nothing more", func() {
				again := feedback.Fallback(out.Path, cat)
				So(again.Path.Len(), ShouldEqual, out.Path.Len())
			})
		})

		Convey("When nothing is marked", func() {
			out := feedback.Fallback(basePath(), feedback.Categorize(model.FeedbackRecord{}))

			Convey("Then the path is preserved", func() {
				So(cmp.Diff(basePath(), out.Path), ShouldBeEmpty)
				So(out.ChangesMade, ShouldBeEmpty)
			})
		})
	})
}

func TestApplyGenerated(t *testing.T) {
	Convey("Given a generated refinement", t, func() {
		cat := feedback.Categorize(model.FeedbackRecord{SkillFeedback: map[string]string{
			"Git":       "already_known",
			"Databases": "want_more",
		}})
		supplementary := "Query optimization and database replication are key for scale."

		gen := feedback.Generated{
			Foundation:   []string{"http", "Git", "REST APIs"},
			Intermediate: []string{"Databases", "Query Optimization", "HTTP"},
			Advanced:     []string{"Sharding", "Database Replication", "Quantum Sorting", "Replication"},
			ChangesMade:  []string{"Removed Git", " "},
		}

		out := feedback.ApplyGenerated(basePath(), cat, gen, supplementary)

		Convey("Then removals, grounding and stage exclusivity are enforced", func() {
			So(out.Path.Foundation, ShouldResemble, []string{"HTTP", "REST APIs"})
			So(out.Path.Intermediate, ShouldResemble, []string{"Databases", "Query Optimization", "Docker"})
			So(out.Path.Advanced, ShouldResemble, []string{"Sharding", "Database Replication", "Kubernetes"})
		})

		Convey("Then each correction is noted after the generator's notes", func() {
			So(out.ChangesMade[0], ShouldEqual, "Removed Git")
			joined := strings.Join(out.ChangesMade, "\n")
			So(joined, ShouldContainSubstring, `Dropped "Git" because it was marked already_known`)
			So(joined, ShouldContainSubstring, `Dropped "Quantum Sorting" because the knowledge base does not cover it`)
			So(joined, ShouldContainSubstring, `Dropped "Replication" to keep additions within 2 for 1 requested topics`)
			So(joined, ShouldContainSubstring, `Restored "Docker" to intermediate`)
			So(joined, ShouldContainSubstring, `Restored "Kubernetes" to advanced`)
		})
	})
}

func TestApplyGeneratedBudget(t *testing.T) {
	Convey("Given two want-more topics and additions that all concern one of them", t, func() {
		cat := feedback.Categorize(model.FeedbackRecord{SkillFeedback: map[string]string{
			"Databases": "want_more",
			"Docker":    "want_more",
		}})
		supplementary := "Query planning, index tuning, replication and partitioning keep databases fast. Vacuuming too."
		gen := feedback.Generated{
			Foundation:   basePath().Foundation,
			Intermediate: append(append([]string{}, basePath().Intermediate...), "Query Planning", "Index Tuning"),
			Advanced:     append(append([]string{}, basePath().Advanced...), "Replication", "Partitioning", "Vacuuming"),
		}

		out := feedback.ApplyGenerated(basePath(), cat, gen, supplementary)

		Convey("Then the shared budget admits four additions before dropping", func() {
			added := 0
			for _, s := range out.Path.Skills() {
				switch s {
				case "Query Planning", "Index Tuning", "Replication", "Partitioning", "Vacuuming":
					added++
				}
			}
			So(added, ShouldEqual, 2*feedback.MaxNewPerTopic)
			So(out.Path.Advanced, ShouldNotContain, "Vacuuming")
			So(strings.Join(out.ChangesMade, "\n"), ShouldContainSubstring,
				`Dropped "Vacuuming" to keep additions within 4 for 2 requested topics`)
		})
	})
}

type fakeRetriever struct {
	docs    []model.RetrievedDocument
	err     error
	queries []string
}

func (f *fakeRetriever) Search(_ context.Context, q string) ([]model.RetrievedDocument, error) {
	f.queries = append(f.queries, q)
	return f.docs, f.err
}

func TestEngine(t *testing.T) {
	ctx := context.Background()
	rec := model.FeedbackRecord{SkillFeedback: map[string]string{
		"Git":       "already_known",
		"REST APIs": "too_advanced",
		"Databases": "want_more",
	}}

	Convey("Given a refinement engine", t, func() {
		Convey("When the generator answers with valid JSON", func() {
			retriever := &fakeRetriever{docs: []model.RetrievedDocument{{Content: "Indexing speeds up queries."}}}
			var prompt string
			gen := ports.GeneratorFunc(func(_ context.Context, p string) (string, error) {
				prompt = p
				return `{"foundation":["HTTP"],"intermediate":["REST APIs","Databases","Docker","Indexing"],"advanced":["Sharding","Kubernetes"],"changes_made":["Moved REST APIs later"]}`, nil
			})

			res, err := feedback.NewEngine(retriever, gen).Refine(ctx, basePath(), rec, "Learn backend")

			Convey("Then the generative path is used with detached changes", func() {
				So(err, ShouldBeNil)
				So(res.Status, ShouldEqual, model.StatusSuccess)
				So(res.Mode, ShouldEqual, model.RefinementGenerative)
				So(res.RefinedPath.Path.Intermediate, ShouldContain, "Indexing")
				So(res.RefinedPath.ChangesMade, ShouldResemble, []string{"Moved REST APIs later"})
			})

			Convey("Then expansion used the goal, topics and qualifiers", func() {
				So(retriever.queries, ShouldResemble, []string{"Learn backend Databases advanced techniques best practices"})
				So(prompt, ShouldContainSubstring, "Indexing speeds up queries.")
			})

			Convey("Then the summary comes from the buckets", func() {
				So(res.FeedbackProcessed, ShouldResemble, model.FeedbackSummary{SkillsRemoved: 1, SkillsAdjusted: 1, TopicsExpanded: 1})
			})
		})

		Convey("When the generator output is malformed", func() {
			gen := ports.GeneratorFunc(func(context.Context, string) (string, error) { return "Sorry, here are thoughts", nil })

			res, err := feedback.NewEngine(&fakeRetriever{}, gen).Refine(ctx, basePath(), rec, "Learn backend")

			Convey("Then the deterministic fallback runs", func() {
				So(err, ShouldBeNil)
				So(res.Mode, ShouldEqual, model.RefinementFallback)
				So(res.RefinedPath.Path.Foundation, ShouldResemble, []string{"HTTP"})
				So(res.RefinedPath.Path.Intermediate, ShouldResemble, []string{"Databases", "Docker", "REST APIs"})
				So(res.FeedbackProcessed.TopicsExpanded, ShouldEqual, 0)
				So(res.FeedbackProcessed.SkillsRemoved, ShouldEqual, 1)
			})
		})

		Convey("When no generator is configured", func() {
			res, err := feedback.NewEngine(nil, nil).Refine(ctx, basePath(), rec, "Learn backend")

			Convey("Then the fallback runs without expansion", func() {
				So(err, ShouldBeNil)
				So(res.Mode, ShouldEqual, model.RefinementFallback)
			})
		})

		Convey("When generation fails", func() {
			boom := errors.New("unreachable")
			gen := ports.GeneratorFunc(func(context.Context, string) (string, error) { return "", boom })

			_, err := feedback.NewEngine(&fakeRetriever{}, gen).Refine(ctx, basePath(), rec, "g")

			Convey("Then the transport error propagates", func() {
				So(errors.Is(err, boom), ShouldBeTrue)
			})
		})

		Convey("When expansion retrieval fails", func() {
			boom := errors.New("kb down")
			gen := ports.GeneratorFunc(func(context.Context, string) (string, error) { return "{}", nil })

			_, err := feedback.NewEngine(&fakeRetriever{err: boom}, gen).Refine(ctx, basePath(), rec, "g")

			Convey("Then the transport error propagates", func() {
				So(errors.Is(err, boom), ShouldBeTrue)
			})
		})
	})
}
