package structure_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/okian/auralearn/internal/domain/model"
	"github.com/okian/auralearn/internal/domain/ports"
	"github.com/okian/auralearn/internal/domain/recovery"
	"github.com/okian/auralearn/internal/domain/structure"
	. "github.com/smartystreets/goconvey/convey"
)

func answer(text string) ports.Generator {
	return ports.GeneratorFunc(func(context.Context, string) (string, error) { return text, nil })
}

func sorted(in []string) []string {
	out := append([]string{}, in...)
	sort.Strings(out)
	return out
}

func TestFallbackPartition(t *testing.T) {
	Convey("Given skill sets of every small size", t, func() {
		for n := 0; n <= 12; n++ {
			skills := make(model.SkillSet, n)
			for i := range skills {
				skills[i] = fmt.Sprintf("skill-%02d", i)
			}
			path := structure.FallbackPartition(skills)

			Convey(fmt.Sprintf("Then %d skills are preserved exactly and in order", n), func() {
				So(path.Skills(), ShouldResemble, []string(skills))
			})

			Convey(fmt.Sprintf("Then %d skills split evenly", n), func() {
				sizes := []int{len(path.Foundation), len(path.Intermediate), len(path.Advanced)}
				sort.Ints(sizes)
				So(sizes[2]-sizes[0], ShouldBeLessThanOrEqualTo, 1)
			})
		}
	})

	Convey("Given six skills", t, func() {
		path := structure.FallbackPartition(model.SkillSet{"a", "b", "c", "d", "e", "f"})
		So(cmp.Diff(model.LearningPath{
			Foundation:   []string{"a", "b"},
			Intermediate: []string{"c", "d"},
			Advanced:     []string{"e", "f"},
		}, path), ShouldBeEmpty)
	})
}

func TestStructurer(t *testing.T) {
	ctx := context.Background()
	skills := model.SkillSet{"REST APIs", "Databases", "Caching", "Sharding"}

	Convey("Given a structurer", t, func() {
		Convey("When the generator returns a valid staging", func() {
			gen := answer(`{"foundation":["REST APIs"],"intermediate":["Databases","Caching"],"advanced":["Sharding"]}`)
			res, err := structure.New(gen).Structure(ctx, skills, "Learn backend development")

			Convey("Then the staging is used as is", func() {
				So(err, ShouldBeNil)
				So(res.Outcome, ShouldEqual, recovery.Parsed)
				So(res.Fallback, ShouldBeFalse)
				So(res.Path.Foundation, ShouldResemble, []string{"REST APIs"})
				So(res.Path.Intermediate, ShouldResemble, []string{"Databases", "Caching"})
				So(res.Path.Advanced, ShouldResemble, []string{"Sharding"})
			})
		})

		Convey("When the generator invents, duplicates and omits skills", func() {
			gen := answer("Here you go: {\"foundation\":[\"rest apis\",\"Docker\"],\"intermediate\":[\"Databases\",\"REST APIs\"],\"advanced\":[]} done")
			res, err := structure.New(gen).Structure(ctx, skills, "goal")

			Convey("Then the path holds exactly the input skills once each", func() {
				So(err, ShouldBeNil)
				So(res.Outcome, ShouldEqual, recovery.Recovered)
				So(sorted(res.Path.Skills()), ShouldResemble, sorted(skills))
				So(res.Path.Foundation, ShouldResemble, []string{"REST APIs"})
				So(res.Path.Intermediate, ShouldResemble, []string{"Databases"})
				So(res.Path.Advanced, ShouldResemble, []string{"Caching", "Sharding"})
			})
		})

		Convey("When the generator output cannot be parsed", func() {
			res, err := structure.New(answer("I think you should start with REST.")).Structure(ctx, skills, "goal")

			Convey("Then the order-preserving partition is used", func() {
				So(err, ShouldBeNil)
				So(res.Fallback, ShouldBeTrue)
				So(cmp.Diff(structure.FallbackPartition(skills), res.Path), ShouldBeEmpty)
			})
		})

		Convey("When the skill set is empty", func() {
			called := false
			gen := ports.GeneratorFunc(func(context.Context, string) (string, error) {
				called = true
				return "", nil
			})
			res, err := structure.New(gen).Structure(ctx, nil, "goal")

			Convey("Then an empty path is returned without generation", func() {
				So(err, ShouldBeNil)
				So(called, ShouldBeFalse)
				So(res.Path.Len(), ShouldEqual, 0)
				So(res.Path.Foundation, ShouldNotBeNil)
			})
		})

		Convey("When generation fails", func() {
			boom := errors.New("timeout")
			gen := ports.GeneratorFunc(func(context.Context, string) (string, error) { return "", boom })
			_, err := structure.New(gen).Structure(ctx, skills, "goal")

			Convey("Then the error propagates", func() {
				So(errors.Is(err, boom), ShouldBeTrue)
			})
		})
	})
}
