package goal_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/okian/auralearn/internal/domain/goal"
	"github.com/okian/auralearn/internal/domain/ports"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInterpreter(t *testing.T) {
	Convey("Given an interpreter", t, func() {
		ctx := context.Background()

		Convey("When the generator answers", func() {
			var prompt string
			gen := ports.GeneratorFunc(func(_ context.Context, p string) (string, error) {
				prompt = p
				return "Primary goal: backend development", nil
			})
			gc, err := goal.NewInterpreter(gen).Interpret(ctx, "  Learn backend development ")

			Convey("Then the raw input and restatement are kept", func() {
				So(err, ShouldBeNil)
				So(gc.RawInput, ShouldEqual, "Learn backend development")
				So(gc.InterpretedGoal, ShouldEqual, "Primary goal: backend development")
				So(strings.Contains(prompt, "Learn backend development"), ShouldBeTrue)
			})
		})

		Convey("When the generator returns junk", func() {
			gen := ports.GeneratorFunc(func(context.Context, string) (string, error) { return "???", nil })
			gc, err := goal.NewInterpreter(gen).Interpret(ctx, "x")

			Convey("Then it is carried forward unvalidated", func() {
				So(err, ShouldBeNil)
				So(gc.InterpretedGoal, ShouldEqual, "???")
			})
		})

		Convey("When the transport fails", func() {
			boom := errors.New("connection refused")
			gen := ports.GeneratorFunc(func(context.Context, string) (string, error) { return "", boom })
			_, err := goal.NewInterpreter(gen).Interpret(ctx, "x")

			Convey("Then the error keeps its identity", func() {
				So(errors.Is(err, boom), ShouldBeTrue)
			})
		})
	})
}
