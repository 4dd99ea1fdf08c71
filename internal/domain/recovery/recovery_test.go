package recovery_test

import (
	"errors"
	"testing"

	"github.com/okian/auralearn/internal/domain/recovery"
	. "github.com/smartystreets/goconvey/convey"
)

type stages struct {
	Foundation []string `json:"foundation"`
	Advanced   []string `json:"advanced"`
}

func TestDecode(t *testing.T) {
	fallback := stages{Foundation: []string{"fallback"}}

	Convey("Given generated text", t, func() {
		Convey("When the whole text is a JSON object", func() {
			res := recovery.Decode(` {"foundation":["HTTP"],"advanced":["Sharding"]} `, fallback)

			Convey("Then it is parsed directly", func() {
				So(res.Outcome, ShouldEqual, recovery.Parsed)
				So(res.ParseFailed(), ShouldBeFalse)
				So(res.Value.Foundation, ShouldResemble, []string{"HTTP"})
				So(res.Value.Advanced, ShouldResemble, []string{"Sharding"})
			})
		})

		Convey("When the object is wrapped in chatter and code fences", func() {
			text := "Sure! Here is the plan:\n```json\n{\"foundation\": [\"HTTP\"], \"advanced\": []}\n```\nLet me know."
			res := recovery.Decode(text, fallback)

			Convey("Then the outermost span is recovered", func() {
				So(res.Outcome, ShouldEqual, recovery.Recovered)
				So(res.Value.Foundation, ShouldResemble, []string{"HTTP"})
			})
		})

		Convey("When nested objects appear", func() {
			res := recovery.Decode(`note {"foundation":["A"],"meta":{"x":1}} end`, fallback)

			Convey("Then the greedy span keeps the nesting intact", func() {
				So(res.Outcome, ShouldEqual, recovery.Recovered)
				So(res.Value.Foundation, ShouldResemble, []string{"A"})
			})
		})

		Convey("When the text has no object at all", func() {
			res := recovery.Decode("I could not do that.", fallback)

			Convey("Then the fallback is returned and flagged", func() {
				So(res.Outcome, ShouldEqual, recovery.Defaulted)
				So(res.ParseFailed(), ShouldBeTrue)
				So(res.Value, ShouldResemble, fallback)
				So(errors.Is(res.Err, recovery.ErrNoObject), ShouldBeTrue)
			})
		})

		Convey("When the object is malformed", func() {
			res := recovery.Decode(`{"foundation": ["HTTP",}`, fallback)

			Convey("Then the fallback is returned with the parse error", func() {
				So(res.Outcome, ShouldEqual, recovery.Defaulted)
				So(res.Err, ShouldNotBeNil)
				So(res.Value, ShouldResemble, fallback)
			})
		})

		Convey("When a field has the wrong type", func() {
			res := recovery.Decode(`{"foundation": "HTTP"}`, fallback)

			Convey("Then it counts as a failure", func() {
				So(res.ParseFailed(), ShouldBeTrue)
			})
		})

		Convey("When the text is empty", func() {
			res := recovery.Decode("", fallback)

			Convey("Then the fallback is used", func() {
				So(res.Outcome, ShouldEqual, recovery.Defaulted)
			})
		})
	})
}

func TestOutcomeString(t *testing.T) {
	Convey("Given outcomes", t, func() {
		So(recovery.Parsed.String(), ShouldEqual, "parsed")
		So(recovery.Recovered.String(), ShouldEqual, "recovered")
		So(recovery.Defaulted.String(), ShouldEqual, "defaulted")
		So(recovery.Outcome(9).String(), ShouldEqual, "unknown")
	})
}

func TestSpan(t *testing.T) {
	Convey("Given text with braces", t, func() {
		s, ok := recovery.Span("a {b} c {d} e")
		So(ok, ShouldBeTrue)
		So(s, ShouldEqual, "{b} c {d}")

		_, ok = recovery.Span("} reversed {")
		So(ok, ShouldBeFalse)
	})
}
