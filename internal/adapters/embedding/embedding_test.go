package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestHashing(t *testing.T) {
	Convey("Given the hashing embedder", t, func() {
		h := NewHashing(0)
		ctx := context.Background()
		So(h.Dimensions(), ShouldEqual, DefaultDimensions)

		Convey("Then equal texts embed identically and are unit length", func() {
			a, err := h.Embed(ctx, "Python data analysis")
			So(err, ShouldBeNil)
			b, _ := h.Embed(ctx, "python DATA analysis")
			So(a, ShouldResemble, b)

			var sum float64
			for _, v := range a {
				sum += float64(v) * float64(v)
			}
			So(sum, ShouldAlmostEqual, 1.0, 1e-5)
		})

		Convey("Then empty text yields a zero vector", func() {
			v, err := h.Embed(ctx, "  ")
			So(err, ShouldBeNil)
			So(len(v), ShouldEqual, DefaultDimensions)
			for _, x := range v {
				So(x, ShouldEqual, 0)
			}
		})
	})
}

func TestOllama(t *testing.T) {
	Convey("Given an Ollama server", t, func() {
		var got ollamaEmbedRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/embeddings" {
				http.NotFound(w, r)
				return
			}
			_ = json.NewDecoder(r.Body).Decode(&got)
			_ = json.NewEncoder(w).Encode(ollamaEmbedResponse{Embedding: []float32{0.1, 0.2}})
		}))
		defer srv.Close()

		o := NewOllama(srv.URL, "", time.Second)
		v, err := o.Embed(context.Background(), "hello")

		Convey("Then the vector is returned", func() {
			So(err, ShouldBeNil)
			So(v, ShouldResemble, []float32{0.1, 0.2})
			So(got.Model, ShouldEqual, defaultOllamaModel)
			So(got.Prompt, ShouldEqual, "hello")
		})
	})

	Convey("Given a failing Ollama server", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		_, err := NewOllama(srv.URL, "m", time.Second).Embed(context.Background(), "x")
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldContainSubstring, "status 500")
	})
}

func TestGenAIRequiresKey(t *testing.T) {
	Convey("Given no api key", t, func() {
		_, err := NewGenAI(context.Background(), "", "")
		So(err, ShouldNotBeNil)
	})
}
