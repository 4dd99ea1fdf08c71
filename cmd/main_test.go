package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/okian/auralearn/internal/adapters/http/api"
	"github.com/okian/auralearn/internal/adapters/http/swagger"
	service "github.com/okian/auralearn/internal/app"
	"github.com/okian/auralearn/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestMainWiring(t *testing.T) {
	convey.Convey("Given environment overrides", t, func() {
		_ = os.Setenv("AURA_ADDR", ":8080")
		_ = os.Setenv("AURA_WORKER_COUNT", "2")
		defer func() {
			_ = os.Unsetenv("AURA_ADDR")
			_ = os.Unsetenv("AURA_WORKER_COUNT")
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		cfg, err := config.Load(ctx)
		convey.So(err, convey.ShouldBeNil)
		convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
		convey.So(cfg.WorkerCount, convey.ShouldEqual, 2)

		convey.Convey("When the service is built from the loaded config", func() {
			svc, err := service.FromConfig(ctx, cfg)
			convey.So(err, convey.ShouldBeNil)
			convey.So(svc.Start(ctx), convey.ShouldBeNil)
			defer func() { _ = svc.Stop(context.Background()) }()

			mux := http.NewServeMux()
			swagger.Register(ctx, mux)
			api.NewServer(svc).Register(ctx, mux)

			convey.Convey("Then the API and docs routes are served", func() {
				for _, path := range []string{"/healthz", "/stats", "/openapi.yaml", "/api-docs"} {
					w := httptest.NewRecorder()
					mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
					convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				}
			})

			convey.Convey("And the metrics updaters run without panicking", func() {
				convey.So(func() { updateSystemMetrics() }, convey.ShouldNotPanic)
				convey.So(func() { updateServiceMetrics(ctx, svc) }, convey.ShouldNotPanic)
			})
		})
	})
}

func TestMetricsUpdatersStop(t *testing.T) {
	convey.Convey("Given a short-lived context", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		convey.Convey("Then the updater loops return when it expires", func() {
			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
			convey.So(func() { startServiceMetricsUpdater(ctx, service.New(nil, nil)) }, convey.ShouldNotPanic)
		})
	})
}

func TestInvalidConfig(t *testing.T) {
	convey.Convey("Given an unknown generation backend", t, func() {
		_ = os.Setenv("AURA_GENERATION_BACKEND", "carrier-pigeon")
		defer func() { _ = os.Unsetenv("AURA_GENERATION_BACKEND") }()

		convey.Convey("Then loading fails", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})
	})
}
