package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/quizlive/internal/adapters/http/relayclient"
	"github.com/okian/quizlive/internal/adapters/mq/queue"
	"github.com/okian/quizlive/internal/adapters/repository"
	service "github.com/okian/quizlive/internal/app"
	"github.com/okian/quizlive/internal/config"
	"github.com/okian/quizlive/internal/domain/model"
	"github.com/okian/quizlive/pkg/logger"
	"github.com/okian/quizlive/pkg/metrics"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func testConfig() *config.Config {
	cfg := config.New()
	cfg.AuthSecret = "test-secret"
	cfg.AdminPassword = "letmein"
	cfg.JoinURL = "https://quiz.example.com/join"
	cfg.SyncInterval = 20 * time.Millisecond
	return cfg
}

func eventually(cond func() bool) bool {
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestBuild(t *testing.T) {
	convey.Convey("Given the application built over the memory backend", t, func() {
		ctx := context.Background()
		cfg := testConfig()
		store, intents, closeBackend, err := openBackend(ctx, cfg)
		convey.So(err, convey.ShouldBeNil)
		convey.Reset(closeBackend)

		a, err := build(ctx, cfg, store, intents)
		convey.So(err, convey.ShouldBeNil)
		convey.So(a.host, convey.ShouldNotBeNil)
		convey.So(a.host.Start(ctx), convey.ShouldBeNil)
		srv := httptest.NewServer(a.handler)
		convey.Reset(func() {
			srv.Close()
			_ = a.host.Stop(ctx)
		})
		client := relayclient.New(srv.URL + "/api")

		convey.Convey("Then the host publishes the initial set", func() {
			var snap model.Snapshot
			convey.So(eventually(func() bool {
				raw, err := client.GetState(ctx)
				if err != nil {
					return false
				}
				var ok bool
				snap, ok, err = model.DecodeSnapshot(raw)
				return err == nil && ok
			}), convey.ShouldBeTrue)
			convey.So(snap.ActiveGameName, convey.ShouldEqual, "General Knowledge Demo")
			convey.So(snap.Session.Phase, convey.ShouldEqual, model.PhaseLobby)
		})

		convey.Convey("Then the seeded password logs in and drives the host", func() {
			res, err := client.Login(ctx, "letmein")
			convey.So(err, convey.ShouldBeNil)
			convey.So(res.JoinURL, convey.ShouldEqual, cfg.JoinURL)

			req, _ := http.NewRequest(http.MethodPost, srv.URL+"/host/start", nil)
			req.Header.Set("Authorization", "Bearer "+res.Token)
			resp, err := http.DefaultClient.Do(req)
			convey.So(err, convey.ShouldBeNil)
			_ = resp.Body.Close()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)

			convey.So(eventually(func() bool {
				raw, _ := client.GetState(ctx)
				snap, ok, _ := model.DecodeSnapshot(raw)
				return ok && snap.Session.Phase != model.PhaseLobby
			}), convey.ShouldBeTrue)
		})

		convey.Convey("Then a client-role engine joins through HTTP", func() {
			player := service.New(client,
				service.WithSyncInterval(20*time.Millisecond),
				service.WithLogger(logger.Nop()),
			)
			convey.So(player.Start(ctx), convey.ShouldBeNil)
			convey.Reset(func() { _ = player.Stop(ctx) })

			_, err := player.Join(ctx, "Ada", "Red")
			convey.So(err, convey.ShouldBeNil)
			convey.So(eventually(func() bool {
				_, confirmed := player.CurrentPlayer()
				return confirmed
			}), convey.ShouldBeTrue)
		})

		convey.Convey("Then the docs and spectator page are served", func() {
			for _, path := range []string{"/openapi.yaml", "/api-docs", "/", "/healthz", "/join.png"} {
				resp, err := http.Get(srv.URL + path)
				convey.So(err, convey.ShouldBeNil)
				_, _ = io.Copy(io.Discard, resp.Body)
				_ = resp.Body.Close()
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
			}
		})

		convey.Convey("Then CORS preflight is answered", func() {
			req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/api?action=getState", nil)
			req.Header.Set("Origin", "https://elsewhere.example.com")
			req.Header.Set("Access-Control-Request-Method", http.MethodGet)
			resp, err := http.DefaultClient.Do(req)
			convey.So(err, convey.ShouldBeNil)
			_ = resp.Body.Close()
			convey.So(resp.Header.Get("Access-Control-Allow-Origin"), convey.ShouldNotBeEmpty)
		})
	})

	convey.Convey("Given a relay-only configuration", t, func() {
		cfg := testConfig()
		cfg.Host = false
		a, err := build(context.Background(), cfg, repository.NewMemoryStore(), queue.NewInMemoryQueue())
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("Then no host engine or host routes exist", func() {
			convey.So(a.host, convey.ShouldBeNil)
			rec := httptest.NewRecorder()
			a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/host/start", strings.NewReader("{}")))
			convey.So(rec.Code, convey.ShouldEqual, http.StatusNotFound)
		})
	})

	convey.Convey("Given a library directory that does not parse", t, func() {
		cfg := testConfig()
		dir := t.TempDir()
		cfg.LibraryDir = dir
		convey.So(os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("questions: [\n"), 0o600), convey.ShouldBeNil)

		convey.Convey("Then build fails", func() {
			_, err := build(context.Background(), cfg, repository.NewMemoryStore(), queue.NewInMemoryQueue())
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestConfigureMetrics(t *testing.T) {
	convey.Convey("Given a metrics namespace in the config", t, func() {
		cfg := testConfig()
		cfg.MetricsNamespace = "pubquiz"
		cfg.MetricsSubsystem = "night"
		configureMetrics(cfg)
		convey.Reset(func() { configureMetrics(config.New()) })

		convey.Convey("Then /healthz exposes the renamed collectors", func() {
			metrics.RecordIntentPushed("JOIN")
			rec := httptest.NewRecorder()
			a, err := build(context.Background(), cfg, repository.NewMemoryStore(), queue.NewInMemoryQueue())
			convey.So(err, convey.ShouldBeNil)
			a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(rec.Body.String(), convey.ShouldContainSubstring, "pubquiz_night_intents_pushed_total")
		})
	})
}
