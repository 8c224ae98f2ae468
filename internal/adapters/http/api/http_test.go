package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/quizlive/internal/adapters/http/api"
	"github.com/okian/quizlive/internal/adapters/mq/queue"
	"github.com/okian/quizlive/internal/adapters/relay"
	"github.com/okian/quizlive/internal/adapters/repository"
	"github.com/okian/quizlive/internal/auth"
	"github.com/okian/quizlive/internal/domain/game"
	"github.com/okian/quizlive/internal/domain/model"
	"github.com/okian/quizlive/internal/domain/types"
	"github.com/okian/quizlive/pkg/logger"
)

type fakeHost struct {
	got []types.HostCommand
	err error
}

func (h *fakeHost) Execute(_ context.Context, cmd types.HostCommand) error {
	h.got = append(h.got, cmd)
	return h.err
}

type staticStats map[string]any

func (s staticStats) GetStats() map[string]any { return s }

type fixture struct {
	mux   *http.ServeMux
	host  *fakeHost
	token string
}

func newFixture() fixture {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	authSvc := auth.NewService(store, "secret", auth.WithCost(bcrypt.MinCost))
	So(authSvc.Bootstrap(ctx, "letmein", "https://quiz.example/join"), ShouldBeNil)
	token, _, err := authSvc.Login(ctx, "letmein")
	So(err, ShouldBeNil)

	host := &fakeHost{}
	srv := api.NewServer(
		relay.NewLocal(store, queue.NewInMemoryQueue(queue.WithCapacity(2))),
		authSvc,
		api.WithHost(host),
		api.WithStats(staticStats{"role": "host"}),
		api.WithLogger(logger.Nop()),
		api.WithMaxLimit(10),
	)
	mux := http.NewServeMux()
	srv.Register(mux)
	return fixture{mux: mux, host: host, token: token}
}

func (f fixture) do(method, target, body string, hdr ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	w := httptest.NewRecorder()
	f.mux.ServeHTTP(w, req)
	return w
}

func publishedSnapshot() string {
	g := game.New(game.WithQuestionSet("Pub", []model.Question{{ID: "q1", Text: "?", Answer: "!", Points: 10}}))
	_, _, _ = g.Join("a", "Ada", "Owls", true)
	_, _, _ = g.Join("b", "Bob", "Larks", true)
	_ = g.Start()
	for g.Phase() == model.PhaseCountdown {
		_ = g.Tick()
	}
	_ = g.OpenBuzzers(1000)
	_, _ = g.SubmitBuzz("b", 1400)
	_, _ = g.Resolve("b", true)
	b, _ := json.Marshal(g.Snapshot())
	return string(b)
}

func TestActions(t *testing.T) {
	Convey("Given a relay server", t, func() {
		f := newFixture()

		Convey("When getState runs before anything was published", func() {
			w := f.do(http.MethodGet, "/api?action=getState", "")

			Convey("Then an empty object is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(strings.TrimSpace(w.Body.String()), ShouldEqual, "{}")
			})
		})

		Convey("When a state is pushed through the legacy path", func() {
			w := f.do(http.MethodPost, "/api.php?action=pushState", `{"activeGameName":"Pub"}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"success":true`)

			Convey("Then getState returns it verbatim", func() {
				w := f.do(http.MethodGet, "/api?action=getState", "")
				So(w.Body.String(), ShouldEqual, `{"activeGameName":"Pub"}`)
			})
		})

		Convey("When pushState carries something other than an object", func() {
			w := f.do(http.MethodPost, "/api?action=pushState", `[1,2]`)

			Convey("Then it is refused", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(w.Body.String(), ShouldContainSubstring, `"success":false`)
			})
		})

		Convey("When intents are pushed and drained twice", func() {
			w := f.do(http.MethodPost, "/api?action=pushIntent", `{"type":"BUZZ","payload":{"playerId":"p1"}}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			var ack types.Ack
			So(json.Unmarshal(w.Body.Bytes(), &ack), ShouldBeNil)

			first := f.do(http.MethodGet, "/api?action=getIntents", "")
			second := f.do(http.MethodGet, "/api?action=getIntents", "")

			Convey("Then the intent comes back once with its id", func() {
				var got []model.Intent
				So(json.Unmarshal(first.Body.Bytes(), &got), ShouldBeNil)
				So(got, ShouldHaveLength, 1)
				So(got[0].ID, ShouldEqual, ack.ID)
				So(got[0].Type, ShouldEqual, model.IntentBuzz)
				So(strings.TrimSpace(second.Body.String()), ShouldEqual, "[]")
			})
		})

		Convey("When the intent sink is full", func() {
			body := `{"type":"LEAVE","payload":{"playerId":"p1"}}`
			f.do(http.MethodPost, "/api?action=pushIntent", body)
			f.do(http.MethodPost, "/api?action=pushIntent", body)
			w := f.do(http.MethodPost, "/api?action=pushIntent", body)

			Convey("Then the push is refused with backpressure", func() {
				So(w.Code, ShouldEqual, http.StatusTooManyRequests)
			})
		})

		Convey("When an intent has an unknown type", func() {
			w := f.do(http.MethodPost, "/api?action=pushIntent", `{"type":"KICK","payload":{}}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the action is unknown or uses the wrong method", func() {
			So(f.do(http.MethodGet, "/api?action=dropTables", "").Code, ShouldEqual, http.StatusBadRequest)
			So(f.do(http.MethodGet, "/api?action=pushState", "").Code, ShouldEqual, http.StatusMethodNotAllowed)
		})

		Convey("When the public settings are read", func() {
			w := f.do(http.MethodGet, "/api?action=getPublicSettings", "")
			So(w.Body.String(), ShouldContainSubstring, `"joinUrl":"https://quiz.example/join"`)
		})

		Convey("When logging in", func() {
			good := f.do(http.MethodPost, "/api?action=login", `{"password":"letmein"}`)
			bad := f.do(http.MethodPost, "/api?action=login", `{"password":"nope"}`)

			Convey("Then only the right password yields a token", func() {
				var res types.LoginResult
				So(json.Unmarshal(good.Body.Bytes(), &res), ShouldBeNil)
				So(res.Success, ShouldBeTrue)
				So(res.Token, ShouldNotBeEmpty)
				So(res.JoinURL, ShouldEqual, "https://quiz.example/join")
				So(strings.TrimSpace(bad.Body.String()), ShouldEqual, `{"success":false}`)
			})
		})

		Convey("When settings are updated", func() {
			ok := f.do(http.MethodPost, "/api?action=updateSettings", `{"token":"`+f.token+`","joinUrl":"https://new"}`)
			denied := f.do(http.MethodPost, "/api?action=updateSettings", `{"token":"forged","joinUrl":"https://evil"}`)

			Convey("Then a valid token is required", func() {
				So(ok.Code, ShouldEqual, http.StatusOK)
				So(denied.Code, ShouldEqual, http.StatusUnauthorized)
				w := f.do(http.MethodGet, "/api?action=getPublicSettings", "")
				So(w.Body.String(), ShouldContainSubstring, "https://new")
			})
		})
	})
}

func TestReadRoutes(t *testing.T) {
	Convey("Given a server with a published game", t, func() {
		f := newFixture()
		So(f.do(http.MethodPost, "/api?action=pushState", publishedSnapshot()).Code, ShouldEqual, http.StatusOK)

		Convey("When the leaderboard is requested", func() {
			w := f.do(http.MethodGet, "/leaderboard?limit=1", "")

			Convey("Then the scorer leads", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var res struct {
					Players []types.Entry     `json:"players"`
					Teams   []types.TeamEntry `json:"teams"`
				}
				So(json.Unmarshal(w.Body.Bytes(), &res), ShouldBeNil)
				So(res.Players, ShouldHaveLength, 1)
				So(res.Players[0].PlayerID, ShouldEqual, "b")
				So(res.Teams[0].Name, ShouldEqual, "Larks")
			})
		})

		Convey("When the limit is invalid", func() {
			So(f.do(http.MethodGet, "/leaderboard?limit=0", "").Code, ShouldEqual, http.StatusBadRequest)
			So(f.do(http.MethodGet, "/leaderboard?limit=11", "").Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When ranks are requested", func() {
			w := f.do(http.MethodGet, "/rank/a", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"rank":2`)
			So(f.do(http.MethodGet, "/rank/zz", "").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When the podium is requested", func() {
			w := f.do(http.MethodGet, "/podium", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"reaction_ms":400`)
		})

		Convey("When the join QR code is requested", func() {
			w := f.do(http.MethodGet, "/join.png", "")

			Convey("Then a PNG is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldEqual, "image/png")
				So(w.Body.Bytes()[:4], ShouldResemble, []byte{0x89, 'P', 'N', 'G'})
			})
		})

		Convey("When health and stats are requested", func() {
			So(f.do(http.MethodGet, "/healthz", "").Code, ShouldEqual, http.StatusOK)
			So(f.do(http.MethodGet, "/stats", "").Body.String(), ShouldContainSubstring, `"role":"host"`)
		})
	})

	Convey("Given a server with nothing published", t, func() {
		f := newFixture()
		So(f.do(http.MethodGet, "/leaderboard", "").Code, ShouldEqual, http.StatusNotFound)
	})
}

func TestHostRoutes(t *testing.T) {
	Convey("Given a server with an embedded host", t, func() {
		f := newFixture()
		withToken := func() []string { return []string{"Authorization", "Bearer " + f.token} }

		Convey("When a command is sent without a token", func() {
			w := f.do(http.MethodPost, "/host/start", "")
			So(w.Code, ShouldEqual, http.StatusUnauthorized)
			So(f.host.got, ShouldBeEmpty)
		})

		Convey("When a command is sent with a token", func() {
			w := f.do(http.MethodPost, "/host/resolve", `{"playerId":"a","correct":true}`, withToken()...)

			Convey("Then the host receives it", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(f.host.got, ShouldHaveLength, 1)
				So(f.host.got[0].Command, ShouldEqual, types.CmdResolve)
				So(f.host.got[0].PlayerID, ShouldEqual, "a")
				So(f.host.got[0].Correct, ShouldBeTrue)
			})
		})

		Convey("When the host refuses the command", func() {
			f.host.err = game.ErrInvalidPhase
			w := f.do(http.MethodPost, "/host/advance", "", withToken()...)
			So(w.Code, ShouldEqual, http.StatusConflict)
		})

		Convey("When the host fails", func() {
			f.host.err = errors.New("boom")
			w := f.do(http.MethodPost, "/host/reset", "", withToken()...)
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
		})

		Convey("When the command does not exist", func() {
			w := f.do(http.MethodPost, "/host/explode", "", withToken()...)
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}
