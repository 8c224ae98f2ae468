package game_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/okian/quizlive/internal/domain/game"
	"github.com/okian/quizlive/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func questions(n int) []model.Question {
	out := make([]model.Question, n)
	for i := range out {
		out[i] = model.Question{
			ID:     fmt.Sprintf("q%d", i+1),
			Text:   fmt.Sprintf("question %d", i+1),
			Answer: "answer",
			Points: 10 * (i + 1),
		}
	}
	return out
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newGame(n int) *game.Game {
	return game.New(
		game.WithQuestionSet("Test night", questions(n)),
		game.WithIDGenerator(sequentialIDs()),
	)
}

// toDisplay runs the countdown of the current question to QUESTION_DISPLAY.
func toDisplay(g *game.Game) {
	for g.Phase() == model.PhaseCountdown {
		So(g.Tick(), ShouldBeNil)
	}
	So(g.Phase(), ShouldEqual, model.PhaseQuestionDisplay)
}

func TestPhaseMachine(t *testing.T) {
	Convey("Given a new game with two questions", t, func() {
		g := newGame(2)

		Convey("Then it should start in LOBBY before the first question", func() {
			s := g.Session()
			So(s.Phase, ShouldEqual, model.PhaseLobby)
			So(s.ActiveQuestionIndex, ShouldEqual, -1)
			So(s.CountdownValue, ShouldEqual, 3)
			So(s.BuzzerOpenedAt, ShouldBeNil)
		})

		Convey("When advance is issued from LOBBY", func() {
			err := g.Advance()

			Convey("Then it should be a no-op", func() {
				So(errors.Is(err, game.ErrInvalidPhase), ShouldBeTrue)
				So(g.Phase(), ShouldEqual, model.PhaseLobby)
				So(g.Session().ActiveQuestionIndex, ShouldEqual, -1)
			})
		})

		Convey("When the game starts", func() {
			So(g.Start(), ShouldBeNil)

			Convey("Then the first countdown should begin at 3", func() {
				s := g.Session()
				So(s.Phase, ShouldEqual, model.PhaseCountdown)
				So(s.ActiveQuestionIndex, ShouldEqual, 0)
				So(s.CountdownValue, ShouldEqual, 3)
			})

			Convey("And start is issued again", func() {
				err := g.Start()

				Convey("Then it should be rejected", func() {
					So(errors.Is(err, game.ErrInvalidPhase), ShouldBeTrue)
				})
			})

			Convey("And the countdown ticks down", func() {
				values := []int{}
				for i := 0; i < 3; i++ {
					So(g.Tick(), ShouldBeNil)
					values = append(values, g.Session().CountdownValue)
				}

				Convey("Then the value should decrease by one per tick", func() {
					So(values, ShouldResemble, []int{2, 1, 0})
					So(g.Phase(), ShouldEqual, model.PhaseCountdown)
				})

				Convey("And it ticks once more at zero", func() {
					So(g.Tick(), ShouldBeNil)

					Convey("Then the question is displayed and the value stays 0", func() {
						So(g.Phase(), ShouldEqual, model.PhaseQuestionDisplay)
						So(g.Session().CountdownValue, ShouldEqual, 0)
					})

					Convey("And a further tick is ignored", func() {
						So(errors.Is(g.Tick(), game.ErrInvalidPhase), ShouldBeTrue)
					})
				})
			})
		})

		Convey("When a question runs to the leaderboard", func() {
			So(g.Start(), ShouldBeNil)
			toDisplay(g)
			So(g.OpenBuzzers(1000), ShouldBeNil)
			So(*g.Session().BuzzerOpenedAt, ShouldEqual, model.Millis(1000))
			So(g.Skip(), ShouldBeNil)
			So(g.Phase(), ShouldEqual, model.PhaseAnswerReveal)
			So(g.AdvancePhase(), ShouldBeNil)
			So(g.Phase(), ShouldEqual, model.PhaseLeaderboard)
			So(g.IsLastQuestion(), ShouldBeFalse)

			Convey("And the host advances", func() {
				So(g.Advance(), ShouldBeNil)

				Convey("Then the next countdown starts with a fresh session", func() {
					s := g.Session()
					So(s.Phase, ShouldEqual, model.PhaseCountdown)
					So(s.ActiveQuestionIndex, ShouldEqual, 1)
					So(s.CountdownValue, ShouldEqual, 3)
					So(s.BuzzerOpenedAt, ShouldBeNil)
				})

				Convey("And the last question also reaches the leaderboard", func() {
					toDisplay(g)
					So(g.Skip(), ShouldBeNil)
					So(g.AdvancePhase(), ShouldBeNil)
					So(g.IsLastQuestion(), ShouldBeTrue)

					Convey("Then advance should produce FINAL_STATS, not COUNTDOWN", func() {
						So(g.Advance(), ShouldBeNil)
						So(g.Phase(), ShouldEqual, model.PhaseFinalStats)
						So(g.Session().ActiveQuestionIndex, ShouldEqual, 1)
					})
				})
			})
		})

		Convey("When commands arrive out of phase", func() {
			Convey("Then each should be rejected without changing the phase", func() {
				So(errors.Is(g.OpenBuzzers(1), game.ErrInvalidPhase), ShouldBeTrue)
				So(errors.Is(g.Skip(), game.ErrInvalidPhase), ShouldBeTrue)
				So(errors.Is(g.AdvancePhase(), game.ErrInvalidPhase), ShouldBeTrue)
				So(errors.Is(g.Tick(), game.ErrInvalidPhase), ShouldBeTrue)
				So(g.Phase(), ShouldEqual, model.PhaseLobby)
			})
		})
	})

	Convey("Given a game without questions", t, func() {
		g := game.New()

		Convey("When it starts", func() {
			So(g.Start(), ShouldBeNil)

			Convey("Then it should go straight to FINAL_STATS", func() {
				So(g.Phase(), ShouldEqual, model.PhaseFinalStats)
			})
		})
	})

	Convey("Given a custom countdown start", t, func() {
		g := game.New(game.WithCountdownStart(5), game.WithQuestionSet("x", questions(1)))

		Convey("Then lobby and countdown should both use it", func() {
			So(g.Session().CountdownValue, ShouldEqual, 5)
			So(g.Start(), ShouldBeNil)
			So(g.Session().CountdownValue, ShouldEqual, 5)
		})
	})
}

func TestLoadResetRestore(t *testing.T) {
	Convey("Given a game mid-question with scores", t, func() {
		g := newGame(2)
		a, _, err := g.Join("a", "Ada", "Owls", true)
		So(err, ShouldBeNil)
		So(g.Start(), ShouldBeNil)
		toDisplay(g)
		So(g.OpenBuzzers(1000), ShouldBeNil)
		_, err = g.SubmitBuzz(a.ID, 1250)
		So(err, ShouldBeNil)
		_, err = g.Resolve(a.ID, true)
		So(err, ShouldBeNil)

		Convey("When a new question set is loaded", func() {
			err := g.Load("Round two", questions(3))

			Convey("Then the session returns to LOBBY and the roster survives", func() {
				So(err, ShouldBeNil)
				So(g.Name(), ShouldEqual, "Round two")
				So(g.Questions(), ShouldHaveLength, 3)
				So(g.Phase(), ShouldEqual, model.PhaseLobby)
				So(g.Session().ActiveQuestionIndex, ShouldEqual, -1)
				So(g.BuzzQueue(), ShouldBeEmpty)
				p, ok := g.Player(a.ID)
				So(ok, ShouldBeTrue)
				So(p.Score, ShouldEqual, 10)
			})
		})

		Convey("When a question set has a question without points", func() {
			qs := questions(2)
			qs[1].Points = 0
			err := g.Load("Broken", qs)

			Convey("Then it should be rejected and nothing changes", func() {
				So(errors.Is(err, game.ErrInvalidQuestion), ShouldBeTrue)
				So(g.Name(), ShouldEqual, "Test night")
				So(g.Phase(), ShouldEqual, model.PhaseAnswerReveal)
			})
		})

		Convey("When the session is reset", func() {
			g.Reset()

			Convey("Then scores and stats are zeroed but identities survive", func() {
				So(g.Phase(), ShouldEqual, model.PhaseLobby)
				So(g.Session().ActiveQuestionIndex, ShouldEqual, -1)
				So(g.Session().BuzzerOpenedAt, ShouldBeNil)
				So(g.BuzzQueue(), ShouldBeEmpty)
				players := g.Players()
				So(players, ShouldHaveLength, 1)
				So(players[0].Score, ShouldEqual, 0)
				So(players[0].Stats, ShouldResemble, model.Stats{})
				So(players[0].Approved, ShouldBeTrue)
				teams := g.Teams()
				So(teams, ShouldHaveLength, 1)
				So(teams[0].Name, ShouldEqual, "Owls")
				So(teams[0].Score, ShouldEqual, 0)
			})
		})

		Convey("When another game restores from its snapshot", func() {
			snap := g.Snapshot()
			restored := game.New()
			So(restored.Restore(snap), ShouldBeNil)

			Convey("Then both should publish the same state", func() {
				So(restored.Snapshot(), ShouldResemble, snap)
			})

			Convey("And mutating the copy does not leak back", func() {
				*snap.Players[0].Stats.BestReactionMs = 1
				p, _ := restored.Player(a.ID)
				So(*p.Stats.BestReactionMs, ShouldEqual, 250)
			})
		})

		Convey("When restoring from an empty snapshot", func() {
			err := game.New().Restore(model.Snapshot{})

			Convey("Then it should be rejected", func() {
				So(errors.Is(err, game.ErrInvalidSnapshot), ShouldBeTrue)
			})
		})
	})
}
