package types_test

import (
	"encoding/json"
	"testing"

	"github.com/okian/quizlive/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestWireTypes(t *testing.T) {
	Convey("Given a failed login result", t, func() {
		res := types.LoginResult{}

		Convey("When it is encoded", func() {
			b, err := json.Marshal(res)

			Convey("Then only the success flag is sent", func() {
				So(err, ShouldBeNil)
				So(string(b), ShouldEqual, `{"success":false}`)
			})
		})
	})

	Convey("Given an updateSettings body without a new password", t, func() {
		raw := `{"token":"t","joinUrl":"https://quiz.example/join"}`

		Convey("When it is decoded", func() {
			var req types.UpdateSettingsRequest
			err := json.Unmarshal([]byte(raw), &req)

			Convey("Then the password stays empty", func() {
				So(err, ShouldBeNil)
				So(req.JoinURL, ShouldEqual, "https://quiz.example/join")
				So(req.NewPassword, ShouldBeEmpty)
			})
		})
	})

	Convey("Given an ack", t, func() {
		b, err := json.Marshal(types.Ack{Success: true})

		Convey("Then it matches the protocol acknowledgement", func() {
			So(err, ShouldBeNil)
			So(string(b), ShouldEqual, `{"success":true}`)
		})
	})
}
