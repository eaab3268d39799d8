package model_test

import (
	"errors"
	"math"
	"testing"

	model "github.com/recnos/onemrc/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestEventValidate(t *testing.T) {
	convey.Convey("Given an Event struct", t, func() {
		convey.Convey("When the event is well formed", func() {
			event := model.Event{UserID: "user_42", Value: 12.5}

			convey.Convey("Then validation should pass", func() {
				convey.So(event.Validate(), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the user id is empty", func() {
			event := model.Event{UserID: "", Value: 1.0}

			convey.Convey("Then validation should fail with ErrInvalidEvent", func() {
				err := event.Validate()
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, model.ErrInvalidEvent), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the user id is only whitespace", func() {
			event := model.Event{UserID: "   ", Value: 1.0}

			convey.Convey("Then validation should fail", func() {
				convey.So(errors.Is(event.Validate(), model.ErrInvalidEvent), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the value is NaN", func() {
			event := model.Event{UserID: "user_1", Value: math.NaN()}

			convey.Convey("Then validation should fail", func() {
				convey.So(errors.Is(event.Validate(), model.ErrInvalidEvent), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the value is positive infinity", func() {
			event := model.Event{UserID: "user_1", Value: math.Inf(1)}

			convey.Convey("Then validation should fail", func() {
				convey.So(errors.Is(event.Validate(), model.ErrInvalidEvent), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the value is negative infinity", func() {
			event := model.Event{UserID: "user_1", Value: math.Inf(-1)}

			convey.Convey("Then validation should fail", func() {
				convey.So(errors.Is(event.Validate(), model.ErrInvalidEvent), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the value is zero or negative", func() {
			convey.Convey("Then validation should still pass", func() {
				convey.So(model.Event{UserID: "u", Value: 0}.Validate(), convey.ShouldBeNil)
				convey.So(model.Event{UserID: "u", Value: -3.25}.Validate(), convey.ShouldBeNil)
			})
		})
	})
}
