package sla_test

import (
	"testing"
	"time"

	model "github.com/cityfix/cityfix/internal/domain/model"
	sla "github.com/cityfix/cityfix/internal/domain/sla"
	. "github.com/smartystreets/goconvey/convey"
)

func requestWithDeadline(status model.Status, deadline time.Time) model.ServiceRequest {
	return model.ServiceRequest{
		ID:          "req-1",
		Status:      status,
		Priority:    model.PriorityMedium,
		SLADeadline: &deadline,
	}
}

func TestIsOverdue(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	Convey("Given a request with a deadline in the past", t, func() {
		req := requestWithDeadline(model.StatusInProgress, now.Add(-2*time.Hour))

		Convey("Then it is overdue", func() {
			So(sla.IsOverdue(req, now), ShouldBeTrue)
		})

		Convey("When the request is already flagged overdue", func() {
			req.Status = model.StatusOverdue

			Convey("Then it is not a fresh breach", func() {
				So(sla.IsOverdue(req, now), ShouldBeFalse)
			})
		})

		Convey("When the request is resolved or closed", func() {
			for _, s := range []model.Status{model.StatusResolved, model.StatusClosed} {
				req.Status = s
				So(sla.IsOverdue(req, now), ShouldBeFalse)
			}
		})
	})

	Convey("Given a request with no deadline", t, func() {
		req := model.ServiceRequest{ID: "req-2", Status: model.StatusSubmitted}

		Convey("Then it is never overdue", func() {
			So(sla.IsOverdue(req, now), ShouldBeFalse)
		})
	})

	Convey("Given a deadline exactly equal to now", t, func() {
		req := requestWithDeadline(model.StatusSubmitted, now)

		Convey("Then the comparison is strict and it is not overdue", func() {
			So(sla.IsOverdue(req, now), ShouldBeFalse)
		})

		Convey("But one microsecond past the deadline is", func() {
			So(sla.IsOverdue(req, now.Add(time.Microsecond)), ShouldBeTrue)
		})
	})
}

func TestDelayHours(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	Convey("Given breached deadlines", t, func() {
		Convey("When the delay is a round number of hours", func() {
			So(sla.DelayHours(now.Add(-2*time.Hour), now), ShouldEqual, 2.0)
		})

		Convey("When the delay needs rounding to one decimal", func() {
			So(sla.DelayHours(now.Add(-90*time.Minute), now), ShouldEqual, 1.5)
			So(sla.DelayHours(now.Add(-100*time.Minute), now), ShouldEqual, 1.7)
			So(sla.DelayHours(now.Add(-3*time.Minute), now), ShouldEqual, 0.1)
		})

		Convey("When the delay is sub-threshold", func() {
			So(sla.DelayHours(now.Add(-time.Minute), now), ShouldEqual, 0.0)
		})
	})
}

func TestIsAtRisk(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	lookahead := 4 * time.Hour

	Convey("Given active requests near their deadline", t, func() {
		Convey("When the deadline is inside the lookahead window", func() {
			req := requestWithDeadline(model.StatusAssigned, now.Add(2*time.Hour))
			So(sla.IsAtRisk(req, now, lookahead), ShouldBeTrue)
		})

		Convey("When the deadline equals the window edge", func() {
			req := requestWithDeadline(model.StatusAssigned, now.Add(lookahead))
			So(sla.IsAtRisk(req, now, lookahead), ShouldBeTrue)
		})

		Convey("When the deadline is beyond the window", func() {
			req := requestWithDeadline(model.StatusAssigned, now.Add(5*time.Hour))
			So(sla.IsAtRisk(req, now, lookahead), ShouldBeFalse)
		})

		Convey("When the deadline has already passed", func() {
			req := requestWithDeadline(model.StatusAssigned, now.Add(-time.Hour))
			So(sla.IsAtRisk(req, now, lookahead), ShouldBeFalse)
		})
	})

	Convey("Given overdue or terminal requests", t, func() {
		for _, s := range []model.Status{model.StatusOverdue, model.StatusResolved, model.StatusClosed} {
			req := requestWithDeadline(s, now.Add(time.Hour))
			So(sla.IsAtRisk(req, now, lookahead), ShouldBeFalse)
		}
	})
}
