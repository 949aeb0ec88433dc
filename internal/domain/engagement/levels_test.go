package engagement_test

import (
	"testing"

	engagement "github.com/cityfix/cityfix/internal/domain/engagement"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLevelFor(t *testing.T) {
	Convey("Given the citizen recognition ladder", t, func() {
		Convey("When a citizen has no reports", func() {
			So(engagement.LevelFor(0).Title, ShouldEqual, "New Resident")
		})

		Convey("When the count sits exactly on a threshold", func() {
			So(engagement.LevelFor(3).Level, ShouldEqual, 2)
			So(engagement.LevelFor(10).Level, ShouldEqual, 3)
			So(engagement.LevelFor(25).Level, ShouldEqual, 4)
			So(engagement.LevelFor(50).Level, ShouldEqual, 5)
		})

		Convey("When the count sits between thresholds", func() {
			So(engagement.LevelFor(9).Level, ShouldEqual, 2)
			So(engagement.LevelFor(24).Level, ShouldEqual, 3)
		})

		Convey("When the count exceeds the top threshold", func() {
			So(engagement.LevelFor(500).Title, ShouldEqual, "Civic Leader")
		})
	})
}

func TestNextLevelAndProgress(t *testing.T) {
	Convey("Given a citizen climbing the ladder", t, func() {
		Convey("When below the top level", func() {
			next := engagement.NextLevel(5)

			Convey("Then the next rung is reported", func() {
				So(next, ShouldNotBeNil)
				So(next.Level, ShouldEqual, 3)
			})

			Convey("And progress is proportional within the rung", func() {
				// level 2 spans 3..10, so 5 reports is 2/7 of the way
				So(engagement.Progress(5), ShouldEqual, 29)
			})
		})

		Convey("When at the start of a rung", func() {
			So(engagement.Progress(3), ShouldEqual, 0)
		})

		Convey("When at the top level", func() {
			So(engagement.NextLevel(60), ShouldBeNil)
			So(engagement.Progress(60), ShouldEqual, 100)
		})
	})
}
