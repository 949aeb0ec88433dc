package dedupe_test

import (
	"context"
	"strconv"
	"testing"

	dedupe "github.com/cityfix/cityfix/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestGuard(t *testing.T) {
	ctx := context.Background()

	Convey("Given a fresh guard", t, func() {
		g := dedupe.NewInMemoryGuard()

		Convey("When a token is recorded twice", func() {
			first := g.SeenAndRecord(ctx, "tok-1")
			second := g.SeenAndRecord(ctx, "tok-1")

			Convey("Then only the second sighting reports seen", func() {
				So(first, ShouldBeFalse)
				So(second, ShouldBeTrue)
				So(g.Size(), ShouldEqual, 1)
			})
		})

		Convey("When a token is forgotten", func() {
			So(g.SeenAndRecord(ctx, "tok-1"), ShouldBeFalse)
			g.Forget(ctx, "tok-1")

			Convey("Then it can be recorded again", func() {
				So(g.SeenAndRecord(ctx, "tok-1"), ShouldBeFalse)
				So(g.Size(), ShouldEqual, 1)
			})
		})

		Convey("When forgetting an unknown token", func() {
			g.Forget(ctx, "ghost")
			So(g.Size(), ShouldEqual, 0)
		})
	})

	Convey("Given a guard bounded to three tokens", t, func() {
		g := dedupe.NewInMemoryGuard(dedupe.WithMaxSize(3))

		for i := 0; i < 4; i++ {
			So(g.SeenAndRecord(ctx, "tok-"+strconv.Itoa(i)), ShouldBeFalse)
		}

		Convey("Then the oldest token aged out", func() {
			So(g.Size(), ShouldEqual, 3)
			So(g.SeenAndRecord(ctx, "tok-0"), ShouldBeFalse)
			So(g.SeenAndRecord(ctx, "tok-3"), ShouldBeTrue)
		})
	})
}
