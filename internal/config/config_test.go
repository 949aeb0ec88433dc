package config_test

import (
	"testing"

	config "github.com/cityfix/cityfix/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNewDefaults(t *testing.T) {
	Convey("Given a default config", t, func() {
		cfg := config.New()

		Convey("Then every priority has an SLA window", func() {
			for _, p := range []string{"low", "medium", "high", "urgent"} {
				So(cfg.SLAHours[p], ShouldBeGreaterThan, 0)
			}
		})

		Convey("And windows tighten with urgency", func() {
			So(cfg.SLAHours["urgent"], ShouldBeLessThan, cfg.SLAHours["high"])
			So(cfg.SLAHours["high"], ShouldBeLessThan, cfg.SLAHours["medium"])
			So(cfg.SLAHours["medium"], ShouldBeLessThan, cfg.SLAHours["low"])
		})
	})
}
