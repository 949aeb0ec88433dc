package model_test

import (
	"testing"

	model "github.com/cityfix/cityfix/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestStatus(t *testing.T) {
	convey.Convey("Given the request status set", t, func() {
		convey.Convey("When checking validity", func() {
			convey.So(model.StatusSubmitted.Valid(), convey.ShouldBeTrue)
			convey.So(model.StatusOverdue.Valid(), convey.ShouldBeTrue)
			convey.So(model.Status("deleted").Valid(), convey.ShouldBeFalse)
			convey.So(model.Status("").Valid(), convey.ShouldBeFalse)
		})

		convey.Convey("When checking terminal states", func() {
			convey.So(model.StatusResolved.Terminal(), convey.ShouldBeTrue)
			convey.So(model.StatusClosed.Terminal(), convey.ShouldBeTrue)
			convey.So(model.StatusOverdue.Terminal(), convey.ShouldBeFalse)
			convey.So(model.StatusInProgress.Terminal(), convey.ShouldBeFalse)
		})

		convey.Convey("When checking active states", func() {
			convey.Convey("Then submitted, assigned and in_progress are active", func() {
				convey.So(model.StatusSubmitted.Active(), convey.ShouldBeTrue)
				convey.So(model.StatusAssigned.Active(), convey.ShouldBeTrue)
				convey.So(model.StatusInProgress.Active(), convey.ShouldBeTrue)
			})

			convey.Convey("Then overdue and terminal states are not", func() {
				convey.So(model.StatusOverdue.Active(), convey.ShouldBeFalse)
				convey.So(model.StatusResolved.Active(), convey.ShouldBeFalse)
				convey.So(model.StatusClosed.Active(), convey.ShouldBeFalse)
			})
		})
	})
}

func TestPriority(t *testing.T) {
	convey.Convey("Given the priority set", t, func() {
		convey.Convey("When checking validity", func() {
			convey.So(model.PriorityLow.Valid(), convey.ShouldBeTrue)
			convey.So(model.PriorityUrgent.Valid(), convey.ShouldBeTrue)
			convey.So(model.Priority("critical").Valid(), convey.ShouldBeFalse)
		})

		convey.Convey("When ordering by weight", func() {
			convey.So(model.PriorityUrgent.Weight(), convey.ShouldBeGreaterThan, model.PriorityHigh.Weight())
			convey.So(model.PriorityHigh.Weight(), convey.ShouldBeGreaterThan, model.PriorityMedium.Weight())
			convey.So(model.PriorityMedium.Weight(), convey.ShouldBeGreaterThan, model.PriorityLow.Weight())
		})
	})
}
