package types_test

import (
	"encoding/json"
	"testing"

	types "github.com/cityfix/cityfix/internal/domain/types"
	"github.com/smartystreets/goconvey/convey"
)

func TestSweepResultJSON(t *testing.T) {
	convey.Convey("Given a sweep result", t, func() {
		res := types.SweepResult{Checked: 3, Marked: 3, Violations: 2}

		convey.Convey("When encoding to JSON", func() {
			b, err := json.Marshal(res)

			convey.Convey("Then the wire keys match the admin API contract", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(string(b), convey.ShouldEqual, `{"checked":3,"marked":3,"violations":2}`)
			})
		})
	})
}

func TestRankingJSON(t *testing.T) {
	convey.Convey("Given a ranking row", t, func() {
		row := types.Ranking{
			Rank:           1,
			WorkerID:       "worker-1",
			FullName:       "Dana Ortiz",
			CompletedTasks: 12,
			SLAViolations:  1,
			AverageRating:  4.5,
			TotalScore:     127.5,
		}

		convey.Convey("When round-tripping through JSON", func() {
			b, err := json.Marshal(row)
			convey.So(err, convey.ShouldBeNil)

			var decoded types.Ranking
			convey.So(json.Unmarshal(b, &decoded), convey.ShouldBeNil)

			convey.Convey("Then the row survives intact", func() {
				convey.So(decoded, convey.ShouldResemble, row)
			})
		})
	})
}
