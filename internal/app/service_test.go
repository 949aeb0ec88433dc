package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	repository "github.com/cityfix/cityfix/internal/adapters/repository"
	service "github.com/cityfix/cityfix/internal/app"
	model "github.com/cityfix/cityfix/internal/domain/model"
	"github.com/cityfix/cityfix/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func timePtr(t time.Time) *time.Time { return &t }
func strPtr(s string) *string        { return &s }

func startService(t *testing.T, store *repository.MemoryStore, now time.Time, opts ...service.Option) *service.Service {
	t.Helper()
	opts = append(opts,
		service.WithRequestStore(store),
		service.WithWorkerStore(store),
		service.WithNowFunc(func() time.Time { return now }),
	)
	svc := service.New(opts...)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(svc.Stop)
	return svc
}

func TestRunSweep(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	Convey("Given an assigned request two hours past its deadline", t, func() {
		store := repository.NewMemoryStore()
		store.PutWorker(model.WorkerProfile{ID: "w-1", FullName: "Avery", CreatedAt: now})
		req := model.ServiceRequest{
			ID: "r-1", Title: "Water main leak", CategoryID: "water",
			Status: model.StatusInProgress, Priority: model.PriorityHigh,
			AssignedWorkerID: strPtr("w-1"),
			SLADeadline:      timePtr(now.Add(-2 * time.Hour)),
			CreatedAt:        now.Add(-26 * time.Hour),
		}
		So(store.Create(ctx, &req), ShouldBeNil)
		svc := startService(t, store, now)

		Convey("When the sweep runs", func() {
			result, err := svc.RunSweep(ctx, now)

			Convey("Then the request is flagged and the violation recorded", func() {
				So(err, ShouldBeNil)
				So(result.Checked, ShouldEqual, 1)
				So(result.Marked, ShouldEqual, 1)
				So(result.Violations, ShouldEqual, 1)

				got, err := store.Get(ctx, "r-1")
				So(err, ShouldBeNil)
				So(got.Status, ShouldEqual, model.StatusOverdue)

				violations, err := store.ListViolations(ctx, 10)
				So(err, ShouldBeNil)
				So(violations, ShouldHaveLength, 1)
				So(violations[0].RequestID, ShouldEqual, "r-1")
				So(*violations[0].WorkerID, ShouldEqual, "w-1")
				So(violations[0].DelayHours, ShouldEqual, 2.0)
			})

			Convey("Then the worker's violation counter is bumped", func() {
				workers, err := store.ListWorkers(ctx)
				So(err, ShouldBeNil)
				So(workers[0].SLAViolations, ShouldEqual, 1)
			})

			Convey("Then an immediate second sweep finds nothing", func() {
				again, err := svc.RunSweep(ctx, now)
				So(err, ShouldBeNil)
				So(again.Checked, ShouldEqual, 0)
				So(again.Marked, ShouldEqual, 0)
				So(again.Violations, ShouldEqual, 0)

				violations, _ := store.ListViolations(ctx, 10)
				So(violations, ShouldHaveLength, 1)
			})
		})
	})

	Convey("Given only a resolved request past its deadline", t, func() {
		store := repository.NewMemoryStore()
		req := model.ServiceRequest{
			ID: "r-done", Title: "Pothole", CategoryID: "roads",
			Status: model.StatusResolved, Priority: model.PriorityMedium,
			SLADeadline: timePtr(now.Add(-5 * time.Hour)), CreatedAt: now.Add(-50 * time.Hour),
		}
		So(store.Create(ctx, &req), ShouldBeNil)
		svc := startService(t, store, now)

		Convey("When the sweep runs", func() {
			result, err := svc.RunSweep(ctx, now)

			Convey("Then nothing is touched", func() {
				So(err, ShouldBeNil)
				So(result.Checked, ShouldEqual, 0)
				So(result.Violations, ShouldEqual, 0)

				got, _ := store.Get(ctx, "r-done")
				So(got.Status, ShouldEqual, model.StatusResolved)
			})
		})
	})

	Convey("Given an unassigned breached request", t, func() {
		store := repository.NewMemoryStore()
		req := model.ServiceRequest{
			ID: "r-orphan", Title: "Graffiti", CategoryID: "sanitation",
			Status: model.StatusSubmitted, Priority: model.PriorityLow,
			SLADeadline: timePtr(now.Add(-90 * time.Minute)), CreatedAt: now.Add(-80 * time.Hour),
		}
		So(store.Create(ctx, &req), ShouldBeNil)
		svc := startService(t, store, now)

		Convey("When the sweep runs", func() {
			result, err := svc.RunSweep(ctx, now)

			Convey("Then the violation carries no worker attribution", func() {
				So(err, ShouldBeNil)
				So(result.Violations, ShouldEqual, 1)

				violations, _ := store.ListViolations(ctx, 10)
				So(violations, ShouldHaveLength, 1)
				So(violations[0].WorkerID, ShouldBeNil)
				So(violations[0].DelayHours, ShouldEqual, 1.5)
			})
		})
	})
}

func TestAtRisk(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	Convey("Given requests around the lookahead boundary", t, func() {
		store := repository.NewMemoryStore()
		inside := model.ServiceRequest{
			ID: "r-soon", Title: "Blocked drain", CategoryID: "water",
			Status: model.StatusAssigned, Priority: model.PriorityHigh,
			SLADeadline: timePtr(now.Add(3 * time.Hour)), CreatedAt: now.Add(-time.Hour),
		}
		outside := model.ServiceRequest{
			ID: "r-later", Title: "Faded crosswalk", CategoryID: "roads",
			Status: model.StatusSubmitted, Priority: model.PriorityLow,
			SLADeadline: timePtr(now.Add(10 * time.Hour)), CreatedAt: now.Add(-time.Hour),
		}
		for _, req := range []model.ServiceRequest{inside, outside} {
			So(store.Create(ctx, &req), ShouldBeNil)
		}
		svc := startService(t, store, now)

		Convey("When querying with the default window", func() {
			got, err := svc.AtRisk(ctx, now, 0)

			Convey("Then only the near-deadline request qualifies", func() {
				So(err, ShouldBeNil)
				So(got, ShouldHaveLength, 1)
				So(got[0].ID, ShouldEqual, "r-soon")
			})
		})

		Convey("When the window is widened to twelve hours", func() {
			got, err := svc.AtRisk(ctx, now, 12*time.Hour)
			So(err, ShouldBeNil)
			So(got, ShouldHaveLength, 2)
		})
	})
}

func TestRecalculateRankings(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	Convey("Given workers with accumulated counters", t, func() {
		store := repository.NewMemoryStore()
		store.PutWorker(model.WorkerProfile{
			ID: "w-1", FullName: "Avery",
			CompletedTasks: 10, SLAViolations: 2, AverageRating: 4.0,
			CreatedAt: now,
		})
		store.PutWorker(model.WorkerProfile{
			ID: "w-2", FullName: "Blake",
			CompletedTasks: 0, SLAViolations: 5, AverageRating: 0,
			CreatedAt: now.Add(time.Hour),
		})
		svc := startService(t, store, now)

		Convey("When rankings are recalculated", func() {
			result, err := svc.RecalculateRankings(ctx)

			Convey("Then every worker gets a fresh non-negative score", func() {
				So(err, ShouldBeNil)
				So(result.Updated, ShouldEqual, 2)

				rankings, err := svc.Rankings(ctx)
				So(err, ShouldBeNil)
				So(rankings, ShouldHaveLength, 2)
				So(rankings[0].WorkerID, ShouldEqual, "w-1")
				So(rankings[0].Rank, ShouldEqual, 1)
				So(rankings[0].TotalScore, ShouldEqual, 90.0)
				So(rankings[1].WorkerID, ShouldEqual, "w-2")
				So(rankings[1].Rank, ShouldEqual, 2)
				So(rankings[1].TotalScore, ShouldEqual, 0.0)
			})

			Convey("Then a second run with no new activity changes nothing", func() {
				before, _ := svc.Rankings(ctx)
				again, err := svc.RecalculateRankings(ctx)
				So(err, ShouldBeNil)
				So(again.Updated, ShouldEqual, 2)

				after, _ := svc.Rankings(ctx)
				So(after, ShouldResemble, before)
			})
		})
	})
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	Convey("Given a running service", t, func() {
		store := repository.NewMemoryStore()
		svc := startService(t, store, now)

		Convey("When a citizen submits an urgent report", func() {
			req, err := svc.Submit(ctx, service.SubmitInput{
				Title:      "Gas smell near school",
				CategoryID: "safety",
				Priority:   model.PriorityUrgent,
				CitizenID:  "c-1",
			})

			Convey("Then the deadline is four hours out", func() {
				So(err, ShouldBeNil)
				So(req.Status, ShouldEqual, model.StatusSubmitted)
				So(req.SLADeadline, ShouldNotBeNil)
				So(*req.SLADeadline, ShouldEqual, now.Add(4*time.Hour))
			})
		})

		Convey("When the priority is omitted", func() {
			req, err := svc.Submit(ctx, service.SubmitInput{
				Title: "Litter in park", CategoryID: "parks", CitizenID: "c-1",
			})

			Convey("Then it defaults to medium with a 48h deadline", func() {
				So(err, ShouldBeNil)
				So(req.Priority, ShouldEqual, model.PriorityMedium)
				So(*req.SLADeadline, ShouldEqual, now.Add(48*time.Hour))
			})
		})

		Convey("When required fields are missing", func() {
			_, err := svc.Submit(ctx, service.SubmitInput{CategoryID: "parks", CitizenID: "c-1"})
			So(errors.Is(err, service.ErrValidation), ShouldBeTrue)

			_, err = svc.Submit(ctx, service.SubmitInput{Title: "x", CitizenID: "c-1"})
			So(errors.Is(err, service.ErrValidation), ShouldBeTrue)
		})

		Convey("When the priority is garbage", func() {
			_, err := svc.Submit(ctx, service.SubmitInput{
				Title: "x", CategoryID: "parks", CitizenID: "c-1", Priority: "whenever",
			})
			So(errors.Is(err, service.ErrValidation), ShouldBeTrue)
		})
	})
}

func TestClaimAndComplete(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	Convey("Given an open request and two workers", t, func() {
		store := repository.NewMemoryStore()
		store.PutWorker(model.WorkerProfile{ID: "w-1", FullName: "Avery", CreatedAt: now})
		store.PutWorker(model.WorkerProfile{ID: "w-2", FullName: "Blake", CreatedAt: now})
		req := model.ServiceRequest{
			ID: "r-1", Title: "Fallen tree", CategoryID: "parks",
			Status: model.StatusSubmitted, Priority: model.PriorityHigh,
			SLADeadline: timePtr(now.Add(24 * time.Hour)), CreatedAt: now,
		}
		So(store.Create(ctx, &req), ShouldBeNil)
		svc := startService(t, store, now)

		Convey("When both workers race for the claim", func() {
			So(svc.Claim(ctx, "r-1", "w-1"), ShouldBeNil)
			err := svc.Claim(ctx, "r-1", "w-2")

			Convey("Then the loser gets a conflict", func() {
				So(errors.Is(err, repository.ErrAlreadyClaimed), ShouldBeTrue)
			})

			Convey("And the winner sees it among their tasks", func() {
				tasks, err := svc.WorkerTasks(ctx, "w-1")
				So(err, ShouldBeNil)
				So(tasks, ShouldHaveLength, 1)
				So(tasks[0].ID, ShouldEqual, "r-1")
			})
		})

		Convey("When the assignee resolves the task", func() {
			So(svc.Claim(ctx, "r-1", "w-1"), ShouldBeNil)
			So(svc.UpdateTaskStatus(ctx, "r-1", "w-1", model.StatusResolved), ShouldBeNil)

			Convey("Then the completed counter is bumped", func() {
				workers, _ := store.ListWorkers(ctx)
				for _, w := range workers {
					if w.ID == "w-1" {
						So(w.CompletedTasks, ShouldEqual, 1)
					}
				}
			})
		})

		Convey("When a non-assignee tries to update the task", func() {
			So(svc.Claim(ctx, "r-1", "w-1"), ShouldBeNil)
			err := svc.UpdateTaskStatus(ctx, "r-1", "w-2", model.StatusInProgress)
			So(errors.Is(err, service.ErrNotAssigned), ShouldBeTrue)
		})
	})
}

func TestDispatch(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	Convey("Given a submitted request", t, func() {
		store := repository.NewMemoryStore()
		req := model.ServiceRequest{
			ID: "r-1", Title: "Streetlight out", CategoryID: "lighting",
			Status: model.StatusSubmitted, Priority: model.PriorityLow,
			CreatedAt: now,
		}
		So(store.Create(ctx, &req), ShouldBeNil)
		svc := startService(t, store, now)

		Convey("When an admin escalates and assigns it", func() {
			err := svc.Dispatch(ctx, service.DispatchInput{
				RequestID: "r-1",
				WorkerID:  strPtr("w-9"),
				Priority:  model.PriorityUrgent,
				Status:    model.StatusAssigned,
			})

			Convey("Then the stored row reflects all three changes", func() {
				So(err, ShouldBeNil)
				got, _ := store.Get(ctx, "r-1")
				So(*got.AssignedWorkerID, ShouldEqual, "w-9")
				So(got.Priority, ShouldEqual, model.PriorityUrgent)
				So(got.Status, ShouldEqual, model.StatusAssigned)
			})
		})

		Convey("When the update carries an unknown status", func() {
			err := svc.Dispatch(ctx, service.DispatchInput{RequestID: "r-1", Status: "paused"})
			So(errors.Is(err, service.ErrValidation), ShouldBeTrue)
		})

		Convey("When an admin deletes the request", func() {
			So(svc.DeleteRequest(ctx, "r-1"), ShouldBeNil)
			_, err := store.Get(ctx, "r-1")
			So(err, ShouldEqual, repository.ErrNotFound)
		})
	})
}
