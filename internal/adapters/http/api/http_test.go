package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	api "github.com/cityfix/cityfix/internal/adapters/http/api"
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

func newTestServer(t *testing.T, seed func(store *repository.MemoryStore)) *httptest.Server {
	t.Helper()
	store := repository.NewMemoryStore()
	if seed != nil {
		seed(store)
	}
	svc := service.New(
		service.WithRequestStore(store),
		service.WithWorkerStore(store),
	)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(svc.Stop)

	mux := http.NewServeMux()
	api.NewServer(svc, svc, api.WithTriggerLimit(100, 100)).Register(context.Background(), mux)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url, body string) (int, map[string]any) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp.StatusCode, decoded
}

func doJSONList(t *testing.T, url string) (int, []map[string]any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	var decoded []map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp.StatusCode, decoded
}

func TestSLAEndpoints(t *testing.T) {
	now := time.Now().UTC()
	deadline := now.Add(-2 * time.Hour)

	Convey("Given a server with one breached request", t, func() {
		ts := newTestServer(t, func(store *repository.MemoryStore) {
			store.PutWorker(model.WorkerProfile{ID: "w-1", FullName: "Avery", CreatedAt: now})
			worker := "w-1"
			_ = store.Create(context.Background(), &model.ServiceRequest{
				ID: "r-1", Title: "Sinkhole", CategoryID: "roads",
				Status: model.StatusInProgress, Priority: model.PriorityUrgent,
				AssignedWorkerID: &worker, SLADeadline: &deadline,
				CreatedAt: now.Add(-6 * time.Hour),
			})
		})

		Convey("When the sweep trigger fires", func() {
			status, body := doJSON(t, http.MethodPost, ts.URL+"/sla/check", "")

			Convey("Then the tallies come back", func() {
				So(status, ShouldEqual, http.StatusOK)
				So(body["checked"], ShouldEqual, 1)
				So(body["marked"], ShouldEqual, 1)
				So(body["violations"], ShouldEqual, 1)
			})

			Convey("Then the violation shows up in the log", func() {
				status, violations := doJSONList(t, ts.URL+"/sla/violations?limit=10")
				So(status, ShouldEqual, http.StatusOK)
				So(violations, ShouldHaveLength, 1)
				So(violations[0]["request_id"], ShouldEqual, "r-1")
			})
		})

		Convey("When the trigger is hit with GET", func() {
			status, _ := doJSON(t, http.MethodGet, ts.URL+"/sla/check", "")
			So(status, ShouldEqual, http.StatusNotFound)
		})

		Convey("When the at-risk query carries a bad lookahead", func() {
			status, _ := doJSON(t, http.MethodGet, ts.URL+"/sla/at-risk?lookahead_hours=-1", "")
			So(status, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestSweepTriggerRateLimit(t *testing.T) {
	Convey("Given a server with a tight trigger budget", t, func() {
		store := repository.NewMemoryStore()
		svc := service.New(
			service.WithRequestStore(store),
			service.WithWorkerStore(store),
		)
		So(svc.Start(context.Background()), ShouldBeNil)
		Reset(svc.Stop)

		mux := http.NewServeMux()
		api.NewServer(svc, svc, api.WithTriggerLimit(0.001, 1)).Register(context.Background(), mux)
		ts := httptest.NewServer(mux)
		Reset(ts.Close)

		Convey("When the trigger fires twice back to back", func() {
			first, _ := doJSON(t, http.MethodPost, ts.URL+"/sla/check", "")
			second, _ := doJSON(t, http.MethodPost, ts.URL+"/sla/check", "")

			Convey("Then the second call is throttled", func() {
				So(first, ShouldEqual, http.StatusOK)
				So(second, ShouldEqual, http.StatusTooManyRequests)
			})
		})
	})
}

func TestRankingsEndpoints(t *testing.T) {
	now := time.Now().UTC()

	Convey("Given a server with scored workers", t, func() {
		ts := newTestServer(t, func(store *repository.MemoryStore) {
			store.PutWorker(model.WorkerProfile{
				ID: "w-1", FullName: "Avery",
				CompletedTasks: 10, SLAViolations: 2, AverageRating: 4.0,
				CreatedAt: now,
			})
			store.PutWorker(model.WorkerProfile{
				ID: "w-2", FullName: "Blake",
				CompletedTasks: 3, AverageRating: 5.0,
				CreatedAt: now.Add(time.Minute),
			})
		})

		Convey("When rankings are recalculated and fetched", func() {
			status, body := doJSON(t, http.MethodPost, ts.URL+"/workers/rankings/recalculate", "")
			So(status, ShouldEqual, http.StatusOK)
			So(body["updated"], ShouldEqual, 2)

			status, rankings := doJSONList(t, ts.URL+"/workers/rankings")

			Convey("Then workers come back best first with ranks", func() {
				So(status, ShouldEqual, http.StatusOK)
				So(rankings, ShouldHaveLength, 2)
				So(rankings[0]["id"], ShouldEqual, "w-1")
				So(rankings[0]["rank"], ShouldEqual, 1)
				So(rankings[0]["total_score"], ShouldEqual, 90)
				So(rankings[1]["id"], ShouldEqual, "w-2")
				So(rankings[1]["total_score"], ShouldEqual, 55)
			})
		})
	})
}

func TestRequestEndpoints(t *testing.T) {
	Convey("Given a running server", t, func() {
		ts := newTestServer(t, nil)

		Convey("When a citizen submits a valid report", func() {
			status, body := doJSON(t, http.MethodPost, ts.URL+"/requests",
				`{"title":"Broken swing","category_id":"parks","citizen_id":"c-1","priority":"high"}`)

			Convey("Then the stored request is returned with a deadline", func() {
				So(status, ShouldEqual, http.StatusCreated)
				So(body["id"], ShouldNotBeEmpty)
				So(body["status"], ShouldEqual, "submitted")
				So(body["sla_deadline"], ShouldNotBeNil)
			})

			Convey("Then it appears in the request list", func() {
				status, reqs := doJSONList(t, ts.URL+"/requests")
				So(status, ShouldEqual, http.StatusOK)
				So(reqs, ShouldHaveLength, 1)
			})
		})

		Convey("When the submission is missing its title", func() {
			status, _ := doJSON(t, http.MethodPost, ts.URL+"/requests",
				`{"category_id":"parks","citizen_id":"c-1"}`)
			So(status, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When an unknown request is deleted", func() {
			status, _ := doJSON(t, http.MethodDelete, ts.URL+"/requests/ghost", "")
			So(status, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestTaskEndpoints(t *testing.T) {
	now := time.Now().UTC()

	Convey("Given a server with an open request", t, func() {
		ts := newTestServer(t, func(store *repository.MemoryStore) {
			store.PutWorker(model.WorkerProfile{ID: "w-1", FullName: "Avery", CreatedAt: now})
			store.PutWorker(model.WorkerProfile{ID: "w-2", FullName: "Blake", CreatedAt: now})
			_ = store.Create(context.Background(), &model.ServiceRequest{
				ID: "r-1", Title: "Leaking hydrant", CategoryID: "water",
				Status: model.StatusSubmitted, Priority: model.PriorityHigh,
				CreatedAt: now,
			})
		})

		Convey("When the open pool is listed", func() {
			status, tasks := doJSONList(t, ts.URL+"/tasks")
			So(status, ShouldEqual, http.StatusOK)
			So(tasks, ShouldHaveLength, 1)
		})

		Convey("When two workers race for the claim", func() {
			first, _ := doJSON(t, http.MethodPatch, ts.URL+"/tasks/r-1",
				`{"action":"claim","worker_id":"w-1"}`)
			second, _ := doJSON(t, http.MethodPatch, ts.URL+"/tasks/r-1",
				`{"action":"claim","worker_id":"w-2"}`)

			Convey("Then the loser gets a conflict", func() {
				So(first, ShouldEqual, http.StatusOK)
				So(second, ShouldEqual, http.StatusConflict)
			})

			Convey("Then only the winner can move the task", func() {
				denied, _ := doJSON(t, http.MethodPatch, ts.URL+"/tasks/r-1",
					`{"action":"status","worker_id":"w-2","status":"in_progress"}`)
				So(denied, ShouldEqual, http.StatusForbidden)

				allowed, _ := doJSON(t, http.MethodPatch, ts.URL+"/tasks/r-1",
					`{"action":"status","worker_id":"w-1","status":"resolved"}`)
				So(allowed, ShouldEqual, http.StatusOK)
			})
		})

		Convey("When the action is unknown", func() {
			status, _ := doJSON(t, http.MethodPatch, ts.URL+"/tasks/r-1",
				`{"action":"steal","worker_id":"w-1"}`)
			So(status, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestCitizenLevelEndpoint(t *testing.T) {
	Convey("Given a running server", t, func() {
		ts := newTestServer(t, nil)

		Convey("When a citizen with five reports asks for their level", func() {
			status, body := doJSON(t, http.MethodGet, ts.URL+"/citizens/level?reports=5", "")

			Convey("Then the ladder position and progress come back", func() {
				So(status, ShouldEqual, http.StatusOK)
				current, ok := body["current"].(map[string]any)
				So(ok, ShouldBeTrue)
				So(current["title"], ShouldEqual, "Community Member")
				So(body["progress"], ShouldEqual, 29)
			})
		})

		Convey("When the report count is missing", func() {
			status, _ := doJSON(t, http.MethodGet, ts.URL+"/citizens/level", "")
			So(status, ShouldEqual, http.StatusBadRequest)
		})
	})
}
