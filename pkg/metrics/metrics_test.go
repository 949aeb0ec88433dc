package metrics_test

import (
	"testing"
	"time"

	"github.com/cityfix/cityfix/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerRegistration(t *testing.T) {
	Convey("Given a manager on a fresh registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When constructing with options", func() {
			m := metrics.NewManager(
				metrics.WithNamespace("cityfix_test"),
				metrics.WithSubsystem("sla"),
				metrics.WithPrometheusRegistry(registry),
			)

			Convey("Then all collectors register without panicking", func() {
				So(m, ShouldNotBeNil)
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(families, ShouldNotBeNil)
			})
		})

		Convey("When constructing twice on the same registry", func() {
			So(func() {
				metrics.NewManager(metrics.WithPrometheusRegistry(prometheus.NewRegistry()))
				metrics.NewManager(metrics.WithPrometheusRegistry(prometheus.NewRegistry()))
			}, ShouldNotPanic)
		})
	})
}

func TestGlobalRecorders(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording domain events", func() {
			So(func() {
				metrics.RecordSweep(3, 3, 2, 5*time.Millisecond)
				metrics.RecordSweepPartialFailure("insert_violation")
				metrics.RecordRecalculation(4, 1)
				metrics.RecordRequestSubmitted()
				metrics.RecordTaskClaimed()
				metrics.RecordTaskResolved()
				metrics.RecordClaimConflict()
				metrics.UpdateOverdueRequests(7)
				metrics.UpdateWorkersTracked(12)
				metrics.RecordHTTPRequest("sla_check", "POST", "200")
				metrics.RecordHTTPRequestDuration("sla_check", "POST", "200", 12.5)
				metrics.RecordErrorByEndpoint("sla_check", "POST", "server_error")
				metrics.ObserveStoreOp("find_breached", 3*time.Millisecond)
			}, ShouldNotPanic)
		})

		Convey("When gathering the custom registry", func() {
			families, err := metrics.GetRegistry().Gather()

			Convey("Then the sweep counters are present", func() {
				So(err, ShouldBeNil)
				names := make(map[string]bool, len(families))
				for _, f := range families {
					names[f.GetName()] = true
				}
				So(names["cityfix_core_sla_sweeps_total"], ShouldBeTrue)
				So(names["cityfix_core_ranking_recalculations_total"], ShouldBeTrue)
			})
		})
	})
}
