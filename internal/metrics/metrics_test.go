package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"aimy/internal/stats"

	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManager(t *testing.T) {
	Convey("Given a metrics manager on a private registry", t, func() {
		m := NewManager()

		Convey("When a session plays out", func() {
			m.SessionStarted("target_rush")
			m.Shot("target_rush", true)
			m.Shot("target_rush", true)
			m.Shot("target_rush", false)
			m.TargetExpired("target_rush")
			m.SessionCompleted(stats.Summary{GameMode: "target_rush", Accuracy: 66}, 12*time.Second)

			Convey("Then the counters follow", func() {
				So(testutil.ToFloat64(m.sessionsStarted.WithLabelValues("target_rush")), ShouldEqual, 1)
				So(testutil.ToFloat64(m.shots.WithLabelValues("target_rush", "hit")), ShouldEqual, 2)
				So(testutil.ToFloat64(m.shots.WithLabelValues("target_rush", "miss")), ShouldEqual, 1)
				So(testutil.ToFloat64(m.expired.WithLabelValues("target_rush")), ShouldEqual, 1)
				So(testutil.ToFloat64(m.sessionsCompleted.WithLabelValues("target_rush")), ShouldEqual, 1)
			})
		})

		Convey("When rooms and persistence failures are reported", func() {
			m.SetActiveRooms(3)
			m.PersistError("file")

			Convey("Then the gauge and error counter reflect them", func() {
				So(testutil.ToFloat64(m.activeRooms), ShouldEqual, 3)
				So(testutil.ToFloat64(m.persistErrors.WithLabelValues("file")), ShouldEqual, 1)
			})
		})

		Convey("When the handler is scraped", func() {
			m.SessionStarted("time_frenzy")
			rec := httptest.NewRecorder()
			m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
			body, _ := io.ReadAll(rec.Body)

			Convey("Then it exposes the namespaced series", func() {
				So(rec.Code, ShouldEqual, 200)
				So(strings.Contains(string(body), `aimy_sessions_started_total{mode="time_frenzy"} 1`), ShouldBeTrue)
			})
		})
	})
}
