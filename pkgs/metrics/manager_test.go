package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManager(t *testing.T) {

	Convey("Given I have a manager", t, func() {

		m := NewManager("127.0.0.1:0")

		Convey("Two managers should not conflict", func() {
			So(func() { NewManager("127.0.0.1:0") }, ShouldNotPanic)
		})

		Convey("Measuring requests should work", func() {
			m.MeasureRequest("GET", "/sse")(200)
			m.MeasureRequest("POST", "/messages/")(500)
			So(testutil.ToFloat64(m.reqTotalMetric.WithLabelValues("GET", "/sse", "200")), ShouldEqual, 1)
			So(testutil.ToFloat64(m.errorMetric.WithLabelValues("POST", "/messages/", "500")), ShouldEqual, 1)
		})

		Convey("Measuring tool calls should work", func() {
			m.MeasureToolCall("echo")("success")
			m.MeasureToolCall("echo")("success")
			m.MeasureToolCall("fetch")("upstream_error")
			So(testutil.ToFloat64(m.toolCallTotalMetric.WithLabelValues("echo", "success")), ShouldEqual, 2)
			So(testutil.ToFloat64(m.toolCallTotalMetric.WithLabelValues("fetch", "upstream_error")), ShouldEqual, 1)
		})

		Convey("Session gauges should work", func() {
			m.RegisterSession("sse")
			m.RegisterSession("sse")
			m.UnregisterSession("sse")
			So(testutil.ToFloat64(m.sessionTotalMetric.WithLabelValues("sse")), ShouldEqual, 2)
			So(testutil.ToFloat64(m.sessionCurrentMetric.WithLabelValues("sse")), ShouldEqual, 1)
		})

		Convey("Serving health should work", func() {
			w := httptest.NewRecorder()
			m.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
			So(w.Code, ShouldEqual, http.StatusNoContent)
		})

		Convey("Serving metrics should work", func() {
			m.MeasureToolCall("echo")("success")
			w := httptest.NewRecorder()
			m.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
			So(w.Code, ShouldEqual, http.StatusOK)
			data, _ := io.ReadAll(w.Body)
			So(strings.Contains(string(data), `mcp_tool_calls_total{outcome="success",tool="echo"} 1`), ShouldBeTrue)
		})

		Convey("Serving unknown path should 404", func() {
			w := httptest.NewRecorder()
			m.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}
