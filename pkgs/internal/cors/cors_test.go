package cors

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"go.acuvity.ai/bahamut"
)

func TestHandle(t *testing.T) {

	Convey("Given I have a response writer, req and policy", t, func() {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/sse", nil)
		pol := &bahamut.CORSPolicy{
			AllowOrigin:      "https://coucou.test",
			AllowCredentials: true,
			MaxAge:           1500,
			AllowHeaders: []string{
				"Authorization",
			},
			AllowMethods: []string{
				"GET",
				"POST",
				"OPTIONS",
			},
		}

		Convey("Calling Handle should answer preflights", func() {

			req.Method = http.MethodOptions

			So(Handle(w, req, pol), ShouldBeFalse)
			So(w.Code, ShouldEqual, http.StatusNoContent)
			So(w.Result().Header, ShouldResemble, http.Header{
				"Access-Control-Allow-Credentials": {"true"},
				"Access-Control-Allow-Headers":     {"Authorization"},
				"Access-Control-Allow-Methods":     {"GET, POST, OPTIONS"},
				"Access-Control-Allow-Origin":      {"https://coucou.test"},
				"Access-Control-Expose-Headers":    {""},
				"Access-Control-Max-Age":           {"1500"},
				"X-Content-Type-Options":           {"nosniff"},
				"X-Frame-Options":                  {"DENY"},
			})
		})

		Convey("Calling Handle should let other requests through", func() {

			req.Method = http.MethodPost

			So(Handle(w, req, pol), ShouldBeTrue)
			So(w.Result().Header, ShouldResemble, http.Header{
				"Access-Control-Allow-Credentials": {"true"},
				"Access-Control-Allow-Origin":      {"https://coucou.test"},
				"Access-Control-Expose-Headers":    {""},
				"X-Content-Type-Options":           {"nosniff"},
				"X-Frame-Options":                  {"DENY"},
			})
		})

		Convey("Calling Handle should work with no policy", func() {

			So(Handle(w, req, nil), ShouldBeTrue)
			So(w.Result().Header, ShouldResemble, http.Header{
				"X-Content-Type-Options": {"nosniff"},
				"X-Frame-Options":        {"DENY"},
			})
		})

		Convey("Calling Handle over tls should set hsts", func() {

			req.TLS = &tls.ConnectionState{}

			So(Handle(w, req, nil), ShouldBeTrue)
			So(w.Result().Header.Get("Strict-Transport-Security"), ShouldEqual, "max-age=31536000; includeSubDomains; preload")
		})
	})
}

func TestMiddleware(t *testing.T) {

	Convey("Given I have a handler behind the middleware", t, func() {

		called := false
		h := Middleware(&bahamut.CORSPolicy{AllowOrigin: "*", AllowMethods: []string{"GET"}})(
			http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) { called = true }),
		)

		Convey("Preflights should not reach the handler", func() {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/sse", nil))
			So(called, ShouldBeFalse)
			So(w.Code, ShouldEqual, http.StatusNoContent)
		})

		Convey("Other requests should reach the handler", func() {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sse", nil))
			So(called, ShouldBeTrue)
		})
	})
}
