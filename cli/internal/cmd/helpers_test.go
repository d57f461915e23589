package cmd

import (
	"log/slog"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func TestParseCallArgs(t *testing.T) {

	Convey("Valid arguments should be parsed", t, func() {
		args, err := parseCallArgs([]string{"message=hello", "url=https://example.com/?a=b"})
		So(err, ShouldBeNil)
		So(args, ShouldResemble, map[string]any{"message": "hello", "url": "https://example.com/?a=b"})
	})

	Convey("Empty values should be accepted", t, func() {
		args, err := parseCallArgs([]string{"message="})
		So(err, ShouldBeNil)
		So(args, ShouldResemble, map[string]any{"message": ""})
	})

	Convey("Invalid arguments should fail", t, func() {
		_, err := parseCallArgs([]string{"message"})
		So(err, ShouldNotBeNil)
		_, err = parseCallArgs([]string{"=value"})
		So(err, ShouldNotBeNil)
	})
}

func TestBaseURL(t *testing.T) {

	Convey("The base url should be extracted", t, func() {
		So(baseURL("http://127.0.0.1:8000/sse"), ShouldEqual, "http://127.0.0.1:8000")
		So(baseURL("https://example.com/a/b?c=d"), ShouldEqual, "https://example.com")
	})
}

func TestConfigureLogger(t *testing.T) {

	defer slog.SetDefault(slog.Default())

	Convey("Valid configurations should work", t, func() {
		So(configureLogger("debug", "console"), ShouldBeNil)
		So(configureLogger("warn", "json"), ShouldBeNil)
		_, ok := slog.Default().Handler().(*slog.JSONHandler)
		So(ok, ShouldBeTrue)
	})

	Convey("Invalid configurations should fail", t, func() {
		So(configureLogger("loud", "console"), ShouldNotBeNil)
		So(configureLogger("info", "xml"), ShouldNotBeNil)
	})
}

func TestMakeAgentAuth(t *testing.T) {

	Convey("Given I have a clean config", t, func() {

		viper.Reset()
		defer viper.Reset()

		Convey("No credentials should give no auth", func() {
			a, err := makeAgentAuth()
			So(err, ShouldBeNil)
			So(a, ShouldBeNil)
		})

		Convey("A token should give bearer auth", func() {
			viper.Set("agent-token", "secret")
			a, err := makeAgentAuth()
			So(err, ShouldBeNil)
			So(a.Type(), ShouldEqual, "Bearer")
			So(a.Password(), ShouldEqual, "secret")
		})

		Convey("User and password should give basic auth", func() {
			viper.Set("agent-user", "user")
			viper.Set("agent-pass", "pass")
			a, err := makeAgentAuth()
			So(err, ShouldBeNil)
			So(a.Type(), ShouldEqual, "Basic")
			So(a.User(), ShouldEqual, "user")
		})

		Convey("A user without password should fail", func() {
			viper.Set("agent-user", "user")
			_, err := makeAgentAuth()
			So(err, ShouldNotBeNil)
		})

		Convey("A token with a user should fail", func() {
			viper.Set("agent-user", "user")
			viper.Set("agent-pass", "pass")
			viper.Set("agent-token", "secret")
			_, err := makeAgentAuth()
			So(err, ShouldNotBeNil)
		})
	})
}

func TestStderrBuffer(t *testing.T) {

	Convey("Writing should never fail", t, func() {
		b := newStderrBuffer(8)
		n, err := b.Write([]byte("hello"))
		So(err, ShouldBeNil)
		So(n, ShouldEqual, 5)
		n, err = b.Write([]byte(strings.Repeat("x", 20)))
		So(err, ShouldBeNil)
		So(n, ShouldEqual, 20)
		So(b.String(), ShouldStartWith, "hello")
	})
}
