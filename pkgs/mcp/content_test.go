package mcp

import (
	"encoding/json"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestContents(t *testing.T) {

	Convey("Given I have a mixed list of contents", t, func() {

		c := Contents{
			&TextContent{Text: "hello"},
			&ImageContent{Data: "aGVsbG8=", MIMEType: "image/png"},
			&EmbeddedResource{Resource: ResourceContents{URI: "file:///a", Text: "a"}},
		}

		Convey("When I encode it", func() {

			data, err := json.Marshal(c)
			So(err, ShouldBeNil)

			Convey("Then every item should carry its type", func() {
				So(string(data), ShouldEqual, `[{"type":"text","text":"hello"},{"type":"image","data":"aGVsbG8=","mimeType":"image/png"},{"type":"resource","resource":{"uri":"file:///a","text":"a"}}]`)
			})

			Convey("Then decoding it back should give the same variants", func() {
				out := Contents{}
				So(json.Unmarshal(data, &out), ShouldBeNil)
				So(out, ShouldResemble, c)
			})
		})
	})

	Convey("Decoding an unknown content type should fail", t, func() {
		out := Contents{}
		err := json.Unmarshal([]byte(`[{"type":"audio"}]`), &out)
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldEqual, "unable to decode content 0: unknown type 'audio'")
	})

	Convey("A call result should encode with an empty error flag", t, func() {
		data, err := json.Marshal(CallToolResult{Content: NewTextContents("Tool echo: hi")})
		So(err, ShouldBeNil)
		So(string(data), ShouldEqual, `{"content":[{"type":"text","text":"Tool echo: hi"}],"isError":false}`)
	})
}

func TestNegotiateProtocolVersion(t *testing.T) {

	Convey("Supported versions should be echoed", t, func() {
		So(NegotiateProtocolVersion(ProtocolVersion20241105), ShouldEqual, ProtocolVersion20241105)
		So(NegotiateProtocolVersion(ProtocolVersion20250326), ShouldEqual, ProtocolVersion20250326)
	})

	Convey("Unsupported versions should get the latest", t, func() {
		So(NegotiateProtocolVersion("1999-01-01"), ShouldEqual, LatestProtocolVersion)
		So(NegotiateProtocolVersion(""), ShouldEqual, LatestProtocolVersion)
	})
}
