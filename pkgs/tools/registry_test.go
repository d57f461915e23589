package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
	. "github.com/smartystreets/goconvey/convey"
	"go.acuvity.ai/minimcp/pkgs/mcp"
)

func TestRegistry(t *testing.T) {

	Convey("Given I have the builtin registry", t, func() {

		r := Builtin()

		Convey("Then listing should return fetch then echo", func() {
			l := r.List()
			So(len(l), ShouldEqual, 2)
			So(l[0].Name, ShouldEqual, Fetch)
			So(l[0].Description, ShouldEqual, "Fetches a website and returns its content")
			So(l[0].InputSchema.Required, ShouldResemble, []string{"url"})
			So(l[0].InputSchema.Properties["url"].Type, ShouldEqual, "string")
			So(l[1].Name, ShouldEqual, Echo)
			So(l[1].Description, ShouldEqual, "Echo a message")
			So(l[1].InputSchema.Required, ShouldResemble, []string{"message"})
			So(l[1].InputSchema.Properties["message"].Description, ShouldEqual, "Message to echo")
		})

		Convey("Then listing twice should encode to identical bytes", func() {
			d1, err := json.Marshal(mcp.ListToolsResult{Tools: r.MCPTools()})
			So(err, ShouldBeNil)
			d2, err := json.Marshal(mcp.ListToolsResult{Tools: r.MCPTools()})
			So(err, ShouldBeNil)
			So(string(d1), ShouldEqual, string(d2))
			So(string(d1), ShouldEqual, `{"tools":[`+
				`{"name":"fetch","description":"Fetches a website and returns its content","inputSchema":{"type":"object","properties":{"url":{"type":"string","description":"URL to fetch"}},"required":["url"]}},`+
				`{"name":"echo","description":"Echo a message","inputSchema":{"type":"object","properties":{"message":{"type":"string","description":"Message to echo"}},"required":["message"]}}`+
				`]}`)
		})

		Convey("Then modifying the listing should not modify the registry", func() {
			l := r.List()
			l[0] = Descriptor{Name: "nope"}
			So(r.List()[0].Name, ShouldEqual, Fetch)
		})

		Convey("Then lookup should work", func() {
			tool, ok := r.Lookup("echo")
			So(ok, ShouldBeTrue)
			So(tool.Name, ShouldEqual, Echo)

			_, ok = r.Lookup("Echo")
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Registering two tools with the same name should fail", t, func() {
		_, err := NewRegistry(NewEcho(), NewEcho())
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldEqual, "tool 'echo' already registered")
	})

	Convey("Registering a tool without a name should fail", t, func() {
		_, err := NewRegistry(New(Descriptor{InputSchema: &jsonschema.Schema{Type: "object"}}, nil))
		So(err, ShouldNotBeNil)
	})

	Convey("Registering a tool without schema should fail", t, func() {
		_, err := NewRegistry(New(Descriptor{Name: "thing"}, func(context.Context, map[string]any) (mcp.Contents, error) { return nil, nil }))
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldEqual, "tool 'thing' has no input schema")
	})
}
