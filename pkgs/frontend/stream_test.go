package frontend

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"go.acuvity.ai/minimcp/pkgs/mcp"
	"go.acuvity.ai/wsc"
)

func TestInvalidMessageReply(t *testing.T) {

	Convey("Invalid json should be a parse error", t, func() {
		r := invalidMessageReply([]byte(`{nope`), errors.New("oops")).(errorReply)
		So(r.JSONRPC, ShouldEqual, "2.0")
		So(r.ID, ShouldBeNil)
		So(r.Error.Code, ShouldEqual, int64(mcp.CodeParseError))
		So(r.Error.Message, ShouldEqual, "parse error: oops")
	})

	Convey("Valid json that is not a message should be an invalid request", t, func() {
		r := invalidMessageReply([]byte(`[1,2]`), errors.New("oops")).(errorReply)
		So(r.Error.Code, ShouldEqual, int64(mcp.CodeInvalidRequest))
		So(r.Error.Message, ShouldEqual, "invalid request: oops")
	})

	Convey("The reply should encode with a null id", t, func() {
		data, err := json.Marshal(invalidMessageReply([]byte(`{`), errors.New("oops")))
		So(err, ShouldBeNil)
		So(string(data), ShouldEqual, `{"jsonrpc":"2.0","id":null,"error":{"code":-32700,"message":"parse error: oops"}}`)
	})
}

func TestLineStream(t *testing.T) {

	Convey("Given I have a line stream", t, func() {

		out := &bytes.Buffer{}
		s := newLineStream(strings.NewReader("\n{\"a\":1}\r\n\nnot json\n{\"a\":2}"), out, nil)

		Convey("Then reading should skip blank and invalid lines", func() {

			v := map[string]int{}
			So(s.ReadObject(&v), ShouldBeNil)
			So(v["a"], ShouldEqual, 1)

			v = map[string]int{}
			So(s.ReadObject(&v), ShouldBeNil)
			So(v["a"], ShouldEqual, 2)
			So(out.String(), ShouldStartWith, `{"jsonrpc":"2.0","id":null,"error":{"code":-32700`)
			So(out.String(), ShouldEndWith, "\n")

			So(s.ReadObject(&v), ShouldEqual, io.EOF)
		})

		Convey("Then writing should write one line per object", func() {
			So(s.WriteObject(map[string]int{"a": 1}), ShouldBeNil)
			So(s.WriteObject(map[string]int{"b": 2}), ShouldBeNil)
			So(out.String(), ShouldEqual, "{\"a\":1}\n{\"b\":2}\n")
		})

		Convey("Then closing without closer should work", func() {
			So(s.Close(), ShouldBeNil)
		})
	})
}

func TestWSStream(t *testing.T) {

	Convey("Given I have a websocket stream", t, func() {

		ws := wsc.NewMockWebsocket(t.Context())
		s := newWSStream(ws)

		Convey("Then reading should decode messages", func() {
			go ws.NextRead([]byte(`{"a":1}`))
			v := map[string]int{}
			So(s.ReadObject(&v), ShouldBeNil)
			So(v["a"], ShouldEqual, 1)
		})

		Convey("Then invalid messages should be answered and skipped", func() {
			go func() {
				ws.NextRead([]byte(`nope`))
				ws.NextRead([]byte(`{"a":3}`))
			}()
			v := map[string]int{}
			So(s.ReadObject(&v), ShouldBeNil)
			So(v["a"], ShouldEqual, 3)
			So(string(<-ws.LastWrite()), ShouldStartWith, `{"jsonrpc":"2.0","id":null,"error":{"code":-32700`)
		})

		Convey("Then writing should send one message per object", func() {
			So(s.WriteObject(map[string]int{"a": 1}), ShouldBeNil)
			So(string(<-ws.LastWrite()), ShouldEqual, `{"a":1}`)
		})
	})
}
