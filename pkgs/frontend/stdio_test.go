package frontend

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"go.acuvity.ai/minimcp/pkgs/mcp"
	"go.acuvity.ai/minimcp/pkgs/server"
	"go.acuvity.ai/minimcp/pkgs/tools"
)

type rpcResponse struct {
	ID     any             `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int64         `json:"code"`
		Message string        `json:"message"`
		Data    mcp.ErrorData `json:"data"`
	} `json:"error"`
}

func newTestServer() *server.Server {
	return server.New(tools.NewDispatcher(tools.Builtin()), mcp.Implementation{Name: "test", Version: "1.0.0"})
}

func TestStdio(t *testing.T) {

	Convey("Given I have a stdio frontend", t, func() {

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		inR, inW := io.Pipe()
		outR, outW := io.Pipe()
		out := bufio.NewReader(outR)

		f := NewStdio(newTestServer(), OptStdioStreams(inR, outW))

		done := make(chan error, 1)
		go func() { done <- f.Start(ctx) }()

		send := func(line string) {
			_, err := inW.Write([]byte(line + "\n"))
			So(err, ShouldBeNil)
		}

		receive := func() rpcResponse {
			line, err := out.ReadBytes('\n')
			So(err, ShouldBeNil)
			r := rpcResponse{}
			So(json.Unmarshal(line, &r), ShouldBeNil)
			return r
		}

		Convey("Then calling echo should work", func() {
			send(`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"echo","arguments":{"message":"hi"}}}`)
			r := receive()
			So(r.ID, ShouldEqual, 1.0)
			So(r.Error, ShouldBeNil)
			So(string(r.Result), ShouldEqual, `{"content":[{"type":"text","text":"Tool echo: hi"}],"isError":false}`)
		})

		Convey("Then windows line endings and blank lines should be accepted", func() {
			send("")
			send(`{"jsonrpc":"2.0","id":"a","method":"ping"}` + "\r")
			r := receive()
			So(r.ID, ShouldEqual, "a")
			So(string(r.Result), ShouldEqual, `{}`)
		})

		Convey("Then invalid json should be answered and skipped", func() {
			send(`this is not json`)
			r := receive()
			So(r.ID, ShouldBeNil)
			So(r.Error, ShouldNotBeNil)
			So(r.Error.Code, ShouldEqual, int64(mcp.CodeParseError))

			send(`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`)
			r = receive()
			So(r.ID, ShouldEqual, 2.0)
			So(r.Error, ShouldBeNil)
		})

		Convey("Then a missing argument should be reported", func() {
			send(`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"echo","arguments":{}}}`)
			r := receive()
			So(r.Error, ShouldNotBeNil)
			So(r.Error.Code, ShouldEqual, int64(mcp.CodeInvalidParams))
			So(r.Error.Data, ShouldResemble, mcp.ErrorData{Kind: mcp.ErrorKindMissingArgument, Tool: "echo", Argument: "message"})
		})

		Convey("Then notifications should not be answered", func() {
			send(`{"jsonrpc":"2.0","method":"notifications/initialized"}`)
			send(`{"jsonrpc":"2.0","id":4,"method":"ping"}`)
			r := receive()
			So(r.ID, ShouldEqual, 4.0)
		})

		Convey("Then closing stdin should end the session", func() {
			So(inW.Close(), ShouldBeNil)
			select {
			case err := <-done:
				So(err, ShouldBeNil)
			case <-time.After(3 * time.Second):
				t.Fatal("session should have ended")
			}
		})
	})
}
