package scan

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sourcegraph/jsonrpc2"
	. "github.com/smartystreets/goconvey/convey"
	"go.acuvity.ai/minimcp/pkgs/mcp"
	"go.acuvity.ai/minimcp/pkgs/server"
	"go.acuvity.ai/minimcp/pkgs/tools"
)

func TestHashTools(t *testing.T) {

	Convey("Hashing the builtin tools should work", t, func() {

		hashes, err := HashTools(tools.Builtin().MCPTools())
		So(err, ShouldBeNil)
		So(len(hashes), ShouldEqual, 2)
		So(hashes[0].Name, ShouldEqual, "echo")
		So(hashes[0].Hash, ShouldEqual, sum("Echo a message"))
		So(hashes[0].Params, ShouldResemble, Hashes{{Name: "message", Hash: sum("Message to echo")}})
		So(hashes[1].Name, ShouldEqual, "fetch")
		So(len(hashes[1].Params), ShouldEqual, 1)
		So(hashes[1].Params[0].Name, ShouldEqual, "url")
	})

	Convey("Hashing a tool with no name should fail", t, func() {
		_, err := HashTools(mcp.Tools{{Description: "nope"}})
		So(err, ShouldNotBeNil)
	})

	Convey("Hashing a tool with no schema should work", t, func() {
		hashes, err := HashTools(mcp.Tools{{Name: "a", Description: "b"}})
		So(err, ShouldBeNil)
		So(hashes, ShouldResemble, Hashes{{Name: "a", Hash: sum("b")}})
	})
}

func TestMatches(t *testing.T) {

	ref := Hashes{
		{Name: "a", Hash: "1", Params: Hashes{{Name: "x", Hash: "2"}}},
		{Name: "b", Hash: "3"},
	}

	Convey("Identical hashes should match", t, func() {
		So(ref.Matches(Hashes{{Name: "b", Hash: "3"}, {Name: "a", Hash: "1", Params: Hashes{{Name: "x", Hash: "2"}}}}), ShouldBeNil)
	})

	Convey("Missing tool should not match", t, func() {
		So(ref.Matches(Hashes{{Name: "a", Hash: "1", Params: Hashes{{Name: "x", Hash: "2"}}}}), ShouldNotBeNil)
	})

	Convey("Extra tool should not match", t, func() {
		err := ref.Matches(Hashes{{Name: "b", Hash: "3"}, {Name: "c", Hash: "3"}})
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldEqual, "'c': missing")
	})

	Convey("Changed description should not match", t, func() {
		err := ref.Matches(Hashes{{Name: "b", Hash: "4"}, {Name: "a", Hash: "1", Params: Hashes{{Name: "x", Hash: "2"}}}})
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldEqual, "'b': hash mismatch")
	})

	Convey("Changed argument should not match", t, func() {
		err := ref.Matches(Hashes{{Name: "b", Hash: "3"}, {Name: "a", Hash: "1", Params: Hashes{{Name: "x", Hash: "5"}}}})
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldEqual, "'a': invalid param: 'x': hash mismatch")
	})
}

func TestLoadSBOM(t *testing.T) {

	Convey("Loading a valid sbom should work", t, func() {
		p := filepath.Join(t.TempDir(), "sbom.json")
		So(os.WriteFile(p, []byte(`{"tools":[{"name":"a","hash":"1"}]}`), 0600), ShouldBeNil)

		sbom, err := LoadSBOM(p)
		So(err, ShouldBeNil)
		So(sbom.Tools, ShouldResemble, Hashes{{Name: "a", Hash: "1"}})
	})

	Convey("Loading a missing sbom should fail", t, func() {
		_, err := LoadSBOM(filepath.Join(t.TempDir(), "nope.json"))
		So(err, ShouldNotBeNil)
	})

	Convey("Loading an invalid sbom should fail", t, func() {
		p := filepath.Join(t.TempDir(), "sbom.json")
		So(os.WriteFile(p, []byte(`{nope`), 0600), ShouldBeNil)
		_, err := LoadSBOM(p)
		So(err, ShouldNotBeNil)
	})
}

func TestListTools(t *testing.T) {

	Convey("Listing tools from a server should work", t, func() {

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		srv := server.New(tools.NewDispatcher(tools.Builtin()), mcp.Implementation{Name: "test", Version: "1"})

		c1, c2 := net.Pipe()
		go func() { _ = srv.Serve(ctx, jsonrpc2.NewBufferedStream(c1, jsonrpc2.PlainObjectCodec{})) }()

		conn := jsonrpc2.NewConn(ctx, jsonrpc2.NewBufferedStream(c2, jsonrpc2.PlainObjectCodec{}), jsonrpc2.HandlerWithError(func(context.Context, *jsonrpc2.Conn, *jsonrpc2.Request) (any, error) { return nil, nil }))
		defer func() { _ = conn.Close() }()

		list, err := ListTools(ctx, conn, mcp.Implementation{Name: "client", Version: "1"})
		So(err, ShouldBeNil)
		So(len(list), ShouldEqual, 2)
		So(list[0].Name, ShouldEqual, "fetch")
		So(list[1].Name, ShouldEqual, "echo")

		remote, err := HashTools(list)
		So(err, ShouldBeNil)
		local, err := HashTools(tools.Builtin().MCPTools())
		So(err, ShouldBeNil)
		So(local.Matches(remote), ShouldBeNil)
	})
}
