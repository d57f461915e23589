package frontend

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"sync"

	"github.com/sourcegraph/jsonrpc2"
	"go.acuvity.ai/minimcp/pkgs/internal/sanitize"
	"go.acuvity.ai/minimcp/pkgs/mcp"
	"go.acuvity.ai/wsc"
)

// errorReply is sent back when an incoming message
// cannot be decoded, as no request id can be known.
type errorReply struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Error   *jsonrpc2.Error `json:"error"`
}

func invalidMessageReply(data []byte, err error) any {

	code := int64(mcp.CodeInvalidRequest)
	msg := "invalid request"

	if !json.Valid(data) {
		code = mcp.CodeParseError
		msg = "parse error"
	}

	return errorReply{
		JSONRPC: "2.0",
		Error: &jsonrpc2.Error{
			Code:    code,
			Message: msg + ": " + err.Error(),
		},
	}
}

// lineStream is a jsonrpc2.ObjectStream reading and writing
// newline delimited JSON messages.
type lineStream struct {
	r      *bufio.Reader
	w      io.Writer
	closer io.Closer
	wLock  sync.Mutex
}

func newLineStream(r io.Reader, w io.Writer, closer io.Closer) *lineStream {
	return &lineStream{
		r:      bufio.NewReader(r),
		w:      w,
		closer: closer,
	}
}

// ReadObject implements jsonrpc2.ObjectStream. Blank lines are
// ignored. Lines that cannot be decoded are answered with an error
// and skipped.
func (s *lineStream) ReadObject(v any) error {

	for {

		line, err := s.r.ReadBytes('\n')

		line = sanitize.Line(line)

		if len(bytes.TrimSpace(line)) == 0 {
			if err != nil {
				return err
			}
			continue
		}

		if derr := json.Unmarshal(line, v); derr != nil {

			slog.Debug("Skipping undecodable line", "err", derr)

			if werr := s.WriteObject(invalidMessageReply(line, derr)); werr != nil {
				return werr
			}

			if err != nil {
				return err
			}

			continue
		}

		return nil
	}
}

// WriteObject implements jsonrpc2.ObjectStream.
func (s *lineStream) WriteObject(obj any) error {

	data, err := json.Marshal(obj)
	if err != nil {
		return err
	}

	s.wLock.Lock()
	defer s.wLock.Unlock()

	_, err = s.w.Write(append(data, '\n'))

	return err
}

// Close implements jsonrpc2.ObjectStream.
func (s *lineStream) Close() error {

	if s.closer == nil {
		return nil
	}

	return s.closer.Close()
}

// wsStream is a jsonrpc2.ObjectStream over a websocket.
// Every websocket message holds one JSON message.
type wsStream struct {
	ws wsc.Websocket
}

func newWSStream(ws wsc.Websocket) *wsStream {
	return &wsStream{ws: ws}
}

// ReadObject implements jsonrpc2.ObjectStream.
func (s *wsStream) ReadObject(v any) error {

	for {
		select {

		case data, ok := <-s.ws.Read():

			if !ok {
				return io.EOF
			}

			data = sanitize.Line(data)
			if len(bytes.TrimSpace(data)) == 0 {
				continue
			}

			if err := json.Unmarshal(data, v); err != nil {
				slog.Debug("Skipping undecodable websocket message", "err", err)
				if werr := s.WriteObject(invalidMessageReply(data, err)); werr != nil {
					return werr
				}
				continue
			}

			return nil

		case err := <-s.ws.Done():
			if err != nil {
				slog.Debug("Websocket closed", "err", err)
			}
			return io.EOF
		}
	}
}

// WriteObject implements jsonrpc2.ObjectStream.
func (s *wsStream) WriteObject(obj any) error {

	data, err := json.Marshal(obj)
	if err != nil {
		return err
	}

	s.ws.Write(data)

	return nil
}

// Close implements jsonrpc2.ObjectStream.
func (s *wsStream) Close() error {
	s.ws.Close(1000)
	return nil
}
