package frontend

import "context"

// A Frontend is the interface of object that can
// expose a server.Server over a transport.
type Frontend interface {
	Start(context.Context) error
}
