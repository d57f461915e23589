package session

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"maps"
	"sync"
)

// ErrClosed is returned when using a closed session.
var ErrClosed = errors.New("session closed")

const inboundQueueSize = 64

// A Session represents an active agent session over SSE.
//
// Messages POSTed by the agent are pushed with Write and are read
// by the protocol server through ReadObject. Messages written by
// the protocol server through WriteObject are delivered to every
// registered hook, which is usually the event stream of the agent.
//
// A Session implements jsonrpc2.ObjectStream.
//
// The session must be acquired through a session manager when used
// and released when done. When the count reaches zero, the session
// is closed.
type Session struct {
	closeCh   chan struct{}
	closeOnce sync.Once
	count     int
	countLock sync.RWMutex
	h         uint64
	hookLock  sync.RWMutex
	hooks     map[chan []byte]struct{}
	id        string
	in        chan []byte
	invalid   func([]byte, error) any
}

// New returns a new session bound to the given credentials hash.
// The returned session has a count of 1.
func New(sid string, credsHash uint64) *Session {

	s := &Session{
		h:       credsHash,
		count:   1,
		id:      sid,
		closeCh: make(chan struct{}),
		hooks:   map[chan []byte]struct{}{},
		in:      make(chan []byte, inboundQueueSize),
	}

	slog.Debug("session created", "sid", s.id, "c", s.count)

	return s
}

// ID returns the session ID.
func (s *Session) ID() string {
	return s.id
}

// Write queues a message coming from the agent.
func (s *Session) Write(ctx context.Context, data []byte) error {

	select {
	case <-s.closeCh:
		return ErrClosed
	default:
	}

	select {
	case s.in <- data:
		return nil
	case <-s.closeCh:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ReadObject reads the next queued message into v.
// It returns io.EOF once the session is closed.
// Messages that cannot be decoded are skipped.
func (s *Session) ReadObject(v any) error {

	for {
		select {

		case data := <-s.in:

			if err := json.Unmarshal(data, v); err != nil {
				slog.Debug("Skipping undecodable message", "sid", s.id, "err", err)
				if s.invalid != nil {
					_ = s.WriteObject(s.invalid(data, err))
				}
				continue
			}

			return nil

		case <-s.closeCh:
			return io.EOF
		}
	}
}

// OnInvalidMessage sets the function building the reply
// sent when a queued message cannot be decoded.
func (s *Session) OnInvalidMessage(f func([]byte, error) any) {
	s.invalid = f
}

// WriteObject encodes obj and delivers it to every registered hook.
func (s *Session) WriteObject(obj any) error {

	data, err := json.Marshal(obj)
	if err != nil {
		return err
	}

	hooks := s.getHooks()
	if len(hooks) == 0 {
		slog.Debug("Session has no hook to send data to", "sid", s.id)
		return nil
	}

	for c := range hooks {
		select {
		case c <- data:
		case <-s.closeCh:
			return io.ErrClosedPipe
		}
	}

	return nil
}

// Done returns a channel that closes
// when the session closes.
func (s *Session) Done() <-chan struct{} {
	return s.closeCh
}

// ValidateHash validates the session hash.
func (s *Session) ValidateHash(h uint64) bool {
	return h == s.h
}

// Close closes the session. It is safe to call it
// multiple times.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		close(s.closeCh)
		slog.Debug("session closed", "sid", s.id)
	})
	return nil
}

func (s *Session) acquire() {
	s.countLock.Lock()
	defer s.countLock.Unlock()

	s.count++
	slog.Debug("session acquired", "sid", s.id, "c", s.count)
}

func (s *Session) release() bool {
	s.countLock.Lock()
	defer s.countLock.Unlock()

	s.count--
	slog.Debug("session released", "sid", s.id, "c", s.count, "deleted", s.count <= 0)

	if s.count <= 0 {
		_ = s.Close()
		return true
	}

	return false
}

func (s *Session) register(c chan []byte) {
	s.hookLock.Lock()
	defer s.hookLock.Unlock()

	s.hooks[c] = struct{}{}
}

func (s *Session) unregister(c chan []byte) {
	s.hookLock.Lock()
	defer s.hookLock.Unlock()

	delete(s.hooks, c)
}

func (s *Session) getCount() int {
	s.countLock.RLock()
	defer s.countLock.RUnlock()
	return s.count
}

func (s *Session) getHooks() map[chan []byte]struct{} {
	s.hookLock.RLock()
	defer s.hookLock.RUnlock()
	return maps.Clone(s.hooks)
}
