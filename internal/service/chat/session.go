package chat

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrSessionClosed = errors.New("session closed")
	ErrSendQueueFull = errors.New("session send queue full")
)

// Session is one client's live connection: the client-chosen ID plus a
// bounded outbound queue drained by the connection's write pump. ClientID is
// not guaranteed unique; Instance distinguishes two sessions that claimed
// the same ID so cleanup only retires registry entries it still owns.
type Session struct {
	ClientID string
	Instance string

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// NewSession allocates a session with a send queue of the given capacity.
func NewSession(clientID string, queueSize int) *Session {
	if queueSize < 1 {
		queueSize = 1
	}
	return &Session{
		ClientID: clientID,
		Instance: uuid.NewString(),
		send:     make(chan []byte, queueSize),
		done:     make(chan struct{}),
	}
}

// Enqueue hands a payload to the session's write pump without blocking.
// A full queue means the client has stopped draining; callers treat that
// the same as a broken transport.
func (s *Session) Enqueue(payload []byte) error {
	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}
	select {
	case s.send <- payload:
		return nil
	case <-s.done:
		return ErrSessionClosed
	default:
		return ErrSendQueueFull
	}
}

// Outbound is the queue the write pump drains.
func (s *Session) Outbound() <-chan []byte { return s.send }

// Done is closed once the session is retired.
func (s *Session) Done() <-chan struct{} { return s.done }

// Close marks the session finished. Safe to call more than once and from
// any goroutine; the write pump flushes anything still queued and then
// closes the connection.
func (s *Session) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}
