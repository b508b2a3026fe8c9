package session

import (
	"errors"
	"sync"

	"github.com/vovakirdan/rankchat-server/internal/utils"
)

var (
	// ErrSessionClosed is returned when sending to a closed session.
	ErrSessionClosed = errors.New("session closed")
	// ErrSlowConsumer is returned when the outbound buffer is full.
	ErrSlowConsumer = errors.New("slow consumer")
)

// Session is one live connection of a user.
type Session struct {
	ID   string
	User string

	mu     sync.Mutex
	closed bool
	out    chan []byte
}

// New constructs an open session with a bounded outbound buffer.
func New(user string, buffer int) *Session {
	if buffer <= 0 {
		buffer = 1
	}
	return &Session{
		ID:   utils.NewID(),
		User: user,
		out:  make(chan []byte, buffer),
	}
}

// IsOpen reports whether the session still accepts frames.
func (s *Session) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}

// Send queues a frame without blocking.
func (s *Session) Send(frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	select {
	case s.out <- frame:
		return nil
	default:
		return ErrSlowConsumer
	}
}

// Out is drained by the transport write loop. It is closed by Close.
func (s *Session) Out() <-chan []byte {
	return s.out
}

// Close marks the session closed. Safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	close(s.out)
}
