package hub

import (
	"sync"

	"github.com/google/uuid"
)

// sendBuffer is how many marshaled events a session may have queued before
// the hub gives up on it and drops the connection. Dropping instead of
// skipping keeps the delivered stream gap-free and in order.
const sendBuffer = 64

// Session is one live, identity-bound push channel. The transport layer owns
// the network connection and drains Outbox; the hub only ever enqueues.
type Session struct {
	ID      string
	Account string

	send chan []byte
	done chan struct{}
	once sync.Once
}

func NewSession(account string) *Session {
	return &Session{
		ID:      uuid.NewString(),
		Account: account,
		send:    make(chan []byte, sendBuffer),
		done:    make(chan struct{}),
	}
}

// Outbox yields marshaled events in publish order.
func (s *Session) Outbox() <-chan []byte { return s.send }

// Done is closed when the session is no longer live.
func (s *Session) Done() <-chan struct{} { return s.done }

// Close marks the session dead. Safe to call more than once and from any
// goroutine; the send channel itself stays open so concurrent enqueues never
// panic.
func (s *Session) Close() {
	s.once.Do(func() { close(s.done) })
}

// enqueue offers one marshaled event without blocking. Returns false when the
// session is dead or its buffer is full.
func (s *Session) enqueue(msg []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.send <- msg:
		return true
	default:
		return false
	}
}
