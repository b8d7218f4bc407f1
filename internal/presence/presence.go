// Package presence tracks which players are online and queues clan messages for them.
package presence

import (
	"errors"
	"sync"

	"github.com/udisondev/clans/internal/clan"
)

const defaultQueueSize = 64

// Delivery errors.
var (
	ErrQueueFull = errors.New("message queue full")
	ErrClosed    = errors.New("session closed")
)

// Session is an online player's outbound message queue.
// Send never blocks: a full queue drops the message with ErrQueueFull.
type Session struct {
	name string

	sendCh    chan string
	closeCh   chan struct{}
	closeOnce sync.Once
}

// Name returns the player name the session was opened for.
func (s *Session) Name() string { return s.name }

// Send queues msg for delivery.
func (s *Session) Send(msg string) error {
	select {
	case <-s.closeCh:
		return ErrClosed
	default:
	}

	select {
	case s.sendCh <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

// Messages returns the delivery channel. The consumer drains it until Done is closed.
func (s *Session) Messages() <-chan string { return s.sendCh }

// Done is closed when the session ends.
func (s *Session) Done() <-chan struct{} { return s.closeCh }

// Drain returns every queued message without blocking.
func (s *Session) Drain() []string {
	var out []string
	for {
		select {
		case msg := <-s.sendCh:
			out = append(out, msg)
		default:
			return out
		}
	}
}

func (s *Session) close() {
	s.closeOnce.Do(func() { close(s.closeCh) })
}

// Registry is the set of online sessions, keyed by lowercase player name.
// Thread-safe. Implements clan.Presence.
type Registry struct {
	mu        sync.RWMutex
	sessions  map[string]*Session
	queueSize int
}

var _ clan.Presence = (*Registry)(nil)

// NewRegistry creates a registry whose sessions buffer queueSize messages.
// A non-positive queueSize uses the default.
func NewRegistry(queueSize int) *Registry {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &Registry{
		sessions:  make(map[string]*Session, 64),
		queueSize: queueSize,
	}
}

// Connect marks the player online and returns the new session.
// An existing session for the same player is closed and replaced.
func (r *Registry) Connect(name string) *Session {
	s := &Session{
		name:    name,
		sendCh:  make(chan string, r.queueSize),
		closeCh: make(chan struct{}),
	}
	key := clan.NormalizeName(name)

	r.mu.Lock()
	old := r.sessions[key]
	r.sessions[key] = s
	r.mu.Unlock()

	if old != nil {
		old.close()
	}
	return s
}

// Disconnect marks the player offline and closes the session.
func (r *Registry) Disconnect(name string) {
	key := clan.NormalizeName(name)

	r.mu.Lock()
	s, ok := r.sessions[key]
	delete(r.sessions, key)
	r.mu.Unlock()

	if ok {
		s.close()
	}
}

// IsOnline reports whether the player has an open session.
func (r *Registry) IsOnline(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.sessions[clan.NormalizeName(name)]
	return ok
}

// Sink returns the player's session as a message sink.
func (r *Registry) Sink(name string) (clan.MessageSink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[clan.NormalizeName(name)]
	if !ok {
		return nil, false
	}
	return s, true
}

// Count returns the number of online players.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
