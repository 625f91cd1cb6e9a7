// Package session owns the lifecycle of per-visitor state: an opaque token,
// the shopping cart, and the identity of the user once they authenticate.
// Sessions expire after a fixed window of inactivity.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"supermarket/cart"
)

const DefaultTTL = 15 * time.Minute

type Session struct {
	Token  string
	UserID primitive.ObjectID
	Cart   *cart.Cart

	mu       sync.Mutex
	lastSeen time.Time
}

// Do runs fn while holding the session lock. Two requests from the same
// session (a cart edit racing a payment stream, say) never see the cart
// mid-mutation.
func (s *Session) Do(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

// NewStore creates a session store with sliding expiry and starts a janitor
// that evicts idle sessions.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	st := &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		stop:     make(chan struct{}),
	}
	go st.janitor()
	return st
}

func (st *Store) Create() *Session {
	sess := &Session{
		Token:    uuid.NewString(),
		Cart:     cart.New(),
		lastSeen: time.Now(),
	}
	st.mu.Lock()
	st.sessions[sess.Token] = sess
	st.mu.Unlock()
	return sess
}

// Get returns the live session for token and slides its expiry forward.
// Expired sessions are treated as absent even before the janitor runs.
func (st *Store) Get(token string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	sess, ok := st.sessions[token]
	if !ok {
		return nil, false
	}
	if time.Since(sess.lastSeen) > st.ttl {
		delete(st.sessions, token)
		return nil, false
	}
	sess.lastSeen = time.Now()
	return sess, true
}

func (st *Store) Destroy(token string) {
	st.mu.Lock()
	delete(st.sessions, token)
	st.mu.Unlock()
}

func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

func (st *Store) Close() {
	st.stopOnce.Do(func() { close(st.stop) })
}

func (st *Store) janitor() {
	interval := st.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-st.stop:
			return
		case <-ticker.C:
			st.sweep()
		}
	}
}

func (st *Store) sweep() {
	now := time.Now()
	st.mu.Lock()
	for token, sess := range st.sessions {
		if now.Sub(sess.lastSeen) > st.ttl {
			delete(st.sessions, token)
		}
	}
	st.mu.Unlock()
}
