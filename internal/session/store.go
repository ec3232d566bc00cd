package session

import (
	"sync"
)

type User struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
}

// Session is the operator's authenticated state. It is replaced wholesale on
// refresh and removed on logout.
type Session struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	User         User   `json:"user"`
}

// Listener observes every committed write. ok is false after Clear.
type Listener func(s Session, ok bool)

// Store holds at most one Session. All writes are serialized; every write bumps
// the generation so a caller can commit conditionally on nothing having changed
// in between.
type Store struct {
	mu        sync.RWMutex
	current   *Session
	gen       uint64
	nextID    int
	listeners map[int]Listener
}

func NewStore() *Store {
	return &Store{listeners: make(map[int]Listener)}
}

// Get returns a copy of the current session.
func (s *Store) Get() (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return Session{}, false
	}
	return *s.current, true
}

// Snapshot returns the current session together with its generation.
func (s *Store) Snapshot() (Session, uint64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return Session{}, s.gen, false
	}
	return *s.current, s.gen, true
}

func (s *Store) Set(sess Session) {
	s.mu.Lock()
	s.write(&sess)
	listeners := s.listenersLocked()
	s.mu.Unlock()
	notify(listeners, sess, true)
}

// CommitIf replaces the session only if the store is still at generation gen
// and still holds a session. It reports whether the write happened.
func (s *Store) CommitIf(gen uint64, sess Session) bool {
	s.mu.Lock()
	if s.gen != gen || s.current == nil {
		s.mu.Unlock()
		return false
	}
	s.write(&sess)
	listeners := s.listenersLocked()
	s.mu.Unlock()
	notify(listeners, sess, true)
	return true
}

func (s *Store) Clear() {
	s.mu.Lock()
	s.write(nil)
	listeners := s.listenersLocked()
	s.mu.Unlock()
	notify(listeners, Session{}, false)
}

// ClearIf removes the session only if the store is still at generation gen.
func (s *Store) ClearIf(gen uint64) bool {
	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return false
	}
	s.write(nil)
	listeners := s.listenersLocked()
	s.mu.Unlock()
	notify(listeners, Session{}, false)
	return true
}

// Subscribe registers fn for every subsequent write and returns a function that
// removes it.
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

func (s *Store) write(sess *Session) {
	s.current = sess
	s.gen++
}

func (s *Store) listenersLocked() []Listener {
	out := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		out = append(out, fn)
	}
	return out
}

func notify(listeners []Listener, sess Session, ok bool) {
	for _, fn := range listeners {
		fn(sess, ok)
	}
}
