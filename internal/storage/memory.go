package storage

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the in-process Store used when Redis is unavailable and in
// tests. Sessions idle for longer than ttl are dropped lazily.
type MemoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]*memSession
}

type memSession struct {
	values  map[string]string
	touched time.Time
}

// NewMemoryStore returns an empty store. A zero ttl never expires sessions.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, now: time.Now, sessions: map[string]*memSession{}}
}

// session returns the live session for sid, creating it when create is set.
// Callers hold mu.
func (s *MemoryStore) session(sid string, create bool) *memSession {
	now := s.now()
	sess, ok := s.sessions[sid]
	if ok && s.ttl > 0 && now.Sub(sess.touched) > s.ttl {
		delete(s.sessions, sid)
		ok = false
	}
	if !ok {
		if !create {
			return nil
		}
		sess = &memSession{values: map[string]string{}}
		s.sessions[sid] = sess
	}
	sess.touched = now
	return sess
}

func (s *MemoryStore) Get(_ context.Context, sid, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.session(sid, false)
	if sess == nil {
		return "", ErrNotFound
	}
	v, ok := sess.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (s *MemoryStore) Set(_ context.Context, sid, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session(sid, true).values[key] = value
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, sid, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.session(sid, false)
	if sess == nil {
		return false, nil
	}
	_, ok := sess.values[key]
	delete(sess.values, key)
	return ok, nil
}

func (s *MemoryStore) Take(_ context.Context, sid, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.session(sid, false)
	if sess == nil {
		return "", ErrNotFound
	}
	v, ok := sess.values[key]
	if !ok {
		return "", ErrNotFound
	}
	delete(sess.values, key)
	return v, nil
}

func (s *MemoryStore) Clear(_ context.Context, sid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sid)
	return nil
}
