package controller

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type session struct {
	ctrl     *Controller
	lastSeen time.Time
}

// Store keeps one Controller per browser session in memory.
// Sessions idle for longer than the TTL are dropped by Sweep.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*session
	ttl      time.Duration
	searcher Searcher
	now      func() time.Time
}

// NewStore creates an empty session store.
func NewStore(searcher Searcher, ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*session),
		ttl:      ttl,
		searcher: searcher,
		now:      time.Now,
	}
}

// Get returns the controller for id and refreshes its idle timer.
func (s *Store) Get(id string) (*Controller, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok || s.expiredLocked(sess) {
		return nil, false
	}
	sess.lastSeen = s.now()
	return sess.ctrl, true
}

// GetOrCreate returns the controller for id, or starts a new session under a
// fresh id when id is unknown or expired. The returned id is the one to keep.
func (s *Store) GetOrCreate(id string) (string, *Controller) {
	if ctrl, ok := s.Get(id); ok {
		return id, ctrl
	}

	newID := uuid.NewString()
	ctrl := New(s.searcher)

	s.mu.Lock()
	s.sessions[newID] = &session{ctrl: ctrl, lastSeen: s.now()}
	s.mu.Unlock()

	return newID, ctrl
}

// Sweep drops expired sessions and returns how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if s.expiredLocked(sess) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of live sessions, expired ones included until swept.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Run sweeps periodically until ctx is done.
func (s *Store) Run(ctx context.Context) {
	interval := s.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

func (s *Store) expiredLocked(sess *session) bool {
	return s.now().Sub(sess.lastSeen) > s.ttl
}
