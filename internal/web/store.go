package web

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/JonMunkholm/csvmaster/internal/core"
	"github.com/google/uuid"
)

// Store keeps live sessions in memory. Each session is used by one request
// at a time; idle sessions expire after the TTL.
type Store struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*entry
	ttl      time.Duration
	max      int
	now      func() time.Time
}

type entry struct {
	mu       sync.Mutex
	id       uuid.UUID
	name     string
	session  *core.Session
	created  time.Time
	lastUsed time.Time
}

// SessionSummary describes a stored session for listings.
type SessionSummary struct {
	ID       uuid.UUID
	Name     string
	Created  time.Time
	LastUsed time.Time
}

// NewStore creates a store holding at most max sessions, each idle for at most ttl.
func NewStore(ttl time.Duration, max int) *Store {
	return &Store{
		sessions: make(map[uuid.UUID]*entry),
		ttl:      ttl,
		max:      max,
		now:      time.Now,
	}
}

// Create stores sess under a new id.
func (s *Store) Create(name string, sess *core.Session) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked()
	if len(s.sessions) >= s.max {
		return uuid.Nil, fmt.Errorf("%w: %d sessions open", core.ErrBusy, len(s.sessions))
	}

	now := s.now()
	id := uuid.New()
	s.sessions[id] = &entry{
		id:       id,
		name:     name,
		session:  sess,
		created:  now,
		lastUsed: now,
	}
	return id, nil
}

// With runs fn with exclusive access to the session. The session's idle
// clock restarts.
func (s *Store) With(id uuid.UUID, fn func(name string, sess *core.Session) error) error {
	e, err := s.get(id)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.name, e.session)
}

func (s *Store) get(id uuid.UUID) (*entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok || s.expiredLocked(e) {
		delete(s.sessions, id)
		return nil, fmt.Errorf("%w: %s", core.ErrSessionNotFound, id)
	}
	e.lastUsed = s.now()
	return e, nil
}

// Delete removes a session.
func (s *Store) Delete(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", core.ErrSessionNotFound, id)
	}
	delete(s.sessions, id)
	return nil
}

// List returns live sessions, newest first.
func (s *Store) List() []SessionSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked()
	out := make([]SessionSummary, 0, len(s.sessions))
	for _, e := range s.sessions {
		out = append(out, SessionSummary{ID: e.id, Name: e.name, Created: e.created, LastUsed: e.lastUsed})
	}
	slices.SortFunc(out, func(a, b SessionSummary) int {
		if c := b.Created.Compare(a.Created); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	return out
}

// Len is the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	return len(s.sessions)
}

// Sweep drops expired sessions and reports how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked()
}

// Run sweeps every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
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

func (s *Store) sweepLocked() int {
	n := 0
	for id, e := range s.sessions {
		if s.expiredLocked(e) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

func (s *Store) expiredLocked(e *entry) bool {
	return s.now().Sub(e.lastUsed) > s.ttl
}
