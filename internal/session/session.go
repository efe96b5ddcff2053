// Package session keeps per-user upload and parameter state for the HTTP
// service. Sessions share nothing and expire after an idle TTL.
package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/pipeline-predict/internal/fetcher"
	"github.com/sells-group/pipeline-predict/internal/report"
)

// ErrNotFound is returned for unknown or expired session IDs.
var ErrNotFound = eris.New("session: not found")

// ErrFull is returned when the store is at capacity.
var ErrFull = eris.New("session: store is full")

// Session is one user's state. Tables are replaced, never mutated, so a
// copy returned by the store is safe to read without locking.
type Session struct {
	ID           string         `json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	PipelineName string         `json:"pipeline_name,omitempty"`
	PacingName   string         `json:"pacing_name,omitempty"`
	Params       report.Params  `json:"params"`
	Pipeline     *fetcher.Table `json:"-"`
	Pacing       *fetcher.Table `json:"-"`
}

// Inputs returns the tables for report.Build.
func (s Session) Inputs() report.Inputs {
	return report.Inputs{Pipeline: s.Pipeline, Pacing: s.Pacing}
}

type entry struct {
	session    Session
	lastAccess time.Time
}

// Stats reports store activity.
type Stats struct {
	Active  int   `json:"active"`
	Created int64 `json:"created"`
	Expired int64 `json:"expired"`
}

// Store is a concurrent-safe in-memory session store with idle expiry.
type Store struct {
	mu          sync.Mutex
	entries     map[string]*entry
	ttl         time.Duration
	maxSessions int
	now         func() time.Time
	created     atomic.Int64
	expired     atomic.Int64
}

// NewStore creates a store. maxSessions <= 0 means unlimited.
func NewStore(ttl time.Duration, maxSessions int) *Store {
	return &Store{
		entries:     make(map[string]*entry),
		ttl:         ttl,
		maxSessions: maxSessions,
		now:         time.Now,
	}
}

// Create starts a session with the given params.
func (s *Store) Create(params report.Params) (Session, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.maxSessions > 0 && len(s.entries) >= s.maxSessions {
		s.sweepLocked(now)
		if len(s.entries) >= s.maxSessions {
			return Session{}, ErrFull
		}
	}

	sess := Session{
		ID:        uuid.New().String(),
		CreatedAt: now,
		UpdatedAt: now,
		Params:    params,
	}
	s.entries[sess.ID] = &entry{session: sess, lastAccess: now}
	s.created.Add(1)
	return sess, nil
}

// Get returns a copy of the session and refreshes its idle timer.
func (s *Store) Get(id string) (Session, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.lookupLocked(id, now)
	if err != nil {
		return Session{}, err
	}
	e.lastAccess = now
	return e.session, nil
}

// Update applies fn to the session under the store lock. fn must not retain
// the pointer.
func (s *Store) Update(id string, fn func(*Session) error) (Session, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.lookupLocked(id, now)
	if err != nil {
		return Session{}, err
	}

	next := e.session
	if err := fn(&next); err != nil {
		return Session{}, err
	}
	next.ID = e.session.ID
	next.CreatedAt = e.session.CreatedAt
	next.UpdatedAt = now
	e.session = next
	e.lastAccess = now
	return next, nil
}

// Delete removes a session. It reports whether the session existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.entries[id]
	delete(s.entries, id)
	return ok
}

// Sweep removes idle sessions and returns how many were removed.
func (s *Store) Sweep() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked(now)
}

// Run sweeps every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := s.Sweep(); n > 0 {
				zap.L().Info("session: swept idle sessions", zap.Int("removed", n))
			}
		}
	}
}

// Stats returns current counters.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	active := len(s.entries)
	s.mu.Unlock()

	return Stats{
		Active:  active,
		Created: s.created.Load(),
		Expired: s.expired.Load(),
	}
}

func (s *Store) lookupLocked(id string, now time.Time) (*entry, error) {
	e, ok := s.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	if s.expiredAt(e, now) {
		delete(s.entries, id)
		s.expired.Add(1)
		return nil, ErrNotFound
	}
	return e, nil
}

func (s *Store) expiredAt(e *entry, now time.Time) bool {
	return s.ttl > 0 && now.Sub(e.lastAccess) > s.ttl
}

func (s *Store) sweepLocked(now time.Time) int {
	var n int
	for id, e := range s.entries {
		if s.expiredAt(e, now) {
			delete(s.entries, id)
			n++
		}
	}
	s.expired.Add(int64(n))
	return n
}
