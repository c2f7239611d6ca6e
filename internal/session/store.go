package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"resumecoach/internal/errors"
)

// StoreOptions bounds the in-memory store.
type StoreOptions struct {
	TTL             time.Duration
	CleanupInterval time.Duration
	MaxSessions     int
	// Now is replaced in tests.
	Now func() time.Time
}

type entry struct {
	busy sync.Mutex // held for the duration of one mutating request

	mu       sync.RWMutex // guards the committed snapshot below
	session  Session
	lastSeen time.Time
}

func (e *entry) snapshot() Session {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.session.Clone()
}

func (e *entry) touch(now time.Time) {
	e.mu.Lock()
	e.lastSeen = now
	e.mu.Unlock()
}

// Store keeps sessions in memory, keyed by a random id. Each session admits
// one mutating request at a time; a concurrent one is rejected as busy.
type Store struct {
	mu        sync.RWMutex
	entries   map[string]*entry
	opts      StoreOptions
	done      chan struct{}
	closeOnce sync.Once
	logger    *errors.Logger
}

// NewStore creates a store and starts its expiry goroutine when a cleanup
// interval is set.
func NewStore(opts StoreOptions, logger *errors.Logger) *Store {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Store{
		entries: make(map[string]*entry),
		opts:    opts,
		done:    make(chan struct{}),
		logger:  logger,
	}
	if opts.CleanupInterval > 0 && opts.TTL > 0 {
		go s.cleanupRoutine(opts.CleanupInterval)
	}
	return s
}

// Create registers a fresh session in the upload state.
func (s *Store) Create() (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.opts.MaxSessions > 0 && len(s.entries) >= s.opts.MaxSessions {
		return Session{}, errors.NewStateError(errors.ErrCodeSessionLimit, "too many active sessions, try again later", nil).
			WithContext("max_sessions", s.opts.MaxSessions)
	}

	now := s.opts.Now()
	sess := New(now)
	sess.ID = uuid.NewString()
	s.entries[sess.ID] = &entry{session: sess, lastSeen: now}

	s.logger.Debug("Session created", "session_id", sess.ID, "active_sessions", len(s.entries))
	return sess.Clone(), nil
}

func (s *Store) lookup(id string) (*entry, error) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return nil, errors.NewStateError(errors.ErrCodeSessionNotFound, "session not found or expired", nil).
			WithContext("session_id", id)
	}
	return e, nil
}

// Get returns a copy of the last committed session. It does not wait for
// an in-flight request.
func (s *Store) Get(id string) (Session, error) {
	e, err := s.lookup(id)
	if err != nil {
		return Session{}, err
	}
	e.touch(s.opts.Now())
	return e.snapshot(), nil
}

// Update runs fn against a copy of the session while holding the session's
// lock. The result is stored only when fn succeeds.
func (s *Store) Update(id string, fn func(Session) (Session, error)) (Session, error) {
	e, err := s.lookup(id)
	if err != nil {
		return Session{}, err
	}
	if !e.busy.TryLock() {
		return Session{}, busyError(id)
	}
	defer e.busy.Unlock()

	next, err := fn(e.snapshot())
	now := s.opts.Now()
	if err != nil {
		e.touch(now)
		return e.snapshot(), err
	}

	next.ID = id
	next.UpdatedAt = now
	e.mu.Lock()
	e.session = next
	e.lastSeen = now
	e.mu.Unlock()
	return next.Clone(), nil
}

// Delete removes a session. Deleting an unknown id is an error.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[id]; !ok {
		return errors.NewStateError(errors.ErrCodeSessionNotFound, "session not found or expired", nil).
			WithContext("session_id", id)
	}
	delete(s.entries, id)
	return nil
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Stats reports store occupancy for the stats endpoint.
func (s *Store) Stats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]any{
		"active_sessions": len(s.entries),
		"max_sessions":    s.opts.MaxSessions,
		"ttl_seconds":     s.opts.TTL.Seconds(),
	}
}

// Close stops the expiry goroutine.
func (s *Store) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

func (s *Store) cleanupRoutine(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.expire()
		case <-s.done:
			return
		}
	}
}

// expire drops sessions idle for longer than the TTL. Sessions with a
// request in flight are skipped and looked at on the next tick.
func (s *Store) expire() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.opts.Now()
	removed := 0
	for id, e := range s.entries {
		if !e.busy.TryLock() {
			continue
		}
		e.mu.RLock()
		idle := now.Sub(e.lastSeen)
		e.mu.RUnlock()
		if idle > s.opts.TTL {
			delete(s.entries, id)
			removed++
		}
		e.busy.Unlock()
	}

	if removed > 0 {
		s.logger.Debug("Expired idle sessions", "removed", removed, "remaining", len(s.entries))
	}
	return removed
}

func busyError(id string) error {
	return errors.NewStateError(errors.ErrCodeSessionBusy, "another request for this session is still in progress", nil).
		WithContext("session_id", id)
}
