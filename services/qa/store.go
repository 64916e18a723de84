package qa

import (
	"errors"
	"sync"
	"time"

	"qatutor/models"

	"github.com/samber/lo"
)

var (
	ErrSessionNotFound  = errors.New("session not found or expired")
	ErrDuplicateSession = errors.New("session id already exists")
)

// SessionStore keeps sessions in memory for the lifetime of the process.
// Get returns a copy with its own history slice, so callers can stage
// mutations and commit them with Put only once every collaborator call
// has succeeded.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.QASession

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*models.QASession),
		locks:    make(map[string]*sync.Mutex),
	}
}

func (s *SessionStore) Create(session *models.QASession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[session.ID]; exists {
		return ErrDuplicateSession
	}

	s.sessions[session.ID] = copySession(session)
	return nil
}

func (s *SessionStore) Get(id string) (*models.QASession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, exists := s.sessions[id]
	if !exists {
		return nil, ErrSessionNotFound
	}

	return copySession(session), nil
}

func (s *SessionStore) Put(id string, session *models.QASession) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[id] = copySession(session)
}

// SweepExpired removes every session created before now minus retention and
// returns how many were removed. It is called opportunistically before each
// request rather than on a timer, so expiry is only as prompt as traffic.
func (s *SessionStore) SweepExpired(now time.Time, retention time.Duration) int {
	cutoff := now.Add(-retention)

	s.mu.Lock()
	defer s.mu.Unlock()

	expired := lo.Filter(lo.Values(s.sessions), func(session *models.QASession, _ int) bool {
		return session.CreatedAt.Before(cutoff)
	})

	for _, session := range expired {
		delete(s.sessions, session.ID)
	}

	if len(expired) > 0 {
		s.lockMu.Lock()
		for _, session := range expired {
			if m, held := s.locks[session.ID]; held && m.TryLock() {
				delete(s.locks, session.ID)
				m.Unlock()
			}
		}
		s.lockMu.Unlock()
	}

	return len(expired)
}

// LockSession serializes operations against one session id so concurrent
// answer submissions cannot lose updates. The returned mutex is held on
// return; the caller must unlock that exact mutex when done, since a sweep
// may prune the map entry in the meantime.
func (s *SessionStore) LockSession(id string) *sync.Mutex {
	s.lockMu.Lock()
	m, exists := s.locks[id]
	if !exists {
		m = &sync.Mutex{}
		s.locks[id] = m
	}
	s.lockMu.Unlock()

	m.Lock()
	return m
}

func copySession(session *models.QASession) *models.QASession {
	copied := *session
	copied.History = make([]models.Message, len(session.History))
	copy(copied.History, session.History)
	return &copied
}
