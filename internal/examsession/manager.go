package examsession

import (
	"context"
	"sync"

	"github.com/examhall/examhall-backend/internal/logger"
	"github.com/examhall/examhall-backend/internal/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type sessionKey struct {
	UserID int
	ExamID uuid.UUID
}

// Manager owns the live sessions, at most one per (userID, examID). A session
// becomes visible through Get only after its initial persist succeeded, so a
// looked-up session always carries an attempt. While a start or resume is in
// flight, concurrent callers for the same key wait on a marker instead of
// racing a second session into existence.
type Manager struct {
	mu       sync.Mutex
	sessions map[sessionKey]*Session
	starting map[sessionKey]chan struct{}
	store    ResultStore
	clock    Clock
	log      zerolog.Logger
}

// NewManager creates a Manager backed by the given result store.
func NewManager(store ResultStore, clock Clock, log zerolog.Logger) *Manager {
	if clock == nil {
		clock = SystemClock
	}
	return &Manager{
		sessions: make(map[sessionKey]*Session),
		starting: make(map[sessionKey]chan struct{}),
		store:    store,
		clock:    clock,
		log:      logger.Component(log, "exam_session_manager"),
	}
}

// Get returns the live session for (userID, examID), or nil. Sessions whose
// start has not completed are not returned.
func (m *Manager) Get(userID int, examID uuid.UUID) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[sessionKey{UserID: userID, ExamID: examID}]
}

// claim either returns the registered session for key, or marks the key as
// in flight and hands ownership of the marker to the caller. A caller that
// finds another start in flight waits for it to settle and re-checks.
func (m *Manager) claim(key sessionKey) (*Session, chan struct{}) {
	for {
		m.mu.Lock()
		if existing, ok := m.sessions[key]; ok {
			m.mu.Unlock()
			return existing, nil
		}
		inflight, ok := m.starting[key]
		if !ok {
			done := make(chan struct{})
			m.starting[key] = done
			m.mu.Unlock()
			return nil, done
		}
		m.mu.Unlock()
		<-inflight
	}
}

// settle releases the in-flight marker, registering the session only when the
// start succeeded. A failed start leaves no trace, so waiters retry cleanly.
func (m *Manager) settle(key sessionKey, done chan struct{}, sess *Session, err error) {
	m.mu.Lock()
	delete(m.starting, key)
	if err == nil {
		m.sessions[key] = sess
	}
	m.mu.Unlock()
	close(done)
}

// Start creates and registers a fresh session. If a live session already
// exists for the key it is returned as-is — starting again while an open
// attempt exists resumes it, never duplicates it.
func (m *Manager) Start(ctx context.Context, def Definition, userID int) (*Session, error) {
	key := sessionKey{UserID: userID, ExamID: def.Exam.ID}
	existing, done := m.claim(key)
	if done == nil {
		return existing, nil
	}

	sess := New(m.store, m.clock)
	err := sess.Start(ctx, def, userID)
	m.settle(key, done, sess, err)
	if err != nil {
		return nil, err
	}

	m.log.Debug().
		Int("user_id", userID).
		Str("exam_id", def.Exam.ID.String()).
		Msg("Attempt started")
	return sess, nil
}

// Resume registers a session for a saved attempt. An attempt whose time
// limit already elapsed is force-submitted during Resume and lands directly
// in Submitted.
func (m *Manager) Resume(ctx context.Context, saved *model.ExamAttempt, def Definition) (*Session, error) {
	key := sessionKey{UserID: saved.UserID, ExamID: saved.ExamID}
	existing, done := m.claim(key)
	if done == nil {
		return existing, nil
	}

	sess := New(m.store, m.clock)
	err := sess.Resume(ctx, saved, def)
	m.settle(key, done, sess, err)
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// Remove evicts a session and tears down its countdown. The persisted
// attempt is untouched and stays resumable.
func (m *Manager) Remove(userID int, examID uuid.UUID) {
	m.mu.Lock()
	key := sessionKey{UserID: userID, ExamID: examID}
	sess, ok := m.sessions[key]
	if ok {
		delete(m.sessions, key)
	}
	m.mu.Unlock()

	if ok {
		sess.Close()
	}
}

// Shutdown tears down every live countdown. Called on server stop.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		sessions = append(sessions, sess)
	}
	m.sessions = make(map[sessionKey]*Session)
	m.mu.Unlock()

	for _, sess := range sessions {
		sess.Close()
	}
}
