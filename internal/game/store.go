package game

import (
	"context"
	"sort"
	"sync"

	"github.com/minhvn/triviad/internal/domain"
	"github.com/minhvn/triviad/internal/errors"
)

// Store is the persistence boundary of the game service. DrawQuestion must
// never hand the same bank question to a session twice.
type Store interface {
	InsertSession(ctx context.Context, ss *domain.Session) error
	GetSession(ctx context.Context, sessionID string) (*domain.Session, error)
	UpdateSession(ctx context.Context, ss *domain.Session) error
	ListSessions(ctx context.Context, userID string) ([]domain.Session, error)

	// DrawQuestion picks an unused bank question in the category for the
	// session and records its usage under the given sequence number.
	DrawQuestion(ctx context.Context, sessionID, category string, sequence int) (*domain.Question, error)
	GetQuestion(ctx context.Context, questionID string) (*domain.Question, error)

	RecordAnswer(ctx context.Context, rec domain.AnswerRecord) error
	ListAnswers(ctx context.Context, sessionID string) ([]domain.AnswerRecord, error)
}

// MemStore is an in-memory Store used by tests and the demo flow.
type MemStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
	bank     map[string][]domain.Question // by category, insertion order
	used     map[string]map[string]bool   // session -> question ids drawn
	answers  map[string][]domain.AnswerRecord
}

func NewMemStore() *MemStore {
	return &MemStore{
		sessions: make(map[string]domain.Session),
		bank:     make(map[string][]domain.Question),
		used:     make(map[string]map[string]bool),
		answers:  make(map[string][]domain.AnswerRecord),
	}
}

// AddQuestion seeds the question bank. The question carries its correct
// answer; presentations are stripped at the service boundary.
func (m *MemStore) AddQuestion(q domain.Question) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.bank[q.Category] = append(m.bank[q.Category], q)
}

func (m *MemStore) InsertSession(_ context.Context, ss *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[ss.SessionID]; ok {
		return errors.New(errors.CodeAlreadyExists,
			errors.WithMessagef("session already exists: %s", ss.SessionID))
	}

	m.sessions[ss.SessionID] = *ss
	return nil
}

func (m *MemStore) GetSession(_ context.Context, sessionID string) (*domain.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ss, ok := m.sessions[sessionID]
	if !ok {
		return nil, errors.NotFoundf("session not found: %s", sessionID)
	}

	return &ss, nil
}

func (m *MemStore) UpdateSession(_ context.Context, ss *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[ss.SessionID]; !ok {
		return errors.NotFoundf("session not found: %s", ss.SessionID)
	}

	m.sessions[ss.SessionID] = *ss
	return nil
}

func (m *MemStore) ListSessions(_ context.Context, userID string) ([]domain.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []domain.Session
	for _, ss := range m.sessions {
		if ss.UserID == userID {
			out = append(out, ss)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].StartTime.After(out[j].StartTime)
	})

	return out, nil
}

func (m *MemStore) DrawQuestion(_ context.Context, sessionID, category string, sequence int) (*domain.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	used := m.used[sessionID]
	if used == nil {
		used = make(map[string]bool)
		m.used[sessionID] = used
	}

	for _, q := range m.bank[category] {
		if used[q.QuestionID] {
			continue
		}

		used[q.QuestionID] = true
		drawn := q
		drawn.SessionID = sessionID
		drawn.Sequence = sequence
		return &drawn, nil
	}

	return nil, errors.NotFoundf("no unused question in category %q for session %s", category, sessionID)
}

func (m *MemStore) GetQuestion(_ context.Context, questionID string) (*domain.Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, qs := range m.bank {
		for _, q := range qs {
			if q.QuestionID == questionID {
				found := q
				return &found, nil
			}
		}
	}

	return nil, errors.NotFoundf("question not found: %s", questionID)
}

func (m *MemStore) RecordAnswer(_ context.Context, rec domain.AnswerRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.answers[rec.SessionID] = append(m.answers[rec.SessionID], rec)
	return nil
}

func (m *MemStore) ListAnswers(_ context.Context, sessionID string) ([]domain.AnswerRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.AnswerRecord, len(m.answers[sessionID]))
	copy(out, m.answers[sessionID])
	return out, nil
}
