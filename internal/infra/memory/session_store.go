package memory

import (
	"sort"
	"sync"

	"quiz-session-service/internal/app"
	"quiz-session-service/internal/domain"
)

// SessionStore is the in-process implementation of app.SessionStore. Ended
// sessions stay retrievable for historical queries; only the per-quiz index
// distinguishes active from ended.
type SessionStore struct {
	mu       sync.RWMutex
	nextID   int64
	sessions map[int64]*app.Session
	byQuiz   map[string]*quizIndex
}

type quizIndex struct {
	active []int64
	ended  []int64
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[int64]*app.Session),
		byQuiz:   make(map[string]*quizIndex),
	}
}

func (s *SessionStore) NextID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	return s.nextID
}

func (s *SessionStore) Add(session *app.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID()] = session
	idx := s.indexLocked(session.QuizID())
	idx.active = append(idx.active, session.ID())
}

func (s *SessionStore) Get(id int64) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	return session, ok
}

func (s *SessionStore) FindByPlayer(playerID int64) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, session := range s.sessions {
		if session.HasPlayer(playerID) {
			return session, true
		}
	}
	return nil, false
}

func (s *SessionStore) ListByQuiz(quizID string) domain.SessionList {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.byQuiz[quizID]
	if idx == nil {
		return domain.SessionList{ActiveSessions: []int64{}, InactiveSessions: []int64{}}
	}
	return domain.SessionList{
		ActiveSessions:   sortedCopy(idx.active),
		InactiveSessions: sortedCopy(idx.ended),
	}
}

func (s *SessionStore) ActiveCount(quizID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.byQuiz[quizID]
	if idx == nil {
		return 0
	}
	return len(idx.active)
}

func (s *SessionStore) MarkEnded(quizID string, sessionID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(quizID)
	for i, id := range idx.active {
		if id == sessionID {
			idx.active = append(idx.active[:i], idx.active[i+1:]...)
			idx.ended = append(idx.ended, sessionID)
			return
		}
	}
}

func (s *SessionStore) indexLocked(quizID string) *quizIndex {
	idx := s.byQuiz[quizID]
	if idx == nil {
		idx = &quizIndex{}
		s.byQuiz[quizID] = idx
	}
	return idx
}

func sortedCopy(ids []int64) []int64 {
	out := append([]int64{}, ids...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
