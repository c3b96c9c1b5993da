package app

import (
	"context"
	"time"

	"quiz-session-service/internal/domain"
)

// SessionStore holds live and ended sessions and the per-quiz session index.
type SessionStore interface {
	// NextID allocates a process-unique session id.
	NextID() int64
	// Add registers a freshly started session as active for its quiz.
	Add(s *Session)
	// Get returns a session by id, active or ended.
	Get(id int64) (*Session, bool)
	// FindByPlayer returns the session a player has joined.
	FindByPlayer(playerID int64) (*Session, bool)
	// ListByQuiz returns active and ended session ids, ascending.
	ListByQuiz(quizID string) domain.SessionList
	// ActiveCount returns how many sessions of the quiz are not ended.
	ActiveCount(quizID string) int
	// MarkEnded moves a session from the quiz's active list to its ended list.
	MarkEnded(quizID string, sessionID int64)
}

// QuizRepository loads quiz content from the quiz-management subsystem.
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// TokenResolver maps admin tokens to user ids; the auth subsystem's boundary.
type TokenResolver interface {
	Resolve(ctx context.Context, token string) (string, error)
}

// SessionServiceConfig wires the session engine's collaborators.
type SessionServiceConfig struct {
	Store   SessionStore
	Quizzes QuizRepository
	Tokens  TokenResolver

	// Now and NewTimer are test seams; both default to the real clock.
	Now      func() time.Time
	NewTimer TimerFactory
}

// SessionService is the admin-facing session lifecycle engine.
type SessionService struct {
	store    SessionStore
	quizzes  QuizRepository
	tokens   TokenResolver
	now      func() time.Time
	newTimer TimerFactory
}

func NewSessionService(c SessionServiceConfig) *SessionService {
	s := &SessionService{
		store:    c.Store,
		quizzes:  c.Quizzes,
		tokens:   c.Tokens,
		now:      c.Now,
		newTimer: c.NewTimer,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newTimer == nil {
		s.newTimer = afterFunc
	}
	return s
}

// Start launches a new session for a quiz and returns its id. The quiz must
// exist, belong to the caller, be out of the trash, have at least one
// question, and have fewer than 10 active sessions. autoStartNum caps at 50
// (0 disables auto-start).
func (s *SessionService) Start(ctx context.Context, token, quizID string, autoStartNum int) (int64, error) {
	quiz, err := s.ownedQuiz(ctx, token, quizID, true)
	if err != nil {
		return 0, err
	}
	if autoStartNum < 0 || autoStartNum > maxAutoStartNum {
		return 0, domain.ErrAutoStartTooLarge
	}
	if s.store.ActiveCount(quizID) >= maxActiveSessions {
		return 0, domain.ErrTooManySessions
	}
	if len(quiz.Questions) == 0 {
		return 0, domain.ErrNoQuestions
	}

	session := NewSession(s.store.NextID(), quiz, autoStartNum,
		WithClock(s.now), WithTimerFactory(s.newTimer))
	s.store.Add(session)
	return session.ID(), nil
}

// Update applies one admin action to a session's state machine.
func (s *SessionService) Update(ctx context.Context, token, quizID string, sessionID int64, actionName string) error {
	if _, err := s.ownedQuiz(ctx, token, quizID, false); err != nil {
		return err
	}
	action, err := domain.ParseAction(actionName)
	if err != nil {
		return err
	}
	session, err := s.sessionForQuiz(quizID, sessionID)
	if err != nil {
		return err
	}

	ended, err := session.Apply(action)
	if err != nil {
		return err
	}
	if ended {
		s.store.MarkEnded(quizID, sessionID)
	}
	return nil
}

// Status returns the admin status view of a session.
func (s *SessionService) Status(ctx context.Context, token, quizID string, sessionID int64) (domain.SessionStatus, error) {
	if _, err := s.ownedQuiz(ctx, token, quizID, false); err != nil {
		return domain.SessionStatus{}, err
	}
	session, err := s.sessionForQuiz(quizID, sessionID)
	if err != nil {
		return domain.SessionStatus{}, err
	}
	return session.Status(), nil
}

// List returns the quiz's active and ended session ids.
func (s *SessionService) List(ctx context.Context, token, quizID string) (domain.SessionList, error) {
	if _, err := s.ownedQuiz(ctx, token, quizID, false); err != nil {
		return domain.SessionList{}, err
	}
	return s.store.ListByQuiz(quizID), nil
}

// Results returns the final results view; the session must have reached
// FINAL_RESULTS.
func (s *SessionService) Results(ctx context.Context, token, quizID string, sessionID int64) (domain.FinalResults, error) {
	if _, err := s.ownedQuiz(ctx, token, quizID, false); err != nil {
		return domain.FinalResults{}, err
	}
	session, err := s.sessionForQuiz(quizID, sessionID)
	if err != nil {
		return domain.FinalResults{}, err
	}
	return session.FinalResults()
}

// ResultsCSV returns the final results rendered as CSV text.
func (s *SessionService) ResultsCSV(ctx context.Context, token, quizID string, sessionID int64) (string, error) {
	if _, err := s.ownedQuiz(ctx, token, quizID, false); err != nil {
		return "", err
	}
	session, err := s.sessionForQuiz(quizID, sessionID)
	if err != nil {
		return "", err
	}
	return session.ResultsCSV()
}

// ownedQuiz authenticates the token and loads the caller's quiz. With
// forStart the trash state is reported distinctly; otherwise a trashed quiz
// is simply not found, matching how the management subsystem hides it.
func (s *SessionService) ownedQuiz(ctx context.Context, token, quizID string, forStart bool) (domain.Quiz, error) {
	userID, err := s.tokens.Resolve(ctx, token)
	if err != nil {
		return domain.Quiz{}, err
	}
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if quiz.InTrash {
		if !forStart {
			return domain.Quiz{}, domain.ErrQuizNotFound
		}
		if quiz.OwnerID != userID {
			return domain.Quiz{}, domain.ErrQuizNotOwned
		}
		return domain.Quiz{}, domain.ErrQuizInTrash
	}
	if quiz.OwnerID != userID {
		return domain.Quiz{}, domain.ErrQuizNotOwned
	}
	return quiz, nil
}

func (s *SessionService) sessionForQuiz(quizID string, sessionID int64) (*Session, error) {
	session, ok := s.store.Get(sessionID)
	if !ok || session.QuizID() != quizID {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}
