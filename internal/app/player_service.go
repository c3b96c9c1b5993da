package app

import (
	"context"

	"quiz-session-service/internal/domain"
)

// PlayerService is the guest-facing side of the engine: joining, answering,
// chat, and the player read views. Guests address sessions by player id only.
type PlayerService struct {
	store SessionStore
}

func NewPlayerService(store SessionStore) *PlayerService {
	return &PlayerService{store: store}
}

// Join admits a guest into a session lobby and returns the new player id.
func (s *PlayerService) Join(_ context.Context, sessionID int64, name string) (int64, error) {
	session, ok := s.store.Get(sessionID)
	if !ok {
		return 0, domain.ErrSessionNotFound
	}
	return session.Join(name)
}

// Status returns where the player's session currently is.
func (s *PlayerService) Status(_ context.Context, playerID int64) (domain.PlayerStatus, error) {
	session, ok := s.store.FindByPlayer(playerID)
	if !ok {
		return domain.PlayerStatus{}, domain.ErrPlayerNotFound
	}
	return session.PlayerStatus(), nil
}

// QuestionInfo returns the question at position for the player's session.
func (s *PlayerService) QuestionInfo(_ context.Context, playerID int64, position int) (domain.QuestionInfo, error) {
	session, ok := s.store.FindByPlayer(playerID)
	if !ok {
		return domain.QuestionInfo{}, domain.ErrPlayerNotFound
	}
	return session.QuestionInfo(position)
}

// SubmitAnswer records the player's answer set for the open question.
func (s *PlayerService) SubmitAnswer(_ context.Context, playerID int64, position int, answerIDs []int) error {
	session, ok := s.store.FindByPlayer(playerID)
	if !ok {
		return domain.ErrPlayerNotFound
	}
	return session.SubmitAnswer(playerID, position, answerIDs)
}

// QuestionResults returns the scored view of a question once answers show.
func (s *PlayerService) QuestionResults(_ context.Context, playerID int64, position int) (domain.QuestionResult, error) {
	session, ok := s.store.FindByPlayer(playerID)
	if !ok {
		return domain.QuestionResult{}, domain.ErrPlayerNotFound
	}
	return session.QuestionResults(position)
}

// FinalResults returns the whole-session results for the player's session.
func (s *PlayerService) FinalResults(_ context.Context, playerID int64) (domain.FinalResults, error) {
	session, ok := s.store.FindByPlayer(playerID)
	if !ok {
		return domain.FinalResults{}, domain.ErrPlayerNotFound
	}
	return session.FinalResults()
}

// SendChat appends a chat message to the player's session.
func (s *PlayerService) SendChat(_ context.Context, playerID int64, message string) error {
	session, ok := s.store.FindByPlayer(playerID)
	if !ok {
		return domain.ErrPlayerNotFound
	}
	return session.SendChat(playerID, message)
}

// Chat returns the session chat log in send order.
func (s *PlayerService) Chat(_ context.Context, playerID int64) ([]domain.ChatMessage, error) {
	session, ok := s.store.FindByPlayer(playerID)
	if !ok {
		return nil, domain.ErrPlayerNotFound
	}
	return session.Chat(), nil
}
