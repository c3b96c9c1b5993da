package domain

import "errors"

var (
	// ErrInvalidToken is returned when a token does not resolve to a user.
	ErrInvalidToken = errors.New("token does not refer to a valid logged-in user")
	// ErrQuizNotFound indicates the quiz does not exist.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuizNotOwned indicates the quiz exists but belongs to another user.
	ErrQuizNotOwned = errors.New("quiz is not owned by this user")
	// ErrQuizInTrash indicates the quiz sits in the owner's trash.
	ErrQuizInTrash = errors.New("quiz is in the trash")
	// ErrNoQuestions indicates the quiz has no questions to play.
	ErrNoQuestions = errors.New("quiz does not have any questions")
	// ErrTooManySessions indicates the quiz already has 10 active sessions.
	ErrTooManySessions = errors.New("too many active sessions for this quiz")
	// ErrAutoStartTooLarge indicates autoStartNum is outside 0..50.
	ErrAutoStartTooLarge = errors.New("autoStartNum must be between 0 and 50")

	// ErrSessionNotFound indicates the session id is unknown for this quiz.
	ErrSessionNotFound = errors.New("session not found for this quiz")
	// ErrInvalidAction indicates the action name is not a known action.
	ErrInvalidAction = errors.New("not a valid action")
	// ErrActionUnavailable indicates the action is legal in general but not
	// from the session's current state.
	ErrActionUnavailable = errors.New("action unavailable in current state")
	// ErrWrongSessionState indicates a read or write requires a state the
	// session is not in.
	ErrWrongSessionState = errors.New("session is not in the required state")

	// ErrSessionNotInLobby indicates a join against a session past its lobby.
	ErrSessionNotInLobby = errors.New("session is no longer in lobby")
	// ErrNameTaken indicates the player name already exists in the session.
	ErrNameTaken = errors.New("name is already taken in this session")
	// ErrPlayerNotFound indicates the player id is unknown.
	ErrPlayerNotFound = errors.New("player not found")
	// ErrInvalidQuestionPosition indicates the position is outside the
	// session's question count or not the current question.
	ErrInvalidQuestionPosition = errors.New("question position is not valid for this session")
	// ErrInvalidAnswerIDs indicates an empty, duplicated, or unknown answer set.
	ErrInvalidAnswerIDs = errors.New("answer ids are not valid for this question")
	// ErrInvalidMessage indicates a chat message outside 1..100 characters.
	ErrInvalidMessage = errors.New("message must be between 1 and 100 characters")
)
