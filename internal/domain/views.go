package domain

// Read-only projections served to admins and players. These are plain data
// carriers; the session engine builds them under its own lock.

// QuizMetadata is the admin-visible slice of a session's quiz snapshot.
type QuizMetadata struct {
	QuizID         string     `json:"quizId"`
	Name           string     `json:"name"`
	TimeCreated    int64      `json:"timeCreated"`
	TimeLastEdited int64      `json:"timeLastEdited"`
	Description    string     `json:"description"`
	NumQuestions   int        `json:"numQuestions"`
	Questions      []Question `json:"questions"`
	Duration       int        `json:"duration"`
	ThumbnailURL   string     `json:"thumbnailUrl"`
}

// SessionStatus is the admin status view of a session.
type SessionStatus struct {
	State      State        `json:"state"`
	AtQuestion int          `json:"atQuestion"`
	Players    []string     `json:"players"`
	Metadata   QuizMetadata `json:"metadata"`
}

// SessionList splits a quiz's sessions into active and ended, ids ascending.
type SessionList struct {
	ActiveSessions   []int64 `json:"activeSessions"`
	InactiveSessions []int64 `json:"inactiveSessions"`
}

// RankedPlayer is one leaderboard row.
type RankedPlayer struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// QuestionResult summarizes one closed question.
type QuestionResult struct {
	QuestionID         int      `json:"questionId"`
	PlayersCorrectList []string `json:"playersCorrectList"`
	AverageAnswerTime  int      `json:"averageAnswerTime"`
	PercentCorrect     int      `json:"percentCorrect"`
}

// FinalResults is the terminal scoring view of a whole session.
type FinalResults struct {
	UsersRankedByScore []RankedPlayer   `json:"usersRankedByScore"`
	QuestionResults    []QuestionResult `json:"questionResults"`
}

// PlayerStatus is the guest-facing view of where the session is.
type PlayerStatus struct {
	State        State `json:"state"`
	NumQuestions int   `json:"numQuestions"`
	AtQuestion   int   `json:"atQuestion"`
}

// AnswerInfo is an answer as shown to players: never the correct flag.
type AnswerInfo struct {
	AnswerID int    `json:"answerId"`
	Answer   string `json:"answer"`
	Colour   string `json:"colour,omitempty"`
}

// QuestionInfo is the question a player is currently shown.
type QuestionInfo struct {
	QuestionID   int          `json:"questionId"`
	Question     string       `json:"question"`
	Duration     int          `json:"duration"`
	ThumbnailURL string       `json:"thumbnailUrl,omitempty"`
	Points       int          `json:"points"`
	Answers      []AnswerInfo `json:"answers"`
}
