package domain

// Answer is one selectable option of a question.
type Answer struct {
	ID      int    `json:"answerId"`
	Text    string `json:"answer"`
	Colour  string `json:"colour,omitempty"`
	Correct bool   `json:"correct"`
}

// Question models a timed multiple-answer question. A submission is correct
// when the submitted answer-id set equals the set of answers flagged correct.
type Question struct {
	ID           int      `json:"questionId"`
	Text         string   `json:"question"`
	Duration     int      `json:"duration"` // seconds the question stays open
	Points       int      `json:"points"`
	ThumbnailURL string   `json:"thumbnailUrl,omitempty"`
	Answers      []Answer `json:"answers"`
}

// CorrectAnswerIDs returns the ids of the answers flagged correct.
func (q Question) CorrectAnswerIDs() []int {
	ids := make([]int, 0, len(q.Answers))
	for _, a := range q.Answers {
		if a.Correct {
			ids = append(ids, a.ID)
		}
	}
	return ids
}

// Quiz is the authored quiz content as held by the quiz-management subsystem.
// Sessions copy it at start time; later edits never reach a running session.
type Quiz struct {
	ID             string     `json:"id"`
	OwnerID        string     `json:"ownerId"`
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	TimeCreated    int64      `json:"timeCreated"`
	TimeLastEdited int64      `json:"timeLastEdited"`
	ThumbnailURL   string     `json:"thumbnailUrl,omitempty"`
	InTrash        bool       `json:"inTrash,omitempty"`
	Questions      []Question `json:"questions"`
}

// TotalDuration is the sum of all question durations in seconds.
func (q Quiz) TotalDuration() int {
	total := 0
	for _, question := range q.Questions {
		total += question.Duration
	}
	return total
}

// Clone deep-copies the quiz so a session snapshot cannot alias the live quiz.
func (q Quiz) Clone() Quiz {
	c := q
	c.Questions = make([]Question, len(q.Questions))
	for i, question := range q.Questions {
		c.Questions[i] = question
		c.Questions[i].Answers = append([]Answer(nil), question.Answers...)
	}
	return c
}

// ChatMessage is one entry of a session's append-only chat log.
type ChatMessage struct {
	MessageBody string `json:"messageBody"`
	PlayerID    int64  `json:"playerId"`
	PlayerName  string `json:"playerName"`
	TimeSent    int64  `json:"timeSent"`
}
