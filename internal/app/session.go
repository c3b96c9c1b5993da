package app

import (
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"quiz-session-service/internal/domain"
)

const (
	// countdownDuration is the fixed delay between announcing a question and
	// opening it for answers.
	countdownDuration = 3 * time.Second

	maxAutoStartNum   = 50
	maxActiveSessions = 10

	playerIDSpace = 1_000_000
)

// Session is one live play-through of a quiz. It owns its state machine, the
// single pending timer, the player roster, per-question results, and the chat
// log. Every exported method takes the session mutex; timer callbacks
// re-acquire it and check the timer generation before touching anything, so a
// callback that lost a Stop race cannot corrupt a later state.
type Session struct {
	mu sync.Mutex

	id           int64
	state        domain.State
	autoStartNum int
	atQuestion   int // 1-based; 0 while in lobby

	// questionOpenTime is the unix second the current question opened,
	// used to compute answer latency.
	questionOpenTime int64

	// metadata is a deep copy of the quiz taken at session start. Edits to
	// the live quiz never reach it.
	metadata domain.Quiz

	players []*player          // ordered by score desc after each scoring pass
	results []*questionResult  // one per question, filled at first NEXT_QUESTION
	chat    []domain.ChatMessage

	now      func() time.Time
	newTimer TimerFactory
	timer    Timer
	timerGen uint64

	rnd *rand.Rand
}

type player struct {
	id    int64
	name  string
	score int
}

type playerResult struct {
	playerID int64
	name     string
	correct  bool
	// time holds the unix second of a correct submission until scoring,
	// which rewrites it to elapsed seconds since the question opened.
	time  int64
	rank  int
	score int
}

type questionResult struct {
	players           []*playerResult
	averageAnswerTime int
	percentCorrect    int
	scored            bool
}

// SessionOption customizes a session, mainly for deterministic tests.
type SessionOption func(*Session)

// WithClock substitutes the wall clock.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

// WithTimerFactory substitutes how countdown and question timers are scheduled.
func WithTimerFactory(tf TimerFactory) SessionOption {
	return func(s *Session) { s.newTimer = tf }
}

// NewSession creates a session in LOBBY holding its own snapshot of quiz.
func NewSession(id int64, quiz domain.Quiz, autoStartNum int, opts ...SessionOption) *Session {
	s := &Session{
		id:           id,
		state:        domain.StateLobby,
		autoStartNum: autoStartNum,
		metadata:     quiz.Clone(),
		now:          time.Now,
		newTimer:     afterFunc,
		rnd:          rand.New(rand.NewSource(time.Now().UnixNano() + id)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.questionOpenTime = s.now().Unix()
	return s
}

// ID returns the session id.
func (s *Session) ID() int64 { return s.id }

// QuizID returns the id of the quiz this session was started from.
func (s *Session) QuizID() string { return s.metadata.ID }

// State returns the current lifecycle state.
func (s *Session) State() domain.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Apply runs one admin action through the transition table. It reports
// whether the session reached END so the caller can move it to the quiz's
// inactive list. Illegal (state, action) pairs fail with ErrActionUnavailable
// and leave the session untouched.
func (s *Session) Apply(action domain.Action) (ended bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case domain.StateLobby:
		switch action {
		case domain.ActionNextQuestion:
			s.beginQuestionsLocked()
		case domain.ActionEnd:
			s.endLocked()
		default:
			return false, domain.ErrActionUnavailable
		}

	case domain.StateQuestionCountdown:
		switch action {
		case domain.ActionSkipCountdown:
			s.cancelTimerLocked()
			s.openQuestionLocked()
		case domain.ActionEnd:
			s.endLocked()
		default:
			return false, domain.ErrActionUnavailable
		}

	case domain.StateQuestionOpen:
		switch action {
		case domain.ActionGoToAnswer:
			s.cancelTimerLocked()
			s.state = domain.StateAnswerShow
			s.scoreCurrentQuestionLocked()
		case domain.ActionEnd:
			s.endLocked()
		default:
			return false, domain.ErrActionUnavailable
		}

	case domain.StateQuestionClose:
		switch action {
		case domain.ActionGoToAnswer:
			s.state = domain.StateAnswerShow
			s.scoreCurrentQuestionLocked()
		case domain.ActionGoToFinalResults:
			s.state = domain.StateFinalResults
		case domain.ActionNextQuestion:
			if err := s.advanceQuestionLocked(); err != nil {
				return false, err
			}
		case domain.ActionEnd:
			s.endLocked()
		default:
			return false, domain.ErrActionUnavailable
		}

	case domain.StateAnswerShow:
		switch action {
		case domain.ActionGoToFinalResults:
			s.state = domain.StateFinalResults
		case domain.ActionNextQuestion:
			if err := s.advanceQuestionLocked(); err != nil {
				return false, err
			}
		case domain.ActionEnd:
			s.endLocked()
		default:
			return false, domain.ErrActionUnavailable
		}

	case domain.StateFinalResults:
		if action != domain.ActionEnd {
			return false, domain.ErrActionUnavailable
		}
		s.endLocked()

	default: // END is terminal
		return false, domain.ErrActionUnavailable
	}

	return s.state == domain.StateEnd, nil
}

// beginQuestionsLocked performs the LOBBY -> QUESTION_COUNTDOWN transition:
// result placeholders for every question, then the first countdown.
func (s *Session) beginQuestionsLocked() {
	s.initResultsLocked()
	s.atQuestion = 1
	s.startCountdownLocked()
}

func (s *Session) advanceQuestionLocked() error {
	if s.atQuestion == len(s.metadata.Questions) {
		return domain.ErrActionUnavailable
	}
	s.atQuestion++
	s.startCountdownLocked()
	return nil
}

func (s *Session) endLocked() {
	s.cancelTimerLocked()
	s.state = domain.StateEnd
}

// initResultsLocked pre-populates every question's results with unsubmitted
// placeholders for the current roster. Players only join in LOBBY, so the
// roster is final here.
func (s *Session) initResultsLocked() {
	s.results = make([]*questionResult, len(s.metadata.Questions))
	for i := range s.metadata.Questions {
		entries := make([]*playerResult, len(s.players))
		for j, p := range s.players {
			entries[j] = &playerResult{playerID: p.id, name: p.name}
		}
		s.results[i] = &questionResult{players: entries}
	}
}

// Timer discipline: at most one pending timer exists per session. Scheduling
// bumps the generation and remembers it in the callback; cancelling bumps the
// generation so an already-fired callback finds it stale and returns.

func (s *Session) cancelTimerLocked() {
	s.timerGen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Session) scheduleLocked(d time.Duration, expired func(gen uint64)) {
	s.cancelTimerLocked()
	gen := s.timerGen
	s.timer = s.newTimer(d, func() { expired(gen) })
}

func (s *Session) startCountdownLocked() {
	s.state = domain.StateQuestionCountdown
	s.scheduleLocked(countdownDuration, s.countdownExpired)
}

func (s *Session) countdownExpired(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.timerGen || s.state != domain.StateQuestionCountdown {
		return
	}
	s.timer = nil
	s.openQuestionLocked()
}

func (s *Session) openQuestionLocked() {
	s.state = domain.StateQuestionOpen
	s.questionOpenTime = s.now().Unix()
	d := time.Duration(s.metadata.Questions[s.atQuestion-1].Duration) * time.Second
	s.scheduleLocked(d, s.questionExpired)
}

func (s *Session) questionExpired(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.timerGen || s.state != domain.StateQuestionOpen {
		return
	}
	s.timer = nil
	s.state = domain.StateQuestionClose
	s.scoreCurrentQuestionLocked()
}

// scoreCurrentQuestionLocked ranks and scores the current question. Guarded
// by the per-result scored flag: re-entry from a later transition arm
// (CLOSE -> ANSWER_SHOW after a timer close) is a no-op, so scores never
// double-count.
func (s *Session) scoreCurrentQuestionLocked() {
	res := s.results[s.atQuestion-1]
	if res.scored {
		return
	}
	res.scored = true

	question := s.metadata.Questions[s.atQuestion-1]

	var correct, incorrect []*playerResult
	for _, pr := range res.players {
		if pr.correct {
			correct = append(correct, pr)
		} else {
			incorrect = append(incorrect, pr)
		}
	}

	// Earlier correct answers rank higher; rank n earns points/n rounded.
	sort.SliceStable(correct, func(i, j int) bool { return correct[i].time < correct[j].time })
	for i, pr := range correct {
		pr.rank = i + 1
		pr.time -= s.questionOpenTime
		pr.score = int(math.Round(float64(question.Points) / float64(pr.rank)))
		if p := s.playerByIDLocked(pr.playerID); p != nil {
			p.score += pr.score
		}
	}

	res.players = append(correct, incorrect...)

	if len(correct) > 0 {
		sum := int64(0)
		for _, pr := range correct {
			sum += pr.time
		}
		res.averageAnswerTime = int(math.Round(float64(sum) / float64(len(correct))))
	}
	if len(s.players) > 0 {
		res.percentCorrect = int(math.Round(float64(len(correct)) / float64(len(s.players)) * 100))
	}

	sort.SliceStable(s.players, func(i, j int) bool { return s.players[i].score > s.players[j].score })
}

func (s *Session) playerByIDLocked(id int64) *player {
	for _, p := range s.players {
		if p.id == id {
			return p
		}
	}
	return nil
}

// Join admits a guest while the session is in LOBBY. An empty name gets a
// generated guest handle. Joining the autoStartNum-th player triggers the
// same transition as LOBBY/NEXT_QUESTION.
func (s *Session) Join(name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.StateLobby {
		return 0, domain.ErrSessionNotInLobby
	}
	if name != "" && s.nameTakenLocked(name) {
		return 0, domain.ErrNameTaken
	}
	if name == "" {
		for name = s.guestNameLocked(); s.nameTakenLocked(name); name = s.guestNameLocked() {
		}
	}

	id := s.newPlayerIDLocked()
	s.players = append(s.players, &player{id: id, name: name})

	if s.autoStartNum > 0 && len(s.players) == s.autoStartNum {
		s.beginQuestionsLocked()
	}
	return id, nil
}

func (s *Session) nameTakenLocked(name string) bool {
	for _, p := range s.players {
		if p.name == name {
			return true
		}
	}
	return false
}

// guestNameLocked produces a 5-letter + 3-digit handle, e.g. "xkwqa927".
func (s *Session) guestNameLocked() string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	b := make([]byte, 8)
	for i := 0; i < 5; i++ {
		b[i] = letters[s.rnd.Intn(len(letters))]
	}
	for i := 5; i < 8; i++ {
		b[i] = byte('0' + s.rnd.Intn(10))
	}
	return string(b)
}

func (s *Session) newPlayerIDLocked() int64 {
	for {
		id := s.rnd.Int63n(playerIDSpace)
		if s.playerByIDLocked(id) == nil {
			return id
		}
	}
}

// HasPlayer reports whether the player id belongs to this session.
func (s *Session) HasPlayer(playerID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playerByIDLocked(playerID) != nil
}

// SubmitAnswer records a player's answer for the currently open question.
// Validation happens fully before any write; a re-submission while the
// question is still open overwrites the previous verdict.
func (s *Session) SubmitAnswer(playerID int64, position int, answerIDs []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.playerByIDLocked(playerID) == nil {
		return domain.ErrPlayerNotFound
	}
	if position < 1 || position > len(s.metadata.Questions) {
		return domain.ErrInvalidQuestionPosition
	}
	if s.state != domain.StateQuestionOpen {
		return domain.ErrWrongSessionState
	}
	if position != s.atQuestion {
		return domain.ErrInvalidQuestionPosition
	}

	question := s.metadata.Questions[position-1]
	if err := validateAnswerIDs(answerIDs, question); err != nil {
		return err
	}

	var entry *playerResult
	for _, pr := range s.results[position-1].players {
		if pr.playerID == playerID {
			entry = pr
			break
		}
	}

	if answerSetsEqual(answerIDs, question.CorrectAnswerIDs()) {
		entry.correct = true
		entry.time = s.now().Unix()
	} else {
		// Incorrect answers count as arriving at the last possible instant.
		entry.correct = false
		entry.time = s.questionOpenTime + int64(question.Duration)
	}
	return nil
}

func validateAnswerIDs(answerIDs []int, question domain.Question) error {
	if len(answerIDs) < 1 {
		return domain.ErrInvalidAnswerIDs
	}
	valid := make(map[int]bool, len(question.Answers))
	for _, a := range question.Answers {
		valid[a.ID] = true
	}
	seen := make(map[int]bool, len(answerIDs))
	for _, id := range answerIDs {
		if !valid[id] || seen[id] {
			return domain.ErrInvalidAnswerIDs
		}
		seen[id] = true
	}
	return nil
}

// answerSetsEqual compares submissions order-independently.
func answerSetsEqual(submitted, correct []int) bool {
	if len(submitted) != len(correct) {
		return false
	}
	set := make(map[int]bool, len(correct))
	for _, id := range correct {
		set[id] = true
	}
	for _, id := range submitted {
		if !set[id] {
			return false
		}
	}
	return true
}

// SendChat appends a message to the session chat log.
func (s *Session) SendChat(playerID int64, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.playerByIDLocked(playerID)
	if p == nil {
		return domain.ErrPlayerNotFound
	}
	if len(body) < 1 || len(body) > 100 {
		return domain.ErrInvalidMessage
	}
	s.chat = append(s.chat, domain.ChatMessage{
		MessageBody: body,
		PlayerID:    p.id,
		PlayerName:  p.name,
		TimeSent:    s.now().Unix(),
	})
	return nil
}

// Chat returns the session's messages in send order.
func (s *Session) Chat() []domain.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ChatMessage(nil), s.chat...)
}
