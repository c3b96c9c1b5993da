package app

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"quiz-session-service/internal/domain"
)

// Read-only projections from the session's internal records. Each takes the
// session lock and copies, so callers never observe a mid-transition view.

// Status returns the admin status view, quiz snapshot included.
func (s *Session) Status() domain.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, len(s.players))
	for i, p := range s.players {
		names[i] = p.name
	}
	meta := s.metadata.Clone()
	return domain.SessionStatus{
		State:      s.state,
		AtQuestion: s.atQuestion,
		Players:    names,
		Metadata: domain.QuizMetadata{
			QuizID:         meta.ID,
			Name:           meta.Name,
			TimeCreated:    meta.TimeCreated,
			TimeLastEdited: meta.TimeLastEdited,
			Description:    meta.Description,
			NumQuestions:   len(meta.Questions),
			Questions:      meta.Questions,
			Duration:       meta.TotalDuration(),
			ThumbnailURL:   meta.ThumbnailURL,
		},
	}
}

// PlayerStatus returns the guest-facing status view.
func (s *Session) PlayerStatus() domain.PlayerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.PlayerStatus{
		State:        s.state,
		NumQuestions: len(s.metadata.Questions),
		AtQuestion:   s.atQuestion,
	}
}

// QuestionInfo returns the question at position as shown to players. The
// correct flags are stripped; only id, text, and colour of each answer leave
// the session.
func (s *Session) QuestionInfo(position int) (domain.QuestionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if position < 1 || position > len(s.metadata.Questions) {
		return domain.QuestionInfo{}, domain.ErrInvalidQuestionPosition
	}
	switch s.state {
	case domain.StateQuestionOpen, domain.StateQuestionClose, domain.StateAnswerShow, domain.StateFinalResults:
	default:
		return domain.QuestionInfo{}, domain.ErrWrongSessionState
	}

	question := s.metadata.Questions[position-1]
	answers := make([]domain.AnswerInfo, len(question.Answers))
	for i, a := range question.Answers {
		answers[i] = domain.AnswerInfo{AnswerID: a.ID, Answer: a.Text, Colour: a.Colour}
	}
	return domain.QuestionInfo{
		QuestionID:   question.ID,
		Question:     question.Text,
		Duration:     question.Duration,
		ThumbnailURL: question.ThumbnailURL,
		Points:       question.Points,
		Answers:      answers,
	}, nil
}

// QuestionResults returns the scored view of the current question once the
// session is showing answers.
func (s *Session) QuestionResults(position int) (domain.QuestionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if position < 1 || position > len(s.metadata.Questions) {
		return domain.QuestionResult{}, domain.ErrInvalidQuestionPosition
	}
	if s.state != domain.StateAnswerShow {
		return domain.QuestionResult{}, domain.ErrWrongSessionState
	}
	if position != s.atQuestion {
		return domain.QuestionResult{}, domain.ErrInvalidQuestionPosition
	}
	return s.questionResultLocked(position - 1), nil
}

// FinalResults returns the whole-session scoring view; only valid once the
// session reached FINAL_RESULTS.
func (s *Session) FinalResults() (domain.FinalResults, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.StateFinalResults {
		return domain.FinalResults{}, domain.ErrWrongSessionState
	}
	return s.finalResultsLocked(), nil
}

func (s *Session) finalResultsLocked() domain.FinalResults {
	ranked := make([]domain.RankedPlayer, len(s.players))
	for i, p := range s.players {
		ranked[i] = domain.RankedPlayer{Name: p.name, Score: p.score}
	}
	questionResults := make([]domain.QuestionResult, len(s.results))
	for i := range s.results {
		questionResults[i] = s.questionResultLocked(i)
	}
	return domain.FinalResults{UsersRankedByScore: ranked, QuestionResults: questionResults}
}

func (s *Session) questionResultLocked(index int) domain.QuestionResult {
	res := s.results[index]
	correctNames := make([]string, 0, len(res.players))
	for _, pr := range res.players {
		if pr.correct {
			correctNames = append(correctNames, pr.name)
		}
	}
	return domain.QuestionResult{
		QuestionID:         s.metadata.Questions[index].ID,
		PlayersCorrectList: correctNames,
		AverageAnswerTime:  res.averageAnswerTime,
		PercentCorrect:     res.percentCorrect,
	}
}

// ResultsCSV renders the final results as CSV: header
// Player,question1score,question1rank,... then one row per player in final
// ranking order.
func (s *Session) ResultsCSV() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.StateFinalResults {
		return "", domain.ErrWrongSessionState
	}

	header := []string{"Player"}
	for i := range s.results {
		header = append(header,
			fmt.Sprintf("question%dscore", i+1),
			fmt.Sprintf("question%drank", i+1),
		)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return "", err
	}
	for _, p := range s.players {
		row := []string{p.name}
		for _, res := range s.results {
			score, rank := 0, 0
			for _, pr := range res.players {
				if pr.playerID == p.id {
					score, rank = pr.score, pr.rank
					break
				}
			}
			row = append(row, strconv.Itoa(score), strconv.Itoa(rank))
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
