package domain

// State is the lifecycle state of a quiz session.
type State string

const (
	StateLobby             State = "LOBBY"
	StateQuestionCountdown State = "QUESTION_COUNTDOWN"
	StateQuestionOpen      State = "QUESTION_OPEN"
	StateQuestionClose     State = "QUESTION_CLOSE"
	StateAnswerShow        State = "ANSWER_SHOW"
	StateFinalResults      State = "FINAL_RESULTS"
	StateEnd               State = "END"
)

// Action is an admin command against a session's state machine.
type Action string

const (
	ActionNextQuestion     Action = "NEXT_QUESTION"
	ActionSkipCountdown    Action = "SKIP_COUNTDOWN"
	ActionGoToAnswer       Action = "GO_TO_ANSWER"
	ActionGoToFinalResults Action = "GO_TO_FINAL_RESULTS"
	ActionEnd              Action = "END"
)

// Actions lists every valid action, in no particular order.
var Actions = []Action{
	ActionNextQuestion,
	ActionSkipCountdown,
	ActionGoToAnswer,
	ActionGoToFinalResults,
	ActionEnd,
}

// ParseAction converts the wire-level action name into its typed form.
// Unknown names fail with ErrInvalidAction before reaching the state machine.
func ParseAction(name string) (Action, error) {
	switch Action(name) {
	case ActionNextQuestion, ActionSkipCountdown, ActionGoToAnswer, ActionGoToFinalResults, ActionEnd:
		return Action(name), nil
	}
	return "", ErrInvalidAction
}
