package app_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"quiz-session-service/internal/app"
	"quiz-session-service/internal/auth"
	"quiz-session-service/internal/domain"
	"quiz-session-service/internal/infra/memory"
)

func TestStartValidation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, 5*time.Minute)

	if _, err := env.sessions.Start(ctx, "bogus", "quiz-1", 0); err != domain.ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if _, err := env.sessions.Start(ctx, "token-1", "quiz-unknown", 0); err != domain.ErrQuizNotFound {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
	if _, err := env.sessions.Start(ctx, "token-2", "quiz-1", 0); err != domain.ErrQuizNotOwned {
		t.Fatalf("expected ErrQuizNotOwned, got %v", err)
	}
	if _, err := env.sessions.Start(ctx, "token-1", "quiz-trash", 0); err != domain.ErrQuizInTrash {
		t.Fatalf("expected ErrQuizInTrash for own trashed quiz, got %v", err)
	}
	if _, err := env.sessions.Start(ctx, "token-2", "quiz-trash", 0); err != domain.ErrQuizNotOwned {
		t.Fatalf("expected ErrQuizNotOwned for someone else's trashed quiz, got %v", err)
	}
	if _, err := env.sessions.Start(ctx, "token-1", "quiz-empty", 0); err != domain.ErrNoQuestions {
		t.Fatalf("expected ErrNoQuestions, got %v", err)
	}
	if _, err := env.sessions.Start(ctx, "token-1", "quiz-1", 51); err != domain.ErrAutoStartTooLarge {
		t.Fatalf("expected ErrAutoStartTooLarge, got %v", err)
	}
	if _, err := env.sessions.Start(ctx, "token-1", "quiz-1", -1); err != domain.ErrAutoStartTooLarge {
		t.Fatalf("expected ErrAutoStartTooLarge for a negative value, got %v", err)
	}

	for i := 0; i < 10; i++ {
		if _, err := env.sessions.Start(ctx, "token-1", "quiz-1", 0); err != nil {
			t.Fatalf("start %d failed: %v", i, err)
		}
	}
	if _, err := env.sessions.Start(ctx, "token-1", "quiz-1", 0); err != domain.ErrTooManySessions {
		t.Fatalf("expected ErrTooManySessions at the 11th active session, got %v", err)
	}

	// Ending one frees a slot.
	list, err := env.sessions.List(ctx, "token-1", "quiz-1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if err := env.sessions.Update(ctx, "token-1", "quiz-1", list.ActiveSessions[0], "END"); err != nil {
		t.Fatalf("end failed: %v", err)
	}
	if _, err := env.sessions.Start(ctx, "token-1", "quiz-1", 0); err != nil {
		t.Fatalf("start after freeing a slot failed: %v", err)
	}
}

func TestUpdateValidation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, 5*time.Minute)

	sessionID, err := env.sessions.Start(ctx, "token-1", "quiz-1", 0)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	if err := env.sessions.Update(ctx, "token-1", "quiz-1", sessionID, "JUMP_AROUND"); err != domain.ErrInvalidAction {
		t.Fatalf("expected ErrInvalidAction, got %v", err)
	}
	if err := env.sessions.Update(ctx, "token-1", "quiz-1", 404, "END"); err != domain.ErrSessionNotFound {
		t.Fatalf("expected ErrSessionNotFound for unknown session, got %v", err)
	}
	if err := env.sessions.Update(ctx, "token-2", "quiz-2", sessionID, "END"); err != domain.ErrSessionNotFound {
		t.Fatalf("expected ErrSessionNotFound under another quiz, got %v", err)
	}
	if err := env.sessions.Update(ctx, "token-1", "quiz-1", sessionID, "GO_TO_ANSWER"); err != domain.ErrActionUnavailable {
		t.Fatalf("expected ErrActionUnavailable in lobby, got %v", err)
	}
}

func TestSessionLifecycleEndToEnd(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, 5*time.Minute)

	sessionID, err := env.sessions.Start(ctx, "token-1", "quiz-1", 0)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	p1, err := env.players.Join(ctx, sessionID, "alice")
	if err != nil {
		t.Fatalf("join failed: %v", err)
	}
	p2, err := env.players.Join(ctx, sessionID, "bob")
	if err != nil {
		t.Fatalf("join failed: %v", err)
	}

	mustUpdate(t, env, sessionID, "NEXT_QUESTION")
	mustUpdate(t, env, sessionID, "SKIP_COUNTDOWN")

	env.clk.advance(1 * time.Second)
	if err := env.players.SubmitAnswer(ctx, p1, 1, []int{2}); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	env.clk.advance(2 * time.Second)
	if err := env.players.SubmitAnswer(ctx, p2, 1, []int{1}); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	mustUpdate(t, env, sessionID, "GO_TO_ANSWER")
	res, err := env.players.QuestionResults(ctx, p2, 1)
	if err != nil {
		t.Fatalf("question results failed: %v", err)
	}
	if len(res.PlayersCorrectList) != 1 || res.PlayersCorrectList[0] != "alice" {
		t.Fatalf("expected alice correct, got %v", res.PlayersCorrectList)
	}

	status, err := env.players.Status(ctx, p1)
	if err != nil {
		t.Fatalf("player status failed: %v", err)
	}
	if status.State != domain.StateAnswerShow || status.AtQuestion != 1 || status.NumQuestions != 2 {
		t.Fatalf("unexpected player status: %+v", status)
	}

	mustUpdate(t, env, sessionID, "GO_TO_FINAL_RESULTS")

	final, err := env.sessions.Results(ctx, "token-1", "quiz-1", sessionID)
	if err != nil {
		t.Fatalf("results failed: %v", err)
	}
	if final.UsersRankedByScore[0].Name != "alice" || final.UsersRankedByScore[0].Score != 5 {
		t.Fatalf("expected alice leading with 5, got %+v", final.UsersRankedByScore[0])
	}

	csvText, err := env.sessions.ResultsCSV(ctx, "token-1", "quiz-1", sessionID)
	if err != nil {
		t.Fatalf("results csv failed: %v", err)
	}
	if !strings.HasPrefix(csvText, "Player,question1score,question1rank") {
		t.Fatalf("unexpected csv header: %q", csvText)
	}

	mustUpdate(t, env, sessionID, "END")
	list, err := env.sessions.List(ctx, "token-1", "quiz-1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list.ActiveSessions) != 0 || len(list.InactiveSessions) != 1 || list.InactiveSessions[0] != sessionID {
		t.Fatalf("unexpected session list after end: %+v", list)
	}
	if err := env.sessions.Update(ctx, "token-1", "quiz-1", sessionID, "END"); err != domain.ErrActionUnavailable {
		t.Fatalf("expected ErrActionUnavailable on an ended session, got %v", err)
	}
}

func TestStatusView(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, 5*time.Minute)

	sessionID, err := env.sessions.Start(ctx, "token-1", "quiz-1", 0)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := env.players.Join(ctx, sessionID, "alice"); err != nil {
		t.Fatalf("join failed: %v", err)
	}

	status, err := env.sessions.Status(ctx, "token-1", "quiz-1", sessionID)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if status.State != domain.StateLobby || status.AtQuestion != 0 {
		t.Fatalf("unexpected status: %+v", status)
	}
	if len(status.Players) != 1 || status.Players[0] != "alice" {
		t.Fatalf("unexpected players: %v", status.Players)
	}
	if status.Metadata.QuizID != "quiz-1" || status.Metadata.NumQuestions != 2 || status.Metadata.Duration != 40 {
		t.Fatalf("unexpected metadata: %+v", status.Metadata)
	}
}

func TestListIsSortedPerQuiz(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, 5*time.Minute)

	var ids []int64
	for i := 0; i < 3; i++ {
		id, err := env.sessions.Start(ctx, "token-1", "quiz-1", 0)
		if err != nil {
			t.Fatalf("start failed: %v", err)
		}
		ids = append(ids, id)
	}
	mustUpdate(t, env, ids[1], "END")

	list, err := env.sessions.List(ctx, "token-1", "quiz-1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list.ActiveSessions) != 2 || list.ActiveSessions[0] != ids[0] || list.ActiveSessions[1] != ids[2] {
		t.Fatalf("unexpected active list: %v", list.ActiveSessions)
	}
	if len(list.InactiveSessions) != 1 || list.InactiveSessions[0] != ids[1] {
		t.Fatalf("unexpected inactive list: %v", list.InactiveSessions)
	}
}

func TestSessionKeepsQuizSnapshot(t *testing.T) {
	ctx := context.Background()
	// ttl 0 disables caching so edits reach the repository immediately.
	env := newTestEnv(t, 0)

	before, err := env.sessions.Start(ctx, "token-1", "quiz-1", 0)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	edited := testQuiz()
	edited.Name = "Capitals v2"
	edited.Questions = edited.Questions[:1]
	env.loader.PutQuiz(edited)

	after, err := env.sessions.Start(ctx, "token-1", "quiz-1", 0)
	if err != nil {
		t.Fatalf("start after edit failed: %v", err)
	}

	beforeStatus, err := env.sessions.Status(ctx, "token-1", "quiz-1", before)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	afterStatus, err := env.sessions.Status(ctx, "token-1", "quiz-1", after)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if beforeStatus.Metadata.Name != "Capitals" || beforeStatus.Metadata.NumQuestions != 2 {
		t.Fatalf("running session lost its snapshot: %+v", beforeStatus.Metadata)
	}
	if afterStatus.Metadata.Name != "Capitals v2" || afterStatus.Metadata.NumQuestions != 1 {
		t.Fatalf("new session did not pick up the edit: %+v", afterStatus.Metadata)
	}
}

// --- fixtures ---

type testEnv struct {
	sessions *app.SessionService
	players  *app.PlayerService
	store    *memory.SessionStore
	loader   *memory.StaticQuizLoader
	bank     *timerBank
	clk      *fakeClock
}

func newTestEnv(t *testing.T, ttl time.Duration) *testEnv {
	t.Helper()

	trashed := testQuiz()
	trashed.ID = "quiz-trash"
	trashed.InTrash = true

	loader := memory.NewStaticQuizLoader(map[string]domain.Quiz{
		"quiz-1":     testQuiz(),
		"quiz-trash": trashed,
		"quiz-2":     {ID: "quiz-2", OwnerID: "user-2", Name: "Other", Questions: testQuiz().Questions},
		"quiz-empty": {ID: "quiz-empty", OwnerID: "user-1", Name: "Empty"},
	})

	store := memory.NewSessionStore()
	bank := &timerBank{}
	clk := newFakeClock()
	sessions := app.NewSessionService(app.SessionServiceConfig{
		Store:    store,
		Quizzes:  memory.NewQuizRepository(loader, ttl),
		Tokens:   auth.NewStaticResolver(map[string]string{"token-1": "user-1", "token-2": "user-2"}),
		Now:      clk.now,
		NewTimer: bank.factory,
	})
	return &testEnv{
		sessions: sessions,
		players:  app.NewPlayerService(store),
		store:    store,
		loader:   loader,
		bank:     bank,
		clk:      clk,
	}
}

func mustUpdate(t *testing.T, env *testEnv, sessionID int64, action string) {
	t.Helper()
	if err := env.sessions.Update(context.Background(), "token-1", "quiz-1", sessionID, action); err != nil {
		t.Fatalf("update %s failed: %v", action, err)
	}
}
