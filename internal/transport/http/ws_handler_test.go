package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"quiz-session-service/internal/app"
	"quiz-session-service/internal/auth"
	"quiz-session-service/internal/infra/memory"
)

func TestWebSocketPlayFlow(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSessionStore()
	sessions := app.NewSessionService(app.SessionServiceConfig{
		Store:   store,
		Quizzes: memory.NewQuizRepository(memory.NewStaticQuizLoader(sampleQuizzes()), time.Minute),
		Tokens:  auth.NewStaticResolver(map[string]string{"token-1": "user-1"}),
	})
	players := app.NewPlayerService(store)

	mux := http.NewServeMux()
	mux.HandleFunc("/play", NewWSHandler(players).ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	sessionID := "1"
	if _, err := sessions.Start(ctx, "token-1", "quiz-1", 0); err != nil {
		t.Fatalf("start session: %v", err)
	}

	u := "ws" + server.URL[len("http"):] + "/play?sessionId=" + sessionID + "&name=Alice"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Expect joined event first.
	_, payload := readNext(conn, t, "joined")
	if payload["playerId"] == nil {
		t.Fatalf("expected playerId in joined payload, got %v", payload)
	}

	// Answering before the question opens is rejected.
	writeMsg(conn, t, "answer", map[string]any{"questionPosition": 1, "answerIds": []int{2}})
	readNext(conn, t, "error")

	if err := sessions.Update(ctx, "token-1", "quiz-1", 1, "NEXT_QUESTION"); err != nil {
		t.Fatalf("next question: %v", err)
	}
	if err := sessions.Update(ctx, "token-1", "quiz-1", 1, "SKIP_COUNTDOWN"); err != nil {
		t.Fatalf("skip countdown: %v", err)
	}

	writeMsg(conn, t, "status", nil)
	_, payload = readNext(conn, t, "status")
	if payload["state"] != "QUESTION_OPEN" {
		t.Fatalf("expected QUESTION_OPEN, got %v", payload["state"])
	}

	writeMsg(conn, t, "question", map[string]any{"questionPosition": 1})
	_, payload = readNext(conn, t, "question")
	answers, ok := payload["answers"].([]any)
	if !ok || len(answers) != 3 {
		t.Fatalf("expected 3 answers, got %v", payload["answers"])
	}
	for _, a := range answers {
		if _, leaked := a.(map[string]any)["correct"]; leaked {
			t.Fatalf("answer leaked correct flag: %v", a)
		}
	}

	writeMsg(conn, t, "answer", map[string]any{"questionPosition": 1, "answerIds": []int{2}})
	readNext(conn, t, "answerAccepted")

	writeMsg(conn, t, "chat", map[string]any{"message": "ez"})
	readNext(conn, t, "chatSent")
	writeMsg(conn, t, "chatHistory", nil)
	_, payload = readNext(conn, t, "chatHistory")
	messages, ok := payload["messages"].([]any)
	if !ok || len(messages) != 1 {
		t.Fatalf("expected 1 chat message, got %v", payload["messages"])
	}

	if err := sessions.Update(ctx, "token-1", "quiz-1", 1, "GO_TO_ANSWER"); err != nil {
		t.Fatalf("go to answer: %v", err)
	}
	writeMsg(conn, t, "questionResults", map[string]any{"questionPosition": 1})
	_, payload = readNext(conn, t, "questionResults")
	correct, ok := payload["playersCorrectList"].([]any)
	if !ok || len(correct) != 1 || correct[0] != "Alice" {
		t.Fatalf("expected Alice correct, got %v", payload["playersCorrectList"])
	}

	if err := sessions.Update(ctx, "token-1", "quiz-1", 1, "GO_TO_FINAL_RESULTS"); err != nil {
		t.Fatalf("go to final results: %v", err)
	}
	writeMsg(conn, t, "finalResults", nil)
	_, payload = readNext(conn, t, "finalResults")
	if payload["usersRankedByScore"] == nil {
		t.Fatalf("expected ranked players, got %v", payload)
	}

	writeMsg(conn, t, "launchMissiles", nil)
	readNext(conn, t, "error")
}

func TestWebSocketJoinFailure(t *testing.T) {
	store := memory.NewSessionStore()
	players := app.NewPlayerService(store)

	mux := http.NewServeMux()
	mux.HandleFunc("/play", NewWSHandler(players).ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/play?sessionId=404&name=Alice"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	readNext(conn, t, "error")
}

func writeMsg(conn *websocket.Conn, t *testing.T, typ string, payload map[string]any) {
	t.Helper()
	msg := map[string]any{"type": typ}
	if payload != nil {
		msg["payload"] = payload
	}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s", expect, msg.Type)
	}
	return msg.Type, msg.Payload
}
