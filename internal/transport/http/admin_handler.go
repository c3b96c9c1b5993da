package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"quiz-session-service/internal/app"
	"quiz-session-service/internal/domain"
)

// AdminHandler exposes the admin session operations over HTTP. The token
// travels in the "token" request header.
type AdminHandler struct {
	sessions *app.SessionService
}

func NewAdminHandler(sessions *app.SessionService) *AdminHandler {
	return &AdminHandler{sessions: sessions}
}

// Register mounts the admin routes on mux.
func (h *AdminHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/admin/quiz/{quizID}/session/start", h.startSession)
	mux.HandleFunc("PUT /v1/admin/quiz/{quizID}/session/{sessionID}", h.updateSession)
	mux.HandleFunc("GET /v1/admin/quiz/{quizID}/sessions", h.listSessions)
	mux.HandleFunc("GET /v1/admin/quiz/{quizID}/session/{sessionID}", h.sessionStatus)
	mux.HandleFunc("GET /v1/admin/quiz/{quizID}/session/{sessionID}/results", h.sessionResults)
	mux.HandleFunc("GET /v1/admin/quiz/{quizID}/session/{sessionID}/results/csv", h.sessionResultsCSV)
}

func (h *AdminHandler) startSession(w http.ResponseWriter, r *http.Request) {
	var body struct {
		AutoStartNum int `json:"autoStartNum"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	sessionID, err := h.sessions.Start(r.Context(), token(r), r.PathValue("quizID"), body.AutoStartNum)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"sessionId": sessionID})
}

func (h *AdminHandler) updateSession(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionID(w, r)
	if !ok {
		return
	}
	var body struct {
		Action string `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.sessions.Update(r.Context(), token(r), r.PathValue("quizID"), sessionID, body.Action); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

func (h *AdminHandler) listSessions(w http.ResponseWriter, r *http.Request) {
	list, err := h.sessions.List(r.Context(), token(r), r.PathValue("quizID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *AdminHandler) sessionStatus(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionID(w, r)
	if !ok {
		return
	}
	status, err := h.sessions.Status(r.Context(), token(r), r.PathValue("quizID"), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *AdminHandler) sessionResults(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionID(w, r)
	if !ok {
		return
	}
	results, err := h.sessions.Results(r.Context(), token(r), r.PathValue("quizID"), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *AdminHandler) sessionResultsCSV(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionID(w, r)
	if !ok {
		return
	}
	csvText, err := h.sessions.ResultsCSV(r.Context(), token(r), r.PathValue("quizID"), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	if _, err := w.Write([]byte(csvText)); err != nil {
		log.Printf("write csv response: %v", err)
	}
}

func token(r *http.Request) string {
	return r.Header.Get("token")
}

func sessionID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("sessionID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid session id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write json response: %v", err)
	}
}

// writeError maps the core's error taxonomy to HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidToken):
		code = http.StatusUnauthorized
	case errors.Is(err, domain.ErrQuizNotOwned):
		code = http.StatusForbidden
	case errors.Is(err, domain.ErrQuizNotFound),
		errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrPlayerNotFound):
		code = http.StatusNotFound
	case errors.Is(err, domain.ErrQuizInTrash),
		errors.Is(err, domain.ErrNoQuestions),
		errors.Is(err, domain.ErrTooManySessions),
		errors.Is(err, domain.ErrAutoStartTooLarge),
		errors.Is(err, domain.ErrInvalidAction),
		errors.Is(err, domain.ErrActionUnavailable),
		errors.Is(err, domain.ErrWrongSessionState),
		errors.Is(err, domain.ErrSessionNotInLobby),
		errors.Is(err, domain.ErrNameTaken),
		errors.Is(err, domain.ErrInvalidQuestionPosition),
		errors.Is(err, domain.ErrInvalidAnswerIDs),
		errors.Is(err, domain.ErrInvalidMessage):
		code = http.StatusBadRequest
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
