package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"

	"github.com/eslsoft/parla/internal/entity"
	"github.com/eslsoft/parla/internal/usecase"
)

// SessionHandler serves the practice-session lifecycle.
type SessionHandler struct {
	sessions usecase.SessionUsecase
	progress usecase.ProgressUsecase
}

func NewSessionHandler(sessions usecase.SessionUsecase, progress usecase.ProgressUsecase) *SessionHandler {
	return &SessionHandler{sessions: sessions, progress: progress}
}

type startSessionRequest struct {
	Type     string         `json:"type"`
	ModeData map[string]any `json:"mode_data,omitempty"`
}

func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	session, err := h.sessions.Start(r.Context(), userIDFrom(r.Context()), req.Type, req.ModeData)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSessionView(session))
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDFrom(w, r)
	if !ok {
		return
	}
	session, err := h.sessions.Get(r.Context(), userIDFrom(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionView(session))
}

func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	sessions, total, err := h.sessions.List(r.Context(), userIDFrom(r.Context()), paginationFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pagedView[sessionView]{
		Items: lo.Map(sessions, func(s *entity.PracticeSession, _ int) sessionView { return toSessionView(s) }),
		Total: total,
	})
}

func (h *SessionHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDFrom(w, r)
	if !ok {
		return
	}
	session, err := h.progress.CompleteSession(r.Context(), userIDFrom(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionView(session))
}

func sessionIDFrom(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "sessionID"), 10, 64)
	if err != nil || id <= 0 {
		writeBadRequest(w, "invalid session id")
		return 0, false
	}
	return id, true
}
