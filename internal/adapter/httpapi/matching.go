package httpapi

import (
	"net/http"

	"github.com/samber/lo"

	"github.com/eslsoft/parla/internal/entity"
	"github.com/eslsoft/parla/internal/usecase"
)

// MatchingHandler serves the matching mini-game.
type MatchingHandler struct {
	matching usecase.MatchingUsecase
	progress usecase.ProgressUsecase
}

func NewMatchingHandler(matching usecase.MatchingUsecase, progress usecase.ProgressUsecase) *MatchingHandler {
	return &MatchingHandler{matching: matching, progress: progress}
}

type startMatchingRequest struct {
	PairCount int `json:"pair_count"`
}

func (h *MatchingHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req startMatchingRequest
	if !decodeBody(w, r, &req) {
		return
	}

	round, err := h.matching.Start(r.Context(), userIDFrom(r.Context()), req.PairCount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMatchingRoundView(round))
}

type checkMatchingRequest struct {
	Matches []matchSubmissionView `json:"matches"`
}

type matchSubmissionView struct {
	LeftID  int64 `json:"left_id"`
	RightID int64 `json:"right_id"`
}

func (h *MatchingHandler) Check(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDFrom(w, r)
	if !ok {
		return
	}
	var req checkMatchingRequest
	if !decodeBody(w, r, &req) {
		return
	}

	matches := lo.Map(req.Matches, func(m matchSubmissionView, _ int) entity.MatchSubmission {
		return entity.MatchSubmission{LeftID: m.LeftID, RightID: m.RightID}
	})
	result, err := h.progress.SubmitMatches(r.Context(), userIDFrom(r.Context()), id, matches)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMatchingResultView(result))
}
