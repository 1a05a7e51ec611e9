package httpapi

import (
	"net/http"
	"strconv"

	"github.com/samber/lo"

	"github.com/eslsoft/parla/internal/entity"
	"github.com/eslsoft/parla/internal/repository"
	"github.com/eslsoft/parla/internal/usecase"
)

// FlashcardHandler serves due-review queries and answer submission.
type FlashcardHandler struct {
	reviews  usecase.ReviewUsecase
	progress usecase.ProgressUsecase
}

func NewFlashcardHandler(reviews usecase.ReviewUsecase, progress usecase.ProgressUsecase) *FlashcardHandler {
	return &FlashcardHandler{reviews: reviews, progress: progress}
}

func (h *FlashcardHandler) Due(w http.ResponseWriter, r *http.Request) {
	var limit int32
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			writeBadRequest(w, "limit must be an integer")
			return
		}
		limit = int32(n)
	}

	due, err := h.reviews.ListDue(r.Context(), userIDFrom(r.Context()), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pagedView[reviewView]{
		Items: lo.Map(due, func(s *entity.ReviewState, _ int) reviewView { return toReviewView(s) }),
		Total: int64(len(due)),
	})
}

func (h *FlashcardHandler) List(w http.ResponseWriter, r *http.Request) {
	states, total, err := h.reviews.ListReviews(r.Context(), userIDFrom(r.Context()), paginationFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pagedView[reviewView]{
		Items: lo.Map(states, func(s *entity.ReviewState, _ int) reviewView { return toReviewView(s) }),
		Total: total,
	})
}

type answerRequest struct {
	SessionID           int64  `json:"session_id"`
	PhraseID            int64  `json:"phrase_id"`
	WasCorrect          bool   `json:"was_correct"`
	Quality             *int   `json:"quality,omitempty"`
	ResponseTimeSeconds *int32 `json:"response_time_seconds,omitempty"`
}

type answerResponse struct {
	Session       sessionView     `json:"session"`
	Review        *reviewView     `json:"review,omitempty"`
	Engagement    *engagementView `json:"engagement,omitempty"`
	PointsAwarded int32           `json:"points_awarded"`
}

func (h *FlashcardHandler) Answer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.SessionID <= 0 || req.PhraseID <= 0 {
		writeBadRequest(w, "session_id and phrase_id are required")
		return
	}

	result, err := h.progress.SubmitAnswer(r.Context(), usecase.SubmitAnswerCommand{
		UserID:              userIDFrom(r.Context()),
		SessionID:           req.SessionID,
		PhraseID:            req.PhraseID,
		WasCorrect:          req.WasCorrect,
		ResponseTimeSeconds: req.ResponseTimeSeconds,
		Quality:             req.Quality,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	resp := answerResponse{
		Session:       toSessionView(result.Session),
		Engagement:    toEngagementView(result.Engagement),
		PointsAwarded: result.PointsAwarded,
	}
	if result.Review != nil {
		view := toReviewView(result.Review)
		resp.Review = &view
	}
	writeJSON(w, http.StatusOK, resp)
}

func paginationFrom(r *http.Request) repository.Pagination {
	parse := func(key string) int32 {
		n, _ := strconv.ParseInt(r.URL.Query().Get(key), 10, 32)
		return int32(n)
	}
	return repository.Pagination{PageNo: parse("page_no"), PageSize: parse("page_size")}
}
