package httpapi

import (
	"net/http"
	"time"

	"github.com/samber/lo"

	"github.com/eslsoft/parla/internal/entity"
	"github.com/eslsoft/parla/internal/usecase"
)

// GamificationHandler serves engagement state, achievements and statistics.
type GamificationHandler struct {
	engagement usecase.EngagementUsecase
}

func NewGamificationHandler(engagement usecase.EngagementUsecase) *GamificationHandler {
	return &GamificationHandler{engagement: engagement}
}

func (h *GamificationHandler) Profile(w http.ResponseWriter, r *http.Request) {
	state, err := h.engagement.Snapshot(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEngagementView(state))
}

func (h *GamificationHandler) Achievements(w http.ResponseWriter, r *http.Request) {
	achievements, err := h.engagement.Achievements(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pagedView[achievementView]{
		Items: lo.Map(achievements, func(a *entity.Achievement, _ int) achievementView {
			return achievementView{ID: a.ID, Type: string(a.Type), AchievedAt: a.AchievedAt}
		}),
		Total: int64(len(achievements)),
	})
}

func (h *GamificationHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	states, total, err := h.engagement.Leaderboard(r.Context(), paginationFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pagedView[*engagementView]{
		Items: lo.Map(states, func(s *entity.UserEngagementState, _ int) *engagementView { return toEngagementView(s) }),
		Total: total,
	})
}

func (h *GamificationHandler) DailyStats(w http.ResponseWriter, r *http.Request) {
	from, to, ok := dateRangeFrom(w, r)
	if !ok {
		return
	}
	stats, err := h.engagement.DailyStats(r.Context(), userIDFrom(r.Context()), from, to)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pagedView[dailyStatView]{
		Items: lo.Map(stats, func(s *entity.DailyStatistic, _ int) dailyStatView { return toDailyStatView(s) }),
		Total: int64(len(stats)),
	})
}

type statsSummaryView struct {
	From              string  `json:"from"`
	To                string  `json:"to"`
	Days              int     `json:"days"`
	PhrasesPracticed  int64   `json:"phrases_practiced"`
	CorrectAnswers    int64   `json:"correct_answers"`
	PracticeMinutes   int64   `json:"practice_minutes"`
	PointsEarned      int64   `json:"points_earned"`
	MeanDailyAccuracy float64 `json:"mean_daily_accuracy"`
	MedianDailyPoints float64 `json:"median_daily_points"`
}

func (h *GamificationHandler) StatsSummary(w http.ResponseWriter, r *http.Request) {
	from, to, ok := dateRangeFrom(w, r)
	if !ok {
		return
	}
	summary, err := h.engagement.StatsSummary(r.Context(), userIDFrom(r.Context()), from, to)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statsSummaryView{
		From:              summary.From.Format(time.DateOnly),
		To:                summary.To.Format(time.DateOnly),
		Days:              summary.Days,
		PhrasesPracticed:  summary.PhrasesPracticed,
		CorrectAnswers:    summary.CorrectAnswers,
		PracticeMinutes:   summary.PracticeMinutes,
		PointsEarned:      summary.PointsEarned,
		MeanDailyAccuracy: summary.MeanDailyAccuracy,
		MedianDailyPoints: summary.MedianDailyPoints,
	})
}

// dateRangeFrom parses the from/to query dates; the default window is the
// last 30 days inclusive.
func dateRangeFrom(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	now := time.Now().UTC()
	from := now.AddDate(0, 0, -29)
	to := now

	parse := func(key string, fallback time.Time) (time.Time, bool) {
		raw := r.URL.Query().Get(key)
		if raw == "" {
			return fallback, true
		}
		t, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			writeBadRequest(w, key+" must be a YYYY-MM-DD date")
			return time.Time{}, false
		}
		return t, true
	}

	from, ok := parse("from", from)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	to, ok = parse("to", to)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	if to.Before(from) {
		writeBadRequest(w, "to must not precede from")
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}
