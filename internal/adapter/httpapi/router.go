package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// Handlers bundles the API handlers for router construction.
type Handlers struct {
	Flashcards   *FlashcardHandler
	Sessions     *SessionHandler
	Matching     *MatchingHandler
	Gamification *GamificationHandler
}

// NewRouter builds the API router. CORS is layered on by the server.
func NewRouter(h Handlers, logger *logrus.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestID)
	r.Use(requestLogger(logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(requireUser)

		r.Route("/flashcards", func(r chi.Router) {
			r.Get("/due", h.Flashcards.Due)
			r.Get("/reviews", h.Flashcards.List)
			r.Post("/answer", h.Flashcards.Answer)
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", h.Sessions.Start)
			r.Get("/", h.Sessions.List)
			r.Get("/{sessionID}", h.Sessions.Get)
			r.Post("/{sessionID}/complete", h.Sessions.Complete)
		})

		r.Route("/matching", func(r chi.Router) {
			r.Post("/start", h.Matching.Start)
			r.Post("/{sessionID}/check", h.Matching.Check)
		})

		r.Route("/gamification", func(r chi.Router) {
			r.Get("/profile", h.Gamification.Profile)
			r.Get("/achievements", h.Gamification.Achievements)
			r.Get("/leaderboard", h.Gamification.Leaderboard)
		})

		r.Route("/stats", func(r chi.Router) {
			r.Get("/daily", h.Gamification.DailyStats)
			r.Get("/summary", h.Gamification.StatsSummary)
		})
	})

	return r
}
