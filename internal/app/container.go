package app

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/eslsoft/parla/internal/adapter/httpapi"
	"github.com/eslsoft/parla/internal/infrastructure/server"
)

// Container aggregates the application dependencies produced by Wire.
type Container struct {
	Logger *logrus.Logger
	Server *server.Server
}

func newRouter(
	flashcards *httpapi.FlashcardHandler,
	sessions *httpapi.SessionHandler,
	matching *httpapi.MatchingHandler,
	gamification *httpapi.GamificationHandler,
	logger *logrus.Logger,
) http.Handler {
	return httpapi.NewRouter(httpapi.Handlers{
		Flashcards:   flashcards,
		Sessions:     sessions,
		Matching:     matching,
		Gamification: gamification,
	}, logger)
}
