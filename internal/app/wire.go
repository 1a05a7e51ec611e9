//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"

	"github.com/eslsoft/parla/internal/adapter/httpapi"
	adapterrepo "github.com/eslsoft/parla/internal/adapter/repository"
	"github.com/eslsoft/parla/internal/infrastructure/config"
	"github.com/eslsoft/parla/internal/infrastructure/database"
	"github.com/eslsoft/parla/internal/infrastructure/server"
	"github.com/eslsoft/parla/internal/usecase"
)

var configSet = wire.NewSet(
	config.Load,
)

var databaseSet = wire.NewSet(
	database.NewConnection,
)

var repositorySet = wire.NewSet(
	adapterrepo.NewReviewRepository,
	adapterrepo.NewSessionRepository,
	adapterrepo.NewEngagementRepository,
	adapterrepo.NewPhraseCatalog,
)

var usecaseSet = wire.NewSet(
	usecase.NewReviewUsecase,
	usecase.NewSessionUsecase,
	usecase.NewMatchingUsecase,
	usecase.NewEngagementUsecase,
	usecase.NewProgressUsecase,
)

var handlerSet = wire.NewSet(
	httpapi.NewFlashcardHandler,
	httpapi.NewSessionHandler,
	httpapi.NewMatchingHandler,
	httpapi.NewGamificationHandler,
	newRouter,
)

var serverSet = wire.NewSet(
	server.NewLogger,
	server.NewServer,
)

// Initialize builds the application container using Wire.
func Initialize() (*Container, func(), error) {
	wire.Build(
		configSet,
		databaseSet,
		repositorySet,
		usecaseSet,
		handlerSet,
		serverSet,
		wire.Struct(new(Container), "Logger", "Server"),
	)
	return nil, nil, nil
}
