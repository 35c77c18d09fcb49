package handlers

import (
	"github.com/sirupsen/logrus"

	"github.com/confradar/confradar/internal/services"
)

type Handlers struct {
	Health     *HealthHandler
	Query      *QueryHandler
	Conference *ConferenceHandler
}

func New(logger *logrus.Logger, services *services.Services) *Handlers {
	return &Handlers{
		Health:     NewHealthHandler(logger, services.Health),
		Query:      NewQueryHandler(services.Ranking, services.Report, services.TextGen, logger),
		Conference: NewConferenceHandler(services.Catalog, logger),
	}
}
