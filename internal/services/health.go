package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/confradar/confradar/internal/config"
	"github.com/confradar/confradar/internal/database"
)

type HealthService struct {
	config  *config.Config
	logger  *logrus.Logger
	db      *database.Database
	catalog *CatalogCache
}

type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
}

func NewHealthService(cfg *config.Config, logger *logrus.Logger, db *database.Database, catalog *CatalogCache) *HealthService {
	return &HealthService{
		config:  cfg,
		logger:  logger,
		db:      db,
		catalog: catalog,
	}
}

// Check pings the external dependencies and reports snapshot age. A
// stale catalog degrades the status but does not mark the service
// unhealthy: queries keep working from the last snapshot.
func (s *HealthService) Check(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now(),
		Services:  make(map[string]string),
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := s.db.PG.Ping(pingCtx); err != nil {
		status.Services["postgres"] = "unavailable"
		status.Status = "degraded"
		s.logger.WithError(err).Warn("Health check: PostgreSQL unreachable")
	} else {
		status.Services["postgres"] = "ok"
	}

	if err := s.db.Redis.Ping(pingCtx).Err(); err != nil {
		status.Services["redis"] = "unavailable"
		status.Status = "degraded"
		s.logger.WithError(err).Warn("Health check: Redis unreachable")
	} else {
		status.Services["redis"] = "ok"
	}

	if age, ok := s.catalog.Age(); !ok {
		status.Services["catalog"] = "not loaded"
	} else if age > 2*s.config.Ranking.CatalogTTL {
		status.Services["catalog"] = "stale"
		status.Status = "degraded"
	} else {
		status.Services["catalog"] = "ok"
	}

	return status
}
