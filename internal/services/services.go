package services

import (
	"github.com/sirupsen/logrus"

	"github.com/confradar/confradar/internal/config"
	"github.com/confradar/confradar/internal/database"
	"github.com/confradar/confradar/internal/ml"
	"github.com/confradar/confradar/internal/store"
	"github.com/confradar/confradar/internal/validation"
)

type Services struct {
	Health    *HealthService
	RateLimit *RateLimitService
	Catalog   *CatalogCache
	Ranking   *RankingOrchestrator
	Report    *ReportBuilder
	TextGen   *ml.TextGenService
}

func New(cfg *config.Config, logger *logrus.Logger, db *database.Database) (*Services, error) {
	validator, err := validation.NewSchemaValidator()
	if err != nil {
		return nil, err
	}

	catalogStore := store.NewCatalogStore(db.PG, validator, logger)
	catalog := NewCatalogCache(catalogStore, cfg.Ranking.CatalogTTL, logger)

	embeddings := ml.NewEmbeddingService(cfg.Embedding, db.Redis, logger)
	textGen := ml.NewTextGenService(cfg.TextGen, logger)

	extractor := NewIntentExtractor()
	resolver := NewDeadlineResolver(logger)
	relevance := NewRelevanceScorer(embeddings, cfg.Ranking.EmbeddingThreshold, logger)

	ranking := NewRankingOrchestrator(
		catalog, extractor, resolver, relevance, embeddings, &cfg.Ranking, logger,
	)

	return &Services{
		Health:    NewHealthService(cfg, logger, db, catalog),
		RateLimit: NewRateLimitService(cfg, logger, db.Redis),
		Catalog:   catalog,
		Ranking:   ranking,
		Report:    NewReportBuilder(),
		TextGen:   textGen,
	}, nil
}
