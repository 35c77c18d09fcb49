package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/confradar/confradar/internal/validation"
	"github.com/confradar/confradar/pkg/models"
)

// Querier is the subset of pgxpool.Pool the store needs. Kept narrow
// so tests can substitute pgxmock.
type Querier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

// CatalogStore reads the conference catalog. The catalog is written by
// the ingestion pipeline; this process never mutates it.
type CatalogStore struct {
	db        Querier
	validator *validation.SchemaValidator
	logger    *logrus.Logger
}

func NewCatalogStore(db Querier, validator *validation.SchemaValidator, logger *logrus.Logger) *CatalogStore {
	return &CatalogStore{
		db:        db,
		validator: validator,
		logger:    logger,
	}
}

// FetchAll loads every conference with its nested instances and
// timelines in a single read. Rows whose instances document fails
// schema validation are skipped with a warning.
func (s *CatalogStore) FetchAll(ctx context.Context) ([]models.Conference, error) {
	query := `
		SELECT id, title, description, category, rank,
			acceptance_history, tags, embedding, instances
		FROM conferences
		ORDER BY title`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("catalog query failed: %w", err)
	}
	defer rows.Close()

	var conferences []models.Conference
	for rows.Next() {
		var (
			conf          models.Conference
			id            uuid.UUID
			description   *string
			rank          *string
			acceptanceRaw []byte
			embedding     []float32
			instancesRaw  []byte
		)

		if err := rows.Scan(&id, &conf.Title, &description, &conf.Category, &rank,
			&acceptanceRaw, &conf.Tags, &embedding, &instancesRaw); err != nil {
			return nil, fmt.Errorf("failed to scan conference row: %w", err)
		}

		conf.ID = id
		if description != nil {
			conf.Description = *description
		}
		if rank != nil {
			conf.Rank = *rank
		}
		conf.Embedding = embedding

		if len(acceptanceRaw) > 0 {
			if err := json.Unmarshal(acceptanceRaw, &conf.Acceptance); err != nil {
				s.logger.WithError(err).WithField("conference", conf.Title).
					Warn("Dropping malformed acceptance history")
				conf.Acceptance = nil
			}
		}

		if err := s.validator.ValidateInstances(instancesRaw); err != nil {
			s.logger.WithError(err).WithField("conference", conf.Title).
				Warn("Skipping conference with invalid instances document")
			continue
		}
		if err := json.Unmarshal(instancesRaw, &conf.Instances); err != nil {
			s.logger.WithError(err).WithField("conference", conf.Title).
				Warn("Skipping conference with undecodable instances document")
			continue
		}

		conferences = append(conferences, conf)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog row iteration failed: %w", err)
	}

	return conferences, nil
}
