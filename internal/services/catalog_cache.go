package services

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/confradar/confradar/pkg/models"
)

// CatalogReader is the single-read contract the external store
// exposes. Failures must be catchable without taking the query path
// down.
type CatalogReader interface {
	FetchAll(ctx context.Context) ([]models.Conference, error)
}

// CatalogCache is the process-wide conference snapshot with bounded
// staleness. The first read after start, or after the TTL elapses,
// reloads synchronously; a failed reload is swallowed and the previous
// snapshot served — stale-but-available beats unavailable. Concurrent
// readers may transiently observe the to-be-replaced snapshot, which
// is acceptable: only eventual freshness within the TTL is promised.
type CatalogCache struct {
	store  CatalogReader
	ttl    time.Duration
	logger *logrus.Logger

	mu          sync.RWMutex
	snapshot    []models.Conference
	lastRefresh time.Time
	loaded      bool

	// reloadMu serializes the reload path so a slow store is hit by
	// at most one request at a time.
	reloadMu sync.Mutex
}

func NewCatalogCache(store CatalogReader, ttl time.Duration, logger *logrus.Logger) *CatalogCache {
	return &CatalogCache{
		store:  store,
		ttl:    ttl,
		logger: logger,
	}
}

// Conferences returns the current snapshot, refreshing it first when
// stale. The returned slice is shared and must be treated as
// read-only.
func (c *CatalogCache) Conferences(ctx context.Context) []models.Conference {
	if c.fresh() {
		return c.current()
	}

	c.reloadMu.Lock()
	defer c.reloadMu.Unlock()

	// Another request may have finished the reload while we waited.
	if c.fresh() {
		return c.current()
	}

	conferences, err := c.store.FetchAll(ctx)
	if err != nil {
		catalogRefreshTotal.WithLabelValues("error").Inc()
		c.logger.WithError(err).Warn("Catalog reload failed, serving previous snapshot")
		return c.current()
	}

	catalogRefreshTotal.WithLabelValues("ok").Inc()

	c.mu.Lock()
	c.snapshot = conferences
	c.lastRefresh = time.Now()
	c.loaded = true
	c.mu.Unlock()

	c.logger.WithField("conferences", len(conferences)).Info("Catalog snapshot refreshed")
	return conferences
}

// Invalidate forces a reload on the next read. Used by the catalog
// update consumer.
func (c *CatalogCache) Invalidate() {
	c.mu.Lock()
	c.lastRefresh = time.Time{}
	c.mu.Unlock()
}

// Age reports how old the current snapshot is.
func (c *CatalogCache) Age() (time.Duration, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.loaded {
		return 0, false
	}
	return time.Since(c.lastRefresh), true
}

func (c *CatalogCache) fresh() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded && time.Since(c.lastRefresh) < c.ttl
}

func (c *CatalogCache) current() []models.Conference {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}
