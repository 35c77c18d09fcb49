package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	queriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "confradar_queries_total",
		Help: "Ranking queries processed, by outcome.",
	}, []string{"outcome"})

	queryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "confradar_query_duration_seconds",
		Help:    "End-to-end ranking latency.",
		Buckets: prometheus.DefBuckets,
	})

	catalogRefreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "confradar_catalog_refresh_total",
		Help: "Catalog snapshot reload attempts, by outcome.",
	}, []string{"outcome"})
)
