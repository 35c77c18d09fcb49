package ml

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var embeddingRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "confradar_embedding_requests_total",
	Help: "Remote embedding calls, by outcome.",
}, []string{"outcome"})
