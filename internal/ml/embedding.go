package ml

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/confradar/confradar/internal/config"
)

// EmbeddingService calls a remote embedding endpoint and caches the
// resulting vectors in Redis. Every failure path degrades to "no
// embedding available": callers receive nil and fall back to keyword
// scoring, they never see an error.
type EmbeddingService struct {
	httpClient  *http.Client
	redisClient *redis.Client
	logger      *logrus.Logger
	config      config.EmbeddingConfig
	cachePrefix string
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func NewEmbeddingService(cfg config.EmbeddingConfig, redisClient *redis.Client, logger *logrus.Logger) *EmbeddingService {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &EmbeddingService{
		httpClient:  &http.Client{Timeout: timeout},
		redisClient: redisClient,
		logger:      logger,
		config:      cfg,
		cachePrefix: "embed:text",
	}
}

// Available reports whether the remote service is configured at all.
func (s *EmbeddingService) Available() bool {
	return s.config.BaseURL != "" && s.config.APIKey != ""
}

// Embed returns the vector for a single text, or nil when no embedding
// is available.
func (s *EmbeddingService) Embed(ctx context.Context, text string) []float32 {
	vectors := s.EmbedBatch(ctx, []string{text})
	if len(vectors) != 1 {
		return nil
	}
	return vectors[0]
}

// EmbedBatch returns one vector per input text in the same order, or
// nil when the service is unconfigured or the call fails.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) [][]float32 {
	if !s.Available() || len(texts) == 0 {
		return nil
	}

	batchSize := s.config.BatchSize
	if batchSize > 0 && len(texts) > batchSize {
		texts = texts[:batchSize]
	}

	vectors := make([][]float32, len(texts))
	var misses []string
	var missIdx []int

	for i, text := range texts {
		if cached, found := s.getCached(ctx, text); found {
			vectors[i] = cached
			continue
		}
		misses = append(misses, text)
		missIdx = append(missIdx, i)
	}

	if len(misses) == 0 {
		return vectors
	}

	fetched := s.fetch(ctx, misses)
	if fetched == nil {
		embeddingRequestsTotal.WithLabelValues("error").Inc()
		return nil
	}
	embeddingRequestsTotal.WithLabelValues("ok").Inc()

	for j, vec := range fetched {
		vectors[missIdx[j]] = vec
		s.cache(ctx, misses[j], vec)
	}

	return vectors
}

func (s *EmbeddingService) fetch(ctx context.Context, texts []string) [][]float32 {
	body, err := json.Marshal(embeddingRequest{
		Model: s.config.Model,
		Input: texts,
	})
	if err != nil {
		s.logger.WithError(err).Warn("Failed to encode embedding request")
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.config.BaseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		s.logger.WithError(err).Warn("Failed to build embedding request")
		return nil
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.WithError(err).Warn("Embedding service unreachable")
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.logger.WithField("status", resp.StatusCode).Warn("Embedding service returned non-success")
		return nil
	}

	var decoded embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		s.logger.WithError(err).Warn("Failed to decode embedding response")
		return nil
	}

	if len(decoded.Data) != len(texts) {
		s.logger.WithFields(logrus.Fields{
			"requested": len(texts),
			"received":  len(decoded.Data),
		}).Warn("Embedding response count mismatch")
		return nil
	}

	vectors := make([][]float32, len(texts))
	for _, item := range decoded.Data {
		if item.Index < 0 || item.Index >= len(vectors) {
			s.logger.WithField("index", item.Index).Warn("Embedding response index out of range")
			return nil
		}
		if s.config.Dimensions > 0 && len(item.Embedding) != s.config.Dimensions {
			s.logger.WithFields(logrus.Fields{
				"expected": s.config.Dimensions,
				"got":      len(item.Embedding),
			}).Warn("Embedding dimension mismatch")
			return nil
		}
		vectors[item.Index] = item.Embedding
	}

	return vectors
}

func (s *EmbeddingService) cacheKey(text string) string {
	hash := sha256.Sum256([]byte(s.config.Model + "|" + text))
	return fmt.Sprintf("%s:%x", s.cachePrefix, hash[:16])
}

func (s *EmbeddingService) getCached(ctx context.Context, text string) ([]float32, bool) {
	if s.redisClient == nil {
		return nil, false
	}

	data, err := s.redisClient.Get(ctx, s.cacheKey(text)).Bytes()
	if err != nil {
		return nil, false
	}

	var vec []float32
	if err := json.Unmarshal(data, &vec); err != nil {
		return nil, false
	}
	return vec, true
}

func (s *EmbeddingService) cache(ctx context.Context, text string, vec []float32) {
	if s.redisClient == nil || vec == nil {
		return
	}

	data, err := json.Marshal(vec)
	if err != nil {
		return
	}

	if err := s.redisClient.Set(ctx, s.cacheKey(text), data, s.config.CacheTTL).Err(); err != nil {
		s.logger.WithError(err).Debug("Failed to cache embedding")
	}
}
