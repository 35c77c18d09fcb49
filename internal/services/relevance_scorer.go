package services

import (
	"context"
	"math"
	"strings"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/confradar/confradar/internal/ml"
	"github.com/confradar/confradar/pkg/models"
)

// matchVariant tags the two content-match strategies. The variant is
// chosen by a pure decision function so each path can be tested in
// isolation; a strong keyword match can never outrank a confident
// embedding match.
type matchVariant int

const (
	variantConfidentEmbedding matchVariant = iota
	variantKeywordFallback
)

// Per-keyword contribution tiers for the keyword fallback.
const (
	tagMatchWeight      = 1.0
	textMatchWeight     = 0.8
	categoryMatchWeight = 0.6
	neutralContentScore = 50
)

// RelevanceScorer computes the content-match sub-score in [0,100].
type RelevanceScorer struct {
	embeddings *ml.EmbeddingService
	threshold  float64 // mapped-similarity acceptance threshold
	logger     *logrus.Logger
}

func NewRelevanceScorer(embeddings *ml.EmbeddingService, threshold float64, logger *logrus.Logger) *RelevanceScorer {
	return &RelevanceScorer{
		embeddings: embeddings,
		threshold:  threshold,
		logger:     logger,
	}
}

// Score returns the content match for one conference. queryVec may be
// nil when the embedding service is unavailable; the scorer then runs
// entirely on keywords.
func (s *RelevanceScorer) Score(ctx context.Context, conf *models.Conference, intent models.UserIntent, queryVec []float32) int {
	confVec := conf.Embedding

	// Lazy path: the query has a vector but the conference does not.
	// Derive one from the conference's search text (cached by the
	// embedding service) and retry the embedding variant once.
	if queryVec != nil && len(confVec) == 0 && s.embeddings != nil {
		confVec = s.embeddings.Embed(ctx, conf.SearchText())
	}

	switch chooseVariant(queryVec, confVec) {
	case variantConfidentEmbedding:
		if mapped, ok := s.embeddingScore(queryVec, confVec); ok {
			return mapped
		}
	}

	return keywordScore(conf, intent.Keywords)
}

// chooseVariant is the pure strategy decision: embeddings are used
// only when both vectors exist and agree in dimension.
func chooseVariant(queryVec, confVec []float32) matchVariant {
	if len(queryVec) > 0 && len(confVec) == len(queryVec) {
		return variantConfidentEmbedding
	}
	return variantKeywordFallback
}

// embeddingScore maps cosine similarity from [-1,1] to [0,100] and
// accepts it only above the confidence threshold. Below the threshold
// the keyword heuristic decides instead.
func (s *RelevanceScorer) embeddingScore(queryVec, confVec []float32) (int, bool) {
	sim, ok := cosineSimilarity(queryVec, confVec)
	if !ok {
		return 0, false
	}

	mapped := (sim + 1) * 50
	if mapped > s.threshold {
		return int(math.Round(mapped)), true
	}
	return 0, false
}

func cosineSimilarity(a, b []float32) (float64, bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}

	av := make([]float64, len(a))
	bv := make([]float64, len(b))
	for i := range a {
		av[i] = float64(a[i])
		bv[i] = float64(b[i])
	}

	normA := floats.Norm(av, 2)
	normB := floats.Norm(bv, 2)
	if normA == 0 || normB == 0 {
		return 0, false
	}

	return floats.Dot(av, bv) / (normA * normB), true
}

// keywordScore awards each intent keyword its highest-tier match:
// topic tag, then title/description substring, then the category
// lookup table. Zero keywords is no evidence either way and scores a
// neutral 50.
func keywordScore(conf *models.Conference, keywords []string) int {
	if len(keywords) == 0 {
		return neutralContentScore
	}

	text := strings.ToLower(conf.Title + " " + conf.Description)
	catTerms := categoryKeywords(conf.Category)

	sum := 0.0
	for _, kw := range keywords {
		switch {
		case matchesTag(conf.Tags, kw):
			sum += tagMatchWeight
		case strings.Contains(text, kw):
			sum += textMatchWeight
		case matchesCategory(catTerms, kw):
			sum += categoryMatchWeight
		}
	}

	return int(math.Round(sum / float64(len(keywords)) * 100))
}

func matchesTag(tags []string, kw string) bool {
	for _, tag := range tags {
		t := strings.ToLower(tag)
		if strings.Contains(t, kw) || strings.Contains(kw, t) {
			return true
		}
	}
	return false
}

func matchesCategory(catTerms []string, kw string) bool {
	for _, term := range catTerms {
		if strings.Contains(term, kw) || strings.Contains(kw, term) {
			return true
		}
	}
	return false
}
