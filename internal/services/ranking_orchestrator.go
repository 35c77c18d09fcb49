package services

import (
	"context"
	"errors"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/confradar/confradar/internal/config"
	"github.com/confradar/confradar/internal/ml"
	"github.com/confradar/confradar/pkg/models"
)

// ErrEmptyQuery is surfaced before any scoring runs; it is the one
// input-validation failure the query path has.
var ErrEmptyQuery = errors.New("query text is empty")

// RankResult is what the orchestrator hands its caller: the ranked
// slice plus the derived intent for transparency.
type RankResult struct {
	Intent      models.UserIntent         `json:"intent"`
	Results     []models.RankedConference `json:"results"`
	GeneratedAt time.Time                 `json:"generated_at"`
}

// RankingOrchestrator runs the full query pipeline: intent extraction,
// candidate filtering, concurrent three-axis scoring, and the final
// weighted ordering. All derived structures are owned by the request
// and discarded with it.
type RankingOrchestrator struct {
	catalog    *CatalogCache
	extractor  *IntentExtractor
	resolver   *DeadlineResolver
	relevance  *RelevanceScorer
	embeddings *ml.EmbeddingService
	config     *config.RankingConfig
	logger     *logrus.Logger
}

func NewRankingOrchestrator(
	catalog *CatalogCache,
	extractor *IntentExtractor,
	resolver *DeadlineResolver,
	relevance *RelevanceScorer,
	embeddings *ml.EmbeddingService,
	cfg *config.RankingConfig,
	logger *logrus.Logger,
) *RankingOrchestrator {
	return &RankingOrchestrator{
		catalog:    catalog,
		extractor:  extractor,
		resolver:   resolver,
		relevance:  relevance,
		embeddings: embeddings,
		config:     cfg,
		logger:     logger,
	}
}

// pastSignalWords let a query opt in to expired conferences.
var pastSignalWords = []string{
	"past", "history", "expired", "previous",
	"往年", "历史", "过期", "以往", "之前",
}

var yearRe = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)

// locationTerms maps bilingual query terms to the lowercase substring
// looked up in instance places. Ordered so extraction is
// deterministic.
var locationTerms = []struct{ term, place string }{
	{"beijing", "beijing"}, {"北京", "beijing"},
	{"shanghai", "shanghai"}, {"上海", "shanghai"},
	{"china", "china"}, {"中国", "china"},
	{"japan", "japan"}, {"日本", "japan"},
	{"korea", "korea"}, {"韩国", "korea"},
	{"singapore", "singapore"}, {"新加坡", "singapore"},
	{"hong kong", "hong kong"}, {"香港", "hong kong"},
	{"europe", "europe"}, {"欧洲", "europe"},
	{"london", "london"}, {"伦敦", "london"},
	{"canada", "canada"}, {"加拿大", "canada"},
	{"australia", "australia"}, {"澳大利亚", "australia"},
	{"usa", "usa"}, {"united states", "united states"}, {"美国", "united states"},
}

type candidate struct {
	conf     *models.Conference
	deadline *ResolvedDeadline
}

// Rank executes one query against the current catalog snapshot.
func (o *RankingOrchestrator) Rank(ctx context.Context, rawQuery string, limit int) (*RankResult, error) {
	start := time.Now()

	if strings.TrimSpace(rawQuery) == "" {
		queriesTotal.WithLabelValues("empty_query").Inc()
		return nil, ErrEmptyQuery
	}

	now := time.Now()
	intent := o.extractor.Extract(rawQuery)
	normalized := normalizeQuery(rawQuery)

	conferences := o.catalog.Conferences(ctx)
	candidates := o.filterCandidates(conferences, intent, normalized, now)

	// The live query is embedded at most once per request, before the
	// scoring fan-out and outside any lock. No retry here: backoff
	// belongs to the embedding collaborator.
	queryVec := o.embeddings.Embed(ctx, rawQuery)

	results := o.scoreCandidates(ctx, candidates, intent, queryVec, now)

	sortRanked(results)

	if limit <= 0 {
		limit = o.config.DefaultLimit
	}
	if len(results) > limit {
		results = results[:limit]
	}

	queriesTotal.WithLabelValues("ok").Inc()
	queryDuration.Observe(time.Since(start).Seconds())

	o.logger.WithFields(logrus.Fields{
		"candidates": len(candidates),
		"results":    len(results),
		"keywords":   len(intent.Keywords),
		"latency":    time.Since(start),
	}).Info("Query ranked")

	return &RankResult{
		Intent:      intent,
		Results:     results,
		GeneratedAt: now,
	}, nil
}

// filterCandidates applies the hard filters: rank tier, category,
// year/location substrings, and the default exclusion of expired
// conferences. A zero-candidate outcome is normal, not an error.
func (o *RankingOrchestrator) filterCandidates(
	conferences []models.Conference,
	intent models.UserIntent,
	normalizedQuery string,
	now time.Time,
) []candidate {
	category := CategoryFor(intent.Keywords)
	yearFilter := o.extractYear(normalizedQuery)
	placeFilter := extractLocation(normalizedQuery)
	allowPast := o.hasPastSignal(normalizedQuery, now)

	var candidates []candidate
	for i := range conferences {
		conf := &conferences[i]

		if intent.Rank != "" && conf.Rank != intent.Rank {
			continue
		}
		if category != "" && conf.Category != category {
			continue
		}
		if yearFilter != 0 && !hasInstanceYear(conf, yearFilter) {
			continue
		}
		if placeFilter != "" && !hasInstancePlace(conf, placeFilter) {
			continue
		}

		deadline := o.resolver.Resolve(conf, now)

		// Expired conferences are hidden unless the query explicitly
		// asks for them. This is an if/else policy, not a preference:
		// a conference with no parseable deadline is not expired and
		// stays in.
		if !allowPast && deadline != nil && !deadline.At.After(now) {
			continue
		}

		candidates = append(candidates, candidate{conf: conf, deadline: deadline})
	}

	return candidates
}

// scoreCandidates fans content scoring out across candidates; each
// computation is side-effect-free and owns its result slot, so no
// locking is needed. Once scoring starts it runs to completion.
func (o *RankingOrchestrator) scoreCandidates(
	ctx context.Context,
	candidates []candidate,
	intent models.UserIntent,
	queryVec []float32,
	now time.Time,
) []models.RankedConference {
	results := make([]models.RankedConference, len(candidates))

	var wg sync.WaitGroup
	for i := range candidates {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c := candidates[i]

			content := o.relevance.Score(ctx, c.conf, intent, queryVec)
			feasibility := FeasibilityScore(c.deadline, intent.DaysAvailable, now)
			difficulty := DifficultyScore(c.conf)

			results[i] = models.RankedConference{
				Conference: c.conf,
				Score: models.MatchScore{
					ContentMatch:    content,
					TimeFeasibility: feasibility,
					Difficulty:      difficulty,
					Overall:         o.overallScore(content, feasibility, difficulty),
				},
				Deadline: o.resolver.DeadlineInfo(c.deadline, now),
			}
		}(i)
	}
	wg.Wait()

	return results
}

func (o *RankingOrchestrator) overallScore(content, feasibility, difficulty int) int {
	return int(math.Round(
		float64(content)*o.config.ContentWeight +
			float64(feasibility)*o.config.FeasibilityWeight +
			float64(difficulty)*o.config.DifficultyWeight))
}

// sortRanked orders by overall score descending with a stable
// secondary key: soonest next deadline, then title. Undated
// conferences sort after dated ones at equal score.
func sortRanked(results []models.RankedConference) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Score.Overall != b.Score.Overall {
			return a.Score.Overall > b.Score.Overall
		}
		switch {
		case a.Deadline != nil && b.Deadline != nil:
			if !a.Deadline.At.Equal(b.Deadline.At) {
				return a.Deadline.At.Before(b.Deadline.At)
			}
		case a.Deadline != nil:
			return true
		case b.Deadline != nil:
			return false
		}
		return a.Conference.Title < b.Conference.Title
	})
}

// hasPastSignal reports whether the query explicitly asks about past
// editions: a dedicated keyword, or a bare year within the recent
// window that is not in the future.
func (o *RankingOrchestrator) hasPastSignal(q string, now time.Time) bool {
	for _, w := range pastSignalWords {
		if strings.Contains(q, w) {
			return true
		}
	}

	window := o.config.PastYearWindow
	if window <= 0 {
		window = 5
	}
	current := now.Year()
	for _, m := range yearRe.FindAllString(q, -1) {
		year, err := strconv.Atoi(m)
		if err == nil && year >= current-window && year <= current {
			return true
		}
	}
	return false
}

func (o *RankingOrchestrator) extractYear(q string) int {
	m := yearRe.FindString(q)
	if m == "" {
		return 0
	}
	year, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return year
}

func extractLocation(q string) string {
	for _, lt := range locationTerms {
		if strings.Contains(q, lt.term) {
			return lt.place
		}
	}
	return ""
}

func hasInstanceYear(conf *models.Conference, year int) bool {
	for _, inst := range conf.Instances {
		if inst.Year == year {
			return true
		}
	}
	return false
}

func hasInstancePlace(conf *models.Conference, place string) bool {
	for _, inst := range conf.Instances {
		if strings.Contains(strings.ToLower(inst.Place), place) {
			return true
		}
	}
	return false
}
