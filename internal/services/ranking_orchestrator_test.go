package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confradar/confradar/internal/config"
	"github.com/confradar/confradar/internal/ml"
	"github.com/confradar/confradar/pkg/models"
)

type stubCatalog struct {
	conferences []models.Conference
	err         error
	calls       int
}

func (s *stubCatalog) FetchAll(ctx context.Context) ([]models.Conference, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.conferences, nil
}

func testRankingConfig() *config.RankingConfig {
	return &config.RankingConfig{
		ContentWeight:      0.4,
		FeasibilityWeight:  0.35,
		DifficultyWeight:   0.25,
		EmbeddingThreshold: 60,
		DefaultLimit:       10,
		CatalogTTL:         time.Minute,
		PastYearWindow:     5,
	}
}

func newTestOrchestrator(conferences []models.Conference) *RankingOrchestrator {
	logger := testLogger()
	catalog := NewCatalogCache(&stubCatalog{conferences: conferences}, time.Minute, logger)
	embeddings := ml.NewEmbeddingService(config.EmbeddingConfig{}, nil, logger)
	cfg := testRankingConfig()

	return NewRankingOrchestrator(
		catalog,
		NewIntentExtractor(),
		NewDeadlineResolver(logger),
		NewRelevanceScorer(embeddings, cfg.EmbeddingThreshold, logger),
		embeddings,
		cfg,
		logger,
	)
}

// deadlineInDays renders a UTC timeline entry the given number of days
// from now.
func deadlineInDays(days int) string {
	return time.Now().UTC().AddDate(0, 0, days).Format("2006-01-02 15:04")
}

func aiConference(title, rank string, deadline string) models.Conference {
	return models.Conference{
		ID:       uuid.New(),
		Title:    title,
		Category: models.CategoryAI,
		Rank:     rank,
		Tags:     []string{"artificial intelligence"},
		Instances: []models.ConferenceInstance{
			{
				Year:     time.Now().Year() + 1,
				Timezone: "UTC",
				Timeline: []models.TimelineItem{{Deadline: deadline}},
			},
		},
	}
}

func TestRank_EmptyQuery(t *testing.T) {
	o := newTestOrchestrator(nil)

	_, err := o.Rank(context.Background(), "   ", 0)
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestRank_RankFilterAndScoring(t *testing.T) {
	catalog := []models.Conference{
		aiConference("Alpha AI Symposium", models.RankA, deadlineInDays(80)),
		aiConference("Beta AI Workshop", models.RankB, deadlineInDays(80)),
	}
	o := newTestOrchestrator(catalog)

	result, err := o.Rank(context.Background(), "recommend ccf a artificial intelligence conferences, only 2 months left", 0)
	require.NoError(t, err)

	assert.Equal(t, "A", result.Intent.Rank)
	require.NotNil(t, result.Intent.DaysAvailable)
	assert.Equal(t, 60, *result.Intent.DaysAvailable)

	require.Len(t, result.Results, 1)
	top := result.Results[0]
	assert.Equal(t, "Alpha AI Symposium", top.Conference.Title)

	// Tag match on every keyword, 20 days of buffer, A-tier base
	// difficulty: 0.4*100 + 0.35*95 + 0.25*30 = 80.75 -> 81.
	assert.Equal(t, 100, top.Score.ContentMatch)
	assert.Equal(t, 95, top.Score.TimeFeasibility)
	assert.Equal(t, 30, top.Score.Difficulty)
	assert.Equal(t, 81, top.Score.Overall)

	require.NotNil(t, top.Deadline)
	assert.False(t, top.Deadline.Expired)
}

func TestRank_NoSignalsScoresNeutral(t *testing.T) {
	catalog := []models.Conference{
		aiConference("Alpha AI Symposium", models.RankA, deadlineInDays(40)),
	}
	o := newTestOrchestrator(catalog)

	result, err := o.Rank(context.Background(), "please recommend some conferences", 0)
	require.NoError(t, err)

	assert.Empty(t, result.Intent.Rank)
	assert.Nil(t, result.Intent.DaysAvailable)

	require.Len(t, result.Results, 1)
	score := result.Results[0].Score
	assert.Equal(t, 50, score.ContentMatch)
	assert.Equal(t, 70, score.TimeFeasibility)
}

func TestRank_ExpiredExcludedByDefault(t *testing.T) {
	catalog := []models.Conference{
		aiConference("Open AI Venue", models.RankA, deadlineInDays(30)),
		aiConference("Closed AI Venue", models.RankA, deadlineInDays(-30)),
	}
	o := newTestOrchestrator(catalog)

	result, err := o.Rank(context.Background(), "artificial intelligence conferences", 0)
	require.NoError(t, err)
	require.Len(t, result.Results, 1)
	assert.Equal(t, "Open AI Venue", result.Results[0].Conference.Title)
}

func TestRank_PastSignalIncludesExpired(t *testing.T) {
	catalog := []models.Conference{
		aiConference("Open AI Venue", models.RankA, deadlineInDays(30)),
		aiConference("Closed AI Venue", models.RankA, deadlineInDays(-30)),
	}
	o := newTestOrchestrator(catalog)

	result, err := o.Rank(context.Background(), "artificial intelligence conferences including past editions", 0)
	require.NoError(t, err)
	assert.Len(t, result.Results, 2)
}

func TestRank_UndatedConferenceIsNotExpired(t *testing.T) {
	catalog := []models.Conference{
		aiConference("Announced AI Venue", models.RankA, "TBD"),
	}
	o := newTestOrchestrator(catalog)

	result, err := o.Rank(context.Background(), "artificial intelligence conferences", 0)
	require.NoError(t, err)
	require.Len(t, result.Results, 1)
	assert.Nil(t, result.Results[0].Deadline)
}

func TestRank_LimitApplied(t *testing.T) {
	var catalog []models.Conference
	for i := 0; i < 15; i++ {
		catalog = append(catalog, aiConference(fmt.Sprintf("AI Venue %02d", i), models.RankA, deadlineInDays(30+i)))
	}
	o := newTestOrchestrator(catalog)

	result, err := o.Rank(context.Background(), "artificial intelligence conferences", 3)
	require.NoError(t, err)
	assert.Len(t, result.Results, 3)

	// Zero limit falls back to the configured default.
	result, err = o.Rank(context.Background(), "artificial intelligence conferences", 0)
	require.NoError(t, err)
	assert.Len(t, result.Results, 10)
}

func TestRank_CategoryFilterFromKeywords(t *testing.T) {
	security := aiConference("Security Summit", models.RankA, deadlineInDays(40))
	security.Category = models.CategorySC
	security.Tags = []string{"security"}

	catalog := []models.Conference{
		aiConference("Alpha AI Symposium", models.RankA, deadlineInDays(40)),
		security,
	}
	o := newTestOrchestrator(catalog)

	result, err := o.Rank(context.Background(), "security conferences please", 0)
	require.NoError(t, err)
	require.Len(t, result.Results, 1)
	assert.Equal(t, "Security Summit", result.Results[0].Conference.Title)
}

func TestRank_LocationFilter(t *testing.T) {
	vienna := aiConference("Vienna AI Days", models.RankA, deadlineInDays(40))
	vienna.Instances[0].Place = "Vienna, Austria"

	singapore := aiConference("Singapore AI Days", models.RankA, deadlineInDays(40))
	singapore.Instances[0].Place = "Singapore"

	o := newTestOrchestrator([]models.Conference{vienna, singapore})

	result, err := o.Rank(context.Background(), "artificial intelligence conferences in singapore", 0)
	require.NoError(t, err)
	require.Len(t, result.Results, 1)
	assert.Equal(t, "Singapore AI Days", result.Results[0].Conference.Title)
}

func TestSortRanked(t *testing.T) {
	now := time.Now()
	dl := func(days int) *models.DeadlineInfo {
		return &models.DeadlineInfo{At: now.AddDate(0, 0, days)}
	}
	rc := func(title string, overall int, deadline *models.DeadlineInfo) models.RankedConference {
		return models.RankedConference{
			Conference: &models.Conference{Title: title},
			Score:      models.MatchScore{Overall: overall},
			Deadline:   deadline,
		}
	}

	results := []models.RankedConference{
		rc("Dated Late", 80, dl(60)),
		rc("Undated", 80, nil),
		rc("Winner", 90, dl(90)),
		rc("Dated Soon", 80, dl(10)),
		rc("Alpha Tie", 80, dl(10)),
	}

	sortRanked(results)

	titles := make([]string, len(results))
	for i, r := range results {
		titles[i] = r.Conference.Title
	}
	assert.Equal(t, []string{"Winner", "Alpha Tie", "Dated Soon", "Dated Late", "Undated"}, titles)
}

func TestHasPastSignal(t *testing.T) {
	o := newTestOrchestrator(nil)
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	assert.True(t, o.hasPastSignal("past deadlines for ai", now))
	assert.True(t, o.hasPastSignal("历史截稿日期", now))
	assert.True(t, o.hasPastSignal("icml 2024 deadline", now))
	assert.False(t, o.hasPastSignal("icml 2027 deadline", now))
	assert.False(t, o.hasPastSignal("upcoming ai deadlines", now))
}
