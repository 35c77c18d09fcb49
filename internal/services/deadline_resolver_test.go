package services

import (
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confradar/confradar/pkg/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func confWithTimeline(tz string, deadlines ...string) *models.Conference {
	items := make([]models.TimelineItem, len(deadlines))
	for i, d := range deadlines {
		items[i] = models.TimelineItem{Deadline: d}
	}
	return &models.Conference{
		Title: "Test Conference",
		Instances: []models.ConferenceInstance{
			{Year: 2026, Timezone: tz, Timeline: items},
		},
	}
}

func TestDeadlineResolver_PicksEarliestFutureDeadline(t *testing.T) {
	resolver := NewDeadlineResolver(testLogger())
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	conf := confWithTimeline("UTC",
		"2026-02-01 23:59:59", // past
		"2026-06-15 23:59:59",
		"2026-04-10 23:59:59",
	)

	rd := resolver.Resolve(conf, now)
	require.NotNil(t, rd)
	assert.Equal(t, time.Date(2026, 4, 10, 23, 59, 59, 0, time.UTC), rd.At.UTC())
}

func TestDeadlineResolver_AoEIsUTCMinus12(t *testing.T) {
	resolver := NewDeadlineResolver(testLogger())
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	conf := confWithTimeline("AoE", "2026-03-01 23:59:59")

	rd := resolver.Resolve(conf, now)
	require.NotNil(t, rd)

	// Local 23:59:59 at UTC-12 is noon-ish the next day in UTC.
	assert.Equal(t, time.Date(2026, 3, 2, 11, 59, 59, 0, time.UTC), rd.At.UTC())
}

func TestDeadlineResolver_UTCOffsetNotation(t *testing.T) {
	resolver := NewDeadlineResolver(testLogger())
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	conf := confWithTimeline("UTC+8", "2026-03-15 23:59:59")

	rd := resolver.Resolve(conf, now)
	require.NotNil(t, rd)
	assert.Equal(t, time.Date(2026, 3, 15, 15, 59, 59, 0, time.UTC), rd.At.UTC())
}

func TestDeadlineResolver_TBDIsSkipped(t *testing.T) {
	resolver := NewDeadlineResolver(testLogger())
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	conf := confWithTimeline("UTC", "TBD", "tbd")
	assert.Nil(t, resolver.Resolve(conf, now))

	conf = confWithTimeline("UTC", "TBD", "2026-05-01")
	rd := resolver.Resolve(conf, now)
	require.NotNil(t, rd)
	assert.Equal(t, "2026-05-01", rd.Item.Deadline)
}

func TestDeadlineResolver_UnparseableDeadlineDropped(t *testing.T) {
	resolver := NewDeadlineResolver(testLogger())
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	conf := confWithTimeline("UTC", "sometime in spring", "2026-05-01 12:00")

	rd := resolver.Resolve(conf, now)
	require.NotNil(t, rd)
	assert.Equal(t, "2026-05-01 12:00", rd.Item.Deadline)

	conf = confWithTimeline("UTC", "sometime in spring")
	assert.Nil(t, resolver.Resolve(conf, now))
}

func TestDeadlineResolver_AllPastKeepsMostRecent(t *testing.T) {
	resolver := NewDeadlineResolver(testLogger())
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	conf := confWithTimeline("UTC", "2025-01-01", "2025-11-30")

	rd := resolver.Resolve(conf, now)
	require.NotNil(t, rd)
	assert.Equal(t, "2025-11-30", rd.Item.Deadline)
	assert.True(t, rd.At.Before(now))
}

func TestDeadlineResolver_UnknownTimezoneTreatedAsUTC(t *testing.T) {
	resolver := NewDeadlineResolver(testLogger())
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	conf := confWithTimeline("somewhere", "2026-04-01 12:00")

	rd := resolver.Resolve(conf, now)
	require.NotNil(t, rd)
	assert.Equal(t, time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC), rd.At.UTC())
}

func TestCountdownLabel(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		deadline time.Time
		expected string
	}{
		{"expired", now.Add(-time.Hour), "expired"},
		{"exactly now", now, "expired"},
		{"far out shows days only", now.AddDate(0, 0, 10), "10d"},
		{"within three days shows hours", now.Add(51 * time.Hour), "2d 3h"},
		{"final day shows minutes", now.Add(5*time.Hour + 30*time.Minute), "5h 30m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CountdownLabel(now, tt.deadline))
		})
	}
}

func TestDeadlineInfo(t *testing.T) {
	resolver := NewDeadlineResolver(testLogger())
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	conf := &models.Conference{
		Title: "Test Conference",
		Instances: []models.ConferenceInstance{
			{
				Year:     2026,
				Place:    "Vienna, Austria",
				Timezone: "AoE",
				Link:     "https://example.org/2026",
				Timeline: []models.TimelineItem{
					{Deadline: "2026-04-10 23:59:59", Comment: "Full paper"},
				},
			},
		},
	}

	rd := resolver.Resolve(conf, now)
	require.NotNil(t, rd)

	info := resolver.DeadlineInfo(rd, now)
	require.NotNil(t, info)
	assert.Equal(t, "2026-04-10 23:59:59", info.LocalTime)
	assert.Equal(t, "AoE", info.Timezone)
	assert.Equal(t, "Full paper", info.Comment)
	assert.Equal(t, "https://example.org/2026", info.Link)
	assert.Equal(t, 2026, info.Year)
	assert.Equal(t, "Vienna, Austria", info.Place)
	assert.False(t, info.Expired)
	assert.NotEmpty(t, info.Countdown)

	assert.Nil(t, resolver.DeadlineInfo(nil, now))
}
