package services

import (
	"math"
	"time"

	"github.com/confradar/confradar/pkg/models"
)

// Time feasibility policy. The bands are fixed values visible in
// regression output; they are not derived from anything.
const (
	feasibilityDefault = 70 // no stated budget
	feasibilityExpired = 0
)

// FeasibilityScore rates how comfortably the deadline falls after the
// stated work-remaining budget. buffer = days until deadline minus
// budget; a negative buffer is penalized linearly (2 points per day,
// floored at 0), a positive one climbs through fixed bands.
func FeasibilityScore(deadline *ResolvedDeadline, budgetDays *int, now time.Time) int {
	if budgetDays == nil {
		return feasibilityDefault
	}
	if deadline == nil {
		return feasibilityDefault
	}
	if !deadline.At.After(now) {
		return feasibilityExpired
	}

	daysUntil := int(deadline.At.Sub(now).Hours() / 24)
	buffer := daysUntil - *budgetDays

	switch {
	case buffer < 0:
		score := 50 + buffer*2
		if score < 0 {
			return 0
		}
		return score
	case buffer < 7:
		return 75
	case buffer < 14:
		return 85
	case buffer < 30:
		return 95
	default:
		return 100
	}
}

// Difficulty base scores by rank tier; higher means easier.
const (
	difficultyTierA       = 30
	difficultyTierB       = 50
	difficultyTierC       = 70
	difficultyTierUnknown = 50

	difficultyFloor = 20
	difficultyCeil  = 90
)

// DifficultyScore derives an inverse competitiveness proxy from the
// rank tier, adjusted by the most recent acceptance rate when history
// exists. A conference without history keeps the bare tier score.
func DifficultyScore(conf *models.Conference) int {
	var base int
	switch conf.Rank {
	case models.RankA:
		base = difficultyTierA
	case models.RankB:
		base = difficultyTierB
	case models.RankC:
		base = difficultyTierC
	default:
		base = difficultyTierUnknown
	}

	latest, ok := conf.LatestAcceptance()
	if !ok {
		return base
	}

	adjusted := float64(base) + (latest.Rate-25)*0.5
	if adjusted < difficultyFloor {
		return difficultyFloor
	}
	if adjusted > difficultyCeil {
		return difficultyCeil
	}
	return int(math.Round(adjusted))
}
