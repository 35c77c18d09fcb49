package models

import (
	"strings"

	"github.com/google/uuid"
)

// Category codes used by the catalog. Every conference carries exactly one.
const (
	CategoryAI = "AI" // artificial intelligence / machine learning
	CategoryCG = "CG" // computer graphics and multimedia
	CategoryCT = "CT" // theory
	CategoryDB = "DB" // databases and data mining
	CategoryDS = "DS" // computer systems and architecture
	CategoryNW = "NW" // networking
	CategorySC = "SC" // security and cryptography
	CategorySE = "SE" // software engineering and PL
	CategoryHI = "HI" // human-computer interaction
	CategoryMX = "MX" // interdisciplinary / other
)

// Rank tiers. An empty string means the conference is unranked.
const (
	RankA = "A"
	RankB = "B"
	RankC = "C"
)

// DeadlineTBD is the sentinel for a deadline that has been announced
// but not yet dated. It never participates in deadline resolution.
const DeadlineTBD = "TBD"

type AcceptanceRecord struct {
	Year int     `json:"year"`
	Rate float64 `json:"rate"` // percentage, e.g. 19.7
}

type TimelineItem struct {
	Deadline         string `json:"deadline"` // local timestamp or TBD
	AbstractDeadline string `json:"abstract_deadline,omitempty"`
	Comment          string `json:"comment,omitempty"`
}

type ConferenceInstance struct {
	Year     int            `json:"year"`
	Date     string         `json:"date,omitempty"`  // free-text date range
	Place    string         `json:"place,omitempty"` // free-text location
	Timezone string         `json:"timezone,omitempty"`
	Link     string         `json:"link,omitempty"`
	Timeline []TimelineItem `json:"timeline"`
}

type Conference struct {
	ID          uuid.UUID            `json:"id" db:"id"`
	Title       string               `json:"title" db:"title" validate:"required,min=1,max=255"`
	Description string               `json:"description,omitempty" db:"description"`
	Category    string               `json:"category" db:"category" validate:"required"`
	Rank        string               `json:"rank,omitempty" db:"rank" validate:"omitempty,oneof=A B C"`
	Acceptance  []AcceptanceRecord   `json:"acceptance_history,omitempty" db:"acceptance_history"`
	Tags        []string             `json:"tags,omitempty" db:"tags"`
	Embedding   []float32            `json:"-" db:"embedding"`
	Instances   []ConferenceInstance `json:"instances" db:"instances"`
}

// SearchText derives the text used to embed a conference when no
// precomputed vector is available.
func (c *Conference) SearchText() string {
	parts := make([]string, 0, 3)
	if c.Title != "" {
		parts = append(parts, c.Title)
	}
	if len(c.Tags) > 0 {
		parts = append(parts, strings.Join(c.Tags, " "))
	}
	if c.Description != "" {
		parts = append(parts, c.Description)
	}
	return strings.Join(parts, ". ")
}

// LatestAcceptance returns the most recent acceptance-rate entry.
func (c *Conference) LatestAcceptance() (AcceptanceRecord, bool) {
	if len(c.Acceptance) == 0 {
		return AcceptanceRecord{}, false
	}
	latest := c.Acceptance[0]
	for _, r := range c.Acceptance[1:] {
		if r.Year > latest.Year {
			latest = r
		}
	}
	return latest, true
}
